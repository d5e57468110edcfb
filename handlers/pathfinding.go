package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"ramen-office/algorithms"
	"ramen-office/models"
)

// PathfindingRequest - 경로 탐색 요청 (그리드 좌표)
//
// MapWidth/MapHeight가 주어지면 Obstacles로 만든 임시 그리드를, 아니면
// 사무실 충돌 맵을 사용한다.
type PathfindingRequest struct {
	Start     models.GridPoint   `json:"start"`
	Goal      models.GridPoint   `json:"goal"`
	MapWidth  int                `json:"map_width"`
	MapHeight int                `json:"map_height"`
	Obstacles []models.GridPoint `json:"obstacles"`
}

// PathfindingResponse - 경로 탐색 결과 (path는 시작점 제외, 목표 포함)
type PathfindingResponse struct {
	Success bool               `json:"success"`
	Path    []models.GridPoint `json:"path"`
	Cost    float64            `json:"cost"`
	Message string             `json:"message,omitempty"`
}

// 요청 그리드 한 변의 최대 길이
const maxRequestGridSide = 256

// HandlePathfinding - A* 경로 탐색
func (h *Handler) HandlePathfinding(c *fiber.Ctx) error {
	var req PathfindingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(PathfindingResponse{
			Message: "Invalid request body",
			Path:    []models.GridPoint{},
		})
	}

	grid := h.Simulator.Grid()
	if req.MapWidth > 0 || req.MapHeight > 0 {
		if req.MapWidth <= 0 || req.MapHeight <= 0 || req.MapWidth > maxRequestGridSide || req.MapHeight > maxRequestGridSide {
			return c.Status(fiber.StatusBadRequest).JSON(PathfindingResponse{
				Message: "Invalid map size",
				Path:    []models.GridPoint{},
			})
		}
		grid = algorithms.NewGrid(req.MapWidth, req.MapHeight)
		for _, ob := range req.Obstacles {
			grid.Block(ob.X, ob.Y)
		}
	}

	path := <-grid.FindPathAsync(c.UserContext(), req.Start, req.Goal)

	h.Logger.Debug("pathfinding",
		zap.Int("start_x", req.Start.X),
		zap.Int("start_y", req.Start.Y),
		zap.Int("goal_x", req.Goal.X),
		zap.Int("goal_y", req.Goal.Y),
		zap.Int("steps", len(path)),
	)

	if len(path) == 0 {
		return c.JSON(PathfindingResponse{
			Success: false,
			Path:    path,
			Message: "No path found",
		})
	}
	return c.JSON(PathfindingResponse{
		Success: true,
		Path:    path,
		Cost:    algorithms.PathCost(req.Start, path),
	})
}
