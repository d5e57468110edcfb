package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"ramen-office/services"
)

// Handler - HTTP/WebSocket 핸들러 의존성
type Handler struct {
	Hub       *ClientManager
	Registry  *services.DeviceRegistry
	Presence  *services.Presence
	Scanner   *services.Scanner
	Simulator *services.OfficeSimulator
	Logs      *services.LogQuery
	Logger    *zap.Logger
	Now       func() time.Time
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// NewApp - 라우트가 등록된 fiber 앱 생성
func NewApp(h *Handler, allowOrigins string, requestLog bool) *fiber.App {
	if h.Logger == nil {
		h.Logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		AppName:               "ramen-office",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	if requestLog {
		app.Use(logger.New())
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: allowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	api := app.Group("/api")
	api.Get("/health", h.HandleHealth)

	// 디바이스
	api.Get("/devices", h.HandleGetDevices)
	api.Get("/devices/online", h.HandleGetOnlineDevices)
	api.Post("/devices/:mac/name", h.HandleRenameDevice)

	// 테스트용 접속/이탈
	api.Post("/simulate/connect", h.HandleSimulateConnect)
	api.Post("/simulate/disconnect", h.HandleSimulateDisconnect)

	// 사무실
	office := api.Group("/office")
	office.Get("/layout", h.HandleGetLayout)
	office.Get("/actors", h.HandleGetActors)
	office.Get("/zones", h.HandleGetZones)

	// 경로 탐색
	api.Post("/pathfinding", h.HandlePathfinding)

	// 활동 로그
	logsAPI := api.Group("/logs")
	logsAPI.Get("/recent", h.HandleGetRecentLogs)
	logsAPI.Get("/range", h.HandleGetLogsByTimeRange)
	logsAPI.Get("/type", h.HandleGetLogsByEventType)
	logsAPI.Get("/stats", h.HandleGetLogStats)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(h.HandleWebSocket))

	return app
}

// HandleHealth - 서버 상태
func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "OK",
		"clients": h.Hub.ClientCount(),
		"actors":  h.Simulator.ActorCount(),
		"time":    h.now().Format(time.RFC3339),
	})
}

func errorJSON(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}
