package handlers

import (
	"github.com/gofiber/fiber/v2"

	"ramen-office/models"
)

// HandleGetLayout - 사무실 배치와 충돌 맵
func (h *Handler) HandleGetLayout(c *fiber.Ctx) error {
	layout := h.Simulator.Layout()
	return c.JSON(fiber.Map{
		"layout":    layout,
		"collision": layout.CollisionMap(),
	})
}

// HandleGetActors - 현재 캐릭터 상태
func (h *Handler) HandleGetActors(c *fiber.Ctx) error {
	actors := h.Simulator.Snapshot()
	return c.JSON(fiber.Map{
		"count":  len(actors),
		"actors": actors,
	})
}

type zoneStatus struct {
	models.ActivityZone
	Occupancy int      `json:"occupancy"`
	Occupants []string `json:"occupants"`
	Available bool     `json:"available"`
}

// HandleGetZones - 활동 구역과 점유 현황
func (h *Handler) HandleGetZones(c *fiber.Ctx) error {
	counts := make(map[string]int)
	occupants := make(map[string][]string)
	for _, occ := range h.Simulator.Zones() {
		counts[occ.ZoneID] = occ.Count
		occupants[occ.ZoneID] = occ.Occupants
	}

	zones := h.Simulator.Layout().Zones
	out := make([]zoneStatus, 0, len(zones))
	for _, z := range zones {
		out = append(out, zoneStatus{
			ActivityZone: z,
			Occupancy:    counts[z.ID],
			Occupants:    occupants[z.ID],
			Available:    counts[z.ID] < z.Capacity,
		})
	}
	return c.JSON(out)
}
