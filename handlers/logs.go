package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func queryLimit(c *fiber.Ctx) int {
	limit, err := strconv.Atoi(c.Query("limit", "100"))
	if err != nil || limit <= 0 {
		return 100
	}
	return limit
}

// HandleGetRecentLogs - 최근 활동 로그 (device_id 생략 시 전체)
func (h *Handler) HandleGetRecentLogs(c *fiber.Ctx) error {
	logs, err := h.Logs.Recent(c.Query("device_id"), queryLimit(c))
	if err != nil {
		h.Logger.Error("fetch recent logs", zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to fetch logs")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(logs),
		"logs":    logs,
	})
}

// HandleGetLogsByTimeRange - 시간 범위로 조회 (RFC3339, 기본 최근 24시간)
func (h *Handler) HandleGetLogsByTimeRange(c *fiber.Ctx) error {
	now := h.now()

	start := now.Add(-24 * time.Hour)
	if s := c.Query("start"); s != "" {
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return errorJSON(c, fiber.StatusBadRequest, "Invalid start time format (use RFC3339)")
		}
		start = parsed
	}

	end := now
	if s := c.Query("end"); s != "" {
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return errorJSON(c, fiber.StatusBadRequest, "Invalid end time format (use RFC3339)")
		}
		end = parsed
	}

	logs, err := h.Logs.ByTimeRange(c.Query("device_id"), start, end, queryLimit(c))
	if err != nil {
		h.Logger.Error("fetch logs by time range", zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to fetch logs")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(logs),
		"time_range": fiber.Map{
			"start": start.Format(time.RFC3339),
			"end":   end.Format(time.RFC3339),
		},
		"logs": logs,
	})
}

// HandleGetLogsByEventType - 이벤트 타입별 조회
func (h *Handler) HandleGetLogsByEventType(c *fiber.Ctx) error {
	eventType := c.Query("event_type")
	if eventType == "" {
		return errorJSON(c, fiber.StatusBadRequest, "event_type parameter is required")
	}

	logs, err := h.Logs.ByEventType(c.Query("device_id"), eventType, queryLimit(c))
	if err != nil {
		h.Logger.Error("fetch logs by event type", zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to fetch logs")
	}
	return c.JSON(fiber.Map{
		"success":    true,
		"count":      len(logs),
		"event_type": eventType,
		"logs":       logs,
	})
}

// HandleGetLogStats - 통계
func (h *Handler) HandleGetLogStats(c *fiber.Ctx) error {
	hours, err := strconv.Atoi(c.Query("hours", "24"))
	if err != nil || hours <= 0 {
		hours = 24
	}

	stats, err := h.Logs.Stats(c.Query("device_id"), hours, h.now())
	if err != nil {
		h.Logger.Error("fetch log stats", zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to fetch stats")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"stats":   stats,
	})
}
