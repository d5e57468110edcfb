package handlers

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"ramen-office/services"
)

// HandleGetDevices - 전체 디바이스
func (h *Handler) HandleGetDevices(c *fiber.Ctx) error {
	devices, err := h.Registry.All()
	if err != nil {
		h.Logger.Error("list devices", zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to fetch devices")
	}
	return c.JSON(devices)
}

// HandleGetOnlineDevices - 접속 중인 디바이스
func (h *Handler) HandleGetOnlineDevices(c *fiber.Ctx) error {
	devices, err := h.Registry.Online()
	if err != nil {
		h.Logger.Error("list online devices", zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to fetch devices")
	}
	return c.JSON(devices)
}

type renameRequest struct {
	Name string `json:"name"`
}

// HandleRenameDevice - 표시 이름 변경
func (h *Handler) HandleRenameDevice(c *fiber.Ctx) error {
	var req renameRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}

	dev, err := h.Presence.Rename(c.Params("mac"), strings.TrimSpace(req.Name))
	if errors.Is(err, services.ErrDeviceNotFound) {
		return errorJSON(c, fiber.StatusNotFound, "Device not found")
	}
	if err != nil {
		h.Logger.Error("rename device", zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to rename device")
	}
	return c.JSON(dev)
}

type simulateRequest struct {
	MAC string `json:"mac"`
	IP  string `json:"ip"`
}

// HandleSimulateConnect - 가상 디바이스 접속 (mac/ip 생략 시 자동 생성)
func (h *Handler) HandleSimulateConnect(c *fiber.Ctx) error {
	var req simulateRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
		}
	}
	if req.MAC == "" {
		req.MAC = fmt.Sprintf("test:%x", h.now().UnixNano())
	}
	if req.IP == "" {
		req.IP = fmt.Sprintf("192.168.1.%d", rand.Intn(254)+1)
	}

	dev, err := h.Scanner.SimulateConnect(strings.ToLower(req.MAC), req.IP)
	if err != nil {
		h.Logger.Error("simulate connect", zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to connect device")
	}
	return c.JSON(dev)
}

// HandleSimulateDisconnect - 가상 디바이스 이탈
func (h *Handler) HandleSimulateDisconnect(c *fiber.Ctx) error {
	var req simulateRequest
	if err := c.BodyParser(&req); err != nil || req.MAC == "" {
		return errorJSON(c, fiber.StatusBadRequest, "mac is required")
	}

	dev, err := h.Scanner.SimulateDisconnect(strings.ToLower(req.MAC))
	if errors.Is(err, services.ErrDeviceNotFound) {
		return errorJSON(c, fiber.StatusNotFound, "Device not found")
	}
	if err != nil {
		h.Logger.Error("simulate disconnect", zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to disconnect device")
	}
	return c.JSON(dev)
}
