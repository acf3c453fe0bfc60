package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/seu-repo/chargechain/internal/service/health"
)

type HealthHandler struct {
	service *health.Service
}

func NewHealthHandler(service *health.Service) *HealthHandler {
	return &HealthHandler{service: service}
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(h.service.Health(c.Context()))
}

func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	resp := h.service.Ready(c.Context())
	if !resp.Ready {
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}
	return c.JSON(resp)
}
