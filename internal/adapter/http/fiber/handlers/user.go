package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/chargechain/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/chargechain/internal/ports"
)

type UserHandler struct {
	service ports.UserService
	log     *zap.Logger
}

func NewUserHandler(service ports.UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		log:     log,
	}
}

func (h *UserHandler) Me(c *fiber.Ctx) error {
	user, err := h.service.GetProfile(c.Context(), middleware.Wallet(c))
	if err != nil {
		return err
	}

	return c.JSON(user)
}
