package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/chargechain/internal/ports"
)

type AuthHandler struct {
	service ports.AuthService
	log     *zap.Logger
}

func NewAuthHandler(service ports.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		log:     log,
	}
}

type ChallengeRequest struct {
	WalletAddress string `json:"wallet_address"`
}

// Challenge issues a one-use nonce for the wallet to sign.
func (h *AuthHandler) Challenge(c *fiber.Ctx) error {
	var req ChallengeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}

	nonce, err := h.service.Challenge(c.Context(), req.WalletAddress)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"nonce": nonce})
}

type LoginRequest struct {
	WalletAddress string `json:"wallet_address"`
	Signature     string `json:"signature"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}

	token, err := h.service.Login(c.Context(), req.WalletAddress, req.Signature)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"access_token": token, "token_type": "Bearer"})
}
