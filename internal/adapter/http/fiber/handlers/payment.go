package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/chargechain/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/chargechain/internal/ports"
)

type PaymentHandler struct {
	service ports.PaymentService
	log     *zap.Logger
}

func NewPaymentHandler(service ports.PaymentService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		log:     log,
	}
}

type PayRequest struct {
	Amount string `json:"amount"`
}

func (h *PaymentHandler) Pay(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req PayRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}

	view, err := h.service.ProcessPayment(c.Context(), middleware.Wallet(c), id, req.Amount)
	if err != nil {
		return err
	}

	return c.JSON(view)
}

func (h *PaymentHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	view, err := h.service.GetPaymentDetails(c.Context(), middleware.Wallet(c), id)
	if err != nil {
		return err
	}

	return c.JSON(view)
}
