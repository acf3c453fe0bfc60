package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/chargechain/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/chargechain/internal/ports"
)

type ReservationHandler struct {
	service ports.ReservationService
	log     *zap.Logger
}

func NewReservationHandler(service ports.ReservationService, log *zap.Logger) *ReservationHandler {
	return &ReservationHandler{
		service: service,
		log:     log,
	}
}

// ReserveRequest carries start_time as RFC 3339 and duration_hours as a
// decimal string so precision survives transport.
type ReserveRequest struct {
	StationID     int64  `json:"station_id"`
	StartTime     string `json:"start_time"`
	DurationHours string `json:"duration_hours"`
}

func (h *ReservationHandler) Reserve(c *fiber.Ctx) error {
	var req ReserveRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}

	view, err := h.service.ReserveStation(c.Context(), middleware.Wallet(c), req.StationID, req.StartTime, req.DurationHours)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(view)
}

func (h *ReservationHandler) Cancel(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	view, err := h.service.CancelReservation(c.Context(), middleware.Wallet(c), id)
	if err != nil {
		return err
	}

	return c.JSON(view)
}

func (h *ReservationHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	view, err := h.service.GetReservationDetails(c.Context(), middleware.Wallet(c), id)
	if err != nil {
		return err
	}

	return c.JSON(view)
}

func (h *ReservationHandler) ListMine(c *fiber.Ctx) error {
	status := c.Query("status")

	views, err := h.service.GetUserReservations(c.Context(), middleware.Wallet(c), status)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"reservations": views, "count": len(views)})
}
