package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/chargechain/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/chargechain/internal/ports"
)

type SessionHandler struct {
	service ports.ChargingService
	log     *zap.Logger
}

func NewSessionHandler(service ports.ChargingService, log *zap.Logger) *SessionHandler {
	return &SessionHandler{
		service: service,
		log:     log,
	}
}

type StartSessionRequest struct {
	StationID int64 `json:"station_id"`
}

func (h *SessionHandler) Start(c *fiber.Ctx) error {
	var req StartSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}

	view, err := h.service.StartSession(c.Context(), middleware.Wallet(c), req.StationID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(view)
}

func (h *SessionHandler) End(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	view, err := h.service.EndSession(c.Context(), middleware.Wallet(c), id)
	if err != nil {
		return err
	}

	return c.JSON(view)
}

func (h *SessionHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	view, err := h.service.GetSessionDetails(c.Context(), middleware.Wallet(c), id)
	if err != nil {
		return err
	}

	return c.JSON(view)
}

func (h *SessionHandler) ListMine(c *fiber.Ctx) error {
	activeOnly := c.QueryBool("active", false)

	views, err := h.service.GetUserSessions(c.Context(), middleware.Wallet(c), activeOnly)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"sessions": views, "count": len(views)})
}

// pathID parses a numeric path parameter shared by session, reservation and
// station routes.
func pathID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid "+name+" parameter")
	}
	return id, nil
}
