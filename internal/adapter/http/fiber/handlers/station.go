package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/chargechain/internal/ports"
)

type StationHandler struct {
	directory ports.StationDirectoryService
	charging  ports.ChargingService
	log       *zap.Logger
}

func NewStationHandler(directory ports.StationDirectoryService, charging ports.ChargingService, log *zap.Logger) *StationHandler {
	return &StationHandler{
		directory: directory,
		charging:  charging,
		log:       log,
	}
}

func (h *StationHandler) List(c *fiber.Ctx) error {
	filter := ports.StationFilter{
		AvailableOnly: c.QueryBool("available", false),
		Location:      c.Query("location"),
	}

	stations, err := h.directory.ListStations(c.Context(), filter)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"stations": stations, "count": len(stations)})
}

func (h *StationHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	station, err := h.directory.GetStation(c.Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(station)
}

// Availability lists the reservations blocking a station on a given day.
// The date query defaults to today (UTC).
func (h *StationHandler) Availability(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	date := time.Now().UTC()
	if raw := c.Query("date"); raw != "" {
		date, err = time.Parse("2006-01-02", raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid date, expected YYYY-MM-DD"})
		}
	}

	reservations, err := h.directory.GetStationAvailability(c.Context(), id, date)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"reservations": reservations, "count": len(reservations)})
}

func (h *StationHandler) Sessions(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	sessions, err := h.charging.GetStationSessions(c.Context(), id, c.Query("status"))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"sessions": sessions, "count": len(sessions)})
}
