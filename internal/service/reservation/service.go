package reservation

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/seu-repo/chargechain/internal/adapter/queue"
	"github.com/seu-repo/chargechain/internal/domain"
	"github.com/seu-repo/chargechain/internal/events"
	"github.com/seu-repo/chargechain/internal/observability/telemetry"
	"github.com/seu-repo/chargechain/internal/ports"
)

// Service implements ReservationService.
type Service struct {
	ledger    ports.Ledger
	validator ports.Validator
	queue     queue.MessageQueue
	log       *zap.Logger
	now       func() time.Time
}

func NewService(ledger ports.Ledger, validator ports.Validator, mq queue.MessageQueue, log *zap.Logger) *Service {
	return &Service{
		ledger:    ledger,
		validator: validator,
		queue:     mq,
		log:       log,
		now:       time.Now,
	}
}

// SetClock replaces the wall clock, for simulations.
func (s *Service) SetClock(clock func() time.Time) {
	s.now = clock
}

// ReserveStation books a station for a future window. Input checks run in a
// fixed order so callers always see the first failure of the same sequence:
// wallet, timestamp, duration parse, too short, too long, start in the past.
func (s *Service) ReserveStation(ctx context.Context, userAddress string, stationID int64, startTime, durationHours string) (*ports.ReservationView, error) {
	addr, err := s.validator.NormalizeWalletAddress(userAddress)
	if err != nil {
		return nil, err
	}

	start, err := s.validator.ParseDateTime(startTime)
	if err != nil {
		return nil, err
	}

	hours, err := s.validator.ParseDecimal(durationHours)
	if err != nil {
		return nil, err
	}
	if !hours.IsPositive() {
		return nil, domain.ErrValidation("duration must be a positive number of hours, got %s", durationHours)
	}
	if hours.LessThan(decimal.NewFromFloat(domain.MinReservationHours)) {
		return nil, domain.ErrValidation("reservation too short: minimum is %v hour", domain.MinReservationHours)
	}
	if hours.GreaterThan(decimal.NewFromFloat(domain.MaxReservationHours)) {
		return nil, domain.ErrValidation("reservation too long: maximum is %v hours", domain.MaxReservationHours)
	}

	now := s.now().UTC()
	if start.Before(now) {
		return nil, domain.ErrValidation("reservation start time %s is in the past", start.Format(time.RFC3339))
	}

	if _, err := s.ledger.GetUser(ctx, addr); err != nil {
		return nil, err
	}

	station, err := s.ledger.GetStation(ctx, stationID)
	if err != nil {
		return nil, err
	}
	if !station.Available {
		return nil, domain.ErrStationInUse(stationID)
	}

	duration := durationFromHours(hours)
	end := start.Add(duration)

	taken, err := s.ledger.IsStationReservedInPeriod(ctx, stationID, start, end)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.ErrStationAlreadyReserved(stationID)
	}

	reservationID, err := s.ledger.ReserveStation(ctx, addr, stationID, start, duration)
	if err != nil {
		return nil, err
	}

	res, err := s.ledger.GetReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}

	s.log.Info("station reserved",
		zap.Int64("reservation_id", reservationID),
		zap.Int64("station_id", stationID),
		zap.String("user", addr),
		zap.Time("start", start),
		zap.Time("end", end),
	)
	s.publishReservationEvent(events.SubjectReservationCreated, res)
	telemetry.ReservationsTotal.WithLabelValues("created").Inc()

	return s.reservationView(res), nil
}

// CancelReservation cancels the caller's reservation. A window that has
// already closed cannot be cancelled.
func (s *Service) CancelReservation(ctx context.Context, userAddress string, reservationID int64) (*ports.ReservationView, error) {
	addr, err := s.validator.NormalizeWalletAddress(userAddress)
	if err != nil {
		return nil, err
	}

	res, err := s.ledger.GetReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if res.UserAddress != addr {
		return nil, domain.ErrNotOwner("reservation")
	}
	if res.Cancelled {
		return nil, domain.ErrValidation("reservation %d is already cancelled", reservationID)
	}
	if res.EndTime.Before(s.now().UTC()) {
		return nil, domain.ErrReservationExpired(reservationID)
	}

	if err := s.ledger.CancelReservation(ctx, reservationID); err != nil {
		return nil, err
	}

	res, err = s.ledger.GetReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}

	s.log.Info("reservation cancelled",
		zap.Int64("reservation_id", reservationID),
		zap.String("user", addr),
	)
	s.publishReservationEvent(events.SubjectReservationCancelled, res)
	telemetry.ReservationsTotal.WithLabelValues("cancelled").Inc()

	return s.reservationView(res), nil
}

// GetReservationDetails returns the caller's reservation.
func (s *Service) GetReservationDetails(ctx context.Context, userAddress string, reservationID int64) (*ports.ReservationView, error) {
	addr, err := s.validator.NormalizeWalletAddress(userAddress)
	if err != nil {
		return nil, err
	}

	res, err := s.ledger.GetReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if res.UserAddress != addr {
		return nil, domain.ErrNotOwner("reservation")
	}

	return s.reservationView(res), nil
}

// GetUserReservations lists the caller's reservations, optionally filtered by
// derived status.
func (s *Service) GetUserReservations(ctx context.Context, userAddress string, status string) ([]ports.ReservationView, error) {
	addr, err := s.validator.NormalizeWalletAddress(userAddress)
	if err != nil {
		return nil, err
	}
	if status != "" && !domain.ValidReservationStatuses[status] {
		return nil, domain.ErrValidation("invalid reservation status filter %q", status)
	}

	reservations, err := s.ledger.GetUserReservations(ctx, addr)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	views := make([]ports.ReservationView, 0, len(reservations))
	for i := range reservations {
		res := &reservations[i]
		if status != "" && domain.ReservationStatusAt(res, now) != status {
			continue
		}
		views = append(views, *s.reservationView(res))
	}
	return views, nil
}

func (s *Service) reservationView(res *domain.Reservation) *ports.ReservationView {
	return &ports.ReservationView{
		ReservationID: res.ID,
		UserAddress:   res.UserAddress,
		StationID:     res.StationID,
		StartTime:     res.StartTime,
		EndTime:       res.EndTime,
		DurationHours: res.DurationHours(),
		Status:        domain.ReservationStatusAt(res, s.now().UTC()),
	}
}

func (s *Service) publishReservationEvent(subject string, res *domain.Reservation) {
	if s.queue == nil {
		return
	}
	payload, err := json.Marshal(events.ReservationEvent{
		ReservationID: res.ID,
		StationID:     res.StationID,
		UserAddress:   res.UserAddress,
		StartTime:     res.StartTime,
		EndTime:       res.EndTime,
		OccurredAt:    s.now().UTC(),
	})
	if err != nil {
		return
	}
	if err := s.queue.Publish(subject, payload); err != nil {
		s.log.Warn("failed to publish reservation event",
			zap.String("subject", subject),
			zap.Int64("reservation_id", res.ID),
			zap.Error(err),
		)
	}
}

// durationFromHours converts a decimal hour count to a time.Duration with
// nanosecond precision.
func durationFromHours(hours decimal.Decimal) time.Duration {
	return time.Duration(hours.Mul(decimal.NewFromInt(int64(time.Hour))).IntPart())
}
