package charging

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/chargechain/internal/adapter/queue"
	"github.com/seu-repo/chargechain/internal/domain"
	"github.com/seu-repo/chargechain/internal/events"
	"github.com/seu-repo/chargechain/internal/observability/telemetry"
	"github.com/seu-repo/chargechain/internal/ports"
	"github.com/seu-repo/chargechain/internal/service/billing"
)

// Service implements ChargingService. Every decision reads fresh state from
// the ledger; nothing is cached across calls.
type Service struct {
	ledger             ports.Ledger
	validator          ports.Validator
	tariff             *billing.Tariff
	queue              queue.MessageQueue
	requireReservation bool
	log                *zap.Logger
	now                func() time.Time
}

// NewService creates a new charging service. When requireReservation is set,
// starting a session demands a currently-active reservation held by the
// caller; otherwise walk-up charging on any available station is allowed.
func NewService(
	ledger ports.Ledger,
	validator ports.Validator,
	tariff *billing.Tariff,
	mq queue.MessageQueue,
	requireReservation bool,
	log *zap.Logger,
) *Service {
	return &Service{
		ledger:             ledger,
		validator:          validator,
		tariff:             tariff,
		queue:              mq,
		requireReservation: requireReservation,
		log:                log,
		now:                time.Now,
	}
}

// SetClock replaces the wall clock, for simulations.
func (s *Service) SetClock(clock func() time.Time) {
	s.now = clock
}

// StartSession claims an available station for the caller. The ledger is the
// arbiter of races: two concurrent starts on the same station resolve to one
// success and one conflict there, not here.
func (s *Service) StartSession(ctx context.Context, userAddress string, stationID int64) (*ports.SessionView, error) {
	addr, err := s.validator.NormalizeWalletAddress(userAddress)
	if err != nil {
		return nil, err
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

	if s.requireReservation {
		reserved, err := s.ledger.IsStationReservedForUser(ctx, stationID, addr)
		if err != nil {
			return nil, err
		}
		if !reserved {
			return nil, domain.ErrStationNotReserved(stationID)
		}
	}

	sessionID, err := s.ledger.StartSession(ctx, addr, stationID)
	if err != nil {
		return nil, err
	}

	sess, err := s.ledger.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	s.log.Info("charging session started",
		zap.Int64("session_id", sessionID),
		zap.Int64("station_id", stationID),
		zap.String("user", addr),
	)
	s.publishSessionEvent(events.SubjectSessionStarted, sess, "")
	telemetry.SessionsStartedTotal.Inc()
	telemetry.ActiveChargingSessions.Inc()

	return s.sessionView(sess), nil
}

// EndSession completes the caller's active session and quotes the amount owed.
func (s *Service) EndSession(ctx context.Context, userAddress string, sessionID int64) (*ports.SessionView, error) {
	addr, err := s.validator.NormalizeWalletAddress(userAddress)
	if err != nil {
		return nil, err
	}

	sess, err := s.ledger.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.UserAddress != addr {
		return nil, domain.ErrNotOwner("session")
	}
	if !sess.IsActive() {
		return nil, domain.ErrSessionNotActive(sessionID)
	}

	if err := s.ledger.EndSession(ctx, sessionID); err != nil {
		return nil, err
	}

	sess, err = s.ledger.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	s.log.Info("charging session ended",
		zap.Int64("session_id", sessionID),
		zap.Float64("duration_hours", sess.DurationHours()),
	)
	s.publishSessionEvent(events.SubjectSessionEnded, sess, "")
	telemetry.ActiveChargingSessions.Dec()

	return s.sessionView(sess), nil
}

// GetSessionDetails returns the caller's session.
func (s *Service) GetSessionDetails(ctx context.Context, userAddress string, sessionID int64) (*ports.SessionView, error) {
	addr, err := s.validator.NormalizeWalletAddress(userAddress)
	if err != nil {
		return nil, err
	}

	sess, err := s.ledger.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.UserAddress != addr {
		return nil, domain.ErrNotOwner("session")
	}

	return s.sessionView(sess), nil
}

// GetUserSessions lists the caller's sessions. When filtering to active
// sessions it resolves the user's active id set one by one; ids that no
// longer resolve on the ledger are skipped rather than failing the whole
// listing.
func (s *Service) GetUserSessions(ctx context.Context, userAddress string, activeOnly bool) ([]ports.SessionView, error) {
	addr, err := s.validator.NormalizeWalletAddress(userAddress)
	if err != nil {
		return nil, err
	}

	user, err := s.ledger.GetUser(ctx, addr)
	if err != nil {
		return nil, err
	}

	if activeOnly {
		views := make([]ports.SessionView, 0, len(user.ActiveSessions))
		for _, id := range user.ActiveSessions {
			sess, err := s.ledger.GetSession(ctx, id)
			if err != nil {
				if domain.KindOf(err) == domain.KindNotFound {
					continue
				}
				return nil, err
			}
			if !sess.IsActive() {
				continue
			}
			views = append(views, *s.sessionView(sess))
		}
		return views, nil
	}

	// The ledger port's list contract already skips ids that no longer
	// resolve, so the full listing needs no per-id tolerance here.
	sessions, err := s.ledger.GetUserSessions(ctx, addr)
	if err != nil {
		return nil, err
	}
	views := make([]ports.SessionView, 0, len(sessions))
	for i := range sessions {
		views = append(views, *s.sessionView(&sessions[i]))
	}
	return views, nil
}

// GetStationSessions lists sessions recorded against a station, optionally
// filtered by derived status label.
func (s *Service) GetStationSessions(ctx context.Context, stationID int64, status string) ([]ports.SessionView, error) {
	if _, err := s.ledger.GetStation(ctx, stationID); err != nil {
		return nil, err
	}

	sessions, err := s.ledger.GetStationSessions(ctx, stationID)
	if err != nil {
		return nil, err
	}

	views := make([]ports.SessionView, 0, len(sessions))
	for i := range sessions {
		sess := &sessions[i]
		if status != "" && domain.SessionStatusLabel(sess) != status {
			continue
		}
		views = append(views, *s.sessionView(sess))
	}
	return views, nil
}

// sessionView builds the caller-facing shape of a session. The required
// payment is quoted only while the session is ended but unpaid.
func (s *Service) sessionView(sess *domain.Session) *ports.SessionView {
	view := &ports.SessionView{
		SessionID:     sess.ID,
		UserAddress:   sess.UserAddress,
		StationID:     sess.StationID,
		StartTime:     sess.StartTime,
		EndTime:       sess.EndTime,
		DurationHours: sess.DurationHours(),
		AmountPaid:    sess.PaymentAmount,
		PaymentTime:   sess.PaymentTime,
		Status:        domain.SessionStatusLabel(sess),
	}
	if sess.Status == domain.SessionStatusCompleted {
		if required, err := s.tariff.RequiredAmount(sess); err == nil {
			view.RequiredPayment = &required
		}
	}
	return view
}

// publishSessionEvent is best-effort: a queue outage never fails the call,
// the projector catches up on the next event.
func (s *Service) publishSessionEvent(subject string, sess *domain.Session, amount string) {
	if s.queue == nil {
		return
	}
	payload, err := json.Marshal(events.SessionEvent{
		SessionID:   sess.ID,
		StationID:   sess.StationID,
		UserAddress: sess.UserAddress,
		Amount:      amount,
		OccurredAt:  s.now().UTC(),
	})
	if err != nil {
		return
	}
	if err := s.queue.Publish(subject, payload); err != nil {
		s.log.Warn("failed to publish session event",
			zap.String("subject", subject),
			zap.Int64("session_id", sess.ID),
			zap.Error(err),
		)
	}
}
