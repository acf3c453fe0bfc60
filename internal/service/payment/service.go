package payment

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

// Service implements PaymentService. Payments settle on the ledger; this
// service only enforces the eligibility checks and the amount floor.
type Service struct {
	ledger    ports.Ledger
	validator ports.Validator
	tariff    *billing.Tariff
	queue     queue.MessageQueue
	log       *zap.Logger
	now       func() time.Time
}

func NewService(ledger ports.Ledger, validator ports.Validator, tariff *billing.Tariff, mq queue.MessageQueue, log *zap.Logger) *Service {
	return &Service{
		ledger:    ledger,
		validator: validator,
		tariff:    tariff,
		queue:     mq,
		log:       log,
		now:       time.Now,
	}
}

// SetClock replaces the wall clock, for simulations.
func (s *Service) SetClock(clock func() time.Time) {
	s.now = clock
}

// ProcessPayment settles a completed session. Checks run in a fixed order:
// wallet, amount parse, session lookup, ownership, ended, not already paid,
// amount covers the bill, balance covers the amount.
func (s *Service) ProcessPayment(ctx context.Context, userAddress string, sessionID int64, amount string) (*ports.SessionView, error) {
	addr, err := s.validator.NormalizeWalletAddress(userAddress)
	if err != nil {
		return nil, err
	}

	offered, err := s.validator.ParseDecimal(amount)
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
	if sess.IsActive() {
		return nil, domain.ErrSessionNotEnded(sessionID)
	}
	if sess.IsPaid() {
		return nil, domain.ErrSessionAlreadyPaid(sessionID)
	}

	required, err := s.tariff.RequiredAmount(sess)
	if err != nil {
		return nil, err
	}
	if offered.LessThan(required) {
		telemetry.PaymentsTotal.WithLabelValues("insufficient").Inc()
		return nil, domain.ErrInsufficientPayment(required, offered)
	}

	balance, err := s.ledger.GetBalance(ctx, addr)
	if err != nil {
		return nil, err
	}
	if balance.LessThan(offered) {
		telemetry.PaymentsTotal.WithLabelValues("insufficient").Inc()
		return nil, domain.ErrInsufficientPayment(offered, balance)
	}

	if err := s.ledger.PaySession(ctx, sessionID, offered); err != nil {
		return nil, err
	}

	sess, err = s.ledger.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	s.log.Info("session payment settled",
		zap.Int64("session_id", sessionID),
		zap.String("user", addr),
		zap.String("amount", offered.String()),
	)
	s.publishPaidEvent(sess, offered.String())
	telemetry.PaymentsTotal.WithLabelValues("settled").Inc()

	return s.sessionView(sess), nil
}

// GetPaymentDetails reports a session's payment state together with the
// caller's current ledger balance.
func (s *Service) GetPaymentDetails(ctx context.Context, userAddress string, sessionID int64) (*ports.PaymentView, error) {
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

	balance, err := s.ledger.GetBalance(ctx, addr)
	if err != nil {
		return nil, err
	}

	view := &ports.PaymentView{
		SessionID:   sess.ID,
		UserAddress: sess.UserAddress,
		Status:      domain.SessionStatusLabel(sess),
		AmountPaid:  sess.PaymentAmount,
		UserBalance: balance,
	}
	if sess.Status == domain.SessionStatusCompleted {
		if required, err := s.tariff.RequiredAmount(sess); err == nil {
			view.RequiredAmount = &required
		}
	}
	return view, nil
}

func (s *Service) sessionView(sess *domain.Session) *ports.SessionView {
	return &ports.SessionView{
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
}

func (s *Service) publishPaidEvent(sess *domain.Session, amount string) {
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
	if err := s.queue.Publish(events.SubjectSessionPaid, payload); err != nil {
		s.log.Warn("failed to publish payment event",
			zap.Int64("session_id", sess.ID),
			zap.Error(err),
		)
	}
}
