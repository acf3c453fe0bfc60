package payment

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/seu-repo/chargechain/internal/domain"
	"github.com/seu-repo/chargechain/internal/events"
	"github.com/seu-repo/chargechain/internal/mocks"
	"github.com/seu-repo/chargechain/internal/service/billing"
	"github.com/seu-repo/chargechain/internal/validation"
)

const (
	walletA = "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"
	walletB = "0x1111111111111111111111111111111111111111"
)

func newTestService(ledger *mocks.MockLedger, mq *mocks.MockMessageQueue) *Service {
	tariff, _ := billing.NewTariff("0.001")
	return NewService(ledger, validation.New(), tariff, mq, zap.NewNop())
}

// completedSession is a 2 hour session, so it requires 0.002 at the default
// rate.
func completedSession(id int64) domain.Session {
	start := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	return domain.Session{
		ID:          id,
		UserAddress: walletA,
		StationID:   7,
		StartTime:   &start,
		EndTime:     &end,
		Status:      domain.SessionStatusCompleted,
	}
}

func TestProcessPayment(t *testing.T) {
	// Arrange
	sess := completedSession(42)
	ledger := mocks.NewMockLedger()
	ledger.GetSessionFunc = func(ctx context.Context, id int64) (*domain.Session, error) {
		snapshot := sess
		return &snapshot, nil
	}
	ledger.GetBalanceFunc = func(ctx context.Context, address string) (decimal.Decimal, error) {
		return decimal.RequireFromString("1.0"), nil
	}
	ledger.PaySessionFunc = func(ctx context.Context, id int64, amount decimal.Decimal) error {
		now := time.Now().UTC()
		sess.PaymentAmount = &amount
		sess.PaymentTime = &now
		sess.Status = domain.SessionStatusPaid
		return nil
	}
	mq := mocks.NewMockMessageQueue()
	svc := newTestService(ledger, mq)

	// Act
	view, err := svc.ProcessPayment(context.Background(), walletA, 42, "0.002")

	// Assert
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Status != "paid" {
		t.Errorf("expected paid status, got %q", view.Status)
	}
	if view.AmountPaid == nil || view.AmountPaid.String() != "0.002" {
		t.Errorf("expected amount paid 0.002, got %v", view.AmountPaid)
	}
	if got := len(mq.GetPublishedMessages(events.SubjectSessionPaid)); got != 1 {
		t.Errorf("expected 1 session.paid event, got %d", got)
	}
}

func TestProcessPaymentInsufficientAmount(t *testing.T) {
	sess := completedSession(42)
	paid := false
	ledger := mocks.NewMockLedger()
	ledger.GetSessionFunc = func(ctx context.Context, id int64) (*domain.Session, error) {
		snapshot := sess
		return &snapshot, nil
	}
	ledger.PaySessionFunc = func(ctx context.Context, id int64, amount decimal.Decimal) error {
		paid = true
		return nil
	}
	svc := newTestService(ledger, mocks.NewMockMessageQueue())

	_, err := svc.ProcessPayment(context.Background(), walletA, 42, "0.0005")

	var de *domain.Error
	if domain.CodeOf(err) != "INSUFFICIENT_PAYMENT" {
		t.Fatalf("expected INSUFFICIENT_PAYMENT, got %v", err)
	}
	de = err.(*domain.Error)
	if de.Required.String() != "0.002" || de.Provided.String() != "0.0005" {
		t.Errorf("expected required=0.002 provided=0.0005, got required=%s provided=%s", de.Required, de.Provided)
	}
	if paid {
		t.Error("expected no ledger mutation on insufficient amount")
	}
}

func TestProcessPaymentInsufficientBalance(t *testing.T) {
	sess := completedSession(42)
	ledger := mocks.NewMockLedger()
	ledger.GetSessionFunc = func(ctx context.Context, id int64) (*domain.Session, error) {
		snapshot := sess
		return &snapshot, nil
	}
	ledger.GetBalanceFunc = func(ctx context.Context, address string) (decimal.Decimal, error) {
		return decimal.RequireFromString("0.001"), nil
	}
	svc := newTestService(ledger, mocks.NewMockMessageQueue())

	_, err := svc.ProcessPayment(context.Background(), walletA, 42, "0.002")

	if domain.CodeOf(err) != "INSUFFICIENT_PAYMENT" {
		t.Fatalf("expected INSUFFICIENT_PAYMENT, got %v", err)
	}
	de := err.(*domain.Error)
	if de.Required.String() != "0.002" || de.Provided.String() != "0.001" {
		t.Errorf("expected required=0.002 provided=0.001, got required=%s provided=%s", de.Required, de.Provided)
	}
}

func TestProcessPaymentPreconditionOrder(t *testing.T) {
	cases := []struct {
		name     string
		wallet   string
		amount   string
		mod      func(s *domain.Session)
		wantCode string
	}{
		{"malformed wallet", "nope", "0.002", func(s *domain.Session) {}, "INVALID_WALLET"},
		{"malformed amount", walletA, "lots", func(s *domain.Session) {}, "VALIDATION_ERROR"},
		{"not owner", walletB, "0.002", func(s *domain.Session) {}, "NOT_OWNER"},
		{"still active", walletA, "0.002", func(s *domain.Session) {
			s.EndTime = nil
			s.Status = domain.SessionStatusActive
		}, "SESSION_NOT_PAID"},
		{"already paid", walletA, "0.002", func(s *domain.Session) {
			amount := decimal.RequireFromString("0.002")
			s.PaymentAmount = &amount
			s.Status = domain.SessionStatusPaid
		}, "SESSION_ALREADY_PAID"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			sess := completedSession(42)
			c.mod(&sess)
			ledger := mocks.NewMockLedger()
			ledger.GetSessionFunc = func(ctx context.Context, id int64) (*domain.Session, error) {
				snapshot := sess
				return &snapshot, nil
			}
			svc := newTestService(ledger, mocks.NewMockMessageQueue())

			_, err := svc.ProcessPayment(context.Background(), c.wallet, 42, c.amount)

			if domain.CodeOf(err) != c.wantCode {
				t.Errorf("expected %s, got %v", c.wantCode, err)
			}
		})
	}
}

func TestGetPaymentDetailsUnpaidIncludesRequiredAmount(t *testing.T) {
	sess := completedSession(42)
	ledger := mocks.NewMockLedger()
	ledger.GetSessionFunc = func(ctx context.Context, id int64) (*domain.Session, error) {
		snapshot := sess
		return &snapshot, nil
	}
	ledger.GetBalanceFunc = func(ctx context.Context, address string) (decimal.Decimal, error) {
		return decimal.RequireFromString("0.5"), nil
	}
	svc := newTestService(ledger, mocks.NewMockMessageQueue())

	view, err := svc.GetPaymentDetails(context.Background(), walletA, 42)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Status != "ended" {
		t.Errorf("expected ended status, got %q", view.Status)
	}
	if view.RequiredAmount == nil || view.RequiredAmount.String() != "0.002" {
		t.Errorf("expected required amount 0.002, got %v", view.RequiredAmount)
	}
	if view.UserBalance.String() != "0.5" {
		t.Errorf("expected balance 0.5, got %s", view.UserBalance)
	}
}
