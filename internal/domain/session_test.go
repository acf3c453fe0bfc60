package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestSessionLifecycle_ForwardOnly(t *testing.T) {
	// Arrange
	s := &Session{ID: 1, UserAddress: "0xabc", StationID: 7, Status: SessionStatusPending}
	now := time.Now()

	// Act / Assert
	if err := s.Start(now); err != nil {
		t.Fatalf("expected start to succeed, got %v", err)
	}
	if s.Status != SessionStatusActive {
		t.Errorf("expected status active, got %s", s.Status)
	}
	if err := s.End(now.Add(90 * time.Minute)); err != nil {
		t.Fatalf("expected end to succeed, got %v", err)
	}
	if s.Status != SessionStatusCompleted {
		t.Errorf("expected status completed, got %s", s.Status)
	}
	if err := s.Pay(decimal.RequireFromString("0.002"), now.Add(2*time.Hour)); err != nil {
		t.Fatalf("expected pay to succeed, got %v", err)
	}
	if s.Status != SessionStatusPaid {
		t.Errorf("expected status paid, got %s", s.Status)
	}
}

func TestSessionEnd_Twice(t *testing.T) {
	s := &Session{ID: 2, Status: SessionStatusPending}
	now := time.Now()
	_ = s.Start(now)
	_ = s.End(now.Add(time.Hour))

	firstEnd := *s.EndTime

	// Second end must fail and leave the session untouched.
	err := s.End(now.Add(2 * time.Hour))
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if KindOf(err) != KindConflict {
		t.Errorf("expected conflict kind, got %s", KindOf(err))
	}
	if !s.EndTime.Equal(firstEnd) {
		t.Error("expected end time unchanged after failed transition")
	}
}

func TestSessionPay_Twice(t *testing.T) {
	s := &Session{ID: 3, Status: SessionStatusPending}
	now := time.Now()
	_ = s.Start(now)
	_ = s.End(now.Add(time.Hour))

	amount := decimal.RequireFromString("0.001")
	if err := s.Pay(amount, now.Add(time.Hour)); err != nil {
		t.Fatalf("expected first pay to succeed, got %v", err)
	}
	firstPaid := *s.PaymentAmount
	firstTime := *s.PaymentTime

	err := s.Pay(decimal.RequireFromString("0.005"), now.Add(2*time.Hour))
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if CodeOf(err) != "SESSION_ALREADY_PAID" {
		t.Errorf("expected SESSION_ALREADY_PAID, got %s", CodeOf(err))
	}
	if !s.PaymentAmount.Equal(firstPaid) || !s.PaymentTime.Equal(firstTime) {
		t.Error("expected payment fields unchanged after failed transition")
	}
}

func TestSessionPay_NotEnded(t *testing.T) {
	s := &Session{ID: 4, Status: SessionStatusPending}
	_ = s.Start(time.Now())

	err := s.Pay(decimal.RequireFromString("0.001"), time.Now())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if CodeOf(err) != "SESSION_NOT_PAID" {
		t.Errorf("expected SESSION_NOT_PAID, got %s", CodeOf(err))
	}
}

func TestSessionCancel_TerminalStates(t *testing.T) {
	s := &Session{ID: 5, Status: SessionStatusPending}
	now := time.Now()
	_ = s.Start(now)
	_ = s.End(now.Add(time.Hour))

	if err := s.Cancel(); err == nil {
		t.Fatal("expected cancel of completed session to fail")
	}
}

func TestSessionStatusLabel(t *testing.T) {
	cases := []struct {
		status SessionStatus
		want   string
	}{
		{SessionStatusActive, "active"},
		{SessionStatusCompleted, "ended"},
		{SessionStatusPaid, "paid"},
		{SessionStatusCancelled, "cancelled"},
		{SessionStatusPending, "pending"},
	}
	for _, c := range cases {
		got := SessionStatusLabel(&Session{Status: c.status})
		if got != c.want {
			t.Errorf("status %s: expected label %q, got %q", c.status, c.want, got)
		}
	}
}
