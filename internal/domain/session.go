package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SessionStatus is the stored lifecycle state of a charging session.
// Transitions only move forward: pending -> active -> completed -> paid,
// with cancellation possible from pending or active only.
type SessionStatus string

const (
	SessionStatusPending   SessionStatus = "pending"
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusPaid      SessionStatus = "paid"
	SessionStatusCancelled SessionStatus = "cancelled"
)

// Session is a charging session as recorded on the ledger.
type Session struct {
	ID            int64            `json:"id"`
	UserAddress   string           `json:"user_address"`
	StationID     int64            `json:"station_id"`
	StartTime     *time.Time       `json:"start_time,omitempty"`
	EndTime       *time.Time       `json:"end_time,omitempty"`
	Status        SessionStatus    `json:"status"`
	PaymentAmount *decimal.Decimal `json:"payment_amount,omitempty"`
	PaymentTime   *time.Time       `json:"payment_time,omitempty"`
}

// Start activates a pending session.
func (s *Session) Start(now time.Time) error {
	if s.Status != SessionStatusPending {
		return ErrSessionNotActive(s.ID)
	}
	t := now.UTC()
	s.StartTime = &t
	s.Status = SessionStatusActive
	return nil
}

// End completes an active session.
func (s *Session) End(now time.Time) error {
	if s.Status != SessionStatusActive {
		return ErrSessionNotActive(s.ID)
	}
	t := now.UTC()
	s.EndTime = &t
	s.Status = SessionStatusCompleted
	return nil
}

// Pay marks a completed session paid, recording amount and time.
func (s *Session) Pay(amount decimal.Decimal, now time.Time) error {
	if s.Status == SessionStatusPaid {
		return ErrSessionAlreadyPaid(s.ID)
	}
	if s.Status != SessionStatusCompleted {
		return ErrSessionNotEnded(s.ID)
	}
	t := now.UTC()
	s.PaymentAmount = &amount
	s.PaymentTime = &t
	s.Status = SessionStatusPaid
	return nil
}

// Cancel is only valid before the session completes.
func (s *Session) Cancel() error {
	if s.Status != SessionStatusPending && s.Status != SessionStatusActive {
		return ErrSessionNotActive(s.ID)
	}
	s.Status = SessionStatusCancelled
	return nil
}

// Duration returns the elapsed session time, or false when the session has
// not both started and ended.
func (s *Session) Duration() (time.Duration, bool) {
	if s.StartTime == nil || s.EndTime == nil {
		return 0, false
	}
	return s.EndTime.Sub(*s.StartTime), true
}

// DurationHours returns the duration in fractional hours, or 0 when unknown.
func (s *Session) DurationHours() float64 {
	d, ok := s.Duration()
	if !ok {
		return 0
	}
	return d.Hours()
}

// IsActive reports whether the session is currently running.
func (s *Session) IsActive() bool {
	return s.Status == SessionStatusActive
}

// IsPaid reports whether the session has been paid.
func (s *Session) IsPaid() bool {
	return s.Status == SessionStatusPaid
}

// SessionStatusLabel is the single derivation of the caller-facing status
// string. Every read path goes through it so listings and detail views never
// disagree.
func SessionStatusLabel(s *Session) string {
	switch {
	case s.Status == SessionStatusActive:
		return "active"
	case s.Status == SessionStatusPaid:
		return "paid"
	case s.Status == SessionStatusCompleted:
		return "ended"
	case s.Status == SessionStatusCancelled:
		return "cancelled"
	default:
		return "pending"
	}
}
