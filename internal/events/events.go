// Package events defines the subjects and payloads published on the message
// queue after successful ledger mutations. The postgres projector and the
// websocket hub are the consumers.
package events

import "time"

const (
	SubjectSessionStarted       = "session.started"
	SubjectSessionEnded         = "session.ended"
	SubjectSessionPaid          = "session.paid"
	SubjectReservationCreated   = "reservation.created"
	SubjectReservationCancelled = "reservation.cancelled"
)

// SessionEvent announces a session lifecycle transition. Amount is set only
// on session.paid.
type SessionEvent struct {
	SessionID   int64     `json:"session_id"`
	StationID   int64     `json:"station_id"`
	UserAddress string    `json:"user_address"`
	Amount      string    `json:"amount,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// ReservationEvent announces a reservation creation or cancellation.
type ReservationEvent struct {
	ReservationID int64     `json:"reservation_id"`
	StationID     int64     `json:"station_id"`
	UserAddress   string    `json:"user_address"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	OccurredAt    time.Time `json:"occurred_at"`
}
