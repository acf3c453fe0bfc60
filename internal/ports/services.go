package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/seu-repo/chargechain/internal/domain"
)

// SessionView is the result shape of session operations. Status carries the
// derived label ("active", "ended", "paid"), not the stored enum.
type SessionView struct {
	SessionID       int64            `json:"session_id"`
	UserAddress     string           `json:"user_address"`
	StationID       int64            `json:"station_id"`
	StartTime       *time.Time       `json:"start_time,omitempty"`
	EndTime         *time.Time       `json:"end_time,omitempty"`
	DurationHours   float64          `json:"duration_hours,omitempty"`
	RequiredPayment *decimal.Decimal `json:"required_payment,omitempty"`
	AmountPaid      *decimal.Decimal `json:"amount_paid,omitempty"`
	PaymentTime     *time.Time       `json:"payment_time,omitempty"`
	Status          string           `json:"status"`
}

type ReservationView struct {
	ReservationID int64     `json:"reservation_id"`
	UserAddress   string    `json:"user_address"`
	StationID     int64     `json:"station_id"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	DurationHours float64   `json:"duration_hours"`
	Status        string    `json:"status"`
}

// PaymentView adds the payer's current ledger balance for context.
type PaymentView struct {
	SessionID      int64            `json:"session_id"`
	UserAddress    string           `json:"user_address"`
	Status         string           `json:"status"`
	AmountPaid     *decimal.Decimal `json:"amount_paid,omitempty"`
	RequiredAmount *decimal.Decimal `json:"required_amount,omitempty"`
	UserBalance    decimal.Decimal  `json:"user_balance"`
}

// ChargingService owns the session lifecycle.
type ChargingService interface {
	StartSession(ctx context.Context, userAddress string, stationID int64) (*SessionView, error)
	EndSession(ctx context.Context, userAddress string, sessionID int64) (*SessionView, error)
	GetSessionDetails(ctx context.Context, userAddress string, sessionID int64) (*SessionView, error)
	GetUserSessions(ctx context.Context, userAddress string, activeOnly bool) ([]SessionView, error)
	GetStationSessions(ctx context.Context, stationID int64, status string) ([]SessionView, error)
}

// ReservationService owns the reservation lifecycle. Start time and duration
// arrive as raw strings; parsing and range validation happen inside, in the
// documented order.
type ReservationService interface {
	ReserveStation(ctx context.Context, userAddress string, stationID int64, startTime, durationHours string) (*ReservationView, error)
	CancelReservation(ctx context.Context, userAddress string, reservationID int64) (*ReservationView, error)
	GetReservationDetails(ctx context.Context, userAddress string, reservationID int64) (*ReservationView, error)
	GetUserReservations(ctx context.Context, userAddress string, status string) ([]ReservationView, error)
}

// PaymentService settles completed sessions.
type PaymentService interface {
	ProcessPayment(ctx context.Context, userAddress string, sessionID int64, amount string) (*SessionView, error)
	GetPaymentDetails(ctx context.Context, userAddress string, sessionID int64) (*PaymentView, error)
}

// StationDirectoryService serves read-only station listings from the
// secondary index; availability detail reads reservations from the ledger.
type StationDirectoryService interface {
	ListStations(ctx context.Context, filter StationFilter) ([]StationRecord, error)
	GetStation(ctx context.Context, stationID int64) (*StationRecord, error)
	GetStationAvailability(ctx context.Context, stationID int64, date time.Time) ([]ReservationView, error)
}

// AuthService implements wallet-signature login: a nonce challenge is issued,
// the wallet signs it, the ledger verifies the signature, and a JWT bearing
// the wallet as subject is minted.
type AuthService interface {
	Challenge(ctx context.Context, userAddress string) (string, error)
	Login(ctx context.Context, userAddress, signature string) (string, error)
	ValidateToken(ctx context.Context, token string) (string, error)
}

// UserService exposes the caller's ledger profile.
type UserService interface {
	GetProfile(ctx context.Context, userAddress string) (*domain.User, error)
}
