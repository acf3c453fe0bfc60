package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/seu-repo/chargechain/internal/domain"
)

// Ledger is the contract against the authoritative system of record. Every
// mutating decision reads from here, never from the secondary index. The
// ledger serializes conflicting writes itself; callers get read-your-writes
// within a single use-case call.
//
// Any method may fail with a transport/contract error, surfaced as a domain
// error of kind ledger.
type Ledger interface {
	GetUser(ctx context.Context, address string) (*domain.User, error)
	RegisterUser(ctx context.Context, address, email, name string) (*domain.User, error)

	GetStation(ctx context.Context, stationID int64) (*domain.Station, error)
	ListStations(ctx context.Context) ([]domain.Station, error)

	GetSession(ctx context.Context, sessionID int64) (*domain.Session, error)
	GetReservation(ctx context.Context, reservationID int64) (*domain.Reservation, error)

	GetUserSessions(ctx context.Context, address string) ([]domain.Session, error)
	GetStationSessions(ctx context.Context, stationID int64) ([]domain.Session, error)
	GetUserReservations(ctx context.Context, address string) ([]domain.Reservation, error)
	GetStationReservations(ctx context.Context, stationID int64) ([]domain.Reservation, error)

	StartSession(ctx context.Context, address string, stationID int64) (int64, error)
	EndSession(ctx context.Context, sessionID int64) error
	PaySession(ctx context.Context, sessionID int64, amount decimal.Decimal) error

	ReserveStation(ctx context.Context, address string, stationID int64, start time.Time, duration time.Duration) (int64, error)
	CancelReservation(ctx context.Context, reservationID int64) error

	IsStationReservedForUser(ctx context.Context, stationID int64, address string) (bool, error)
	IsStationReservedInPeriod(ctx context.Context, stationID int64, start, end time.Time) (bool, error)

	GetBalance(ctx context.Context, address string) (decimal.Decimal, error)
	VerifySignature(ctx context.Context, message, signature, address string) (bool, error)
}
