package mocks

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/seu-repo/chargechain/internal/domain"
)

// MockLedger is a mock implementation of the Ledger port. Each method
// delegates to its Func field when set; unset getters report not found and
// unset mutations succeed with zero values.
type MockLedger struct {
	GetUserFunc      func(ctx context.Context, address string) (*domain.User, error)
	RegisterUserFunc func(ctx context.Context, address, email, name string) (*domain.User, error)

	GetStationFunc   func(ctx context.Context, stationID int64) (*domain.Station, error)
	ListStationsFunc func(ctx context.Context) ([]domain.Station, error)

	GetSessionFunc     func(ctx context.Context, sessionID int64) (*domain.Session, error)
	GetReservationFunc func(ctx context.Context, reservationID int64) (*domain.Reservation, error)

	GetUserSessionsFunc        func(ctx context.Context, address string) ([]domain.Session, error)
	GetStationSessionsFunc     func(ctx context.Context, stationID int64) ([]domain.Session, error)
	GetUserReservationsFunc    func(ctx context.Context, address string) ([]domain.Reservation, error)
	GetStationReservationsFunc func(ctx context.Context, stationID int64) ([]domain.Reservation, error)

	StartSessionFunc func(ctx context.Context, address string, stationID int64) (int64, error)
	EndSessionFunc   func(ctx context.Context, sessionID int64) error
	PaySessionFunc   func(ctx context.Context, sessionID int64, amount decimal.Decimal) error

	ReserveStationFunc    func(ctx context.Context, address string, stationID int64, start time.Time, duration time.Duration) (int64, error)
	CancelReservationFunc func(ctx context.Context, reservationID int64) error

	IsStationReservedForUserFunc  func(ctx context.Context, stationID int64, address string) (bool, error)
	IsStationReservedInPeriodFunc func(ctx context.Context, stationID int64, start, end time.Time) (bool, error)

	GetBalanceFunc      func(ctx context.Context, address string) (decimal.Decimal, error)
	VerifySignatureFunc func(ctx context.Context, message, signature, address string) (bool, error)
}

func NewMockLedger() *MockLedger {
	return &MockLedger{}
}

func (m *MockLedger) GetUser(ctx context.Context, address string) (*domain.User, error) {
	if m.GetUserFunc != nil {
		return m.GetUserFunc(ctx, address)
	}
	return nil, domain.ErrUserNotFound(address)
}

func (m *MockLedger) RegisterUser(ctx context.Context, address, email, name string) (*domain.User, error) {
	if m.RegisterUserFunc != nil {
		return m.RegisterUserFunc(ctx, address, email, name)
	}
	return domain.NewUser(address, email, name), nil
}

func (m *MockLedger) GetStation(ctx context.Context, stationID int64) (*domain.Station, error) {
	if m.GetStationFunc != nil {
		return m.GetStationFunc(ctx, stationID)
	}
	return nil, domain.ErrStationNotFound(stationID)
}

func (m *MockLedger) ListStations(ctx context.Context) ([]domain.Station, error) {
	if m.ListStationsFunc != nil {
		return m.ListStationsFunc(ctx)
	}
	return nil, nil
}

func (m *MockLedger) GetSession(ctx context.Context, sessionID int64) (*domain.Session, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	return nil, domain.ErrSessionNotFound(sessionID)
}

func (m *MockLedger) GetReservation(ctx context.Context, reservationID int64) (*domain.Reservation, error) {
	if m.GetReservationFunc != nil {
		return m.GetReservationFunc(ctx, reservationID)
	}
	return nil, domain.ErrReservationNotFound(reservationID)
}

func (m *MockLedger) GetUserSessions(ctx context.Context, address string) ([]domain.Session, error) {
	if m.GetUserSessionsFunc != nil {
		return m.GetUserSessionsFunc(ctx, address)
	}
	return nil, nil
}

func (m *MockLedger) GetStationSessions(ctx context.Context, stationID int64) ([]domain.Session, error) {
	if m.GetStationSessionsFunc != nil {
		return m.GetStationSessionsFunc(ctx, stationID)
	}
	return nil, nil
}

func (m *MockLedger) GetUserReservations(ctx context.Context, address string) ([]domain.Reservation, error) {
	if m.GetUserReservationsFunc != nil {
		return m.GetUserReservationsFunc(ctx, address)
	}
	return nil, nil
}

func (m *MockLedger) GetStationReservations(ctx context.Context, stationID int64) ([]domain.Reservation, error) {
	if m.GetStationReservationsFunc != nil {
		return m.GetStationReservationsFunc(ctx, stationID)
	}
	return nil, nil
}

func (m *MockLedger) StartSession(ctx context.Context, address string, stationID int64) (int64, error) {
	if m.StartSessionFunc != nil {
		return m.StartSessionFunc(ctx, address, stationID)
	}
	return 1, nil
}

func (m *MockLedger) EndSession(ctx context.Context, sessionID int64) error {
	if m.EndSessionFunc != nil {
		return m.EndSessionFunc(ctx, sessionID)
	}
	return nil
}

func (m *MockLedger) PaySession(ctx context.Context, sessionID int64, amount decimal.Decimal) error {
	if m.PaySessionFunc != nil {
		return m.PaySessionFunc(ctx, sessionID, amount)
	}
	return nil
}

func (m *MockLedger) ReserveStation(ctx context.Context, address string, stationID int64, start time.Time, duration time.Duration) (int64, error) {
	if m.ReserveStationFunc != nil {
		return m.ReserveStationFunc(ctx, address, stationID, start, duration)
	}
	return 1, nil
}

func (m *MockLedger) CancelReservation(ctx context.Context, reservationID int64) error {
	if m.CancelReservationFunc != nil {
		return m.CancelReservationFunc(ctx, reservationID)
	}
	return nil
}

func (m *MockLedger) IsStationReservedForUser(ctx context.Context, stationID int64, address string) (bool, error) {
	if m.IsStationReservedForUserFunc != nil {
		return m.IsStationReservedForUserFunc(ctx, stationID, address)
	}
	return false, nil
}

func (m *MockLedger) IsStationReservedInPeriod(ctx context.Context, stationID int64, start, end time.Time) (bool, error) {
	if m.IsStationReservedInPeriodFunc != nil {
		return m.IsStationReservedInPeriodFunc(ctx, stationID, start, end)
	}
	return false, nil
}

func (m *MockLedger) GetBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	if m.GetBalanceFunc != nil {
		return m.GetBalanceFunc(ctx, address)
	}
	return decimal.Zero, nil
}

func (m *MockLedger) VerifySignature(ctx context.Context, message, signature, address string) (bool, error) {
	if m.VerifySignatureFunc != nil {
		return m.VerifySignatureFunc(ctx, message, signature, address)
	}
	return false, nil
}
