package reservation

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/chargechain/internal/domain"
	"github.com/seu-repo/chargechain/internal/events"
	"github.com/seu-repo/chargechain/internal/mocks"
	"github.com/seu-repo/chargechain/internal/validation"
)

const (
	walletA = "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"
	walletB = "0x1111111111111111111111111111111111111111"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestService(ledger *mocks.MockLedger, mq *mocks.MockMessageQueue) *Service {
	svc := NewService(ledger, validation.New(), mq, zap.NewNop())
	svc.now = func() time.Time { return testNow }
	return svc
}

func happyLedger() *mocks.MockLedger {
	ledger := mocks.NewMockLedger()
	ledger.GetUserFunc = func(ctx context.Context, address string) (*domain.User, error) {
		return domain.NewUser(address, "", ""), nil
	}
	ledger.GetStationFunc = func(ctx context.Context, id int64) (*domain.Station, error) {
		return &domain.Station{ID: id, Available: true}, nil
	}
	ledger.ReserveStationFunc = func(ctx context.Context, address string, stationID int64, start time.Time, duration time.Duration) (int64, error) {
		return 5, nil
	}
	ledger.GetReservationFunc = func(ctx context.Context, id int64) (*domain.Reservation, error) {
		return &domain.Reservation{
			ID:          id,
			UserAddress: walletA,
			StationID:   7,
			StartTime:   testNow.Add(time.Hour),
			EndTime:     testNow.Add(3 * time.Hour),
		}, nil
	}
	return ledger
}

func TestReserveStation(t *testing.T) {
	// Arrange
	ledger := happyLedger()
	mq := mocks.NewMockMessageQueue()
	svc := newTestService(ledger, mq)

	// Act
	view, err := svc.ReserveStation(context.Background(), walletA, 7,
		testNow.Add(time.Hour).Format(time.RFC3339), "2")

	// Assert
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.ReservationID != 5 || view.DurationHours != 2 {
		t.Errorf("expected reservation 5 lasting 2h, got id=%d hours=%v", view.ReservationID, view.DurationHours)
	}
	if view.Status != "pending" {
		t.Errorf("expected a future reservation to derive as pending, got %q", view.Status)
	}
	if got := len(mq.GetPublishedMessages(events.SubjectReservationCreated)); got != 1 {
		t.Errorf("expected 1 reservation.created event, got %d", got)
	}
}

func TestReserveStationDurationBoundaries(t *testing.T) {
	start := testNow.Add(time.Hour).Format(time.RFC3339)

	cases := []struct {
		name     string
		start    string
		duration string
		wantErr  bool
	}{
		{"exactly one hour", start, "1", false},
		{"just under one hour", start, "0.99", true},
		{"exactly twenty-four hours", start, "24", false},
		{"just over twenty-four hours", start, "24.01", true},
		{"zero duration", start, "0", true},
		{"garbage duration", start, "soon", true},
		{"start one second in the past", testNow.Add(-time.Second).Format(time.RFC3339), "2", true},
		{"garbage start time", "tomorrow", "2", true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			svc := newTestService(happyLedger(), mocks.NewMockMessageQueue())

			_, err := svc.ReserveStation(context.Background(), walletA, 7, c.start, c.duration)

			if c.wantErr {
				if domain.KindOf(err) != domain.KindValidation {
					t.Errorf("expected validation error, got %v", err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestReserveStationOverlapRejected(t *testing.T) {
	// W1 holds [T+1h, T+2h]; W2 asks for [T+1h30m, T+2h30m].
	ledger := happyLedger()
	ledger.IsStationReservedInPeriodFunc = func(ctx context.Context, stationID int64, start, end time.Time) (bool, error) {
		held := domain.Reservation{StartTime: testNow.Add(time.Hour), EndTime: testNow.Add(2 * time.Hour)}
		return held.Overlaps(start, end), nil
	}
	svc := newTestService(ledger, mocks.NewMockMessageQueue())

	_, err := svc.ReserveStation(context.Background(), walletB, 7,
		testNow.Add(90*time.Minute).Format(time.RFC3339), "1")

	if domain.CodeOf(err) != "STATION_ALREADY_RESERVED" {
		t.Errorf("expected STATION_ALREADY_RESERVED, got %v", err)
	}
}

func TestReserveStationWhileInUse(t *testing.T) {
	ledger := happyLedger()
	ledger.GetStationFunc = func(ctx context.Context, id int64) (*domain.Station, error) {
		return &domain.Station{ID: id, Available: false, CurrentSessionID: 3}, nil
	}
	svc := newTestService(ledger, mocks.NewMockMessageQueue())

	_, err := svc.ReserveStation(context.Background(), walletA, 7,
		testNow.Add(time.Hour).Format(time.RFC3339), "2")

	if domain.CodeOf(err) != "STATION_IN_USE" {
		t.Errorf("expected STATION_IN_USE, got %v", err)
	}
}

func TestCancelReservation(t *testing.T) {
	cancelled := false
	ledger := mocks.NewMockLedger()
	ledger.GetReservationFunc = func(ctx context.Context, id int64) (*domain.Reservation, error) {
		return &domain.Reservation{
			ID:          id,
			UserAddress: walletA,
			StationID:   7,
			StartTime:   testNow.Add(time.Hour),
			EndTime:     testNow.Add(2 * time.Hour),
			Cancelled:   cancelled,
		}, nil
	}
	ledger.CancelReservationFunc = func(ctx context.Context, id int64) error {
		cancelled = true
		return nil
	}
	mq := mocks.NewMockMessageQueue()
	svc := newTestService(ledger, mq)

	view, err := svc.CancelReservation(context.Background(), walletA, 5)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Status != "cancelled" {
		t.Errorf("expected cancelled status, got %q", view.Status)
	}
	if got := len(mq.GetPublishedMessages(events.SubjectReservationCancelled)); got != 1 {
		t.Errorf("expected 1 reservation.cancelled event, got %d", got)
	}
}

func TestCancelReservationErrors(t *testing.T) {
	cases := []struct {
		name     string
		wallet   string
		res      domain.Reservation
		wantCode string
	}{
		{
			name:     "not owner",
			wallet:   walletB,
			res:      domain.Reservation{ID: 5, UserAddress: walletA, StartTime: testNow.Add(time.Hour), EndTime: testNow.Add(2 * time.Hour)},
			wantCode: "NOT_OWNER",
		},
		{
			name:     "already expired",
			wallet:   walletA,
			res:      domain.Reservation{ID: 5, UserAddress: walletA, StartTime: testNow.Add(-3 * time.Hour), EndTime: testNow.Add(-time.Hour)},
			wantCode: "RESERVATION_EXPIRED",
		},
		{
			name:     "already cancelled",
			wallet:   walletA,
			res:      domain.Reservation{ID: 5, UserAddress: walletA, StartTime: testNow.Add(time.Hour), EndTime: testNow.Add(2 * time.Hour), Cancelled: true},
			wantCode: "VALIDATION_ERROR",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ledger := mocks.NewMockLedger()
			res := c.res
			ledger.GetReservationFunc = func(ctx context.Context, id int64) (*domain.Reservation, error) {
				return &res, nil
			}
			svc := newTestService(ledger, mocks.NewMockMessageQueue())

			_, err := svc.CancelReservation(context.Background(), c.wallet, 5)

			if domain.CodeOf(err) != c.wantCode {
				t.Errorf("expected %s, got %v", c.wantCode, err)
			}
		})
	}
}

func TestGetUserReservationsStatusFilter(t *testing.T) {
	ledger := mocks.NewMockLedger()
	ledger.GetUserReservationsFunc = func(ctx context.Context, address string) ([]domain.Reservation, error) {
		return []domain.Reservation{
			{ID: 1, UserAddress: walletA, StartTime: testNow.Add(time.Hour), EndTime: testNow.Add(2 * time.Hour)},
			{ID: 2, UserAddress: walletA, StartTime: testNow.Add(-2 * time.Hour), EndTime: testNow.Add(-time.Hour)},
			{ID: 3, UserAddress: walletA, StartTime: testNow.Add(-time.Hour), EndTime: testNow.Add(time.Hour)},
		}, nil
	}
	svc := newTestService(ledger, mocks.NewMockMessageQueue())

	views, err := svc.GetUserReservations(context.Background(), walletA, "active")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(views) != 1 || views[0].ReservationID != 3 {
		t.Fatalf("expected only the currently-active reservation, got %v", views)
	}

	if _, err := svc.GetUserReservations(context.Background(), walletA, "bogus"); domain.KindOf(err) != domain.KindValidation {
		t.Errorf("expected validation error for unknown status filter, got %v", err)
	}
}
