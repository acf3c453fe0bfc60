package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/seu-repo/chargechain/internal/domain"
)

const wallet = "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"

func seededMemory(t *testing.T, now time.Time) *Memory {
	t.Helper()
	mem := NewMemory()
	mem.SetClock(func() time.Time { return now })
	mem.AddStation(domain.Station{
		ID:            1,
		Location:      "Garage A",
		PowerOutputKW: decimal.RequireFromString("22"),
		PricePerHour:  decimal.RequireFromString("0.001"),
		Available:     true,
	})
	if _, err := mem.RegisterUser(context.Background(), wallet, "", ""); err != nil {
		t.Fatalf("failed to register user: %v", err)
	}
	mem.SetBalance(wallet, decimal.RequireFromString("1"))
	return mem
}

// Full reserve, start, end, pay walk-through: a 1.5 hour session bills two
// whole hours, revenue and lifetime totals move by the paid amount, and the
// wallet is debited.
func TestReserveStartEndPayLifecycle(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	mem := seededMemory(t, t0)

	if _, err := mem.ReserveStation(ctx, wallet, 1, t0.Add(time.Hour), 2*time.Hour); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}

	mem.SetClock(func() time.Time { return t0.Add(time.Hour) })
	reserved, err := mem.IsStationReservedForUser(ctx, 1, wallet)
	if err != nil || !reserved {
		t.Fatalf("expected station reserved for holder at window start, got %v %v", reserved, err)
	}

	sessID, err := mem.StartSession(ctx, wallet, 1)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	station, _ := mem.GetStation(ctx, 1)
	if station.Available || station.CurrentSessionID != sessID {
		t.Errorf("expected station claimed by session %d, got %+v", sessID, station)
	}

	mem.SetClock(func() time.Time { return t0.Add(2*time.Hour + 30*time.Minute) })
	if err := mem.EndSession(ctx, sessID); err != nil {
		t.Fatalf("end failed: %v", err)
	}
	station, _ = mem.GetStation(ctx, 1)
	if !station.Available || station.CurrentSessionID != 0 || station.TotalSessions != 1 {
		t.Errorf("expected station released after end, got %+v", station)
	}
	sess, _ := mem.GetSession(ctx, sessID)
	if sess.DurationHours() != 1.5 {
		t.Errorf("expected 1.5 duration hours, got %v", sess.DurationHours())
	}

	amount := decimal.RequireFromString("0.002")
	if err := mem.PaySession(ctx, sessID, amount); err != nil {
		t.Fatalf("pay failed: %v", err)
	}

	sess, _ = mem.GetSession(ctx, sessID)
	if !sess.IsPaid() || sess.PaymentAmount.String() != "0.002" {
		t.Errorf("expected paid session with amount 0.002, got %+v", sess)
	}
	station, _ = mem.GetStation(ctx, 1)
	if station.TotalRevenue.String() != "0.002" {
		t.Errorf("expected station revenue 0.002, got %s", station.TotalRevenue)
	}
	user, _ := mem.GetUser(ctx, wallet)
	if user.TotalCharges.String() != "0.002" || user.TotalSessions != 1 {
		t.Errorf("expected user totals to move, got charges=%s sessions=%d", user.TotalCharges, user.TotalSessions)
	}
	balance, _ := mem.GetBalance(ctx, wallet)
	if balance.String() != "0.998" {
		t.Errorf("expected balance 0.998 after debit, got %s", balance)
	}
}

func TestConcurrentStartsOneWinner(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	mem := seededMemory(t, t0)

	const racers = 16
	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = mem.StartSession(ctx, wallet, 1)
		}(i)
	}
	wg.Wait()

	wins, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case domain.CodeOf(err) == "STATION_IN_USE":
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || conflicts != racers-1 {
		t.Errorf("expected exactly one winner, got %d wins and %d conflicts", wins, conflicts)
	}
}

func TestOverlappingReservationRejected(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	mem := seededMemory(t, t0)
	other := "0x1111111111111111111111111111111111111111"
	if _, err := mem.RegisterUser(ctx, other, "", ""); err != nil {
		t.Fatalf("failed to register user: %v", err)
	}

	if _, err := mem.ReserveStation(ctx, wallet, 1, t0.Add(time.Hour), time.Hour); err != nil {
		t.Fatalf("first reservation failed: %v", err)
	}

	_, err := mem.ReserveStation(ctx, other, 1, t0.Add(90*time.Minute), time.Hour)
	if domain.CodeOf(err) != "STATION_ALREADY_RESERVED" {
		t.Errorf("expected STATION_ALREADY_RESERVED, got %v", err)
	}

	// A back-to-back window is fine.
	if _, err := mem.ReserveStation(ctx, other, 1, t0.Add(2*time.Hour), time.Hour); err != nil {
		t.Errorf("expected back-to-back reservation to succeed, got %v", err)
	}
}

func TestCancelReservationReleasesCalendar(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	mem := seededMemory(t, t0)

	id, err := mem.ReserveStation(ctx, wallet, 1, t0.Add(time.Hour), time.Hour)
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if err := mem.CancelReservation(ctx, id); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if err := mem.CancelReservation(ctx, id); domain.KindOf(err) != domain.KindValidation {
		t.Errorf("expected validation error on double cancel, got %v", err)
	}

	// The slot is free again.
	if _, err := mem.ReserveStation(ctx, wallet, 1, t0.Add(time.Hour), time.Hour); err != nil {
		t.Errorf("expected cancelled slot to be reservable, got %v", err)
	}
}

// A reservation running past midnight must still cover the holder on the
// following calendar day.
func TestReservationAcrossMidnightCoversHolder(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2026, 8, 24, 22, 0, 0, 0, time.UTC)
	mem := seededMemory(t, t0)

	if _, err := mem.ReserveStation(ctx, wallet, 1, t0.Add(time.Hour), 4*time.Hour); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}

	// 01:00 the next day, inside the 23:00 to 03:00 window.
	mem.SetClock(func() time.Time { return time.Date(2026, 8, 25, 1, 0, 0, 0, time.UTC) })

	reserved, err := mem.IsStationReservedForUser(ctx, 1, wallet)
	if err != nil || !reserved {
		t.Fatalf("expected station reserved for holder past midnight, got %v %v", reserved, err)
	}
	other, err := mem.IsStationReservedForUser(ctx, 1, "0x1111111111111111111111111111111111111111")
	if err != nil || other {
		t.Errorf("expected station not reserved for another wallet, got %v %v", other, err)
	}

	// 04:00, after the window closes.
	mem.SetClock(func() time.Time { return time.Date(2026, 8, 25, 4, 0, 0, 0, time.UTC) })
	reserved, err = mem.IsStationReservedForUser(ctx, 1, wallet)
	if err != nil || reserved {
		t.Errorf("expected window closed after its end, got %v %v", reserved, err)
	}
}

func TestPaySessionInsufficientBalance(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	mem := seededMemory(t, t0)
	mem.SetBalance(wallet, decimal.RequireFromString("0.001"))

	sessID, err := mem.StartSession(ctx, wallet, 1)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	mem.SetClock(func() time.Time { return t0.Add(2 * time.Hour) })
	if err := mem.EndSession(ctx, sessID); err != nil {
		t.Fatalf("end failed: %v", err)
	}

	err = mem.PaySession(ctx, sessID, decimal.RequireFromString("0.002"))
	if domain.CodeOf(err) != "INSUFFICIENT_PAYMENT" {
		t.Errorf("expected INSUFFICIENT_PAYMENT, got %v", err)
	}
	sess, _ := mem.GetSession(ctx, sessID)
	if sess.IsPaid() {
		t.Error("expected session to remain unpaid")
	}
}

func TestDevSignatureVerification(t *testing.T) {
	mem := NewMemory()

	sig := DevSign("hello", wallet)
	ok, err := mem.VerifySignature(context.Background(), "hello", sig, wallet)
	if err != nil || !ok {
		t.Errorf("expected dev signature to verify, got %v %v", ok, err)
	}
	ok, _ = mem.VerifySignature(context.Background(), "hello", "0xforged", wallet)
	if ok {
		t.Error("expected forged signature to fail")
	}
}
