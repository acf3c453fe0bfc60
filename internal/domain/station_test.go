package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestStationAvailabilityTracksSession(t *testing.T) {
	st := &Station{ID: 1, Available: true}

	st.StartSession(42)
	if st.Available {
		t.Error("expected station unavailable while session holds it")
	}
	if st.CurrentSessionID != 42 {
		t.Errorf("expected current session 42, got %d", st.CurrentSessionID)
	}

	st.EndSession()
	if !st.Available {
		t.Error("expected station available after release")
	}
	if st.CurrentSessionID != 0 {
		t.Errorf("expected no current session, got %d", st.CurrentSessionID)
	}
	if st.TotalSessions != 1 {
		t.Errorf("expected total sessions 1, got %d", st.TotalSessions)
	}
}

func TestStationReservationCalendar(t *testing.T) {
	st := &Station{ID: 2, Available: true}
	start := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)

	st.AddReservation("0xholder", start, end)

	if holder := st.ReservationHolderAt(start.Add(time.Hour)); holder != "0xholder" {
		t.Errorf("expected holder 0xholder, got %q", holder)
	}
	if st.IsReservedAt(start.Add(3 * time.Hour)) {
		t.Error("expected no reservation after the slot ends")
	}

	st.RemoveReservation("0xholder", start, end)
	if st.IsReservedAt(start.Add(time.Hour)) {
		t.Error("expected slot removed")
	}
}

// A slot is filed under its start date, so a slot running past midnight must
// still be visible to queries on the following day.
func TestStationReservationCalendarAcrossMidnight(t *testing.T) {
	st := &Station{ID: 2, Available: true}
	start := time.Date(2026, 8, 24, 23, 0, 0, 0, time.UTC)
	end := start.Add(4 * time.Hour) // 03:00 the next day

	st.AddReservation("0xholder", start, end)

	if holder := st.ReservationHolderAt(time.Date(2026, 8, 25, 1, 0, 0, 0, time.UTC)); holder != "0xholder" {
		t.Errorf("expected holder 0xholder past midnight, got %q", holder)
	}
	if !st.IsReservedAt(end) {
		t.Error("expected slot visible at its end instant on the next day")
	}
	if st.IsReservedAt(time.Date(2026, 8, 25, 4, 0, 0, 0, time.UTC)) {
		t.Error("expected no reservation after the slot ends")
	}

	st.RemoveReservation("0xholder", start, end)
	if st.IsReservedAt(time.Date(2026, 8, 25, 1, 0, 0, 0, time.UTC)) {
		t.Error("expected slot removed from the next day's view too")
	}
}

func TestStationRevenueAccumulates(t *testing.T) {
	st := &Station{ID: 3, TotalRevenue: decimal.Zero}
	st.AddRevenue(decimal.RequireFromString("0.002"))
	st.AddRevenue(decimal.RequireFromString("0.003"))

	if !st.TotalRevenue.Equal(decimal.RequireFromString("0.005")) {
		t.Errorf("expected revenue 0.005, got %s", st.TotalRevenue)
	}
}
