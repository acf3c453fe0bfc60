package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReservationSlot is one entry in a station's reservation calendar.
type ReservationSlot struct {
	UserAddress string    `json:"user_address"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
}

// Station is a charging station as recorded on the ledger. Availability and
// the current session id move together: a station is available exactly when
// no session holds it.
type Station struct {
	ID               int64                        `json:"id"`
	Location         string                       `json:"location"`
	PowerOutputKW    decimal.Decimal              `json:"power_output"`
	PricePerHour     decimal.Decimal              `json:"price_per_hour"`
	Available        bool                         `json:"is_available"`
	CurrentSessionID int64                        `json:"current_session_id,omitempty"`
	Reservations     map[string][]ReservationSlot `json:"reservations"` // keyed by YYYY-MM-DD of the slot start
	TotalSessions    int64                        `json:"total_sessions"`
	TotalRevenue     decimal.Decimal              `json:"total_revenue"`
}

const calendarDateLayout = "2006-01-02"

// StartSession claims the station for a session.
func (s *Station) StartSession(sessionID int64) {
	s.Available = false
	s.CurrentSessionID = sessionID
}

// EndSession releases the station and bumps the lifetime session count.
func (s *Station) EndSession() {
	s.Available = true
	s.CurrentSessionID = 0
	s.TotalSessions++
}

// AddRevenue accumulates a successful payment into the lifetime revenue.
func (s *Station) AddRevenue(amount decimal.Decimal) {
	s.TotalRevenue = s.TotalRevenue.Add(amount)
}

// AddReservation files a slot under the calendar date of its start time.
// Overlap checking is the caller's job; the calendar stores what it is given.
func (s *Station) AddReservation(userAddress string, start, end time.Time) {
	if s.Reservations == nil {
		s.Reservations = make(map[string][]ReservationSlot)
	}
	key := start.UTC().Format(calendarDateLayout)
	s.Reservations[key] = append(s.Reservations[key], ReservationSlot{
		UserAddress: userAddress,
		StartTime:   start,
		EndTime:     end,
	})
}

func (s *Station) RemoveReservation(userAddress string, start, end time.Time) {
	key := start.UTC().Format(calendarDateLayout)
	slots, ok := s.Reservations[key]
	if !ok {
		return
	}
	kept := slots[:0]
	for _, slot := range slots {
		if slot.UserAddress == userAddress && slot.StartTime.Equal(start) && slot.EndTime.Equal(end) {
			continue
		}
		kept = append(kept, slot)
	}
	s.Reservations[key] = kept
}

// IsReservedAt reports whether any calendar slot covers the given instant.
func (s *Station) IsReservedAt(t time.Time) bool {
	return s.ReservationHolderAt(t) != ""
}

// ReservationHolderAt returns the wallet holding a reservation covering the
// given instant, or empty string when none does. Slots are filed under their
// start date and run at most 24 hours, so a covering slot starts either on
// the query date or the day before.
func (s *Station) ReservationHolderAt(t time.Time) string {
	utc := t.UTC()
	keys := [2]string{
		utc.Format(calendarDateLayout),
		utc.AddDate(0, 0, -1).Format(calendarDateLayout),
	}
	for _, key := range keys {
		for _, slot := range s.Reservations[key] {
			if !t.Before(slot.StartTime) && !t.After(slot.EndTime) {
				return slot.UserAddress
			}
		}
	}
	return ""
}
