package domain

import (
	"time"
)

// Reservation books a station for a time window. Status is never stored: it
// is derived from the timestamps and the cancelled flag at read time.
type Reservation struct {
	ID          int64     `json:"id"`
	UserAddress string    `json:"user_address"`
	StationID   int64     `json:"station_id"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Cancelled   bool      `json:"cancelled"`
}

// Reservation duration bounds, in hours.
const (
	MinReservationHours = 1.0
	MaxReservationHours = 24.0
)

func (r *Reservation) DurationHours() float64 {
	return r.EndTime.Sub(r.StartTime).Hours()
}

// Overlaps reports whether the reservation intersects [start, end).
func (r *Reservation) Overlaps(start, end time.Time) bool {
	return r.StartTime.Before(end) && r.EndTime.After(start)
}

// ReservationStatusAt is the single derivation of a reservation's
// caller-facing status. Cancellation wins over expiry, expiry over activity.
func ReservationStatusAt(r *Reservation, now time.Time) string {
	switch {
	case r.Cancelled:
		return "cancelled"
	case now.After(r.EndTime):
		return "expired"
	case !now.Before(r.StartTime):
		return "active"
	default:
		return "pending"
	}
}

// ValidReservationStatuses are the accepted values for status filters.
var ValidReservationStatuses = map[string]bool{
	"active":    true,
	"pending":   true,
	"expired":   true,
	"cancelled": true,
}
