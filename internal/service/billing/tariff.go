// Package billing owns the tariff math. The round-up rule lives here and
// nowhere else: every quote and every payment check goes through the same
// Tariff so the figures can never drift apart.
package billing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/seu-repo/chargechain/internal/domain"
)

// DefaultBaseRatePerHour is the flat charging rate applied when no override
// is configured.
const DefaultBaseRatePerHour = "0.001"

// Tariff computes the amount owed for a completed session.
type Tariff struct {
	ratePerHour decimal.Decimal
}

// NewTariff builds a tariff from a configured hourly rate. An empty rate
// falls back to the default.
func NewTariff(ratePerHour string) (*Tariff, error) {
	if ratePerHour == "" {
		ratePerHour = DefaultBaseRatePerHour
	}
	rate, err := decimal.NewFromString(ratePerHour)
	if err != nil {
		return nil, domain.ErrValidation("invalid tariff rate %q", ratePerHour)
	}
	if rate.IsNegative() {
		return nil, domain.ErrValidation("tariff rate must not be negative, got %s", ratePerHour)
	}
	return &Tariff{ratePerHour: rate}, nil
}

// RatePerHour returns the configured hourly rate.
func (t *Tariff) RatePerHour() decimal.Decimal {
	return t.ratePerHour
}

// BilledHours rounds a session duration up to whole hours. Any started hour
// is billed in full; a zero or negative duration bills nothing.
func (t *Tariff) BilledHours(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	hours := int64(d / time.Hour)
	if d%time.Hour != 0 {
		hours++
	}
	return hours
}

// RequiredAmount returns what a session owes. The session must have both
// start and end timestamps recorded.
func (t *Tariff) RequiredAmount(s *domain.Session) (decimal.Decimal, error) {
	d, ok := s.Duration()
	if !ok {
		return decimal.Zero, domain.ErrSessionNotEnded(s.ID)
	}
	return t.ratePerHour.Mul(decimal.NewFromInt(t.BilledHours(d))), nil
}
