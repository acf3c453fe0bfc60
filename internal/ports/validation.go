package ports

import (
	"time"

	"github.com/shopspring/decimal"
)

// Validator parses and validates raw caller input. Implementations return
// domain validation errors so call sites can propagate them unchanged.
type Validator interface {
	// ValidateWalletAddress reports whether the address is a well-formed
	// 20-byte hex address (with EIP-55 checksum verification when the input
	// is mixed-case).
	ValidateWalletAddress(address string) bool

	// NormalizeWalletAddress validates and lowercases an address.
	NormalizeWalletAddress(address string) (string, error)

	// ParseDateTime parses an RFC 3339 timestamp.
	ParseDateTime(value string) (time.Time, error)

	// ParseDecimal parses a non-negative decimal amount.
	ParseDecimal(value string) (decimal.Decimal, error)
}
