package validation

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/sha3"

	"github.com/seu-repo/chargechain/internal/domain"
)

// Validator parses raw caller input into domain values. It is stateless and
// safe for concurrent use.
type Validator struct{}

func New() *Validator {
	return &Validator{}
}

// ValidateWalletAddress accepts 0x-prefixed 20-byte hex addresses. All-lower
// and all-upper forms are accepted as-is; mixed-case forms must carry a valid
// EIP-55 checksum.
func (v *Validator) ValidateWalletAddress(address string) bool {
	if len(address) != 42 || !strings.HasPrefix(address, "0x") {
		return false
	}
	hex := address[2:]
	for _, c := range hex {
		if !isHexChar(byte(c)) {
			return false
		}
	}
	lower := strings.ToLower(hex)
	if hex == lower || hex == strings.ToUpper(hex) {
		return true
	}
	return checksumAddress(lower) == hex
}

// NormalizeWalletAddress validates the address and returns its canonical
// lowercase form, which is the identity used everywhere downstream.
func (v *Validator) NormalizeWalletAddress(address string) (string, error) {
	if !v.ValidateWalletAddress(address) {
		return "", domain.ErrInvalidWallet()
	}
	return strings.ToLower(address), nil
}

// ParseDateTime accepts RFC 3339 timestamps and normalizes them to UTC.
func (v *Validator) ParseDateTime(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, domain.ErrValidation("invalid datetime %q, expected RFC 3339", value)
	}
	return t.UTC(), nil
}

// ParseDecimal accepts non-negative decimal amounts.
func (v *Validator) ParseDecimal(value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, domain.ErrValidation("invalid amount %q", value)
	}
	if d.IsNegative() {
		return decimal.Zero, domain.ErrValidation("amount must not be negative, got %s", value)
	}
	return d, nil
}

// checksumAddress computes the EIP-55 mixed-case form of a lowercase hex
// address (without the 0x prefix).
func checksumAddress(lower string) string {
	hash := sha3.NewLegacyKeccak256()
	hash.Write([]byte(lower))
	digest := hash.Sum(nil)

	out := make([]byte, len(lower))
	for i := 0; i < len(lower); i++ {
		c := lower[i]
		if c >= 'a' && c <= 'f' {
			nibble := digest[i/2]
			if i%2 == 0 {
				nibble >>= 4
			}
			if nibble&0x0f >= 8 {
				c = c - 'a' + 'A'
			}
		}
		out[i] = c
	}
	return string(out)
}

func isHexChar(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
