package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is a wallet-identified account as recorded on the ledger. The wallet
// address is the identity; email and name are optional profile data.
type User struct {
	WalletAddress      string          `json:"wallet_address"`
	Email              string          `json:"email,omitempty"`
	Name               string          `json:"name,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	LastLogin          *time.Time      `json:"last_login,omitempty"`
	ActiveSessions     []int64         `json:"active_sessions"`
	TotalCharges       decimal.Decimal `json:"total_charges"`
	TotalSessions      int64           `json:"total_sessions"`
	ActiveReservations []int64         `json:"active_reservations"`
}

// NewUser creates a user with zeroed counters, as the ledger does on first
// registration.
func NewUser(walletAddress, email, name string) *User {
	return &User{
		WalletAddress: walletAddress,
		Email:         email,
		Name:          name,
		CreatedAt:     time.Now().UTC(),
		TotalCharges:  decimal.Zero,
	}
}

// AddSession records a session id in the active set. Adding the same id twice
// is a no-op, keeping the set free of duplicates.
func (u *User) AddSession(sessionID int64) {
	for _, id := range u.ActiveSessions {
		if id == sessionID {
			return
		}
	}
	u.ActiveSessions = append(u.ActiveSessions, sessionID)
}

func (u *User) RemoveSession(sessionID int64) {
	for i, id := range u.ActiveSessions {
		if id == sessionID {
			u.ActiveSessions = append(u.ActiveSessions[:i], u.ActiveSessions[i+1:]...)
			return
		}
	}
}

// AddCharge accumulates a paid amount into the lifetime totals. Totals only
// ever grow; there is no reverse operation.
func (u *User) AddCharge(amount decimal.Decimal) {
	u.TotalCharges = u.TotalCharges.Add(amount)
	u.TotalSessions++
}

func (u *User) AddReservation(reservationID int64) {
	for _, id := range u.ActiveReservations {
		if id == reservationID {
			return
		}
	}
	u.ActiveReservations = append(u.ActiveReservations, reservationID)
}

func (u *User) RemoveReservation(reservationID int64) {
	for i, id := range u.ActiveReservations {
		if id == reservationID {
			u.ActiveReservations = append(u.ActiveReservations[:i], u.ActiveReservations[i+1:]...)
			return
		}
	}
}

func (u *User) UpdateLastLogin() {
	now := time.Now().UTC()
	u.LastLogin = &now
}
