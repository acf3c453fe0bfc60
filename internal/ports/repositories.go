package ports

import (
	"context"
	"time"
)

// StationRecord is the read-optimized projection of a station kept in the
// secondary index. It mirrors ledger state eventually and is used only for
// listing and filtering, never to gate a mutation.
type StationRecord struct {
	ID            int64     `json:"id" gorm:"primaryKey"`
	Location      string    `json:"location" gorm:"index"`
	PowerOutputKW string    `json:"power_output"`
	PricePerHour  string    `json:"price_per_hour"`
	Available     bool      `json:"is_available" gorm:"index"`
	TotalSessions int64     `json:"total_sessions"`
	TotalRevenue  string    `json:"total_revenue"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// UserRecord is the read-optimized projection of a user.
type UserRecord struct {
	WalletAddress string    `json:"wallet_address" gorm:"primaryKey"`
	Email         string    `json:"email,omitempty" gorm:"index"`
	Name          string    `json:"name,omitempty"`
	TotalCharges  string    `json:"total_charges"`
	TotalSessions int64     `json:"total_sessions"`
	LastSeenAt    time.Time `json:"last_seen_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// StationFilter narrows station listings.
type StationFilter struct {
	AvailableOnly bool
	Location      string // substring match
}

type StationIndexRepository interface {
	Upsert(ctx context.Context, rec *StationRecord) error
	FindByID(ctx context.Context, id int64) (*StationRecord, error)
	FindAll(ctx context.Context, filter StationFilter) ([]StationRecord, error)
	SetAvailability(ctx context.Context, id int64, available bool) error
}

type UserIndexRepository interface {
	Upsert(ctx context.Context, rec *UserRecord) error
	FindByWallet(ctx context.Context, address string) (*UserRecord, error)
}

// Cache is a string cache with TTL, backed by Redis in production and an
// in-memory map in tests and the simulator.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping() error
	Close() error
}
