package mocks

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/seu-repo/chargechain/internal/ports"
)

// MockStationIndex is a mock implementation of StationIndexRepository backed
// by an in-memory map.
type MockStationIndex struct {
	mu       sync.RWMutex
	stations map[int64]ports.StationRecord

	UpsertFunc          func(ctx context.Context, rec *ports.StationRecord) error
	FindByIDFunc        func(ctx context.Context, id int64) (*ports.StationRecord, error)
	FindAllFunc         func(ctx context.Context, filter ports.StationFilter) ([]ports.StationRecord, error)
	SetAvailabilityFunc func(ctx context.Context, id int64, available bool) error
}

func NewMockStationIndex() *MockStationIndex {
	return &MockStationIndex{
		stations: make(map[int64]ports.StationRecord),
	}
}

func (m *MockStationIndex) Upsert(ctx context.Context, rec *ports.StationRecord) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, rec)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stations[rec.ID] = *rec
	return nil
}

func (m *MockStationIndex) FindByID(ctx context.Context, id int64) (*ports.StationRecord, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.stations[id]
	if !ok {
		return nil, fmt.Errorf("station record %d not found", id)
	}
	return &rec, nil
}

func (m *MockStationIndex) FindAll(ctx context.Context, filter ports.StationFilter) ([]ports.StationRecord, error) {
	if m.FindAllFunc != nil {
		return m.FindAllFunc(ctx, filter)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ports.StationRecord
	for _, rec := range m.stations {
		if filter.AvailableOnly && !rec.Available {
			continue
		}
		if filter.Location != "" && !strings.Contains(strings.ToLower(rec.Location), strings.ToLower(filter.Location)) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (m *MockStationIndex) SetAvailability(ctx context.Context, id int64, available bool) error {
	if m.SetAvailabilityFunc != nil {
		return m.SetAvailabilityFunc(ctx, id, available)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.stations[id]
	if !ok {
		return fmt.Errorf("station record %d not found", id)
	}
	rec.Available = available
	m.stations[id] = rec
	return nil
}

// MockUserIndex is a mock implementation of UserIndexRepository.
type MockUserIndex struct {
	mu    sync.RWMutex
	users map[string]ports.UserRecord

	UpsertFunc       func(ctx context.Context, rec *ports.UserRecord) error
	FindByWalletFunc func(ctx context.Context, address string) (*ports.UserRecord, error)
}

func NewMockUserIndex() *MockUserIndex {
	return &MockUserIndex{
		users: make(map[string]ports.UserRecord),
	}
}

func (m *MockUserIndex) Upsert(ctx context.Context, rec *ports.UserRecord) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, rec)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[rec.WalletAddress] = *rec
	return nil
}

func (m *MockUserIndex) FindByWallet(ctx context.Context, address string) (*ports.UserRecord, error) {
	if m.FindByWalletFunc != nil {
		return m.FindByWalletFunc(ctx, address)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.users[address]
	if !ok {
		return nil, fmt.Errorf("user record %s not found", address)
	}
	return &rec, nil
}
