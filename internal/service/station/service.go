package station

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/chargechain/internal/domain"
	"github.com/seu-repo/chargechain/internal/ports"
)

// Service implements StationDirectoryService. Listings read the secondary
// index through a short-lived cache; availability detail always reads the
// ledger, since the index is allowed to be stale.
type Service struct {
	ledger   ports.Ledger
	index    ports.StationIndexRepository
	cache    ports.Cache
	cacheTTL time.Duration
	log      *zap.Logger
	now      func() time.Time
}

func NewService(ledger ports.Ledger, index ports.StationIndexRepository, cache ports.Cache, cacheTTL time.Duration, log *zap.Logger) *Service {
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	return &Service{
		ledger:   ledger,
		index:    index,
		cache:    cache,
		cacheTTL: cacheTTL,
		log:      log,
		now:      time.Now,
	}
}

func (s *Service) ListStations(ctx context.Context, filter ports.StationFilter) ([]ports.StationRecord, error) {
	key := listCacheKey(filter)
	if cached, err := s.cache.Get(ctx, key); err == nil && cached != "" {
		var records []ports.StationRecord
		if err := json.Unmarshal([]byte(cached), &records); err == nil {
			return records, nil
		}
	}

	records, err := s.index.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list stations: %w", err)
	}

	if payload, err := json.Marshal(records); err == nil {
		if err := s.cache.Set(ctx, key, string(payload), s.cacheTTL); err != nil {
			s.log.Warn("failed to cache station listing", zap.Error(err))
		}
	}
	return records, nil
}

func (s *Service) GetStation(ctx context.Context, stationID int64) (*ports.StationRecord, error) {
	rec, err := s.index.FindByID(ctx, stationID)
	if err == nil {
		return rec, nil
	}

	// Index miss: fall through to the ledger so freshly-registered stations
	// are visible before the projector catches up.
	station, err := s.ledger.GetStation(ctx, stationID)
	if err != nil {
		return nil, err
	}
	return recordFromStation(station, s.now().UTC()), nil
}

// GetStationAvailability lists the non-cancelled reservations that touch the
// given calendar day.
func (s *Service) GetStationAvailability(ctx context.Context, stationID int64, date time.Time) ([]ports.ReservationView, error) {
	if _, err := s.ledger.GetStation(ctx, stationID); err != nil {
		return nil, err
	}

	reservations, err := s.ledger.GetStationReservations(ctx, stationID)
	if err != nil {
		return nil, err
	}

	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)
	now := s.now().UTC()

	views := make([]ports.ReservationView, 0, len(reservations))
	for i := range reservations {
		res := &reservations[i]
		if res.Cancelled || !res.Overlaps(dayStart, dayEnd) {
			continue
		}
		views = append(views, ports.ReservationView{
			ReservationID: res.ID,
			UserAddress:   res.UserAddress,
			StationID:     res.StationID,
			StartTime:     res.StartTime,
			EndTime:       res.EndTime,
			DurationHours: res.DurationHours(),
			Status:        domain.ReservationStatusAt(res, now),
		})
	}
	return views, nil
}

func listCacheKey(filter ports.StationFilter) string {
	return fmt.Sprintf("stations:list:%t:%s", filter.AvailableOnly, filter.Location)
}

func recordFromStation(st *domain.Station, now time.Time) *ports.StationRecord {
	return &ports.StationRecord{
		ID:            st.ID,
		Location:      st.Location,
		PowerOutputKW: st.PowerOutputKW.String(),
		PricePerHour:  st.PricePerHour.String(),
		Available:     st.Available,
		TotalSessions: st.TotalSessions,
		TotalRevenue:  st.TotalRevenue.String(),
		UpdatedAt:     now,
	}
}
