package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/seu-repo/chargechain/internal/observability/telemetry"
	"github.com/seu-repo/chargechain/internal/ports"
)

// StationIndex persists the station projection.
type StationIndex struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewStationIndex(db *gorm.DB, log *zap.Logger) *StationIndex {
	return &StationIndex{
		db:  db,
		log: log,
	}
}

func (r *StationIndex) Upsert(ctx context.Context, rec *ports.StationRecord) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(rec).Error
}

func (r *StationIndex) FindByID(ctx context.Context, id int64) (*ports.StationRecord, error) {
	var rec ports.StationRecord
	err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("station record %d not found", id)
		}
		return nil, err
	}
	return &rec, nil
}

func (r *StationIndex) FindAll(ctx context.Context, filter ports.StationFilter) ([]ports.StationRecord, error) {
	start := time.Now()
	defer func() { telemetry.DatabaseLatency.Observe(time.Since(start).Seconds()) }()

	query := r.db.WithContext(ctx).Model(&ports.StationRecord{})
	if filter.AvailableOnly {
		query = query.Where("available = ?", true)
	}
	if filter.Location != "" {
		query = query.Where("location ILIKE ?", "%"+filter.Location+"%")
	}

	var records []ports.StationRecord
	if err := query.Order("id").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *StationIndex) SetAvailability(ctx context.Context, id int64, available bool) error {
	return r.db.WithContext(ctx).
		Model(&ports.StationRecord{}).
		Where("id = ?", id).
		Update("available", available).Error
}
