package postgres

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/seu-repo/chargechain/internal/ports"
)

// UserIndex persists the user projection.
type UserIndex struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewUserIndex(db *gorm.DB, log *zap.Logger) *UserIndex {
	return &UserIndex{
		db:  db,
		log: log,
	}
}

func (r *UserIndex) Upsert(ctx context.Context, rec *ports.UserRecord) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "wallet_address"}},
			UpdateAll: true,
		}).
		Create(rec).Error
}

func (r *UserIndex) FindByWallet(ctx context.Context, address string) (*ports.UserRecord, error) {
	var rec ports.UserRecord
	err := r.db.WithContext(ctx).First(&rec, "wallet_address = ?", address).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user record %s not found", address)
		}
		return nil, err
	}
	return &rec, nil
}
