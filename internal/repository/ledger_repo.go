package repository

import (
	"context"

	"jigtrack/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LedgerRepository is append-only: entries are never updated or deleted.
type LedgerRepository interface {
	Append(ctx context.Context, entry *model.LedgerEntry) error
	ListByDetail(ctx context.Context, detailID uuid.UUID, page, limit int) ([]model.LedgerEntry, int64, error)
	SumByDetail(ctx context.Context, detailID uuid.UUID) (int, error)
}

type ledgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) Append(ctx context.Context, entry *model.LedgerEntry) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *ledgerRepository) ListByDetail(ctx context.Context, detailID uuid.UUID, page, limit int) ([]model.LedgerEntry, int64, error) {
	var entries []model.LedgerEntry
	var total int64

	db := GetDB(ctx, r.db).Model(&model.LedgerEntry{}).Where("jig_detail_id = ?", detailID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

func (r *ledgerRepository) SumByDetail(ctx context.Context, detailID uuid.UUID) (int, error) {
	var sum int
	err := GetDB(ctx, r.db).Model(&model.LedgerEntry{}).
		Where("jig_detail_id = ?", detailID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&sum).Error
	return sum, err
}
