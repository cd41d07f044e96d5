package repository

import (
	"context"
	"errors"

	"jigtrack/internal/apperr"
	"jigtrack/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MasterDataRepository gives the engine read-only lookups over locations,
// production lines and vendors. Their CRUD lives elsewhere.
type MasterDataRepository interface {
	LocationByID(ctx context.Context, id uuid.UUID) (*model.StorageLocation, error)
	LineByID(ctx context.Context, id uuid.UUID) (*model.ProductionLine, error)
	VendorByID(ctx context.Context, id uuid.UUID) (*model.Vendor, error)
}

type masterDataRepository struct {
	db *gorm.DB
}

func NewMasterDataRepository(db *gorm.DB) MasterDataRepository {
	return &masterDataRepository{db: db}
}

func (r *masterDataRepository) LocationByID(ctx context.Context, id uuid.UUID) (*model.StorageLocation, error) {
	var loc model.StorageLocation
	if err := GetDB(ctx, r.db).First(&loc, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("storage location %s not found", id)
		}
		return nil, err
	}
	return &loc, nil
}

func (r *masterDataRepository) LineByID(ctx context.Context, id uuid.UUID) (*model.ProductionLine, error) {
	var line model.ProductionLine
	if err := GetDB(ctx, r.db).First(&line, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("production line %s not found", id)
		}
		return nil, err
	}
	return &line, nil
}

func (r *masterDataRepository) VendorByID(ctx context.Context, id uuid.UUID) (*model.Vendor, error) {
	var vendor model.Vendor
	if err := GetDB(ctx, r.db).First(&vendor, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("vendor %s not found", id)
		}
		return nil, err
	}
	return &vendor, nil
}
