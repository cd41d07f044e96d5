package repository

import (
	"context"
	"errors"
	"time"

	"jigtrack/internal/apperr"
	"jigtrack/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type JigRepository interface {
	Create(ctx context.Context, jig *model.Jig) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Jig, error)
	List(ctx context.Context, page, limit int, search string) ([]model.Jig, int64, error)
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
	UpdateCachedStock(ctx context.Context, id uuid.UUID, available int, at time.Time) error
}

type jigRepository struct {
	db *gorm.DB
}

func NewJigRepository(db *gorm.DB) JigRepository {
	return &jigRepository{db: db}
}

func (r *jigRepository) Create(ctx context.Context, jig *model.Jig) error {
	return GetDB(ctx, r.db).Create(jig).Error
}

func (r *jigRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Jig, error) {
	var jig model.Jig
	if err := GetDB(ctx, r.db).First(&jig, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("jig %s not found", id)
		}
		return nil, err
	}
	return &jig, nil
}

func (r *jigRepository) List(ctx context.Context, page, limit int, search string) ([]model.Jig, int64, error) {
	var jigs []model.Jig
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Jig{})
	if search != "" {
		db = db.Where("name ILIKE ? OR code ILIKE ?", "%"+search+"%", "%"+search+"%")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&jigs).Error; err != nil {
		return nil, 0, err
	}

	return jigs, total, nil
}

func (r *jigRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := GetDB(ctx, r.db).Model(&model.Jig{}).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// UpdateCachedStock rewrites only the derived totals, never anything the
// ledger or the details own, so recomputation is safely re-runnable.
func (r *jigRepository) UpdateCachedStock(ctx context.Context, id uuid.UUID, available int, at time.Time) error {
	return GetDB(ctx, r.db).Model(&model.Jig{}).Where("id = ?", id).
		Updates(map[string]interface{}{"cached_available": available, "recomputed_at": at}).Error
}

// jigDetailWriteColumns are the columns a versioned write may touch.
// Code, jig_id and created_at are immutable after creation.
var jigDetailWriteColumns = []string{
	"status", "external_code",
	"location_id", "line_id", "vendor_id",
	"default_location_id", "default_line_id", "default_vendor_id",
	"version", "updated_at",
}

type JigDetailRepository interface {
	Create(ctx context.Context, detail *model.JigDetail) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.JigDetail, error)
	FindByCode(ctx context.Context, code string) (*model.JigDetail, error)
	List(ctx context.Context, page, limit int, status string) ([]model.JigDetail, int64, error)
	CountByJigAndStatus(ctx context.Context, jigID uuid.UUID, status string) (int64, error)
	// UpdateVersioned writes the detail conditioned on detail.Version still
	// being the stored token; on success a fresh token is issued in place.
	UpdateVersioned(ctx context.Context, detail *model.JigDetail) error
}

type jigDetailRepository struct {
	db *gorm.DB
}

func NewJigDetailRepository(db *gorm.DB) JigDetailRepository {
	return &jigDetailRepository{db: db}
}

func (r *jigDetailRepository) Create(ctx context.Context, detail *model.JigDetail) error {
	if detail.Version == "" {
		detail.Version = uuid.NewString()
	}
	return GetDB(ctx, r.db).Create(detail).Error
}

func (r *jigDetailRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.JigDetail, error) {
	var detail model.JigDetail
	if err := GetDB(ctx, r.db).First(&detail, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("jig detail %s not found", id)
		}
		return nil, err
	}
	return &detail, nil
}

func (r *jigDetailRepository) FindByCode(ctx context.Context, code string) (*model.JigDetail, error) {
	var detail model.JigDetail
	if err := GetDB(ctx, r.db).Where("code = ?", code).First(&detail).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("jig detail %s not found", code)
		}
		return nil, err
	}
	return &detail, nil
}

func (r *jigDetailRepository) List(ctx context.Context, page, limit int, status string) ([]model.JigDetail, int64, error) {
	var details []model.JigDetail
	var total int64

	db := GetDB(ctx, r.db).Model(&model.JigDetail{})
	if status != "" {
		db = db.Where("status = ?", status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("code asc").Offset(offset).Limit(limit).Find(&details).Error; err != nil {
		return nil, 0, err
	}

	return details, total, nil
}

func (r *jigDetailRepository) CountByJigAndStatus(ctx context.Context, jigID uuid.UUID, status string) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.JigDetail{}).
		Where("jig_id = ? AND status = ?", jigID, status).
		Count(&count).Error
	return count, err
}

func (r *jigDetailRepository) UpdateVersioned(ctx context.Context, detail *model.JigDetail) error {
	expected := detail.Version
	detail.Version = uuid.NewString()

	err := updateVersioned(GetDB(ctx, r.db), &model.JigDetail{}, detail.ID,
		expected, jigDetailWriteColumns, detail, "jig detail")
	if err != nil {
		detail.Version = expected
		return err
	}
	return nil
}
