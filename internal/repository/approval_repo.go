package repository

import (
	"context"
	"errors"

	"jigtrack/internal/apperr"
	"jigtrack/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ApprovalCaseRepository interface {
	Create(ctx context.Context, approvalCase *model.ApprovalCase) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ApprovalCase, error)
	FindPendingByEntity(ctx context.Context, entityType string, entityID uuid.UUID) (*model.ApprovalCase, error)
	List(ctx context.Context, status string, page, limit int) ([]model.ApprovalCase, int64, error)
	Save(ctx context.Context, approvalCase *model.ApprovalCase) error
}

type approvalCaseRepository struct {
	db *gorm.DB
}

func NewApprovalCaseRepository(db *gorm.DB) ApprovalCaseRepository {
	return &approvalCaseRepository{db: db}
}

func (r *approvalCaseRepository) Create(ctx context.Context, approvalCase *model.ApprovalCase) error {
	return GetDB(ctx, r.db).Create(approvalCase).Error
}

func (r *approvalCaseRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ApprovalCase, error) {
	var approvalCase model.ApprovalCase
	if err := GetDB(ctx, r.db).Preload("Requester").Preload("Decider").First(&approvalCase, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("approval case %s not found", id)
		}
		return nil, err
	}
	return &approvalCase, nil
}

func (r *approvalCaseRepository) FindPendingByEntity(ctx context.Context, entityType string, entityID uuid.UUID) (*model.ApprovalCase, error) {
	var approvalCase model.ApprovalCase
	if err := GetDB(ctx, r.db).
		Where("entity_type = ? AND entity_id = ? AND status = ?", entityType, entityID, model.ApprovalPending).
		First(&approvalCase).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("no pending approval case for %s %s", entityType, entityID)
		}
		return nil, err
	}
	return &approvalCase, nil
}

func (r *approvalCaseRepository) List(ctx context.Context, status string, page, limit int) ([]model.ApprovalCase, int64, error) {
	var cases []model.ApprovalCase
	var total int64

	db := GetDB(ctx, r.db).Model(&model.ApprovalCase{})
	if status != "" {
		db = db.Where("status = ?", status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Requester").Preload("Decider").
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&cases).Error; err != nil {
		return nil, 0, err
	}

	return cases, total, nil
}

func (r *approvalCaseRepository) Save(ctx context.Context, approvalCase *model.ApprovalCase) error {
	return GetDB(ctx, r.db).Save(approvalCase).Error
}
