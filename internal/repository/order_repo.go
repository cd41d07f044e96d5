package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jigtrack/internal/apperr"
	"jigtrack/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderFilter narrows order listings.
type OrderFilter struct {
	Status      string
	RequestedBy *uuid.UUID
	Page        int
	Limit       int
}

type JigOrderRepository interface {
	Create(ctx context.Context, order *model.JigOrder) error
	CreateDetail(ctx context.Context, detail *model.JigOrderDetail) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.JigOrder, error)
	FindByCode(ctx context.Context, code string) (*model.JigOrder, error)
	Save(ctx context.Context, order *model.JigOrder) error
	SaveDetail(ctx context.Context, detail *model.JigOrderDetail) error
	ReplaceDetails(ctx context.Context, orderID uuid.UUID, details []model.JigOrderDetail) error
	Delete(ctx context.Context, orderID uuid.UUID) error
	List(ctx context.Context, filter OrderFilter) ([]model.JigOrder, int64, error)
	NextOrderCode(ctx context.Context, day time.Time) (string, error)
}

type jigOrderRepository struct {
	db *gorm.DB
}

func NewJigOrderRepository(db *gorm.DB) JigOrderRepository {
	return &jigOrderRepository{db: db}
}

func (r *jigOrderRepository) Create(ctx context.Context, order *model.JigOrder) error {
	return GetDB(ctx, r.db).Create(order).Error
}

func (r *jigOrderRepository) CreateDetail(ctx context.Context, detail *model.JigOrderDetail) error {
	return GetDB(ctx, r.db).Create(detail).Error
}

func (r *jigOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.JigOrder, error) {
	var order model.JigOrder
	if err := GetDB(ctx, r.db).
		Preload("Details").
		Preload("Requester").
		Preload("Approver").
		First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("order %s not found", id)
		}
		return nil, err
	}
	return &order, nil
}

func (r *jigOrderRepository) FindByCode(ctx context.Context, code string) (*model.JigOrder, error) {
	var order model.JigOrder
	if err := GetDB(ctx, r.db).Preload("Details").Where("order_code = ?", code).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("order %s not found", code)
		}
		return nil, err
	}
	return &order, nil
}

func (r *jigOrderRepository) Save(ctx context.Context, order *model.JigOrder) error {
	// Details are saved explicitly, never as a side effect of the header.
	return GetDB(ctx, r.db).Omit("Details").Save(order).Error
}

func (r *jigOrderRepository) SaveDetail(ctx context.Context, detail *model.JigOrderDetail) error {
	return GetDB(ctx, r.db).Save(detail).Error
}

func (r *jigOrderRepository) ReplaceDetails(ctx context.Context, orderID uuid.UUID, details []model.JigOrderDetail) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("order_id = ?", orderID).Delete(&model.JigOrderDetail{}).Error; err != nil {
		return err
	}
	for i := range details {
		details[i].OrderID = orderID
		if err := db.Create(&details[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *jigOrderRepository) Delete(ctx context.Context, orderID uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("order_id = ?", orderID).Delete(&model.JigOrderDetail{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", orderID).Delete(&model.JigOrder{}).Error
}

func (r *jigOrderRepository) List(ctx context.Context, filter OrderFilter) ([]model.JigOrder, int64, error) {
	var orders []model.JigOrder
	var total int64

	db := GetDB(ctx, r.db).Model(&model.JigOrder{})
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.RequestedBy != nil {
		db = db.Where("requested_by = ?", *filter.RequestedBy)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := filter.Page, filter.Limit
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	offset := (page - 1) * limit
	if err := db.
		Preload("Details").
		Preload("Requester").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// NextOrderCode returns the next JO<YYYYMMDD><seq> code for the given day.
// The per-day counter is max existing suffix plus one; a transaction-scoped
// advisory lock on the prefix keeps concurrent creations from computing the
// same suffix. Uniqueness is what matters, not gaplessness; two racing
// creations outside one lock scope simply retry on the unique index.
func (r *jigOrderRepository) NextOrderCode(ctx context.Context, day time.Time) (string, error) {
	db := GetDB(ctx, r.db)
	prefix := "JO" + day.Format("20060102")

	db.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", prefix)

	var maxSuffix int
	err := db.Raw(
		"SELECT COALESCE(MAX(CAST(RIGHT(order_code, 4) AS INTEGER)), 0) FROM jig_orders WHERE order_code LIKE ?",
		prefix+"%",
	).Scan(&maxSuffix).Error
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s%04d", prefix, maxSuffix+1), nil
}
