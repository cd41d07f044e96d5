package service

import (
	"context"
	"time"

	"jigtrack/internal/apperr"
	"jigtrack/internal/model"
	"jigtrack/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type AdjustmentRequest struct {
	JigDetailID  string `json:"jig_detail_id" binding:"required"`
	MovementType string `json:"movement_type" binding:"required"`
	Quantity     int    `json:"quantity" binding:"required,min=1"`
	Description  string `json:"description"`
}

type StockService interface {
	DetailLedger(ctx context.Context, detailID uuid.UUID, page, limit int) ([]model.LedgerEntry, int64, error)
	AppendAdjustment(ctx context.Context, req AdjustmentRequest) (*model.LedgerEntry, error)
	JigStock(ctx context.Context, jigID uuid.UUID) (int, error)
	RecomputeAll(ctx context.Context) (int, error)
}

type stockService struct {
	jigRepo    repository.JigRepository
	detailRepo repository.JigDetailRepository
	ledgerRepo repository.LedgerRepository
	txManager  repository.TransactionManager
	log        *logrus.Entry
}

func NewStockService(
	jigRepo repository.JigRepository,
	detailRepo repository.JigDetailRepository,
	ledgerRepo repository.LedgerRepository,
	txManager repository.TransactionManager,
	log *logrus.Logger,
) StockService {
	return &stockService{
		jigRepo:    jigRepo,
		detailRepo: detailRepo,
		ledgerRepo: ledgerRepo,
		txManager:  txManager,
		log:        log.WithField("component", "stock_service"),
	}
}

func (s *stockService) DetailLedger(ctx context.Context, detailID uuid.UUID, page, limit int) ([]model.LedgerEntry, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	if _, err := s.detailRepo.FindByID(ctx, detailID); err != nil {
		return nil, 0, err
	}
	return s.ledgerRepo.ListByDetail(ctx, detailID, page, limit)
}

// AppendAdjustment records a manual correction. The quantity comes in as a
// magnitude; the movement type decides the sign that hits the ledger.
func (s *stockService) AppendAdjustment(ctx context.Context, req AdjustmentRequest) (*model.LedgerEntry, error) {
	detailID, err := uuid.Parse(req.JigDetailID)
	if err != nil {
		return nil, apperr.Validationf("invalid jig detail id %q", req.JigDetailID)
	}
	sign := model.MovementSign(req.MovementType)
	if sign == 0 {
		return nil, apperr.Validationf("unknown movement type %q", req.MovementType)
	}
	if req.Quantity <= 0 {
		return nil, apperr.Validationf("quantity must be positive")
	}
	if _, err := s.detailRepo.FindByID(ctx, detailID); err != nil {
		return nil, err
	}

	entry := &model.LedgerEntry{
		JigDetailID:  detailID,
		MovementType: req.MovementType,
		Quantity:     sign * req.Quantity,
		Description:  req.Description,
	}
	if entry.Description == "" {
		entry.Description = "Manual adjustment"
	}
	if err := s.ledgerRepo.Append(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// JigStock answers "how many units could we hand out right now": the count
// of details sitting in storage, computed from the detail table directly
// rather than the cached figure.
func (s *stockService) JigStock(ctx context.Context, jigID uuid.UUID) (int, error) {
	if _, err := s.jigRepo.FindByID(ctx, jigID); err != nil {
		return 0, err
	}
	count, err := s.detailRepo.CountByJigAndStatus(ctx, jigID, model.JigDetailStatusStorage)
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// RecomputeAll refreshes the cached availability of every jig. It is safe
// to run repeatedly; each pass overwrites the cache with the derived count.
func (s *stockService) RecomputeAll(ctx context.Context) (int, error) {
	ids, err := s.jigRepo.ListIDs(ctx)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, id := range ids {
		count, err := s.detailRepo.CountByJigAndStatus(ctx, id, model.JigDetailStatusStorage)
		if err != nil {
			s.log.WithError(err).WithField("jig_id", id).Error("failed to count storage units")
			continue
		}
		if err := s.jigRepo.UpdateCachedStock(ctx, id, int(count), time.Now()); err != nil {
			s.log.WithError(err).WithField("jig_id", id).Error("failed to update cached stock")
			continue
		}
		updated++
	}

	s.log.WithFields(logrus.Fields{"jigs": len(ids), "updated": updated}).Info("stock recompute finished")
	return updated, nil
}
