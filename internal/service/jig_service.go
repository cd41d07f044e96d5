package service

import (
	"context"
	"fmt"

	"jigtrack/internal/apperr"
	"jigtrack/internal/model"
	"jigtrack/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// --- DTOs ---

type CreateJigRequest struct {
	Code        string `json:"code" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type CreateJigDetailRequest struct {
	JigID        string `json:"jig_id" binding:"required"`
	Code         string `json:"code" binding:"required"`
	ExternalCode string `json:"external_code"`
	LocationID   string `json:"location_id"`
}

type PlacementRequest struct {
	Kind string `json:"kind" binding:"required,oneof=LOCATION LINE VENDOR"`
	ID   string `json:"id" binding:"required"`
}

// BatchStatusRequest applies one target status (and optional placement) to
// many jig details at once.
type BatchStatusRequest struct {
	DetailIDs []string          `json:"detail_ids" binding:"required,min=1"`
	Status    string            `json:"status" binding:"required"`
	Placement *PlacementRequest `json:"placement"`
}

// BatchItemFailure reports one unit that could not be updated, and why.
type BatchItemFailure struct {
	DetailID string `json:"detail_id"`
	Kind     string `json:"kind"`
	Error    string `json:"error"`
}

// BatchStatusResult is deliberately not all-or-nothing: every unit is
// evaluated on its own and callers read the per-item outcome.
type BatchStatusResult struct {
	Succeeded []string           `json:"succeeded"`
	Failed    []BatchItemFailure `json:"failed"`
}

// --- Interface ---

type JigService interface {
	CreateJig(ctx context.Context, req CreateJigRequest) (*model.Jig, error)
	GetJig(ctx context.Context, id uuid.UUID) (*model.Jig, error)
	ListJigs(ctx context.Context, page, limit int, search string) ([]model.Jig, int64, error)
	CreateDetail(ctx context.Context, req CreateJigDetailRequest) (*model.JigDetail, error)
	GetDetail(ctx context.Context, id uuid.UUID) (*model.JigDetail, error)
	ListDetails(ctx context.Context, page, limit int, status string) ([]model.JigDetail, int64, error)
	UpdateStatusBatch(ctx context.Context, req BatchStatusRequest) (*BatchStatusResult, error)
	CaptureDefaultPlacement(ctx context.Context, id uuid.UUID) (*model.JigDetail, error)
	RestoreDefaultPlacement(ctx context.Context, id uuid.UUID) (*model.JigDetail, error)
}

type jigService struct {
	jigRepo    repository.JigRepository
	detailRepo repository.JigDetailRepository
	ledgerRepo repository.LedgerRepository
	masterRepo repository.MasterDataRepository
	txManager  repository.TransactionManager
	log        *logrus.Entry
}

func NewJigService(
	jigRepo repository.JigRepository,
	detailRepo repository.JigDetailRepository,
	ledgerRepo repository.LedgerRepository,
	masterRepo repository.MasterDataRepository,
	txManager repository.TransactionManager,
	log *logrus.Logger,
) JigService {
	return &jigService{
		jigRepo:    jigRepo,
		detailRepo: detailRepo,
		ledgerRepo: ledgerRepo,
		masterRepo: masterRepo,
		txManager:  txManager,
		log:        log.WithField("component", "jig_service"),
	}
}

// --- Implementation ---

func (s *jigService) CreateJig(ctx context.Context, req CreateJigRequest) (*model.Jig, error) {
	jig := &model.Jig{
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		IsActive:    true,
	}
	if err := s.jigRepo.Create(ctx, jig); err != nil {
		return nil, err
	}
	return jig, nil
}

func (s *jigService) GetJig(ctx context.Context, id uuid.UUID) (*model.Jig, error) {
	return s.jigRepo.FindByID(ctx, id)
}

func (s *jigService) ListJigs(ctx context.Context, page, limit int, search string) ([]model.Jig, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.jigRepo.List(ctx, page, limit, search)
}

func (s *jigService) CreateDetail(ctx context.Context, req CreateJigDetailRequest) (*model.JigDetail, error) {
	jigID, err := uuid.Parse(req.JigID)
	if err != nil {
		return nil, apperr.Validationf("invalid jig id %q", req.JigID)
	}
	if _, err := s.jigRepo.FindByID(ctx, jigID); err != nil {
		return nil, err
	}

	detail := &model.JigDetail{
		JigID:        jigID,
		Code:         req.Code,
		ExternalCode: req.ExternalCode,
		Status:       model.JigDetailStatusNew,
	}
	if req.LocationID != "" {
		locID, parseErr := uuid.Parse(req.LocationID)
		if parseErr != nil {
			return nil, apperr.Validationf("invalid location id %q", req.LocationID)
		}
		if _, lookErr := s.masterRepo.LocationByID(ctx, locID); lookErr != nil {
			return nil, lookErr
		}
		detail.SetPlacement(model.AtLocation(locID))
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.detailRepo.Create(txCtx, detail); createErr != nil {
			return fmt.Errorf("failed to create jig detail: %w", createErr)
		}
		return s.ledgerRepo.Append(txCtx, &model.LedgerEntry{
			JigDetailID:  detail.ID,
			MovementType: model.MovementNew,
			Quantity:     1,
			Description:  fmt.Sprintf("Registered jig detail %s", detail.Code),
		})
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *jigService) GetDetail(ctx context.Context, id uuid.UUID) (*model.JigDetail, error) {
	return s.detailRepo.FindByID(ctx, id)
}

func (s *jigService) ListDetails(ctx context.Context, page, limit int, status string) ([]model.JigDetail, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.detailRepo.List(ctx, page, limit, status)
}

// UpdateStatusBatch evaluates every unit independently: one stale or
// missing unit never blocks the rest. The caller gets the full per-unit
// outcome and retries the failures it cares about.
func (s *jigService) UpdateStatusBatch(ctx context.Context, req BatchStatusRequest) (*BatchStatusResult, error) {
	if !model.ValidJigDetailStatus(req.Status) {
		return nil, apperr.Validationf("unknown jig detail status %q", req.Status)
	}

	placement := model.NoPlacement()
	if req.Placement != nil {
		id, err := uuid.Parse(req.Placement.ID)
		if err != nil {
			return nil, apperr.Validationf("invalid placement id %q", req.Placement.ID)
		}
		placement = model.Placement{Kind: req.Placement.Kind, ID: id}
		if err := s.lookupPlacement(ctx, placement); err != nil {
			return nil, err
		}
	}
	if !placement.AgreesWith(req.Status) {
		return nil, apperr.Validationf("placement %s does not agree with status %s", placement, req.Status)
	}

	result := &BatchStatusResult{Succeeded: []string{}, Failed: []BatchItemFailure{}}
	for _, rawID := range req.DetailIDs {
		if err := s.applyStatus(ctx, rawID, req.Status, placement); err != nil {
			result.Failed = append(result.Failed, BatchItemFailure{
				DetailID: rawID,
				Kind:     string(apperr.KindOf(err)),
				Error:    err.Error(),
			})
			continue
		}
		result.Succeeded = append(result.Succeeded, rawID)
	}

	s.log.WithFields(logrus.Fields{
		"status":    req.Status,
		"succeeded": len(result.Succeeded),
		"failed":    len(result.Failed),
	}).Info("batch status update finished")

	return result, nil
}

// applyStatus moves a single unit inside its own transaction so a ledger
// side effect and the placement write commit together.
func (s *jigService) applyStatus(ctx context.Context, rawID, status string, placement model.Placement) error {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return apperr.Validationf("invalid jig detail id %q", rawID)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		detail, err := s.detailRepo.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		if detail.Status == model.JigDetailStatusScrap && status != model.JigDetailStatusScrap {
			return apperr.InvalidTransitionf("status change", detail.Status, "any non-scrapped status")
		}

		movement := ""
		switch {
		case status == model.JigDetailStatusScrap && detail.Status != model.JigDetailStatusScrap:
			movement = model.MovementScrap
		case detail.Status == model.JigDetailStatusRepair && status == model.JigDetailStatusStorage:
			movement = model.MovementRepaired
		}

		detail.Status = status
		detail.SetPlacement(placement)
		if err := s.detailRepo.UpdateVersioned(txCtx, detail); err != nil {
			return err
		}

		if movement != "" {
			if err := s.ledgerRepo.Append(txCtx, &model.LedgerEntry{
				JigDetailID:  detail.ID,
				MovementType: movement,
				Quantity:     model.MovementSign(movement),
				Description:  fmt.Sprintf("Status changed to %s", status),
			}); err != nil {
				return fmt.Errorf("failed to append ledger entry: %w", err)
			}
		}
		return nil
	})
}

func (s *jigService) CaptureDefaultPlacement(ctx context.Context, id uuid.UUID) (*model.JigDetail, error) {
	var detail *model.JigDetail
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		found, err := s.detailRepo.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		found.CaptureDefault()
		if err := s.detailRepo.UpdateVersioned(txCtx, found); err != nil {
			return err
		}
		detail = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *jigService) RestoreDefaultPlacement(ctx context.Context, id uuid.UUID) (*model.JigDetail, error) {
	var detail *model.JigDetail
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		found, err := s.detailRepo.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		if !found.RestoreDefault() {
			// Nothing to restore, or the snapshot disagrees with the
			// current status; deliberately not an error.
			detail = found
			return nil
		}
		if err := s.detailRepo.UpdateVersioned(txCtx, found); err != nil {
			return err
		}
		detail = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *jigService) lookupPlacement(ctx context.Context, p model.Placement) error {
	switch p.Kind {
	case model.PlacementLocation:
		_, err := s.masterRepo.LocationByID(ctx, p.ID)
		return err
	case model.PlacementLine:
		_, err := s.masterRepo.LineByID(ctx, p.ID)
		return err
	case model.PlacementVendor:
		_, err := s.masterRepo.VendorByID(ctx, p.ID)
		return err
	}
	return nil
}
