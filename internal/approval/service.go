package approval

import (
	"context"
	"fmt"
	"time"

	"jigtrack/internal/apperr"
	"jigtrack/internal/model"
	"jigtrack/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Service is the default Gateway implementation: cases live in the same
// database, and approve/reject decisions are routed to the handler
// registered for the case's entity type after the case itself commits.
type Service struct {
	caseRepo  repository.ApprovalCaseRepository
	txManager repository.TransactionManager
	handlers  map[string]DecisionHandler
	log       *logrus.Entry
}

func NewService(
	caseRepo repository.ApprovalCaseRepository,
	txManager repository.TransactionManager,
	log *logrus.Logger,
) *Service {
	return &Service{
		caseRepo:  caseRepo,
		txManager: txManager,
		handlers:  make(map[string]DecisionHandler),
		log:       log.WithField("component", "approval"),
	}
}

// RegisterHandler wires the decision sink for one entity type.
func (s *Service) RegisterHandler(entityType string, handler DecisionHandler) {
	s.handlers[entityType] = handler
}

func (s *Service) OpenCase(ctx context.Context, in OpenCaseInput) (uuid.UUID, error) {
	if in.EntityType == "" || in.EntityID == uuid.Nil {
		return uuid.Nil, apperr.Validationf("approval case requires an entity reference")
	}

	requestedBy := in.RequestedBy
	approvalCase := &model.ApprovalCase{
		WorkflowCode: in.WorkflowCode,
		EntityType:   in.EntityType,
		EntityID:     in.EntityID,
		Title:        in.Title,
		Description:  in.Description,
		Priority:     in.Priority,
		Status:       model.ApprovalPending,
	}
	if requestedBy != uuid.Nil {
		approvalCase.RequestedBy = &requestedBy
	}

	if err := s.caseRepo.Create(ctx, approvalCase); err != nil {
		return uuid.Nil, fmt.Errorf("failed to open approval case: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"case_id":     approvalCase.ID,
		"entity_type": in.EntityType,
		"entity_id":   in.EntityID,
	}).Info("approval case opened")

	return approvalCase.ID, nil
}

// Approve marks the case approved and dispatches the decision. The case
// commit and the downstream decision are deliberately separate units of
// work: a stale decision on the entity side is logged, never rolled back
// into the case.
func (s *Service) Approve(ctx context.Context, caseID, deciderID uuid.UUID, comments string) (*model.ApprovalCase, error) {
	approvalCase, err := s.decide(ctx, caseID, deciderID, model.ApprovalApproved, comments)
	if err != nil {
		return nil, err
	}

	s.dispatch(ctx, approvalCase, true, deciderID, comments)
	return approvalCase, nil
}

// Reject marks the case rejected and dispatches the decision.
func (s *Service) Reject(ctx context.Context, caseID, deciderID uuid.UUID, comments string) (*model.ApprovalCase, error) {
	approvalCase, err := s.decide(ctx, caseID, deciderID, model.ApprovalRejected, comments)
	if err != nil {
		return nil, err
	}

	s.dispatch(ctx, approvalCase, false, deciderID, comments)
	return approvalCase, nil
}

func (s *Service) List(ctx context.Context, status string, page, limit int) ([]model.ApprovalCase, int64, error) {
	return s.caseRepo.List(ctx, status, page, limit)
}

func (s *Service) decide(ctx context.Context, caseID, deciderID uuid.UUID, status, comments string) (*model.ApprovalCase, error) {
	var approvalCase *model.ApprovalCase
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		found, err := s.caseRepo.FindByID(txCtx, caseID)
		if err != nil {
			return err
		}
		if found.Status != model.ApprovalPending {
			return apperr.Conflictf("approval case is already %s", found.Status)
		}

		now := time.Now()
		found.Status = status
		found.DecidedBy = &deciderID
		found.DecidedAt = &now
		found.Comments = comments

		if err := s.caseRepo.Save(txCtx, found); err != nil {
			return fmt.Errorf("failed to update approval case: %w", err)
		}
		approvalCase = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return approvalCase, nil
}

func (s *Service) dispatch(ctx context.Context, approvalCase *model.ApprovalCase, approved bool, deciderID uuid.UUID, comments string) {
	handler, ok := s.handlers[approvalCase.EntityType]
	if !ok {
		s.log.WithField("entity_type", approvalCase.EntityType).Warn("no decision handler registered")
		return
	}

	if err := handler.OnApprovalDecision(ctx, approvalCase.EntityID, approved, deciderID, comments); err != nil {
		// The case is already decided; a failing or stale downstream
		// decision is logged and swallowed.
		s.log.WithError(err).WithFields(logrus.Fields{
			"case_id":   approvalCase.ID,
			"entity_id": approvalCase.EntityID,
			"approved":  approved,
		}).Warn("approval decision not applied")
	}
}
