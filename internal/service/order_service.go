package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"jigtrack/internal/apperr"
	"jigtrack/internal/approval"
	"jigtrack/internal/model"
	"jigtrack/internal/notify"
	"jigtrack/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Permission groups notified by lifecycle events.
const (
	GroupOrderManage  = "jig_order.manage"
	GroupOrderApprove = "jig_order.approve"
	GroupOrderPrepare = "jig_order.prepare"
)

// orderApprovalWorkflow is the workflow the engine opens cases under.
const orderApprovalWorkflow = "JIG_ORDER_APPROVAL"

// --- DTOs ---

type OrderLineRequest struct {
	JigDetailID string `json:"jig_detail_id" binding:"required"`
	Quantity    int    `json:"quantity" binding:"required,gt=0"`
	Note        string `json:"note"`
}

type CreateOrderRequest struct {
	Priority           string                 `json:"priority"`
	RequiredDate       time.Time              `json:"required_date" binding:"required"`
	DeliveryLocationID string                 `json:"delivery_location_id"`
	DeliveryLineID     string                 `json:"delivery_line_id"`
	Metadata           map[string]interface{} `json:"metadata"`
	Lines              []OrderLineRequest     `json:"lines" binding:"required,min=1,dive"`
}

// UpdateOrderRequest merges header fields; nil pointers leave a field
// untouched. Supplying Lines replaces the existing lines wholesale.
// Metadata is merged key by key unless ReplaceMetadata is set.
type UpdateOrderRequest struct {
	Priority           *string                `json:"priority"`
	RequiredDate       *time.Time             `json:"required_date"`
	DeliveryLocationID *string                `json:"delivery_location_id"`
	DeliveryLineID     *string                `json:"delivery_line_id"`
	Metadata           map[string]interface{} `json:"metadata"`
	ReplaceMetadata    bool                   `json:"replace_metadata"`
	Lines              *[]OrderLineRequest    `json:"lines"`
}

type PrepareLineRequest struct {
	LineID         string `json:"line_id" binding:"required"`
	ActualQuantity int    `json:"actual_quantity"`
}

type PrepareOrderRequest struct {
	Lines []PrepareLineRequest `json:"lines" binding:"required,min=1,dive"`
	Notes string               `json:"notes"`
}

type PickupOrderRequest struct {
	DeliveryNotes string `json:"delivery_notes"`
}

// --- Interface ---

type OrderService interface {
	Create(ctx context.Context, callerID uuid.UUID, req CreateOrderRequest) (*model.JigOrder, error)
	Get(ctx context.Context, id uuid.UUID) (*model.JigOrder, error)
	List(ctx context.Context, filter repository.OrderFilter) ([]model.JigOrder, int64, error)
	Update(ctx context.Context, callerID, id uuid.UUID, req UpdateOrderRequest) (*model.JigOrder, error)
	Submit(ctx context.Context, callerID, id uuid.UUID) (*model.JigOrder, error)
	Approve(ctx context.Context, approverID, id uuid.UUID, comments string) (*model.JigOrder, error)
	Reject(ctx context.Context, approverID, id uuid.UUID, reason string) (*model.JigOrder, error)
	Prepare(ctx context.Context, preparerID, id uuid.UUID, req PrepareOrderRequest) (*model.JigOrder, error)
	Notify(ctx context.Context, callerID, id uuid.UUID) (*model.JigOrder, error)
	Pickup(ctx context.Context, receiverID, id uuid.UUID, req PickupOrderRequest) (*model.JigOrder, error)
	Cancel(ctx context.Context, callerID, id uuid.UUID, reason string) (*model.JigOrder, error)
	Remove(ctx context.Context, callerID, id uuid.UUID) error

	// OnApprovalDecision routes an external approval decision back into
	// the lifecycle as if the approver had called Approve/Reject directly.
	// Stale decisions (order no longer Submitted) are ignored.
	OnApprovalDecision(ctx context.Context, orderID uuid.UUID, approved bool, deciderID uuid.UUID, comments string) error
}

type orderService struct {
	orderRepo  repository.JigOrderRepository
	detailRepo repository.JigDetailRepository
	ledgerRepo repository.LedgerRepository
	userRepo   repository.UserRepository
	masterRepo repository.MasterDataRepository
	txManager  repository.TransactionManager
	gateway    approval.Gateway
	notifier   notify.Notifier
	log        *logrus.Entry
}

func NewOrderService(
	orderRepo repository.JigOrderRepository,
	detailRepo repository.JigDetailRepository,
	ledgerRepo repository.LedgerRepository,
	userRepo repository.UserRepository,
	masterRepo repository.MasterDataRepository,
	txManager repository.TransactionManager,
	gateway approval.Gateway,
	notifier notify.Notifier,
	log *logrus.Logger,
) OrderService {
	return &orderService{
		orderRepo:  orderRepo,
		detailRepo: detailRepo,
		ledgerRepo: ledgerRepo,
		userRepo:   userRepo,
		masterRepo: masterRepo,
		txManager:  txManager,
		gateway:    gateway,
		notifier:   notifier,
		log:        log.WithField("component", "order_service"),
	}
}

// --- Lifecycle operations ---

func (s *orderService) Create(ctx context.Context, callerID uuid.UUID, req CreateOrderRequest) (*model.JigOrder, error) {
	if _, err := s.userRepo.GetByID(ctx, callerID); err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.Validationf("requester %s does not exist", callerID)
		}
		return nil, err
	}
	if req.RequiredDate.IsZero() {
		return nil, apperr.Validationf("required date is mandatory")
	}
	if len(req.Lines) == 0 {
		return nil, apperr.Validationf("an order needs at least one line")
	}

	priority := req.Priority
	if priority == "" {
		priority = model.OrderPriorityNormal
	}
	if !model.ValidOrderPriority(priority) {
		return nil, apperr.Validationf("unknown priority %q", priority)
	}

	deliveryLocationID, deliveryLineID, err := s.resolveDeliveryTarget(ctx, req.DeliveryLocationID, req.DeliveryLineID)
	if err != nil {
		return nil, err
	}

	lines := make([]model.JigOrderDetail, 0, len(req.Lines))
	for _, lineReq := range req.Lines {
		detailID, parseErr := uuid.Parse(lineReq.JigDetailID)
		if parseErr != nil {
			return nil, apperr.Validationf("invalid jig detail id %q", lineReq.JigDetailID)
		}
		detail, findErr := s.detailRepo.FindByID(ctx, detailID)
		if findErr != nil {
			return nil, findErr
		}
		if detail.Status == model.JigDetailStatusScrap {
			return nil, apperr.Validationf("jig detail %s is scrapped and cannot be ordered", detail.Code)
		}
		if lineReq.Quantity <= 0 {
			return nil, apperr.Validationf("line quantity must be positive")
		}
		lines = append(lines, model.JigOrderDetail{
			JigDetailID: detailID,
			Quantity:    lineReq.Quantity,
			Note:        lineReq.Note,
		})
	}

	metadata, err := mergeMetadata("{}", req.Metadata, false)
	if err != nil {
		return nil, err
	}

	var order *model.JigOrder

	// Two racing creations can compute the same daily suffix if the
	// advisory lock scope is missed; one retry with a fresh code is enough.
	for attempt := 0; attempt < 2; attempt++ {
		order = &model.JigOrder{
			Status:             model.OrderStatusDraft,
			Priority:           priority,
			RequestedBy:        callerID,
			RequestedDate:      time.Now(),
			RequiredDate:       req.RequiredDate,
			DeliveryLocationID: deliveryLocationID,
			DeliveryLineID:     deliveryLineID,
			Metadata:           metadata,
		}

		err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
			code, codeErr := s.orderRepo.NextOrderCode(txCtx, time.Now())
			if codeErr != nil {
				return fmt.Errorf("failed to generate order code: %w", codeErr)
			}
			order.OrderCode = code

			if createErr := s.orderRepo.Create(txCtx, order); createErr != nil {
				return createErr
			}
			for i := range lines {
				line := lines[i]
				line.OrderID = order.ID
				if lineErr := s.orderRepo.CreateDetail(txCtx, &line); lineErr != nil {
					return fmt.Errorf("failed to create order line: %w", lineErr)
				}
			}
			return nil
		})
		if err == nil || !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}
	}
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyGroup(ctx, GroupOrderManage, notify.OrderCreated{
		OrderID:     order.ID,
		OrderCode:   order.OrderCode,
		RequestedBy: callerID,
		Priority:    priority,
		RequiredBy:  req.RequiredDate,
		LineCount:   len(lines),
	})

	return s.orderRepo.FindByID(ctx, order.ID)
}

func (s *orderService) Get(ctx context.Context, id uuid.UUID) (*model.JigOrder, error) {
	return s.orderRepo.FindByID(ctx, id)
}

func (s *orderService) List(ctx context.Context, filter repository.OrderFilter) ([]model.JigOrder, int64, error) {
	return s.orderRepo.List(ctx, filter)
}

func (s *orderService) Update(ctx context.Context, callerID, id uuid.UUID, req UpdateOrderRequest) (*model.JigOrder, error) {
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, err := s.orderRepo.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		if order.RequestedBy != callerID {
			return apperr.Forbiddenf("only the requester may update order %s", order.OrderCode)
		}
		if model.OrderStatusTerminal(order.Status) {
			return apperr.InvalidTransitionf("update", order.Status, "any non-terminal status")
		}

		if req.Priority != nil {
			if !model.ValidOrderPriority(*req.Priority) {
				return apperr.Validationf("unknown priority %q", *req.Priority)
			}
			order.Priority = *req.Priority
		}
		if req.RequiredDate != nil {
			if req.RequiredDate.IsZero() {
				return apperr.Validationf("required date cannot be cleared")
			}
			order.RequiredDate = *req.RequiredDate
		}
		if req.DeliveryLocationID != nil || req.DeliveryLineID != nil {
			locReq, lineReq := "", ""
			if req.DeliveryLocationID != nil {
				locReq = *req.DeliveryLocationID
			}
			if req.DeliveryLineID != nil {
				lineReq = *req.DeliveryLineID
			}
			locID, lineID, resolveErr := s.resolveDeliveryTarget(txCtx, locReq, lineReq)
			if resolveErr != nil {
				return resolveErr
			}
			if req.DeliveryLocationID != nil {
				order.DeliveryLocationID = locID
			}
			if req.DeliveryLineID != nil {
				order.DeliveryLineID = lineID
			}
		}
		if req.Metadata != nil {
			merged, mergeErr := mergeMetadata(order.Metadata, req.Metadata, req.ReplaceMetadata)
			if mergeErr != nil {
				return mergeErr
			}
			order.Metadata = merged
		}

		if req.Lines != nil {
			if order.Status != model.OrderStatusDraft {
				return apperr.InvalidTransitionf("replace lines", order.Status, model.OrderStatusDraft)
			}
			if len(*req.Lines) == 0 {
				return apperr.Validationf("an order needs at least one line")
			}
			replacement := make([]model.JigOrderDetail, 0, len(*req.Lines))
			for _, lineReq := range *req.Lines {
				detailID, parseErr := uuid.Parse(lineReq.JigDetailID)
				if parseErr != nil {
					return apperr.Validationf("invalid jig detail id %q", lineReq.JigDetailID)
				}
				detail, findErr := s.detailRepo.FindByID(txCtx, detailID)
				if findErr != nil {
					return findErr
				}
				if detail.Status == model.JigDetailStatusScrap {
					return apperr.Validationf("jig detail %s is scrapped and cannot be ordered", detail.Code)
				}
				if lineReq.Quantity <= 0 {
					return apperr.Validationf("line quantity must be positive")
				}
				replacement = append(replacement, model.JigOrderDetail{
					JigDetailID: detailID,
					Quantity:    lineReq.Quantity,
					Note:        lineReq.Note,
				})
			}
			if replaceErr := s.orderRepo.ReplaceDetails(txCtx, order.ID, replacement); replaceErr != nil {
				return fmt.Errorf("failed to replace order lines: %w", replaceErr)
			}
		}

		return s.orderRepo.Save(txCtx, order)
	})
	if err != nil {
		return nil, err
	}
	return s.orderRepo.FindByID(ctx, id)
}

func (s *orderService) Submit(ctx context.Context, callerID, id uuid.UUID) (*model.JigOrder, error) {
	var order *model.JigOrder
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		found, err := s.orderRepo.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		if found.RequestedBy != callerID {
			return apperr.Forbiddenf("only the requester may submit order %s", found.OrderCode)
		}
		if found.Status != model.OrderStatusDraft {
			return apperr.InvalidTransitionf("submit", found.Status, model.OrderStatusDraft)
		}
		if len(found.Details) == 0 {
			return apperr.Validationf("order %s has no lines and cannot be submitted", found.OrderCode)
		}

		found.Status = model.OrderStatusSubmitted
		if err := s.orderRepo.Save(txCtx, found); err != nil {
			return err
		}
		order = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The approval case is opened after commit; the transaction never
	// spans the gateway call. An opening failure leaves the order in
	// Submitted and is resolved operationally, not by rollback.
	if _, gwErr := s.gateway.OpenCase(ctx, approval.OpenCaseInput{
		WorkflowCode: orderApprovalWorkflow,
		Title:        fmt.Sprintf("Jig order %s", order.OrderCode),
		Description:  fmt.Sprintf("%d line(s), required by %s", len(order.Details), order.RequiredDate.Format("2006-01-02")),
		EntityType:   model.ApprovalEntityOrder,
		EntityID:     order.ID,
		Priority:     order.Priority,
		RequestedBy:  callerID,
	}); gwErr != nil {
		s.log.WithError(gwErr).WithField("order", order.OrderCode).Error("failed to open approval case")
	}

	s.notifier.NotifyGroup(ctx, GroupOrderApprove, notify.OrderSubmitted{
		OrderID:     order.ID,
		OrderCode:   order.OrderCode,
		RequestedBy: callerID,
		Priority:    order.Priority,
	})

	return order, nil
}

func (s *orderService) Approve(ctx context.Context, approverID, id uuid.UUID, comments string) (*model.JigOrder, error) {
	var order *model.JigOrder
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		found, err := s.orderRepo.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		if found.Status != model.OrderStatusSubmitted {
			return apperr.InvalidTransitionf("approve", found.Status, model.OrderStatusSubmitted)
		}

		now := time.Now()
		found.Status = model.OrderStatusApproved
		found.ApprovedBy = &approverID
		found.ApprovedDate = &now
		if comments != "" {
			merged, mergeErr := mergeMetadata(found.Metadata, map[string]interface{}{"approval_comments": comments}, false)
			if mergeErr != nil {
				return mergeErr
			}
			found.Metadata = merged
		}

		if err := s.orderRepo.Save(txCtx, found); err != nil {
			return err
		}
		order = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyUser(ctx, order.RequestedBy, notify.OrderApproved{
		OrderID:    order.ID,
		OrderCode:  order.OrderCode,
		ApprovedBy: approverID,
	})
	s.notifier.NotifyGroup(ctx, GroupOrderPrepare, notify.OrderNeedsPreparation{
		OrderID:    order.ID,
		OrderCode:  order.OrderCode,
		Priority:   order.Priority,
		RequiredBy: order.RequiredDate,
	})

	return order, nil
}

func (s *orderService) Reject(ctx context.Context, approverID, id uuid.UUID, reason string) (*model.JigOrder, error) {
	if reason == "" {
		return nil, apperr.Validationf("a rejection reason is required")
	}

	var order *model.JigOrder
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		found, err := s.orderRepo.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		if found.Status != model.OrderStatusSubmitted {
			return apperr.InvalidTransitionf("reject", found.Status, model.OrderStatusSubmitted)
		}

		found.Status = model.OrderStatusRejected
		found.ApprovedBy = &approverID
		found.RejectionReason = reason

		if err := s.orderRepo.Save(txCtx, found); err != nil {
			return err
		}
		order = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyUser(ctx, order.RequestedBy, notify.OrderRejected{
		OrderID:    order.ID,
		OrderCode:  order.OrderCode,
		RejectedBy: approverID,
		Reason:     reason,
	})

	return order, nil
}

// Prepare records preparation facts for the supplied lines. The first call
// moves the order to Preparing; once every line reports prepared the order
// becomes Ready. Re-preparing an already prepared line is a no-op, so a
// duplicated call neither doubles ledger entries nor rewrites quantities.
func (s *orderService) Prepare(ctx context.Context, preparerID, id uuid.UUID, req PrepareOrderRequest) (*model.JigOrder, error) {
	if len(req.Lines) == 0 {
		return nil, apperr.Validationf("prepare requires at least one line")
	}

	var order *model.JigOrder
	var becameReady bool
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		found, err := s.orderRepo.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		if found.Status != model.OrderStatusApproved && found.Status != model.OrderStatusPreparing {
			return apperr.InvalidTransitionf("prepare", found.Status, model.OrderStatusApproved)
		}

		now := time.Now()
		if found.Status == model.OrderStatusApproved {
			found.Status = model.OrderStatusPreparing
			found.PreparedBy = &preparerID
		}
		if req.Notes != "" && found.PreparationNotes == "" {
			found.PreparationNotes = req.Notes
		}

		for _, lineReq := range req.Lines {
			lineID, parseErr := uuid.Parse(lineReq.LineID)
			if parseErr != nil {
				return apperr.Validationf("invalid order line id %q", lineReq.LineID)
			}

			var line *model.JigOrderDetail
			for i := range found.Details {
				if found.Details[i].ID == lineID {
					line = &found.Details[i]
					break
				}
			}
			if line == nil {
				return apperr.NotFoundf("order line %s not found on order %s", lineID, found.OrderCode)
			}
			if line.IsPrepared {
				continue
			}

			actual := lineReq.ActualQuantity
			if actual < 0 {
				return apperr.Validationf("actual quantity cannot be negative")
			}
			if actual == 0 {
				actual = line.Quantity
			}

			line.IsPrepared = true
			line.PreparedDate = &now
			line.ActualQuantity = &actual
			if err := s.orderRepo.SaveDetail(txCtx, line); err != nil {
				return fmt.Errorf("failed to save order line: %w", err)
			}

			if err := s.ledgerRepo.Append(txCtx, &model.LedgerEntry{
				JigDetailID:  line.JigDetailID,
				OrderID:      &found.ID,
				MovementType: model.MovementOut,
				Quantity:     -actual,
				Description:  fmt.Sprintf("Issued for order %s", found.OrderCode),
			}); err != nil {
				return fmt.Errorf("failed to append ledger entry: %w", err)
			}

			detail, findErr := s.detailRepo.FindByID(txCtx, line.JigDetailID)
			if findErr != nil {
				return findErr
			}
			// Staging: the unit leaves storage but is not yet at the
			// delivery target.
			if detail.Status == model.JigDetailStatusStorage {
				detail.Status = model.JigDetailStatusLine
				detail.SetPlacement(model.NoPlacement())
				if err := s.detailRepo.UpdateVersioned(txCtx, detail); err != nil {
					return err
				}
			}
		}

		if found.AllPrepared() {
			found.Status = model.OrderStatusReady
			if found.PreparedDate == nil {
				found.PreparedDate = &now
			}
			becameReady = true
		}

		if err := s.orderRepo.Save(txCtx, found); err != nil {
			return err
		}
		order = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	if becameReady {
		s.notifier.NotifyUser(ctx, order.RequestedBy, notify.OrderReady{
			OrderID:   order.ID,
			OrderCode: order.OrderCode,
		})
	} else {
		prepared := 0
		for _, d := range order.Details {
			if d.IsPrepared {
				prepared++
			}
		}
		s.notifier.NotifyUser(ctx, order.RequestedBy, notify.OrderPartiallyPrepared{
			OrderID:       order.ID,
			OrderCode:     order.OrderCode,
			PreparedLines: prepared,
			TotalLines:    len(order.Details),
		})
	}

	return order, nil
}

func (s *orderService) Notify(ctx context.Context, callerID, id uuid.UUID) (*model.JigOrder, error) {
	var order *model.JigOrder
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		found, err := s.orderRepo.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		if found.Status != model.OrderStatusReady {
			return apperr.InvalidTransitionf("notify", found.Status, model.OrderStatusReady)
		}

		now := time.Now()
		found.Status = model.OrderStatusNotified
		found.NotifiedDate = &now

		if err := s.orderRepo.Save(txCtx, found); err != nil {
			return err
		}
		order = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyUser(ctx, order.RequestedBy, notify.OrderNotified{
		OrderID:            order.ID,
		OrderCode:          order.OrderCode,
		DeliveryLocationID: order.DeliveryLocationID,
		DeliveryLineID:     order.DeliveryLineID,
	})

	return order, nil
}

// Pickup completes the order and relocates every unit to the delivery
// target. A delivery location beats a delivery line when both are present;
// with no target at all the units stay where preparation left them.
func (s *orderService) Pickup(ctx context.Context, receiverID, id uuid.UUID, req PickupOrderRequest) (*model.JigOrder, error) {
	var order *model.JigOrder
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		found, err := s.orderRepo.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		if found.Status != model.OrderStatusNotified {
			return apperr.InvalidTransitionf("pickup", found.Status, model.OrderStatusNotified)
		}

		now := time.Now()
		found.Status = model.OrderStatusPickedUp
		found.ReceivedBy = &receiverID
		found.PickedUpDate = &now
		found.CompletedDate = &now
		found.DeliveryNotes = req.DeliveryNotes

		if found.DeliveryLocationID != nil && found.DeliveryLineID != nil {
			found.DeliveryLineID = nil
		}

		for i := range found.Details {
			line := &found.Details[i]

			qty := line.Quantity
			if line.ActualQuantity != nil {
				qty = *line.ActualQuantity
			}
			if err := s.ledgerRepo.Append(txCtx, &model.LedgerEntry{
				JigDetailID:  line.JigDetailID,
				OrderID:      &found.ID,
				MovementType: model.MovementIn,
				Quantity:     qty,
				Description:  fmt.Sprintf("Delivered for order %s", found.OrderCode),
			}); err != nil {
				return fmt.Errorf("failed to append ledger entry: %w", err)
			}

			detail, findErr := s.detailRepo.FindByID(txCtx, line.JigDetailID)
			if findErr != nil {
				return findErr
			}
			switch {
			case found.DeliveryLocationID != nil:
				detail.Status = model.JigDetailStatusStorage
				detail.SetPlacement(model.AtLocation(*found.DeliveryLocationID))
			case found.DeliveryLineID != nil:
				detail.Status = model.JigDetailStatusLine
				detail.SetPlacement(model.AtLine(*found.DeliveryLineID))
			default:
				continue
			}
			if err := s.detailRepo.UpdateVersioned(txCtx, detail); err != nil {
				return err
			}
		}

		if err := s.orderRepo.Save(txCtx, found); err != nil {
			return err
		}
		order = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyGroup(ctx, GroupOrderManage, notify.OrderCompleted{
		OrderID:    order.ID,
		OrderCode:  order.OrderCode,
		ReceivedBy: receiverID,
	})

	return order, nil
}

// Cancel aborts a not-yet-completed order. Cancelling out of Preparing
// reverses exactly what preparation did: one compensating ledger entry per
// prepared line and the unit back to storage.
func (s *orderService) Cancel(ctx context.Context, callerID, id uuid.UUID, reason string) (*model.JigOrder, error) {
	if reason == "" {
		return nil, apperr.Validationf("a cancel reason is required")
	}

	var order *model.JigOrder
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		found, err := s.orderRepo.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		if found.RequestedBy != callerID {
			return apperr.Forbiddenf("only the requester may cancel order %s", found.OrderCode)
		}
		switch found.Status {
		case model.OrderStatusDraft, model.OrderStatusSubmitted, model.OrderStatusApproved, model.OrderStatusPreparing:
		default:
			return apperr.InvalidTransitionf("cancel", found.Status, "DRAFT, SUBMITTED, APPROVED or PREPARING")
		}

		fromPreparing := found.Status == model.OrderStatusPreparing
		found.Status = model.OrderStatusCancelled
		found.RejectionReason = reason

		if fromPreparing {
			for i := range found.Details {
				line := &found.Details[i]
				if !line.IsPrepared {
					continue
				}

				qty := line.Quantity
				if line.ActualQuantity != nil {
					qty = *line.ActualQuantity
				}
				if err := s.ledgerRepo.Append(txCtx, &model.LedgerEntry{
					JigDetailID:  line.JigDetailID,
					OrderID:      &found.ID,
					MovementType: model.MovementIn,
					Quantity:     qty,
					Description:  fmt.Sprintf("Returned on cancellation of order %s", found.OrderCode),
				}); err != nil {
					return fmt.Errorf("failed to append ledger entry: %w", err)
				}

				detail, findErr := s.detailRepo.FindByID(txCtx, line.JigDetailID)
				if findErr != nil {
					return findErr
				}
				detail.Status = model.JigDetailStatusStorage
				detail.SetPlacement(model.NoPlacement())
				if err := s.detailRepo.UpdateVersioned(txCtx, detail); err != nil {
					return err
				}
			}
		}

		if err := s.orderRepo.Save(txCtx, found); err != nil {
			return err
		}
		order = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyUser(ctx, order.RequestedBy, notify.OrderCancelled{
		OrderID:   order.ID,
		OrderCode: order.OrderCode,
		Reason:    reason,
	})

	return order, nil
}

func (s *orderService) Remove(ctx context.Context, callerID, id uuid.UUID) error {
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, err := s.orderRepo.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		if order.RequestedBy != callerID {
			return apperr.Forbiddenf("only the requester may remove order %s", order.OrderCode)
		}
		if order.Status != model.OrderStatusDraft && order.Status != model.OrderStatusRejected {
			return apperr.InvalidTransitionf("remove", order.Status, "DRAFT or REJECTED")
		}
		return s.orderRepo.Delete(txCtx, order.ID)
	})
}

func (s *orderService) OnApprovalDecision(ctx context.Context, orderID uuid.UUID, approved bool, deciderID uuid.UUID, comments string) error {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status != model.OrderStatusSubmitted {
		// Stale or duplicate delivery from the approval side.
		s.log.WithFields(logrus.Fields{
			"order":    order.OrderCode,
			"status":   order.Status,
			"approved": approved,
		}).Warn("ignoring approval decision for order not in SUBMITTED")
		return nil
	}

	if approved {
		_, err = s.Approve(ctx, deciderID, orderID, comments)
		return err
	}

	reason := comments
	if reason == "" {
		reason = "rejected via approval workflow"
	}
	_, err = s.Reject(ctx, deciderID, orderID, reason)
	return err
}

// --- Helpers ---

func (s *orderService) resolveDeliveryTarget(ctx context.Context, locationID, lineID string) (*uuid.UUID, *uuid.UUID, error) {
	var locPtr, linePtr *uuid.UUID
	if locationID != "" {
		parsed, err := uuid.Parse(locationID)
		if err != nil {
			return nil, nil, apperr.Validationf("invalid delivery location id %q", locationID)
		}
		if _, err := s.masterRepo.LocationByID(ctx, parsed); err != nil {
			return nil, nil, err
		}
		locPtr = &parsed
	}
	if lineID != "" {
		parsed, err := uuid.Parse(lineID)
		if err != nil {
			return nil, nil, apperr.Validationf("invalid delivery line id %q", lineID)
		}
		if _, err := s.masterRepo.LineByID(ctx, parsed); err != nil {
			return nil, nil, err
		}
		linePtr = &parsed
	}
	return locPtr, linePtr, nil
}

// mergeMetadata merges add into the stored JSON object key by key; replace
// drops the existing content first. Merging never removes keys.
func mergeMetadata(existing string, add map[string]interface{}, replace bool) (string, error) {
	current := map[string]interface{}{}
	if !replace && existing != "" {
		if err := json.Unmarshal([]byte(existing), &current); err != nil {
			return "", fmt.Errorf("corrupt order metadata: %w", err)
		}
	}
	for k, v := range add {
		current[k] = v
	}
	merged, err := json.Marshal(current)
	if err != nil {
		return "", err
	}
	return string(merged), nil
}
