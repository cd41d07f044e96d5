package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"jigtrack/internal/apperr"
	"jigtrack/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderEnv struct {
	orderRepo  *fakeOrderRepo
	detailRepo *fakeDetailRepo
	ledgerRepo *fakeLedgerRepo
	userRepo   *fakeUserRepo
	masterRepo *fakeMasterRepo
	gateway    *fakeGateway
	notifier   *fakeNotifier

	requester *model.User
	approver  *model.User
	preparer  *model.User
	receiver  *model.User

	svc OrderService
}

func newOrderEnv(t *testing.T) *orderEnv {
	t.Helper()

	env := &orderEnv{
		orderRepo:  newFakeOrderRepo(),
		detailRepo: newFakeDetailRepo(),
		ledgerRepo: newFakeLedgerRepo(),
		masterRepo: newFakeMasterRepo(),
		gateway:    &fakeGateway{},
		notifier:   &fakeNotifier{},
		requester:  &model.User{ID: uuid.New(), Username: "req", Role: "requester"},
		approver:   &model.User{ID: uuid.New(), Username: "appr", Role: "approver"},
		preparer:   &model.User{ID: uuid.New(), Username: "prep", Role: "preparer"},
		receiver:   &model.User{ID: uuid.New(), Username: "recv", Role: "requester"},
	}
	env.userRepo = newFakeUserRepo(env.requester, env.approver, env.preparer, env.receiver)

	env.svc = NewOrderService(
		env.orderRepo, env.detailRepo, env.ledgerRepo, env.userRepo, env.masterRepo,
		&fakeTxManager{}, env.gateway, env.notifier, testLogger(),
	)
	return env
}

func (env *orderEnv) newStorageDetail() *model.JigDetail {
	return env.detailRepo.add(uuid.New(), model.JigDetailStatusStorage)
}

func (env *orderEnv) createOrder(t *testing.T, details ...*model.JigDetail) *model.JigOrder {
	t.Helper()

	lines := make([]OrderLineRequest, 0, len(details))
	for _, d := range details {
		lines = append(lines, OrderLineRequest{JigDetailID: d.ID.String(), Quantity: 1})
	}
	order, err := env.svc.Create(context.Background(), env.requester.ID, CreateOrderRequest{
		RequiredDate: time.Now().Add(48 * time.Hour),
		Lines:        lines,
	})
	require.NoError(t, err)
	return order
}

func (env *orderEnv) prepareAllLines(t *testing.T, order *model.JigOrder) *model.JigOrder {
	t.Helper()

	lines := make([]PrepareLineRequest, 0, len(order.Details))
	for _, line := range order.Details {
		lines = append(lines, PrepareLineRequest{LineID: line.ID.String()})
	}
	updated, err := env.svc.Prepare(context.Background(), env.preparer.ID, order.ID, PrepareOrderRequest{Lines: lines})
	require.NoError(t, err)
	return updated
}

func TestOrderLifecycleHappyPath(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()
	locID := env.masterRepo.addLocation()
	d1 := env.newStorageDetail()
	d2 := env.newStorageDetail()

	order, err := env.svc.Create(ctx, env.requester.ID, CreateOrderRequest{
		Priority:           model.OrderPriorityHigh,
		RequiredDate:       time.Now().Add(72 * time.Hour),
		DeliveryLocationID: locID.String(),
		Lines: []OrderLineRequest{
			{JigDetailID: d1.ID.String(), Quantity: 2},
			{JigDetailID: d2.ID.String(), Quantity: 1},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusDraft, order.Status)
	assert.Equal(t, "JO"+time.Now().Format("20060102")+"0001", order.OrderCode)
	assert.Len(t, order.Details, 2)

	order, err = env.svc.Submit(ctx, env.requester.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusSubmitted, order.Status)
	require.Len(t, env.gateway.opened, 1)
	assert.Equal(t, order.ID, env.gateway.opened[0].EntityID)

	order, err = env.svc.Approve(ctx, env.approver.ID, order.ID, "go ahead")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusApproved, order.Status)
	require.NotNil(t, order.ApprovedBy)
	assert.Equal(t, env.approver.ID, *order.ApprovedBy)
	assert.NotNil(t, order.ApprovedDate)

	var meta map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(order.Metadata), &meta))
	assert.Equal(t, "go ahead", meta["approval_comments"])

	order = env.prepareAllLines(t, order)
	assert.Equal(t, model.OrderStatusReady, order.Status)
	require.NotNil(t, order.PreparedBy)
	assert.Equal(t, env.preparer.ID, *order.PreparedBy)
	assert.NotNil(t, order.PreparedDate)

	// Preparation stages the units off storage.
	for _, d := range []*model.JigDetail{d1, d2} {
		staged, err := env.detailRepo.FindByID(ctx, d.ID)
		require.NoError(t, err)
		assert.Equal(t, model.JigDetailStatusLine, staged.Status)
		assert.True(t, staged.Placement().IsNone())
	}

	order, err = env.svc.Notify(ctx, env.preparer.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusNotified, order.Status)
	assert.NotNil(t, order.NotifiedDate)

	order, err = env.svc.Pickup(ctx, env.receiver.ID, order.ID, PickupOrderRequest{DeliveryNotes: "left at bay 3"})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPickedUp, order.Status)
	require.NotNil(t, order.ReceivedBy)
	assert.Equal(t, env.receiver.ID, *order.ReceivedBy)
	assert.NotNil(t, order.PickedUpDate)
	assert.NotNil(t, order.CompletedDate)
	assert.Equal(t, "left at bay 3", order.DeliveryNotes)

	// Units land at the delivery location and the ledger nets to zero.
	for _, d := range []*model.JigDetail{d1, d2} {
		delivered, err := env.detailRepo.FindByID(ctx, d.ID)
		require.NoError(t, err)
		assert.Equal(t, model.JigDetailStatusStorage, delivered.Status)
		require.NotNil(t, delivered.LocationID)
		assert.Equal(t, locID, *delivered.LocationID)

		sum, err := env.ledgerRepo.SumByDetail(ctx, d.ID)
		require.NoError(t, err)
		assert.Zero(t, sum)
	}

	assert.Contains(t, env.notifier.eventKeys(), "jig_order.created")
	assert.Contains(t, env.notifier.eventKeys(), "jig_order.ready")
	assert.Contains(t, env.notifier.eventKeys(), "jig_order.completed")
}

func TestCreateValidation(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()
	detail := env.newStorageDetail()
	goodLines := []OrderLineRequest{{JigDetailID: detail.ID.String(), Quantity: 1}}

	tests := []struct {
		name string
		req  CreateOrderRequest
	}{
		{"no lines", CreateOrderRequest{RequiredDate: time.Now().Add(time.Hour)}},
		{"zero required date", CreateOrderRequest{Lines: goodLines}},
		{"unknown priority", CreateOrderRequest{RequiredDate: time.Now().Add(time.Hour), Priority: "ASAP", Lines: goodLines}},
		{"zero quantity", CreateOrderRequest{RequiredDate: time.Now().Add(time.Hour), Lines: []OrderLineRequest{{JigDetailID: detail.ID.String()}}}},
		{"bad detail id", CreateOrderRequest{RequiredDate: time.Now().Add(time.Hour), Lines: []OrderLineRequest{{JigDetailID: "nope", Quantity: 1}}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.svc.Create(ctx, env.requester.ID, tc.req)
			require.Error(t, err)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}

	t.Run("unknown requester", func(t *testing.T) {
		_, err := env.svc.Create(ctx, uuid.New(), CreateOrderRequest{RequiredDate: time.Now().Add(time.Hour), Lines: goodLines})
		require.Error(t, err)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})

	t.Run("scrapped detail", func(t *testing.T) {
		scrapped := env.detailRepo.add(uuid.New(), model.JigDetailStatusScrap)
		_, err := env.svc.Create(ctx, env.requester.ID, CreateOrderRequest{
			RequiredDate: time.Now().Add(time.Hour),
			Lines:        []OrderLineRequest{{JigDetailID: scrapped.ID.String(), Quantity: 1}},
		})
		require.Error(t, err)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})
}

func TestOrderCodesAreDistinctPerDay(t *testing.T) {
	env := newOrderEnv(t)
	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		order := env.createOrder(t, env.newStorageDetail())
		assert.False(t, seen[order.OrderCode], "duplicate code %s", order.OrderCode)
		seen[order.OrderCode] = true
	}
	assert.True(t, seen[fmt.Sprintf("JO%s%04d", time.Now().Format("20060102"), 5)])
}

func TestSubmitGuards(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()
	order := env.createOrder(t, env.newStorageDetail())

	_, err := env.svc.Submit(ctx, env.approver.ID, order.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = env.svc.Submit(ctx, env.requester.ID, order.ID)
	require.NoError(t, err)

	_, err = env.svc.Submit(ctx, env.requester.ID, order.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidTransition, apperr.KindOf(err))
}

func TestSubmitRejectsOrderWithoutLines(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()

	empty := &model.JigOrder{
		ID:          uuid.New(),
		OrderCode:   "JO000000000001",
		Status:      model.OrderStatusDraft,
		RequestedBy: env.requester.ID,
	}
	require.NoError(t, env.orderRepo.Create(ctx, empty))

	_, err := env.svc.Submit(ctx, env.requester.ID, empty.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestSubmitSurvivesGatewayFailure(t *testing.T) {
	env := newOrderEnv(t)
	env.gateway.err = fmt.Errorf("workflow engine down")
	order := env.createOrder(t, env.newStorageDetail())

	submitted, err := env.svc.Submit(context.Background(), env.requester.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusSubmitted, submitted.Status)
}

func TestApproveRequiresSubmitted(t *testing.T) {
	env := newOrderEnv(t)
	order := env.createOrder(t, env.newStorageDetail())

	_, err := env.svc.Approve(context.Background(), env.approver.ID, order.ID, "")
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidTransition, apperr.KindOf(err))
}

func TestRejectRequiresReason(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()
	order := env.createOrder(t, env.newStorageDetail())
	_, err := env.svc.Submit(ctx, env.requester.ID, order.ID)
	require.NoError(t, err)

	_, err = env.svc.Reject(ctx, env.approver.ID, order.ID, "")
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	rejected, err := env.svc.Reject(ctx, env.approver.ID, order.ID, "budget freeze")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusRejected, rejected.Status)
	assert.Equal(t, "budget freeze", rejected.RejectionReason)

	// Rejected is terminal; it can only be removed.
	_, err = env.svc.Submit(ctx, env.requester.ID, order.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidTransition, apperr.KindOf(err))

	require.NoError(t, env.svc.Remove(ctx, env.requester.ID, order.ID))
	_, err = env.svc.Get(ctx, order.ID)
	assert.True(t, apperr.IsNotFound(err))
}

func TestPrepareIsIdempotentPerLine(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()
	d1 := env.newStorageDetail()
	d2 := env.newStorageDetail()
	order := env.createOrder(t, d1, d2)
	_, err := env.svc.Submit(ctx, env.requester.ID, order.ID)
	require.NoError(t, err)
	order, err = env.svc.Approve(ctx, env.approver.ID, order.ID, "")
	require.NoError(t, err)

	firstLine := order.Details[0].ID.String()
	order, err = env.svc.Prepare(ctx, env.preparer.ID, order.ID, PrepareOrderRequest{
		Lines: []PrepareLineRequest{{LineID: firstLine}},
	})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPreparing, order.Status)
	assert.Nil(t, order.PreparedDate)

	// Same line again: no second ledger entry, no quantity rewrite.
	order, err = env.svc.Prepare(ctx, env.preparer.ID, order.ID, PrepareOrderRequest{
		Lines: []PrepareLineRequest{{LineID: firstLine, ActualQuantity: 99}},
	})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPreparing, order.Status)

	entries, _, err := env.ledgerRepo.ListByDetail(ctx, order.Details[0].JigDetailID, 1, 100)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	require.NotNil(t, order.Details[0].ActualQuantity)
	assert.Equal(t, 1, *order.Details[0].ActualQuantity)

	order, err = env.svc.Prepare(ctx, env.preparer.ID, order.ID, PrepareOrderRequest{
		Lines: []PrepareLineRequest{{LineID: order.Details[1].ID.String()}},
	})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusReady, order.Status)
	firstReady := order.PreparedDate
	require.NotNil(t, firstReady)

	// Ready orders reject further preparation.
	_, err = env.svc.Prepare(ctx, env.preparer.ID, order.ID, PrepareOrderRequest{
		Lines: []PrepareLineRequest{{LineID: firstLine}},
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidTransition, apperr.KindOf(err))
}

func TestPrepareQuantityRules(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()
	detail := env.newStorageDetail()
	order := env.createOrder(t, detail)
	_, err := env.svc.Submit(ctx, env.requester.ID, order.ID)
	require.NoError(t, err)
	order, err = env.svc.Approve(ctx, env.approver.ID, order.ID, "")
	require.NoError(t, err)

	_, err = env.svc.Prepare(ctx, env.preparer.ID, order.ID, PrepareOrderRequest{
		Lines: []PrepareLineRequest{{LineID: order.Details[0].ID.String(), ActualQuantity: -1}},
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = env.svc.Prepare(ctx, env.preparer.ID, order.ID, PrepareOrderRequest{
		Lines: []PrepareLineRequest{{LineID: uuid.NewString()}},
	})
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
}

func TestCancelFromPreparingReversesPreparation(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()
	d1 := env.newStorageDetail()
	d2 := env.newStorageDetail()
	order := env.createOrder(t, d1, d2)
	_, err := env.svc.Submit(ctx, env.requester.ID, order.ID)
	require.NoError(t, err)
	order, err = env.svc.Approve(ctx, env.approver.ID, order.ID, "")
	require.NoError(t, err)

	// Prepare only the first line, then cancel mid-flight.
	order, err = env.svc.Prepare(ctx, env.preparer.ID, order.ID, PrepareOrderRequest{
		Lines: []PrepareLineRequest{{LineID: order.Details[0].ID.String()}},
	})
	require.NoError(t, err)
	preparedDetailID := order.Details[0].JigDetailID

	cancelled, err := env.svc.Cancel(ctx, env.requester.ID, order.ID, "line retooled")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, "line retooled", cancelled.RejectionReason)

	sum, err := env.ledgerRepo.SumByDetail(ctx, preparedDetailID)
	require.NoError(t, err)
	assert.Zero(t, sum, "issue and return must net out")

	returned, err := env.detailRepo.FindByID(ctx, preparedDetailID)
	require.NoError(t, err)
	assert.Equal(t, model.JigDetailStatusStorage, returned.Status)
	assert.True(t, returned.Placement().IsNone())

	// The unprepared line's unit never moved and has no ledger trace.
	entries, _, err := env.ledgerRepo.ListByDetail(ctx, d2.ID, 1, 100)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCancelGuards(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()
	order := env.createOrder(t, env.newStorageDetail())

	_, err := env.svc.Cancel(ctx, env.requester.ID, order.ID, "")
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = env.svc.Cancel(ctx, env.approver.ID, order.ID, "not mine")
	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	// Walk the order to Notified; cancelling is then off the table.
	_, err = env.svc.Submit(ctx, env.requester.ID, order.ID)
	require.NoError(t, err)
	order, err = env.svc.Approve(ctx, env.approver.ID, order.ID, "")
	require.NoError(t, err)
	order = env.prepareAllLines(t, order)
	_, err = env.svc.Notify(ctx, env.preparer.ID, order.ID)
	require.NoError(t, err)

	_, err = env.svc.Cancel(ctx, env.requester.ID, order.ID, "too late")
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidTransition, apperr.KindOf(err))
}

func TestPickupWithoutTargetLeavesUnitsInPlace(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()
	detail := env.newStorageDetail()
	order := env.createOrder(t, detail)
	_, err := env.svc.Submit(ctx, env.requester.ID, order.ID)
	require.NoError(t, err)
	order, err = env.svc.Approve(ctx, env.approver.ID, order.ID, "")
	require.NoError(t, err)
	order = env.prepareAllLines(t, order)
	_, err = env.svc.Notify(ctx, env.preparer.ID, order.ID)
	require.NoError(t, err)

	_, err = env.svc.Pickup(ctx, env.receiver.ID, order.ID, PickupOrderRequest{})
	require.NoError(t, err)

	after, err := env.detailRepo.FindByID(ctx, detail.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JigDetailStatusLine, after.Status)
	assert.True(t, after.Placement().IsNone())
}

func TestPickupLocationWinsOverLine(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()
	locID := env.masterRepo.addLocation()
	lineID := env.masterRepo.addLine()
	detail := env.newStorageDetail()
	order := env.createOrder(t, detail)
	_, err := env.svc.Submit(ctx, env.requester.ID, order.ID)
	require.NoError(t, err)
	order, err = env.svc.Approve(ctx, env.approver.ID, order.ID, "")
	require.NoError(t, err)
	order = env.prepareAllLines(t, order)
	_, err = env.svc.Notify(ctx, env.preparer.ID, order.ID)
	require.NoError(t, err)

	// Force both targets onto the stored order.
	stored := env.orderRepo.orders[order.ID]
	stored.DeliveryLocationID = &locID
	stored.DeliveryLineID = &lineID

	picked, err := env.svc.Pickup(ctx, env.receiver.ID, order.ID, PickupOrderRequest{})
	require.NoError(t, err)
	require.NotNil(t, picked.DeliveryLocationID)
	assert.Nil(t, picked.DeliveryLineID)

	after, err := env.detailRepo.FindByID(ctx, detail.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JigDetailStatusStorage, after.Status)
	require.NotNil(t, after.LocationID)
	assert.Equal(t, locID, *after.LocationID)
}

func TestUpdateRules(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()
	d1 := env.newStorageDetail()
	d2 := env.newStorageDetail()
	order := env.createOrder(t, d1)

	high := model.OrderPriorityUrgent
	updated, err := env.svc.Update(ctx, env.requester.ID, order.ID, UpdateOrderRequest{
		Priority: &high,
		Metadata: map[string]interface{}{"cost_center": "CC-42"},
		Lines:    &[]OrderLineRequest{{JigDetailID: d2.ID.String(), Quantity: 3}},
	})
	require.NoError(t, err)
	assert.Equal(t, model.OrderPriorityUrgent, updated.Priority)
	require.Len(t, updated.Details, 1)
	assert.Equal(t, d2.ID, updated.Details[0].JigDetailID)
	assert.Equal(t, 3, updated.Details[0].Quantity)

	var meta map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(updated.Metadata), &meta))
	assert.Equal(t, "CC-42", meta["cost_center"])

	_, err = env.svc.Update(ctx, env.approver.ID, order.ID, UpdateOrderRequest{Priority: &high})
	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	// Once submitted, line replacement is locked.
	_, err = env.svc.Submit(ctx, env.requester.ID, order.ID)
	require.NoError(t, err)
	_, err = env.svc.Update(ctx, env.requester.ID, order.ID, UpdateOrderRequest{
		Lines: &[]OrderLineRequest{{JigDetailID: d1.ID.String(), Quantity: 1}},
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidTransition, apperr.KindOf(err))
}

func TestRemoveOnlyDraftOrRejected(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()
	order := env.createOrder(t, env.newStorageDetail())
	_, err := env.svc.Submit(ctx, env.requester.ID, order.ID)
	require.NoError(t, err)

	err = env.svc.Remove(ctx, env.requester.ID, order.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidTransition, apperr.KindOf(err))
}

func TestOnApprovalDecision(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()

	t.Run("approves submitted order", func(t *testing.T) {
		order := env.createOrder(t, env.newStorageDetail())
		_, err := env.svc.Submit(ctx, env.requester.ID, order.ID)
		require.NoError(t, err)

		require.NoError(t, env.svc.OnApprovalDecision(ctx, order.ID, true, env.approver.ID, "fine"))
		after, err := env.svc.Get(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusApproved, after.Status)
	})

	t.Run("rejects with fallback reason", func(t *testing.T) {
		order := env.createOrder(t, env.newStorageDetail())
		_, err := env.svc.Submit(ctx, env.requester.ID, order.ID)
		require.NoError(t, err)

		require.NoError(t, env.svc.OnApprovalDecision(ctx, order.ID, false, env.approver.ID, ""))
		after, err := env.svc.Get(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusRejected, after.Status)
		assert.Equal(t, "rejected via approval workflow", after.RejectionReason)
	})

	t.Run("ignores stale decision", func(t *testing.T) {
		order := env.createOrder(t, env.newStorageDetail())
		_, err := env.svc.Submit(ctx, env.requester.ID, order.ID)
		require.NoError(t, err)
		_, err = env.svc.Approve(ctx, env.approver.ID, order.ID, "")
		require.NoError(t, err)

		require.NoError(t, env.svc.OnApprovalDecision(ctx, order.ID, false, env.approver.ID, "changed my mind"))
		after, err := env.svc.Get(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusApproved, after.Status)
	})
}

func TestPrepareConflictPropagates(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()
	detail := env.newStorageDetail()
	order := env.createOrder(t, detail)
	_, err := env.svc.Submit(ctx, env.requester.ID, order.ID)
	require.NoError(t, err)
	order, err = env.svc.Approve(ctx, env.approver.ID, order.ID, "")
	require.NoError(t, err)

	env.detailRepo.conflictOnce[detail.ID] = true
	_, err = env.svc.Prepare(ctx, env.preparer.ID, order.ID, PrepareOrderRequest{
		Lines: []PrepareLineRequest{{LineID: order.Details[0].ID.String()}},
	})
	require.Error(t, err)
	assert.True(t, apperr.IsConflict(err))
}
