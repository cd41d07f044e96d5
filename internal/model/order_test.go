package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusAllows(t *testing.T) {
	allowed := []struct{ from, to string }{
		{OrderStatusDraft, OrderStatusSubmitted},
		{OrderStatusDraft, OrderStatusCancelled},
		{OrderStatusSubmitted, OrderStatusApproved},
		{OrderStatusSubmitted, OrderStatusRejected},
		{OrderStatusSubmitted, OrderStatusCancelled},
		{OrderStatusApproved, OrderStatusPreparing},
		{OrderStatusApproved, OrderStatusCancelled},
		{OrderStatusPreparing, OrderStatusReady},
		{OrderStatusPreparing, OrderStatusCancelled},
		{OrderStatusReady, OrderStatusNotified},
		{OrderStatusNotified, OrderStatusPickedUp},
	}
	for _, tc := range allowed {
		assert.True(t, OrderStatusAllows(tc.from, tc.to), "%s -> %s should be allowed", tc.from, tc.to)
	}

	denied := []struct{ from, to string }{
		{OrderStatusDraft, OrderStatusApproved},
		{OrderStatusDraft, OrderStatusReady},
		{OrderStatusApproved, OrderStatusReady},
		{OrderStatusReady, OrderStatusCancelled},
		{OrderStatusNotified, OrderStatusCancelled},
		{OrderStatusRejected, OrderStatusSubmitted},
		{OrderStatusCancelled, OrderStatusDraft},
		{OrderStatusPickedUp, OrderStatusDraft},
	}
	for _, tc := range denied {
		assert.False(t, OrderStatusAllows(tc.from, tc.to), "%s -> %s should be denied", tc.from, tc.to)
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	for _, status := range []string{OrderStatusRejected, OrderStatusCancelled, OrderStatusPickedUp} {
		assert.True(t, OrderStatusTerminal(status), "%s should be terminal", status)
	}
	for _, status := range []string{OrderStatusDraft, OrderStatusSubmitted, OrderStatusApproved, OrderStatusPreparing, OrderStatusReady, OrderStatusNotified} {
		assert.False(t, OrderStatusTerminal(status), "%s should not be terminal", status)
	}
}

func TestAllPrepared(t *testing.T) {
	order := &JigOrder{}
	assert.False(t, order.AllPrepared(), "an order with no lines is never fully prepared")

	order.Details = []JigOrderDetail{{IsPrepared: true}, {IsPrepared: false}}
	assert.False(t, order.AllPrepared())

	order.Details[1].IsPrepared = true
	assert.True(t, order.AllPrepared())
}

func TestValidOrderPriority(t *testing.T) {
	for _, p := range []string{OrderPriorityLow, OrderPriorityNormal, OrderPriorityHigh, OrderPriorityUrgent} {
		assert.True(t, ValidOrderPriority(p))
	}
	assert.False(t, ValidOrderPriority("ASAP"))
	assert.False(t, ValidOrderPriority(""))
}
