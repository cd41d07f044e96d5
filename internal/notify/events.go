package notify

import (
	"time"

	"github.com/google/uuid"
)

// Event is one notification intent raised by the order engine. Each kind is
// its own struct so payload shapes are checked at compile time instead of
// living in free-form maps.
type Event interface {
	EventKey() string
}

type OrderCreated struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderCode   string    `json:"order_code"`
	RequestedBy uuid.UUID `json:"requested_by"`
	Priority    string    `json:"priority"`
	RequiredBy  time.Time `json:"required_by"`
	LineCount   int       `json:"line_count"`
}

func (OrderCreated) EventKey() string { return "jig_order.created" }

type OrderSubmitted struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderCode   string    `json:"order_code"`
	RequestedBy uuid.UUID `json:"requested_by"`
	Priority    string    `json:"priority"`
}

func (OrderSubmitted) EventKey() string { return "jig_order.submitted" }

type OrderApproved struct {
	OrderID    uuid.UUID `json:"order_id"`
	OrderCode  string    `json:"order_code"`
	ApprovedBy uuid.UUID `json:"approved_by"`
}

func (OrderApproved) EventKey() string { return "jig_order.approved" }

type OrderRejected struct {
	OrderID    uuid.UUID `json:"order_id"`
	OrderCode  string    `json:"order_code"`
	RejectedBy uuid.UUID `json:"rejected_by"`
	Reason     string    `json:"reason"`
}

func (OrderRejected) EventKey() string { return "jig_order.rejected" }

// OrderNeedsPreparation goes to the preparer group right after approval.
type OrderNeedsPreparation struct {
	OrderID    uuid.UUID `json:"order_id"`
	OrderCode  string    `json:"order_code"`
	Priority   string    `json:"priority"`
	RequiredBy time.Time `json:"required_by"`
}

func (OrderNeedsPreparation) EventKey() string { return "jig_order.needs_preparation" }

type OrderReady struct {
	OrderID   uuid.UUID `json:"order_id"`
	OrderCode string    `json:"order_code"`
}

func (OrderReady) EventKey() string { return "jig_order.ready" }

type OrderPartiallyPrepared struct {
	OrderID       uuid.UUID `json:"order_id"`
	OrderCode     string    `json:"order_code"`
	PreparedLines int       `json:"prepared_lines"`
	TotalLines    int       `json:"total_lines"`
}

func (OrderPartiallyPrepared) EventKey() string { return "jig_order.partially_prepared" }

// OrderNotified tells the requester the batch is ready for pickup,
// including where it will be delivered.
type OrderNotified struct {
	OrderID            uuid.UUID  `json:"order_id"`
	OrderCode          string     `json:"order_code"`
	DeliveryLocationID *uuid.UUID `json:"delivery_location_id,omitempty"`
	DeliveryLineID     *uuid.UUID `json:"delivery_line_id,omitempty"`
}

func (OrderNotified) EventKey() string { return "jig_order.notified" }

type OrderCompleted struct {
	OrderID    uuid.UUID `json:"order_id"`
	OrderCode  string    `json:"order_code"`
	ReceivedBy uuid.UUID `json:"received_by"`
}

func (OrderCompleted) EventKey() string { return "jig_order.completed" }

type OrderCancelled struct {
	OrderID   uuid.UUID `json:"order_id"`
	OrderCode string    `json:"order_code"`
	Reason    string    `json:"reason"`
}

func (OrderCancelled) EventKey() string { return "jig_order.cancelled" }
