package model

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus constants
const (
	OrderStatusDraft     = "DRAFT"
	OrderStatusSubmitted = "SUBMITTED"
	OrderStatusApproved  = "APPROVED"
	OrderStatusRejected  = "REJECTED"
	OrderStatusPreparing = "PREPARING"
	OrderStatusReady     = "READY"
	OrderStatusNotified  = "NOTIFIED"
	OrderStatusPickedUp  = "PICKED_UP"
	OrderStatusCancelled = "CANCELLED"
)

// OrderPriority constants
const (
	OrderPriorityLow    = "LOW"
	OrderPriorityNormal = "NORMAL"
	OrderPriorityHigh   = "HIGH"
	OrderPriorityUrgent = "URGENT"
)

// ValidOrderPriority reports whether p is a known priority.
func ValidOrderPriority(p string) bool {
	switch p {
	case OrderPriorityLow, OrderPriorityNormal, OrderPriorityHigh, OrderPriorityUrgent:
		return true
	}
	return false
}

// orderTransitions is the full directed graph of the order lifecycle.
// Rejected, Cancelled and PickedUp are terminal.
var orderTransitions = map[string][]string{
	OrderStatusDraft:     {OrderStatusSubmitted, OrderStatusCancelled},
	OrderStatusSubmitted: {OrderStatusApproved, OrderStatusRejected, OrderStatusCancelled},
	OrderStatusApproved:  {OrderStatusPreparing, OrderStatusCancelled},
	OrderStatusPreparing: {OrderStatusReady, OrderStatusCancelled},
	OrderStatusReady:     {OrderStatusNotified},
	OrderStatusNotified:  {OrderStatusPickedUp},
}

// OrderStatusAllows reports whether the lifecycle graph permits moving an
// order from one status straight to another.
func OrderStatusAllows(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// OrderStatusTerminal reports whether no further transitions exist.
func OrderStatusTerminal(status string) bool {
	return len(orderTransitions[status]) == 0
}

// JigOrder is the aggregate root for a jig hand-off request: one requesting
// party asking for a batch of jig details to be prepared and delivered to a
// storage location or production line.
type JigOrder struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderCode string    `gorm:"type:varchar(20);uniqueIndex;not null" json:"order_code"`
	Status    string    `gorm:"type:varchar(20);not null;default:'DRAFT';index" json:"status"`
	Priority  string    `gorm:"type:varchar(10);not null;default:'NORMAL'" json:"priority"`

	RequestedBy uuid.UUID  `gorm:"type:uuid;not null;index" json:"requested_by"`
	Requester   *User      `gorm:"foreignKey:RequestedBy" json:"requester,omitempty"`
	ApprovedBy  *uuid.UUID `gorm:"type:uuid" json:"approved_by"`
	Approver    *User      `gorm:"foreignKey:ApprovedBy" json:"approver,omitempty"`
	PreparedBy  *uuid.UUID `gorm:"type:uuid" json:"prepared_by"`
	Preparer    *User      `gorm:"foreignKey:PreparedBy" json:"preparer,omitempty"`
	ReceivedBy  *uuid.UUID `gorm:"type:uuid" json:"received_by"`
	Receiver    *User      `gorm:"foreignKey:ReceivedBy" json:"receiver,omitempty"`

	RequestedDate time.Time  `gorm:"not null" json:"requested_date"`
	RequiredDate  time.Time  `gorm:"not null" json:"required_date"`
	ApprovedDate  *time.Time `json:"approved_date"`
	PreparedDate  *time.Time `json:"prepared_date"`
	NotifiedDate  *time.Time `json:"notified_date"`
	PickedUpDate  *time.Time `json:"picked_up_date"`
	CompletedDate *time.Time `json:"completed_date"`

	// Delivery target: at most one of the two is honored. When both are
	// somehow present, the location wins and the line is cleared on pickup.
	DeliveryLocationID *uuid.UUID `gorm:"type:uuid" json:"delivery_location_id"`
	DeliveryLineID     *uuid.UUID `gorm:"type:uuid" json:"delivery_line_id"`

	RejectionReason  string `gorm:"type:text" json:"rejection_reason"`
	PreparationNotes string `gorm:"type:text" json:"preparation_notes"`
	DeliveryNotes    string `gorm:"type:text" json:"delivery_notes"`

	// Metadata holds free-form extension data (approval comments,
	// notification text) as a JSON object. Merged additively by updates.
	Metadata string `gorm:"type:jsonb;default:'{}'" json:"metadata"`

	Details []JigOrderDetail `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"details"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// JigOrderDetail is one (jig detail, quantity) line within an order.
type JigOrderDetail struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"order_id"`
	JigDetailID uuid.UUID  `gorm:"type:uuid;not null;index" json:"jig_detail_id"`
	JigDetail   *JigDetail `gorm:"foreignKey:JigDetailID" json:"jig_detail,omitempty"`

	Quantity int    `gorm:"type:int;not null" json:"quantity"`
	Note     string `gorm:"type:text" json:"note"`

	IsPrepared     bool       `gorm:"default:false" json:"is_prepared"`
	PreparedDate   *time.Time `json:"prepared_date"`
	ActualQuantity *int       `gorm:"type:int" json:"actual_quantity"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AllPrepared reports whether every line of the order has been prepared.
// False for an order with no lines.
func (o *JigOrder) AllPrepared() bool {
	if len(o.Details) == 0 {
		return false
	}
	for _, d := range o.Details {
		if !d.IsPrepared {
			return false
		}
	}
	return true
}
