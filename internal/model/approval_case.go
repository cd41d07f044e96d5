package model

import (
	"time"

	"github.com/google/uuid"
)

// ApprovalStatus enum constants
const (
	ApprovalPending  = "PENDING"
	ApprovalApproved = "APPROVED"
	ApprovalRejected = "REJECTED"
)

// ApprovalEntityOrder is the entity type tag the order engine registers
// its cases under.
const ApprovalEntityOrder = "order"

// ApprovalCase is one externally-visible sign-off process opened for a
// business entity. The order engine only opens cases and reacts to their
// terminal approve/reject decisions; workflow definitions, escalation and
// timeouts belong to the approval subsystem.
type ApprovalCase struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	WorkflowCode string    `gorm:"type:varchar(100);not null;index" json:"workflow_code"`
	EntityType   string    `gorm:"type:varchar(50);not null;index" json:"entity_type"`
	EntityID     uuid.UUID `gorm:"type:uuid;not null;index" json:"entity_id"`
	Title        string    `gorm:"type:varchar(255);not null" json:"title"`
	Description  string    `gorm:"type:text" json:"description"`
	Priority     string    `gorm:"type:varchar(10);not null;default:'NORMAL'" json:"priority"`
	Status       string    `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`

	RequestedBy *uuid.UUID `gorm:"type:uuid;index" json:"requested_by"`
	Requester   *User      `gorm:"foreignKey:RequestedBy" json:"requester,omitempty"`
	DecidedBy   *uuid.UUID `gorm:"type:uuid" json:"decided_by"`
	Decider     *User      `gorm:"foreignKey:DecidedBy" json:"decider,omitempty"`
	DecidedAt   *time.Time `json:"decided_at"`
	Comments    string     `gorm:"type:text" json:"comments"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
