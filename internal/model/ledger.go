package model

import (
	"time"

	"github.com/google/uuid"
)

// MovementType enum constants
const (
	MovementNew      = "NEW"
	MovementIn       = "IN"
	MovementOut      = "OUT"
	MovementScrap    = "SCRAP"
	MovementRepaired = "REPAIRED"
)

// MovementSign returns the sign a movement type applies to stock:
// NEW/IN/REPAIRED add, OUT/SCRAP subtract. Zero for unknown types.
func MovementSign(movementType string) int {
	switch movementType {
	case MovementNew, MovementIn, MovementRepaired:
		return 1
	case MovementOut, MovementScrap:
		return -1
	}
	return 0
}

// LedgerEntry is an immutable, append-only movement record for one jig
// detail. Entries are never edited or deleted; stock is always derivable
// by replaying them.
type LedgerEntry struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	JigDetailID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"jig_detail_id"`
	JigDetail    *JigDetail `gorm:"foreignKey:JigDetailID" json:"jig_detail,omitempty"`
	OrderID      *uuid.UUID `gorm:"type:uuid;index" json:"order_id"` // nil for manual adjustments
	MovementType string     `gorm:"type:varchar(10);not null" json:"movement_type"`
	// Quantity is signed: positive for NEW/IN/REPAIRED, negative for
	// OUT/SCRAP, so a plain sum over entries yields the net movement.
	Quantity    int       `gorm:"type:int;not null" json:"quantity"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}
