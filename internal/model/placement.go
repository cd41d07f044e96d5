package model

import (
	"fmt"

	"github.com/google/uuid"
)

// PlacementKind enum constants
const (
	PlacementNone     = "NONE"
	PlacementLocation = "LOCATION"
	PlacementLine     = "LINE"
	PlacementVendor   = "VENDOR"
)

// Placement is a tagged union describing where a jig detail currently sits:
// nowhere, in a storage location, on a production line, or with a vendor.
// At most one reference is ever populated; modeling it as a single value
// keeps the "status must agree with placement" rule in one place instead of
// three independently-nullable columns.
type Placement struct {
	Kind string    `json:"kind"`
	ID   uuid.UUID `json:"id,omitempty"`
}

func NoPlacement() Placement {
	return Placement{Kind: PlacementNone}
}

func AtLocation(id uuid.UUID) Placement {
	return Placement{Kind: PlacementLocation, ID: id}
}

func AtLine(id uuid.UUID) Placement {
	return Placement{Kind: PlacementLine, ID: id}
}

func AtVendor(id uuid.UUID) Placement {
	return Placement{Kind: PlacementVendor, ID: id}
}

func (p Placement) IsNone() bool {
	return p.Kind == PlacementNone || p.Kind == ""
}

// AgreesWith reports whether this placement is allowed for the given jig
// detail status. A detail can always be placed nowhere; otherwise STORAGE
// details live in locations, LINE details on lines, VENDOR details with
// vendors, and NEW/REPAIR/SCRAP details may only carry a location.
func (p Placement) AgreesWith(status string) bool {
	if p.IsNone() {
		return true
	}
	switch status {
	case JigDetailStatusStorage, JigDetailStatusNew, JigDetailStatusRepair, JigDetailStatusScrap:
		return p.Kind == PlacementLocation
	case JigDetailStatusLine:
		return p.Kind == PlacementLine
	case JigDetailStatusVendor:
		return p.Kind == PlacementVendor
	default:
		return false
	}
}

func (p Placement) String() string {
	if p.IsNone() {
		return "none"
	}
	return fmt.Sprintf("%s:%s", p.Kind, p.ID)
}
