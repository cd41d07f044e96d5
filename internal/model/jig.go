package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JigDetailStatus enum constants
const (
	JigDetailStatusNew     = "NEW"
	JigDetailStatusStorage = "STORAGE"
	JigDetailStatusLine    = "LINE"
	JigDetailStatusRepair  = "REPAIR"
	JigDetailStatusScrap   = "SCRAP"
	JigDetailStatusVendor  = "VENDOR"
)

// ValidJigDetailStatus reports whether s is a known jig detail status.
func ValidJigDetailStatus(s string) bool {
	switch s {
	case JigDetailStatusNew, JigDetailStatusStorage, JigDetailStatusLine,
		JigDetailStatusRepair, JigDetailStatusScrap, JigDetailStatusVendor:
		return true
	}
	return false
}

// Jig represents a production fixture master record. Its individually
// tracked sub-units are JigDetails.
type Jig struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code        string         `gorm:"type:varchar(100);uniqueIndex;not null" json:"code"`
	Name        string         `gorm:"type:varchar(255);not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	// CachedAvailable is a derived count of details currently in storage.
	// It is only ever rewritten by the stock recompute, never hand-maintained.
	CachedAvailable int        `gorm:"type:int;default:0" json:"cached_available"`
	RecomputedAt    *time.Time `json:"recomputed_at"`
	Details         []JigDetail `gorm:"foreignKey:JigID" json:"details,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// JigDetail is an individually tracked physical sub-unit of a jig. Its
// current whereabouts are stored as three mutually-exclusive references
// materialized from a Placement value; the Version token guards every
// write with an optimistic concurrency check.
type JigDetail struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	JigID        uuid.UUID `gorm:"type:uuid;not null;index" json:"jig_id"`
	Jig          *Jig      `gorm:"foreignKey:JigID" json:"jig,omitempty"`
	Code         string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"code"`
	ExternalCode string    `gorm:"type:varchar(100)" json:"external_code"`
	Status       string    `gorm:"type:varchar(20);not null;index" json:"status"`

	LocationID *uuid.UUID `gorm:"type:uuid;index" json:"location_id"`
	LineID     *uuid.UUID `gorm:"type:uuid;index" json:"line_id"`
	VendorID   *uuid.UUID `gorm:"type:uuid;index" json:"vendor_id"`

	// Default placement snapshot, captured and restored on demand,
	// independent of the current placement.
	DefaultLocationID *uuid.UUID `gorm:"type:uuid" json:"default_location_id"`
	DefaultLineID     *uuid.UUID `gorm:"type:uuid" json:"default_line_id"`
	DefaultVendorID   *uuid.UUID `gorm:"type:uuid" json:"default_vendor_id"`

	// Version is the optimistic concurrency token. Every successful write
	// rejects stale readers and reissues a fresh value.
	Version string `gorm:"type:varchar(36);not null" json:"version"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Placement returns the detail's current placement as a tagged union.
func (d *JigDetail) Placement() Placement {
	switch {
	case d.LocationID != nil:
		return AtLocation(*d.LocationID)
	case d.LineID != nil:
		return AtLine(*d.LineID)
	case d.VendorID != nil:
		return AtVendor(*d.VendorID)
	}
	return NoPlacement()
}

// SetPlacement overwrites the current placement, clearing whichever of the
// three references does not match the new kind.
func (d *JigDetail) SetPlacement(p Placement) {
	d.LocationID, d.LineID, d.VendorID = nil, nil, nil
	switch p.Kind {
	case PlacementLocation:
		id := p.ID
		d.LocationID = &id
	case PlacementLine:
		id := p.ID
		d.LineID = &id
	case PlacementVendor:
		id := p.ID
		d.VendorID = &id
	}
}

// DefaultPlacement returns the stored default placement snapshot.
func (d *JigDetail) DefaultPlacement() Placement {
	switch {
	case d.DefaultLocationID != nil:
		return AtLocation(*d.DefaultLocationID)
	case d.DefaultLineID != nil:
		return AtLine(*d.DefaultLineID)
	case d.DefaultVendorID != nil:
		return AtVendor(*d.DefaultVendorID)
	}
	return NoPlacement()
}

// CaptureDefault copies the current placement into the default snapshot.
func (d *JigDetail) CaptureDefault() {
	d.DefaultLocationID, d.DefaultLineID, d.DefaultVendorID = nil, nil, nil
	switch p := d.Placement(); p.Kind {
	case PlacementLocation:
		id := p.ID
		d.DefaultLocationID = &id
	case PlacementLine:
		id := p.ID
		d.DefaultLineID = &id
	case PlacementVendor:
		id := p.ID
		d.DefaultVendorID = &id
	}
}

// RestoreDefault copies the default snapshot back into the current
// placement, but only when the snapshot agrees with the present status.
// Restoring a location default while the detail sits on a line is a no-op.
// Returns true if the placement changed.
func (d *JigDetail) RestoreDefault() bool {
	def := d.DefaultPlacement()
	if def.IsNone() || !def.AgreesWith(d.Status) {
		return false
	}
	d.SetPlacement(def)
	return true
}
