package repository

import (
	"jigtrack/internal/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// updateVersioned is the one compare-and-swap implementation shared by every
// aggregate guarded by an optimistic version token. It writes the selected
// columns conditioned on the stored version still matching expectedVersion.
// Zero rows affected means either the row vanished (not-found) or another
// writer got there first (conflict); the two are distinguished so callers
// can re-read and retry on conflict.
func updateVersioned(db *gorm.DB, blank interface{}, id uuid.UUID, expectedVersion string, columns []string, values interface{}, entity string) error {
	res := db.Model(blank).
		Where("id = ? AND version = ?", id, expectedVersion).
		Select(columns).
		Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := db.Model(blank).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return apperr.NotFoundf("%s %s not found", entity, id)
	}
	return apperr.Conflictf("%s %s was modified concurrently, re-read and retry", entity, id)
}
