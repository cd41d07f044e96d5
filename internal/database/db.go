package database

import (
	"log"

	"jigtrack/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM.
// TranslateError is on so unique violations surface as
// gorm.ErrDuplicatedKey, which the order code generator retries on.
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.User{},
		&model.StorageLocation{},
		&model.ProductionLine{},
		&model.Vendor{},
		&model.Jig{},
		&model.JigDetail{},
		&model.JigOrder{},
		&model.JigOrderDetail{},
		&model.LedgerEntry{},
		&model.ApprovalCase{},
	)
	if err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}
