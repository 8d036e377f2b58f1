package audit

import (
	"log"

	"pos-backend/internal/models"

	"gorm.io/gorm"
)

type LogOptions struct {
	OutletID    *uint
	UserID      uint
	UserName    string
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
}

// WriteLog appends one audit row. Auditing is best effort and never
// blocks the operation it records; callers log the returned error.
func WriteLog(db *gorm.DB, opts LogOptions) error {
	row := models.AuditLog{
		OutletID:    opts.OutletID,
		UserID:      opts.UserID,
		UserName:    opts.UserName,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
	}

	if err := db.Create(&row).Error; err != nil {
		log.Printf("audit: failed to write %s/%d: %v", opts.EntityType, opts.EntityID, err)
		return err
	}
	return nil
}
