package repository

import (
	"fmt"

	"github.com/bookline/service-booking/internal/pkg/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func paginate(page, limit int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(domain.Offset(page, limit)).Limit(limit)
	}
}

func exists(db *gorm.DB, model any, id uuid.UUID) (bool, error) {
	var n int64
	if err := db.Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}
	return n > 0, nil
}

// Models lists every table model, in dependency order, for development auto-migration.
func Models() []any {
	return []any{
		&MemberModel{},
		&ResourceModel{},
		&ServiceModel{},
		&BookingModel{},
		&BlockedSlotModel{},
		&AvailabilityModel{},
		&PaymentModel{},
		&AuditLogModel{},
	}
}
