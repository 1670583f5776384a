package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bookline/service-booking/internal/domain/availability"
	"github.com/bookline/service-booking/internal/domain/schedule"
	"github.com/bookline/service-booking/internal/pkg/database"
	"github.com/bookline/service-booking/internal/pkg/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AvailabilityModel is the GORM model for the availability table.
type AvailabilityModel struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey"`
	MemberID   *uuid.UUID `gorm:"type:uuid;index:idx_availability_member"`
	ResourceID *uuid.UUID `gorm:"type:uuid;index:idx_availability_resource"`
	DayOfWeek  string     `gorm:"size:3;not null;index:idx_availability_day_of_week"`
	StartAt    time.Time  `gorm:"type:timestamptz;not null"`
	EndAt      time.Time  `gorm:"type:timestamptz;not null"`
	CreatedAt  time.Time  `gorm:"not null"`
	UpdatedAt  time.Time  `gorm:"not null"`
}

func (AvailabilityModel) TableName() string { return "availability" }

// weekOrder sorts day_of_week Monday first rather than alphabetically.
const weekOrder = "array_position(ARRAY['Mon','Tue','Wed','Thu','Fri','Sat','Sun']::text[], day_of_week::text)"

// GormAvailabilityRepository is the GORM-based implementation of availability.Repository.
type GormAvailabilityRepository struct {
	db *gorm.DB
}

func NewGormAvailabilityRepository(db *gorm.DB) *GormAvailabilityRepository {
	return &GormAvailabilityRepository{db: db}
}

func (r *GormAvailabilityRepository) FindByID(ctx context.Context, id uuid.UUID) (*availability.Availability, error) {
	var model AvailabilityModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("availability", id.String())
		}
		return nil, fmt.Errorf("failed to find availability by ID: %w", err)
	}
	return toDomainAvailability(&model)
}

func (r *GormAvailabilityRepository) List(ctx context.Context, filter availability.ListFilter, page, limit int) ([]*availability.Availability, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		if filter.MemberID != nil {
			db = db.Where("member_id = ?", *filter.MemberID)
		}
		if filter.ResourceID != nil {
			db = db.Where("resource_id = ?", *filter.ResourceID)
		}
		if filter.Day != nil {
			db = db.Where("day_of_week = ?", filter.Day.String())
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&AvailabilityModel{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count availability: %w", err)
	}

	var models []AvailabilityModel
	if err := r.db.WithContext(ctx).
		Scopes(scope).
		Order(weekOrder).
		Order("start_at ASC, id ASC").
		Scopes(paginate(page, limit)).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list availability: %w", err)
	}

	windows := make([]*availability.Availability, len(models))
	for i := range models {
		a, err := toDomainAvailability(&models[i])
		if err != nil {
			return nil, 0, err
		}
		windows[i] = a
	}
	return windows, total, nil
}

func (r *GormAvailabilityRepository) Save(ctx context.Context, a *availability.Availability) error {
	if err := r.db.WithContext(ctx).Create(toAvailabilityModel(a)).Error; err != nil {
		return mapAvailabilityError("save", err)
	}
	return nil
}

func (r *GormAvailabilityRepository) Update(ctx context.Context, a *availability.Availability) error {
	model := toAvailabilityModel(a)
	result := r.db.WithContext(ctx).
		Model(&AvailabilityModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"member_id":   model.MemberID,
			"resource_id": model.ResourceID,
			"day_of_week": model.DayOfWeek,
			"start_at":    model.StartAt,
			"end_at":      model.EndAt,
			"updated_at":  model.UpdatedAt,
		})
	if result.Error != nil {
		return mapAvailabilityError("update", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("availability", model.ID.String())
	}
	return nil
}

func (r *GormAvailabilityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.db, &AvailabilityModel{}, "availability", id)
}

func mapAvailabilityError(op string, err error) error {
	if database.IsForeignKeyViolation(err) {
		return domain.NewValidationError("availability references a missing member or resource").
			WithCode("FOREIGN_KEY_INVALID").
			WithDetails(map[string]string{"constraint": database.ConstraintName(err)})
	}
	return fmt.Errorf("failed to %s availability: %w", op, err)
}

func toAvailabilityModel(a *availability.Availability) *AvailabilityModel {
	return &AvailabilityModel{
		ID:         a.ID(),
		MemberID:   a.MemberID(),
		ResourceID: a.ResourceID(),
		DayOfWeek:  a.Day().String(),
		StartAt:    a.Window().Start(),
		EndAt:      a.Window().End(),
		CreatedAt:  a.CreatedAt(),
		UpdatedAt:  a.UpdatedAt(),
	}
}

func toDomainAvailability(m *AvailabilityModel) (*availability.Availability, error) {
	window, err := schedule.NewTimeWindow(m.StartAt, m.EndAt)
	if err != nil {
		return nil, fmt.Errorf("availability %s has a corrupt window: %w", m.ID, err)
	}
	return availability.Reconstruct(
		m.ID,
		m.MemberID,
		m.ResourceID,
		availability.Weekday(m.DayOfWeek),
		window,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}
