package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bookline/service-booking/internal/domain/blockedslot"
	"github.com/bookline/service-booking/internal/domain/schedule"
	"github.com/bookline/service-booking/internal/pkg/database"
	"github.com/bookline/service-booking/internal/pkg/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BlockedSlotModel is the GORM model for the blocked_slots table.
type BlockedSlotModel struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey"`
	SubjectID  *uuid.UUID `gorm:"type:uuid;index:idx_blocked_slots_subject_window"`
	ResourceID *uuid.UUID `gorm:"type:uuid;index:idx_blocked_slots_resource_window"`
	StartAt    time.Time  `gorm:"type:timestamptz;not null;index:idx_blocked_slots_subject_window,priority:2;index:idx_blocked_slots_resource_window,priority:2"`
	EndAt      time.Time  `gorm:"type:timestamptz;not null"`
	Reason     string     `gorm:"size:500"`
	CreatedBy  *uuid.UUID `gorm:"type:uuid"`
	CreatedAt  time.Time  `gorm:"not null"`
	UpdatedAt  time.Time  `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BlockedSlotModel) TableName() string {
	return "blocked_slots"
}

// GormBlockedSlotRepository is the GORM-based implementation of blockedslot.Repository.
type GormBlockedSlotRepository struct {
	db *gorm.DB
}

// NewGormBlockedSlotRepository creates a new GormBlockedSlotRepository.
func NewGormBlockedSlotRepository(db *gorm.DB) *GormBlockedSlotRepository {
	return &GormBlockedSlotRepository{db: db}
}

// FindByID retrieves a blocked slot by its unique identifier.
func (r *GormBlockedSlotRepository) FindByID(ctx context.Context, id uuid.UUID) (*blockedslot.BlockedSlot, error) {
	return findBlockedSlot(r.db.WithContext(ctx), id)
}

func findBlockedSlot(db *gorm.DB, id uuid.UUID) (*blockedslot.BlockedSlot, error) {
	var model BlockedSlotModel
	if err := db.Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("blocked slot", id.String())
		}
		return nil, fmt.Errorf("failed to find blocked slot by ID: %w", err)
	}
	return toDomainBlockedSlot(&model)
}

// List retrieves blocked slots matching filter, ordered by start.
func (r *GormBlockedSlotRepository) List(ctx context.Context, filter blockedslot.ListFilter, page, limit int) ([]*blockedslot.BlockedSlot, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&BlockedSlotModel{}).Scopes(blockedSlotFilter(filter)).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count blocked slots: %w", err)
	}

	var models []BlockedSlotModel
	if err := r.db.WithContext(ctx).
		Scopes(blockedSlotFilter(filter)).
		Order("start_at ASC, id ASC").
		Scopes(paginate(page, limit)).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list blocked slots: %w", err)
	}

	slots, err := toDomainBlockedSlots(models)
	if err != nil {
		return nil, 0, err
	}
	return slots, total, nil
}

func blockedSlotFilter(f blockedslot.ListFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.SubjectID != nil {
			db = db.Where("subject_id = ?", *f.SubjectID)
		}
		if f.ResourceID != nil {
			db = db.Where("resource_id = ?", *f.ResourceID)
		}
		if f.From != nil {
			db = db.Where("end_at > ?", *f.From)
		}
		if f.To != nil {
			db = db.Where("start_at < ?", *f.To)
		}
		return db
	}
}

// FindOverlapping returns slots of exactly the (subject, resource) pair that
// overlap window. A nil reference only matches a NULL column.
func (r *GormBlockedSlotRepository) FindOverlapping(ctx context.Context, subjectID, resourceID *uuid.UUID, window schedule.TimeWindow, excludeID *uuid.UUID) ([]*blockedslot.BlockedSlot, error) {
	return findOverlappingBlockedSlots(r.db.WithContext(ctx), subjectID, resourceID, window, excludeID)
}

func findOverlappingBlockedSlots(db *gorm.DB, subjectID, resourceID *uuid.UUID, window schedule.TimeWindow, excludeID *uuid.UUID) ([]*blockedslot.BlockedSlot, error) {
	query := db.
		Where("subject_id IS NOT DISTINCT FROM ?", nullable(subjectID)).
		Where("resource_id IS NOT DISTINCT FROM ?", nullable(resourceID)).
		Where("start_at < ? AND end_at > ?", window.End(), window.Start())
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}

	var models []BlockedSlotModel
	if err := query.Order("start_at ASC, id ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find overlapping blocked slots: %w", err)
	}
	return toDomainBlockedSlots(models)
}

// InTransaction runs fn in a SERIALIZABLE transaction, so two writers that
// both find no overlap for the same pair cannot both commit.
func (r *GormBlockedSlotRepository) InTransaction(ctx context.Context, fn func(ctx context.Context, tx blockedslot.WriteTx) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &gormBlockedSlotTx{db: tx})
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil && database.IsSerializationFailure(err) {
		return fmt.Errorf("blocked slot transaction: %w", schedule.ErrSerializationFailure)
	}
	return err
}

// gormBlockedSlotTx binds blocked slot writes to one open transaction.
type gormBlockedSlotTx struct {
	db *gorm.DB
}

func (t *gormBlockedSlotTx) FindByID(_ context.Context, id uuid.UUID) (*blockedslot.BlockedSlot, error) {
	return findBlockedSlot(t.db, id)
}

func (t *gormBlockedSlotTx) FindOverlapping(_ context.Context, subjectID, resourceID *uuid.UUID, window schedule.TimeWindow, excludeID *uuid.UUID) ([]*blockedslot.BlockedSlot, error) {
	return findOverlappingBlockedSlots(t.db, subjectID, resourceID, window, excludeID)
}

func (t *gormBlockedSlotTx) Save(_ context.Context, slot *blockedslot.BlockedSlot) error {
	if err := t.db.Create(toBlockedSlotModel(slot)).Error; err != nil {
		return mapBlockedSlotError("save", err)
	}
	return nil
}

func (t *gormBlockedSlotTx) Update(_ context.Context, slot *blockedslot.BlockedSlot) error {
	model := toBlockedSlotModel(slot)
	result := t.db.
		Model(&BlockedSlotModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"subject_id":  model.SubjectID,
			"resource_id": model.ResourceID,
			"start_at":    model.StartAt,
			"end_at":      model.EndAt,
			"reason":      model.Reason,
			"updated_at":  model.UpdatedAt,
		})
	if result.Error != nil {
		return mapBlockedSlotError("update", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("blocked slot", model.ID.String())
	}
	return nil
}

// Delete removes a blocked slot.
func (r *GormBlockedSlotRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&BlockedSlotModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete blocked slot: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("blocked slot", id.String())
	}
	return nil
}

func mapBlockedSlotError(op string, err error) error {
	if database.IsForeignKeyViolation(err) {
		return domain.NewValidationError("blocked slot references a missing member or resource").
			WithCode("FOREIGN_KEY_INVALID").
			WithDetails(map[string]string{"constraint": database.ConstraintName(err)})
	}
	return fmt.Errorf("failed to %s blocked slot: %w", op, err)
}

func nullable(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return *id
}

// --- Conversion Helpers ---

func toBlockedSlotModel(s *blockedslot.BlockedSlot) *BlockedSlotModel {
	return &BlockedSlotModel{
		ID:         s.ID(),
		SubjectID:  s.SubjectID(),
		ResourceID: s.ResourceID(),
		StartAt:    s.Window().Start(),
		EndAt:      s.Window().End(),
		Reason:     s.Reason(),
		CreatedBy:  s.CreatedBy(),
		CreatedAt:  s.CreatedAt(),
		UpdatedAt:  s.UpdatedAt(),
	}
}

func toDomainBlockedSlot(m *BlockedSlotModel) (*blockedslot.BlockedSlot, error) {
	window, err := schedule.NewTimeWindow(m.StartAt, m.EndAt)
	if err != nil {
		return nil, fmt.Errorf("blocked slot %s has a corrupt window: %w", m.ID, err)
	}
	return blockedslot.Reconstruct(
		m.ID,
		m.SubjectID,
		m.ResourceID,
		window,
		m.Reason,
		m.CreatedBy,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}

func toDomainBlockedSlots(models []BlockedSlotModel) ([]*blockedslot.BlockedSlot, error) {
	slots := make([]*blockedslot.BlockedSlot, len(models))
	for i := range models {
		s, err := toDomainBlockedSlot(&models[i])
		if err != nil {
			return nil, err
		}
		slots[i] = s
	}
	return slots, nil
}
