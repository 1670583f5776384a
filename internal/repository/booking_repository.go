package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bookline/service-booking/internal/domain/blockedslot"
	bookingDomain "github.com/bookline/service-booking/internal/domain/booking"
	"github.com/bookline/service-booking/internal/domain/schedule"
	"github.com/bookline/service-booking/internal/pkg/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	CustomerID uuid.UUID `gorm:"type:uuid;index;not null"`
	StaffID    uuid.UUID `gorm:"type:uuid;index:idx_bookings_staff_window;not null"`
	ResourceID uuid.UUID `gorm:"type:uuid;index:idx_bookings_resource_window;not null"`
	ServiceID  uuid.UUID `gorm:"type:uuid;index;not null"`
	StartAt    time.Time `gorm:"type:timestamptz;not null;index:idx_bookings_staff_window,priority:2;index:idx_bookings_resource_window,priority:2"`
	EndAt      time.Time `gorm:"type:timestamptz;not null"`
	Status     string    `gorm:"not null;size:20;index"`
	Notes      string    `gorm:"size:2000"`
	Version    int64     `gorm:"not null;default:1"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository
// and AdmissionStore.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	return findBooking(r.db.WithContext(ctx), id)
}

// List retrieves bookings matching filter, ordered by start.
func (r *GormBookingRepository) List(ctx context.Context, filter bookingDomain.ListFilter, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).Scopes(bookingFilter(filter)).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Scopes(bookingFilter(filter)).
		Order("start_at ASC, id ASC").
		Scopes(paginate(page, limit)).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	bookings, err := toDomainBookings(models)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

func bookingFilter(f bookingDomain.ListFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.CustomerID != nil {
			db = db.Where("customer_id = ?", *f.CustomerID)
		}
		if f.StaffID != nil {
			db = db.Where("staff_id = ?", *f.StaffID)
		}
		if f.ResourceID != nil {
			db = db.Where("resource_id = ?", *f.ResourceID)
		}
		if f.ServiceID != nil {
			db = db.Where("service_id = ?", *f.ServiceID)
		}
		if f.Status != nil {
			db = db.Where("status = ?", f.Status.String())
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

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// FindConflictingBookings runs the booking half of a conflict check outside a transaction.
func (r *GormBookingRepository) FindConflictingBookings(ctx context.Context, q bookingDomain.ConflictQuery) ([]*bookingDomain.Booking, error) {
	return findConflictingBookings(r.db.WithContext(ctx), q)
}

// FindConflictingBlockedSlots runs the blocked slot half of a conflict check outside a transaction.
func (r *GormBookingRepository) FindConflictingBlockedSlots(ctx context.Context, q bookingDomain.ConflictQuery) ([]*blockedslot.BlockedSlot, error) {
	return findConflictingBlockedSlots(r.db.WithContext(ctx), q)
}

// InTransaction runs fn in a SERIALIZABLE transaction. Postgres aborts one of
// two transactions whose overlap reads and inserts interleave; that abort is
// reported as ErrSerializationFailure.
func (r *GormBookingRepository) InTransaction(ctx context.Context, fn func(ctx context.Context, tx bookingDomain.AdmissionTx) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &gormAdmissionTx{db: tx})
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil && database.IsSerializationFailure(err) {
		return fmt.Errorf("admission transaction: %w", bookingDomain.ErrSerializationFailure)
	}
	return err
}

// gormAdmissionTx binds the admission operations to one open transaction.
type gormAdmissionTx struct {
	db *gorm.DB
}

func (t *gormAdmissionTx) FindConflictingBookings(_ context.Context, q bookingDomain.ConflictQuery) ([]*bookingDomain.Booking, error) {
	return findConflictingBookings(t.db, q)
}

func (t *gormAdmissionTx) FindConflictingBlockedSlots(_ context.Context, q bookingDomain.ConflictQuery) ([]*blockedslot.BlockedSlot, error) {
	return findConflictingBlockedSlots(t.db, q)
}

func (t *gormAdmissionTx) MemberExists(_ context.Context, id uuid.UUID) (bool, error) {
	return exists(t.db, &MemberModel{}, id)
}

func (t *gormAdmissionTx) ResourceExists(_ context.Context, id uuid.UUID) (bool, error) {
	return exists(t.db, &ResourceModel{}, id)
}

func (t *gormAdmissionTx) ServiceDuration(_ context.Context, id uuid.UUID) (int, bool, error) {
	var model ServiceModel
	if err := t.db.Select("id", "duration_min").Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to look up service: %w", err)
	}
	return model.DurationMin, true, nil
}

func (t *gormAdmissionTx) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	return findBooking(t.db, id)
}

func (t *gormAdmissionTx) Insert(_ context.Context, bk *bookingDomain.Booking) error {
	if err := t.db.Create(toBookingModel(bk)).Error; err != nil {
		if database.IsForeignKeyViolation(err) {
			return bookingDomain.ErrForeignKeyInvalid.WithDetails(map[string]string{"constraint": database.ConstraintName(err)})
		}
		return fmt.Errorf("failed to save booking: %w", err)
	}
	return nil
}

// Update persists a revised booking with optimistic locking on version.
func (t *gormAdmissionTx) Update(_ context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)
	expectedVersion := bk.Version() - 1
	result := t.db.
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"customer_id": model.CustomerID,
			"staff_id":    model.StaffID,
			"resource_id": model.ResourceID,
			"service_id":  model.ServiceID,
			"start_at":    model.StartAt,
			"end_at":      model.EndAt,
			"status":      model.Status,
			"notes":       model.Notes,
			"version":     model.Version,
			"updated_at":  model.UpdatedAt,
		})

	if result.Error != nil {
		if database.IsForeignKeyViolation(result.Error) {
			return bookingDomain.ErrForeignKeyInvalid.WithDetails(map[string]string{"constraint": database.ConstraintName(result.Error)})
		}
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}

	// A stale version means a concurrent revision won; retrying re-reads it.
	if result.RowsAffected == 0 {
		return fmt.Errorf("booking %s at version %d: %w", model.ID, expectedVersion, bookingDomain.ErrSerializationFailure)
	}
	return nil
}

func (t *gormAdmissionTx) Delete(_ context.Context, id uuid.UUID) error {
	result := t.db.Where("id = ?", id).Delete(&BookingModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return bookingDomain.NewNotFoundError(id)
	}
	return nil
}

// --- Queries shared by the store and its transactions ---

func findBooking(db *gorm.DB, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := db.Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bookingDomain.NewNotFoundError(id)
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

func findConflictingBookings(db *gorm.DB, q bookingDomain.ConflictQuery) ([]*bookingDomain.Booking, error) {
	query := db.
		Where("(staff_id = ? OR resource_id = ?)", q.StaffID, q.ResourceID).
		Where("start_at < ? AND end_at > ?", q.Window.End(), q.Window.Start()).
		Where("status <> ?", bookingDomain.StatusCancelled.String())
	if q.ExcludeBookingID != nil {
		query = query.Where("id <> ?", *q.ExcludeBookingID)
	}

	var models []BookingModel
	if err := query.Order("start_at ASC, id ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find conflicting bookings: %w", err)
	}
	return toDomainBookings(models)
}

func findConflictingBlockedSlots(db *gorm.DB, q bookingDomain.ConflictQuery) ([]*blockedslot.BlockedSlot, error) {
	var models []BlockedSlotModel
	if err := db.
		Where("(subject_id = ? OR resource_id = ?)", q.StaffID, q.ResourceID).
		Where("start_at < ? AND end_at > ?", q.Window.End(), q.Window.Start()).
		Order("start_at ASC, id ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find conflicting blocked slots: %w", err)
	}
	return toDomainBlockedSlots(models)
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	return &BookingModel{
		ID:         bk.ID(),
		CustomerID: bk.CustomerID(),
		StaffID:    bk.StaffID(),
		ResourceID: bk.ResourceID(),
		ServiceID:  bk.ServiceID(),
		StartAt:    bk.Window().Start(),
		EndAt:      bk.Window().End(),
		Status:     bk.Status().String(),
		Notes:      bk.Notes(),
		Version:    bk.Version(),
		CreatedAt:  bk.CreatedAt(),
		UpdatedAt:  bk.UpdatedAt(),
	}
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}
	window, err := schedule.NewTimeWindow(m.StartAt, m.EndAt)
	if err != nil {
		return nil, fmt.Errorf("booking %s has a corrupt window: %w", m.ID, err)
	}

	return bookingDomain.ReconstructBooking(
		m.ID,
		m.CustomerID,
		m.StaffID,
		m.ResourceID,
		m.ServiceID,
		window,
		status,
		m.Notes,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}

func toDomainBookings(models []BookingModel) ([]*bookingDomain.Booking, error) {
	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bk, err := toDomainBooking(&models[i])
		if err != nil {
			return nil, err
		}
		bookings[i] = bk
	}
	return bookings, nil
}
