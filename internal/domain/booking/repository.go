package booking

import (
	"context"
	"time"

	"github.com/bookline/service-booking/internal/domain/blockedslot"
	"github.com/google/uuid"
)

// ListFilter narrows List. From/To select bookings overlapping the range.
type ListFilter struct {
	CustomerID *uuid.UUID
	StaffID    *uuid.UUID
	ResourceID *uuid.UUID
	ServiceID  *uuid.UUID
	Status     *BookingStatus
	From       *time.Time
	To         *time.Time
}

// BookingRepository is the read side of booking persistence.
type BookingRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	List(ctx context.Context, filter ListFilter, page, limit int) ([]*Booking, int64, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

// ConflictFinder runs the two overlap lookups of a ConflictQuery. Bookings
// whose status does not occupy are never returned; ExcludeBookingID applies
// to bookings only. Both results are ordered by start.
type ConflictFinder interface {
	FindConflictingBookings(ctx context.Context, q ConflictQuery) ([]*Booking, error)
	FindConflictingBlockedSlots(ctx context.Context, q ConflictQuery) ([]*blockedslot.BlockedSlot, error)
}

// ReferenceChecker verifies that referenced catalog rows exist.
type ReferenceChecker interface {
	MemberExists(ctx context.Context, id uuid.UUID) (bool, error)
	ResourceExists(ctx context.Context, id uuid.UUID) (bool, error)
	// ServiceDuration returns the minimum duration of a service in minutes;
	// zero means the service sets no floor.
	ServiceDuration(ctx context.Context, id uuid.UUID) (minutes int, found bool, err error)
}

// AdmissionTx is the only write path for bookings. It is valid for the
// duration of one AdmissionStore.InTransaction callback.
type AdmissionTx interface {
	ConflictFinder
	ReferenceChecker
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	Insert(ctx context.Context, b *Booking) error
	Update(ctx context.Context, b *Booking) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// AdmissionStore runs admission work atomically with respect to concurrent
// admissions that share a staff member or resource. A transaction that loses
// such a race fails with an error wrapping ErrSerializationFailure and has
// no effect.
type AdmissionStore interface {
	ConflictFinder
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx AdmissionTx) error) error
}
