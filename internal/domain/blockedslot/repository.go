package blockedslot

import (
	"context"
	"time"

	"github.com/bookline/service-booking/internal/domain/schedule"
	"github.com/google/uuid"
)

// ListFilter narrows List. From/To select slots overlapping the range.
type ListFilter struct {
	SubjectID  *uuid.UUID
	ResourceID *uuid.UUID
	From       *time.Time
	To         *time.Time
}

// OverlapFinder looks up slots of one (subject, resource) pair.
type OverlapFinder interface {
	// FindOverlapping returns slots for exactly the (subject, resource) pair,
	// NULLs included, that overlap window. excludeID skips one slot.
	FindOverlapping(ctx context.Context, subjectID, resourceID *uuid.UUID, window schedule.TimeWindow, excludeID *uuid.UUID) ([]*BlockedSlot, error)
}

// WriteTx is the write path for blocked slots. It is valid for the duration
// of one Repository.InTransaction callback.
type WriteTx interface {
	OverlapFinder
	FindByID(ctx context.Context, id uuid.UUID) (*BlockedSlot, error)
	Save(ctx context.Context, slot *BlockedSlot) error
	Update(ctx context.Context, slot *BlockedSlot) error
}

// Repository defines the persistence contract for blocked slots.
type Repository interface {
	OverlapFinder
	FindByID(ctx context.Context, id uuid.UUID) (*BlockedSlot, error)
	List(ctx context.Context, filter ListFilter, page, limit int) ([]*BlockedSlot, int64, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// InTransaction runs fn atomically with respect to concurrent writes of
	// the same pair. A transaction that loses such a race fails with an error
	// wrapping schedule.ErrSerializationFailure and has no effect.
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx WriteTx) error) error
}
