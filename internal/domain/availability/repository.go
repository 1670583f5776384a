package availability

import (
	"context"

	"github.com/google/uuid"
)

// ListFilter narrows List. Nil fields are ignored.
type ListFilter struct {
	MemberID   *uuid.UUID
	ResourceID *uuid.UUID
	Day        *Weekday
}

// Repository defines the persistence contract for availability windows.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Availability, error)
	// List returns windows ordered by day of week, Monday first, then start.
	List(ctx context.Context, filter ListFilter, page, limit int) ([]*Availability, int64, error)
	Save(ctx context.Context, a *Availability) error
	Update(ctx context.Context, a *Availability) error
	Delete(ctx context.Context, id uuid.UUID) error
}
