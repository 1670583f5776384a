package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ListFilter narrows List. From and To bound created_at inclusively.
type ListFilter struct {
	BookingID *uuid.UUID
	Method    string
	Status    *Status
	From      *time.Time
	To        *time.Time
}

// StatusTotal aggregates the payments in one status.
type StatusTotal struct {
	Status      Status
	Count       int64
	AmountCents int64
}

// Repository defines the persistence contract for payments.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	// List returns payments newest first.
	List(ctx context.Context, filter ListFilter, page, limit int) ([]*Payment, int64, error)
	Save(ctx context.Context, p *Payment) error
	Update(ctx context.Context, p *Payment) error
	Delete(ctx context.Context, id uuid.UUID) error
	// TotalsByStatus groups payments created in [from, to] by status.
	TotalsByStatus(ctx context.Context, from, to *time.Time) ([]StatusTotal, error)
}
