package catalog

import (
	"context"

	"github.com/bookline/service-booking/internal/pkg/auth"
	"github.com/google/uuid"
)

// MemberRepository defines the persistence contract for members.
type MemberRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Member, error)
	List(ctx context.Context, role *auth.Role, page, limit int) ([]*Member, int64, error)
	Save(ctx context.Context, m *Member) error
	Update(ctx context.Context, m *Member) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ResourceRepository defines the persistence contract for resources.
type ResourceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Resource, error)
	List(ctx context.Context, page, limit int) ([]*Resource, int64, error)
	Save(ctx context.Context, r *Resource) error
	Update(ctx context.Context, r *Resource) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ServiceRepository defines the persistence contract for services.
type ServiceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Service, error)
	List(ctx context.Context, page, limit int) ([]*Service, int64, error)
	Save(ctx context.Context, s *Service) error
	Update(ctx context.Context, s *Service) error
	Delete(ctx context.Context, id uuid.UUID) error
}
