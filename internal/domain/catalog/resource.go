package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/bookline/service-booking/internal/pkg/domain"
	"github.com/google/uuid"
)

// ResourceStatus represents whether a resource can currently be used.
type ResourceStatus string

const (
	ResourceAvailable   ResourceStatus = "available"
	ResourceUnavailable ResourceStatus = "unavailable"
)

func (s ResourceStatus) IsValid() bool {
	return s == ResourceAvailable || s == ResourceUnavailable
}

// Resource is a bookable room, chair or piece of equipment.
type Resource struct {
	id          uuid.UUID
	name        string
	description string
	status      ResourceStatus
	createdAt   time.Time
	updatedAt   time.Time
}

func NewResource(name, description string) (*Resource, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewValidationError("resource name is required")
	}
	now := time.Now().UTC()
	return &Resource{
		id:          uuid.New(),
		name:        name,
		description: description,
		status:      ResourceAvailable,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// ReconstructResource rebuilds a Resource from persistence data (no validation).
func ReconstructResource(id uuid.UUID, name, description string, status ResourceStatus, createdAt, updatedAt time.Time) *Resource {
	return &Resource{id: id, name: name, description: description, status: status, createdAt: createdAt, updatedAt: updatedAt}
}

// Update applies the non-nil fields.
func (r *Resource) Update(name, description *string, status *ResourceStatus) error {
	if name != nil {
		n := strings.TrimSpace(*name)
		if n == "" {
			return domain.NewValidationError("resource name is required")
		}
		r.name = n
	}
	if description != nil {
		r.description = *description
	}
	if status != nil {
		if !status.IsValid() {
			return domain.NewValidationError(fmt.Sprintf("invalid resource status: %s", *status))
		}
		r.status = *status
	}
	r.updatedAt = time.Now().UTC()
	return nil
}

func (r *Resource) ID() uuid.UUID          { return r.id }
func (r *Resource) Name() string           { return r.name }
func (r *Resource) Description() string    { return r.description }
func (r *Resource) Status() ResourceStatus { return r.status }
func (r *Resource) CreatedAt() time.Time   { return r.createdAt }
func (r *Resource) UpdatedAt() time.Time   { return r.updatedAt }
