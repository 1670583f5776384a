package catalog

import (
	"strings"
	"time"

	"github.com/bookline/service-booking/internal/pkg/domain"
	"github.com/google/uuid"
)

// Service is a bookable offering with a price and a minimum duration.
type Service struct {
	id          uuid.UUID
	name        string
	description string
	priceCents  int64
	durationMin int
	createdAt   time.Time
	updatedAt   time.Time
}

func NewService(name, description string, priceCents int64, durationMin int) (*Service, error) {
	s := &Service{id: uuid.New(), description: description}
	if err := s.set(name, priceCents, durationMin); err != nil {
		return nil, err
	}
	s.createdAt = time.Now().UTC()
	s.updatedAt = s.createdAt
	return s, nil
}

// ReconstructService rebuilds a Service from persistence data (no validation).
func ReconstructService(id uuid.UUID, name, description string, priceCents int64, durationMin int, createdAt, updatedAt time.Time) *Service {
	return &Service{
		id:          id,
		name:        name,
		description: description,
		priceCents:  priceCents,
		durationMin: durationMin,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

func (s *Service) set(name string, priceCents int64, durationMin int) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.NewValidationError("service name is required")
	}
	if priceCents < 0 {
		return domain.NewValidationError("price must not be negative")
	}
	if durationMin <= 0 {
		return domain.NewValidationError("duration_min must be positive")
	}
	s.name, s.priceCents, s.durationMin = name, priceCents, durationMin
	return nil
}

// Update applies the non-nil fields.
func (s *Service) Update(name, description *string, priceCents *int64, durationMin *int) error {
	n, p, d := s.name, s.priceCents, s.durationMin
	if name != nil {
		n = *name
	}
	if priceCents != nil {
		p = *priceCents
	}
	if durationMin != nil {
		d = *durationMin
	}
	if err := s.set(n, p, d); err != nil {
		return err
	}
	if description != nil {
		s.description = *description
	}
	s.updatedAt = time.Now().UTC()
	return nil
}

func (s *Service) ID() uuid.UUID        { return s.id }
func (s *Service) Name() string         { return s.name }
func (s *Service) Description() string  { return s.description }
func (s *Service) PriceCents() int64    { return s.priceCents }
func (s *Service) DurationMin() int     { return s.durationMin }
func (s *Service) CreatedAt() time.Time { return s.createdAt }
func (s *Service) UpdatedAt() time.Time { return s.updatedAt }
