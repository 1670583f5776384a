package application

import (
	"context"
	"fmt"
	"time"

	"github.com/bookline/service-booking/internal/domain/availability"
	"github.com/bookline/service-booking/internal/domain/event"
	"github.com/bookline/service-booking/internal/domain/schedule"
	"github.com/bookline/service-booking/internal/pkg/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateAvailabilityRequest holds a weekly availability window.
type CreateAvailabilityRequest struct {
	MemberID   *uuid.UUID `json:"member_id"`
	ResourceID *uuid.UUID `json:"resource_id"`
	DayOfWeek  string     `json:"day_of_week" binding:"required"`
	Start      string     `json:"start"`
	End        string     `json:"end"`
}

// UpdateAvailabilityRequest holds a partial update. The clear flags drop a
// reference, since JSON null cannot be told apart from an absent field.
type UpdateAvailabilityRequest struct {
	MemberID        *uuid.UUID `json:"member_id"`
	ResourceID      *uuid.UUID `json:"resource_id"`
	ClearMemberID   bool       `json:"clear_member_id"`
	ClearResourceID bool       `json:"clear_resource_id"`
	DayOfWeek       *string    `json:"day_of_week"`
	Start           *string    `json:"start"`
	End             *string    `json:"end"`
}

type ListAvailabilityQuery struct {
	MemberID   string `form:"member_id"`
	ResourceID string `form:"resource_id"`
	DayOfWeek  string `form:"day_of_week"`
}

type AvailabilityDTO struct {
	ID         uuid.UUID  `json:"id"`
	MemberID   *uuid.UUID `json:"member_id"`
	ResourceID *uuid.UUID `json:"resource_id"`
	DayOfWeek  string     `json:"day_of_week"`
	Start      time.Time  `json:"start"`
	End        time.Time  `json:"end"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// AvailabilityService manages weekly availability windows. Admissions do not
// consult them.
type AvailabilityService struct {
	repo     availability.Repository
	refs     ReferenceLookup
	producer EventPublisher
	logger   *zap.Logger
}

func NewAvailabilityService(
	repo availability.Repository,
	refs ReferenceLookup,
	producer EventPublisher,
	logger *zap.Logger,
) *AvailabilityService {
	return &AvailabilityService{repo: repo, refs: refs, producer: producer, logger: logger}
}

func (s *AvailabilityService) CreateAvailability(ctx context.Context, actorID uuid.UUID, req CreateAvailabilityRequest) (*AvailabilityDTO, error) {
	day, err := availability.ParseWeekday(req.DayOfWeek)
	if err != nil {
		return nil, err
	}
	window, err := schedule.ParseWindow(req.Start, req.End)
	if err != nil {
		return nil, err
	}
	a, err := availability.New(req.MemberID, req.ResourceID, day, window)
	if err != nil {
		return nil, err
	}
	if err := checkReferences(ctx, s.refs, "member_id", a.MemberID(), a.ResourceID()); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to create availability: %w", err)
	}

	s.logger.Info("availability created",
		zap.String("availability_id", a.ID().String()),
		zap.String("day_of_week", day.String()),
	)
	s.publishAvailabilityEvent(ctx, event.AvailabilityCreated, actorID, a)
	result := toAvailabilityDTO(a)
	return &result, nil
}

func (s *AvailabilityService) GetAvailability(ctx context.Context, id uuid.UUID) (*AvailabilityDTO, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	result := toAvailabilityDTO(a)
	return &result, nil
}

// ListAvailability returns windows ordered by day of week, then start.
func (s *AvailabilityService) ListAvailability(ctx context.Context, q ListAvailabilityQuery, page, limit int) (*domain.PaginatedResult[AvailabilityDTO], error) {
	var (
		f   availability.ListFilter
		err error
	)
	if f.MemberID, err = parseOptionalUUID("member_id", q.MemberID); err != nil {
		return nil, err
	}
	if f.ResourceID, err = parseOptionalUUID("resource_id", q.ResourceID); err != nil {
		return nil, err
	}
	if q.DayOfWeek != "" {
		day, err := availability.ParseWeekday(q.DayOfWeek)
		if err != nil {
			return nil, err
		}
		f.Day = &day
	}

	windows, total, err := s.repo.List(ctx, f, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list availability: %w", err)
	}
	dtos := make([]AvailabilityDTO, len(windows))
	for i, a := range windows {
		dtos[i] = toAvailabilityDTO(a)
	}
	return domain.NewPaginatedResult(dtos, total, page, limit), nil
}

// UpdateAvailability applies a partial update and re-validates the result.
func (s *AvailabilityService) UpdateAvailability(ctx context.Context, actorID, id uuid.UUID, req UpdateAvailabilityRequest) (*AvailabilityDTO, error) {
	patch := availability.Patch{
		MemberID:      req.MemberID,
		ResourceID:    req.ResourceID,
		ClearMember:   req.ClearMemberID,
		ClearResource: req.ClearResourceID,
	}
	if req.DayOfWeek != nil {
		day, err := availability.ParseWeekday(*req.DayOfWeek)
		if err != nil {
			return nil, err
		}
		patch.Day = &day
	}
	var err error
	if patch.Start, err = parseOptionalInstant("start", req.Start); err != nil {
		return nil, err
	}
	if patch.End, err = parseOptionalInstant("end", req.End); err != nil {
		return nil, err
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	member, resource := req.MemberID, req.ResourceID
	if req.ClearMemberID {
		member = nil
	}
	if req.ClearResourceID {
		resource = nil
	}
	if err := checkReferences(ctx, s.refs, "member_id", member, resource); err != nil {
		return nil, err
	}
	next, err := current.Revise(patch)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to update availability: %w", err)
	}

	s.publishAvailabilityEvent(ctx, event.AvailabilityUpdated, actorID, next)
	result := toAvailabilityDTO(next)
	return &result, nil
}

func (s *AvailabilityService) DeleteAvailability(ctx context.Context, actorID, id uuid.UUID) error {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.publishAvailabilityEvent(ctx, event.AvailabilityDeleted, actorID, a)
	return nil
}

func toAvailabilityDTO(a *availability.Availability) AvailabilityDTO {
	return AvailabilityDTO{
		ID:         a.ID(),
		MemberID:   a.MemberID(),
		ResourceID: a.ResourceID(),
		DayOfWeek:  a.Day().String(),
		Start:      a.Window().Start(),
		End:        a.Window().End(),
		CreatedAt:  a.CreatedAt(),
		UpdatedAt:  a.UpdatedAt(),
	}
}

func (s *AvailabilityService) publishAvailabilityEvent(ctx context.Context, eventType string, actorID uuid.UUID, a *availability.Availability) {
	evt := event.AvailabilityEvent{
		AvailabilityID: a.ID(),
		MemberID:       a.MemberID(),
		ResourceID:     a.ResourceID(),
		DayOfWeek:      a.Day().String(),
		Start:          a.Window().Start(),
		End:            a.Window().End(),
		Timestamp:      time.Now().UTC(),
	}
	if actorID != uuid.Nil {
		evt.ActorID = &actorID
	}
	publish(ctx, s.producer, s.logger, eventType, a.ID().String(), evt)
}
