package blockedslot

import (
	"time"

	"github.com/bookline/service-booking/internal/domain/schedule"
	"github.com/bookline/service-booking/internal/pkg/domain"
	"github.com/google/uuid"
)

var ErrNoScope = domain.NewValidationError("at least one of subject_id or resource_id is required").WithCode("BLOCKED_SLOT_SCOPE_REQUIRED")

// BlockedSlot is a window during which a staff member, a resource, or both
// accept no bookings.
type BlockedSlot struct {
	id         uuid.UUID
	subjectID  *uuid.UUID
	resourceID *uuid.UUID
	window     schedule.TimeWindow
	reason     string
	createdBy  *uuid.UUID
	createdAt  time.Time
	updatedAt  time.Time
}

func NewBlockedSlot(subjectID, resourceID *uuid.UUID, window schedule.TimeWindow, reason string, createdBy *uuid.UUID) (*BlockedSlot, error) {
	if err := validateScope(subjectID, resourceID); err != nil {
		return nil, err
	}
	if window.IsZero() {
		return nil, schedule.ErrInvalidWindow
	}
	now := time.Now().UTC()
	return &BlockedSlot{
		id:         uuid.New(),
		subjectID:  subjectID,
		resourceID: resourceID,
		window:     window,
		reason:     reason,
		createdBy:  createdBy,
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

// Reconstruct rebuilds a BlockedSlot from persistence data (no validation).
func Reconstruct(
	id uuid.UUID,
	subjectID, resourceID *uuid.UUID,
	window schedule.TimeWindow,
	reason string,
	createdBy *uuid.UUID,
	createdAt, updatedAt time.Time,
) *BlockedSlot {
	return &BlockedSlot{
		id:         id,
		subjectID:  subjectID,
		resourceID: resourceID,
		window:     window,
		reason:     reason,
		createdBy:  createdBy,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}
}

func validateScope(subjectID, resourceID *uuid.UUID) error {
	if isNil(subjectID) && isNil(resourceID) {
		return ErrNoScope
	}
	return nil
}

func isNil(id *uuid.UUID) bool { return id == nil || *id == uuid.Nil }

func (s *BlockedSlot) ID() uuid.UUID                { return s.id }
func (s *BlockedSlot) SubjectID() *uuid.UUID        { return s.subjectID }
func (s *BlockedSlot) ResourceID() *uuid.UUID       { return s.resourceID }
func (s *BlockedSlot) Window() schedule.TimeWindow  { return s.window }
func (s *BlockedSlot) Reason() string               { return s.reason }
func (s *BlockedSlot) CreatedBy() *uuid.UUID        { return s.createdBy }
func (s *BlockedSlot) CreatedAt() time.Time         { return s.createdAt }
func (s *BlockedSlot) UpdatedAt() time.Time         { return s.updatedAt }

// Patch holds the optional fields of a blocked slot update.
type Patch struct {
	SubjectID  *uuid.UUID
	ResourceID *uuid.UUID
	Start      *time.Time
	End        *time.Time
	Reason     *string
}

// Revise returns a copy of s with p applied and re-validated.
func (s *BlockedSlot) Revise(p Patch) (*BlockedSlot, error) {
	next := *s
	if p.SubjectID != nil {
		next.subjectID = p.SubjectID
	}
	if p.ResourceID != nil {
		next.resourceID = p.ResourceID
	}
	if err := validateScope(next.subjectID, next.resourceID); err != nil {
		return nil, err
	}

	start, end := s.window.Start(), s.window.End()
	if p.Start != nil {
		start = *p.Start
	}
	if p.End != nil {
		end = *p.End
	}
	w, err := schedule.NewTimeWindow(start, end)
	if err != nil {
		return nil, err
	}
	next.window = w

	if p.Reason != nil {
		next.reason = *p.Reason
	}
	next.updatedAt = time.Now().UTC()
	return &next, nil
}
