package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bookline/service-booking/internal/domain/blockedslot"
	"github.com/bookline/service-booking/internal/domain/event"
	"github.com/bookline/service-booking/internal/domain/schedule"
	"github.com/bookline/service-booking/internal/pkg/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrBlockedSlotOverlap = domain.NewConflictError("an overlapping blocked slot already exists for this staff member and resource").WithCode("BLOCKED_SLOT_OVERLAP")

// CreateBlockedSlotRequest holds the data needed to block a window.
type CreateBlockedSlotRequest struct {
	SubjectID  *uuid.UUID `json:"subject_id"`
	ResourceID *uuid.UUID `json:"resource_id"`
	Start      string     `json:"start"`
	End        string     `json:"end"`
	Reason     string     `json:"reason" binding:"max=500"`
}

// UpdateBlockedSlotRequest holds a partial blocked slot update.
type UpdateBlockedSlotRequest struct {
	SubjectID  *uuid.UUID `json:"subject_id"`
	ResourceID *uuid.UUID `json:"resource_id"`
	Start      *string    `json:"start"`
	End        *string    `json:"end"`
	Reason     *string    `json:"reason" binding:"omitempty,max=500"`
}

// ListBlockedSlotsQuery holds the optional list filters.
type ListBlockedSlotsQuery struct {
	SubjectID  string `form:"subject_id"`
	ResourceID string `form:"resource_id"`
	From       string `form:"from"`
	To         string `form:"to"`
}

// BlockedSlotOverlapQuery is the pair-specific overlap query.
type BlockedSlotOverlapQuery struct {
	SubjectID  string `form:"subject_id"`
	ResourceID string `form:"resource_id"`
	Start      string `form:"start"`
	End        string `form:"end"`
}

// BlockedSlotDTO is the response representation of a blocked slot.
type BlockedSlotDTO struct {
	ID         uuid.UUID  `json:"id"`
	SubjectID  *uuid.UUID `json:"subject_id"`
	ResourceID *uuid.UUID `json:"resource_id"`
	Start      time.Time  `json:"start"`
	End        time.Time  `json:"end"`
	Reason     string     `json:"reason,omitempty"`
	CreatedBy  *uuid.UUID `json:"created_by,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// OverlapResultDTO answers the blocked slot overlap query.
type OverlapResultDTO struct {
	Overlapping bool             `json:"overlapping"`
	Slots       []BlockedSlotDTO `json:"slots"`
}

// ReferenceLookup checks that catalog rows exist.
type ReferenceLookup interface {
	MemberExists(ctx context.Context, id uuid.UUID) (bool, error)
	ResourceExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// BlockedSlotService manages blocked slots. Writes here are not admissions:
// existing bookings are left alone and later booking writes see the slot.
type BlockedSlotService struct {
	repo     blockedslot.Repository
	refs     ReferenceLookup
	producer EventPublisher
	logger   *zap.Logger
}

func NewBlockedSlotService(
	repo blockedslot.Repository,
	refs ReferenceLookup,
	producer EventPublisher,
	logger *zap.Logger,
) *BlockedSlotService {
	return &BlockedSlotService{
		repo:     repo,
		refs:     refs,
		producer: producer,
		logger:   logger,
	}
}

// CreateBlockedSlot blocks a window for a staff member, a resource, or both.
func (s *BlockedSlotService) CreateBlockedSlot(ctx context.Context, actorID uuid.UUID, req CreateBlockedSlotRequest) (*BlockedSlotDTO, error) {
	window, err := schedule.ParseWindow(req.Start, req.End)
	if err != nil {
		return nil, err
	}
	var createdBy *uuid.UUID
	if actorID != uuid.Nil {
		createdBy = &actorID
	}
	slot, err := blockedslot.NewBlockedSlot(req.SubjectID, req.ResourceID, window, req.Reason, createdBy)
	if err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, slot.SubjectID(), slot.ResourceID()); err != nil {
		return nil, err
	}

	err = s.write(ctx, "create", func(ctx context.Context, tx blockedslot.WriteTx) error {
		if err := rejectOverlap(ctx, tx, slot, nil); err != nil {
			return err
		}
		return tx.Save(ctx, slot)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("blocked slot created", zap.String("blocked_slot_id", slot.ID().String()))
	s.publishSlotEvent(ctx, event.BlockedSlotCreated, actorID, slot)

	result := toBlockedSlotDTO(slot)
	return &result, nil
}

// UpdateBlockedSlot applies a partial update and re-validates the result.
func (s *BlockedSlotService) UpdateBlockedSlot(ctx context.Context, actorID, id uuid.UUID, req UpdateBlockedSlotRequest) (*BlockedSlotDTO, error) {
	start, err := parseOptionalInstant("start", req.Start)
	if err != nil {
		return nil, err
	}
	end, err := parseOptionalInstant("end", req.End)
	if err != nil {
		return nil, err
	}

	if err := s.checkReferences(ctx, req.SubjectID, req.ResourceID); err != nil {
		return nil, err
	}
	patch := blockedslot.Patch{
		SubjectID:  req.SubjectID,
		ResourceID: req.ResourceID,
		Start:      start,
		End:        end,
		Reason:     req.Reason,
	}

	var revised *blockedslot.BlockedSlot
	err = s.write(ctx, "update", func(ctx context.Context, tx blockedslot.WriteTx) error {
		current, err := tx.FindByID(ctx, id)
		if err != nil {
			return err
		}
		next, err := current.Revise(patch)
		if err != nil {
			return err
		}
		slotID := next.ID()
		if err := rejectOverlap(ctx, tx, next, &slotID); err != nil {
			return err
		}
		if err := tx.Update(ctx, next); err != nil {
			return err
		}
		revised = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishSlotEvent(ctx, event.BlockedSlotUpdated, actorID, revised)
	result := toBlockedSlotDTO(revised)
	return &result, nil
}

// DeleteBlockedSlot removes a blocked slot.
func (s *BlockedSlotService) DeleteBlockedSlot(ctx context.Context, actorID, id uuid.UUID) error {
	slot, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.publishSlotEvent(ctx, event.BlockedSlotDeleted, actorID, slot)
	return nil
}

func (s *BlockedSlotService) GetBlockedSlot(ctx context.Context, id uuid.UUID) (*BlockedSlotDTO, error) {
	slot, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	result := toBlockedSlotDTO(slot)
	return &result, nil
}

// ListBlockedSlots returns slots matching q ordered by start.
func (s *BlockedSlotService) ListBlockedSlots(ctx context.Context, q ListBlockedSlotsQuery, page, limit int) (*domain.PaginatedResult[BlockedSlotDTO], error) {
	var (
		f   blockedslot.ListFilter
		err error
	)
	if f.SubjectID, err = parseOptionalUUID("subject_id", q.SubjectID); err != nil {
		return nil, err
	}
	if f.ResourceID, err = parseOptionalUUID("resource_id", q.ResourceID); err != nil {
		return nil, err
	}
	if f.From, f.To, err = schedule.ParseRange(q.From, q.To); err != nil {
		return nil, err
	}

	slots, total, err := s.repo.List(ctx, f, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list blocked slots: %w", err)
	}
	return domain.NewPaginatedResult(toBlockedSlotDTOs(slots), total, page, limit), nil
}

// CheckOverlap reports blocked slots of exactly the given pair overlapping the window.
func (s *BlockedSlotService) CheckOverlap(ctx context.Context, q BlockedSlotOverlapQuery) (*OverlapResultDTO, error) {
	window, err := schedule.ParseWindow(q.Start, q.End)
	if err != nil {
		return nil, err
	}
	subjectID, err := parseOptionalUUID("subject_id", q.SubjectID)
	if err != nil {
		return nil, err
	}
	resourceID, err := parseOptionalUUID("resource_id", q.ResourceID)
	if err != nil {
		return nil, err
	}
	if subjectID == nil && resourceID == nil {
		return nil, blockedslot.ErrNoScope
	}

	slots, err := s.repo.FindOverlapping(ctx, subjectID, resourceID, window, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check blocked slot overlap: %w", err)
	}
	return &OverlapResultDTO{Overlapping: len(slots) > 0, Slots: toBlockedSlotDTOs(slots)}, nil
}

func (s *BlockedSlotService) checkReferences(ctx context.Context, subjectID, resourceID *uuid.UUID) error {
	return checkReferences(ctx, s.refs, "subject_id", subjectID, resourceID)
}

// checkReferences reports a missing member or resource as a validation error
// naming memberField or resource_id.
func checkReferences(ctx context.Context, refs ReferenceLookup, memberField string, memberID, resourceID *uuid.UUID) error {
	if memberID != nil {
		ok, err := refs.MemberExists(ctx, *memberID)
		if err != nil {
			return fmt.Errorf("failed to look up member: %w", err)
		}
		if !ok {
			return domain.NewValidationError(memberField + " " + memberID.String() + " does not exist").WithCode("FOREIGN_KEY_INVALID")
		}
	}
	if resourceID != nil {
		ok, err := refs.ResourceExists(ctx, *resourceID)
		if err != nil {
			return fmt.Errorf("failed to look up resource: %w", err)
		}
		if !ok {
			return domain.NewValidationError("resource_id " + resourceID.String() + " does not exist").WithCode("FOREIGN_KEY_INVALID")
		}
	}
	return nil
}

// write runs fn in one repository transaction and retries once when it lost
// a serialization race.
func (s *BlockedSlotService) write(ctx context.Context, op string, fn func(ctx context.Context, tx blockedslot.WriteTx) error) error {
	for attempt := 1; ; attempt++ {
		err := s.repo.InTransaction(ctx, fn)
		if err == nil {
			return nil
		}
		if !errors.Is(err, schedule.ErrSerializationFailure) {
			var de *domain.Error
			if errors.As(err, &de) {
				return err
			}
			return fmt.Errorf("failed to %s blocked slot: %w", op, err)
		}
		if attempt >= 2 || ctx.Err() != nil {
			s.logger.Error("blocked slot transaction failed twice", zap.String("op", op), zap.Error(err))
			return domain.NewInternalError("storage failure", err)
		}
		s.logger.Info("retrying blocked slot transaction after serialization failure", zap.String("op", op))
	}
}

func rejectOverlap(ctx context.Context, finder blockedslot.OverlapFinder, slot *blockedslot.BlockedSlot, excludeID *uuid.UUID) error {
	existing, err := finder.FindOverlapping(ctx, slot.SubjectID(), slot.ResourceID(), slot.Window(), excludeID)
	if err != nil {
		return fmt.Errorf("failed to check blocked slot overlap: %w", err)
	}
	if len(existing) > 0 {
		return ErrBlockedSlotOverlap.WithDetails(toBlockedSlotDTOs(existing))
	}
	return nil
}

func toBlockedSlotDTO(s *blockedslot.BlockedSlot) BlockedSlotDTO {
	return BlockedSlotDTO{
		ID:         s.ID(),
		SubjectID:  s.SubjectID(),
		ResourceID: s.ResourceID(),
		Start:      s.Window().Start(),
		End:        s.Window().End(),
		Reason:     s.Reason(),
		CreatedBy:  s.CreatedBy(),
		CreatedAt:  s.CreatedAt(),
		UpdatedAt:  s.UpdatedAt(),
	}
}

func toBlockedSlotDTOs(slots []*blockedslot.BlockedSlot) []BlockedSlotDTO {
	dtos := make([]BlockedSlotDTO, len(slots))
	for i, s := range slots {
		dtos[i] = toBlockedSlotDTO(s)
	}
	return dtos
}

func (s *BlockedSlotService) publishSlotEvent(ctx context.Context, eventType string, actorID uuid.UUID, slot *blockedslot.BlockedSlot) {
	evt := event.BlockedSlotEvent{
		BlockedSlotID: slot.ID(),
		SubjectID:     slot.SubjectID(),
		ResourceID:    slot.ResourceID(),
		Start:         slot.Window().Start(),
		End:           slot.Window().End(),
		Timestamp:     time.Now().UTC(),
	}
	if actorID != uuid.Nil {
		evt.ActorID = &actorID
	}
	publish(ctx, s.producer, s.logger, eventType, slot.ID().String(), evt)
}
