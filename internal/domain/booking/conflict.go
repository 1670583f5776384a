package booking

import (
	"sort"
	"time"

	"github.com/bookline/service-booking/internal/domain/blockedslot"
	"github.com/bookline/service-booking/internal/domain/schedule"
	"github.com/google/uuid"
)

// ConflictQuery asks which bookings and blocked slots overlap Window for the
// staff member OR the resource.
type ConflictQuery struct {
	StaffID          uuid.UUID
	ResourceID       uuid.UUID
	Window           schedule.TimeWindow
	ExcludeBookingID *uuid.UUID
}

// ConflictResult lists overlapping rows from both sources, each ordered by start.
type ConflictResult struct {
	Bookings     []*Booking
	BlockedSlots []*blockedslot.BlockedSlot
}

func (r ConflictResult) HasConflict() bool {
	return len(r.Bookings) > 0 || len(r.BlockedSlots) > 0
}

// Sort orders both lists by window start, then id.
func (r ConflictResult) Sort() {
	sort.SliceStable(r.Bookings, func(i, j int) bool {
		a, b := r.Bookings[i], r.Bookings[j]
		if !a.Window().Start().Equal(b.Window().Start()) {
			return a.Window().Start().Before(b.Window().Start())
		}
		return a.ID().String() < b.ID().String()
	})
	sort.SliceStable(r.BlockedSlots, func(i, j int) bool {
		a, b := r.BlockedSlots[i], r.BlockedSlots[j]
		if !a.Window().Start().Equal(b.Window().Start()) {
			return a.Window().Start().Before(b.Window().Start())
		}
		return a.ID().String() < b.ID().String()
	})
}

// Matches reports whether b is in scope for q: same staff or same resource,
// occupying, not excluded, and overlapping.
func (q ConflictQuery) Matches(b *Booking) bool {
	if q.ExcludeBookingID != nil && b.ID() == *q.ExcludeBookingID {
		return false
	}
	if !b.Status().Occupies() {
		return false
	}
	if b.StaffID() != q.StaffID && b.ResourceID() != q.ResourceID {
		return false
	}
	return b.Window().Overlaps(q.Window)
}

// MatchesBlockedSlot applies the same scoping to a blocked slot. Exclusion
// never applies to blocked slots.
func (q ConflictQuery) MatchesBlockedSlot(s *blockedslot.BlockedSlot) bool {
	subject, resource := s.SubjectID(), s.ResourceID()
	inScope := (subject != nil && *subject == q.StaffID) || (resource != nil && *resource == q.ResourceID)
	return inScope && s.Window().Overlaps(q.Window)
}

// ConflictingRecord is the client view of one conflicting row.
type ConflictingRecord struct {
	Source     string     `json:"source"`
	ID         uuid.UUID  `json:"id"`
	StaffID    *uuid.UUID `json:"staff_id,omitempty"`
	SubjectID  *uuid.UUID `json:"subject_id,omitempty"`
	ResourceID *uuid.UUID `json:"resource_id,omitempty"`
	Start      time.Time  `json:"start"`
	End        time.Time  `json:"end"`
	Status     string     `json:"status,omitempty"`
}

// ConflictDetails is attached to Conflict rejections and returned by CheckConflict.
type ConflictDetails struct {
	HasConflict             bool                `json:"has_conflict"`
	ConflictingBookings     []ConflictingRecord `json:"conflicting_bookings"`
	ConflictingBlockedSlots []ConflictingRecord `json:"conflicting_blocked_slots"`
}

const (
	SourceBooking     = "booking"
	SourceBlockedSlot = "blocked_slot"
)

func (r ConflictResult) Details() ConflictDetails {
	d := ConflictDetails{
		HasConflict:             r.HasConflict(),
		ConflictingBookings:     make([]ConflictingRecord, 0, len(r.Bookings)),
		ConflictingBlockedSlots: make([]ConflictingRecord, 0, len(r.BlockedSlots)),
	}
	for _, b := range r.Bookings {
		staff, resource := b.StaffID(), b.ResourceID()
		d.ConflictingBookings = append(d.ConflictingBookings, ConflictingRecord{
			Source:     SourceBooking,
			ID:         b.ID(),
			StaffID:    &staff,
			ResourceID: &resource,
			Start:      b.Window().Start(),
			End:        b.Window().End(),
			Status:     b.Status().String(),
		})
	}
	for _, s := range r.BlockedSlots {
		d.ConflictingBlockedSlots = append(d.ConflictingBlockedSlots, ConflictingRecord{
			Source:     SourceBlockedSlot,
			ID:         s.ID(),
			SubjectID:  s.SubjectID(),
			ResourceID: s.ResourceID(),
			Start:      s.Window().Start(),
			End:        s.Window().End(),
		})
	}
	return d
}
