package booking

import (
	"errors"
	"testing"
	"time"

	"github.com/bookline/service-booking/internal/domain/blockedslot"
	"github.com/bookline/service-booking/internal/domain/schedule"
	"github.com/bookline/service-booking/internal/pkg/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2030, 5, 6, 10, 0, 0, 0, time.UTC)

func mustWindow(t *testing.T, from, to time.Duration) schedule.TimeWindow {
	t.Helper()
	w, err := schedule.NewTimeWindow(t0.Add(from), t0.Add(to))
	require.NoError(t, err)
	return w
}

func newTestBooking(t *testing.T) *Booking {
	t.Helper()
	b, err := NewBooking(uuid.New(), uuid.New(), uuid.New(), uuid.New(), mustWindow(t, 0, time.Hour), "first visit")
	require.NoError(t, err)
	return b
}

func TestNewBooking(t *testing.T) {
	b := newTestBooking(t)
	assert.Equal(t, StatusConfirmed, b.Status())
	assert.Equal(t, int64(1), b.Version())

	_, err := NewBooking(uuid.Nil, uuid.New(), uuid.New(), uuid.New(), mustWindow(t, 0, time.Hour), "")
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = NewBooking(uuid.New(), uuid.New(), uuid.New(), uuid.New(), schedule.TimeWindow{}, "")
	assert.True(t, errors.Is(err, ErrInvalidWindow))
}

func TestReviseMergesPartialWindow(t *testing.T) {
	b := newTestBooking(t)

	end := t0.Add(90 * time.Minute)
	revised, err := b.Revise(Patch{End: &end})
	require.NoError(t, err)
	assert.Equal(t, t0, revised.Window().Start())
	assert.Equal(t, end, revised.Window().End())
	assert.Equal(t, int64(2), revised.Version())
	assert.Equal(t, time.Hour, b.Window().Duration(), "receiver is not mutated")

	start := t0.Add(2 * time.Hour)
	_, err = b.Revise(Patch{Start: &start})
	assert.True(t, errors.Is(err, ErrInvalidWindow), "merged start after existing end")
}

func TestReviseStatusTransitions(t *testing.T) {
	b := newTestBooking(t)

	cancelled := StatusCancelled
	revised, err := b.Revise(Patch{Status: &cancelled})
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, revised.Status())

	confirmed := StatusConfirmed
	_, err = revised.Revise(Patch{Status: &confirmed})
	assert.Equal(t, domain.KindInvalidState, domain.KindOf(err))

	bogus := BookingStatus("pending")
	_, err = b.Revise(Patch{Status: &bogus})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	same := StatusConfirmed
	_, err = b.Revise(Patch{Status: &same})
	assert.NoError(t, err)
}

func TestStatusMachine(t *testing.T) {
	assert.True(t, StatusConfirmed.CanTransitionTo(StatusNoShow))
	assert.False(t, StatusCompleted.CanTransitionTo(StatusCancelled))
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusCancelled.Occupies())
	assert.True(t, StatusCompleted.Occupies())

	_, err := ParseBookingStatus("requested")
	assert.Error(t, err)
}

func TestConflictQueryScope(t *testing.T) {
	b := newTestBooking(t)
	q := ConflictQuery{StaffID: b.StaffID(), ResourceID: uuid.New(), Window: mustWindow(t, 30*time.Minute, 2*time.Hour)}
	assert.True(t, q.Matches(b), "same staff, different resource")

	q = ConflictQuery{StaffID: uuid.New(), ResourceID: b.ResourceID(), Window: mustWindow(t, 30*time.Minute, 2*time.Hour)}
	assert.True(t, q.Matches(b), "same resource, different staff")

	q = ConflictQuery{StaffID: uuid.New(), ResourceID: uuid.New(), Window: mustWindow(t, 0, time.Hour)}
	assert.False(t, q.Matches(b), "unrelated staff and resource")

	self := b.ConflictQuery()
	assert.False(t, self.Matches(b), "self is excluded")

	q = ConflictQuery{StaffID: b.StaffID(), ResourceID: b.ResourceID(), Window: mustWindow(t, time.Hour, 2*time.Hour)}
	assert.False(t, q.Matches(b), "touching windows")
}

func TestConflictQueryBlockedSlots(t *testing.T) {
	staff := uuid.New()
	slot, err := blockedslot.NewBlockedSlot(&staff, nil, mustWindow(t, 0, time.Hour), "", nil)
	require.NoError(t, err)

	q := ConflictQuery{StaffID: staff, ResourceID: uuid.New(), Window: mustWindow(t, 0, time.Hour)}
	id := slot.ID()
	q.ExcludeBookingID = &id
	assert.True(t, q.MatchesBlockedSlot(slot), "exclusion never applies to blocked slots")

	q.StaffID = uuid.New()
	assert.False(t, q.MatchesBlockedSlot(slot))
}

func TestConflictResultDetailsOrdered(t *testing.T) {
	late, err := NewBooking(uuid.New(), uuid.New(), uuid.New(), uuid.New(), mustWindow(t, 2*time.Hour, 3*time.Hour), "")
	require.NoError(t, err)
	early := newTestBooking(t)

	r := ConflictResult{Bookings: []*Booking{late, early}}
	r.Sort()
	d := r.Details()

	require.Len(t, d.ConflictingBookings, 2)
	assert.True(t, d.HasConflict)
	assert.Equal(t, early.ID(), d.ConflictingBookings[0].ID)
	assert.Equal(t, SourceBooking, d.ConflictingBookings[0].Source)
	assert.NotNil(t, d.ConflictingBlockedSlots)
}

func TestReviseRejectsReschedulingClosedBooking(t *testing.T) {
	b := newTestBooking(t)
	cancelled := StatusCancelled
	closed, err := b.Revise(Patch{Status: &cancelled})
	require.NoError(t, err)

	later := t0.Add(3 * time.Hour)
	_, err = closed.Revise(Patch{End: &later})
	assert.True(t, errors.Is(err, ErrBookingClosed))
	assert.Equal(t, domain.KindInvalidState, domain.KindOf(err))

	staff := uuid.New()
	_, err = closed.Revise(Patch{StaffID: &staff})
	assert.True(t, errors.Is(err, ErrBookingClosed))

	notes := "left a voicemail"
	revised, err := closed.Revise(Patch{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, "left a voicemail", revised.Notes())
}
