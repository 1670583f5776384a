package blockedslot

import (
	"errors"
	"testing"
	"time"

	"github.com/bookline/service-booking/internal/domain/schedule"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2030, 3, 4, 9, 0, 0, 0, time.UTC)

func hour(t *testing.T) schedule.TimeWindow {
	t.Helper()
	w, err := schedule.NewTimeWindow(t0, t0.Add(time.Hour))
	require.NoError(t, err)
	return w
}

func TestNewBlockedSlotRequiresScope(t *testing.T) {
	_, err := NewBlockedSlot(nil, nil, hour(t), "", nil)
	assert.True(t, errors.Is(err, ErrNoScope))

	nilID := uuid.Nil
	_, err = NewBlockedSlot(&nilID, nil, hour(t), "", nil)
	assert.True(t, errors.Is(err, ErrNoScope))

	resource := uuid.New()
	slot, err := NewBlockedSlot(nil, &resource, hour(t), "maintenance", nil)
	require.NoError(t, err)
	assert.Nil(t, slot.SubjectID())
	assert.Equal(t, resource, *slot.ResourceID())
}

func TestReviseRevalidatesWindow(t *testing.T) {
	staff := uuid.New()
	slot, err := NewBlockedSlot(&staff, nil, hour(t), "", nil)
	require.NoError(t, err)

	early := t0.Add(-time.Hour)
	_, err = slot.Revise(Patch{End: &early})
	assert.True(t, errors.Is(err, schedule.ErrInvalidWindow))

	later := t0.Add(2 * time.Hour)
	reason := "training"
	revised, err := slot.Revise(Patch{End: &later, Reason: &reason})
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, revised.Window().Duration())
	assert.Equal(t, "training", revised.Reason())
	assert.Equal(t, time.Hour, slot.Window().Duration(), "original is untouched")
}
