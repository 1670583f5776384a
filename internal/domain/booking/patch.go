package booking

import (
	"time"

	"github.com/google/uuid"
)

// Patch holds the optional fields of a booking revision. Nil means unchanged.
type Patch struct {
	CustomerID *uuid.UUID
	StaffID    *uuid.UUID
	ResourceID *uuid.UUID
	ServiceID  *uuid.UUID
	Start      *time.Time
	End        *time.Time
	Status     *BookingStatus
	Notes      *string
}

// IsEmpty reports whether p changes nothing.
func (p Patch) IsEmpty() bool {
	return p.CustomerID == nil && p.StaffID == nil && p.ResourceID == nil && p.ServiceID == nil &&
		p.Start == nil && p.End == nil && p.Status == nil && p.Notes == nil
}

// Reschedules reports whether p moves the booking in time or to other references.
func (p Patch) Reschedules() bool {
	return p.CustomerID != nil || p.StaffID != nil || p.ResourceID != nil || p.ServiceID != nil ||
		p.Start != nil || p.End != nil
}

// WindowSelfInvalid reports whether p sets both bounds to an empty or inverted
// window, which can be rejected before any lookup.
func (p Patch) WindowSelfInvalid() bool {
	return p.Start != nil && p.End != nil && !p.Start.Before(*p.End)
}
