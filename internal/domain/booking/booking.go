package booking

import (
	"time"

	"github.com/bookline/service-booking/internal/domain/schedule"
	"github.com/bookline/service-booking/internal/pkg/domain"
	"github.com/google/uuid"
)

// Booking is the aggregate root for the booking domain. Instances are
// persisted only through an AdmissionTx.
type Booking struct {
	id         uuid.UUID
	customerID uuid.UUID
	staffID    uuid.UUID
	resourceID uuid.UUID
	serviceID  uuid.UUID
	window     schedule.TimeWindow
	status     BookingStatus
	notes      string

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewBooking creates a new Booking aggregate with status=confirmed.
func NewBooking(
	customerID, staffID, resourceID, serviceID uuid.UUID,
	window schedule.TimeWindow,
	notes string,
) (*Booking, error) {
	if customerID == uuid.Nil {
		return nil, domain.NewValidationError("customer_id is required")
	}
	if staffID == uuid.Nil {
		return nil, domain.NewValidationError("staff_id is required")
	}
	if resourceID == uuid.Nil {
		return nil, domain.NewValidationError("resource_id is required")
	}
	if serviceID == uuid.Nil {
		return nil, domain.NewValidationError("service_id is required")
	}
	if window.IsZero() {
		return nil, ErrInvalidWindow
	}

	now := time.Now().UTC()
	return &Booking{
		id:         uuid.New(),
		customerID: customerID,
		staffID:    staffID,
		resourceID: resourceID,
		serviceID:  serviceID,
		window:     window,
		status:     StatusConfirmed,
		notes:      notes,
		version:    1,
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id, customerID, staffID, resourceID, serviceID uuid.UUID,
	window schedule.TimeWindow,
	status BookingStatus,
	notes string,
	version int64,
	createdAt, updatedAt time.Time,
) *Booking {
	return &Booking{
		id:         id,
		customerID: customerID,
		staffID:    staffID,
		resourceID: resourceID,
		serviceID:  serviceID,
		window:     window,
		status:     status,
		notes:      notes,
		version:    version,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}
}

// --- Getters ---

func (b *Booking) ID() uuid.UUID               { return b.id }
func (b *Booking) CustomerID() uuid.UUID       { return b.customerID }
func (b *Booking) StaffID() uuid.UUID          { return b.staffID }
func (b *Booking) ResourceID() uuid.UUID       { return b.resourceID }
func (b *Booking) ServiceID() uuid.UUID        { return b.serviceID }
func (b *Booking) Window() schedule.TimeWindow { return b.window }
func (b *Booking) Status() BookingStatus       { return b.status }
func (b *Booking) Notes() string               { return b.notes }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

func (b *Booking) CreatedAt() time.Time { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// --- Behavior ---

// Revise returns a copy of b with patch merged in. The merged window and any
// status change are validated; references are checked by the caller.
func (b *Booking) Revise(p Patch) (*Booking, error) {
	if b.status.IsTerminal() && p.Reschedules() {
		return nil, ErrBookingClosed.WithDetails(map[string]string{"status": b.status.String()})
	}
	next := *b

	if p.CustomerID != nil {
		next.customerID = *p.CustomerID
	}
	if p.StaffID != nil {
		next.staffID = *p.StaffID
	}
	if p.ResourceID != nil {
		next.resourceID = *p.ResourceID
	}
	if p.ServiceID != nil {
		next.serviceID = *p.ServiceID
	}

	start, end := b.window.Start(), b.window.End()
	if p.Start != nil {
		start = *p.Start
	}
	if p.End != nil {
		end = *p.End
	}
	window, err := schedule.NewTimeWindow(start, end)
	if err != nil {
		return nil, err
	}
	next.window = window

	if p.Status != nil && *p.Status != b.status {
		if !p.Status.IsValid() {
			return nil, domain.NewValidationError("invalid booking status: " + p.Status.String())
		}
		if !b.status.CanTransitionTo(*p.Status) {
			return nil, domain.NewInvalidStateError(string(b.status), string(*p.Status))
		}
		next.status = *p.Status
	}
	if p.Notes != nil {
		next.notes = *p.Notes
	}

	next.version = b.version + 1
	next.updatedAt = time.Now().UTC()
	return &next, nil
}

// ConflictQuery builds the lookup for this booking's current scope, excluding itself.
func (b *Booking) ConflictQuery() ConflictQuery {
	id := b.id
	return ConflictQuery{
		StaffID:          b.staffID,
		ResourceID:       b.resourceID,
		Window:           b.window,
		ExcludeBookingID: &id,
	}
}
