// Package event defines the topics, types and payloads published by the
// booking service.
package event

import (
	"time"

	"github.com/google/uuid"
)

const (
	TopicBookingEvents = "booking.events"
	Source             = "service-booking"
)

const (
	BookingCreated   = "booking.created"
	BookingUpdated   = "booking.updated"
	BookingCancelled = "booking.cancelled"
	BookingDeleted   = "booking.deleted"

	BlockedSlotCreated = "blocked_slot.created"
	BlockedSlotUpdated = "blocked_slot.updated"
	BlockedSlotDeleted = "blocked_slot.deleted"

	AvailabilityCreated = "availability.created"
	AvailabilityUpdated = "availability.updated"
	AvailabilityDeleted = "availability.deleted"

	PaymentCreated = "payment.created"
	PaymentUpdated = "payment.updated"
	PaymentDeleted = "payment.deleted"
)

const (
	EntityBooking      = "booking"
	EntityBlockedSlot  = "blocked_slot"
	EntityAvailability = "availability"
	EntityPayment      = "payment"
)

// EntityOf maps an event type to the entity it describes.
func EntityOf(eventType string) string {
	switch eventType {
	case BookingCreated, BookingUpdated, BookingCancelled, BookingDeleted:
		return EntityBooking
	case BlockedSlotCreated, BlockedSlotUpdated, BlockedSlotDeleted:
		return EntityBlockedSlot
	case AvailabilityCreated, AvailabilityUpdated, AvailabilityDeleted:
		return EntityAvailability
	case PaymentCreated, PaymentUpdated, PaymentDeleted:
		return EntityPayment
	default:
		return "unknown"
	}
}

// BookingEvent is the payload of every booking.* event.
type BookingEvent struct {
	BookingID  uuid.UUID  `json:"booking_id"`
	ActorID    *uuid.UUID `json:"actor_id,omitempty"`
	CustomerID uuid.UUID  `json:"customer_id"`
	StaffID    uuid.UUID  `json:"staff_id"`
	ResourceID uuid.UUID  `json:"resource_id"`
	ServiceID  uuid.UUID  `json:"service_id"`
	Start      time.Time  `json:"start"`
	End        time.Time  `json:"end"`
	Status     string     `json:"status"`
	Timestamp  time.Time  `json:"timestamp"`
}

// BlockedSlotEvent is the payload of every blocked_slot.* event.
type BlockedSlotEvent struct {
	BlockedSlotID uuid.UUID  `json:"blocked_slot_id"`
	ActorID       *uuid.UUID `json:"actor_id,omitempty"`
	SubjectID     *uuid.UUID `json:"subject_id,omitempty"`
	ResourceID    *uuid.UUID `json:"resource_id,omitempty"`
	Start         time.Time  `json:"start"`
	End           time.Time  `json:"end"`
	Timestamp     time.Time  `json:"timestamp"`
}

// AvailabilityEvent is the payload of every availability.* event.
type AvailabilityEvent struct {
	AvailabilityID uuid.UUID  `json:"availability_id"`
	ActorID        *uuid.UUID `json:"actor_id,omitempty"`
	MemberID       *uuid.UUID `json:"member_id,omitempty"`
	ResourceID     *uuid.UUID `json:"resource_id,omitempty"`
	DayOfWeek      string     `json:"day_of_week"`
	Start          time.Time  `json:"start"`
	End            time.Time  `json:"end"`
	Timestamp      time.Time  `json:"timestamp"`
}

// PaymentEvent is the payload of every payment.* event.
type PaymentEvent struct {
	PaymentID   uuid.UUID  `json:"payment_id"`
	ActorID     *uuid.UUID `json:"actor_id,omitempty"`
	BookingID   uuid.UUID  `json:"booking_id"`
	AmountCents int64      `json:"amount_cents"`
	Method      string     `json:"method"`
	Status      string     `json:"status"`
	Timestamp   time.Time  `json:"timestamp"`
}

// Envelope holds the fields every payload shares, for generic consumers.
type Envelope struct {
	ActorID   *uuid.UUID `json:"actor_id,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}
