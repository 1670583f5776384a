package booking

import (
	"github.com/bookline/service-booking/internal/domain/schedule"
	"github.com/bookline/service-booking/internal/pkg/domain"
	"github.com/google/uuid"
)

// Admission rejections. Each is terminal for the request that caused it.
var (
	ErrInvalidWindow     = schedule.ErrInvalidWindow
	ErrForeignKeyInvalid = domain.NewValidationError("referenced record does not exist").WithCode("FOREIGN_KEY_INVALID")
	ErrDurationTooShort  = domain.NewValidationError("window is shorter than the service duration").WithCode("DURATION_TOO_SHORT")
	ErrConflict          = domain.NewConflictError("the requested window overlaps an existing booking or blocked slot").WithCode("SCHEDULE_CONFLICT")
	ErrStorageFailure    = domain.NewInternalError("storage failure", nil).WithCode("STORAGE_FAILURE")
)

// ErrBookingClosed rejects rescheduling a booking in a terminal status.
var ErrBookingClosed = &domain.Error{
	Kind:    domain.KindInvalidState,
	Code:    "BOOKING_CLOSED",
	Message: "a booking in a terminal status cannot be rescheduled",
}

// ErrSerializationFailure is returned by stores when a transaction lost a
// serialization race and may be retried.
var ErrSerializationFailure = schedule.ErrSerializationFailure

func NewNotFoundError(id uuid.UUID) error {
	return domain.NewNotFoundError("booking", id.String())
}

// NewForeignKeyError names the missing reference.
func NewForeignKeyError(field string, id uuid.UUID) error {
	return ErrForeignKeyInvalid.WithMessage(field + " " + id.String() + " does not exist").
		WithDetails(map[string]string{"field": field, "id": id.String()})
}

// NewConflictError carries the conflicting rows for the client.
func NewConflictError(result ConflictResult) error {
	return ErrConflict.WithDetails(result.Details())
}

// NewStorageError hides cause behind the opaque storage failure.
func NewStorageError(cause error) error {
	return ErrStorageFailure.Wrap(cause)
}
