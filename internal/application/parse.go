package application

import (
	"time"

	"github.com/bookline/service-booking/internal/domain/schedule"
	"github.com/bookline/service-booking/internal/pkg/domain"
	"github.com/google/uuid"
)

// parseOptionalUUID parses a filter value; empty means unset.
func parseOptionalUUID(field, value string) (*uuid.UUID, error) {
	if value == "" {
		return nil, nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return nil, domain.NewValidationError("invalid " + field)
	}
	return &id, nil
}

// parseOptionalInstant parses an optional window bound.
func parseOptionalInstant(field string, value *string) (*time.Time, error) {
	if value == nil {
		return nil, nil
	}
	t, err := schedule.ParseInstant(field, *value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
