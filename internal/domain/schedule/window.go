package schedule

import (
	"errors"
	"strings"
	"time"

	"github.com/bookline/service-booking/internal/pkg/domain"
)

// CodeInvalidWindow marks a missing, unparseable or empty time window.
const CodeInvalidWindow = "INVALID_WINDOW"

var ErrInvalidWindow = domain.NewValidationError("start must be strictly before end").WithCode(CodeInvalidWindow)

// ErrSerializationFailure is returned by stores when a schedule write lost a
// serialization race and may be retried.
var ErrSerializationFailure = errors.New("transaction serialization failure")

// TimeWindow is a half-open interval [start, end) with start < end.
type TimeWindow struct {
	start time.Time
	end   time.Time
}

// NewTimeWindow validates start < end. Both instants are normalised to UTC.
func NewTimeWindow(start, end time.Time) (TimeWindow, error) {
	if start.IsZero() || end.IsZero() {
		return TimeWindow{}, ErrInvalidWindow.WithMessage("start and end are required")
	}
	if !start.Before(end) {
		return TimeWindow{}, ErrInvalidWindow
	}
	return TimeWindow{start: start.UTC(), end: end.UTC()}, nil
}

func (w TimeWindow) Start() time.Time        { return w.start }
func (w TimeWindow) End() time.Time          { return w.end }
func (w TimeWindow) Duration() time.Duration { return w.end.Sub(w.start) }
func (w TimeWindow) IsZero() bool            { return w.start.IsZero() && w.end.IsZero() }

// Overlaps reports whether w and o share any instant. Windows that only touch
// at an endpoint do not overlap.
func (w TimeWindow) Overlaps(o TimeWindow) bool {
	return w.start.Before(o.end) && w.end.After(o.start)
}

// Covers reports whether the window lasts at least minutes.
func (w TimeWindow) Covers(minutes int) bool {
	return w.Duration() >= time.Duration(minutes)*time.Minute
}

var instantLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseInstant parses an ISO-8601 instant. Values without an offset are read
// as UTC, and a bare date is midnight UTC.
func ParseInstant(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, ErrInvalidWindow.WithMessage(field + " is required")
	}
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, ErrInvalidWindow.WithMessage(field + " is not a valid ISO-8601 instant")
}

// ParseWindow parses both bounds and validates the resulting window.
func ParseWindow(start, end string) (TimeWindow, error) {
	s, err := ParseInstant("start", start)
	if err != nil {
		return TimeWindow{}, err
	}
	e, err := ParseInstant("end", end)
	if err != nil {
		return TimeWindow{}, err
	}
	return NewTimeWindow(s, e)
}

// ParseRange parses optional from/to list filters. Either bound may be empty;
// when both are set from must precede to.
func ParseRange(from, to string) (*time.Time, *time.Time, error) {
	var f, t *time.Time
	if from != "" {
		v, err := ParseInstant("from", from)
		if err != nil {
			return nil, nil, err
		}
		f = &v
	}
	if to != "" {
		v, err := ParseInstant("to", to)
		if err != nil {
			return nil, nil, err
		}
		t = &v
	}
	if f != nil && t != nil && !f.Before(*t) {
		return nil, nil, ErrInvalidWindow.WithMessage("from must be before to")
	}
	return f, t, nil
}
