package availability

import (
	"time"

	"github.com/bookline/service-booking/internal/domain/schedule"
	"github.com/bookline/service-booking/internal/pkg/domain"
	"github.com/google/uuid"
)

var (
	ErrNoScope    = domain.NewValidationError("at least one of member_id or resource_id is required").WithCode("AVAILABILITY_SCOPE_REQUIRED")
	ErrInvalidDay = domain.NewValidationError("day_of_week must be one of Mon, Tue, Wed, Thu, Fri, Sat, Sun").WithCode("INVALID_DAY_OF_WEEK")
)

// Weekday is a day_of_week value as stored, Mon through Sun.
type Weekday string

const (
	Monday    Weekday = "Mon"
	Tuesday   Weekday = "Tue"
	Wednesday Weekday = "Wed"
	Thursday  Weekday = "Thu"
	Friday    Weekday = "Fri"
	Saturday  Weekday = "Sat"
	Sunday    Weekday = "Sun"
)

// Week lists the days in calendar order, Monday first.
var Week = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

func ParseWeekday(s string) (Weekday, error) {
	d := Weekday(s)
	if !d.IsValid() {
		return "", ErrInvalidDay.WithDetails(map[string]string{"day_of_week": s})
	}
	return d, nil
}

func (d Weekday) IsValid() bool {
	for _, w := range Week {
		if d == w {
			return true
		}
	}
	return false
}

func (d Weekday) String() string { return string(d) }

// Availability is a recurring window during which a member, a resource, or
// both can be booked. It is informational: admissions do not consult it.
type Availability struct {
	id         uuid.UUID
	memberID   *uuid.UUID
	resourceID *uuid.UUID
	day        Weekday
	window     schedule.TimeWindow
	createdAt  time.Time
	updatedAt  time.Time
}

func New(memberID, resourceID *uuid.UUID, day Weekday, window schedule.TimeWindow) (*Availability, error) {
	if err := validateScope(memberID, resourceID); err != nil {
		return nil, err
	}
	if !day.IsValid() {
		return nil, ErrInvalidDay
	}
	if window.IsZero() {
		return nil, schedule.ErrInvalidWindow
	}
	now := time.Now().UTC()
	return &Availability{
		id:         uuid.New(),
		memberID:   memberID,
		resourceID: resourceID,
		day:        day,
		window:     window,
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

// Reconstruct rebuilds an Availability from persistence data (no validation).
func Reconstruct(
	id uuid.UUID,
	memberID, resourceID *uuid.UUID,
	day Weekday,
	window schedule.TimeWindow,
	createdAt, updatedAt time.Time,
) *Availability {
	return &Availability{
		id:         id,
		memberID:   memberID,
		resourceID: resourceID,
		day:        day,
		window:     window,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}
}

func validateScope(memberID, resourceID *uuid.UUID) error {
	if isNil(memberID) && isNil(resourceID) {
		return ErrNoScope
	}
	return nil
}

func isNil(id *uuid.UUID) bool { return id == nil || *id == uuid.Nil }

func (a *Availability) ID() uuid.UUID               { return a.id }
func (a *Availability) MemberID() *uuid.UUID        { return a.memberID }
func (a *Availability) ResourceID() *uuid.UUID      { return a.resourceID }
func (a *Availability) Day() Weekday                { return a.day }
func (a *Availability) Window() schedule.TimeWindow { return a.window }
func (a *Availability) CreatedAt() time.Time        { return a.createdAt }
func (a *Availability) UpdatedAt() time.Time        { return a.updatedAt }

// Patch holds the optional fields of an availability update. ClearMember and
// ClearResource drop a reference; the result must still have one.
type Patch struct {
	MemberID      *uuid.UUID
	ResourceID    *uuid.UUID
	ClearMember   bool
	ClearResource bool
	Day           *Weekday
	Start         *time.Time
	End           *time.Time
}

// Revise returns a copy of a with p applied and re-validated.
func (a *Availability) Revise(p Patch) (*Availability, error) {
	next := *a
	switch {
	case p.ClearMember:
		next.memberID = nil
	case p.MemberID != nil:
		next.memberID = p.MemberID
	}
	switch {
	case p.ClearResource:
		next.resourceID = nil
	case p.ResourceID != nil:
		next.resourceID = p.ResourceID
	}
	if err := validateScope(next.memberID, next.resourceID); err != nil {
		return nil, err
	}

	if p.Day != nil {
		if !p.Day.IsValid() {
			return nil, ErrInvalidDay
		}
		next.day = *p.Day
	}

	start, end := a.window.Start(), a.window.End()
	if p.Start != nil {
		start = *p.Start
	}
	if p.End != nil {
		end = *p.End
	}
	w, err := schedule.NewTimeWindow(start, end)
	if err != nil {
		return nil, err
	}
	next.window = w
	next.updatedAt = time.Now().UTC()
	return &next, nil
}
