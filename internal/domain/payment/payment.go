package payment

import (
	"strings"
	"time"

	"github.com/bookline/service-booking/internal/pkg/domain"
	"github.com/google/uuid"
)

var ErrInvalidStatus = domain.NewValidationError("status must be one of pending, paid, failed, refunded").WithCode("INVALID_PAYMENT_STATUS")

// Status is the settlement state of a payment.
type Status string

const (
	StatusPending  Status = "pending"
	StatusPaid     Status = "paid"
	StatusFailed   Status = "failed"
	StatusRefunded Status = "refunded"
)

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.IsValid() {
		return "", ErrInvalidStatus.WithDetails(map[string]string{"status": s})
	}
	return st, nil
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusFailed, StatusRefunded:
		return true
	}
	return false
}

func (s Status) String() string { return string(s) }

// Payment records money taken, or expected, for one booking.
type Payment struct {
	id             uuid.UUID
	bookingID      uuid.UUID
	amountCents    int64
	method         string
	status         Status
	transactionRef string
	createdAt      time.Time
	updatedAt      time.Time
}

// New creates a payment; an empty status means pending.
func New(bookingID uuid.UUID, amountCents int64, method string, status Status, transactionRef string) (*Payment, error) {
	if bookingID == uuid.Nil {
		return nil, domain.NewValidationError("booking_id is required")
	}
	if status == "" {
		status = StatusPending
	}
	p := &Payment{id: uuid.New(), bookingID: bookingID, transactionRef: transactionRef}
	if err := p.set(amountCents, method, status); err != nil {
		return nil, err
	}
	p.createdAt = time.Now().UTC()
	p.updatedAt = p.createdAt
	return p, nil
}

// Reconstruct rebuilds a Payment from persistence data (no validation).
func Reconstruct(
	id, bookingID uuid.UUID,
	amountCents int64,
	method string,
	status Status,
	transactionRef string,
	createdAt, updatedAt time.Time,
) *Payment {
	return &Payment{
		id:             id,
		bookingID:      bookingID,
		amountCents:    amountCents,
		method:         method,
		status:         status,
		transactionRef: transactionRef,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

func (p *Payment) set(amountCents int64, method string, status Status) error {
	if amountCents < 0 {
		return domain.NewValidationError("amount must not be negative")
	}
	method = strings.TrimSpace(method)
	if method == "" {
		return domain.NewValidationError("payment method is required")
	}
	if !status.IsValid() {
		return ErrInvalidStatus
	}
	p.amountCents, p.method, p.status = amountCents, method, status
	return nil
}

// Patch holds the optional fields of a payment update.
type Patch struct {
	BookingID      *uuid.UUID
	AmountCents    *int64
	Method         *string
	Status         *Status
	TransactionRef *string
}

func (p Patch) IsEmpty() bool {
	return p.BookingID == nil && p.AmountCents == nil && p.Method == nil && p.Status == nil && p.TransactionRef == nil
}

// Update applies the non-nil fields. A failed update leaves p unchanged.
func (p *Payment) Update(patch Patch) error {
	if patch.IsEmpty() {
		return domain.NewValidationError("no fields to update")
	}
	if patch.BookingID != nil && *patch.BookingID == uuid.Nil {
		return domain.NewValidationError("booking_id is required")
	}
	a, m, s := p.amountCents, p.method, p.status
	if patch.AmountCents != nil {
		a = *patch.AmountCents
	}
	if patch.Method != nil {
		m = *patch.Method
	}
	if patch.Status != nil {
		s = *patch.Status
	}
	if err := p.set(a, m, s); err != nil {
		return err
	}
	if patch.BookingID != nil {
		p.bookingID = *patch.BookingID
	}
	if patch.TransactionRef != nil {
		p.transactionRef = *patch.TransactionRef
	}
	p.updatedAt = time.Now().UTC()
	return nil
}

func (p *Payment) ID() uuid.UUID          { return p.id }
func (p *Payment) BookingID() uuid.UUID   { return p.bookingID }
func (p *Payment) AmountCents() int64     { return p.amountCents }
func (p *Payment) Method() string         { return p.method }
func (p *Payment) Status() Status         { return p.status }
func (p *Payment) TransactionRef() string { return p.transactionRef }
func (p *Payment) CreatedAt() time.Time   { return p.createdAt }
func (p *Payment) UpdatedAt() time.Time   { return p.updatedAt }
