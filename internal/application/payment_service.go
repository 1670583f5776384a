package application

import (
	"context"
	"fmt"
	"time"

	"github.com/bookline/service-booking/internal/domain/event"
	"github.com/bookline/service-booking/internal/domain/payment"
	"github.com/bookline/service-booking/internal/domain/schedule"
	"github.com/bookline/service-booking/internal/pkg/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreatePaymentRequest is the request DTO for recording a payment.
type CreatePaymentRequest struct {
	BookingID      uuid.UUID `json:"booking_id" binding:"required"`
	AmountCents    *int64    `json:"amount_cents" binding:"required,gte=0"`
	Method         string    `json:"method" binding:"required,notblank,max=50"`
	Status         string    `json:"status" binding:"omitempty,oneof=pending paid failed refunded"`
	TransactionRef string    `json:"transaction_ref" binding:"max=200"`
}

// UpdatePaymentRequest is the request DTO for a partial payment update.
type UpdatePaymentRequest struct {
	BookingID      *uuid.UUID `json:"booking_id"`
	AmountCents    *int64     `json:"amount_cents" binding:"omitempty,gte=0"`
	Method         *string    `json:"method" binding:"omitempty,notblank,max=50"`
	Status         *string    `json:"status" binding:"omitempty,oneof=pending paid failed refunded"`
	TransactionRef *string    `json:"transaction_ref" binding:"omitempty,max=200"`
}

type ListPaymentsQuery struct {
	BookingID string `form:"booking_id"`
	Method    string `form:"method"`
	Status    string `form:"status"`
	From      string `form:"from"`
	To        string `form:"to"`
}

type PaymentStatsQuery struct {
	From string `form:"from"`
	To   string `form:"to"`
}

type PaymentDTO struct {
	ID             uuid.UUID `json:"id"`
	BookingID      uuid.UUID `json:"booking_id"`
	AmountCents    int64     `json:"amount_cents"`
	Method         string    `json:"method"`
	Status         string    `json:"status"`
	TransactionRef string    `json:"transaction_ref,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type PaymentStatusTotalDTO struct {
	Status           string `json:"status"`
	Count            int64  `json:"count"`
	TotalAmountCents int64  `json:"total_amount_cents"`
}

// BookingLookup checks that a booking exists.
type BookingLookup interface {
	BookingExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// PaymentService implements use cases for payments recorded against bookings.
type PaymentService struct {
	repo     payment.Repository
	bookings BookingLookup
	producer EventPublisher
	logger   *zap.Logger
}

func NewPaymentService(
	repo payment.Repository,
	bookings BookingLookup,
	producer EventPublisher,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{repo: repo, bookings: bookings, producer: producer, logger: logger}
}

func (s *PaymentService) CreatePayment(ctx context.Context, actorID uuid.UUID, req CreatePaymentRequest) (*PaymentDTO, error) {
	if req.AmountCents == nil {
		return nil, domain.NewValidationError("amount_cents is required")
	}
	var status payment.Status
	if req.Status != "" {
		st, err := payment.ParseStatus(req.Status)
		if err != nil {
			return nil, err
		}
		status = st
	}
	p, err := payment.New(req.BookingID, *req.AmountCents, req.Method, status, req.TransactionRef)
	if err != nil {
		return nil, err
	}
	if err := s.checkBooking(ctx, p.BookingID()); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	s.logger.Info("payment recorded",
		zap.String("payment_id", p.ID().String()),
		zap.String("booking_id", p.BookingID().String()),
		zap.String("status", p.Status().String()),
	)
	s.publishPaymentEvent(ctx, event.PaymentCreated, actorID, p)
	result := toPaymentDTO(p)
	return &result, nil
}

func (s *PaymentService) GetPayment(ctx context.Context, id uuid.UUID) (*PaymentDTO, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	result := toPaymentDTO(p)
	return &result, nil
}

// ListPayments returns payments newest first. From and To bound created_at.
func (s *PaymentService) ListPayments(ctx context.Context, q ListPaymentsQuery, page, limit int) (*domain.PaginatedResult[PaymentDTO], error) {
	f := payment.ListFilter{Method: q.Method}
	var err error
	if f.BookingID, err = parseOptionalUUID("booking_id", q.BookingID); err != nil {
		return nil, err
	}
	if q.Status != "" {
		st, err := payment.ParseStatus(q.Status)
		if err != nil {
			return nil, err
		}
		f.Status = &st
	}
	if f.From, f.To, err = schedule.ParseRange(q.From, q.To); err != nil {
		return nil, err
	}

	payments, total, err := s.repo.List(ctx, f, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	dtos := make([]PaymentDTO, len(payments))
	for i, p := range payments {
		dtos[i] = toPaymentDTO(p)
	}
	return domain.NewPaginatedResult(dtos, total, page, limit), nil
}

// UpdatePayment applies the set fields. An update with no fields is rejected.
func (s *PaymentService) UpdatePayment(ctx context.Context, actorID, id uuid.UUID, req UpdatePaymentRequest) (*PaymentDTO, error) {
	patch := payment.Patch{
		BookingID:      req.BookingID,
		AmountCents:    req.AmountCents,
		Method:         req.Method,
		TransactionRef: req.TransactionRef,
	}
	if req.Status != nil {
		st, err := payment.ParseStatus(*req.Status)
		if err != nil {
			return nil, err
		}
		patch.Status = &st
	}
	if patch.IsEmpty() {
		return nil, domain.NewValidationError("no fields to update")
	}

	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.BookingID != nil {
		if err := s.checkBooking(ctx, *req.BookingID); err != nil {
			return nil, err
		}
	}
	if err := p.Update(patch); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to update payment: %w", err)
	}

	s.publishPaymentEvent(ctx, event.PaymentUpdated, actorID, p)
	result := toPaymentDTO(p)
	return &result, nil
}

func (s *PaymentService) DeletePayment(ctx context.Context, actorID, id uuid.UUID) error {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.publishPaymentEvent(ctx, event.PaymentDeleted, actorID, p)
	return nil
}

// PaymentStats totals payment count and amount per status.
func (s *PaymentService) PaymentStats(ctx context.Context, q PaymentStatsQuery) ([]PaymentStatusTotalDTO, error) {
	from, to, err := schedule.ParseRange(q.From, q.To)
	if err != nil {
		return nil, err
	}
	totals, err := s.repo.TotalsByStatus(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to total payments: %w", err)
	}
	dtos := make([]PaymentStatusTotalDTO, len(totals))
	for i, t := range totals {
		dtos[i] = PaymentStatusTotalDTO{Status: t.Status.String(), Count: t.Count, TotalAmountCents: t.AmountCents}
	}
	return dtos, nil
}

func (s *PaymentService) checkBooking(ctx context.Context, id uuid.UUID) error {
	ok, err := s.bookings.BookingExists(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to look up booking: %w", err)
	}
	if !ok {
		return domain.NewValidationError("booking_id " + id.String() + " does not exist").WithCode("FOREIGN_KEY_INVALID")
	}
	return nil
}

func toPaymentDTO(p *payment.Payment) PaymentDTO {
	return PaymentDTO{
		ID:             p.ID(),
		BookingID:      p.BookingID(),
		AmountCents:    p.AmountCents(),
		Method:         p.Method(),
		Status:         p.Status().String(),
		TransactionRef: p.TransactionRef(),
		CreatedAt:      p.CreatedAt(),
		UpdatedAt:      p.UpdatedAt(),
	}
}

func (s *PaymentService) publishPaymentEvent(ctx context.Context, eventType string, actorID uuid.UUID, p *payment.Payment) {
	evt := event.PaymentEvent{
		PaymentID:   p.ID(),
		BookingID:   p.BookingID(),
		AmountCents: p.AmountCents(),
		Method:      p.Method(),
		Status:      p.Status().String(),
		Timestamp:   time.Now().UTC(),
	}
	if actorID != uuid.Nil {
		evt.ActorID = &actorID
	}
	publish(ctx, s.producer, s.logger, eventType, p.ID().String(), evt)
}
