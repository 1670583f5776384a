package application

import (
	"context"
	"fmt"
	"time"

	bookingDomain "github.com/bookline/service-booking/internal/domain/booking"
	"github.com/bookline/service-booking/internal/domain/event"
	"github.com/bookline/service-booking/internal/domain/schedule"
	"github.com/bookline/service-booking/internal/pkg/domain"
	"github.com/bookline/service-booking/internal/pkg/kafka"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateBookingRequest holds the data needed to create a new booking.
type CreateBookingRequest struct {
	CustomerID uuid.UUID `json:"customer_id" binding:"required"`
	StaffID    uuid.UUID `json:"staff_id" binding:"required"`
	ResourceID uuid.UUID `json:"resource_id" binding:"required"`
	ServiceID  uuid.UUID `json:"service_id" binding:"required"`
	Start      string    `json:"start"`
	End        string    `json:"end"`
	Notes      string    `json:"notes" binding:"max=2000"`
}

// UpdateBookingRequest holds a partial booking update. Absent fields are unchanged.
type UpdateBookingRequest struct {
	CustomerID *uuid.UUID `json:"customer_id"`
	StaffID    *uuid.UUID `json:"staff_id"`
	ResourceID *uuid.UUID `json:"resource_id"`
	ServiceID  *uuid.UUID `json:"service_id"`
	Start      *string    `json:"start"`
	End        *string    `json:"end"`
	Status     *string    `json:"status"`
	Notes      *string    `json:"notes" binding:"omitempty,max=2000"`
}

// ConflictCheckRequest is the read-only conflict check input.
type ConflictCheckRequest struct {
	StaffID          string `form:"staff_id" json:"staff_id" binding:"required"`
	ResourceID       string `form:"resource_id" json:"resource_id" binding:"required"`
	Start            string `form:"start" json:"start"`
	End              string `form:"end" json:"end"`
	ExcludeBookingID string `form:"exclude_booking_id" json:"exclude_booking_id"`
}

// ListBookingsQuery holds the optional list filters.
type ListBookingsQuery struct {
	CustomerID string `form:"customer_id"`
	StaffID    string `form:"staff_id"`
	ResourceID string `form:"resource_id"`
	ServiceID  string `form:"service_id"`
	Status     string `form:"status"`
	From       string `form:"from"`
	To         string `form:"to"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID         uuid.UUID `json:"id"`
	CustomerID uuid.UUID `json:"customer_id"`
	StaffID    uuid.UUID `json:"staff_id"`
	ResourceID uuid.UUID `json:"resource_id"`
	ServiceID  uuid.UUID `json:"service_id"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Status     string    `json:"status"`
	Notes      string    `json:"notes,omitempty"`
	Version    int64     `json:"version"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// EventPublisher publishes CloudEvents to a topic.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error
}

// BookingService is the application service orchestrating booking use cases.
// Every write goes through the ConflictGuard.
type BookingService struct {
	guard    *ConflictGuard
	repo     bookingDomain.BookingRepository
	producer EventPublisher
	logger   *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	guard *ConflictGuard,
	repo bookingDomain.BookingRepository,
	producer EventPublisher,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		guard:    guard,
		repo:     repo,
		producer: producer,
		logger:   logger,
	}
}

// CreateBooking admits a new booking on behalf of actorID.
func (s *BookingService) CreateBooking(ctx context.Context, actorID uuid.UUID, req CreateBookingRequest) (*BookingDTO, error) {
	window, err := schedule.ParseWindow(req.Start, req.End)
	if err != nil {
		return nil, err
	}

	bk, err := s.guard.AdmitBooking(ctx, Candidate{
		CustomerID: req.CustomerID,
		StaffID:    req.StaffID,
		ResourceID: req.ResourceID,
		ServiceID:  req.ServiceID,
		Start:      window.Start(),
		End:        window.End(),
		Notes:      req.Notes,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking created",
		zap.String("booking_id", bk.ID().String()),
		zap.String("staff_id", bk.StaffID().String()),
		zap.String("resource_id", bk.ResourceID().String()),
	)
	s.publishBookingEvent(ctx, event.BookingCreated, actorID, bk)

	result := toBookingDTO(bk)
	return &result, nil
}

// UpdateBooking applies a partial update through the guard.
func (s *BookingService) UpdateBooking(ctx context.Context, actorID, bookingID uuid.UUID, req UpdateBookingRequest) (*BookingDTO, error) {
	patch, err := req.toPatch()
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return nil, domain.NewValidationError("no fields to update")
	}

	bk, err := s.guard.ReviseBooking(ctx, bookingID, patch)
	if err != nil {
		return nil, err
	}

	eventType := event.BookingUpdated
	if patch.Status != nil && bk.Status() == bookingDomain.StatusCancelled {
		eventType = event.BookingCancelled
	}
	s.publishBookingEvent(ctx, eventType, actorID, bk)

	result := toBookingDTO(bk)
	return &result, nil
}

func (r UpdateBookingRequest) toPatch() (bookingDomain.Patch, error) {
	start, err := parseOptionalInstant("start", r.Start)
	if err != nil {
		return bookingDomain.Patch{}, err
	}
	end, err := parseOptionalInstant("end", r.End)
	if err != nil {
		return bookingDomain.Patch{}, err
	}

	patch := bookingDomain.Patch{
		CustomerID: r.CustomerID,
		StaffID:    r.StaffID,
		ResourceID: r.ResourceID,
		ServiceID:  r.ServiceID,
		Start:      start,
		End:        end,
		Notes:      r.Notes,
	}
	if r.Status != nil {
		status, err := bookingDomain.ParseBookingStatus(*r.Status)
		if err != nil {
			return bookingDomain.Patch{}, domain.NewValidationError(err.Error())
		}
		patch.Status = &status
	}
	return patch, nil
}

// DeleteBooking removes a booking.
func (s *BookingService) DeleteBooking(ctx context.Context, actorID, bookingID uuid.UUID) error {
	bk, err := s.guard.RemoveBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	s.logger.Info("booking deleted", zap.String("booking_id", bookingID.String()))
	s.publishBookingEvent(ctx, event.BookingDeleted, actorID, bk)
	return nil
}

// GetBooking retrieves a single booking by ID.
func (s *BookingService) GetBooking(ctx context.Context, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// ListBookings returns bookings matching q ordered by start.
func (s *BookingService) ListBookings(ctx context.Context, q ListBookingsQuery, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	filter, err := q.toFilter()
	if err != nil {
		return nil, err
	}

	bookings, total, err := s.repo.List(ctx, filter, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	return domain.NewPaginatedResult(dtos, total, page, limit), nil
}

func (q ListBookingsQuery) toFilter() (bookingDomain.ListFilter, error) {
	var (
		f   bookingDomain.ListFilter
		err error
	)
	if f.CustomerID, err = parseOptionalUUID("customer_id", q.CustomerID); err != nil {
		return f, err
	}
	if f.StaffID, err = parseOptionalUUID("staff_id", q.StaffID); err != nil {
		return f, err
	}
	if f.ResourceID, err = parseOptionalUUID("resource_id", q.ResourceID); err != nil {
		return f, err
	}
	if f.ServiceID, err = parseOptionalUUID("service_id", q.ServiceID); err != nil {
		return f, err
	}
	if q.Status != "" {
		status, err := bookingDomain.ParseBookingStatus(q.Status)
		if err != nil {
			return f, domain.NewValidationError(err.Error())
		}
		f.Status = &status
	}
	if f.From, f.To, err = schedule.ParseRange(q.From, q.To); err != nil {
		return f, err
	}
	return f, nil
}

// CheckConflict runs the read-only conflict check.
func (s *BookingService) CheckConflict(ctx context.Context, req ConflictCheckRequest) (*bookingDomain.ConflictDetails, error) {
	window, err := schedule.ParseWindow(req.Start, req.End)
	if err != nil {
		return nil, err
	}
	staffID, err := uuid.Parse(req.StaffID)
	if err != nil {
		return nil, domain.NewValidationError("invalid staff_id")
	}
	resourceID, err := uuid.Parse(req.ResourceID)
	if err != nil {
		return nil, domain.NewValidationError("invalid resource_id")
	}
	exclude, err := parseOptionalUUID("exclude_booking_id", req.ExcludeBookingID)
	if err != nil {
		return nil, err
	}

	result, err := s.guard.CheckConflict(ctx, bookingDomain.ConflictQuery{
		StaffID:          staffID,
		ResourceID:       resourceID,
		Window:           window,
		ExcludeBookingID: exclude,
	})
	if err != nil {
		return nil, err
	}
	details := result.Details()
	return &details, nil
}

// GetBookingStats returns booking counts grouped by status (admin).
func (s *BookingService) GetBookingStats(ctx context.Context) (map[string]int64, error) {
	stats, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}
	return stats, nil
}

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
		ID:         bk.ID(),
		CustomerID: bk.CustomerID(),
		StaffID:    bk.StaffID(),
		ResourceID: bk.ResourceID(),
		ServiceID:  bk.ServiceID(),
		Start:      bk.Window().Start(),
		End:        bk.Window().End(),
		Status:     bk.Status().String(),
		Notes:      bk.Notes(),
		Version:    bk.Version(),
		CreatedAt:  bk.CreatedAt(),
		UpdatedAt:  bk.UpdatedAt(),
	}
}

func (s *BookingService) publishBookingEvent(ctx context.Context, eventType string, actorID uuid.UUID, bk *bookingDomain.Booking) {
	evt := event.BookingEvent{
		BookingID:  bk.ID(),
		CustomerID: bk.CustomerID(),
		StaffID:    bk.StaffID(),
		ResourceID: bk.ResourceID(),
		ServiceID:  bk.ServiceID(),
		Start:      bk.Window().Start(),
		End:        bk.Window().End(),
		Status:     bk.Status().String(),
		Timestamp:  time.Now().UTC(),
	}
	if actorID != uuid.Nil {
		evt.ActorID = &actorID
	}
	publish(ctx, s.producer, s.logger, eventType, bk.ID().String(), evt)
}

// publish emits a CloudEvent on the booking topic. Failures are logged, never returned.
func publish(ctx context.Context, producer EventPublisher, logger *zap.Logger, eventType, key string, data any) {
	if producer == nil {
		return
	}
	cloudEvent, err := kafka.NewCloudEvent(event.Source, eventType, data)
	if err != nil {
		logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := producer.PublishEvent(ctx, event.TopicBookingEvents, cloudEvent.WithSubject(key)); err != nil {
		logger.Error("failed to publish event",
			zap.String("topic", event.TopicBookingEvents),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
