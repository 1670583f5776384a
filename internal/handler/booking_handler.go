package handler

import (
	"context"

	"github.com/bookline/service-booking/internal/application"
	bookingDomain "github.com/bookline/service-booking/internal/domain/booking"
	"github.com/bookline/service-booking/internal/pkg/auth"
	"github.com/bookline/service-booking/internal/pkg/domain"
	"github.com/bookline/service-booking/internal/pkg/middleware"
	"github.com/bookline/service-booking/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BookingService is the booking use-case surface the handler needs.
type BookingService interface {
	CreateBooking(ctx context.Context, actorID uuid.UUID, req application.CreateBookingRequest) (*application.BookingDTO, error)
	UpdateBooking(ctx context.Context, actorID, bookingID uuid.UUID, req application.UpdateBookingRequest) (*application.BookingDTO, error)
	DeleteBooking(ctx context.Context, actorID, bookingID uuid.UUID) error
	GetBooking(ctx context.Context, bookingID uuid.UUID) (*application.BookingDTO, error)
	ListBookings(ctx context.Context, q application.ListBookingsQuery, page, limit int) (*domain.PaginatedResult[application.BookingDTO], error)
	CheckConflict(ctx context.Context, req application.ConflictCheckRequest) (*bookingDomain.ConflictDetails, error)
}

// BookingHandler handles HTTP requests for booking operations.
type BookingHandler struct {
	service BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(service BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

// RegisterRoutes registers all booking routes on the given router group.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup, tokens middleware.TokenValidator) {
	bookings := r.Group("/api/v1/bookings")
	bookings.Use(middleware.AuthMiddleware(tokens))
	{
		bookings.POST("", h.CreateBooking)
		bookings.GET("", h.ListBookings)
		bookings.GET("/check", h.CheckConflict)
		bookings.GET("/:id", h.GetBooking)
		bookings.PATCH("/:id", h.UpdateBooking)
		bookings.PUT("/:id", h.UpdateBooking)
		bookings.DELETE("/:id", middleware.RequireCapability(auth.CapManageBookings), h.DeleteBooking)
	}
}

// CreateBooking handles POST /api/v1/bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req application.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateBooking(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListBookings handles GET /api/v1/bookings.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	var q application.ListBookingsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	page, limit := parsePagination(c)

	result, err := h.service.ListBookings(c.Request.Context(), q, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// CheckConflict handles GET /api/v1/bookings/check.
func (h *BookingHandler) CheckConflict(c *gin.Context) {
	var req application.ConflictCheckRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CheckConflict(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetBooking handles GET /api/v1/bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	result, err := h.service.GetBooking(c.Request.Context(), bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpdateBooking handles PATCH and PUT /api/v1/bookings/:id. Both are partial.
func (h *BookingHandler) UpdateBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req application.UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdateBooking(c.Request.Context(), userID, bookingID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// DeleteBooking handles DELETE /api/v1/bookings/:id.
func (h *BookingHandler) DeleteBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}
	userID, _ := middleware.GetUserID(c)

	if err := h.service.DeleteBooking(c.Request.Context(), userID, bookingID); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
