package handler

import (
	"context"

	"github.com/bookline/service-booking/internal/application"
	"github.com/bookline/service-booking/internal/pkg/auth"
	"github.com/bookline/service-booking/internal/pkg/domain"
	"github.com/bookline/service-booking/internal/pkg/middleware"
	"github.com/bookline/service-booking/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PaymentService interface {
	CreatePayment(ctx context.Context, actorID uuid.UUID, req application.CreatePaymentRequest) (*application.PaymentDTO, error)
	UpdatePayment(ctx context.Context, actorID, id uuid.UUID, req application.UpdatePaymentRequest) (*application.PaymentDTO, error)
	DeletePayment(ctx context.Context, actorID, id uuid.UUID) error
	GetPayment(ctx context.Context, id uuid.UUID) (*application.PaymentDTO, error)
	ListPayments(ctx context.Context, q application.ListPaymentsQuery, page, limit int) (*domain.PaginatedResult[application.PaymentDTO], error)
	PaymentStats(ctx context.Context, q application.PaymentStatsQuery) ([]application.PaymentStatusTotalDTO, error)
}

// PaymentHandler handles HTTP requests for payments. Every route is admin only.
type PaymentHandler struct {
	service PaymentService
}

func NewPaymentHandler(service PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

func (h *PaymentHandler) RegisterRoutes(r *gin.RouterGroup, tokens middleware.TokenValidator) {
	payments := r.Group("/api/v1/payments")
	payments.Use(middleware.AuthMiddleware(tokens), middleware.RequireCapability(auth.CapManagePayments))
	{
		payments.POST("", h.Create)
		payments.GET("", h.List)
		payments.GET("/stats/status", h.Stats)
		payments.GET("/:id", h.Get)
		payments.PATCH("/:id", h.Update)
		payments.PUT("/:id", h.Update)
		payments.DELETE("/:id", h.Delete)
	}
}

func (h *PaymentHandler) Create(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req application.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreatePayment(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

func (h *PaymentHandler) List(c *gin.Context) {
	var q application.ListPaymentsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	page, limit := parsePagination(c)

	result, err := h.service.ListPayments(c.Request.Context(), q, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

func (h *PaymentHandler) Stats(c *gin.Context) {
	var q application.PaymentStatsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.PaymentStats(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func (h *PaymentHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "payment")
	if !ok {
		return
	}

	result, err := h.service.GetPayment(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func (h *PaymentHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "payment")
	if !ok {
		return
	}
	userID, _ := middleware.GetUserID(c)

	var req application.UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdatePayment(c.Request.Context(), userID, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func (h *PaymentHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "payment")
	if !ok {
		return
	}
	userID, _ := middleware.GetUserID(c)

	if err := h.service.DeletePayment(c.Request.Context(), userID, id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
