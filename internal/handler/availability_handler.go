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

type AvailabilityService interface {
	CreateAvailability(ctx context.Context, actorID uuid.UUID, req application.CreateAvailabilityRequest) (*application.AvailabilityDTO, error)
	UpdateAvailability(ctx context.Context, actorID, id uuid.UUID, req application.UpdateAvailabilityRequest) (*application.AvailabilityDTO, error)
	DeleteAvailability(ctx context.Context, actorID, id uuid.UUID) error
	GetAvailability(ctx context.Context, id uuid.UUID) (*application.AvailabilityDTO, error)
	ListAvailability(ctx context.Context, q application.ListAvailabilityQuery, page, limit int) (*domain.PaginatedResult[application.AvailabilityDTO], error)
}

// AvailabilityHandler handles HTTP requests for weekly availability windows.
type AvailabilityHandler struct {
	service AvailabilityService
}

func NewAvailabilityHandler(service AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: service}
}

// RegisterRoutes mounts the availability routes. They share the blocked slot
// capability since both shape a schedule.
func (h *AvailabilityHandler) RegisterRoutes(r *gin.RouterGroup, tokens middleware.TokenValidator) {
	windows := r.Group("/api/v1/availability")
	windows.Use(middleware.AuthMiddleware(tokens), middleware.RequireCapability(auth.CapManageBlockedSlots))
	{
		windows.POST("", h.Create)
		windows.GET("", h.List)
		windows.GET("/:id", h.Get)
		windows.PATCH("/:id", h.Update)
		windows.PUT("/:id", h.Update)
		windows.DELETE("/:id", h.Delete)
	}
}

func (h *AvailabilityHandler) Create(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req application.CreateAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateAvailability(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

func (h *AvailabilityHandler) List(c *gin.Context) {
	var q application.ListAvailabilityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	page, limit := parsePagination(c)

	result, err := h.service.ListAvailability(c.Request.Context(), q, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

func (h *AvailabilityHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "availability")
	if !ok {
		return
	}

	result, err := h.service.GetAvailability(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func (h *AvailabilityHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "availability")
	if !ok {
		return
	}
	userID, _ := middleware.GetUserID(c)

	var req application.UpdateAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdateAvailability(c.Request.Context(), userID, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func (h *AvailabilityHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "availability")
	if !ok {
		return
	}
	userID, _ := middleware.GetUserID(c)

	if err := h.service.DeleteAvailability(c.Request.Context(), userID, id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
