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

type BlockedSlotService interface {
	CreateBlockedSlot(ctx context.Context, actorID uuid.UUID, req application.CreateBlockedSlotRequest) (*application.BlockedSlotDTO, error)
	UpdateBlockedSlot(ctx context.Context, actorID, id uuid.UUID, req application.UpdateBlockedSlotRequest) (*application.BlockedSlotDTO, error)
	DeleteBlockedSlot(ctx context.Context, actorID, id uuid.UUID) error
	GetBlockedSlot(ctx context.Context, id uuid.UUID) (*application.BlockedSlotDTO, error)
	ListBlockedSlots(ctx context.Context, q application.ListBlockedSlotsQuery, page, limit int) (*domain.PaginatedResult[application.BlockedSlotDTO], error)
	CheckOverlap(ctx context.Context, q application.BlockedSlotOverlapQuery) (*application.OverlapResultDTO, error)
}

// BlockedSlotHandler handles HTTP requests for blocked slots.
type BlockedSlotHandler struct {
	service BlockedSlotService
}

func NewBlockedSlotHandler(service BlockedSlotService) *BlockedSlotHandler {
	return &BlockedSlotHandler{service: service}
}

func (h *BlockedSlotHandler) RegisterRoutes(r *gin.RouterGroup, tokens middleware.TokenValidator) {
	manage := middleware.RequireCapability(auth.CapManageBlockedSlots)

	slots := r.Group("/api/v1/blocked-slots")
	slots.Use(middleware.AuthMiddleware(tokens))
	{
		slots.POST("", manage, h.Create)
		slots.GET("", h.List)
		slots.GET("/check", h.CheckOverlap)
		slots.GET("/:id", h.Get)
		slots.PATCH("/:id", manage, h.Update)
		slots.PUT("/:id", manage, h.Update)
		slots.DELETE("/:id", manage, h.Delete)
	}
}

func (h *BlockedSlotHandler) Create(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req application.CreateBlockedSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateBlockedSlot(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

func (h *BlockedSlotHandler) List(c *gin.Context) {
	var q application.ListBlockedSlotsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	page, limit := parsePagination(c)

	result, err := h.service.ListBlockedSlots(c.Request.Context(), q, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

func (h *BlockedSlotHandler) CheckOverlap(c *gin.Context) {
	var q application.BlockedSlotOverlapQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CheckOverlap(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func (h *BlockedSlotHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid blocked slot ID")
		return
	}

	result, err := h.service.GetBlockedSlot(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func (h *BlockedSlotHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid blocked slot ID")
		return
	}
	userID, _ := middleware.GetUserID(c)

	var req application.UpdateBlockedSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdateBlockedSlot(c.Request.Context(), userID, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func (h *BlockedSlotHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid blocked slot ID")
		return
	}
	userID, _ := middleware.GetUserID(c)

	if err := h.service.DeleteBlockedSlot(c.Request.Context(), userID, id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
