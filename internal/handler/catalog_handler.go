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

type CatalogService interface {
	CreateMember(ctx context.Context, req application.CreateMemberRequest) (*application.MemberDTO, error)
	GetMember(ctx context.Context, id uuid.UUID) (*application.MemberDTO, error)
	ListMembers(ctx context.Context, role string, page, limit int) (*domain.PaginatedResult[application.MemberDTO], error)
	UpdateMember(ctx context.Context, id uuid.UUID, req application.UpdateMemberRequest) (*application.MemberDTO, error)
	DeleteMember(ctx context.Context, id uuid.UUID) error

	CreateResource(ctx context.Context, req application.CreateResourceRequest) (*application.ResourceDTO, error)
	GetResource(ctx context.Context, id uuid.UUID) (*application.ResourceDTO, error)
	ListResources(ctx context.Context, page, limit int) (*domain.PaginatedResult[application.ResourceDTO], error)
	UpdateResource(ctx context.Context, id uuid.UUID, req application.UpdateResourceRequest) (*application.ResourceDTO, error)
	DeleteResource(ctx context.Context, id uuid.UUID) error

	CreateService(ctx context.Context, req application.CreateServiceRequest) (*application.ServiceDTO, error)
	GetService(ctx context.Context, id uuid.UUID) (*application.ServiceDTO, error)
	ListServices(ctx context.Context, page, limit int) (*domain.PaginatedResult[application.ServiceDTO], error)
	UpdateService(ctx context.Context, id uuid.UUID, req application.UpdateServiceRequest) (*application.ServiceDTO, error)
	DeleteService(ctx context.Context, id uuid.UUID) error
}

// CatalogHandler serves members, resources and services. Reads need a valid
// token; writes need the manage_catalog capability.
type CatalogHandler struct {
	service CatalogService
}

func NewCatalogHandler(service CatalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

func (h *CatalogHandler) RegisterRoutes(r *gin.RouterGroup, tokens middleware.TokenValidator) {
	authMW := middleware.AuthMiddleware(tokens)
	manage := middleware.RequireCapability(auth.CapManageCatalog)

	members := r.Group("/api/v1/members")
	members.Use(authMW)
	{
		members.POST("", manage, h.CreateMember)
		members.GET("", h.ListMembers)
		members.GET("/:id", h.GetMember)
		members.PATCH("/:id", manage, h.UpdateMember)
		members.PUT("/:id", manage, h.UpdateMember)
		members.DELETE("/:id", manage, h.DeleteMember)
	}

	resources := r.Group("/api/v1/resources")
	resources.Use(authMW)
	{
		resources.POST("", manage, h.CreateResource)
		resources.GET("", h.ListResources)
		resources.GET("/:id", h.GetResource)
		resources.PATCH("/:id", manage, h.UpdateResource)
		resources.PUT("/:id", manage, h.UpdateResource)
		resources.DELETE("/:id", manage, h.DeleteResource)
	}

	services := r.Group("/api/v1/services")
	services.Use(authMW)
	{
		services.POST("", manage, h.CreateService)
		services.GET("", h.ListServices)
		services.GET("/:id", h.GetService)
		services.PATCH("/:id", manage, h.UpdateService)
		services.PUT("/:id", manage, h.UpdateService)
		services.DELETE("/:id", manage, h.DeleteService)
	}
}

// --- Members ---

func (h *CatalogHandler) CreateMember(c *gin.Context) {
	var req application.CreateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	result, err := h.service.CreateMember(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

func (h *CatalogHandler) ListMembers(c *gin.Context) {
	page, limit := parsePagination(c)
	result, err := h.service.ListMembers(c.Request.Context(), c.Query("role"), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

func (h *CatalogHandler) GetMember(c *gin.Context) {
	id, ok := parseID(c, "member")
	if !ok {
		return
	}
	result, err := h.service.GetMember(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func (h *CatalogHandler) UpdateMember(c *gin.Context) {
	id, ok := parseID(c, "member")
	if !ok {
		return
	}
	var req application.UpdateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	result, err := h.service.UpdateMember(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func (h *CatalogHandler) DeleteMember(c *gin.Context) {
	id, ok := parseID(c, "member")
	if !ok {
		return
	}
	if err := h.service.DeleteMember(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// --- Resources ---

func (h *CatalogHandler) CreateResource(c *gin.Context) {
	var req application.CreateResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	result, err := h.service.CreateResource(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

func (h *CatalogHandler) ListResources(c *gin.Context) {
	page, limit := parsePagination(c)
	result, err := h.service.ListResources(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

func (h *CatalogHandler) GetResource(c *gin.Context) {
	id, ok := parseID(c, "resource")
	if !ok {
		return
	}
	result, err := h.service.GetResource(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func (h *CatalogHandler) UpdateResource(c *gin.Context) {
	id, ok := parseID(c, "resource")
	if !ok {
		return
	}
	var req application.UpdateResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	result, err := h.service.UpdateResource(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func (h *CatalogHandler) DeleteResource(c *gin.Context) {
	id, ok := parseID(c, "resource")
	if !ok {
		return
	}
	if err := h.service.DeleteResource(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// --- Services ---

func (h *CatalogHandler) CreateService(c *gin.Context) {
	var req application.CreateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	result, err := h.service.CreateService(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

func (h *CatalogHandler) ListServices(c *gin.Context) {
	page, limit := parsePagination(c)
	result, err := h.service.ListServices(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

func (h *CatalogHandler) GetService(c *gin.Context) {
	id, ok := parseID(c, "service")
	if !ok {
		return
	}
	result, err := h.service.GetService(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func (h *CatalogHandler) UpdateService(c *gin.Context) {
	id, ok := parseID(c, "service")
	if !ok {
		return
	}
	var req application.UpdateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	result, err := h.service.UpdateService(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func (h *CatalogHandler) DeleteService(c *gin.Context) {
	id, ok := parseID(c, "service")
	if !ok {
		return
	}
	if err := h.service.DeleteService(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
