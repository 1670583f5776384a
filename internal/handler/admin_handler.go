package handler

import (
	"context"

	"github.com/bookline/service-booking/internal/application"
	"github.com/bookline/service-booking/internal/domain/audit"
	"github.com/bookline/service-booking/internal/pkg/auth"
	"github.com/bookline/service-booking/internal/pkg/domain"
	"github.com/bookline/service-booking/internal/pkg/middleware"
	"github.com/bookline/service-booking/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

type BookingStatsService interface {
	GetBookingStats(ctx context.Context) (map[string]int64, error)
}

type AuditLogService interface {
	ListAuditLogs(ctx context.Context, q application.ListAuditLogsQuery, page, limit int) (*domain.PaginatedResult[*audit.Entry], error)
}

// AdminHandler handles admin HTTP requests for audit logs and statistics.
type AdminHandler struct {
	stats BookingStatsService
	audit AuditLogService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(stats BookingStatsService, audit AuditLogService) *AdminHandler {
	return &AdminHandler{stats: stats, audit: audit}
}

// RegisterRoutes registers admin routes.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup, tokens middleware.TokenValidator) {
	admin := r.Group("/api/v1/admin")
	admin.Use(middleware.AuthMiddleware(tokens), middleware.RequireCapability(auth.CapViewAudit))
	{
		admin.GET("/audit-logs", h.ListAuditLogs)
		admin.GET("/stats/bookings", h.BookingStats)
	}
}

// ListAuditLogs handles GET /api/v1/admin/audit-logs.
func (h *AdminHandler) ListAuditLogs(c *gin.Context) {
	var q application.ListAuditLogsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	page, limit := parsePagination(c)

	result, err := h.audit.ListAuditLogs(c.Request.Context(), q, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// BookingStats handles GET /api/v1/admin/stats/bookings.
func (h *AdminHandler) BookingStats(c *gin.Context) {
	stats, err := h.stats.GetBookingStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}
