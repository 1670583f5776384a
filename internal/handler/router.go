package handler

import (
	"strconv"
	"sync"
	"time"

	"github.com/bookline/service-booking/internal/pkg/health"
	"github.com/bookline/service-booking/internal/pkg/middleware"
	"github.com/bookline/service-booking/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

// Services bundles the use cases served over HTTP.
type Services struct {
	Bookings     BookingService
	Stats        BookingStatsService
	BlockedSlots BlockedSlotService
	Availability AvailabilityService
	Payments     PaymentService
	Catalog      CatalogService
	Audit        AuditLogService
}

// RouterConfig holds the cross-cutting pieces of the router.
type RouterConfig struct {
	Logger         *zap.Logger
	Tokens         middleware.TokenValidator
	RequestTimeout time.Duration
	Health         *health.Handler
}

// NewRouter builds the gin engine with global middleware and every route.
func NewRouter(cfg RouterConfig, svc Services) *gin.Engine {
	registerValidators()

	router := gin.New()
	router.Use(middleware.RecoveryMiddleware(cfg.Logger))
	router.Use(middleware.LoggerMiddleware(cfg.Logger))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())
	if cfg.RequestTimeout > 0 {
		router.Use(middleware.TimeoutMiddleware(cfg.RequestTimeout))
	}

	if cfg.Health != nil {
		cfg.Health.RegisterRoutes(router)
	}

	api := &router.RouterGroup
	NewBookingHandler(svc.Bookings).RegisterRoutes(api, cfg.Tokens)
	NewBlockedSlotHandler(svc.BlockedSlots).RegisterRoutes(api, cfg.Tokens)
	NewAvailabilityHandler(svc.Availability).RegisterRoutes(api, cfg.Tokens)
	NewPaymentHandler(svc.Payments).RegisterRoutes(api, cfg.Tokens)
	NewCatalogHandler(svc.Catalog).RegisterRoutes(api, cfg.Tokens)
	NewAdminHandler(svc.Stats, svc.Audit).RegisterRoutes(api, cfg.Tokens)

	return router
}

var validatorsOnce sync.Once

func registerValidators() {
	validatorsOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("notblank", validators.NotBlank)
		}
	})
}

// parsePagination extracts page and limit query parameters with defaults.
func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	return page, limit
}

func parseID(c *gin.Context, entity string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid "+entity+" ID")
		return uuid.Nil, false
	}
	return id, true
}
