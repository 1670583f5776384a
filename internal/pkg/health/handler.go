package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Check tests one dependency. A failing non-critical check degrades the
// service without failing readiness.
type Check struct {
	Name     string
	Critical bool
	Ping     func(ctx context.Context) error
}

type Handler struct {
	service string
	checks  []Check
	timeout time.Duration
}

func NewHandler(service string, checks ...Check) *Handler {
	return &Handler{service: service, checks: checks, timeout: 2 * time.Second}
}

type LivenessResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

type ReadinessResponse struct {
	Status       string            `json:"status"`
	Service      string            `json:"service"`
	Dependencies map[string]string `json:"dependencies"`
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health/live", h.Liveness)
	r.GET("/health/ready", h.Readiness)
}

func (h *Handler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, LivenessResponse{Status: "ok", Service: h.service})
}

func (h *Handler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	deps := make(map[string]string, len(h.checks))
	status := "ok"
	for _, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			deps[check.Name] = "down"
			if check.Critical {
				status = "error"
			} else if status == "ok" {
				status = "degraded"
			}
			continue
		}
		deps[check.Name] = "ok"
	}

	code := http.StatusOK
	if status == "error" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, ReadinessResponse{Status: status, Service: h.service, Dependencies: deps})
}
