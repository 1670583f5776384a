package response

import (
	"errors"
	"net/http"

	"github.com/bookline/service-booking/internal/pkg/domain"
	"github.com/gin-gonic/gin"
)

// Body is the envelope for every JSON response.
type Body struct {
	Success    bool        `json:"success"`
	Data       any         `json:"data,omitempty"`
	Error      *ErrorBody  `json:"error,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Body{Success: true, Data: data})
}

func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Body{Success: true, Data: data})
}

func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Paginated writes one page of items with pagination metadata.
func Paginated[T any](c *gin.Context, items []T, total int64, page, limit int) {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	c.JSON(http.StatusOK, Body{
		Success: true,
		Data:    items,
		Pagination: &Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
		},
	})
}

func BadRequest(c *gin.Context, msg string) {
	abort(c, http.StatusBadRequest, ErrorBody{Code: domain.CodeValidation, Message: msg})
}

func Unauthorized(c *gin.Context, msg string) {
	abort(c, http.StatusUnauthorized, ErrorBody{Code: domain.CodeUnauthorized, Message: msg})
}

func Forbidden(c *gin.Context, msg string) {
	abort(c, http.StatusForbidden, ErrorBody{Code: domain.CodeForbidden, Message: msg})
}

// Error maps err to a status code. Untyped and internal errors are reported
// with a stable message; the cause is attached to the gin context for logging.
func Error(c *gin.Context, err error) {
	_ = c.Error(err)

	var de *domain.Error
	if !errors.As(err, &de) || de.Kind == domain.KindInternal {
		abort(c, http.StatusInternalServerError, ErrorBody{
			Code:    domain.CodeInternal,
			Message: "internal server error",
		})
		return
	}

	abort(c, StatusFor(de.Kind), ErrorBody{
		Code:    de.Code,
		Message: de.Message,
		Details: de.Details,
	})
}

// StatusFor returns the HTTP status for kind.
func StatusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation, domain.KindInvalidState:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func abort(c *gin.Context, status int, body ErrorBody) {
	c.AbortWithStatusJSON(status, Body{Success: false, Error: &body})
}
