package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"worktrack/internal/apperr"
	"worktrack/internal/middleware"
	"worktrack/internal/model"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error  string            `json:"error"`
	Code   apperr.Kind       `json:"code"`
	Fields map[string]string `json:"fields,omitempty"`
}

// statusOf maps an error kind onto an HTTP status
func statusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindInvalidState, apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindUnavailable:
		return http.StatusServiceUnavailable
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		log.Printf("[API] %s %s failed: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(statusOf(kind), ErrorResponse{Error: apperr.MessageOf(err), Code: kind})
}

// respondBindError renders request binding failures, field by field when the validator reports them
func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: apperr.KindValidation})
		return
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[toSnake(fe.Field())] = fieldMessage(fe)
	}
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Code: apperr.KindValidation, Fields: fields})
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	}
	return "is invalid"
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// caller returns the authenticated identity; Auth guarantees it on protected routes
func caller(c *gin.Context) *model.Identity {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		return &model.Identity{}
	}
	return identity
}

// ownerScope is the owner check applied to record lookups; managers see every record
func ownerScope(identity *model.Identity) string {
	if identity.IsManager() {
		return ""
	}
	return identity.EmployeeID
}

// targetEmployee lets managers act on ?employee_id=, everyone else on themselves
func targetEmployee(c *gin.Context, identity *model.Identity) string {
	if id := c.Query("employee_id"); id != "" && identity.IsManager() {
		return id
	}
	return identity.EmployeeID
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	return page, limit
}

// queryTime parses an optional RFC3339 query parameter
func queryTime(c *gin.Context, key string) (*time.Time, error) {
	v := c.Query(key)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, apperr.Validation("%s must be an RFC3339 time", key)
	}
	return &t, nil
}

func coordinates(lat, lon *float64) model.Coordinates {
	var c model.Coordinates
	if lat != nil {
		c.Latitude = *lat
	}
	if lon != nil {
		c.Longitude = *lon
	}
	return c
}

func paramUint(c *gin.Context, key string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(key), 10, 32)
	if err != nil {
		return 0, apperr.Validation("invalid %s", key)
	}
	return uint(v), nil
}
