package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"worktrack/internal/apperr"
	"worktrack/internal/model"
)

// Context keys set by Auth
const (
	ContextEmployeeID = "employee_id"
	ContextRole       = "role"
	contextIdentity   = "identity"
)

// Authenticator resolves a bearer token into the calling employee
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.Identity, error)
}

// Auth rejects requests without a valid bearer token. Websocket clients that
// cannot set headers may pass the token as the "token" query parameter.
func Auth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			abort(c, apperr.Unauthorized("missing bearer token"))
			return
		}

		identity, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			abort(c, err)
			return
		}

		c.Set(contextIdentity, identity)
		c.Set(ContextEmployeeID, identity.EmployeeID)
		c.Set(ContextRole, identity.Role)
		c.Next()
	}
}

// RequireRole lets the request through only when the caller has one of roles
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := CurrentIdentity(c)
		if !ok {
			abort(c, apperr.Unauthorized("unauthorized"))
			return
		}
		for _, role := range roles {
			if identity.Role == role {
				c.Next()
				return
			}
		}
		abort(c, apperr.Forbidden("requires role %s", strings.Join(roles, " or ")))
	}
}

// RequireManager allows managers and admins
func RequireManager() gin.HandlerFunc {
	return RequireRole(model.RoleManager, model.RoleAdmin)
}

// RequireAdmin allows admins only
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(model.RoleAdmin)
}

// CurrentIdentity returns the identity stored by Auth
func CurrentIdentity(c *gin.Context) (*model.Identity, bool) {
	v, ok := c.Get(contextIdentity)
	if !ok {
		return nil, false
	}
	identity, ok := v.(*model.Identity)
	return identity, ok
}

// BearerToken returns the raw token of the request, or ""
func BearerToken(c *gin.Context) string {
	return bearerToken(c)
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return c.Query("token")
}

func abort(c *gin.Context, err error) {
	status := http.StatusUnauthorized
	switch apperr.KindOf(err) {
	case apperr.KindForbidden:
		status = http.StatusForbidden
	case apperr.KindUnavailable:
		status = http.StatusServiceUnavailable
	case apperr.KindUnauthorized, apperr.KindNotFound:
		status = http.StatusUnauthorized
	case apperr.KindInternal:
		status = http.StatusInternalServerError
	}
	c.AbortWithStatusJSON(status, gin.H{
		"error": apperr.MessageOf(err),
		"code":  apperr.KindOf(err),
	})
}
