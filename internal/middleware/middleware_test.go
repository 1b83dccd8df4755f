package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"worktrack/internal/apperr"
	"worktrack/internal/model"
)

type fakeAuth struct {
	tokens map[string]*model.Identity
}

func (f *fakeAuth) Authenticate(ctx context.Context, token string) (*model.Identity, error) {
	if id, ok := f.tokens[token]; ok {
		return id, nil
	}
	return nil, apperr.Unauthorized("invalid token")
}

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	auth := &fakeAuth{tokens: map[string]*model.Identity{
		"emp":   {EmployeeID: "e1", Role: model.RoleEmployee},
		"boss":  {EmployeeID: "m1", Role: model.RoleManager},
		"admin": {EmployeeID: "a1", Role: model.RoleAdmin},
	}}

	r := gin.New()
	api := r.Group("/", Auth(auth))
	api.GET("/me", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextEmployeeID))
	})
	api.GET("/reports", RequireManager(), func(c *gin.Context) { c.Status(http.StatusOK) })
	api.GET("/admin", RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestAuth(t *testing.T) {
	r := setupRouter()

	tests := []struct {
		name   string
		path   string
		header string
		query  string
		want   int
	}{
		{"missing token", "/me", "", "", http.StatusUnauthorized},
		{"bad token", "/me", "Bearer nope", "", http.StatusUnauthorized},
		{"header token", "/me", "Bearer emp", "", http.StatusOK},
		{"query token", "/me", "", "emp", http.StatusOK},
		{"employee on manager route", "/reports", "Bearer emp", "", http.StatusForbidden},
		{"manager on manager route", "/reports", "Bearer boss", "", http.StatusOK},
		{"manager on admin route", "/admin", "Bearer boss", "", http.StatusForbidden},
		{"admin on admin route", "/admin", "Bearer admin", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.path
			if tt.query != "" {
				path += "?token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

type countingLimiter struct {
	counts map[string]int
	err    error
}

func (l *countingLimiter) Allow(ctx context.Context, key string, config *RateLimitConfig) (*RateLimitResult, error) {
	if l.err != nil {
		return nil, l.err
	}
	l.counts[key]++
	n := l.counts[key]
	return &RateLimitResult{Allowed: n <= config.Limit, Remaining: config.Limit - n, Limit: config.Limit}, nil
}

func TestRateLimitGroup(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := &countingLimiter{counts: map[string]int{}}
	group := NewRateLimitGroup(limiter, &RateLimitConfig{Limit: 100, Window: 60, Type: RateLimitByIP})
	group.AddSpecificConfig("/auth/login", &RateLimitConfig{Limit: 2, Window: 60, Algorithm: FixedWindow, Type: RateLimitByIP})

	r := gin.New()
	r.Use(group.Middleware())
	r.POST("/auth/login", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/other", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(method, path string) int {
		req := httptest.NewRequest(method, path, nil)
		req.Header.Set("X-Forwarded-For", "10.0.0.1, 10.0.0.2")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	for i := 0; i < 2; i++ {
		if code := do(http.MethodPost, "/auth/login"); code != http.StatusOK {
			t.Fatalf("request %d: status %d", i, code)
		}
	}
	if code := do(http.MethodPost, "/auth/login"); code != http.StatusTooManyRequests {
		t.Fatalf("third login: status %d, want 429", code)
	}
	if code := do(http.MethodGet, "/other"); code != http.StatusOK {
		t.Fatalf("default rule: status %d", code)
	}
	if limiter.counts["ip:10.0.0.1"] != 4 {
		t.Errorf("counts = %v", limiter.counts)
	}
}

func TestRateLimitFailsOpen(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := &countingLimiter{err: context.DeadlineExceeded}
	group := NewRateLimitGroup(limiter, &RateLimitConfig{Limit: 1, Window: 60})

	r := gin.New()
	r.Use(group.Middleware())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
	}
}
