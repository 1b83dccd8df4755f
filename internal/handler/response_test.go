package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"worktrack/internal/apperr"
	"worktrack/internal/model"
)

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name string
		err  error
		want int
		code apperr.Kind
	}{
		{"not found", apperr.NotFound("attendance record not found"), http.StatusNotFound, apperr.KindNotFound},
		{"validation", apperr.Validation("latitude out of range"), http.StatusBadRequest, apperr.KindValidation},
		{"invalid state", apperr.InvalidState("already completed"), http.StatusConflict, apperr.KindInvalidState},
		{"conflict", apperr.Conflict("email taken"), http.StatusConflict, apperr.KindConflict},
		{"forbidden", apperr.Forbidden("not yours"), http.StatusForbidden, apperr.KindForbidden},
		{"unauthorized", apperr.Unauthorized("bad token"), http.StatusUnauthorized, apperr.KindUnauthorized},
		{"unavailable", apperr.Unavailable(errors.New("dial tcp"), "store unavailable"), http.StatusServiceUnavailable, apperr.KindUnavailable},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, apperr.KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			respondError(c, tt.err)

			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d", w.Code, tt.want)
			}
			var body ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Code != tt.code {
				t.Errorf("code = %q, want %q", body.Code, tt.code)
			}
			if body.Error == "" {
				t.Error("error message is empty")
			}
		})
	}
}

func TestRespondBindError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/register", func(c *gin.Context) {
		var req model.RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	t.Run("field errors", func(t *testing.T) {
		body := `{"name":"A","email":"not-an-email","password":"123"}`
		req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", w.Code)
		}
		var resp ErrorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		want := map[string]string{
			"name":     "must be at least 2",
			"email":    "must be a valid email",
			"password": "must be at least 6",
		}
		for field, msg := range want {
			if resp.Fields[field] != msg {
				t.Errorf("fields[%s] = %q, want %q", field, resp.Fields[field], msg)
			}
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(`{"name":`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", w.Code)
		}
		var resp ErrorResponse
		json.Unmarshal(w.Body.Bytes(), &resp)
		if resp.Fields != nil {
			t.Errorf("fields = %v, want none", resp.Fields)
		}
		if resp.Code != apperr.KindValidation {
			t.Errorf("code = %q", resp.Code)
		}
	})
}

func TestToSnake(t *testing.T) {
	for in, want := range map[string]string{
		"Email":            "email",
		"EmergencyContact": "emergency_contact",
		"RadiusMeters":     "radius_meters",
	} {
		if got := toSnake(in); got != want {
			t.Errorf("toSnake(%q) = %q, want %q", in, got, want)
		}
	}
}
