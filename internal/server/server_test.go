package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"worktrack/internal/config"
	"worktrack/internal/model"
	"worktrack/internal/store/memory"
)

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	st := memory.New()
	cfg := &config.Config{
		GinMode:               gin.TestMode,
		JWTSecret:             "test-secret",
		JWTExpiresIn:          time.Hour,
		BcryptCost:            bcrypt.MinCost,
		MaxLocationSamples:    10,
		OfficeDetectionRadius: 200,
		DefaultOffices: []config.OfficeDefault{
			{Name: "ACS", Latitude: 12.9716, Longitude: 77.5946, RadiusMeters: 200},
		},
	}
	srv := NewServer(cfg, st, nil, nil)
	srv.Setup()
	if err := srv.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	return srv, st
}

func do(t *testing.T, srv *Server, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
}

func registerAndLogin(t *testing.T, srv *Server, name, email string) (string, model.Employee) {
	t.Helper()
	w := do(t, srv, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name": name, "email": email, "password": "secret123", "department": "Field",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", w.Code, w.Body.String())
	}

	w = do(t, srv, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": email, "password": "secret123"})
	if w.Code != http.StatusOK {
		t.Fatalf("login: %d %s", w.Code, w.Body.String())
	}
	var resp model.LoginResponse
	decode(t, w, &resp)
	return resp.Token, resp.Employee
}

func TestAttendanceFlow(t *testing.T) {
	srv, _ := newTestServer(t)
	token, _ := registerAndLogin(t, srv, "Asha", "asha@example.com")
	pos := gin.H{"latitude": 12.9717, "longitude": 77.5947, "address": "MG Road"}

	w := do(t, srv, http.MethodPost, "/api/v1/attendance/clock-in", token, pos)
	if w.Code != http.StatusCreated {
		t.Fatalf("clock-in: %d %s", w.Code, w.Body.String())
	}
	var first struct {
		AlreadyActive bool                   `json:"already_active"`
		Attendance    model.AttendanceRecord `json:"attendance"`
	}
	decode(t, w, &first)
	if first.Attendance.ClockInAddress != "ACS Office" {
		t.Errorf("clock-in address = %q, want ACS Office", first.Attendance.ClockInAddress)
	}

	w = do(t, srv, http.MethodPost, "/api/v1/attendance/clock-in", token, pos)
	if w.Code != http.StatusOK {
		t.Fatalf("second clock-in: %d", w.Code)
	}
	var second struct {
		AlreadyActive bool                   `json:"already_active"`
		Attendance    model.AttendanceRecord `json:"attendance"`
	}
	decode(t, w, &second)
	if !second.AlreadyActive || second.Attendance.ID != first.Attendance.ID {
		t.Errorf("second clock-in = %+v, want the open session back", second)
	}

	w = do(t, srv, http.MethodGet, "/api/v1/attendance/status", token, nil)
	var status struct {
		ClockedIn bool `json:"clocked_in"`
	}
	decode(t, w, &status)
	if !status.ClockedIn {
		t.Error("status reports clocked out")
	}

	w = do(t, srv, http.MethodPost, "/api/v1/attendance/clock-out", token, pos)
	if w.Code != http.StatusOK {
		t.Fatalf("clock-out: %d %s", w.Code, w.Body.String())
	}
	var closed model.AttendanceRecord
	decode(t, w, &closed)
	if closed.Status != model.AttendanceCompleted {
		t.Errorf("status = %s, want completed", closed.Status)
	}

	w = do(t, srv, http.MethodPost, "/api/v1/attendance/clock-out", token, gin.H{
		"attendance_id": first.Attendance.ID, "latitude": 12.9717, "longitude": 77.5947,
	})
	if w.Code != http.StatusConflict {
		t.Errorf("repeat clock-out = %d, want 409", w.Code)
	}

	w = do(t, srv, http.MethodPost, "/api/v1/attendance/clock-out/auto", token, pos)
	if w.Code != http.StatusNotFound {
		t.Errorf("auto clock-out without session = %d, want 404", w.Code)
	}
}

func TestRoleGuards(t *testing.T) {
	srv, st := newTestServer(t)
	token, emp := registerAndLogin(t, srv, "Ravi", "ravi@example.com")

	if w := do(t, srv, http.MethodGet, "/api/v1/reports/dashboard", "", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous dashboard = %d, want 401", w.Code)
	}
	if w := do(t, srv, http.MethodGet, "/api/v1/reports/dashboard", token, nil); w.Code != http.StatusForbidden {
		t.Errorf("employee dashboard = %d, want 403", w.Code)
	}

	// roles are read at every request, so the same token picks up the promotion
	if err := st.Employees().SetRole(context.Background(), emp.ID, model.RoleManager); err != nil {
		t.Fatal(err)
	}

	w := do(t, srv, http.MethodGet, "/api/v1/reports/dashboard", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("manager dashboard = %d %s", w.Code, w.Body.String())
	}
	var dash struct {
		TotalEmployees int `json:"total_employees"`
	}
	decode(t, w, &dash)
	if dash.TotalEmployees != 1 {
		t.Errorf("total employees = %d, want 1", dash.TotalEmployees)
	}

	if w := do(t, srv, http.MethodPost, "/api/v1/offices", token, gin.H{
		"name": "HQ", "latitude": 1.0, "longitude": 1.0, "radius_meters": 100,
	}); w.Code != http.StatusForbidden {
		t.Errorf("manager creates office = %d, want 403", w.Code)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	srv, _ := newTestServer(t)
	token, _ := registerAndLogin(t, srv, "Meena", "meena@example.com")

	if w := do(t, srv, http.MethodGet, "/api/v1/auth/me", token, nil); w.Code != http.StatusOK {
		t.Fatalf("me = %d", w.Code)
	}
	if w := do(t, srv, http.MethodPost, "/api/v1/auth/logout", token, nil); w.Code != http.StatusOK {
		t.Fatalf("logout = %d %s", w.Code, w.Body.String())
	}
	if w := do(t, srv, http.MethodGet, "/api/v1/auth/me", token, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("me after logout = %d, want 401", w.Code)
	}
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	w := do(t, srv, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("health = %d", w.Code)
	}
	var body map[string]interface{}
	decode(t, w, &body)
	if body["store"] != "ok" || body["redis"] != "disabled" {
		t.Errorf("health = %v", body)
	}
}
