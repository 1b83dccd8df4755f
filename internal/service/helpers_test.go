package service

import (
	"context"
	"testing"
	"time"

	"worktrack/internal/model"
	"worktrack/internal/store/memory"
)

var (
	acs   = model.Coordinates{Latitude: 12.9716, Longitude: 77.5946}
	field = model.Coordinates{Latitude: 13.0500, Longitude: 77.7000}
	t0    = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func addEmployee(t *testing.T, st *memory.Store, id, name, office string) *model.Employee {
	t.Helper()
	e := &model.Employee{
		ID:           id,
		Name:         name,
		Email:        id + "@example.com",
		PasswordHash: "x",
		Department:   "Field",
		Role:         model.RoleEmployee,
		Office:       office,
		IsActive:     true,
	}
	if err := st.Employees().Create(context.Background(), e); err != nil {
		t.Fatalf("create employee: %v", err)
	}
	return e
}

func addOffice(t *testing.T, st *memory.Store, name string, c model.Coordinates, radius float64) {
	t.Helper()
	o := &model.OfficeLocation{Name: name, Latitude: c.Latitude, Longitude: c.Longitude, RadiusMeters: radius, IsActive: true}
	if err := st.Offices().Create(context.Background(), o); err != nil {
		t.Fatalf("create office: %v", err)
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}
