package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"worktrack/internal/apperr"
	"worktrack/internal/model"
	"worktrack/internal/store"
)

func activeRecord(id, employeeID string) *model.AttendanceRecord {
	return &model.AttendanceRecord{
		ID:          id,
		EmployeeID:  employeeID,
		Date:        "2024-01-15",
		ClockInTime: time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC),
		Status:      model.AttendanceActive,
	}
}

func TestAttendanceCreateRejectsSecondActive(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.Attendance().Create(ctx, activeRecord("a1", "e1")); err != nil {
		t.Fatalf("first create: %v", err)
	}
	err := s.Attendance().Create(ctx, activeRecord("a2", "e1"))
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("second create = %v, want conflict", err)
	}
	if err := s.Attendance().Create(ctx, activeRecord("a3", "e2")); err != nil {
		t.Fatalf("other employee: %v", err)
	}
}

func TestAttendanceConditionalUpdate(t *testing.T) {
	ctx := context.Background()
	s := New()
	rec := activeRecord("a1", "e1")
	if err := s.Attendance().Create(ctx, rec); err != nil {
		t.Fatal(err)
	}

	rec.Status = model.AttendanceCompleted
	if err := s.Attendance().Update(ctx, rec, model.AttendanceActive); err != nil {
		t.Fatalf("update: %v", err)
	}

	err := s.Attendance().Update(ctx, rec, model.AttendanceActive)
	if !apperr.Is(err, apperr.KindInvalidState) {
		t.Fatalf("second update = %v, want invalid state", err)
	}

	missing := activeRecord("nope", "e1")
	if err := s.Attendance().Update(ctx, missing, model.AttendanceActive); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("missing update = %v, want not found", err)
	}
}

func TestWithinTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := New()
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(tx store.Store) error {
		if err := tx.Attendance().Create(ctx, activeRecord("a1", "e1")); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithinTx = %v, want boom", err)
	}
	if _, err := s.Attendance().FindActiveByEmployee(ctx, "e1"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("record survived rollback: %v", err)
	}

	err = s.WithinTx(ctx, func(tx store.Store) error {
		return tx.Attendance().Create(ctx, activeRecord("a1", "e1"))
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Attendance().FindActiveByEmployee(ctx, "e1"); err != nil {
		t.Fatalf("committed record missing: %v", err)
	}
}

func TestConcurrentTransactionsKeepOneActive(t *testing.T) {
	ctx := context.Background()
	s := New()

	const workers = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := s.WithinTx(ctx, func(tx store.Store) error {
				if _, err := tx.Attendance().FindActiveByEmployee(ctx, "e1"); err == nil {
					return apperr.InvalidState("already clocked in")
				}
				return tx.Attendance().Create(ctx, activeRecord(fmt.Sprintf("a%d", i), "e1"))
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if succeeded != 1 {
		t.Fatalf("succeeded = %d, want 1", succeeded)
	}
	records, total, err := s.Attendance().List(ctx, model.AttendanceFilter{EmployeeID: "e1", Status: model.AttendanceActive})
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || len(records) != 1 {
		t.Fatalf("active records = %d, want 1", total)
	}
}

func TestPruneOldestKeepsNewest(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 10; i++ {
		err := s.Locations().Append(ctx, &model.LocationSample{
			ID:         fmt.Sprintf("l%d", i),
			EmployeeID: "e1",
			Timestamp:  base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	removed, err := s.Locations().PruneOldest(ctx, "e1", 4)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 6 {
		t.Errorf("removed = %d, want 6", removed)
	}

	samples, err := s.Locations().FindBetween(ctx, "e1", base, base.Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(samples) != 4 {
		t.Fatalf("kept = %d, want 4", len(samples))
	}
	if samples[0].ID != "l6" || samples[3].ID != "l9" {
		t.Errorf("kept %s..%s, want l6..l9", samples[0].ID, samples[3].ID)
	}

	latest, err := s.Locations().FindLatest(ctx, "e1")
	if err != nil {
		t.Fatal(err)
	}
	if latest.ID != "l9" {
		t.Errorf("latest = %s, want l9", latest.ID)
	}
}

func TestFindActiveMovementsOrdered(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

	for i, offset := range []int{30, 10, 20} {
		err := s.Movements().Create(ctx, &model.MovementRecord{
			ID:         fmt.Sprintf("m%d", i),
			EmployeeID: "e1",
			StartTime:  base.Add(time.Duration(offset) * time.Minute),
			Status:     model.MovementActive,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	active, err := s.Movements().FindActive(ctx, "e1")
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 3 || active[0].ID != "m1" || active[2].ID != "m0" {
		t.Fatalf("unexpected order: %+v", active)
	}
}

func TestOfficeNamesUnique(t *testing.T) {
	ctx := context.Background()
	s := New()

	first := &model.OfficeLocation{Name: "ACS", IsActive: true}
	if err := s.Offices().Create(ctx, first); err != nil {
		t.Fatal(err)
	}
	if first.ID != 1 {
		t.Errorf("id = %d, want 1", first.ID)
	}
	if err := s.Offices().Create(ctx, &model.OfficeLocation{Name: "ACS"}); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("duplicate = %v, want conflict", err)
	}
}

func TestEmployeeWritesTouchOwnColumns(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.Employees().Create(ctx, &model.Employee{ID: "e1", Name: "Asha", Email: "asha@example.com", Role: model.RoleEmployee, IsActive: true}); err != nil {
		t.Fatal(err)
	}

	phone := "12345"
	login := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	if err := s.Employees().SetActive(ctx, "e1", false); err != nil {
		t.Fatal(err)
	}
	if err := s.Employees().UpdateProfile(ctx, "e1", model.ProfileUpdate{Phone: &phone}); err != nil {
		t.Fatal(err)
	}
	if err := s.Employees().SetRole(ctx, "e1", model.RoleAdmin); err != nil {
		t.Fatal(err)
	}
	if err := s.Employees().SetPasswordHash(ctx, "e1", "hash"); err != nil {
		t.Fatal(err)
	}
	if err := s.Employees().TouchLogin(ctx, "e1", login); err != nil {
		t.Fatal(err)
	}

	e, err := s.Employees().FindByID(ctx, "e1")
	if err != nil {
		t.Fatal(err)
	}
	if e.IsActive || e.Phone != phone || e.Role != model.RoleAdmin || e.PasswordHash != "hash" || e.Name != "Asha" {
		t.Fatalf("employee = %+v", e)
	}
	if e.LastLoginAt == nil || !e.LastLoginAt.Equal(login) {
		t.Fatalf("last login = %v", e.LastLoginAt)
	}

	if err := s.Employees().SetRole(ctx, "missing", model.RoleAdmin); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("missing employee err = %v", err)
	}
}

func TestPruneOldestUsesArrivalOrder(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		s.Locations().Append(ctx, &model.LocationSample{ID: fmt.Sprintf("l%d", i), EmployeeID: "e1", Timestamp: base.Add(time.Duration(i) * time.Minute)})
	}
	// a backdated point arrives last
	s.Locations().Append(ctx, &model.LocationSample{ID: "late", EmployeeID: "e1", Timestamp: base.Add(-time.Hour)})

	if _, err := s.Locations().PruneOldest(ctx, "e1", 3); err != nil {
		t.Fatal(err)
	}
	samples, err := s.Locations().FindBetween(ctx, "e1", base.Add(-2*time.Hour), base.Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(samples) != 3 || samples[0].ID != "late" || samples[1].ID != "l1" {
		t.Fatalf("kept %v, want late, l1, l2", samples)
	}

	latest, _ := s.Locations().FindLatest(ctx, "e1")
	if latest.ID != "l2" {
		t.Errorf("latest = %s, want l2", latest.ID)
	}
}
