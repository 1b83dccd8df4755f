package service

import (
	"context"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"worktrack/internal/model"
	"worktrack/internal/store/memory"
)

func seedDay(t *testing.T) *memory.Store {
	t.Helper()
	ctx := context.Background()
	st := memory.New()
	addEmployee(t, st, "e1", "Asha", "")
	addEmployee(t, st, "e2", "Ravi", "")
	addEmployee(t, st, "e3", "Meera", "")
	attendance := newAttendance(st)

	if _, err := attendance.ClockIn(ctx, ClockInInput{EmployeeID: "e1", Coordinates: acs, Timestamp: timePtr(t0)}); err != nil {
		t.Fatal(err)
	}
	if _, err := attendance.ClockIn(ctx, ClockInInput{EmployeeID: "e2", Coordinates: acs, Timestamp: timePtr(t0)}); err != nil {
		t.Fatal(err)
	}
	if _, err := attendance.ClockOutActive(ctx, "e2", acs, "", timePtr(t0.Add(90*time.Minute))); err != nil {
		t.Fatal(err)
	}
	if _, err := newMovements(st).Start(ctx, StartMovementInput{EmployeeID: "e1", Coordinates: acs, Timestamp: timePtr(t0.Add(time.Hour))}); err != nil {
		t.Fatal(err)
	}
	return st
}

func TestDashboard(t *testing.T) {
	svc := NewReportService(seedDay(t))
	svc.now = fixedClock(t0.Add(4 * time.Hour))

	d, err := svc.Dashboard(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if d.Date != "2024-03-04" {
		t.Errorf("date = %s", d.Date)
	}
	if d.TotalEmployees != 3 || d.ClockedIn != 1 || d.PresentToday != 2 || d.Absent != 1 || d.ActiveMovements != 1 {
		t.Fatalf("dashboard = %+v", d)
	}
	if len(d.Departments) != 1 || d.Departments[0].Present != 2 || d.Departments[0].Total != 3 {
		t.Fatalf("departments = %+v", d.Departments)
	}

	if _, err := svc.Dashboard(context.Background(), "04/03/2024"); err == nil {
		t.Fatal("expected validation error for malformed date")
	}
}

func TestTimingReportSummary(t *testing.T) {
	svc := NewReportService(seedDay(t))

	r, err := svc.TimingReports(context.Background(), model.AttendanceFilter{StartDate: "2024-03-01", EndDate: "2024-03-31", Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Records) != 1 || r.Pagination.Total != 2 || r.Pagination.TotalPages != 2 {
		t.Fatalf("page = %+v", r.Pagination)
	}
	s := r.Summary
	if s.TotalRecords != 2 || s.Completed != 1 || s.Active != 1 || s.UniqueEmployees != 2 || s.TotalHours != 1.5 || s.AverageHours != 1.5 {
		t.Fatalf("summary = %+v", s)
	}

	if _, err := svc.TimingReports(context.Background(), model.AttendanceFilter{StartDate: "2024-03-31", EndDate: "2024-03-01"}); err == nil {
		t.Fatal("expected error for inverted range")
	}
}

func TestExportAttendance(t *testing.T) {
	buf, err := NewExportService(seedDay(t)).ExportAttendance(context.Background(), model.AttendanceFilter{})
	if err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := f.GetRows("Attendance")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want header + 2 records + total", len(rows))
	}
	if rows[0][0] != "Employee" || rows[3][0] != "Total" {
		t.Fatalf("header %q, last row %q", rows[0][0], rows[3][0])
	}
	total, err := f.GetCellValue("Attendance", "I4")
	if err != nil {
		t.Fatal(err)
	}
	if total != "1.5" {
		t.Errorf("total hours cell = %q, want 1.5", total)
	}
}

func TestExportMovements(t *testing.T) {
	svc := NewExportService(seedDay(t))

	if _, err := svc.ExportMovements(context.Background(), "", nil, nil); err == nil {
		t.Fatal("expected error without employee")
	}

	buf, err := svc.ExportMovements(context.Background(), "e1", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	reason, err := f.GetCellValue("Movements", "A2")
	if err != nil {
		t.Fatal(err)
	}
	if reason != model.DefaultMovementReason {
		t.Errorf("reason = %q", reason)
	}
}
