package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"worktrack/internal/apperr"
	"worktrack/internal/events"
	"worktrack/internal/model"
	"worktrack/internal/store/memory"
)

func newAttendance(st *memory.Store) *AttendanceService {
	svc := NewAttendanceService(st, NewOfficeService(st, nil, 100), nil, 10)
	svc.now = fixedClock(t0)
	return svc
}

func TestClockInIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	addEmployee(t, st, "e1", "Asha", "")
	svc := newAttendance(st)

	first, err := svc.ClockIn(ctx, ClockInInput{EmployeeID: "e1", Coordinates: field})
	if err != nil {
		t.Fatalf("first clock-in: %v", err)
	}
	if first.AlreadyActive {
		t.Fatal("first clock-in reported AlreadyActive")
	}

	second, err := svc.ClockIn(ctx, ClockInInput{EmployeeID: "e1", Coordinates: field})
	if err != nil {
		t.Fatalf("second clock-in: %v", err)
	}
	if !second.AlreadyActive || second.Record.ID != first.Record.ID {
		t.Fatalf("second clock-in = %+v (active %v), want record %s", second.Record.ID, second.AlreadyActive, first.Record.ID)
	}

	_, total, err := st.Attendance().List(ctx, model.AttendanceFilter{EmployeeID: "e1"})
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 {
		t.Fatalf("records = %d, want 1", total)
	}
}

func TestClockOutComputesHours(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	addEmployee(t, st, "e1", "Asha", "")
	svc := newAttendance(st)

	in, err := svc.ClockIn(ctx, ClockInInput{EmployeeID: "e1", Coordinates: field, Timestamp: timePtr(t0)})
	if err != nil {
		t.Fatal(err)
	}
	out, err := svc.ClockOut(ctx, ClockOutInput{
		AttendanceID: in.Record.ID,
		OwnerID:      "e1",
		Coordinates:  field,
		Timestamp:    timePtr(t0.Add(90 * time.Minute)),
	})
	if err != nil {
		t.Fatalf("clock-out: %v", err)
	}
	if out.Status != model.AttendanceCompleted {
		t.Errorf("status = %s, want completed", out.Status)
	}
	if out.TotalHours == nil || *out.TotalHours != 1.5 {
		t.Errorf("total hours = %v, want 1.5", out.TotalHours)
	}
}

func TestClockOutTwiceIsInvalidState(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	addEmployee(t, st, "e1", "Asha", "")
	svc := newAttendance(st)

	in, err := svc.ClockIn(ctx, ClockInInput{EmployeeID: "e1", Coordinates: field, Timestamp: timePtr(t0)})
	if err != nil {
		t.Fatal(err)
	}
	clockOut := ClockOutInput{AttendanceID: in.Record.ID, Coordinates: field, Timestamp: timePtr(t0.Add(time.Hour))}
	if _, err := svc.ClockOut(ctx, clockOut); err != nil {
		t.Fatal(err)
	}

	clockOut.Timestamp = timePtr(t0.Add(3 * time.Hour))
	_, err = svc.ClockOut(ctx, clockOut)
	if !apperr.Is(err, apperr.KindInvalidState) {
		t.Fatalf("second clock-out err = %v, want invalid state", err)
	}

	rec, err := st.Attendance().FindByID(ctx, in.Record.ID)
	if err != nil {
		t.Fatal(err)
	}
	if rec.TotalHours == nil || *rec.TotalHours != 1 {
		t.Fatalf("total hours changed to %v", rec.TotalHours)
	}
}

func TestClockOutChecks(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	addEmployee(t, st, "e1", "Asha", "")
	addEmployee(t, st, "e2", "Ravi", "")
	svc := newAttendance(st)

	in, err := svc.ClockIn(ctx, ClockInInput{EmployeeID: "e1", Coordinates: field, Timestamp: timePtr(t0)})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		in   ClockOutInput
		want apperr.Kind
	}{
		{"other employee", ClockOutInput{AttendanceID: in.Record.ID, OwnerID: "e2", Coordinates: field}, apperr.KindForbidden},
		{"unknown record", ClockOutInput{AttendanceID: "missing", Coordinates: field}, apperr.KindNotFound},
		{"bad latitude", ClockOutInput{AttendanceID: in.Record.ID, Coordinates: model.Coordinates{Latitude: 91}}, apperr.KindValidation},
		{"before clock-in", ClockOutInput{AttendanceID: in.Record.ID, Coordinates: field, Timestamp: timePtr(t0.Add(-time.Minute))}, apperr.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ClockOut(ctx, tt.in)
			if got := apperr.KindOf(err); got != tt.want {
				t.Fatalf("kind = %q, want %q (err %v)", got, tt.want, err)
			}
		})
	}

	active, err := svc.GetActiveSession(ctx, "e1")
	if err != nil || active == nil {
		t.Fatalf("session should still be active: %v", err)
	}
}

func TestConcurrentClockInKeepsOneSession(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	addEmployee(t, st, "e1", "Asha", "")
	svc := newAttendance(st)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ClockIn(ctx, ClockInInput{EmployeeID: "e1", Coordinates: field})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil && !apperr.Is(err, apperr.KindConflict) {
			t.Errorf("unexpected error: %v", err)
		}
	}

	_, active, err := st.Attendance().List(ctx, model.AttendanceFilter{EmployeeID: "e1", Status: model.AttendanceActive})
	if err != nil {
		t.Fatal(err)
	}
	if active != 1 {
		t.Fatalf("active sessions = %d, want 1", active)
	}
}

func TestClockInLabelsOffice(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	// both geofences cover the point
	addOffice(t, st, "ACS", acs, 5000)
	addOffice(t, st, "IOTIQ", acs, 5000)
	addEmployee(t, st, "e1", "Asha", "IOTIQ")
	addEmployee(t, st, "e2", "Ravi", "")
	svc := newAttendance(st)

	res, err := svc.ClockIn(ctx, ClockInInput{EmployeeID: "e1", Coordinates: acs, Address: "MG Road"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Record.ClockInAddress != "IOTIQ Office" {
		t.Errorf("address = %q, want home office label", res.Record.ClockInAddress)
	}
	if res.Record.ClockInOffice == nil || *res.Record.ClockInOffice != "IOTIQ" {
		t.Errorf("office = %v, want IOTIQ", res.Record.ClockInOffice)
	}

	res, err = svc.ClockIn(ctx, ClockInInput{EmployeeID: "e2", Coordinates: acs, Address: "MG Road"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Record.ClockInAddress != "ACS Office" {
		t.Errorf("address = %q, want first office by id", res.Record.ClockInAddress)
	}

	out, err := svc.ClockOutActive(ctx, "e2", field, "Client site", timePtr(t0.Add(time.Hour)))
	if err != nil {
		t.Fatal(err)
	}
	if out.ClockOutAddress == nil || *out.ClockOutAddress != "Client site" || out.ClockOutOffice != nil {
		t.Errorf("outside point labelled %v / %v", out.ClockOutAddress, out.ClockOutOffice)
	}
}

func TestClockInRejectsDeactivatedEmployee(t *testing.T) {
	st := memory.New()
	addEmployee(t, st, "e1", "Asha", "")
	if err := st.Employees().SetActive(context.Background(), "e1", false); err != nil {
		t.Fatal(err)
	}

	_, err := newAttendance(st).ClockIn(context.Background(), ClockInInput{EmployeeID: "e1", Coordinates: field})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestClockInPublishesAndRecordsPath(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	addEmployee(t, st, "e1", "Asha", "")
	bus := events.NewLocalBus()
	svc := NewAttendanceService(st, nil, bus, 10)
	svc.now = fixedClock(t0.Add(2 * time.Hour))

	var got []model.AttendanceEvent
	unsubscribe, _ := bus.Subscribe("wt.attendance.*", func(subject string, data []byte) {
		var ev model.AttendanceEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Errorf("decode %s: %v", subject, err)
		}
		got = append(got, ev)
	})
	defer unsubscribe()

	in, err := svc.ClockIn(ctx, ClockInInput{EmployeeID: "e1", Coordinates: acs, Timestamp: timePtr(t0)})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ClockOutActive(ctx, "e1", field, "", timePtr(t0.Add(time.Hour))); err != nil {
		t.Fatal(err)
	}

	if len(got) != 2 || got[0].Status != model.AttendanceActive || got[1].Status != model.AttendanceCompleted {
		t.Fatalf("events = %+v", got)
	}

	path, err := svc.Path(ctx, in.Record.ID, "e1")
	if err != nil {
		t.Fatal(err)
	}
	if path.TotalPoints != 2 {
		t.Fatalf("points = %d, want 2", path.TotalPoints)
	}
	if path.TotalDistanceMeters <= 0 {
		t.Errorf("distance = %v, want > 0", path.TotalDistanceMeters)
	}

	if _, err := svc.Path(ctx, in.Record.ID, "someone-else"); !apperr.Is(err, apperr.KindForbidden) {
		t.Errorf("path for other employee err = %v, want forbidden", err)
	}
}
