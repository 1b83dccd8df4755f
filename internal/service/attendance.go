package service

import (
	"context"
	"time"

	"worktrack/internal/apperr"
	"worktrack/internal/events"
	"worktrack/internal/geo"
	"worktrack/internal/model"
	"worktrack/internal/store"
)

// ClockInInput is a clock-in request for an authenticated employee
type ClockInInput struct {
	EmployeeID  string
	Coordinates model.Coordinates
	Address     string
	Timestamp   *time.Time
}

// ClockInResult carries the session and whether it was already open
type ClockInResult struct {
	Record        *model.AttendanceRecord
	AlreadyActive bool
}

// ClockOutInput closes a session. OwnerID, when set, must match the session's employee.
type ClockOutInput struct {
	AttendanceID string
	OwnerID      string
	Coordinates  model.Coordinates
	Address      string
	Timestamp    *time.Time
}

// AttendanceStatus is the clock state of one employee
type AttendanceStatus struct {
	ClockedIn       bool                    `json:"clocked_in"`
	Attendance      *model.AttendanceRecord `json:"attendance"`
	ElapsedHours    float64                 `json:"elapsed_hours"`
	ActiveMovements []model.MovementRecord  `json:"active_movements"`
}

// AttendanceService owns the clock-in/clock-out lifecycle
type AttendanceService struct {
	store      store.Store
	offices    *OfficeService
	events     events.Publisher
	maxSamples int
	now        func() time.Time
}

// NewAttendanceService creates a new attendance service; bus may be nil
func NewAttendanceService(st store.Store, offices *OfficeService, bus events.Publisher, maxSamples int) *AttendanceService {
	return &AttendanceService{
		store:      st,
		offices:    offices,
		events:     bus,
		maxSamples: maxSamples,
		now:        time.Now,
	}
}

// ClockIn opens a work session. An employee who is already clocked in gets the
// open session back with AlreadyActive set; no second session is created.
func (s *AttendanceService) ClockIn(ctx context.Context, in ClockInInput) (*ClockInResult, error) {
	if err := validateCoordinates(in.Coordinates); err != nil {
		return nil, err
	}

	employee, err := s.activeEmployee(ctx, in.EmployeeID)
	if err != nil {
		return nil, err
	}

	active, err := s.GetActiveSession(ctx, employee.ID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return &ClockInResult{Record: active, AlreadyActive: true}, nil
	}

	clockIn := eventTime(in.Timestamp, s.now)
	address, office := s.label(ctx, in.Coordinates, in.Address, employee.Office)
	rec := &model.AttendanceRecord{
		ID:               newID(),
		EmployeeID:       employee.ID,
		EmployeeName:     employee.Name,
		Department:       employee.Department,
		Office:           employee.Office,
		Date:             clockIn.Format("2006-01-02"),
		ClockInTime:      clockIn,
		ClockInLatitude:  in.Coordinates.Latitude,
		ClockInLongitude: in.Coordinates.Longitude,
		ClockInAddress:   address,
		ClockInOffice:    office,
		Status:           model.AttendanceActive,
	}

	err = s.store.WithinTx(ctx, func(tx store.Store) error {
		if err := tx.Attendance().Create(ctx, rec); err != nil {
			return err
		}
		return appendSample(ctx, tx, &model.LocationSample{
			EmployeeID:   employee.ID,
			AttendanceID: stringPtr(rec.ID),
			Timestamp:    clockIn,
			Latitude:     in.Coordinates.Latitude,
			Longitude:    in.Coordinates.Longitude,
			Address:      address,
		}, s.maxSamples)
	})
	if err != nil {
		return nil, err
	}

	publish(s.events, "Attendance", events.SubjectClockIn, model.AttendanceEvent{
		AttendanceID: rec.ID,
		EmployeeID:   rec.EmployeeID,
		EmployeeName: rec.EmployeeName,
		Status:       rec.Status,
		Address:      address,
		Office:       office,
		Timestamp:    clockIn.Unix(),
	})
	return &ClockInResult{Record: rec}, nil
}

// ClockOut closes an active session and computes its total hours
func (s *AttendanceService) ClockOut(ctx context.Context, in ClockOutInput) (*model.AttendanceRecord, error) {
	if err := validateCoordinates(in.Coordinates); err != nil {
		return nil, err
	}

	rec, err := s.store.Attendance().FindByID(ctx, in.AttendanceID)
	if err != nil {
		return nil, err
	}
	if in.OwnerID != "" && rec.EmployeeID != in.OwnerID {
		return nil, apperr.Forbidden("attendance record %s belongs to another employee", rec.ID)
	}
	if !rec.IsActive() {
		return nil, apperr.InvalidState("attendance record %s is already %s", rec.ID, rec.Status)
	}

	clockOut := eventTime(in.Timestamp, s.now)
	if clockOut.Before(rec.ClockInTime) {
		return nil, apperr.Validation("clock-out time is before clock-in time")
	}

	address, office := s.label(ctx, in.Coordinates, in.Address, rec.Office)
	hours := roundHours(clockOut.Sub(rec.ClockInTime))
	lat, lon := in.Coordinates.Latitude, in.Coordinates.Longitude

	updated := *rec
	updated.ClockOutTime = &clockOut
	updated.ClockOutLatitude = &lat
	updated.ClockOutLongitude = &lon
	updated.ClockOutAddress = &address
	updated.ClockOutOffice = office
	updated.TotalHours = &hours
	updated.Status = model.AttendanceCompleted

	err = s.store.WithinTx(ctx, func(tx store.Store) error {
		if err := tx.Attendance().Update(ctx, &updated, model.AttendanceActive); err != nil {
			return err
		}
		return appendSample(ctx, tx, &model.LocationSample{
			EmployeeID:   rec.EmployeeID,
			AttendanceID: stringPtr(rec.ID),
			Timestamp:    clockOut,
			Latitude:     lat,
			Longitude:    lon,
			Address:      address,
		}, s.maxSamples)
	})
	if err != nil {
		return nil, err
	}

	publish(s.events, "Attendance", events.SubjectClockOut, model.AttendanceEvent{
		AttendanceID: updated.ID,
		EmployeeID:   updated.EmployeeID,
		EmployeeName: updated.EmployeeName,
		Status:       updated.Status,
		Address:      address,
		Office:       office,
		TotalHours:   &hours,
		Timestamp:    clockOut.Unix(),
	})
	return &updated, nil
}

// ClockOutActive closes the employee's open session, whatever its id
func (s *AttendanceService) ClockOutActive(ctx context.Context, employeeID string, c model.Coordinates, address string, ts *time.Time) (*model.AttendanceRecord, error) {
	active, err := s.GetActiveSession(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if active == nil {
		return nil, apperr.NotFound("no active attendance session")
	}
	return s.ClockOut(ctx, ClockOutInput{
		AttendanceID: active.ID,
		OwnerID:      employeeID,
		Coordinates:  c,
		Address:      address,
		Timestamp:    ts,
	})
}

// GetActiveSession returns the open session, or nil when the employee is clocked out
func (s *AttendanceService) GetActiveSession(ctx context.Context, employeeID string) (*model.AttendanceRecord, error) {
	rec, err := s.store.Attendance().FindActiveByEmployee(ctx, employeeID)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Status reports whether the employee is clocked in and for how long
func (s *AttendanceService) Status(ctx context.Context, employeeID string) (*AttendanceStatus, error) {
	active, err := s.GetActiveSession(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	status := &AttendanceStatus{ActiveMovements: []model.MovementRecord{}}
	if active == nil {
		return status, nil
	}

	movements, err := s.store.Movements().FindActive(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	status.ClockedIn = true
	status.Attendance = active
	status.ElapsedHours = roundHours(s.now().Sub(active.ClockInTime))
	if movements != nil {
		status.ActiveMovements = movements
	}
	return status, nil
}

// History lists sessions newest first
func (s *AttendanceService) History(ctx context.Context, filter model.AttendanceFilter) ([]model.AttendanceRecord, model.Pagination, error) {
	filter.Page, filter.Limit = model.NormalizePage(filter.Page, filter.Limit, DefaultPageLimit, MaxPageLimit)
	records, total, err := s.store.Attendance().List(ctx, filter)
	if err != nil {
		return nil, model.Pagination{}, err
	}
	return records, model.NewPagination(filter.Page, filter.Limit, total), nil
}

// Get returns one session; ownerID, when set, must match the session's employee
func (s *AttendanceService) Get(ctx context.Context, id, ownerID string) (*model.AttendanceRecord, error) {
	rec, err := s.store.Attendance().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ownerID != "" && rec.EmployeeID != ownerID {
		return nil, apperr.Forbidden("attendance record %s belongs to another employee", id)
	}
	return rec, nil
}

// Path returns the samples recorded between clock-in and clock-out, or now for an open session
func (s *AttendanceService) Path(ctx context.Context, id, ownerID string) (*model.AttendancePath, error) {
	rec, err := s.Get(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	end := s.now().UTC()
	if rec.ClockOutTime != nil {
		end = *rec.ClockOutTime
	}
	samples, err := s.store.Locations().FindBetween(ctx, rec.EmployeeID, rec.ClockInTime, end)
	if err != nil {
		return nil, err
	}
	if samples == nil {
		samples = []model.LocationSample{}
	}

	points := make([]geo.Point, len(samples))
	for i, sample := range samples {
		points[i] = geo.Point{Latitude: sample.Latitude, Longitude: sample.Longitude}
	}
	return &model.AttendancePath{
		Attendance:          rec,
		Points:              samples,
		TotalPoints:         len(samples),
		TotalDistanceMeters: geo.PathLength(points),
	}, nil
}

func (s *AttendanceService) activeEmployee(ctx context.Context, id string) (*model.Employee, error) {
	employee, err := s.store.Employees().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !employee.IsActive {
		return nil, apperr.NotFound("employee %s not found or deactivated", id)
	}
	return employee, nil
}

// label replaces the address with the office label when the point is inside an office
func (s *AttendanceService) label(ctx context.Context, c model.Coordinates, address, homeOffice string) (string, *string) {
	if s.offices == nil {
		return address, nil
	}
	name, ok := s.offices.Classify(ctx, c, homeOffice)
	if !ok {
		return address, nil
	}
	return OfficeLabel(name), stringPtr(name)
}
