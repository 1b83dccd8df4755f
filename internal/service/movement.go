package service

import (
	"context"
	"math"
	"strings"
	"time"

	"worktrack/internal/apperr"
	"worktrack/internal/events"
	"worktrack/internal/model"
	"worktrack/internal/store"
)

// StartMovementInput starts an excursion
type StartMovementInput struct {
	EmployeeID       string
	Coordinates      model.Coordinates
	Reason           string
	EstimatedMinutes int
	Address          string
	Timestamp        *time.Time
}

// EndMovementInput ends an excursion; an empty MovementID selects the earliest open one
type EndMovementInput struct {
	MovementID  string
	EmployeeID  string
	Coordinates model.Coordinates
	Address     string
	EndTime     *time.Time
}

// MovementService tracks excursions away from the work location
type MovementService struct {
	store      store.Store
	events     events.Publisher
	maxSamples int
	now        func() time.Time
}

// NewMovementService creates a new movement service; bus may be nil
func NewMovementService(st store.Store, bus events.Publisher, maxSamples int) *MovementService {
	return &MovementService{
		store:      st,
		events:     bus,
		maxSamples: maxSamples,
		now:        time.Now,
	}
}

// Start opens a movement. An open attendance session is linked when there is one but is not required.
func (s *MovementService) Start(ctx context.Context, in StartMovementInput) (*model.MovementRecord, error) {
	if err := validateCoordinates(in.Coordinates); err != nil {
		return nil, err
	}
	if in.EstimatedMinutes < 0 {
		return nil, apperr.Validation("estimated_minutes must not be negative")
	}

	employee, err := s.store.Employees().FindByID(ctx, in.EmployeeID)
	if err != nil {
		return nil, err
	}
	if !employee.IsActive {
		return nil, apperr.NotFound("employee %s not found or deactivated", in.EmployeeID)
	}

	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		reason = model.DefaultMovementReason
	}
	start := eventTime(in.Timestamp, s.now)
	rec := &model.MovementRecord{
		ID:               newID(),
		EmployeeID:       employee.ID,
		StartTime:        start,
		StartLatitude:    in.Coordinates.Latitude,
		StartLongitude:   in.Coordinates.Longitude,
		StartAddress:     in.Address,
		Reason:           reason,
		EstimatedMinutes: in.EstimatedMinutes,
		Status:           model.MovementActive,
	}

	err = s.store.WithinTx(ctx, func(tx store.Store) error {
		active, err := tx.Attendance().FindActiveByEmployee(ctx, employee.ID)
		switch {
		case err == nil:
			rec.AttendanceID = stringPtr(active.ID)
		case !apperr.Is(err, apperr.KindNotFound):
			return err
		}

		if err := tx.Movements().Create(ctx, rec); err != nil {
			return err
		}
		return appendSample(ctx, tx, &model.LocationSample{
			EmployeeID:   employee.ID,
			AttendanceID: rec.AttendanceID,
			Timestamp:    start,
			Latitude:     in.Coordinates.Latitude,
			Longitude:    in.Coordinates.Longitude,
			Address:      in.Address,
		}, s.maxSamples)
	})
	if err != nil {
		return nil, err
	}

	publish(s.events, "Movement", events.SubjectMovementStarted, model.MovementEvent{
		MovementID: rec.ID,
		EmployeeID: rec.EmployeeID,
		Status:     rec.Status,
		Reason:     rec.Reason,
		Timestamp:  start.Unix(),
	})
	return rec, nil
}

// End completes a movement and records its actual duration in whole minutes
func (s *MovementService) End(ctx context.Context, in EndMovementInput) (*model.MovementRecord, error) {
	if err := validateCoordinates(in.Coordinates); err != nil {
		return nil, err
	}

	rec, err := s.resolve(ctx, in.MovementID, in.EmployeeID)
	if err != nil {
		return nil, err
	}
	return s.finish(ctx, rec, model.MovementCompleted, eventTime(in.EndTime, s.now), &in.Coordinates, in.Address)
}

// Cancel closes a movement without an end location
func (s *MovementService) Cancel(ctx context.Context, movementID, employeeID string) (*model.MovementRecord, error) {
	rec, err := s.resolve(ctx, movementID, employeeID)
	if err != nil {
		return nil, err
	}
	return s.finish(ctx, rec, model.MovementCancelled, s.now().UTC(), nil, "")
}

// FindActive returns the employee's open movements, earliest start first
func (s *MovementService) FindActive(ctx context.Context, employeeID string) ([]model.MovementRecord, error) {
	records, err := s.store.Movements().FindActive(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []model.MovementRecord{}
	}
	return records, nil
}

// History lists movements, newest first
func (s *MovementService) History(ctx context.Context, filter model.MovementFilter) ([]model.MovementRecord, model.Pagination, error) {
	filter.Page, filter.Limit = model.NormalizePage(filter.Page, filter.Limit, DefaultPageLimit, MaxPageLimit)
	records, total, err := s.store.Movements().List(ctx, filter)
	if err != nil {
		return nil, model.Pagination{}, err
	}
	return records, model.NewPagination(filter.Page, filter.Limit, total), nil
}

// Get returns one movement; ownerID, when set, must match the movement's employee
func (s *MovementService) Get(ctx context.Context, id, ownerID string) (*model.MovementRecord, error) {
	rec, err := s.store.Movements().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ownerID != "" && rec.EmployeeID != ownerID {
		return nil, apperr.Forbidden("movement %s belongs to another employee", id)
	}
	return rec, nil
}

// resolve finds the movement to close and checks that it is open and owned by employeeID
func (s *MovementService) resolve(ctx context.Context, movementID, employeeID string) (*model.MovementRecord, error) {
	if movementID == "" {
		active, err := s.store.Movements().FindActive(ctx, employeeID)
		if err != nil {
			return nil, err
		}
		if len(active) == 0 {
			return nil, apperr.NotFound("no active movement")
		}
		return &active[0], nil
	}

	rec, err := s.Get(ctx, movementID, employeeID)
	if err != nil {
		return nil, err
	}
	if !rec.IsActive() {
		return nil, apperr.InvalidState("movement %s is already %s", rec.ID, rec.Status)
	}
	return rec, nil
}

func (s *MovementService) finish(ctx context.Context, rec *model.MovementRecord, status model.MovementStatus, end time.Time, c *model.Coordinates, address string) (*model.MovementRecord, error) {
	if end.Before(rec.StartTime) {
		return nil, apperr.Validation("end time is before start time")
	}
	minutes := int(math.Floor(end.Sub(rec.StartTime).Minutes()))

	updated := *rec
	updated.EndTime = &end
	updated.ActualDurationMinutes = &minutes
	updated.Status = status
	if c != nil {
		lat, lon := c.Latitude, c.Longitude
		updated.EndLatitude = &lat
		updated.EndLongitude = &lon
		updated.EndAddress = &address
	}

	err := s.store.WithinTx(ctx, func(tx store.Store) error {
		if err := tx.Movements().Update(ctx, &updated, model.MovementActive); err != nil {
			return err
		}
		if c == nil {
			return nil
		}
		return appendSample(ctx, tx, &model.LocationSample{
			EmployeeID:   rec.EmployeeID,
			AttendanceID: rec.AttendanceID,
			Timestamp:    end,
			Latitude:     c.Latitude,
			Longitude:    c.Longitude,
			Address:      address,
		}, s.maxSamples)
	})
	if err != nil {
		return nil, err
	}

	subject := events.SubjectMovementEnded
	if status == model.MovementCancelled {
		subject = events.SubjectMovementCancelled
	}
	publish(s.events, "Movement", subject, model.MovementEvent{
		MovementID: updated.ID,
		EmployeeID: updated.EmployeeID,
		Status:     updated.Status,
		Reason:     updated.Reason,
		Timestamp:  end.Unix(),
	})
	return &updated, nil
}
