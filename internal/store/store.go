// Package store defines the persistence interfaces used by the services and
// their PostgreSQL implementation.
package store

import (
	"context"
	"time"

	"worktrack/internal/model"
)

// EmployeeStore persists employees. Employees are never hard-deleted.
type EmployeeStore interface {
	Create(ctx context.Context, e *model.Employee) error
	FindByID(ctx context.Context, id string) (*model.Employee, error)
	FindByEmail(ctx context.Context, email string) (*model.Employee, error)
	List(ctx context.Context, filter EmployeeFilter) ([]model.Employee, int64, error)

	// Each write below touches only its own columns
	UpdateProfile(ctx context.Context, id string, update model.ProfileUpdate) error
	SetActive(ctx context.Context, id string, active bool) error
	SetRole(ctx context.Context, id, role string) error
	SetPasswordHash(ctx context.Context, id, hash string) error
	TouchLogin(ctx context.Context, id string, at time.Time) error
}

// EmployeeFilter narrows employee listings
type EmployeeFilter struct {
	Department string
	Active     *bool
	Page       int
	Limit      int // 0 means no limit
}

// AttendanceStore persists attendance records
type AttendanceStore interface {
	// Create inserts a new record. Inserting a second active record for the same
	// employee fails with a Conflict error.
	Create(ctx context.Context, rec *model.AttendanceRecord) error
	FindByID(ctx context.Context, id string) (*model.AttendanceRecord, error)
	// FindActiveByEmployee returns the open session or a NotFound error
	FindActiveByEmployee(ctx context.Context, employeeID string) (*model.AttendanceRecord, error)
	// Update writes rec only while the stored status still equals from;
	// otherwise it fails with an InvalidState error and writes nothing.
	Update(ctx context.Context, rec *model.AttendanceRecord, from model.AttendanceStatus) error
	List(ctx context.Context, filter model.AttendanceFilter) ([]model.AttendanceRecord, int64, error)
}

// MovementStore persists movement records
type MovementStore interface {
	Create(ctx context.Context, rec *model.MovementRecord) error
	FindByID(ctx context.Context, id string) (*model.MovementRecord, error)
	// FindActive returns open movements ordered by start time ascending
	FindActive(ctx context.Context, employeeID string) ([]model.MovementRecord, error)
	// Update writes rec only while the stored status still equals from
	Update(ctx context.Context, rec *model.MovementRecord, from model.MovementStatus) error
	List(ctx context.Context, filter model.MovementFilter) ([]model.MovementRecord, int64, error)
	CountActive(ctx context.Context) (int64, error)
}

// LocationStore persists location samples
type LocationStore interface {
	Append(ctx context.Context, s *model.LocationSample) error
	// FindLatest returns the newest sample or a NotFound error
	FindLatest(ctx context.Context, employeeID string) (*model.LocationSample, error)
	// FindBetween returns samples in [from, to] ordered by timestamp ascending
	FindBetween(ctx context.Context, employeeID string, from, to time.Time) ([]model.LocationSample, error)
	List(ctx context.Context, filter model.LocationFilter) ([]model.LocationSample, int64, error)
	// PruneOldest deletes all but the keep most recently appended samples and
	// returns how many were removed. Arrival order decides, not Timestamp.
	PruneOldest(ctx context.Context, employeeID string, keep int) (int64, error)
}

// OfficeStore persists office geofences
type OfficeStore interface {
	Create(ctx context.Context, o *model.OfficeLocation) error
	FindByID(ctx context.Context, id uint) (*model.OfficeLocation, error)
	// List returns offices ordered by id; activeOnly filters inactive ones
	List(ctx context.Context, activeOnly bool) ([]model.OfficeLocation, error)
	Update(ctx context.Context, o *model.OfficeLocation) error
	Count(ctx context.Context) (int64, error)
}

// SessionStore persists login sessions
type SessionStore interface {
	Create(ctx context.Context, s *model.Session) error
	FindByID(ctx context.Context, id string) (*model.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteByEmployee(ctx context.Context, employeeID string) error
}

// Store groups the stores and defines the transaction boundary of an operation
type Store interface {
	Employees() EmployeeStore
	Attendance() AttendanceStore
	Movements() MovementStore
	Locations() LocationStore
	Offices() OfficeStore
	Sessions() SessionStore

	// WithinTx runs fn against a transactional view of the stores. Every write made
	// through tx is committed when fn returns nil and discarded otherwise.
	WithinTx(ctx context.Context, fn func(tx Store) error) error

	Ping(ctx context.Context) error
	Close() error
}
