package model

import (
	"time"
)

// MovementStatus is the lifecycle state of an excursion
type MovementStatus string

const (
	MovementActive    MovementStatus = "active"
	MovementCompleted MovementStatus = "completed"
	MovementCancelled MovementStatus = "cancelled"
)

// DefaultMovementReason is used when the caller gives no reason
const DefaultMovementReason = "General Movement"

// MovementRecord is an optional excursion away from the work location
type MovementRecord struct {
	ID           string  `json:"id" gorm:"primaryKey;size:36"`
	EmployeeID   string  `json:"employee_id" gorm:"size:36;not null;index"`
	AttendanceID *string `json:"attendance_id" gorm:"size:36;index"`

	StartTime        time.Time `json:"start_time" gorm:"not null"`
	StartLatitude    float64   `json:"start_latitude" gorm:"not null"`
	StartLongitude   float64   `json:"start_longitude" gorm:"not null"`
	StartAddress     string    `json:"start_address" gorm:"size:500"`
	Reason           string    `json:"reason" gorm:"size:255;not null"`
	EstimatedMinutes int       `json:"estimated_minutes" gorm:"not null;default:0"`

	EndTime      *time.Time `json:"end_time"`
	EndLatitude  *float64   `json:"end_latitude"`
	EndLongitude *float64   `json:"end_longitude"`
	EndAddress   *string    `json:"end_address" gorm:"size:500"`

	ActualDurationMinutes *int           `json:"actual_duration_minutes"`
	Status                MovementStatus `json:"status" gorm:"size:20;not null;default:'active'"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
}

func (MovementRecord) TableName() string {
	return "movement_records"
}

// IsActive reports whether the movement is still open
func (m *MovementRecord) IsActive() bool {
	return m.Status == MovementActive
}

// MovementFilter narrows movement listings
type MovementFilter struct {
	EmployeeID string
	Status     MovementStatus
	From       *time.Time
	To         *time.Time
	Page       int
	Limit      int
}

// StartMovementRequest is the body of a start-movement call
type StartMovementRequest struct {
	Latitude         *float64   `json:"latitude" binding:"required"`
	Longitude        *float64   `json:"longitude" binding:"required"`
	Reason           string     `json:"reason" binding:"max=255"`
	EstimatedMinutes int        `json:"estimated_minutes" binding:"min=0"`
	Address          string     `json:"address" binding:"max=500"`
	Timestamp        *time.Time `json:"timestamp"`
}

// EndMovementRequest is the body of an end-movement call
type EndMovementRequest struct {
	MovementID string     `json:"movement_id"`
	Latitude   *float64   `json:"latitude" binding:"required"`
	Longitude  *float64   `json:"longitude" binding:"required"`
	Address    string     `json:"address" binding:"max=500"`
	EndTime    *time.Time `json:"end_time"`
}
