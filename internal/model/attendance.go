package model

import (
	"time"
)

// AttendanceStatus is the lifecycle state of a work session
type AttendanceStatus string

const (
	AttendanceActive    AttendanceStatus = "active"
	AttendanceCompleted AttendanceStatus = "completed"
	AttendanceCancelled AttendanceStatus = "cancelled"
)

// AttendanceRecord is one work session, opened by clock-in and closed by clock-out.
// At most one record per employee may be active; the database enforces this with a
// partial unique index on employee_id where status = 'active'.
type AttendanceRecord struct {
	ID           string `json:"id" gorm:"primaryKey;size:36"`
	EmployeeID   string `json:"employee_id" gorm:"size:36;not null;index"`
	EmployeeName string `json:"employee_name" gorm:"size:100"`
	Department   string `json:"department" gorm:"size:100"`
	Office       string `json:"office" gorm:"size:100"`
	Date         string `json:"date" gorm:"size:10;not null;index"` // YYYY-MM-DD of the clock-in

	ClockInTime      time.Time `json:"clock_in_time" gorm:"not null"`
	ClockInLatitude  float64   `json:"clock_in_latitude" gorm:"not null"`
	ClockInLongitude float64   `json:"clock_in_longitude" gorm:"not null"`
	ClockInAddress   string    `json:"clock_in_address" gorm:"size:500"`
	ClockInOffice    *string   `json:"clock_in_office" gorm:"size:100"`

	ClockOutTime      *time.Time `json:"clock_out_time"`
	ClockOutLatitude  *float64   `json:"clock_out_latitude"`
	ClockOutLongitude *float64   `json:"clock_out_longitude"`
	ClockOutAddress   *string    `json:"clock_out_address" gorm:"size:500"`
	ClockOutOffice    *string    `json:"clock_out_office" gorm:"size:100"`

	TotalHours *float64         `json:"total_hours"`
	Status     AttendanceStatus `json:"status" gorm:"size:20;not null;default:'active'"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

func (AttendanceRecord) TableName() string {
	return "attendance_records"
}

// IsActive reports whether the session is still open
func (a *AttendanceRecord) IsActive() bool {
	return a.Status == AttendanceActive
}

// AttendanceFilter narrows attendance listings
type AttendanceFilter struct {
	EmployeeID string
	Department string
	Office     string
	Status     AttendanceStatus
	StartDate  string // inclusive, YYYY-MM-DD
	EndDate    string // inclusive, YYYY-MM-DD
	Page       int
	Limit      int
}

// ClockRequest is the body of clock-in and clock-out calls
type ClockRequest struct {
	AttendanceID string     `json:"attendance_id"`
	Latitude     *float64   `json:"latitude" binding:"required"`
	Longitude    *float64   `json:"longitude" binding:"required"`
	Address      string     `json:"address" binding:"max=500"`
	Timestamp    *time.Time `json:"timestamp"`
}

// AttendancePath is the list of samples recorded during one session
type AttendancePath struct {
	Attendance          *AttendanceRecord `json:"attendance"`
	Points              []LocationSample  `json:"points"`
	TotalPoints         int               `json:"total_points"`
	TotalDistanceMeters float64           `json:"total_distance_meters"`
}
