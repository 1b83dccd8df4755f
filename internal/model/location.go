package model

import (
	"time"
)

// Coordinates is a latitude/longitude pair in degrees
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether both components are within range
func (c Coordinates) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

// LocationSample is an immutable GPS point. Samples are append-only and
// pruned to the N most recently received per employee; Timestamp is the
// client's clock and does not decide what is kept.
type LocationSample struct {
	ID             string    `json:"id" gorm:"primaryKey;size:36"`
	EmployeeID     string    `json:"employee_id" gorm:"size:36;not null;index:idx_location_employee_time,priority:1"`
	AttendanceID   *string   `json:"attendance_id" gorm:"size:36;index"`
	Timestamp      time.Time `json:"timestamp" gorm:"not null;index:idx_location_employee_time,priority:2"`
	Latitude       float64   `json:"latitude" gorm:"not null"`
	Longitude      float64   `json:"longitude" gorm:"not null"`
	Accuracy       *float64  `json:"accuracy"`
	Heading        *float64  `json:"heading"`
	Speed          *float64  `json:"speed"`
	BatteryLevel   *int      `json:"battery_level"`
	IsMockLocation bool      `json:"is_mock_location" gorm:"not null;default:false"`
	Address        string    `json:"address" gorm:"size:500"`
	CreatedAt      time.Time `json:"created_at"`
	Seq            int64     `json:"-" gorm:"->"` // arrival order, assigned by the database
}

func (LocationSample) TableName() string {
	return "location_samples"
}

// Coordinates returns the sample position
func (s *LocationSample) Coordinates() Coordinates {
	return Coordinates{Latitude: s.Latitude, Longitude: s.Longitude}
}

// LocationFilter narrows location history listings
type LocationFilter struct {
	EmployeeID string
	From       *time.Time
	To         *time.Time
	Page       int
	Limit      int
}

// LocationUpdateRequest is the body of a location update
type LocationUpdateRequest struct {
	Latitude       *float64   `json:"latitude" binding:"required"`
	Longitude      *float64   `json:"longitude" binding:"required"`
	Accuracy       *float64   `json:"accuracy" binding:"omitempty,min=0"`
	Heading        *float64   `json:"heading" binding:"omitempty,min=0,max=360"`
	Speed          *float64   `json:"speed" binding:"omitempty,min=0"`
	BatteryLevel   *int       `json:"battery_level" binding:"omitempty,min=0,max=100"`
	IsMockLocation bool       `json:"is_mock_location"`
	Address        string     `json:"address" binding:"max=500"`
	Timestamp      *time.Time `json:"timestamp"`
}
