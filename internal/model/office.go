package model

import (
	"time"
)

// OfficeLocation is a circular geofence used to label clock-in and clock-out addresses
type OfficeLocation struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"uniqueIndex;size:100;not null"`
	Latitude     float64   `json:"latitude" gorm:"not null"`
	Longitude    float64   `json:"longitude" gorm:"not null"`
	RadiusMeters float64   `json:"radius_meters" gorm:"not null;default:100"`
	Address      string    `json:"address" gorm:"size:500"`
	IsActive     bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (OfficeLocation) TableName() string {
	return "office_locations"
}

// OfficeRequest is the body of office create/update calls
type OfficeRequest struct {
	Name         string   `json:"name" binding:"required,max=100"`
	Latitude     *float64 `json:"latitude" binding:"required"`
	Longitude    *float64 `json:"longitude" binding:"required"`
	RadiusMeters float64  `json:"radius_meters" binding:"required,gt=0"`
	Address      string   `json:"address" binding:"max=500"`
}

// OfficeDistance reports how far a point is from one office
type OfficeDistance struct {
	Office         string  `json:"office"`
	DistanceMeters float64 `json:"distance_meters"`
	RadiusMeters   float64 `json:"radius_meters"`
	WithinRadius   bool    `json:"within_radius"`
}
