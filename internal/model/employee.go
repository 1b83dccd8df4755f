package model

import (
	"time"
)

// Role values
const (
	RoleEmployee = "employee"
	RoleManager  = "manager"
	RoleAdmin    = "admin"
)

// Employee is the identity record every attendance, movement and location row points at
type Employee struct {
	ID               string     `json:"id" gorm:"primaryKey;size:36"`
	Name             string     `json:"name" gorm:"size:100;not null"`
	Email            string     `json:"email" gorm:"uniqueIndex;size:255;not null"` // stored lower-cased
	PasswordHash     string     `json:"-" gorm:"column:password_hash;size:255;not null"`
	Phone            string     `json:"phone" gorm:"size:20"`
	Department       string     `json:"department" gorm:"size:100"`
	Position         string     `json:"position" gorm:"size:100"`
	Address          string     `json:"address" gorm:"size:500"`
	EmergencyContact string     `json:"emergency_contact" gorm:"size:255"`
	Role             string     `json:"role" gorm:"size:20;not null;default:'employee'"` // employee, manager, admin
	Office           string     `json:"office" gorm:"size:100"`                          // home office label
	IsActive         bool       `json:"is_active" gorm:"not null;default:true"`
	LastLoginAt      *time.Time `json:"last_login_at"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (Employee) TableName() string {
	return "employees"
}

// IsManager reports whether the employee may act on other employees' records
func (e *Employee) IsManager() bool {
	return e.Role == RoleManager || e.Role == RoleAdmin
}

// ValidRole reports whether role is one of the known roles
func ValidRole(role string) bool {
	switch role {
	case RoleEmployee, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// Session is a login session; the JWT carries the session id as its jti
type Session struct {
	ID         string    `json:"id" gorm:"primaryKey;size:36"`
	EmployeeID string    `json:"employee_id" gorm:"size:36;not null;index"`
	IP         string    `json:"ip" gorm:"size:50"`
	UserAgent  string    `json:"user_agent" gorm:"size:500"`
	ExpiresAt  time.Time `json:"expires_at" gorm:"not null"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Session) TableName() string {
	return "sessions"
}

// RegisterRequest represents a self-registration payload
type RegisterRequest struct {
	Name             string `json:"name" binding:"required,min=2,max=100"`
	Email            string `json:"email" binding:"required,email,max=255"`
	Password         string `json:"password" binding:"required,min=6,max=128"`
	Phone            string `json:"phone" binding:"max=20"`
	Department       string `json:"department" binding:"max=100"`
	Position         string `json:"position" binding:"max=100"`
	Address          string `json:"address" binding:"max=500"`
	EmergencyContact string `json:"emergency_contact" binding:"max=255"`
	Office           string `json:"office" binding:"max=100"`
}

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents login response
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Employee  Employee  `json:"employee"`
}

// ChangePasswordRequest represents a password change
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=6,max=128"`
}

// ProfileUpdate lists the fields an employee may edit; nil fields are left untouched
type ProfileUpdate struct {
	Name             *string `json:"name" binding:"omitempty,min=2,max=100"`
	Phone            *string `json:"phone" binding:"omitempty,max=20"`
	Department       *string `json:"department" binding:"omitempty,max=100"`
	Position         *string `json:"position" binding:"omitempty,max=100"`
	Address          *string `json:"address" binding:"omitempty,max=500"`
	EmergencyContact *string `json:"emergency_contact" binding:"omitempty,max=255"`
}

// Identity is the authenticated caller resolved from a bearer token
type Identity struct {
	EmployeeID string `json:"employee_id"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	SessionID  string `json:"session_id"`
}

// IsManager reports whether the caller may act on other employees' records
func (i *Identity) IsManager() bool {
	return i.Role == RoleManager || i.Role == RoleAdmin
}
