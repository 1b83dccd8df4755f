package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"worktrack/internal/apperr"
	"worktrack/internal/model"
	"worktrack/internal/store"
)

const minPasswordLength = 6

// Claims is the JWT payload; the registered ID carries the session id
type Claims struct {
	EmployeeID string `json:"employee_id"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

// AuthService handles registration, login and bearer token validation
type AuthService struct {
	store      store.Store
	secret     []byte
	expiresIn  time.Duration
	bcryptCost int
	now        func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(st store.Store, secret string, expiresIn time.Duration, bcryptCost int) *AuthService {
	if expiresIn <= 0 {
		expiresIn = 24 * time.Hour
	}
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		store:      st,
		secret:     []byte(secret),
		expiresIn:  expiresIn,
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
}

// Register creates an employee account with the employee role
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (*model.Employee, error) {
	email := normalizeEmail(req.Email)
	name := strings.TrimSpace(req.Name)
	if email == "" || name == "" {
		return nil, apperr.Validation("name and email are required")
	}
	if len(req.Password) < minPasswordLength {
		return nil, apperr.Validation("password must be at least %d characters", minPasswordLength)
	}

	if _, err := s.store.Employees().FindByEmail(ctx, email); err == nil {
		return nil, apperr.Conflict("email %s is already registered", email)
	} else if !apperr.Is(err, apperr.KindNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	employee := &model.Employee{
		ID:               newID(),
		Name:             name,
		Email:            email,
		PasswordHash:     string(hash),
		Phone:            strings.TrimSpace(req.Phone),
		Department:       strings.TrimSpace(req.Department),
		Position:         strings.TrimSpace(req.Position),
		Address:          req.Address,
		EmergencyContact: req.EmergencyContact,
		Role:             model.RoleEmployee,
		Office:           strings.TrimSpace(req.Office),
		IsActive:         true,
	}
	if err := s.store.Employees().Create(ctx, employee); err != nil {
		if apperr.Is(err, apperr.KindConflict) {
			return nil, apperr.Conflict("email %s is already registered", email)
		}
		return nil, err
	}
	return employee, nil
}

// Login checks credentials, opens a session and issues a token for it
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest, ip, userAgent string) (*model.LoginResponse, error) {
	employee, err := s.store.Employees().FindByEmail(ctx, normalizeEmail(req.Email))
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, apperr.Unauthorized("invalid email or password")
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(employee.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperr.Unauthorized("invalid email or password")
	}
	if !employee.IsActive {
		return nil, apperr.Forbidden("account is deactivated")
	}

	now := s.now().UTC()
	session := &model.Session{
		ID:         newID(),
		EmployeeID: employee.ID,
		IP:         ip,
		UserAgent:  userAgent,
		ExpiresAt:  now.Add(s.expiresIn),
	}
	employee.LastLoginAt = &now

	err = s.store.WithinTx(ctx, func(tx store.Store) error {
		if err := tx.Sessions().Create(ctx, session); err != nil {
			return err
		}
		return tx.Employees().TouchLogin(ctx, employee.ID, now)
	})
	if err != nil {
		return nil, err
	}

	token, err := s.IssueToken(employee, session.ID, now, session.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &model.LoginResponse{Token: token, ExpiresAt: session.ExpiresAt, Employee: *employee}, nil
}

// Logout ends the session behind a token
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.store.Sessions().Delete(ctx, sessionID)
}

// ChangePassword replaces the password after checking the current one
func (s *AuthService) ChangePassword(ctx context.Context, employeeID string, req model.ChangePasswordRequest) error {
	if len(req.NewPassword) < minPasswordLength {
		return apperr.Validation("new password must be at least %d characters", minPasswordLength)
	}
	employee, err := s.store.Employees().FindByID(ctx, employeeID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(employee.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return apperr.Validation("current password is incorrect")
	}
	if req.CurrentPassword == req.NewPassword {
		return apperr.Validation("new password must differ from the current password")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.bcryptCost)
	if err != nil {
		return err
	}
	return s.store.Employees().SetPasswordHash(ctx, employeeID, string(hash))
}

// IssueToken signs a token for a session
func (s *AuthService) IssueToken(employee *model.Employee, sessionID string, issuedAt, expiresAt time.Time) (string, error) {
	claims := Claims{
		EmployeeID: employee.ID,
		Email:      employee.Email,
		Role:       employee.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   employee.ID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Authenticate validates a bearer token against its session and the employee's current state
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*model.Identity, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.Unauthorized("token expired")
		}
		return nil, apperr.Unauthorized("invalid token")
	}

	session, err := s.store.Sessions().FindByID(ctx, claims.ID)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, apperr.Unauthorized("session ended")
	}
	if err != nil {
		return nil, err
	}
	if session.EmployeeID != claims.EmployeeID || s.now().After(session.ExpiresAt) {
		return nil, apperr.Unauthorized("session ended")
	}

	employee, err := s.store.Employees().FindByID(ctx, claims.EmployeeID)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, apperr.Unauthorized("invalid token")
	}
	if err != nil {
		return nil, err
	}
	if !employee.IsActive {
		return nil, apperr.Forbidden("account is deactivated")
	}

	// role changes apply immediately, not at the next login
	return &model.Identity{
		EmployeeID: employee.ID,
		Email:      employee.Email,
		Role:       employee.Role,
		SessionID:  session.ID,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
