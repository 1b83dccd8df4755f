package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"worktrack/internal/model"
	"worktrack/internal/service"
)

// AuthHandler handles registration, login and session requests
type AuthHandler struct {
	authService     *service.AuthService
	employeeService *service.EmployeeService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, employeeService *service.EmployeeService) *AuthHandler {
	return &AuthHandler{authService: authService, employeeService: employeeService}
}

// Register creates an employee account
// @Summary Register
// @Description Create an employee account with the employee role
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body model.RegisterRequest true "Registration"
// @Success 201 {object} model.Employee
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	employee, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, employee)
}

// Login exchanges credentials for a bearer token
// @Summary Login
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body model.LoginRequest true "Credentials"
// @Success 200 {object} model.LoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 429 {object} map[string]interface{}
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), req, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Logout ends the current session
// @Summary Logout
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]string
// @Failure 401 {object} ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authService.Logout(c.Request.Context(), caller(c).SessionID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// ChangePassword replaces the caller's password
// @Summary Change password
// @Tags Auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.ChangePasswordRequest true "Passwords"
// @Success 200 {object} map[string]string
// @Failure 400 {object} ErrorResponse
// @Router /auth/change-password [post]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req model.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.authService.ChangePassword(c.Request.Context(), caller(c).EmployeeID, req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password changed"})
}

// Me returns the caller's employee record
// @Summary Current employee
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.Employee
// @Failure 401 {object} ErrorResponse
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	employee, err := h.employeeService.Get(c.Request.Context(), caller(c).EmployeeID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, employee)
}
