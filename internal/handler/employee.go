package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"worktrack/internal/apperr"
	"worktrack/internal/model"
	"worktrack/internal/service"
	"worktrack/internal/store"
)

// EmployeeHandler handles employee profile and administration requests
type EmployeeHandler struct {
	employeeService *service.EmployeeService
}

// NewEmployeeHandler creates a new employee handler
func NewEmployeeHandler(employeeService *service.EmployeeService) *EmployeeHandler {
	return &EmployeeHandler{employeeService: employeeService}
}

// StatusRequest toggles an active flag
type StatusRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// RoleRequest assigns a role
type RoleRequest struct {
	Role string `json:"role" binding:"required,oneof=employee manager admin"`
}

// GetProfile returns the caller's profile
// @Summary Get profile
// @Tags Employees
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.Employee
// @Router /employees/profile [get]
func (h *EmployeeHandler) GetProfile(c *gin.Context) {
	employee, err := h.employeeService.Get(c.Request.Context(), caller(c).EmployeeID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, employee)
}

// UpdateProfile edits the caller's profile
// @Summary Update profile
// @Tags Employees
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.ProfileUpdate true "Fields to change"
// @Success 200 {object} model.Employee
// @Failure 400 {object} ErrorResponse
// @Router /employees/profile [put]
func (h *EmployeeHandler) UpdateProfile(c *gin.Context) {
	var req model.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	employee, err := h.employeeService.UpdateProfile(c.Request.Context(), caller(c).EmployeeID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, employee)
}

// List returns employees
// @Summary List employees
// @Tags Employees
// @Produce json
// @Security BearerAuth
// @Param department query string false "Department"
// @Param active query bool false "Active flag"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} ErrorResponse
// @Router /employees [get]
func (h *EmployeeHandler) List(c *gin.Context) {
	filter := store.EmployeeFilter{Department: c.Query("department")}
	if v := c.Query("active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			respondError(c, apperr.Validation("active must be a boolean"))
			return
		}
		filter.Active = &active
	}
	filter.Page, filter.Limit = pageParams(c)

	employees, page, err := h.employeeService.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": employees, "pagination": page})
}

// Get returns one employee
// @Summary Get employee
// @Tags Employees
// @Produce json
// @Security BearerAuth
// @Param id path string true "Employee ID"
// @Success 200 {object} model.Employee
// @Failure 404 {object} ErrorResponse
// @Router /employees/{id} [get]
func (h *EmployeeHandler) Get(c *gin.Context) {
	employee, err := h.employeeService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, employee)
}

// SetStatus activates or deactivates an employee
// @Summary Set employee status
// @Tags Employees
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Employee ID"
// @Param request body StatusRequest true "Status"
// @Success 200 {object} model.Employee
// @Router /employees/{id}/status [patch]
func (h *EmployeeHandler) SetStatus(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	employee, err := h.employeeService.SetActive(c.Request.Context(), c.Param("id"), *req.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, employee)
}

// SetRole changes an employee's role
// @Summary Set employee role
// @Tags Employees
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Employee ID"
// @Param request body RoleRequest true "Role"
// @Success 200 {object} model.Employee
// @Router /employees/{id}/role [patch]
func (h *EmployeeHandler) SetRole(c *gin.Context) {
	var req RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	employee, err := h.employeeService.SetRole(c.Request.Context(), c.Param("id"), req.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, employee)
}
