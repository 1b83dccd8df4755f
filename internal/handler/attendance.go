package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"worktrack/internal/model"
	"worktrack/internal/service"
)

// AttendanceHandler handles clock-in and clock-out requests
type AttendanceHandler struct {
	attendanceService *service.AttendanceService
}

// NewAttendanceHandler creates a new attendance handler
func NewAttendanceHandler(attendanceService *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendanceService: attendanceService}
}

// ClockIn opens a work session for the caller
// @Summary Clock in
// @Description Opens a session. An already clocked-in caller gets the open session back with already_active set.
// @Tags Attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.ClockRequest true "Position"
// @Success 201 {object} map[string]interface{}
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /attendance/clock-in [post]
func (h *AttendanceHandler) ClockIn(c *gin.Context) {
	var req model.ClockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.attendanceService.ClockIn(c.Request.Context(), service.ClockInInput{
		EmployeeID:  caller(c).EmployeeID,
		Coordinates: coordinates(req.Latitude, req.Longitude),
		Address:     req.Address,
		Timestamp:   req.Timestamp,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusCreated
	message := "clocked in"
	if result.AlreadyActive {
		status = http.StatusOK
		message = "already clocked in"
	}
	c.JSON(status, gin.H{
		"message":        message,
		"already_active": result.AlreadyActive,
		"attendance":     result.Record,
	})
}

// ClockOut closes a session. Without attendance_id the caller's open session is closed.
// @Summary Clock out
// @Tags Attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.ClockRequest true "Position"
// @Success 200 {object} model.AttendanceRecord
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /attendance/clock-out [post]
func (h *AttendanceHandler) ClockOut(c *gin.Context) {
	var req model.ClockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	identity := caller(c)
	if req.AttendanceID == "" {
		h.clockOutActive(c, identity.EmployeeID, req)
		return
	}

	rec, err := h.attendanceService.ClockOut(c.Request.Context(), service.ClockOutInput{
		AttendanceID: req.AttendanceID,
		OwnerID:      identity.EmployeeID,
		Coordinates:  coordinates(req.Latitude, req.Longitude),
		Address:      req.Address,
		Timestamp:    req.Timestamp,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// AutoClockOut closes the caller's open session, whatever its id
// @Summary Auto clock out
// @Tags Attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.ClockRequest true "Position"
// @Success 200 {object} model.AttendanceRecord
// @Failure 404 {object} ErrorResponse
// @Router /attendance/clock-out/auto [post]
func (h *AttendanceHandler) AutoClockOut(c *gin.Context) {
	var req model.ClockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	h.clockOutActive(c, caller(c).EmployeeID, req)
}

func (h *AttendanceHandler) clockOutActive(c *gin.Context, employeeID string, req model.ClockRequest) {
	rec, err := h.attendanceService.ClockOutActive(c.Request.Context(), employeeID,
		coordinates(req.Latitude, req.Longitude), req.Address, req.Timestamp)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// ForceClockOut lets a manager close anyone's session
// @Summary Force clock out
// @Tags Attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Attendance ID"
// @Param request body model.ClockRequest true "Position"
// @Success 200 {object} model.AttendanceRecord
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /attendance/{id}/force-clock-out [put]
func (h *AttendanceHandler) ForceClockOut(c *gin.Context) {
	var req model.ClockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	rec, err := h.attendanceService.ClockOut(c.Request.Context(), service.ClockOutInput{
		AttendanceID: c.Param("id"),
		Coordinates:  coordinates(req.Latitude, req.Longitude),
		Address:      req.Address,
		Timestamp:    req.Timestamp,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// Status reports whether the caller is clocked in
// @Summary Attendance status
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param employee_id query string false "Employee ID (managers only)"
// @Success 200 {object} service.AttendanceStatus
// @Router /attendance/status [get]
func (h *AttendanceHandler) Status(c *gin.Context) {
	status, err := h.attendanceService.Status(c.Request.Context(), targetEmployee(c, caller(c)))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// Current returns the open session or null
// @Summary Current session
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /attendance/current [get]
func (h *AttendanceHandler) Current(c *gin.Context) {
	rec, err := h.attendanceService.GetActiveSession(c.Request.Context(), targetEmployee(c, caller(c)))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attendance": rec})
}

// History lists sessions, newest first
// @Summary Attendance history
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param employee_id query string false "Employee ID (managers only)"
// @Param status query string false "active, completed or cancelled"
// @Param start_date query string false "YYYY-MM-DD"
// @Param end_date query string false "YYYY-MM-DD"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} map[string]interface{}
// @Router /attendance/history [get]
func (h *AttendanceHandler) History(c *gin.Context) {
	filter := model.AttendanceFilter{
		EmployeeID: targetEmployee(c, caller(c)),
		Status:     model.AttendanceStatus(c.Query("status")),
		StartDate:  c.Query("start_date"),
		EndDate:    c.Query("end_date"),
	}
	filter.Page, filter.Limit = pageParams(c)

	records, page, err := h.attendanceService.History(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": records, "pagination": page})
}

// Path returns the samples recorded during one session
// @Summary Session path
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param id path string true "Attendance ID"
// @Success 200 {object} model.AttendancePath
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /attendance/{id}/path [get]
func (h *AttendanceHandler) Path(c *gin.Context) {
	path, err := h.attendanceService.Path(c.Request.Context(), c.Param("id"), ownerScope(caller(c)))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, path)
}
