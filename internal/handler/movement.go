package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"worktrack/internal/model"
	"worktrack/internal/service"
)

// MovementHandler handles excursion requests
type MovementHandler struct {
	movementService *service.MovementService
}

// NewMovementHandler creates a new movement handler
func NewMovementHandler(movementService *service.MovementService) *MovementHandler {
	return &MovementHandler{movementService: movementService}
}

// Start opens a movement for the caller
// @Summary Start movement
// @Tags Movements
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.StartMovementRequest true "Movement"
// @Success 201 {object} model.MovementRecord
// @Failure 400 {object} ErrorResponse
// @Router /movements [post]
func (h *MovementHandler) Start(c *gin.Context) {
	var req model.StartMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	rec, err := h.movementService.Start(c.Request.Context(), service.StartMovementInput{
		EmployeeID:       caller(c).EmployeeID,
		Coordinates:      coordinates(req.Latitude, req.Longitude),
		Reason:           req.Reason,
		EstimatedMinutes: req.EstimatedMinutes,
		Address:          req.Address,
		Timestamp:        req.Timestamp,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// End completes a movement. The id comes from the path or the body; without one the
// caller's earliest open movement is ended.
// @Summary End movement
// @Tags Movements
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string false "Movement ID"
// @Param request body model.EndMovementRequest true "End position"
// @Success 200 {object} model.MovementRecord
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /movements/{id}/end [post]
// @Router /movements/end [post]
func (h *MovementHandler) End(c *gin.Context) {
	var req model.EndMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	movementID := c.Param("id")
	if movementID == "" {
		movementID = req.MovementID
	}
	rec, err := h.movementService.End(c.Request.Context(), service.EndMovementInput{
		MovementID:  movementID,
		EmployeeID:  caller(c).EmployeeID,
		Coordinates: coordinates(req.Latitude, req.Longitude),
		Address:     req.Address,
		EndTime:     req.EndTime,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// Cancel closes a movement without an end position
// @Summary Cancel movement
// @Tags Movements
// @Produce json
// @Security BearerAuth
// @Param id path string true "Movement ID"
// @Success 200 {object} model.MovementRecord
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /movements/{id}/cancel [post]
func (h *MovementHandler) Cancel(c *gin.Context) {
	rec, err := h.movementService.Cancel(c.Request.Context(), c.Param("id"), caller(c).EmployeeID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// Active lists open movements, earliest first
// @Summary Active movements
// @Tags Movements
// @Produce json
// @Security BearerAuth
// @Param employee_id query string false "Employee ID (managers only)"
// @Success 200 {object} map[string]interface{}
// @Router /movements/active [get]
func (h *MovementHandler) Active(c *gin.Context) {
	records, err := h.movementService.FindActive(c.Request.Context(), targetEmployee(c, caller(c)))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": records})
}

// History lists movements, newest first
// @Summary Movement history
// @Tags Movements
// @Produce json
// @Security BearerAuth
// @Param employee_id query string false "Employee ID (managers only)"
// @Param status query string false "active, completed or cancelled"
// @Param from query string false "RFC3339"
// @Param to query string false "RFC3339"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} map[string]interface{}
// @Router /movements/history [get]
func (h *MovementHandler) History(c *gin.Context) {
	from, err := queryTime(c, "from")
	if err != nil {
		respondError(c, err)
		return
	}
	to, err := queryTime(c, "to")
	if err != nil {
		respondError(c, err)
		return
	}

	filter := model.MovementFilter{
		EmployeeID: targetEmployee(c, caller(c)),
		Status:     model.MovementStatus(c.Query("status")),
		From:       from,
		To:         to,
	}
	filter.Page, filter.Limit = pageParams(c)

	records, page, err := h.movementService.History(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": records, "pagination": page})
}

// Get returns one movement
// @Summary Get movement
// @Tags Movements
// @Produce json
// @Security BearerAuth
// @Param id path string true "Movement ID"
// @Success 200 {object} model.MovementRecord
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /movements/{id} [get]
func (h *MovementHandler) Get(c *gin.Context) {
	rec, err := h.movementService.Get(c.Request.Context(), c.Param("id"), ownerScope(caller(c)))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}
