package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"worktrack/internal/model"
	"worktrack/internal/service"
)

// LocationHandler handles GPS sample requests
type LocationHandler struct {
	locationService *service.LocationService
	officeService   *service.OfficeService
}

// NewLocationHandler creates a new location handler
func NewLocationHandler(locationService *service.LocationService, officeService *service.OfficeService) *LocationHandler {
	return &LocationHandler{locationService: locationService, officeService: officeService}
}

// ValidateRequest is a position to check against the office geofences
type ValidateRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

// Update records a sample for the caller
// @Summary Update location
// @Tags Location
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.LocationUpdateRequest true "Sample"
// @Success 201 {object} model.LocationSample
// @Failure 400 {object} ErrorResponse
// @Failure 429 {object} map[string]interface{}
// @Router /location/update [post]
func (h *LocationHandler) Update(c *gin.Context) {
	var req model.LocationUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	sample, err := h.locationService.Record(c.Request.Context(), service.LocationInput{
		EmployeeID:     caller(c).EmployeeID,
		Coordinates:    coordinates(req.Latitude, req.Longitude),
		Accuracy:       req.Accuracy,
		Heading:        req.Heading,
		Speed:          req.Speed,
		BatteryLevel:   req.BatteryLevel,
		IsMockLocation: req.IsMockLocation,
		Address:        req.Address,
		Timestamp:      req.Timestamp,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sample)
}

// Validate reports the distance from a point to every active office
// @Summary Validate location
// @Tags Location
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ValidateRequest true "Position"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Router /location/validate [post]
func (h *LocationHandler) Validate(c *gin.Context) {
	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	distances, err := h.officeService.Check(c.Request.Context(), coordinates(req.Latitude, req.Longitude))
	if err != nil {
		respondError(c, err)
		return
	}

	var nearest *model.OfficeDistance
	within := false
	for i := range distances {
		if distances[i].WithinRadius {
			within = true
		}
		if nearest == nil || distances[i].DistanceMeters < nearest.DistanceMeters {
			nearest = &distances[i]
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"within_office": within,
		"nearest":       nearest,
		"offices":       distances,
	})
}

// Current returns the newest sample
// @Summary Current location
// @Tags Location
// @Produce json
// @Security BearerAuth
// @Param employee_id query string false "Employee ID (managers only)"
// @Success 200 {object} model.LocationSample
// @Failure 404 {object} ErrorResponse
// @Router /location/current [get]
func (h *LocationHandler) Current(c *gin.Context) {
	sample, err := h.locationService.Current(c.Request.Context(), targetEmployee(c, caller(c)))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sample)
}

// History lists samples, newest first
// @Summary Location history
// @Tags Location
// @Produce json
// @Security BearerAuth
// @Param employee_id query string false "Employee ID (managers only)"
// @Param from query string false "RFC3339"
// @Param to query string false "RFC3339"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(50)
// @Success 200 {object} map[string]interface{}
// @Router /location/history [get]
func (h *LocationHandler) History(c *gin.Context) {
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

	filter := model.LocationFilter{EmployeeID: targetEmployee(c, caller(c)), From: from, To: to}
	filter.Page, filter.Limit = pageParams(c)

	samples, page, err := h.locationService.History(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": samples, "pagination": page})
}
