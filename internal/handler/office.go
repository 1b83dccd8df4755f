package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"worktrack/internal/model"
	"worktrack/internal/service"
)

// OfficeHandler handles office geofence requests
type OfficeHandler struct {
	officeService *service.OfficeService
}

// NewOfficeHandler creates a new office handler
func NewOfficeHandler(officeService *service.OfficeService) *OfficeHandler {
	return &OfficeHandler{officeService: officeService}
}

// List returns offices
// @Summary List offices
// @Tags Offices
// @Produce json
// @Security BearerAuth
// @Param all query bool false "Include inactive offices"
// @Success 200 {object} map[string]interface{}
// @Router /offices [get]
func (h *OfficeHandler) List(c *gin.Context) {
	offices, err := h.officeService.List(c.Request.Context(), c.Query("all") != "true")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": offices})
}

// Create adds an office
// @Summary Create office
// @Tags Offices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.OfficeRequest true "Office"
// @Success 201 {object} model.OfficeLocation
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /offices [post]
func (h *OfficeHandler) Create(c *gin.Context) {
	var req model.OfficeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	office, err := h.officeService.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, office)
}

// Update replaces an office geofence
// @Summary Update office
// @Tags Offices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Office ID"
// @Param request body model.OfficeRequest true "Office"
// @Success 200 {object} model.OfficeLocation
// @Failure 404 {object} ErrorResponse
// @Router /offices/{id} [put]
func (h *OfficeHandler) Update(c *gin.Context) {
	id, err := paramUint(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	var req model.OfficeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	office, err := h.officeService.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, office)
}

// SetStatus enables or disables an office
// @Summary Set office status
// @Tags Offices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Office ID"
// @Param request body StatusRequest true "Status"
// @Success 200 {object} model.OfficeLocation
// @Router /offices/{id}/status [patch]
func (h *OfficeHandler) SetStatus(c *gin.Context) {
	id, err := paramUint(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	office, err := h.officeService.SetActive(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, office)
}
