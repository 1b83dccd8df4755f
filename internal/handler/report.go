package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"worktrack/internal/model"
	"worktrack/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler handles manager reports and Excel exports
type ReportHandler struct {
	reportService *service.ReportService
	exportService *service.ExportService
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportService *service.ReportService, exportService *service.ExportService) *ReportHandler {
	return &ReportHandler{reportService: reportService, exportService: exportService}
}

// Dashboard returns the attendance overview of one day
// @Summary Dashboard
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param date query string false "YYYY-MM-DD, defaults to today"
// @Success 200 {object} service.Dashboard
// @Router /reports/dashboard [get]
func (h *ReportHandler) Dashboard(c *gin.Context) {
	dashboard, err := h.reportService.Dashboard(c.Request.Context(), c.Query("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// Timing lists sessions across employees with a summary
// @Summary Timing report
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param employee_id query string false "Employee ID"
// @Param department query string false "Department"
// @Param office query string false "Home office"
// @Param start_date query string false "YYYY-MM-DD"
// @Param end_date query string false "YYYY-MM-DD"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} service.TimingReport
// @Router /reports/timing [get]
func (h *ReportHandler) Timing(c *gin.Context) {
	filter := attendanceFilter(c)
	filter.Page, filter.Limit = pageParams(c)

	report, err := h.reportService.TimingReports(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// ExportAttendance downloads sessions as an Excel workbook; employees only get their own
// @Summary Export attendance
// @Tags Export
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param employee_id query string false "Employee ID (managers only)"
// @Param department query string false "Department"
// @Param start_date query string false "YYYY-MM-DD"
// @Param end_date query string false "YYYY-MM-DD"
// @Success 200 {file} file
// @Router /export/attendance [get]
func (h *ReportHandler) ExportAttendance(c *gin.Context) {
	filter := attendanceFilter(c)
	if identity := caller(c); !identity.IsManager() {
		filter.EmployeeID = identity.EmployeeID
	}

	buf, err := h.exportService.ExportAttendance(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	sendWorkbook(c, "attendance", buf)
}

// ExportMovements downloads one employee's movements as an Excel workbook
// @Summary Export movements
// @Tags Export
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param employee_id query string true "Employee ID"
// @Param from query string false "RFC3339"
// @Param to query string false "RFC3339"
// @Success 200 {file} file
// @Router /export/movements [get]
func (h *ReportHandler) ExportMovements(c *gin.Context) {
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

	buf, err := h.exportService.ExportMovements(c.Request.Context(), c.Query("employee_id"), from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	sendWorkbook(c, "movements", buf)
}

func attendanceFilter(c *gin.Context) model.AttendanceFilter {
	return model.AttendanceFilter{
		EmployeeID: c.Query("employee_id"),
		Department: c.Query("department"),
		Office:     c.Query("office"),
		Status:     model.AttendanceStatus(c.Query("status")),
		StartDate:  c.Query("start_date"),
		EndDate:    c.Query("end_date"),
	}
}

func sendWorkbook(c *gin.Context, name string, buf *bytes.Buffer) {
	filename := fmt.Sprintf("%s_%s.xlsx", name, time.Now().UTC().Format("20060102_150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
