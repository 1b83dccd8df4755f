package service

import (
	"bytes"
	"context"
	"time"

	"github.com/xuri/excelize/v2"

	"worktrack/internal/apperr"
	"worktrack/internal/model"
	"worktrack/internal/store"
)

// ExportService renders attendance and movement listings as Excel workbooks
type ExportService struct {
	store store.Store
}

func NewExportService(st store.Store) *ExportService {
	return &ExportService{store: st}
}

var attendanceHeaders = []string{
	"Employee", "Department", "Office", "Date", "Clock In", "Clock In Address",
	"Clock Out", "Clock Out Address", "Total Hours", "Status",
}

var movementHeaders = []string{
	"Reason", "Start Time", "Start Address", "End Time", "End Address",
	"Estimated Minutes", "Actual Minutes", "Status",
}

// ExportAttendance writes the matching sessions, newest first, followed by a total row
func (s *ExportService) ExportAttendance(ctx context.Context, filter model.AttendanceFilter) (*bytes.Buffer, error) {
	if err := validateDateRange(filter.StartDate, filter.EndDate); err != nil {
		return nil, err
	}
	filter.Page, filter.Limit = 1, MaxReportRows
	records, _, err := s.store.Attendance().List(ctx, filter)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Attendance"
	f.SetSheetName("Sheet1", sheet)
	if err := writeHeader(f, sheet, attendanceHeaders); err != nil {
		return nil, err
	}

	var totalHours float64
	for i, rec := range records {
		row := []interface{}{
			rec.EmployeeName,
			rec.Department,
			rec.Office,
			rec.Date,
			formatTime(&rec.ClockInTime),
			rec.ClockInAddress,
			formatTime(rec.ClockOutTime),
			derefString(rec.ClockOutAddress),
			"",
			string(rec.Status),
		}
		if rec.TotalHours != nil {
			row[8] = *rec.TotalHours
			totalHours += *rec.TotalHours
		}
		if err := writeRow(f, sheet, i+2, row); err != nil {
			return nil, err
		}
	}

	totalRow := len(records) + 2
	if err := writeRow(f, sheet, totalRow, []interface{}{"Total", "", "", "", "", "", "", "", roundFloat(totalHours), ""}); err != nil {
		return nil, err
	}
	if err := boldRow(f, sheet, totalRow, len(attendanceHeaders)); err != nil {
		return nil, err
	}

	f.SetColWidth(sheet, "A", "D", 18)
	f.SetColWidth(sheet, "E", "E", 22)
	f.SetColWidth(sheet, "F", "F", 40)
	f.SetColWidth(sheet, "G", "G", 22)
	f.SetColWidth(sheet, "H", "H", 40)
	f.SetColWidth(sheet, "I", "J", 12)

	return write(f)
}

// ExportMovements writes one employee's movements that started within [from, to]
func (s *ExportService) ExportMovements(ctx context.Context, employeeID string, from, to *time.Time) (*bytes.Buffer, error) {
	if employeeID == "" {
		return nil, apperr.Validation("employee_id is required")
	}
	if from != nil && to != nil && from.After(*to) {
		return nil, apperr.Validation("from is after to")
	}
	records, _, err := s.store.Movements().List(ctx, model.MovementFilter{
		EmployeeID: employeeID,
		From:       from,
		To:         to,
		Page:       1,
		Limit:      MaxReportRows,
	})
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Movements"
	f.SetSheetName("Sheet1", sheet)
	if err := writeHeader(f, sheet, movementHeaders); err != nil {
		return nil, err
	}

	for i, rec := range records {
		row := []interface{}{
			rec.Reason,
			formatTime(&rec.StartTime),
			rec.StartAddress,
			formatTime(rec.EndTime),
			derefString(rec.EndAddress),
			rec.EstimatedMinutes,
			"",
			string(rec.Status),
		}
		if rec.ActualDurationMinutes != nil {
			row[6] = *rec.ActualDurationMinutes
		}
		if err := writeRow(f, sheet, i+2, row); err != nil {
			return nil, err
		}
	}

	f.SetColWidth(sheet, "A", "A", 25)
	f.SetColWidth(sheet, "B", "B", 22)
	f.SetColWidth(sheet, "C", "C", 40)
	f.SetColWidth(sheet, "D", "D", 22)
	f.SetColWidth(sheet, "E", "E", 40)
	f.SetColWidth(sheet, "F", "H", 16)

	return write(f)
}

func writeHeader(f *excelize.File, sheet string, headers []string) error {
	row := make([]interface{}, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	if err := writeRow(f, sheet, 1, row); err != nil {
		return err
	}
	return boldRow(f, sheet, 1, len(headers))
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func boldRow(f *excelize.File, sheet string, row, cols int) error {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	first, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(cols, row)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, first, last, style)
}

func write(f *excelize.File) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return &buf, nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
