package service

import (
	"context"
	"sort"
	"time"

	"worktrack/internal/apperr"
	"worktrack/internal/model"
	"worktrack/internal/store"
)

// MaxReportRows bounds how many records a summary or export reads
const MaxReportRows = 10000

// DepartmentStats is the present/total count of one department
type DepartmentStats struct {
	Department string `json:"department"`
	Present    int    `json:"present"`
	Total      int    `json:"total"`
}

// Dashboard is the manager overview of one day
type Dashboard struct {
	Date            string            `json:"date"`
	TotalEmployees  int64             `json:"total_employees"`
	ClockedIn       int64             `json:"clocked_in"`
	PresentToday    int               `json:"present_today"`
	Absent          int               `json:"absent"`
	ActiveMovements int64             `json:"active_movements"`
	Departments     []DepartmentStats `json:"departments"`
}

// TimingSummary aggregates the sessions matched by a timing report
type TimingSummary struct {
	TotalRecords    int     `json:"total_records"`
	Completed       int     `json:"completed"`
	Active          int     `json:"active"`
	UniqueEmployees int     `json:"unique_employees"`
	TotalHours      float64 `json:"total_hours"`
	AverageHours    float64 `json:"average_hours"`
	Truncated       bool    `json:"truncated"`
}

// TimingReport is one page of sessions plus the summary of all matches
type TimingReport struct {
	Records    []model.AttendanceRecord `json:"records"`
	Pagination model.Pagination         `json:"pagination"`
	Summary    TimingSummary            `json:"summary"`
}

// ReportService builds read-only views across employees
type ReportService struct {
	store store.Store
	now   func() time.Time
}

// NewReportService creates a new report service
func NewReportService(st store.Store) *ReportService {
	return &ReportService{store: st, now: time.Now}
}

// Dashboard summarises attendance for day (YYYY-MM-DD); an empty day means today in UTC
func (s *ReportService) Dashboard(ctx context.Context, day string) (*Dashboard, error) {
	if day == "" {
		day = s.now().UTC().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", day); err != nil {
		return nil, apperr.Validation("date must be YYYY-MM-DD")
	}

	active := true
	employees, total, err := s.store.Employees().List(ctx, store.EmployeeFilter{Active: &active})
	if err != nil {
		return nil, err
	}

	_, clockedIn, err := s.store.Attendance().List(ctx, model.AttendanceFilter{Status: model.AttendanceActive, Limit: 1})
	if err != nil {
		return nil, err
	}

	todays, _, err := s.store.Attendance().List(ctx, model.AttendanceFilter{StartDate: day, EndDate: day})
	if err != nil {
		return nil, err
	}

	movements, err := s.store.Movements().CountActive(ctx)
	if err != nil {
		return nil, err
	}

	present := make(map[string]bool, len(todays))
	for _, rec := range todays {
		present[rec.EmployeeID] = true
	}

	departments := make(map[string]*DepartmentStats)
	presentActive := 0
	for _, e := range employees {
		name := e.Department
		if name == "" {
			name = "Unassigned"
		}
		d, ok := departments[name]
		if !ok {
			d = &DepartmentStats{Department: name}
			departments[name] = d
		}
		d.Total++
		if present[e.ID] {
			d.Present++
			presentActive++
		}
	}

	stats := make([]DepartmentStats, 0, len(departments))
	for _, d := range departments {
		stats = append(stats, *d)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Department < stats[j].Department })

	return &Dashboard{
		Date:            day,
		TotalEmployees:  total,
		ClockedIn:       clockedIn,
		PresentToday:    presentActive,
		Absent:          int(total) - presentActive,
		ActiveMovements: movements,
		Departments:     stats,
	}, nil
}

// TimingReports lists sessions across employees and summarises every match
func (s *ReportService) TimingReports(ctx context.Context, filter model.AttendanceFilter) (*TimingReport, error) {
	if err := validateDateRange(filter.StartDate, filter.EndDate); err != nil {
		return nil, err
	}

	filter.Page, filter.Limit = model.NormalizePage(filter.Page, filter.Limit, DefaultPageLimit, MaxPageLimit)
	records, total, err := s.store.Attendance().List(ctx, filter)
	if err != nil {
		return nil, err
	}

	all := filter
	all.Page, all.Limit = 1, MaxReportRows
	matched, _, err := s.store.Attendance().List(ctx, all)
	if err != nil {
		return nil, err
	}

	summary := summarise(matched)
	summary.Truncated = total > int64(len(matched))
	return &TimingReport{
		Records:    records,
		Pagination: model.NewPagination(filter.Page, filter.Limit, total),
		Summary:    summary,
	}, nil
}

func summarise(records []model.AttendanceRecord) TimingSummary {
	summary := TimingSummary{TotalRecords: len(records)}
	employees := make(map[string]bool)
	for _, rec := range records {
		employees[rec.EmployeeID] = true
		switch rec.Status {
		case model.AttendanceCompleted:
			summary.Completed++
		case model.AttendanceActive:
			summary.Active++
		}
		if rec.TotalHours != nil {
			summary.TotalHours += *rec.TotalHours
		}
	}
	summary.UniqueEmployees = len(employees)
	summary.TotalHours = roundFloat(summary.TotalHours)
	if summary.Completed > 0 {
		summary.AverageHours = roundFloat(summary.TotalHours / float64(summary.Completed))
	}
	return summary
}

func validateDateRange(start, end string) error {
	for _, d := range []string{start, end} {
		if d == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return apperr.Validation("dates must be YYYY-MM-DD")
		}
	}
	if start != "" && end != "" && start > end {
		return apperr.Validation("start_date is after end_date")
	}
	return nil
}
