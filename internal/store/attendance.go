package store

import (
	"context"

	"worktrack/internal/apperr"
	"worktrack/internal/model"
)

type attendanceStore struct {
	s *DB
}

func (r *attendanceStore) Create(ctx context.Context, rec *model.AttendanceRecord) error {
	db, cancel := r.s.conn(ctx)
	defer cancel()

	err := translate(db.Create(rec).Error, "attendance record")
	if apperr.Is(err, apperr.KindConflict) {
		return apperr.Conflict("employee %s already has an active attendance session", rec.EmployeeID)
	}
	return err
}

func (r *attendanceStore) FindByID(ctx context.Context, id string) (*model.AttendanceRecord, error) {
	db, cancel := r.s.conn(ctx)
	defer cancel()

	var rec model.AttendanceRecord
	if err := db.Where("id = ?", id).First(&rec).Error; err != nil {
		return nil, translate(err, "attendance record")
	}
	return &rec, nil
}

func (r *attendanceStore) FindActiveByEmployee(ctx context.Context, employeeID string) (*model.AttendanceRecord, error) {
	db, cancel := r.s.conn(ctx)
	defer cancel()

	// idx_attendance_one_active guarantees at most one row
	var rec model.AttendanceRecord
	err := db.Where("employee_id = ? AND status = ?", employeeID, model.AttendanceActive).
		First(&rec).Error
	if err != nil {
		return nil, translate(err, "active attendance session")
	}
	return &rec, nil
}

func (r *attendanceStore) Update(ctx context.Context, rec *model.AttendanceRecord, from model.AttendanceStatus) error {
	db, cancel := r.s.conn(ctx)
	defer cancel()

	res := db.Model(rec).
		Where("status = ?", from).
		Select("*").
		Omit("id", "created_at").
		Updates(rec)
	if res.Error != nil {
		return translate(res.Error, "attendance record")
	}
	if res.RowsAffected == 0 {
		current, err := r.FindByID(ctx, rec.ID)
		if err != nil {
			return err
		}
		return apperr.InvalidState("attendance record %s is %s, not %s", rec.ID, current.Status, from)
	}
	return nil
}

func (r *attendanceStore) List(ctx context.Context, filter model.AttendanceFilter) ([]model.AttendanceRecord, int64, error) {
	db, cancel := r.s.conn(ctx)
	defer cancel()

	query := db.Model(&model.AttendanceRecord{})
	if filter.EmployeeID != "" {
		query = query.Where("employee_id = ?", filter.EmployeeID)
	}
	if filter.Department != "" {
		query = query.Where("department = ?", filter.Department)
	}
	if filter.Office != "" {
		query = query.Where("office = ?", filter.Office)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.StartDate != "" {
		query = query.Where("date >= ?", filter.StartDate)
	}
	if filter.EndDate != "" {
		query = query.Where("date <= ?", filter.EndDate)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "attendance records")
	}

	var records []model.AttendanceRecord
	err := offsetLimit(query, filter.Page, filter.Limit).
		Order("date DESC, clock_in_time DESC").
		Find(&records).Error
	if err != nil {
		return nil, 0, translate(err, "attendance records")
	}
	return records, total, nil
}
