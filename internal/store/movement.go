package store

import (
	"context"

	"worktrack/internal/apperr"
	"worktrack/internal/model"
)

type movementStore struct {
	s *DB
}

func (r *movementStore) Create(ctx context.Context, rec *model.MovementRecord) error {
	db, cancel := r.s.conn(ctx)
	defer cancel()

	return translate(db.Create(rec).Error, "movement record")
}

func (r *movementStore) FindByID(ctx context.Context, id string) (*model.MovementRecord, error) {
	db, cancel := r.s.conn(ctx)
	defer cancel()

	var rec model.MovementRecord
	if err := db.Where("id = ?", id).First(&rec).Error; err != nil {
		return nil, translate(err, "movement record")
	}
	return &rec, nil
}

func (r *movementStore) FindActive(ctx context.Context, employeeID string) ([]model.MovementRecord, error) {
	db, cancel := r.s.conn(ctx)
	defer cancel()

	var records []model.MovementRecord
	err := db.Where("employee_id = ? AND status = ?", employeeID, model.MovementActive).
		Order("start_time ASC, id ASC").
		Find(&records).Error
	if err != nil {
		return nil, translate(err, "movement records")
	}
	return records, nil
}

func (r *movementStore) Update(ctx context.Context, rec *model.MovementRecord, from model.MovementStatus) error {
	db, cancel := r.s.conn(ctx)
	defer cancel()

	res := db.Model(rec).
		Where("status = ?", from).
		Select("*").
		Omit("id", "created_at").
		Updates(rec)
	if res.Error != nil {
		return translate(res.Error, "movement record")
	}
	if res.RowsAffected == 0 {
		current, err := r.FindByID(ctx, rec.ID)
		if err != nil {
			return err
		}
		return apperr.InvalidState("movement %s is already %s", rec.ID, current.Status)
	}
	return nil
}

func (r *movementStore) List(ctx context.Context, filter model.MovementFilter) ([]model.MovementRecord, int64, error) {
	db, cancel := r.s.conn(ctx)
	defer cancel()

	query := db.Model(&model.MovementRecord{})
	if filter.EmployeeID != "" {
		query = query.Where("employee_id = ?", filter.EmployeeID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.From != nil {
		query = query.Where("start_time >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("start_time <= ?", *filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "movement records")
	}

	var records []model.MovementRecord
	err := offsetLimit(query, filter.Page, filter.Limit).
		Order("start_time DESC").
		Find(&records).Error
	if err != nil {
		return nil, 0, translate(err, "movement records")
	}
	return records, total, nil
}

func (r *movementStore) CountActive(ctx context.Context) (int64, error) {
	db, cancel := r.s.conn(ctx)
	defer cancel()

	var n int64
	err := db.Model(&model.MovementRecord{}).Where("status = ?", model.MovementActive).Count(&n).Error
	return n, translate(err, "movement records")
}
