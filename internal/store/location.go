package store

import (
	"context"
	"time"

	"worktrack/internal/model"
)

type locationStore struct {
	s *DB
}

func (r *locationStore) Append(ctx context.Context, sample *model.LocationSample) error {
	db, cancel := r.s.conn(ctx)
	defer cancel()

	return translate(db.Create(sample).Error, "location sample")
}

func (r *locationStore) FindLatest(ctx context.Context, employeeID string) (*model.LocationSample, error) {
	db, cancel := r.s.conn(ctx)
	defer cancel()

	var sample model.LocationSample
	err := db.Where("employee_id = ?", employeeID).
		Order("timestamp DESC, id DESC").
		First(&sample).Error
	if err != nil {
		return nil, translate(err, "location")
	}
	return &sample, nil
}

func (r *locationStore) FindBetween(ctx context.Context, employeeID string, from, to time.Time) ([]model.LocationSample, error) {
	db, cancel := r.s.conn(ctx)
	defer cancel()

	var samples []model.LocationSample
	err := db.Where("employee_id = ? AND timestamp >= ? AND timestamp <= ?", employeeID, from, to).
		Order("timestamp ASC").
		Find(&samples).Error
	if err != nil {
		return nil, translate(err, "location samples")
	}
	return samples, nil
}

func (r *locationStore) List(ctx context.Context, filter model.LocationFilter) ([]model.LocationSample, int64, error) {
	db, cancel := r.s.conn(ctx)
	defer cancel()

	query := db.Model(&model.LocationSample{}).Where("employee_id = ?", filter.EmployeeID)
	if filter.From != nil {
		query = query.Where("timestamp >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("timestamp <= ?", *filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "location samples")
	}

	var samples []model.LocationSample
	err := offsetLimit(query, filter.Page, filter.Limit).
		Order("timestamp DESC").
		Find(&samples).Error
	if err != nil {
		return nil, 0, translate(err, "location samples")
	}
	return samples, total, nil
}

func (r *locationStore) PruneOldest(ctx context.Context, employeeID string, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	db, cancel := r.s.conn(ctx)
	defer cancel()

	res := db.Exec(`DELETE FROM location_samples
		WHERE employee_id = ? AND id NOT IN (
			SELECT id FROM location_samples
			WHERE employee_id = ?
			ORDER BY seq DESC
			LIMIT ?
		)`, employeeID, employeeID, keep)
	if res.Error != nil {
		return 0, translate(res.Error, "location samples")
	}
	return res.RowsAffected, nil
}
