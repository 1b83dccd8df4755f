package store

import (
	"context"

	"gorm.io/gorm"

	"worktrack/internal/model"
)

type officeStore struct {
	s *DB
}

func (r *officeStore) Create(ctx context.Context, o *model.OfficeLocation) error {
	db, cancel := r.s.conn(ctx)
	defer cancel()

	return translate(db.Create(o).Error, "office "+o.Name)
}

func (r *officeStore) FindByID(ctx context.Context, id uint) (*model.OfficeLocation, error) {
	db, cancel := r.s.conn(ctx)
	defer cancel()

	var o model.OfficeLocation
	if err := db.First(&o, id).Error; err != nil {
		return nil, translate(err, "office")
	}
	return &o, nil
}

func (r *officeStore) List(ctx context.Context, activeOnly bool) ([]model.OfficeLocation, error) {
	db, cancel := r.s.conn(ctx)
	defer cancel()

	query := db.Model(&model.OfficeLocation{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var offices []model.OfficeLocation
	if err := query.Order("id ASC").Find(&offices).Error; err != nil {
		return nil, translate(err, "offices")
	}
	return offices, nil
}

func (r *officeStore) Update(ctx context.Context, o *model.OfficeLocation) error {
	db, cancel := r.s.conn(ctx)
	defer cancel()

	res := db.Model(o).Select("*").Omit("id", "created_at").Updates(o)
	if res.Error != nil {
		return translate(res.Error, "office "+o.Name)
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "office")
	}
	return nil
}

func (r *officeStore) Count(ctx context.Context) (int64, error) {
	db, cancel := r.s.conn(ctx)
	defer cancel()

	var n int64
	err := db.Model(&model.OfficeLocation{}).Count(&n).Error
	return n, translate(err, "offices")
}
