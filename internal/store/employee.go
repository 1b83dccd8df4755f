package store

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"worktrack/internal/model"
)

type employeeStore struct {
	s *DB
}

func (r *employeeStore) Create(ctx context.Context, e *model.Employee) error {
	db, cancel := r.s.conn(ctx)
	defer cancel()

	return translate(db.Create(e).Error, "employee")
}

func (r *employeeStore) FindByID(ctx context.Context, id string) (*model.Employee, error) {
	db, cancel := r.s.conn(ctx)
	defer cancel()

	var e model.Employee
	if err := db.Where("id = ?", id).First(&e).Error; err != nil {
		return nil, translate(err, "employee")
	}
	return &e, nil
}

func (r *employeeStore) FindByEmail(ctx context.Context, email string) (*model.Employee, error) {
	db, cancel := r.s.conn(ctx)
	defer cancel()

	var e model.Employee
	if err := db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&e).Error; err != nil {
		return nil, translate(err, "employee")
	}
	return &e, nil
}

func (r *employeeStore) List(ctx context.Context, filter EmployeeFilter) ([]model.Employee, int64, error) {
	db, cancel := r.s.conn(ctx)
	defer cancel()

	query := db.Model(&model.Employee{})
	if filter.Department != "" {
		query = query.Where("department = ?", filter.Department)
	}
	if filter.Active != nil {
		query = query.Where("is_active = ?", *filter.Active)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "employees")
	}

	var employees []model.Employee
	if err := offsetLimit(query, filter.Page, filter.Limit).Order("name ASC").Find(&employees).Error; err != nil {
		return nil, 0, translate(err, "employees")
	}
	return employees, total, nil
}

// UpdateProfile writes the non-nil fields of update
func (r *employeeStore) UpdateProfile(ctx context.Context, id string, update model.ProfileUpdate) error {
	columns := map[string]interface{}{}
	if update.Name != nil {
		columns["name"] = *update.Name
	}
	if update.Phone != nil {
		columns["phone"] = *update.Phone
	}
	if update.Department != nil {
		columns["department"] = *update.Department
	}
	if update.Position != nil {
		columns["position"] = *update.Position
	}
	if update.Address != nil {
		columns["address"] = *update.Address
	}
	if update.EmergencyContact != nil {
		columns["emergency_contact"] = *update.EmergencyContact
	}
	if len(columns) == 0 {
		_, err := r.FindByID(ctx, id)
		return err
	}
	return r.updates(ctx, id, columns)
}

func (r *employeeStore) SetActive(ctx context.Context, id string, active bool) error {
	return r.updates(ctx, id, map[string]interface{}{"is_active": active})
}

func (r *employeeStore) SetRole(ctx context.Context, id, role string) error {
	return r.updates(ctx, id, map[string]interface{}{"role": role})
}

func (r *employeeStore) SetPasswordHash(ctx context.Context, id, hash string) error {
	return r.updates(ctx, id, map[string]interface{}{"password_hash": hash})
}

// TouchLogin records a login without bumping updated_at
func (r *employeeStore) TouchLogin(ctx context.Context, id string, at time.Time) error {
	db, cancel := r.s.conn(ctx)
	defer cancel()

	res := db.Model(&model.Employee{}).Where("id = ?", id).UpdateColumn("last_login_at", at)
	return affected(res, "employee")
}

func (r *employeeStore) updates(ctx context.Context, id string, columns map[string]interface{}) error {
	db, cancel := r.s.conn(ctx)
	defer cancel()

	res := db.Model(&model.Employee{}).Where("id = ?", id).Updates(columns)
	return affected(res, "employee")
}

func affected(res *gorm.DB, entity string) error {
	if res.Error != nil {
		return translate(res.Error, entity)
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, entity)
	}
	return nil
}
