package service

import (
	"context"
	"strings"

	"worktrack/internal/apperr"
	"worktrack/internal/model"
	"worktrack/internal/store"
)

// EmployeeService manages employee profiles. Employees are deactivated, never deleted.
type EmployeeService struct {
	store store.Store
}

func NewEmployeeService(st store.Store) *EmployeeService {
	return &EmployeeService{store: st}
}

func (s *EmployeeService) Get(ctx context.Context, id string) (*model.Employee, error) {
	return s.store.Employees().FindByID(ctx, id)
}

func (s *EmployeeService) List(ctx context.Context, filter store.EmployeeFilter) ([]model.Employee, model.Pagination, error) {
	filter.Page, filter.Limit = model.NormalizePage(filter.Page, filter.Limit, DefaultPageLimit, MaxPageLimit)
	employees, total, err := s.store.Employees().List(ctx, filter)
	if err != nil {
		return nil, model.Pagination{}, err
	}
	return employees, model.NewPagination(filter.Page, filter.Limit, total), nil
}

// UpdateProfile applies the non-nil fields of update
func (s *EmployeeService) UpdateProfile(ctx context.Context, id string, update model.ProfileUpdate) (*model.Employee, error) {
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, apperr.Validation("name must not be empty")
		}
		update.Name = &name
	}
	update.Phone = trimmed(update.Phone)
	update.Department = trimmed(update.Department)
	update.Position = trimmed(update.Position)

	if err := s.store.Employees().UpdateProfile(ctx, id, update); err != nil {
		return nil, err
	}
	return s.store.Employees().FindByID(ctx, id)
}

// SetActive activates or deactivates an account; deactivation ends its sessions
func (s *EmployeeService) SetActive(ctx context.Context, id string, active bool) (*model.Employee, error) {
	err := s.store.WithinTx(ctx, func(tx store.Store) error {
		if err := tx.Employees().SetActive(ctx, id, active); err != nil {
			return err
		}
		if active {
			return nil
		}
		return tx.Sessions().DeleteByEmployee(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return s.store.Employees().FindByID(ctx, id)
}

func (s *EmployeeService) SetRole(ctx context.Context, id, role string) (*model.Employee, error) {
	if !model.ValidRole(role) {
		return nil, apperr.Validation("unknown role %q", role)
	}
	if err := s.store.Employees().SetRole(ctx, id, role); err != nil {
		return nil, err
	}
	return s.store.Employees().FindByID(ctx, id)
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}
