package service

import (
	"context"
	"testing"

	"worktrack/internal/apperr"
	"worktrack/internal/model"
	"worktrack/internal/store"
	"worktrack/internal/store/memory"
)

func TestUpdateProfileAppliesSetFields(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	addEmployee(t, st, "e1", "Asha", "ACS")
	svc := NewEmployeeService(st)

	phone := "+91 98450 00000"
	e, err := svc.UpdateProfile(ctx, "e1", model.ProfileUpdate{Phone: &phone})
	if err != nil {
		t.Fatal(err)
	}
	if e.Phone != phone || e.Name != "Asha" || e.Department != "Field" {
		t.Fatalf("profile = %+v", e)
	}

	blank := "  "
	if _, err := svc.UpdateProfile(ctx, "e1", model.ProfileUpdate{Name: &blank}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("blank name err = %v", err)
	}
}

func TestSetRoleAndList(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	addEmployee(t, st, "e1", "Asha", "")
	addEmployee(t, st, "e2", "Ravi", "")
	svc := NewEmployeeService(st)

	if _, err := svc.SetRole(ctx, "e1", "owner"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("unknown role err = %v", err)
	}
	e, err := svc.SetRole(ctx, "e1", model.RoleManager)
	if err != nil {
		t.Fatal(err)
	}
	if !e.IsManager() {
		t.Fatal("role not applied")
	}

	if _, err := svc.SetActive(ctx, "e2", false); err != nil {
		t.Fatal(err)
	}
	active := true
	list, page, err := svc.List(ctx, store.EmployeeFilter{Active: &active})
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 1 || list[0].ID != "e1" {
		t.Fatalf("active employees = %+v", list)
	}
}
