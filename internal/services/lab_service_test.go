package services

import (
	"testing"

	"labtrack/internal/models"
	"labtrack/internal/pagination"
	"labtrack/internal/tenant"
	"labtrack/internal/testutil"
)

func TestCreateLab(t *testing.T) {
	t.Run("system_admin", func(t *testing.T) {
		h := newHarness(t)
		svc := NewLabService(h.deps)

		lab, err := svc.CreateLab(h.admin(""), "  Water Quality  ", "river samples")
		testutil.AssertNoError(t, err)

		if lab.Name != "Water Quality" {
			t.Errorf("expected trimmed name, got %q", lab.Name)
		}
		if !lab.IsActive {
			t.Error("expected new lab to be active")
		}
		if !lab.CreatedAt.Equal(serviceTime) {
			t.Errorf("expected created_at %v, got %v", serviceTime, lab.CreatedAt)
		}
		if b := h.binder.Last(t); b.SystemAdmin != "true" || b.LabID != "" {
			t.Errorf("expected admin binding, got %+v", b)
		}
	})

	t.Run("lab_admin_denied", func(t *testing.T) {
		h := newHarness(t)
		svc := NewLabService(h.deps)
		lab := testutil.CreateTestLab(t, h.db)
		ctx, _ := h.member(t, lab, models.RoleAdmin)

		_, err := svc.CreateLab(ctx, "Another", "")
		testutil.AssertAppError(t, err, "ROLE_INSUFFICIENT")
	})

	t.Run("duplicate_name", func(t *testing.T) {
		h := newHarness(t)
		svc := NewLabService(h.deps)
		existing := testutil.CreateTestLab(t, h.db)

		_, err := svc.CreateLab(h.admin(""), existing.Name, "")
		testutil.AssertAppError(t, err, "DUPLICATE_LAB_NAME")
	})

	t.Run("empty_name", func(t *testing.T) {
		h := newHarness(t)
		svc := NewLabService(h.deps)

		_, err := svc.CreateLab(h.admin(""), "   ", "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestGetCurrentLab(t *testing.T) {
	t.Run("member", func(t *testing.T) {
		h := newHarness(t)
		svc := NewLabService(h.deps)
		lab := testutil.CreateTestLab(t, h.db)
		ctx, _ := h.member(t, lab, models.RoleViewer)

		got, err := svc.GetCurrentLab(ctx)
		testutil.AssertNoError(t, err)
		if got.ID != lab.ID {
			t.Errorf("expected lab %s, got %s", lab.ID, got.ID)
		}
		if b := h.binder.Last(t); b.LabID != lab.ID || b.SystemAdmin != "false" {
			t.Errorf("expected lab binding, got %+v", b)
		}
	})

	t.Run("admin_without_selection", func(t *testing.T) {
		h := newHarness(t)
		svc := NewLabService(h.deps)

		_, err := svc.GetCurrentLab(h.admin(""))
		testutil.AssertAppError(t, err, "MISSING_TENANT_CONTEXT")
	})
}

func TestListLabs(t *testing.T) {
	h := newHarness(t)
	svc := NewLabService(h.deps)
	labA := testutil.CreateTestLab(t, h.db)
	testutil.CreateTestLab(t, h.db)
	ctx, _ := h.member(t, labA, models.RoleViewer)

	t.Run("member_sees_own_lab", func(t *testing.T) {
		resp, err := svc.ListLabs(ctx, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if resp.TotalItems != 1 || resp.Data[0].ID != labA.ID {
			t.Errorf("expected only lab A, got %+v", resp.Data)
		}
	})

	t.Run("admin_sees_all", func(t *testing.T) {
		resp, err := svc.ListLabs(h.admin(""), pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if resp.TotalItems != 2 {
			t.Errorf("expected 2 labs, got %d", resp.TotalItems)
		}
	})
}

func TestUpdateCurrentLab(t *testing.T) {
	t.Run("admin_role", func(t *testing.T) {
		h := newHarness(t)
		svc := NewLabService(h.deps)
		lab := testutil.CreateTestLab(t, h.db)
		ctx, user := h.member(t, lab, models.RoleAdmin)

		updated, err := svc.UpdateCurrentLab(ctx, UpdateLabInput{Description: ptr("new description")})
		testutil.AssertNoError(t, err)
		if updated.Description != "new description" {
			t.Errorf("expected updated description, got %q", updated.Description)
		}
		if updated.UpdatedBy != user.ID {
			t.Errorf("expected updated_by %s, got %s", user.ID, updated.UpdatedBy)
		}

		rows := h.auditRows(t, lab.ID)
		if len(rows) != 1 || rows[0].Action != models.AuditActionUpdate {
			t.Fatalf("expected one Update audit row, got %+v", rows)
		}
	})

	t.Run("technician_denied", func(t *testing.T) {
		h := newHarness(t)
		svc := NewLabService(h.deps)
		lab := testutil.CreateTestLab(t, h.db)
		ctx, _ := h.member(t, lab, models.RoleTechnician)

		_, err := svc.UpdateCurrentLab(ctx, UpdateLabInput{Name: ptr("Renamed")})
		testutil.AssertAppError(t, err, "ROLE_INSUFFICIENT")
	})
}

func TestDeleteLab(t *testing.T) {
	h := newHarness(t)
	svc := NewLabService(h.deps)
	lab := testutil.CreateTestLab(t, h.db)
	user := testutil.CreateTestUser(t, h.db)
	testutil.CreateTestMembership(t, h.db, user.ID, lab.ID, models.RoleAdmin)

	testutil.AssertNoError(t, svc.DeleteLab(h.admin(""), lab.ID))

	var stored models.Lab
	testutil.AssertNoError(t, h.db.First(&stored, "id = ?", lab.ID).Error)
	if !stored.IsDeleted || stored.DeletedAt == nil || !stored.DeletedAt.Equal(serviceTime) {
		t.Errorf("expected soft-deleted lab at %v, got %+v", serviceTime, stored.SoftDelete)
	}

	rows := h.auditRows(t, lab.ID)
	if len(rows) != 1 || rows[0].Action != models.AuditActionDelete {
		t.Fatalf("expected one Delete audit row, got %+v", rows)
	}

	members := NewMembershipService(h.deps)
	_, err := members.FindMembership(h.admin(""), tenant.ForLab(user.ID, lab.ID, models.RoleNone), user.ID, lab.ID)
	testutil.AssertAppError(t, err, "MEMBERSHIP_NOT_FOUND")

	err = svc.DeleteLab(h.admin(""), lab.ID)
	testutil.AssertAppError(t, err, "LAB_NOT_FOUND")
}
