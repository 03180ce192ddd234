package services

import (
	"testing"
	"time"

	"labtrack/internal/models"
	"labtrack/internal/pagination"
	"labtrack/internal/testutil"
)

func TestListAuditLogs(t *testing.T) {
	h := newHarness(t)
	samples := NewSampleService(h.deps)
	logs := NewAuditLogService(h.deps)
	labA := testutil.CreateTestLab(t, h.db)
	labB := testutil.CreateTestLab(t, h.db)
	adminA, userA := h.member(t, labA, models.RoleAdmin)
	adminB, _ := h.member(t, labB, models.RoleAdmin)

	s1, err := samples.CreateSample(adminA, CreateSampleInput{Code: "A-1", Name: "first"})
	testutil.AssertNoError(t, err)
	h.clock.Advance(time.Hour)
	_, err = samples.CreateSample(adminA, CreateSampleInput{Code: "A-2", Name: "second"})
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, samples.DeleteSample(adminA, s1.ID))
	_, err = samples.CreateSample(adminB, CreateSampleInput{Code: "B-1", Name: "other lab"})
	testutil.AssertNoError(t, err)

	t.Run("lab_scoped", func(t *testing.T) {
		resp, err := logs.ListAuditLogs(adminA, AuditLogFilter{}, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if resp.TotalItems != 3 {
			t.Fatalf("expected 3 records for lab A, got %d", resp.TotalItems)
		}
		for _, row := range resp.Data {
			if row.LabID == nil || *row.LabID != labA.ID {
				t.Errorf("record from another lab leaked: %+v", row)
			}
		}
	})

	t.Run("filters", func(t *testing.T) {
		action := models.AuditActionDelete
		resp, err := logs.ListAuditLogs(adminA, AuditLogFilter{Action: &action, UserID: &userA.ID}, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if resp.TotalItems != 1 || resp.Data[0].EntityID != s1.ID {
			t.Errorf("expected the delete of %s, got %+v", s1.ID, resp.Data)
		}

		from := serviceTime.Add(30 * time.Minute)
		resp, err = logs.ListAuditLogs(adminA, AuditLogFilter{From: &from}, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if resp.TotalItems != 2 {
			t.Errorf("expected 2 records after %v, got %d", from, resp.TotalItems)
		}
	})

	t.Run("system_admin_sees_all", func(t *testing.T) {
		resp, err := logs.ListAuditLogs(h.admin(""), AuditLogFilter{}, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if resp.TotalItems != 4 {
			t.Errorf("expected 4 records, got %d", resp.TotalItems)
		}
	})

	t.Run("technician_denied", func(t *testing.T) {
		techCtx, _ := h.member(t, labA, models.RoleTechnician)
		_, err := logs.ListAuditLogs(techCtx, AuditLogFilter{}, pagination.PageRequest{})
		testutil.AssertAppError(t, err, "ROLE_INSUFFICIENT")
	})

	t.Run("inverted_range", func(t *testing.T) {
		from, to := serviceTime.Add(time.Hour), serviceTime
		_, err := logs.ListAuditLogs(adminA, AuditLogFilter{From: &from, To: &to}, pagination.PageRequest{})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}
