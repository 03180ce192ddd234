package services

import (
	"testing"
	"time"

	"labtrack/internal/models"
	"labtrack/internal/pagination"
	"labtrack/internal/testutil"
)

func TestRecordResult(t *testing.T) {
	t.Run("technician", func(t *testing.T) {
		h := newHarness(t)
		svc := NewTestResultService(h.deps)
		lab := testutil.CreateTestLab(t, h.db)
		ctx, _ := h.member(t, lab, models.RoleTechnician)
		sample := testutil.CreateTestSample(t, h.db, lab.ID)
		param := testutil.CreateTestParameter(t, h.db, lab.ID)

		r, err := svc.RecordResult(ctx, sample.ID, RecordResultInput{ParameterID: param.ID, Value: 7.2})
		testutil.AssertNoError(t, err)
		if r.LabID != lab.ID || r.Unit != param.Unit {
			t.Errorf("unexpected result %+v", r)
		}
		if !r.MeasuredAt.Equal(serviceTime) {
			t.Errorf("expected measured_at to default to now, got %v", r.MeasuredAt)
		}
	})

	t.Run("explicit_time", func(t *testing.T) {
		h := newHarness(t)
		svc := NewTestResultService(h.deps)
		lab := testutil.CreateTestLab(t, h.db)
		ctx, _ := h.member(t, lab, models.RoleTechnician)
		sample := testutil.CreateTestSample(t, h.db, lab.ID)
		param := testutil.CreateTestParameter(t, h.db, lab.ID)
		at := time.Date(2026, 4, 1, 16, 0, 0, 0, time.UTC)

		r, err := svc.RecordResult(ctx, sample.ID, RecordResultInput{ParameterID: param.ID, Value: 1, MeasuredAt: &at})
		testutil.AssertNoError(t, err)
		if !r.MeasuredAt.Equal(at) {
			t.Errorf("expected measured_at %v, got %v", at, r.MeasuredAt)
		}
	})

	t.Run("parameter_of_other_lab", func(t *testing.T) {
		h := newHarness(t)
		svc := NewTestResultService(h.deps)
		lab := testutil.CreateTestLab(t, h.db)
		other := testutil.CreateTestLab(t, h.db)
		ctx, _ := h.member(t, lab, models.RoleTechnician)
		sample := testutil.CreateTestSample(t, h.db, lab.ID)
		param := testutil.CreateTestParameter(t, h.db, other.ID)

		_, err := svc.RecordResult(ctx, sample.ID, RecordResultInput{ParameterID: param.ID, Value: 1})
		testutil.AssertAppError(t, err, "PARAMETER_NOT_FOUND")
	})

	t.Run("closed_sample", func(t *testing.T) {
		h := newHarness(t)
		svc := NewTestResultService(h.deps)
		lab := testutil.CreateTestLab(t, h.db)
		ctx, _ := h.member(t, lab, models.RoleTechnician)
		sample := testutil.CreateTestSample(t, h.db, lab.ID)
		h.db.Model(sample).Update("status", models.SampleStatusRejected)
		param := testutil.CreateTestParameter(t, h.db, lab.ID)

		_, err := svc.RecordResult(ctx, sample.ID, RecordResultInput{ParameterID: param.ID, Value: 1})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("viewer_denied", func(t *testing.T) {
		h := newHarness(t)
		svc := NewTestResultService(h.deps)
		lab := testutil.CreateTestLab(t, h.db)
		ctx, _ := h.member(t, lab, models.RoleViewer)
		sample := testutil.CreateTestSample(t, h.db, lab.ID)
		param := testutil.CreateTestParameter(t, h.db, lab.ID)

		_, err := svc.RecordResult(ctx, sample.ID, RecordResultInput{ParameterID: param.ID, Value: 1})
		testutil.AssertAppError(t, err, "ROLE_INSUFFICIENT")
	})
}

func TestListSampleResults(t *testing.T) {
	h := newHarness(t)
	svc := NewTestResultService(h.deps)
	lab := testutil.CreateTestLab(t, h.db)
	ctx, _ := h.member(t, lab, models.RoleViewer)
	sample := testutil.CreateTestSample(t, h.db, lab.ID)
	param := testutil.CreateTestParameter(t, h.db, lab.ID)
	testutil.CreateTestResult(t, h.db, sample, param, 1)
	testutil.CreateTestResult(t, h.db, sample, param, 2)
	testutil.CreateTestResult(t, h.db, testutil.CreateTestSample(t, h.db, lab.ID), param, 3)

	resp, err := svc.ListSampleResults(ctx, sample.ID, pagination.PageRequest{})
	testutil.AssertNoError(t, err)
	if resp.TotalItems != 2 {
		t.Errorf("expected 2 results, got %d", resp.TotalItems)
	}
}

func TestUpdateResult(t *testing.T) {
	h := newHarness(t)
	svc := NewTestResultService(h.deps)
	lab := testutil.CreateTestLab(t, h.db)
	ctx, _ := h.member(t, lab, models.RoleTechnician)
	sample := testutil.CreateTestSample(t, h.db, lab.ID)
	param := testutil.CreateTestParameter(t, h.db, lab.ID)
	r := testutil.CreateTestResult(t, h.db, sample, param, 4.0)

	updated, err := svc.UpdateResult(ctx, r.ID, UpdateResultInput{Value: ptr(4.5), Comment: ptr("re-run")})
	testutil.AssertNoError(t, err)
	if updated.Value != 4.5 {
		t.Errorf("expected value 4.5, got %v", updated.Value)
	}

	rows := h.auditRows(t, r.ID)
	if len(rows) != 1 || rows[0].Action != models.AuditActionUpdate {
		t.Fatalf("expected one Update audit row, got %+v", rows)
	}
}

func TestDeleteResult(t *testing.T) {
	h := newHarness(t)
	svc := NewTestResultService(h.deps)
	lab := testutil.CreateTestLab(t, h.db)
	techCtx, _ := h.member(t, lab, models.RoleTechnician)
	adminCtx, _ := h.member(t, lab, models.RoleAdmin)
	sample := testutil.CreateTestSample(t, h.db, lab.ID)
	param := testutil.CreateTestParameter(t, h.db, lab.ID)
	r := testutil.CreateTestResult(t, h.db, sample, param, 4.0)

	testutil.AssertAppError(t, svc.DeleteResult(techCtx, r.ID), "ROLE_INSUFFICIENT")
	testutil.AssertNoError(t, svc.DeleteResult(adminCtx, r.ID))

	var stored models.TestResult
	testutil.AssertNoError(t, h.db.First(&stored, "id = ?", r.ID).Error)
	if !stored.IsDeleted {
		t.Error("expected result to be soft-deleted")
	}
}
