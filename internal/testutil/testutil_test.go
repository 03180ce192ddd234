package testutil_test

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	apperrors "labtrack/internal/errors"
	"labtrack/internal/models"
	"labtrack/internal/tenant"
	"labtrack/internal/testutil"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)

	var count int64
	for _, table := range []string{"labs", "users", "user_labs", "parameters", "samples", "sample_aliquots", "test_results", "audit_logs", "audit_log_archives"} {
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}
}

func TestDatabasesAreIsolated(t *testing.T) {
	first := testutil.SetupTestDB(t)
	second := testutil.SetupTestDB(t)
	testutil.CreateTestLab(t, first)

	var n int64
	if err := second.Model(&models.Lab{}).Count(&n).Error; err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("second database sees %d labs, want 0", n)
	}
}

func TestFixtures(t *testing.T) {
	db := testutil.SetupTestDB(t)

	user := testutil.CreateTestUser(t, db)
	if user.ID == "" {
		t.Fatal("user should have an ID")
	}

	lab := testutil.CreateTestLab(t, db)
	m := testutil.CreateTestMembership(t, db, user.ID, lab.ID, models.RoleTechnician)
	if m.Role != models.RoleTechnician {
		t.Errorf("expected technician, got %s", m.Role)
	}

	sample := testutil.CreateTestSample(t, db, lab.ID)
	if len(sample.Aliquots) != 2 {
		t.Errorf("expected 2 aliquots, got %d", len(sample.Aliquots))
	}

	param := testutil.CreateTestParameter(t, db, lab.ID)
	result := testutil.CreateTestResult(t, db, sample, param, 7.1)
	if result.Value != 7.1 || result.LabID != lab.ID {
		t.Errorf("unexpected result fixture %+v", result)
	}
}

func TestRecordingBinder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store, binder := testutil.NewStore(db)

	sc := tenant.ForLab("u-1", "0190a000-0000-7000-8000-00000000000a", models.RoleViewer)
	err := store.WithSession(context.Background(), sc, func(*gorm.DB) error { return nil })
	testutil.AssertNoError(t, err)

	got := binder.Last(t)
	if got.LabID != sc.LabID() || got.SystemAdmin != "false" {
		t.Errorf("unexpected binding %+v", got)
	}

	binder.Err = errors.New("boom")
	err = store.WithSession(context.Background(), sc, func(*gorm.DB) error { return nil })
	testutil.AssertAppError(t, err, apperrors.ErrSessionBindFailed.Code)
}
