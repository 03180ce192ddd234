package services

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"labtrack/internal/audit"
	"labtrack/internal/authz"
	"labtrack/internal/clock"
	"labtrack/internal/models"
	"labtrack/internal/softdelete"
	"labtrack/internal/tenant"
	"labtrack/internal/testutil"
	"labtrack/internal/uow"
)

var serviceTime = time.Date(2026, 4, 2, 8, 15, 0, 0, time.UTC)

const systemAdminID = "0190a000-0000-7000-8000-00000000ad01"

type harness struct {
	db     *gorm.DB
	binder *testutil.RecordingBinder
	clock  *clock.Fixed
	deps   Deps
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.SetupTestDB(t)
	store, binder := testutil.NewStore(db)
	reg, err := models.NewRegistry()
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	clk := clock.NewFixed(serviceTime)

	return &harness{
		db:     db,
		binder: binder,
		clock:  clk,
		deps: Deps{
			Store: store,
			Work:  uow.NewFactory(store, reg, clk, softdelete.NewRewriter(), audit.NewWriter(audit.DefaultMaxFieldLength)),
			Gate:  authz.NewGate(),
			Clock: clk,
		},
	}
}

// member creates a user holding role in lab and returns a request context
// for them.
func (h *harness) member(t *testing.T, lab *models.Lab, role models.Role) (context.Context, *models.User) {
	t.Helper()
	user := testutil.CreateTestUser(t, h.db)
	testutil.CreateTestMembership(t, h.db, user.ID, lab.ID, role)
	return tenant.WithSecurityContext(context.Background(), tenant.ForLab(user.ID, lab.ID, role)), user
}

func (h *harness) admin(selected string) context.Context {
	return tenant.WithSecurityContext(context.Background(), tenant.ForSystemAdmin(systemAdminID, selected))
}

func (h *harness) auditRows(t *testing.T, entityID string) []models.AuditLog {
	t.Helper()
	var rows []models.AuditLog
	if err := h.db.Where("entity_id = ?", entityID).Order("id ASC").Find(&rows).Error; err != nil {
		t.Fatalf("load audit rows: %v", err)
	}
	return rows
}

func ptr[T any](v T) *T { return &v }
