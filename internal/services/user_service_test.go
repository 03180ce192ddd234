package services

import (
	"context"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"labtrack/internal/models"
	"labtrack/internal/testutil"
)

func TestProvisionUser(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		h := newHarness(t)
		svc := NewUserService(h.deps)

		user, err := svc.ProvisionUser(h.admin(""), "Alice@Example.com", "password123", "Alice")
		testutil.AssertNoError(t, err)

		if user.ID == "" {
			t.Fatal("expected generated user ID")
		}
		if user.Email != "alice@example.com" {
			t.Errorf("expected lowercased email, got %s", user.Email)
		}
		if user.Password == "password123" {
			t.Error("password must be stored hashed")
		}
		if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("password123")) != nil {
			t.Error("stored hash does not match password")
		}
		if user.CreatedBy != systemAdminID {
			t.Errorf("expected created_by %s, got %s", systemAdminID, user.CreatedBy)
		}
	})

	t.Run("audited_without_password", func(t *testing.T) {
		h := newHarness(t)
		svc := NewUserService(h.deps)

		user, err := svc.ProvisionUser(h.admin(""), "bob@example.com", "password123", "Bob")
		testutil.AssertNoError(t, err)

		rows := h.auditRows(t, user.ID)
		if len(rows) != 1 {
			t.Fatalf("expected 1 audit row, got %d", len(rows))
		}
		if rows[0].Action != models.AuditActionCreate {
			t.Errorf("expected Create, got %s", rows[0].Action)
		}
		if rows[0].LabID != nil {
			t.Errorf("expected no lab on user audit, got %v", *rows[0].LabID)
		}
		if got := string(rows[0].NewValue); got == "" || containsAny(got, "password123", user.Password) {
			t.Errorf("audit payload leaks password: %s", got)
		}
	})

	t.Run("duplicate_email", func(t *testing.T) {
		h := newHarness(t)
		svc := NewUserService(h.deps)

		_, err := svc.ProvisionUser(h.admin(""), "dup@example.com", "password123", "")
		testutil.AssertNoError(t, err)

		_, err = svc.ProvisionUser(h.admin(""), "dup@example.com", "password456", "")
		testutil.AssertAppError(t, err, "DUPLICATE_EMAIL")
	})

	t.Run("empty_password", func(t *testing.T) {
		h := newHarness(t)
		svc := NewUserService(h.deps)

		_, err := svc.ProvisionUser(h.admin(""), "test@example.com", "", "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("lab_admin_denied", func(t *testing.T) {
		h := newHarness(t)
		svc := NewUserService(h.deps)
		lab := testutil.CreateTestLab(t, h.db)
		ctx, _ := h.member(t, lab, models.RoleAdmin)

		_, err := svc.ProvisionUser(ctx, "eve@example.com", "password123", "")
		testutil.AssertAppError(t, err, "ROLE_INSUFFICIENT")
	})

	t.Run("no_context", func(t *testing.T) {
		h := newHarness(t)
		svc := NewUserService(h.deps)

		_, err := svc.ProvisionUser(context.Background(), "eve@example.com", "password123", "")
		testutil.AssertAppError(t, err, "MISSING_TENANT_CONTEXT")
	})
}

func TestAttemptLogin(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		h := newHarness(t)
		svc := NewUserService(h.deps)
		created := testutil.CreateTestUserWithEmail(t, h.db, "login@example.com")

		user, err := svc.AttemptLogin(context.Background(), "LOGIN@example.com", "password123")
		testutil.AssertNoError(t, err)
		if user.ID != created.ID {
			t.Errorf("expected user %s, got %s", created.ID, user.ID)
		}
		if b := h.binder.Last(t); b.LabID != "" || b.SystemAdmin != "false" {
			t.Errorf("login must bind a deny-all session, got %+v", b)
		}
	})

	t.Run("wrong_password", func(t *testing.T) {
		h := newHarness(t)
		svc := NewUserService(h.deps)
		testutil.CreateTestUserWithEmail(t, h.db, "login@example.com")

		_, err := svc.AttemptLogin(context.Background(), "login@example.com", "nope")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	})

	t.Run("unknown_email", func(t *testing.T) {
		h := newHarness(t)
		svc := NewUserService(h.deps)

		_, err := svc.AttemptLogin(context.Background(), "ghost@example.com", "password123")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	})
}

func TestGetUserByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		h := newHarness(t)
		svc := NewUserService(h.deps)
		created := testutil.CreateTestUser(t, h.db)

		user, err := svc.GetUserByID(context.Background(), created.ID)
		testutil.AssertNoError(t, err)
		if user.Email != created.Email {
			t.Errorf("expected email %s, got %s", created.Email, user.Email)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		h := newHarness(t)
		svc := NewUserService(h.deps)

		_, err := svc.GetUserByID(context.Background(), "0190a000-0000-7000-8000-0000000000ff")
		testutil.AssertAppError(t, err, "USER_NOT_FOUND")
	})

	t.Run("malformed_id", func(t *testing.T) {
		h := newHarness(t)
		svc := NewUserService(h.deps)

		_, err := svc.GetUserByID(context.Background(), "42")
		testutil.AssertAppError(t, err, "USER_NOT_FOUND")
	})
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
