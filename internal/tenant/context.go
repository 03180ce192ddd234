// Package tenant resolves and carries the per-request security context: the
// selected lab and the caller's role in it, or the system administrator flag.
package tenant

import (
	"context"

	apperrors "labtrack/internal/errors"
	"labtrack/internal/models"
)

// SecurityContext is the request-scoped authorization context. It is built
// once by the resolver and never mutated afterwards.
type SecurityContext struct {
	userID      string
	labID       string
	role        models.Role
	systemAdmin bool
	selected    string
}

// ForLab returns a context for a member of labID holding role.
func ForLab(userID, labID string, role models.Role) *SecurityContext {
	return &SecurityContext{userID: userID, labID: labID, role: role, selected: labID}
}

// ForSystemAdmin returns the break-glass context. selected is the lab named
// in the tenant header, if any; it narrows queries and targets writes. The
// session binding stays unrestricted either way.
func ForSystemAdmin(userID, selected string) *SecurityContext {
	return &SecurityContext{userID: userID, systemAdmin: true, selected: selected}
}

// Anonymous binds a session with no lab and no privileges. Only global
// tables without row-level security are readable through it.
func Anonymous() *SecurityContext { return &SecurityContext{} }

// lookupContext binds a session to a single lab without granting any role.
// The resolver uses it to read memberships under row-level security.
func lookupContext(userID, labID string) *SecurityContext {
	return &SecurityContext{userID: userID, labID: labID, role: models.RoleNone, selected: labID}
}

func (s *SecurityContext) UserID() string      { return s.userID }
func (s *SecurityContext) LabID() string       { return s.labID }
func (s *SecurityContext) Role() models.Role   { return s.role }
func (s *SecurityContext) IsSystemAdmin() bool { return s.systemAdmin }

// SelectedLab is the lab chosen by the tenant header. For lab contexts it is
// always LabID.
func (s *SecurityContext) SelectedLab() string { return s.selected }

// Actor is the identity recorded in audit metadata.
func (s *SecurityContext) Actor() string {
	if s == nil || s.userID == "" {
		return models.SystemActor
	}
	return s.userID
}

// Mode labels the context for logs and metrics.
func (s *SecurityContext) Mode() string {
	switch {
	case s.systemAdmin:
		return "system_admin"
	case s.role == models.RoleNone:
		return "lookup"
	default:
		return "lab"
	}
}

type contextKey struct{}

// WithSecurityContext attaches sc to ctx.
func WithSecurityContext(ctx context.Context, sc *SecurityContext) context.Context {
	return context.WithValue(ctx, contextKey{}, sc)
}

// FromContext returns the security context attached to ctx, if any.
func FromContext(ctx context.Context) (*SecurityContext, bool) {
	sc, ok := ctx.Value(contextKey{}).(*SecurityContext)
	return sc, ok && sc != nil
}

// Require returns the attached context or ErrMissingTenantContext.
func Require(ctx context.Context) (*SecurityContext, error) {
	sc, ok := FromContext(ctx)
	if !ok {
		return nil, apperrors.ErrMissingTenantContext
	}
	return sc, nil
}

// TargetLab returns the lab new records are created in. A system admin must
// have selected one explicitly.
func TargetLab(sc *SecurityContext) (string, error) {
	if sc == nil || sc.selected == "" {
		return "", apperrors.ErrMissingTenantContext
	}
	return sc.selected, nil
}
