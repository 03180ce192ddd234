package tenant

import (
	"context"
	"crypto/subtle"
	"errors"

	apperrors "labtrack/internal/errors"
	"labtrack/internal/ids"
	"labtrack/internal/models"
)

// MembershipLookup reads one membership inside a session bound to labID. It
// returns ErrMembershipNotFound when the user holds no role there.
type MembershipLookup interface {
	FindMembership(ctx context.Context, sc *SecurityContext, userID, labID string) (*models.UserLab, error)
}

// Resolver derives the security context of a request from the authenticated
// subject and the tenant header. Memberships are read on every call.
type Resolver struct {
	lookup        MembershipLookup
	systemAdminID string
}

// NewResolver creates a Resolver. An empty systemAdminID disables the
// break-glass identity.
func NewResolver(lookup MembershipLookup, systemAdminID string) *Resolver {
	return &Resolver{lookup: lookup, systemAdminID: systemAdminID}
}

// IsSystemAdmin reports whether subjectID is the configured administrator.
func (r *Resolver) IsSystemAdmin(subjectID string) bool {
	if r.systemAdminID == "" || subjectID == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(subjectID), []byte(r.systemAdminID)) == 1
}

// Resolve returns the security context for subjectID selecting labHeader.
func (r *Resolver) Resolve(ctx context.Context, subjectID, labHeader string) (*SecurityContext, error) {
	if subjectID == "" {
		return nil, apperrors.ErrUnauthorized
	}

	if r.IsSystemAdmin(subjectID) {
		if labHeader != "" && !ids.IsUUID(labHeader) {
			return nil, apperrors.ErrTenantAccessDenied
		}
		return ForSystemAdmin(subjectID, labHeader), nil
	}

	if labHeader == "" {
		return nil, apperrors.ErrMissingTenantContext
	}
	if !ids.IsUUID(labHeader) {
		return nil, apperrors.ErrTenantAccessDenied
	}

	m, err := r.lookup.FindMembership(ctx, lookupContext(subjectID, labHeader), subjectID, labHeader)
	if err != nil {
		if errors.Is(err, apperrors.ErrMembershipNotFound) {
			return nil, apperrors.ErrTenantAccessDenied
		}
		return nil, err
	}
	if !m.Role.Valid() {
		return nil, apperrors.ErrTenantAccessDenied
	}
	return ForLab(subjectID, m.LabID, m.Role), nil
}
