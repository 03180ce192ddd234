package authz

import (
	apperrors "labtrack/internal/errors"
	"labtrack/internal/logger"
	"labtrack/internal/metrics"
	"labtrack/internal/tenant"
)

// Gate compares the resolved role against an operation's minimum role. It
// holds no state; every decision uses only the context it is given.
type Gate struct{}

// NewGate creates a Gate.
func NewGate() *Gate { return &Gate{} }

// Check authorizes op against the caller's selected lab.
func (g *Gate) Check(sc *tenant.SecurityContext, op Operation) error {
	if sc == nil {
		return g.deny(sc, op, apperrors.ErrMissingTenantContext)
	}
	return g.Authorize(sc, op, sc.SelectedLab())
}

// Authorize authorizes op on a resource owned by resourceLabID.
func (g *Gate) Authorize(sc *tenant.SecurityContext, op Operation, resourceLabID string) error {
	switch {
	case sc == nil:
		return g.deny(sc, op, apperrors.ErrMissingTenantContext)
	case sc.IsSystemAdmin():
		return nil
	case op.SystemOnly:
		return g.deny(sc, op, apperrors.ErrRoleInsufficient)
	case sc.LabID() == "":
		return g.deny(sc, op, apperrors.ErrMissingTenantContext)
	case !sc.Role().AtLeast(op.MinRole):
		return g.deny(sc, op, apperrors.ErrRoleInsufficient)
	case resourceLabID != sc.LabID():
		return g.deny(sc, op, apperrors.ErrTenantAccessDenied)
	}
	return nil
}

func (g *Gate) deny(sc *tenant.SecurityContext, op Operation, err *apperrors.AppError) error {
	metrics.AuthzDenials.WithLabelValues(op.Name, err.Reason).Inc()
	logger.Named("authz").Infow("operation denied",
		"operation", op.Name,
		"reason", err.Reason,
		"user_id", sc.Actor(),
	)
	return err
}
