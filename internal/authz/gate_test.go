package authz

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "labtrack/internal/errors"
	"labtrack/internal/models"
	"labtrack/internal/tenant"
)

const (
	user = "0190a000-0000-7000-8000-000000000002"
	labA = "0190a000-0000-7000-8000-00000000000a"
	labB = "0190a000-0000-7000-8000-00000000000b"
)

func TestAuthorize(t *testing.T) {
	gate := NewGate()

	tests := []struct {
		name       string
		sc         *tenant.SecurityContext
		op         Operation
		resource   string
		wantErr    *apperrors.AppError
		wantReason string
	}{
		{name: "viewer_reads", sc: tenant.ForLab(user, labA, models.RoleViewer), op: ReadSample, resource: labA},
		{name: "technician_creates", sc: tenant.ForLab(user, labA, models.RoleTechnician), op: CreateSample, resource: labA},
		{name: "admin_deletes", sc: tenant.ForLab(user, labA, models.RoleAdmin), op: DeleteSample, resource: labA},
		{
			name: "viewer_cannot_delete", sc: tenant.ForLab(user, labB, models.RoleViewer), op: DeleteSample, resource: labB,
			wantErr: apperrors.ErrRoleInsufficient, wantReason: apperrors.ReasonRoleInsufficient,
		},
		{
			name: "technician_cannot_manage_parameters", sc: tenant.ForLab(user, labA, models.RoleTechnician), op: ManageParameter, resource: labA,
			wantErr: apperrors.ErrRoleInsufficient, wantReason: apperrors.ReasonRoleInsufficient,
		},
		{
			name: "admin_of_a_on_resource_in_b", sc: tenant.ForLab(user, labA, models.RoleAdmin), op: DeleteSample, resource: labB,
			wantErr: apperrors.ErrTenantAccessDenied, wantReason: apperrors.ReasonTenantMismatch,
		},
		{
			name: "lab_admin_cannot_create_labs", sc: tenant.ForLab(user, labA, models.RoleAdmin), op: CreateLab, resource: labA,
			wantErr: apperrors.ErrRoleInsufficient, wantReason: apperrors.ReasonRoleInsufficient,
		},
		{
			name: "no_context", sc: nil, op: ReadSample, resource: labA,
			wantErr: apperrors.ErrMissingTenantContext, wantReason: apperrors.ReasonMissingContext,
		},
		{name: "system_admin_anywhere", sc: tenant.ForSystemAdmin(user, ""), op: DeleteLab, resource: labB},
		{name: "system_admin_other_lab", sc: tenant.ForSystemAdmin(user, labA), op: DeleteSample, resource: labB},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := gate.Authorize(tt.sc, tt.op, tt.resource)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			var appErr *apperrors.AppError
			if assert.True(t, errors.As(err, &appErr)) {
				assert.Equal(t, tt.wantErr.Code, appErr.Code)
				assert.Equal(t, tt.wantReason, appErr.Reason)
				assert.NotContains(t, appErr.Error(), labA)
				assert.NotContains(t, appErr.Error(), labB)
			}
		})
	}
}

// The role is exactly the one resolved for the selected lab: being Admin in
// lab A never leaks into a request that selected lab B.
func TestRoleIsPerSelectedLab(t *testing.T) {
	gate := NewGate()
	inA := tenant.ForLab(user, labA, models.RoleAdmin)
	inB := tenant.ForLab(user, labB, models.RoleViewer)

	assert.NoError(t, gate.Check(inA, DeleteSample))
	assert.True(t, errors.Is(gate.Check(inB, DeleteSample), apperrors.ErrRoleInsufficient))
	assert.NoError(t, gate.Check(inB, ReadSample))
}

func TestRoleOrderIsNecessaryAndSufficient(t *testing.T) {
	gate := NewGate()
	roles := []models.Role{models.RoleViewer, models.RoleTechnician, models.RoleAdmin}
	ops := []Operation{ReadSample, CreateSample, UpdateResult, DeleteResult, ManageParameter, ReadAuditLog}

	for _, role := range roles {
		for _, op := range ops {
			err := gate.Check(tenant.ForLab(user, labA, role), op)
			if role >= op.MinRole {
				assert.NoError(t, err, "%s %s", role, op.Name)
			} else {
				assert.Error(t, err, "%s %s", role, op.Name)
			}
		}
	}
}
