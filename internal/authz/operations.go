// Package authz gates operations on the caller's role in the selected lab.
package authz

import "labtrack/internal/models"

// Operation is a named action with the minimum role it requires.
type Operation struct {
	Name    string
	MinRole models.Role
	// SystemOnly operations are reserved for the system administrator.
	SystemOnly bool
}

var (
	ReadLab   = Operation{Name: "lab.read", MinRole: models.RoleViewer}
	UpdateLab = Operation{Name: "lab.update", MinRole: models.RoleAdmin}
	CreateLab = Operation{Name: "lab.create", SystemOnly: true}
	DeleteLab = Operation{Name: "lab.delete", SystemOnly: true}

	ProvisionUser = Operation{Name: "user.provision", SystemOnly: true}

	ListMembers  = Operation{Name: "membership.list", MinRole: models.RoleAdmin}
	GrantMember  = Operation{Name: "membership.grant", MinRole: models.RoleAdmin}
	RevokeMember = Operation{Name: "membership.revoke", MinRole: models.RoleAdmin}

	ReadParameter   = Operation{Name: "parameter.read", MinRole: models.RoleViewer}
	ManageParameter = Operation{Name: "parameter.manage", MinRole: models.RoleAdmin}

	ReadSample   = Operation{Name: "sample.read", MinRole: models.RoleViewer}
	CreateSample = Operation{Name: "sample.create", MinRole: models.RoleTechnician}
	UpdateSample = Operation{Name: "sample.update", MinRole: models.RoleTechnician}
	DeleteSample = Operation{Name: "sample.delete", MinRole: models.RoleAdmin}

	ReadResult   = Operation{Name: "result.read", MinRole: models.RoleViewer}
	RecordResult = Operation{Name: "result.record", MinRole: models.RoleTechnician}
	UpdateResult = Operation{Name: "result.update", MinRole: models.RoleTechnician}
	DeleteResult = Operation{Name: "result.delete", MinRole: models.RoleAdmin}

	ReadAuditLog = Operation{Name: "audit.read", MinRole: models.RoleAdmin}
)
