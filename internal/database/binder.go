package database

import (
	"context"

	"gorm.io/gorm"

	"labtrack/internal/tenant"
)

// Session settings read by the row-level security policies.
const (
	SettingLabID       = "app.current_lab_id"
	SettingSystemAdmin = "app.is_system_admin"
)

const (
	bindSQL  = "SELECT set_config(?, ?, false), set_config(?, ?, false)"
	resetSQL = "SELECT set_config($1, '', false), set_config($2, 'false', false)"
)

// SessionBinder writes a security context onto one acquired connection.
type SessionBinder interface {
	Bind(ctx context.Context, conn *gorm.DB, sc *tenant.SecurityContext) error
}

// PostgresBinder binds with session-scoped set_config calls. Both settings
// are written on every call so nothing from the connection's previous user
// survives.
type PostgresBinder struct{}

// Bind implements SessionBinder.
func (PostgresBinder) Bind(ctx context.Context, conn *gorm.DB, sc *tenant.SecurityContext) error {
	lab, admin := SessionValues(sc)
	return conn.WithContext(ctx).Exec(bindSQL, SettingLabID, lab, SettingSystemAdmin, admin).Error
}

// SessionValues returns the lab id and the administrator flag written for sc.
func SessionValues(sc *tenant.SecurityContext) (labID, systemAdmin string) {
	if sc.IsSystemAdmin() {
		return "", "true"
	}
	return sc.LabID(), "false"
}
