package models

import (
	"time"

	"gorm.io/datatypes"

	"labtrack/internal/entity"
)

// AuditAction is the intended operation recorded in the audit log.
type AuditAction string

const (
	AuditActionCreate AuditAction = "Create"
	AuditActionUpdate AuditAction = "Update"
	AuditActionDelete AuditAction = "Delete"
)

// SystemActor is recorded when no authenticated user is attached to a change.
const SystemActor = "System"

// AuditLog is an immutable record of one entity mutation. Rows are written by
// the audit writer in the same transaction as the change they describe.
type AuditLog struct {
	ID         string         `gorm:"size:26;primaryKey" json:"id"`
	LabID      *string        `gorm:"type:uuid;index" json:"lab_id,omitempty"`
	UserID     string         `gorm:"size:64;not null;index" json:"user_id"`
	EntityType entity.Type    `gorm:"size:64;not null;index:idx_audit_entity,priority:1" json:"entity_type"`
	EntityID   string         `gorm:"size:64;not null;index:idx_audit_entity,priority:2" json:"entity_id"`
	Action     AuditAction    `gorm:"size:16;not null;index" json:"action"`
	OldValue   datatypes.JSON `json:"old_value,omitempty"`
	NewValue   datatypes.JSON `json:"new_value,omitempty"`
	Truncated  bool           `gorm:"not null;default:false" json:"truncated"`
	Timestamp  time.Time      `gorm:"not null;index" json:"timestamp"`
	IPAddress  *string        `gorm:"size:45" json:"ip_address,omitempty"`
	Archived   bool           `gorm:"not null;default:false" json:"archived"`
}

// AuditLogArchive is the cold copy of aged-out audit rows.
type AuditLogArchive struct {
	ID         string         `gorm:"size:26;primaryKey" json:"id"`
	LabID      *string        `gorm:"type:uuid;index" json:"lab_id,omitempty"`
	UserID     string         `gorm:"size:64;not null" json:"user_id"`
	EntityType entity.Type    `gorm:"size:64;not null" json:"entity_type"`
	EntityID   string         `gorm:"size:64;not null" json:"entity_id"`
	Action     AuditAction    `gorm:"size:16;not null" json:"action"`
	OldValue   datatypes.JSON `json:"old_value,omitempty"`
	NewValue   datatypes.JSON `json:"new_value,omitempty"`
	Truncated  bool           `gorm:"not null;default:false" json:"truncated"`
	Timestamp  time.Time      `gorm:"not null" json:"timestamp"`
	IPAddress  *string        `gorm:"size:45" json:"ip_address,omitempty"`
	ArchivedAt time.Time      `gorm:"not null" json:"archived_at"`
}

// TableName keeps the archive table name explicit.
func (AuditLogArchive) TableName() string { return "audit_log_archives" }
