package models

import (
	"time"

	"labtrack/internal/ids"
)

// Base contains common columns for all business tables. The audit metadata
// columns are stamped by the unit of work at commit time.
type Base struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime:false" json:"created_at"`
	CreatedBy string    `gorm:"size:64" json:"created_by"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false" json:"updated_at"`
	UpdatedBy string    `gorm:"size:64" json:"updated_by"`
}

// EnsureID generates a UUIDv7 for new records.
func (b *Base) EnsureID() {
	if b.ID == "" {
		b.ID = ids.NewEntityID()
	}
}

// AuditKey returns the primary key recorded in the audit log.
func (b *Base) AuditKey() string { return b.ID }

// StampCreated records who created the row and when.
func (b *Base) StampCreated(actor string, at time.Time) {
	b.CreatedAt, b.CreatedBy = at, actor
	b.UpdatedAt, b.UpdatedBy = at, actor
}

// StampUpdated records who last changed the row and when.
func (b *Base) StampUpdated(actor string, at time.Time) {
	b.UpdatedAt, b.UpdatedBy = at, actor
}

// SoftDelete is embedded by entities that are flagged rather than removed.
type SoftDelete struct {
	IsDeleted bool       `gorm:"not null;default:false;index" json:"is_deleted"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// SoftDeleteFields exposes the deletion flag and timestamp to the rewriter.
func (s *SoftDelete) SoftDeleteFields() (*bool, **time.Time) {
	return &s.IsDeleted, &s.DeletedAt
}
