package models

// Lab is a tenant. All business records belong to exactly one lab.
type Lab struct {
	Base
	SoftDelete
	Name        string `gorm:"size:120;not null;uniqueIndex" json:"name"`
	Description string `json:"description"`
	IsActive    bool   `gorm:"not null;default:true" json:"is_active"`
}
