package models

// User is a global identity. Roles are never held here; see UserLab.
type User struct {
	Base
	Email       string    `gorm:"uniqueIndex;not null" json:"email"`
	Password    string    `gorm:"not null" json:"-"`
	DisplayName string    `json:"display_name"`
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"`
	Memberships []UserLab `gorm:"foreignKey:UserID" json:"memberships,omitempty"`
}
