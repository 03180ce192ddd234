package models

// UserLab is the membership of a user in a lab with the role held there.
// It is the only source of truth for authorization.
type UserLab struct {
	Base
	UserID string `gorm:"type:uuid;not null;uniqueIndex:idx_user_lab,priority:1" json:"user_id"`
	LabID  string `gorm:"type:uuid;not null;uniqueIndex:idx_user_lab,priority:2;index" json:"lab_id"`
	Role   Role   `gorm:"not null" json:"role"`
}
