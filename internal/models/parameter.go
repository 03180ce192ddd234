package models

// Parameter is an analyte or property a lab measures, with its unit and
// optional acceptance range.
type Parameter struct {
	Base
	SoftDelete
	LabID    string   `gorm:"type:uuid;not null;index;uniqueIndex:idx_parameter_lab_code,priority:1" json:"lab_id"`
	Code     string   `gorm:"size:64;not null;uniqueIndex:idx_parameter_lab_code,priority:2" json:"code"`
	Name     string   `gorm:"not null" json:"name"`
	Unit     string   `gorm:"size:32" json:"unit"`
	MinValue *float64 `json:"min_value,omitempty"`
	MaxValue *float64 `json:"max_value,omitempty"`
}
