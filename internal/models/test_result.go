package models

import "time"

// TestResult is one measured value of a parameter on a sample.
type TestResult struct {
	Base
	SoftDelete
	LabID       string    `gorm:"type:uuid;not null;index" json:"lab_id"`
	SampleID    string    `gorm:"type:uuid;not null;index" json:"sample_id"`
	ParameterID string    `gorm:"type:uuid;not null;index" json:"parameter_id"`
	Value       float64   `gorm:"not null" json:"value"`
	Unit        string    `gorm:"size:32" json:"unit"`
	MeasuredAt  time.Time `gorm:"not null" json:"measured_at"`
	Comment     string    `json:"comment"`
}
