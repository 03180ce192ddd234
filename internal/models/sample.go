package models

import (
	"time"

	"labtrack/internal/ids"
)

// SampleStatus is the lifecycle state of a sample.
type SampleStatus string

const (
	SampleStatusReceived  SampleStatus = "received"
	SampleStatusInTesting SampleStatus = "in_testing"
	SampleStatusCompleted SampleStatus = "completed"
	SampleStatusArchived  SampleStatus = "archived"
	SampleStatusRejected  SampleStatus = "rejected"
)

// Sample is a specimen received by a lab.
type Sample struct {
	Base
	SoftDelete
	LabID       string          `gorm:"type:uuid;not null;index;uniqueIndex:idx_sample_lab_code,priority:1" json:"lab_id"`
	Code        string          `gorm:"size:64;not null;uniqueIndex:idx_sample_lab_code,priority:2" json:"code"`
	Name        string          `gorm:"not null" json:"name"`
	Matrix      string          `gorm:"size:64" json:"matrix"`
	Status      SampleStatus    `gorm:"size:32;not null;default:'received'" json:"status"`
	CollectedAt *time.Time      `json:"collected_at,omitempty"`
	Notes       string          `json:"notes"`
	Aliquots    []SampleAliquot `gorm:"foreignKey:SampleID" json:"aliquots,omitempty"`
}

// SampleAliquot is a portion of a sample. Aliquots are owned by their sample:
// they live and die with it and are not audited on their own.
type SampleAliquot struct {
	ID              string  `gorm:"type:uuid;primaryKey" json:"id"`
	SampleID        string  `gorm:"type:uuid;not null;index" json:"sample_id"`
	Label           string  `gorm:"size:64;not null" json:"label"`
	VolumeML        float64 `json:"volume_ml"`
	StorageLocation string  `gorm:"size:120" json:"storage_location"`
}

// EnsureID generates a key for new aliquots.
func (a *SampleAliquot) EnsureID() {
	if a.ID == "" {
		a.ID = ids.NewEntityID()
	}
}

// AliquotRefs returns pointers to the sample's aliquots.
func (s *Sample) AliquotRefs() []*SampleAliquot {
	out := make([]*SampleAliquot, len(s.Aliquots))
	for i := range s.Aliquots {
		out[i] = &s.Aliquots[i]
	}
	return out
}
