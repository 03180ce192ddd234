package models

import (
	"time"

	"labtrack/internal/entity"
)

// Audit entity types. This is the closed enumeration the audit log accepts.
const (
	EntityTypeLab        entity.Type = "Lab"
	EntityTypeUser       entity.Type = "User"
	EntityTypeUserLab    entity.Type = "UserLab"
	EntityTypeSample     entity.Type = "Sample"
	EntityTypeParameter  entity.Type = "Parameter"
	EntityTypeTestResult entity.Type = "TestResult"
)

// EntityTypes lists every audit entity type.
var EntityTypes = []entity.Type{
	EntityTypeLab,
	EntityTypeUser,
	EntityTypeUserLab,
	EntityTypeSample,
	EntityTypeParameter,
	EntityTypeTestResult,
}

// NewRegistry builds the field registration table for every persisted type.
// Audit metadata columns (created/updated by+at) are deliberately absent:
// the audit record itself carries who and when.
func NewRegistry() (*entity.Registry, error) {
	return entity.NewRegistry(EntityTypes,
		entity.Describe[Lab](EntityTypeLab,
			entity.Col("ID", func(l *Lab) *string { return &l.ID }),
			entity.Col("Name", func(l *Lab) *string { return &l.Name }),
			entity.Col("Description", func(l *Lab) *string { return &l.Description }),
			entity.Col("IsActive", func(l *Lab) *bool { return &l.IsActive }),
			entity.Col("IsDeleted", func(l *Lab) *bool { return &l.IsDeleted }),
			entity.Col("DeletedAt", func(l *Lab) **time.Time { return &l.DeletedAt }),
		),
		entity.Describe[User](EntityTypeUser,
			entity.Col("ID", func(u *User) *string { return &u.ID }),
			entity.Col("Email", func(u *User) *string { return &u.Email }),
			entity.Col("DisplayName", func(u *User) *string { return &u.DisplayName }),
			entity.Col("IsActive", func(u *User) *bool { return &u.IsActive }),
		),
		entity.Describe[UserLab](EntityTypeUserLab,
			entity.Col("ID", func(m *UserLab) *string { return &m.ID }),
			entity.Col("UserID", func(m *UserLab) *string { return &m.UserID }),
			entity.Col("LabID", func(m *UserLab) *string { return &m.LabID }),
			entity.Col("Role", func(m *UserLab) *Role { return &m.Role }),
		),
		entity.OwnsMany(
			entity.Describe[Sample](EntityTypeSample,
				entity.Col("ID", func(s *Sample) *string { return &s.ID }),
				entity.Col("LabID", func(s *Sample) *string { return &s.LabID }),
				entity.Col("Code", func(s *Sample) *string { return &s.Code }),
				entity.Col("Name", func(s *Sample) *string { return &s.Name }),
				entity.Col("Matrix", func(s *Sample) *string { return &s.Matrix }),
				entity.Col("Status", func(s *Sample) *SampleStatus { return &s.Status }),
				entity.Col("CollectedAt", func(s *Sample) **time.Time { return &s.CollectedAt }),
				entity.Col("Notes", func(s *Sample) *string { return &s.Notes }),
				entity.Col("IsDeleted", func(s *Sample) *bool { return &s.IsDeleted }),
				entity.Col("DeletedAt", func(s *Sample) **time.Time { return &s.DeletedAt }),
			),
			(*Sample).AliquotRefs,
			func(s *Sample, a *SampleAliquot) { a.SampleID = s.ID },
		),
		entity.Describe[SampleAliquot]("",
			entity.Col("ID", func(a *SampleAliquot) *string { return &a.ID }),
			entity.Col("SampleID", func(a *SampleAliquot) *string { return &a.SampleID }),
			entity.Col("Label", func(a *SampleAliquot) *string { return &a.Label }),
			entity.Col("VolumeML", func(a *SampleAliquot) *float64 { return &a.VolumeML }),
			entity.Col("StorageLocation", func(a *SampleAliquot) *string { return &a.StorageLocation }),
		),
		entity.Describe[Parameter](EntityTypeParameter,
			entity.Col("ID", func(p *Parameter) *string { return &p.ID }),
			entity.Col("LabID", func(p *Parameter) *string { return &p.LabID }),
			entity.Col("Code", func(p *Parameter) *string { return &p.Code }),
			entity.Col("Name", func(p *Parameter) *string { return &p.Name }),
			entity.Col("Unit", func(p *Parameter) *string { return &p.Unit }),
			entity.Col("MinValue", func(p *Parameter) **float64 { return &p.MinValue }),
			entity.Col("MaxValue", func(p *Parameter) **float64 { return &p.MaxValue }),
			entity.Col("IsDeleted", func(p *Parameter) *bool { return &p.IsDeleted }),
			entity.Col("DeletedAt", func(p *Parameter) **time.Time { return &p.DeletedAt }),
		),
		entity.Describe[TestResult](EntityTypeTestResult,
			entity.Col("ID", func(r *TestResult) *string { return &r.ID }),
			entity.Col("LabID", func(r *TestResult) *string { return &r.LabID }),
			entity.Col("SampleID", func(r *TestResult) *string { return &r.SampleID }),
			entity.Col("ParameterID", func(r *TestResult) *string { return &r.ParameterID }),
			entity.Col("Value", func(r *TestResult) *float64 { return &r.Value }),
			entity.Col("Unit", func(r *TestResult) *string { return &r.Unit }),
			entity.Col("MeasuredAt", func(r *TestResult) *time.Time { return &r.MeasuredAt }),
			entity.Col("Comment", func(r *TestResult) *string { return &r.Comment }),
			entity.Col("IsDeleted", func(r *TestResult) *bool { return &r.IsDeleted }),
			entity.Col("DeletedAt", func(r *TestResult) **time.Time { return &r.DeletedAt }),
		),
		entity.Describe[AuditLog](""),
	)
}

// LabScoped is implemented by records that belong to a single lab.
type LabScoped interface {
	OwningLab() string
}

func (s *Sample) OwningLab() string     { return s.LabID }
func (p *Parameter) OwningLab() string  { return p.LabID }
func (r *TestResult) OwningLab() string { return r.LabID }
func (m *UserLab) OwningLab() string    { return m.LabID }
func (l *Lab) OwningLab() string        { return l.ID }
