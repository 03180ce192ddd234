package services

import (
	"context"
	"time"

	"labtrack/internal/models"
	"labtrack/internal/pagination"
	"labtrack/internal/tenant"
)

// LabServicer defines the contract for lab (tenant) management.
type LabServicer interface {
	CreateLab(ctx context.Context, name, description string) (*models.Lab, error)
	GetCurrentLab(ctx context.Context) (*models.Lab, error)
	ListLabs(ctx context.Context, page pagination.PageRequest) (*pagination.PageResponse[models.Lab], error)
	UpdateCurrentLab(ctx context.Context, input UpdateLabInput) (*models.Lab, error)
	DeleteLab(ctx context.Context, labID string) error
}

// UpdateLabInput holds the optional fields of a lab update.
type UpdateLabInput struct {
	Name        *string
	Description *string
	IsActive    *bool
}

// UserServicer defines the contract for user identities.
type UserServicer interface {
	ProvisionUser(ctx context.Context, email, password, displayName string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	AttemptLogin(ctx context.Context, email, password string) (*models.User, error)
}

// MembershipServicer defines the contract for lab membership management.
// It also serves the resolver's membership lookup.
type MembershipServicer interface {
	tenant.MembershipLookup
	ListMembers(ctx context.Context, page pagination.PageRequest) (*pagination.PageResponse[models.UserLab], error)
	GrantRole(ctx context.Context, userID string, role models.Role) (*models.UserLab, error)
	RevokeMember(ctx context.Context, userID string) error
}

// ParameterInput holds the fields of a parameter create or update.
type ParameterInput struct {
	Code     string
	Name     string
	Unit     string
	MinValue *float64
	MaxValue *float64
}

// ParameterServicer defines the contract for the parameter catalogue.
type ParameterServicer interface {
	CreateParameter(ctx context.Context, input ParameterInput) (*models.Parameter, error)
	ListParameters(ctx context.Context, page pagination.PageRequest) (*pagination.PageResponse[models.Parameter], error)
	GetParameter(ctx context.Context, id string) (*models.Parameter, error)
	UpdateParameter(ctx context.Context, id string, input ParameterInput) (*models.Parameter, error)
	DeleteParameter(ctx context.Context, id string) error
}

// AliquotInput describes one aliquot created with a sample.
type AliquotInput struct {
	Label           string
	VolumeML        float64
	StorageLocation string
}

// CreateSampleInput holds the fields of a new sample.
type CreateSampleInput struct {
	Code        string
	Name        string
	Matrix      string
	CollectedAt *time.Time
	Notes       string
	Aliquots    []AliquotInput
}

// UpdateSampleInput holds the optional fields of a sample update. Status
// changes go through the sample lifecycle.
type UpdateSampleInput struct {
	Name        *string
	Matrix      *string
	CollectedAt *time.Time
	Notes       *string
	Status      *models.SampleStatus
}

// SampleFilter holds optional filters for listing samples.
type SampleFilter struct {
	Status *models.SampleStatus
}

// SampleServicer defines the contract for sample management.
type SampleServicer interface {
	CreateSample(ctx context.Context, input CreateSampleInput) (*models.Sample, error)
	ListSamples(ctx context.Context, filter SampleFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Sample], error)
	GetSample(ctx context.Context, id string) (*models.Sample, error)
	UpdateSample(ctx context.Context, id string, input UpdateSampleInput) (*models.Sample, error)
	DeleteSample(ctx context.Context, id string) error
}

// RecordResultInput holds the fields of a new test result.
type RecordResultInput struct {
	ParameterID string
	Value       float64
	MeasuredAt  *time.Time
	Comment     string
}

// UpdateResultInput holds the optional fields of a result correction.
type UpdateResultInput struct {
	Value   *float64
	Comment *string
}

// TestResultServicer defines the contract for test result management.
type TestResultServicer interface {
	RecordResult(ctx context.Context, sampleID string, input RecordResultInput) (*models.TestResult, error)
	ListSampleResults(ctx context.Context, sampleID string, page pagination.PageRequest) (*pagination.PageResponse[models.TestResult], error)
	GetResult(ctx context.Context, id string) (*models.TestResult, error)
	UpdateResult(ctx context.Context, id string, input UpdateResultInput) (*models.TestResult, error)
	DeleteResult(ctx context.Context, id string) error
}

// AuditLogFilter holds optional filters for listing audit records.
type AuditLogFilter struct {
	EntityType *string
	EntityID   *string
	UserID     *string
	Action     *models.AuditAction
	From       *time.Time
	To         *time.Time
}

// AuditLogServicer defines the contract for the audit log read model.
type AuditLogServicer interface {
	ListAuditLogs(ctx context.Context, filter AuditLogFilter, page pagination.PageRequest) (*pagination.PageResponse[models.AuditLog], error)
}
