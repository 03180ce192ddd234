package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"labtrack/internal/authz"
	apperrors "labtrack/internal/errors"
	"labtrack/internal/models"
	"labtrack/internal/pagination"
	"labtrack/internal/tenant"
	"labtrack/internal/uow"
)

type testResultService struct {
	Deps
}

// NewTestResultService creates a new TestResultServicer.
func NewTestResultService(deps Deps) TestResultServicer {
	return &testResultService{Deps: deps}
}

// RecordResult stores a measured value of a parameter on a sample. Sample
// and parameter must belong to the same lab and be live.
func (s *testResultService) RecordResult(ctx context.Context, sampleID string, input RecordResultInput) (*models.TestResult, error) {
	sc, err := s.begin(ctx, authz.RecordResult)
	if err != nil {
		return nil, err
	}
	sample, err := findSample(ctx, s.Deps, sc, sampleID)
	if err != nil {
		return nil, err
	}
	if err := s.Gate.Authorize(sc, authz.RecordResult, sample.LabID); err != nil {
		return nil, err
	}
	if sample.Status == models.SampleStatusArchived || sample.Status == models.SampleStatusRejected {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput,
			fmt.Sprintf("results cannot be recorded on a %s sample", sample.Status))
	}
	if err := requireID(input.ParameterID, apperrors.ErrParameterNotFound); err != nil {
		return nil, err
	}

	var param models.Parameter
	err = s.read(ctx, sc, func(conn *gorm.DB) error {
		return conn.Scopes(tenant.Scope(sc)).
			Where("id = ? AND lab_id = ? AND is_deleted = ?", input.ParameterID, sample.LabID, false).
			First(&param).Error
	})
	if err != nil {
		return nil, lookupError(err, apperrors.ErrParameterNotFound)
	}

	measuredAt := s.Clock.Now()
	if input.MeasuredAt != nil {
		measuredAt = input.MeasuredAt.UTC()
	}
	result := &models.TestResult{
		LabID:       sample.LabID,
		SampleID:    sample.ID,
		ParameterID: param.ID,
		Value:       input.Value,
		Unit:        param.Unit,
		MeasuredAt:  measuredAt,
		Comment:     input.Comment,
	}
	if err := s.commit(ctx, func(u *uow.UnitOfWork) error { return u.Add(result) }); err != nil {
		return nil, dbError(err)
	}
	return result, nil
}

// ListSampleResults returns the live results recorded on a sample.
func (s *testResultService) ListSampleResults(ctx context.Context, sampleID string, page pagination.PageRequest) (*pagination.PageResponse[models.TestResult], error) {
	sc, err := s.begin(ctx, authz.ReadResult)
	if err != nil {
		return nil, err
	}
	sample, err := findSample(ctx, s.Deps, sc, sampleID)
	if err != nil {
		return nil, err
	}
	page.Defaults()

	var results []models.TestResult
	var total int64
	err = s.read(ctx, sc, func(conn *gorm.DB) error {
		q := conn.Model(&models.TestResult{}).Scopes(tenant.Scope(sc)).
			Where("sample_id = ? AND is_deleted = ?", sample.ID, false)
		if err := q.Count(&total).Error; err != nil {
			return err
		}
		return q.Order("measured_at ASC").Scopes(pagination.Paginate(page)).Find(&results).Error
	})
	if err != nil {
		return nil, dbError(err)
	}

	resp := pagination.NewPageResponse(results, page.Page, page.PageSize, total)
	return &resp, nil
}

// GetResult returns one result.
func (s *testResultService) GetResult(ctx context.Context, id string) (*models.TestResult, error) {
	sc, err := s.begin(ctx, authz.ReadResult)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, sc, authz.ReadResult, id)
}

// UpdateResult corrects a recorded value or its comment.
func (s *testResultService) UpdateResult(ctx context.Context, id string, input UpdateResultInput) (*models.TestResult, error) {
	sc, err := s.begin(ctx, authz.UpdateResult)
	if err != nil {
		return nil, err
	}
	result, err := s.load(ctx, sc, authz.UpdateResult, id)
	if err != nil {
		return nil, err
	}

	err = s.commit(ctx, func(u *uow.UnitOfWork) error {
		if err := u.Attach(result); err != nil {
			return err
		}
		if input.Value != nil {
			result.Value = *input.Value
		}
		if input.Comment != nil {
			result.Comment = *input.Comment
		}
		return nil
	})
	if err != nil {
		return nil, dbError(err)
	}
	return result, nil
}

// DeleteResult soft-deletes a result.
func (s *testResultService) DeleteResult(ctx context.Context, id string) error {
	sc, err := s.begin(ctx, authz.DeleteResult)
	if err != nil {
		return err
	}
	result, err := s.load(ctx, sc, authz.DeleteResult, id)
	if err != nil {
		return err
	}
	return dbError(s.commit(ctx, func(u *uow.UnitOfWork) error { return u.Remove(result) }))
}

func (s *testResultService) load(ctx context.Context, sc *tenant.SecurityContext, op authz.Operation, id string) (*models.TestResult, error) {
	if err := requireID(id, apperrors.ErrTestResultNotFound); err != nil {
		return nil, err
	}
	var result models.TestResult
	err := s.read(ctx, sc, func(conn *gorm.DB) error {
		return conn.Scopes(tenant.Scope(sc)).Where("id = ? AND is_deleted = ?", id, false).First(&result).Error
	})
	if err != nil {
		return nil, lookupError(err, apperrors.ErrTestResultNotFound)
	}
	if err := s.Gate.Authorize(sc, op, result.LabID); err != nil {
		return nil, err
	}
	return &result, nil
}
