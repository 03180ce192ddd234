package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"labtrack/internal/authz"
	apperrors "labtrack/internal/errors"
	"labtrack/internal/models"
	"labtrack/internal/pagination"
	"labtrack/internal/statemachine"
	"labtrack/internal/tenant"
	"labtrack/internal/uow"
)

type sampleService struct {
	Deps
}

// NewSampleService creates a new SampleServicer.
func NewSampleService(deps Deps) SampleServicer {
	return &sampleService{Deps: deps}
}

// CreateSample registers a received sample, with its aliquots, in the
// selected lab.
func (s *sampleService) CreateSample(ctx context.Context, input CreateSampleInput) (*models.Sample, error) {
	sc, err := s.begin(ctx, authz.CreateSample)
	if err != nil {
		return nil, err
	}
	if err := required("code", input.Code); err != nil {
		return nil, err
	}
	if err := required("name", input.Name); err != nil {
		return nil, err
	}
	labID, err := tenant.TargetLab(sc)
	if err != nil {
		return nil, err
	}

	sample := &models.Sample{
		LabID:       labID,
		Code:        strings.TrimSpace(input.Code),
		Name:        strings.TrimSpace(input.Name),
		Matrix:      input.Matrix,
		Status:      models.SampleStatusReceived,
		CollectedAt: input.CollectedAt,
		Notes:       input.Notes,
	}
	for _, a := range input.Aliquots {
		if err := required("aliquot label", a.Label); err != nil {
			return nil, err
		}
		if a.VolumeML < 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "aliquot volume must not be negative")
		}
		sample.Aliquots = append(sample.Aliquots, models.SampleAliquot{
			Label:           a.Label,
			VolumeML:        a.VolumeML,
			StorageLocation: a.StorageLocation,
		})
	}

	if err := s.commit(ctx, func(u *uow.UnitOfWork) error { return u.Add(sample) }); err != nil {
		return nil, commitError(err, apperrors.ErrDuplicateSampleCode)
	}
	return sample, nil
}

// ListSamples returns the selected lab's live samples, newest first.
func (s *sampleService) ListSamples(ctx context.Context, filter SampleFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Sample], error) {
	sc, err := s.begin(ctx, authz.ReadSample)
	if err != nil {
		return nil, err
	}
	page.Defaults()

	var samples []models.Sample
	var total int64
	err = s.read(ctx, sc, func(conn *gorm.DB) error {
		q := conn.Model(&models.Sample{}).Scopes(tenant.Scope(sc)).Where("is_deleted = ?", false)
		if filter.Status != nil {
			q = q.Where("status = ?", *filter.Status)
		}
		if err := q.Count(&total).Error; err != nil {
			return err
		}
		return q.Preload("Aliquots").Order("created_at DESC").Scopes(pagination.Paginate(page)).Find(&samples).Error
	})
	if err != nil {
		return nil, dbError(err)
	}

	resp := pagination.NewPageResponse(samples, page.Page, page.PageSize, total)
	return &resp, nil
}

// GetSample returns one sample with its aliquots.
func (s *sampleService) GetSample(ctx context.Context, id string) (*models.Sample, error) {
	sc, err := s.begin(ctx, authz.ReadSample)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, sc, authz.ReadSample, id)
}

// UpdateSample edits descriptive fields and, when a status is given, moves
// the sample through its lifecycle.
func (s *sampleService) UpdateSample(ctx context.Context, id string, input UpdateSampleInput) (*models.Sample, error) {
	sc, err := s.begin(ctx, authz.UpdateSample)
	if err != nil {
		return nil, err
	}
	sample, err := s.load(ctx, sc, authz.UpdateSample, id)
	if err != nil {
		return nil, err
	}

	err = s.commit(ctx, func(u *uow.UnitOfWork) error {
		if err := u.Attach(sample); err != nil {
			return err
		}
		if input.Name != nil {
			if err := required("name", *input.Name); err != nil {
				return err
			}
			sample.Name = strings.TrimSpace(*input.Name)
		}
		if input.Matrix != nil {
			sample.Matrix = *input.Matrix
		}
		if input.CollectedAt != nil {
			sample.CollectedAt = input.CollectedAt
		}
		if input.Notes != nil {
			sample.Notes = *input.Notes
		}
		if input.Status != nil {
			return statemachine.NewSampleFSM(sample).TransitionTo(ctx, *input.Status)
		}
		return nil
	})
	if err != nil {
		return nil, dbError(err)
	}
	return sample, nil
}

// DeleteSample soft-deletes a sample. Its aliquots stay attached to the
// flagged row.
func (s *sampleService) DeleteSample(ctx context.Context, id string) error {
	sc, err := s.begin(ctx, authz.DeleteSample)
	if err != nil {
		return err
	}
	sample, err := s.load(ctx, sc, authz.DeleteSample, id)
	if err != nil {
		return err
	}
	return dbError(s.commit(ctx, func(u *uow.UnitOfWork) error { return u.Remove(sample) }))
}

func (s *sampleService) load(ctx context.Context, sc *tenant.SecurityContext, op authz.Operation, id string) (*models.Sample, error) {
	sample, err := findSample(ctx, s.Deps, sc, id)
	if err != nil {
		return nil, err
	}
	if err := s.Gate.Authorize(sc, op, sample.LabID); err != nil {
		return nil, err
	}
	return sample, nil
}

// findSample loads a live sample visible to sc, with its aliquots.
func findSample(ctx context.Context, d Deps, sc *tenant.SecurityContext, id string) (*models.Sample, error) {
	if err := requireID(id, apperrors.ErrSampleNotFound); err != nil {
		return nil, err
	}
	var sample models.Sample
	err := d.read(ctx, sc, func(conn *gorm.DB) error {
		return conn.Scopes(tenant.Scope(sc)).Preload("Aliquots").
			Where("id = ? AND is_deleted = ?", id, false).
			First(&sample).Error
	})
	if err != nil {
		return nil, lookupError(err, apperrors.ErrSampleNotFound)
	}
	return &sample, nil
}
