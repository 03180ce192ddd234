package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"labtrack/internal/authz"
	apperrors "labtrack/internal/errors"
	"labtrack/internal/models"
	"labtrack/internal/pagination"
	"labtrack/internal/tenant"
	"labtrack/internal/uow"
)

type labService struct {
	Deps
}

// NewLabService creates a new LabServicer.
func NewLabService(deps Deps) LabServicer {
	return &labService{Deps: deps}
}

// CreateLab creates a new tenant. Only the system administrator may do this.
func (s *labService) CreateLab(ctx context.Context, name, description string) (*models.Lab, error) {
	if _, err := s.begin(ctx, authz.CreateLab); err != nil {
		return nil, err
	}
	if err := required("name", name); err != nil {
		return nil, err
	}

	lab := &models.Lab{
		Name:        strings.TrimSpace(name),
		Description: description,
		IsActive:    true,
	}
	err := s.commit(ctx, func(u *uow.UnitOfWork) error { return u.Add(lab) })
	if err != nil {
		return nil, commitError(err, apperrors.ErrDuplicateLabName)
	}
	return lab, nil
}

// GetCurrentLab returns the lab selected for the request.
func (s *labService) GetCurrentLab(ctx context.Context) (*models.Lab, error) {
	sc, err := s.begin(ctx, authz.ReadLab)
	if err != nil {
		return nil, err
	}
	labID, err := tenant.TargetLab(sc)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, sc, labID)
}

// ListLabs returns the labs visible to the caller: every lab for the system
// administrator, the selected lab otherwise.
func (s *labService) ListLabs(ctx context.Context, page pagination.PageRequest) (*pagination.PageResponse[models.Lab], error) {
	sc, err := s.begin(ctx, authz.ReadLab)
	if err != nil {
		return nil, err
	}
	page.Defaults()

	var labs []models.Lab
	var total int64
	err = s.read(ctx, sc, func(conn *gorm.DB) error {
		q := conn.Model(&models.Lab{}).Scopes(tenant.ScopeOn(sc, "id")).Where("is_deleted = ?", false)
		if err := q.Count(&total).Error; err != nil {
			return err
		}
		return q.Order("name ASC").Scopes(pagination.Paginate(page)).Find(&labs).Error
	})
	if err != nil {
		return nil, dbError(err)
	}

	resp := pagination.NewPageResponse(labs, page.Page, page.PageSize, total)
	return &resp, nil
}

// UpdateCurrentLab changes the selected lab's details.
func (s *labService) UpdateCurrentLab(ctx context.Context, input UpdateLabInput) (*models.Lab, error) {
	sc, err := s.begin(ctx, authz.UpdateLab)
	if err != nil {
		return nil, err
	}
	labID, err := tenant.TargetLab(sc)
	if err != nil {
		return nil, err
	}
	lab, err := s.load(ctx, sc, labID)
	if err != nil {
		return nil, err
	}
	if err := s.Gate.Authorize(sc, authz.UpdateLab, lab.ID); err != nil {
		return nil, err
	}

	err = s.commit(ctx, func(u *uow.UnitOfWork) error {
		if err := u.Attach(lab); err != nil {
			return err
		}
		if input.Name != nil {
			if err := required("name", *input.Name); err != nil {
				return err
			}
			lab.Name = strings.TrimSpace(*input.Name)
		}
		if input.Description != nil {
			lab.Description = *input.Description
		}
		if input.IsActive != nil {
			lab.IsActive = *input.IsActive
		}
		return nil
	})
	if err != nil {
		return nil, commitError(err, apperrors.ErrDuplicateLabName)
	}
	return lab, nil
}

// DeleteLab soft-deletes a lab. Its records stay in place and the lab stops
// resolving as a tenant.
func (s *labService) DeleteLab(ctx context.Context, labID string) error {
	sc, err := s.begin(ctx, authz.DeleteLab)
	if err != nil {
		return err
	}
	if err := requireID(labID, apperrors.ErrLabNotFound); err != nil {
		return err
	}
	// The caller is the system administrator; any lab is addressable
	// regardless of the one selected.
	var lab models.Lab
	err = s.read(ctx, sc, func(conn *gorm.DB) error {
		return conn.Where("id = ? AND is_deleted = ?", labID, false).First(&lab).Error
	})
	if err != nil {
		return lookupError(err, apperrors.ErrLabNotFound)
	}

	err = s.commit(ctx, func(u *uow.UnitOfWork) error { return u.Remove(&lab) })
	return dbError(err)
}

func (s *labService) load(ctx context.Context, sc *tenant.SecurityContext, labID string) (*models.Lab, error) {
	var lab models.Lab
	err := s.read(ctx, sc, func(conn *gorm.DB) error {
		return conn.Scopes(tenant.ScopeOn(sc, "id")).
			Where("id = ? AND is_deleted = ?", labID, false).
			First(&lab).Error
	})
	if err != nil {
		return nil, lookupError(err, apperrors.ErrLabNotFound)
	}
	return &lab, nil
}
