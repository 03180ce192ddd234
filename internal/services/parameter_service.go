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

type parameterService struct {
	Deps
}

// NewParameterService creates a new ParameterServicer.
func NewParameterService(deps Deps) ParameterServicer {
	return &parameterService{Deps: deps}
}

func validateParameter(input ParameterInput) error {
	if err := required("code", input.Code); err != nil {
		return err
	}
	if err := required("name", input.Name); err != nil {
		return err
	}
	if input.MinValue != nil && input.MaxValue != nil && *input.MinValue > *input.MaxValue {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "min_value must not exceed max_value")
	}
	return nil
}

// CreateParameter adds a parameter to the selected lab's catalogue.
func (s *parameterService) CreateParameter(ctx context.Context, input ParameterInput) (*models.Parameter, error) {
	sc, err := s.begin(ctx, authz.ManageParameter)
	if err != nil {
		return nil, err
	}
	if err := validateParameter(input); err != nil {
		return nil, err
	}
	labID, err := tenant.TargetLab(sc)
	if err != nil {
		return nil, err
	}

	p := &models.Parameter{
		LabID:    labID,
		Code:     strings.TrimSpace(input.Code),
		Name:     strings.TrimSpace(input.Name),
		Unit:     input.Unit,
		MinValue: input.MinValue,
		MaxValue: input.MaxValue,
	}
	if err := s.commit(ctx, func(u *uow.UnitOfWork) error { return u.Add(p) }); err != nil {
		return nil, commitError(err, apperrors.ErrDuplicateParameterCode)
	}
	return p, nil
}

// ListParameters returns the selected lab's parameters ordered by code.
func (s *parameterService) ListParameters(ctx context.Context, page pagination.PageRequest) (*pagination.PageResponse[models.Parameter], error) {
	sc, err := s.begin(ctx, authz.ReadParameter)
	if err != nil {
		return nil, err
	}
	page.Defaults()

	var params []models.Parameter
	var total int64
	err = s.read(ctx, sc, func(conn *gorm.DB) error {
		q := conn.Model(&models.Parameter{}).Scopes(tenant.Scope(sc)).Where("is_deleted = ?", false)
		if err := q.Count(&total).Error; err != nil {
			return err
		}
		return q.Order("code ASC").Scopes(pagination.Paginate(page)).Find(&params).Error
	})
	if err != nil {
		return nil, dbError(err)
	}

	resp := pagination.NewPageResponse(params, page.Page, page.PageSize, total)
	return &resp, nil
}

// GetParameter returns one parameter of the selected lab.
func (s *parameterService) GetParameter(ctx context.Context, id string) (*models.Parameter, error) {
	sc, err := s.begin(ctx, authz.ReadParameter)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, sc, authz.ReadParameter, id)
}

// UpdateParameter replaces the parameter's definition.
func (s *parameterService) UpdateParameter(ctx context.Context, id string, input ParameterInput) (*models.Parameter, error) {
	sc, err := s.begin(ctx, authz.ManageParameter)
	if err != nil {
		return nil, err
	}
	if err := validateParameter(input); err != nil {
		return nil, err
	}
	p, err := s.load(ctx, sc, authz.ManageParameter, id)
	if err != nil {
		return nil, err
	}

	err = s.commit(ctx, func(u *uow.UnitOfWork) error {
		if err := u.Attach(p); err != nil {
			return err
		}
		p.Code = strings.TrimSpace(input.Code)
		p.Name = strings.TrimSpace(input.Name)
		p.Unit = input.Unit
		p.MinValue = input.MinValue
		p.MaxValue = input.MaxValue
		return nil
	})
	if err != nil {
		return nil, commitError(err, apperrors.ErrDuplicateParameterCode)
	}
	return p, nil
}

// DeleteParameter soft-deletes a parameter. Results recorded against it are
// kept.
func (s *parameterService) DeleteParameter(ctx context.Context, id string) error {
	sc, err := s.begin(ctx, authz.ManageParameter)
	if err != nil {
		return err
	}
	p, err := s.load(ctx, sc, authz.ManageParameter, id)
	if err != nil {
		return err
	}
	return dbError(s.commit(ctx, func(u *uow.UnitOfWork) error { return u.Remove(p) }))
}

func (s *parameterService) load(ctx context.Context, sc *tenant.SecurityContext, op authz.Operation, id string) (*models.Parameter, error) {
	if err := requireID(id, apperrors.ErrParameterNotFound); err != nil {
		return nil, err
	}
	var p models.Parameter
	err := s.read(ctx, sc, func(conn *gorm.DB) error {
		return conn.Scopes(tenant.Scope(sc)).Where("id = ? AND is_deleted = ?", id, false).First(&p).Error
	})
	if err != nil {
		return nil, lookupError(err, apperrors.ErrParameterNotFound)
	}
	if err := s.Gate.Authorize(sc, op, p.LabID); err != nil {
		return nil, err
	}
	return &p, nil
}
