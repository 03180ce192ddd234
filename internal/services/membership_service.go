package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"labtrack/internal/authz"
	apperrors "labtrack/internal/errors"
	"labtrack/internal/models"
	"labtrack/internal/pagination"
	"labtrack/internal/tenant"
	"labtrack/internal/uow"
)

type membershipService struct {
	Deps
}

// NewMembershipService creates a new MembershipServicer.
func NewMembershipService(deps Deps) MembershipServicer {
	return &membershipService{Deps: deps}
}

// FindMembership implements tenant.MembershipLookup. The session is bound to
// the requested lab only, so row-level security applies to the lookup
// itself. Memberships of deleted or inactive labs do not resolve.
func (s *membershipService) FindMembership(ctx context.Context, sc *tenant.SecurityContext, userID, labID string) (*models.UserLab, error) {
	var m models.UserLab
	err := s.read(ctx, sc, func(conn *gorm.DB) error {
		activeLabs := conn.Model(&models.Lab{}).Select("id").Where("is_deleted = ? AND is_active = ?", false, true)
		return conn.Where("user_id = ? AND lab_id = ? AND lab_id IN (?)", userID, labID, activeLabs).First(&m).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrMembershipNotFound
		}
		return nil, dbError(err)
	}
	return &m, nil
}

// ListMembers returns the memberships of the selected lab.
func (s *membershipService) ListMembers(ctx context.Context, page pagination.PageRequest) (*pagination.PageResponse[models.UserLab], error) {
	sc, err := s.begin(ctx, authz.ListMembers)
	if err != nil {
		return nil, err
	}
	page.Defaults()

	var members []models.UserLab
	var total int64
	err = s.read(ctx, sc, func(conn *gorm.DB) error {
		q := conn.Model(&models.UserLab{}).Scopes(tenant.Scope(sc))
		if err := q.Count(&total).Error; err != nil {
			return err
		}
		return q.Order("created_at ASC").Scopes(pagination.Paginate(page)).Find(&members).Error
	})
	if err != nil {
		return nil, dbError(err)
	}

	resp := pagination.NewPageResponse(members, page.Page, page.PageSize, total)
	return &resp, nil
}

// GrantRole gives userID role in the selected lab, replacing any role the
// user already holds there.
func (s *membershipService) GrantRole(ctx context.Context, userID string, role models.Role) (*models.UserLab, error) {
	sc, err := s.begin(ctx, authz.GrantMember)
	if err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, apperrors.ErrInvalidRole
	}
	labID, err := tenant.TargetLab(sc)
	if err != nil {
		return nil, err
	}
	if err := requireID(userID, apperrors.ErrUserNotFound); err != nil {
		return nil, err
	}

	var existing *models.UserLab
	err = s.read(ctx, sc, func(conn *gorm.DB) error {
		var count int64
		if err := conn.Model(&models.User{}).Where("id = ? AND is_active = ?", userID, true).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return apperrors.ErrUserNotFound
		}

		var m models.UserLab
		err := conn.Scopes(tenant.Scope(sc)).Where("user_id = ? AND lab_id = ?", userID, labID).First(&m).Error
		switch {
		case err == nil:
			existing = &m
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
		return nil
	})
	if err != nil {
		return nil, dbError(err)
	}

	membership := existing
	err = s.commit(ctx, func(u *uow.UnitOfWork) error {
		if membership == nil {
			membership = &models.UserLab{UserID: userID, LabID: labID, Role: role}
			return u.Add(membership)
		}
		if err := u.Attach(membership); err != nil {
			return err
		}
		membership.Role = role
		return nil
	})
	if err != nil {
		return nil, commitError(err, apperrors.ErrConflict)
	}
	return membership, nil
}

// RevokeMember removes userID from the selected lab.
func (s *membershipService) RevokeMember(ctx context.Context, userID string) error {
	sc, err := s.begin(ctx, authz.RevokeMember)
	if err != nil {
		return err
	}
	labID, err := tenant.TargetLab(sc)
	if err != nil {
		return err
	}
	if err := requireID(userID, apperrors.ErrMembershipNotFound); err != nil {
		return err
	}

	var m models.UserLab
	err = s.read(ctx, sc, func(conn *gorm.DB) error {
		return conn.Scopes(tenant.Scope(sc)).Where("user_id = ? AND lab_id = ?", userID, labID).First(&m).Error
	})
	if err != nil {
		return lookupError(err, apperrors.ErrMembershipNotFound)
	}
	if err := s.Gate.Authorize(sc, authz.RevokeMember, m.LabID); err != nil {
		return err
	}

	return dbError(s.commit(ctx, func(u *uow.UnitOfWork) error { return u.Remove(&m) }))
}
