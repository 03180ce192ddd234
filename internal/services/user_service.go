package services

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"labtrack/internal/authz"
	apperrors "labtrack/internal/errors"
	"labtrack/internal/models"
	"labtrack/internal/tenant"
	"labtrack/internal/uow"
)

// userService handles global user identities. Users carry no role; access
// is granted per lab through memberships.
type userService struct {
	Deps
}

// NewUserService creates a new UserServicer.
func NewUserService(deps Deps) UserServicer {
	return &userService{Deps: deps}
}

// ProvisionUser creates a user account. Only the system administrator may
// provision users.
func (s *userService) ProvisionUser(ctx context.Context, email, password, displayName string) (*models.User, error) {
	if _, err := s.begin(ctx, authz.ProvisionUser); err != nil {
		return nil, err
	}
	if email == "" || password == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "email and password are required")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	user := &models.User{
		Email:       strings.ToLower(strings.TrimSpace(email)),
		Password:    string(hashedPassword),
		DisplayName: displayName,
		IsActive:    true,
	}
	if err := s.commit(ctx, func(u *uow.UnitOfWork) error { return u.Add(user) }); err != nil {
		return nil, commitError(err, apperrors.ErrDuplicateEmail)
	}
	return user, nil
}

// GetUserByID retrieves an active user by ID.
func (s *userService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if err := requireID(id, apperrors.ErrUserNotFound); err != nil {
		return nil, err
	}
	var user models.User
	err := s.read(ctx, sessionFor(ctx), func(conn *gorm.DB) error {
		return conn.Where("id = ? AND is_active = ?", id, true).First(&user).Error
	})
	if err != nil {
		return nil, lookupError(err, apperrors.ErrUserNotFound)
	}
	return &user, nil
}

// AttemptLogin verifies credentials. Unknown emails and wrong passwords fail
// the same way.
func (s *userService) AttemptLogin(ctx context.Context, email, password string) (*models.User, error) {
	if email == "" || password == "" {
		return nil, apperrors.ErrInvalidCredentials
	}

	var user models.User
	err := s.read(ctx, tenant.Anonymous(), func(conn *gorm.DB) error {
		return conn.Where("email = ? AND is_active = ?", strings.ToLower(strings.TrimSpace(email)), true).First(&user).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, dbError(err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, apperrors.ErrInvalidCredentials
	}
	return &user, nil
}

// sessionFor returns the request's security context, or an anonymous one
// for calls made before a lab is resolved.
func sessionFor(ctx context.Context) *tenant.SecurityContext {
	if sc, ok := tenant.FromContext(ctx); ok {
		return sc
	}
	return tenant.Anonymous()
}
