package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"labtrack/internal/authz"
	"labtrack/internal/clock"
	"labtrack/internal/database"
	apperrors "labtrack/internal/errors"
	"labtrack/internal/ids"
	"labtrack/internal/tenant"
	"labtrack/internal/uow"
)

// Deps bundles what every tenant-aware service needs.
type Deps struct {
	Store *database.Store
	Work  *uow.Factory
	Gate  *authz.Gate
	Clock clock.Clock
}

// begin resolves the caller and runs the coarse role check for op. The
// resource-level check follows once the record is loaded.
func (d Deps) begin(ctx context.Context, op authz.Operation) (*tenant.SecurityContext, error) {
	sc, err := tenant.Require(ctx)
	if err != nil {
		return nil, err
	}
	if err := d.Gate.Check(sc, op); err != nil {
		return nil, err
	}
	return sc, nil
}

// read runs fn on a session bound to sc.
func (d Deps) read(ctx context.Context, sc *tenant.SecurityContext, fn func(conn *gorm.DB) error) error {
	return d.Store.WithSession(ctx, sc, fn)
}

// commit stages changes through fn and commits them in one unit of work.
func (d Deps) commit(ctx context.Context, fn func(u *uow.UnitOfWork) error) error {
	u, err := d.Work.New(ctx)
	if err != nil {
		return err
	}
	if err := fn(u); err != nil {
		return err
	}
	return u.Commit()
}

// lookupError maps a missing row to notFound and everything else through
// dbError.
func lookupError(err error, notFound *apperrors.AppError) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return dbError(err)
}

// commitError maps a unique violation to duplicate and everything else
// through dbError.
func commitError(err error, duplicate *apperrors.AppError) error {
	if duplicate != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return duplicate
	}
	return dbError(err)
}

// dbError passes application errors through and wraps the rest.
func dbError(err error) error {
	if err == nil {
		return nil
	}
	err = database.Classify(err)
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}

// requireID rejects identifiers that are not UUIDs before they reach the
// database.
func requireID(id string, notFound *apperrors.AppError) error {
	if !ids.IsUUID(id) {
		return notFound
	}
	return nil
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, field+" is required")
	}
	return nil
}
