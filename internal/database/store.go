package database

import (
	"context"

	"gorm.io/gorm"

	apperrors "labtrack/internal/errors"
	"labtrack/internal/logger"
	"labtrack/internal/metrics"
	"labtrack/internal/tenant"
)

// Store hands out connections that are bound to a security context.
type Store struct {
	db     *gorm.DB
	binder SessionBinder
}

// NewStore creates a Store.
func NewStore(db *gorm.DB, binder SessionBinder) *Store {
	return &Store{db: db, binder: binder}
}

// WithSession pins one pooled connection, binds sc onto it and runs fn with
// a handle that only ever uses that connection. fn never runs on a
// connection whose binding failed.
func (s *Store) WithSession(ctx context.Context, sc *tenant.SecurityContext, fn func(conn *gorm.DB) error) error {
	if sc == nil {
		return apperrors.ErrMissingTenantContext
	}

	err := s.db.WithContext(ctx).Connection(func(pinned *gorm.DB) error {
		// A fresh session per statement, all on the pinned connection.
		conn := pinned.Session(&gorm.Session{NewDB: true})
		if err := s.binder.Bind(ctx, conn, sc); err != nil {
			metrics.SessionBinds.WithLabelValues(sc.Mode(), "error").Inc()
			logger.Named("database").Errorw("session bind failed",
				"mode", sc.Mode(),
				"user_id", sc.Actor(),
				"error", err,
			)
			return apperrors.Wrap(apperrors.ErrSessionBindFailed, err)
		}
		metrics.SessionBinds.WithLabelValues(sc.Mode(), "ok").Inc()
		return fn(conn)
	})
	return Classify(err)
}

// InTransaction runs fn in a transaction on a bound connection.
func (s *Store) InTransaction(ctx context.Context, sc *tenant.SecurityContext, fn func(tx *gorm.DB) error) error {
	return s.WithSession(ctx, sc, func(conn *gorm.DB) error {
		return conn.Transaction(fn)
	})
}
