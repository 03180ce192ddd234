package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	apperrors "labtrack/internal/errors"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{name: "nil", err: nil},
		{name: "not_found", err: gorm.ErrRecordNotFound},
		{name: "unique_violation", err: &pgconn.PgError{Code: "23505"}},
		{name: "serialization", err: &pgconn.PgError{Code: "40001"}, retryable: true},
		{name: "deadlock", err: fmt.Errorf("flush: %w", &pgconn.PgError{Code: "40P01"}), retryable: true},
		{name: "connection_exception", err: &pgconn.PgError{Code: "08006"}, retryable: true},
		{name: "admin_shutdown", err: &pgconn.PgError{Code: "57P01"}, retryable: true},
		{name: "deadline", err: context.DeadlineExceeded, retryable: true},
		{name: "canceled", err: context.Canceled},
		{name: "app_error_untouched", err: apperrors.ErrTenantAccessDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			if tt.err == nil {
				if got != nil {
					t.Fatalf("Classify(nil) = %v", got)
				}
				return
			}
			if is := errors.Is(got, apperrors.ErrServiceUnavailable); is != tt.retryable {
				t.Errorf("retryable = %v, want %v (err %v)", is, tt.retryable, got)
			}
			if !errors.Is(got, tt.err) {
				t.Errorf("classified error should still wrap the original")
			}
		})
	}
}
