// Package errors provides custom error types for the labtrack API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
//
// Reason is a machine-readable refinement used by authorization failures.
// Fatal marks configuration defects that must never be swallowed.
// Retryable marks transient infrastructure failures.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Reason     string `json:"reason,omitempty"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
	Fatal      bool   `json:"-"`
	Retryable  bool   `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Internal != nil && (e.Fatal || e.Retryable) {
		return e.Message + ": " + e.Internal.Error()
	}
	return e.Message
}

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is reports whether target is an AppError with the same code, so sentinels
// keep matching after Wrap or WithMessage.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	clone := *sentinel
	clone.Internal = internal
	return &clone
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	clone := *sentinel
	clone.Message = message
	return &clone
}

// Authorization reasons.
const (
	ReasonMissingContext   = "missing_context"
	ReasonRoleInsufficient = "role_insufficient"
	ReasonTenantMismatch   = "tenant_mismatch"
)

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}

	ErrMissingTenantContext = &AppError{Code: "MISSING_TENANT_CONTEXT", Message: "A lab must be selected for this request", Reason: ReasonMissingContext, StatusCode: http.StatusForbidden}
	ErrTenantAccessDenied   = &AppError{Code: "TENANT_ACCESS_DENIED", Message: "Access denied", Reason: ReasonTenantMismatch, StatusCode: http.StatusForbidden}
	ErrRoleInsufficient     = &AppError{Code: "ROLE_INSUFFICIENT", Message: "Access denied", Reason: ReasonRoleInsufficient, StatusCode: http.StatusForbidden}
)

// Configuration defects. These are surfaced as generic internal errors to
// clients and logged as fatal by the error middleware.
var (
	ErrAuditEntityTypeUnmapped     = &AppError{Code: "AUDIT_ENTITY_TYPE_UNMAPPED", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError, Fatal: true}
	ErrSoftDeleteContractViolation = &AppError{Code: "SOFT_DELETE_CONTRACT_VIOLATION", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError, Fatal: true}
	ErrEntityUnregistered          = &AppError{Code: "ENTITY_UNREGISTERED", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError, Fatal: true}
	ErrHardDeleteRefused           = &AppError{Code: "HARD_DELETE_REFUSED", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError, Fatal: true}
)

// Infrastructure errors.
var (
	ErrSessionBindFailed  = &AppError{Code: "SESSION_BIND_FAILED", Message: "Service temporarily unavailable", StatusCode: http.StatusServiceUnavailable, Retryable: true}
	ErrServiceUnavailable = &AppError{Code: "SERVICE_UNAVAILABLE", Message: "Service temporarily unavailable", StatusCode: http.StatusServiceUnavailable, Retryable: true}
	ErrRateLimited        = &AppError{Code: "RATE_LIMITED", Message: "Too many requests", StatusCode: http.StatusTooManyRequests, Retryable: true}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrConflict       = &AppError{Code: "CONFLICT", Message: "Resource was modified concurrently", StatusCode: http.StatusConflict}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// Lab & membership errors.
var (
	ErrLabNotFound        = &AppError{Code: "LAB_NOT_FOUND", Message: "Lab not found", StatusCode: http.StatusNotFound}
	ErrDuplicateLabName   = &AppError{Code: "DUPLICATE_LAB_NAME", Message: "A lab with this name already exists", StatusCode: http.StatusConflict}
	ErrMembershipNotFound = &AppError{Code: "MEMBERSHIP_NOT_FOUND", Message: "Membership not found", StatusCode: http.StatusNotFound}
	ErrInvalidRole        = &AppError{Code: "INVALID_ROLE", Message: "Unsupported role", StatusCode: http.StatusBadRequest}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
)

// Sample, parameter & result errors.
var (
	ErrSampleNotFound          = &AppError{Code: "SAMPLE_NOT_FOUND", Message: "Sample not found", StatusCode: http.StatusNotFound}
	ErrDuplicateSampleCode     = &AppError{Code: "DUPLICATE_SAMPLE_CODE", Message: "A sample with this code already exists", StatusCode: http.StatusConflict}
	ErrInvalidStatusTransition = &AppError{Code: "INVALID_STATUS_TRANSITION", Message: "Sample status cannot change this way", StatusCode: http.StatusBadRequest}
	ErrParameterNotFound       = &AppError{Code: "PARAMETER_NOT_FOUND", Message: "Parameter not found", StatusCode: http.StatusNotFound}
	ErrDuplicateParameterCode  = &AppError{Code: "DUPLICATE_PARAMETER_CODE", Message: "A parameter with this code already exists", StatusCode: http.StatusConflict}
	ErrTestResultNotFound      = &AppError{Code: "TEST_RESULT_NOT_FOUND", Message: "Test result not found", StatusCode: http.StatusNotFound}
)
