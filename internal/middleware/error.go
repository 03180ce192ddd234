package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "labtrack/internal/errors"
	"labtrack/internal/logger"
)

// retryAfter is advertised on retryable failures, in seconds.
const retryAfter = "1"

// ErrorHandler returns a Gin middleware that converts errors set on the Gin
// context into consistent JSON error responses.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		RespondError(c, c.Errors.Last().Err)
	}
}

// RespondError writes err as a JSON error response. AppErrors are rendered
// with their code, message and reason. Fatal configuration defects and
// unexpected errors are logged in full and reach the client only as a
// generic internal error.
func RespondError(c *gin.Context, err error) {
	log := logger.Named("http")

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		log.Errorw("unexpected error",
			"error", err.Error(),
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
			"request_id", c.GetString(requestIDKey),
		)
		appErr = apperrors.ErrInternalServer
	}

	switch {
	case appErr.Fatal:
		log.Errorw("configuration defect",
			"fatal", true,
			"code", appErr.Code,
			"error", appErr.Error(),
			"path", c.Request.URL.Path,
			"request_id", c.GetString(requestIDKey),
		)
	case appErr.Internal != nil:
		log.Errorw("app error",
			"code", appErr.Code,
			"internal", appErr.Internal.Error(),
			"path", c.Request.URL.Path,
			"request_id", c.GetString(requestIDKey),
		)
	}

	if appErr.Retryable {
		c.Header("Retry-After", retryAfter)
	}

	body := gin.H{
		"code":    appErr.Code,
		"message": appErr.Message,
	}
	if appErr.Reason != "" {
		body["reason"] = appErr.Reason
	}
	// Fatal errors carry their real code internally only.
	if appErr.Fatal {
		body = gin.H{
			"code":    apperrors.ErrInternalServer.Code,
			"message": apperrors.ErrInternalServer.Message,
		}
	}
	c.AbortWithStatusJSON(appErr.StatusCode, gin.H{"error": body})
}
