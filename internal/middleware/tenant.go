package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"labtrack/internal/audit"
	"labtrack/internal/authz"
	"labtrack/internal/logger"
	"labtrack/internal/tenant"
)

// TenantContext resolves the security context from the authenticated
// subject and the tenant header, and attaches it to the request context.
// It must run after AuthMiddleware.
func TenantContext(resolver *tenant.Resolver, header string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		sc, err := resolver.Resolve(ctx, Subject(c), strings.TrimSpace(c.GetHeader(header)))
		if err != nil {
			RespondError(c, err)
			return
		}

		if sc.IsSystemAdmin() {
			logger.Named("tenant").Warnw("system administrator access",
				"subject", sc.UserID(),
				"selected_lab", sc.SelectedLab(),
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"request_id", c.GetString(requestIDKey),
			)
		}

		ctx = tenant.WithSecurityContext(ctx, sc)
		ctx = audit.WithClientIP(ctx, c.ClientIP())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireOperation rejects the request unless the caller's role permits op
// in the selected lab. Services repeat the check against the loaded
// resource.
func RequireOperation(gate *authz.Gate, op authz.Operation) gin.HandlerFunc {
	return func(c *gin.Context) {
		sc, err := tenant.Require(c.Request.Context())
		if err == nil {
			err = gate.Check(sc, op)
		}
		if err != nil {
			RespondError(c, err)
			return
		}
		c.Next()
	}
}
