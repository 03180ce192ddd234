// Package server assembles the HTTP router: middleware chain, services and
// routes. cmd/api and the end-to-end tests share it.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"labtrack/internal/audit"
	"labtrack/internal/authz"
	"labtrack/internal/clock"
	"labtrack/internal/config"
	"labtrack/internal/database"
	_ "labtrack/internal/docs" // swagger spec
	"labtrack/internal/handlers"
	"labtrack/internal/metrics"
	"labtrack/internal/middleware"
	"labtrack/internal/models"
	"labtrack/internal/services"
	"labtrack/internal/softdelete"
	"labtrack/internal/tenant"
	"labtrack/internal/uow"
	"labtrack/internal/validator"
)

// Options carries what the router needs from the process.
type Options struct {
	Config *config.Config
	DB     *gorm.DB
	Binder database.SessionBinder
	Clock  clock.Clock
	// Ping reports database reachability for /health. Nil skips the probe.
	Ping func(ctx context.Context) error
}

// New builds the router. It fails when the entity registry is inconsistent,
// so configuration defects stop the process at start.
func New(opts Options) (*gin.Engine, error) {
	cfg := opts.Config
	clk := opts.Clock
	if clk == nil {
		clk = clock.System()
	}

	registry, err := models.NewRegistry()
	if err != nil {
		return nil, fmt.Errorf("entity registry: %w", err)
	}
	validator.Register()
	metrics.Init()

	store := database.NewStore(opts.DB, opts.Binder)
	gate := authz.NewGate()
	deps := services.Deps{
		Store: store,
		Work: uow.NewFactory(store, registry, clk,
			softdelete.NewRewriter(),
			audit.NewWriter(cfg.AuditMaxFieldLength),
		),
		Gate:  gate,
		Clock: clk,
	}

	userService := services.NewUserService(deps)
	labService := services.NewLabService(deps)
	membershipService := services.NewMembershipService(deps)
	parameterService := services.NewParameterService(deps)
	sampleService := services.NewSampleService(deps)
	resultService := services.NewTestResultService(deps)
	auditLogService := services.NewAuditLogService(deps)

	tokens := middleware.NewTokens(cfg.JWTSecret, cfg.JWTExpirationDur)
	resolver := tenant.NewResolver(membershipService, cfg.SystemAdminID)

	authHandler := handlers.NewAuthHandler(userService, tokens)
	labHandler := handlers.NewLabHandler(labService)
	membershipHandler := handlers.NewMembershipHandler(membershipService)
	parameterHandler := handlers.NewParameterHandler(parameterService)
	sampleHandler := handlers.NewSampleHandler(sampleService)
	resultHandler := handlers.NewTestResultHandler(resultService)
	auditLogHandler := handlers.NewAuditLogHandler(auditLogService)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(metrics.Instrument())
	router.Use(middleware.ErrorHandler())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", middleware.APIKeyAuth(cfg.MetricsAPIKey), gin.WrapH(metrics.Handler()))
	router.GET("/api/health", health(opts.Ping))

	v1 := router.Group("/api/v1")
	v1.Use(middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).Middleware())

	auth := v1.Group("/auth")
	auth.POST("/login", authHandler.Login)

	authenticated := v1.Group("/")
	authenticated.Use(middleware.AuthMiddleware(tokens))
	authenticated.GET("/auth/me", authHandler.GetProfile)

	protected := authenticated.Group("/")
	protected.Use(middleware.TenantContext(resolver, cfg.TenantHeader))
	require := func(op authz.Operation) gin.HandlerFunc {
		return middleware.RequireOperation(gate, op)
	}

	protected.POST("/users", require(authz.ProvisionUser), authHandler.ProvisionUser)

	labs := protected.Group("/labs")
	labs.POST("", require(authz.CreateLab), labHandler.CreateLab)
	labs.GET("", require(authz.ReadLab), labHandler.ListLabs)
	labs.GET("/current", require(authz.ReadLab), labHandler.GetCurrentLab)
	labs.PATCH("/current", require(authz.UpdateLab), labHandler.UpdateCurrentLab)
	labs.DELETE("/:id", require(authz.DeleteLab), labHandler.DeleteLab)

	members := protected.Group("/members")
	members.GET("", require(authz.ListMembers), membershipHandler.ListMembers)
	members.PUT("", require(authz.GrantMember), membershipHandler.GrantRole)
	members.DELETE("/:userId", require(authz.RevokeMember), membershipHandler.RevokeMember)

	parameters := protected.Group("/parameters")
	parameters.POST("", require(authz.ManageParameter), parameterHandler.CreateParameter)
	parameters.GET("", require(authz.ReadParameter), parameterHandler.ListParameters)
	parameters.GET("/:id", require(authz.ReadParameter), parameterHandler.GetParameter)
	parameters.PUT("/:id", require(authz.ManageParameter), parameterHandler.UpdateParameter)
	parameters.DELETE("/:id", require(authz.ManageParameter), parameterHandler.DeleteParameter)

	samples := protected.Group("/samples")
	samples.POST("", require(authz.CreateSample), sampleHandler.CreateSample)
	samples.GET("", require(authz.ReadSample), sampleHandler.ListSamples)
	samples.GET("/:id", require(authz.ReadSample), sampleHandler.GetSample)
	samples.PATCH("/:id", require(authz.UpdateSample), sampleHandler.UpdateSample)
	samples.DELETE("/:id", require(authz.DeleteSample), sampleHandler.DeleteSample)
	samples.POST("/:id/results", require(authz.RecordResult), resultHandler.RecordResult)
	samples.GET("/:id/results", require(authz.ReadResult), resultHandler.ListSampleResults)

	results := protected.Group("/results")
	results.GET("/:id", require(authz.ReadResult), resultHandler.GetResult)
	results.PATCH("/:id", require(authz.UpdateResult), resultHandler.UpdateResult)
	results.DELETE("/:id", require(authz.DeleteResult), resultHandler.DeleteResult)

	protected.GET("/audit-logs", require(authz.ReadAuditLog), auditLogHandler.ListAuditLogs)

	return router, nil
}

func health(ping func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "unreachable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
