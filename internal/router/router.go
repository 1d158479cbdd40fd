package router

import (
	"fmt"
	"time"

	"github.com/anonto42/reaction-ledger/internal/handlers"
	"github.com/anonto42/reaction-ledger/internal/middleware"
	"github.com/anonto42/reaction-ledger/internal/services"
	"github.com/anonto42/reaction-ledger/pkg/config"
	"github.com/anonto42/reaction-ledger/validators"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// Roles allowed on the moderation endpoints
var adminRoles = []string{"admin", "superadmin"}

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo, logger *zap.Logger) {
	e.Use(eMiddleware.Recover())
	e.Use(middleware.RequestLogger(logger))
	e.Use(eMiddleware.CORS())
	e.Validator = validators.NewValidator()
	logger.Debug("global middleware configured")
}

// SetupRoutes builds the reaction core on stores and registers every route.
// auth authenticates the /api/v1 group.
func SetupRoutes(e *echo.Echo, cfg *config.Config, stores *Stores, auth echo.MiddlewareFunc, logger *zap.Logger) error {
	registry, err := services.NewRegistry(stores.Entities...)
	if err != nil {
		return fmt.Errorf("building entity registry: %w", err)
	}
	logger.Debug("entity registry ready", zap.Int("kinds", len(registry.Kinds())))

	rc := cfg.Reactions
	counts := services.NewCountAggregator(stores.Reactions, registry, logger)
	ledger := services.NewReactionLedger(stores.Reactions, registry, counts, logger)
	resolver := services.NewEntityResolver(registry, stores.Users, rc.AdapterTimeout, logger)
	planner := services.NewSearchPlanner(registry, stores.Users, rc.AdapterTimeout, logger)
	moderation := services.NewModerationService(stores.Reactions, registry, resolver, planner, services.ModerationConfig{
		DefaultPageSize: rc.DefaultPageSize,
		MaxPageSize:     rc.MaxPageSize,
		StatsWindowDays: rc.StatsWindowDays,
		AdapterTimeout:  rc.AdapterTimeout,
	}, logger)

	e.GET("/health", handlers.HealthCheck)

	api := e.Group("/api/v1", auth)

	adminHandler := handlers.NewAdminReactionHandler(moderation, registry, logger)
	adminHandler.RegisterAdminReactionRoutes(api.Group("/admin", middleware.RequireRole(adminRoles...)))

	reactionHandler := handlers.NewReactionHandler(ledger, counts, registry, logger)
	reactionHandler.RegisterReactionRoutes(api)

	logger.Info("routes configured", zap.Duration("adapter_timeout", rc.AdapterTimeout.Round(time.Millisecond)))
	return nil
}
