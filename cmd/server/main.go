package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/reaction-ledger/internal/middleware"
	"github.com/anonto42/reaction-ledger/internal/router"
	"github.com/anonto42/reaction-ledger/pkg/config"
	"github.com/anonto42/reaction-ledger/pkg/firebase"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, closeStores, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize stores", zap.Error(err))
	}
	defer closeStores()

	auth, err := authMiddleware(ctx, cfg, stores)
	if err != nil {
		logger.Fatal("failed to initialize authentication", zap.Error(err))
	}

	e := echo.New()
	e.HideBanner = true
	router.SetupMiddleware(e, logger)
	if err := router.SetupRoutes(e, cfg, stores, auth, logger); err != nil {
		logger.Fatal("failed to configure routes", zap.Error(err))
	}

	go func() {
		logger.Info("server starting", zap.String("port", cfg.Port), zap.String("store_driver", cfg.StoreDriver))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func openStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*router.Stores, func(), error) {
	if cfg.StoreDriver == config.DriverMemory {
		logger.Warn("using in-memory stores, data is lost on exit")
		stores := router.MemoryStores()
		if cfg.MemorySeedFile == "" {
			logger.Warn("MEMORY_SEED_FILE not set, memory stores start empty")
			return stores, func() {}, nil
		}
		seed, err := router.ReadMemorySeed(cfg.MemorySeedFile)
		if err != nil {
			return nil, nil, err
		}
		if err := router.SeedMemoryStores(stores, seed); err != nil {
			return nil, nil, err
		}
		logger.Info("memory stores seeded", zap.String("file", cfg.MemorySeedFile), zap.Int("users", len(seed.Users)))
		return stores, func() {}, nil
	}
	db, err := config.InitDB(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	stores, err := router.PostgresStores(ctx, db, cfg, logger)
	if err != nil {
		db.CloseDB()
		return nil, nil, err
	}
	return stores, db.CloseDB, nil
}

func authMiddleware(ctx context.Context, cfg *config.Config, stores *router.Stores) (echo.MiddlewareFunc, error) {
	if cfg.AuthProvider != config.AuthFirebase {
		return middleware.JWTAuthMiddleware(cfg.JWTSecret), nil
	}
	if stores.UserLookup == nil {
		return nil, errors.New("firebase auth needs the postgres store driver")
	}
	app, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
	if err != nil {
		return nil, err
	}
	return middleware.FirebaseAuthMiddleware(app.AuthClient, stores.UserLookup), nil
}
