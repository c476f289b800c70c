package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"scanlink/backend/config"
	"scanlink/backend/internal/api/handler"
	"scanlink/backend/internal/api/router"
	"scanlink/backend/internal/integration"
	"scanlink/backend/internal/repository"
	"scanlink/backend/internal/service"
	"scanlink/backend/pkg/database"
	"scanlink/backend/pkg/jwt"
	applogger "scanlink/backend/pkg/logger"
	"scanlink/backend/pkg/password"
	"scanlink/backend/pkg/redis"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize logging
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. Connect to the database
	db, err := database.NewDB(&cfg.Database, logger)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	logger.Info("database connected")

	// 3.1 Apply migrations
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("getting underlying sql.DB", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("running migrations", zap.Error(err))
	}

	// 4. Connect to Redis (optional: short-code lookups fall back to the
	// database when unavailable, so startup continues without it)
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("redis unavailable, short-code cache disabled", zap.Error(err))
		rdb = nil
	}

	// 5. Token manager and credential hasher
	jwtMgr := jwt.NewManager(&cfg.Auth)
	hasher := password.NewHasher(cfg.Auth.HashIterations)

	// 6. External integrations (nil members disable the touch-point)
	collab := service.Collaborators{}
	if cfg.Storage.BaseURL != "" {
		collab.Storage = integration.NewStorageClient(&cfg.Storage)
	}
	if cfg.SMS.Enabled {
		collab.SMS = integration.NewSMSClient(&cfg.SMS)
	}
	if cfg.Checkout.BaseURL != "" {
		collab.Checkout = integration.NewCheckoutClient(&cfg.Checkout)
	}
	if cfg.Marketing.BaseURL != "" {
		collab.Marketing = integration.NewMarketingClient(&cfg.Marketing)
	}

	// 7. Dependency injection: Repository → Service → Handler
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, jwtMgr, hasher, rdb, collab, logger)
	h := handler.NewHandler(cfg, svc)

	// 8. Routes
	engine := router.Setup(cfg, h, jwtMgr, rdb, logger)

	// 9. HTTP server with graceful shutdown
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	if closeDB, _ := db.DB(); closeDB != nil {
		closeDB.Close()
	}
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("stopped")
}
