package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/mahi13singh2004/AIKYAM/internal/adapters/counselor"
	"github.com/mahi13singh2004/AIKYAM/internal/adapters/google"
	"github.com/mahi13singh2004/AIKYAM/internal/adapters/http"
	natsadapter "github.com/mahi13singh2004/AIKYAM/internal/adapters/nats"
	"github.com/mahi13singh2004/AIKYAM/internal/adapters/pinata"
	"github.com/mahi13singh2004/AIKYAM/internal/adapters/postgres"
	"github.com/mahi13singh2004/AIKYAM/internal/adapters/valkey"
	"github.com/mahi13singh2004/AIKYAM/internal/core/domain"
	"github.com/mahi13singh2004/AIKYAM/internal/core/ports"
	"github.com/mahi13singh2004/AIKYAM/internal/core/safety"
	"github.com/mahi13singh2004/AIKYAM/internal/core/usecases"
	"github.com/mahi13singh2004/AIKYAM/internal/pkg/auth"
	"github.com/mahi13singh2004/AIKYAM/internal/pkg/config"
	"github.com/mahi13singh2004/AIKYAM/internal/pkg/geospatial"
	"github.com/mahi13singh2004/AIKYAM/internal/pkg/logging"
	"github.com/mahi13singh2004/AIKYAM/internal/pkg/metrics"
	"github.com/mahi13singh2004/AIKYAM/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("aikyam-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup("aikyam-api", logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPEndpoint)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	go reportPoolStats(ctx, db)

	// Cache is optional; services treat a nil cache as disabled.
	var cacheSvc ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		cacheSvc = cache
		defer cache.Close()
	}

	// NATS
	var publisher ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		publisher = pub
		defer pub.Close()
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.Connect(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	} else {
		defer natsConn.Close()
	}

	// Repos
	unsafeRepo := postgres.NewUnsafeLocationRepo(db)
	userRepo := postgres.NewUserRepo(db)

	// External services
	routing := google.NewClient(cfg.Google.APIKey, cfg.Google.BaseURL, cfg.Google.Timeout)
	store := pinata.NewClient(cfg.Pinata.APIKey, cfg.Pinata.APISecret, cfg.Pinata.BaseURL, cfg.Pinata.Gateway)
	chat := counselor.NewModel(cfg.Counselor.APIKey, cfg.Counselor.BaseURL, cfg.Counselor.Model, cfg.Counselor.MaxTokens)
	tokens := auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	if cfg.Google.APIKey == "" {
		slog.Warn("google.api_key not set, safe route searches will fail")
	}

	// Use cases
	center := domain.GeoPoint{Lat: cfg.Safety.CenterLat, Lng: cfg.Safety.CenterLng}
	unsafeSvc := usecases.NewUnsafeLocationService(unsafeRepo, cacheSvc, publisher,
		cfg.Safety.SnapshotTTL, cfg.Safety.AlertRadiusMeters)
	safeRouteSvc := usecases.NewSafeRouteService(routing, geospatial.NewPolylineDecoder(), publisher, usecases.SafeRouteConfig{
		Threshold:     safety.Threshold{Radius: cfg.Safety.UnsafeRadiusMeters, Buffer: cfg.Safety.BufferMeters},
		OptionTimeout: cfg.Safety.OptionTimeout,
		SearchTimeout: cfg.Safety.SearchTimeout,
	})
	authSvc := usecases.NewAuthService(userRepo, store, tokens)
	counselorSvc := usecases.NewCounselorService(chat)
	reportSvc := usecases.NewReportService(unsafeRepo, cacheSvc, center, cfg.Safety.SnapshotTTL)

	deps := &http.Dependencies{
		Unsafe:        unsafeSvc,
		SafeRoutes:    safeRouteSvc,
		Auth:          authSvc,
		Counselor:     counselorSvc,
		Reports:       reportSvc,
		NATS:          natsConn,
		DB:            db,
		Cache:         cache,
		CookieName:    cfg.Auth.CookieName,
		SecureCookie:  cfg.Server.Production(),
		SearchTimeout: cfg.Safety.SearchTimeout,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "AIKYAM API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Searches can run up to the search timeout; give them that long to finish.
	drain := cfg.Safety.SearchTimeout
	if drain < 10*time.Second {
		drain = 10 * time.Second
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), drain)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

func reportPoolStats(ctx context.Context, db *postgres.DB) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.UpdateDBPoolMetrics(db.Stat())
		}
	}
}
