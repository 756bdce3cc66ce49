package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/unifin/unifin/internal/engine"
	"github.com/unifin/unifin/internal/engine/classify"
	"github.com/unifin/unifin/internal/engine/normalize"
	"github.com/unifin/unifin/internal/engine/record"
	"github.com/unifin/unifin/internal/infra/gateway/etherscan"
	"github.com/unifin/unifin/internal/infra/gateway/plaid"
	"github.com/unifin/unifin/internal/infra/gateway/snaptrade"
	"github.com/unifin/unifin/internal/infra/postgres"
	infraRedis "github.com/unifin/unifin/internal/infra/redis"
	"github.com/unifin/unifin/internal/platform/link"
	"github.com/unifin/unifin/internal/platform/snapshot"
	"github.com/unifin/unifin/internal/platform/user"
	"github.com/unifin/unifin/internal/transport/httpapi"
	"github.com/unifin/unifin/internal/transport/httpapi/handler"
	"github.com/unifin/unifin/internal/transport/httpapi/middleware"
	"github.com/unifin/unifin/pkg/config"
	"github.com/unifin/unifin/pkg/logger"
)

func main() {
	// Create context that listens for termination signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewDefault(cfg.Env)
	log.Info("Starting UniFin API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	// Initialize database connection pool
	db, err := postgres.NewPool(ctx, postgres.Config{URL: cfg.DatabaseURL})
	if err != nil {
		log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("Database connection established")

	// Initialize Redis for snapshot caching
	redisClient, err := infraRedis.NewClient(ctx, cfg.RedisURL, cfg.RedisPassword)
	if err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	log.Info("Redis connection established")

	snapshotCache := infraRedis.NewSnapshotCache(
		redisClient,
		time.Duration(cfg.SnapshotCacheTTLSeconds)*time.Second,
		log,
	)

	// Load the classification ruleset
	ruleset := classify.DefaultRuleset()
	if cfg.RulesetPath != "" {
		ruleset, err = classify.LoadRuleset(cfg.RulesetPath)
		if err != nil {
			log.Error("Failed to load classification ruleset", "path", cfg.RulesetPath, "error", err)
			os.Exit(1)
		}
		log.Info("Classification ruleset loaded", "path", cfg.RulesetPath)
	}

	// Build the aggregation engine with one adapter per source
	ethAdapter, err := etherscan.NewAdapter(record.SourceEthereum)
	if err != nil {
		log.Error("Failed to create ethereum adapter", "error", err)
		os.Exit(1)
	}
	polyAdapter, err := etherscan.NewAdapter(record.SourcePolygon)
	if err != nil {
		log.Error("Failed to create polygon adapter", "error", err)
		os.Exit(1)
	}

	normalizer := normalize.NewNormalizer(
		ethAdapter,
		polyAdapter,
		plaid.NewAdapter(),
		snaptrade.NewAdapter(),
	)
	eng := engine.New(normalizer, classify.NewClassifier(ruleset))
	log.Info("Aggregation engine initialized", "sources", len(normalizer.Sources()))

	// Initialize provider gateways
	explorerClient := etherscan.NewClient(map[record.Source]string{
		record.SourceEthereum: cfg.EtherscanAPIKey,
		record.SourcePolygon:  cfg.PolygonscanAPIKey,
	}, log)
	plaidClient := plaid.NewClient(cfg.PlaidClientID, cfg.PlaidSecret, cfg.PlaidEnv, log)
	brokerClient := snaptrade.NewClient(cfg.BrokerClientID, cfg.BrokerConsumerKey, log)

	// Initialize repositories and services
	userRepo := postgres.NewUserRepository(db.Pool)
	linkRepo := postgres.NewLinkRepository(db.Pool)

	userSvc := user.NewService(userRepo, log)
	jwtSvc := middleware.NewJWTService(cfg.JWTSecret)
	linkSvc := link.NewService(linkRepo, snapshotCache, log)
	snapshotSvc := snapshot.NewService(
		linkSvc,
		explorerClient,
		plaidClient,
		brokerClient,
		eng,
		snapshotCache,
		cfg.SpendingWindowDays,
		log,
	)

	// Initialize HTTP handlers
	authHandler := handler.NewAuthHandler(userSvc, jwtSvc)
	linkHandler := handler.NewLinkHandler(linkSvc)
	snapshotHandler := handler.NewSnapshotHandler(snapshotSvc)
	healthHandler := handler.NewHealthHandler(db, handler.NewRedisPinger(func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	}))

	jwtMiddleware := middleware.JWTMiddleware(jwtSvc)

	// Determine allowed origins for CORS
	allowedOrigins := []string{"http://localhost:5173", "http://localhost:3000"}
	if cfg.IsProduction() {
		if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
			allowedOrigins = []string{origins}
		}
	}

	// Create HTTP router
	r := httpapi.NewRouter(httpapi.Config{
		Logger:          log,
		AllowedOrigins:  allowedOrigins,
		AuthHandler:     authHandler,
		LinkHandler:     linkHandler,
		SnapshotHandler: snapshotHandler,
		HealthHandler:   healthHandler,
		JWTMiddleware:   jwtMiddleware,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for termination signal
	<-ctx.Done()
	log.Info("Shutdown signal received")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("Server stopped gracefully")
}
