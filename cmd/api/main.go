// Package main provides the entrypoint for the CartShare API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/cartshare/cartshare/internal/api"
	"github.com/cartshare/cartshare/internal/api/handler"
	"github.com/cartshare/cartshare/internal/api/middleware"
	"github.com/cartshare/cartshare/internal/auth"
	"github.com/cartshare/cartshare/internal/database"
	"github.com/cartshare/cartshare/internal/device"
	"github.com/cartshare/cartshare/internal/event"
	"github.com/cartshare/cartshare/internal/group"
	"github.com/cartshare/cartshare/internal/item"
	"github.com/cartshare/cartshare/internal/telemetry"
	"github.com/cartshare/cartshare/internal/user"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "cartshare-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting CartShare API")

	// Get configuration from environment
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Connect to database
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Int("port", dbConfig.Port).
		Str("database", dbConfig.Database).
		Msg("database connected")

	// Initialize auth repositories and service
	authUserRepo := auth.NewPostgresUserRepository(pool)
	authRefreshRepo := auth.NewPostgresRefreshTokenRepository(pool)

	// Initialize JWT service (get signing key from environment)
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		jwtSigningKey = "local-dev-signing-key-change-in-production"
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}

	jwtService := auth.NewJWTService(auth.JWTConfig{
		SigningKey: jwtSigningKey,
	})

	// Initialize identity token verifier (may be nil if not configured)
	var verifier *auth.IDTokenVerifier
	idIssuer := os.Getenv("IDP_ISSUER")
	idJWKSURL := os.Getenv("IDP_JWKS_URL")
	idAudience := os.Getenv("IDP_AUDIENCE")
	if idIssuer != "" && idJWKSURL != "" && idAudience != "" {
		verifier = auth.NewIDTokenVerifier(auth.VerifierConfig{
			Issuer:   idIssuer,
			JWKSURL:  idJWKSURL,
			Audience: idAudience,
		})
		log.Info().Str("issuer", idIssuer).Msg("identity token verifier initialized")
	} else {
		log.Warn().Msg("identity provider not configured - auth endpoints will fail")
	}

	// Initialize user repository and service
	userRepo := user.NewPostgresRepository(pool)
	userService := user.NewService(userRepo)
	log.Info().Msg("user service initialized")

	authService := auth.NewService(auth.ServiceConfig{
		Verifier:    verifier,
		JWTService:  jwtService,
		UserRepo:    authUserRepo,
		RefreshRepo: authRefreshRepo,
		Profiles:    userService,
	})
	log.Info().Msg("auth service initialized")

	// Initialize group repository and service
	groupRepo := group.NewPostgresRepository(pool)
	groupService := group.NewService(groupRepo)
	log.Info().Msg("group service initialized")

	// Initialize the item-change publisher. Without a project ID items
	// still work, they just emit no events.
	var publisher item.ChangePublisher
	readinessChecks := []handler.SubsystemCheck{
		{Name: "postgres", Check: pool.Ping},
	}
	projectID := os.Getenv("GOOGLE_CLOUD_PROJECT")
	topicName := os.Getenv("PUBSUB_TOPIC")
	if topicName == "" {
		topicName = "item-changes"
	}
	if projectID != "" {
		eventPublisher, pubErr := event.NewPublisher(ctx, event.PublisherConfig{
			ProjectID: projectID,
			TopicName: topicName,
			Logger:    log,
		})
		if pubErr != nil {
			log.Fatal().Err(pubErr).Msg("failed to create event publisher")
		}
		defer eventPublisher.Close()
		publisher = eventPublisher
		log.Info().Str("topic", topicName).Msg("event publisher initialized")
	} else {
		log.Warn().Msg("GOOGLE_CLOUD_PROJECT not set - item change events disabled")
	}

	// Initialize item repository and service
	itemRepo := item.NewPostgresRepository(pool)
	itemService := item.NewService(itemRepo, groupService, publisher, log)
	log.Info().Msg("item service initialized")

	// Initialize device repository and service
	deviceRepo := device.NewPostgresRepository(pool)
	deviceService := device.NewService(deviceRepo)
	log.Info().Msg("device service initialized")

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:         Version,
		BuildTime:       BuildTime,
		Logger:          log,
		ServiceName:     serviceName,
		Metrics:         metrics,
		AuthService:     authService,
		UserService:     userService,
		GroupService:    groupService,
		ItemService:     itemService,
		DeviceService:   deviceService,
		ReadinessChecks: readinessChecks,
		DevAuth:         os.Getenv("AUTH_DEV_MODE") == "true",
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
