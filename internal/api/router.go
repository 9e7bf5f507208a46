// Package api provides the HTTP API for CartShare.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/cartshare/cartshare/internal/api/handler"
	"github.com/cartshare/cartshare/internal/api/middleware"
	"github.com/cartshare/cartshare/internal/auth"
	"github.com/cartshare/cartshare/internal/device"
	"github.com/cartshare/cartshare/internal/group"
	"github.com/cartshare/cartshare/internal/item"
	"github.com/cartshare/cartshare/internal/user"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version         string
	BuildTime       string
	Logger          zerolog.Logger
	ServiceName     string
	Metrics         *middleware.Metrics
	AuthService     *auth.Service
	UserService     *user.Service
	GroupService    *group.Service
	ItemService     *item.Service
	DeviceService   *device.Service
	ReadinessChecks []handler.SubsystemCheck

	// DevAuth exposes POST /v1/auth/dev. Never enable outside local
	// development.
	DevAuth bool
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "cartshare-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)           // TLS enforcement (enabled via REQUIRE_TLS=true)
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.ReadinessChecks...)
	authHandler := handler.NewAuthHandler(cfg.AuthService)
	meHandler := handler.NewMeHandler(cfg.UserService)
	groupHandler := handler.NewGroupHandler(cfg.GroupService)
	itemHandler := handler.NewItemHandler(cfg.ItemService)
	deviceHandler := handler.NewDeviceHandler(cfg.DeviceService)

	// Create auth middleware
	authMiddleware := middleware.Auth(cfg.AuthService)

	// Create rate limit middleware for different endpoint categories
	authRateLimit := middleware.RateLimitByIP(middleware.AuthRateLimit)         // 10 req/min
	standardRateLimit := middleware.RateLimitByUser(middleware.StandardRateLimit) // 100 req/min per user

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Auth endpoints (public) - strict rate limiting
		r.Route("/auth", func(r chi.Router) {
			r.Use(authRateLimit) // 10 requests per minute per IP
			r.Post("/token", authHandler.Token)
			r.Post("/refresh", authHandler.RefreshToken)
			r.Post("/logout", authHandler.Logout)
			// logout-all requires authentication
			r.With(authMiddleware).Post("/logout-all", authHandler.LogoutAll)
			if cfg.DevAuth {
				r.Post("/dev", authHandler.DevLogin)
			}
		})

		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			// Status endpoint requires authentication
			r.With(authMiddleware).Get("/status", opsHandler.SystemStatus)
		})

		// Me endpoints (authenticated) - user-based rate limiting
		r.Route("/me", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(standardRateLimit)
			r.Get("/", meHandler.GetMe)
			r.Put("/", meHandler.UpdateMe)
			r.Delete("/", meHandler.DeleteMe)

			// Devices
			r.Route("/devices", func(r chi.Router) {
				r.Get("/", deviceHandler.ListDevices)
				r.Post("/", deviceHandler.RegisterDevice)
				r.Delete("/{deviceId}", deviceHandler.UnregisterDevice)
			})
		})

		// Group endpoints (authenticated) - user-based rate limiting
		r.Route("/groups", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(standardRateLimit)
			r.Get("/", groupHandler.ListGroups)
			r.Post("/", groupHandler.CreateGroup)
			r.Post("/join", groupHandler.JoinGroup)

			r.Route("/{groupId}", func(r chi.Router) {
				r.Get("/", groupHandler.GetGroup)
				r.Delete("/", groupHandler.DeleteGroup)
				r.Post("/leave", groupHandler.LeaveGroup)

				// Shopping list items
				r.Route("/items", func(r chi.Router) {
					r.Get("/", itemHandler.ListItems)
					r.Post("/", itemHandler.CreateItem)
					r.Put("/order", itemHandler.ReorderItems)
					r.Route("/{itemId}", func(r chi.Router) {
						r.Delete("/", itemHandler.DeleteItem)
						r.Post("/toggle", itemHandler.ToggleItem)
					})
				})
			})
		})
	})

	return r
}
