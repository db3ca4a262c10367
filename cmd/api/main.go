package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dafibh/spaces/spaces-backend/internal/config"
	"github.com/dafibh/spaces/spaces-backend/internal/handler"
	"github.com/dafibh/spaces/spaces-backend/internal/middleware"
	"github.com/dafibh/spaces/spaces-backend/internal/repository/memory"
	"github.com/dafibh/spaces/spaces-backend/internal/service"
	"github.com/dafibh/spaces/spaces-backend/internal/websocket"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx := context.Background()

	// Snapshot persistence
	store, closeStore, err := initSnapshotStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.SnapshotBackend).Msg("Failed to initialize snapshot store")
	}
	defer closeStore()

	repo := memory.NewSpaceRepository(store, memory.Config{Origin: cfg.AppOrigin})
	if err := repo.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to load space snapshot")
	}

	// Remote APIs
	chatGateway, spaceGateway, err := initGateways(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize gateways")
	}

	// Document storage (optional)
	documentStorage, err := initDocumentStorage(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.StorageBackend).Msg("Failed to initialize document storage")
	}

	// Real-time events
	hub := websocket.NewHub()
	publishers := websocket.MultiPublisher{hub}
	if cfg.NATSURL != "" {
		nc, err := initNATS(cfg.NATSURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to NATS")
		}
		defer nc.Drain()
		publishers = append(publishers, websocket.NewNATSPublisher(nc))
		log.Info().Str("url", cfg.NATSURL).Msg("Publishing space events to NATS")
	}

	// Initialize services
	spaceService := service.NewSpaceService(repo, spaceGateway)
	spaceService.SetEventPublisher(publishers)
	if documentStorage != nil {
		spaceService.SetDocumentStorage(documentStorage)
	}
	inviteService := service.NewInviteService(repo, spaceService, spaceGateway, cfg.InviteTTLHours)
	inviteService.SetEventPublisher(publishers)
	chatService := service.NewChatService(repo, chatGateway, service.DefaultFallback)
	chatService.SetEventPublisher(publishers)
	documentService := service.NewDocumentService(repo, documentStorage)
	documentService.SetEventPublisher(publishers)
	profileService := service.NewProfileService(repo)

	// Identity: Auth0 when configured, trusted headers otherwise
	identity := middleware.HeaderIdentity()
	var tokenValidator websocket.TokenValidator
	if cfg.AuthEnabled() {
		authMiddleware, err := middleware.NewAuthMiddleware(cfg.Auth0Domain, cfg.Auth0Audience)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create auth middleware")
		}
		identity = authMiddleware.Authenticate()

		wsValidator, err := websocket.NewAuth0JWTValidator(cfg.Auth0Domain, cfg.Auth0Audience)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create WebSocket token validator")
		}
		tokenValidator = wsValidator
	} else {
		log.Warn().Msg("Auth0 not configured, trusting X-User-ID headers")
	}

	chatLimiter := middleware.NewRateLimiterWithConfig(cfg.ChatRateLimitPerMinute, cfg.ChatRateLimitPerMinute)
	defer chatLimiter.Stop()

	// Initialize handlers
	handlers := handler.Handlers{
		Space:     handler.NewSpaceHandler(spaceService),
		Invite:    handler.NewInviteHandler(spaceService, inviteService),
		Chat:      handler.NewChatHandler(chatService),
		Document:  handler.NewDocumentHandler(documentService),
		Profile:   handler.NewProfileHandler(profileService),
		WebSocket: handler.NewWebSocketHandler(hub, spaceService, tokenValidator, cfg.CORSOrigins),
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Request ID middleware
	e.Use(echomiddleware.RequestID())

	// CORS middleware
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, middleware.HeaderUserID, middleware.HeaderUserName},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Security headers middleware (helmet-like)
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	// Request logging middleware with zerolog
	e.Use(zerologMiddleware())

	// Recovery middleware
	e.Use(echomiddleware.Recover())

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		status, health, snapshotStatus := http.StatusOK, "ok", "ok"
		if p, ok := store.(pinger); ok {
			ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
			defer cancel()
			if err := p.Ping(ctx); err != nil {
				log.Warn().Err(err).Msg("Snapshot store health check failed")
				status, health, snapshotStatus = http.StatusServiceUnavailable, "degraded", "unavailable"
			}
		}
		return c.JSON(status, map[string]interface{}{
			"status":     health,
			"snapshot":   snapshotStatus,
			"spaces":     len(repo.ListAll()),
			"ws_clients": hub.TotalClientCount(),
			"uploads":    documentService.IsEnabled(),
		})
	})

	// Register API routes
	handler.RegisterRoutes(e, identity, middleware.RateLimitMiddleware(chatLimiter), handlers)

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Str("snapshot", cfg.SnapshotBackend).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// zerologMiddleware returns a middleware that logs requests using zerolog
func zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			log.Info().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Str("user_id", middleware.GetUserID(c)).
				Msg("request")

			return nil
		}
	}
}
