package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tallyhq/tally/tally-backend/internal/config"
	"github.com/tallyhq/tally/tally-backend/internal/handler"
	"github.com/tallyhq/tally/tally-backend/internal/identity"
	"github.com/tallyhq/tally/tally-backend/internal/middleware"
	"github.com/tallyhq/tally/tally-backend/internal/repository/postgres"
	"github.com/tallyhq/tally/tally-backend/internal/repository/storage"
	"github.com/tallyhq/tally/tally-backend/internal/service"
	"github.com/tallyhq/tally/tally-backend/internal/websocket"
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

	// Connect to database
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	// Verify database connection
	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Connected to database")

	// Initialize repositories
	userRepo := postgres.NewUserRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	serviceRepo := postgres.NewServiceRepository(pool)
	incomeRepo := postgres.NewIncomeRepository(pool)
	spendingRepo := postgres.NewSpendingRepository(pool)
	recurringRepo := postgres.NewRecurringRepository(pool)
	subscriptionRepo := postgres.NewSubscriptionRepository(pool)
	paymentRepo := postgres.NewPaymentRepository(pool)

	// Receipt storage is optional; without it receipt endpoints report
	// storage-not-configured
	var receiptStorage storage.ReceiptRepository
	if cfg.S3.Bucket != "" {
		s3Repo, err := storage.NewS3ReceiptRepository(context.Background(), cfg.S3)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize receipt storage")
		}
		receiptStorage = s3Repo
		log.Info().Str("bucket", cfg.S3.Bucket).Msg("Receipt storage enabled")
	} else {
		log.Warn().Msg("Receipt storage not configured, receipt uploads disabled")
	}

	// WebSocket hub for stale-view events
	hub := websocket.NewHub()

	// Identity provider client
	identityClient := identity.NewHTTPClient(cfg.Identity.APIURL, cfg.Identity.APIKey)

	// Initialize services
	authService := service.NewAuthService(identityClient, userRepo, cfg.Identity.MinPasswordLength)
	categoryService := service.NewCategoryService(categoryRepo, hub)
	catalogService := service.NewCatalogService(serviceRepo, categoryRepo, hub)
	incomeService := service.NewIncomeService(incomeRepo, serviceRepo, categoryRepo, hub)
	spendingService := service.NewSpendingService(spendingRepo, categoryRepo, hub)
	recurringService := service.NewRecurringService(recurringRepo, categoryRepo, paymentRepo, hub)
	subscriptionService := service.NewSubscriptionService(subscriptionRepo, categoryRepo, paymentRepo, hub)
	insightsService := service.NewInsightsService(incomeRepo, spendingRepo, categoryRepo, recurringRepo, subscriptionRepo)
	receiptService := service.NewReceiptService(spendingRepo, receiptStorage, hub)

	secureCookies := cfg.Env == "production"

	// Initialize auth middleware with in-line session refresh
	authMiddleware, err := middleware.NewAuthMiddleware(
		cfg.Identity.IssuerURL,
		cfg.Identity.Audience,
		identityClient,
		cfg.Identity.RefreshWindow,
		secureCookies,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create auth middleware")
	}

	// Rate limiter for credential endpoints, keyed by client IP
	authLimiter := middleware.NewRateLimiter(cfg.AuthRatePerMinute, cfg.AuthRateBurst)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService, secureCookies)
	categoryHandler := handler.NewCategoryHandler(categoryService)
	catalogHandler := handler.NewCatalogHandler(catalogService)
	incomeHandler := handler.NewIncomeHandler(incomeService)
	spendingHandler := handler.NewSpendingHandler(spendingService, receiptService)
	recurringHandler := handler.NewRecurringHandler(recurringService)
	subscriptionHandler := handler.NewSubscriptionHandler(subscriptionService)
	insightsHandler := handler.NewInsightsHandler(insightsService)
	wsHandler := handler.NewWebSocketHandler(hub, authMiddleware, cfg.CORSOrigins)
	pageHandler := handler.NewPageHandler(cfg.WebRoot)

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
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
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
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Register API routes
	handler.RegisterRoutes(e, authMiddleware, authLimiter, authHandler, categoryHandler, catalogHandler, incomeHandler, spendingHandler, recurringHandler, subscriptionHandler, insightsHandler, wsHandler, pageHandler)

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
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
				Msg("request")

			return nil
		}
	}
}
