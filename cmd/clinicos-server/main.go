package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clinicos/clinicos/internal/config"
	"github.com/clinicos/clinicos/internal/domain/appointment"
	"github.com/clinicos/clinicos/internal/domain/chat"
	"github.com/clinicos/clinicos/internal/domain/identity"
	"github.com/clinicos/clinicos/internal/domain/organization"
	"github.com/clinicos/clinicos/internal/domain/patient"
	"github.com/clinicos/clinicos/internal/domain/professional"
	"github.com/clinicos/clinicos/internal/domain/reports"
	"github.com/clinicos/clinicos/internal/platform/auth"
	"github.com/clinicos/clinicos/internal/platform/db"
	"github.com/clinicos/clinicos/internal/platform/middleware"
	"github.com/clinicos/clinicos/internal/platform/presence"
	"github.com/clinicos/clinicos/internal/platform/relay"
	"github.com/clinicos/clinicos/internal/platform/tenant"
	"github.com/clinicos/clinicos/internal/platform/validate"
	"github.com/clinicos/clinicos/internal/platform/whatsapp"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinicos-server",
		Short: "ClinicOS API Server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the ClinicOS API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.MigrationsDir
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.MigrationsDir
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Presence store: Redis when configured, in-memory otherwise. Memory is
	// fine for a single instance; Redis is required once the relay runs on
	// more than one node.
	var presenceStore presence.Store
	if cfg.RedisURL != "" {
		redisStore, err := presence.NewRedisStoreFromURL(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		presenceStore = redisStore
		logger.Info().Msg("presence store backed by redis")
	} else {
		presenceStore = presence.NewMemoryStore()
		logger.Warn().Msg("REDIS_URL not set; presence store is in-memory")
	}

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validate.New()
	e.HTTPErrorHandler = errorHandler(logger)

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(echomw.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.RequestTimeout(30 * time.Second))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID", tenant.HeaderName},
	}))

	// Repositories and services
	userRepo := identity.NewUserRepo(pool)
	memberRepo := identity.NewMemberRepo(pool)
	identitySvc := identity.NewService(userRepo, memberRepo)

	orgRepo := organization.NewRepo(pool)
	orgSvc := organization.NewService(orgRepo)

	patientRepo := patient.NewRepo(pool)
	patientSvc := patient.NewService(patientRepo)

	profRepo := professional.NewRepo(pool)
	profSvc := professional.NewService(profRepo)

	hub := relay.NewHub(logger)
	tracker := presence.NewTracker(presenceStore, hub, profSvc,
		time.Duration(cfg.PresenceTTLSeconds)*time.Second, logger)

	waClient := whatsapp.NewClient(whatsapp.Config{
		GatewayURL:         cfg.WhatsAppGatewayURL,
		APIKey:             cfg.WhatsAppAPIKey,
		DefaultCountryCode: cfg.WhatsAppCountryCode,
	})

	apptRepo := appointment.NewRepo(pool)
	apptSvc := appointment.NewService(apptRepo, patientSvc, waClient)

	chatRepo := chat.NewRepo(pool)
	chatSvc := chat.NewService(chatRepo, hub)

	reportsRepo := reports.NewRepo(pool)
	reportsSvc := reports.NewService(reportsRepo)

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// API groups: everything under /api is authenticated; the scoped group
	// additionally requires the x-organization-id header to resolve to a
	// membership.
	api := e.Group("/api", auth.Gate(auth.Config{
		Issuer:        cfg.AuthIssuer,
		Audience:      cfg.AuthAudience,
		JWKSURL:       cfg.AuthJWKSURL,
		DevSigningKey: []byte(cfg.AuthDevSigningKey),
	}, identitySvc))
	scoped := api.Group("", tenant.Middleware(identitySvc))

	organization.NewHandler(orgSvc, identitySvc).RegisterRoutes(api, scoped)
	patient.NewHandler(patientSvc).RegisterRoutes(scoped)
	professional.NewHandler(profSvc).RegisterRoutes(scoped)
	appointment.NewHandler(apptSvc).RegisterRoutes(scoped)
	chat.NewHandler(chatSvc).RegisterRoutes(scoped)
	reports.NewHandler(reportsSvc).RegisterRoutes(scoped)
	presence.NewHandler(tracker).RegisterRoutes(scoped)
	relay.NewHandler(hub, tracker).RegisterRoutes(scoped)

	// Presence sweeper
	sweepCtx, sweepCancel := context.WithCancel(ctx)
	defer sweepCancel()
	go tracker.Run(sweepCtx)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

// errorHandler renders every error as {"error": {"code", "message"}} where
// code is the stable machine token (e.g. "missing_tenant_context") and
// message the human-readable status text. Unexpected errors are logged and
// returned without internal detail.
func errorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		token := "internal_error"
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			token = fmt.Sprintf("%v", he.Message)
		} else {
			logger.Error().Err(err).Str("path", c.Request().URL.Path).Msg("unhandled error")
		}

		body := map[string]interface{}{
			"error": map[string]interface{}{
				"code":    token,
				"message": http.StatusText(code),
			},
		}
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}
