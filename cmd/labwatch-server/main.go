package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/labwatch/labwatch/internal/config"
	"github.com/labwatch/labwatch/internal/domain/alerts"
	"github.com/labwatch/labwatch/internal/domain/catalog"
	"github.com/labwatch/labwatch/internal/domain/reporting"
	"github.com/labwatch/labwatch/internal/domain/results"
	"github.com/labwatch/labwatch/internal/platform/auth"
	"github.com/labwatch/labwatch/internal/platform/db"
	"github.com/labwatch/labwatch/internal/platform/escalation"
	"github.com/labwatch/labwatch/internal/platform/middleware"
	"github.com/labwatch/labwatch/internal/platform/notification"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "labwatch-server",
		Short: "Laboratory critical value alerting server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(catalogCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the alerting server",
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
			if !cfg.HasDatabase() {
				return fmt.Errorf("DATABASE_URL is not set; nothing to migrate")
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
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
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
			if !cfg.HasDatabase() {
				return fmt.Errorf("DATABASE_URL is not set")
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
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the reference range catalog",
	}

	validateCmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a catalog file (or the built-in defaults)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			table, policies, err := catalog.Load(path)
			if err != nil {
				return err
			}
			fmt.Printf("Catalog OK: %d test definitions, %d escalation policies.\n",
				table.Len(), len(policies.List()))
			return nil
		},
	}
	cmd.AddCommand(validateCmd)
	return cmd
}

// logEmailSender and logSMSSender are stand-in delivery channels: every
// send is logged instead of leaving the process. Real deployments swap in
// SMTP and paging gateway implementations.
type logEmailSender struct{ logger zerolog.Logger }

func (s logEmailSender) SendEmail(_ context.Context, to, subject, _ string) error {
	s.logger.Info().Str("channel", "email").Str("to", to).Str("subject", subject).Msg("notification dispatched")
	return nil
}

type logSMSSender struct{ logger zerolog.Logger }

func (s logSMSSender) SendSMS(_ context.Context, to, body string) error {
	s.logger.Info().Str("channel", "sms").Str("to", to).Str("body", body).Msg("notification dispatched")
	return nil
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

	// Reference catalog
	table, policies, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		logger.Fatal().Err(err).Str("file", cfg.CatalogFile).Msg("failed to load catalog")
	}
	catalogSvc := catalog.NewService(table, policies)
	logger.Info().Int("tests", table.Len()).Msg("reference catalog loaded")

	// Ledger storage: Postgres when configured, in-memory otherwise.
	ctx := context.Background()
	var pool *pgxpool.Pool
	var alertRepo alerts.Repository
	if cfg.HasDatabase() {
		pool, err = db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		alertRepo = alerts.NewRepoPG(pool)
		logger.Info().Msg("connected to database")
	} else {
		alertRepo = alerts.NewMemoryRepository()
		logger.Warn().Msg("no DATABASE_URL set, alert ledger is in-memory only")
	}

	// Notification stack
	directory := notification.DefaultDirectory()
	manager := notification.NewManager(
		logEmailSender{logger: logger},
		logSMSSender{logger: logger},
		notification.NewTemplateEngine(),
		directory,
	)
	dispatcher := notification.NewAlertDispatcher(manager)

	// Escalation scheduler
	sched := escalation.NewScheduler()
	schedCtx, stopSched := context.WithCancel(ctx)
	defer stopSched()
	go sched.Run(schedCtx)

	// Domain services
	alertSvc := alerts.NewService(alertRepo, catalogSvc, dispatcher, sched, logger)
	classifier := results.NewClassifier(catalogSvc, logger)
	turnaround := reporting.NewService()
	resultSvc := results.NewService(classifier, alertSvc, turnaround, logger)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Auth middleware
	if cfg.ResolvedAuthMode() == "development" {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			SigningKey: []byte(cfg.AuthSecret),
		}))
	}

	// API group
	apiV1 := e.Group("/api/v1")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	if pool != nil {
		e.GET("/health/db", db.HealthHandler(pool))
	}

	// Domain handlers
	catalog.NewHandler(catalogSvc).RegisterRoutes(apiV1)
	results.NewHandler(resultSvc).RegisterRoutes(apiV1)
	alerts.NewHandler(alertSvc).RegisterRoutes(apiV1)
	reporting.NewHandler(turnaround, pool).RegisterRoutes(apiV1)

	notifGroup := apiV1.Group("", auth.RequireRole("admin"))
	notification.NewHandler(manager).RegisterRoutes(notifGroup)

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
	stopSched()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
