package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/wardboard/wardboard/internal/config"
	"github.com/wardboard/wardboard/internal/domain/clerking"
	"github.com/wardboard/wardboard/internal/domain/lab"
	"github.com/wardboard/wardboard/internal/domain/note"
	"github.com/wardboard/wardboard/internal/domain/patient"
	"github.com/wardboard/wardboard/internal/domain/task"
	"github.com/wardboard/wardboard/internal/domain/wardview"
	"github.com/wardboard/wardboard/internal/domain/workspace"
	"github.com/wardboard/wardboard/internal/engine/temporal"
	"github.com/wardboard/wardboard/internal/platform/db"
	"github.com/wardboard/wardboard/internal/platform/localcache"
	"github.com/wardboard/wardboard/internal/platform/middleware"
	"github.com/wardboard/wardboard/internal/platform/notify"
	"github.com/wardboard/wardboard/internal/platform/ws"
)

// followUpWriter adapts the task service to the clerking finalizer's
// follow-up contract.
type followUpWriter struct {
	tasks *task.Service
}

func (w *followUpWriter) CreateFollowUp(ctx context.Context, patientID *uuid.UUID, caseLabel *string, title, priority string) error {
	return w.tasks.CreateTask(ctx, &task.Task{
		PatientID: patientID,
		CaseLabel: caseLabel,
		Title:     title,
		Priority:  priority,
	})
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "ward-server",
		Short: "Ward board API server",
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
		Short: "Start the ward board API server",
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
		logger.Fatal().Err(err).Msg("invalid config")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Redis, for shift notes
	redisClient, err := localcache.NewClient(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	logger.Info().Msg("connected to redis")

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
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	apiV1 := e.Group("/api/v1")

	// Websocket hub pushes full-collection snapshots to the board
	hub := ws.NewHub(logger)
	ws.NewHandler(hub).RegisterRoutes(apiV1)

	clock := temporal.SystemClock{}

	// On-call notifier
	var oncall notify.OncallNotifier
	if cfg.OncallWebhookURL != "" {
		oncall = notify.NewWebhookNotifier(cfg.OncallWebhookURL, logger)
	} else {
		oncall = notify.NewLogNotifier(logger)
		logger.Warn().Msg("no on-call webhook configured, escalations will only be logged")
	}

	// Domain services
	patientSvc := patient.NewService(patient.NewPatientRepoPG(pool), hub, logger)
	taskSvc := task.NewService(task.NewTaskRepoPG(pool), hub, clock, logger)
	labSvc := lab.NewService(lab.NewResultRepoPG(pool), patientSvc, logger)
	noteSvc := note.NewService(localcache.NewRedisStore(redisClient), logger)
	workspaceSvc := workspace.NewService(localcache.NewRedisStore(redisClient), logger)

	saver := clerking.NewAutosaver(
		clerking.NewDraftRepoPG(pool),
		time.Duration(cfg.AutosaveDebounceMs)*time.Millisecond,
		logger,
	)
	defer saver.Close()
	clerkingSvc := clerking.NewService(
		clerking.NewDraftRepoPG(pool),
		saver,
		&followUpWriter{tasks: taskSvc},
		oncall,
		logger,
	)

	wardviewSvc := wardview.NewService(patientSvc, taskSvc, labSvc, noteSvc, clock, logger)

	// Handlers
	patient.NewHandler(patientSvc).RegisterRoutes(apiV1)
	task.NewHandler(taskSvc).RegisterRoutes(apiV1)
	lab.NewHandler(labSvc).RegisterRoutes(apiV1)
	note.NewHandler(noteSvc).RegisterRoutes(apiV1)
	workspace.NewHandler(workspaceSvc).RegisterRoutes(apiV1)
	clerking.NewHandler(clerkingSvc).RegisterRoutes(apiV1)
	wardview.NewHandler(wardviewSvc).RegisterRoutes(apiV1)

	// Temporal reclassification: overdue and due-soon labels drift as
	// the clock advances, so the open-task snapshot is republished on a
	// fixed cadence even when nothing is edited.
	tickCtx, stopTicker := context.WithCancel(ctx)
	defer stopTicker()
	go taskSvc.Reclassify(tickCtx, time.Duration(cfg.ReclassifyIntervalSec)*time.Second)

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})

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
	stopTicker()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
