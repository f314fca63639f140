package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"empire/internal/config"
	"empire/internal/database"
	"empire/internal/logger"
	"empire/internal/middleware"
	"empire/internal/router"
	"empire/internal/scheduler"
	"empire/internal/services"
	"empire/internal/timeutil"
	"empire/internal/validator"
)

// @title           Empire API
// @version         1.0
// @description     Empire tracks budget, goals, workouts and journal entries, and serves a daily dashboard built from stored snapshots.

// @host      localhost:8080
// @BasePath  /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

const (
	shutdownTimeout = 15 * time.Second
	refreshTimeout  = 30 * time.Second
)

func main() {
	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		logger.Init(os.Getenv("ENV"))
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	var sink *logger.FileSink
	if appConfig.LogFile != "" {
		sink = &logger.FileSink{
			Path:       appConfig.LogFile,
			MaxSizeMB:  appConfig.LogMaxSizeMB,
			MaxBackups: appConfig.LogMaxBackups,
			MaxAgeDays: appConfig.LogMaxAgeDays,
		}
	}
	logger.InitWithFile(appConfig.Env, sink)
	defer logger.Sync()
	log := logger.Get()

	validator.Register()

	// Database
	dbConfig := database.NewConfig(appConfig.DatabaseURL)
	connector := database.NewConnector(database.OpenPostgres(dbConfig))
	defer func() {
		if err := connector.Close(); err != nil {
			log.Warnf("database close error: %v", err)
		}
	}()
	dbManager := database.NewManager(dbConfig, connector)

	if err := dbManager.RunMigrations("migrations"); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := dbManager.DB(startCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	cal := timeutil.New(appConfig.Location())

	// Services
	snapshotService := services.NewSnapshotService(db, cal)
	refresher := services.NewSnapshotRefresher(snapshotService, cal,
		appConfig.RefreshWorkers, appConfig.RefreshQueueSize, refreshTimeout)

	userService := services.NewUserService(db)
	workoutService := services.NewWorkoutService(db, cal, refresher)
	trashService := services.NewTrashService(db, cal, appConfig.TrashRetention, refresher)

	jobs := scheduler.New(scheduler.Deps{
		Users:       userService,
		Snapshots:   snapshotService,
		Archiver:    workoutService,
		Purger:      trashService,
		Calendar:    cal,
		Concurrency: appConfig.SchedulerConcurrency,
	})
	if appConfig.SchedulerEnabled {
		if err := jobs.Start(); err != nil {
			refresher.Close()
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	}

	engine := router.New(router.Deps{
		Users:          userService,
		Transactions:   services.NewTransactionService(db, refresher),
		Goals:          services.NewGoalService(db, cal, refresher),
		Workouts:       workoutService,
		Journals:       services.NewJournalService(db, cal, refresher),
		Trash:          trashService,
		Snapshots:      snapshotService,
		Dashboard:      services.NewDashboardService(db, cal, snapshotService),
		Audit:          services.NewAuditService(db),
		Tokens:         middleware.NewTokenIssuer(appConfig.JWTSecret, appConfig.JWTExpirationDur, appConfig.RefreshExpiration),
		Calendar:       cal,
		Jobs:           jobs,
		PipelineAPIKey: appConfig.PipelineAPIKey,
		Production:     appConfig.IsProduction(),
		// Services hold the startup pool, so health checks that pool
		// instead of asking the connector for a replacement.
		Health: func(ctx context.Context) error {
			return database.Ping(ctx, db)
		},
	})

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Infof("Starting Empire backend server on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil {
			jobs.Stop(context.Background())
			refresher.Close()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-quit:
		log.Infow("Shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Warnf("HTTP shutdown error: %v", err)
	}
	jobs.Stop(ctx)
	// Pending week refreshes are flushed before the store closes.
	refresher.Close()

	log.Info("Server stopped")
	return nil
}
