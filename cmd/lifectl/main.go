// Command lifectl runs snapshot and maintenance jobs by hand against the
// configured database.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"empire/internal/config"
	"empire/internal/database"
	"empire/internal/logger"
	"empire/internal/scheduler"
	"empire/internal/services"
	"empire/internal/timeutil"
)

var CLI struct {
	Snapshot SnapshotCmd `cmd:"" help:"Compute one day's snapshot for a user."`
	Backfill BackfillCmd `cmd:"" help:"Recompute a user's recent snapshots."`
	Job      JobCmd      `cmd:"" help:"Run a scheduled job once for every user."`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("lifectl"),
		kong.Description("Manual snapshot and maintenance triggers"),
		kong.UsageOnError(),
	)

	if err := run(kctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(kctx *kong.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Init(cfg.Env)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connector := database.NewConnector(database.OpenPostgres(database.NewConfig(cfg.DatabaseURL)))
	defer connector.Close()
	db, err := connector.DB(ctx)
	if err != nil {
		return err
	}

	cal := timeutil.New(cfg.Location())
	snapshots := services.NewSnapshotService(db, cal)
	jobs := scheduler.New(scheduler.Deps{
		Users:       services.NewUserService(db),
		Snapshots:   snapshots,
		Archiver:    services.NewWorkoutService(db, cal, nil),
		Purger:      services.NewTrashService(db, cal, cfg.TrashRetention, nil),
		Calendar:    cal,
		Concurrency: cfg.SchedulerConcurrency,
	})

	return kctx.Run(&Context{
		Ctx:       ctx,
		Snapshots: snapshots,
		Jobs:      jobs,
		Calendar:  cal,
		Out:       os.Stdout,
	})
}
