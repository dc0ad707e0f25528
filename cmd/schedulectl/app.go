package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/tornimae/busboard/internal/config"
	"github.com/tornimae/busboard/internal/events"
	"github.com/tornimae/busboard/internal/repo"
	"github.com/tornimae/busboard/internal/service"
)

// app holds what the subcommands share. The database is opened on first
// use so that dry runs work without one.
type app struct {
	out io.Writer
	log *slog.Logger

	cfg  config.Config
	pool *pgxpool.Pool
	pub  *events.NATSPublisher
}

func newApp(out, errOut io.Writer) *app {
	return &app{
		out: out,
		log: slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: slog.LevelInfo})),
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "schedulectl",
		Short:         "Manage busboard stops and timetables",
		Long:          "schedulectl applies database migrations and imports transcribed timetable sheets into busboard.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newMigrateCmd(a), newImportCmd(a), newSeedCmd(a))
	return root
}

// connect loads configuration and opens the pool, once.
func (a *app) connect(ctx context.Context) (*pgxpool.Pool, error) {
	if a.pool != nil {
		return a.pool, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	a.cfg, a.pool = cfg, pool
	return pool, nil
}

// importer wires an ImportService on the shared pool. Change events are
// published when NATS_URL is set, exactly as the server does.
func (a *app) importer(ctx context.Context) (*service.ImportService, error) {
	pool, err := a.connect(ctx)
	if err != nil {
		return nil, err
	}
	var publisher service.EventPublisher = events.Nop{}
	if a.cfg.NATSURL != "" && a.pub == nil {
		pub, err := events.NewNATSPublisher(a.cfg.NATSURL, a.cfg.NATSSubjectPrefix, a.log, nil)
		if err != nil {
			a.log.Warn("nats unavailable, change events disabled", "error", err)
		} else {
			a.pub = pub
		}
	}
	if a.pub != nil {
		publisher = a.pub
	}
	return service.NewImportService(repo.NewStore(pool), publisher, nil), nil
}

func (a *app) close() {
	if a.pub != nil {
		a.pub.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
}
