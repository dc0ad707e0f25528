package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/tornimae/busboard/migrations"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Apply, roll back or list schema migrations",
		Long:      "migrate up applies every pending migration, migrate down rolls back the newest one and migrate status lists them all. The default is up.",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pool, err := a.connect(ctx)
			if err != nil {
				return err
			}
			db := stdlib.OpenDBFromPool(pool)
			defer db.Close()

			p, err := migrations.NewProvider(db)
			if err != nil {
				return err
			}

			action := "up"
			if len(args) == 1 {
				action = args[0]
			}
			switch action {
			case "down":
				res, err := p.Down(ctx)
				if err != nil {
					return fmt.Errorf("migrate down: %w", err)
				}
				fmt.Fprintf(a.out, "rolled back %d (%s)\n", res.Source.Version, res.Source.Path)
			case "status":
				statuses, err := p.Status(ctx)
				if err != nil {
					return fmt.Errorf("migrate status: %w", err)
				}
				tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "VERSION\tSTATE\tAPPLIED AT\tFILE")
				for _, s := range statuses {
					applied := "-"
					if s.State == goose.StateApplied {
						applied = s.AppliedAt.Local().Format("2006-01-02 15:04:05")
					}
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", s.Source.Version, s.State, applied, s.Source.Path)
				}
				return tw.Flush()
			default:
				results, err := p.Up(ctx)
				if err != nil {
					return fmt.Errorf("migrate up: %w", err)
				}
				if len(results) == 0 {
					fmt.Fprintln(a.out, "schema is up to date")
				}
				for _, r := range results {
					fmt.Fprintf(a.out, "applied %d (%s) in %s\n", r.Source.Version, r.Source.Path, r.Duration.Round(time.Millisecond))
				}
			}
			return nil
		},
	}
}
