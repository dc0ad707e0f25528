package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/tornimae/busboard/internal/domain"
	"github.com/tornimae/busboard/internal/timetable"
)

func newImportCmd(a *app) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "import FILE...",
		Short: "Replace stop timetables from YAML sheets",
		Long: `import reads one timetable sheet per file and replaces the named stop's
departures with it. Each file is imported in its own transaction; a bad file
does not stop the others, but the command fails if any file failed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var errs error
			for _, path := range args {
				err := a.importFile(cmd.Context(), path, dryRun)
				errs = multierr.Append(errs, err)
			}
			return errs
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the normalized timetable without touching the database")
	return cmd
}

func (a *app) importFile(ctx context.Context, path string, dryRun bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return a.importSheet(ctx, path, f, dryRun)
}

// importSheet normalizes one sheet and either prints it or imports it.
func (a *app) importSheet(ctx context.Context, name string, r io.Reader, dryRun bool) error {
	sheet, err := timetable.Decode(r)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	plan, err := sheet.Plan()
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	if dryRun {
		printPlan(a.out, plan)
		return nil
	}

	imp, err := a.importer(ctx)
	if err != nil {
		return err
	}
	res, err := imp.Import(ctx, plan)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	a.log.Info("timetable imported",
		"file", name,
		"stop", res.StopName,
		"cleared", res.Cleared,
		"inserted", res.Inserted,
		"skipped", res.Skipped,
	)
	fmt.Fprintf(a.out, "%s: replaced %d departures with %d (%d placeholders skipped)\n",
		res.StopName, res.Cleared, res.Inserted, res.Skipped)
	return nil
}

// printPlan writes one line per day type:
//
//	Tuule weekday (42): 05:56 06:26 ...
func printPlan(w io.Writer, plan domain.ImportPlan) {
	byDay := map[domain.DayType][]string{}
	for _, d := range plan.Departures {
		byDay[d.DayType] = append(byDay[d.DayType], d.Time+d.Annotation)
	}
	for _, dt := range domain.DayTypes {
		fmt.Fprintf(w, "%s %s (%d): %s\n", plan.StopName, dt, len(byDay[dt]), strings.Join(byDay[dt], " "))
	}
	fmt.Fprintf(w, "%s skipped: %d, create: %t\n", plan.StopName, plan.Skipped, plan.CreateStop)
}
