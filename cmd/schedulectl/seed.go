package main

import (
	"github.com/spf13/cobra"

	"github.com/tornimae/busboard/seed"
)

func newSeedCmd(a *app) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Import the built-in timetables",
		Long:  "seed imports the timetable sheets bundled with busboard, creating their stops if needed. Running it again restores the bundled timetables.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			names, err := seed.Files()
			if err != nil {
				return err
			}
			for _, name := range names {
				f, err := seed.FS.Open(name)
				if err != nil {
					return err
				}
				err = a.importSheet(cmd.Context(), name, f, dryRun)
				f.Close()
				if err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the bundled timetables without touching the database")
	return cmd
}
