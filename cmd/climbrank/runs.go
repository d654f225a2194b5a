package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"climbrank/internal/pipeline"
)

func pageSpan(start, end int) string {
	if start == end {
		return fmt.Sprint(start)
	}
	return fmt.Sprintf("%d-%d", start, end)
}

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded scrape runs, newest first.",
	RunE: func(cmd *cobra.Command, args []string) error {
		db := openDB()
		defer db.Close()
		runs, err := db.ListRuns(runsLimit)
		if err != nil {
			return err
		}
		renderRuns(runs)
		return nil
	},
}

var exportFlags struct {
	run string
	out string
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the records of a recorded run (default: the latest).",
	RunE: func(cmd *cobra.Command, args []string) error {
		db := openDB()
		defer db.Close()

		id := strings.TrimSpace(exportFlags.run)
		if id == "" {
			last, err := db.GetMetadata(lastRunKey)
			if err != nil {
				return err
			}
			if last == nil {
				return fmt.Errorf("--run is required, no runs recorded yet")
			}
			id = *last
		}
		run, err := db.GetRun(id)
		if err != nil {
			return err
		}
		records, err := db.GetRunRecords(run.ID)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return fmt.Errorf("run %s has no records", run.ID)
		}
		if err := pipeline.ExportRecords(records, exportFlags.out); err != nil {
			return err
		}
		fmt.Printf("exported %d records of run %s to %s\n", len(records), run.ID, exportFlags.out)

		errs, err := db.GetRunErrors(run.ID)
		if err != nil {
			return err
		}
		renderPageErrors(errs)
		return nil
	},
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "max runs to list")
	exportCmd.Flags().StringVar(&exportFlags.run, "run", "", "run id")
	exportCmd.Flags().StringVarP(&exportFlags.out, "out", "o", "", "export path (.xlsx or .csv)")
	_ = exportCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(runsCmd, exportCmd)
}
