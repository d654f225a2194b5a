package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"climbrank/internal/pipeline"
)

var extractFlags struct {
	input string
	page  int
	out   string
}

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract climbs from a saved ranking page without fetching.",
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(extractFlags.input)
		if err != nil {
			return err
		}
		res, err := pipeline.NewExtractor(pipeline.OptionsFromConfig(cfg)).ExtractHTML(raw, extractFlags.page)
		if err != nil {
			return err
		}
		renderRecords(res.Records)
		if res.Strategy != "" {
			fmt.Printf("strategy: %s\n", res.Strategy)
		}
		if extractFlags.out != "" {
			if err := pipeline.ExportRecords(res.Records, extractFlags.out); err != nil {
				return err
			}
			fmt.Printf("exported %d records to %s\n", len(res.Records), extractFlags.out)
		}
		return nil
	},
}

func init() {
	fl := extractCmd.Flags()
	fl.StringVarP(&extractFlags.input, "input", "i", "", "HTML file")
	fl.IntVar(&extractFlags.page, "page", 1, "page number to stamp on records")
	fl.StringVarP(&extractFlags.out, "out", "o", "", "export path (.xlsx or .csv)")
	_ = extractCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(extractCmd)
}
