package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"climbrank/internal"
	"climbrank/internal/fetch"
	"climbrank/internal/pipeline"
	"climbrank/internal/region"
	"climbrank/internal/storage"
)

const lastRunKey = "last_run_id"

var scrapeFlags struct {
	region     string
	start      int
	end        int
	untilEmpty bool
	out        string
	mode       string
	noCache    bool
	noStore    bool
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape a page range of a region's climb ranking.",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := scrapeFlags
		reg, err := region.Resolve(f.region)
		if err != nil {
			return err
		}
		mode := f.mode
		if mode == "" {
			mode = cfg.FetchMode
		}

		var db *storage.DB
		if !f.noStore || !f.noCache {
			db = openDB()
			defer db.Close()
		}
		var store fetch.PageStore
		if db != nil && !f.noCache {
			store = db
		}
		fetcher, err := fetch.New(cfg, mode, store)
		if err != nil {
			return err
		}

		opts := pipeline.AggregateOptionsFromConfig(cfg)
		opts.OnPageComplete = func(page, found int) {
			fmt.Fprintf(os.Stderr, "page %d: %d climbs\n", page, found)
		}
		agg := pipeline.NewAggregator(fetcher, pipeline.NewExtractor(pipeline.OptionsFromConfig(cfg)), opts)

		slog.Info("scraping", "region", reg.ID, "name", reg.Label(), "mode", mode)
		var res internal.RunResult
		var runErr error
		if f.untilEmpty {
			res, runErr = agg.RunUntilEmpty(cmd.Context(), reg.ID, f.start)
		} else {
			res, runErr = agg.Run(cmd.Context(), reg.ID, f.start, f.end)
		}
		if runErr != nil && len(res.Records) == 0 && len(res.Errors) == 0 {
			return runErr
		}

		renderRecords(res.Records)
		renderPageErrors(res.Errors)

		if db != nil && !f.noStore {
			if err := db.SaveRun(res); err != nil {
				return err
			}
			if err := db.SetMetadata(lastRunKey, res.RunID); err != nil {
				return err
			}
			fmt.Printf("saved run %s\n", res.RunID)
		}
		if f.out != "" {
			if err := pipeline.ExportRecords(res.Records, f.out); err != nil {
				return err
			}
			fmt.Printf("exported %d records to %s\n", len(res.Records), f.out)
		}
		if len(res.Records) == 0 {
			slog.Warn("no climbs found, check the region id")
		}
		return runErr
	},
}

func init() {
	fl := scrapeCmd.Flags()
	fl.StringVarP(&scrapeFlags.region, "region", "r", "", "region id, ranking URL or name")
	fl.IntVar(&scrapeFlags.start, "start", 1, "first page")
	fl.IntVar(&scrapeFlags.end, "end", 1, "last page")
	fl.BoolVar(&scrapeFlags.untilEmpty, "until-empty", false, "keep going until a page has no climbs")
	fl.StringVarP(&scrapeFlags.out, "out", "o", "", "export path (.xlsx or .csv)")
	fl.StringVar(&scrapeFlags.mode, "fetch", "", "http|browser|auto (default from FETCH_MODE)")
	fl.BoolVar(&scrapeFlags.noCache, "no-cache", false, "always fetch pages from the site")
	fl.BoolVar(&scrapeFlags.noStore, "no-store", false, "do not record the run")
	_ = scrapeCmd.MarkFlagRequired("region")
	rootCmd.AddCommand(scrapeCmd)
}
