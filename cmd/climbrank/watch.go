package main

import (
	"github.com/spf13/cobra"

	"climbrank/internal/fetch"
	"climbrank/internal/watch"
)

var watchOnce bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-scrape the regions in WATCH_REGIONS every WATCH_INTERVAL_MIN minutes.",
	RunE: func(cmd *cobra.Command, args []string) error {
		db := openDB()
		defer db.Close()

		fetcher, err := fetch.New(cfg, cfg.FetchMode, db)
		if err != nil {
			return err
		}
		svc := watch.NewService(db, cfg, fetcher)
		if watchOnce {
			res, err := svc.RunCycle(cmd.Context())
			for _, run := range res.Refreshed {
				renderPageErrors(run.Errors)
			}
			return err
		}
		return svc.Run(cmd.Context())
	},
}

func init() {
	watchCmd.Flags().BoolVar(&watchOnce, "once", false, "run a single refresh cycle and exit")
	rootCmd.AddCommand(watchCmd)
}
