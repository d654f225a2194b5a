package main

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"

	"climbrank/internal"
	"climbrank/internal/util"
)

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

func renderRecords(records []internal.ClimbRecord) {
	t := newTable()
	header := table.Row{}
	for _, c := range internal.RecordColumns {
		header = append(header, c)
	}
	t.AppendHeader(header)
	for _, r := range records {
		t.AppendRow(table.Row{r.Rank, r.Name, util.FormatFloat(r.LengthKm), util.FormatFloat(r.GradientPct), r.DifficultyPoints, r.ElevationGainM, r.Page})
	}
	t.AppendFooter(table.Row{"", len(records)})
	t.Render()
}

func renderPageErrors(errs []internal.PageError) {
	if len(errs) == 0 {
		return
	}
	t := newTable()
	t.AppendHeader(table.Row{"page", "error"})
	for _, e := range errs {
		t.AppendRow(table.Row{e.Page, e.Message})
	}
	t.Render()
}

func renderRegions(regions []internal.Region) {
	t := newTable()
	t.AppendHeader(table.Row{"id", "region", "country"})
	for _, r := range regions {
		t.AppendRow(table.Row{r.ID, r.Name, r.Country})
	}
	t.Render()
}

func renderRuns(runs []internal.RunRow) {
	t := newTable()
	t.AppendHeader(table.Row{"run", "region", "pages", "records", "errors", "stopped early", "created"})
	for _, r := range runs {
		t.AppendRow(table.Row{r.ID, r.RegionID, pageSpan(r.StartPage, r.EndPage), r.RecordCount, r.ErrorCount, r.StoppedEarly, r.CreatedAt})
	}
	t.Render()
}
