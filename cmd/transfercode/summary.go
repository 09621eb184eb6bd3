package main

import (
	"io"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"transfercode/internal/scheduler"
)

// printSummary renders the end-of-run counters and, when anything
// failed, the list of failed source files.
func printSummary(w io.Writer, res *scheduler.Result) {
	title := "Transfer complete"
	switch {
	case res.Cancelled:
		title = "Transfer cancelled"
	case res.DryRun:
		title = "Dry run"
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(title)
	t.AppendRows([]table.Row{
		{"Files", res.Total},
		{"Transcoded", res.Transcoded},
		{"Copied", res.Copied},
		{"Skipped", res.Skipped},
		{"Deleted", res.Deleted},
		{"Failed", len(res.Failed)},
		{"Written", humanize.Bytes(uint64(res.Bytes))},
	})
	t.Render()

	if len(res.Failed) == 0 {
		return
	}
	ft := table.NewWriter()
	ft.SetOutputMirror(w)
	ft.SetStyle(table.StyleLight)
	ft.AppendHeader(table.Row{"Failed source file"})
	for _, src := range res.Failed {
		ft.AppendRow(table.Row{src})
	}
	ft.Render()
}
