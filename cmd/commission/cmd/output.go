package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/commission-finder/internal/commission"
)

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeLines(w io.Writer, items []string) {
	for _, item := range items {
		fmt.Fprintln(w, item)
	}
}

func writeResults(w io.Writer, results []commission.SearchResult) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\n", r.DisplayProductGroup, commission.FormatPercent(r.CommissionPercent))
	}
	return tw.Flush()
}

func writeReport(w io.Writer, r *commission.ReloadReport) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "marketplace\t%s\n", r.Marketplace)
	fmt.Fprintf(tw, "records\t%d\n", r.RecordsAfter)
	fmt.Fprintf(tw, "dropped\t%d\n", r.DroppedRows)
	fmt.Fprintf(tw, "blank\t%d\n", r.BlankRows)
	fmt.Fprintf(tw, "duplicates\t%d\n", r.DuplicateRows)
	fmt.Fprintf(tw, "scaled\t%t\n", r.Scaled)
	fmt.Fprintf(tw, "checksum\t%s\n", r.Checksum)
	for _, m := range r.Malformed {
		fmt.Fprintf(tw, "malformed\trow %d: %s\n", m.Row, m.Reason)
	}
	if r.Error != "" {
		fmt.Fprintf(tw, "error\t%s\n", r.Error)
	}
	return tw.Flush()
}
