package kpictl

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/okian/kpiboard/internal/domain/types"
)

func printEntries(w io.Writer, entries []types.Entry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tEMPLOYEE\tNAME\tGROUP\tROLE\tPERIOD\tSCORE\tSALES%\tCOMM%\tATT%")
	for _, e := range entries {
		sales := fmt.Sprintf("%.1f", e.SalesPct)
		if e.SalesOverridden {
			sales += "*"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%.2f\t%s\t%.1f\t%.1f\n",
			e.Rank, e.EmployeeID, e.EmployeeName, e.GroupID, e.Role, e.Period,
			e.Score, sales, e.CommissionPct, e.AttendancePct)
	}
	return tw.Flush()
}

func printBreakdown(w io.Writer, b types.Breakdown) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "sales\t%.2f%%\n", b.SalesPct)
	fmt.Fprintf(tw, "commission\t%.2f%%\n", b.CommissionPct)
	fmt.Fprintf(tw, "attendance\t%.2f%%\n", b.AttendancePct)
	fmt.Fprintf(tw, "weighted\t%.2f\n", b.Weighted)
	fmt.Fprintf(tw, "score\t%.2f\n", b.Score)
	return tw.Flush()
}

func printSummary(w io.Writer, s Summary) {
	if s.Count == 0 {
		fmt.Fprintln(w, "no entries")
		return
	}
	fmt.Fprintf(w, "entries: %d  avg: %.2f  max: %.2f  min: %.2f  overridden: %d\n",
		s.Count, s.Average, s.Max, s.Min, s.Overridden)
}
