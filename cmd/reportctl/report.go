package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lorrc/ticket-reports/internal/core/domain"
)

var reportFlags domain.ReportFilters

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the report for a filter set",
	RunE: func(cmd *cobra.Command, args []string) error {
		filters := reportFlags.Normalize()
		if err := filters.Validate(); err != nil {
			return err
		}

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.Reports.GenerateReport(cmd.Context(), filters)
		if err != nil {
			return err
		}
		return renderReport(cmd.OutOrStdout(), report)
	},
}

var optionsCmd = &cobra.Command{
	Use:   "options",
	Short: "List the values the report filters accept",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		opts, err := a.Reports.Options(cmd.Context())
		if err != nil {
			return err
		}
		return renderOptions(cmd.OutOrStdout(), opts)
	},
}

func renderReport(out io.Writer, r *domain.Report) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	f := r.Filters
	fmt.Fprintf(w, "Range:\t%s\n", f.TimeRange)
	fmt.Fprintf(w, "Area:\t%s\n", f.Area)
	fmt.Fprintf(w, "Status:\t%s\n", f.Status)
	fmt.Fprintf(w, "Technician:\t%s\n", f.Technician)
	fmt.Fprintln(w)

	for _, card := range r.Cards {
		fmt.Fprintf(w, "%s:\t%s\n", card.Label, formatValue(card.Value, card.Unit))
	}

	for _, chart := range []domain.BarChart{
		r.Charts.ByArea,
		r.Charts.ByTechnician,
		r.Charts.Workload,
		r.Charts.ProcessingTime,
	} {
		fmt.Fprintf(w, "\n%s\n", chart.Title)
		if len(chart.Bars) == 0 {
			fmt.Fprintln(w, "  (no data)")
			continue
		}
		for _, bar := range chart.Bars {
			fmt.Fprintf(w, "  %s\t%s\n", bar.Label, formatValue(bar.Value, chart.Unit))
		}
	}
	return w.Flush()
}

func renderOptions(out io.Writer, opts *domain.FilterOptions) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	ranges := make([]string, 0, len(opts.TimeRanges))
	for _, r := range opts.TimeRanges {
		ranges = append(ranges, string(r))
	}
	statuses := make([]string, 0, len(opts.Statuses))
	for _, s := range opts.Statuses {
		statuses = append(statuses, string(s))
	}

	fmt.Fprintf(w, "Ranges:\t%s\n", strings.Join(ranges, ", "))
	fmt.Fprintf(w, "Statuses:\t%s\n", strings.Join(statuses, ", "))
	fmt.Fprintf(w, "Areas:\t%s\n", strings.Join(opts.Areas, ", "))
	fmt.Fprintf(w, "Technicians:\t%s\n", strings.Join(opts.Technicians, ", "))
	return w.Flush()
}

func formatValue(v float64, unit string) string {
	s := strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.1f", v), "0"), ".")
	if unit == "" {
		return s
	}
	return s + " " + unit
}

func init() {
	reportCmd.Flags().StringVar((*string)(&reportFlags.TimeRange), "range", string(domain.Range30Days), "time range: 7d, 30d, 90d or all")
	reportCmd.Flags().StringVar(&reportFlags.Area, "area", domain.FilterAll, "area name or all")
	reportCmd.Flags().StringVar(&reportFlags.Status, "status", domain.FilterAll, "ticket status or all")
	reportCmd.Flags().StringVar(&reportFlags.Technician, "technician", domain.FilterAll, "technician name or all")

	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(optionsCmd)
}
