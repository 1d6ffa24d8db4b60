package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/burndown-ai/burndown/pkg/aggregate"
)

func newAnalyticsCmd() *cobra.Command {
	var (
		configPath string
		credential string
		days       int
		rollup     bool
	)

	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Show daily, per-model, and hourly usage views",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, st, err := openStore(configPath)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			ctx := cmd.Context()
			scope, err := resolveScope(ctx, st, credential)
			if err != nil {
				return err
			}

			agg := aggregate.New(st)
			if rollup {
				if _, err := agg.RollupDay(ctx, timeNowUTC(), scope); err != nil {
					return err
				}
			}

			a, err := agg.Analytics(ctx, days, scope)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

			fmt.Fprintf(w, "Daily usage (last %d days)\n", a.PeriodDays)
			fmt.Fprintln(w, "DATE\tTOKENS\tCOST\tCALLS\tAVG RATE\tPEAK RATE\tMODELS")
			for _, d := range a.Daily {
				fmt.Fprintf(w, "%s\t%d\t$%.2f\t%d\t%.1f\t%.1f\t%s\n",
					d.Date, d.TotalTokens, d.TotalCost, d.CallCount,
					d.AvgBurnRate, d.PeakBurnRate, strings.Join(d.ModelsUsed, ","))
			}
			fmt.Fprintln(w)

			fmt.Fprintln(w, "Model breakdown")
			fmt.Fprintln(w, "MODEL\tTOKENS\tCOST\tCALLS")
			for _, m := range a.ByModel {
				fmt.Fprintf(w, "%s\t%d\t$%.2f\t%d\n", m.Model, m.TotalTokens, m.TotalCost, m.CallCount)
			}
			fmt.Fprintln(w)

			fmt.Fprintln(w, "Hourly pattern")
			fmt.Fprintln(w, "HOUR\tAVG TOKENS\tCALLS")
			for _, h := range a.ByHour {
				fmt.Fprintf(w, "%02d:00\t%.1f\t%d\n", h.Hour, h.AvgTokens, h.CallCount)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "burndown.yaml", "path to config file")
	cmd.Flags().StringVar(&credential, "credential", "", "filter by credential id or name")
	cmd.Flags().IntVar(&days, "days", 7, "trailing window in days")
	cmd.Flags().BoolVar(&rollup, "rollup", false, "recompute today's summary first")
	return cmd
}

func newCompareCmd() *cobra.Command {
	var (
		configPath string
		days       int
	)

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare usage across credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, st, err := openStore(configPath)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			rows, total, err := aggregate.New(st).CompareCredentials(cmd.Context(), days)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				fmt.Println("No usage data found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CREDENTIAL\tTOKENS\tCOST\tCALLS")
			for _, r := range rows {
				name := r.Name
				if name == "" {
					name = "(default)"
				}
				fmt.Fprintf(w, "%s\t%d\t$%.4f\t%d\n", name, r.TotalTokens, r.TotalCost, r.CallCount)
			}
			fmt.Fprintf(w, "%s\t%d\t$%.4f\t%d\n", total.Name, total.TotalTokens, total.TotalCost, total.CallCount)
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "burndown.yaml", "path to config file")
	cmd.Flags().IntVar(&days, "days", 7, "trailing window in days")
	return cmd
}
