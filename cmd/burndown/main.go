package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:     "burndown",
		Short:   "burndown — API token usage accounting and forecasting",
		Version: version,
	}

	root.AddCommand(
		newMonitorCmd(),
		newKeysCmd(),
		newSessionCmd(),
		newLogCmd(),
		newStatsCmd(),
		newAnalyticsCmd(),
		newCompareCmd(),
		newBudgetCmd(),
		newAlertsCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
