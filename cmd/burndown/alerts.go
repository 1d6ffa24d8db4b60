package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newAlertsCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Show and acknowledge fired alerts",
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "burndown.yaml", "path to config file")

	var (
		credential string
		days       int
	)
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List active alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, st, err := openStore(configPath)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			scope, err := resolveScope(cmd.Context(), st, credential)
			if err != nil {
				return err
			}

			since := time.Now().UTC().AddDate(0, 0, -days)
			alerts, err := st.ActiveAlertsSince(cmd.Context(), since, scope)
			if err != nil {
				return err
			}
			if len(alerts) == 0 {
				fmt.Println("No active alerts.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tKIND\tTHRESHOLD\tOBSERVED\tTRIGGERED\tMESSAGE")
			for _, a := range alerts {
				fmt.Fprintf(w, "%d\t%s\t%.2f\t%.2f\t%s\t%s\n",
					a.ID, a.Kind, a.Threshold, a.Observed,
					a.TriggeredAt.Format("2006-01-02 15:04"), a.Message)
			}
			return w.Flush()
		},
	}
	listCmd.Flags().StringVar(&credential, "credential", "", "filter by credential id or name")
	listCmd.Flags().IntVar(&days, "days", 7, "trailing window in days")

	ackCmd := &cobra.Command{
		Use:   "ack <id>",
		Short: "Deactivate one alert",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid alert id %q", args[0])
			}

			_, st, err := openStore(configPath)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			if err := st.DeactivateAlert(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Printf("alert %d deactivated\n", id)
			return nil
		},
	}

	cmd.AddCommand(listCmd, ackCmd)
	return cmd
}
