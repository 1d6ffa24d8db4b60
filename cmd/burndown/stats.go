package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	var (
		configPath string
		credential string
		sessionID  string
		days       int
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show sessions and per-session usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, st, err := openStore(configPath)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			ctx := cmd.Context()

			if sessionID != "" {
				events, err := st.SessionEvents(ctx, sessionID)
				if err != nil {
					return err
				}
				if len(events) == 0 {
					fmt.Println("No events found for session.")
					return nil
				}
				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "TIME\tMODEL\tPROMPT\tCOMPLETION\tTOTAL\tCOST")
				for _, ev := range events {
					fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t$%.4f\n",
						ev.Timestamp.Format("2006-01-02T15:04:05"), ev.Model,
						ev.PromptTokens, ev.CompletionTokens, ev.TotalTokens, ev.Cost)
				}
				return w.Flush()
			}

			scope, err := resolveScope(ctx, st, credential)
			if err != nil {
				return err
			}
			since := time.Now().UTC().AddDate(0, 0, -days)
			sessions, err := st.SessionsSince(ctx, since, scope)
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Println("No sessions found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SESSION\tSTARTED\tENDED\tACTIVE\tTOKENS\tCOST\tMODEL")
			for _, s := range sessions {
				ended := "-"
				if s.EndTime != nil {
					ended = s.EndTime.Format("2006-01-02T15:04:05")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%d\t$%.4f\t%s\n",
					s.ID, s.StartTime.Format("2006-01-02T15:04:05"), ended,
					s.Active, s.TotalTokens, s.TotalCost, s.Model)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "burndown.yaml", "path to config file")
	cmd.Flags().StringVar(&credential, "credential", "", "filter by credential id or name")
	cmd.Flags().StringVar(&sessionID, "session-id", "", "show events for a specific session")
	cmd.Flags().IntVar(&days, "days", 1, "trailing window in days for the session list")
	return cmd
}
