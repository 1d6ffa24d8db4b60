package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/burndown-ai/burndown/pkg/session"
	"github.com/burndown-ai/burndown/pkg/store"
)

func newLogCmd() *cobra.Command {
	var (
		configPath       string
		credential       string
		sessionID        string
		model            string
		promptTokens     int
		completionTokens int
		cost             float64
	)

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Log one completed API call against the active session",
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

			mgr := session.NewManager(st)
			sid := sessionID
			if sid == "" {
				active, err := mgr.Active(cmd.Context(), scope)
				if errors.Is(err, store.ErrNotFound) {
					sid, err = mgr.Open(cmd.Context(), scope, "")
					if err != nil {
						return err
					}
				} else if err != nil {
					return err
				} else {
					sid = active.ID
				}
			}

			if err := mgr.Record(cmd.Context(), sid, model, promptTokens, completionTokens, cost, scope); err != nil {
				return err
			}
			fmt.Printf("logged %d tokens ($%.4f) to %s\n", promptTokens+completionTokens, cost, sid)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "burndown.yaml", "path to config file")
	cmd.Flags().StringVar(&credential, "credential", "", "credential id or name")
	cmd.Flags().StringVar(&sessionID, "session", "", "session id (defaults to the active session)")
	cmd.Flags().StringVar(&model, "model", "", "model name")
	cmd.Flags().IntVar(&promptTokens, "prompt-tokens", 0, "prompt token count")
	cmd.Flags().IntVar(&completionTokens, "completion-tokens", 0, "completion token count")
	cmd.Flags().Float64Var(&cost, "cost", 0, "dollar cost of the call")
	_ = cmd.MarkFlagRequired("model")
	return cmd
}
