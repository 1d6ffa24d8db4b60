package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/burndown-ai/burndown/pkg/session"
)

func newSessionCmd() *cobra.Command {
	var (
		configPath string
		credential string
		sessionID  string
	)

	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage accounting sessions",
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "burndown.yaml", "path to config file")

	openCmd := &cobra.Command{
		Use:   "open",
		Short: "Open a new session, closing any active one in the same scope",
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

			id, err := session.NewManager(st).Open(cmd.Context(), scope, sessionID)
			if err != nil {
				return err
			}
			fmt.Println(id)
			return nil
		},
	}
	openCmd.Flags().StringVar(&credential, "credential", "", "credential id or name")
	openCmd.Flags().StringVar(&sessionID, "id", "", "explicit session id (derived when empty)")

	cmd.AddCommand(openCmd)
	return cmd
}
