package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/burndown-ai/burndown/pkg/registry"
)

func newKeysCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage tracked credentials",
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "burndown.yaml", "path to config file")

	var name, description string
	addCmd := &cobra.Command{
		Use:   "add <secret>",
		Short: "Register a credential (only a hash is stored)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, st, err := openStore(configPath)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			reg := registry.New(st)
			id, err := reg.Register(cmd.Context(), args[0], name, description)
			if err != nil {
				return err
			}
			fmt.Printf("registered %s as %s (%s)\n", name, id, registry.Mask(args[0]))
			return nil
		},
	}
	addCmd.Flags().StringVar(&name, "name", "", "unique display name")
	addCmd.Flags().StringVar(&description, "description", "", "optional description")
	_ = addCmd.MarkFlagRequired("name")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List tracked credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, st, err := openStore(configPath)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			creds, err := registry.New(st).List(cmd.Context())
			if err != nil {
				return err
			}
			if len(creds) == 0 {
				fmt.Println("No credentials registered.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tMASK\tACTIVE\tCREATED")
			for _, c := range creds {
				fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n",
					c.ID, c.Name, c.Mask, c.Active, c.CreatedAt.Format("2006-01-02"))
			}
			return w.Flush()
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove <id-or-name>",
		Short: "Deactivate a credential (usage history is kept)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, st, err := openStore(configPath)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			if err := registry.New(st).Deactivate(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("deactivated %s\n", args[0])
			return nil
		},
	}

	var windowDays int
	usageCmd := &cobra.Command{
		Use:   "usage <id-or-name>",
		Short: "Show usage totals for one credential",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, st, err := openStore(configPath)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			usage, err := registry.New(st).UsageSummary(cmd.Context(), args[0], windowDays)
			if err != nil {
				return err
			}
			fmt.Printf("%s: %d tokens, $%.4f, %d calls over %d days\n",
				usage.Name, usage.TotalTokens, usage.TotalCost, usage.CallCount, windowDays)
			return nil
		},
	}
	usageCmd.Flags().IntVar(&windowDays, "days", 30, "trailing window in days")

	cmd.AddCommand(addCmd, listCmd, removeCmd, usageCmd)
	return cmd
}
