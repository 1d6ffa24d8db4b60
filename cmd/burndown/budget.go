package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/burndown-ai/burndown/pkg/budget"
	"github.com/burndown-ai/burndown/pkg/models"
	"github.com/burndown-ai/burndown/pkg/store"
)

func newBudgetCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Manage monthly budgets",
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "burndown.yaml", "path to config file")

	var (
		credential string
		limit      float64
		month      string
	)
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Set the monthly dollar budget",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, st, err := openStore(configPath)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			scope, err := resolveScope(cmd.Context(), st, credential)
			if err != nil {
				return err
			}

			if month == "" {
				month = budget.CurrentMonth(timeNowUTC())
			}
			setting := models.BudgetSetting{
				Month:           month,
				CredentialID:    scope,
				BudgetLimit:     limit,
				TokenLimit:      cfg.TokenLimit(),
				AlertThresholds: cfg.Budget.AlertThresholds,
			}
			if err := st.UpsertBudget(cmd.Context(), setting); err != nil {
				return err
			}
			fmt.Printf("budget for %s set to $%.2f (%d tokens)\n", month, limit, setting.TokenLimit)
			return nil
		},
	}
	setCmd.Flags().StringVar(&credential, "credential", "", "credential id or name")
	setCmd.Flags().Float64Var(&limit, "limit", 0, "monthly budget in USD")
	setCmd.Flags().StringVar(&month, "month", "", "month as YYYY-MM (default: current)")
	_ = setCmd.MarkFlagRequired("limit")

	var showCredential, showMonth string
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the budget for a month",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, st, err := openStore(configPath)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			scope, err := resolveScope(cmd.Context(), st, showCredential)
			if err != nil {
				return err
			}
			if showMonth == "" {
				showMonth = budget.CurrentMonth(timeNowUTC())
			}

			status, err := budget.NewChecker(st).Status(cmd.Context(), showMonth, scope)
			if errors.Is(err, store.ErrNotFound) {
				fmt.Printf("No budget set for %s.\n", showMonth)
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Printf("%s: $%.2f spent of $%.2f ($%.2f left), %d / %d tokens\n",
				status.Month, status.SpentUSD, status.BudgetLimit,
				status.RemainingUSD, status.TokensUsed, status.TokenLimit)
			if status.Exceeded {
				fmt.Println("!! budget exceeded")
			}
			return nil
		},
	}
	showCmd.Flags().StringVar(&showCredential, "credential", "", "credential id or name")
	showCmd.Flags().StringVar(&showMonth, "month", "", "month as YYYY-MM (default: current)")

	cmd.AddCommand(setCmd, showCmd)
	return cmd
}
