package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/pario-ai/badgeshot/pkg/budget"
	"github.com/pario-ai/badgeshot/pkg/config"
	"github.com/pario-ai/badgeshot/pkg/models"
	"github.com/pario-ai/badgeshot/pkg/provider"
)

func newBudgetCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Show and adjust the spend budget in the config file",
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to config file")

	var count int
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show total, spent and remaining budget",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if count <= 0 {
				count = cfg.Defaults.Count
			}
			p, err := provider.New(cfg, nil)
			if err != nil {
				return err
			}
			writeBudgetStatus(cmd.OutOrStdout(), cfg.Budget, p.EstimateCost(count), count)
			return nil
		},
	}
	statusCmd.Flags().IntVarP(&count, "count", "n", 0, "batch size to estimate (default: defaults.count)")

	var total, threshold float64
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Set the total budget and/or warning threshold",
		RunE: func(cmd *cobra.Command, args []string) error {
			var tp, wp *float64
			if cmd.Flags().Changed("total") {
				if total < 0 {
					return fmt.Errorf("--total must be >= 0, got %g", total)
				}
				tp = &total
			}
			if cmd.Flags().Changed("warn-threshold") {
				if threshold <= 0 || threshold > 1 {
					return fmt.Errorf("--warn-threshold must be in (0, 1], got %g", threshold)
				}
				wp = &threshold
			}
			if tp == nil && wp == nil {
				return fmt.Errorf("nothing to set: pass --total and/or --warn-threshold")
			}
			if err := config.SetBudget(configPath, tp, wp); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Budget updated.")
			return nil
		},
	}
	setCmd.Flags().Float64Var(&total, "total", 0, "total budget in USD")
	setCmd.Flags().Float64Var(&threshold, "warn-threshold", 0, "warn when a run would use this fraction of the budget")

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Zero the spent amount",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if _, err := budget.PersistSpend(configPath, -cfg.Budget.Spent); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Spent reset from $%.4f to $0.0000.\n", cfg.Budget.Spent)
			return nil
		},
	}

	var amount float64
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a signed amount to spent (negative for refunds)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("amount") {
				return fmt.Errorf("--amount is required")
			}
			spent, err := budget.PersistSpend(configPath, amount)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Spent is now $%.4f.\n", spent)
			return nil
		},
	}
	addCmd.Flags().Float64Var(&amount, "amount", 0, "amount in USD, e.g. --amount=-0.40 for a refund")

	cmd.AddCommand(statusCmd, setCmd, resetCmd, addCmd)
	return cmd
}

func writeBudgetStatus(w io.Writer, state models.BudgetState, estimated float64, count int) {
	fmt.Fprintln(w, budget.FormatReport(state.Total, state.Spent, estimated))
	d := budget.Check(state, estimated)
	fmt.Fprintf(w, "\nA batch of %d: %s\n", count, d.Message)
}
