package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pario-ai/badgeshot/pkg/config"
	"github.com/pario-ai/badgeshot/pkg/models"
	"github.com/pario-ai/badgeshot/pkg/tracker"
)

func newCostCmd() *cobra.Command {
	var (
		configPath string
		since      string
	)

	cmd := &cobra.Command{
		Use:   "cost",
		Short: "Show spend by provider and model from the run history",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfigOrDefault(configPath)
			if err != nil {
				return err
			}

			tr, err := tracker.New(cfg.DBPath)
			if err != nil {
				return err
			}
			defer func() { _ = tr.Close() }()

			sinceTime := beginningOfMonth()
			if since != "" {
				t, err := time.Parse("2006-01-02", since)
				if err != nil {
					return fmt.Errorf("invalid --since date (use YYYY-MM-DD): %w", err)
				}
				sinceTime = t
			}

			reports, err := tr.CostReport(context.Background(), sinceTime)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatCostTable(reports))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to config file")
	cmd.Flags().StringVar(&since, "since", "", "start date (YYYY-MM-DD, default: start of month)")
	return cmd
}

func beginningOfMonth() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func formatCostTable(reports []models.CostReport) string {
	if len(reports) == 0 {
		return "No cost data found.\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-12s %-32s %6s %10s %8s %10s\n",
		"PROVIDER", "MODEL", "RUNS", "REQUESTED", "IMAGES", "COST")
	b.WriteString(strings.Repeat("-", 83) + "\n")

	var totalCost float64
	for _, r := range reports {
		fmt.Fprintf(&b, "%-12s %-32s %6d %10d %8d $%9.4f\n",
			r.Provider, r.Model, r.Runs, r.Requested, r.Images, r.Cost)
		totalCost += r.Cost
	}
	b.WriteString(strings.Repeat("-", 83) + "\n")
	fmt.Fprintf(&b, "%72s $%9.4f\n", "TOTAL:", totalCost)
	return b.String()
}
