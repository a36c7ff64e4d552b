package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pario-ai/badgeshot/pkg/config"
	"github.com/pario-ai/badgeshot/pkg/models"
	"github.com/pario-ai/badgeshot/pkg/tracker"
)

func newHistoryCmd() *cobra.Command {
	var (
		configPath string
		runID      string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past batch runs, or the images of one run",
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

			ctx := context.Background()
			if runID != "" {
				run, err := tr.GetRun(ctx, runID)
				if err != nil {
					return err
				}
				images, err := tr.RunImages(ctx, runID)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), formatRun(*run, images))
				return nil
			}

			runs, err := tr.ListRuns(ctx, limit)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatRunTable(runs))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to config file")
	cmd.Flags().StringVar(&runID, "run", "", "show the images of this run")
	cmd.Flags().IntVar(&limit, "limit", 20, "max runs to list (0 for all)")
	return cmd
}

func formatRunTable(runs []models.RunRecord) string {
	if len(runs) == 0 {
		return "No runs recorded.\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-36s %-10s %-15s %-20s %5s %6s %10s\n",
		"RUN ID", "PROVIDER", "STYLE", "STARTED", "OK", "FAILED", "COST")
	b.WriteString(strings.Repeat("-", 110) + "\n")
	for _, r := range runs {
		failed := fmt.Sprintf("%d", r.Failed)
		if r.AbortedByBudget {
			failed += "*"
		}
		fmt.Fprintf(&b, "%-36s %-10s %-15s %-20s %2d/%-2d %6s $%9.4f\n",
			r.ID, r.Provider, r.Style,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Succeeded, r.Requested, failed, r.ActualCost)
	}
	if hasAborted(runs) {
		b.WriteString("* aborted when the running cost estimate reached the budget\n")
	}
	return b.String()
}

func hasAborted(runs []models.RunRecord) bool {
	for _, r := range runs {
		if r.AbortedByBudget {
			return true
		}
	}
	return false
}

func formatRun(run models.RunRecord, images []models.ImageRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run:        %s\n", run.ID)
	fmt.Fprintf(&b, "Provider:   %s (%s)\n", run.Provider, run.Model)
	fmt.Fprintf(&b, "Style:      %s, %s\n", run.Style, run.Format)
	fmt.Fprintf(&b, "Output:     %s\n", run.OutputDir)
	fmt.Fprintf(&b, "Result:     %d/%d generated, %d failed\n", run.Succeeded, run.Requested, run.Failed)
	fmt.Fprintf(&b, "Cost:       $%.4f (estimated $%.4f)\n", run.ActualCost, run.EstimatedCost)
	if len(images) == 0 {
		b.WriteString("\nNo images saved.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "\n%-8s %-10s %s\n", "GENDER", "SIZE", "PATH")
	for _, img := range images {
		fmt.Fprintf(&b, "%-8s %-10s %s\n", img.Gender, fmt.Sprintf("%dx%d", img.Width, img.Height), img.Path)
	}
	return b.String()
}
