package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pario-ai/badgeshot/pkg/audit"
	"github.com/pario-ai/badgeshot/pkg/batch"
	"github.com/pario-ai/badgeshot/pkg/config"
	"github.com/pario-ai/badgeshot/pkg/logging"
	"github.com/pario-ai/badgeshot/pkg/models"
	"github.com/pario-ai/badgeshot/pkg/provider"
	"github.com/pario-ai/badgeshot/pkg/retry"
	"github.com/pario-ai/badgeshot/pkg/tracker"
)

type generateFlags struct {
	configPath string
	count      int
	style      string
	output     string
	format     string
	minSize    string
	maxSize    string
	budget     float64
	dryRun     bool
	apiKey     string
	provider   string
}

func newGenerateCmd() *cobra.Command {
	var f generateFlags

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a batch of badge photos",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(f.configPath)
			if err != nil {
				return err
			}
			applyOverrides(cmd, cfg, f)
			params := resolveParams(cmd, cfg, f)

			if err := cfg.Validate(params.DryRun); err != nil {
				return err
			}
			return runGenerate(cmd.Context(), cmd.OutOrStdout(), cfg, f.configPath, params)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.configPath, "config", "c", config.DefaultPath, "path to config file")
	fl.IntVarP(&f.count, "count", "n", 0, "number of images to generate")
	fl.StringVarP(&f.style, "style", "s", "", "art style (see 'badgeshot styles')")
	fl.StringVarP(&f.output, "output", "o", "", "output directory")
	fl.StringVarP(&f.format, "format", "f", "", "output format: png or jpg")
	fl.StringVar(&f.minSize, "min-size", "", "minimum size as WIDTHxHEIGHT")
	fl.StringVar(&f.maxSize, "max-size", "", "maximum size as WIDTHxHEIGHT")
	fl.Float64Var(&f.budget, "budget", 0, "override the total budget for this run (USD)")
	fl.BoolVar(&f.dryRun, "dry-run", false, "show the cost estimate and budget decision without generating")
	fl.StringVar(&f.apiKey, "api-key", "", "provider API key (overrides config and environment)")
	fl.StringVar(&f.provider, "provider", "", "image provider: stability or openai")

	return cmd
}

// applyOverrides copies flags that replace config values for this run only.
func applyOverrides(cmd *cobra.Command, cfg *config.Config, f generateFlags) {
	if cmd.Flags().Changed("provider") {
		cfg.Provider.Name = f.provider
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = f.apiKey
	}
	if cmd.Flags().Changed("budget") {
		cfg.Budget.Total = f.budget
	}
}

// resolveParams merges flags over config defaults. A flag wins only when it
// was set on the command line.
func resolveParams(cmd *cobra.Command, cfg *config.Config, f generateFlags) models.GenerationParams {
	d := cfg.Defaults
	p := models.GenerationParams{
		Count:     d.Count,
		Style:     d.Style,
		Format:    d.Format,
		OutputDir: d.OutputDir,
		MinSize:   d.MinSize,
		MaxSize:   d.MaxSize,
		DryRun:    f.dryRun,
	}
	fl := cmd.Flags()
	if fl.Changed("count") {
		p.Count = f.count
	}
	if fl.Changed("style") {
		p.Style = f.style
	}
	if fl.Changed("output") {
		p.OutputDir = f.output
	}
	if fl.Changed("format") {
		p.Format = f.format
	}
	if fl.Changed("min-size") {
		p.MinSize = f.minSize
	}
	if fl.Changed("max-size") {
		p.MaxSize = f.maxSize
	}
	return p
}

func runGenerate(ctx context.Context, out io.Writer, cfg *config.Config, configPath string, params models.GenerationParams) error {
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, err := provider.New(cfg, logger)
	if err != nil {
		return err
	}

	initial, maxDelay := cfg.Retry.Delays()
	opts := batch.Options{
		Provider:   p,
		Budget:     cfg.Budget,
		ConfigPath: configPath,
		Retry: retry.Policy{
			MaxAttempts:       cfg.Retry.MaxAttempts,
			InitialDelay:      initial,
			MaxDelay:          maxDelay,
			BackoffMultiplier: cfg.Retry.BackoffMultiplier,
		},
		Logger:  logger,
		KeyHash: audit.HashAPIKey(cfg.APIKey),
		Version: version,
	}

	if !params.DryRun {
		if cfg.DBPath != "" {
			tr, err := tracker.New(cfg.DBPath)
			if err != nil {
				logger.Warn("history disabled", zap.Error(err))
			} else {
				defer func() { _ = tr.Close() }()
				opts.Tracker = tr
			}
		}
		if cfg.Audit.Enabled {
			al, err := audit.New(cfg.Audit)
			if err != nil {
				logger.Warn("audit disabled", zap.Error(err))
			} else {
				defer func() { _ = al.Close() }()
				opts.Audit = al
			}
		}
	}

	orch, err := batch.New(opts)
	if err != nil {
		return err
	}

	logger.Info("starting batch",
		zap.String("provider", p.Name()),
		zap.String("model", p.Model()),
		zap.String("api_key", logging.RedactKey(cfg.APIKey)),
		zap.Int("count", params.Count),
		zap.String("style", params.Style),
		zap.Bool("dry_run", params.DryRun))

	sum, runErr := orch.Run(ctx, params)
	if sum != nil {
		printDecision(out, sum)
		if sum.Manifest != nil {
			fmt.Fprint(out, formatSummary(sum))
		}
	}
	return runErr
}

func printDecision(out io.Writer, sum *batch.Summary) {
	fmt.Fprintln(out, sum.Report)
	fmt.Fprintln(out)

	var c *color.Color
	switch sum.Decision.Status {
	case models.BudgetExceeded:
		c = color.New(color.FgRed, color.Bold)
	case models.BudgetWarning:
		c = color.New(color.FgYellow)
	default:
		c = color.New(color.FgGreen)
	}
	c.Fprintln(out, sum.Decision.Message)
}

func formatSummary(sum *batch.Summary) string {
	status := "complete"
	switch {
	case sum.AbortedByBudget:
		status = "aborted: running cost estimate reached the budget"
	case sum.Interrupted:
		status = "interrupted"
	case sum.Failed > 0:
		status = "partial"
	}
	return fmt.Sprintf(`
Batch %s
  Run ID:     %s
  Generated:  %d/%d (%d male, %d female)
  Failed:     %d
  Cost:       $%.4f
  Spent now:  $%.4f
  Manifest:   %s
`,
		status, sum.RunID,
		sum.Succeeded, sum.Requested, sum.Manifest.Metadata.MaleCount, sum.Manifest.Metadata.FemaleCount,
		sum.Failed, sum.Cost, sum.SpentAfter, sum.ManifestPath)
}
