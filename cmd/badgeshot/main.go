package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/pario-ai/badgeshot/pkg/config"
)

var version = "dev"

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "badgeshot",
		Short:         "badgeshot: budget-aware batch generator for synthetic badge photos",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newGenerateCmd(),
		newBudgetCmd(),
		newHistoryCmd(),
		newCostCmd(),
		newAuditCmd(),
		newStylesCmd(),
		newSizesCmd(),
		newInitCmd(),
		newManifestCmd(),
	)
	return root
}

// loadConfig reads the config file that generate and budget commands depend on.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w (run 'badgeshot init' to create %s)", err, path)
		}
		return nil, err
	}
	return cfg, nil
}

// loadConfigOrDefault is for read-only commands that can run without a file.
func loadConfigOrDefault(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return config.Default(), nil
	}
	return config.Load(path)
}
