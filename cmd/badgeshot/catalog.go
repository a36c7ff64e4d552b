package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pario-ai/badgeshot/pkg/config"
	"github.com/pario-ai/badgeshot/pkg/prompt"
	"github.com/pario-ai/badgeshot/pkg/provider"
)

func newStylesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "styles",
		Short: "List the available art styles",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "STYLE\tPROMPT")
			for _, s := range prompt.Styles() {
				t, _ := prompt.Template(s)
				fmt.Fprintf(w, "%s\t%s\n", s, t)
			}
			return w.Flush()
		},
	}
}

func newSizesCmd() *cobra.Command {
	var configPath, providerName string

	cmd := &cobra.Command{
		Use:   "sizes",
		Short: "List the image sizes the configured provider supports",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfigOrDefault(configPath)
			if err != nil {
				return err
			}
			if providerName != "" {
				cfg.Provider.Name = providerName
			}
			p, err := provider.New(cfg, nil)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "SIZE\tORIENTATION\t(%s, $%.4f/image)\n", p.Name(), p.EstimateCost(1))
			for _, d := range p.SupportedDimensions() {
				orient := "landscape"
				switch {
				case d.Width == d.Height:
					orient = "square"
				case d.IsPortrait():
					orient = "portrait"
				}
				fmt.Fprintf(w, "%s\t%s\t\n", d, orient)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to config file")
	cmd.Flags().StringVar(&providerName, "provider", "", "provider to list (default: provider.name)")
	return cmd
}

func newInitCmd() *cobra.Command {
	var (
		configPath string
		force      bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(configPath); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", configPath)
			}
			if err := config.Save(configPath, config.Default()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s. Set apiKey or export %s before generating.\n",
				configPath, config.EnvStabilityKey)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to config file")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
