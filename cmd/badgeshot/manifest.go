package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pario-ai/badgeshot/pkg/manifest"
	"github.com/pario-ai/badgeshot/pkg/models"
)

func newManifestCmd() *cobra.Command {
	var verify bool

	cmd := &cobra.Command{
		Use:   "manifest [DIR]",
		Short: "Summarize the manifest.json of an output directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "./output"
			if len(args) == 1 {
				dir = args[0]
			}
			m, err := manifest.Read(filepath.Join(dir, manifest.FileName))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatManifest(m))

			if !verify {
				return nil
			}
			missing := missingImages(m)
			for _, p := range missing {
				fmt.Fprintf(cmd.OutOrStdout(), "missing: %s\n", p)
			}
			if len(missing) > 0 {
				return fmt.Errorf("%d of %d images missing", len(missing), len(m.Images))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "All %d images present.\n", len(m.Images))
			return nil
		},
	}

	cmd.Flags().BoolVar(&verify, "verify", false, "check that every listed image file exists")
	return cmd
}

func formatManifest(m *models.Manifest) string {
	md := m.Metadata
	var b strings.Builder
	fmt.Fprintf(&b, "Images:     %d (%d male, %d female)\n", md.TotalCount, md.MaleCount, md.FemaleCount)
	fmt.Fprintf(&b, "Style:      %s, %s\n", md.Style, md.Format)
	fmt.Fprintf(&b, "Cost:       $%.4f\n", md.CostUSD)
	fmt.Fprintf(&b, "Generated:  %s (badgeshot %s)\n", md.GeneratedAt.Local().Format("2006-01-02 15:04:05"), md.ToolVersion)

	sizes := map[string]int{}
	var order []string
	for _, img := range m.Images {
		s := img.Dimensions.ActualSize
		if sizes[s] == 0 {
			order = append(order, s)
		}
		sizes[s]++
	}
	for _, s := range order {
		fmt.Fprintf(&b, "  %-10s %d\n", s, sizes[s])
	}
	return b.String()
}

func missingImages(m *models.Manifest) []string {
	var missing []string
	for _, img := range m.Images {
		if _, err := os.Stat(img.Path); err != nil {
			missing = append(missing, img.Path)
		}
	}
	return missing
}
