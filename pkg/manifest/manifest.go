// Package manifest assembles and writes the per-batch manifest.json.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pario-ai/badgeshot/pkg/models"
)

// FileName is the manifest's name inside the output directory.
const FileName = "manifest.json"

// Build aggregates results into a Manifest.
func Build(results []models.ImageResult, style, format string, cost float64, version string, now time.Time) models.Manifest {
	meta := models.ManifestMetadata{
		TotalCount:  len(results),
		Style:       style,
		Format:      format,
		CostUSD:     cost,
		GeneratedAt: now.UTC(),
		ToolVersion: version,
	}
	for _, r := range results {
		switch r.Gender {
		case models.Male:
			meta.MaleCount++
		case models.Female:
			meta.FemaleCount++
		}
	}
	images := results
	if images == nil {
		images = []models.ImageResult{}
	}
	return models.Manifest{Metadata: meta, Images: images}
}

// Write saves m as indented JSON to <outputDir>/manifest.json, replacing any
// existing file, and returns the path written.
func Write(outputDir string, m models.Manifest) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode manifest: %w", err)
	}
	path := filepath.Join(outputDir, FileName)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}
	return path, nil
}

// Read loads a manifest written by Write.
func Read(path string) (*models.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m models.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}
