package models

import (
	"fmt"
	"time"
)

// Gender selects the subject category of a badge photo.
type Gender string

const (
	Male   Gender = "male"
	Female Gender = "female"
)

// Genders lists every gender in output-directory order.
var Genders = []Gender{Male, Female}

// Dimension is an image size in pixels.
type Dimension struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// IsPortrait reports whether the dimension is portrait or square.
func (d Dimension) IsPortrait() bool {
	return d.Height >= d.Width
}

func (d Dimension) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// GenerationRequest is a single image request sent to a provider.
type GenerationRequest struct {
	Prompt string `json:"prompt"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Style  string `json:"style"`
}

// ImageDimensions records what was asked for and what was produced.
type ImageDimensions struct {
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	RequestedMin string `json:"requestedMin"`
	RequestedMax string `json:"requestedMax"`
	ActualSize   string `json:"actualSize"`
}

// ImageResult describes one generated and saved image.
type ImageResult struct {
	ID          string          `json:"id"`
	Gender      Gender          `json:"gender"`
	Path        string          `json:"path"`
	Dimensions  ImageDimensions `json:"dimensions"`
	Prompt      string          `json:"prompt"`
	Style       string          `json:"style"`
	GeneratedAt time.Time       `json:"generatedAt"`
	Provider    string          `json:"provider"`
	Model       string          `json:"model"`
}

// ManifestMetadata aggregates a batch.
type ManifestMetadata struct {
	TotalCount  int       `json:"totalCount"`
	MaleCount   int       `json:"maleCount"`
	FemaleCount int       `json:"femaleCount"`
	Style       string    `json:"style"`
	Format      string    `json:"format"`
	CostUSD     float64   `json:"costUsd"`
	GeneratedAt time.Time `json:"generatedAt"`
	ToolVersion string    `json:"toolVersion"`
}

// Manifest is the JSON summary written at the end of a batch.
type Manifest struct {
	Metadata ManifestMetadata `json:"metadata"`
	Images   []ImageResult    `json:"images"`
}

// GenerationParams is the resolved input of one batch run.
type GenerationParams struct {
	Count     int
	Style     string
	Format    string
	OutputDir string
	MinSize   string
	MaxSize   string
	DryRun    bool
}
