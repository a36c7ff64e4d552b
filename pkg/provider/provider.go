// Package provider defines the image backend contract used by the batch
// orchestrator and its concrete Stability and OpenAI implementations.
package provider

import (
	"context"

	"github.com/pario-ai/badgeshot/pkg/models"
)

// Provider generates one image per call.
//
// Implementations own their transport timeouts and do not write files.
type Provider interface {
	Name() string
	Model() string
	GenerateImage(ctx context.Context, req models.GenerationRequest) (*Result, error)
	// EstimateCost returns the expected USD charge for count images.
	EstimateCost(count int) float64
	// SupportedDimensions lists the sizes the backend accepts, in preference order.
	SupportedDimensions() []models.Dimension
}

// Result is a decoded image as returned by a backend.
type Result struct {
	Image    []byte
	MIMEType string
	Width    int
	Height   int
	Seed     int64
	Provider string
	Model    string
}
