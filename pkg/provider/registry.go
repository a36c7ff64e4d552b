package provider

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/pario-ai/badgeshot/pkg/config"
)

// Names lists the backends New can build.
func Names() []string {
	return []string{StabilityName, OpenAIName}
}

// New builds the backend named by cfg.Provider.Name.
func New(cfg *config.Config, logger *zap.Logger) (Provider, error) {
	pc := cfg.Provider
	switch pc.Name {
	case "", StabilityName:
		return NewStability(StabilityOptions{
			APIKey:            cfg.APIKey,
			BaseURL:           pc.BaseURL,
			Engine:            pc.Model,
			CostPerImage:      pc.CostPerImage,
			Timeout:           pc.Timeout,
			RequestsPerMinute: pc.RequestsPerMinute,
			Steps:             pc.Steps,
			CFGScale:          pc.CFGScale,
		}, logger), nil
	case OpenAIName:
		return NewOpenAI(OpenAIOptions{
			APIKey:       cfg.APIKey,
			BaseURL:      pc.BaseURL,
			Model:        pc.Model,
			CostPerImage: pc.CostPerImage,
			Timeout:      pc.Timeout,
		}, logger), nil
	default:
		return nil, fmt.Errorf("unknown provider %q (available: %v)", pc.Name, Names())
	}
}
