package provider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pario-ai/badgeshot/pkg/models"
)

const (
	StabilityName          = "stability"
	StabilityDefaultURL    = "https://api.stability.ai"
	StabilityDefaultEngine = "stable-diffusion-xl-1024-v1-0"
	StabilityDefaultCost   = 0.04

	maxErrorBody = 4 << 10
)

// SDXL only accepts these sizes.
var stabilitySizes = []models.Dimension{
	{Width: 1024, Height: 1024},
	{Width: 1152, Height: 896},
	{Width: 896, Height: 1152},
	{Width: 1216, Height: 832},
	{Width: 832, Height: 1216},
	{Width: 1344, Height: 768},
	{Width: 768, Height: 1344},
	{Width: 1536, Height: 640},
	{Width: 640, Height: 1536},
}

// StabilityOptions configures a Stability backend. Zero values take defaults.
type StabilityOptions struct {
	APIKey            string
	BaseURL           string
	Engine            string
	CostPerImage      float64
	Timeout           time.Duration
	RequestsPerMinute int
	Steps             int
	CFGScale          float64
	HTTPClient        *http.Client
}

// Stability calls the Stability AI v1 text-to-image endpoint.
type Stability struct {
	opts    StabilityOptions
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewStability creates a Stability backend. An empty APIKey is accepted so
// cost estimates work in dry runs; GenerateImage then fails as unauthorized.
func NewStability(opts StabilityOptions, logger *zap.Logger) *Stability {
	if opts.BaseURL == "" {
		opts.BaseURL = StabilityDefaultURL
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.Engine == "" {
		opts.Engine = StabilityDefaultEngine
	}
	if opts.CostPerImage == 0 {
		opts.CostPerImage = StabilityDefaultCost
	}
	if opts.Steps == 0 {
		opts.Steps = 30
	}
	if opts.CFGScale == 0 {
		opts.CFGScale = 7
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	s := &Stability{opts: opts, client: client, logger: logger}
	if opts.RequestsPerMinute > 0 {
		s.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), 1)
	}
	return s
}

func (s *Stability) Name() string  { return StabilityName }
func (s *Stability) Model() string { return s.opts.Engine }

func (s *Stability) EstimateCost(count int) float64 {
	return float64(count) * s.opts.CostPerImage
}

func (s *Stability) SupportedDimensions() []models.Dimension {
	out := make([]models.Dimension, len(stabilitySizes))
	copy(out, stabilitySizes)
	return out
}

type textPrompt struct {
	Text   string  `json:"text"`
	Weight float64 `json:"weight"`
}

type stabilityRequest struct {
	TextPrompts []textPrompt `json:"text_prompts"`
	CFGScale    float64      `json:"cfg_scale"`
	Height      int          `json:"height"`
	Width       int          `json:"width"`
	Samples     int          `json:"samples"`
	Steps       int          `json:"steps"`
}

type stabilityArtifact struct {
	Base64       string `json:"base64"`
	Seed         int64  `json:"seed"`
	FinishReason string `json:"finishReason"`
}

type stabilityResponse struct {
	Artifacts []stabilityArtifact `json:"artifacts"`
}

type stabilityErrorBody struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// GenerateImage requests a single sample at the requested size.
func (s *Stability) GenerateImage(ctx context.Context, req models.GenerationRequest) (*Result, error) {
	if s.opts.APIKey == "" {
		return nil, errNoKey
	}
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, transportError(err)
		}
	}

	body, err := json.Marshal(stabilityRequest{
		TextPrompts: []textPrompt{{Text: req.Prompt, Weight: 1}},
		CFGScale:    s.opts.CFGScale,
		Height:      req.Height,
		Width:       req.Width,
		Samples:     1,
		Steps:       s.opts.Steps,
	})
	if err != nil {
		return nil, fmt.Errorf("stability: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/generation/%s/text-to-image", s.opts.BaseURL, s.opts.Engine)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("stability: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.opts.APIKey)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := strings.TrimSpace(string(raw))
		var eb stabilityErrorBody
		if json.Unmarshal(raw, &eb) == nil && eb.Message != "" {
			msg = eb.Message
		}
		s.logger.Debug("stability request failed",
			zap.Int("status", resp.StatusCode),
			zap.String("message", msg))
		return nil, &Error{Kind: Classify(resp.StatusCode), StatusCode: resp.StatusCode, Body: msg}
	}

	var out stabilityResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &Error{Kind: KindUnknown, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(out.Artifacts) == 0 {
		return nil, &Error{Kind: KindUnknown, StatusCode: resp.StatusCode, Body: "no artifacts in response"}
	}

	art := out.Artifacts[0]
	if art.FinishReason == "CONTENT_FILTERED" {
		return nil, &Error{Kind: KindInvalidRequest, StatusCode: resp.StatusCode, Body: "content filtered"}
	}
	img, err := base64.StdEncoding.DecodeString(art.Base64)
	if err != nil {
		return nil, &Error{Kind: KindUnknown, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode artifact: %w", err)}
	}

	return &Result{
		Image:    img,
		MIMEType: "image/png",
		Width:    req.Width,
		Height:   req.Height,
		Seed:     art.Seed,
		Provider: StabilityName,
		Model:    s.opts.Engine,
	}, nil
}
