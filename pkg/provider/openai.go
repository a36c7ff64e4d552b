package provider

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/pario-ai/badgeshot/pkg/models"
)

const (
	OpenAIName         = "openai"
	OpenAIDefaultModel = openai.CreateImageModelDallE3
	OpenAIDefaultCost  = 0.08
)

var openAISizes = []models.Dimension{
	{Width: 1024, Height: 1024},
	{Width: 1024, Height: 1792},
	{Width: 1792, Height: 1024},
}

// OpenAIOptions configures an OpenAI images backend.
type OpenAIOptions struct {
	APIKey       string
	BaseURL      string
	Model        string
	CostPerImage float64
	Timeout      time.Duration
}

// OpenAI generates images through the OpenAI images API.
type OpenAI struct {
	client *openai.Client
	opts   OpenAIOptions
	logger *zap.Logger
}

// NewOpenAI creates an OpenAI backend.
func NewOpenAI(opts OpenAIOptions, logger *zap.Logger) *OpenAI {
	if opts.Model == "" {
		opts.Model = OpenAIDefaultModel
	}
	if opts.CostPerImage == 0 {
		opts.CostPerImage = OpenAIDefaultCost
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cc := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cc.BaseURL = opts.BaseURL
	}
	cc.HTTPClient = &http.Client{Timeout: opts.Timeout}

	return &OpenAI{client: openai.NewClientWithConfig(cc), opts: opts, logger: logger}
}

func (o *OpenAI) Name() string  { return OpenAIName }
func (o *OpenAI) Model() string { return o.opts.Model }

func (o *OpenAI) EstimateCost(count int) float64 {
	return float64(count) * o.opts.CostPerImage
}

func (o *OpenAI) SupportedDimensions() []models.Dimension {
	out := make([]models.Dimension, len(openAISizes))
	copy(out, openAISizes)
	return out
}

// GenerateImage requests one base64-encoded image.
func (o *OpenAI) GenerateImage(ctx context.Context, req models.GenerationRequest) (*Result, error) {
	if o.opts.APIKey == "" {
		return nil, errNoKey
	}
	size := models.Dimension{Width: req.Width, Height: req.Height}.String()
	resp, err := o.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         req.Prompt,
		Model:          o.opts.Model,
		N:              1,
		Size:           size,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		o.logger.Debug("openai image request failed", zap.Error(err))
		return nil, openAIError(err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, &Error{Kind: KindUnknown, Body: "no image data in response"}
	}

	img, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, &Error{Kind: KindUnknown, Err: fmt.Errorf("decode image: %w", err)}
	}
	return &Result{
		Image:    img,
		MIMEType: "image/png",
		Width:    req.Width,
		Height:   req.Height,
		Provider: OpenAIName,
		Model:    o.opts.Model,
	}, nil
}

func openAIError(err error) *Error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &Error{Kind: Classify(apiErr.HTTPStatusCode), StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &Error{Kind: Classify(reqErr.HTTPStatusCode), StatusCode: reqErr.HTTPStatusCode, Err: reqErr.Err}
	}
	return transportError(err)
}
