// Package gemini provides cascade adapters backed by Google's Gemini image
// models through the official Go SDK:
// https://github.com/googleapis/go-genai
//
// One Generator holds the client; EditAdapter and TextToImageAdapter expose it
// to the cascade as two adapters so that the text-only chain never receives
// the edit variant.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/mhpenta/nailgen"
	"google.golang.org/genai"
)

const (
	// APIModelFlashImage is the API name for Gemini 2.5 Flash Image.
	APIModelFlashImage = "gemini-2.5-flash-image"

	// DefaultAspectRatio matches the square templates.
	DefaultAspectRatio = "1:1"
)

// Config configures the Gemini generator.
type Config struct {
	// APIKey for the Gemini API. Required.
	APIKey string

	// Model is the API model name (APIModelFlashImage if empty).
	Model string

	// BaseURL overrides the API endpoint (optional)
	BaseURL string

	// AspectRatio of generated images (DefaultAspectRatio if empty)
	AspectRatio string

	HTTPClient *http.Client
}

// Generator wraps a genai client for nail image generation and editing.
type Generator struct {
	client      *genai.Client
	model       string
	aspectRatio string
	closed      atomic.Bool
}

// ErrMissingAPIKey is returned by New when no key is configured.
var ErrMissingAPIKey = errors.New("gemini: API key is required")

// New creates a Generator from a Config.
func New(ctx context.Context, cfg Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	g := &Generator{
		client:      client,
		model:       cfg.Model,
		aspectRatio: cfg.AspectRatio,
	}
	if g.model == "" {
		g.model = APIModelFlashImage
	}
	if g.aspectRatio == "" {
		g.aspectRatio = DefaultAspectRatio
	}
	return g, nil
}

// Adapters returns the edit and text-to-image adapters sharing this client.
func (g *Generator) Adapters() []nailgen.Adapter {
	return []nailgen.Adapter{g.EditAdapter(), g.TextToImageAdapter()}
}

// EditAdapter returns the template-editing adapter.
func (g *Generator) EditAdapter() *EditAdapter {
	return &EditAdapter{generator: g}
}

// TextToImageAdapter returns the prompt-only adapter.
func (g *Generator) TextToImageAdapter() *TextToImageAdapter {
	return &TextToImageAdapter{generator: g}
}

// Close stops the generator. Later attempts fail without calling the API.
// It is safe to call more than once, so each adapter may forward to it.
func (g *Generator) Close() error {
	g.closed.Store(true)
	return nil
}

// generate sends the parts and returns the first image in the response.
func (g *Generator) generate(ctx context.Context, adapter string, parts []*genai.Part) ([]byte, error) {
	if g.closed.Load() {
		return nil, &nailgen.ProviderError{Adapter: adapter, Kind: nailgen.KindTransport, Message: "generator closed"}
	}

	contents := []*genai.Content{{Role: "user", Parts: parts}}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, g.buildGenerateContentConfig())
	if err != nil {
		return nil, classifyError(ctx, adapter, err)
	}

	data, err := parseImage(result)
	if err != nil {
		return nil, &nailgen.ProviderError{Adapter: adapter, Kind: nailgen.KindPayload, Message: err.Error(), Err: err}
	}
	return data, nil
}

// buildGenerateContentConfig requests image output at the configured aspect ratio.
func (g *Generator) buildGenerateContentConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
		ImageConfig: &genai.ImageConfig{
			AspectRatio: g.aspectRatio,
		},
	}
}

// parseImage extracts the first inline image from the response.
func parseImage(result *genai.GenerateContentResponse) ([]byte, error) {
	if result == nil || len(result.Candidates) == 0 {
		return nil, errors.New("empty response from model")
	}

	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData.Data, nil
			}
		}
	}

	candidate := result.Candidates[0]
	if candidate.FinishReason != "" &&
		candidate.FinishReason != genai.FinishReasonUnspecified &&
		candidate.FinishReason != genai.FinishReasonStop {
		return nil, fmt.Errorf("generation stopped: %s", candidate.FinishReason)
	}
	return nil, errors.New("no image data in response")
}

// classifyError maps SDK errors onto nailgen.ProviderError.
func classifyError(ctx context.Context, adapter string, err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		kind := nailgen.KindStatus
		if apiErr.Code == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED" {
			kind = nailgen.KindRateLimited
		}
		return &nailgen.ProviderError{
			Adapter:    adapter,
			StatusCode: apiErr.Code,
			Kind:       kind,
			Message:    apiErr.Message,
			Err:        err,
		}
	}

	kind := nailgen.KindTransport
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = nailgen.KindTimeout
	case errors.Is(err, context.Canceled), ctx.Err() != nil:
		kind = nailgen.KindCanceled
	}
	return &nailgen.ProviderError{Adapter: adapter, Kind: kind, Message: err.Error(), Err: err}
}
