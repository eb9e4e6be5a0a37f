package config

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/mhpenta/nailgen"
	"github.com/mhpenta/nailgen/provider/gemini"
	"github.com/mhpenta/nailgen/provider/huggingface"
	"github.com/mhpenta/nailgen/ratelimiter"
)

// BuildAdapters builds every enabled adapter.
func (c *Config) BuildAdapters(ctx context.Context) ([]nailgen.Adapter, error) {
	hf := huggingface.NewDefaultAdapters(huggingface.Options{
		HubToken:          c.HuggingFace.APIToken,
		GatewayToken:      c.HuggingFace.GatewayToken(),
		HubURL:            c.HuggingFace.HubURL,
		GatewayURL:        c.HuggingFace.GatewayURL,
		TextToImageModel:  c.HuggingFace.TextToImageModel,
		ImageToImageModel: c.HuggingFace.ImageToImageModel,
		HTTPClient:        &http.Client{Timeout: c.HuggingFace.RequestTimeout},
	})

	var adapters []nailgen.Adapter
	for _, a := range hf {
		if c.Enabled(a.Name()) {
			adapters = append(adapters, a)
		}
	}

	if c.Gemini.APIKey == "" {
		return adapters, nil
	}

	g, err := gemini.New(ctx, gemini.Config{
		APIKey:  c.Gemini.APIKey,
		Model:   c.Gemini.Model,
		BaseURL: c.Gemini.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini adapters: %w", err)
	}
	for _, a := range g.Adapters() {
		if c.Enabled(a.Name()) {
			adapters = append(adapters, a)
		}
	}
	return adapters, nil
}

// NewCascade builds the cascade described by the configuration. metrics may be nil.
func (c *Config) NewCascade(ctx context.Context, logger *slog.Logger, metrics *nailgen.Metrics) (*nailgen.Cascade, error) {
	if logger == nil {
		logger = slog.Default()
	}

	adapters, err := c.BuildAdapters(ctx)
	if err != nil {
		return nil, err
	}

	opts := []nailgen.CascadeOption{
		nailgen.WithLogger(logger),
		nailgen.WithResolver(nailgen.NewResolver(os.DirFS(filepath.Clean(c.Templates.BasePath)), logger)),
		nailgen.WithPlaceholder(c.placeholder(logger)),
		nailgen.WithAttemptTimeout(c.Cascade.AttemptTimeout),
		nailgen.WithMetrics(metrics),
	}

	if len(c.Cascade.WithTemplate) > 0 || len(c.Cascade.WithoutTemplate) > 0 {
		withTemplate := c.Cascade.WithTemplate
		if len(withTemplate) == 0 {
			withTemplate = enabledOnly(c, nailgen.DefaultTemplateChain)
		}
		withoutTemplate := c.Cascade.WithoutTemplate
		if len(withoutTemplate) == 0 {
			withoutTemplate = enabledOnly(c, nailgen.DefaultTextChain)
		}
		opts = append(opts, nailgen.WithChains(withTemplate, withoutTemplate))
	}

	for name, ac := range c.Adapters {
		if ac.RequestsPerMinute > 0 {
			opts = append(opts, nailgen.WithRateLimiter(name, ratelimiter.New(ac.RequestsPerMinute)))
		}
	}

	return nailgen.NewCascade(adapters, opts...)
}

func (c *Config) placeholder(logger *slog.Logger) *nailgen.LocalPlaceholder {
	if c.Server.PublicDir == "" {
		return nailgen.NewLocalPlaceholder(nil, nil, logger)
	}
	return nailgen.NewLocalPlaceholder(os.DirFS(c.Server.PublicDir), c.Placeholder.Candidates, logger)
}

func enabledOnly(c *Config, names []string) []string {
	var out []string
	for _, name := range names {
		if c.Enabled(name) {
			out = append(out, name)
		}
	}
	return out
}
