// Package config loads nailgen's configuration.
//
// Values are layered: Default(), then an optional YAML file, then secrets and
// the port from the environment. A loaded Config is treated as immutable.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/mhpenta/nailgen"
	"gopkg.in/yaml.v3"
)

// Environment variables read by Load.
const (
	EnvHubToken     = "HF_API_TOKEN"
	EnvGatewayToken = "HF_API_TOKEN_INFERENCE"
	EnvGeminiAPIKey = "GEMINI_API_KEY"
	EnvPort         = "PORT"
)

// Config is the complete nailgen configuration.
type Config struct {
	Server      ServerConfig             `yaml:"server"`
	Templates   TemplatesConfig          `yaml:"templates"`
	Placeholder PlaceholderConfig        `yaml:"placeholder"`
	Cascade     CascadeConfig            `yaml:"cascade"`
	HuggingFace HuggingFaceConfig        `yaml:"huggingface"`
	Gemini      GeminiConfig             `yaml:"gemini"`
	Adapters    map[string]AdapterConfig `yaml:"adapters"`
	Log         LogConfig                `yaml:"log"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr string `yaml:"addr"`

	// PublicDir holds static files and the sample placeholder images.
	// Empty disables static serving.
	PublicDir string `yaml:"public_dir"`

	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

// TemplatesConfig locates the per-skin-tone nail templates.
type TemplatesConfig struct {
	BasePath string `yaml:"base_path"`
}

// PlaceholderConfig lists the sample images tried before the synthesized one,
// relative to Server.PublicDir. "{template}" expands to the template file name.
type PlaceholderConfig struct {
	Candidates []string `yaml:"candidates"`
}

// CascadeConfig orders the adapters. Empty chains use the built-in defaults
// restricted to the enabled adapters; explicit chains must only name enabled
// adapters.
type CascadeConfig struct {
	AttemptTimeout  time.Duration `yaml:"attempt_timeout"`
	WithTemplate    []string      `yaml:"with_template"`
	WithoutTemplate []string      `yaml:"without_template"`
}

// HuggingFaceConfig configures the gateway and hub adapters.
type HuggingFaceConfig struct {
	// APIToken authenticates direct model (hub) calls.
	APIToken string `yaml:"api_token"`

	// InferenceAPIToken authenticates gateway calls; APIToken is used if empty.
	InferenceAPIToken string `yaml:"inference_api_token"`

	GatewayURL        string        `yaml:"gateway_url"`
	HubURL            string        `yaml:"hub_url"`
	TextToImageModel  string        `yaml:"text_to_image_model"`
	ImageToImageModel string        `yaml:"image_to_image_model"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
}

// GatewayToken returns the token used for gateway calls.
func (h HuggingFaceConfig) GatewayToken() string {
	if h.InferenceAPIToken != "" {
		return h.InferenceAPIToken
	}
	return h.APIToken
}

// GeminiConfig configures the Gemini adapters. They are enabled only when
// APIKey is set.
type GeminiConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

// AdapterConfig holds per-adapter settings keyed by adapter name.
type AdapterConfig struct {
	Disabled bool `yaml:"disabled"`

	// RequestsPerMinute limits attempts across all requests; 0 is unlimited.
	RequestsPerMinute int `yaml:"requests_per_minute"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `yaml:"level"`

	// Format: text or json
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":3000",
			PublicDir:       "public",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    5 * time.Minute,
			ShutdownTimeout: 15 * time.Second,
			MaxBodyBytes:    50 << 20,
		},
		Templates: TemplatesConfig{
			BasePath: "public/templates/files",
		},
		Placeholder: PlaceholderConfig{
			Candidates: slices.Clone(nailgen.DefaultPlaceholderCandidates),
		},
		Cascade: CascadeConfig{
			AttemptTimeout: nailgen.DefaultAttemptTimeout,
		},
		HuggingFace: HuggingFaceConfig{
			RequestTimeout: 2 * time.Minute,
		},
		Adapters: map[string]AdapterConfig{},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the YAML file at path over the defaults, applies environment
// overrides and validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	cfg.applyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides secrets and the listen port from the environment.
func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvHubToken); ok && v != "" {
		c.HuggingFace.APIToken = v
	}
	if v, ok := lookup(EnvGatewayToken); ok && v != "" {
		c.HuggingFace.InferenceAPIToken = v
	}
	if v, ok := lookup(EnvGeminiAPIKey); ok && v != "" {
		c.Gemini.APIKey = v
	}
	if v, ok := lookup(EnvPort); ok && v != "" {
		c.Server.Addr = ":" + strings.TrimPrefix(v, ":")
	}
}

// KnownAdapters lists every adapter name a configuration may refer to.
var KnownAdapters = []string{
	nailgen.AdapterGatewayEdit,
	nailgen.AdapterGatewayTextToImage,
	nailgen.AdapterHubTextToImage,
	nailgen.AdapterHubPix2Pix,
	nailgen.AdapterHubControlNet,
	nailgen.AdapterHubPhotoreal,
	nailgen.AdapterHubOpenjourney,
	nailgen.AdapterGeminiEdit,
	nailgen.AdapterGeminiTextToImage,
}

// ErrUnknownAdapter is returned by Validate for names not in KnownAdapters.
var ErrUnknownAdapter = errors.New("unknown adapter")

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	var errs []error

	if c.Cascade.AttemptTimeout <= 0 {
		errs = append(errs, errors.New("cascade.attempt_timeout must be positive"))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("server.max_body_bytes must be positive"))
	}
	if c.Templates.BasePath == "" {
		errs = append(errs, errors.New("templates.base_path is required"))
	}

	for field, chain := range map[string][]string{
		"cascade.with_template":    c.Cascade.WithTemplate,
		"cascade.without_template": c.Cascade.WithoutTemplate,
	} {
		seen := make(map[string]bool, len(chain))
		for _, name := range chain {
			if !slices.Contains(KnownAdapters, name) {
				errs = append(errs, fmt.Errorf("%s: %w: %q", field, ErrUnknownAdapter, name))
			}
			if seen[name] {
				errs = append(errs, fmt.Errorf("%s: adapter %q listed twice", field, name))
			}
			seen[name] = true
		}
	}

	for name, ac := range c.Adapters {
		if !slices.Contains(KnownAdapters, name) {
			errs = append(errs, fmt.Errorf("adapters: %w: %q", ErrUnknownAdapter, name))
		}
		if ac.RequestsPerMinute < 0 {
			errs = append(errs, fmt.Errorf("adapters.%s.requests_per_minute must not be negative", name))
		}
	}

	if _, err := c.Log.level(); err != nil {
		errs = append(errs, err)
	}
	if f := strings.ToLower(c.Log.Format); f != "text" && f != "json" {
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// Enabled reports whether the named adapter should be registered.
func (c *Config) Enabled(name string) bool {
	if c.Adapters[name].Disabled {
		return false
	}
	switch name {
	case nailgen.AdapterGeminiEdit, nailgen.AdapterGeminiTextToImage:
		return c.Gemini.APIKey != ""
	}
	return true
}
