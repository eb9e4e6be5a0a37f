package huggingface

import (
	"context"
	"net/http"
	"strings"

	"github.com/mhpenta/nailgen"
)

// DefaultEditInstruction is prepended to the prompt for gateway edits.
const DefaultEditInstruction = "Create beautiful nail art only on the white nail area. "

// GatewayConfig configures an inference gateway adapter.
type GatewayConfig struct {
	// Name overrides the adapter name used in chains.
	Name string

	// APIKey is the gateway (inference provider) token.
	APIKey string

	// BaseURL of the OpenAI-compatible API (DefaultGatewayURL if empty)
	BaseURL string

	// Model id sent in the payload
	Model string

	// Size of the output image (DefaultSize if empty)
	Size string

	// Provider routes the request inside the gateway (DefaultGatewayProvider if empty)
	Provider string

	// Instruction is prepended to the prompt by the edit adapter.
	Instruction string

	HTTPClient *http.Client
}

func (cfg GatewayConfig) withDefaults(name, model string) GatewayConfig {
	if cfg.Name == "" {
		cfg.Name = name
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGatewayURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = model
	}
	if cfg.Size == "" {
		cfg.Size = DefaultSize
	}
	if cfg.Provider == "" {
		cfg.Provider = DefaultGatewayProvider
	}
	return cfg
}

type gatewayRequest struct {
	Image    string `json:"image,omitempty"`
	Prompt   string `json:"prompt"`
	Model    string `json:"model"`
	N        int    `json:"n"`
	Size     string `json:"size"`
	Provider string `json:"provider"`
}

// GatewayEdit edits the template through the gateway's /images/edits endpoint.
type GatewayEdit struct {
	cfg    GatewayConfig
	client client
}

// GatewayTextToImage generates through the gateway's /images/generations endpoint.
type GatewayTextToImage struct {
	cfg    GatewayConfig
	client client
}

// Ensure the gateway adapters implement nailgen.Adapter.
var (
	_ nailgen.Adapter = (*GatewayEdit)(nil)
	_ nailgen.Adapter = (*GatewayTextToImage)(nil)
)

// NewGatewayEdit creates the gateway image-edit adapter.
func NewGatewayEdit(cfg GatewayConfig) *GatewayEdit {
	cfg = cfg.withDefaults(nailgen.AdapterGatewayEdit, ModelSD15)
	if cfg.Instruction == "" {
		cfg.Instruction = DefaultEditInstruction
	}
	return &GatewayEdit{cfg: cfg, client: newClient(cfg.Name, cfg.APIKey, cfg.HTTPClient)}
}

func (a *GatewayEdit) Name() string { return a.cfg.Name }

func (a *GatewayEdit) Capability() nailgen.Capability { return nailgen.CapabilityEdit }

// Attempt sends the template as a data URL with the edit instruction.
func (a *GatewayEdit) Attempt(ctx context.Context, req *nailgen.AttemptRequest) ([]byte, error) {
	if !req.Template.Available() {
		return nil, &nailgen.ProviderError{Adapter: a.cfg.Name, Kind: nailgen.KindPayload, Message: "template image required"}
	}
	return a.client.postJSON(ctx, a.cfg.BaseURL+"/images/edits", gatewayRequest{
		Image:    req.Template.DataURL(),
		Prompt:   a.cfg.Instruction + req.Prompt,
		Model:    a.cfg.Model,
		N:        1,
		Size:     a.cfg.Size,
		Provider: a.cfg.Provider,
	})
}

// NewGatewayTextToImage creates the gateway text-to-image adapter.
func NewGatewayTextToImage(cfg GatewayConfig) *GatewayTextToImage {
	cfg = cfg.withDefaults(nailgen.AdapterGatewayTextToImage, ModelSDXL)
	return &GatewayTextToImage{cfg: cfg, client: newClient(cfg.Name, cfg.APIKey, cfg.HTTPClient)}
}

func (a *GatewayTextToImage) Name() string { return a.cfg.Name }

func (a *GatewayTextToImage) Capability() nailgen.Capability { return nailgen.CapabilityTextToImage }

// Attempt requests one image for the prompt.
func (a *GatewayTextToImage) Attempt(ctx context.Context, req *nailgen.AttemptRequest) ([]byte, error) {
	return a.client.postJSON(ctx, a.cfg.BaseURL+"/images/generations", gatewayRequest{
		Prompt:   req.Prompt,
		Model:    a.cfg.Model,
		N:        1,
		Size:     a.cfg.Size,
		Provider: a.cfg.Provider,
	})
}
