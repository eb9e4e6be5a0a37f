package huggingface

import (
	"context"
	"net/http"
	"strings"

	"github.com/mhpenta/nailgen"
)

// HubConfig configures a direct model endpoint adapter.
type HubConfig struct {
	// Name overrides the adapter name used in chains.
	Name string

	// APIKey is the hub token.
	APIKey string

	// BaseURL of the model endpoints (DefaultHubURL if empty)
	BaseURL string

	// Model id appended to BaseURL
	Model string

	// Instruction is prepended to the prompt by edit adapters.
	Instruction string

	// ImageGuidanceScale and GuidanceScale are sent by edit adapters when non-zero.
	ImageGuidanceScale float64
	GuidanceScale      float64

	HTTPClient *http.Client
}

func (cfg HubConfig) endpoint() string {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultHubURL
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(cfg.Model, "/")
}

type hubOptions struct {
	WaitForModel bool `json:"wait_for_model"`
	UseGPU       bool `json:"use_gpu,omitempty"`
}

type hubTextRequest struct {
	Inputs  string     `json:"inputs"`
	Options hubOptions `json:"options"`
}

type hubEditInputs struct {
	Image              string   `json:"image"`
	Prompt             string   `json:"prompt"`
	ImageGuidanceScale *float64 `json:"image_guidance_scale,omitempty"`
	GuidanceScale      *float64 `json:"guidance_scale,omitempty"`
}

type hubEditRequest struct {
	Inputs hubEditInputs `json:"inputs"`
}

// HubTextToImage calls a text-to-image model directly and reads the binary body.
type HubTextToImage struct {
	cfg    HubConfig
	client client
}

// HubEdit calls an image-to-image model directly with the template and prompt.
type HubEdit struct {
	cfg    HubConfig
	client client
}

// Ensure the hub adapters implement nailgen.Adapter.
var (
	_ nailgen.Adapter = (*HubTextToImage)(nil)
	_ nailgen.Adapter = (*HubEdit)(nil)
)

// NewHubTextToImage creates a direct text-to-image adapter. Name and Model
// default to the SDXL adapter.
func NewHubTextToImage(cfg HubConfig) *HubTextToImage {
	if cfg.Name == "" {
		cfg.Name = nailgen.AdapterHubTextToImage
	}
	if cfg.Model == "" {
		cfg.Model = ModelSDXL
	}
	return &HubTextToImage{cfg: cfg, client: newClient(cfg.Name, cfg.APIKey, cfg.HTTPClient)}
}

func (a *HubTextToImage) Name() string { return a.cfg.Name }

func (a *HubTextToImage) Capability() nailgen.Capability { return nailgen.CapabilityTextToImage }

// Attempt asks the model to load if cold and waits for the image.
func (a *HubTextToImage) Attempt(ctx context.Context, req *nailgen.AttemptRequest) ([]byte, error) {
	return a.client.postJSON(ctx, a.cfg.endpoint(), hubTextRequest{
		Inputs:  req.Prompt,
		Options: hubOptions{WaitForModel: true, UseGPU: true},
	})
}

// NewHubEdit creates a direct image-to-image adapter. Name and Model default
// to instruct-pix2pix.
func NewHubEdit(cfg HubConfig) *HubEdit {
	if cfg.Name == "" {
		cfg.Name = nailgen.AdapterHubPix2Pix
	}
	if cfg.Model == "" {
		cfg.Model = ModelInstructPix2Pix
	}
	return &HubEdit{cfg: cfg, client: newClient(cfg.Name, cfg.APIKey, cfg.HTTPClient)}
}

func (a *HubEdit) Name() string { return a.cfg.Name }

func (a *HubEdit) Capability() nailgen.Capability { return nailgen.CapabilityEdit }

// Attempt sends the template data URL, the instruction-prefixed prompt and
// any configured guidance scales.
func (a *HubEdit) Attempt(ctx context.Context, req *nailgen.AttemptRequest) ([]byte, error) {
	if !req.Template.Available() {
		return nil, &nailgen.ProviderError{Adapter: a.cfg.Name, Kind: nailgen.KindPayload, Message: "template image required"}
	}

	inputs := hubEditInputs{
		Image:  req.Template.DataURL(),
		Prompt: a.cfg.Instruction + req.Prompt,
	}
	if a.cfg.ImageGuidanceScale > 0 {
		inputs.ImageGuidanceScale = &a.cfg.ImageGuidanceScale
	}
	if a.cfg.GuidanceScale > 0 {
		inputs.GuidanceScale = &a.cfg.GuidanceScale
	}
	return a.client.postJSON(ctx, a.cfg.endpoint(), hubEditRequest{Inputs: inputs})
}
