package huggingface

import (
	"net/http"

	"github.com/mhpenta/nailgen"
)

// Instructions used by the specialty edit adapters.
const (
	Pix2PixInstruction    = "Create beautiful nail art only on the white nail area in this image. Do not modify the background. "
	ControlNetInstruction = "Focus only on creating nail art in the white nail area. "
)

// Options configures the full set of Hugging Face adapters.
type Options struct {
	// HubToken authenticates direct model calls.
	HubToken string

	// GatewayToken authenticates inference gateway calls.
	GatewayToken string

	HubURL     string
	GatewayURL string

	// TextToImageModel is used by the gateway and hub text-to-image adapters.
	TextToImageModel string

	// ImageToImageModel is used by the gateway edit adapter.
	ImageToImageModel string

	HTTPClient *http.Client
}

// NewDefaultAdapters builds every Hugging Face adapter named in
// nailgen.DefaultTemplateChain and nailgen.DefaultTextChain.
func NewDefaultAdapters(opts Options) []nailgen.Adapter {
	if opts.TextToImageModel == "" {
		opts.TextToImageModel = ModelSDXL
	}
	if opts.ImageToImageModel == "" {
		opts.ImageToImageModel = ModelSD15
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = DefaultHTTPClient()
	}

	gateway := GatewayConfig{
		APIKey:     opts.GatewayToken,
		BaseURL:    opts.GatewayURL,
		HTTPClient: opts.HTTPClient,
	}
	hub := func(name, model string) HubConfig {
		return HubConfig{
			Name:       name,
			APIKey:     opts.HubToken,
			BaseURL:    opts.HubURL,
			Model:      model,
			HTTPClient: opts.HTTPClient,
		}
	}

	editGateway := gateway
	editGateway.Model = opts.ImageToImageModel
	textGateway := gateway
	textGateway.Model = opts.TextToImageModel

	pix2pix := hub(nailgen.AdapterHubPix2Pix, ModelInstructPix2Pix)
	pix2pix.Instruction = Pix2PixInstruction
	pix2pix.ImageGuidanceScale = 1.5
	pix2pix.GuidanceScale = 7.0

	controlNet := hub(nailgen.AdapterHubControlNet, ModelControlNetCanny)
	controlNet.Instruction = ControlNetInstruction

	return []nailgen.Adapter{
		NewGatewayEdit(editGateway),
		NewGatewayTextToImage(textGateway),
		NewHubTextToImage(hub(nailgen.AdapterHubTextToImage, opts.TextToImageModel)),
		NewHubEdit(pix2pix),
		NewHubEdit(controlNet),
		NewHubTextToImage(hub(nailgen.AdapterHubPhotoreal, ModelDreamlikePhotoreal)),
		NewHubTextToImage(hub(nailgen.AdapterHubOpenjourney, ModelOpenjourney)),
	}
}
