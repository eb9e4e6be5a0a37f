package nailgen

// Adapter names used in chain configuration.
const (
	AdapterGatewayEdit        = "gateway-edit"
	AdapterGatewayTextToImage = "gateway-text-to-image"
	AdapterHubTextToImage     = "hub-text-to-image"
	AdapterHubPix2Pix         = "hub-pix2pix"
	AdapterHubControlNet      = "hub-controlnet"
	AdapterHubPhotoreal       = "hub-photoreal"
	AdapterHubOpenjourney     = "hub-openjourney"
	AdapterGeminiEdit         = "gemini-edit"
	AdapterGeminiTextToImage  = "gemini-text-to-image"
)

// DefaultTemplateChain is tried when a template is available: template-aware
// models first, generic text-only models last.
var DefaultTemplateChain = []string{
	AdapterGatewayEdit,
	AdapterGatewayTextToImage,
	AdapterHubTextToImage,
	AdapterHubPix2Pix,
	AdapterHubControlNet,
	AdapterHubPhotoreal,
	AdapterHubOpenjourney,
	AdapterGeminiEdit,
	AdapterGeminiTextToImage,
}

// DefaultTextChain is tried when no template is available.
var DefaultTextChain = []string{
	AdapterHubTextToImage,
	AdapterHubPhotoreal,
	AdapterHubOpenjourney,
	AdapterGeminiTextToImage,
}
