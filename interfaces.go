package nailgen

import "context"

// Capability tags what an adapter's backend does with a request.
type Capability int

const (
	// CapabilityTextToImage adapters need only a prompt.
	CapabilityTextToImage Capability = iota
	// CapabilityEdit adapters need a template image plus edit instructions.
	CapabilityEdit
)

func (c Capability) String() string {
	switch c {
	case CapabilityEdit:
		return "edit"
	case CapabilityTextToImage:
		return "text-to-image"
	default:
		return "unknown"
	}
}

// Adapter wraps exactly one external image-generation backend.
// Implement this interface to add a backend to the cascade.
type Adapter interface {
	// Name identifies the adapter in chain configuration, logs and outcomes.
	Name() string

	// Capability reports whether the adapter edits a template or generates from text.
	Capability() Capability

	// Attempt performs one call against the backend and returns raw image bytes.
	// Any non-success outcome must be reported as a *ProviderError.
	// Attempt never retries.
	Attempt(ctx context.Context, req *AttemptRequest) ([]byte, error)
}

// Placeholder produces the local fallback image once every remote adapter failed.
type Placeholder interface {
	Generate(ctx context.Context, skinTone string) (*Image, error)
}
