package gemini

import (
	"context"
	"io"

	"github.com/mhpenta/nailgen"
	"google.golang.org/genai"
)

// EditAdapter edits the template image with the prompt as instruction.
type EditAdapter struct {
	generator *Generator
}

// TextToImageAdapter generates an image from the prompt alone.
type TextToImageAdapter struct {
	generator *Generator
}

// Ensure the adapters implement nailgen.Adapter and io.Closer.
var (
	_ nailgen.Adapter = (*EditAdapter)(nil)
	_ nailgen.Adapter = (*TextToImageAdapter)(nil)
	_ io.Closer       = (*EditAdapter)(nil)
	_ io.Closer       = (*TextToImageAdapter)(nil)
)

func (a *EditAdapter) Name() string { return nailgen.AdapterGeminiEdit }

func (a *EditAdapter) Capability() nailgen.Capability { return nailgen.CapabilityEdit }

// Close closes the shared generator.
func (a *EditAdapter) Close() error { return a.generator.Close() }

// Attempt sends the template inline, followed by the instruction.
func (a *EditAdapter) Attempt(ctx context.Context, req *nailgen.AttemptRequest) ([]byte, error) {
	if !req.Template.Available() {
		return nil, &nailgen.ProviderError{Adapter: a.Name(), Kind: nailgen.KindPayload, Message: "template image required"}
	}

	parts := []*genai.Part{
		{
			InlineData: &genai.Blob{
				Data:     req.Template.Data,
				MIMEType: req.Template.MIMEType,
			},
		},
		{Text: req.Prompt},
	}
	return a.generator.generate(ctx, a.Name(), parts)
}

func (a *TextToImageAdapter) Name() string { return nailgen.AdapterGeminiTextToImage }

func (a *TextToImageAdapter) Capability() nailgen.Capability { return nailgen.CapabilityTextToImage }

// Close closes the shared generator.
func (a *TextToImageAdapter) Close() error { return a.generator.Close() }

// Attempt sends the prompt as the only part.
func (a *TextToImageAdapter) Attempt(ctx context.Context, req *nailgen.AttemptRequest) ([]byte, error) {
	return a.generator.generate(ctx, a.Name(), []*genai.Part{{Text: req.Prompt}})
}
