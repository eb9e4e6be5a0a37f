package nailgen

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// DefaultSkinTone is used when a request carries no skin tone.
const DefaultSkinTone = "medium"

// GenerationRequest is the inbound request for one nail-art image.
type GenerationRequest struct {
	// Prompt describes the design. It must be non-empty.
	Prompt string `json:"prompt"`

	// SkinTone selects the template (e.g. "light", "medium", "deep").
	// Empty means DefaultSkinTone.
	SkinTone string `json:"skinTone,omitempty"`

	// SkinToneHex is the skin color embedded in the prompt (e.g. "#f2d5c4").
	SkinToneHex string `json:"skinToneHex,omitempty"`
}

// TemplateHandle is a base nail image used by edit adapters.
// A handle with no Data is valid and means "no template available".
type TemplateHandle struct {
	Path     string
	Data     []byte
	MIMEType string
}

// Available reports whether template bytes were loaded.
func (t *TemplateHandle) Available() bool {
	return t != nil && len(t.Data) > 0
}

// DataURL returns the template as a data URL, the form most edit endpoints expect.
func (t *TemplateHandle) DataURL() string {
	if !t.Available() {
		return ""
	}
	return EncodeDataURL(t.MIMEType, t.Data)
}

// AttemptRequest is what an adapter receives for a single attempt.
type AttemptRequest struct {
	// Prompt is the enhanced prompt, identical for every adapter in the chain.
	Prompt string

	// SkinToneHex is passed through for adapters that take a color parameter.
	SkinToneHex string

	// Template is set only when the template chain is running.
	Template *TemplateHandle
}

// Image is an encoded image with its content type.
type Image struct {
	Data     []byte
	MIMEType string
}

// NewImage wraps raw bytes, sniffing the content type.
func NewImage(data []byte) *Image {
	return &Image{Data: data, MIMEType: DetectMIMEType(data)}
}

// DetectMIMEType sniffs image bytes. SVG documents are recognized explicitly
// since http.DetectContentType reports them as text.
func DetectMIMEType(data []byte) string {
	mime := http.DetectContentType(data)
	if strings.HasPrefix(mime, "image/") {
		return mime
	}
	head := strings.TrimSpace(string(data[:min(len(data), 512)]))
	if strings.HasPrefix(head, "<svg") || (strings.HasPrefix(head, "<?xml") && strings.Contains(head, "<svg")) {
		return "image/svg+xml"
	}
	return "image/png"
}

// EncodeDataURL renders bytes as a base64 data URL.
func EncodeDataURL(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = "image/png"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURL extracts the payload of a base64 data URL.
// It returns the MIME type and decoded bytes.
func DecodeDataURL(dataURL string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return "", nil, errors.New("not a data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, errors.New("data URL has no payload")
	}
	mimeType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return "", nil, errors.New("data URL is not base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("invalid base64: %w", err)
	}
	return mimeType, data, nil
}
