package nailgen

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Validation errors
var (
	ErrEmptyPrompt     = errors.New("prompt cannot be empty")
	ErrInvalidHex      = errors.New("skin tone hex must look like #rgb or #rrggbb")
	ErrEmptyImageData  = errors.New("image data cannot be empty")
	ErrInvalidMIMEType = errors.New("invalid or unsupported MIME type")
	ErrImageTooLarge   = errors.New("image data exceeds maximum size")
	ErrInvalidSkinTone = errors.New("skin tone is required")
	ErrInvalidKeywords = errors.New("exactly three keywords are required")
)

const (
	// MaxImageSize is the maximum allowed template size in bytes (20MB)
	MaxImageSize = 20 * 1024 * 1024

	// DesignKeywordCount is the number of keywords a nail design takes.
	DesignKeywordCount = 3
)

// ValidMIMETypes contains the supported template MIME types
var ValidMIMETypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

var hexColorPattern = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ValidatePrompt validates a text prompt.
func ValidatePrompt(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return ErrEmptyPrompt
	}
	return nil
}

// ValidateRequest checks a GenerationRequest before any adapter is invoked.
func ValidateRequest(req *GenerationRequest) error {
	if req == nil {
		return &ValidationError{Field: "prompt", Err: ErrEmptyPrompt}
	}
	if err := ValidatePrompt(req.Prompt); err != nil {
		return &ValidationError{Field: "prompt", Err: err}
	}
	if req.SkinToneHex != "" && !hexColorPattern.MatchString(req.SkinToneHex) {
		return &ValidationError{Field: "skinToneHex", Err: fmt.Errorf("%w: %q", ErrInvalidHex, req.SkinToneHex)}
	}
	return nil
}

// ValidateTemplate validates template bytes loaded from disk.
func ValidateTemplate(t *TemplateHandle) error {
	if !t.Available() {
		return ErrEmptyImageData
	}
	if len(t.Data) > MaxImageSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrImageTooLarge, len(t.Data), MaxImageSize)
	}
	if !ValidMIMETypes[t.MIMEType] {
		return fmt.Errorf("%w: %s", ErrInvalidMIMEType, t.MIMEType)
	}
	return nil
}

// ValidateDesignRequest validates the inputs of a nail design prompt.
func ValidateDesignRequest(skinTone, skinToneHex string, keywords []string) error {
	if strings.TrimSpace(skinTone) == "" {
		return &ValidationError{Field: "skinTone", Err: ErrInvalidSkinTone}
	}
	if !hexColorPattern.MatchString(skinToneHex) {
		return &ValidationError{Field: "skinToneHex", Err: ErrInvalidHex}
	}
	if len(keywords) != DesignKeywordCount {
		return &ValidationError{Field: "keywords", Err: fmt.Errorf("%w: got %d", ErrInvalidKeywords, len(keywords))}
	}
	return nil
}
