package nailgen

import "time"

// ProviderPlaceholder is reported as ProviderUsed for degraded outcomes.
const ProviderPlaceholder = "placeholder"

// DegradedWarning is returned to callers alongside a placeholder image.
const DegradedWarning = "API services unavailable. Using mock image for development."

// CascadeOutcome is the result of one pass through the cascade.
type CascadeOutcome struct {
	// ImageBase64 is the base64 payload without a data URL prefix.
	ImageBase64 string

	// MIMEType of the decoded image
	MIMEType string

	// ProviderUsed is the adapter name, or ProviderPlaceholder
	ProviderUsed string

	// Degraded is true iff every remote adapter failed and the placeholder was used.
	Degraded bool

	// Attempts lists every adapter tried, in order.
	Attempts []AttemptRecord
}

// DataURL returns the image as a data URL. The media type is the sniffed
// MIMEType rather than a fixed image/png, so the synthesized placeholder
// renders as data:image/svg+xml and JPEG backends as data:image/jpeg.
func (o *CascadeOutcome) DataURL() string {
	return "data:" + o.MIMEType + ";base64," + o.ImageBase64
}

// Warning returns DegradedWarning for degraded outcomes and "" otherwise.
func (o *CascadeOutcome) Warning() string {
	if o.Degraded {
		return DegradedWarning
	}
	return ""
}

// AttemptRecord describes one adapter attempt.
type AttemptRecord struct {
	Adapter  string
	Duration time.Duration
	Err      error // nil for the successful attempt
}
