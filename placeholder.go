package nailgen

import (
	"context"
	"io/fs"
	"log/slog"
	"strings"
)

// TemplateToken in a placeholder candidate path is replaced with the
// template file name for the request's skin tone.
const TemplateToken = "{template}"

// DefaultPlaceholderCandidates are searched, in order, relative to the public
// asset directory.
var DefaultPlaceholderCandidates = []string{
	"sample-nail.png",
	"templates/files/" + TemplateToken,
	"assets/sample-nail.png",
}

// placeholderSVG is a nail-shaped rounded rectangle on a two-stop gradient.
const placeholderSVG = `<svg width="300" height="300" xmlns="http://www.w3.org/2000/svg">
  <defs>
    <linearGradient id="nailGradient" x1="0%" y1="0%" x2="100%" y2="100%">
      <stop offset="0%" style="stop-color:#ff9eb5;stop-opacity:1" />
      <stop offset="100%" style="stop-color:#d471e5;stop-opacity:1" />
    </linearGradient>
  </defs>
  <g>
    <rect x="75" y="50" rx="60" ry="120" width="150" height="220" fill="url(#nailGradient)" />
    <text x="150" y="150" font-family="Arial" font-size="12" text-anchor="middle" fill="white">API Unavailable</text>
    <text x="150" y="170" font-family="Arial" font-size="12" text-anchor="middle" fill="white">Mock Nail Image</text>
  </g>
</svg>`

// LocalPlaceholder serves a sample image from disk, or a synthesized SVG
// when none is found. It never fails.
type LocalPlaceholder struct {
	assets     fs.FS
	candidates []string
	logger     *slog.Logger
}

var _ Placeholder = (*LocalPlaceholder)(nil)

// NewLocalPlaceholder creates a placeholder searching candidates in assets.
// A nil assets fs skips straight to the synthesized image; nil candidates
// means DefaultPlaceholderCandidates.
func NewLocalPlaceholder(assets fs.FS, candidates []string, logger *slog.Logger) *LocalPlaceholder {
	if candidates == nil {
		candidates = DefaultPlaceholderCandidates
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalPlaceholder{assets: assets, candidates: candidates, logger: logger}
}

// Generate returns the first readable candidate image, or the synthesized SVG.
func (p *LocalPlaceholder) Generate(_ context.Context, skinTone string) (*Image, error) {
	for _, path := range p.candidatePaths(skinTone) {
		data, err := fs.ReadFile(p.assets, path)
		if err != nil {
			p.logger.Debug("placeholder candidate not usable", "path", path, "error", err.Error())
			continue
		}
		if len(data) == 0 {
			continue
		}
		p.logger.Info("using sample image as placeholder", "path", path)
		return NewImage(data), nil
	}

	p.logger.Info("no sample images found, synthesizing placeholder")
	return SynthesizePlaceholder(), nil
}

func (p *LocalPlaceholder) candidatePaths(skinTone string) []string {
	if p.assets == nil {
		return nil
	}
	paths := make([]string, 0, len(p.candidates))
	for _, c := range p.candidates {
		if strings.Contains(c, TemplateToken) {
			name, ok := TemplateFileName(skinTone)
			if !ok {
				continue
			}
			c = strings.ReplaceAll(c, TemplateToken, name)
		}
		if !fs.ValidPath(c) {
			continue
		}
		paths = append(paths, c)
	}
	return paths
}

// SynthesizePlaceholder returns the built-in vector placeholder.
func SynthesizePlaceholder() *Image {
	return &Image{Data: []byte(placeholderSVG), MIMEType: "image/svg+xml"}
}
