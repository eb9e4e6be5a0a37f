package nailgen

import (
	"io/fs"
	"log/slog"
)

// Resolution is the resolver's output: the template (possibly unavailable)
// and the enhanced prompt passed unchanged to every adapter.
type Resolution struct {
	Template    *TemplateHandle
	Prompt      string
	SkinToneHex string
}

// Resolver maps a request to its template and enhanced prompt.
type Resolver struct {
	templates fs.FS
	logger    *slog.Logger
}

// NewResolver creates a Resolver reading templates from the given file system,
// typically os.DirFS(templateBasePath). A nil fs makes every template unavailable.
func NewResolver(templates fs.FS, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{templates: templates, logger: logger}
}

// Resolve loads the template for the request's skin tone and builds the prompt.
// A missing or unreadable template is not an error: the returned handle simply
// has no data, which makes the cascade take the text-only chain.
func (r *Resolver) Resolve(req *GenerationRequest) *Resolution {
	res := &Resolution{
		Template:    &TemplateHandle{},
		Prompt:      EnhancePrompt(req.Prompt, req.SkinToneHex),
		SkinToneHex: req.SkinToneHex,
	}

	name, ok := TemplateFileName(req.SkinTone)
	if !ok {
		r.logger.Warn("template unavailable: unusable skin tone token",
			"skin_tone", req.SkinTone,
		)
		return res
	}
	res.Template.Path = name

	if r.templates == nil {
		r.logger.Warn("template unavailable: no template directory configured", "template", name)
		return res
	}

	data, err := fs.ReadFile(r.templates, name)
	if err != nil {
		r.logger.Warn("template unavailable",
			"template", name,
			"error", err.Error(),
		)
		return res
	}

	handle := &TemplateHandle{Path: name, Data: data, MIMEType: DetectMIMEType(data)}
	if err := ValidateTemplate(handle); err != nil {
		r.logger.Warn("template unavailable: rejected",
			"template", name,
			"error", err.Error(),
		)
		return res
	}

	r.logger.Debug("template loaded", "template", name, "size", len(data))
	res.Template = handle
	return res
}
