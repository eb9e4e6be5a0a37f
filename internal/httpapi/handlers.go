package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mhpenta/nailgen"
)

type generateImageResponse struct {
	Image   string `json:"image"`
	Warning string `json:"warning,omitempty"`
}

type designRequest struct {
	SkinTone    string   `json:"skinTone"`
	SkinToneHex string   `json:"skinToneHex"`
	Keywords    []string `json:"keywords"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// GenerateImage handles POST /api/generate-image.
func (s *Server) GenerateImage(w http.ResponseWriter, r *http.Request) {
	var req nailgen.GenerationRequest
	if err := s.decode(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}

	outcome, err := s.generator.Generate(r.Context(), &req)
	if err != nil {
		var vErr *nailgen.ValidationError
		switch {
		case errors.As(err, &vErr) && errors.Is(err, nailgen.ErrEmptyPrompt):
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Prompt is required"})
		case errors.As(err, &vErr):
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: vErr.Error()})
		case r.Context().Err() != nil:
			// The client is gone; nothing can be delivered.
			s.logger.Info("image request abandoned", "error", err.Error())
		default:
			s.logger.Error("image generation failed", "error", err.Error())
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Image generation failed", Details: err.Error()})
		}
		return
	}

	w.Header().Set(ProviderHeader, outcome.ProviderUsed)
	writeJSON(w, http.StatusOK, generateImageResponse{
		Image:   outcome.DataURL(),
		Warning: outcome.Warning(),
	})
}

// GenerateNailDesign handles POST /api/generate-nail-design.
func (s *Server) GenerateNailDesign(w http.ResponseWriter, r *http.Request) {
	var req designRequest
	if err := s.decode(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid data"})
		return
	}

	design, err := nailgen.DesignPrompt(req.SkinTone, req.SkinToneHex, req.Keywords)
	if err != nil {
		s.logger.Debug("invalid design request", "error", err.Error())
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid data"})
		return
	}

	writeJSON(w, http.StatusOK, design)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
