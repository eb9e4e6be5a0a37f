// Package httpapi exposes the cascade over HTTP.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mhpenta/nailgen"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultMaxBodyBytes caps JSON request bodies.
const DefaultMaxBodyBytes = 50 << 20

// ProviderHeader reports which adapter (or "placeholder") produced the image.
const ProviderHeader = "X-Nailgen-Provider"

// Generator produces an image for a request.
type Generator interface {
	Generate(ctx context.Context, req *nailgen.GenerationRequest) (*nailgen.CascadeOutcome, error)
}

// Options configures the handler.
type Options struct {
	// PublicDir is served at / when set.
	PublicDir string

	// MaxBodyBytes caps request bodies (DefaultMaxBodyBytes if zero)
	MaxBodyBytes int64

	// Gatherer is exposed at /metrics when set.
	Gatherer prometheus.Gatherer

	Logger *slog.Logger
}

// Server holds the handler dependencies.
type Server struct {
	generator    Generator
	logger       *slog.Logger
	maxBodyBytes int64
}

// NewHandler creates the HTTP handler for the generator.
func NewHandler(generator Generator, opts Options) http.Handler {
	s := &Server{
		generator:    generator,
		logger:       opts.Logger,
		maxBodyBytes: opts.MaxBodyBytes,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.maxBodyBytes <= 0 {
		s.maxBodyBytes = DefaultMaxBodyBytes
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(cors)

	r.Route("/api", func(r chi.Router) {
		r.Post("/generate-image", s.GenerateImage)
		r.Post("/generate-nail-design", s.GenerateNailDesign)
	})

	// Old clients posted to the root paths.
	r.Post("/generate-image", redirect("/api/generate-image"))
	r.Post("/generate-nail-design", redirect("/api/generate-nail-design"))

	if opts.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	if opts.PublicDir != "" {
		r.Handle("/*", http.FileServer(http.FS(os.DirFS(opts.PublicDir))))
	}

	return r
}

func redirect(target string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target, http.StatusTemporaryRedirect)
	}
}

// cors allows any origin, as browsers call the API from the static UI and
// from local development servers.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET,HEAD,PUT,PATCH,POST,DELETE")
		if reqHeaders := r.Header.Get("Access-Control-Request-Headers"); reqHeaders != "" {
			h.Set("Access-Control-Allow-Headers", reqHeaders)
			h.Add("Vary", "Access-Control-Request-Headers")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
