package nailgen

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/mhpenta/nailgen/ratelimiter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

var (
	templatePNG = []byte("\x89PNG\r\n\x1a\ntemplate")
	resultPNG   = []byte("\x89PNG\r\n\x1a\nresult")
	samplePNG   = []byte("\x89PNG\r\n\x1a\nsample")
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func templateFS() fstest.MapFS {
	return fstest.MapFS{
		"nail-template-medium.png": {Data: templatePNG},
		"nail-template-light.png":  {Data: templatePNG},
	}
}

func newTestCascade(t *testing.T, adapters []Adapter, opts ...CascadeOption) *Cascade {
	t.Helper()
	base := []CascadeOption{
		WithLogger(discardLogger()),
		WithResolver(NewResolver(templateFS(), discardLogger())),
		WithPlaceholder(NewLocalPlaceholder(nil, nil, discardLogger())),
	}
	c, err := NewCascade(adapters, append(base, opts...)...)
	if err != nil {
		t.Fatalf("NewCascade() error = %v", err)
	}
	return c
}

func TestCascade_FirstSuccess(t *testing.T) {
	edit := failing("edit", CapabilityEdit, 503)
	text := succeeding("text", CapabilityTextToImage, resultPNG)
	never := succeeding("never", CapabilityTextToImage, resultPNG)

	c := newTestCascade(t, []Adapter{edit, text, never},
		WithChains([]string{"edit", "text", "never"}, []string{"text"}),
	)

	outcome, err := c.Generate(context.Background(), &GenerationRequest{
		Prompt:      "floral pattern",
		SkinToneHex: "#f2d5c4",
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if outcome.ProviderUsed != "text" {
		t.Errorf("ProviderUsed = %q, want %q", outcome.ProviderUsed, "text")
	}
	if outcome.Degraded || outcome.Warning() != "" {
		t.Errorf("expected a non-degraded outcome without warning, got %+v", outcome)
	}
	if outcome.MIMEType != "image/png" {
		t.Errorf("MIMEType = %q, want image/png", outcome.MIMEType)
	}
	if outcome.ImageBase64 != base64.StdEncoding.EncodeToString(resultPNG) {
		t.Errorf("unexpected image payload %q", outcome.ImageBase64)
	}
	if len(outcome.Attempts) != 2 {
		t.Fatalf("len(Attempts) = %d, want 2", len(outcome.Attempts))
	}
	if outcome.Attempts[0].Err == nil || outcome.Attempts[1].Err != nil {
		t.Errorf("unexpected attempt errors: %+v", outcome.Attempts)
	}

	if edit.Calls() != 1 || text.Calls() != 1 || never.Calls() != 0 {
		t.Errorf("calls = %d/%d/%d, want 1/1/0", edit.Calls(), text.Calls(), never.Calls())
	}

	// The edit adapter receives the template; the text adapter does not.
	if !edit.LastRequest().Template.Available() {
		t.Error("edit adapter did not receive the template")
	}
	if text.LastRequest().Template != nil {
		t.Error("text adapter received a template")
	}
	if edit.LastRequest().Prompt != text.LastRequest().Prompt {
		t.Error("adapters received different prompts")
	}
	if !strings.Contains(text.LastRequest().Prompt, "#f2d5c4") {
		t.Errorf("prompt %q does not carry the skin tone hex", text.LastRequest().Prompt)
	}
}

func TestCascade_AllFailDegrades(t *testing.T) {
	a := failing("a", CapabilityEdit, 500)
	b := failing("b", CapabilityTextToImage, 503)

	c := newTestCascade(t, []Adapter{a, b}, WithChains([]string{"a", "b"}, []string{"b"}))

	outcome, err := c.Generate(context.Background(), &GenerationRequest{Prompt: "stripes"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if !outcome.Degraded {
		t.Error("expected degraded outcome")
	}
	if outcome.ProviderUsed != ProviderPlaceholder {
		t.Errorf("ProviderUsed = %q, want %q", outcome.ProviderUsed, ProviderPlaceholder)
	}
	if !strings.Contains(outcome.Warning(), "unavailable") {
		t.Errorf("Warning() = %q, want it to mention unavailability", outcome.Warning())
	}
	if outcome.MIMEType != "image/svg+xml" {
		t.Errorf("MIMEType = %q, want image/svg+xml", outcome.MIMEType)
	}

	data, err := base64.StdEncoding.DecodeString(outcome.ImageBase64)
	if err != nil {
		t.Fatalf("placeholder payload is not base64: %v", err)
	}
	if !strings.Contains(string(data), "Mock Nail Image") {
		t.Error("placeholder is not the synthesized image")
	}
	if !strings.HasPrefix(outcome.DataURL(), "data:image/svg+xml;base64,") {
		t.Errorf("DataURL() = %q", outcome.DataURL()[:40])
	}
	if len(outcome.Attempts) != 2 {
		t.Errorf("len(Attempts) = %d, want 2", len(outcome.Attempts))
	}
}

func TestCascade_TemplateUnavailable(t *testing.T) {
	edit := succeeding("edit", CapabilityEdit, resultPNG)
	text1 := failing("text1", CapabilityTextToImage, 503)
	text2 := succeeding("text2", CapabilityTextToImage, resultPNG)

	c := newTestCascade(t, []Adapter{edit, text1, text2},
		// Edit adapters listed in the text chain are dropped.
		WithChains([]string{"edit", "text1", "text2"}, []string{"edit", "text1", "text2"}),
		WithResolver(NewResolver(fstest.MapFS{}, discardLogger())),
	)

	if got := c.Chain(false); len(got) != 2 || got[0] != "text1" || got[1] != "text2" {
		t.Errorf("Chain(false) = %v, want [text1 text2]", got)
	}

	outcome, err := c.Generate(context.Background(), &GenerationRequest{Prompt: "glitter", SkinTone: "olive"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if outcome.ProviderUsed != "text2" {
		t.Errorf("ProviderUsed = %q, want text2", outcome.ProviderUsed)
	}
	if edit.Calls() != 0 {
		t.Errorf("edit adapter called %d times without a template", edit.Calls())
	}
}

func TestCascade_InvalidSkinToneUsesTextChain(t *testing.T) {
	edit := succeeding("edit", CapabilityEdit, resultPNG)
	text := succeeding("text", CapabilityTextToImage, resultPNG)

	c := newTestCascade(t, []Adapter{edit, text}, WithChains([]string{"edit", "text"}, []string{"text"}))

	outcome, err := c.Generate(context.Background(), &GenerationRequest{Prompt: "p", SkinTone: "../../etc/passwd"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if outcome.ProviderUsed != "text" || edit.Calls() != 0 {
		t.Errorf("expected text chain, got provider %q and %d edit calls", outcome.ProviderUsed, edit.Calls())
	}
}

func TestCascade_EndToEndDegraded(t *testing.T) {
	var (
		mu    sync.Mutex
		order []string
	)
	record := func(name string, capability Capability) *MockAdapter {
		return &MockAdapter{
			NameValue:       name,
			CapabilityValue: capability,
			AttemptFunc: func(ctx context.Context, req *AttemptRequest) ([]byte, error) {
				mu.Lock()
				order = append(order, name)
				mu.Unlock()
				return nil, &ProviderError{Adapter: name, StatusCode: 503, Kind: KindStatus, Message: "Service Unavailable"}
			},
		}
	}

	adapters := []Adapter{
		record(AdapterGatewayEdit, CapabilityEdit),
		record(AdapterGatewayTextToImage, CapabilityTextToImage),
		record(AdapterHubTextToImage, CapabilityTextToImage),
		record(AdapterHubPix2Pix, CapabilityEdit),
		record(AdapterHubControlNet, CapabilityEdit),
		record(AdapterHubPhotoreal, CapabilityTextToImage),
		record(AdapterHubOpenjourney, CapabilityTextToImage),
	}
	assets := fstest.MapFS{"sample-nail.png": {Data: samplePNG}}

	c := newTestCascade(t, adapters, WithPlaceholder(NewLocalPlaceholder(assets, nil, discardLogger())))

	outcome, err := c.Generate(context.Background(), &GenerationRequest{
		Prompt:      "floral pattern",
		SkinTone:    "light",
		SkinToneHex: "#f2d5c4",
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	want := []string{
		AdapterGatewayEdit,
		AdapterGatewayTextToImage,
		AdapterHubTextToImage,
		AdapterHubPix2Pix,
		AdapterHubControlNet,
		AdapterHubPhotoreal,
		AdapterHubOpenjourney,
	}
	if strings.Join(order, ",") != strings.Join(want, ",") {
		t.Errorf("attempt order = %v, want %v", order, want)
	}
	if !outcome.Degraded || outcome.Warning() != DegradedWarning {
		t.Errorf("expected degraded outcome with warning, got %+v", outcome)
	}
	if outcome.ImageBase64 != base64.StdEncoding.EncodeToString(samplePNG) {
		t.Error("expected the sample image from disk")
	}
	if !strings.HasPrefix(outcome.DataURL(), "data:image/png;base64,") {
		t.Errorf("DataURL() has unexpected prefix")
	}
}

func TestCascade_CancellationSkipsPlaceholder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := failing("first", CapabilityTextToImage, 503)
	second := &MockAdapter{
		NameValue:       "second",
		CapabilityValue: CapabilityTextToImage,
		AttemptFunc: func(ctx context.Context, req *AttemptRequest) ([]byte, error) {
			cancel()
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	third := succeeding("third", CapabilityTextToImage, resultPNG)
	placeholder := &MockPlaceholder{}

	c := newTestCascade(t, []Adapter{first, second, third},
		WithChains([]string{"first", "second", "third"}, []string{"first", "second", "third"}),
		WithPlaceholder(placeholder),
	)

	outcome, err := c.Generate(ctx, &GenerationRequest{Prompt: "p"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Generate() error = %v, want context.Canceled", err)
	}
	if outcome != nil {
		t.Errorf("expected no outcome, got %+v", outcome)
	}
	if third.Calls() != 0 {
		t.Error("cascade continued after cancellation")
	}
	if placeholder.Calls() != 0 {
		t.Error("placeholder invoked after cancellation")
	}
}

func TestCascade_CanceledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := succeeding("a", CapabilityTextToImage, resultPNG)
	placeholder := &MockPlaceholder{}
	c := newTestCascade(t, []Adapter{a}, WithChains([]string{"a"}, []string{"a"}), WithPlaceholder(placeholder))

	if _, err := c.Generate(ctx, &GenerationRequest{Prompt: "p"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("Generate() error = %v, want context.Canceled", err)
	}
	if a.Calls() != 0 || placeholder.Calls() != 0 {
		t.Error("nothing should run on a canceled context")
	}
}

func TestCascade_PlaceholderError(t *testing.T) {
	tests := []struct {
		name string
		fn   func(ctx context.Context, skinTone string) (*Image, error)
	}{
		{
			name: "error",
			fn: func(ctx context.Context, skinTone string) (*Image, error) {
				return nil, errors.New("no space left on device")
			},
		},
		{
			name: "empty image",
			fn: func(ctx context.Context, skinTone string) (*Image, error) {
				return &Image{}, nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := failing("a", CapabilityTextToImage, 500)
			c := newTestCascade(t, []Adapter{a},
				WithChains([]string{"a"}, []string{"a"}),
				WithPlaceholder(&MockPlaceholder{GenerateFunc: tt.fn}),
			)

			_, err := c.Generate(context.Background(), &GenerationRequest{Prompt: "p"})
			var pErr *PlaceholderError
			if !errors.As(err, &pErr) {
				t.Fatalf("Generate() error = %v, want *PlaceholderError", err)
			}
		})
	}
}

func TestCascade_Validation(t *testing.T) {
	tests := []struct {
		name    string
		req     *GenerationRequest
		wantErr error
	}{
		{name: "nil request", req: nil, wantErr: ErrEmptyPrompt},
		{name: "empty prompt", req: &GenerationRequest{}, wantErr: ErrEmptyPrompt},
		{name: "whitespace prompt", req: &GenerationRequest{Prompt: "  \n"}, wantErr: ErrEmptyPrompt},
		{name: "bad hex", req: &GenerationRequest{Prompt: "p", SkinToneHex: "f2d5c4"}, wantErr: ErrInvalidHex},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := succeeding("a", CapabilityTextToImage, resultPNG)
			placeholder := &MockPlaceholder{}
			c := newTestCascade(t, []Adapter{a}, WithChains([]string{"a"}, []string{"a"}), WithPlaceholder(placeholder))

			_, err := c.Generate(context.Background(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Generate() error = %v, want %v", err, tt.wantErr)
			}
			if !IsValidationError(err) {
				t.Errorf("expected a ValidationError, got %T", err)
			}
			if a.Calls() != 0 || placeholder.Calls() != 0 {
				t.Error("nothing should run for an invalid request")
			}
		})
	}
}

func TestCascade_AttemptTimeout(t *testing.T) {
	slow := &MockAdapter{
		NameValue:       "slow",
		CapabilityValue: CapabilityTextToImage,
		AttemptFunc: func(ctx context.Context, req *AttemptRequest) ([]byte, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	fast := succeeding("fast", CapabilityTextToImage, resultPNG)

	c := newTestCascade(t, []Adapter{slow, fast},
		WithChains([]string{"slow", "fast"}, []string{"slow", "fast"}),
		WithAttemptTimeout(20*time.Millisecond),
	)

	outcome, err := c.Generate(context.Background(), &GenerationRequest{Prompt: "p"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if outcome.ProviderUsed != "fast" {
		t.Errorf("ProviderUsed = %q, want fast", outcome.ProviderUsed)
	}

	var pErr *ProviderError
	if !errors.As(outcome.Attempts[0].Err, &pErr) || pErr.Kind != KindTimeout {
		t.Errorf("first attempt error = %v, want a timeout ProviderError", outcome.Attempts[0].Err)
	}
}

func TestCascade_EmptyAndPlainErrors(t *testing.T) {
	empty := succeeding("empty", CapabilityTextToImage, nil)
	plain := &MockAdapter{
		NameValue:       "plain",
		CapabilityValue: CapabilityTextToImage,
		AttemptFunc: func(ctx context.Context, req *AttemptRequest) ([]byte, error) {
			return nil, errors.New("connection reset by peer")
		},
	}
	ok := succeeding("ok", CapabilityTextToImage, resultPNG)

	c := newTestCascade(t, []Adapter{empty, plain, ok},
		WithChains([]string{"empty", "plain", "ok"}, []string{"empty", "plain", "ok"}),
	)

	outcome, err := c.Generate(context.Background(), &GenerationRequest{Prompt: "p"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	wantKinds := []ErrorKind{KindPayload, KindTransport}
	for i, want := range wantKinds {
		var pErr *ProviderError
		if !errors.As(outcome.Attempts[i].Err, &pErr) {
			t.Fatalf("attempt %d error = %v, want ProviderError", i, outcome.Attempts[i].Err)
		}
		if pErr.Kind != want || pErr.Adapter != outcome.Attempts[i].Adapter {
			t.Errorf("attempt %d = %+v, want kind %s", i, pErr, want)
		}
	}
}

func TestCascade_RateLimiterAdvances(t *testing.T) {
	limited := succeeding("limited", CapabilityTextToImage, resultPNG)
	backup := succeeding("backup", CapabilityTextToImage, resultPNG)

	c := newTestCascade(t, []Adapter{limited, backup},
		WithChains([]string{"limited", "backup"}, []string{"limited", "backup"}),
		WithRateLimiter("limited", ratelimiter.New(1)),
	)

	first, err := c.Generate(context.Background(), &GenerationRequest{Prompt: "p"})
	if err != nil {
		t.Fatalf("first Generate() error = %v", err)
	}
	if first.ProviderUsed != "limited" {
		t.Errorf("first ProviderUsed = %q, want limited", first.ProviderUsed)
	}

	second, err := c.Generate(context.Background(), &GenerationRequest{Prompt: "p"})
	if err != nil {
		t.Fatalf("second Generate() error = %v", err)
	}
	if second.ProviderUsed != "backup" {
		t.Errorf("second ProviderUsed = %q, want backup", second.ProviderUsed)
	}
	if limited.Calls() != 1 {
		t.Errorf("limited adapter called %d times, want 1", limited.Calls())
	}

	denied := second.Attempts[0].Err
	if !IsRateLimitError(denied) {
		t.Errorf("denied attempt error = %v, want RateLimitError", denied)
	}
	var pErr *ProviderError
	if !errors.As(denied, &pErr) || pErr.Kind != KindRateLimited {
		t.Errorf("denied attempt error = %v, want rate_limited ProviderError", denied)
	}
}

func TestCascade_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}

	bad := failing("bad", CapabilityTextToImage, 503)
	good := succeeding("good", CapabilityTextToImage, resultPNG)
	c := newTestCascade(t, []Adapter{bad, good},
		WithChains([]string{"bad", "good"}, []string{"bad", "good"}),
		WithMetrics(metrics),
	)

	if _, err := c.Generate(context.Background(), &GenerationRequest{Prompt: "p"}); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if got := testutil.ToFloat64(metrics.attempts.WithLabelValues("bad", outcomeFailure)); got != 1 {
		t.Errorf("bad failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.attempts.WithLabelValues("good", outcomeSuccess)); got != 1 {
		t.Errorf("good successes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.outcomes.WithLabelValues("good", "false")); got != 1 {
		t.Errorf("outcomes = %v, want 1", got)
	}

	if _, err := NewMetrics(reg); err == nil {
		t.Error("registering the collectors twice should fail")
	}
}

func TestNewCascade_Chains(t *testing.T) {
	a := succeeding(AdapterHubTextToImage, CapabilityTextToImage, resultPNG)
	b := succeeding(AdapterGatewayEdit, CapabilityEdit, resultPNG)

	t.Run("defaults skip unregistered adapters", func(t *testing.T) {
		c := newTestCascade(t, []Adapter{a, b})
		if got := c.Chain(true); strings.Join(got, ",") != AdapterGatewayEdit+","+AdapterHubTextToImage {
			t.Errorf("Chain(true) = %v", got)
		}
		if got := c.Chain(false); strings.Join(got, ",") != AdapterHubTextToImage {
			t.Errorf("Chain(false) = %v", got)
		}
	})

	t.Run("explicit unknown adapter", func(t *testing.T) {
		_, err := NewCascade([]Adapter{a}, WithChains([]string{"nope"}, nil))
		if !errors.Is(err, ErrAdapterNotRegistered) {
			t.Errorf("NewCascade() error = %v, want ErrAdapterNotRegistered", err)
		}
	})

	t.Run("duplicate adapter", func(t *testing.T) {
		_, err := NewCascade([]Adapter{a, a})
		if !errors.Is(err, ErrDuplicateAdapter) {
			t.Errorf("NewCascade() error = %v, want ErrDuplicateAdapter", err)
		}
	})
}

func TestCascade_Close(t *testing.T) {
	closed := false
	closer := &ClosingAdapter{MockAdapter{
		NameValue:       "closer",
		CapabilityValue: CapabilityTextToImage,
		CloseFunc: func() error {
			closed = true
			return nil
		},
	}}

	c := newTestCascade(t, []Adapter{closer, succeeding("other", CapabilityTextToImage, resultPNG)})
	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !closed {
		t.Error("adapter was not closed")
	}
}
