package nailgen

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/mhpenta/nailgen/ratelimiter"
)

// Cascade walks an ordered list of adapters until one produces an image,
// falling back to a local placeholder when all of them fail.
type Cascade struct {
	// Registered adapters by name
	adapters map[string]Adapter

	// Configured order for each request shape
	templateOrder  []string
	textOrder      []string
	explicitChains bool

	// Resolved chains
	templateChain []Adapter
	textChain     []Adapter

	resolver    *Resolver
	placeholder Placeholder

	// Per-adapter request limits (optional)
	limiters *ratelimiter.Registry

	// Prometheus collectors (optional)
	metrics *Metrics

	logger *slog.Logger

	attemptTimeout time.Duration
}

// Chain returns the adapter names tried for the given request shape.
func (c *Cascade) Chain(templateAvailable bool) []string {
	chain := c.selectChain(templateAvailable)
	names := make([]string, len(chain))
	for i, a := range chain {
		names[i] = a.Name()
	}
	return names
}

// Generate runs the cascade for one request.
//
// It returns a *ValidationError for malformed requests, the context error if
// ctx is done before an image is obtained, and a *PlaceholderError only if
// the local fallback fails. Adapter failures are logged and never returned.
func (c *Cascade) Generate(ctx context.Context, req *GenerationRequest) (*CascadeOutcome, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	start := time.Now()
	res := c.resolver.Resolve(req)
	templateAvailable := res.Template.Available()
	chain := c.selectChain(templateAvailable)

	c.logger.Debug("starting cascade",
		"template", res.Template.Path,
		"template_available", templateAvailable,
		"chain_length", len(chain),
		"prompt_length", len(res.Prompt),
	)

	outcome := &CascadeOutcome{}
	for _, adapter := range chain {
		if err := ctx.Err(); err != nil {
			return nil, c.abandon(err, outcome)
		}

		data, record := c.attempt(ctx, adapter, res)
		outcome.Attempts = append(outcome.Attempts, record)

		if record.Err == nil {
			img := NewImage(data)
			outcome.ImageBase64 = base64.StdEncoding.EncodeToString(img.Data)
			outcome.MIMEType = img.MIMEType
			outcome.ProviderUsed = adapter.Name()

			c.logger.Info("cascade completed",
				"provider", adapter.Name(),
				"attempts", len(outcome.Attempts),
				"duration_ms", time.Since(start).Milliseconds(),
			)
			c.metrics.observeOutcome(outcome)
			return outcome, nil
		}

		if err := ctx.Err(); err != nil {
			return nil, c.abandon(err, outcome)
		}
	}

	c.logger.Warn("cascade exhausted, using placeholder",
		"attempts", len(outcome.Attempts),
		"duration_ms", time.Since(start).Milliseconds(),
		"error", exhaustedError(outcome.Attempts).Error(),
	)

	return c.degrade(ctx, req, outcome)
}

// selectChain picks the chain for the request shape.
func (c *Cascade) selectChain(templateAvailable bool) []Adapter {
	if templateAvailable {
		return c.templateChain
	}
	return c.textChain
}

// attempt runs one adapter under the attempt timeout and classifies its failure.
func (c *Cascade) attempt(ctx context.Context, adapter Adapter, res *Resolution) ([]byte, AttemptRecord) {
	name := adapter.Name()
	record := AttemptRecord{Adapter: name}

	if limiter, ok := c.limiters.Get(name); ok && !limiter.TryAcquire() {
		record.Err = &ProviderError{
			Adapter: name,
			Kind:    KindRateLimited,
			Message: "request limit reached",
			Err:     &RateLimitError{Adapter: name, RetryAfter: limiter.TimeUntilAvailable()},
		}
		c.logger.Warn("adapter skipped", "adapter", name, "error", record.Err.Error())
		c.metrics.observeAttempt(name, outcomeRateLimited, 0)
		return nil, record
	}

	attemptReq := &AttemptRequest{Prompt: res.Prompt, SkinToneHex: res.SkinToneHex}
	if adapter.Capability() == CapabilityEdit {
		attemptReq.Template = res.Template
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
	defer cancel()

	start := time.Now()
	data, err := adapter.Attempt(attemptCtx, attemptReq)
	record.Duration = time.Since(start)

	if err == nil && len(data) == 0 {
		err = &ProviderError{Adapter: name, Kind: KindPayload, Message: "empty image"}
	}
	if err != nil {
		record.Err = classify(ctx, name, err)
		c.logger.Warn("adapter attempt failed",
			"adapter", name,
			"duration_ms", record.Duration.Milliseconds(),
			"error", record.Err.Error(),
		)
		c.metrics.observeAttempt(name, outcomeFailure, record.Duration)
		return nil, record
	}

	c.metrics.observeAttempt(name, outcomeSuccess, record.Duration)
	return data, record
}

// degrade serves the placeholder after the chain is exhausted.
func (c *Cascade) degrade(ctx context.Context, req *GenerationRequest, outcome *CascadeOutcome) (*CascadeOutcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, c.abandon(err, outcome)
	}

	img, err := c.placeholder.Generate(ctx, req.SkinTone)
	if err == nil && (img == nil || len(img.Data) == 0) {
		err = errors.New("placeholder returned no image")
	}
	if err != nil {
		c.logger.Error("placeholder failed", "error", err.Error())
		return nil, &PlaceholderError{Err: err}
	}

	outcome.ImageBase64 = base64.StdEncoding.EncodeToString(img.Data)
	outcome.MIMEType = img.MIMEType
	if outcome.MIMEType == "" {
		outcome.MIMEType = DetectMIMEType(img.Data)
	}
	outcome.ProviderUsed = ProviderPlaceholder
	outcome.Degraded = true

	c.metrics.observeOutcome(outcome)
	return outcome, nil
}

func (c *Cascade) abandon(err error, outcome *CascadeOutcome) error {
	c.logger.Info("cascade abandoned by caller",
		"attempts", len(outcome.Attempts),
		"error", err.Error(),
	)
	return fmt.Errorf("cascade abandoned: %w", err)
}

// Close releases adapter resources for adapters that hold any.
func (c *Cascade) Close() error {
	var errs []error
	for name, a := range c.adapters {
		if closer, ok := a.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, fmt.Errorf("closing %s: %w", name, err))
			}
		}
	}
	return errors.Join(errs...)
}

// classify turns any adapter error into a *ProviderError.
func classify(parent context.Context, adapter string, err error) *ProviderError {
	var pErr *ProviderError
	if errors.As(err, &pErr) {
		return pErr
	}

	kind := KindTransport
	switch {
	case parent.Err() != nil:
		kind = KindCanceled
	case errors.Is(err, context.DeadlineExceeded):
		kind = KindTimeout
	case errors.Is(err, context.Canceled):
		kind = KindCanceled
	}
	return &ProviderError{Adapter: adapter, Kind: kind, Message: err.Error(), Err: err}
}

// exhaustedError joins every attempt error under ErrCascadeExhausted.
func exhaustedError(attempts []AttemptRecord) error {
	errs := []error{ErrCascadeExhausted}
	for _, a := range attempts {
		if a.Err != nil {
			errs = append(errs, a.Err)
		}
	}
	return errors.Join(errs...)
}
