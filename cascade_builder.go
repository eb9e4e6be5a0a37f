package nailgen

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mhpenta/nailgen/ratelimiter"
)

// DefaultAttemptTimeout bounds a single adapter attempt.
const DefaultAttemptTimeout = 30 * time.Second

var (
	// ErrAdapterNotRegistered is returned when a chain names an unknown adapter.
	ErrAdapterNotRegistered = errors.New("adapter not registered")

	// ErrDuplicateAdapter is returned when two adapters share a name.
	ErrDuplicateAdapter = errors.New("duplicate adapter name")
)

// CascadeOption configures the Cascade.
type CascadeOption func(*Cascade)

// WithLogger sets a structured logger for the cascade.
func WithLogger(logger *slog.Logger) CascadeOption {
	return func(c *Cascade) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithResolver sets the template/prompt resolver.
func WithResolver(resolver *Resolver) CascadeOption {
	return func(c *Cascade) {
		c.resolver = resolver
	}
}

// WithPlaceholder sets the local fallback used when every adapter fails.
func WithPlaceholder(placeholder Placeholder) CascadeOption {
	return func(c *Cascade) {
		c.placeholder = placeholder
	}
}

// WithChains sets the adapter order for requests with and without a template.
// Every name must belong to a registered adapter.
func WithChains(withTemplate, withoutTemplate []string) CascadeOption {
	return func(c *Cascade) {
		c.templateOrder = withTemplate
		c.textOrder = withoutTemplate
		c.explicitChains = true
	}
}

// WithAttemptTimeout bounds each adapter attempt.
func WithAttemptTimeout(d time.Duration) CascadeOption {
	return func(c *Cascade) {
		c.attemptTimeout = d
	}
}

// WithMetrics records attempts and outcomes in Prometheus collectors.
func WithMetrics(metrics *Metrics) CascadeOption {
	return func(c *Cascade) {
		c.metrics = metrics
	}
}

// WithRateLimiter limits how often one adapter is attempted across requests.
func WithRateLimiter(adapter string, limiter ratelimiter.Limiter) CascadeOption {
	return func(c *Cascade) {
		if c.limiters == nil {
			c.limiters = ratelimiter.NewRegistry()
		}
		c.limiters.Set(adapter, limiter)
	}
}

// NewCascade creates a Cascade over the given adapters.
//
// Example:
//
//	cascade, err := nailgen.NewCascade(adapters,
//	    nailgen.WithResolver(nailgen.NewResolver(os.DirFS("public/templates/files"), logger)),
//	    nailgen.WithPlaceholder(nailgen.NewLocalPlaceholder(os.DirFS("public"), nil, logger)),
//	    nailgen.WithAttemptTimeout(20*time.Second),
//	)
//
// Without WithChains, DefaultTemplateChain and DefaultTextChain are used,
// restricted to the adapters actually registered.
func NewCascade(adapters []Adapter, opts ...CascadeOption) (*Cascade, error) {
	c := &Cascade{
		adapters:       make(map[string]Adapter, len(adapters)),
		logger:         slog.Default(),
		attemptTimeout: DefaultAttemptTimeout,
		templateOrder:  DefaultTemplateChain,
		textOrder:      DefaultTextChain,
	}

	for _, a := range adapters {
		if _, exists := c.adapters[a.Name()]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateAdapter, a.Name())
		}
		c.adapters[a.Name()] = a
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.resolver == nil {
		c.resolver = NewResolver(nil, c.logger)
	}
	if c.placeholder == nil {
		c.placeholder = NewLocalPlaceholder(nil, nil, c.logger)
	}
	if c.attemptTimeout <= 0 {
		c.attemptTimeout = DefaultAttemptTimeout
	}

	var err error
	if c.templateChain, err = c.buildChain(c.templateOrder, false); err != nil {
		return nil, fmt.Errorf("template chain: %w", err)
	}
	if c.textChain, err = c.buildChain(c.textOrder, true); err != nil {
		return nil, fmt.Errorf("text chain: %w", err)
	}

	return c, nil
}

// buildChain resolves names to adapters. Edit adapters are dropped from
// text-only chains since they cannot run without a template.
func (c *Cascade) buildChain(names []string, textOnly bool) ([]Adapter, error) {
	chain := make([]Adapter, 0, len(names))
	for _, name := range names {
		a, ok := c.adapters[name]
		if !ok {
			if c.explicitChains {
				return nil, fmt.Errorf("%w: %s", ErrAdapterNotRegistered, name)
			}
			continue
		}
		if textOnly && a.Capability() == CapabilityEdit {
			c.logger.Debug("skipping edit adapter in text-only chain", "adapter", name)
			continue
		}
		chain = append(chain, a)
	}
	return chain, nil
}
