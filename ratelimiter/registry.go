package ratelimiter

import "sync"

// Registry maps adapter names to limiters.
type Registry struct {
	limiters map[string]Limiter
	mu       sync.RWMutex
}

// NewRegistry creates an empty in-memory registry.
func NewRegistry() *Registry {
	return &Registry{limiters: make(map[string]Limiter)}
}

// Get returns the limiter for an adapter. Adapters without one are unlimited.
func (r *Registry) Get(adapter string) (Limiter, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	limiter, ok := r.limiters[adapter]
	return limiter, ok
}

// Set registers a limiter for an adapter, replacing any previous one.
func (r *Registry) Set(adapter string, limiter Limiter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.limiters[adapter] = limiter
}
