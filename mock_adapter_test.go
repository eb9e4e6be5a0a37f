package nailgen

import (
	"context"
	"sync"
)

// MockAdapter is a mock implementation of Adapter.
type MockAdapter struct {
	NameValue       string
	CapabilityValue Capability
	AttemptFunc     func(ctx context.Context, req *AttemptRequest) ([]byte, error)
	CloseFunc       func() error

	mu       sync.Mutex
	calls    int
	requests []*AttemptRequest
}

func (m *MockAdapter) Name() string { return m.NameValue }

func (m *MockAdapter) Capability() Capability { return m.CapabilityValue }

func (m *MockAdapter) Attempt(ctx context.Context, req *AttemptRequest) ([]byte, error) {
	m.mu.Lock()
	m.calls++
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.AttemptFunc != nil {
		return m.AttemptFunc(ctx, req)
	}
	return []byte("\x89PNG\r\n\x1a\nmock"), nil
}

func (m *MockAdapter) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockAdapter) LastRequest() *AttemptRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return nil
	}
	return m.requests[len(m.requests)-1]
}

// ClosingAdapter is a MockAdapter that also implements io.Closer.
type ClosingAdapter struct {
	MockAdapter
}

func (m *ClosingAdapter) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// MockPlaceholder is a mock implementation of Placeholder.
type MockPlaceholder struct {
	GenerateFunc func(ctx context.Context, skinTone string) (*Image, error)

	mu    sync.Mutex
	calls int
}

func (m *MockPlaceholder) Generate(ctx context.Context, skinTone string) (*Image, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, skinTone)
	}
	return SynthesizePlaceholder(), nil
}

func (m *MockPlaceholder) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func failing(name string, capability Capability, status int) *MockAdapter {
	return &MockAdapter{
		NameValue:       name,
		CapabilityValue: capability,
		AttemptFunc: func(ctx context.Context, req *AttemptRequest) ([]byte, error) {
			return nil, &ProviderError{Adapter: name, StatusCode: status, Kind: KindStatus, Message: "unavailable"}
		},
	}
}

func succeeding(name string, capability Capability, data []byte) *MockAdapter {
	return &MockAdapter{
		NameValue:       name,
		CapabilityValue: capability,
		AttemptFunc: func(ctx context.Context, req *AttemptRequest) ([]byte, error) {
			return data, nil
		},
	}
}
