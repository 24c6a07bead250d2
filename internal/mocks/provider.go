package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/phrazzld/scry-tutor/internal/generation"
)

// ProviderResponse is one scripted reply of a MockProvider.
type ProviderResponse struct {
	Text string
	Err  error
}

// MockProvider implements generation.Provider for testing.
//
// Replies are taken from CompleteFn when set, otherwise from Script in order (the last
// entry repeats once the script is exhausted), otherwise from Text/Err.
type MockProvider struct {
	NameValue     string
	EndpointValue string

	CompleteFn func(ctx context.Context, req generation.Request) (string, error)
	Script     []ProviderResponse

	// Default response values
	Text string
	Err  error

	// Call tracking for verification
	CompleteCalls struct {
		// mu protects the call tracking state for concurrent test cases
		mu sync.Mutex

		// Count tracks how many times Complete was called
		Count int

		// Requests contains all requests passed to Complete
		Requests []generation.Request
	}
}

// Name implements generation.Provider.
func (m *MockProvider) Name() string {
	if m.NameValue == "" {
		return "mock"
	}
	return m.NameValue
}

// Endpoint implements generation.Provider.
func (m *MockProvider) Endpoint() string {
	if m.EndpointValue == "" {
		return "mock:default"
	}
	return m.EndpointValue
}

// Complete implements generation.Provider.
func (m *MockProvider) Complete(ctx context.Context, req generation.Request) (string, error) {
	m.CompleteCalls.mu.Lock()
	m.CompleteCalls.Count++
	call := m.CompleteCalls.Count
	m.CompleteCalls.Requests = append(m.CompleteCalls.Requests, req)
	m.CompleteCalls.mu.Unlock()

	if m.CompleteFn != nil {
		return m.CompleteFn(ctx, req)
	}

	if len(m.Script) > 0 {
		idx := call - 1
		if idx >= len(m.Script) {
			idx = len(m.Script) - 1
		}
		return m.Script[idx].Text, m.Script[idx].Err
	}

	return m.Text, m.Err
}

// CallCount returns how many times Complete was called.
func (m *MockProvider) CallCount() int {
	m.CompleteCalls.mu.Lock()
	defer m.CompleteCalls.mu.Unlock()
	return m.CompleteCalls.Count
}

// LastRequest returns the most recent request, or a zero Request if none was made.
func (m *MockProvider) LastRequest() generation.Request {
	m.CompleteCalls.mu.Lock()
	defer m.CompleteCalls.mu.Unlock()
	if len(m.CompleteCalls.Requests) == 0 {
		return generation.Request{}
	}
	return m.CompleteCalls.Requests[len(m.CompleteCalls.Requests)-1]
}

// Reset resets the call tracking state.
func (m *MockProvider) Reset() {
	m.CompleteCalls.mu.Lock()
	defer m.CompleteCalls.mu.Unlock()
	m.CompleteCalls.Count = 0
	m.CompleteCalls.Requests = nil
}

// NewMockProviderWithText creates a MockProvider that always returns text.
func NewMockProviderWithText(text string) *MockProvider {
	return &MockProvider{Text: text}
}

// NewMockProviderWithError creates a MockProvider that always fails with err.
func NewMockProviderWithError(err error) *MockProvider {
	return &MockProvider{Err: err}
}

// MockProviderWithTransientFailure creates a MockProvider that simulates an upstream outage.
func MockProviderWithTransientFailure() *MockProvider {
	return &MockProvider{
		Err: fmt.Errorf("%w: status 503", generation.ErrTransientFailure),
	}
}

var _ generation.Provider = (*MockProvider)(nil)
