package mocks

import (
	"context"
	"sync"

	"github.com/finlit/finlit-api/internal/generation"
)

// MockGenerator implements generation.Generator for testing. Replies are
// returned in order; once they run out the last one repeats.
type MockGenerator struct {
	GenerateFn func(ctx context.Context, req generation.Request) (string, error)

	Replies []string
	Err     error

	mu       sync.Mutex
	requests []generation.Request
}

var _ generation.Generator = (*MockGenerator)(nil)

// Generate implements generation.Generator.
func (m *MockGenerator) Generate(ctx context.Context, req generation.Request) (string, error) {
	m.mu.Lock()
	n := len(m.requests)
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.GenerateFn != nil {
		return m.GenerateFn(ctx, req)
	}
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Replies) == 0 {
		return "[]", nil
	}
	return m.Replies[min(n, len(m.Replies)-1)], nil
}

// Requests returns the requests received so far.
func (m *MockGenerator) Requests() []generation.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]generation.Request(nil), m.requests...)
}
