package mock

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
)

// MockGenerator is a test double for ai.Generator.
//
// Resolution order: GenerateFunc, then the first Responses entry whose key is
// a substring of the prompt, then Default.
type MockGenerator struct {
	GenerateFunc func(ctx context.Context, prompt string) (string, error)
	Responses    map[string]string
	Default      string

	mu        sync.Mutex
	prompts   []string
	callCount atomic.Int64
}

// NewMockGenerator creates a generator that answers "{}" unless configured.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{
		Responses: map[string]string{},
		Default:   "{}",
	}
}

// Generate returns the configured response for prompt.
func (m *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	m.callCount.Add(1)
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	for key, response := range m.Responses {
		if strings.Contains(prompt, key) {
			return response, nil
		}
	}
	return m.Default, nil
}

// CallCount returns the number of Generate calls.
func (m *MockGenerator) CallCount() int {
	return int(m.callCount.Load())
}

// Prompts returns a copy of every prompt received.
func (m *MockGenerator) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}
