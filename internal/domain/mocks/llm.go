// Package mocks provides mock implementations for testing.
package mocks

import (
	"context"
	"sync"
)

// TextGenerator is a mock implementation of ports.TextGenerator.
type TextGenerator struct {
	mu sync.Mutex

	// Response is returned by every successful call.
	Response string
	// Err, when set, is returned by every call.
	Err error
	// Errs holds per-call errors; a nil entry lets that call succeed.
	Errs []error
	// Block makes calls wait for their context to end.
	Block bool

	// Call tracking
	Calls   int
	Prompts []string
	Models  []string
}

// Generate returns the configured response or error.
func (m *TextGenerator) Generate(ctx context.Context, prompt, model string) (string, error) {
	m.mu.Lock()
	call := m.Calls
	m.Calls++
	m.Prompts = append(m.Prompts, prompt)
	m.Models = append(m.Models, model)
	m.mu.Unlock()

	if m.Block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if m.Err != nil {
		return "", m.Err
	}
	if call < len(m.Errs) && m.Errs[call] != nil {
		return "", m.Errs[call]
	}
	return m.Response, nil
}

// CallCount returns the number of Generate calls.
func (m *TextGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}
