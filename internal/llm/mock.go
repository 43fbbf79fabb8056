package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Mock is a deterministic LLM implementation for testing. It records every
// prompt it receives and is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	// Response is the fixed text returned by Complete.
	// If empty and ResponseFunc is nil, a default response is derived
	// from the prompt.
	Response string

	// ResponseFunc, if set, computes the response from the prompt.
	ResponseFunc func(prompt string) (string, error)

	// Err, if set, is returned instead of a response.
	Err error

	prompts []string
}

// NewMock creates a mock with a fixed response.
func NewMock(response string) *Mock {
	return &Mock{Response: response}
}

// NewMockWithError creates a mock that always fails.
func NewMockWithError(err error) *Mock {
	return &Mock{Err: err}
}

// Complete records the prompt and returns the scripted response.
func (m *Mock) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.Err != nil {
		return "", m.Err
	}
	if m.ResponseFunc != nil {
		return m.ResponseFunc(prompt)
	}
	if m.Response != "" {
		return m.Response, nil
	}
	return mockResponse(prompt), nil
}

// Calls returns how many completions were requested.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// Prompts returns a copy of the recorded prompts in call order.
func (m *Mock) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}

// LastPrompt returns the most recent prompt, or "".
func (m *Mock) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

// mockResponse derives a small deterministic HTML fragment from the prompt.
func mockResponse(prompt string) string {
	var b strings.Builder
	lines := strings.SplitN(prompt, "\n", 2)
	first := strings.TrimSpace(lines[0])
	if len(first) > 60 {
		first = first[:60]
	}
	b.WriteString("<h2>بخش تولید شده</h2>\n")
	b.WriteString(fmt.Sprintf("<p>پاسخ آزمایشی برای: %s</p>\n", first))
	return b.String()
}
