// Package llmtest provides a scripted generative backend for tests.
package llmtest

import (
	"context"
	"sync"

	"github.com/xaenox/mind-coach/internal/llm"
)

type Call struct {
	SystemPrompt string
	Messages     []llm.Message
	Options      llm.Options
}

// Fake returns Responses in order and repeats the last one. When Err is set
// every call fails with it.
type Fake struct {
	mu        sync.Mutex
	Responses []string
	Err       error
	calls     []Call
}

func New(responses ...string) *Fake {
	return &Fake{Responses: responses}
}

func Failing(err error) *Fake {
	return &Fake{Err: err}
}

func (f *Fake) Complete(ctx context.Context, systemPrompt string, messages []llm.Message, opts llm.Options) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	idx := len(f.calls)
	f.calls = append(f.calls, Call{SystemPrompt: systemPrompt, Messages: messages, Options: opts})

	if f.Err != nil {
		return "", f.Err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(f.Responses) == 0 {
		return "", nil
	}
	if idx >= len(f.Responses) {
		idx = len(f.Responses) - 1
	}
	return f.Responses[idx], nil
}

func (f *Fake) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

var _ llm.Backend = (*Fake)(nil)
