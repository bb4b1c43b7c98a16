package llm

import (
	"context"
	"errors"

	"github.com/xaenox/mind-coach/internal/parser"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options tune a single completion. Zero values fall back to the backend defaults.
type Options struct {
	Temperature float32
	MaxTokens   int
	Model       string
	JSON        bool
}

// Backend is the generative text collaborator.
type Backend interface {
	Complete(ctx context.Context, systemPrompt string, messages []Message, opts Options) (string, error)
}

type FailureKind string

const (
	FailureBackend FailureKind = "backend"
	FailureTimeout FailureKind = "timeout"
	FailureParse   FailureKind = "parse"
)

// Classify maps an error from a backend call or parse step onto a failure kind.
func Classify(err error) FailureKind {
	var perr *parser.ParseError
	switch {
	case errors.As(err, &perr):
		return FailureParse
	case errors.Is(err, context.DeadlineExceeded):
		return FailureTimeout
	default:
		return FailureBackend
	}
}

// History turns alternating prior messages into chat turns, keeping at most
// limit entries. The oldest kept entry is treated as a user turn.
func History(previous []string, limit int) []Message {
	if limit > 0 && len(previous) > limit {
		previous = previous[len(previous)-limit:]
	}
	out := make([]Message, 0, len(previous))
	for i, text := range previous {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		out = append(out, Message{Role: role, Content: text})
	}
	return out
}
