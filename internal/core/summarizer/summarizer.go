// Package summarizer generates summaries and English translations with a
// chat-completion backend.
package summarizer

import (
	"context"
	"fmt"
)

// Options control a single summary request.
type Options struct {
	// Words is the approximate summary length. Zero means DefaultWords.
	Words int
}

// DefaultWords is the summary length used when the caller does not pick one.
const DefaultWords = 300

// Summarizer produces summaries and translations.
type Summarizer interface {
	// Summarize generates a summary of text.
	Summarize(ctx context.Context, text string, opts Options) (string, error)

	// Translate renders text into English.
	Translate(ctx context.Context, text string) (string, error)

	// Name returns a human-readable backend name.
	Name() string
}

// New creates a summarizer for the given provider ("openai" or "anthropic").
// An empty model selects the provider default.
func New(provider, model, apiKey string) (Summarizer, error) {
	switch provider {
	case "openai", "":
		return NewOpenAI(apiKey, model)
	case "anthropic":
		return NewAnthropic(apiKey, model)
	default:
		return nil, fmt.Errorf("unknown summary provider: %q (expected openai or anthropic)", provider)
	}
}
