package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicModel = "claude-3-5-haiku-latest"

// AnthropicSummarizer uses the Anthropic messages API.
type AnthropicSummarizer struct {
	client anthropic.Client
	model  string
}

// NewAnthropic creates an Anthropic-backed summarizer.
func NewAnthropic(apiKey, model string) (*AnthropicSummarizer, error) {
	if apiKey == "" {
		return nil, errors.New("ANTHROPIC_API_KEY is not set")
	}
	if model == "" {
		model = defaultAnthropicModel
	}

	return &AnthropicSummarizer{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}, nil
}

func (s *AnthropicSummarizer) Name() string {
	return "anthropic/" + s.model
}

func (s *AnthropicSummarizer) Summarize(ctx context.Context, text string, opts Options) (string, error) {
	out, err := s.complete(ctx, summarySystemPrompt, summaryPrompt(text, opts.Words))
	if err != nil {
		return "", fmt.Errorf("an error occurred while summarizing the transcript: %w", err)
	}
	return out, nil
}

func (s *AnthropicSummarizer) Translate(ctx context.Context, text string) (string, error) {
	out, err := s.complete(ctx, translateSystemPrompt, translatePrompt(text))
	if err != nil {
		return "", fmt.Errorf("an error occurred while translating the transcript: %w", err)
	}
	return out, nil
}

func (s *AnthropicSummarizer) complete(ctx context.Context, system, user string) (string, error) {
	message, err := s.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(s.model),
		MaxTokens: maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
		Temperature: anthropic.Float(temperature),
	})
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("empty response from Anthropic")
	}
	return sb.String(), nil
}
