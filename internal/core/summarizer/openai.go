package summarizer

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAISummarizer uses the OpenAI chat completion API.
type OpenAISummarizer struct {
	client openai.Client
	model  string
}

// NewOpenAI creates an OpenAI-backed summarizer.
func NewOpenAI(apiKey, model string) (*OpenAISummarizer, error) {
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY is not set")
	}
	if model == "" {
		model = defaultOpenAIModel
	}

	return &OpenAISummarizer{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}, nil
}

func (s *OpenAISummarizer) Name() string {
	return "openai/" + s.model
}

func (s *OpenAISummarizer) Summarize(ctx context.Context, text string, opts Options) (string, error) {
	out, err := s.complete(ctx, summarySystemPrompt, summaryPrompt(text, opts.Words))
	if err != nil {
		return "", fmt.Errorf("an error occurred while summarizing the transcript: %w", err)
	}
	return out, nil
}

func (s *OpenAISummarizer) Translate(ctx context.Context, text string) (string, error) {
	out, err := s.complete(ctx, translateSystemPrompt, translatePrompt(text))
	if err != nil {
		return "", fmt.Errorf("an error occurred while translating the transcript: %w", err)
	}
	return out, nil
}

func (s *OpenAISummarizer) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		MaxTokens:   openai.Int(maxTokens),
		Temperature: openai.Float(temperature),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty response from OpenAI")
	}
	return resp.Choices[0].Message.Content, nil
}
