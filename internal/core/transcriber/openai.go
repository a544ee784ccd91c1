package transcriber

import (
	"context"
	"errors"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

// ErrFileNotFound is returned before any network call when the audio file is
// missing.
var ErrFileNotFound = errors.New("file does not exist")

// OpenAITranscriber transcribes audio with the OpenAI audio API.
type OpenAITranscriber struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates a Whisper-backed transcriber. An empty model defaults to
// whisper-1.
func NewOpenAI(apiKey, model string) (*OpenAITranscriber, error) {
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY is not set")
	}
	if model == "" {
		model = openai.Whisper1
	}

	cfg := openai.DefaultConfig(apiKey)
	return &OpenAITranscriber{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}, nil
}

func (t *OpenAITranscriber) Name() string {
	return "openai/" + t.model
}

// Transcribe sends the audio file to the transcription endpoint. A missing
// file fails immediately, without a network round trip.
func (t *OpenAITranscriber) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	if _, err := os.Stat(audioPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, audioPath)
	}

	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: audioPath,
		Format:   openai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	return &Result{
		Text:     resp.Text,
		Language: resp.Language,
	}, nil
}
