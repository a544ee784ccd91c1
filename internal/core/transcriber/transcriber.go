// Package transcriber converts audio files to text.
package transcriber

import "context"

// Result holds the transcription output.
type Result struct {
	// Text is the full transcript.
	Text string

	// Language is the detected source language when the backend reports one.
	Language string
}

// Transcriber converts an audio file to text.
type Transcriber interface {
	// Transcribe processes the audio file at audioPath.
	Transcribe(ctx context.Context, audioPath string) (*Result, error)

	// Name returns a human-readable backend name.
	Name() string
}
