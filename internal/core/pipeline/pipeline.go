// Package pipeline runs the summarize flow: acquire content, transcribe,
// optionally translate, summarize. Every file the run creates is tracked and
// removed before Run returns, success or failure.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"summarizeit/internal/core/artifact"
	"summarizeit/internal/core/input"
	"summarizeit/internal/core/summarizer"
	"summarizeit/internal/core/transcriber"
	"summarizeit/internal/core/youtube"
)

// Step identifies a pipeline stage for progress reporting.
type Step string

const (
	StepDownload   Step = "download"
	StepTranscribe Step = "transcribe"
	StepTranslate  Step = "translate"
	StepSummarize  Step = "summarize"
)

// ProgressFunc receives stage transitions while a run executes.
type ProgressFunc func(step Step, detail string)

// Request describes one run.
type Request struct {
	// Source is the normalized input.
	Source input.Source

	// Dir is the working directory artifacts are written to. It must be
	// private to the caller's session.
	Dir string

	// Words is the approximate summary length. Zero means the default.
	Words int

	// Translate renders the transcript into English before summarizing.
	// Ignored for text inputs, which are summarized as-is.
	Translate bool
}

// Result holds the run output. Artifacts are already cleaned up by the time a
// Result is returned, so everything the caller needs is carried here.
type Result struct {
	Summary    string `json:"summary"`
	Transcript string `json:"transcript"`
	Language   string `json:"language,omitempty"`
}

// Pipeline wires the stages together.
type Pipeline struct {
	YouTube     *youtube.Client
	Transcriber transcriber.Transcriber
	Summarizer  summarizer.Summarizer
}

// New creates a pipeline.
func New(yt *youtube.Client, tr transcriber.Transcriber, sum summarizer.Summarizer) *Pipeline {
	return &Pipeline{
		YouTube:     yt,
		Transcriber: tr,
		Summarizer:  sum,
	}
}

// Run executes the pipeline for one request. The first stage failure aborts
// the run; tracked artifacts are removed on every exit path.
func (p *Pipeline) Run(ctx context.Context, req Request, progress ProgressFunc) (*Result, error) {
	if p.Summarizer == nil {
		return nil, errors.New("no summarizer configured")
	}
	if progress == nil {
		progress = func(Step, string) {}
	}

	if err := os.MkdirAll(req.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create working directory: %w", err)
	}

	tracker := artifact.NewTracker()
	defer func() {
		if err := tracker.Cleanup(); err != nil {
			log.Printf("cleanup failed: %v", err)
		}
	}()

	transcript, language, transcriptPath, err := p.acquireTranscript(ctx, req, tracker, progress)
	if err != nil {
		return nil, err
	}

	// Only transcribed audio gets translated; text inputs pass through as-is
	if req.Translate && !req.Source.IsText {
		progress(StepTranslate, "translating transcript to English")
		transcript, err = p.Summarizer.Translate(ctx, transcript)
		if err != nil {
			return nil, err
		}
		// The translation replaces the transcript artifact
		if transcriptPath != "" {
			if err := os.WriteFile(transcriptPath, []byte(transcript), 0644); err != nil {
				return nil, fmt.Errorf("failed to save translated transcript: %w", err)
			}
		}
	}

	progress(StepSummarize, "generating summary")
	summary, err := p.Summarizer.Summarize(ctx, transcript, summarizer.Options{Words: req.Words})
	if err != nil {
		return nil, err
	}

	return &Result{
		Summary:    summary,
		Transcript: transcript,
		Language:   language,
	}, nil
}

// acquireTranscript turns the source into transcript text, tracking every
// file it stages along the way. transcriptPath is empty for text inputs.
func (p *Pipeline) acquireTranscript(ctx context.Context, req Request, tracker *artifact.Tracker, progress ProgressFunc) (text, language, transcriptPath string, err error) {
	src := req.Source

	switch {
	case src.IsText && src.Text != "":
		// Direct text is staged to disk like every other input so a failed
		// run leaves nothing behind that cleanup does not know about.
		staged := filepath.Join(req.Dir, artifact.TempTextName)
		if err := os.WriteFile(staged, []byte(src.Text), 0644); err != nil {
			return "", "", "", fmt.Errorf("failed to stage text input: %w", err)
		}
		tracker.Add(staged)
		return src.Text, "", "", nil

	case src.IsText:
		tracker.Add(src.Path)
		data, err := os.ReadFile(src.Path)
		if err != nil {
			return "", "", "", fmt.Errorf("failed to read text file: %w", err)
		}
		return string(data), "", "", nil

	case src.IsYouTube:
		progress(StepDownload, "downloading audio from YouTube")
		audioPath, err := p.YouTube.DownloadAudio(ctx, src.URL, req.Dir)
		if err != nil {
			return "", "", "", err
		}
		tracker.Add(audioPath)
		return p.transcribe(ctx, audioPath, tracker, progress)

	default:
		tracker.Add(src.Path)
		return p.transcribe(ctx, src.Path, tracker, progress)
	}
}

// transcribe runs the transcriber on an audio file and persists the
// transcript_ artifact next to it.
func (p *Pipeline) transcribe(ctx context.Context, audioPath string, tracker *artifact.Tracker, progress ProgressFunc) (text, language, transcriptPath string, err error) {
	if p.Transcriber == nil {
		return "", "", "", errors.New("no transcriber configured")
	}

	progress(StepTranscribe, "transcribing audio")
	res, err := p.Transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		return "", "", "", err
	}

	transcriptPath = artifact.TranscriptName(audioPath)
	if err := os.WriteFile(transcriptPath, []byte(res.Text), 0644); err != nil {
		return "", "", "", fmt.Errorf("failed to save transcript: %w", err)
	}
	tracker.Add(transcriptPath)

	return res.Text, res.Language, transcriptPath, nil
}
