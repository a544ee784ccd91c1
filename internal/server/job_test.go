package server

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"summarizeit/internal/core/input"
	"summarizeit/internal/core/pipeline"
)

// waitForJob polls until the job reaches a terminal state.
func waitForJob(t *testing.T, q *JobQueue, id string) *Job {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		job := q.GetJob(id)
		if job != nil && jobFinished(job.Status) {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish in time", id)
	return nil
}

func okRun(result *pipeline.Result) RunFunc {
	return func(ctx context.Context, req pipeline.Request, progress pipeline.ProgressFunc) (*pipeline.Result, error) {
		progress(pipeline.StepSummarize, "generating summary")
		return result, nil
	}
}

func addAndEnqueue(t *testing.T, q *JobQueue, sessionID string, mode input.Mode, req pipeline.Request) *Job {
	t.Helper()

	job, err := q.AddJob(sessionID, mode, req)
	if err != nil {
		t.Fatalf("AddJob() error = %v", err)
	}
	if err := q.Enqueue(job.ID); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	return job
}

func TestJobLifecycle(t *testing.T) {
	q := NewJobQueue(1, okRun(&pipeline.Result{Summary: "done"}))
	q.Start()
	defer q.Stop()

	textSrc := input.Source{Text: "hello", IsText: true}
	job := addAndEnqueue(t, q, "sess-1", input.ModeText, pipeline.Request{Source: textSrc})
	if job.Status != JobStatusQueued {
		t.Errorf("initial status = %q, want queued", job.Status)
	}

	finished := waitForJob(t, q, job.ID)
	if finished.Status != JobStatusCompleted {
		t.Fatalf("status = %q (%s), want completed", finished.Status, finished.Error)
	}
	if finished.Result == nil || finished.Result.Summary != "done" {
		t.Errorf("result = %+v", finished.Result)
	}
	if finished.OverallProgress != 100 {
		t.Errorf("OverallProgress = %v, want 100", finished.OverallProgress)
	}

	// Text input never downloads or transcribes
	for _, step := range finished.Steps {
		switch step.Key {
		case pipeline.StepDownload, pipeline.StepTranscribe, pipeline.StepTranslate:
			if step.Status != StepStatusSkipped {
				t.Errorf("step %s status = %q, want skipped", step.Key, step.Status)
			}
		case pipeline.StepSummarize:
			if step.Status != StepStatusCompleted {
				t.Errorf("step %s status = %q, want completed", step.Key, step.Status)
			}
		}
	}
}

func TestInitializeStepsSkipsTranslateForText(t *testing.T) {
	steps := initializeSteps(input.Source{Text: "hello", IsText: true}, true)

	for _, step := range steps {
		if step.Key == pipeline.StepTranslate && step.Status != StepStatusSkipped {
			t.Errorf("translate step status = %q for a text source, want skipped", step.Status)
		}
	}

	// Audio with translation requested still runs the stage
	steps = initializeSteps(input.Source{Path: "uploaded_audio.mp3"}, true)
	for _, step := range steps {
		if step.Key == pipeline.StepTranslate && step.Status != StepStatusPending {
			t.Errorf("translate step status = %q for an audio source, want pending", step.Status)
		}
	}
}

func TestAddJobRefusesSecondActiveJob(t *testing.T) {
	// No workers started, so the first job stays queued
	q := NewJobQueue(1, okRun(&pipeline.Result{}))

	req := pipeline.Request{Source: input.Source{Text: "x", IsText: true}}
	if _, err := q.AddJob("sess-1", input.ModeText, req); err != nil {
		t.Fatalf("AddJob() error = %v", err)
	}

	if _, err := q.AddJob("sess-1", input.ModeText, req); !errors.Is(err, ErrSessionBusy) {
		t.Errorf("second AddJob error = %v, want ErrSessionBusy", err)
	}

	// Other sessions are not affected
	if _, err := q.AddJob("sess-2", input.ModeText, req); err != nil {
		t.Errorf("AddJob for another session error = %v", err)
	}
}

func TestEnqueueAfterStop(t *testing.T) {
	q := NewJobQueue(1, okRun(&pipeline.Result{}))
	q.Start()

	job, err := q.AddJob("sess-1", input.ModeText, pipeline.Request{Source: input.Source{Text: "x", IsText: true}})
	if err != nil {
		t.Fatalf("AddJob() error = %v", err)
	}

	q.Stop()

	if err := q.Enqueue(job.ID); err == nil {
		t.Fatal("Enqueue after Stop returned nil error")
	}
	if q.GetJob(job.ID) != nil {
		t.Error("job still registered after a refused enqueue")
	}

	// Stopping twice is harmless
	q.Stop()
}

func TestJobFailure(t *testing.T) {
	run := func(ctx context.Context, req pipeline.Request, progress pipeline.ProgressFunc) (*pipeline.Result, error) {
		progress(pipeline.StepSummarize, "generating summary")
		return nil, errors.New("model unavailable")
	}

	q := NewJobQueue(1, run)
	q.Start()
	defer q.Stop()

	job := addAndEnqueue(t, q, "sess-1", input.ModeText, pipeline.Request{Source: input.Source{Text: "x", IsText: true}})

	finished := waitForJob(t, q, job.ID)
	if finished.Status != JobStatusFailed {
		t.Fatalf("status = %q, want failed", finished.Status)
	}
	if finished.Error != "model unavailable" {
		t.Errorf("Error = %q", finished.Error)
	}

	for _, step := range finished.Steps {
		if step.Key == pipeline.StepSummarize && step.Status != StepStatusFailed {
			t.Errorf("summarize step status = %q, want failed", step.Status)
		}
	}
}

func TestJobCancel(t *testing.T) {
	release := make(chan struct{})
	run := func(ctx context.Context, req pipeline.Request, progress pipeline.ProgressFunc) (*pipeline.Result, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-release:
			return &pipeline.Result{}, nil
		}
	}

	q := NewJobQueue(1, run)
	q.Start()
	defer q.Stop()
	defer close(release)

	job := addAndEnqueue(t, q, "sess-1", input.ModeYouTube, pipeline.Request{Source: input.Source{URL: "u", IsYouTube: true}})

	if !q.HasActiveJob("sess-1") {
		t.Error("HasActiveJob = false with a job in flight")
	}

	if !q.CancelJob(job.ID) {
		t.Fatal("CancelJob returned false")
	}

	finished := waitForJob(t, q, job.ID)
	if finished.Status != JobStatusCancelled {
		t.Fatalf("status = %q, want cancelled", finished.Status)
	}
	if q.HasActiveJob("sess-1") {
		t.Error("HasActiveJob = true after cancel")
	}

	// A finished job cannot be cancelled again
	if q.CancelJob(job.ID) {
		t.Error("CancelJob succeeded on a finished job")
	}
}

func TestSessionJobsAndClearHistory(t *testing.T) {
	q := NewJobQueue(1, okRun(&pipeline.Result{Summary: "s"}))
	q.Start()
	defer q.Stop()

	a := addAndEnqueue(t, q, "sess-a", input.ModeText, pipeline.Request{Source: input.Source{Text: "x", IsText: true}})
	b := addAndEnqueue(t, q, "sess-b", input.ModeText, pipeline.Request{Source: input.Source{Text: "y", IsText: true}})
	waitForJob(t, q, a.ID)
	waitForJob(t, q, b.ID)

	if jobs := q.SessionJobs("sess-a"); len(jobs) != 1 || jobs[0].ID != a.ID {
		t.Errorf("SessionJobs(sess-a) = %d jobs", len(jobs))
	}

	if cleared := q.ClearHistory(); cleared != 2 {
		t.Errorf("ClearHistory() = %d, want 2", cleared)
	}
	if q.GetJob(a.ID) != nil {
		t.Error("job still present after ClearHistory")
	}
}

func TestOnFinishedCallback(t *testing.T) {
	var notified atomic.Int32

	q := NewJobQueue(1, okRun(&pipeline.Result{Summary: "s"}))
	q.OnFinished(func(job *Job) {
		if job.Status == JobStatusCompleted {
			notified.Add(1)
		}
	})
	q.Start()
	defer q.Stop()

	job := addAndEnqueue(t, q, "sess-1", input.ModeText, pipeline.Request{Source: input.Source{Text: "x", IsText: true}})
	waitForJob(t, q, job.ID)

	deadline := time.Now().Add(time.Second)
	for notified.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if notified.Load() != 1 {
		t.Errorf("OnFinished fired %d times, want 1", notified.Load())
	}
}
