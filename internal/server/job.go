package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"summarizeit/internal/core/input"
	"summarizeit/internal/core/pipeline"
)

// JobStatus represents the current state of a summarize job
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// StepStatus represents the state of a pipeline step
type StepStatus string

const (
	StepStatusPending    StepStatus = "pending"
	StepStatusInProgress StepStatus = "in_progress"
	StepStatusCompleted  StepStatus = "completed"
	StepStatusSkipped    StepStatus = "skipped"
	StepStatusFailed     StepStatus = "failed"
)

// Step weights for overall progress calculation
var stepWeights = map[pipeline.Step]float64{
	pipeline.StepDownload:   0.35,
	pipeline.StepTranscribe: 0.40,
	pipeline.StepTranslate:  0.10,
	pipeline.StepSummarize:  0.15,
}

// JobStep represents a single pipeline step
type JobStep struct {
	Key        pipeline.Step `json:"key"`
	Name       string        `json:"name"`
	Status     StepStatus    `json:"status"`
	Detail     string        `json:"detail,omitempty"`
	StartedAt  *time.Time    `json:"started_at,omitempty"`
	FinishedAt *time.Time    `json:"finished_at,omitempty"`
}

// Job represents one summarize run
type Job struct {
	ID              string           `json:"id"`
	SessionID       string           `json:"session_id"`
	Mode            input.Mode       `json:"mode"`
	Status          JobStatus        `json:"status"`
	CurrentStep     pipeline.Step    `json:"current_step,omitempty"`
	Steps           []JobStep        `json:"steps"`
	OverallProgress float64          `json:"overall_progress"` // 0-100
	Result          *pipeline.Result `json:"result,omitempty"`
	Error           string           `json:"error,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`

	// Internal fields (not serialized)
	ctx     context.Context    `json:"-"`
	cancel  context.CancelFunc `json:"-"`
	request pipeline.Request   `json:"-"`
}

// ErrSessionBusy is returned by AddJob when the session already has a job
// that has not reached a terminal state.
var ErrSessionBusy = errors.New("a summarize job is already running for this session")

// RunFunc executes one pipeline request. The queue stays decoupled from the
// pipeline construction so tests can swap the runner out.
type RunFunc func(ctx context.Context, req pipeline.Request, progress pipeline.ProgressFunc) (*pipeline.Result, error)

// JobQueue manages summarize jobs with a worker pool
type JobQueue struct {
	jobs          map[string]*Job
	mu            sync.RWMutex
	queue         chan *Job
	maxConcurrent int
	run           RunFunc
	onFinished    func(*Job)
	closed        bool
	wg            sync.WaitGroup
	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
}

// NewJobQueue creates a new job queue
func NewJobQueue(maxConcurrent int, run RunFunc) *JobQueue {
	if maxConcurrent <= 0 {
		maxConcurrent = 2
	}

	return &JobQueue{
		jobs:          make(map[string]*Job),
		queue:         make(chan *Job, 50),
		maxConcurrent: maxConcurrent,
		run:           run,
		stopCleanup:   make(chan struct{}),
	}
}

// OnFinished registers a callback invoked with a copy of every job reaching a
// terminal state. Must be set before Start.
func (q *JobQueue) OnFinished(fn func(*Job)) {
	q.onFinished = fn
}

// Start begins the worker pool and cleanup routine
func (q *JobQueue) Start() {
	for i := 0; i < q.maxConcurrent; i++ {
		q.wg.Add(1)
		go q.worker()
	}

	// Cleanup every 30 minutes, remove jobs older than 2 hours
	q.cleanupTicker = time.NewTicker(30 * time.Minute)
	go q.cleanupLoop()
}

// Stop gracefully shuts down the job queue. The closed flag is flipped under
// the lock Enqueue sends under, so no send can race the channel close.
func (q *JobQueue) Stop() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	close(q.queue)
	close(q.stopCleanup)
	if q.cleanupTicker != nil {
		q.cleanupTicker.Stop()
	}
	q.wg.Wait()
}

func (q *JobQueue) worker() {
	defer q.wg.Done()

	for job := range q.queue {
		q.processJob(job)
	}
}

func (q *JobQueue) cleanupLoop() {
	for {
		select {
		case <-q.cleanupTicker.C:
			q.cleanupOldJobs()
		case <-q.stopCleanup:
			return
		}
	}
}

func (q *JobQueue) cleanupOldJobs() {
	q.mu.Lock()
	defer q.mu.Unlock()

	cutoff := time.Now().Add(-2 * time.Hour)
	for id, job := range q.jobs {
		if jobFinished(job.Status) && job.UpdatedAt.Before(cutoff) {
			delete(q.jobs, id)
		}
	}
}

func jobFinished(status JobStatus) bool {
	return status == JobStatusCompleted || status == JobStatusFailed || status == JobStatusCancelled
}

// AddJob registers a new summarize job without starting it. The caller binds
// the job to its session and then hands it to Enqueue; splitting the two
// keeps a fast worker from finishing before the session knows the job ID.
// Registration and the one-active-job-per-session check happen under the same
// lock, so concurrent requests from one session cannot both pass and race on
// the session directory's fixed filenames.
func (q *JobQueue) AddJob(sessionID string, mode input.Mode, req pipeline.Request) (*Job, error) {
	id, err := generateJobID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate job ID: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	job := &Job{
		ID:        id,
		SessionID: sessionID,
		Mode:      mode,
		Status:    JobStatusQueued,
		Steps:     initializeSteps(req.Source, req.Translate),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		ctx:       ctx,
		cancel:    cancel,
		request:   req,
	}
	q.updateOverallProgress(job)

	q.mu.Lock()
	for _, existing := range q.jobs {
		if existing.SessionID == sessionID && !jobFinished(existing.Status) {
			q.mu.Unlock()
			cancel()
			return nil, ErrSessionBusy
		}
	}
	q.jobs[id] = job
	q.mu.Unlock()

	return q.copyJob(job), nil
}

// Enqueue hands a registered job to the worker pool. The buffered send never
// blocks, so holding the lock across it is safe and keeps the send mutually
// exclusive with Stop closing the channel.
func (q *JobQueue) Enqueue(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[id]
	if !ok {
		return fmt.Errorf("unknown job: %s", id)
	}
	if q.closed {
		delete(q.jobs, id)
		job.cancel()
		return errors.New("job queue is stopped")
	}

	select {
	case q.queue <- job:
		return nil
	default:
		delete(q.jobs, id)
		job.cancel()
		return errors.New("job queue is full")
	}
}

// initializeSteps builds the step list for a source. Stages the source never
// reaches are marked skipped up front so progress reflects only real work.
func initializeSteps(src input.Source, translate bool) []JobStep {
	now := time.Now()
	skipped := func(key pipeline.Step, name, reason string) JobStep {
		return JobStep{Key: key, Name: name, Status: StepStatusSkipped, Detail: reason, FinishedAt: &now}
	}
	pending := func(key pipeline.Step, name string) JobStep {
		return JobStep{Key: key, Name: name, Status: StepStatusPending}
	}

	steps := make([]JobStep, 0, 4)

	if src.IsYouTube {
		steps = append(steps, pending(pipeline.StepDownload, "Download Audio"))
	} else {
		steps = append(steps, skipped(pipeline.StepDownload, "Download Audio", "no download needed"))
	}

	if src.IsText {
		steps = append(steps, skipped(pipeline.StepTranscribe, "Transcribe", "text input"))
	} else {
		steps = append(steps, pending(pipeline.StepTranscribe, "Transcribe"))
	}

	switch {
	case src.IsText:
		steps = append(steps, skipped(pipeline.StepTranslate, "Translate to English", "text input"))
	case translate:
		steps = append(steps, pending(pipeline.StepTranslate, "Translate to English"))
	default:
		steps = append(steps, skipped(pipeline.StepTranslate, "Translate to English", "not requested"))
	}

	steps = append(steps, pending(pipeline.StepSummarize, "Generate Summary"))
	return steps
}

// GetJob returns a job by ID
func (q *JobQueue) GetJob(id string) *Job {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if job, ok := q.jobs[id]; ok {
		return q.copyJob(job)
	}
	return nil
}

// SessionJobs returns all jobs belonging to a session, newest first by
// creation time is left to the caller.
func (q *JobQueue) SessionJobs(sessionID string) []*Job {
	q.mu.RLock()
	defer q.mu.RUnlock()

	jobs := make([]*Job, 0)
	for _, job := range q.jobs {
		if job.SessionID == sessionID {
			jobs = append(jobs, q.copyJob(job))
		}
	}
	return jobs
}

// HasActiveJob reports whether a session has a queued or running job.
func (q *JobQueue) HasActiveJob(sessionID string) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	for _, job := range q.jobs {
		if job.SessionID == sessionID && !jobFinished(job.Status) {
			return true
		}
	}
	return false
}

// copyJob creates a safe copy of a job for external use
func (q *JobQueue) copyJob(job *Job) *Job {
	jobCopy := *job
	jobCopy.ctx = nil
	jobCopy.cancel = nil

	jobCopy.Steps = make([]JobStep, len(job.Steps))
	copy(jobCopy.Steps, job.Steps)

	if job.Result != nil {
		resultCopy := *job.Result
		jobCopy.Result = &resultCopy
	}

	return &jobCopy
}

// CancelJob cancels a job by ID
func (q *JobQueue) CancelJob(id string) bool {
	q.mu.Lock()

	job, ok := q.jobs[id]
	if !ok || jobFinished(job.Status) {
		q.mu.Unlock()
		return false
	}

	job.cancel()
	job.Status = JobStatusCancelled
	job.UpdatedAt = time.Now()
	jobCopy := q.copyJob(job)
	q.mu.Unlock()

	q.notifyFinished(jobCopy)
	return true
}

// ClearHistory removes all completed, failed, and cancelled jobs
func (q *JobQueue) ClearHistory() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	count := 0
	for id, job := range q.jobs {
		if jobFinished(job.Status) {
			delete(q.jobs, id)
			count++
		}
	}
	return count
}

// processJob executes the pipeline for a job
func (q *JobQueue) processJob(job *Job) {
	// Cancelled while still queued
	if job.ctx.Err() != nil {
		return
	}

	q.updateJobStatus(job.ID, JobStatusProcessing)

	progressFn := func(step pipeline.Step, detail string) {
		q.startStep(job.ID, step, detail)
	}

	result, err := q.run(job.ctx, job.request, progressFn)
	if err != nil {
		if job.ctx.Err() == context.Canceled {
			q.updateJobStatus(job.ID, JobStatusCancelled)
		} else {
			q.failJob(job.ID, err.Error())
		}
		q.notifyFinished(q.GetJob(job.ID))
		return
	}

	q.mu.Lock()
	if j, ok := q.jobs[job.ID]; ok {
		j.Result = result
		j.Status = JobStatusCompleted
		j.OverallProgress = 100
		j.UpdatedAt = time.Now()

		now := time.Now()
		for i := range j.Steps {
			if j.Steps[i].Status == StepStatusInProgress || j.Steps[i].Status == StepStatusPending {
				j.Steps[i].Status = StepStatusCompleted
				j.Steps[i].FinishedAt = &now
			}
		}
	}
	q.mu.Unlock()

	q.notifyFinished(q.GetJob(job.ID))
}

func (q *JobQueue) notifyFinished(job *Job) {
	if q.onFinished != nil && job != nil {
		q.onFinished(job)
	}
}

// startStep marks a step in progress, completing whichever step ran before it.
func (q *JobQueue) startStep(jobID string, stepKey pipeline.Step, detail string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[jobID]
	if !ok {
		return
	}

	now := time.Now()
	for i := range job.Steps {
		if job.Steps[i].Status == StepStatusInProgress {
			job.Steps[i].Status = StepStatusCompleted
			job.Steps[i].FinishedAt = &now
		}
		if job.Steps[i].Key == stepKey {
			job.Steps[i].Status = StepStatusInProgress
			job.Steps[i].Detail = detail
			job.Steps[i].StartedAt = &now
			job.CurrentStep = stepKey
		}
	}
	job.UpdatedAt = now
	q.updateOverallProgress(job)
}

func (q *JobQueue) updateOverallProgress(job *Job) {
	totalWeight := 0.0
	completedWeight := 0.0

	for _, step := range job.Steps {
		weight := stepWeights[step.Key]
		totalWeight += weight

		switch step.Status {
		case StepStatusCompleted, StepStatusSkipped:
			completedWeight += weight
		case StepStatusInProgress:
			completedWeight += weight * 0.5
		}
	}

	if totalWeight > 0 {
		job.OverallProgress = (completedWeight / totalWeight) * 100
	}
}

func (q *JobQueue) updateJobStatus(jobID string, status JobStatus) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if job, ok := q.jobs[jobID]; ok {
		job.Status = status
		job.UpdatedAt = time.Now()
	}
}

func (q *JobQueue) failJob(jobID string, errMsg string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if job, ok := q.jobs[jobID]; ok {
		job.Status = JobStatusFailed
		job.Error = errMsg
		job.UpdatedAt = time.Now()

		now := time.Now()
		for i := range job.Steps {
			if job.Steps[i].Status == StepStatusInProgress {
				job.Steps[i].Status = StepStatusFailed
				job.Steps[i].FinishedAt = &now
				break
			}
		}
	}
}

func generateJobID() (string, error) {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return "job-" + hex.EncodeToString(bytes), nil
}
