package server

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"summarizeit/internal/core/input"
)

// SessionCookie is the cookie name carrying the session ID.
const SessionCookie = "summarizeit_session"

// sessionTTL is how long an idle session survives before eviction.
const sessionTTL = 24 * time.Hour

// Session holds all per-user state explicitly: the selected input mode, the
// running job, and the last finished result. Nothing about a session lives
// outside this struct.
type Session struct {
	ID         string     `json:"id"`
	Mode       input.Mode `json:"mode"`
	ActiveJob  string     `json:"active_job,omitempty"`
	Summary    string     `json:"summary,omitempty"`
	Transcript string     `json:"transcript,omitempty"`
	Language   string     `json:"language,omitempty"`
	LastError  string     `json:"last_error,omitempty"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// SessionStore manages sessions and their private working directories.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	workDir  string

	stopPrune chan struct{}
}

// NewSessionStore creates a store rooted at workDir. Each session gets its
// own subdirectory so concurrent runs never collide on the fixed artifact
// filenames.
func NewSessionStore(workDir string) *SessionStore {
	return &SessionStore{
		sessions:  make(map[string]*Session),
		workDir:   workDir,
		stopPrune: make(chan struct{}),
	}
}

// Start launches the idle-session pruner.
func (s *SessionStore) Start() {
	go s.pruneLoop()
}

// Stop halts the pruner.
func (s *SessionStore) Stop() {
	close(s.stopPrune)
}

func (s *SessionStore) pruneLoop() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.pruneIdle()
		case <-s.stopPrune:
			return
		}
	}
}

func (s *SessionStore) pruneIdle() {
	cutoff := time.Now().Add(-sessionTTL)

	s.mu.Lock()
	var expired []string
	for id, sess := range s.sessions {
		if sess.UpdatedAt.Before(cutoff) && sess.ActiveJob == "" {
			delete(s.sessions, id)
			expired = append(expired, id)
		}
	}
	s.mu.Unlock()

	for _, id := range expired {
		os.RemoveAll(s.Dir(id))
	}
}

// Dir returns the private working directory for a session ID.
func (s *SessionStore) Dir(id string) string {
	return filepath.Join(s.workDir, id)
}

// GetOrCreate returns the session for id, creating one (with a fresh UUID
// when id is empty or unknown) as needed. The returned session is a copy.
func (s *SessionStore) GetOrCreate(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[id]; ok {
		sess.UpdatedAt = time.Now()
		return copySession(sess)
	}

	if id == "" {
		id = uuid.NewString()
	}
	sess := &Session{
		ID:        id,
		Mode:      input.ModeText,
		UpdatedAt: time.Now(),
	}
	s.sessions[id] = sess
	return copySession(sess)
}

// Get returns a copy of the session, or nil if it does not exist.
func (s *SessionStore) Get(id string) *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sess, ok := s.sessions[id]; ok {
		return copySession(sess)
	}
	return nil
}

// SetMode switches the session's input mode. Switching to a different mode
// resets all per-run state; any previous summary, transcript, or error is
// dropped. Returns the updated session.
func (s *SessionStore) SetMode(id string, mode input.Mode) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil
	}

	if sess.Mode != mode {
		sess.Mode = mode
		sess.Summary = ""
		sess.Transcript = ""
		sess.Language = ""
		sess.LastError = ""
		sess.ActiveJob = ""
	}
	sess.UpdatedAt = time.Now()
	return copySession(sess)
}

// SetActiveJob records the session's running job ID.
func (s *SessionStore) SetActiveJob(id, jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[id]; ok {
		sess.ActiveJob = jobID
		sess.UpdatedAt = time.Now()
	}
}

// FinishJob stores a finished job's outcome on its session and clears the
// active job marker.
func (s *SessionStore) FinishJob(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[job.SessionID]
	if !ok || sess.ActiveJob != job.ID {
		return
	}

	sess.ActiveJob = ""
	sess.LastError = job.Error
	if job.Status == JobStatusCompleted && job.Result != nil {
		sess.Summary = job.Result.Summary
		sess.Transcript = job.Result.Transcript
		sess.Language = job.Result.Language
	}
	sess.UpdatedAt = time.Now()
}

func copySession(sess *Session) *Session {
	out := *sess
	return &out
}
