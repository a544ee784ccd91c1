// Package server exposes the summarize pipeline over HTTP with a small
// embedded web UI.
package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"summarizeit/internal/core/config"
	"summarizeit/internal/core/input"
	"summarizeit/internal/core/pipeline"
	"summarizeit/internal/core/summarizer"
	"summarizeit/internal/core/transcriber"
	"summarizeit/internal/core/version"
	"summarizeit/internal/core/youtube"
)

// Response is the standard API response structure
type Response struct {
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Message string      `json:"message"`
}

// SummarizeRequest is the request body for POST /api/summarize
type SummarizeRequest struct {
	Mode      string `json:"mode" binding:"required"`
	Text      string `json:"text,omitempty"`
	URL       string `json:"url,omitempty"`
	Words     int    `json:"words,omitempty"`
	Translate bool   `json:"translate,omitempty"`
}

// VideoInfoRequest is the request body for POST /api/youtube/info
type VideoInfoRequest struct {
	URL string `json:"url" binding:"required"`
}

// Server is the summarizeit HTTP server
type Server struct {
	cfg      *config.Config
	youtube  *youtube.Client
	jobQueue *JobQueue
	sessions *SessionStore
	server   *http.Server
	engine   *gin.Engine
}

// NewServer creates the server with a real pipeline behind the job queue.
// The transcription backend needs OPENAI_API_KEY; the summarizer key depends
// on the configured provider.
func NewServer(cfg *config.Config) (*Server, error) {
	tr, err := transcriber.NewOpenAI(cfg.OpenAIKey(), cfg.AI.TranscriptionModel)
	if err != nil {
		return nil, err
	}

	sum, err := summarizer.New(cfg.AI.SummaryProvider, cfg.AI.SummaryModel, cfg.SummarizerKey())
	if err != nil {
		return nil, err
	}

	yt := youtube.NewClient()
	p := pipeline.New(yt, tr, sum)

	return newServer(cfg, p.Run), nil
}

// newServer wires the queue, sessions, and routes around a run function.
func newServer(cfg *config.Config, run RunFunc) *Server {
	s := &Server{
		cfg:      cfg,
		youtube:  youtube.NewClient(),
		sessions: NewSessionStore(cfg.WorkDir),
	}

	s.jobQueue = NewJobQueue(cfg.Server.MaxConcurrent, run)
	s.jobQueue.OnFinished(s.sessions.FinishJob)

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	gin.SetMode(gin.ReleaseMode)

	s.engine = gin.New()
	s.engine.Use(gin.Recovery())
	s.engine.Use(s.loggingMiddleware())
	if s.cfg.Server.APIKey != "" {
		s.engine.Use(s.authMiddleware())
	}

	api := s.engine.Group("/api")
	api.GET("/health", s.handleHealth)
	api.GET("/session", s.handleSession)
	api.POST("/session/mode", s.handleSetMode)
	api.POST("/youtube/info", s.handleVideoInfo)
	api.POST("/upload", s.handleUpload)
	api.POST("/summarize", s.handleSummarize)
	api.GET("/jobs", s.handleGetJobs)
	api.GET("/jobs/:id", s.handleJobStatus)
	api.POST("/jobs/:id/cancel", s.handleCancelJob)
	api.DELETE("/jobs", s.handleClearJobs)
	api.GET("/download/summary", s.handleDownloadSummary)
	api.GET("/download/transcript", s.handleDownloadTranscript)

	if distFS := GetDistFS(); distFS != nil {
		s.setupStaticFiles(distFS)
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	if err := os.MkdirAll(s.cfg.WorkDir, 0755); err != nil {
		return fmt.Errorf("failed to create working directory: %w", err)
	}

	s.jobQueue.Start()
	s.sessions.Start()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:      s.engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // Summarize jobs poll; downloads are small text files
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Starting summarizeit server on port %d", s.cfg.Server.Port)
	log.Printf("Working directory: %s", s.cfg.WorkDir)
	if s.cfg.Server.APIKey != "" {
		log.Printf("API key authentication enabled")
	}

	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	s.jobQueue.Stop()
	s.sessions.Stop()
	return s.server.Shutdown(ctx)
}

// Middleware

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Printf("%s %s %s", c.Request.Method, c.Request.URL.Path, time.Since(start))
	}
}

func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		// Health endpoint and the UI don't require auth
		if path == "/api/health" || !strings.HasPrefix(path, "/api") {
			c.Next()
			return
		}

		if c.GetHeader("X-API-Key") != s.cfg.Server.APIKey {
			c.JSON(http.StatusUnauthorized, Response{
				Code:    401,
				Data:    nil,
				Message: "invalid or missing API key",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// session resolves the caller's session from the cookie, creating one (and
// setting the cookie) on first contact.
func (s *Server) session(c *gin.Context) *Session {
	id, _ := c.Cookie(SessionCookie)
	sess := s.sessions.GetOrCreate(id)
	if sess.ID != id {
		c.SetCookie(SessionCookie, sess.ID, int(sessionTTL.Seconds()), "/", "", false, true)
	}
	return sess
}

// setupStaticFiles serves the embedded UI with fallback to index.html
func (s *Server) setupStaticFiles(distFS fs.FS) {
	s.engine.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, Response{
				Code:    404,
				Data:    nil,
				Message: "not found",
			})
			return
		}

		indexFile, err := fs.ReadFile(distFS, "index.html")
		if err != nil {
			c.String(http.StatusNotFound, "index.html not found")
			return
		}

		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, string(indexFile))
	})
}

// Handlers

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Code: 200,
		Data: gin.H{
			"status":  "ok",
			"version": version.Version,
		},
		Message: "everything is good",
	})
}

func (s *Server) handleSession(c *gin.Context) {
	sess := s.session(c)
	c.JSON(http.StatusOK, Response{
		Code:    200,
		Data:    sess,
		Message: "session",
	})
}

func (s *Server) handleSetMode(c *gin.Context) {
	var req struct {
		Mode string `json:"mode" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Code:    400,
			Data:    nil,
			Message: "invalid request body: mode is required",
		})
		return
	}

	mode, err := input.ParseMode(req.Mode)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Code:    400,
			Data:    nil,
			Message: err.Error(),
		})
		return
	}

	sess := s.session(c)
	updated := s.sessions.SetMode(sess.ID, mode)

	c.JSON(http.StatusOK, Response{
		Code:    200,
		Data:    updated,
		Message: "mode updated",
	})
}

func (s *Server) handleVideoInfo(c *gin.Context) {
	var req VideoInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Code:    400,
			Data:    nil,
			Message: "invalid request body: url is required",
		})
		return
	}

	link := input.NormalizeYouTubeURL(strings.TrimSpace(req.URL))
	details, err := s.youtube.Details(c.Request.Context(), link)
	if err != nil {
		status := http.StatusBadGateway
		if err == youtube.ErrInvalidURL {
			status = http.StatusBadRequest
		}
		c.JSON(status, Response{
			Code:    status,
			Data:    nil,
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Code:    200,
		Data:    details,
		Message: "video details",
	})
}

func (s *Server) handleUpload(c *gin.Context) {
	modeStr := c.PostForm("mode")
	mode, err := input.ParseMode(modeStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Code:    400,
			Data:    nil,
			Message: err.Error(),
		})
		return
	}

	name := mode.UploadName()
	if name == "" {
		c.JSON(http.StatusBadRequest, Response{
			Code:    400,
			Data:    nil,
			Message: fmt.Sprintf("mode %q does not take a file upload", mode),
		})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Code:    400,
			Data:    nil,
			Message: "no file in request",
		})
		return
	}

	sess := s.session(c)
	dir := s.sessions.Dir(sess.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		c.JSON(http.StatusInternalServerError, Response{
			Code:    500,
			Data:    nil,
			Message: "failed to create session directory",
		})
		return
	}

	dst := filepath.Join(dir, name)
	if err := c.SaveUploadedFile(file, dst); err != nil {
		c.JSON(http.StatusInternalServerError, Response{
			Code:    500,
			Data:    nil,
			Message: fmt.Sprintf("failed to save upload: %v", err),
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Code: 200,
		Data: gin.H{
			"filename": name,
			"size":     file.Size,
		},
		Message: "file uploaded",
	})
}

func (s *Server) handleSummarize(c *gin.Context) {
	var req SummarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Code:    400,
			Data:    nil,
			Message: "invalid request body: mode is required",
		})
		return
	}

	mode, err := input.ParseMode(req.Mode)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Code:    400,
			Data:    nil,
			Message: err.Error(),
		})
		return
	}

	sess := s.session(c)
	dir := s.sessions.Dir(sess.ID)

	// File modes read the most recent upload staged for this session.
	var uploadPath string
	if name := mode.UploadName(); name != "" {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			uploadPath = p
		}
	}

	src, err := input.Request{
		Mode:       mode,
		Text:       req.Text,
		URL:        req.URL,
		UploadPath: uploadPath,
	}.Normalize()
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Code:    400,
			Data:    nil,
			Message: err.Error(),
		})
		return
	}
	if src == nil {
		c.JSON(http.StatusBadRequest, Response{
			Code:    400,
			Data:    nil,
			Message: "nothing to summarize: provide text, a link, or upload a file first",
		})
		return
	}

	s.sessions.SetMode(sess.ID, mode)

	// AddJob refuses a second unfinished job for the session under its own
	// lock, so two concurrent requests cannot both start a run in the same
	// session directory.
	job, err := s.jobQueue.AddJob(sess.ID, mode, pipeline.Request{
		Source:    *src,
		Dir:       dir,
		Words:     req.Words,
		Translate: req.Translate,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrSessionBusy) {
			status = http.StatusConflict
		}
		c.JSON(status, Response{
			Code:    status,
			Data:    nil,
			Message: err.Error(),
		})
		return
	}

	// Bind the job to the session before workers can touch it
	s.sessions.SetActiveJob(sess.ID, job.ID)
	if err := s.jobQueue.Enqueue(job.ID); err != nil {
		s.sessions.SetActiveJob(sess.ID, "")
		c.JSON(http.StatusInternalServerError, Response{
			Code:    500,
			Data:    nil,
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Code: 200,
		Data: gin.H{
			"id":     job.ID,
			"status": job.Status,
		},
		Message: "summarize started",
	})
}

func (s *Server) handleGetJobs(c *gin.Context) {
	sess := s.session(c)
	jobs := s.jobQueue.SessionJobs(sess.ID)

	c.JSON(http.StatusOK, Response{
		Code:    200,
		Data:    gin.H{"jobs": jobs, "total": len(jobs)},
		Message: "jobs",
	})
}

// sessionJob fetches a job and verifies it belongs to the caller's session.
func (s *Server) sessionJob(c *gin.Context) *Job {
	sess := s.session(c)
	job := s.jobQueue.GetJob(c.Param("id"))
	if job == nil || job.SessionID != sess.ID {
		c.JSON(http.StatusNotFound, Response{
			Code:    404,
			Data:    nil,
			Message: "job not found",
		})
		return nil
	}
	return job
}

func (s *Server) handleJobStatus(c *gin.Context) {
	job := s.sessionJob(c)
	if job == nil {
		return
	}

	c.JSON(http.StatusOK, Response{
		Code:    200,
		Data:    job,
		Message: string(job.Status),
	})
}

func (s *Server) handleCancelJob(c *gin.Context) {
	job := s.sessionJob(c)
	if job == nil {
		return
	}

	if !s.jobQueue.CancelJob(job.ID) {
		c.JSON(http.StatusConflict, Response{
			Code:    409,
			Data:    nil,
			Message: "job already finished",
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Code:    200,
		Data:    gin.H{"id": job.ID},
		Message: "job cancelled",
	})
}

func (s *Server) handleClearJobs(c *gin.Context) {
	count := s.jobQueue.ClearHistory()
	c.JSON(http.StatusOK, Response{
		Code:    200,
		Data:    gin.H{"cleared": count},
		Message: fmt.Sprintf("cleared %d jobs", count),
	})
}

func (s *Server) handleDownloadSummary(c *gin.Context) {
	s.serveText(c, "summary.txt", s.session(c).Summary)
}

func (s *Server) handleDownloadTranscript(c *gin.Context) {
	s.serveText(c, "transcript.txt", s.session(c).Transcript)
}

// serveText sends session text as a plain-text attachment.
func (s *Server) serveText(c *gin.Context, filename, content string) {
	if content == "" {
		c.JSON(http.StatusNotFound, Response{
			Code:    404,
			Data:    nil,
			Message: "nothing to download yet",
		})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(content))
}
