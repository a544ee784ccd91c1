package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"summarizeit/internal/core/config"
	"summarizeit/internal/server"
)

var (
	servePort    int
	serveWorkDir string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the summarize web UI and API server",
	Long: `Start an HTTP server with the web UI and summarize API.

Examples:
  summarizeit serve              # Start server on port 8080
  summarizeit serve -p 9000      # Start server on port 9000

API Endpoints:
  GET  /api/health               # Health check
  POST /api/youtube/info         # Fetch YouTube video details
  POST /api/upload               # Upload a text, audio, or video file
  POST /api/summarize            # Queue a summarize job
  GET  /api/jobs/:id             # Get job status`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runServe(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "HTTP listen port (default: 8080)")
	serveCmd.Flags().StringVarP(&serveWorkDir, "workdir", "o", "", "working directory for pipeline artifacts")
}

func runServe() error {
	cfg := config.LoadOrDefault()

	// Flag > config > default
	if servePort > 0 {
		cfg.Server.Port = servePort
	}
	if serveWorkDir != "" {
		cfg.WorkDir = serveWorkDir
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		return err
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Stop(ctx)
	}()

	return srv.Start()
}
