// Package cli implements the summarizeit command line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"summarizeit/internal/core/artifact"
	"summarizeit/internal/core/config"
	"summarizeit/internal/core/input"
	"summarizeit/internal/core/pipeline"
	"summarizeit/internal/core/summarizer"
	"summarizeit/internal/core/transcriber"
	"summarizeit/internal/core/version"
	"summarizeit/internal/core/youtube"
)

var (
	summaryWords   int
	translateFlag  bool
	directText     bool
	showTranscript bool
)

var rootCmd = &cobra.Command{
	Use:     "summarizeit [file or YouTube URL]",
	Short:   "Summarize text, YouTube videos, and audio or video files",
	Version: version.Version,
	Args:    cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			cmd.Help()
			return
		}
		if err := runSummarize(args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.Flags().IntVarP(&summaryWords, "words", "w", summarizer.DefaultWords, "approximate summary length in words")
	rootCmd.Flags().BoolVar(&translateFlag, "translate", false, "translate the transcript to English before summarizing")
	rootCmd.Flags().BoolVar(&directText, "text", false, "treat the argument as literal text to summarize")
	rootCmd.Flags().BoolVar(&showTranscript, "transcript", false, "print the transcript along with the summary")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}

func Execute() error {
	return rootCmd.Execute()
}

func runSummarize(arg string) error {
	cfg := config.LoadOrDefault()

	if !config.Exists() {
		color.Yellow("No config file found, using defaults. Run 'summarizeit init'.")
	}

	sum, err := summarizer.New(cfg.AI.SummaryProvider, cfg.AI.SummaryModel, cfg.SummarizerKey())
	if err != nil {
		return err
	}
	tr, err := transcriber.NewOpenAI(cfg.OpenAIKey(), cfg.AI.TranscriptionModel)
	if err != nil && !directText {
		return err
	}

	// Each run gets a throwaway directory so pipeline cleanup never touches
	// the user's own files.
	dir, err := os.MkdirTemp("", "summarizeit-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	src, err := resolveSource(arg, dir)
	if err != nil {
		return err
	}

	p := pipeline.New(youtube.NewClient(), tr, sum)

	progress := func(step pipeline.Step, detail string) {
		color.Cyan("→ %s", detail)
	}

	result, err := p.Run(context.Background(), pipeline.Request{
		Source:    *src,
		Dir:       dir,
		Words:     summaryWords,
		Translate: translateFlag,
	}, progress)
	if err != nil {
		return err
	}

	if showTranscript && result.Transcript != result.Summary {
		color.New(color.Bold).Println("\nTranscript")
		fmt.Println(result.Transcript)
	}

	color.New(color.Bold).Println("\nSummary")
	fmt.Println(result.Summary)
	return nil
}

// resolveSource maps the CLI argument to a pipeline source, staging local
// files into the run directory.
func resolveSource(arg, dir string) (*input.Source, error) {
	if directText {
		return &input.Source{Text: arg, IsText: true}, nil
	}

	link := input.NormalizeYouTubeURL(arg)
	if strings.Contains(link, "youtube.com") {
		return &input.Source{URL: link, IsYouTube: true}, nil
	}

	if _, err := os.Stat(arg); err != nil {
		return nil, fmt.Errorf("not a YouTube URL and not a readable file: %s", arg)
	}

	staged := filepath.Join(dir, artifact.PrefixUploaded+filepath.Base(arg))
	if err := copyFile(arg, staged); err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(arg)) {
	case ".txt", ".md":
		return &input.Source{Path: staged, IsText: true}, nil
	default:
		return &input.Source{Path: staged}, nil
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
