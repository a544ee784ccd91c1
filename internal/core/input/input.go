// Package input normalizes the five UI input modes into a single Source
// description the pipeline can process.
package input

import (
	"fmt"
	"net/url"
	"strings"
)

// Mode identifies how the user provided their content.
type Mode string

const (
	ModeText      Mode = "text"
	ModeTextFile  Mode = "text-file"
	ModeYouTube   Mode = "youtube"
	ModeVideoFile Mode = "video-file"
	ModeAudioFile Mode = "audio-file"
)

// ParseMode validates a mode string coming from the UI.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeText, ModeTextFile, ModeYouTube, ModeVideoFile, ModeAudioFile:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown input mode: %q", s)
	}
}

// UploadName returns the fixed filename an upload for this mode is saved
// under, or "" for modes that take no upload.
func (m Mode) UploadName() string {
	switch m {
	case ModeTextFile:
		return "uploaded_text.txt"
	case ModeVideoFile:
		return "uploaded_video.mp4"
	case ModeAudioFile:
		return "uploaded_audio.mp3"
	default:
		return ""
	}
}

// Source is the normalized description of what to process.
type Source struct {
	// Text holds direct text input (ModeText only).
	Text string

	// Path points at a saved upload (file modes only).
	Path string

	// URL is the YouTube link (ModeYouTube only).
	URL string

	IsText    bool
	IsYouTube bool
}

// Request carries the raw per-mode UI input.
type Request struct {
	Mode Mode

	// Text is the textarea content for ModeText.
	Text string

	// URL is the link for ModeYouTube.
	URL string

	// UploadPath is the saved upload for the file modes.
	UploadPath string
}

// Normalize maps the request to a Source. A nil Source with a nil error means
// there is nothing to process yet (empty text, no link, no upload) and the
// pipeline should simply not run.
func (r Request) Normalize() (*Source, error) {
	switch r.Mode {
	case ModeText:
		text := strings.TrimSpace(r.Text)
		if text == "" {
			return nil, nil
		}
		return &Source{Text: r.Text, IsText: true}, nil

	case ModeTextFile:
		if r.UploadPath == "" {
			return nil, nil
		}
		return &Source{Path: r.UploadPath, IsText: true}, nil

	case ModeYouTube:
		link := strings.TrimSpace(r.URL)
		if link == "" {
			return nil, nil
		}
		link = NormalizeYouTubeURL(link)
		if !strings.Contains(link, "youtube.com") {
			return nil, fmt.Errorf("please provide a valid YouTube URL")
		}
		return &Source{URL: link, IsYouTube: true}, nil

	case ModeVideoFile, ModeAudioFile:
		if r.UploadPath == "" {
			return nil, nil
		}
		return &Source{Path: r.UploadPath}, nil

	default:
		return nil, fmt.Errorf("unknown input mode: %q", r.Mode)
	}
}

// NormalizeYouTubeURL rewrites youtu.be short links into the canonical
// youtube.com/watch form so the substring validation covers them too. Any
// other URL is returned unchanged.
func NormalizeYouTubeURL(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return link
	}
	if strings.EqualFold(u.Host, "youtu.be") {
		id := strings.Trim(u.Path, "/")
		if id == "" {
			return link
		}
		return "https://www.youtube.com/watch?v=" + id
	}
	return link
}
