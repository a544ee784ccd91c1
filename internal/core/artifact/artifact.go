// Package artifact names and tracks the transient files a pipeline run
// produces. Every artifact carries one of four fixed prefixes so stale files
// are recognizable on disk, but cleanup is scoped to the files a Tracker
// actually recorded for its run, never a directory-wide prefix scan.
package artifact

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

const (
	PrefixDownloaded = "downloaded_"
	PrefixUploaded   = "uploaded_"
	PrefixTranscript = "transcript_"
	PrefixTemp       = "temp_"
)

// TempTextName is the fixed filename direct text input is staged under.
const TempTextName = "temp_user_input.txt"

var whitespaceRe = regexp.MustCompile(`\s+`)

// nameSanitizer rewrites characters that are problematic in filenames. Path
// separators become dashes rather than vanishing so a title like "AC/DC Live"
// stays recognizable instead of being truncated at the separator.
var nameSanitizer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
	"\n", " ",
	"\r", "",
)

// DownloadedAudioName derives the normalized audio filename for a downloaded
// stream's title: problematic filename characters sanitized, the downloaded_
// prefix added, the extension replaced by .mp3, and every run of whitespace
// collapsed to one underscore. "My Video.mp4" becomes
// "downloaded_My_Video.mp3".
func DownloadedAudioName(original string) string {
	name := strings.TrimSpace(nameSanitizer.Replace(original))
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return whitespaceRe.ReplaceAllString(PrefixDownloaded+name+".mp3", "_")
}

// TranscriptName derives the transcript path for an audio file: same
// directory, downloaded_ prefix stripped, transcript_ prefix added, .txt
// extension. "downloaded_My_Video.mp3" becomes "transcript_My_Video.txt".
func TranscriptName(audioPath string) string {
	dir := filepath.Dir(audioPath)
	base := filepath.Base(audioPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	name = strings.TrimPrefix(name, PrefixDownloaded)
	return filepath.Join(dir, PrefixTranscript+name+".txt")
}

// HasArtifactPrefix reports whether a filename carries one of the four fixed
// artifact prefixes.
func HasArtifactPrefix(name string) bool {
	base := filepath.Base(name)
	return strings.HasPrefix(base, PrefixDownloaded) ||
		strings.HasPrefix(base, PrefixUploaded) ||
		strings.HasPrefix(base, PrefixTranscript) ||
		strings.HasPrefix(base, PrefixTemp)
}

// Tracker records the files one pipeline run creates so they can be removed
// on every exit path without touching anything another run owns.
type Tracker struct {
	mu    sync.Mutex
	files []string
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// Add records a file for later cleanup. Duplicates are ignored.
func (t *Tracker) Add(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, f := range t.files {
		if f == path {
			return
		}
	}
	t.files = append(t.files, path)
}

// Files returns a copy of the tracked paths.
func (t *Tracker) Files() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]string, len(t.files))
	copy(out, t.files)
	return out
}

// Cleanup removes every tracked file. Missing files are not an error; any
// other removal failures are joined and returned after all files were tried.
func (t *Tracker) Cleanup() error {
	t.mu.Lock()
	files := t.files
	t.files = nil
	t.mu.Unlock()

	var errs []error
	for _, f := range files {
		if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
