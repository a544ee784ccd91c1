package artifact

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDownloadedAudioName(t *testing.T) {
	tests := []struct {
		name     string
		original string
		want     string
	}{
		{
			name:     "spaces collapse to underscores",
			original: "My Video.mp4",
			want:     "downloaded_My_Video.mp3",
		},
		{
			name:     "multiple spaces collapse to one underscore",
			original: "My   Spaced   Video.mp4",
			want:     "downloaded_My_Spaced_Video.mp3",
		},
		{
			name:     "tabs and spaces",
			original: "a \tb.webm",
			want:     "downloaded_a_b.mp3",
		},
		{
			name:     "no whitespace",
			original: "talk.m4a",
			want:     "downloaded_talk.mp3",
		},
		{
			name:     "no extension",
			original: "plain title",
			want:     "downloaded_plain_title.mp3",
		},
		{
			name:     "separators become dashes instead of truncating",
			original: "AC/DC Live.mp4",
			want:     "downloaded_AC-DC_Live.mp3",
		},
		{
			name:     "reserved characters are dropped",
			original: `what? a "title".webm`,
			want:     "downloaded_what_a_title.mp3",
		},
		{
			name:     "backslash and colon",
			original: `intro\part 2: basics.mp4`,
			want:     "downloaded_intro-part_2-_basics.mp3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DownloadedAudioName(tt.original)
			if got != tt.want {
				t.Errorf("DownloadedAudioName(%q) = %q, want %q", tt.original, got, tt.want)
			}
		})
	}
}

func TestTranscriptName(t *testing.T) {
	tests := []struct {
		name      string
		audioPath string
		want      string
	}{
		{
			name:      "downloaded prefix is swapped for transcript",
			audioPath: filepath.Join("work", "downloaded_My_Video.mp3"),
			want:      filepath.Join("work", "transcript_My_Video.txt"),
		},
		{
			name:      "uploaded audio keeps its prefix",
			audioPath: filepath.Join("work", "uploaded_audio.mp3"),
			want:      filepath.Join("work", "transcript_uploaded_audio.txt"),
		},
		{
			name:      "plain file",
			audioPath: "talk.mp3",
			want:      "transcript_talk.txt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TranscriptName(tt.audioPath)
			if got != tt.want {
				t.Errorf("TranscriptName(%q) = %q, want %q", tt.audioPath, got, tt.want)
			}
		})
	}
}

func TestHasArtifactPrefix(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"downloaded_a.mp3", true},
		{"uploaded_video.mp4", true},
		{"transcript_a.txt", true},
		{"temp_user_input.txt", true},
		{"summary.txt", false},
		{"mydownloaded_file.mp3", false},
	}

	for _, tt := range tests {
		if got := HasArtifactPrefix(tt.name); got != tt.want {
			t.Errorf("HasArtifactPrefix(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestTrackerCleanup(t *testing.T) {
	dir := t.TempDir()

	tracked := filepath.Join(dir, "downloaded_a.mp3")
	untracked := filepath.Join(dir, "downloaded_other.mp3")
	for _, f := range []string{tracked, untracked} {
		if err := os.WriteFile(f, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	tr := NewTracker()
	tr.Add(tracked)
	tr.Add(tracked) // duplicate is ignored
	tr.Add(filepath.Join(dir, "never_created.txt"))

	if got := len(tr.Files()); got != 2 {
		t.Fatalf("tracked %d files, want 2", got)
	}

	if err := tr.Cleanup(); err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}

	if _, err := os.Stat(tracked); !os.IsNotExist(err) {
		t.Error("tracked file still exists after cleanup")
	}
	if _, err := os.Stat(untracked); err != nil {
		t.Error("cleanup removed a file it never tracked")
	}
	if got := len(tr.Files()); got != 0 {
		t.Errorf("tracker still holds %d files after cleanup", got)
	}
}

func TestTrackerCleanupIdempotent(t *testing.T) {
	tr := NewTracker()
	tr.Add(filepath.Join(t.TempDir(), "gone.txt"))

	if err := tr.Cleanup(); err != nil {
		t.Fatalf("Cleanup() with missing file error = %v", err)
	}
	if err := tr.Cleanup(); err != nil {
		t.Fatalf("second Cleanup() error = %v", err)
	}
}
