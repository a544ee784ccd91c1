package youtube

import (
	"context"
	"errors"
	"testing"
)

func TestVideoID(t *testing.T) {
	tests := []struct {
		name    string
		link    string
		want    string
		wantErr bool
	}{
		{
			name: "watch link",
			link: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			want: "dQw4w9WgXcQ",
		},
		{
			name: "watch link with extra params",
			link: "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s",
			want: "dQw4w9WgXcQ",
		},
		{
			name: "shorts link",
			link: "https://www.youtube.com/shorts/abc123",
			want: "abc123",
		},
		{
			name: "embed link",
			link: "https://www.youtube.com/embed/abc123",
			want: "abc123",
		},
		{
			name:    "other site is rejected",
			link:    "https://vimeo.com/12345",
			wantErr: true,
		},
		{
			name:    "plain text is rejected",
			link:    "not a url at all",
			wantErr: true,
		},
		{
			name:    "youtube.com without video",
			link:    "https://www.youtube.com/feed/subscriptions",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := VideoID(tt.link)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidURL) {
					t.Fatalf("VideoID(%q) error = %v, want ErrInvalidURL", tt.link, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("VideoID(%q) error = %v", tt.link, err)
			}
			if got != tt.want {
				t.Errorf("VideoID(%q) = %q, want %q", tt.link, got, tt.want)
			}
		})
	}
}

// An invalid link must fail before any request goes out, so Details works
// even with no network at all.
func TestDetailsRejectsInvalidURLWithoutNetwork(t *testing.T) {
	c := NewClient()

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // any network attempt would fail loudly with context.Canceled

	_, err := c.Details(ctx, "https://vimeo.com/12345")
	if !errors.Is(err, ErrInvalidURL) {
		t.Fatalf("Details() error = %v, want ErrInvalidURL", err)
	}

	_, err = c.DownloadAudio(ctx, "ftp://example.com/file", t.TempDir())
	if !errors.Is(err, ErrInvalidURL) {
		t.Fatalf("DownloadAudio() error = %v, want ErrInvalidURL", err)
	}
}

func TestFormatLength(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "00:00:00"},
		{59, "00:00:59"},
		{60, "00:01:00"},
		{3599, "00:59:59"},
		{3661, "01:01:01"},
		{86399, "23:59:59"},
	}

	for _, tt := range tests {
		if got := FormatLength(tt.seconds); got != tt.want {
			t.Errorf("FormatLength(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestAdaptiveFormatIsAudio(t *testing.T) {
	tests := []struct {
		mime string
		want bool
	}{
		{`audio/mp4; codecs="mp4a.40.2"`, true},
		{`audio/webm; codecs="opus"`, true},
		{`video/mp4; codecs="avc1.640028"`, false},
	}

	for _, tt := range tests {
		f := adaptiveFormat{MimeType: tt.mime}
		if got := f.isAudio(); got != tt.want {
			t.Errorf("isAudio(%q) = %v, want %v", tt.mime, got, tt.want)
		}
	}
}
