// Package youtube resolves video metadata and downloads audio-only streams
// via the Innertube player API.
package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"summarizeit/internal/core/artifact"
)

const (
	playerURL = "https://www.youtube.com/youtubei/v1/player"

	// ANDROID client: the player response carries direct stream URLs with no
	// signature challenge.
	androidVersion = "20.10.38"
	androidUA      = "com.google.android.youtube/" + androidVersion + " (Linux; U; Android 11) gzip"
)

// ErrInvalidURL is returned before any network call when the link is not a
// YouTube URL.
var ErrInvalidURL = errors.New("please provide a valid YouTube URL")

// Client talks to the Innertube API and downloads streams.
type Client struct {
	http *http.Client
}

// NewClient creates a YouTube client. Timeouts are left to the caller's
// context since stream downloads can run long.
func NewClient() *Client {
	return &Client{
		http: &http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
			},
		},
	}
}

// Details holds the video metadata shown in the UI.
type Details struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Views       int64  `json:"views"`
	Length      string `json:"length"` // HH:MM:SS
	PublishDate string `json:"publish_date"`
	Thumbnail   string `json:"thumbnail_url"`
}

// VideoID extracts the video ID from a YouTube link. It rejects anything that
// is not a youtube.com URL without touching the network.
func VideoID(link string) (string, error) {
	if !strings.Contains(link, "youtube.com") {
		return "", ErrInvalidURL
	}

	u, err := url.Parse(link)
	if err != nil {
		return "", ErrInvalidURL
	}

	if v := u.Query().Get("v"); v != "" {
		return v, nil
	}
	for _, prefix := range []string{"/shorts/", "/embed/", "/live/"} {
		if rest, ok := strings.CutPrefix(u.Path, prefix); ok && rest != "" {
			if i := strings.IndexByte(rest, '/'); i > 0 {
				rest = rest[:i]
			}
			return rest, nil
		}
	}

	return "", ErrInvalidURL
}

// Innertube request/response types (ANDROID /player endpoint).

type innertubeReq struct {
	VideoID        string       `json:"videoId"`
	Context        innertubeCtx `json:"context"`
	RacyCheckOk    bool         `json:"racyCheckOk"`
	ContentCheckOk bool         `json:"contentCheckOk"`
}

type innertubeCtx struct {
	Client innertubeClient `json:"client"`
}

type innertubeClient struct {
	ClientName        string `json:"clientName"`
	ClientVersion     string `json:"clientVersion"`
	AndroidSdkVersion int    `json:"androidSdkVersion,omitempty"`
	Hl                string `json:"hl,omitempty"`
	Gl                string `json:"gl,omitempty"`
}

type playerResponse struct {
	PlayabilityStatus struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	VideoDetails struct {
		VideoID       string `json:"videoId"`
		Title         string `json:"title"`
		Author        string `json:"author"`
		ViewCount     string `json:"viewCount"`
		LengthSeconds string `json:"lengthSeconds"`
		Thumbnail     struct {
			Thumbnails []struct {
				URL    string `json:"url"`
				Width  int    `json:"width"`
				Height int    `json:"height"`
			} `json:"thumbnails"`
		} `json:"thumbnail"`
	} `json:"videoDetails"`
	Microformat struct {
		PlayerMicroformatRenderer struct {
			PublishDate string `json:"publishDate"`
		} `json:"playerMicroformatRenderer"`
	} `json:"microformat"`
	StreamingData struct {
		AdaptiveFormats []adaptiveFormat `json:"adaptiveFormats"`
	} `json:"streamingData"`
}

type adaptiveFormat struct {
	Itag         int    `json:"itag"`
	MimeType     string `json:"mimeType"`
	Bitrate      int    `json:"bitrate"`
	URL          string `json:"url"`
	AudioQuality string `json:"audioQuality"`
}

func (f *adaptiveFormat) isAudio() bool {
	return strings.HasPrefix(f.MimeType, "audio/")
}

// player fetches the Innertube player response for a video ID.
func (c *Client) player(ctx context.Context, videoID string) (*playerResponse, error) {
	payload := innertubeReq{
		VideoID: videoID,
		Context: innertubeCtx{
			Client: innertubeClient{
				ClientName:        "ANDROID",
				ClientVersion:     androidVersion,
				AndroidSdkVersion: 30,
				Hl:                "en",
				Gl:                "US",
			},
		},
		RacyCheckOk:    true,
		ContentCheckOk: true,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, playerURL+"?prettyPrint=false", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "*/*")
	req.Header.Set("User-Agent", androidUA)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach YouTube: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("YouTube returned HTTP %d: %s", resp.StatusCode, snippet)
	}

	pr := &playerResponse{}
	if err := json.NewDecoder(resp.Body).Decode(pr); err != nil {
		return nil, fmt.Errorf("failed to decode player response: %w", err)
	}

	if pr.PlayabilityStatus.Status != "" && pr.PlayabilityStatus.Status != "OK" {
		reason := pr.PlayabilityStatus.Reason
		if reason == "" {
			reason = pr.PlayabilityStatus.Status
		}
		return nil, fmt.Errorf("video is not playable: %s", reason)
	}

	return pr, nil
}

// Details resolves the video metadata for a YouTube link.
func (c *Client) Details(ctx context.Context, link string) (*Details, error) {
	id, err := VideoID(link)
	if err != nil {
		return nil, err
	}

	pr, err := c.player(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("an error occurred while fetching video details: %w", err)
	}

	vd := pr.VideoDetails
	views, _ := strconv.ParseInt(vd.ViewCount, 10, 64)
	seconds, _ := strconv.Atoi(vd.LengthSeconds)

	// Largest thumbnail wins
	var thumb string
	var thumbWidth int
	for _, t := range vd.Thumbnail.Thumbnails {
		if t.Width >= thumbWidth {
			thumbWidth = t.Width
			thumb = t.URL
		}
	}

	return &Details{
		ID:          vd.VideoID,
		Title:       vd.Title,
		Author:      vd.Author,
		Views:       views,
		Length:      FormatLength(seconds),
		PublishDate: pr.Microformat.PlayerMicroformatRenderer.PublishDate,
		Thumbnail:   thumb,
	}, nil
}

// DownloadAudio downloads the best audio-only stream for a link into dir and
// returns the path of the normalized downloaded_ artifact.
func (c *Client) DownloadAudio(ctx context.Context, link, dir string) (string, error) {
	id, err := VideoID(link)
	if err != nil {
		return "", err
	}

	pr, err := c.player(ctx, id)
	if err != nil {
		return "", fmt.Errorf("an error occurred while downloading the audio: %w", err)
	}

	var best *adaptiveFormat
	for i := range pr.StreamingData.AdaptiveFormats {
		f := &pr.StreamingData.AdaptiveFormats[i]
		if !f.isAudio() || f.URL == "" {
			continue
		}
		if best == nil || f.Bitrate > best.Bitrate {
			best = f
		}
	}
	if best == nil {
		return "", errors.New("no audio stream is available for this video")
	}

	title := pr.VideoDetails.Title
	if title == "" {
		title = id
	}
	target := filepath.Join(dir, artifact.DownloadedAudioName(title+".mp4"))

	tmp := filepath.Join(dir, artifact.PrefixTemp+"audio_"+id+".part")
	if err := c.download(ctx, best.URL, tmp); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("an error occurred while downloading the audio: %w", err)
	}

	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("an error occurred while downloading the audio: %w", err)
	}

	if _, err := os.Stat(target); err != nil {
		return "", errors.New("download failed!")
	}

	return target, nil
}

// download streams a URL to a local file, honoring context cancellation.
func (c *Client) download(ctx context.Context, streamURL, outputPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", androidUA)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("download request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	buf := make([]byte, 32*1024)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := file.Write(buf[:n]); writeErr != nil {
				return fmt.Errorf("failed to write file: %w", writeErr)
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("download failed: %w", readErr)
		}
	}
}

// FormatLength converts a duration in seconds to HH:MM:SS.
func FormatLength(seconds int) string {
	h := seconds / 3600
	m := (seconds / 60) % 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
