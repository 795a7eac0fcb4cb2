// Package share implements the download half of the attachment pipeline:
// fetching a post's remote photo into the local cache and handing it to
// the platform's share facility.
package share

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"tourblog/internal/domain"
	"tourblog/internal/media"
)

// Pipeline downloads a post's photo to the cache directory and invokes
// the configured sharer on it. Each step failure is reported with the
// step that failed, and a failed download never leaves a partial file at
// the advertised cache path.
type Pipeline struct {
	cacheDir   string
	httpClient *http.Client
	sharer     domain.Sharer
	logger     *slog.Logger
}

// NewPipeline creates a share pipeline writing into cacheDir.
func NewPipeline(cacheDir string, sharer domain.Sharer, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		cacheDir: cacheDir,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		sharer: sharer,
		logger: logger,
	}
}

// Share runs the full sequence for one post: derive the cache file name
// from the post title and the URL's extension, download the photo, check
// share availability, and present the file with a message composed of
// title, description, and the coordinate pair.
func (p *Pipeline) Share(ctx context.Context, post domain.Post) error {
	ext, err := media.ExtensionFromURL(post.ImageURL)
	if err != nil {
		return &domain.ShareError{Step: "name", Err: err}
	}
	mimeType, err := media.MIMEType(ext)
	if err != nil {
		return &domain.ShareError{Step: "name", Err: err}
	}

	cached := filepath.Join(p.cacheDir, media.SafeFileName(post.Title)+"."+ext)
	if err := p.download(ctx, post.ImageURL, cached); err != nil {
		return &domain.ShareError{Step: "download", Err: err}
	}

	if !p.sharer.Available() {
		return &domain.ShareError{Step: "availability", Err: fmt.Errorf("sharing is not available on this device")}
	}

	message := shareMessage(post)
	p.logger.Info("sharing post photo", "post", post.ID, "file", cached)
	if err := p.sharer.Share(ctx, cached, mimeType, message); err != nil {
		return &domain.ShareError{Step: "share", Err: err}
	}
	return nil
}

// download fetches the asset into the cache. The bytes land in a
// uniquely named temp file first and are renamed into place only once the
// body has been read in full, so the final path never holds a truncated
// image.
func (p *Pipeline) download(ctx context.Context, assetURL, destination string) error {
	if err := os.MkdirAll(p.cacheDir, 0o750); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, assetURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch asset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("fetch asset: unexpected status %d", resp.StatusCode)
	}

	tmp := filepath.Join(p.cacheDir, uuid.NewString()+".part")
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create cache file: %w", err)
	}

	if _, err := io.Copy(file, resp.Body); err != nil {
		file.Close()
		os.Remove(tmp)
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close cache file: %w", err)
	}

	if err := os.Rename(tmp, destination); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("finalize cache file: %w", err)
	}
	return nil
}

func shareMessage(post domain.Post) string {
	coordinates := strings.Join([]string{
		strconv.FormatFloat(post.Location.Longitude, 'f', -1, 64),
		strconv.FormatFloat(post.Location.Latitude, 'f', -1, 64),
	}, ", ")
	return fmt.Sprintf("%s\n%s\nLocation: %s", post.Title, post.Description, coordinates)
}

// CommandSharer presents files through an external helper command
// (xdg-open, termux-share). The message is written to the helper's
// stdin; helpers that cannot show it simply ignore their input.
type CommandSharer struct {
	Command string
}

// Available reports whether the helper is on PATH.
func (s *CommandSharer) Available() bool {
	if s.Command == "" {
		return false
	}
	_, err := exec.LookPath(s.Command)
	return err == nil
}

// Share invokes the helper with the cached file.
func (s *CommandSharer) Share(ctx context.Context, path, mimeType, message string) error {
	cmd := exec.CommandContext(ctx, s.Command, path)
	cmd.Stdin = strings.NewReader(message)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("run %s: %w: %s", s.Command, err, strings.TrimSpace(string(output)))
	}
	return nil
}
