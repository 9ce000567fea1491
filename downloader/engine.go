// Package downloader fetches resolved files to disk.
package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"bunkrfetch/internal"
	"bunkrfetch/utils"
)

// StreamEngine implements the DownloadEngine interface with a single
// streaming connection per file. The CDN serves one signed URL per file;
// segmented downloads are not worth the extra requests here.
type StreamEngine struct {
	client  *utils.HTTPClient
	fileOps *utils.FileOperations
}

// NewStreamEngine creates a new instance of StreamEngine
func NewStreamEngine() *StreamEngine {
	client := utils.NewHTTPClientWithConfig(&utils.HTTPClientConfig{
		Timeout:         0, // large files; the transport handles stalls
		FollowRedirects: true,
		MaxAttempts:     3,
	})
	return NewStreamEngineWithClient(client)
}

// NewStreamEngineWithClient creates an engine with a custom HTTP client
func NewStreamEngineWithClient(client *utils.HTTPClient) *StreamEngine {
	return &StreamEngine{
		client:  client,
		fileOps: utils.NewFileOperations(),
	}
}

// Download fetches a resolved file, trying the direct URL first and then
// each fallback location in order. The descriptor's validation predicate
// is applied to every response; a rejected response counts as a failed
// location, not an error in itself.
func (e *StreamEngine) Download(ctx context.Context, file *internal.FileDescriptor, config *internal.DownloadConfig) error {
	if file == nil {
		return fmt.Errorf("file descriptor cannot be nil")
	}
	if config == nil {
		config = &internal.DownloadConfig{}
	}

	candidates := append([]string{file.DirectURL}, file.Fallback...)

	var lastErr error
	for _, candidate := range candidates {
		err := e.downloadOne(ctx, candidate, file, config)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
		lastErr = err
		internal.LogWarn("download location failed: %v", err)
	}

	return fmt.Errorf("all download locations failed: %w", lastErr)
}

func (e *StreamEngine) downloadOne(ctx context.Context, rawURL string, file *internal.FileDescriptor, config *internal.DownloadConfig) error {
	resp, err := e.client.Do(ctx, http.MethodGet, rawURL, file.Headers, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return internal.NewBunkrError(resp.StatusCode, "unexpected download status", internal.ErrDownloadFailed).
			WithURL(rawURL)
	}

	if file.Validate != nil && !file.Validate(resp) {
		return internal.NewBunkrError(0, "response rejected by validation", internal.ErrMaintenance).
			WithURL(rawURL)
	}

	name := utils.SanitizeFilename(file.Name)
	if name == "unnamed" && file.ID != "" {
		name = utils.SanitizeFilename(file.ID)
	}
	outputPath := e.fileOps.UniquePath(filepath.Join(config.OutputDir, name))
	if err := e.fileOps.EnsureDir(outputPath); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	partPath := outputPath + ".part"
	out, err := os.Create(partPath)
	if err != nil {
		return fmt.Errorf("failed to create part file: %w", err)
	}

	var limiter internal.RateLimiter
	if config.RateLimit > 0 {
		limiter = utils.NewTokenBucketLimiter(config.RateLimit)
	}
	progress := utils.NewProgressTracker(resp.ContentLength, config.Quiet, name)

	written, err := e.copyBody(ctx, out, resp.Body, limiter, progress)
	closeErr := out.Close()
	summary := progress.Finish(name)

	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(partPath)
		return fmt.Errorf("download failed after %d bytes: %w", written, err)
	}

	if err := e.fileOps.AtomicRename(partPath, outputPath); err != nil {
		os.Remove(partPath)
		return fmt.Errorf("failed to finalize download: %w", err)
	}

	internal.LogInfo("downloaded %s (%d bytes in %s)", outputPath, summary.TotalBytes, summary.TotalTime.Round(time.Millisecond))
	return nil
}

// copyBody streams the response body to disk in fixed-size chunks,
// honoring the rate limit and cancellation between chunks.
func (e *StreamEngine) copyBody(ctx context.Context, dst io.Writer, src io.Reader, limiter internal.RateLimiter, progress *utils.ProgressTracker) (int64, error) {
	buf := make([]byte, 32*1024)
	var written int64

	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		n, readErr := src.Read(buf)
		if n > 0 {
			if limiter != nil {
				if err := limiter.Wait(ctx, n); err != nil {
					return written, err
				}
			}
			if _, err := dst.Write(buf[:n]); err != nil {
				return written, err
			}
			written += int64(n)
			progress.Add(n)
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, readErr
		}
	}
}
