package internal

import (
	"net/http"
	"time"
)

// FileDescriptor contains everything the download layer needs to fetch
// one resolved file. It is immutable once handed out by the extractor.
type FileDescriptor struct {
	DirectURL string    `json:"direct_url"`
	Name      string    `json:"name"`
	ID        string    `json:"id"`
	Size      string    `json:"size,omitempty"`
	Date      time.Time `json:"date,omitempty"`

	// Fallback holds alternate locations to try when DirectURL fails.
	Fallback []string `json:"fallback,omitempty"`

	// Headers must be sent with the download request (Referer in particular,
	// the CDN rejects requests without it).
	Headers map[string]string `json:"-"`

	// Validate inspects the final download response. A false return is a
	// soft rejection: the location is unusable but the failure is not an
	// error in itself.
	Validate func(*http.Response) bool `json:"-"`
}

// AlbumMetadata describes one album page fetch.
//
// Count is the raw item-block count from the page, before any offset is
// applied and before per-item failures are filtered out.
type AlbumMetadata struct {
	AlbumID   string `json:"album_id"`
	AlbumName string `json:"album_name"`
	AlbumSize string `json:"album_size"`
	Count     int    `json:"count"`
}

// DownloadConfig contains configuration for download operations
type DownloadConfig struct {
	OutputDir string
	RateLimit int64 // bytes per second, 0 = unlimited
	Quiet     bool
}
