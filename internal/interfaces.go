package internal

import "context"

// LinkResolver turns one media page URL into a downloadable file descriptor
type LinkResolver interface {
	ResolveFile(pageURL string) (*FileDescriptor, error)
}

// DownloadEngine fetches resolved files to disk
type DownloadEngine interface {
	Download(ctx context.Context, file *FileDescriptor, config *DownloadConfig) error
}

// RateLimiter controls bandwidth usage
type RateLimiter interface {
	Wait(ctx context.Context, n int) error
	SetRate(bytesPerSecond int64)
}
