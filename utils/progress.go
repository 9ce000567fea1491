package utils

import (
	"sync"
	"time"

	"github.com/cheggaaa/pb/v3"
)

// ProgressTracker manages download progress display
type ProgressTracker struct {
	bar       *pb.ProgressBar
	quiet     bool
	startTime time.Time
	total     int64
	current   int64
	mutex     sync.RWMutex
}

// DownloadSummary contains final download statistics
type DownloadSummary struct {
	TotalBytes   int64
	TotalTime    time.Duration
	AverageSpeed float64 // bytes per second
	Filename     string
}

// NewProgressTracker creates a new progress tracker. With an unknown total
// (total <= 0) the bar runs in counter mode.
func NewProgressTracker(total int64, quiet bool, prefix string) *ProgressTracker {
	tracker := &ProgressTracker{
		quiet:     quiet,
		startTime: time.Now(),
		total:     total,
	}

	if !quiet {
		tmpl := `{{string . "prefix"}}{{counters . }} {{bar . }} {{percent . }} {{speed . }} {{rtime . "ETA %s"}}`
		if total <= 0 {
			tmpl = `{{string . "prefix"}}{{counters . }} {{speed . }}`
			total = 0
		}
		bar := pb.ProgressBarTemplate(tmpl).Start64(total)
		bar.Set(pb.Bytes, true)
		bar.Set(pb.SIBytesPrefix, true)
		bar.Set("prefix", prefix+": ")
		tracker.bar = bar
	}

	return tracker
}

// Add advances the progress by n bytes
func (p *ProgressTracker) Add(n int) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.current += int64(n)
	if p.bar != nil {
		p.bar.Add(n)
	}
}

// Current returns the number of bytes recorded so far
func (p *ProgressTracker) Current() int64 {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return p.current
}

// Finish completes the progress display and returns final statistics
func (p *ProgressTracker) Finish(filename string) *DownloadSummary {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.bar != nil {
		p.bar.Finish()
	}

	elapsed := time.Since(p.startTime)
	avg := 0.0
	if elapsed > 0 {
		avg = float64(p.current) / elapsed.Seconds()
	}

	return &DownloadSummary{
		TotalBytes:   p.current,
		TotalTime:    elapsed,
		AverageSpeed: avg,
		Filename:     filename,
	}
}
