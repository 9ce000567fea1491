package utils

import (
	"testing"
	"time"
)

func TestProgressTracker_Add(t *testing.T) {
	tracker := NewProgressTracker(1000, true, "test.mp4")

	tracker.Add(300)
	tracker.Add(200)

	if got := tracker.Current(); got != 500 {
		t.Errorf("expected 500 bytes recorded, got %d", got)
	}
}

func TestProgressTracker_Finish(t *testing.T) {
	tracker := NewProgressTracker(1000, true, "test.mp4")

	tracker.Add(1000)
	time.Sleep(10 * time.Millisecond)

	summary := tracker.Finish("test.mp4")
	if summary == nil {
		t.Fatal("expected a summary")
	}
	if summary.TotalBytes != 1000 {
		t.Errorf("expected 1000 total bytes, got %d", summary.TotalBytes)
	}
	if summary.Filename != "test.mp4" {
		t.Errorf("expected filename in summary, got %q", summary.Filename)
	}
	if summary.TotalTime <= 0 {
		t.Errorf("expected positive elapsed time, got %v", summary.TotalTime)
	}
	if summary.AverageSpeed <= 0 {
		t.Errorf("expected positive average speed, got %f", summary.AverageSpeed)
	}
}

func TestProgressTracker_UnknownTotal(t *testing.T) {
	tracker := NewProgressTracker(0, true, "stream")

	tracker.Add(4096)
	if got := tracker.Current(); got != 4096 {
		t.Errorf("expected 4096 bytes recorded, got %d", got)
	}

	summary := tracker.Finish("stream")
	if summary.TotalBytes != 4096 {
		t.Errorf("expected 4096 total bytes, got %d", summary.TotalBytes)
	}
}
