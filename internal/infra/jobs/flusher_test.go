package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

type countingFlusher struct {
	calls atomic.Int32
	err   error
}

func (f *countingFlusher) Flush(ctx context.Context) (bool, error) {
	f.calls.Add(1)
	return true, f.err
}

func TestSnapshotJobRunsOnSchedule(t *testing.T) {
	f := &countingFlusher{}
	job := &SnapshotJob{Flusher: f, Spec: "@every 1s"}
	if err := job.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for f.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	job.Stop(ctx)
	if f.calls.Load() == 0 {
		t.Fatalf("expected at least one flush")
	}
}

func TestSnapshotJobRejectsBadSpec(t *testing.T) {
	job := &SnapshotJob{Flusher: &countingFlusher{}, Spec: "every so often"}
	if err := job.Start(); err == nil {
		t.Fatalf("expected parse error")
	}
	if err := (&SnapshotJob{}).Start(); !errors.Is(err, ErrJobMisconfigured) {
		t.Fatalf("expected misconfigured error, got %v", err)
	}
}

func TestRunSurvivesFlushError(t *testing.T) {
	f := &countingFlusher{err: errors.New("disk full")}
	job := &SnapshotJob{Flusher: f, Spec: "@every 1h"}
	job.run(discardLogger())
	if f.calls.Load() != 1 {
		t.Fatalf("expected one call, got %d", f.calls.Load())
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
