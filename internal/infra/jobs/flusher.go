package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Flusher persists pending state; changed is false when there was nothing to write.
type Flusher interface {
	Flush(ctx context.Context) (changed bool, err error)
}

// SnapshotJob flushes the calendar snapshot on a cron schedule. Runs never overlap: a tick
// that fires while the previous flush is still writing is skipped.
type SnapshotJob struct {
	Flusher Flusher
	Spec    string
	Timeout time.Duration
	Logger  *slog.Logger

	cron *cron.Cron
}

var ErrJobMisconfigured = errors.New("jobs: flusher and spec required")

func (j *SnapshotJob) Start() error {
	if j.Flusher == nil || j.Spec == "" {
		return ErrJobMisconfigured
	}
	logger := j.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(j.Spec, func() { j.run(logger) }); err != nil {
		return err
	}
	j.cron = c
	c.Start()
	logger.Info("snapshot flush scheduled", "spec", j.Spec)
	return nil
}

// Stop halts the schedule and waits for a running flush to finish or ctx to expire.
func (j *SnapshotJob) Stop(ctx context.Context) {
	if j.cron == nil {
		return
	}
	select {
	case <-j.cron.Stop().Done():
	case <-ctx.Done():
	}
}

func (j *SnapshotJob) run(logger *slog.Logger) {
	timeout := j.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	changed, err := j.Flusher.Flush(ctx)
	if err != nil {
		logger.Error("snapshot flush failed", "error", err)
		return
	}
	if changed {
		logger.Debug("snapshot flushed")
	}
}
