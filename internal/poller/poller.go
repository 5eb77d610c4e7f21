// Package poller provides a timer-driven polling client that repeatedly
// invokes the read-triggered reconciliation path for an in-flight video
// until it reaches a terminal state. It is the safety net for lost
// webhooks: locally stale statuses self-heal on cadence.
package poller

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/scriptreel/scriptreel-api/internal/video"
)

// DefaultInterval is the polling cadence when none is configured.
const DefaultInterval = 5 * time.Second

// StatusReader is the read-triggered reconciliation path the watcher drives.
type StatusReader interface {
	Refresh(ctx context.Context, id string) (*video.Video, error)
}

// Watcher polls a video's status on a fixed interval until the video is
// terminal or the context is cancelled. Transient refresh failures are
// logged and tolerated; only terminal status or cancellation stops a watch.
type Watcher struct {
	videos   StatusReader
	interval time.Duration
	logger   *slog.Logger
}

// NewWatcher creates a new polling watcher.
// A non-positive interval falls back to DefaultInterval.
func NewWatcher(videos StatusReader, interval time.Duration, logger *slog.Logger) *Watcher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		videos:   videos,
		interval: interval,
		logger:   logger,
	}
}

// Watch polls until the video reaches a terminal state, returning the final
// record. Cancelling the context stops the watch with no side effects.
func (w *Watcher) Watch(ctx context.Context, videoID string) (*video.Video, error) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		v, err := w.videos.Refresh(ctx, videoID)
		if err != nil {
			// A record may not have materialized locally yet; keep polling.
			w.logger.Warn("poll refresh failed",
				slog.String("video_id", videoID),
				slog.String("error", err.Error()),
			)
		} else if v.IsTerminal() {
			w.logger.Info("watch finished",
				slog.String("video_id", videoID),
				slog.String("status", string(v.Status)),
			)
			return v, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("poller: watch cancelled: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}
