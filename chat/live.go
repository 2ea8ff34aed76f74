package chat

import (
	"context"
	"log/slog"
	"time"

	"github.com/onnwee/stream-coach/coach"
	"github.com/onnwee/stream-coach/telemetry"
	"github.com/onnwee/stream-coach/twitchapi"
)

// StartLiveWatcher polls Twitch stream status and re-anchors the reminder
// timers when the channel goes live, so intervals count from broadcast start.
// Blocks until ctx is canceled; run it in its own goroutine.
func StartLiveWatcher(ctx context.Context, helix *twitchapi.HelixClient, channel string, pollEvery time.Duration, scheduler *coach.Scheduler) {
	if channel == "" {
		slog.Info("live watcher: channel empty; abort")
		return
	}

	var live bool
	ticker := time.NewTicker(pollEvery)
	defer ticker.Stop()
	slog.Info("live watcher: started poller", slog.Duration("interval", pollEvery))
	for {
		stream, err := helix.GetStream(ctx, channel)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return
			}
			slog.Debug("live watcher: stream status", slog.Any("err", err))
		case stream != nil && !live:
			live = true
			telemetry.SetChannelLive(true)
			scheduler.SetLive(true)
			scheduler.Reanchor(stream.StartedAt)
			slog.Info("live watcher: channel live, timers re-anchored",
				slog.String("channel", channel),
				slog.String("title", stream.Title),
				slog.Time("started_at", stream.StartedAt))
		case stream == nil && live:
			live = false
			telemetry.SetChannelLive(false)
			scheduler.SetLive(false)
			slog.Info("live watcher: channel offline", slog.String("channel", channel))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
