// Package notify delivers self-care reminders to the streamer. Backends are
// selected once at startup; every backend absorbs its own delivery errors so
// a failed notification never reaches the scheduler.
package notify

import (
	"log/slog"

	"github.com/onnwee/stream-coach/telemetry"
)

// Notifier delivers a title+message pair for a reminder type. Fire-and-forget.
type Notifier interface {
	Notify(reminderType, message string)
}

// titles maps reminder types to notification titles.
var titles = map[string]string{
	"break":     "Break Time",
	"hydration": "Hydration Check",
	"posture":   "Posture Check",
	"duration":  "Stream Duration",
}

// TitleFor returns the notification title for a reminder type, falling back
// to a generic one.
func TitleFor(reminderType string) string {
	if t, ok := titles[reminderType]; ok {
		return t
	}
	return "Reminder"
}

// Log writes reminders to the structured log. Always available; used as the
// fallback when no desktop backend exists on the host.
type Log struct{}

// Notify implements Notifier.
func (Log) Notify(reminderType, message string) {
	slog.Info("reminder", slog.String("type", reminderType), slog.String("title", TitleFor(reminderType)), slog.String("message", message))
}

// Multi fans a reminder out to several notifiers in order.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(reminderType, message string) {
	for _, n := range m {
		n.Notify(reminderType, message)
	}
}

// ChatAnnouncer says the reminder in the Twitch chat itself, for streamers who
// run without a desktop session (e.g. a dedicated streaming box). Say is the
// IRC client's send function.
type ChatAnnouncer struct {
	Say func(message string)
}

// Notify implements Notifier.
func (c ChatAnnouncer) Notify(reminderType, message string) {
	if c.Say == nil {
		return
	}
	c.Say(TitleFor(reminderType) + ": " + message)
}

// recordFailure logs and counts an absorbed delivery error.
func recordFailure(backend string, err error) {
	slog.Warn("notification delivery failed", slog.String("backend", backend), slog.Any("err", err))
	telemetry.CountNotifyFailure()
}
