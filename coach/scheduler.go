package coach

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/onnwee/stream-coach/config"
	"github.com/onnwee/stream-coach/telemetry"
)

// ErrUnknownTimer is returned by Reset for a timer name that was never
// configured (or was disabled).
var ErrUnknownTimer = errors.New("unknown timer")

// ChatContext answers whether chat currently allows a reminder.
type ChatContext interface {
	IsGoodMoment() bool
	MessagesPerMinute() float64
	SecondsSinceLastMessage() float64
}

// Notifier delivers a reminder to the streamer. Fire-and-forget: the
// implementation absorbs its own delivery errors.
type Notifier interface {
	Notify(reminderType, message string)
}

// Scheduler owns the timer set and runs the periodic poll loop. Due timers
// are delivered only when the chat context reports a good moment; otherwise
// they stay pending and are retried every tick, with no upper bound on
// deferral.
type Scheduler struct {
	tracker  ChatContext
	notifier Notifier

	tick       time.Duration
	showTimers bool
	debug      bool
	now        func() time.Time

	mu       sync.Mutex
	timers   []*Timer
	startAt  time.Time
	dueSince map[string]time.Time
	live     bool
}

// reminder messages, matching the timer set: break, hydration, posture,
// stream duration.
const (
	breakMessage     = "Time for a break! Stand up, stretch, rest your eyes."
	hydrationMessage = "Stay hydrated! Take a sip of water."
	postureMessage   = "Posture check! Sit up straight, relax your shoulders."
	durationMessage  = "You've been streaming for a while. Consider wrapping up soon."
)

// Option customizes a Scheduler (tests inject a fake clock).
type Option func(*Scheduler)

// WithClock overrides the scheduler clock.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// NewScheduler builds the timer set from configuration. Intervals of zero or
// less disable the corresponding timer.
func NewScheduler(cfg *config.Config, tracker ChatContext, notifier Notifier, opts ...Option) *Scheduler {
	s := &Scheduler{
		tracker:    tracker,
		notifier:   notifier,
		tick:       cfg.PollTick(),
		showTimers: cfg.Logging.ShowTimers,
		debug:      cfg.Logging.Debug,
		now:        time.Now,
		dueSince:   make(map[string]time.Time),
	}
	for _, o := range opts {
		o(s)
	}

	now := s.now()
	s.startAt = now
	add := func(name string, minutes int, message string) {
		if minutes > 0 {
			s.timers = append(s.timers, NewTimer(name, time.Duration(minutes)*time.Minute, message, now))
		}
	}
	add("break", cfg.Timers.BreakMinutes, breakMessage)
	add("hydration", cfg.Timers.HydrationMinutes, hydrationMessage)
	add("posture", cfg.Timers.PostureMinutes, postureMessage)
	add("duration", cfg.Timers.DurationMinutes, durationMessage)
	return s
}

// Run executes the poll loop until ctx is canceled. It returns ctx.Err so the
// caller can await deterministic loop termination; a delivery started within
// a tick always completes before return.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.showTimers {
		s.logTimerStatus()
	}
	slog.Info("scheduler started", slog.Duration("tick", s.tick), slog.Int("timers", len(s.timers)))

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.checkTimers(ctx)
		}
	}
}

// checkTimers is one poll tick: mark due timers pending, and deliver every
// pending timer if chat offers a good moment.
func (s *Scheduler) checkTimers(ctx context.Context) {
	telemetry.CountTick()

	now := s.now()
	good := s.tracker.IsGoodMoment()
	telemetry.SetGoodMoment(good)
	telemetry.SetChatVelocity(s.tracker.MessagesPerMinute())

	s.mu.Lock()
	defer s.mu.Unlock()

	pending := 0
	for _, t := range s.timers {
		if !t.IsDue(now) && !t.Pending() {
			continue
		}
		if !t.Pending() {
			t.pending = true
			s.dueSince[t.Name] = now
		}
		if good {
			s.deliver(ctx, t, now)
			continue
		}
		pending++
		telemetry.CountReminderDeferred(t.Name)
		if s.debug {
			slog.Debug("reminder pending, waiting for good moment", slog.String("timer", t.Name))
		}
	}
	telemetry.SetPendingReminders(pending)
}

// deliver sends one reminder and resets the timer. The timer is triggered
// regardless of whether the notification itself succeeded; the notifier
// boundary absorbs delivery errors and retry storms help nobody.
func (s *Scheduler) deliver(ctx context.Context, t *Timer, now time.Time) {
	_, span := telemetry.StartSpan(ctx, "coach", "deliver-reminder",
		attribute.String("timer", t.Name),
	)
	defer span.End()

	if s.showTimers {
		slog.Info("reminder delivered", slog.String("timer", t.Name))
	}
	s.notifier.Notify(t.Name, t.Message)
	t.Trigger(now)

	if since, ok := s.dueSince[t.Name]; ok {
		telemetry.ObserveDeferral(now.Sub(since))
		delete(s.dueSince, t.Name)
	}
	telemetry.CountReminderSent(t.Name)
}

// Reset re-anchors the named timer to now and clears any pending state. The
// manual override hook: wired to the !reset chat command and the HTTP API.
func (s *Scheduler) Reset(name string) error {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.timers {
		if t.Name == name {
			t.Reset(now)
			delete(s.dueSince, t.Name)
			slog.Info("timer reset", slog.String("timer", name))
			return nil
		}
	}
	slog.Warn("reset requested for unknown timer", slog.String("timer", name))
	return fmt.Errorf("%w: %s", ErrUnknownTimer, name)
}

// Reanchor restarts every timer and the stream clock from t. The live watcher
// calls this when the channel goes live so first-due computation tracks the
// actual session rather than process start.
func (s *Scheduler) Reanchor(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startAt = t
	for _, tm := range s.timers {
		tm.anchorAt = t
		tm.lastTriggered = time.Time{}
		tm.pending = false
	}
	s.dueSince = make(map[string]time.Time)
	slog.Info("timers re-anchored", slog.Time("anchor", t))
}

// SetLive records the channel's live status for the status endpoint. The live
// watcher is the only caller.
func (s *Scheduler) SetLive(live bool) {
	s.mu.Lock()
	s.live = live
	s.mu.Unlock()
}

// StreamDuration returns how long the session has been running. Informational
// only; it gates nothing.
func (s *Scheduler) StreamDuration() time.Duration {
	s.mu.Lock()
	start := s.startAt
	s.mu.Unlock()
	return s.now().Sub(start)
}

// TimerStatus is one timer's externally visible state.
type TimerStatus struct {
	Name            string  `json:"name"`
	IntervalMinutes float64 `json:"interval_minutes"`
	NextDueSeconds  float64 `json:"next_due_seconds"`
	Pending         bool    `json:"pending"`
}

// Status is the scheduler snapshot served by the HTTP status endpoint.
type Status struct {
	StreamDurationSeconds   float64       `json:"stream_duration_seconds"`
	ChannelLive             bool          `json:"channel_live"`
	GoodMoment              bool          `json:"good_moment"`
	MessagesPerMinute       float64       `json:"messages_per_minute"`
	SecondsSinceLastMessage float64       `json:"seconds_since_last_message"`
	Timers                  []TimerStatus `json:"timers"`
}

// Snapshot reports current timer and context state.
func (s *Scheduler) Snapshot() Status {
	now := s.now()
	st := Status{
		GoodMoment:              s.tracker.IsGoodMoment(),
		MessagesPerMinute:       s.tracker.MessagesPerMinute(),
		SecondsSinceLastMessage: s.tracker.SecondsSinceLastMessage(),
	}
	s.mu.Lock()
	st.StreamDurationSeconds = now.Sub(s.startAt).Seconds()
	st.ChannelLive = s.live
	for _, t := range s.timers {
		st.Timers = append(st.Timers, TimerStatus{
			Name:            t.Name,
			IntervalMinutes: t.Interval.Minutes(),
			NextDueSeconds:  t.TimeUntilDue(now).Seconds(),
			Pending:         t.Pending(),
		})
	}
	s.mu.Unlock()
	return st
}

func (s *Scheduler) logTimerStatus() {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.timers {
		slog.Info("timer armed",
			slog.String("timer", t.Name),
			slog.Int("minutes_remaining", int(t.TimeUntilDue(now).Minutes())))
	}
}
