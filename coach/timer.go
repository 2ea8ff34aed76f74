// Package coach manages the self-care reminder timers and the scheduling loop
// that delivers them when chat context allows.
package coach

import "time"

// Timer is a single periodic reminder. A timer becomes due interval after its
// anchor (creation time, or the last trigger), and once due it stays due until
// Trigger resets it. Pending marks a due timer whose delivery is being held
// back until chat offers a good moment.
type Timer struct {
	Name     string
	Interval time.Duration
	Message  string

	anchorAt      time.Time
	lastTriggered time.Time // zero until the first trigger
	pending       bool
}

// NewTimer creates a timer anchored at now. Interval must be positive; the
// scheduler never instantiates disabled timers.
func NewTimer(name string, interval time.Duration, message string, now time.Time) *Timer {
	return &Timer{
		Name:     name,
		Interval: interval,
		Message:  message,
		anchorAt: now,
	}
}

// nextDue returns the instant the timer fires next.
func (t *Timer) nextDue() time.Time {
	if t.lastTriggered.IsZero() {
		return t.anchorAt.Add(t.Interval)
	}
	return t.lastTriggered.Add(t.Interval)
}

// IsDue reports whether the timer's interval has elapsed. Read-only: calling
// it repeatedly never changes state.
func (t *Timer) IsDue(now time.Time) bool {
	return !now.Before(t.nextDue())
}

// Trigger marks the reminder as delivered: the anchor moves to now and the
// pending flag clears. Called exactly once per delivered reminder.
func (t *Timer) Trigger(now time.Time) {
	t.lastTriggered = now
	t.pending = false
}

// Reset re-anchors the timer to now without a delivery (manual
// acknowledgement, e.g. the streamer took a break on their own).
func (t *Timer) Reset(now time.Time) {
	t.lastTriggered = now
	t.pending = false
}

// TimeUntilDue returns the remaining time before the timer fires, never
// negative.
func (t *Timer) TimeUntilDue(now time.Time) time.Duration {
	remaining := t.nextDue().Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Pending reports whether the timer is due but still waiting for delivery.
func (t *Timer) Pending() bool { return t.pending }
