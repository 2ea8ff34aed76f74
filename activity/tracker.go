// Package activity tracks chat activity and hype levels to decide when it is
// a good moment to deliver a reminder. Philosophy: never interrupt a moment.
package activity

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/onnwee/stream-coach/telemetry"
)

// velocityWindow bounds how much chat history feeds the messages-per-minute
// rate; minVelocitySpan avoids divide-by-near-zero spikes right after the
// first message lands.
const (
	velocityWindow  = 5 * time.Minute
	minVelocitySpan = 6 * time.Second
)

// Tracker maintains rolling chat state: time of the last message, time of the
// last detected hype keyword, and a pruned window of message timestamps for
// velocity. Safe for concurrent use; the IRC callback and the scheduler tick
// run on different goroutines.
type Tracker struct {
	quietThreshold time.Duration
	hypeCooldown   time.Duration
	hypeKeywords   []string
	waitForQuiet   bool
	debug          bool

	now func() time.Time

	mu            sync.Mutex
	lastMessageAt time.Time
	lastHypeAt    time.Time // zero until the first hype keyword
	messageTimes  []time.Time
}

// Options configures a Tracker.
type Options struct {
	QuietThreshold time.Duration
	HypeCooldown   time.Duration
	HypeKeywords   []string
	WaitForQuiet   bool
	Debug          bool

	// Now overrides the clock for tests.
	Now func() time.Time
}

// NewTracker builds a Tracker. Keyword matching is case-insensitive, so the
// configured keywords are lowered once here.
func NewTracker(opts Options) *Tracker {
	nowFn := opts.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	keywords := make([]string, 0, len(opts.HypeKeywords))
	for _, kw := range opts.HypeKeywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return &Tracker{
		quietThreshold: opts.QuietThreshold,
		hypeCooldown:   opts.HypeCooldown,
		hypeKeywords:   keywords,
		waitForQuiet:   opts.WaitForQuiet,
		debug:          opts.Debug,
		now:            nowFn,
		lastMessageAt:  nowFn(),
	}
}

// OnMessage records an incoming chat message: updates the last-message time,
// appends to the velocity window (pruning entries older than five minutes),
// and scans the content for hype keywords. Pure state mutation, no errors.
func (t *Tracker) OnMessage(author, content string, isStreamer bool) {
	now := t.now()

	t.mu.Lock()
	t.lastMessageAt = now
	t.messageTimes = append(t.messageTimes, now)
	t.prune(now)

	lower := strings.ToLower(content)
	for _, kw := range t.hypeKeywords {
		if strings.Contains(lower, kw) {
			t.lastHypeAt = now
			if t.debug {
				slog.Debug("hype detected", slog.String("keyword", kw), slog.String("author", author))
			}
			telemetry.CountHype()
			break
		}
	}
	t.mu.Unlock()

	telemetry.CountChatMessage()
	telemetry.SetChatVelocity(t.MessagesPerMinute())
}

// prune drops window entries older than velocityWindow. Timestamps are
// appended in chronological order, so the retained suffix stays sorted.
// Caller holds mu.
func (t *Tracker) prune(now time.Time) {
	cutoff := now.Add(-velocityWindow)
	i := 0
	for i < len(t.messageTimes) && !t.messageTimes[i].After(cutoff) {
		i++
	}
	if i > 0 {
		t.messageTimes = append(t.messageTimes[:0], t.messageTimes[i:]...)
	}
}

// IsGoodMoment reports whether a reminder can be delivered right now: chat
// has been quiet for the threshold AND any hype has cooled down. Both
// conditions must hold; fresh hype blocks delivery regardless of silence.
// When wait-for-quiet is disabled it always returns true.
func (t *Tracker) IsGoodMoment() bool {
	if !t.waitForQuiet {
		return true
	}

	now := t.now()
	t.mu.Lock()
	sinceMessage := now.Sub(t.lastMessageAt)
	var sinceHype time.Duration
	hypeSeen := !t.lastHypeAt.IsZero()
	if hypeSeen {
		sinceHype = now.Sub(t.lastHypeAt)
	}
	t.mu.Unlock()

	quiet := sinceMessage >= t.quietThreshold
	pastHype := !hypeSeen || sinceHype >= t.hypeCooldown

	if t.debug {
		slog.Debug("context check",
			slog.Bool("quiet", quiet),
			slog.Bool("past_hype", pastHype),
			slog.Duration("since_message", sinceMessage))
	}
	return quiet && pastHype
}

// MessagesPerMinute returns the chat velocity over the retained window, or 0
// when no messages are retained or the span is too short to be meaningful.
func (t *Tracker) MessagesPerMinute() float64 {
	now := t.now()
	t.mu.Lock()
	defer t.mu.Unlock()

	t.prune(now)
	if len(t.messageTimes) == 0 {
		return 0
	}
	span := now.Sub(t.messageTimes[0])
	if span < minVelocitySpan {
		return 0
	}
	return float64(len(t.messageTimes)) / span.Minutes()
}

// SecondsSinceLastMessage returns the elapsed time since the most recent chat
// message (or since tracker start when none has been seen).
func (t *Tracker) SecondsSinceLastMessage() float64 {
	t.mu.Lock()
	last := t.lastMessageAt
	t.mu.Unlock()
	return t.now().Sub(last).Seconds()
}
