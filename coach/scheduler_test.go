package coach

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/onnwee/stream-coach/config"
	"github.com/onnwee/stream-coach/testutil"
)

// fakeContext scripts the good-moment answer for the scheduler.
type fakeContext struct {
	good bool
}

func (f *fakeContext) IsGoodMoment() bool               { return f.good }
func (f *fakeContext) MessagesPerMinute() float64       { return 0 }
func (f *fakeContext) SecondsSinceLastMessage() float64 { return 0 }

type schedulerFixture struct {
	sched    *Scheduler
	clock    time.Time
	chatCtx  *fakeContext
	notifier *testutil.RecorderNotifier
}

func newFixture(t *testing.T, mutate func(*config.Config)) *schedulerFixture {
	t.Helper()
	cfg := config.Defaults()
	if mutate != nil {
		mutate(&cfg)
	}
	f := &schedulerFixture{
		clock:    time.Date(2024, 10, 15, 14, 0, 0, 0, time.UTC),
		chatCtx:  &fakeContext{good: true},
		notifier: &testutil.RecorderNotifier{},
	}
	f.sched = NewScheduler(&cfg, f.chatCtx, f.notifier, WithClock(func() time.Time { return f.clock }))
	return f
}

func (f *schedulerFixture) advance(d time.Duration) { f.clock = f.clock.Add(d) }

func (f *schedulerFixture) tick() { f.sched.checkTimers(context.Background()) }

func TestSchedulerBuildsConfiguredTimers(t *testing.T) {
	f := newFixture(t, nil)
	st := f.sched.Snapshot()
	want := []string{"break", "hydration", "posture", "duration"}
	if len(st.Timers) != len(want) {
		t.Fatalf("expected %d timers, got %d", len(want), len(st.Timers))
	}
	for i, name := range want {
		if st.Timers[i].Name != name {
			t.Errorf("timer %d = %q, want %q", i, st.Timers[i].Name, name)
		}
	}
}

func TestSchedulerSkipsDisabledTimers(t *testing.T) {
	f := newFixture(t, func(c *config.Config) {
		c.Timers.BreakMinutes = 0
		c.Timers.PostureMinutes = -5
	})
	st := f.sched.Snapshot()
	if len(st.Timers) != 2 {
		t.Fatalf("expected 2 timers with two disabled, got %d", len(st.Timers))
	}
	for _, tm := range st.Timers {
		if tm.Name == "break" || tm.Name == "posture" {
			t.Errorf("disabled timer %q was instantiated", tm.Name)
		}
	}
}

func TestOnlyElapsedTimerFires(t *testing.T) {
	// Three timers at 5, 10, 15 minutes; at +5m with chat calm, exactly the
	// 5-minute timer fires and re-arms; the others stay idle.
	f := newFixture(t, func(c *config.Config) {
		c.Timers.BreakMinutes = 5
		c.Timers.HydrationMinutes = 10
		c.Timers.PostureMinutes = 15
		c.Timers.DurationMinutes = 0
	})

	f.advance(5 * time.Minute)
	f.tick()

	if got := f.notifier.Types(); len(got) != 1 || got[0] != "break" {
		t.Fatalf("delivered = %v, want exactly [break]", got)
	}
	st := f.sched.Snapshot()
	for _, tm := range st.Timers {
		if tm.Pending {
			t.Errorf("timer %q pending after delivery pass", tm.Name)
		}
		if tm.Name == "break" && tm.NextDueSeconds != (5 * time.Minute).Seconds() {
			t.Errorf("break timer not re-anchored: next due in %fs", tm.NextDueSeconds)
		}
	}
}

func TestDueTimerDefersThroughHypeThenFires(t *testing.T) {
	f := newFixture(t, func(c *config.Config) {
		c.Timers.BreakMinutes = 5
		c.Timers.HydrationMinutes = 0
		c.Timers.PostureMinutes = 0
		c.Timers.DurationMinutes = 0
	})
	f.chatCtx.good = false

	// Due at +5m but chat is busy: stays pending across several ticks.
	f.advance(5 * time.Minute)
	for i := 0; i < 6; i++ {
		f.tick()
		f.advance(10 * time.Second)
	}
	if f.notifier.Count() != 0 {
		t.Fatalf("reminder delivered during busy chat: %v", f.notifier.Types())
	}
	st := f.sched.Snapshot()
	if !st.Timers[0].Pending {
		t.Fatal("timer not marked pending while deferred")
	}

	// The very next tick after chat calms down delivers it.
	f.chatCtx.good = true
	f.tick()
	if got := f.notifier.Types(); len(got) != 1 || got[0] != "break" {
		t.Fatalf("delivered = %v, want [break] on first calm tick", got)
	}
	if f.sched.Snapshot().Timers[0].Pending {
		t.Error("pending not cleared after delivery")
	}
}

func TestPendingSurvivesUnboundedDeferral(t *testing.T) {
	f := newFixture(t, func(c *config.Config) {
		c.Timers.BreakMinutes = 5
		c.Timers.HydrationMinutes = 0
		c.Timers.PostureMinutes = 0
		c.Timers.DurationMinutes = 0
	})
	f.chatCtx.good = false

	// A very long hype streak: no force-fire, ever.
	f.advance(5 * time.Minute)
	for i := 0; i < 360; i++ { // an hour of ticks
		f.tick()
		f.advance(10 * time.Second)
	}
	if f.notifier.Count() != 0 {
		t.Fatalf("reminder force-fired during deferral: %v", f.notifier.Types())
	}
	if !f.sched.Snapshot().Timers[0].Pending {
		t.Error("timer lost pending state during long deferral")
	}
}

func TestResetTimer(t *testing.T) {
	f := newFixture(t, nil)
	f.advance(40 * time.Minute)

	if err := f.sched.Reset("hydration"); err != nil {
		t.Fatalf("Reset(hydration) error: %v", err)
	}
	st := f.sched.Snapshot()
	for _, tm := range st.Timers {
		if tm.Name != "hydration" {
			continue
		}
		if tm.Pending {
			t.Error("pending not cleared by reset")
		}
		if tm.NextDueSeconds != (45 * time.Minute).Seconds() {
			t.Errorf("next due = %fs, want the full 45m interval", tm.NextDueSeconds)
		}
	}
}

func TestResetUnknownTimer(t *testing.T) {
	f := newFixture(t, nil)
	err := f.sched.Reset("naps")
	if !errors.Is(err, ErrUnknownTimer) {
		t.Fatalf("Reset(naps) = %v, want ErrUnknownTimer", err)
	}
	// And it is a no-op: nothing delivered, nothing pending.
	if f.notifier.Count() != 0 {
		t.Error("reset of unknown timer caused a delivery")
	}
}

func TestTriggerHappensEvenIfNotificationFails(t *testing.T) {
	// The notifier contract absorbs failures; from the scheduler's side a
	// delivery always triggers the timer so there are no retry storms.
	f := newFixture(t, func(c *config.Config) {
		c.Timers.BreakMinutes = 5
		c.Timers.HydrationMinutes = 0
		c.Timers.PostureMinutes = 0
		c.Timers.DurationMinutes = 0
	})
	f.advance(5 * time.Minute)
	f.tick()
	f.tick() // second tick must not re-deliver

	if f.notifier.Count() != 1 {
		t.Fatalf("delivered %d times, want exactly once", f.notifier.Count())
	}
}

func TestStreamDuration(t *testing.T) {
	f := newFixture(t, nil)
	f.advance(90 * time.Minute)
	if got := f.sched.StreamDuration(); got != 90*time.Minute {
		t.Errorf("StreamDuration() = %v, want 90m", got)
	}
}

func TestReanchorRestartsTimersAndStreamClock(t *testing.T) {
	f := newFixture(t, func(c *config.Config) {
		c.Timers.BreakMinutes = 5
		c.Timers.HydrationMinutes = 0
		c.Timers.PostureMinutes = 0
		c.Timers.DurationMinutes = 0
	})

	// Process started 3 minutes before the broadcast actually went live.
	f.advance(3 * time.Minute)
	liveAt := f.clock
	f.sched.Reanchor(liveAt)

	f.advance(4 * time.Minute) // 7m after process start, 4m after live
	f.tick()
	if f.notifier.Count() != 0 {
		t.Fatal("timer fired from process-start anchor after reanchor")
	}
	f.advance(time.Minute) // 5m after live
	f.tick()
	if f.notifier.Count() != 1 {
		t.Fatal("timer did not fire a full interval after the live anchor")
	}
	if got := f.sched.StreamDuration(); got != 5*time.Minute {
		t.Errorf("StreamDuration() = %v, want 5m from live anchor", got)
	}
}

func TestSetLiveReflectedInSnapshot(t *testing.T) {
	f := newFixture(t, nil)
	if f.sched.Snapshot().ChannelLive {
		t.Error("channel live before the watcher reported anything")
	}
	f.sched.SetLive(true)
	if !f.sched.Snapshot().ChannelLive {
		t.Error("SetLive(true) not reflected in snapshot")
	}
	f.sched.SetLive(false)
	if f.sched.Snapshot().ChannelLive {
		t.Error("SetLive(false) not reflected in snapshot")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	f := newFixture(t, func(c *config.Config) {
		c.Timers.PollTickSeconds = 1
	})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- f.sched.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not exit within a tick of cancellation")
	}
}
