package chat

import (
	"testing"
	"time"

	twitch "github.com/gempir/go-twitch-irc/v4"

	"github.com/onnwee/stream-coach/coach"
)

func TestParseCommand(t *testing.T) {
	cases := []struct {
		in       string
		cmd, arg string
		ok       bool
	}{
		{"!reset hydration", "reset", "hydration", true},
		{"!RESET Hydration", "reset", "hydration", true},
		{"  !timers  ", "timers", "", true},
		{"!uptime extra words", "uptime", "extra", true},
		{"hello chat", "", "", false},
		{"!", "", "", false},
		{"", "", "", false},
	}
	for _, c := range cases {
		cmd, arg, ok := parseCommand(c.in)
		if cmd != c.cmd || arg != c.arg || ok != c.ok {
			t.Errorf("parseCommand(%q) = (%q, %q, %v), want (%q, %q, %v)", c.in, cmd, arg, ok, c.cmd, c.arg, c.ok)
		}
	}
}

func TestIsPrivileged(t *testing.T) {
	channel := "somestreamer"

	streamer := twitch.PrivateMessage{User: twitch.User{Name: "SomeStreamer"}}
	if !isPrivileged(streamer, channel) {
		t.Error("broadcaster (by name) not privileged")
	}

	mod := twitch.PrivateMessage{User: twitch.User{Name: "helpful_mod", Badges: map[string]int{"moderator": 1}}}
	if !isPrivileged(mod, channel) {
		t.Error("moderator badge not privileged")
	}

	badged := twitch.PrivateMessage{User: twitch.User{Name: "other", Badges: map[string]int{"broadcaster": 1}}}
	if !isPrivileged(badged, channel) {
		t.Error("broadcaster badge not privileged")
	}

	viewer := twitch.PrivateMessage{User: twitch.User{Name: "random_viewer", Badges: map[string]int{"subscriber": 12}}}
	if isPrivileged(viewer, channel) {
		t.Error("plain viewer should not be privileged")
	}
}

func TestFormatTimers(t *testing.T) {
	st := coach.Status{Timers: []coach.TimerStatus{
		{Name: "break", NextDueSeconds: 1800},
		{Name: "hydration", Pending: true},
	}}
	got := formatTimers(st)
	want := "Next reminders — break: 30m, hydration: due"
	if got != want {
		t.Errorf("formatTimers() = %q, want %q", got, want)
	}

	if got := formatTimers(coach.Status{}); got != "No timers configured" {
		t.Errorf("formatTimers(empty) = %q", got)
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{42 * time.Minute, "42m"},
		{90 * time.Minute, "1h30m"},
		{2*time.Hour + 5*time.Minute, "2h05m"},
		{30 * time.Second, "1m"}, // rounds to the nearest minute
	}
	for _, c := range cases {
		if got := formatDuration(c.in); got != c.want {
			t.Errorf("formatDuration(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}
