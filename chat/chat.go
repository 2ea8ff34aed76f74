package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	twitch "github.com/gempir/go-twitch-irc/v4"

	"github.com/onnwee/stream-coach/activity"
	"github.com/onnwee/stream-coach/coach"
	"github.com/onnwee/stream-coach/config"
)

// Monitor is the Twitch chat ingest boundary. It owns the IRC client and
// forwards inbound messages to the activity tracker.
type Monitor struct {
	client    *twitch.Client
	channel   string
	username  string
	showChat  bool
	tracker   *activity.Tracker
	scheduler *coach.Scheduler
}

// NewMonitor wires an IRC client for the configured channel.
func NewMonitor(cfg *config.Config, tracker *activity.Tracker, scheduler *coach.Scheduler) *Monitor {
	client := twitch.NewClient(cfg.Chat.BotUsername, "oauth:"+cfg.Chat.OAuthToken)
	m := &Monitor{
		client:    client,
		channel:   cfg.Chat.Channel,
		username:  cfg.Chat.BotUsername,
		showChat:  cfg.Logging.ShowChat,
		tracker:   tracker,
		scheduler: scheduler,
	}
	client.OnConnect(func() {
		slog.Info("connected to twitch chat", slog.String("channel", m.channel))
	})
	client.OnPrivateMessage(m.onMessage)
	return m
}

// Run connects and blocks until ctx is canceled or the connection fails.
func (m *Monitor) Run(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		<-ctx.Done()
		m.client.Disconnect()
		close(done)
	}()

	m.client.Join(m.channel)
	if err := m.client.Connect(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("twitch chat connect: %w", err)
	}
	<-done
	return ctx.Err()
}

// Say sends a message into the monitored channel. Used by the chat announcer
// notification backend and command replies.
func (m *Monitor) Say(message string) {
	m.client.Say(m.channel, message)
}

func (m *Monitor) onMessage(msg twitch.PrivateMessage) {
	author := msg.User.Name
	// The caller contract excludes self-sent messages from the tracker.
	if strings.EqualFold(author, m.username) {
		return
	}

	if m.showChat {
		slog.Info("chat", slog.String("author", author), slog.String("message", msg.Message))
	}

	isStreamer := strings.EqualFold(author, m.channel)
	m.tracker.OnMessage(author, msg.Message, isStreamer)

	if cmd, arg, ok := parseCommand(msg.Message); ok && isPrivileged(msg, m.channel) {
		m.handleCommand(cmd, arg)
	}
}

// isPrivileged reports whether the sender may use coach commands: the
// broadcaster or a channel moderator.
func isPrivileged(msg twitch.PrivateMessage, channel string) bool {
	if strings.EqualFold(msg.User.Name, channel) {
		return true
	}
	if _, ok := msg.User.Badges["broadcaster"]; ok {
		return true
	}
	if _, ok := msg.User.Badges["moderator"]; ok {
		return true
	}
	return false
}

// parseCommand splits a "!"-prefixed chat line into command and argument.
func parseCommand(text string) (cmd, arg string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "!") {
		return "", "", false
	}
	fields := strings.Fields(text[1:])
	if len(fields) == 0 {
		return "", "", false
	}
	cmd = strings.ToLower(fields[0])
	if len(fields) > 1 {
		arg = strings.ToLower(fields[1])
	}
	return cmd, arg, true
}

func (m *Monitor) handleCommand(cmd, arg string) {
	switch cmd {
	case "reset":
		if arg == "" {
			m.Say("Usage: !reset <break|hydration|posture|duration>")
			return
		}
		if err := m.scheduler.Reset(arg); err != nil {
			m.Say("No timer named " + arg)
			return
		}
		m.Say("Reset " + arg + " timer")
	case "timers":
		m.Say(formatTimers(m.scheduler.Snapshot()))
	case "uptime":
		m.Say("Streaming for " + formatDuration(m.scheduler.StreamDuration()))
	}
}

// formatTimers renders the snapshot as one compact chat line.
func formatTimers(st coach.Status) string {
	if len(st.Timers) == 0 {
		return "No timers configured"
	}
	parts := make([]string, 0, len(st.Timers))
	for _, t := range st.Timers {
		if t.Pending {
			parts = append(parts, t.Name+": due")
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %dm", t.Name, int(t.NextDueSeconds/60)))
	}
	return "Next reminders — " + strings.Join(parts, ", ")
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh%02dm", h, m)
}
