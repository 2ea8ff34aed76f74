// Package config loads the coach configuration from an optional YAML file and
// environment variables, and provides a typed Config used across the service.
// It applies sensible defaults so the binary can run locally with minimal setup.
// For required chat credentials, use ValidateChatReady.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration. Zero or negative timer intervals
// disable the corresponding reminder.
type Config struct {
	Timers        TimersConfig        `yaml:"timers"`
	Context       ContextConfig       `yaml:"context"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Chat          ChatConfig          `yaml:"chat"`
	Logging       LoggingConfig       `yaml:"logging"`
	HTTP          HTTPConfig          `yaml:"http"`
}

// TimersConfig holds per-reminder intervals in minutes.
type TimersConfig struct {
	BreakMinutes     int `yaml:"break_reminder_minutes"`
	HydrationMinutes int `yaml:"hydration_reminder_minutes"`
	PostureMinutes   int `yaml:"posture_reminder_minutes"`
	DurationMinutes  int `yaml:"stream_duration_alert_minutes"`

	// PollTickSeconds is the scheduler check cadence.
	PollTickSeconds int `yaml:"poll_tick_seconds"`
}

// ContextConfig tunes the good-moment detection.
type ContextConfig struct {
	QuietThresholdSeconds int      `yaml:"quiet_threshold_seconds"`
	HypeCooldownSeconds   int      `yaml:"hype_cooldown_seconds"`
	HypeKeywords          []string `yaml:"hype_keywords"`
	WaitForQuiet          *bool    `yaml:"wait_for_quiet"`
}

// NotificationsConfig controls desktop notification presentation.
type NotificationsConfig struct {
	AppName      string `yaml:"app_name"`
	Sound        bool   `yaml:"sound"`
	Duration     string `yaml:"duration"` // "long" | "short"
	AnnounceChat bool   `yaml:"announce_chat"`
}

// ChatConfig holds Twitch connection settings. Credentials come from env only.
type ChatConfig struct {
	Channel      string `yaml:"channel"`
	BotUsername  string `yaml:"bot_username"`
	OAuthToken   string `yaml:"-"`
	ClientID     string `yaml:"-"`
	ClientSecret string `yaml:"-"`

	// LivePollInterval is how often the live watcher checks Helix stream
	// status. Requires client id/secret.
	LivePollInterval time.Duration `yaml:"-"`
}

// LoggingConfig mirrors the console verbosity knobs.
type LoggingConfig struct {
	ShowChat   bool `yaml:"show_chat"`
	ShowTimers bool `yaml:"show_timers"`
	Debug      bool `yaml:"debug"`
}

// HTTPConfig configures the status/metrics server.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// Defaults returns the built-in configuration, matching a typical two-to-four
// hour streaming session.
func Defaults() Config {
	wait := true
	return Config{
		Timers: TimersConfig{
			BreakMinutes:     120,
			HydrationMinutes: 45,
			PostureMinutes:   90,
			DurationMinutes:  240,
			PollTickSeconds:  10,
		},
		Context: ContextConfig{
			QuietThresholdSeconds: 30,
			HypeCooldownSeconds:   60,
			HypeKeywords:          []string{"hype", "pog", "lets go", "amazing", "incredible"},
			WaitForQuiet:          &wait,
		},
		Notifications: NotificationsConfig{
			AppName:      "Coach",
			Sound:        true,
			Duration:     "long",
			AnnounceChat: false,
		},
		Chat: ChatConfig{
			LivePollInterval: 30 * time.Second,
		},
		Logging: LoggingConfig{
			ShowChat:   false,
			ShowTimers: true,
			Debug:      false,
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
	}
}

// Load reads the YAML file at path (if it exists) over Defaults, then applies
// environment overrides. A missing file is not an error; a malformed file
// falls back to defaults with a warning rather than failing.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if body, err := os.ReadFile(path); err == nil {
			if err := yaml.Unmarshal(body, &cfg); err != nil {
				slog.Warn("config file malformed, using defaults", slog.String("path", path), slog.Any("err", err))
				cfg = Defaults()
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)
	cfg.normalize()
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	applyString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	applyInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			} else {
				slog.Warn("ignoring non-numeric env override", slog.String("key", key), slog.String("value", v))
			}
		}
	}

	applyString("TWITCH_CHANNEL", &cfg.Chat.Channel)
	applyString("TWITCH_USERNAME", &cfg.Chat.BotUsername)
	applyString("TWITCH_ACCESS_TOKEN", &cfg.Chat.OAuthToken)
	applyString("TWITCH_CLIENT_ID", &cfg.Chat.ClientID)
	applyString("TWITCH_CLIENT_SECRET", &cfg.Chat.ClientSecret)
	applyString("HTTP_ADDR", &cfg.HTTP.Addr)

	applyInt("BREAK_REMINDER_MINUTES", &cfg.Timers.BreakMinutes)
	applyInt("HYDRATION_REMINDER_MINUTES", &cfg.Timers.HydrationMinutes)
	applyInt("POSTURE_REMINDER_MINUTES", &cfg.Timers.PostureMinutes)
	applyInt("STREAM_DURATION_ALERT_MINUTES", &cfg.Timers.DurationMinutes)
	applyInt("POLL_TICK_SECONDS", &cfg.Timers.PollTickSeconds)
	applyInt("QUIET_THRESHOLD_SECONDS", &cfg.Context.QuietThresholdSeconds)
	applyInt("HYPE_COOLDOWN_SECONDS", &cfg.Context.HypeCooldownSeconds)

	if v := os.Getenv("HYPE_KEYWORDS"); v != "" {
		cfg.Context.HypeKeywords = splitCSV(v)
	}
	if v := os.Getenv("WAIT_FOR_QUIET"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Context.WaitForQuiet = &b
		}
	}
	if v := os.Getenv("LIVE_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Chat.LivePollInterval = d
		}
	}
}

// normalize repairs values a user config may have broken. Falling back to
// defaults here keeps config errors non-fatal.
func (c *Config) normalize() {
	def := Defaults()
	if c.Timers.PollTickSeconds <= 0 {
		c.Timers.PollTickSeconds = def.Timers.PollTickSeconds
	}
	if c.Context.QuietThresholdSeconds < 0 {
		c.Context.QuietThresholdSeconds = def.Context.QuietThresholdSeconds
	}
	if c.Context.HypeCooldownSeconds < 0 {
		c.Context.HypeCooldownSeconds = def.Context.HypeCooldownSeconds
	}
	if c.Context.WaitForQuiet == nil {
		c.Context.WaitForQuiet = def.Context.WaitForQuiet
	}
	if c.Notifications.Duration != "long" && c.Notifications.Duration != "short" {
		c.Notifications.Duration = def.Notifications.Duration
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = def.HTTP.Addr
	}
	if c.Chat.LivePollInterval <= 0 {
		c.Chat.LivePollInterval = def.Chat.LivePollInterval
	}
	// Tokens pasted from Twitch helpers often carry the IRC "oauth:" prefix;
	// the IRC client adds it itself.
	c.Chat.OAuthToken = strings.TrimPrefix(c.Chat.OAuthToken, "oauth:")
	c.Chat.Channel = strings.ToLower(strings.TrimSpace(c.Chat.Channel))
	c.Chat.BotUsername = strings.ToLower(strings.TrimSpace(c.Chat.BotUsername))
}

// PollTick returns the scheduler cadence as a duration.
func (c *Config) PollTick() time.Duration {
	return time.Duration(c.Timers.PollTickSeconds) * time.Second
}

// QuietThreshold returns the chat-silence requirement as a duration.
func (c *Config) QuietThreshold() time.Duration {
	return time.Duration(c.Context.QuietThresholdSeconds) * time.Second
}

// HypeCooldown returns the post-hype cooloff as a duration.
func (c *Config) HypeCooldown() time.Duration {
	return time.Duration(c.Context.HypeCooldownSeconds) * time.Second
}

// ValidateChatReady checks required fields for joining Twitch chat.
func (c *Config) ValidateChatReady() error {
	if c.Chat.Channel == "" || c.Chat.BotUsername == "" || c.Chat.OAuthToken == "" {
		return fmt.Errorf("missing twitch env: require TWITCH_CHANNEL, TWITCH_USERNAME, TWITCH_ACCESS_TOKEN")
	}
	return nil
}

// HelixReady reports whether the optional Helix live watcher can run.
func (c *Config) HelixReady() bool {
	return c.Chat.ClientID != "" && c.Chat.ClientSecret != ""
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
