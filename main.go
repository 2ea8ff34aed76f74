// Command stream-coach is a self-care companion for livestreamers. It:
//   - Loads configuration and initializes structured logging.
//   - Joins the channel's Twitch chat and tracks activity and hype.
//   - Runs periodic break/hydration/posture/duration reminder timers that
//     only fire when chat is quiet, so a reminder never lands mid-moment.
//   - Exposes a minimal HTTP server with /healthz, /status, and /metrics.
//
// Shutdown is graceful on SIGINT/SIGTERM; the scheduling loop is awaited so
// no reminder delivery is left half-completed.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/onnwee/stream-coach/activity"
	"github.com/onnwee/stream-coach/chat"
	"github.com/onnwee/stream-coach/coach"
	"github.com/onnwee/stream-coach/config"
	"github.com/onnwee/stream-coach/notify"
	"github.com/onnwee/stream-coach/server"
	"github.com/onnwee/stream-coach/telemetry"
	"github.com/onnwee/stream-coach/twitchapi"
)

const version = "0.1.0"

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load()

	fmt.Printf("stream-coach v%s — take care of yourself out there\n\n", version)

	// Configure logging (level + format). Defaults: level=info, format=text.
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
		// keep default
	default:
		tmp := slog.New(slog.NewTextHandler(os.Stdout, nil))
		tmp.Warn("unknown LOG_LEVEL, using info", slog.String("value", os.Getenv("LOG_LEVEL")))
	}
	var handler slog.Handler
	switch strings.ToLower(os.Getenv("LOG_FORMAT")) {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	default:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))

	// Config: YAML file + env overrides. Missing file and bad values are
	// non-fatal; missing chat credentials are the one startup-fatal condition.
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}
	if cfg.Logging.Debug && lvl > slog.LevelDebug {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}
	if err := cfg.ValidateChatReady(); err != nil {
		slog.Error("cannot start", slog.Any("err", err))
		os.Exit(1)
	}

	// Metrics / telemetry init
	telemetry.Init()
	shutdownTracing, err := telemetry.InitTracing("stream-coach", version)
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdownTracing()

	// Root context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Context engine: watches chat flow to find good moments for reminders.
	tracker := activity.NewTracker(activity.Options{
		QuietThreshold: cfg.QuietThreshold(),
		HypeCooldown:   cfg.HypeCooldown(),
		HypeKeywords:   cfg.Context.HypeKeywords,
		WaitForQuiet:   *cfg.Context.WaitForQuiet,
		Debug:          cfg.Logging.Debug,
	})

	// Notification backends, chosen once at startup.
	var notifiers notify.Multi
	if desktop, ok := notify.NewDesktop(cfg.Notifications.AppName, cfg.Notifications.Sound, cfg.Notifications.Duration); ok {
		notifiers = append(notifiers, desktop)
	} else {
		notifiers = append(notifiers, notify.Log{})
	}

	scheduler := coach.NewScheduler(cfg, tracker, &notifiers)
	monitor := chat.NewMonitor(cfg, tracker, scheduler)
	if cfg.Notifications.AnnounceChat {
		notifiers = append(notifiers, notify.ChatAnnouncer{Say: monitor.Say})
	}

	// Chat monitor: a dropped connection here means the coach is blind, so
	// treat it as fatal and let the supervisor restart us.
	go func() {
		if err := monitor.Run(ctx); err != nil && ctx.Err() == nil {
			slog.Error("chat monitor exited", slog.Any("err", err))
			stop()
		}
	}()

	// Optional live watcher: re-anchors timers to the broadcast start.
	if cfg.HelixReady() {
		helix := &twitchapi.HelixClient{
			AppTokenSource: &twitchapi.TokenSource{ClientID: cfg.Chat.ClientID, ClientSecret: cfg.Chat.ClientSecret},
			ClientID:       cfg.Chat.ClientID,
		}
		go chat.StartLiveWatcher(ctx, helix, cfg.Chat.Channel, cfg.Chat.LivePollInterval, scheduler)
	} else {
		slog.Info("live watcher disabled (no client id/secret); timers anchor at process start")
	}

	// HTTP server (health/status/metrics)
	go func() {
		if err := server.Start(ctx, scheduler, cfg.HTTP.Addr); err != nil {
			slog.Error("http server exited with error", slog.Any("err", err))
		}
	}()

	// Scheduling loop; awaited below so shutdown never cuts a delivery short.
	schedDone := make(chan struct{})
	go func() {
		defer close(schedDone)
		_ = scheduler.Run(ctx)
	}()

	// Block until shutdown signal, then await the scheduler.
	<-ctx.Done()
	slog.Info("shutting down")
	<-schedDone
	slog.Info("take care of yourself!")
}
