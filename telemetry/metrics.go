// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	ChatMessages      prometheus.Counter
	HypeHits          prometheus.Counter
	SchedulerTicks    prometheus.Counter
	RemindersSent     *prometheus.CounterVec
	RemindersDeferred *prometheus.CounterVec
	NotifyFailures    prometheus.Counter

	// Gauges
	ChatVelocityGauge prometheus.Gauge
	GoodMomentGauge   prometheus.Gauge // 1=good moment, 0=busy
	PendingGauge      prometheus.Gauge
	LiveGauge         prometheus.Gauge // 1=channel live, 0=offline

	// Histograms (seconds)
	DeferralDuration prometheus.Observer
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		ChatMessages = promauto.NewCounter(prometheus.CounterOpts{Name: "coach_chat_messages_total", Help: "Number of chat messages observed"})
		HypeHits = promauto.NewCounter(prometheus.CounterOpts{Name: "coach_hype_detected_total", Help: "Number of messages containing a hype keyword"})
		SchedulerTicks = promauto.NewCounter(prometheus.CounterOpts{Name: "coach_scheduler_ticks_total", Help: "Number of scheduler poll ticks"})
		RemindersSent = promauto.NewCounterVec(prometheus.CounterOpts{Name: "coach_reminders_sent_total", Help: "Number of reminders delivered, by timer"}, []string{"timer"})
		RemindersDeferred = promauto.NewCounterVec(prometheus.CounterOpts{Name: "coach_reminders_deferred_total", Help: "Number of ticks a due reminder was held back, by timer"}, []string{"timer"})
		NotifyFailures = promauto.NewCounter(prometheus.CounterOpts{Name: "coach_notify_failures_total", Help: "Number of notification deliveries that failed (absorbed)"})
		ChatVelocityGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "coach_chat_messages_per_minute", Help: "Chat velocity over the rolling five minute window"})
		GoodMomentGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "coach_good_moment", Help: "Good moment for a reminder=1 busy=0"})
		PendingGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "coach_pending_reminders", Help: "Current number of due-but-deferred reminders"})
		LiveGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "coach_channel_live", Help: "Channel live=1 offline=0"})
		DeferralDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "coach_reminder_deferral_seconds", Help: "How long a reminder waited between becoming due and delivery", Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800}})
	})
}

// CountChatMessage increments the chat message counter if metrics are registered.
func CountChatMessage() {
	if ChatMessages != nil {
		ChatMessages.Inc()
	}
}

// CountHype increments the hype detection counter if metrics are registered.
func CountHype() {
	if HypeHits != nil {
		HypeHits.Inc()
	}
}

// CountTick increments the scheduler tick counter if metrics are registered.
func CountTick() {
	if SchedulerTicks != nil {
		SchedulerTicks.Inc()
	}
}

// CountReminderSent records a delivered reminder for the named timer.
func CountReminderSent(timer string) {
	if RemindersSent != nil {
		RemindersSent.WithLabelValues(timer).Inc()
	}
}

// CountReminderDeferred records a deferred tick for the named timer.
func CountReminderDeferred(timer string) {
	if RemindersDeferred != nil {
		RemindersDeferred.WithLabelValues(timer).Inc()
	}
}

// CountNotifyFailure records an absorbed delivery failure.
func CountNotifyFailure() {
	if NotifyFailures != nil {
		NotifyFailures.Inc()
	}
}

// SetChatVelocity records current messages-per-minute.
func SetChatVelocity(v float64) {
	if ChatVelocityGauge != nil {
		ChatVelocityGauge.Set(v)
	}
}

// SetGoodMoment sets gauge to 1 if chat allows a reminder else 0.
func SetGoodMoment(good bool) {
	if GoodMomentGauge == nil {
		return
	}
	if good {
		GoodMomentGauge.Set(1)
	} else {
		GoodMomentGauge.Set(0)
	}
}

// SetPendingReminders records how many reminders are currently held back.
func SetPendingReminders(n int) {
	if PendingGauge != nil {
		PendingGauge.Set(float64(n))
	}
}

// SetChannelLive sets gauge to 1 if the channel is live else 0.
func SetChannelLive(live bool) {
	if LiveGauge == nil {
		return
	}
	if live {
		LiveGauge.Set(1)
	} else {
		LiveGauge.Set(0)
	}
}

// ObserveDeferral records the time a reminder spent waiting for a good moment.
func ObserveDeferral(d time.Duration) {
	if DeferralDuration != nil {
		DeferralDuration.Observe(d.Seconds())
	}
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding correlation id (if absent) and the id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	v := ctx.Value(corrKey)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
