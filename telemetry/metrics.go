// Package telemetry provides Prometheus metrics, OpenTelemetry tracing setup,
// and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	ClashesCreated       prometheus.Counter
	ClashCreateFailures  prometheus.Counter
	ValidationRejections prometheus.Counter
	PollsTotal           prometheus.Counter
	LeavesSucceeded      prometheus.Counter
	LeaveFailures        prometheus.Counter

	// Histogram (seconds)
	TimeToSecondPlayer prometheus.Observer

	// Gauges
	AwaitingPlayerGauge prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		ClashesCreated = promauto.NewCounter(prometheus.CounterOpts{Name: "clash_created_total", Help: "Number of lobbies created on CodinGame"})
		ClashCreateFailures = promauto.NewCounter(prometheus.CounterOpts{Name: "clash_create_failures_total", Help: "Number of failed lobby create calls"})
		ValidationRejections = promauto.NewCounter(prometheus.CounterOpts{Name: "clash_validation_rejections_total", Help: "Number of command invocations rejected before any remote call"})
		PollsTotal = promauto.NewCounter(prometheus.CounterOpts{Name: "clash_polls_total", Help: "Number of participant-count polls issued"})
		LeavesSucceeded = promauto.NewCounter(prometheus.CounterOpts{Name: "clash_leaves_total", Help: "Number of times the bot left a lobby after a second player joined"})
		LeaveFailures = promauto.NewCounter(prometheus.CounterOpts{Name: "clash_leave_failures_total", Help: "Number of failed best-effort leave calls"})
		TimeToSecondPlayer = promauto.NewHistogram(prometheus.HistogramOpts{Name: "clash_time_to_second_player_seconds", Help: "Delay between publishing a lobby and observing a second player", Buckets: prometheus.ExponentialBuckets(1, 2, 12)})
		AwaitingPlayerGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "clash_awaiting_player", Help: "Lobbies currently waiting for a second player"})
	})
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding the correlation id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns the correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	if s, ok := ctx.Value(corrKey).(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with a corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
