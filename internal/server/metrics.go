package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/attuneai/attune/internal/engine"
)

var (
	turnsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attune_turns_total",
		Help: "Turns handled since start.",
	})

	degradedTurnsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attune_degraded_turns_total",
		Help: "Turns handled with the classifier unavailable.",
	})

	turnEmotions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attune_turn_emotions_total",
		Help: "Primary emotions detected, by emotion.",
	}, []string{"emotion"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "attune_request_duration_seconds",
		Help:    "API request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
)

// observeTurns subscribes the metrics to the engine's turn events.
func observeTurns(e *engine.Engine) {
	e.Subscribe(func(ev engine.TurnEvent) {
		turnsTotal.Inc()
		turnEmotions.WithLabelValues(ev.Emotion).Inc()
		if ev.Degraded {
			degradedTurnsTotal.Inc()
		}
	})
}
