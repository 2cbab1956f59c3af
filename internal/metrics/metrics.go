// Package metrics provides Prometheus instrumentation for the decision API.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// DecisionsTotal counts evaluated transactions by verdict.
	DecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "riskengine",
			Name:      "decisions_total",
			Help:      "Total evaluated transactions by decision verdict.",
		},
		[]string{"decision"},
	)

	// HardBlocksTotal counts short-circuit rejections separately; they bypass
	// scoring entirely and carry the reserved score of 100.
	HardBlocksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "riskengine",
			Name:      "hard_blocks_total",
			Help:      "Total hard-block rejections (chargebacks + high-risk IP).",
		},
	)

	// RiskScores observes the distribution of accumulated risk scores.
	// Buckets straddle the default review (4) and reject (10) thresholds.
	RiskScores = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "riskengine",
			Name:      "risk_score",
			Help:      "Distribution of accumulated risk scores.",
			Buckets:   []float64{-2, 0, 2, 4, 6, 8, 10, 15, 100},
		},
	)
)

func init() {
	prometheus.MustRegister(DecisionsTotal, HardBlocksTotal, RiskScores)
}

// ObserveDecision records one evaluated transaction.
func ObserveDecision(decision string, score int, hardBlock bool) {
	DecisionsTotal.WithLabelValues(decision).Inc()
	RiskScores.Observe(float64(score))
	if hardBlock {
		HardBlocksTotal.Inc()
	}
}

// Handler exposes the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
