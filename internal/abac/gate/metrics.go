// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meshnode Contributors

package gate

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	authorizeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "abac_gate_authorize_duration_seconds",
		Help:    "Histogram of Gate.Authorize latency in seconds",
		Buckets: prometheus.DefBuckets,
	})

	decisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "abac_gate_decisions_total",
		Help: "Total number of access decisions by verdict",
	}, []string{"verdict"})
)

// recordDecision records the outcome of one Authorize call.
func recordDecision(start time.Time, verdict string) {
	authorizeDuration.Observe(time.Since(start).Seconds())
	decisionsTotal.WithLabelValues(verdict).Inc()
}
