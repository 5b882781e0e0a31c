// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenGate Contributors

package command

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Status constants for command execution metrics.
const (
	StatusSuccess          = "success"
	StatusError            = "error"
	StatusNotFound         = "not_found"
	StatusPermissionDenied = "permission_denied"
)

// Executions counts command executions.
// Use RegisterMetrics to register this with a Prometheus registry.
var Executions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "opengate_command_executions_total",
		Help: "Total number of command executions",
	},
	[]string{"command", "status"},
)

// Duration is the histogram of command execution durations.
// Use RegisterMetrics to register this with a Prometheus registry.
var Duration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "opengate_command_duration_seconds",
		Help:    "Command execution duration in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"command"},
)

// RegisterMetrics registers command package metrics with the given
// Prometheus registry. Panics if registration fails (following
// prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(Executions)
	reg.MustRegister(Duration)
}

// recordExecution increments the execution counter.
func recordExecution(command, status string) {
	Executions.WithLabelValues(command, status).Inc()
}

// recordDuration records how long a command took.
func recordDuration(command string, d time.Duration) {
	Duration.WithLabelValues(command).Observe(d.Seconds())
}
