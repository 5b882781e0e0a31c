// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenGate Contributors

package account

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Result labels for account operation metrics.
const (
	ResultHit       = "hit"
	ResultMiss      = "miss"
	ResultMatch     = "match"
	ResultMismatch  = "mismatch"
	ResultMalformed = "malformed"
)

// CacheLookups counts account cache lookups by result (hit or miss).
// Use RegisterMetrics to register this with a Prometheus registry.
var CacheLookups = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "opengate_account_cache_lookups_total",
		Help: "Total number of account cache lookups by result",
	},
	[]string{"result"},
)

// Verifications counts password verifications by result.
// Use RegisterMetrics to register this with a Prometheus registry.
var Verifications = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "opengate_account_verifications_total",
		Help: "Total number of password verifications by result",
	},
	[]string{"result"},
)

// Mutations counts account mutations by operation and status.
// Use RegisterMetrics to register this with a Prometheus registry.
var Mutations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "opengate_account_mutations_total",
		Help: "Total number of account mutations by operation and status",
	},
	[]string{"operation", "status"},
)

// RegisterMetrics registers account package metrics with the given
// Prometheus registry. Call once at startup to expose them on /metrics.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(CacheLookups)
	reg.MustRegister(Verifications)
	reg.MustRegister(Mutations)
}

// recordCacheLookup increments the cache lookup counter.
func recordCacheLookup(hit bool) {
	result := ResultMiss
	if hit {
		result = ResultHit
	}
	CacheLookups.WithLabelValues(result).Inc()
}

// recordVerification increments the verification counter.
func recordVerification(result string) {
	Verifications.WithLabelValues(result).Inc()
}

// recordMutation increments the mutation counter.
func recordMutation(operation, status string) {
	Mutations.WithLabelValues(operation, status).Inc()
}
