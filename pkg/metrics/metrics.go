// Package metrics exposes Prometheus counters for the estimation engine.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeNoSignal = "no_signal"
	OutcomeError    = "error"
	OutcomeFallback = "fallback"
	OutcomeInvalid  = "invalid"
	OutcomeCached   = "cached"
)

var (
	estimations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "keyword_volume_estimations_total",
		Help: "Estimation requests by method and outcome.",
	}, []string{"method", "outcome"})

	cacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "keyword_volume_cache_lookups_total",
		Help: "Cache lookups by result (hit, miss, error).",
	}, []string{"result"})

	sourceRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "keyword_volume_source_requests_total",
		Help: "Signal source requests by source and outcome.",
	}, []string{"source", "outcome"})

	storageErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "keyword_volume_storage_errors_total",
		Help: "Cache backend failures by operation.",
	}, []string{"op"})

	registerOnce sync.Once
)

// Init registers the collectors with reg. Must be called once at startup;
// later calls are ignored.
func Init(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		reg.MustRegister(estimations, cacheLookups, sourceRequests, storageErrors)
	})
}

// RecordEstimation counts one orchestrator call.
func RecordEstimation(method, outcome string) {
	estimations.WithLabelValues(method, outcome).Inc()
}

// RecordCacheLookup counts a cache read.
func RecordCacheLookup(result string) {
	cacheLookups.WithLabelValues(result).Inc()
}

// RecordSourceRequest counts one adapter call.
func RecordSourceRequest(source, outcome string) {
	sourceRequests.WithLabelValues(source, outcome).Inc()
}

// RecordStorageError counts a swallowed backend failure.
func RecordStorageError(op string) {
	storageErrors.WithLabelValues(op).Inc()
}
