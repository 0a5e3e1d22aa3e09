// Package utils hosts the ambient concerns shared across skipdb packages:
// logging setup, invariant reporting, comparison helpers and build info.
//
// Invariants are conditions in code that must be true; otherwise, there is a
// bug in code. Think of what you'd `panic()` on, but without crashing the
// server just because of that violation. If an invariant is violated, a log
// error is recorded and a monitoring counter is incremented that will trigger
// an alert. It is still up to the caller to handle the erroneous case, for
// example with an early return.
//
// Do not use invariants for conditions that depend on external factors; a
// malformed client command is not an invariant violation, but a node whose
// forward pointers our own code should never have produced is.

package utils

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	promclient "github.com/prometheus/client_model/go"
)

var invariantsMetric = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "invariants_total",
	Help: "The total number of invariant violations",
}, []string{
	"module", // The module in which this invariant occurred.
	"type",   // The type of the invariant that occurred.
})

// RaiseInvariant records an invariant violation: it increments the violation
// counter and logs an error with the given structured args. In test mode it
// panics instead so violating tests fail loudly.
func RaiseInvariant(module, invariantType, msg string, args ...any) {
	invariantsMetric.WithLabelValues(module, invariantType).Inc()
	slog.With("invariant", invariantType, "module", module).Error(msg, args...)
	if IsTestMode {
		panic("invariant violated: " + invariantType)
	}
}

// GetMetricValue returns the current value of the invariant metric with the
// given `module` and `invariantType` labels.
func GetMetricValue(module, invariantType string) int {
	var metric = &promclient.Metric{}
	if err := invariantsMetric.WithLabelValues(module, invariantType).Write(metric); err != nil {
		slog.Error(err.Error())
		return 0
	}
	return int(metric.Counter.GetValue())
}
