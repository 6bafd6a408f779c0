// Package metrics exports gate results in the Prometheus text format so a
// node_exporter textfile collector can pick them up.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/igianni84/woo-ai-assistant-sub003/internal/gate"
)

// Recorder holds the gate metrics on a private registry.
//
// Metrics:
//   - gate_errors - counted failures in the last evaluation
//   - gate_checks{status} - checks per outcome in the last evaluation
//   - gate_passed - 1 when the last evaluation passed
//   - gate_phase - phase of the last evaluation
//   - gate_last_run_timestamp_seconds - end of the last evaluation
//   - gate_check_duration_seconds{check} - last duration of each check
//   - gate_evaluations_total{status} - evaluations since start
type Recorder struct {
	registry *prometheus.Registry

	errors        prometheus.Gauge
	checks        *prometheus.GaugeVec
	passed        prometheus.Gauge
	phase         prometheus.Gauge
	lastRun       prometheus.Gauge
	checkDuration *prometheus.GaugeVec
	evaluations   *prometheus.CounterVec
}

// New creates a recorder with its own registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		errors: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gate_errors",
			Help: "Counted check failures in the last evaluation",
		}),
		checks: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gate_checks",
			Help: "Checks run in the last evaluation by outcome",
		}, []string{"status"}),
		passed: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gate_passed",
			Help: "1 if the last evaluation passed, 0 otherwise",
		}),
		phase: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gate_phase",
			Help: "Phase of the last evaluation",
		}),
		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gate_last_run_timestamp_seconds",
			Help: "Unix time the last evaluation finished",
		}),
		checkDuration: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gate_check_duration_seconds",
			Help: "Duration of each check in the last evaluation",
		}, []string{"check"}),
		evaluations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gate_evaluations_total",
			Help: "Evaluations run by this process by result",
		}, []string{"status"}),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Observe replaces the last-evaluation metrics with result.
func (r *Recorder) Observe(result *gate.PhaseResult) {
	status := result.Status

	r.errors.Set(float64(status.ErrorCount))
	r.phase.Set(float64(status.Phase))
	r.lastRun.Set(float64(status.Timestamp.Unix()))
	if status.Passed() {
		r.passed.Set(1)
	} else {
		r.passed.Set(0)
	}

	tally := result.Tally()
	for _, s := range []gate.OutcomeStatus{gate.OutcomePass, gate.OutcomeFail, gate.OutcomeSkip} {
		r.checks.WithLabelValues(string(s)).Set(float64(tally[s]))
	}

	r.checkDuration.Reset()
	for _, run := range result.Runs {
		r.checkDuration.WithLabelValues(run.Name).Set(run.Outcome.Duration.Seconds())
	}

	r.evaluations.WithLabelValues(string(status.Status)).Inc()
}

// WriteTextfile writes every metric to path. The write is atomic.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
