// Package metrics provides Prometheus metrics for trigger execution and dynamic actions.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Execution outcomes.
const (
	OutcomeExecuted     = "executed"
	OutcomeNavigated    = "navigated"
	OutcomeMenu         = "menu"
	OutcomeNoCompatible = "no_compatible"
	OutcomeError        = "error"
)

// Collector holds the Prometheus metrics. A nil *Collector records nothing.
type Collector struct {
	TriggerExecutions     *prometheus.CounterVec
	CompatibilityDuration *prometheus.HistogramVec
	CompatibleActions     *prometheus.HistogramVec
	DynamicActions        prometheus.Gauge
	DynamicActionErrors   *prometheus.CounterVec
}

// New creates a collector whose metrics are registered with reg.
func New(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		TriggerExecutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "uiactions",
				Name:      "trigger_executions_total",
				Help:      "Total number of trigger executions by outcome",
			},
			[]string{"trigger", "outcome"},
		),
		CompatibilityDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "uiactions",
				Name:      "compatibility_check_duration_seconds",
				Help:      "Time spent resolving compatible actions for a trigger",
				Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"trigger"},
		),
		CompatibleActions: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "uiactions",
				Name:      "compatible_actions",
				Help:      "Number of compatible actions found per resolution",
				Buckets:   []float64{0, 1, 2, 3, 5, 8, 13},
			},
			[]string{"trigger"},
		),
		DynamicActions: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "uiactions",
				Name:      "dynamic_actions",
				Help:      "Number of dynamic actions currently registered",
			},
		),
		DynamicActionErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "uiactions",
				Name:      "dynamic_action_errors_total",
				Help:      "Dynamic action persistence failures by operation",
			},
			[]string{"op"},
		),
	}
}

// ObserveExecution counts a trigger execution.
func (c *Collector) ObserveExecution(triggerID, outcome string) {
	if c == nil {
		return
	}

	c.TriggerExecutions.WithLabelValues(triggerID, outcome).Inc()
}

// ObserveCompatibility records a compatibility resolution.
func (c *Collector) ObserveCompatibility(triggerID string, took time.Duration, compatible int) {
	if c == nil {
		return
	}

	c.CompatibilityDuration.WithLabelValues(triggerID).Observe(took.Seconds())
	c.CompatibleActions.WithLabelValues(triggerID).Observe(float64(compatible))
}

// SetDynamicActions sets the number of registered dynamic actions.
func (c *Collector) SetDynamicActions(n int) {
	if c == nil {
		return
	}

	c.DynamicActions.Set(float64(n))
}

// ObserveDynamicActionError counts a failed dynamic action operation.
func (c *Collector) ObserveDynamicActionError(op string) {
	if c == nil {
		return
	}

	c.DynamicActionErrors.WithLabelValues(op).Inc()
}
