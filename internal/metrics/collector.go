// Package metrics exposes Prometheus collectors for workflow activity.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Transition outcomes recorded against the transitions counter
const (
	OutcomeFired            = "fired"
	OutcomeRejected         = "rejected"
	OutcomeValidationFailed = "validation_failed"
	OutcomeConflict         = "conflict"
)

// Collector holds the workflow metric instruments
type Collector struct {
	transitionsTotal     *prometheus.CounterVec
	notificationFailures prometheus.Counter
}

// NewCollector creates the workflow collectors, unregistered
func NewCollector() *Collector {
	return &Collector{
		transitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lod_transitions_total",
				Help: "Trigger attempts against LOD cases by variant, trigger and outcome.",
			},
			[]string{"variant", "trigger", "outcome"},
		),
		notificationFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "lod_notification_failures_total",
				Help: "Outbound notifications that failed to deliver.",
			},
		),
	}
}

// Register registers all collectors with the given registerer
func (c *Collector) Register(reg prometheus.Registerer) error {
	if err := reg.Register(c.transitionsTotal); err != nil {
		return err
	}
	return reg.Register(c.notificationFailures)
}

// RecordTransition counts one trigger attempt
func (c *Collector) RecordTransition(variant, trigger, outcome string) {
	c.transitionsTotal.WithLabelValues(variant, trigger, outcome).Inc()
}

// RecordNotificationFailure counts one failed notification delivery
func (c *Collector) RecordNotificationFailure() {
	c.notificationFailures.Inc()
}
