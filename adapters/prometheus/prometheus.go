// Package prometheus provides Prometheus implementations of the metrics
// interfaces for both pillars (behavior engine and host).
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jbrestan/Orleankka/core/metrics"
)

// timer wraps a Prometheus observer to implement the Timer interface.
type timer struct {
	h     prometheus.Observer
	start time.Time
}

func newTimer(h prometheus.Observer) metrics.Timer {
	return &timer{h: h, start: time.Now()}
}

func (t *timer) ObserveDuration() {
	t.h.Observe(time.Since(t.start).Seconds())
}

// Default histogram buckets for latency metrics (in seconds).
var defaultBuckets = []float64{
	.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10,
}

func boolToStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// AllMetrics holds Prometheus implementations for both pillars. Use this to
// initialize metrics for the whole module at once.
type AllMetrics struct {
	Behavior *behaviorMetrics
	Host     *hostMetrics
}

// NewAllMetrics creates Prometheus metrics for both pillars.
func NewAllMetrics(reg prometheus.Registerer) *AllMetrics {
	return &AllMetrics{
		Behavior: NewBehaviorMetrics(reg).(*behaviorMetrics),
		Host:     NewHostMetrics(reg).(*hostMetrics),
	}
}
