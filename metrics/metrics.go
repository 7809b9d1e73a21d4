package metrics

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder collects the response times of a run in its own registry, so
// several runs in a process never share series.
type Recorder struct {
	registry  *prometheus.Registry
	latency   *prometheus.HistogramVec
	completed *prometheus.CounterVec
	aborted   *prometheus.CounterVec
}

var labels = []string{"scenario", "operation"}

// NewRecorder creates a Recorder whose series all carry the run label.
func NewRecorder(run string) *Recorder {
	constLabels := prometheus.Labels{"run": run}
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "docbench_operation_duration_seconds",
			Help:        "response time of completed operations",
			ConstLabels: constLabels,
			Buckets:     prometheus.ExponentialBuckets(0.00001, 2, 20),
		}, labels),
		completed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "docbench_completed_operations_total",
			Help:        "total completed operations",
			ConstLabels: constLabels,
		}, labels),
		aborted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "docbench_aborted_operations_total",
			Help:        "total aborted operations",
			ConstLabels: constLabels,
		}, labels),
	}
	r.registry.MustRegister(r.latency, r.completed, r.aborted)
	return r
}

// Observe records one operation. rt is in seconds.
func (r *Recorder) Observe(scenario string, operation string, rt float64, err error) {
	if r == nil {
		return
	}
	if err != nil {
		r.aborted.WithLabelValues(scenario, operation).Inc()
		return
	}
	r.latency.WithLabelValues(scenario, operation).Observe(rt)
	r.completed.WithLabelValues(scenario, operation).Inc()
}

func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteToTextfile writes the collected series in the text exposition format.
func (r *Recorder) WriteToTextfile(path string) error {
	return errors.Wrapf(prometheus.WriteToTextfile(path, r.registry), "could not write metrics to %s", path)
}
