package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records pipeline stage outcomes in Prometheus metrics.
type PromSink struct {
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	stations *prometheus.GaugeVec
}

// NewPromSink registers stage metrics on the provided Prometheus registerer.
// If reg is nil, the default registerer is used. If the collectors are already
// registered, the existing ones are reused.
func NewPromSink(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rebalance_stage_runs_total",
		Help: "Total number of completed stage runs",
	}, []string{"stage", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rebalance_stage_duration_seconds",
		Help:    "Wall-clock time spent per stage",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	}, []string{"stage", "status"})
	stations := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "rebalance_stage_stations",
		Help: "Number of stations handled by the last run of each stage",
	}, []string{"stage"})

	if err := reg.Register(runs); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			runs = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(duration); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			duration = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(stations); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			stations = are.ExistingCollector.(*prometheus.GaugeVec)
		} else {
			return nil, err
		}
	}

	return &PromSink{runs: runs, duration: duration, stations: stations}, nil
}

// RecordStageResult updates the collectors for each stage result.
func (s *PromSink) RecordStageResult(res []StageResult) error {
	for _, r := range res {
		s.runs.WithLabelValues(r.Stage, r.Status).Inc()
		s.duration.WithLabelValues(r.Stage, r.Status).Observe(r.Duration.Seconds())
		s.stations.WithLabelValues(r.Stage).Set(float64(r.Stations))
	}
	return nil
}
