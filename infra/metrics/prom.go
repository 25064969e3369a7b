package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/dinehop/dinehop/core/metrics"
)

// PromSink records matching runs in Prometheus metrics.
type PromSink struct {
	runs       *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	unmatched  *prometheus.GaugeVec
	groupScore *prometheus.HistogramVec
}

// NewPromSink registers matching metrics on the default Prometheus
// registerer. The metrics HTTP endpoint is served by the API server.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "matching_runs_total",
		Help: "Total number of matching algorithm runs",
	}, []string{"event_id", "algorithm", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "matching_run_seconds",
		Help:    "Wall-clock duration of one matching run",
		Buckets: prometheus.DefBuckets,
	}, []string{"event_id", "algorithm"})
	unmatched := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "matching_unmatched_units",
		Help: "Units left without a group after the latest run",
	}, []string{"event_id", "algorithm"})
	groupScore := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "matching_group_score",
		Help:    "Per-group score distribution of the latest run",
		Buckets: prometheus.LinearBuckets(-500, 100, 12),
	}, []string{"event_id", "algorithm"})

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
	if err := reg.Register(unmatched); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			unmatched = are.ExistingCollector.(*prometheus.GaugeVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(groupScore); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			groupScore = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}

	return &PromSink{runs: runs, duration: duration, unmatched: unmatched, groupScore: groupScore}, nil
}

// RecordRun implements coremetrics.Sink.
func (s *PromSink) RecordRun(rec coremetrics.RunRecord) error {
	s.runs.WithLabelValues(rec.EventID, rec.Algorithm, rec.Status).Inc()
	s.duration.WithLabelValues(rec.EventID, rec.Algorithm).Observe(rec.Duration.Seconds())
	s.unmatched.WithLabelValues(rec.EventID, rec.Algorithm).Set(float64(rec.UnmatchedUnits))
	return nil
}

// RecordGroupScores implements coremetrics.Sink.
func (s *PromSink) RecordGroupScores(eventID, algorithm string, scores []float64) error {
	h := s.groupScore.WithLabelValues(eventID, algorithm)
	for _, v := range scores {
		h.Observe(v)
	}
	return nil
}

// Close implements coremetrics.Sink.
func (s *PromSink) Close() error { return nil }
