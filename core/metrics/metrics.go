// Package metrics defines the observability sink consumed by the matching
// engine. Concrete sinks (Prometheus, InfluxDB) live under infra/metrics.
package metrics

import "time"

// RunRecord captures the outcome of one algorithm run within a job.
type RunRecord struct {
	EventID        string
	Algorithm      string
	Status         string // completed, failed, cancelled
	Duration       time.Duration
	MatchedUnits   int
	UnmatchedUnits int
	TotalScore     float64
}

// Sink records matching-run observations.
type Sink interface {
	RecordRun(rec RunRecord) error
	RecordGroupScores(eventID, algorithm string, scores []float64) error
	Close() error
}

// NopSink discards all records.
type NopSink struct{}

func (NopSink) RecordRun(RunRecord) error                         { return nil }
func (NopSink) RecordGroupScores(string, string, []float64) error { return nil }
func (NopSink) Close() error                                      { return nil }

// Config selects and parametrizes the sinks.
type Config struct {
	PrometheusEnabled bool   `json:"prometheus_enabled"`
	PrometheusPort    int    `json:"prometheus_port"`
	InfluxEnabled     bool   `json:"influx_enabled"`
	InfluxURL         string `json:"influx_url"`
	InfluxToken       string `json:"influx_token"`
	InfluxOrg         string `json:"influx_org"`
	InfluxBucket      string `json:"influx_bucket"`
}
