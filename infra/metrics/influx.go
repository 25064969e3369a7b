package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/dinehop/dinehop/core/metrics"
	"github.com/dinehop/dinehop/infra/logger"
)

// InfluxSink writes matching-run records to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a sink for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a NopSink
// when the health check fails, so a missing backend never blocks matching.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.Sink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordRun writes one matching-run record as a point.
func (s *InfluxSink) RecordRun(rec coremetrics.RunRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("matching_run").
		AddTag("event_id", rec.EventID).
		AddTag("algorithm", rec.Algorithm).
		AddTag("status", rec.Status).
		AddField("duration_seconds", round3(rec.Duration.Seconds())).
		AddField("matched_units", rec.MatchedUnits).
		AddField("unmatched_units", rec.UnmatchedUnits).
		AddField("total_score", round3(rec.TotalScore)).
		SetTime(time.Now())
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordGroupScores writes one point per group score.
func (s *InfluxSink) RecordGroupScores(eventID, algorithm string, scores []float64) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	now := time.Now()
	for i, v := range scores {
		p := write.NewPointWithMeasurement("matching_group").
			AddTag("event_id", eventID).
			AddTag("algorithm", algorithm).
			AddField("group_index", i).
			AddField("score", round3(v)).
			SetTime(now)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying client.
func (s *InfluxSink) Close() error {
	s.client.Close()
	return nil
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
