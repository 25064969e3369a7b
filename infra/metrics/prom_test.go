package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/dinehop/dinehop/core/metrics"
)

func TestPromSinkRecordsRuns(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	rec := coremetrics.RunRecord{
		EventID:        "ev1",
		Algorithm:      "greedy",
		Status:         "completed",
		Duration:       3 * time.Second,
		MatchedUnits:   9,
		UnmatchedUnits: 2,
		TotalScore:     123.4,
	}
	require.NoError(t, sink.RecordRun(rec))
	require.NoError(t, sink.RecordRun(rec))

	runs := testutil.ToFloat64(sink.runs.WithLabelValues("ev1", "greedy", "completed"))
	assert.Equal(t, 2.0, runs)
	unmatched := testutil.ToFloat64(sink.unmatched.WithLabelValues("ev1", "greedy"))
	assert.Equal(t, 2.0, unmatched)
}

func TestPromSinkDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	// Re-registering on the same registry reuses the existing collectors.
	_, err = NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
}

func TestPromSinkGroupScores(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	require.NoError(t, sink.RecordGroupScores("ev1", "greedy", []float64{10, 20, 30}))

	count := testutil.CollectAndCount(sink.groupScore)
	assert.Equal(t, 1, count)
}
