package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWeightsMergeOverlaysNonZero(t *testing.T) {
	base := DefaultWeights()
	merged := base.Merge(Weights{Pref: 75, GuestCandidateLimit: 10})
	assert.Equal(t, 75.0, merged.Pref)
	assert.Equal(t, 10, merged.GuestCandidateLimit)
	// Untouched fields keep their defaults.
	assert.Equal(t, base.Dup, merged.Dup)
	assert.Equal(t, base.HostLimit, merged.HostLimit)
}

func TestWeightsMergeZeroIsNoOp(t *testing.T) {
	base := DefaultWeights()
	assert.Equal(t, base, base.Merge(Weights{}))
}

func TestJobStatusActive(t *testing.T) {
	assert.True(t, JobQueued.Active())
	assert.True(t, JobRunning.Active())
	assert.False(t, JobCompleted.Active())
	assert.False(t, JobFailed.Active())
	assert.False(t, JobCancelled.Active())
}

func TestGroupMembersAndWarnings(t *testing.T) {
	g := Group{HostUnitID: "h", GuestUnitIDs: []string{"a", "b"}, Warnings: []Warning{WarnDietConflict}}
	assert.Equal(t, []string{"h", "a", "b"}, g.Members())
	assert.True(t, g.HasWarning(WarnDietConflict))
	assert.False(t, g.HasWarning(WarnHostReuse))
}

func TestMetricsCompletionRatio(t *testing.T) {
	assert.Zero(t, Metrics{}.CompletionRatio())
	m := Metrics{ParticipantsTotal: 20, ParticipantsMatched: 18}
	assert.InDelta(t, 0.9, m.CompletionRatio(), 1e-9)
}
