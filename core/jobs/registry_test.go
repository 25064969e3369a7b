package jobs

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dinehop/dinehop/core/model"
	"github.com/dinehop/dinehop/core/routing"
	"github.com/dinehop/dinehop/core/store"
	"github.com/dinehop/dinehop/internal/eventbus"
)

func fastFactory(model.Event) routing.Resolver {
	return routing.FastResolver{}
}

func seedEvent(t *testing.T, st store.Store, teams int) model.Event {
	t.Helper()
	ev := model.Event{ID: "ev1", Name: "autumn dinner", MatchingStatus: model.MatchingNotStarted, FastMode: true}
	require.NoError(t, st.PutEvent(context.Background(), ev))

	var ts []model.Team
	for i := 0; i < teams; i++ {
		ts = append(ts, model.Team{
			ID:      fmt.Sprintf("t%02d", i),
			EventID: ev.ID,
			Members: []model.Member{
				{Email: fmt.Sprintf("a%d@x.io", i), KitchenAvailable: true, CanHostMain: true},
				{Email: fmt.Sprintf("b%d@x.io", i)},
			},
			Location: &model.Coord{Lat: 48.1 + float64(i)*0.001, Lon: 11.5},
		})
	}
	require.NoError(t, st.PutTeams(context.Background(), ev.ID, ts))
	return ev
}

func waitTerminal(t *testing.T, st store.Store, jobID string) model.MatchingJob {
	t.Helper()
	var job model.MatchingJob
	require.Eventually(t, func() bool {
		var err error
		job, err = st.Job(context.Background(), jobID)
		return err == nil && !job.Status.Active()
	}, 5*time.Second, 10*time.Millisecond)
	return job
}

func TestEnqueueRunsToCompletion(t *testing.T) {
	st := store.NewMemoryStore()
	reg := NewRegistry(st, eventbus.New(), nil, fastFactory, nil)
	ev := seedEvent(t, st, 9)

	res, err := reg.Enqueue(context.Background(), EnqueueRequest{EventID: ev.ID})
	require.NoError(t, err)
	assert.True(t, res.WasEnqueued)

	job := waitTerminal(t, st, res.Job.ID)
	require.Equal(t, model.JobCompleted, job.Status)
	assert.Equal(t, 1.0, job.Progress)
	require.Len(t, job.Proposals, 1)
	assert.Equal(t, 1, job.Proposals[0].Version)
	assert.Nil(t, job.Proposals[0].Result)

	p, err := st.Proposal(context.Background(), ev.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 9, p.Metrics.MatchedUnits)

	got, err := st.Event(context.Background(), ev.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MatchingProposed, got.MatchingStatus)
}

func TestEnqueueIsIdempotentPerEvent(t *testing.T) {
	st := store.NewMemoryStore()
	reg := NewRegistry(st, nil, nil, fastFactory, nil)
	ev := seedEvent(t, st, 9)

	// A pre-existing active job occupies the slot regardless of who started it.
	active := model.MatchingJob{ID: "busy", EventID: ev.ID, Status: model.JobRunning}
	require.NoError(t, st.CreateJob(context.Background(), active))

	res, err := reg.Enqueue(context.Background(), EnqueueRequest{EventID: ev.ID})
	require.NoError(t, err)
	assert.False(t, res.WasEnqueued)
	assert.Equal(t, "busy", res.Job.ID)
}

func TestDryRunEmbedsResultsWithoutSaving(t *testing.T) {
	st := store.NewMemoryStore()
	reg := NewRegistry(st, nil, nil, fastFactory, nil)
	ev := seedEvent(t, st, 9)

	res, err := reg.Enqueue(context.Background(), EnqueueRequest{EventID: ev.ID, DryRun: true})
	require.NoError(t, err)

	job := waitTerminal(t, st, res.Job.ID)
	require.Equal(t, model.JobCompleted, job.Status)
	require.Len(t, job.Proposals, 1)
	assert.Zero(t, job.Proposals[0].Version)
	require.NotNil(t, job.Proposals[0].Result)
	assert.NotEmpty(t, job.Proposals[0].Result.Groups)

	ps, err := st.Proposals(context.Background(), ev.ID)
	require.NoError(t, err)
	assert.Empty(t, ps)

	got, err := st.Event(context.Background(), ev.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MatchingNotStarted, got.MatchingStatus)
}

func TestFailureRestoresEventStatus(t *testing.T) {
	st := store.NewMemoryStore()
	reg := NewRegistry(st, nil, nil, fastFactory, nil)
	ev := model.Event{ID: "empty", MatchingStatus: model.MatchingNotStarted, FastMode: true}
	require.NoError(t, st.PutEvent(context.Background(), ev))

	res, err := reg.Enqueue(context.Background(), EnqueueRequest{EventID: ev.ID})
	require.NoError(t, err)

	job := waitTerminal(t, st, res.Job.ID)
	assert.Equal(t, model.JobFailed, job.Status)
	assert.Contains(t, job.Error, "no matchable units")

	got, err := st.Event(context.Background(), ev.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MatchingNotStarted, got.MatchingStatus)
}

func TestEnqueueRejectsFinalizedEvent(t *testing.T) {
	st := store.NewMemoryStore()
	reg := NewRegistry(st, nil, nil, fastFactory, nil)
	ev := seedEvent(t, st, 9)
	require.NoError(t, st.SetMatchingStatus(context.Background(), ev.ID, model.MatchingFinalized))

	_, err := reg.Enqueue(context.Background(), EnqueueRequest{EventID: ev.ID})
	assert.ErrorIs(t, err, ErrEventFinalized)
}

func TestCancelUnknownJob(t *testing.T) {
	reg := NewRegistry(store.NewMemoryStore(), nil, nil, fastFactory, nil)
	assert.ErrorIs(t, reg.Cancel("nope"), store.ErrNotFound)
}

func TestWeightsDefaultAndOverride(t *testing.T) {
	st := store.NewMemoryStore()
	reg := NewRegistry(st, nil, nil, fastFactory, nil)
	ev := seedEvent(t, st, 9)

	res, err := reg.Enqueue(context.Background(), EnqueueRequest{
		EventID: ev.ID,
		Weights: model.Weights{Pref: 75},
		DryRun:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, 75.0, res.Job.Weights.Pref)
	assert.Equal(t, model.DefaultWeights().Dup, res.Job.Weights.Dup)
	waitTerminal(t, st, res.Job.ID)
	reg.Shutdown()
}
