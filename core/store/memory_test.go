package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dinehop/dinehop/core/model"
)

func TestMemoryStoreEventRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.Event(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.PutEvent(ctx, model.Event{ID: "ev1", Name: "spring"}))
	ev, err := s.Event(ctx, "ev1")
	require.NoError(t, err)
	assert.Equal(t, "spring", ev.Name)
	assert.Equal(t, model.MatchingNotStarted, ev.MatchingStatus)

	require.NoError(t, s.SetMatchingStatus(ctx, "ev1", model.MatchingProposed))
	ev, err = s.Event(ctx, "ev1")
	require.NoError(t, err)
	assert.Equal(t, model.MatchingProposed, ev.MatchingStatus)

	require.ErrorIs(t, s.SetMatchingStatus(ctx, "ghost", model.MatchingProposed), ErrNotFound)
}

func TestMemoryStoreTeamsFilterCancelled(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.PutTeams(ctx, "ev1", []model.Team{
		{ID: "t1"},
		{ID: "t2", Cancelled: true},
	}))
	teams, err := s.TeamsByEvent(ctx, "ev1")
	require.NoError(t, err)
	require.Len(t, teams, 1)
	assert.Equal(t, "t1", teams[0].ID)

	// Put replaces the whole set.
	require.NoError(t, s.PutTeams(ctx, "ev1", []model.Team{{ID: "t3"}}))
	teams, err = s.TeamsByEvent(ctx, "ev1")
	require.NoError(t, err)
	require.Len(t, teams, 1)
	assert.Equal(t, "t3", teams[0].ID)
}

func TestMemoryStoreProposalVersioning(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	p1, err := s.SaveProposal(ctx, model.Proposal{EventID: "ev1", Algorithm: "greedy"})
	require.NoError(t, err)
	assert.Equal(t, 1, p1.Version)
	assert.Equal(t, model.ProposalProposed, p1.Status)
	assert.False(t, p1.CreatedAt.IsZero())

	p2, err := s.SaveProposal(ctx, model.Proposal{EventID: "ev1", Algorithm: "random"})
	require.NoError(t, err)
	assert.Equal(t, 2, p2.Version)

	// Per-event counters are independent.
	q1, err := s.SaveProposal(ctx, model.Proposal{EventID: "ev2"})
	require.NoError(t, err)
	assert.Equal(t, 1, q1.Version)

	list, err := s.Proposals(ctx, "ev1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 2, list[0].Version, "newest first")

	got, err := s.Proposal(ctx, "ev1", 1)
	require.NoError(t, err)
	assert.Equal(t, "greedy", got.Algorithm)

	_, err = s.Proposal(ctx, "ev1", 9)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreUpdateProposalGuards(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	saved, err := s.SaveProposal(ctx, model.Proposal{EventID: "ev1"})
	require.NoError(t, err)

	edited := saved
	edited.Groups = []model.Group{{Phase: model.PhaseMain, HostUnitID: "u1", GuestUnitIDs: []string{"u2", "u3"}}}
	edited.Status = model.ProposalFinalized // must not stick through update
	require.NoError(t, s.UpdateProposal(ctx, edited))

	got, err := s.Proposal(ctx, "ev1", saved.Version)
	require.NoError(t, err)
	require.Len(t, got.Groups, 1)
	assert.Equal(t, model.ProposalProposed, got.Status)
	assert.Equal(t, saved.CreatedAt, got.CreatedAt)

	require.NoError(t, s.SetProposalStatus(ctx, "ev1", saved.Version, model.ProposalFinalized))
	require.ErrorIs(t, s.UpdateProposal(ctx, edited), ErrFinalized)

	edited.Version = 99
	require.ErrorIs(t, s.UpdateProposal(ctx, edited), ErrNotFound)
}

func TestMemoryStoreJobLifecycle(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	job := model.MatchingJob{ID: "j1", EventID: "ev1", Status: model.JobQueued, CreatedAt: time.Now().UTC()}
	require.NoError(t, s.CreateJob(ctx, job))

	active, err := s.ActiveJob(ctx, "ev1")
	require.NoError(t, err)
	assert.Equal(t, "j1", active.ID)

	job.Status = model.JobCompleted
	require.NoError(t, s.UpdateJob(ctx, job))
	_, err = s.ActiveJob(ctx, "ev1")
	require.ErrorIs(t, err, ErrNotFound)

	got, err := s.Job(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, model.JobCompleted, got.Status)
	assert.False(t, got.UpdatedAt.IsZero())

	require.ErrorIs(t, s.UpdateJob(ctx, model.MatchingJob{ID: "ghost"}), ErrNotFound)

	jobs, err := s.JobsByEvent(ctx, "ev1")
	require.NoError(t, err)
	require.Len(t, jobs, 1)
}

func TestMemoryStoreConstraints(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	c, err := s.Constraints(ctx, "ev1")
	require.NoError(t, err)
	assert.Empty(t, c.ForcedPairs)

	want := model.Constraints{ForcedPairs: [][2]string{{"a@x", "b@x"}}, SplitTeamIDs: []string{"t1"}}
	require.NoError(t, s.SaveConstraints(ctx, "ev1", want))
	c, err = s.Constraints(ctx, "ev1")
	require.NoError(t, err)
	assert.Equal(t, want, c)
}

func TestSaveProposalRetryPassesThrough(t *testing.T) {
	s := NewMemoryStore()
	p, err := SaveProposalRetry(context.Background(), s, model.Proposal{EventID: "ev1"})
	require.NoError(t, err)
	assert.Equal(t, 1, p.Version)
}
