// Package store defines the persistence contracts of the matching engine:
// events and teams (the external registration boundary), append-only
// versioned proposals, mutable job documents and per-event constraints.
package store

import (
	"context"
	"errors"

	"github.com/dinehop/dinehop/core/model"
)

// ErrNotFound marks an unknown event, version, job or constraint document.
var ErrNotFound = errors.New("not found")

// ErrConflict marks a lost optimistic write, e.g. two concurrent proposal
// saves racing for the same version. Callers retry a small bounded number of
// times.
var ErrConflict = errors.New("write conflict")

// ErrFinalized marks a mutation attempt on a finalized proposal version.
var ErrFinalized = errors.New("proposal is finalized")

// Store is the persistence surface used by the engine, jobs and API.
type Store interface {
	// Events and teams (registration boundary, read-mostly).
	Event(ctx context.Context, id string) (model.Event, error)
	PutEvent(ctx context.Context, ev model.Event) error
	SetMatchingStatus(ctx context.Context, eventID string, s model.MatchingStatus) error
	TeamsByEvent(ctx context.Context, eventID string) ([]model.Team, error)
	PutTeams(ctx context.Context, eventID string, teams []model.Team) error

	// Proposals: append-only versions per event, newest first on list.
	Proposals(ctx context.Context, eventID string) ([]model.Proposal, error)
	Proposal(ctx context.Context, eventID string, version int) (model.Proposal, error)
	// SaveProposal assigns the next version using read-then-increment and
	// returns ErrConflict when it loses the race.
	SaveProposal(ctx context.Context, p model.Proposal) (model.Proposal, error)
	// UpdateProposal replaces groups/metrics of a non-finalized version.
	UpdateProposal(ctx context.Context, p model.Proposal) error
	SetProposalStatus(ctx context.Context, eventID string, version int, s model.ProposalStatus) error

	// Jobs.
	CreateJob(ctx context.Context, job model.MatchingJob) error
	UpdateJob(ctx context.Context, job model.MatchingJob) error
	Job(ctx context.Context, id string) (model.MatchingJob, error)
	JobsByEvent(ctx context.Context, eventID string) ([]model.MatchingJob, error)
	// ActiveJob returns the queued or running job for the event, or
	// ErrNotFound.
	ActiveJob(ctx context.Context, eventID string) (model.MatchingJob, error)

	// Constraints.
	Constraints(ctx context.Context, eventID string) (model.Constraints, error)
	SaveConstraints(ctx context.Context, eventID string, c model.Constraints) error

	Close() error
}

// SaveProposalRetry wraps SaveProposal with a small bounded retry on
// ErrConflict, per the versioning contract.
func SaveProposalRetry(ctx context.Context, s Store, p model.Proposal) (model.Proposal, error) {
	var last error
	for attempt := 0; attempt < 3; attempt++ {
		saved, err := s.SaveProposal(ctx, p)
		if err == nil {
			return saved, nil
		}
		if !errors.Is(err, ErrConflict) {
			return model.Proposal{}, err
		}
		last = err
	}
	return model.Proposal{}, last
}
