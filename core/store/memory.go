package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dinehop/dinehop/core/model"
)

// MemoryStore is an in-memory Store for tests and development.
type MemoryStore struct {
	mu          sync.RWMutex
	events      map[string]model.Event
	teams       map[string][]model.Team
	proposals   map[string][]model.Proposal
	jobs        map[string]model.MatchingJob
	constraints map[string]model.Constraints
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events:      make(map[string]model.Event),
		teams:       make(map[string][]model.Team),
		proposals:   make(map[string][]model.Proposal),
		jobs:        make(map[string]model.MatchingJob),
		constraints: make(map[string]model.Constraints),
	}
}

func (s *MemoryStore) Event(_ context.Context, id string) (model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ev, ok := s.events[id]
	if !ok {
		return model.Event{}, ErrNotFound
	}
	return ev, nil
}

func (s *MemoryStore) PutEvent(_ context.Context, ev model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ev.MatchingStatus == "" {
		ev.MatchingStatus = model.MatchingNotStarted
	}
	s.events[ev.ID] = ev
	return nil
}

func (s *MemoryStore) SetMatchingStatus(_ context.Context, eventID string, status model.MatchingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[eventID]
	if !ok {
		return ErrNotFound
	}
	ev.MatchingStatus = status
	s.events[eventID] = ev
	return nil
}

func (s *MemoryStore) TeamsByEvent(_ context.Context, eventID string) ([]model.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Team, 0, len(s.teams[eventID]))
	for _, t := range s.teams[eventID] {
		if !t.Cancelled {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *MemoryStore) PutTeams(_ context.Context, eventID string, teams []model.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]model.Team, len(teams))
	copy(cp, teams)
	s.teams[eventID] = cp
	return nil
}

func (s *MemoryStore) Proposals(_ context.Context, eventID string) ([]model.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]model.Proposal(nil), s.proposals[eventID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Version > out[j].Version })
	return out, nil
}

func (s *MemoryStore) Proposal(_ context.Context, eventID string, version int) (model.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.proposals[eventID] {
		if p.Version == version {
			return p, nil
		}
	}
	return model.Proposal{}, ErrNotFound
}

func (s *MemoryStore) SaveProposal(_ context.Context, p model.Proposal) (model.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := 1
	for _, existing := range s.proposals[p.EventID] {
		if existing.Version >= next {
			next = existing.Version + 1
		}
	}
	p.Version = next
	if p.Status == "" {
		p.Status = model.ProposalProposed
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	s.proposals[p.EventID] = append(s.proposals[p.EventID], p)
	return p, nil
}

func (s *MemoryStore) UpdateProposal(_ context.Context, p model.Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.proposals[p.EventID]
	for i, existing := range list {
		if existing.Version != p.Version {
			continue
		}
		if existing.Status == model.ProposalFinalized {
			return ErrFinalized
		}
		p.Status = existing.Status
		p.CreatedAt = existing.CreatedAt
		list[i] = p
		return nil
	}
	return ErrNotFound
}

func (s *MemoryStore) SetProposalStatus(_ context.Context, eventID string, version int, status model.ProposalStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.proposals[eventID]
	for i, existing := range list {
		if existing.Version == version {
			list[i].Status = status
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) CreateJob(_ context.Context, job model.MatchingJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
	return nil
}

func (s *MemoryStore) UpdateJob(_ context.Context, job model.MatchingJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.ID]; !ok {
		return ErrNotFound
	}
	job.UpdatedAt = time.Now().UTC()
	s.jobs[job.ID] = job
	return nil
}

func (s *MemoryStore) Job(_ context.Context, id string) (model.MatchingJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return model.MatchingJob{}, ErrNotFound
	}
	return job, nil
}

func (s *MemoryStore) JobsByEvent(_ context.Context, eventID string) ([]model.MatchingJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.MatchingJob
	for _, j := range s.jobs {
		if j.EventID == eventID {
			out = append(out, j)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) ActiveJob(_ context.Context, eventID string) (model.MatchingJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, j := range s.jobs {
		if j.EventID == eventID && j.Status.Active() {
			return j, nil
		}
	}
	return model.MatchingJob{}, ErrNotFound
}

func (s *MemoryStore) Constraints(_ context.Context, eventID string) (model.Constraints, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.constraints[eventID], nil
}

func (s *MemoryStore) SaveConstraints(_ context.Context, eventID string, c model.Constraints) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.constraints[eventID] = c
	return nil
}

func (s *MemoryStore) Close() error { return nil }
