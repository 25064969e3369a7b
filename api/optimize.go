package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/dinehop/dinehop/core/model"
	"github.com/dinehop/dinehop/core/optimize"
	"github.com/dinehop/dinehop/core/store"
)

type optimizeRequest struct {
	Version     int  `json:"version"`
	MaxAttempts int  `json:"max_attempts"`
	Parallel    bool `json:"parallel"`
}

type optimizeResponse struct {
	Improved   bool             `json:"improved"`
	Attempts   int              `json:"attempts"`
	Version    int              `json:"version"`
	NewVersion int              `json:"new_version,omitempty"`
	Issues     []optimize.Issue `json:"issues"`
}

// handleOptimize reruns the engine against a stored version and persists an
// improved proposal as a new version when one is found.
func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")
	var req optimizeRequest
	if !s.decode(w, r, &req) {
		return
	}
	p, err := s.loadVersion(r, eventID, req.Version)
	if err != nil {
		s.fail(w, err)
		return
	}
	ev, err := s.store.Event(r.Context(), eventID)
	if err != nil {
		s.fail(w, err)
		return
	}
	teams, err := s.store.TeamsByEvent(r.Context(), eventID)
	if err != nil {
		s.fail(w, err)
		return
	}
	constraints, err := s.store.Constraints(r.Context(), eventID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		s.fail(w, err)
		return
	}

	attempts := req.MaxAttempts
	if attempts == 0 {
		attempts = s.optimize.MaxAttempts
	}
	parallel := req.Parallel || s.optimize.Parallel

	opt := &optimize.Optimizer{Resolver: s.resolver(ev), Log: s.log, Seed: s.seed}
	result, err := opt.Optimize(r.Context(), optimize.Input{
		Event:       ev,
		Teams:       teams,
		Constraints: constraints,
		Initial: model.AlgorithmResult{
			EventID:   eventID,
			Algorithm: p.Algorithm,
			Groups:    p.Groups,
			Metrics:   p.Metrics,
		},
		Weights:     s.weights,
		MaxAttempts: attempts,
		Parallel:    parallel,
	})
	if err != nil {
		s.fail(w, err)
		return
	}

	resp := optimizeResponse{
		Improved: result.Improved,
		Attempts: result.Attempts,
		Version:  p.Version,
		Issues:   result.Remaining,
	}
	if resp.Issues == nil {
		resp.Issues = []optimize.Issue{}
	}
	if result.Improved {
		saved, err := store.SaveProposalRetry(r.Context(), s.store, model.Proposal{
			EventID:   eventID,
			Groups:    result.Best.Groups,
			Metrics:   result.Best.Metrics,
			Algorithm: result.Best.Algorithm,
			Status:    model.ProposalProposed,
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			s.fail(w, err)
			return
		}
		resp.NewVersion = saved.Version
	}
	s.respond(w, http.StatusOK, resp)
}
