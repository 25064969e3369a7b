package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/dinehop/dinehop/core/match"
	"github.com/dinehop/dinehop/core/model"
	"github.com/dinehop/dinehop/core/store"
)

// editResponse is the shared answer of the manual edit surface: the rescored
// groups, fresh metrics, the structural report, and whether the result was
// written back.
type editResponse struct {
	Version    int                    `json:"version"`
	Groups     []model.Group          `json:"groups"`
	Metrics    model.Metrics          `json:"metrics"`
	Validation match.ValidationReport `json:"validation"`
	Persisted  bool                   `json:"persisted"`
}

// pool rebuilds the unit set of the event the same way a run would.
func (s *Server) pool(ctx context.Context, eventID string) (model.Event, []model.Unit, error) {
	ev, err := s.store.Event(ctx, eventID)
	if err != nil {
		return model.Event{}, nil, err
	}
	teams, err := s.store.TeamsByEvent(ctx, eventID)
	if err != nil {
		return model.Event{}, nil, err
	}
	constraints, err := s.store.Constraints(ctx, eventID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return model.Event{}, nil, err
	}
	units, _ := match.BuildPool(teams, constraints)
	return ev, units, nil
}

// rescore re-derives scores, travel and warnings for an edited group list.
func (s *Server) rescore(ctx context.Context, ev model.Event, units []model.Unit, groups []model.Group) ([]model.Group, model.Metrics, match.ValidationReport) {
	res := s.resolver(ev)
	scored, metrics := match.ScoreGroups(ctx, ev, units, groups, s.weights, res)
	return scored, metrics, match.Validate(scored)
}

// persistable applies the edit-surface rule: write back only when forced or
// when the result is structurally valid and warning-free.
func persistable(force bool, groups []model.Group, rep match.ValidationReport) bool {
	if force {
		return true
	}
	if !rep.Valid {
		return false
	}
	for _, g := range groups {
		if len(g.Warnings) > 0 {
			return false
		}
	}
	return true
}

func (s *Server) finishEdit(w http.ResponseWriter, r *http.Request, p model.Proposal, groups []model.Group, metrics model.Metrics, rep match.ValidationReport, force bool) {
	persisted := persistable(force, groups, rep)
	if persisted {
		p.Groups = groups
		p.Metrics = metrics
		if err := s.store.UpdateProposal(r.Context(), p); err != nil {
			s.fail(w, err)
			return
		}
	}
	s.respond(w, http.StatusOK, editResponse{
		Version:    p.Version,
		Groups:     groups,
		Metrics:    metrics,
		Validation: rep,
		Persisted:  persisted,
	})
}

type moveRequest struct {
	Version      int         `json:"version"`
	Phase        model.Phase `json:"phase"`
	UnitID       string      `json:"unit_id"`
	ToHostUnitID string      `json:"to_host_unit_id"`
	Force        bool        `json:"force"`
}

// handleMove moves a guest unit to another host's group within one phase.
func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")
	var req moveRequest
	if !s.decode(w, r, &req) {
		return
	}
	p, err := s.loadVersion(r, eventID, req.Version)
	if err != nil {
		s.fail(w, err)
		return
	}

	groups := append([]model.Group(nil), p.Groups...)
	fromIdx, toIdx := -1, -1
	for i, g := range groups {
		if g.Phase != req.Phase {
			continue
		}
		for _, id := range g.GuestUnitIDs {
			if id == req.UnitID {
				fromIdx = i
			}
		}
		if g.HostUnitID == req.ToHostUnitID {
			toIdx = i
		}
	}
	if fromIdx == -1 {
		s.respondError(w, http.StatusBadRequest, "unit is not a guest in the given phase")
		return
	}
	if toIdx == -1 {
		s.respondError(w, http.StatusBadRequest, "target host has no group in the given phase")
		return
	}
	if fromIdx == toIdx {
		s.respondError(w, http.StatusBadRequest, "unit already belongs to the target group")
		return
	}

	from := groups[fromIdx]
	kept := make([]string, 0, len(from.GuestUnitIDs))
	for _, id := range from.GuestUnitIDs {
		if id != req.UnitID {
			kept = append(kept, id)
		}
	}
	from.GuestUnitIDs = kept
	groups[fromIdx] = from

	to := groups[toIdx]
	to.GuestUnitIDs = append(append([]string(nil), to.GuestUnitIDs...), req.UnitID)
	groups[toIdx] = to

	ev, units, err := s.pool(r.Context(), eventID)
	if err != nil {
		s.fail(w, err)
		return
	}
	scored, metrics, rep := s.rescore(r.Context(), ev, units, groups)
	s.finishEdit(w, r, p, scored, metrics, rep, req.Force)
}

type groupsRequest struct {
	Version int           `json:"version"`
	Groups  []model.Group `json:"groups"`
	Force   bool          `json:"force"`
}

// handleValidate reports on a stored version or an ad-hoc group list. It
// never persists.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")
	var req groupsRequest
	if !s.decode(w, r, &req) {
		return
	}
	groups := req.Groups
	version := req.Version
	if groups == nil {
		p, err := s.loadVersion(r, eventID, req.Version)
		if err != nil {
			s.fail(w, err)
			return
		}
		groups = p.Groups
		version = p.Version
	}
	ev, units, err := s.pool(r.Context(), eventID)
	if err != nil {
		s.fail(w, err)
		return
	}
	scored, metrics, rep := s.rescore(r.Context(), ev, units, groups)
	s.respond(w, http.StatusOK, editResponse{
		Version:    version,
		Groups:     scored,
		Metrics:    metrics,
		Validation: rep,
	})
}

// handleSetGroups replaces a version's groups wholesale.
func (s *Server) handleSetGroups(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")
	var req groupsRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Groups == nil {
		s.respondError(w, http.StatusBadRequest, "groups are required")
		return
	}
	p, err := s.loadVersion(r, eventID, req.Version)
	if err != nil {
		s.fail(w, err)
		return
	}
	ev, units, err := s.pool(r.Context(), eventID)
	if err != nil {
		s.fail(w, err)
		return
	}
	scored, metrics, rep := s.rescore(r.Context(), ev, units, req.Groups)
	s.finishEdit(w, r, p, scored, metrics, rep, req.Force)
}

// handlePreview scores an ad-hoc group list without touching storage.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")
	var req groupsRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Groups == nil {
		s.respondError(w, http.StatusBadRequest, "groups are required")
		return
	}
	ev, units, err := s.pool(r.Context(), eventID)
	if err != nil {
		s.fail(w, err)
		return
	}
	scored, metrics, rep := s.rescore(r.Context(), ev, units, req.Groups)
	s.respond(w, http.StatusOK, editResponse{
		Groups:     scored,
		Metrics:    metrics,
		Validation: rep,
	})
}

type recomputeRequest struct {
	Version int  `json:"version"`
	Force   bool `json:"force"`
}

// handleRecompute re-scores a stored version with the current weights and
// travel data.
func (s *Server) handleRecompute(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")
	var req recomputeRequest
	if !s.decode(w, r, &req) {
		return
	}
	p, err := s.loadVersion(r, eventID, req.Version)
	if err != nil {
		s.fail(w, err)
		return
	}
	ev, units, err := s.pool(r.Context(), eventID)
	if err != nil {
		s.fail(w, err)
		return
	}
	scored, metrics, rep := s.rescore(r.Context(), ev, units, p.Groups)
	s.finishEdit(w, r, p, scored, metrics, rep, req.Force)
}

// loadVersion resolves an explicit version or falls back to the newest one.
func (s *Server) loadVersion(r *http.Request, eventID string, version int) (model.Proposal, error) {
	if version == 0 {
		list, err := s.store.Proposals(r.Context(), eventID)
		if err != nil {
			return model.Proposal{}, err
		}
		if len(list) == 0 {
			return model.Proposal{}, store.ErrNotFound
		}
		return list[0], nil
	}
	return s.store.Proposal(r.Context(), eventID, version)
}
