package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dinehop/dinehop/core/model"
	"github.com/dinehop/dinehop/core/store"
)

func (s *Server) constraintsFor(r *http.Request, eventID string) (model.Constraints, error) {
	c, err := s.store.Constraints(r.Context(), eventID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return model.Constraints{}, err
	}
	return c, nil
}

func (s *Server) handleGetConstraints(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")
	if _, err := s.store.Event(r.Context(), eventID); err != nil {
		s.fail(w, err)
		return
	}
	c, err := s.constraintsFor(r, eventID)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, c)
}

type pairRequest struct {
	EmailA string `json:"email_a"`
	EmailB string `json:"email_b"`
}

func (p pairRequest) normalized() (string, string, bool) {
	a := strings.ToLower(strings.TrimSpace(p.EmailA))
	b := strings.ToLower(strings.TrimSpace(p.EmailB))
	if a == "" || b == "" || a == b {
		return "", "", false
	}
	if a > b {
		a, b = b, a
	}
	return a, b, true
}

// handlePutPair adds a forced pair. Adding the same pair twice is a no-op.
func (s *Server) handlePutPair(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")
	if _, err := s.store.Event(r.Context(), eventID); err != nil {
		s.fail(w, err)
		return
	}
	var req pairRequest
	if !s.decode(w, r, &req) {
		return
	}
	a, b, ok := req.normalized()
	if !ok {
		s.respondError(w, http.StatusBadRequest, "two distinct emails are required")
		return
	}
	c, err := s.constraintsFor(r, eventID)
	if err != nil {
		s.fail(w, err)
		return
	}
	for _, p := range c.ForcedPairs {
		if p[0] == a && p[1] == b {
			s.respond(w, http.StatusOK, c)
			return
		}
	}
	c.ForcedPairs = append(c.ForcedPairs, [2]string{a, b})
	if err := s.store.SaveConstraints(r.Context(), eventID, c); err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, c)
}

func (s *Server) handleDeletePair(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")
	var req pairRequest
	if !s.decode(w, r, &req) {
		return
	}
	a, b, ok := req.normalized()
	if !ok {
		s.respondError(w, http.StatusBadRequest, "two distinct emails are required")
		return
	}
	c, err := s.constraintsFor(r, eventID)
	if err != nil {
		s.fail(w, err)
		return
	}
	kept := c.ForcedPairs[:0]
	for _, p := range c.ForcedPairs {
		if !(p[0] == a && p[1] == b) {
			kept = append(kept, p)
		}
	}
	c.ForcedPairs = kept
	if err := s.store.SaveConstraints(r.Context(), eventID, c); err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, c)
}

func (s *Server) handlePutSplit(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")
	teamID := r.PathValue("teamID")
	if _, err := s.store.Event(r.Context(), eventID); err != nil {
		s.fail(w, err)
		return
	}
	c, err := s.constraintsFor(r, eventID)
	if err != nil {
		s.fail(w, err)
		return
	}
	if !c.HasSplit(teamID) {
		c.SplitTeamIDs = append(c.SplitTeamIDs, teamID)
		if err := s.store.SaveConstraints(r.Context(), eventID, c); err != nil {
			s.fail(w, err)
			return
		}
	}
	s.respond(w, http.StatusOK, c)
}

func (s *Server) handleDeleteSplit(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")
	teamID := r.PathValue("teamID")
	c, err := s.constraintsFor(r, eventID)
	if err != nil {
		s.fail(w, err)
		return
	}
	kept := c.SplitTeamIDs[:0]
	for _, id := range c.SplitTeamIDs {
		if id != teamID {
			kept = append(kept, id)
		}
	}
	c.SplitTeamIDs = kept
	if err := s.store.SaveConstraints(r.Context(), eventID, c); err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, c)
}
