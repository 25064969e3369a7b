package api

import (
	"net/http"

	"github.com/dinehop/dinehop/core/model"
	"github.com/dinehop/dinehop/infra/geocode"
)

func (s *Server) handlePutEvent(w http.ResponseWriter, r *http.Request) {
	var ev model.Event
	if !s.decode(w, r, &ev) {
		return
	}
	ev.ID = r.PathValue("id")
	if ev.MatchingStatus == "" {
		ev.MatchingStatus = model.MatchingNotStarted
	}
	if err := s.store.PutEvent(r.Context(), ev); err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, ev)
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := s.store.Event(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, ev)
}

// handlePutTeams replaces the event's team roster. Teams carrying an address
// but no coordinates are geocoded best-effort before storage.
func (s *Server) handlePutTeams(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")
	if _, err := s.store.Event(r.Context(), eventID); err != nil {
		s.fail(w, err)
		return
	}
	var teams []model.Team
	if !s.decode(w, r, &teams) {
		return
	}
	teams = geocode.FillTeamLocations(r.Context(), s.geocoder, teams)
	if err := s.store.PutTeams(r.Context(), eventID, teams); err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]int{"teams": len(teams)})
}
