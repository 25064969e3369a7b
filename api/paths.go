package api

import (
	"net/http"

	"github.com/dinehop/dinehop/core/match"
)

// handlePaths returns each unit's ordered phase coordinates for map display.
func (s *Server) handlePaths(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")
	version, err := s.versionParam(r, eventID)
	if err != nil {
		s.fail(w, err)
		return
	}
	p, err := s.store.Proposal(r.Context(), eventID, version)
	if err != nil {
		s.fail(w, err)
		return
	}
	ev, units, err := s.pool(r.Context(), eventID)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, match.Paths(ev, p.Groups, units))
}

// handlePathGeometry resolves each hop's polyline through the routing
// backend; in fast mode the segments are straight lines.
func (s *Server) handlePathGeometry(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")
	version, err := s.versionParam(r, eventID)
	if err != nil {
		s.fail(w, err)
		return
	}
	p, err := s.store.Proposal(r.Context(), eventID, version)
	if err != nil {
		s.fail(w, err)
		return
	}
	ev, units, err := s.pool(r.Context(), eventID)
	if err != nil {
		s.fail(w, err)
		return
	}
	geo, err := match.PathGeometry(r.Context(), ev, p.Groups, units, s.resolver(ev))
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, geo)
}
