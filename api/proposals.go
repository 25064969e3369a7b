package api

import (
	"net/http"

	"github.com/dinehop/dinehop/core/match"
	"github.com/dinehop/dinehop/core/model"
	"github.com/dinehop/dinehop/core/optimize"
)

// matchSummary lists a version without its full group payload.
type matchSummary struct {
	Version   int                  `json:"version"`
	Algorithm string               `json:"algorithm"`
	Status    model.ProposalStatus `json:"status"`
	CreatedAt string               `json:"created_at"`
	Groups    int                  `json:"groups"`
	Metrics   model.Metrics        `json:"metrics"`
}

func (s *Server) handleMatches(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")
	if raw := r.URL.Query().Get("version"); raw != "" {
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
		s.respond(w, http.StatusOK, p)
		return
	}
	list, err := s.store.Proposals(r.Context(), eventID)
	if err != nil {
		s.fail(w, err)
		return
	}
	out := make([]matchSummary, 0, len(list))
	for _, p := range list {
		out = append(out, matchSummary{
			Version:   p.Version,
			Algorithm: p.Algorithm,
			Status:    p.Status,
			CreatedAt: p.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
			Groups:    len(p.Groups),
			Metrics:   p.Metrics,
		})
	}
	s.respond(w, http.StatusOK, out)
}

type issueReport struct {
	Version    int                    `json:"version"`
	Validation match.ValidationReport `json:"validation"`
	Issues     []optimize.Issue       `json:"issues"`
}

// handleIssues reports structural validation plus optimizer-style issues for
// a stored version.
func (s *Server) handleIssues(w http.ResponseWriter, r *http.Request) {
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
	report := issueReport{
		Version:    p.Version,
		Validation: match.Validate(p.Groups),
		Issues: optimize.Inventory(model.AlgorithmResult{
			EventID: eventID,
			Groups:  p.Groups,
			Metrics: p.Metrics,
		}),
	}
	if report.Issues == nil {
		report.Issues = []optimize.Issue{}
	}
	s.respond(w, http.StatusOK, report)
}

// handleFinalize marks the version finalized and announces it so the plan
// generator downstream can build itineraries.
func (s *Server) handleFinalize(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")
	version, err := s.versionParam(r, eventID)
	if err != nil {
		s.fail(w, err)
		return
	}
	if _, err := s.store.Proposal(r.Context(), eventID, version); err != nil {
		s.fail(w, err)
		return
	}
	if err := s.store.SetProposalStatus(r.Context(), eventID, version, model.ProposalFinalized); err != nil {
		s.fail(w, err)
		return
	}
	if err := s.store.SetMatchingStatus(r.Context(), eventID, model.MatchingFinalized); err != nil {
		s.fail(w, err)
		return
	}
	if err := s.notifier.PublishProposalFinalized(eventID, version); err != nil {
		s.log.Warnf("publish finalize: %v", err)
	}
	s.respond(w, http.StatusOK, map[string]any{"version": version, "status": model.ProposalFinalized})
}

// handleUnrelease reverts a finalized version to proposed. Downstream plans
// are deleted by the consumer of the unreleased notification.
func (s *Server) handleUnrelease(w http.ResponseWriter, r *http.Request) {
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
	if p.Status != model.ProposalFinalized {
		s.respondError(w, http.StatusConflict, "version is not finalized")
		return
	}
	if err := s.store.SetProposalStatus(r.Context(), eventID, version, model.ProposalProposed); err != nil {
		s.fail(w, err)
		return
	}
	if err := s.store.SetMatchingStatus(r.Context(), eventID, model.MatchingProposed); err != nil {
		s.fail(w, err)
		return
	}
	if err := s.notifier.PublishProposalUnreleased(eventID, version); err != nil {
		s.log.Warnf("publish unrelease: %v", err)
	}
	s.respond(w, http.StatusOK, map[string]any{"version": version, "status": model.ProposalProposed})
}
