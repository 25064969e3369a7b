// Package api exposes the matching engine over HTTP. Handlers are thin: they
// translate requests into store and engine calls and report structured
// warnings instead of failing on improvable input.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dinehop/dinehop/core/jobs"
	"github.com/dinehop/dinehop/core/logger"
	"github.com/dinehop/dinehop/core/model"
	"github.com/dinehop/dinehop/core/notify"
	"github.com/dinehop/dinehop/core/store"
	"github.com/dinehop/dinehop/infra/geocode"
)

// OptimizeSettings bounds the optimizer endpoint.
type OptimizeSettings struct {
	MaxAttempts int
	Parallel    bool
}

// Server holds the handler dependencies.
type Server struct {
	store    store.Store
	registry *jobs.Registry
	resolver jobs.ResolverFactory
	geocoder geocode.Geocoder
	notifier notify.Publisher
	weights  model.Weights
	optimize OptimizeSettings
	seed     int64
	log      logger.Logger
}

// NewServer builds a Server. geocoder and notifier may be nil.
func NewServer(st store.Store, reg *jobs.Registry, rf jobs.ResolverFactory, g geocode.Geocoder, n notify.Publisher, weights model.Weights, opt OptimizeSettings, seed int64, log logger.Logger) *Server {
	if n == nil {
		n = notify.NopPublisher{}
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if opt.MaxAttempts == 0 {
		opt.MaxAttempts = 3
	}
	return &Server{
		store:    st,
		registry: reg,
		resolver: rf,
		geocoder: g,
		notifier: n,
		weights:  weights,
		optimize: opt,
		seed:     seed,
		log:      log,
	}
}

// Routes wires every endpoint onto a fresh mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("PUT /events/{id}", s.handlePutEvent)
	mux.HandleFunc("GET /events/{id}", s.handleGetEvent)
	mux.HandleFunc("PUT /events/{id}/teams", s.handlePutTeams)

	mux.HandleFunc("POST /events/{id}/start", s.handleStart)
	mux.HandleFunc("GET /events/{id}/jobs", s.handleListJobs)
	mux.HandleFunc("GET /events/{id}/jobs/{jobID}", s.handleGetJob)
	mux.HandleFunc("DELETE /events/{id}/jobs/{jobID}", s.handleCancelJob)

	mux.HandleFunc("GET /events/{id}/matches", s.handleMatches)
	mux.HandleFunc("GET /events/{id}/issues", s.handleIssues)
	mux.HandleFunc("POST /events/{id}/finalize", s.handleFinalize)
	mux.HandleFunc("POST /events/{id}/unrelease", s.handleUnrelease)

	mux.HandleFunc("POST /events/{id}/move", s.handleMove)
	mux.HandleFunc("POST /events/{id}/validate", s.handleValidate)
	mux.HandleFunc("POST /events/{id}/set_groups", s.handleSetGroups)
	mux.HandleFunc("POST /events/{id}/preview", s.handlePreview)
	mux.HandleFunc("POST /events/{id}/recompute", s.handleRecompute)

	mux.HandleFunc("POST /events/{id}/optimize", s.handleOptimize)

	mux.HandleFunc("GET /events/{id}/paths", s.handlePaths)
	mux.HandleFunc("GET /events/{id}/paths/geometry", s.handlePathGeometry)

	mux.HandleFunc("GET /events/{id}/constraints", s.handleGetConstraints)
	mux.HandleFunc("PUT /events/{id}/constraints/pairs", s.handlePutPair)
	mux.HandleFunc("DELETE /events/{id}/constraints/pairs", s.handleDeletePair)
	mux.HandleFunc("PUT /events/{id}/constraints/splits/{teamID}", s.handlePutSplit)
	mux.HandleFunc("DELETE /events/{id}/constraints/splits/{teamID}", s.handleDeleteSplit)

	return mux
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorEnvelope struct {
	Error string `json:"error"`
}

func (s *Server) respond(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Errorf("encode response: %v", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, msg string) {
	s.respond(w, status, errorEnvelope{Error: msg})
}

// fail maps sentinel errors onto HTTP statuses.
func (s *Server) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrFinalized), errors.Is(err, store.ErrConflict),
		errors.Is(err, jobs.ErrEventFinalized):
		s.respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, jobs.ErrNoUnits):
		s.respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, errBadVersion):
		s.respondError(w, http.StatusBadRequest, err.Error())
	default:
		s.log.Errorf("request failed: %v", err)
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// decode reads the JSON body into v. An empty body is accepted on endpoints
// where every field is optional.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	s.respondError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
	return false
}

// versionParam reads ?version= and falls back to the newest proposal.
func (s *Server) versionParam(r *http.Request, eventID string) (int, error) {
	raw := r.URL.Query().Get("version")
	if raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return 0, errBadVersion
		}
		return v, nil
	}
	list, err := s.store.Proposals(r.Context(), eventID)
	if err != nil {
		return 0, err
	}
	if len(list) == 0 {
		return 0, store.ErrNotFound
	}
	return list[0].Version, nil
}

var errBadVersion = errors.New("version must be a positive integer")
