package api

import (
	"net/http"

	"github.com/dinehop/dinehop/core/jobs"
	"github.com/dinehop/dinehop/core/model"
)

type startRequest struct {
	Algorithms []string      `json:"algorithms"`
	Weights    model.Weights `json:"weights"`
	DryRun     bool          `json:"dry_run"`
}

type startResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	PollURL string `json:"poll_url"`
}

// handleStart enqueues a matching job. A newly started job answers 202; an
// already active one answers 200 with the existing job id.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")
	var req startRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.registry.Enqueue(r.Context(), jobs.EnqueueRequest{
		EventID:    eventID,
		Algorithms: req.Algorithms,
		Weights:    s.weights.Merge(req.Weights),
		DryRun:     req.DryRun,
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	status := http.StatusOK
	if res.WasEnqueued {
		status = http.StatusAccepted
	}
	s.respond(w, status, startResponse{
		JobID:   res.Job.ID,
		Status:  string(res.Job.Status),
		PollURL: "/events/" + eventID + "/jobs/" + res.Job.ID,
	})
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.JobsByEvent(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, list)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.store.Job(r.Context(), r.PathValue("jobID"))
	if err != nil {
		s.fail(w, err)
		return
	}
	if job.EventID != r.PathValue("id") {
		s.respondError(w, http.StatusNotFound, "job does not belong to this event")
		return
	}
	s.respond(w, http.StatusOK, job)
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("jobID")
	if err := s.registry.Cancel(jobID); err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusAccepted, map[string]string{"job_id": jobID, "status": "cancelling"})
}
