package model

import "time"

// JobStatus is the lifecycle state of a matching job.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

// Active reports whether the status still occupies the per-event job slot.
func (s JobStatus) Active() bool {
	return s == JobQueued || s == JobRunning
}

// JobProposal records the outcome of one algorithm within a job. Version is
// zero for dry runs; Result then carries the unsaved preview.
type JobProposal struct {
	Algorithm string           `json:"algorithm"`
	Version   int              `json:"version,omitempty"`
	Result    *AlgorithmResult `json:"result,omitempty"`
}

// MatchingJob is the mutable document describing one asynchronous matching
// run. At most one job per event may be queued or running at a time.
type MatchingJob struct {
	ID         string        `json:"id"`
	EventID    string        `json:"event_id"`
	Status     JobStatus     `json:"status"`
	Progress   float64       `json:"progress"`
	Message    string        `json:"message,omitempty"`
	Algorithms []string      `json:"algorithms"`
	Weights    Weights       `json:"weights"`
	DryRun     bool          `json:"dry_run"`
	Proposals  []JobProposal `json:"proposals,omitempty"`
	Error      string        `json:"error,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// AlgorithmResult is the full output of a single algorithm run.
type AlgorithmResult struct {
	EventID   string  `json:"event_id"`
	Algorithm string  `json:"algorithm"`
	Groups    []Group `json:"groups"`
	Metrics   Metrics `json:"metrics"`
}
