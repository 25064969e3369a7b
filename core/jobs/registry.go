// Package jobs orchestrates asynchronous matching runs. A Registry owns the
// job documents and their cancel functions; at most one job per event is
// queued or running at a time.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dinehop/dinehop/core/logger"
	"github.com/dinehop/dinehop/core/match"
	"github.com/dinehop/dinehop/core/metrics"
	"github.com/dinehop/dinehop/core/model"
	"github.com/dinehop/dinehop/core/routing"
	"github.com/dinehop/dinehop/core/store"
	"github.com/dinehop/dinehop/internal/eventbus"
)

// ErrNoUnits means the event has no matchable teams.
var ErrNoUnits = errors.New("no matchable units")

// ErrEventFinalized rejects new runs on an event whose match is finalized.
var ErrEventFinalized = errors.New("event matching is finalized")

// ResolverFactory yields a travel-time resolver for one event. Fast-mode
// events get the pure math resolver; others the routing service wrapped in a
// cache.
type ResolverFactory func(ev model.Event) routing.Resolver

// EnqueueRequest describes one requested matching run.
type EnqueueRequest struct {
	EventID    string
	Algorithms []string
	Weights    model.Weights // zero fields fall back to the defaults
	DryRun     bool
}

// EnqueueResult reports the job occupying the event's slot. WasEnqueued is
// false when an active job already existed.
type EnqueueResult struct {
	Job         model.MatchingJob
	WasEnqueued bool
}

// Registry runs matching jobs in the background and tracks their lifecycle.
type Registry struct {
	store    store.Store
	bus      eventbus.EventBus
	sink     metrics.Sink
	resolver ResolverFactory
	log      logger.Logger

	// Seed makes runs reproducible across restarts.
	Seed int64

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	wg      sync.WaitGroup
}

// NewRegistry builds a Registry. bus and sink may be nil.
func NewRegistry(st store.Store, bus eventbus.EventBus, sink metrics.Sink, rf ResolverFactory, log logger.Logger) *Registry {
	if sink == nil {
		sink = metrics.NopSink{}
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Registry{
		store:    st,
		bus:      bus,
		sink:     sink,
		resolver: rf,
		log:      log,
		cancels:  make(map[string]context.CancelFunc),
	}
}

// Enqueue starts a matching run for the event unless one is already active,
// in which case the existing job is returned with WasEnqueued false.
func (r *Registry) Enqueue(ctx context.Context, req EnqueueRequest) (EnqueueResult, error) {
	ev, err := r.store.Event(ctx, req.EventID)
	if err != nil {
		return EnqueueResult{}, err
	}
	if ev.MatchingStatus == model.MatchingFinalized && !req.DryRun {
		return EnqueueResult{}, ErrEventFinalized
	}

	if existing, err := r.store.ActiveJob(ctx, req.EventID); err == nil {
		return EnqueueResult{Job: existing, WasEnqueued: false}, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return EnqueueResult{}, err
	}

	algos := req.Algorithms
	if len(algos) == 0 {
		algos = []string{match.AlgorithmGreedy}
	}
	now := time.Now().UTC()
	job := model.MatchingJob{
		ID:         uuid.NewString(),
		EventID:    req.EventID,
		Status:     model.JobQueued,
		Algorithms: algos,
		Weights:    model.DefaultWeights().Merge(req.Weights),
		DryRun:     req.DryRun,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := r.store.CreateJob(ctx, job); err != nil {
		return EnqueueResult{}, err
	}
	r.publishJob(job, "queued")

	prevStatus := ev.MatchingStatus
	if !req.DryRun {
		if err := r.store.SetMatchingStatus(ctx, ev.ID, model.MatchingInProgress); err != nil {
			r.log.Warnf("set matching status: %v", err)
		}
	}

	runCtx, cancel := context.WithCancel(context.Background())
	r.mu.Lock()
	r.cancels[job.ID] = cancel
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.release(job.ID)
		r.run(runCtx, job, ev, prevStatus)
	}()

	return EnqueueResult{Job: job, WasEnqueued: true}, nil
}

// Cancel requests cooperative cancellation of an active job.
func (r *Registry) Cancel(jobID string) error {
	r.mu.Lock()
	cancel, ok := r.cancels[jobID]
	r.mu.Unlock()
	if !ok {
		return store.ErrNotFound
	}
	cancel()
	return nil
}

// Shutdown cancels all active jobs and waits for their goroutines.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	for _, cancel := range r.cancels {
		cancel()
	}
	r.mu.Unlock()
	r.wg.Wait()
}

func (r *Registry) release(jobID string) {
	r.mu.Lock()
	if cancel, ok := r.cancels[jobID]; ok {
		cancel()
		delete(r.cancels, jobID)
	}
	r.mu.Unlock()
}

// run executes the job end to end. It never panics the process: every failure
// lands in the job document and rolls the event status back.
func (r *Registry) run(ctx context.Context, job model.MatchingJob, ev model.Event, prevStatus model.MatchingStatus) {
	started := time.Now()

	job.Status = model.JobRunning
	job.Message = "loading teams"
	r.saveJob(&job)
	r.publishJob(job, "running")

	results, err := r.execute(ctx, &job, ev)
	if err != nil {
		r.fail(&job, ev, prevStatus, err)
		return
	}

	var proposals []model.JobProposal
	for _, res := range results {
		jp := model.JobProposal{Algorithm: res.Algorithm}
		if job.DryRun {
			res := res
			jp.Result = &res
		} else {
			saved, err := store.SaveProposalRetry(context.Background(), r.store, model.Proposal{
				EventID:   ev.ID,
				Groups:    res.Groups,
				Metrics:   res.Metrics,
				Algorithm: res.Algorithm,
				Status:    model.ProposalProposed,
				CreatedAt: time.Now().UTC(),
			})
			if err != nil {
				r.fail(&job, ev, prevStatus, fmt.Errorf("save proposal: %w", err))
				return
			}
			jp.Version = saved.Version
			r.publishProposal(ev.ID, saved.Version, "created")
		}
		proposals = append(proposals, jp)

		r.record(metrics.RunRecord{
			EventID:        ev.ID,
			Algorithm:      res.Algorithm,
			Status:         "completed",
			Duration:       time.Since(started),
			MatchedUnits:   res.Metrics.MatchedUnits,
			UnmatchedUnits: len(res.Metrics.UnmatchedUnits),
			TotalScore:     res.Metrics.TotalScore,
		})
		scores := make([]float64, 0, len(res.Groups))
		for _, g := range res.Groups {
			scores = append(scores, g.Score)
		}
		if err := r.sink.RecordGroupScores(ev.ID, res.Algorithm, scores); err != nil {
			r.log.Warnf("record group scores: %v", err)
		}
	}

	if !job.DryRun {
		if err := r.store.SetMatchingStatus(context.Background(), ev.ID, model.MatchingProposed); err != nil {
			r.log.Warnf("set matching status: %v", err)
		}
	}

	job.Status = model.JobCompleted
	job.Progress = 1
	job.Message = "done"
	job.Proposals = proposals
	r.saveJob(&job)
	r.publishJob(job, "completed")
	r.log.Infof("job %s completed for event %s in %s", job.ID, ev.ID, time.Since(started))
}

// execute loads the pool and runs the requested algorithms.
func (r *Registry) execute(ctx context.Context, job *model.MatchingJob, ev model.Event) ([]model.AlgorithmResult, error) {
	teams, err := r.store.TeamsByEvent(ctx, ev.ID)
	if err != nil {
		return nil, fmt.Errorf("load teams: %w", err)
	}
	constraints, err := r.store.Constraints(ctx, ev.ID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("load constraints: %w", err)
	}

	units, emails := match.BuildPool(teams, constraints)
	if len(units) == 0 {
		return nil, ErrNoUnits
	}

	engine := &match.Engine{Resolver: r.resolver(ev), Log: r.log, Seed: r.Seed}
	in := match.RunInput{Event: ev, Units: units, UnitEmails: emails, Weights: job.Weights}
	return engine.RunAlgorithms(ctx, in, job.Algorithms, func(fraction float64, message string) {
		job.Progress = fraction
		job.Message = message
		r.saveJob(job)
	})
}

// fail records a failed or cancelled outcome and restores the event's
// pre-job matching status.
func (r *Registry) fail(job *model.MatchingJob, ev model.Event, prevStatus model.MatchingStatus, cause error) {
	transition := "failed"
	job.Status = model.JobFailed
	if errors.Is(cause, context.Canceled) {
		job.Status = model.JobCancelled
		transition = "cancelled"
	}
	job.Error = cause.Error()
	job.Message = ""
	r.saveJob(job)
	r.publishJob(*job, transition)

	if !job.DryRun {
		if err := r.store.SetMatchingStatus(context.Background(), ev.ID, prevStatus); err != nil {
			r.log.Warnf("restore matching status: %v", err)
		}
	}
	r.record(metrics.RunRecord{EventID: ev.ID, Algorithm: firstAlgorithm(job.Algorithms), Status: transition})
	r.log.Warnf("job %s %s: %v", job.ID, transition, cause)
}

func (r *Registry) saveJob(job *model.MatchingJob) {
	job.UpdatedAt = time.Now().UTC()
	if err := r.store.UpdateJob(context.Background(), *job); err != nil {
		r.log.Warnf("update job %s: %v", job.ID, err)
	}
}

func (r *Registry) publishJob(job model.MatchingJob, transition string) {
	if r.bus == nil {
		return
	}
	r.bus.Publish(eventbus.JobEvent{Job: job, Transition: transition})
}

func (r *Registry) publishProposal(eventID string, version int, action string) {
	if r.bus == nil {
		return
	}
	r.bus.Publish(eventbus.ProposalEvent{EventID: eventID, Version: version, Action: action})
}

func (r *Registry) record(rec metrics.RunRecord) {
	if err := r.sink.RecordRun(rec); err != nil {
		r.log.Warnf("record run: %v", err)
	}
}

func firstAlgorithm(names []string) string {
	if len(names) == 0 {
		return match.AlgorithmGreedy
	}
	return names[0]
}
