package match

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/dinehop/dinehop/core/logger"
	"github.com/dinehop/dinehop/core/model"
	"github.com/dinehop/dinehop/core/routing"
)

// Algorithm names understood by the runner.
const (
	AlgorithmGreedy      = "greedy"
	AlgorithmRandom      = "random"
	AlgorithmLocalSearch = "local_search"
)

// RunInput bundles everything an algorithm needs for one full 3-phase run.
type RunInput struct {
	Event      model.Event
	Units      []model.Unit
	UnitEmails map[string][]string
	Weights    model.Weights
}

// Algorithm produces a complete proposal from a unit set. Implementations
// share the phase-grouping primitive and differ only in unit ordering.
type Algorithm interface {
	Name() string
	Run(ctx context.Context, in RunInput) (model.AlgorithmResult, error)
}

// ProgressFunc reports run progress in [0,1] with a short message.
type ProgressFunc func(fraction float64, message string)

// Engine executes matching algorithms against a travel-time resolver. A
// fixed Seed makes runs reproducible; zero seed keeps them reproducible too,
// just with the default sequence.
type Engine struct {
	Resolver routing.Resolver
	Log      logger.Logger
	Seed     int64
}

func (e *Engine) rng() *rand.Rand {
	return rand.New(rand.NewSource(e.Seed))
}

func (e *Engine) algorithm(name string) (Algorithm, error) {
	switch name {
	case AlgorithmGreedy:
		return greedyAlgorithm{engine: e}, nil
	case AlgorithmRandom:
		return randomAlgorithm{engine: e}, nil
	case AlgorithmLocalSearch:
		// Placeholder for iterative improvement; shares the greedy contract.
		return localSearchAlgorithm{greedy: greedyAlgorithm{engine: e}}, nil
	default:
		return nil, fmt.Errorf("unknown algorithm %q", name)
	}
}

// RunAlgorithms executes the requested algorithms and tags each result with
// the event id. Progress is reported once per algorithm when pf is non-nil.
func (e *Engine) RunAlgorithms(ctx context.Context, in RunInput, names []string, pf ProgressFunc) ([]model.AlgorithmResult, error) {
	if len(names) == 0 {
		names = []string{AlgorithmGreedy}
	}
	results := make([]model.AlgorithmResult, 0, len(names))
	for i, name := range names {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		algo, err := e.algorithm(name)
		if err != nil {
			return results, err
		}
		if pf != nil {
			pf(float64(i)/float64(len(names)), fmt.Sprintf("running %s", name))
		}
		res, err := algo.Run(ctx, in)
		if err != nil {
			return results, fmt.Errorf("algorithm %s: %w", name, err)
		}
		res.EventID = in.Event.ID
		results = append(results, res)
		if pf != nil {
			pf(float64(i+1)/float64(len(names)), fmt.Sprintf("finished %s", name))
		}
	}
	return results, nil
}

// runPhases executes the shared phase loop over the given ordering strategy.
// reorder is called before each phase with the phase index and the current
// pool; it returns the pool ordering for that phase.
func (e *Engine) runPhases(ctx context.Context, in RunInput, reorder func(phase int, pool []model.Unit) []model.Unit) (model.AlgorithmResult, error) {
	phases := in.Event.Phases()
	st := newRunState(in.Units, in.Event.AfterParty)
	var groups []model.Group
	unmatched := make(map[string]model.Unit)

	pool := append([]model.Unit(nil), in.Units...)
	for i, phase := range phases {
		pool = reorder(i, pool)
		si := scoreInput{
			event:    in.Event,
			phase:    phase,
			lastLeg:  i == len(phases)-1,
			weights:  in.Weights,
			resolver: e.Resolver,
		}
		formed, leftover, err := phaseGroups(ctx, si, st, pool)
		if err != nil {
			return model.AlgorithmResult{}, err
		}
		groups = append(groups, formed...)
		for _, u := range leftover {
			unmatched[u.ID] = u
		}
	}

	res := model.AlgorithmResult{
		Groups:  groups,
		Metrics: ComputeMetrics(groups, in.Units, in.UnitEmails, unmatchedList(unmatched)),
	}
	return res, nil
}

func unmatchedList(m map[string]model.Unit) []model.UnmatchedUnit {
	if len(m) == 0 {
		return nil
	}
	out := make([]model.UnmatchedUnit, 0, len(m))
	for _, u := range m {
		out = append(out, model.UnmatchedUnit{TeamID: u.ID, Size: u.Size})
	}
	sortUnmatched(out)
	return out
}

func sortUnmatched(out []model.UnmatchedUnit) {
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].TeamID < out[j-1].TeamID; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
}

// greedyAlgorithm shuffles the units once (seeded) and rotates the ordering
// by one position between phases to diversify host selection.
type greedyAlgorithm struct {
	engine *Engine
}

func (a greedyAlgorithm) Name() string { return AlgorithmGreedy }

func (a greedyAlgorithm) Run(ctx context.Context, in RunInput) (model.AlgorithmResult, error) {
	rng := a.engine.rng()
	res, err := a.engine.runPhases(ctx, in, func(phase int, pool []model.Unit) []model.Unit {
		if phase == 0 {
			shuffled := append([]model.Unit(nil), pool...)
			rng.Shuffle(len(shuffled), func(i, j int) {
				shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
			})
			return shuffled
		}
		return rotate(pool, 1)
	})
	res.Algorithm = a.Name()
	return res, err
}

// randomAlgorithm reshuffles the pool independently before every phase.
type randomAlgorithm struct {
	engine *Engine
}

func (a randomAlgorithm) Name() string { return AlgorithmRandom }

func (a randomAlgorithm) Run(ctx context.Context, in RunInput) (model.AlgorithmResult, error) {
	rng := a.engine.rng()
	res, err := a.engine.runPhases(ctx, in, func(_ int, pool []model.Unit) []model.Unit {
		shuffled := append([]model.Unit(nil), pool...)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		return shuffled
	})
	res.Algorithm = a.Name()
	return res, err
}

// localSearchAlgorithm currently delegates to greedy. The contract allows a
// true iterative-improvement implementation behind the same return shape.
type localSearchAlgorithm struct {
	greedy greedyAlgorithm
}

func (a localSearchAlgorithm) Name() string { return AlgorithmLocalSearch }

func (a localSearchAlgorithm) Run(ctx context.Context, in RunInput) (model.AlgorithmResult, error) {
	res, err := a.greedy.Run(ctx, in)
	res.Algorithm = a.Name()
	return res, err
}

func rotate(units []model.Unit, n int) []model.Unit {
	if len(units) == 0 {
		return units
	}
	n = n % len(units)
	out := make([]model.Unit, 0, len(units))
	out = append(out, units[n:]...)
	out = append(out, units[:n]...)
	return out
}
