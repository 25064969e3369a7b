// Package optimize reruns the matching engine with varied pairing thresholds
// and orderings, trying to improve an existing proposal. It never makes a
// result worse: ties and regressions keep the original.
package optimize

import (
	"context"
	"fmt"
	"sync"

	"github.com/dinehop/dinehop/core/logger"
	"github.com/dinehop/dinehop/core/match"
	"github.com/dinehop/dinehop/core/model"
	"github.com/dinehop/dinehop/core/routing"
)

// Issue is one concrete quality problem found in a proposal.
type Issue struct {
	Kind   string `json:"kind"`
	UnitID string `json:"unit_id,omitempty"`
	Phase  string `json:"phase,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// Issue kinds.
const (
	IssueUnmatched          = "unmatched_unit"
	IssueHostReuse          = "host_reuse"
	IssueAllergyUncovered   = "allergy_uncovered"
	IssueDietConflict       = "diet_conflict"
	IssueCapabilityMismatch = "capability_mismatch"
)

var warningIssues = map[model.Warning]string{
	model.WarnHostReuse:       IssueHostReuse,
	model.WarnAllergyUnserved: IssueAllergyUncovered,
	model.WarnDietConflict:    IssueDietConflict,
	model.WarnHostCannotMain:  IssueCapabilityMismatch,
	model.WarnHostNoKitchen:   IssueCapabilityMismatch,
}

// Inventory lists the issues present in a result. An empty inventory means
// there is nothing left to optimize.
func Inventory(res model.AlgorithmResult) []Issue {
	var issues []Issue
	for _, u := range res.Metrics.UnmatchedUnits {
		issues = append(issues, Issue{
			Kind:   IssueUnmatched,
			UnitID: u.TeamID,
			Detail: fmt.Sprintf("unit of size %d left without a group", u.Size),
		})
	}
	for _, g := range res.Groups {
		for _, w := range g.Warnings {
			kind, ok := warningIssues[w]
			if !ok {
				continue
			}
			issues = append(issues, Issue{
				Kind:   kind,
				UnitID: g.HostUnitID,
				Phase:  string(g.Phase),
				Detail: string(w),
			})
		}
	}
	return issues
}

// Input carries everything one optimization pass needs.
type Input struct {
	Event       model.Event
	Teams       []model.Team
	Constraints model.Constraints
	Initial     model.AlgorithmResult
	Weights     model.Weights
	MaxAttempts int
	// Parallel runs all attempts concurrently with join-all semantics; a
	// failing attempt never poisons its siblings. Sequential mode exits
	// early once an attempt has zero issues.
	Parallel bool
}

// Result reports the chosen proposal and whether it differs from the input.
type Result struct {
	Best      model.AlgorithmResult
	Improved  bool
	Attempts  int
	Remaining []Issue
}

// Optimizer drives repeated engine runs.
type Optimizer struct {
	Resolver routing.Resolver
	Log      logger.Logger
	Seed     int64
}

// attempt parameters cycle through pairing thresholds and alternate the
// ordering strategy, so consecutive attempts explore different shapes.
func attemptParams(i int) (match.PairThreshold, string) {
	thresholds := []match.PairThreshold{match.ThresholdStrict, match.ThresholdLenient, match.ThresholdNone}
	algo := match.AlgorithmGreedy
	if i%2 == 1 {
		algo = match.AlgorithmRandom
	}
	return thresholds[i%len(thresholds)], algo
}

// Optimize returns the best result among the original and up to MaxAttempts
// reruns. The original wins all ties.
func (o *Optimizer) Optimize(ctx context.Context, in Input) (Result, error) {
	log := o.Log
	if log == nil {
		log = logger.NopLogger{}
	}
	issues := Inventory(in.Initial)
	if len(issues) == 0 {
		return Result{Best: in.Initial, Remaining: nil}, nil
	}
	attempts := in.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}

	best := in.Initial
	bestQ := quality(in.Initial)
	improved := false
	ran := 0

	consider := func(res model.AlgorithmResult) {
		if q := quality(res); q > bestQ {
			best = res
			bestQ = q
			improved = true
		}
	}

	if in.Parallel {
		results := make([]*model.AlgorithmResult, attempts)
		var wg sync.WaitGroup
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				res, err := o.runAttempt(ctx, in, i)
				if err != nil {
					log.Warnf("optimize attempt %d: %v", i, err)
					return
				}
				results[i] = &res
			}(i)
		}
		wg.Wait()
		for _, res := range results {
			if res == nil {
				continue
			}
			ran++
			consider(*res)
		}
	} else {
		for i := 0; i < attempts; i++ {
			if err := ctx.Err(); err != nil {
				return Result{}, err
			}
			res, err := o.runAttempt(ctx, in, i)
			if err != nil {
				log.Warnf("optimize attempt %d: %v", i, err)
				continue
			}
			ran++
			consider(res)
			if len(Inventory(res)) == 0 {
				break
			}
		}
	}

	return Result{
		Best:      best,
		Improved:  improved,
		Attempts:  ran,
		Remaining: Inventory(best),
	}, nil
}

// runAttempt rebuilds the pool with the attempt's pairing threshold and runs
// a single algorithm over it.
func (o *Optimizer) runAttempt(ctx context.Context, in Input, i int) (model.AlgorithmResult, error) {
	threshold, algo := attemptParams(i)

	units, _ := match.BuildUnits(in.Teams)
	units = match.ApplyForcedPairs(units, in.Constraints.ForcedPairs)
	units = match.ApplyRequiredSplits(units, in.Teams, in.Constraints.SplitTeamIDs)
	units = match.AutoPairSolos(units, threshold)
	units = match.ApplyMinimalSplits(units, in.Teams)

	engine := &match.Engine{Resolver: o.Resolver, Log: o.Log, Seed: o.Seed + int64(i) + 1}
	results, err := engine.RunAlgorithms(ctx, match.RunInput{
		Event:      in.Event,
		Units:      units,
		UnitEmails: match.UnitEmails(units),
		Weights:    in.Weights,
	}, []string{algo}, nil)
	if err != nil {
		return model.AlgorithmResult{}, err
	}
	return results[0], nil
}

// quality folds a result into one comparable number: the aggregate score
// minus heavy penalties for unmatched units and warnings, plus a coverage
// bonus.
func quality(res model.AlgorithmResult) float64 {
	q := res.Metrics.TotalScore
	q -= 500 * float64(len(res.Metrics.UnmatchedUnits))
	for _, n := range res.Metrics.WarningCounts {
		q -= 25 * float64(n)
	}
	q += 200 * res.Metrics.CompletionRatio()
	return q
}
