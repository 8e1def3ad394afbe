// Package vrpsolve is the external entry point described in spec.md §6:
// Solve takes validated ProblemData plus Options and runs the ILS driver
// to termination, returning the best solution found and run statistics.
package vrpsolve

import (
	"github.com/pkg/errors"

	"github.com/aryanbinazir/vrpsolve/internal/ils"
	"github.com/aryanbinazir/vrpsolve/internal/localsearch"
	"github.com/aryanbinazir/vrpsolve/internal/neighbourhood"
	"github.com/aryanbinazir/vrpsolve/internal/penalty"
	"github.com/aryanbinazir/vrpsolve/internal/perturbation"
	"github.com/aryanbinazir/vrpsolve/internal/rng"
	"github.com/aryanbinazir/vrpsolve/internal/searchstate"
	"github.com/aryanbinazir/vrpsolve/internal/vrpcore"
)

// Options configures one solve, matching §6's input contract.
type Options struct {
	Seed              uint64
	MaxIterations     int
	MaxRuntimeSeconds float64
	StopFn            ils.StopFn
	NowFn             func() float64 // required when MaxRuntimeSeconds > 0 and StopFn is absent

	NeighbourhoodK    int
	PenaltyParams     penalty.Params
	ILSParams         ils.Params
	MinPerturbations  int
	MaxPerturbations  int
}

// SolveResult is §6's output contract.
type SolveResult struct {
	BestSolution *vrpcore.Solution
	Stats        ils.Stats
}

// Solve runs one complete ILS search against problem and returns the
// best solution found. problemData is assumed pre-validated by the
// caller except for the cheap structural checks Validate performs here
// as a final guard.
func Solve(problemData *vrpcore.ProblemData, opts Options) (SolveResult, error) {
	if err := problemData.Validate(); err != nil {
		return SolveResult{}, errors.Wrap(err, "vrpsolve: invalid problem data")
	}

	stop := opts.StopFn
	if stop == nil {
		stop = synthesizeStopFn(opts)
		if stop == nil {
			return SolveResult{}, errors.New("vrpsolve: at least one of stop_fn, max_iterations, max_runtime_seconds must be set")
		}
	}

	penaltyParams := opts.PenaltyParams
	if penaltyParams == (penalty.Params{}) {
		penaltyParams = penalty.DefaultParams()
	}
	pm, err := penalty.New(problemData.NumLoadDimensions, penaltyParams)
	if err != nil {
		return SolveResult{}, errors.Wrap(err, "vrpsolve: invalid penalty params")
	}
	pm.InitFrom(problemData)

	ilsParams := opts.ILSParams
	if ilsParams == (ils.Params{}) {
		ilsParams = ils.DefaultParams()
	}

	minPert, maxPert := opts.MinPerturbations, opts.MaxPerturbations
	if minPert <= 0 {
		minPert = perturbation.DefaultMin
	}
	if maxPert <= 0 {
		maxPert = perturbation.DefaultMax
	}

	r := rng.New(opts.Seed)
	ss := neighbourhood.Build(problemData, opts.NeighbourhoodK)
	perturb := perturbation.New(minPert, maxPert)
	ls := localsearch.New(problemData, ss, perturb, r)

	driver, err := ils.New(problemData, ls, pm, ilsParams)
	if err != nil {
		return SolveResult{}, errors.Wrap(err, "vrpsolve: invalid ils params")
	}

	initial := emptySolution(problemData, pm)
	best, stats := driver.Run(initial, stop)

	return SolveResult{BestSolution: best, Stats: stats}, nil
}

// emptySolution builds the starting point for a solve: every required
// client unassigned, no routes active, matching §7's "if no improving
// solution was ever found, best is the initial solution" guarantee --
// LocalSearch's first applyOptionalClientMoves pass inserts required
// clients on its very first sweep.
func emptySolution(problem *vrpcore.ProblemData, pm *penalty.Manager) *vrpcore.Solution {
	view := searchstate.NewSolution(problem)
	return view.Unload(pm.CostEvaluator())
}

// synthesizeStopFn builds a composite stop predicate from the scalar
// limits in Options when the caller did not supply one directly.
func synthesizeStopFn(opts Options) ils.StopFn {
	var fns []ils.StopFn
	if opts.MaxIterations > 0 {
		fns = append(fns, ils.MaxIterations(opts.MaxIterations))
	}
	if opts.MaxRuntimeSeconds > 0 && opts.NowFn != nil {
		fns = append(fns, ils.MaxRuntime(opts.MaxRuntimeSeconds, opts.NowFn))
	}
	if len(fns) == 0 {
		return nil
	}
	if len(fns) == 1 {
		return fns[0]
	}
	return ils.MultipleCriteria(fns...)
}
