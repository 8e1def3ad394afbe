// Package ils implements the ILS driver of spec.md §4.8: Iterated Local
// Search with Late-Acceptance Hill-Climbing (LAHC), wrapping LocalSearch
// and PenaltyManager behind a single Run loop that a stop predicate
// terminates.
package ils

import (
	"github.com/aryanbinazir/vrpsolve/internal/costeval"
	"github.com/aryanbinazir/vrpsolve/internal/localsearch"
	"github.com/aryanbinazir/vrpsolve/internal/penalty"
	"github.com/aryanbinazir/vrpsolve/internal/vrpcore"
)

// Params configures the driver. New does not fill in zero fields: it
// rejects non-positive values. Solve substitutes DefaultParams when it is
// given an all-zero Params.
type Params struct {
	HistorySize      int
	MaxNoImprovement int
}

// DefaultParams matches §4.8's constructor defaults.
func DefaultParams() Params {
	return Params{HistorySize: 500, MaxNoImprovement: 50_000}
}

// Stats mirrors §6's output contract.
type Stats struct {
	NumIterations int
	Improvements  int
	Restarts      int
	InitialCost   vrpcore.Cost
	FinalCost     vrpcore.Cost
}

// Driver owns current/best, the LAHC history, and the components that do
// the actual work each iteration.
type Driver struct {
	problem *vrpcore.ProblemData
	params  Params
	ls      *localsearch.LocalSearch
	penalty *penalty.Manager

	history *RingBuffer

	current    *vrpcore.Solution
	currentPen vrpcore.Cost
	best       *vrpcore.Solution
	bestObj    vrpcore.Cost

	noImprove int
	stats     Stats
}

type configError string

func (e configError) Error() string { return string(e) }

// New validates params (§7: configuration errors are rejected at
// construction) and builds a Driver.
func New(problem *vrpcore.ProblemData, ls *localsearch.LocalSearch, pm *penalty.Manager, params Params) (*Driver, error) {
	if params.HistorySize <= 0 {
		return nil, configError("ils: history_size must be positive")
	}
	if params.MaxNoImprovement <= 0 {
		return nil, configError("ils: max_no_improvement must be positive")
	}
	return &Driver{
		problem: problem,
		params:  params,
		ls:      ls,
		penalty: pm,
		history: NewRingBuffer(params.HistorySize),
	}, nil
}

// Run executes §4.8's algorithm until stop returns true, starting from
// initial, and returns the best solution found plus run statistics.
func (d *Driver) Run(initial *vrpcore.Solution, stop StopFn) (*vrpcore.Solution, Stats) {
	ceval := d.penalty.CostEvaluator()

	d.current = initial
	d.currentPen = d.penalisedCost(ceval, initial)
	d.best = initial
	d.bestObj = d.feasibleCost(ceval, initial)
	d.stats = Stats{InitialCost: d.bestObj}
	d.history.Clear()
	d.noImprove = 0

	for {
		d.stats.NumIterations++

		if d.noImprove >= d.params.MaxNoImprovement {
			d.current = d.best
			d.currentPen = d.penalisedCost(ceval, d.best)
			d.history.Clear()
			d.noImprove = 0
			d.stats.Restarts++
		}

		candidate := d.ls.Operator(d.current, ceval, false)
		candPen := d.penalisedCost(ceval, candidate)
		candObj := d.feasibleCost(ceval, candidate)

		d.noImprove++
		if candObj < d.bestObj {
			d.best = candidate
			d.bestObj = candObj
			d.noImprove = 0
			d.stats.Improvements++
		}

		late := d.history.Peek()
		lateCost := d.bestObj
		if late != nil {
			lateCost = d.penalisedCost(ceval, late)
		}

		if candPen < lateCost || candPen < d.currentPen {
			d.current = candidate
			d.currentPen = candPen
		}

		if d.currentPen < lateCost || late == nil {
			d.history.Append(d.current)
		} else {
			d.history.Skip()
		}

		if d.penalty.Register(candidate) {
			ceval = d.penalty.CostEvaluator()
		}

		if stop(d.bestObj) {
			break
		}
	}

	d.stats.FinalCost = d.bestObj
	return d.best, d.stats
}

// penalisedCost prices every route at its current penalty weight plus a
// fixed penalty for any required client left unassigned -- the §4.1
// formula extended from one route to a whole solution.
func (d *Driver) penalisedCost(ceval costeval.Evaluator, sol *vrpcore.Solution) vrpcore.Cost {
	var total vrpcore.Cost
	for _, rr := range sol.Routes {
		total += ceval.PenalisedCost(d.routeAggregates(rr))
	}
	for _, u := range sol.Unassigned {
		loc := d.problem.Locations[u]
		if loc.Required {
			total += costeval.UnvisitedPenalty(loc.Prize)
		}
	}
	return total
}

// feasibleCost is §4.1's Cost: +Inf if any route is infeasible or a
// required client is unassigned, the penalised cost otherwise.
func (d *Driver) feasibleCost(ceval costeval.Evaluator, sol *vrpcore.Solution) vrpcore.Cost {
	if !sol.IsFeasible() {
		return costeval.Infinite
	}
	for _, u := range sol.Unassigned {
		if d.problem.Locations[u].Required {
			return costeval.Infinite
		}
	}
	return d.penalisedCost(ceval, sol)
}

func (d *Driver) routeAggregates(rr vrpcore.RouteResult) costeval.RouteAggregates {
	typeIdx, _ := d.problem.VehicleTypeIndexOf(rr.VehicleIdx)
	vt := d.problem.VehicleTypes[typeIdx]

	var prize vrpcore.Cost
	for _, t := range rr.Trips {
		for _, c := range t.Clients {
			prize += d.problem.Locations[c].Prize
		}
	}

	return costeval.RouteAggregates{
		FixedCost:        vt.FixedCost,
		Distance:         rr.Distance,
		Duration:         rr.Duration,
		Overtime:         rr.Overtime,
		UnitDistanceCost: vt.UnitDistanceCost,
		UnitDurationCost: vt.UnitDurationCost,
		UnitOvertimeCost: vt.UnitOvertimeCost,
		ExcessLoad:       rr.ExcessLoad,
		TimeWarp:         rr.TimeWarp,
		ExcessDistance:   rr.ExcessDistance,
		PrizeCollected:   prize,
	}
}
