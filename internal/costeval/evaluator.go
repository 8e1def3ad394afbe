// Package costeval turns a route's (or solution's) raw aggregates into a
// scalar Cost, the way §4.1 describes: a feasible route is priced at its
// real operating cost, an infeasible one at +Inf, and the
// penalised-but-finite variant used during search prices every violation
// at its current penalty weight instead.
package costeval

import "github.com/aryanbinazir/vrpsolve/internal/vrpcore"

// Infinite is the Cost returned for any infeasible route or solution by
// Cost (as opposed to PenalisedCost, which is always finite).
const Infinite = vrpcore.Cost(vrpcore.Unreachable)

// RouteAggregates is the minimal set of route-level quantities the
// evaluator needs; searchstate.Route and vrpcore.RouteResult both satisfy
// it by construction.
type RouteAggregates struct {
	FixedCost        vrpcore.Cost
	Distance         vrpcore.Distance
	Duration         vrpcore.Duration
	Overtime         vrpcore.Duration
	ReloadCost       vrpcore.Cost
	UnitDistanceCost vrpcore.Cost
	UnitDurationCost vrpcore.Cost
	UnitOvertimeCost vrpcore.Cost
	ExcessLoad       []vrpcore.Load
	TimeWarp         vrpcore.Duration
	ExcessDistance   vrpcore.Distance
	PrizeCollected   vrpcore.Cost
}

// Evaluator prices routes and solutions given the current penalty
// weights. Values are produced by PenaltyManager (internal/penalty); the
// zero value is a valid (all-zero-penalty) evaluator useful in tests.
type Evaluator struct {
	LoadPenalty []vrpcore.Cost // per load dimension
	TWPenalty   vrpcore.Cost
	DistPenalty vrpcore.Cost
}

// New builds an Evaluator from explicit penalty weights.
func New(loadPenalty []vrpcore.Cost, twPenalty, distPenalty vrpcore.Cost) Evaluator {
	return Evaluator{LoadPenalty: loadPenalty, TWPenalty: twPenalty, DistPenalty: distPenalty}
}

// PenalisedCost prices every violation at its current penalty weight, per
// the §4.1 formula. It never returns Infinite purely due to
// infeasibility — only real unit costs and penalty terms contribute.
func (e Evaluator) PenalisedCost(r RouteAggregates) vrpcore.Cost {
	cost := r.FixedCost
	cost += vrpcore.Cost(r.Distance) * r.UnitDistanceCost
	cost += vrpcore.Cost(r.Duration) * r.UnitDurationCost
	cost += vrpcore.Cost(r.Overtime) * r.UnitOvertimeCost
	cost += r.ReloadCost

	for d, excess := range r.ExcessLoad {
		if d < len(e.LoadPenalty) {
			cost += vrpcore.Cost(excess) * e.LoadPenalty[d]
		}
	}
	cost += vrpcore.Cost(r.TimeWarp) * e.TWPenalty
	cost += vrpcore.Cost(r.ExcessDistance) * e.DistPenalty
	cost -= r.PrizeCollected

	return cost
}

// Cost is PenalisedCost(r) if r has zero violations, else Infinite. This
// is the feasible-only objective used for the ILS driver's "best"
// tracking (§4.8 step 3).
func (e Evaluator) Cost(r RouteAggregates) vrpcore.Cost {
	if hasViolation(r) {
		return Infinite
	}
	return e.PenalisedCost(r)
}

func hasViolation(r RouteAggregates) bool {
	if r.TimeWarp != 0 || r.Overtime != 0 || r.ExcessDistance != 0 {
		return true
	}
	for _, excess := range r.ExcessLoad {
		if excess != 0 {
			return true
		}
	}
	return false
}

// UnvisitedPenalty prices a required client that ended up unassigned: a
// large constant if it has no prize (it must be visited, so any omission
// is heavily punished), else the forgone prize, matching §4.1's "penalty
// for unvisited required clients."
func UnvisitedPenalty(prize vrpcore.Cost) vrpcore.Cost {
	const largeConstant = vrpcore.Cost(1_000_000)
	if prize > 0 {
		return prize
	}
	return largeConstant
}
