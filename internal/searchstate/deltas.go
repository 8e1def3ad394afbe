package searchstate

import (
	"github.com/aryanbinazir/vrpsolve/internal/costeval"
	"github.com/aryanbinazir/vrpsolve/internal/segment"
	"github.com/aryanbinazir/vrpsolve/internal/vrpcore"
)

// This file implements the three primitive cost deltas of spec.md §4.3.
// Each is exact by construction: it merges the same cached prefix/suffix
// segments Route.Update would, without mutating the route, so that
// applying the corresponding mutation and calling Update again reproduces
// exactly old_cost+delta. That equality is the assertion §4.3 requires in
// debug builds; the package tests check it (assertExactDelta in
// route_test.go).

// loadAt and durAt return the load/duration segment anchored at position
// pos, finalised (as at a reload depot boundary) when pos itself is a
// reload depot — matching how Route.Update finalises the running segment
// immediately after visiting a reload depot, before merging forward.
func loadAt(route *Route, pos, dim int, capacity vrpcore.Load) segment.Load {
	l := route.PrefixLoad(pos, dim)
	if route.At(pos).Kind == ReloadDepot {
		l = l.Finalise(capacity)
	}
	return l
}

func durAt(route *Route, pos int) segment.Duration {
	d := route.PrefixDuration(pos)
	if route.At(pos).Kind == ReloadDepot {
		d = d.FinaliseBack()
	}
	return d
}

func routePrize(route *Route, problem *vrpcore.ProblemData) vrpcore.Cost {
	var total vrpcore.Cost
	for _, n := range route.Nodes() {
		if n.Kind == ClientNode {
			total += problem.Locations[n.Loc].Prize
		}
	}
	return total
}

// InsertCost returns the delta of inserting client u (currently
// unassigned) immediately after the node at position posAfter in route.
// Returns 0 if u is a depot (ill-defined per §4.3).
func InsertCost(problem *vrpcore.ProblemData, ceval costeval.Evaluator, route *Route, posAfter, u int) vrpcore.Cost {
	if problem.IsDepot(u) {
		return 0
	}
	vt := problem.VehicleTypes[route.VehicleType()]
	dims := problem.NumLoadDimensions
	distM := problem.Distances[route.Profile()]
	durM := problem.Durations[route.Profile()]

	before := route.nodes[posAfter].Loc
	afterIdx := posAfter + 1
	after := route.nodes[afterIdx].Loc

	identDur := segment.NodeDuration(
		problem.Locations[u].TWEarly, problem.Locations[u].TWLate,
		problem.Locations[u].ServiceDuration, problem.Locations[u].ReleaseTime,
	)

	prefixDur := durAt(route, posAfter)
	withClientDur := segment.Merge(durM.Get(before, u), prefixDur, identDur)
	newDur := segment.Merge(durM.Get(u, after), withClientDur, route.SuffixDuration(afterIdx))

	newLoad := make([]vrpcore.Load, dims)
	newExcessLoad := make([]vrpcore.Load, dims)
	for d := 0; d < dims; d++ {
		prefixLoad := loadAt(route, posAfter, d, vt.Capacity[d])
		identLoad := segment.NodeLoad(problem.Locations[u].Delivery[d], problem.Locations[u].Pickup[d])
		withClientLoad := segment.MergeLoad(prefixLoad, identLoad)
		merged := segment.MergeLoad(withClientLoad, route.SuffixLoad(afterIdx, d))
		newLoad[d] = merged.Load
		newExcessLoad[d] = merged.ExcessAgainst(vt.Capacity[d])
	}

	newDist := vrpcore.SatAddDistance(vrpcore.SatAddDistance(route.DistBefore(posAfter), distM.Get(before, u)), vrpcore.SatAddDistance(distM.Get(u, after), route.DistAfter(afterIdx)))

	oldPrize := routePrize(route, problem)
	newPrize := oldPrize + problem.Locations[u].Prize

	newAgg := costeval.RouteAggregates{
		FixedCost:        vt.FixedCost,
		Distance:         newDist,
		Duration:         newDur.TotalDuration(),
		UnitDistanceCost: vt.UnitDistanceCost,
		UnitDurationCost: vt.UnitDurationCost,
		UnitOvertimeCost: vt.UnitOvertimeCost,
		ExcessLoad:       newExcessLoad,
		PrizeCollected:   newPrize,
	}
	newAgg.Overtime = vrpcore.ExcessOf(newAgg.Duration, vt.ShiftDuration)
	newAgg.TimeWarp = newDur.TotalTimeWarp(newAgg.Duration, vt.MaxDuration)
	newAgg.ExcessDistance = vrpcore.ExcessOf(newDist, vt.MaxDistance)

	oldCost := ceval.PenalisedCost(route.ToAggregates(oldPrize))
	newCost := ceval.PenalisedCost(newAgg)
	return newCost - oldCost
}

// RemoveCost returns the delta of removing the client at position pos
// from route. Returns 0 if the node at pos is a depot.
func RemoveCost(problem *vrpcore.ProblemData, ceval costeval.Evaluator, route *Route, pos int) vrpcore.Cost {
	if route.At(pos).Kind != ClientNode {
		return 0
	}
	vt := problem.VehicleTypes[route.VehicleType()]
	dims := problem.NumLoadDimensions
	distM := problem.Distances[route.Profile()]

	before := route.nodes[pos-1].Loc
	after := route.nodes[pos+1].Loc

	prefixDur := durAt(route, pos-1)
	newDur := segment.Merge(distMDuration(problem, route, before, after), prefixDur, route.SuffixDuration(pos+1))

	newLoad := make([]vrpcore.Load, dims)
	for d := 0; d < dims; d++ {
		prefixLoad := loadAt(route, pos-1, d, vt.Capacity[d])
		merged := segment.MergeLoad(prefixLoad, route.SuffixLoad(pos+1, d))
		newLoad[d] = merged.ExcessAgainst(vt.Capacity[d])
	}

	newDist := vrpcore.SatAddDistance(route.DistBefore(pos-1), vrpcore.SatAddDistance(distM.Get(before, after), route.DistAfter(pos+1)))

	oldPrize := routePrize(route, problem)
	newPrize := oldPrize - problem.Locations[route.At(pos).Loc].Prize

	newAgg := costeval.RouteAggregates{
		FixedCost:        vt.FixedCost,
		Distance:         newDist,
		Duration:         newDur.TotalDuration(),
		UnitDistanceCost: vt.UnitDistanceCost,
		UnitDurationCost: vt.UnitDurationCost,
		UnitOvertimeCost: vt.UnitOvertimeCost,
		ExcessLoad:       newLoad,
		PrizeCollected:   newPrize,
	}
	newAgg.Overtime = vrpcore.ExcessOf(newAgg.Duration, vt.ShiftDuration)
	newAgg.TimeWarp = newDur.TotalTimeWarp(newAgg.Duration, vt.MaxDuration)
	newAgg.ExcessDistance = vrpcore.ExcessOf(newDist, vt.MaxDistance)

	oldCost := ceval.PenalisedCost(route.ToAggregates(oldPrize))
	newCost := ceval.PenalisedCost(newAgg)
	return newCost - oldCost
}

// distMDuration is a tiny helper so RemoveCost can fetch an edge duration
// without importing the duration matrix type at the call site twice.
func distMDuration(problem *vrpcore.ProblemData, route *Route, from, to int) vrpcore.Duration {
	return problem.Durations[route.Profile()].Get(from, to)
}

// InplaceCost returns the delta of removing the client currently at
// position pos and inserting client u in its place. Returns 0 if the node
// at pos is not a client. It does not check whether u is already on a
// route; the delta covers this route only.
func InplaceCost(problem *vrpcore.ProblemData, ceval costeval.Evaluator, route *Route, pos, u int) vrpcore.Cost {
	if route.At(pos).Kind != ClientNode {
		return 0
	}
	vt := problem.VehicleTypes[route.VehicleType()]
	dims := problem.NumLoadDimensions
	distM := problem.Distances[route.Profile()]
	durM := problem.Durations[route.Profile()]

	before := route.nodes[pos-1].Loc
	after := route.nodes[pos+1].Loc

	identDur := segment.NodeDuration(
		problem.Locations[u].TWEarly, problem.Locations[u].TWLate,
		problem.Locations[u].ServiceDuration, problem.Locations[u].ReleaseTime,
	)
	prefixDur := durAt(route, pos-1)
	withClientDur := segment.Merge(durM.Get(before, u), prefixDur, identDur)
	newDur := segment.Merge(durM.Get(u, after), withClientDur, route.SuffixDuration(pos+1))

	newExcessLoad := make([]vrpcore.Load, dims)
	for d := 0; d < dims; d++ {
		prefixLoad := loadAt(route, pos-1, d, vt.Capacity[d])
		identLoad := segment.NodeLoad(problem.Locations[u].Delivery[d], problem.Locations[u].Pickup[d])
		withClientLoad := segment.MergeLoad(prefixLoad, identLoad)
		merged := segment.MergeLoad(withClientLoad, route.SuffixLoad(pos+1, d))
		newExcessLoad[d] = merged.ExcessAgainst(vt.Capacity[d])
	}

	newDist := vrpcore.SatAddDistance(vrpcore.SatAddDistance(route.DistBefore(pos-1), distM.Get(before, u)), vrpcore.SatAddDistance(distM.Get(u, after), route.DistAfter(pos+1)))

	oldPrize := routePrize(route, problem)
	newPrize := oldPrize - problem.Locations[route.At(pos).Loc].Prize + problem.Locations[u].Prize

	newAgg := costeval.RouteAggregates{
		FixedCost:        vt.FixedCost,
		Distance:         newDist,
		Duration:         newDur.TotalDuration(),
		UnitDistanceCost: vt.UnitDistanceCost,
		UnitDurationCost: vt.UnitDurationCost,
		UnitOvertimeCost: vt.UnitOvertimeCost,
		ExcessLoad:       newExcessLoad,
		PrizeCollected:   newPrize,
	}
	newAgg.Overtime = vrpcore.ExcessOf(newAgg.Duration, vt.ShiftDuration)
	newAgg.TimeWarp = newDur.TotalTimeWarp(newAgg.Duration, vt.MaxDuration)
	newAgg.ExcessDistance = vrpcore.ExcessOf(newDist, vt.MaxDistance)

	oldCost := ceval.PenalisedCost(route.ToAggregates(oldPrize))
	newCost := ceval.PenalisedCost(newAgg)
	return newCost - oldCost
}
