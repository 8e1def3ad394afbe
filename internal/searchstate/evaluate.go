package searchstate

import (
	"github.com/aryanbinazir/vrpsolve/internal/costeval"
	"github.com/aryanbinazir/vrpsolve/internal/segment"
	"github.com/aryanbinazir/vrpsolve/internal/vrpcore"
)

// EvaluateNodes folds an arbitrary node list from scratch into route
// aggregates for the given vehicle type and profile, using the same
// segment merge laws Route.Update uses for its forward pass. Every node
// and route operator (Exchange<k,m> including relocate and swap,
// SwapTails, RelocateWithDepot, SwapStar, SwapRoutes) uses this to price a
// candidate move exactly: it is not the O(1) prefix/suffix-merge technique
// §4.2 describes for single-node moves, but it shares the same merge laws
// and is therefore exact by construction.
func EvaluateNodes(problem *vrpcore.ProblemData, vehicleType, profile int, nodes []RouteNode) costeval.RouteAggregates {
	vt := problem.VehicleTypes[vehicleType]
	dims := problem.NumLoadDimensions
	distM := problem.Distances[profile]
	durM := problem.Durations[profile]

	runningLoad := make([]segment.Load, dims)
	runningDur := segment.Duration{StartLate: vrpcore.Duration(vrpcore.Unreachable)}
	runningDist := vrpcore.Distance(0)

	var prize vrpcore.Cost

	for i, node := range nodes {
		identLoad := make([]segment.Load, dims)
		for d := 0; d < dims; d++ {
			delivery, pickup := vrpcore.Load(0), vrpcore.Load(0)
			if !problem.IsDepot(node.Loc) {
				delivery = problem.Locations[node.Loc].Delivery[d]
				pickup = problem.Locations[node.Loc].Pickup[d]
			}
			identLoad[d] = segment.NodeLoad(delivery, pickup)
		}
		l := problem.Locations[node.Loc]
		identDur := segment.NodeDuration(l.TWEarly, l.TWLate, l.ServiceDuration, l.ReleaseTime)

		if node.Kind == ClientNode {
			prize += l.Prize
		}

		if i == 0 {
			runningLoad = identLoad
			runningDur = identDur
		} else {
			prev := nodes[i-1]
			runningDist = vrpcore.SatAddDistance(runningDist, distM.Get(prev.Loc, node.Loc))
			for d := 0; d < dims; d++ {
				runningLoad[d] = segment.MergeLoad(runningLoad[d], identLoad[d])
			}
			runningDur = segment.Merge(durM.Get(prev.Loc, node.Loc), runningDur, identDur)
		}

		if node.Kind == ReloadDepot {
			for d := 0; d < dims; d++ {
				runningLoad[d] = runningLoad[d].Finalise(vt.Capacity[d])
			}
			runningDur = runningDur.FinaliseBack()
		}
	}

	excessLoad := make([]vrpcore.Load, dims)
	for d := 0; d < dims; d++ {
		excessLoad[d] = runningLoad[d].ExcessAgainst(vt.Capacity[d])
	}
	duration := runningDur.TotalDuration()

	return costeval.RouteAggregates{
		FixedCost:        vt.FixedCost,
		Distance:         runningDist,
		Duration:         duration,
		Overtime:         vrpcore.ExcessOf(duration, vt.ShiftDuration),
		UnitDistanceCost: vt.UnitDistanceCost,
		UnitDurationCost: vt.UnitDurationCost,
		UnitOvertimeCost: vt.UnitOvertimeCost,
		ExcessLoad:       excessLoad,
		TimeWarp:         runningDur.TotalTimeWarp(duration, vt.MaxDuration),
		ExcessDistance:   vrpcore.ExcessOf(runningDist, vt.MaxDistance),
		PrizeCollected:   prize,
	}
}
