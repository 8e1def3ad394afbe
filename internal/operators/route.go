package operators

import (
	"github.com/aryanbinazir/vrpsolve/internal/costeval"
	"github.com/aryanbinazir/vrpsolve/internal/searchstate"
	"github.com/aryanbinazir/vrpsolve/internal/vrpcore"
)

// RouteOp is the common shape of the two route-level move families in
// §4.4: SwapStar and SwapRoutes, both operating on a non-empty route
// pair rather than a single client pair.
type RouteOp interface {
	Init(sol *searchstate.Solution)
	Evaluate(routeU, routeV *searchstate.Route, ceval costeval.Evaluator) vrpcore.Cost
	Apply(routeU, routeV *searchstate.Route)
	Name() string
	Stats() (evaluations, applications int)
}

// SwapStar considers, for every client u on routeU and v on routeV,
// removing both and reinserting each into the other's route at its
// locally-best position, per §4.4. OverlapTolerance prunes route pairs
// whose centroids are too far apart to plausibly benefit.
type SwapStar struct {
	counters
	sol            *searchstate.Solution
	problem        *vrpcore.ProblemData
	OverlapTolerance float64

	bestU, bestV int // cached winning client pair from the last Evaluate call
}

// DefaultOverlapTolerance matches the "tolerance ∈ [0,1]" range Route's
// OverlapsWith accepts.
const DefaultOverlapTolerance = 0.2

func NewSwapStar() *SwapStar {
	return &SwapStar{OverlapTolerance: DefaultOverlapTolerance, bestU: -1, bestV: -1}
}

func (o *SwapStar) Init(sol *searchstate.Solution) {
	o.sol = sol
	o.problem = sol.ProblemData()
}

func (o *SwapStar) Name() string { return "SwapStar" }

// bestInsertion tries every position between the start and end depots of
// nodes (a route's full node list, depots included, with one client
// removed) for inserting a single client and returns the resulting node
// list with the lowest cost.
func (o *SwapStar) bestInsertion(vehicleType, profile int, nodes []searchstate.RouteNode, client int) []searchstate.RouteNode {
	var best []searchstate.RouteNode
	var bestCost vrpcore.Cost
	node := searchstate.RouteNode{Kind: searchstate.ClientNode, Loc: client}
	for pos := 1; pos < len(nodes); pos++ {
		candidate := make([]searchstate.RouteNode, 0, len(nodes)+1)
		candidate = append(candidate, nodes[:pos]...)
		candidate = append(candidate, node)
		candidate = append(candidate, nodes[pos:]...)
		agg := searchstate.EvaluateNodes(o.problem, vehicleType, profile, candidate)
		cost := Evaluator(o.problem).PenalisedCost(agg)
		if best == nil || cost < bestCost {
			best, bestCost = candidate, cost
		}
	}
	return best
}

// Evaluator is a zero-weight costeval.Evaluator used only to rank
// candidate insertion positions against each other internally; the
// actual accept/reject delta always uses the caller-supplied evaluator.
func Evaluator(problem *vrpcore.ProblemData) costeval.Evaluator {
	return costeval.Evaluator{LoadPenalty: make([]vrpcore.Cost, problem.NumLoadDimensions)}
}

func (o *SwapStar) Evaluate(routeU, routeV *searchstate.Route, ceval costeval.Evaluator) vrpcore.Cost {
	o.evaluations++
	o.bestU, o.bestV = -1, -1
	if routeU == routeV || routeU.Empty() || routeV.Empty() {
		return 0
	}
	if !routeU.OverlapsWith(routeV, o.OverlapTolerance) {
		return 0
	}

	oldCost := ceval.PenalisedCost(routeU.ToAggregates(routePrize(o.problem, routeU))) +
		ceval.PenalisedCost(routeV.ToAggregates(routePrize(o.problem, routeV)))

	var bestDelta vrpcore.Cost
	found := false

	for _, nu := range routeU.Nodes() {
		if nu.Kind != searchstate.ClientNode {
			continue
		}
		if o.sol.WouldViolateSameVehicle(nu.Loc, routeV) {
			continue
		}
		withoutU := removeClient(routeU.Nodes(), nu.Loc)

		for _, nv := range routeV.Nodes() {
			if nv.Kind != searchstate.ClientNode {
				continue
			}
			if o.sol.WouldViolateSameVehicle(nv.Loc, routeU) {
				continue
			}
			withoutV := removeClient(routeV.Nodes(), nv.Loc)

			// newRouteV gets u inserted in place of v; newRouteU gets v
			// inserted in place of u -- a genuine exchange.
			newRouteV := o.bestInsertion(routeV.VehicleType(), routeV.Profile(), withoutV, nu.Loc)
			newRouteU := o.bestInsertion(routeU.VehicleType(), routeU.Profile(), withoutU, nv.Loc)
			newCost := ceval.PenalisedCost(searchstate.EvaluateNodes(o.problem, routeU.VehicleType(), routeU.Profile(), newRouteU)) +
				ceval.PenalisedCost(searchstate.EvaluateNodes(o.problem, routeV.VehicleType(), routeV.Profile(), newRouteV))
			delta := newCost - oldCost
			if !found || delta < bestDelta {
				found, bestDelta = true, delta
				o.bestU, o.bestV = nu.Loc, nv.Loc
			}
		}
	}

	if !found {
		return 0
	}
	return bestDelta
}

func removeClient(nodes []searchstate.RouteNode, client int) []searchstate.RouteNode {
	out := make([]searchstate.RouteNode, 0, len(nodes)-1)
	for _, n := range nodes {
		if n.Kind == searchstate.ClientNode && n.Loc == client {
			continue
		}
		out = append(out, n)
	}
	return out
}

func (o *SwapStar) Apply(routeU, routeV *searchstate.Route) {
	o.applications++
	if o.bestU < 0 || o.bestV < 0 {
		return
	}
	withoutU := removeClient(routeU.Nodes(), o.bestU)
	withoutV := removeClient(routeV.Nodes(), o.bestV)
	newRouteV := o.bestInsertion(routeV.VehicleType(), routeV.Profile(), withoutV, o.bestU)
	newRouteU := o.bestInsertion(routeU.VehicleType(), routeU.Profile(), withoutU, o.bestV)
	o.sol.ReplaceNodes(routeU, newRouteU)
	o.sol.ReplaceNodes(routeV, newRouteV)
}

// SwapRoutes swaps the entire client+trip sequence of two routes whose
// vehicle types match exactly (so start/end depots and reload depot
// options line up), per §4.4.
type SwapRoutes struct {
	counters
	sol *searchstate.Solution
}

func NewSwapRoutes() *SwapRoutes { return &SwapRoutes{} }

func (o *SwapRoutes) Init(sol *searchstate.Solution) { o.sol = sol }
func (o *SwapRoutes) Name() string                   { return "SwapRoutes" }

func (o *SwapRoutes) eligible(routeU, routeV *searchstate.Route) bool {
	return routeU != routeV && routeU.VehicleType() == routeV.VehicleType() &&
		!routeU.Empty() && !routeV.Empty()
}

func (o *SwapRoutes) Evaluate(routeU, routeV *searchstate.Route, ceval costeval.Evaluator) vrpcore.Cost {
	o.evaluations++
	if !o.eligible(routeU, routeV) {
		return 0
	}
	problem := o.sol.ProblemData()
	innerU := routeU.Nodes()[1 : routeU.Size()-1]
	innerV := routeV.Nodes()[1 : routeV.Size()-1]

	newU := buildSwapped(routeU.Nodes(), innerV)
	newV := buildSwapped(routeV.Nodes(), innerU)

	oldCost := ceval.PenalisedCost(routeU.ToAggregates(routePrize(problem, routeU))) +
		ceval.PenalisedCost(routeV.ToAggregates(routePrize(problem, routeV)))
	newCost := ceval.PenalisedCost(searchstate.EvaluateNodes(problem, routeU.VehicleType(), routeU.Profile(), newU)) +
		ceval.PenalisedCost(searchstate.EvaluateNodes(problem, routeV.VehicleType(), routeV.Profile(), newV))
	return newCost - oldCost
}

func buildSwapped(nodes []searchstate.RouteNode, inner []searchstate.RouteNode) []searchstate.RouteNode {
	out := make([]searchstate.RouteNode, 0, len(inner)+2)
	out = append(out, nodes[0])
	out = append(out, inner...)
	out = append(out, nodes[len(nodes)-1])
	return out
}

func (o *SwapRoutes) Apply(routeU, routeV *searchstate.Route) {
	o.applications++
	if !o.eligible(routeU, routeV) {
		return
	}
	innerU := append([]searchstate.RouteNode{}, routeU.Nodes()[1:routeU.Size()-1]...)
	innerV := append([]searchstate.RouteNode{}, routeV.Nodes()[1:routeV.Size()-1]...)
	newU := buildSwapped(routeU.Nodes(), innerV)
	newV := buildSwapped(routeV.Nodes(), innerU)
	o.sol.ReplaceNodes(routeU, newU)
	o.sol.ReplaceNodes(routeV, newV)
}
