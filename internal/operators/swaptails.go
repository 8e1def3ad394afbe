package operators

import (
	"github.com/aryanbinazir/vrpsolve/internal/costeval"
	"github.com/aryanbinazir/vrpsolve/internal/searchstate"
	"github.com/aryanbinazir/vrpsolve/internal/vrpcore"
)

// SwapTails exchanges the tail of U's route (from U to just before the
// end depot) with the tail of V's route, per §4.4's table. It is only
// defined across two distinct, non-empty routes.
type SwapTails struct {
	counters
	sol     *searchstate.Solution
	problem *vrpcore.ProblemData
}

func NewSwapTails() *SwapTails { return &SwapTails{} }

func (o *SwapTails) Init(sol *searchstate.Solution) {
	o.sol = sol
	o.problem = sol.ProblemData()
}

func (o *SwapTails) Name() string { return "SwapTails" }

func (o *SwapTails) tails(u, v int) (routeU, routeV *searchstate.Route, posU, posV int, ok bool) {
	routeU = o.sol.ClientRoute(u)
	routeV = o.sol.ClientRoute(v)
	if routeU == nil || routeV == nil || routeU == routeV {
		return nil, nil, 0, 0, false
	}
	posU, _ = o.sol.ClientPosition(u)
	posV, _ = o.sol.ClientPosition(v)
	return routeU, routeV, posU, posV, true
}

func (o *SwapTails) Evaluate(u, v int, ceval costeval.Evaluator) vrpcore.Cost {
	o.evaluations++
	routeU, routeV, posU, posV, ok := o.tails(u, v)
	if !ok {
		return 0
	}
	tailU := routeU.Nodes()[posU : routeU.Size()-1]
	tailV := routeV.Nodes()[posV : routeV.Size()-1]
	if o.sol.WouldViolateSameVehicleMove(tailU, routeV) || o.sol.WouldViolateSameVehicleMove(tailV, routeU) {
		return 0
	}

	newU := buildTailSwap(routeU.Nodes(), posU, tailV)
	newV := buildTailSwap(routeV.Nodes(), posV, tailU)

	oldCost := ceval.PenalisedCost(routeU.ToAggregates(routePrize(o.problem, routeU))) +
		ceval.PenalisedCost(routeV.ToAggregates(routePrize(o.problem, routeV)))
	newCost := ceval.PenalisedCost(searchstate.EvaluateNodes(o.problem, routeU.VehicleType(), routeU.Profile(), newU)) +
		ceval.PenalisedCost(searchstate.EvaluateNodes(o.problem, routeV.VehicleType(), routeV.Profile(), newV))
	return newCost - oldCost
}

func (o *SwapTails) Apply(u, v int) {
	o.applications++
	routeU, routeV, posU, posV, ok := o.tails(u, v)
	if !ok {
		return
	}
	tailU := append([]searchstate.RouteNode{}, routeU.Nodes()[posU:routeU.Size()-1]...)
	tailV := append([]searchstate.RouteNode{}, routeV.Nodes()[posV:routeV.Size()-1]...)
	newU := buildTailSwap(routeU.Nodes(), posU, tailV)
	newV := buildTailSwap(routeV.Nodes(), posV, tailU)
	o.sol.ReplaceNodes(routeU, newU)
	o.sol.ReplaceNodes(routeV, newV)
}

func (o *SwapTails) Update(route *searchstate.Route) {}

// buildTailSwap keeps nodes[:pos] (header through the position just
// before the tail) and the original end depot, replacing everything
// between with newTail.
func buildTailSwap(nodes []searchstate.RouteNode, pos int, newTail []searchstate.RouteNode) []searchstate.RouteNode {
	out := make([]searchstate.RouteNode, 0, pos+len(newTail)+1)
	out = append(out, nodes[:pos]...)
	out = append(out, newTail...)
	out = append(out, nodes[len(nodes)-1])
	return out
}
