package searchstate

import (
	"github.com/aryanbinazir/vrpsolve/internal/costeval"
	"github.com/aryanbinazir/vrpsolve/internal/neighbourhood"
	"github.com/aryanbinazir/vrpsolve/internal/vrpcore"
)

// ClientPos is where a client currently sits, or "nowhere" (RouteIdx -1)
// if it is unassigned. This is the search-view's analogue of spec.md §3's
// "Each node exposes route() ... and idx() within that route" — since a
// client visits at most one route, a flat array keyed by client offset
// plays that role without a shared Node arena for depots (which, unlike
// clients, occur on every route and never need an "unassigned" state).
type ClientPos struct {
	RouteIdx int
	Position int
}

// Solution is the mutable search-view arena described in §3: one Route per
// vehicle slot, reused across LocalSearch calls via Load/Unload instead of
// being reallocated per solve.
type Solution struct {
	problem   *vrpcore.ProblemData
	routes    []*Route
	clientPos []ClientPos // indexed by loc-NumDepots

	sameVehicleGroup []int // indexed by loc-NumDepots; -1 if client is in no group
}

// NewSolution allocates a search-view sized to the problem: one Route per
// vehicle slot and one ClientPos per client, per §3's ownership notes.
func NewSolution(problem *vrpcore.ProblemData) *Solution {
	s := &Solution{problem: problem}
	numVehicles := problem.NumVehicles()
	s.routes = make([]*Route, numVehicles)
	vehicleIdx := 0
	for typeIdx, vt := range problem.VehicleTypes {
		for i := 0; i < vt.NumAvailable; i++ {
			s.routes[vehicleIdx] = NewRoute(problem, vehicleIdx, typeIdx)
			vehicleIdx++
		}
	}
	s.clientPos = make([]ClientPos, problem.NumClients)
	for i := range s.clientPos {
		s.clientPos[i] = ClientPos{RouteIdx: -1}
	}

	s.sameVehicleGroup = make([]int, problem.NumClients)
	for i := range s.sameVehicleGroup {
		s.sameVehicleGroup[i] = -1
	}
	for gi, g := range problem.SameVehicleGroups {
		for _, c := range g.Clients {
			s.sameVehicleGroup[c-problem.NumDepots] = gi
		}
	}
	return s
}

// SameVehicleGroup returns the same-vehicle group index a client belongs
// to, or -1 if none.
func (s *Solution) SameVehicleGroup(client int) int {
	return s.sameVehicleGroup[client-s.problem.NumDepots]
}

// WouldViolateSameVehicle implements the §4.5 predicate: true iff client
// is in a same-vehicle group, targetRoute belongs to a different vehicle
// type *name* than its current route, and some other group member is
// currently on client's current route.
func (s *Solution) WouldViolateSameVehicle(client int, targetRoute *Route) bool {
	g := s.SameVehicleGroup(client)
	if g < 0 {
		return false
	}
	current := s.ClientRoute(client)
	if current == nil || current == targetRoute {
		return false
	}
	curName := s.problem.VehicleTypes[current.VehicleType()].Name
	targetName := s.problem.VehicleTypes[targetRoute.VehicleType()].Name
	if curName == targetName {
		return false
	}
	for _, member := range s.problem.SameVehicleGroups[g].Clients {
		if member == client {
			continue
		}
		if s.ClientRoute(member) == current {
			return true
		}
	}
	return false
}

// ProblemData returns the shared immutable problem this view is bound to.
func (s *Solution) ProblemData() *vrpcore.ProblemData { return s.problem }

// Routes returns every vehicle-slot route, including empty ones.
func (s *Solution) Routes() []*Route { return s.routes }

// ReplaceNodes swaps route's entire node sequence, recomputes its
// aggregates, and reindexes clientPos for every client now on it. Used by
// multi-node operators (Exchange<k,m>, SwapTails, SwapStar) that build a
// new node list wholesale rather than mutating positions one at a time.
func (s *Solution) ReplaceNodes(route *Route, nodes []RouteNode) {
	route.nodes = nodes
	route.Update()
	s.reindex(route)
}

// WouldViolateSameVehicleMove reports whether moving every client in seg
// onto targetRoute would violate the same-vehicle constraint for any of
// them (§4.5).
func (s *Solution) WouldViolateSameVehicleMove(seg []RouteNode, targetRoute *Route) bool {
	for _, n := range seg {
		if n.Kind == ClientNode && s.WouldViolateSameVehicle(n.Loc, targetRoute) {
			return true
		}
	}
	return false
}

// Route returns the route at the given vehicle index.
func (s *Solution) Route(idx int) *Route { return s.routes[idx] }

// NumRoutes is the number of vehicle slots (used or not).
func (s *Solution) NumRoutes() int { return len(s.routes) }

// ClientRoute returns the route a client currently sits on, or nil if
// unassigned.
func (s *Solution) ClientRoute(client int) *Route {
	pos := s.clientPos[client-s.problem.NumDepots]
	if pos.RouteIdx < 0 {
		return nil
	}
	return s.routes[pos.RouteIdx]
}

// ClientPosition returns the client's position within its route and true,
// or (0, false) if unassigned.
func (s *Solution) ClientPosition(client int) (int, bool) {
	pos := s.clientPos[client-s.problem.NumDepots]
	if pos.RouteIdx < 0 {
		return 0, false
	}
	return pos.Position, true
}

// IsAssigned reports whether the client currently sits on a route.
func (s *Solution) IsAssigned(client int) bool {
	return s.clientPos[client-s.problem.NumDepots].RouteIdx >= 0
}

// setPos records (or clears, with routeIdx<0) a client's position.
func (s *Solution) setPos(client, routeIdx, position int) {
	s.clientPos[client-s.problem.NumDepots] = ClientPos{RouteIdx: routeIdx, Position: position}
}

// reindex recomputes clientPos for every client on the given route after a
// structural change shifted positions around.
func (s *Solution) reindex(route *Route) {
	for i, node := range route.Nodes() {
		if node.Kind == ClientNode {
			s.setPos(node.Loc, route.Idx(), i)
		}
	}
}

// InsertClient places client at position idx (before the node currently
// there, right after the node at idx-1) on route, updates the route, and
// reindexes it.
func (s *Solution) InsertClient(route *Route, idx, client int) {
	route.Insert(idx, RouteNode{Kind: ClientNode, Loc: client})
	route.Update()
	s.reindex(route)
}

// InsertDepot places a reload depot at position idx (before the node
// currently there, right after the node at idx-1) on route and updates it. Unlike InsertClient, it does
// not assign the depot a clientPos slot -- reindex only tracks ClientNode
// kinds, so a depot inserted here is never mistaken for an unassigned
// client during the Remove path's clientPos lookup.
func (s *Solution) InsertDepot(route *Route, idx, depotLoc int) {
	route.Insert(idx, RouteNode{Kind: ReloadDepot, Loc: depotLoc})
	route.Update()
	s.reindex(route)
}

// RemoveNode deletes the node at pos (a depot, not a client -- use
// RemoveClient for those) and reindexes client positions on route
// afterward. Used by applyDepotRemovalMove (§4.5) to drop a reload depot
// that no longer earns its keep.
func (s *Solution) RemoveNode(route *Route, pos int) {
	route.Remove(pos)
	route.Update()
	s.reindex(route)
}

// RemoveClient deletes client from whichever route holds it and marks it
// unassigned. No-op if the client is already unassigned.
func (s *Solution) RemoveClient(client int) {
	pos, ok := s.ClientPosition(client)
	if !ok {
		return
	}
	route := s.ClientRoute(client)
	route.Remove(pos)
	s.setPos(client, -1, 0)
	route.Update()
	s.reindex(route)
}

// Load populates this mutable view from an immutable vrpcore.Solution,
// replacing whatever was previously loaded (§3: "load(src_Solution)
// populates this mutable view").
func (s *Solution) Load(src *vrpcore.Solution) {
	for _, r := range s.routes {
		r.Clear()
	}
	for i := range s.clientPos {
		s.clientPos[i] = ClientPos{RouteIdx: -1}
	}

	for _, rr := range src.Routes {
		route := s.routes[rr.VehicleIdx]
		vt := s.problem.VehicleTypes[route.VehicleType()]
		nodes := []RouteNode{{Kind: StartDepot, Loc: vt.StartDepot}}
		for ti, trip := range rr.Trips {
			if ti > 0 {
				nodes = append(nodes, RouteNode{Kind: ReloadDepot, Loc: trip.ReloadDepot})
			}
			for _, c := range trip.Clients {
				nodes = append(nodes, RouteNode{Kind: ClientNode, Loc: c})
			}
		}
		nodes = append(nodes, RouteNode{Kind: EndDepot, Loc: vt.EndDepot})
		route.nodes = nodes
		route.Update()
		s.reindex(route)
	}
}

// Unload materialises the converse of Load: an immutable vrpcore.Solution
// snapshotting every route's current client sequence and aggregates,
// plus the set of clients left unassigned.
func (s *Solution) Unload(ceval costeval.Evaluator) *vrpcore.Solution {
	out := &vrpcore.Solution{}
	for _, route := range s.routes {
		if route.Empty() {
			continue
		}
		vt := s.problem.VehicleTypes[route.VehicleType()]
		rr := vrpcore.RouteResult{
			VehicleIdx:     route.Idx(),
			VehicleType:    vt.Name,
			Profile:        route.Profile(),
			Distance:       route.Distance(),
			Duration:       route.Duration(),
			TimeWarp:       route.TimeWarp(),
			Overtime:       route.Overtime(),
			ExcessDistance: route.ExcessDistance(),
		}
		rr.Load = make([]vrpcore.Load, s.problem.NumLoadDimensions)
		rr.ExcessLoad = make([]vrpcore.Load, s.problem.NumLoadDimensions)
		for d := 0; d < s.problem.NumLoadDimensions; d++ {
			rr.Load[d] = route.Load(d)
			rr.ExcessLoad[d] = route.ExcessLoad(d)
		}

		var trips []vrpcore.Trip
		var cur vrpcore.Trip
		cur.ReloadDepot = -1
		for _, node := range route.Nodes() {
			switch node.Kind {
			case StartDepot:
			case EndDepot:
				trips = append(trips, cur)
			case ReloadDepot:
				trips = append(trips, cur)
				cur = vrpcore.Trip{ReloadDepot: node.Loc}
			case ClientNode:
				cur.Clients = append(cur.Clients, node.Loc)
			}
		}
		rr.Trips = trips

		out.Routes = append(out.Routes, rr)
		out.Distance = vrpcore.SatAddDistance(out.Distance, rr.Distance)
		out.Duration += rr.Duration
		out.TimeWarp += rr.TimeWarp

		var prize vrpcore.Cost
		for _, t := range trips {
			for _, c := range t.Clients {
				prize += s.problem.Locations[c].Prize
			}
		}
		out.PrizeCollected += prize
	}
	out.NumRoutes = len(out.Routes)

	for c := 0; c < s.problem.NumClients; c++ {
		loc := s.problem.NumDepots + c
		if !s.IsAssigned(loc) {
			out.Unassigned = append(out.Unassigned, loc)
		}
	}
	return out
}

// candidatePosition is a scored insertion point considered by Insert.
type candidatePosition struct {
	route    *Route
	posAfter int
	delta    vrpcore.Cost
}

// Insert implements the §4.5 Solution.insert helper: find the cheapest
// legal position for unassigned client u and, if required or the best
// delta is improving, perform the insertion.
//
// If u shares a same-vehicle group with an already-inserted client, the
// search is restricted to that client's route; other routes, including
// those whose vehicle type has the same name, are not tried. Otherwise
// every neighbour of u is
// tried, plus position 0 of every compatible route (to let empty routes
// compete on equal footing with populated ones).
func (s *Solution) Insert(ceval costeval.Evaluator, ss *neighbourhood.SearchSpace, u int, required bool) bool {
	var best *candidatePosition

	consider := func(route *Route, posAfter int) {
		delta := InsertCost(s.problem, ceval, route, posAfter, u)
		if best == nil || delta < best.delta {
			best = &candidatePosition{route: route, posAfter: posAfter, delta: delta}
		}
	}

	if g := s.SameVehicleGroup(u); g >= 0 {
		restrictRoute := s.groupAnchorRoute(g, u)
		if restrictRoute != nil {
			for i := 0; i < restrictRoute.Size()-1; i++ {
				consider(restrictRoute, i)
			}
		} else {
			for _, route := range s.routes {
				if s.groupAllowsVehicleType(g, u, route.VehicleType()) {
					consider(route, 0)
				}
			}
		}
	} else {
		for _, n := range ss.Neighbours(u) {
			route := s.ClientRoute(n)
			if route == nil {
				continue
			}
			pos, _ := s.ClientPosition(n)
			consider(route, pos-1)
			if pos < route.Size()-1 {
				consider(route, pos)
			}
		}
		for _, route := range s.routes {
			if !s.vehicleAllowsClient(route.VehicleType(), u) {
				continue
			}
			consider(route, 0)
		}
	}

	if best == nil {
		if !s.tryInsertNewTrip(ceval, u) {
			return false
		}
		return true
	}

	if !required && best.delta >= 0 {
		return false
	}

	route := best.route
	posAfter := best.posAfter
	dims := s.problem.NumLoadDimensions
	vt := s.problem.VehicleTypes[route.VehicleType()]
	wouldExceed := false
	for d := 0; d < dims; d++ {
		delivery := s.problem.Locations[u].Delivery[d]
		load := route.PrefixLoad(posAfter, d).Load + delivery
		if load > vt.Capacity[d] {
			wouldExceed = true
			break
		}
	}
	if wouldExceed && len(vt.ReloadDepots) > 0 && route.NumTrips() < route.MaxTrips() {
		s.InsertDepot(route, posAfter+1, vt.ReloadDepots[0])
		posAfter++
	}

	s.InsertClient(route, posAfter+1, u)
	return true
}

// groupAnchorRoute returns the route an already-assigned member of u's
// same-vehicle group sits on, or nil if no member is assigned yet.
func (s *Solution) groupAnchorRoute(group, u int) *Route {
	for _, member := range s.problem.SameVehicleGroups[group].Clients {
		if member == u {
			continue
		}
		if route := s.ClientRoute(member); route != nil {
			return route
		}
	}
	return nil
}

func (s *Solution) groupAllowsVehicleType(group, u, vehicleType int) bool {
	return s.vehicleAllowsClient(vehicleType, u)
}

func (s *Solution) vehicleAllowsClient(vehicleType, client int) bool {
	allowed := s.problem.VehicleTypes[vehicleType].AllowedClients
	if allowed == nil {
		return true
	}
	for _, a := range allowed {
		if a == client {
			return true
		}
	}
	return false
}

// tryInsertNewTrip is the fallback used when no existing position (not
// even position 0 of an empty route) was considered — e.g. every route
// is full and incompatible with u. It is a narrow subset of the §4.5
// multi-trip insertion pass, reused here so Insert never silently drops
// a required client solely because all current trips are full.
func (s *Solution) tryInsertNewTrip(ceval costeval.Evaluator, u int) bool {
	for _, route := range s.routes {
		vt := s.problem.VehicleTypes[route.VehicleType()]
		if len(vt.ReloadDepots) == 0 || route.NumTrips() >= route.MaxTrips() {
			continue
		}
		if !s.vehicleAllowsClient(route.VehicleType(), u) {
			continue
		}
		last := route.Size() - 1
		s.InsertDepot(route, last, vt.ReloadDepots[0])
		s.InsertClient(route, last+1, u)
		return true
	}
	return false
}
