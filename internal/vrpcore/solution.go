package vrpcore

// Trip is a client sequence between two depot stops within a route.
// ReloadDepot is the location index of the reload stop immediately
// preceding this trip's first client; it is -1 for a route's first trip,
// which instead begins at the vehicle's start depot.
type Trip struct {
	Clients     []int
	ReloadDepot int
}

// RouteResult is one vehicle's full tour, as surfaced in the result
// Solution value. It holds derived aggregates for convenience, but every
// field here is fully recomputable from VehicleIdx, Profile and Trips
// against the ProblemData that produced it.
type RouteResult struct {
	VehicleIdx  int
	VehicleType string
	Profile     int
	Trips       []Trip

	Distance       Distance
	Duration       Duration
	TimeWarp       Duration
	Overtime       Duration
	ExcessDistance Distance
	Load           []Load
	ExcessLoad     []Load
}

// NumClients returns the total number of client visits on the route.
func (r *RouteResult) NumClients() int {
	n := 0
	for _, t := range r.Trips {
		n += len(t.Clients)
	}
	return n
}

// IsFeasible reports whether the route violates no constraint.
func (r *RouteResult) IsFeasible() bool {
	if r.TimeWarp != 0 || r.Overtime != 0 || r.ExcessDistance != 0 {
		return false
	}
	for _, e := range r.ExcessLoad {
		if e != 0 {
			return false
		}
	}
	return true
}

// Solution is the immutable result of a solve: a set of routes plus one
// list, Unassigned, of every client left off them, required or optional.
type Solution struct {
	Routes     []RouteResult
	Unassigned []int // client location indices not on any route

	Distance       Distance
	Duration       Duration
	TimeWarp       Duration
	PrizeCollected Cost
	NumRoutes      int
}

// IsFeasible reports whether every route is feasible; it does not look at
// Unassigned. Callers that also need "no required client
// missing" semantics should cross-reference Unassigned against
// ProblemData.Locations[i].Required themselves, since Solution carries no
// back-reference to ProblemData by design (§3: search views own nothing
// the immutable value needs at read time).
func (s *Solution) IsFeasible() bool {
	for i := range s.Routes {
		if !s.Routes[i].IsFeasible() {
			return false
		}
	}
	return true
}
