// Package segment implements the composable route summaries described in
// spec.md §3: LoadSegment and DurationSegment. Both types support an
// associative (but, for duration, non-commutative) Merge that lets Route
// recompute any prefix/suffix/whole-route aggregate in O(1) once the
// per-node identity segments are known, instead of re-folding the node
// list on every candidate move.
package segment

import "github.com/aryanbinazir/vrpsolve/internal/vrpcore"

// Load is a single load-capacity dimension's composable summary over a
// contiguous span of nodes within one trip.
type Load struct {
	Delivery   vrpcore.Load // total delivered on the segment
	Pickup     vrpcore.Load // total picked up on the segment
	Load       vrpcore.Load // max load encountered while traversing the segment
	ExcessLoad vrpcore.Load // excess already realised on earlier finalised trips
}

// EmptyLoad is the identity element: merging it with any segment (on
// either side) returns that segment unchanged.
var EmptyLoad = Load{}

// NodeLoad builds the one-node identity segment for a client with the
// given delivery/pickup demand (depots pass delivery=pickup=0). Load is
// max(delivery, pickup): in isolation, a node's peak on-vehicle load is
// whichever of "must still be carrying this to drop here" or "now
// carrying this, picked up here" is larger; Merge's invariant that
// load >= pickup always (proved by induction from this base case) is
// what makes merging with the identity element well-defined on either
// side.
func NodeLoad(delivery, pickup vrpcore.Load) Load {
	l := delivery
	if pickup > l {
		l = pickup
	}
	return Load{Delivery: delivery, Pickup: pickup, Load: l}
}

// MergeLoad implements the merge law from spec.md §3:
//
//	delivery   = a.delivery + b.delivery
//	pickup     = a.pickup + b.pickup
//	load       = max(a.load + b.delivery, b.load + a.pickup)
//	excess     = a.excess + b.excess
func MergeLoad(a, b Load) Load {
	return Load{
		Delivery:   a.Delivery + b.Delivery,
		Pickup:     a.Pickup + b.Pickup,
		Load:       vrpcore.MaxLoad(a.Load+b.Delivery, b.Load+a.Pickup),
		ExcessLoad: a.ExcessLoad + b.ExcessLoad,
	}
}

// Finalise moves any current excess (load beyond capacity) into
// ExcessLoad and resets Load/Delivery/Pickup to a fresh trip-boundary
// identity, as performed at a reload depot.
func (l Load) Finalise(capacity vrpcore.Load) Load {
	excess := vrpcore.ExcessOf(l.Load, capacity)
	return Load{
		Delivery:   0,
		Pickup:     0,
		Load:       0,
		ExcessLoad: l.ExcessLoad + excess,
	}
}

// ExcessAgainst returns the total excess load the segment represents
// against the given capacity, including any already-finalised excess from
// earlier trips.
func (l Load) ExcessAgainst(capacity vrpcore.Load) vrpcore.Load {
	return l.ExcessLoad + vrpcore.ExcessOf(l.Load, capacity)
}
