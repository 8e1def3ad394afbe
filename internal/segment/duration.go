package segment

import "github.com/aryanbinazir/vrpsolve/internal/vrpcore"

// Duration is the composable duration/time-window summary for a
// contiguous span of nodes within one trip, profile-specific because
// travel time depends on which duration matrix a route uses.
//
// A segment represents, for any hypothetical time t at which the vehicle
// becomes available to start the span, a piecewise-linear function of
// actual elapsed duration and accrued time warp. Representing that
// function exactly as four scalars (Duration, TimeWarp, StartEarly,
// StartLate) — rather than folding the node list — is what makes every
// delta-cost evaluation in this package O(1): see Merge.
type Duration struct {
	Duration    vrpcore.Duration // current-trip travel+wait+service, net of warp
	TimeWarp    vrpcore.Duration // current-trip minimum unavoidable time warp
	StartEarly  vrpcore.Duration // earliest start time that attains the above
	StartLate   vrpcore.Duration // latest start time before warp would grow further
	ReleaseTime vrpcore.Duration // latest release time among spanned clients

	CumDuration vrpcore.Duration // duration of already-finalised earlier trips
	CumTimeWarp vrpcore.Duration // time warp of already-finalised earlier trips
	PrevEndLate vrpcore.Duration // StartLate of the trip finalised just before this one
}

// NodeDuration builds the one-node identity segment for a location with
// the given time window, service duration and release time.
func NodeDuration(twEarly, twLate, service, release vrpcore.Duration) Duration {
	return Duration{
		Duration:    service,
		TimeWarp:    0,
		StartEarly:  twEarly,
		StartLate:   twLate,
		ReleaseTime: release,
	}
}

// Merge implements the associative (non-commutative) merge law of §3: it
// computes the merged segment's duration, time warp and start-time window
// from `first`, `second` and the travel duration of the connecting edge.
//
// This is the standard VRPTW segment-composition technique (Vidal et al.,
// 2013): `deltaWaitTime` is the forced wait second's window imposes on an
// otherwise-idle arrival, and `deltaTimeWarp` is the extra warp incurred
// when first's earliest-possible exit still arrives after second's
// deadline. Both terms fold into the merged start-time window so that a
// later merge never needs to "see inside" first or second again.
func Merge(edge vrpcore.Duration, first, second Duration) Duration {
	delta := first.Duration - first.TimeWarp + edge

	deltaWaitTime := second.StartEarly - delta - first.StartLate
	if deltaWaitTime < 0 {
		deltaWaitTime = 0
	}

	deltaTimeWarp := first.StartEarly + delta - second.StartLate
	if deltaTimeWarp < 0 {
		deltaTimeWarp = 0
	}

	startEarly := second.StartEarly - delta
	if first.StartEarly > startEarly {
		startEarly = first.StartEarly
	}
	startEarly -= deltaWaitTime

	startLate := second.StartLate - delta
	if first.StartLate < startLate {
		startLate = first.StartLate
	}
	startLate += deltaTimeWarp

	release := first.ReleaseTime
	if second.ReleaseTime > release {
		release = second.ReleaseTime
	}

	return Duration{
		Duration:    first.Duration + second.Duration + edge + deltaWaitTime,
		TimeWarp:    first.TimeWarp + second.TimeWarp + deltaTimeWarp,
		StartEarly:  startEarly,
		StartLate:   startLate,
		ReleaseTime: release,
		CumDuration: first.CumDuration + second.CumDuration,
		CumTimeWarp: first.CumTimeWarp + second.CumTimeWarp,
		PrevEndLate: second.PrevEndLate,
	}
}

// TotalTimeWarp returns the segment's time warp, optionally adding the excess
// beyond a vehicle's max_duration. Route callers must consistently pass
// (or consistently omit) maxDuration everywhere a cached aggregate is
// compared against a freshly computed one — §9's second open question.
// This module picks "always bounded": TotalTimeWarp always folds in the
// max_duration excess, and Route stores the already-bounded value.
func (d Duration) TotalTimeWarp(totalDuration vrpcore.Duration, maxDuration vrpcore.Duration) vrpcore.Duration {
	warp := d.TimeWarp + d.CumTimeWarp
	if maxDuration > 0 {
		warp += vrpcore.ExcessOf(totalDuration, maxDuration)
	}
	return warp
}

// FinaliseBack folds the current trip's duration and time warp into the
// cumulative fields and resets the current-trip window to an identity
// ready to merge with the reload depot (or end depot) node that follows.
// Used at trip boundaries, mirroring LoadSegment.Finalise.
func (d Duration) FinaliseBack() Duration {
	return Duration{
		Duration:    0,
		TimeWarp:    0,
		StartEarly:  0,
		StartLate:   vrpcore.Duration(vrpcore.Unreachable),
		ReleaseTime: d.ReleaseTime,
		CumDuration: d.CumDuration + d.Duration,
		CumTimeWarp: d.CumTimeWarp + d.TimeWarp,
		PrevEndLate: d.StartLate,
	}
}

// TotalDuration returns the total elapsed duration represented by the
// segment, including previously finalised trips.
func (d Duration) TotalDuration() vrpcore.Duration {
	return d.Duration + d.CumDuration
}
