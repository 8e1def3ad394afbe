package vrpcore

import "github.com/pkg/errors"

// Location describes one depot or client row, indexed 0..num_depots for
// depots and num_depots..num_locations-1 for clients.
type Location struct {
	X               float64
	Y               float64
	TWEarly         Duration `json:"tw_early,omitempty"`
	TWLate          Duration `json:"tw_late,omitempty"`
	ServiceDuration Duration `json:"service_duration,omitempty"`
	ReleaseTime     Duration `json:"release_time,omitempty"`
	Prize           Cost     `json:"prize,omitempty"`
	Required        bool     `json:"required,omitempty"`
	GroupID         int      `json:"group_id"` // -1 when the location belongs to no client group
	Delivery        []Load   `json:"delivery,omitempty"`
	Pickup          []Load   `json:"pickup,omitempty"`
}

// VehicleType describes one homogeneous fleet of vehicles. Several types
// sharing the same Name are treated as the same physical vehicle operating
// across different shifts (see SameVehicleGroup).
type VehicleType struct {
	Name             string
	NumAvailable     int   `json:"num_available"`
	Capacity         []Load
	StartDepot       int     `json:"start_depot"`
	EndDepot         int     `json:"end_depot"`
	ReloadDepots     []int   `json:"reload_depots,omitempty"`
	MaxReloads       int     `json:"max_reloads,omitempty"`
	ShiftDuration    Duration `json:"shift_duration,omitempty"`
	MaxDuration      Duration `json:"max_duration,omitempty"`
	MaxDistance      Distance `json:"max_distance,omitempty"`
	TWEarly          Duration `json:"tw_early,omitempty"`
	TWLate           Duration `json:"tw_late,omitempty"`
	FixedCost        Cost     `json:"fixed_cost,omitempty"`
	UnitDistanceCost Cost     `json:"unit_distance_cost,omitempty"`
	UnitDurationCost Cost     `json:"unit_duration_cost,omitempty"`
	UnitOvertimeCost Cost     `json:"unit_overtime_cost,omitempty"`
	Profile          int
	AllowedClients   []int `json:"allowed_clients,omitempty"` // nil means "all clients allowed"
}

// ClientGroup is a set of clients with a shared optionality constraint.
type ClientGroup struct {
	Clients           []int
	Required          bool
	MutuallyExclusive bool `json:"mutually_exclusive"`
}

// SameVehicleGroup is a set of clients whose visited members must end up on
// the same route (or on routes whose vehicle types share a Name).
type SameVehicleGroup struct {
	Clients []int
}

// ProblemData is the complete, immutable input to a solve. It is built and
// validated by an external model builder; the core only reads it.
type ProblemData struct {
	NumDepots  int `json:"num_depots"`
	NumClients int `json:"num_clients"`

	Locations []Location // length NumDepots+NumClients

	NumProfiles int `json:"num_profiles"`
	// Distances[p] and Durations[p] are NumLocations x NumLocations,
	// row-major, one matrix per profile.
	Distances []DistanceMatrix
	Durations []DurationMatrix

	VehicleTypes      []VehicleType      `json:"vehicle_types"`
	ClientGroups      []ClientGroup      `json:"client_groups,omitempty"`
	SameVehicleGroups []SameVehicleGroup `json:"same_vehicle_groups,omitempty"`

	NumLoadDimensions int `json:"num_load_dimensions"`
}

// DistanceMatrix is a flattened NumLocations x NumLocations distance table.
type DistanceMatrix struct {
	N     int        `json:"n"`
	Cells []Distance `json:"cells"`
}

// Get returns the distance from i to j.
func (m DistanceMatrix) Get(i, j int) Distance { return m.Cells[i*m.N+j] }

// DurationMatrix is a flattened NumLocations x NumLocations duration table.
type DurationMatrix struct {
	N     int        `json:"n"`
	Cells []Duration `json:"cells"`
}

// Get returns the duration from i to j.
func (m DurationMatrix) Get(i, j int) Duration { return m.Cells[i*m.N+j] }

// NumLocations is num_depots + num_clients.
func (p *ProblemData) NumLocations() int { return p.NumDepots + p.NumClients }

// NumVehicles is the sum of NumAvailable across all vehicle types.
func (p *ProblemData) NumVehicles() int {
	n := 0
	for _, vt := range p.VehicleTypes {
		n += vt.NumAvailable
	}
	return n
}

// VehicleTypeIndexOf returns which VehicleType a zero-based vehicle index
// belongs to, and the index within that type's block.
func (p *ProblemData) VehicleTypeIndexOf(vehicleIdx int) (typeIdx, withinType int) {
	remaining := vehicleIdx
	for i, vt := range p.VehicleTypes {
		if remaining < vt.NumAvailable {
			return i, remaining
		}
		remaining -= vt.NumAvailable
	}
	return -1, -1
}

// IsDepot reports whether a location index refers to a depot.
func (p *ProblemData) IsDepot(loc int) bool { return loc < p.NumDepots }

// IsClient reports whether a location index refers to a client.
func (p *ProblemData) IsClient(loc int) bool { return loc >= p.NumDepots }

// Validate performs the minimal structural sanity checks the core relies
// on; the external model builder is expected to have already validated the
// richer semantic constraints (capacity feasibility, reachability, etc).
func (p *ProblemData) Validate() error {
	n := p.NumLocations()
	if len(p.Locations) != n {
		return errors.Errorf("vrpcore: expected %d locations, got %d", n, len(p.Locations))
	}
	if p.NumProfiles <= 0 {
		return errors.New("vrpcore: num_profiles must be positive")
	}
	if len(p.Distances) != p.NumProfiles || len(p.Durations) != p.NumProfiles {
		return errors.New("vrpcore: distance/duration matrix count must equal num_profiles")
	}
	for i, m := range p.Distances {
		if m.N != n || len(m.Cells) != n*n {
			return errors.Errorf("vrpcore: distance matrix %d has wrong shape", i)
		}
	}
	for i, m := range p.Durations {
		if m.N != n || len(m.Cells) != n*n {
			return errors.Errorf("vrpcore: duration matrix %d has wrong shape", i)
		}
	}
	for _, vt := range p.VehicleTypes {
		if len(vt.Capacity) != p.NumLoadDimensions {
			return errors.Errorf("vrpcore: vehicle type %q capacity dimension mismatch", vt.Name)
		}
		if vt.Profile < 0 || vt.Profile >= p.NumProfiles {
			return errors.Errorf("vrpcore: vehicle type %q references unknown profile %d", vt.Name, vt.Profile)
		}
	}
	return nil
}
