package vrpcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func minimalValidProblem() *ProblemData {
	return &ProblemData{
		NumDepots: 1, NumClients: 1,
		NumProfiles: 1,
		Locations:   []Location{{}, {}},
		Distances:   []DistanceMatrix{{N: 2, Cells: []Distance{0, 1, 1, 0}}},
		Durations:   []DurationMatrix{{N: 2, Cells: []Duration{0, 1, 1, 0}}},
		VehicleTypes: []VehicleType{
			{Name: "veh", NumAvailable: 1, Capacity: []Load{}},
		},
	}
}

func TestValidateAcceptsMinimalProblem(t *testing.T) {
	p := minimalValidProblem()
	assert.NoError(t, p.Validate())
}

func TestValidateRejectsLocationCountMismatch(t *testing.T) {
	p := minimalValidProblem()
	p.Locations = p.Locations[:1]
	assert.Error(t, p.Validate())
}

func TestValidateRejectsZeroProfiles(t *testing.T) {
	p := minimalValidProblem()
	p.NumProfiles = 0
	assert.Error(t, p.Validate())
}

func TestValidateRejectsMatrixProfileCountMismatch(t *testing.T) {
	p := minimalValidProblem()
	p.Distances = append(p.Distances, p.Distances[0])
	assert.Error(t, p.Validate())
}

func TestValidateRejectsWrongMatrixShape(t *testing.T) {
	p := minimalValidProblem()
	p.Distances[0].N = 3
	assert.Error(t, p.Validate())
}

func TestValidateRejectsCapacityDimensionMismatch(t *testing.T) {
	p := minimalValidProblem()
	p.NumLoadDimensions = 2
	p.VehicleTypes[0].Capacity = []Load{10}
	assert.Error(t, p.Validate())
}

func TestValidateRejectsUnknownProfileReference(t *testing.T) {
	p := minimalValidProblem()
	p.VehicleTypes[0].Profile = 5
	assert.Error(t, p.Validate())
}

func TestNumLocationsAndVehicles(t *testing.T) {
	p := minimalValidProblem()
	p.VehicleTypes = append(p.VehicleTypes, VehicleType{NumAvailable: 2, Capacity: []Load{}})
	assert.Equal(t, 2, p.NumLocations())
	assert.Equal(t, 3, p.NumVehicles())
}

func TestVehicleTypeIndexOf(t *testing.T) {
	p := minimalValidProblem()
	p.VehicleTypes = []VehicleType{
		{NumAvailable: 2, Capacity: []Load{}},
		{NumAvailable: 3, Capacity: []Load{}},
	}

	typeIdx, within := p.VehicleTypeIndexOf(0)
	assert.Equal(t, 0, typeIdx)
	assert.Equal(t, 0, within)

	typeIdx, within = p.VehicleTypeIndexOf(2)
	assert.Equal(t, 1, typeIdx)
	assert.Equal(t, 0, within)

	typeIdx, within = p.VehicleTypeIndexOf(4)
	assert.Equal(t, 1, typeIdx)
	assert.Equal(t, 2, within)

	typeIdx, _ = p.VehicleTypeIndexOf(99)
	assert.Equal(t, -1, typeIdx)
}

func TestIsDepotIsClient(t *testing.T) {
	p := minimalValidProblem()
	assert.True(t, p.IsDepot(0))
	assert.False(t, p.IsClient(0))
	assert.False(t, p.IsDepot(1))
	assert.True(t, p.IsClient(1))
}

func TestMatrixGet(t *testing.T) {
	m := DistanceMatrix{N: 2, Cells: []Distance{0, 7, 9, 0}}
	assert.Equal(t, Distance(7), m.Get(0, 1))
	assert.Equal(t, Distance(9), m.Get(1, 0))
}
