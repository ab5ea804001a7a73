package nav

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canaswarm/microbot/internal/consumables"
	"github.com/canaswarm/microbot/internal/geo"
	"github.com/canaswarm/microbot/internal/model/core"
)

var testLimits = core.SafetyLimits{
	MaxVelocity:       2.0,
	MinFuelPercent:    20,
	MinBatteryVoltage: 22.0,
}

var testParams = core.HarvestParameters{
	CuttingHeightCm: 15,
	BladeSpeedRPM:   1200,
	ConveyorSpeed:   1.5,
	HopperCapacity:  500,
}

// Reference field route: three 61.5 m east-west rows joined by two
// 33.4 m headland moves plus a final partial row, ~237 m in total.
func fieldRoute() []core.Waypoint {
	return []core.Waypoint{
		{ID: "WP-001", Lat: -22.7145, Lon: -47.6495, Velocity: 1.5, Action: core.ActionStartHarvest},
		{ID: "WP-002", Lat: -22.7148, Lon: -47.6495, Velocity: 1.2, Action: core.ActionHarvest},
		{ID: "WP-003", Lat: -22.7148, Lon: -47.6489, Velocity: 1.2, Action: core.ActionHarvest},
		{ID: "WP-004", Lat: -22.7151, Lon: -47.6489, Velocity: 1.0, Action: core.ActionTurnAround},
		{ID: "WP-005", Lat: -22.7151, Lon: -47.64936, Velocity: 1.2, Action: core.ActionEndHarvest},
	}
}

func startState() core.RobotState {
	return core.NewRobotState(core.Position{Lat: -22.7145, Lon: -47.6489})
}

func TestStepFirstWaypoint(t *testing.T) {
	exec := NewExecutor()
	state := startState()

	leg, err := exec.Step(&state, fieldRoute()[0], testLimits, testParams)
	require.NoError(t, err)

	assert.Equal(t, StateNavigating, exec.State())
	assert.InDelta(t, 61.5, leg.DistanceM, 61.5*0.01)
	assert.InDelta(t, 270.0, leg.BearingDeg, 1.0)
	assert.InDelta(t, leg.DistanceM/1.5, leg.EstimatedTimeS, 1e-9)
	assert.Equal(t, leg.ArrivalPosition, state.Position)
	assert.Equal(t, core.StatusHarvesting, state.Status)
	assert.True(t, exec.Harvesting())
}

func TestStepVelocityLimitNotClamped(t *testing.T) {
	exec := NewExecutor()
	state := startState()

	wp := fieldRoute()[0]
	wp.Velocity = 2.5

	before := state
	_, err := exec.Step(&state, wp, testLimits, testParams)

	var limitErr *VelocityLimitError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, "WP-001", limitErr.WaypointID)
	assert.Equal(t, 2.5, limitErr.Requested)
	assert.Equal(t, 2.0, limitErr.Limit)
	assert.Equal(t, before, state, "failed step must not mutate robot state")
}

func TestStepInvalidCoordinates(t *testing.T) {
	exec := NewExecutor()
	state := startState()

	wp := fieldRoute()[0]
	wp.Lat = 123.4

	_, err := exec.Step(&state, wp, testLimits, testParams)
	assert.ErrorIs(t, err, geo.ErrInvalidCoordinates)
}

func TestTotalsAreLegSums(t *testing.T) {
	exec := NewExecutor()
	state := startState()

	var legSum float64
	for _, wp := range fieldRoute() {
		leg, err := exec.Step(&state, wp, testLimits, testParams)
		require.NoError(t, err)
		legSum += leg.DistanceM
	}

	assert.InDelta(t, legSum, exec.TotalDistanceM(), 1e-9)
	assert.InDelta(t, 236.8, exec.TotalDistanceM(), 236.8*0.01)
	assert.InDelta(t, legSum, state.DistanceTraveled, 1e-9)

	// Leg sums exceed the straight-line start-to-end distance.
	direct, err := geo.Distance(
		core.Position{Lat: -22.7145, Lon: -47.6489},
		core.Position{Lat: -22.7151, Lon: -47.64936},
	)
	require.NoError(t, err)
	assert.Greater(t, exec.TotalDistanceM(), direct)
}

func TestAverageVelocity(t *testing.T) {
	exec := NewExecutor()
	state := startState()

	for _, wp := range fieldRoute() {
		_, err := exec.Step(&state, wp, testLimits, testParams)
		require.NoError(t, err)
	}

	want := exec.TotalDistanceM() / exec.TotalTimeS()
	assert.InDelta(t, want, exec.AverageVelocityMS(), 1e-9)
}

func TestAverageVelocityZeroTime(t *testing.T) {
	exec := NewExecutor()
	assert.Zero(t, exec.AverageVelocityMS())

	// A zero-velocity waypoint contributes zero time, not a panic.
	state := startState()
	wp := fieldRoute()[0]
	wp.Velocity = 0
	leg, err := exec.Step(&state, wp, testLimits, testParams)
	require.NoError(t, err)
	assert.Zero(t, leg.EstimatedTimeS)
	assert.Zero(t, exec.AverageVelocityMS())
}

func TestHarvestingSubState(t *testing.T) {
	exec := NewExecutor()
	state := startState()
	route := fieldRoute()

	// start_harvest through turn_around accrue hopper fill.
	for i, wp := range route[:4] {
		before := state.HopperFillPercent
		_, err := exec.Step(&state, wp, testLimits, testParams)
		require.NoError(t, err)
		assert.True(t, exec.Harvesting(), "leg %d", i)
		assert.Greater(t, state.HopperFillPercent, before, "leg %d", i)
		assert.Equal(t, core.StatusHarvesting, state.Status)
	}

	// end_harvest leaves the harvesting sub-state; no further accrual.
	before := state.HopperFillPercent
	_, err := exec.Step(&state, route[4], testLimits, testParams)
	require.NoError(t, err)
	assert.False(t, exec.Harvesting())
	assert.Equal(t, before, state.HopperFillPercent)
	assert.Equal(t, core.StatusNavigating, state.Status)
	assert.Zero(t, state.HarvestRateKgMin)
}

func TestConsumablesMonotoneAcrossRun(t *testing.T) {
	exec := NewExecutor()
	state := startState()

	fuel, battery := state.FuelPercent, state.BatteryVoltage
	for _, wp := range fieldRoute() {
		_, err := exec.Step(&state, wp, testLimits, testParams)
		require.NoError(t, err)
		assert.LessOrEqual(t, state.FuelPercent, fuel)
		assert.LessOrEqual(t, state.BatteryVoltage, battery)
		fuel, battery = state.FuelPercent, state.BatteryVoltage
	}
	assert.Less(t, state.FuelPercent, 100.0)
}

func TestCompleteAndFault(t *testing.T) {
	exec := NewExecutor()
	state := startState()

	_, err := exec.Step(&state, fieldRoute()[0], testLimits, testParams)
	require.NoError(t, err)

	exec.Complete(&state)
	assert.Equal(t, StateCompleted, exec.State())
	assert.Equal(t, core.StatusCompleted, state.Status)
	assert.Zero(t, state.VelocityMS)

	_, err = exec.Step(&state, fieldRoute()[1], testLimits, testParams)
	assert.ErrorIs(t, err, ErrNotActive)

	faulted := NewExecutor()
	faulted.Fault()
	_, err = faulted.Step(&state, fieldRoute()[0], testLimits, testParams)
	assert.ErrorIs(t, err, ErrNotActive)
}

func TestTurnAroundKeepsHeadingSemantics(t *testing.T) {
	exec := NewExecutor()
	state := startState()
	route := fieldRoute()

	for _, wp := range route[:3] {
		_, err := exec.Step(&state, wp, testLimits, testParams)
		require.NoError(t, err)
	}

	leg, err := exec.Step(&state, route[3], testLimits, testParams)
	require.NoError(t, err)
	assert.Equal(t, core.ActionTurnAround, leg.Action)
	assert.InDelta(t, 180.0, state.HeadingDeg, 1.0)
}

func TestHarvestRateWhileHarvesting(t *testing.T) {
	exec := NewExecutor()
	state := startState()

	_, err := exec.Step(&state, fieldRoute()[0], testLimits, testParams)
	require.NoError(t, err)
	assert.Equal(t, float64(consumables.DefaultHarvestRateKgMin), state.HarvestRateKgMin)
}
