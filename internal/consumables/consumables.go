// Package consumables models fuel, battery, and hopper changes as a
// pure function of elapsed simulated time. Fuel and battery only ever
// decrease; hopper fill only ever increases, saturating at 100 %.
package consumables

import (
	"errors"
	"math"

	"github.com/canaswarm/microbot/internal/model/core"
)

// ErrInvalidElapsedTime is returned when the elapsed time is negative.
var ErrInvalidElapsedTime = errors.New("elapsed time must not be negative")

// Policy constants. Fuel burn is calibrated against the reference
// robot: a ~50 s waypoint leg burns about 0.5 % of tank.
const (
	// FuelBurnPerSecond is the fuel burn in percent of tank per second
	// while the robot is moving, independent of action.
	FuelBurnPerSecond = 0.01

	// BatteryDrainPerSecond models avionics and control draw in volts
	// per second.
	BatteryDrainPerSecond = 0.0005

	// DefaultHopperCapacityKg is the reference hopper capacity used
	// when the mission command does not specify one.
	DefaultHopperCapacityKg = 500

	// DefaultHarvestRateKgMin is the nominal harvest throughput while
	// the cutting hardware is engaged.
	DefaultHarvestRateKgMin = 180
)

// Apply returns the consumable state after elapsedS seconds of motion.
// Hopper fill accrues from state.HarvestRateKgMin, which the navigation
// executor sets to a non-zero rate only while the harvesting sub-state
// is active. Once the hopper reaches 100 % further harvesting has no
// effect: saturation, not an error.
func Apply(state core.RobotState, elapsedS float64, params core.HarvestParameters) (core.RobotState, error) {
	if elapsedS < 0 || math.IsNaN(elapsedS) {
		return state, ErrInvalidElapsedTime
	}

	state.FuelPercent = math.Max(0, state.FuelPercent-FuelBurnPerSecond*elapsedS)
	state.BatteryVoltage = math.Max(0, state.BatteryVoltage-BatteryDrainPerSecond*elapsedS)

	if state.HarvestRateKgMin > 0 {
		capacity := params.HopperCapacity
		if capacity <= 0 {
			capacity = DefaultHopperCapacityKg
		}
		harvestedKg := state.HarvestRateKgMin / 60 * elapsedS
		state.HopperFillPercent = math.Min(100, state.HopperFillPercent+harvestedKg/capacity*100)
	}

	return state, nil
}
