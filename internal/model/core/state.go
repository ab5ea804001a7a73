// internal/model/core/state.go
package core

// Status is the lifecycle state of a mission run
type Status string

const (
	StatusIdle       Status = "idle"
	StatusNavigating Status = "navigating"
	StatusHarvesting Status = "harvesting"
	StatusCompleted  Status = "mission_completed"
	StatusAborted    Status = "mission_aborted"
	StatusFaulted    Status = "mission_faulted"
)

// Active reports whether the mission run is still in progress
func (s Status) Active() bool {
	return s == StatusNavigating || s == StatusHarvesting
}

// Terminal reports whether the status is an end state
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusAborted || s == StatusFaulted
}

// RobotState is the mutable robot state owned by the engine for one run.
// Fuel and battery never increase during a run; hopper fill never
// decreases while harvesting; DistanceTraveled is monotonic.
type RobotState struct {
	Position          Position `json:"position"`
	HeadingDeg        float64  `json:"heading_deg"`
	VelocityMS        float64  `json:"velocity_m_s"`
	FuelPercent       float64  `json:"fuel_level_percent"`
	BatteryVoltage    float64  `json:"battery_voltage_v"`
	HopperFillPercent float64  `json:"hopper_fill_percent"`
	HarvestRateKgMin  float64  `json:"harvest_rate_kg_min"`
	DistanceTraveled  float64  `json:"distance_traveled_m"`
	Status            Status   `json:"status"`
}

// NewRobotState returns the pre-mission state of a fully serviced robot
func NewRobotState(start Position) RobotState {
	return RobotState{
		Position:       start,
		FuelPercent:    100,
		BatteryVoltage: 24.5,
		Status:         StatusIdle,
	}
}
