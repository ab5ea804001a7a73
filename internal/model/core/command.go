// internal/model/core/command.go
package core

import "time"

// Position is a WGS84 coordinate pair
type Position struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Action is the operation a robot performs on arrival at a waypoint
type Action string

const (
	ActionStartHarvest Action = "start_harvest"
	ActionHarvest      Action = "harvest"
	ActionTurnAround   Action = "turn_around"
	ActionEndHarvest   Action = "end_harvest"
	ActionMove         Action = "move"
)

// Valid reports whether a is a known action
func (a Action) Valid() bool {
	switch a {
	case ActionStartHarvest, ActionHarvest, ActionTurnAround, ActionEndHarvest, ActionMove:
		return true
	}
	return false
}

// Waypoint is one target coordinate in a navigation plan
type Waypoint struct {
	ID       string  `json:"waypoint_id"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Velocity float64 `json:"velocity_m_s"`
	Action   Action  `json:"action"`
}

// ZoneAssignment identifies the field zone a mission covers.
// Boundary is an optional closed ring of vertices used to cross-check AreaHa.
type ZoneAssignment struct {
	ZoneID   string     `json:"zone_id"`
	ZoneName string     `json:"zone_name"`
	AreaHa   float64    `json:"area_ha"`
	Boundary []Position `json:"boundary,omitempty"`
}

// NavigationPlan holds the ordered waypoint route
type NavigationPlan struct {
	StartPosition Position   `json:"start_position"`
	Waypoints     []Waypoint `json:"waypoints"`
	PathLengthM   float64    `json:"path_length_meters,omitempty"`
}

// HarvestParameters configure the cutting and conveying hardware
type HarvestParameters struct {
	CuttingHeightCm float64 `json:"cutting_height_cm"`
	BladeSpeedRPM   float64 `json:"blade_speed_rpm"`
	ConveyorSpeed   float64 `json:"conveyor_speed_m_s"`
	HopperCapacity  float64 `json:"hopper_capacity_kg"`
}

// CoordinationRules are fleet-level constraints relayed with the command
type CoordinationRules struct {
	MinDistanceM      float64 `json:"min_distance_m"`
	HeartbeatInterval float64 `json:"heartbeat_interval_s"`
}

// SafetyLimits are the mission-supplied thresholds that gate mission start
type SafetyLimits struct {
	MaxVelocity       float64 `json:"max_velocity_m_s"`
	MinFuelPercent    float64 `json:"min_fuel_percent"`
	MinBatteryVoltage float64 `json:"min_battery_voltage_v"`
}

// ExpectedResults are the fleet core's estimates for the mission,
// echoed back in the final report
type ExpectedResults struct {
	AreaToHarvestHa   float64 `json:"area_to_harvest_ha"`
	EstimatedYieldT   float64 `json:"estimated_yield_tons"`
	EstimatedDuration float64 `json:"estimated_duration_hours"`
}

// MissionCommand is the full mission document issued by the fleet core.
// It is immutable once decoded.
type MissionCommand struct {
	CommandID         string            `json:"command_id"`
	RobotID           string            `json:"robot_id"`
	MissionID         string            `json:"mission_id"`
	IssuedAt          time.Time         `json:"issued_at,omitempty"`
	ZoneAssignment    ZoneAssignment    `json:"zone_assignment"`
	NavigationPlan    NavigationPlan    `json:"navigation_plan"`
	HarvestParameters HarvestParameters `json:"harvest_parameters"`
	CoordinationRules CoordinationRules `json:"coordination_rules"`
	SafetyLimits      SafetyLimits      `json:"safety_limits"`
	ExpectedResults   *ExpectedResults  `json:"expected_results,omitempty"`
}
