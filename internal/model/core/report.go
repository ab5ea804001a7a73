// internal/model/core/report.go
package core

import "time"

// ConsumableDeltas are the start-to-end changes of each consumable
type ConsumableDeltas struct {
	FuelPercent       float64 `json:"fuel_percent"`
	BatteryVoltage    float64 `json:"battery_voltage_v"`
	HopperFillPercent float64 `json:"hopper_fill_percent"`
}

// MissionReport is the structured summary built once when a run ends.
// Read-only after construction.
type MissionReport struct {
	CommandID          string           `json:"command_id"`
	RobotID            string           `json:"robot_id"`
	MissionID          string           `json:"mission_id"`
	Status             Status           `json:"status"`
	AbortReason        string           `json:"abort_reason,omitempty"`
	StartedAt          time.Time        `json:"started_at"`
	FinishedAt         time.Time        `json:"finished_at"`
	AreaHarvestedHa    float64          `json:"area_harvested_ha"`
	EstimatedYieldT    float64          `json:"estimated_yield_tons"`
	TotalDistanceM     float64          `json:"total_distance_m"`
	TotalDurationS     float64          `json:"total_duration_s"`
	AverageVelocityMS  float64          `json:"average_velocity_m_s"`
	Consumables        ConsumableDeltas `json:"consumable_deltas"`
	FinalState         RobotState       `json:"final_state"`
	TelemetryRecords   int              `json:"telemetry_records"`
	WaypointsNavigated int              `json:"waypoints_navigated"`
	WaypointsPlanned   int              `json:"waypoints_planned"`
	TelemetryLocation  string           `json:"telemetry_location,omitempty"`
}
