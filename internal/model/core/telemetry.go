// internal/model/core/telemetry.go
package core

import (
	"encoding/json"
	"time"
)

// TelemetryRecord is one immutable snapshot of robot state emitted
// during a run. Records form an append-only sequence ordered by Seq.
type TelemetryRecord struct {
	RobotID           string          `json:"robot_id"`
	MissionID         string          `json:"mission_id"`
	Seq               uint            `json:"seq"`
	Timestamp         time.Time       `json:"timestamp"`
	Position          Position        `json:"position"`
	HeadingDeg        float64         `json:"heading_deg"`
	VelocityMS        float64         `json:"velocity_m_s"`
	FuelPercent       float64         `json:"fuel_level_percent"`
	BatteryVoltage    float64         `json:"battery_voltage_v"`
	HopperFillPercent float64         `json:"hopper_fill_percent"`
	HarvestRateKgMin  float64         `json:"harvest_rate_kg_min"`
	Status            Status          `json:"status"`
	WaypointID        string          `json:"waypoint_id,omitempty"`
	Action            Action          `json:"action,omitempty"`
	Sensors           json.RawMessage `json:"sensors,omitempty"`
}

// NavigationLeg is the result of navigating one waypoint
type NavigationLeg struct {
	WaypointID      string   `json:"waypoint_id"`
	DistanceM       float64  `json:"distance_m"`
	BearingDeg      float64  `json:"bearing_deg"`
	TargetVelocity  float64  `json:"target_velocity_m_s"`
	EstimatedTimeS  float64  `json:"estimated_time_s"`
	Action          Action   `json:"action"`
	ArrivalPosition Position `json:"arrival_position"`
}
