package model

import (
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&RobotInfo{},
	&Mission{},
	&NavigationLeg{},
	&TelemetryState{},
	&RobotPerformance{},
}

// DatabaseModelsSQLite mirrors DatabaseModels for the local SQLite fallback.
var DatabaseModelsSQLite = []interface{}{
	&RobotInfo{},
	&Mission{},
	&NavigationLeg{},
	&TelemetryState{},
	&RobotPerformance{},
}

////////////////////////
// SYSTEM MODELS
////////////////////////

// RobotInfo describes the robot unit this database belongs to
type RobotInfo struct {
	gorm.Model
	RobotID          string  `json:"robotId" gorm:"size:64;uniqueIndex"`
	FleetName        string  `json:"fleetName" gorm:"size:127"`
	FirmwareVersion  string  `json:"firmwareVersion" gorm:"size:64"`
	HopperCapacityKg float64 `json:"hopperCapacityKg" gorm:"default:500"`
}

func (*RobotInfo) TableName() string {
	return "robot_infos"
}

// RobotPerformance is the model for heartbeat performance samples
type RobotPerformance struct {
	Time                time.Time `json:"time" gorm:"type:timestamptz;index:idx_time"`
	MissionID           uint      `json:"missionId" gorm:"index:idx_robotperformance_mission_id"`
	Mission             Mission   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:MissionID;"`
	TelemetryQueueLen   uint16    `json:"telemetryQueueLen"`
	LastWriteDurationMs float32   `json:"lastWriteDurationMs"`
}

func (*RobotPerformance) TableName() string {
	return "robot_performances"
}

////////////////////////
// MISSION MODELS
////////////////////////

// Mission is one executed (or aborted) harvest mission
type Mission struct {
	gorm.Model
	CommandID   string    `json:"commandId" gorm:"size:64;uniqueIndex"`
	RobotID     string    `json:"robotId" gorm:"size:64;index:idx_mission_robot_id"`
	MissionName string    `json:"missionId" gorm:"size:64"`
	ZoneID      string    `json:"zoneId" gorm:"size:64"`
	ZoneName    string    `json:"zoneName" gorm:"size:127"`
	ZoneAreaHa  float64   `json:"zoneAreaHa"`
	StartTime   time.Time `json:"missionStart" gorm:"type:timestamptz;index:idx_mission_start"`
	EndTime     time.Time `json:"missionEnd" gorm:"type:timestamptz"`
	Status      string    `json:"status" gorm:"size:32"`
	AbortReason string    `json:"abortReason" gorm:"size:255"`

	AreaHarvestedHa   float64 `json:"areaHarvestedHa"`
	EstimatedYieldT   float64 `json:"estimatedYieldT"`
	TotalDistanceM    float64 `json:"totalDistanceM"`
	TotalDurationS    float64 `json:"totalDurationS"`
	AverageVelocityMS float64 `json:"averageVelocityMS"`
	FuelUsedPercent   float64 `json:"fuelUsedPercent"`
	BatteryUsedV      float64 `json:"batteryUsedV"`
	HopperFillPercent float64 `json:"hopperFillPercent"`

	WaypointsPlanned   int `json:"waypointsPlanned"`
	WaypointsNavigated int `json:"waypointsNavigated"`

	// Planned route as a linestring of waypoint coordinates
	Route geom.LineString `json:"route"`

	NavigationLegs  []NavigationLeg
	TelemetryStates []TelemetryState
}

func (*Mission) TableName() string {
	return "missions"
}

// NavigationLeg is one completed segment of a mission's route
type NavigationLeg struct {
	ID        uint    `json:"id" gorm:"primarykey;autoIncrement;"`
	MissionID uint    `json:"missionId" gorm:"index:idx_navigationleg_mission_id"`
	Mission   Mission `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:MissionID;"`

	WaypointID       string     `json:"waypointId" gorm:"size:32"`
	DistanceM        float64    `json:"distanceM"`
	BearingDeg       float64    `json:"bearingDeg"`
	TargetVelocityMS float64    `json:"targetVelocityMS"`
	EstimatedTimeS   float64    `json:"estimatedTimeS"`
	Action           string     `json:"action" gorm:"size:32"`
	Arrival          geom.Point `json:"arrival"` // lon/lat of the waypoint reached
}

func (*NavigationLeg) TableName() string {
	return "navigation_legs"
}

// TelemetryState is one telemetry sample emitted on waypoint arrival
type TelemetryState struct {
	ID        uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time      time.Time `json:"time" gorm:"type:timestamptz;"`
	MissionID uint      `json:"missionId" gorm:"index:idx_telemetrystate_mission_id"`
	Mission   Mission   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:MissionID;"`
	Seq       uint      `json:"seq" gorm:"index:idx_telemetrystate_seq"`

	Position          geom.Point `json:"position"` // lon/lat
	HeadingDeg        float64    `json:"headingDeg" gorm:"default:0"`
	VelocityMS        float64    `json:"velocityMS" gorm:"default:0"`
	FuelPercent       float64    `json:"fuelPercent"`
	BatteryVoltage    float64    `json:"batteryVoltage"`
	HopperFillPercent float64    `json:"hopperFillPercent"`
	HarvestRateKgMin  float64    `json:"harvestRateKgMin"`
	Status            string     `json:"status" gorm:"size:32"`
	WaypointID        string     `json:"waypointId" gorm:"size:32"`
	Action            string     `json:"action" gorm:"size:32"`

	// Raw sensor snapshot captured with the sample
	Sensors datatypes.JSON `json:"sensors" gorm:"type:jsonb;default:'{}'"`
}

func (*TelemetryState) TableName() string {
	return "telemetry_states"
}
