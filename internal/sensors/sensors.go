// Package sensors provides the read interface the engine uses to query
// robot sensors, with a randomized implementation for demo runs and a
// fixed implementation for tests. The engine is oblivious to which one
// it is given.
package sensors

import (
	"context"
	"errors"
	"time"

	"github.com/canaswarm/microbot/internal/model/core"
)

// Sensor names known to the robot.
const (
	SensorGPS            = "gps"
	SensorIMU            = "imu"
	SensorLidar          = "lidar"
	SensorCameraFront    = "camera_front"
	SensorCameraRear     = "camera_rear"
	SensorFuel           = "fuel_sensor"
	SensorBatteryMonitor = "battery_monitor"
	SensorBladeEncoder   = "blade_encoder"
	SensorHopperWeight   = "hopper_weight"
)

// Required lists the sensors that must report active before a mission
// may leave Idle.
var Required = []string{
	SensorGPS,
	SensorIMU,
	SensorLidar,
	SensorFuel,
	SensorBatteryMonitor,
	SensorBladeEncoder,
	SensorHopperWeight,
}

var (
	// ErrUnavailable is returned when a sensor cannot produce a reading.
	ErrUnavailable = errors.New("sensor unavailable")

	// ErrUnknownSensor is returned for sensor names outside the fixed set.
	ErrUnknownSensor = errors.New("unknown sensor")
)

// Status is a sensor's operational status.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Reading is one sensor measurement.
type Reading struct {
	Name      string    `json:"name"`
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Value     any       `json:"value,omitempty"`
}

// GPSReading is a position fix with simulated RTK accuracy.
type GPSReading struct {
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	AltitudeM  float64 `json:"altitude_m"`
	AccuracyM  float64 `json:"accuracy_m"`
	Satellites int     `json:"satellites"`
	FixQuality string  `json:"fix_quality"`
}

// IMUReading carries orientation and acceleration.
type IMUReading struct {
	RollDeg      float64 `json:"roll_deg"`
	PitchDeg     float64 `json:"pitch_deg"`
	YawDeg       float64 `json:"yaw_deg"`
	AccelZ       float64 `json:"accel_z_m_s2"`
	TemperatureC float64 `json:"temperature_c"`
}

// LidarObstacle is one detected obstacle.
type LidarObstacle struct {
	DistanceM float64 `json:"distance_m"`
	AngleDeg  float64 `json:"angle_deg"`
	SizeM     float64 `json:"size_m"`
}

// LidarReading is an obstacle scan.
type LidarReading struct {
	ObstacleCount int             `json:"obstacles_count"`
	Obstacles     []LidarObstacle `json:"obstacles,omitempty"`
	RangeM        float64         `json:"range_m"`
	ScanRateHz    float64         `json:"scan_rate_hz"`
}

// HarvestReading covers the cutting and conveying hardware.
type HarvestReading struct {
	BladeRPM        float64 `json:"blade_rpm"`
	BladeVibration  float64 `json:"blade_vibration_mm_s"`
	ConveyorSpeed   float64 `json:"conveyor_speed_m_s"`
	HarvestRate     float64 `json:"harvest_rate_kg_min"`
	HopperLoadedKg  float64 `json:"hopper_loaded_kg"`
}

// PowerReading covers fuel level and battery condition.
type PowerReading struct {
	FuelPercent        float64 `json:"fuel_level_percent"`
	FuelConsumptionLH  float64 `json:"fuel_consumption_rate_l_h"`
	BatteryVoltage     float64 `json:"battery_voltage_v"`
	BatteryCurrentA    float64 `json:"battery_current_a"`
	BatteryTemperature float64 `json:"battery_temperature_c"`
}

// Snapshot is one combined reading of every sensor, attached to
// telemetry records when snapshot capture is enabled.
type Snapshot struct {
	Timestamp time.Time      `json:"timestamp"`
	GPS       GPSReading     `json:"gps"`
	IMU       IMUReading     `json:"imu"`
	Lidar     LidarReading   `json:"lidar"`
	Harvest   HarvestReading `json:"harvest"`
	Power     PowerReading   `json:"power"`
}

// Manager is the read interface the engine consumes. Reads are
// blocking; implementations decide how values are produced.
type Manager interface {
	// Read returns the current reading of a single sensor. An inactive
	// sensor still returns a Reading with StatusInactive and no error;
	// ErrUnavailable means the sensor could not be queried at all.
	Read(ctx context.Context, name string) (Reading, error)

	// Snapshot collects all sensors around the given position.
	Snapshot(ctx context.Context, pos core.Position, harvesting bool) (Snapshot, error)
}
