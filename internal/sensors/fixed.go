// internal/sensors/fixed.go
package sensors

import (
	"context"
	"time"

	"github.com/canaswarm/microbot/internal/model/core"
)

// Fixed returns the same nominal reading for every sensor on every
// call. Deterministic stand-in for tests and repeatable runs.
type Fixed struct {
	// Inactive lists sensors that report StatusInactive.
	Inactive map[string]bool

	// Fail lists sensors whose reads fail with ErrUnavailable.
	Fail map[string]bool
}

// NewFixed creates a deterministic sensor manager with all sensors active.
func NewFixed() *Fixed {
	return &Fixed{
		Inactive: make(map[string]bool),
		Fail:     make(map[string]bool),
	}
}

// Read returns a nominal reading for the named sensor.
func (f *Fixed) Read(ctx context.Context, name string) (Reading, error) {
	if err := ctx.Err(); err != nil {
		return Reading{}, err
	}
	if !known(name) {
		return Reading{}, ErrUnknownSensor
	}
	if f.Fail[name] {
		return Reading{}, ErrUnavailable
	}

	reading := Reading{Name: name, Status: StatusActive, Timestamp: time.Unix(0, 0).UTC()}
	if f.Inactive[name] {
		reading.Status = StatusInactive
	}
	return reading, nil
}

// Snapshot returns a nominal snapshot at the given position.
func (f *Fixed) Snapshot(ctx context.Context, pos core.Position, harvesting bool) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	if f.Fail[SensorGPS] {
		return Snapshot{}, ErrUnavailable
	}

	harvest := HarvestReading{}
	if harvesting {
		harvest = HarvestReading{
			BladeRPM:      1200,
			ConveyorSpeed: 1.5,
			HarvestRate:   180,
		}
	}

	return Snapshot{
		Timestamp: time.Unix(0, 0).UTC(),
		GPS: GPSReading{
			Lat:        pos.Lat,
			Lon:        pos.Lon,
			AltitudeM:  550,
			AccuracyM:  0.5,
			Satellites: 12,
			FixQuality: "rtk",
		},
		IMU:     IMUReading{YawDeg: 90, AccelZ: 9.81, TemperatureC: 35},
		Lidar:   LidarReading{RangeM: 50, ScanRateHz: 10},
		Harvest: harvest,
		Power: PowerReading{
			FuelPercent:    100,
			BatteryVoltage: 24.5,
		},
	}, nil
}
