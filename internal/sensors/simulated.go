// internal/sensors/simulated.go
package sensors

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/canaswarm/microbot/internal/model/core"
)

// Simulated generates randomized sensor readings around the values a
// healthy robot would report. A fixed seed makes a run reproducible.
type Simulated struct {
	mu       sync.Mutex
	rng      *rand.Rand
	inactive map[string]bool
}

// NewSimulated creates a randomized sensor manager with the given seed.
func NewSimulated(seed int64) *Simulated {
	return &Simulated{
		rng:      rand.New(rand.NewSource(seed)),
		inactive: make(map[string]bool),
	}
}

// SetActive marks a sensor active or inactive, for fault injection.
func (s *Simulated) SetActive(name string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inactive[name] = !active
}

func known(name string) bool {
	switch name {
	case SensorGPS, SensorIMU, SensorLidar, SensorCameraFront, SensorCameraRear,
		SensorFuel, SensorBatteryMonitor, SensorBladeEncoder, SensorHopperWeight:
		return true
	}
	return false
}

// Read returns a randomized reading for the named sensor.
func (s *Simulated) Read(ctx context.Context, name string) (Reading, error) {
	if err := ctx.Err(); err != nil {
		return Reading{}, err
	}
	if !known(name) {
		return Reading{}, ErrUnknownSensor
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	reading := Reading{Name: name, Status: StatusActive, Timestamp: time.Now()}
	if s.inactive[name] {
		reading.Status = StatusInactive
		return reading, nil
	}

	switch name {
	case SensorGPS:
		reading.Value = s.gps(core.Position{Lat: -22.7145, Lon: -47.6489})
	case SensorIMU:
		reading.Value = s.imu()
	case SensorLidar:
		reading.Value = s.lidar()
	case SensorBladeEncoder, SensorHopperWeight:
		reading.Value = s.harvest(false)
	case SensorFuel, SensorBatteryMonitor:
		reading.Value = s.power()
	}
	return reading, nil
}

// Snapshot collects randomized readings of every sensor around pos.
func (s *Simulated) Snapshot(ctx context.Context, pos core.Position, harvesting bool) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inactive[SensorGPS] {
		return Snapshot{}, ErrUnavailable
	}

	return Snapshot{
		Timestamp: time.Now(),
		GPS:       s.gps(pos),
		IMU:       s.imu(),
		Lidar:     s.lidar(),
		Harvest:   s.harvest(harvesting),
		Power:     s.power(),
	}, nil
}

// gps adds ~0.5 m of noise to the actual position.
func (s *Simulated) gps(actual core.Position) GPSReading {
	return GPSReading{
		Lat:        actual.Lat + s.uniform(-0.000005, 0.000005),
		Lon:        actual.Lon + s.uniform(-0.000005, 0.000005),
		AltitudeM:  550 + s.uniform(-2, 2),
		AccuracyM:  0.5,
		Satellites: 10 + s.rng.Intn(5),
		FixQuality: "rtk",
	}
}

func (s *Simulated) imu() IMUReading {
	return IMUReading{
		RollDeg:      s.uniform(-5, 5),
		PitchDeg:     s.uniform(-5, 5),
		YawDeg:       s.uniform(85, 95),
		AccelZ:       9.81 + s.uniform(-0.1, 0.1),
		TemperatureC: 35 + s.uniform(-5, 5),
	}
}

func (s *Simulated) lidar() LidarReading {
	count := s.rng.Intn(4)
	obstacles := make([]LidarObstacle, 0, count)
	for i := 0; i < count; i++ {
		obstacles = append(obstacles, LidarObstacle{
			DistanceM: s.uniform(5, 50),
			AngleDeg:  s.uniform(0, 360),
			SizeM:     s.uniform(0.3, 2.0),
		})
	}
	return LidarReading{
		ObstacleCount: count,
		Obstacles:     obstacles,
		RangeM:        50,
		ScanRateHz:    10,
	}
}

func (s *Simulated) harvest(harvesting bool) HarvestReading {
	if !harvesting {
		return HarvestReading{}
	}
	return HarvestReading{
		BladeRPM:       s.uniform(1150, 1250),
		BladeVibration: s.uniform(0.5, 2.0),
		ConveyorSpeed:  s.uniform(1.4, 1.6),
		HarvestRate:    s.uniform(170, 190),
		HopperLoadedKg: s.uniform(250, 450),
	}
}

func (s *Simulated) power() PowerReading {
	return PowerReading{
		FuelPercent:        s.uniform(90, 100),
		FuelConsumptionLH:  s.uniform(8, 12),
		BatteryVoltage:     s.uniform(24.0, 24.8),
		BatteryCurrentA:    s.uniform(5, 15),
		BatteryTemperature: s.uniform(30, 45),
	}
}

func (s *Simulated) uniform(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}
