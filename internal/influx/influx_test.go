package influx

import (
	"io"
	"testing"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/canaswarm/microbot/internal/model/core"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func sampleRecord() core.TelemetryRecord {
	return core.TelemetryRecord{
		RobotID:           "MICROBOT-001",
		MissionID:         "MISSION-X",
		Seq:               2,
		Timestamp:         time.Date(2026, 5, 11, 14, 30, 0, 0, time.UTC),
		Position:          core.Position{Lat: -22.7148, Lon: -47.6495},
		HeadingDeg:        180,
		VelocityMS:        1.2,
		FuelPercent:       97.3,
		BatteryVoltage:    24.41,
		HopperFillPercent: 42,
		HarvestRateKgMin:  180,
		Status:            core.StatusHarvesting,
	}
}

func TestTelemetryPoint(t *testing.T) {
	rec := sampleRecord()
	line := influxdb2_write.PointToLineProtocol(TelemetryPoint(rec), time.Nanosecond)

	assert.Contains(t, line, "robot_state")
	assert.Contains(t, line, "robot_id=MICROBOT-001")
	assert.Contains(t, line, "mission_id=MISSION-X")
	assert.Contains(t, line, "status=harvesting")
	assert.Contains(t, line, "fuel_percent=97.3")
	assert.Contains(t, line, "velocity_m_s=1.2")
}

func TestPerformancePoint(t *testing.T) {
	at := time.Date(2026, 5, 11, 14, 30, 0, 0, time.UTC)
	line := influxdb2_write.PointToLineProtocol(
		PerformancePoint("MICROBOT-001", "MISSION-X", 3, 12.5, at), time.Nanosecond)

	assert.Contains(t, line, "robot_heartbeat")
	assert.Contains(t, line, "telemetry_queue_len=3i")
	assert.Contains(t, line, "last_write_duration_ms=12.5")
}

func TestWritePoint_NoClientNoBackup(t *testing.T) {
	m := NewManager(testLogger(), "")
	err := m.WritePoint(t.Context(), "robot_telemetry", TelemetryPoint(sampleRecord()))
	assert.Error(t, err)
}
