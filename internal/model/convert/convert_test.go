package convert

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canaswarm/microbot/internal/model/core"
)

func TestTelemetryToGorm(t *testing.T) {
	ts := time.Date(2026, 5, 11, 14, 30, 0, 0, time.UTC)
	rec := core.TelemetryRecord{
		RobotID:           "MICROBOT-001",
		MissionID:         "MISSION-2026-05-11-001",
		Seq:               3,
		Timestamp:         ts,
		Position:          core.Position{Lat: -22.7148, Lon: -47.6495},
		HeadingDeg:        180.5,
		VelocityMS:        1.2,
		FuelPercent:       97.3,
		BatteryVoltage:    24.41,
		HopperFillPercent: 42.0,
		HarvestRateKgMin:  180,
		Status:            core.StatusHarvesting,
		WaypointID:        "WP-002",
		Action:            core.ActionHarvest,
		Sensors:           json.RawMessage(`{"gps":{"fix":"rtk"}}`),
	}

	row := TelemetryToGorm(rec, 7)

	assert.Equal(t, uint(7), row.MissionID)
	assert.Equal(t, uint(3), row.Seq)
	assert.Equal(t, ts, row.Time)
	assert.Equal(t, "harvesting", row.Status)
	assert.Equal(t, "WP-002", row.WaypointID)
	assert.Equal(t, "harvest", row.Action)
	assert.JSONEq(t, `{"gps":{"fix":"rtk"}}`, string(row.Sensors))

	coord, ok := row.Position.Coordinates()
	require.True(t, ok)
	assert.InDelta(t, -47.6495, coord.XY.X, 1e-9, "X should be longitude")
	assert.InDelta(t, -22.7148, coord.XY.Y, 1e-9, "Y should be latitude")
}

func TestTelemetryToGorm_EmptySensors(t *testing.T) {
	row := TelemetryToGorm(core.TelemetryRecord{}, 1)
	assert.Equal(t, `{}`, string(row.Sensors))
}

func TestTelemetryRoundTrip(t *testing.T) {
	rec := core.TelemetryRecord{
		RobotID:        "MICROBOT-001",
		MissionID:      "MISSION-X",
		Seq:            5,
		Timestamp:      time.Date(2026, 5, 11, 15, 0, 0, 0, time.UTC),
		Position:       core.Position{Lat: -22.7151, Lon: -47.6489},
		VelocityMS:     1.0,
		FuelPercent:    95.5,
		BatteryVoltage: 24.38,
		Status:         core.StatusNavigating,
		WaypointID:     "WP-004",
		Action:         core.ActionTurnAround,
	}

	back := TelemetryToCore(TelemetryToGorm(rec, 2), "MICROBOT-001", "MISSION-X")

	assert.Equal(t, rec.Seq, back.Seq)
	assert.Equal(t, rec.Timestamp, back.Timestamp)
	assert.InDelta(t, rec.Position.Lat, back.Position.Lat, 1e-9)
	assert.InDelta(t, rec.Position.Lon, back.Position.Lon, 1e-9)
	assert.Equal(t, rec.Status, back.Status)
	assert.Equal(t, rec.WaypointID, back.WaypointID)
	assert.Equal(t, rec.Action, back.Action)
}

func TestLegToGorm(t *testing.T) {
	leg := core.NavigationLeg{
		WaypointID:      "WP-001",
		DistanceM:       61.5,
		BearingDeg:      270.0,
		TargetVelocity:  1.5,
		EstimatedTimeS:  41.0,
		Action:          core.ActionStartHarvest,
		ArrivalPosition: core.Position{Lat: -22.7145, Lon: -47.6495},
	}

	row := LegToGorm(leg, 4)

	assert.Equal(t, uint(4), row.MissionID)
	assert.Equal(t, "WP-001", row.WaypointID)
	assert.Equal(t, 61.5, row.DistanceM)
	assert.Equal(t, 270.0, row.BearingDeg)
	assert.Equal(t, "start_harvest", row.Action)
}

func TestMissionToGorm(t *testing.T) {
	cmd := core.MissionCommand{
		CommandID: "CMD-001",
		RobotID:   "MICROBOT-001",
		MissionID: "MISSION-X",
		ZoneAssignment: core.ZoneAssignment{
			ZoneID:   "ZONE-A3",
			ZoneName: "Talhão Norte A3",
			AreaHa:   1.2,
		},
		NavigationPlan: core.NavigationPlan{
			StartPosition: core.Position{Lat: -22.7145, Lon: -47.6489},
			Waypoints: []core.Waypoint{
				{ID: "WP-001", Lat: -22.7145, Lon: -47.6495},
				{ID: "WP-002", Lat: -22.7148, Lon: -47.6495},
			},
		},
	}
	rep := core.MissionReport{
		CommandID:          "CMD-001",
		RobotID:            "MICROBOT-001",
		MissionID:          "MISSION-X",
		Status:             core.StatusCompleted,
		StartedAt:          time.Date(2026, 5, 11, 14, 0, 0, 0, time.UTC),
		FinishedAt:         time.Date(2026, 5, 11, 14, 3, 13, 0, time.UTC),
		TotalDistanceM:     94.9,
		WaypointsPlanned:   2,
		WaypointsNavigated: 2,
		Consumables:        core.ConsumableDeltas{FuelPercent: 1.9},
	}

	row := MissionToGorm(cmd, rep)

	assert.Equal(t, "CMD-001", row.CommandID)
	assert.Equal(t, "ZONE-A3", row.ZoneID)
	assert.Equal(t, "Talhão Norte A3", row.ZoneName)
	assert.Equal(t, 1.2, row.ZoneAreaHa)
	assert.Equal(t, "mission_completed", row.Status)
	assert.Equal(t, 1.9, row.FuelUsedPercent)
	// route = start position plus both waypoints
	assert.Equal(t, 3, row.Route.Coordinates().Length())
}

func TestMissionToGorm_EmptyRoute(t *testing.T) {
	row := MissionToGorm(core.MissionCommand{}, core.MissionReport{})
	// start position alone still forms a single-point sequence
	assert.Equal(t, 1, row.Route.Coordinates().Length())
}
