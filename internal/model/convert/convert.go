// Package convert maps core mission types to their GORM rows and back
package convert

import (
	"encoding/json"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/canaswarm/microbot/internal/model"
	"github.com/canaswarm/microbot/internal/model/core"
)

// pointToPosition converts a geom.Point back to a lat/lon position
func pointToPosition(p geom.Point) core.Position {
	coord, ok := p.Coordinates()
	if !ok {
		return core.Position{}
	}
	return core.Position{Lat: coord.XY.Y, Lon: coord.XY.X}
}

// TelemetryToCore converts a database row back to a core telemetry record.
func TelemetryToCore(row model.TelemetryState, robotID, missionID string) core.TelemetryRecord {
	var sensors json.RawMessage
	if len(row.Sensors) > 0 {
		sensors = json.RawMessage(row.Sensors)
	}

	return core.TelemetryRecord{
		RobotID:           robotID,
		MissionID:         missionID,
		Seq:               row.Seq,
		Timestamp:         row.Time,
		Position:          pointToPosition(row.Position),
		HeadingDeg:        row.HeadingDeg,
		VelocityMS:        row.VelocityMS,
		FuelPercent:       row.FuelPercent,
		BatteryVoltage:    row.BatteryVoltage,
		HopperFillPercent: row.HopperFillPercent,
		HarvestRateKgMin:  row.HarvestRateKgMin,
		Status:            core.Status(row.Status),
		WaypointID:        row.WaypointID,
		Action:            core.Action(row.Action),
		Sensors:           sensors,
	}
}
