package convert

import (
	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"

	"github.com/canaswarm/microbot/internal/model"
	"github.com/canaswarm/microbot/internal/model/core"
)

// positionToPoint converts a lat/lon position to a geom.Point (lon=X, lat=Y)
func positionToPoint(p core.Position) geom.Point {
	coords := geom.Coordinates{XY: geom.XY{X: p.Lon, Y: p.Lat}}
	return geom.NewPoint(coords)
}

// routeToLineString converts a list of positions to a geom.LineString
func routeToLineString(route []core.Position) geom.LineString {
	if len(route) == 0 {
		return geom.LineString{}
	}
	coords := make([]float64, 0, len(route)*2)
	for _, p := range route {
		coords = append(coords, p.Lon, p.Lat)
	}
	seq := geom.NewSequence(coords, geom.DimXY)
	return geom.NewLineString(seq)
}

// TelemetryToGorm converts a core telemetry record to its database row.
func TelemetryToGorm(rec core.TelemetryRecord, missionID uint) model.TelemetryState {
	sensors := datatypes.JSON(`{}`)
	if len(rec.Sensors) > 0 {
		sensors = datatypes.JSON(rec.Sensors)
	}

	return model.TelemetryState{
		Time:              rec.Timestamp,
		MissionID:         missionID,
		Seq:               rec.Seq,
		Position:          positionToPoint(rec.Position),
		HeadingDeg:        rec.HeadingDeg,
		VelocityMS:        rec.VelocityMS,
		FuelPercent:       rec.FuelPercent,
		BatteryVoltage:    rec.BatteryVoltage,
		HopperFillPercent: rec.HopperFillPercent,
		HarvestRateKgMin:  rec.HarvestRateKgMin,
		Status:            string(rec.Status),
		WaypointID:        rec.WaypointID,
		Action:            string(rec.Action),
		Sensors:           sensors,
	}
}

// LegToGorm converts a completed navigation leg to its database row.
func LegToGorm(leg core.NavigationLeg, missionID uint) model.NavigationLeg {
	return model.NavigationLeg{
		MissionID:        missionID,
		WaypointID:       leg.WaypointID,
		DistanceM:        leg.DistanceM,
		BearingDeg:       leg.BearingDeg,
		TargetVelocityMS: leg.TargetVelocity,
		EstimatedTimeS:   leg.EstimatedTimeS,
		Action:           string(leg.Action),
		Arrival:          positionToPoint(leg.ArrivalPosition),
	}
}

// MissionToGorm builds the mission row from the command that started
// the run and the report it produced.
func MissionToGorm(cmd core.MissionCommand, rep core.MissionReport) model.Mission {
	route := make([]core.Position, 0, len(cmd.NavigationPlan.Waypoints)+1)
	route = append(route, cmd.NavigationPlan.StartPosition)
	for _, wp := range cmd.NavigationPlan.Waypoints {
		route = append(route, core.Position{Lat: wp.Lat, Lon: wp.Lon})
	}

	return model.Mission{
		CommandID:   rep.CommandID,
		RobotID:     rep.RobotID,
		MissionName: rep.MissionID,
		ZoneID:      cmd.ZoneAssignment.ZoneID,
		ZoneName:    cmd.ZoneAssignment.ZoneName,
		ZoneAreaHa:  cmd.ZoneAssignment.AreaHa,
		StartTime:   rep.StartedAt,
		EndTime:     rep.FinishedAt,
		Status:      string(rep.Status),
		AbortReason: rep.AbortReason,

		AreaHarvestedHa:   rep.AreaHarvestedHa,
		EstimatedYieldT:   rep.EstimatedYieldT,
		TotalDistanceM:    rep.TotalDistanceM,
		TotalDurationS:    rep.TotalDurationS,
		AverageVelocityMS: rep.AverageVelocityMS,
		FuelUsedPercent:   rep.Consumables.FuelPercent,
		BatteryUsedV:      rep.Consumables.BatteryVoltage,
		HopperFillPercent: rep.Consumables.HopperFillPercent,

		WaypointsPlanned:   rep.WaypointsPlanned,
		WaypointsNavigated: rep.WaypointsNavigated,

		Route: routeToLineString(route),
	}
}
