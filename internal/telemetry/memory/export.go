package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/canaswarm/microbot/internal/geo"
	"github.com/canaswarm/microbot/internal/model/core"
)

// MissionExport is the root JSON structure written per mission
type MissionExport struct {
	CommandID string              `json:"command_id"`
	RobotID   string              `json:"robot_id"`
	MissionID string              `json:"mission_id"`
	Zone      core.ZoneAssignment `json:"zone_assignment"`
	StartedAt time.Time           `json:"started_at"`

	// Planned route (start position plus waypoints) as WKT
	RouteWKT string `json:"route_wkt"`

	Records []core.TelemetryRecord `json:"telemetry"`
	Legs    []core.NavigationLeg   `json:"navigation_legs"`
	Report  *core.MissionReport    `json:"report"`
}

// exportJSON writes the mission data to a JSON file, gzipped when configured
func (b *Backend) exportJSON(rep *core.MissionReport) error {
	export := b.buildExport(rep)

	// Build filename
	missionName := strings.ReplaceAll(b.cmd.MissionID, " ", "_")
	missionName = strings.ReplaceAll(missionName, ":", "_")
	timestamp := b.startedAt.Format("20060102_150405")

	var filename string
	if b.cfg.CompressOutput {
		filename = fmt.Sprintf("%s_%s.json.gz", missionName, timestamp)
	} else {
		filename = fmt.Sprintf("%s_%s.json", missionName, timestamp)
	}

	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	// Ensure output directory exists
	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if b.cfg.CompressOutput {
		if err := b.writeGzipJSON(outputPath, export); err != nil {
			return err
		}
	} else {
		if err := b.writeJSON(outputPath, export); err != nil {
			return err
		}
	}

	b.lastExportPath = outputPath
	return nil
}

func (b *Backend) buildExport(rep *core.MissionReport) MissionExport {
	route := make([]core.Position, 0, len(b.cmd.NavigationPlan.Waypoints)+1)
	route = append(route, b.cmd.NavigationPlan.StartPosition)
	for _, wp := range b.cmd.NavigationPlan.Waypoints {
		route = append(route, core.Position{Lat: wp.Lat, Lon: wp.Lon})
	}

	return MissionExport{
		CommandID: b.cmd.CommandID,
		RobotID:   b.cmd.RobotID,
		MissionID: b.cmd.MissionID,
		Zone:      b.cmd.ZoneAssignment,
		StartedAt: b.startedAt,
		RouteWKT:  geo.RouteLine(route).AsText(),
		Records:   b.records,
		Legs:      b.legs,
		Report:    rep,
	}
}

func (b *Backend) writeJSON(path string, data MissionExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	return encoder.Encode(data)
}

func (b *Backend) writeGzipJSON(path string, data MissionExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	defer gzWriter.Close()

	encoder := json.NewEncoder(gzWriter)
	return encoder.Encode(data)
}
