// Package telemetry defines the pluggable store that mission telemetry
// is written to, with in-memory/JSON and GORM-backed implementations.
package telemetry

import (
	"time"

	"github.com/canaswarm/microbot/internal/model/core"
)

// Store is the interface all telemetry store implementations must satisfy
type Store interface {
	// Lifecycle
	Init() error
	Close() error

	// Mission management
	StartMission(cmd *core.MissionCommand, startedAt time.Time) error
	FinishMission(rep *core.MissionReport) error

	// Recording
	Append(rec *core.TelemetryRecord) error
	RecordLeg(leg *core.NavigationLeg) error
}

// Exportable is an optional interface for stores that persist the
// mission to a file or database reachable after the run.
type Exportable interface {
	ExportedFilePath() string
}
