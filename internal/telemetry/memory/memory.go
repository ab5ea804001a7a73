// Package memory buffers a mission's telemetry in memory and exports
// it to a JSON document when the mission finishes.
package memory

import (
	"fmt"
	"sync"
	"time"

	"github.com/canaswarm/microbot/internal/config"
	"github.com/canaswarm/microbot/internal/model/core"
)

// Backend stores mission telemetry in memory and exports to JSON
type Backend struct {
	cfg config.MemoryConfig

	cmd       *core.MissionCommand
	startedAt time.Time
	records   []core.TelemetryRecord
	legs      []core.NavigationLeg

	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{cfg: cfg}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartMission begins buffering a new mission
func (b *Backend) StartMission(cmd *core.MissionCommand, startedAt time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.cmd = cmd
	b.startedAt = startedAt
	b.records = b.records[:0]
	b.legs = b.legs[:0]
	return nil
}

// Append buffers one telemetry record
func (b *Backend) Append(rec *core.TelemetryRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cmd == nil {
		return fmt.Errorf("no mission started")
	}
	b.records = append(b.records, *rec)
	return nil
}

// RecordLeg buffers one completed navigation leg
func (b *Backend) RecordLeg(leg *core.NavigationLeg) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cmd == nil {
		return fmt.Errorf("no mission started")
	}
	b.legs = append(b.legs, *leg)
	return nil
}

// FinishMission writes the buffered mission to its JSON export file
// and records the path in the report.
func (b *Backend) FinishMission(rep *core.MissionReport) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cmd == nil {
		return fmt.Errorf("no mission started")
	}

	if err := b.exportJSON(rep); err != nil {
		return err
	}
	rep.TelemetryLocation = b.lastExportPath
	return nil
}

// Records returns a copy of the buffered telemetry records.
func (b *Backend) Records() []core.TelemetryRecord {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]core.TelemetryRecord, len(b.records))
	copy(out, b.records)
	return out
}

// ExportedFilePath returns the path of the last written export file.
func (b *Backend) ExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}
