// Package gormstore persists mission telemetry through GORM, either
// to Postgres (with SQLite fallback) or directly to a SQLite file.
package gormstore

import (
	"fmt"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/canaswarm/microbot/internal/database"
	"github.com/canaswarm/microbot/internal/model"
	"github.com/canaswarm/microbot/internal/model/convert"
	"github.com/canaswarm/microbot/internal/model/core"
	"github.com/canaswarm/microbot/internal/queue"
)

// Mode selects how the underlying database connection is opened
type Mode string

const (
	// ModePostgres tries Postgres first and falls back to local SQLite
	ModePostgres Mode = "postgres"
	// ModeSqlite opens the SQLite file directly
	ModeSqlite Mode = "sqlite"
)

// batchSize is the number of queued telemetry rows that triggers a write
const batchSize = 32

// Dependencies holds all dependencies for the GORM store
type Dependencies struct {
	DB         *database.Manager
	Mode       Mode
	SqlitePath string
}

// Backend writes telemetry to the database in batches
type Backend struct {
	deps Dependencies

	states *queue.Queue[model.TelemetryState]
	legs   *queue.Queue[model.NavigationLeg]

	cmd       *core.MissionCommand
	missionID uint

	lastDBWriteDuration time.Duration
	mu                  sync.RWMutex
}

// New creates a new GORM store
func New(deps Dependencies) *Backend {
	return &Backend{deps: deps}
}

// Init connects the database and migrates the schema
func (b *Backend) Init() error {
	b.states = queue.New[model.TelemetryState]()
	b.legs = queue.New[model.NavigationLeg]()

	if b.deps.DB == nil {
		// queue-only mode, nothing to connect
		return nil
	}

	var err error
	switch b.deps.Mode {
	case ModeSqlite:
		err = b.deps.DB.ConnectSqlite(b.deps.SqlitePath)
	default:
		b.deps.DB.SqliteFilePath = b.deps.SqlitePath
		err = b.deps.DB.Connect()
	}
	if err != nil {
		return fmt.Errorf("connecting telemetry database: %w", err)
	}

	return b.deps.DB.Setup(viper.GetString("robot.id"))
}

// Close flushes pending rows and closes the connection
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.flushLocked(); err != nil {
		return err
	}
	if b.dbValid() && b.deps.DB.SqlDB != nil {
		return b.deps.DB.SqlDB.Close()
	}
	return nil
}

// StartMission creates the mission row
func (b *Backend) StartMission(cmd *core.MissionCommand, startedAt time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.cmd = cmd
	b.missionID = 0

	if !b.dbValid() {
		return nil
	}

	row := model.Mission{
		CommandID:   cmd.CommandID,
		RobotID:     cmd.RobotID,
		MissionName: cmd.MissionID,
		ZoneID:      cmd.ZoneAssignment.ZoneID,
		ZoneName:    cmd.ZoneAssignment.ZoneName,
		ZoneAreaHa:  cmd.ZoneAssignment.AreaHa,
		StartTime:   startedAt,
		Status:      string(core.StatusIdle),
	}
	if err := b.deps.DB.DB.Create(&row).Error; err != nil {
		return fmt.Errorf("creating mission row: %w", err)
	}
	b.missionID = row.ID
	return nil
}

// Append queues one telemetry record, flushing when the batch is full
func (b *Backend) Append(rec *core.TelemetryRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cmd == nil {
		return fmt.Errorf("no mission started")
	}

	b.states.Push(convert.TelemetryToGorm(*rec, b.missionID))
	if b.states.Len() >= batchSize {
		return b.flushLocked()
	}
	return nil
}

// RecordLeg queues one completed navigation leg
func (b *Backend) RecordLeg(leg *core.NavigationLeg) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cmd == nil {
		return fmt.Errorf("no mission started")
	}

	b.legs.Push(convert.LegToGorm(*leg, b.missionID))
	return nil
}

// FinishMission flushes pending rows and finalizes the mission row
func (b *Backend) FinishMission(rep *core.MissionReport) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cmd == nil {
		return fmt.Errorf("no mission started")
	}

	if err := b.flushLocked(); err != nil {
		return err
	}

	if !b.dbValid() {
		return nil
	}

	row := convert.MissionToGorm(*b.cmd, *rep)
	row.ID = b.missionID
	if err := b.deps.DB.DB.Save(&row).Error; err != nil {
		return fmt.Errorf("finalizing mission row: %w", err)
	}

	// in-memory fallback databases get dumped next to the robot
	if b.deps.DB.ShouldSaveLocal && b.deps.DB.SqliteFilePath != "" && b.deps.Mode != ModeSqlite {
		if err := b.deps.DB.DumpMemoryToDisk(); err != nil {
			return err
		}
	}

	rep.TelemetryLocation = b.ExportedFilePath()
	return nil
}

// QueueLen returns the number of telemetry rows waiting to be written.
func (b *Backend) QueueLen() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.states == nil {
		return 0
	}
	return b.states.Len()
}

// Database exposes the underlying connection manager, nil in
// queue-only mode.
func (b *Backend) Database() *database.Manager {
	return b.deps.DB
}

// MissionRowID returns the database ID of the active mission row, 0
// when no mission is active or the database is unavailable.
func (b *Backend) MissionRowID() uint {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.missionID
}

// GetLastDBWriteDuration returns the duration of the last batch write.
func (b *Backend) GetLastDBWriteDuration() time.Duration {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastDBWriteDuration
}

// ExportedFilePath returns where the telemetry ended up.
func (b *Backend) ExportedFilePath() string {
	if b.deps.DB == nil {
		return ""
	}
	if b.deps.DB.ShouldSaveLocal {
		return b.deps.DB.SqliteFilePath
	}
	return fmt.Sprintf("postgres://%s/%s",
		viper.GetString("db.host"), viper.GetString("db.database"))
}

func (b *Backend) dbValid() bool {
	return b.deps.DB != nil && b.deps.DB.IsValid && b.deps.DB.DB != nil
}

// flushLocked writes all queued rows. Caller must hold the mutex.
func (b *Backend) flushLocked() error {
	states := b.states.Drain()
	legs := b.legs.Drain()

	if !b.dbValid() || (len(states) == 0 && len(legs) == 0) {
		return nil
	}

	start := time.Now()
	if len(states) > 0 {
		if err := b.deps.DB.DB.Create(&states).Error; err != nil {
			return fmt.Errorf("writing telemetry batch: %w", err)
		}
	}
	if len(legs) > 0 {
		if err := b.deps.DB.DB.Create(&legs).Error; err != nil {
			return fmt.Errorf("writing navigation legs: %w", err)
		}
	}
	b.lastDBWriteDuration = time.Since(start)
	return nil
}
