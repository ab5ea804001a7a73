// Package monitor runs the heartbeat loop: on every interval it
// snapshots the committed robot state and the telemetry write queue,
// writes a status file, and persists a performance sample.
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/canaswarm/microbot/internal/influx"
	"github.com/canaswarm/microbot/internal/logging"
	"github.com/canaswarm/microbot/internal/model"
	"github.com/canaswarm/microbot/internal/model/core"
)

// StateReader exposes the engine's committed robot state.
type StateReader interface {
	CommittedState() core.RobotState
}

// QueueStats exposes the telemetry store's write-queue health.
type QueueStats interface {
	QueueLen() int
	GetLastDBWriteDuration() time.Duration
	MissionRowID() uint
}

// Dependencies holds all dependencies for the heartbeat service.
// Queue, DB, and Influx are optional; a heartbeat with none of them
// still writes the status file.
type Dependencies struct {
	RobotID   string
	MissionID string

	State           StateReader
	Queue           QueueStats
	DB              *gorm.DB
	IsDatabaseValid func() bool
	Influx          *influx.Manager
	LogManager      *logging.SlogManager

	StatusDir string
	Interval  time.Duration
}

// Service manages the heartbeat goroutine.
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
}

// NewService creates a new heartbeat service.
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = time.Second
	}
	return &Service{
		deps:     deps,
		stopChan: make(chan struct{}),
	}
}

// IsRunning returns whether the heartbeat loop is running.
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Heartbeat builds one status snapshot: the committed robot state and
// a performance sample. The string lines are what the status file
// receives.
func (s *Service) Heartbeat() (output []string, perf model.RobotPerformance) {
	state := s.deps.State.CommittedState()

	perf = model.RobotPerformance{
		Time: time.Now().UTC(),
	}
	if s.deps.Queue != nil {
		perf.MissionID = s.deps.Queue.MissionRowID()
		perf.TelemetryQueueLen = uint16(s.deps.Queue.QueueLen())
		perf.LastWriteDurationMs = float32(s.deps.Queue.GetLastDBWriteDuration().Milliseconds())
	}

	stateStr, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		stateStr = []byte(fmt.Sprintf(`{"error": "%s"}`, err))
	}
	output = append(output, string(stateStr))

	perfStr, err := json.MarshalIndent(perf, "", "  ")
	if err != nil {
		perfStr = []byte(fmt.Sprintf(`{"error": "%s"}`, err))
	}
	output = append(output, string(perfStr))

	return output, perf
}

// ValidateHypertables converts the given tables to TimescaleDB
// hypertables with compression, keyed by the columns to segment by.
// Tables that are already hypertables are skipped. Only meaningful on
// a Postgres connection with the timescaledb extension installed.
func (s *Service) ValidateHypertables(tables map[string][]string) error {
	functionName := "validateHypertables"

	for table := range tables {
		hypertable := any(nil)
		s.deps.DB.Exec(`SELECT x.* FROM timescaledb_information.hypertables WHERE hypertable_name = ?`, table).Scan(&hypertable)
		if hypertable != nil {
			s.deps.LogManager.WriteLog(functionName, fmt.Sprintf(`Table %s is already configured`, table), "INFO")
			continue
		}

		err := s.deps.DB.Exec(fmt.Sprintf(`
				SELECT create_hypertable('%s', 'time', chunk_time_interval => interval '1 day', if_not_exists => true);
			`, table)).Error
		if err != nil {
			s.deps.LogManager.WriteLog(functionName, fmt.Sprintf(`Failed to create hypertable for %s. Err: %s`, table, err), "ERROR")
			return err
		}

		err = s.deps.DB.Exec(fmt.Sprintf(`
				ALTER TABLE %s SET (
					timescaledb.compress,
					timescaledb.compress_segmentby = ?);
			`, table), strings.Join(tables[table], ",")).Error
		if err != nil {
			s.deps.LogManager.WriteLog(functionName, fmt.Sprintf(`Failed to enable compression for %s. Err: %s`, table, err), "ERROR")
			return err
		}

		err = s.deps.DB.Exec(fmt.Sprintf(`
				SELECT add_compression_policy(
					'%s',
					compress_after => interval '14 day');
			`, table)).Error
		if err != nil {
			s.deps.LogManager.WriteLog(functionName, fmt.Sprintf(`Failed to set compress_after for %s. Err: %s`, table, err), "ERROR")
			return err
		}
		s.deps.LogManager.WriteLog(functionName, fmt.Sprintf(`Configured hypertable for %s`, table), "INFO")
	}
	return nil
}

// Start starts the heartbeat goroutine.
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		logger := s.deps.LogManager.Logger()
		logger.Debug("Starting heartbeat goroutine", "intervalS", s.deps.Interval.Seconds())

		var statusFile *os.File
		if s.deps.StatusDir != "" {
			var err error
			statusFile, err = os.Create(filepath.Join(s.deps.StatusDir, "status.txt"))
			if err != nil {
				logger.Error("Error creating status file", "error", err)
			}
		}
		defer func() {
			if statusFile != nil {
				statusFile.Close()
			}
		}()

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.beat(statusFile, logger.Error)
			}
		}
	}()

	return nil
}

func (s *Service) beat(statusFile *os.File, logErr func(msg string, args ...any)) {
	lines, perf := s.Heartbeat()

	if statusFile != nil {
		statusFile.Truncate(0)
		statusFile.Seek(0, 0)
		for _, line := range lines {
			statusFile.WriteString(line + "\n")
		}
	}

	if s.deps.DB != nil && s.deps.IsDatabaseValid != nil && s.deps.IsDatabaseValid() && perf.MissionID != 0 {
		if err := s.deps.DB.Create(&perf).Error; err != nil {
			logErr("Error writing performance sample", "error", err)
		}
	}

	if s.deps.Influx != nil {
		point := influx.PerformancePoint(
			s.deps.RobotID,
			s.deps.MissionID,
			int(perf.TelemetryQueueLen),
			float64(perf.LastWriteDurationMs),
			perf.Time,
		)
		if err := s.deps.Influx.WritePoint(context.Background(), "robot_performance", point); err != nil {
			logErr("Error writing performance point to InfluxDB", "error", err)
		}
	}
}

// Stop stops the heartbeat loop.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		close(s.stopChan)
	}
}
