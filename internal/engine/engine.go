// Package engine orchestrates one mission run: safety validation,
// harvest configuration, the waypoint loop, telemetry emission, and
// the final mission report. The engine owns the robot state; external
// readers only ever see committed copies.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/canaswarm/microbot/internal/dispatcher"
	"github.com/canaswarm/microbot/internal/model/core"
	"github.com/canaswarm/microbot/internal/nav"
	"github.com/canaswarm/microbot/internal/safety"
	"github.com/canaswarm/microbot/internal/sensors"
	"github.com/canaswarm/microbot/internal/telemetry"
)

// Config wires the engine's collaborators. Command, Sensors, and Store
// are required; Dispatcher is optional side-channel fan-out.
type Config struct {
	Command    *core.MissionCommand
	Sensors    sensors.Manager
	Store      telemetry.Store
	Dispatcher *dispatcher.Dispatcher
	Logger     *slog.Logger

	// SnapshotTelemetry attaches a full sensor snapshot to every
	// telemetry record.
	SnapshotTelemetry bool
}

// Engine runs a single mission. One engine serves exactly one run.
type Engine struct {
	cfg Config
	log *slog.Logger

	waypointsNavigated metric.Int64Counter
	recordsEmitted     metric.Int64Counter

	mu        sync.RWMutex
	committed core.RobotState
	records   []core.TelemetryRecord
}

// New creates an engine for one mission run.
// Uses the global OTel meter for metrics (no-op if not configured).
func New(cfg Config) (*Engine, error) {
	if cfg.Command == nil {
		return nil, errors.New("engine requires a mission command")
	}
	if cfg.Sensors == nil {
		return nil, errors.New("engine requires a sensor manager")
	}
	if cfg.Store == nil {
		return nil, errors.New("engine requires a telemetry store")
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	e := &Engine{cfg: cfg, log: log}

	m := meter()
	var err error
	e.waypointsNavigated, err = m.Int64Counter(
		"mission.waypoints.navigated",
		metric.WithDescription("Total waypoints navigated across the run"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating waypoints counter: %w", err)
	}
	e.recordsEmitted, err = m.Int64Counter(
		"mission.telemetry.emitted",
		metric.WithDescription("Total telemetry records emitted"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating telemetry counter: %w", err)
	}

	return e, nil
}

// CommittedState returns a copy of the last committed robot state.
// Safe for concurrent use; heartbeat monitors read through here.
func (e *Engine) CommittedState() core.RobotState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.committed
}

// Records returns a copy of the telemetry records emitted so far.
func (e *Engine) Records() []core.TelemetryRecord {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]core.TelemetryRecord, len(e.records))
	copy(out, e.records)
	return out
}

func (e *Engine) commit(state core.RobotState) {
	e.mu.Lock()
	e.committed = state
	e.mu.Unlock()
}

func (e *Engine) appendRecord(rec core.TelemetryRecord) {
	e.mu.Lock()
	e.records = append(e.records, rec)
	e.mu.Unlock()
}

// Run executes the mission and returns its report. The report is
// non-nil for every run that got past store initialization: aborted
// and faulted runs return both the report and the causing error, with
// whatever telemetry was collected before the failure accounted for.
// Cancellation is honored between waypoints, never mid-step.
func (e *Engine) Run(ctx context.Context) (*core.MissionReport, error) {
	cmd := e.cfg.Command
	startedAt := time.Now().UTC()

	state := core.NewRobotState(cmd.NavigationPlan.StartPosition)
	initial := state
	e.commit(state)

	if err := e.cfg.Store.StartMission(cmd, startedAt); err != nil {
		return nil, fmt.Errorf("starting mission in store: %w", err)
	}

	e.log.Info("mission accepted",
		"commandID", cmd.CommandID,
		"missionID", cmd.MissionID,
		"zone", cmd.ZoneAssignment.ZoneName,
		"areaHa", cmd.ZoneAssignment.AreaHa,
		"waypoints", len(cmd.NavigationPlan.Waypoints))

	exec := nav.NewExecutor()

	if err := safety.Validate(ctx, state, cmd.SafetyLimits, e.cfg.Sensors); err != nil {
		status := core.StatusFaulted
		var v *safety.Violation
		if errors.As(err, &v) {
			status = core.StatusAborted
		}
		e.log.Error("pre-mission safety validation failed", "error", err)
		return e.finish(cmd, startedAt, initial, &state, exec, status, err)
	}

	e.log.Info("harvest parameters configured",
		"cuttingHeightCm", cmd.HarvestParameters.CuttingHeightCm,
		"bladeSpeedRPM", cmd.HarvestParameters.BladeSpeedRPM,
		"conveyorSpeedMS", cmd.HarvestParameters.ConveyorSpeed,
		"hopperCapacityKg", cmd.HarvestParameters.HopperCapacity)

	for i, wp := range cmd.NavigationPlan.Waypoints {
		if err := ctx.Err(); err != nil {
			cancelErr := fmt.Errorf("mission cancelled before waypoint %s: %w", wp.ID, err)
			e.log.Error("mission cancelled", "waypointID", wp.ID, "error", err)
			return e.finish(cmd, startedAt, initial, &state, exec, core.StatusFaulted, cancelErr)
		}

		leg, err := exec.Step(&state, wp, cmd.SafetyLimits, cmd.HarvestParameters)
		if err != nil {
			e.log.Error("navigation step failed", "waypointID", wp.ID, "error", err)
			return e.finish(cmd, startedAt, initial, &state, exec, core.StatusFaulted, err)
		}
		e.waypointsNavigated.Add(ctx, 1)
		e.commit(state)

		if err := e.cfg.Store.RecordLeg(&leg); err != nil {
			return e.finish(cmd, startedAt, initial, &state, exec, core.StatusFaulted,
				fmt.Errorf("recording leg %s: %w", wp.ID, err))
		}

		rec, err := e.makeRecord(ctx, &state, wp, uint(i+1))
		if err != nil {
			e.log.Error("telemetry capture failed", "waypointID", wp.ID, "error", err)
			return e.finish(cmd, startedAt, initial, &state, exec, core.StatusFaulted, err)
		}
		if err := e.cfg.Store.Append(&rec); err != nil {
			return e.finish(cmd, startedAt, initial, &state, exec, core.StatusFaulted,
				fmt.Errorf("appending telemetry for %s: %w", wp.ID, err))
		}
		e.appendRecord(rec)
		e.recordsEmitted.Add(ctx, 1)

		if e.cfg.Dispatcher != nil {
			if err := e.cfg.Dispatcher.Publish(rec); err != nil {
				e.log.Error("telemetry fan-out failed", "seq", rec.Seq, "error", err)
			}
		}

		e.log.Info("waypoint reached",
			"waypointID", wp.ID,
			"progress", fmt.Sprintf("%d/%d", i+1, len(cmd.NavigationPlan.Waypoints)),
			"action", string(wp.Action),
			"distanceM", leg.DistanceM,
			"fuelPercent", state.FuelPercent,
			"hopperPercent", state.HopperFillPercent)
	}

	exec.Complete(&state)
	return e.finish(cmd, startedAt, initial, &state, exec, core.StatusCompleted, nil)
}

// makeRecord snapshots the current state into a telemetry record,
// optionally enriched with a full sensor snapshot.
func (e *Engine) makeRecord(ctx context.Context, state *core.RobotState, wp core.Waypoint, seq uint) (core.TelemetryRecord, error) {
	rec := core.TelemetryRecord{
		RobotID:           e.cfg.Command.RobotID,
		MissionID:         e.cfg.Command.MissionID,
		Seq:               seq,
		Timestamp:         time.Now().UTC(),
		Position:          state.Position,
		HeadingDeg:        state.HeadingDeg,
		VelocityMS:        state.VelocityMS,
		FuelPercent:       state.FuelPercent,
		BatteryVoltage:    state.BatteryVoltage,
		HopperFillPercent: state.HopperFillPercent,
		HarvestRateKgMin:  state.HarvestRateKgMin,
		Status:            state.Status,
		WaypointID:        wp.ID,
		Action:            wp.Action,
	}

	if e.cfg.SnapshotTelemetry {
		snap, err := e.cfg.Sensors.Snapshot(ctx, state.Position, state.Status == core.StatusHarvesting)
		if err != nil {
			return core.TelemetryRecord{}, fmt.Errorf("sensor snapshot: %w", err)
		}
		raw, err := json.Marshal(snap)
		if err != nil {
			return core.TelemetryRecord{}, fmt.Errorf("encoding sensor snapshot: %w", err)
		}
		rec.Sensors = raw
	}

	return rec, nil
}

// finish stamps the terminal status, builds the report, and closes the
// mission out in the store. The store's FinishMission may set the
// report's telemetry location.
func (e *Engine) finish(cmd *core.MissionCommand, startedAt time.Time, initial core.RobotState, state *core.RobotState, exec *nav.Executor, status core.Status, cause error) (*core.MissionReport, error) {
	if status != core.StatusCompleted {
		exec.Fault()
		state.Status = status
		state.VelocityMS = 0
		state.HarvestRateKgMin = 0
	}
	e.commit(*state)

	rep := &core.MissionReport{
		CommandID:         cmd.CommandID,
		RobotID:           cmd.RobotID,
		MissionID:         cmd.MissionID,
		Status:            status,
		StartedAt:         startedAt,
		FinishedAt:        time.Now().UTC(),
		TotalDistanceM:    exec.TotalDistanceM(),
		TotalDurationS:    exec.TotalTimeS(),
		AverageVelocityMS: exec.AverageVelocityMS(),
		Consumables: core.ConsumableDeltas{
			FuelPercent:       initial.FuelPercent - state.FuelPercent,
			BatteryVoltage:    initial.BatteryVoltage - state.BatteryVoltage,
			HopperFillPercent: state.HopperFillPercent - initial.HopperFillPercent,
		},
		FinalState:         *state,
		TelemetryRecords:   len(e.Records()),
		WaypointsNavigated: exec.Legs(),
		WaypointsPlanned:   len(cmd.NavigationPlan.Waypoints),
	}
	if cause != nil {
		rep.AbortReason = cause.Error()
	}
	e.fillEstimates(cmd, rep)

	if err := e.cfg.Store.FinishMission(rep); err != nil {
		e.log.Error("finishing mission in store", "error", err)
		if cause == nil {
			cause = fmt.Errorf("finishing mission in store: %w", err)
		}
	}

	e.log.Info("mission finished",
		"missionID", cmd.MissionID,
		"status", string(status),
		"waypointsNavigated", rep.WaypointsNavigated,
		"totalDistanceM", rep.TotalDistanceM,
		"telemetryRecords", rep.TelemetryRecords)

	return rep, cause
}

// fillEstimates derives the harvested-area and yield figures. A
// completed run reports the fleet core's expected results in full; a
// run that ended early reports them scaled by waypoint progress.
func (e *Engine) fillEstimates(cmd *core.MissionCommand, rep *core.MissionReport) {
	areaHa := cmd.ZoneAssignment.AreaHa
	yieldT := 0.0
	if cmd.ExpectedResults != nil {
		if cmd.ExpectedResults.AreaToHarvestHa > 0 {
			areaHa = cmd.ExpectedResults.AreaToHarvestHa
		}
		yieldT = cmd.ExpectedResults.EstimatedYieldT
	}

	if rep.Status == core.StatusCompleted || rep.WaypointsPlanned == 0 {
		rep.AreaHarvestedHa = areaHa
		rep.EstimatedYieldT = yieldT
		return
	}
	progress := float64(rep.WaypointsNavigated) / float64(rep.WaypointsPlanned)
	rep.AreaHarvestedHa = areaHa * progress
	rep.EstimatedYieldT = yieldT * progress
}
