// Package nav drives the ordered waypoint sequence of a mission run.
// The executor owns the run's state machine (Idle, Navigating with a
// Harvesting sub-state, Completed, Faulted) and invokes the consumables
// model once per waypoint leg.
package nav

import (
	"errors"
	"fmt"

	"github.com/canaswarm/microbot/internal/consumables"
	"github.com/canaswarm/microbot/internal/geo"
	"github.com/canaswarm/microbot/internal/model/core"
)

// State is the executor's lifecycle state.
type State string

const (
	StateIdle       State = "idle"
	StateNavigating State = "navigating"
	StateCompleted  State = "completed"
	StateFaulted    State = "faulted"
)

// ErrNotActive is returned when a waypoint is dispatched to an
// executor whose run has already ended.
var ErrNotActive = errors.New("navigation executor is not active")

// VelocityLimitError reports a waypoint whose requested velocity
// exceeds the mission's maximum. The run fails instead of silently
// clamping.
type VelocityLimitError struct {
	WaypointID string
	Requested  float64
	Limit      float64
}

func (e *VelocityLimitError) Error() string {
	return fmt.Sprintf("waypoint %s requests %.2f m/s, limit is %.2f m/s",
		e.WaypointID, e.Requested, e.Limit)
}

// Executor steps a robot through waypoints. Not safe for concurrent
// use; one executor serves exactly one mission run.
type Executor struct {
	state      State
	harvesting bool

	totalDistanceM float64
	totalTimeS     float64
	legs           int
}

// NewExecutor creates an idle executor.
func NewExecutor() *Executor {
	return &Executor{state: StateIdle}
}

// State returns the executor's lifecycle state.
func (e *Executor) State() State { return e.state }

// Harvesting reports whether the harvesting sub-state is active.
func (e *Executor) Harvesting() bool { return e.harvesting }

// TotalDistanceM is the sum of per-leg distances, not the
// endpoint-to-endpoint great-circle distance.
func (e *Executor) TotalDistanceM() float64 { return e.totalDistanceM }

// TotalTimeS is the sum of per-leg travel times.
func (e *Executor) TotalTimeS() float64 { return e.totalTimeS }

// Legs returns the number of waypoints navigated so far.
func (e *Executor) Legs() int { return e.legs }

// AverageVelocityMS is total distance over total time, 0 when no time
// has elapsed.
func (e *Executor) AverageVelocityMS() float64 {
	if e.totalTimeS == 0 {
		return 0
	}
	return e.totalDistanceM / e.totalTimeS
}

// Step navigates to the next waypoint, mutating state in place. It
// computes distance and bearing from the robot's current position,
// checks the velocity limit, dispatches the waypoint action, applies
// the consumables model for the leg's travel time, and returns the
// completed leg. Structural errors (invalid coordinates, velocity
// limit, negative elapsed time) leave state untouched apart from the
// lifecycle transition the engine applies on abort.
func (e *Executor) Step(state *core.RobotState, wp core.Waypoint, limits core.SafetyLimits, params core.HarvestParameters) (core.NavigationLeg, error) {
	if e.state == StateCompleted || e.state == StateFaulted {
		return core.NavigationLeg{}, ErrNotActive
	}

	distance, err := geo.Distance(state.Position, core.Position{Lat: wp.Lat, Lon: wp.Lon})
	if err != nil {
		return core.NavigationLeg{}, err
	}
	bearing, err := geo.Bearing(state.Position, core.Position{Lat: wp.Lat, Lon: wp.Lon})
	if err != nil {
		return core.NavigationLeg{}, err
	}

	if wp.Velocity > limits.MaxVelocity {
		return core.NavigationLeg{}, &VelocityLimitError{
			WaypointID: wp.ID,
			Requested:  wp.Velocity,
			Limit:      limits.MaxVelocity,
		}
	}

	var travelTime float64
	if wp.Velocity > 0 {
		travelTime = distance / wp.Velocity
	}

	// The leg's consumable accrual follows the sub-state after the
	// arrival action is dispatched: a start_harvest leg accrues, an
	// end_harvest leg does not.
	switch wp.Action {
	case core.ActionStartHarvest, core.ActionHarvest:
		e.harvesting = true
	case core.ActionEndHarvest:
		e.harvesting = false
	case core.ActionTurnAround, core.ActionMove:
		// heading updates below; harvesting sub-state unchanged
	}

	if e.harvesting {
		state.HarvestRateKgMin = consumables.DefaultHarvestRateKgMin
	} else {
		state.HarvestRateKgMin = 0
	}

	next, err := consumables.Apply(*state, travelTime, params)
	if err != nil {
		return core.NavigationLeg{}, err
	}
	*state = next

	e.state = StateNavigating
	state.Position = core.Position{Lat: wp.Lat, Lon: wp.Lon}
	state.HeadingDeg = bearing
	state.VelocityMS = wp.Velocity
	state.DistanceTraveled += distance
	if e.harvesting {
		state.Status = core.StatusHarvesting
	} else {
		state.Status = core.StatusNavigating
	}

	e.totalDistanceM += distance
	e.totalTimeS += travelTime
	e.legs++

	return core.NavigationLeg{
		WaypointID:      wp.ID,
		DistanceM:       distance,
		BearingDeg:      bearing,
		TargetVelocity:  wp.Velocity,
		EstimatedTimeS:  travelTime,
		Action:          wp.Action,
		ArrivalPosition: state.Position,
	}, nil
}

// Complete marks the run finished after the last waypoint.
func (e *Executor) Complete(state *core.RobotState) {
	e.state = StateCompleted
	e.harvesting = false
	state.HarvestRateKgMin = 0
	state.VelocityMS = 0
	state.Status = core.StatusCompleted
}

// Fault marks the run faulted. Reachable from any active state.
func (e *Executor) Fault() {
	e.state = StateFaulted
	e.harvesting = false
}
