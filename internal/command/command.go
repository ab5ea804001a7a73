// internal/command/command.go

// Package command decodes and validates mission command documents
// issued by the fleet core. A command that decodes cleanly but fails
// structural validation is rejected before the engine ever sees it.
package command

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/canaswarm/microbot/internal/geo"
	"github.com/canaswarm/microbot/internal/model/core"
)

// DefaultHopperCapacityKg is applied when harvest_parameters omits
// hopper_capacity_kg or sets it to zero.
const DefaultHopperCapacityKg = 500

// boundaryAreaTolerance is the maximum relative disagreement allowed
// between zone_assignment.area_ha and the area computed from the
// boundary ring.
const boundaryAreaTolerance = 0.10

// ErrRobotMismatch is returned when a command addresses a different
// robot than the one loading it.
var ErrRobotMismatch = errors.New("command addressed to another robot")

// Decode reads a single MissionCommand JSON document from r.
// Unknown fields are rejected. The returned command has defaults
// applied and has passed structural validation.
func Decode(r io.Reader) (*core.MissionCommand, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var cmd core.MissionCommand
	if err := dec.Decode(&cmd); err != nil {
		return nil, fmt.Errorf("error unmarshalling mission command: %w", err)
	}

	applyDefaults(&cmd)

	if err := Validate(&cmd); err != nil {
		return nil, err
	}
	return &cmd, nil
}

// LoadFile reads a MissionCommand from path and checks that it is
// addressed to robotID. Commands for other robots are rejected with
// ErrRobotMismatch.
func LoadFile(path, robotID string) (*core.MissionCommand, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening command file: %w", err)
	}
	defer f.Close()

	cmd, err := Decode(f)
	if err != nil {
		return nil, err
	}
	if cmd.RobotID != robotID {
		return nil, fmt.Errorf("%w: command %s targets %s, this robot is %s",
			ErrRobotMismatch, cmd.CommandID, cmd.RobotID, robotID)
	}
	return cmd, nil
}

func applyDefaults(cmd *core.MissionCommand) {
	if cmd.HarvestParameters.HopperCapacity <= 0 {
		cmd.HarvestParameters.HopperCapacity = DefaultHopperCapacityKg
	}
}

// Validate checks the structural integrity of a decoded command:
// identity fields present, at least one waypoint, valid coordinates,
// known actions, non-negative velocities, and a boundary ring (when
// supplied) whose planar area agrees with the declared zone area.
func Validate(cmd *core.MissionCommand) error {
	if cmd.CommandID == "" {
		return errors.New("command_id is required")
	}
	if cmd.RobotID == "" {
		return errors.New("robot_id is required")
	}
	if cmd.MissionID == "" {
		return errors.New("mission_id is required")
	}

	plan := cmd.NavigationPlan
	if len(plan.Waypoints) == 0 {
		return errors.New("navigation_plan has no waypoints")
	}
	if err := geo.ValidatePosition(plan.StartPosition); err != nil {
		return fmt.Errorf("start_position: %w", err)
	}
	for i, wp := range plan.Waypoints {
		if err := geo.ValidatePosition(core.Position{Lat: wp.Lat, Lon: wp.Lon}); err != nil {
			return fmt.Errorf("waypoint %d (%s): %w", i, wp.ID, err)
		}
		if !wp.Action.Valid() {
			return fmt.Errorf("waypoint %d (%s): unknown action %q", i, wp.ID, wp.Action)
		}
		if wp.Velocity < 0 || math.IsNaN(wp.Velocity) {
			return fmt.Errorf("waypoint %d (%s): invalid velocity %v", i, wp.ID, wp.Velocity)
		}
	}

	if cmd.SafetyLimits.MaxVelocity < 0 {
		return fmt.Errorf("safety_limits.max_velocity_m_s is negative: %v", cmd.SafetyLimits.MaxVelocity)
	}

	if err := validateBoundary(cmd.ZoneAssignment); err != nil {
		return err
	}
	return nil
}

// validateBoundary cross-checks the declared zone area against the
// area of the boundary ring. A missing boundary is fine; a boundary
// that disagrees with area_ha by more than the tolerance is not.
func validateBoundary(zone core.ZoneAssignment) error {
	if len(zone.Boundary) == 0 {
		return nil
	}
	areaHa, err := geo.BoundaryAreaHa(zone.Boundary)
	if err != nil {
		return fmt.Errorf("zone_assignment.boundary: %w", err)
	}
	if zone.AreaHa <= 0 {
		return nil
	}
	if math.Abs(areaHa-zone.AreaHa)/zone.AreaHa > boundaryAreaTolerance {
		return fmt.Errorf("zone_assignment.boundary area %.2f ha disagrees with declared area %.2f ha",
			areaHa, zone.AreaHa)
	}
	return nil
}
