// Package safety gates mission start: current robot readings are
// checked against the mission's safety limits in a fixed order,
// short-circuiting on the first failure.
package safety

import (
	"context"
	"fmt"

	"github.com/canaswarm/microbot/internal/model/core"
	"github.com/canaswarm/microbot/internal/sensors"
)

// Violation reports a failed safety check. It halts the mission before
// any navigation and is reported distinctly from a mid-mission fault.
type Violation struct {
	Check  string
	Reason string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("safety violation (%s): %s", v.Check, v.Reason)
}

// Validate checks the robot state against the mission safety limits.
// Order: fuel, battery, required sensors. Returns nil when all checks
// pass, or the first *Violation encountered. Sensor read failures are
// returned as-is.
func Validate(ctx context.Context, state core.RobotState, limits core.SafetyLimits, mgr sensors.Manager) error {
	if state.FuelPercent < limits.MinFuelPercent {
		return &Violation{
			Check:  "fuel",
			Reason: fmt.Sprintf("fuel at %.1f%%, minimum is %.1f%%", state.FuelPercent, limits.MinFuelPercent),
		}
	}

	if state.BatteryVoltage < limits.MinBatteryVoltage {
		return &Violation{
			Check:  "battery",
			Reason: fmt.Sprintf("battery at %.1fV, minimum is %.1fV", state.BatteryVoltage, limits.MinBatteryVoltage),
		}
	}

	for _, name := range sensors.Required {
		reading, err := mgr.Read(ctx, name)
		if err != nil {
			return fmt.Errorf("reading sensor %s: %w", name, err)
		}
		if reading.Status != sensors.StatusActive {
			return &Violation{
				Check:  "sensors",
				Reason: fmt.Sprintf("sensor %s is %s", name, reading.Status),
			}
		}
	}

	return nil
}
