// Package relay commits actuator states to the physical outputs and keeps a
// timer per actuator recording when it last changed.
package relay

import (
	"time"

	"github.com/sweeney/fridge-controller/internal/gpio"
	"github.com/sweeney/fridge-controller/internal/logger"
	"github.com/sweeney/fridge-controller/internal/logic"
)

// Timer is the last committed value of one actuator and when it flipped.
type Timer struct {
	Value     bool
	ChangedAt time.Time
}

// Change is a committed flip.
type Change struct {
	Actuator logic.Actuator
	On       bool
	At       time.Time
}

// Driver writes desired states to a gpio.Writer. It never vetoes a flip;
// dwell protection is the controllers' job.
type Driver struct {
	out    gpio.Writer
	log    *logger.Logger
	timers map[logic.Actuator]*Timer
}

// New creates a Driver with every timer OFF and no recorded change.
func New(out gpio.Writer, log *logger.Logger) *Driver {
	d := &Driver{
		out:    out,
		log:    log,
		timers: make(map[logic.Actuator]*Timer, len(logic.Actuators)),
	}
	for _, a := range logic.Actuators {
		d.timers[a] = &Timer{}
	}
	return d
}

// Apply writes every actuator present in desired, in fixed order.
// Successful writes are committed to st.Relays; a write that flips the
// timer value resets the timer and is returned as a Change.
// Failed writes are logged and leave st untouched.
func (d *Driver) Apply(st *logic.OperatingState, desired logic.RelayStates, now time.Time) []Change {
	if st.Relays == nil {
		st.Relays = logic.AllOff()
	}

	var changes []Change
	for _, a := range logic.Actuators {
		on, ok := desired[a]
		if !ok {
			continue
		}
		if err := d.out.Write(a, on); err != nil {
			d.log.Errorw("relay write failed", "actuator", a, "on", on, "error", err)
			continue
		}
		st.Relays[a] = on

		t := d.timers[a]
		if t.Value != on {
			t.Value = on
			t.ChangedAt = now
			changes = append(changes, Change{Actuator: a, On: on, At: now})
			d.log.Debugw("relay changed", "actuator", a, "on", on)
		}
	}
	return changes
}

// AllOff commands every actuator off.
func (d *Driver) AllOff(st *logic.OperatingState, now time.Time) []Change {
	return d.Apply(st, logic.AllOff(), now)
}

// Timer returns a copy of the timer for a.
func (d *Driver) Timer(a logic.Actuator) Timer {
	if t, ok := d.timers[a]; ok {
		return *t
	}
	return Timer{}
}

// Release drives all outputs off and hands the lines back to the system.
func (d *Driver) Release() error {
	return d.out.Close()
}
