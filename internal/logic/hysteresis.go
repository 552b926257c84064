package logic

import "time"

// Decision is the outcome of one hysteresis evaluation.
type Decision int

const (
	NoDecision Decision = iota // thresholds or dwell not met; leave outputs alone
	TurnOn
	TurnOff
)

func (d Decision) String() string {
	switch d {
	case TurnOn:
		return "on"
	case TurnOff:
		return "off"
	default:
		return "none"
	}
}

// Hysteresis is a two-threshold controller with minimum dwell times.
// A transition is only allowed once the time since the last transition
// reaches MinOn (to leave ON) or MinOff (to leave OFF).
type Hysteresis struct {
	MinOn  time.Duration
	MinOff time.Duration

	on        bool
	changedAt time.Time
}

// NewHysteresis creates a controller that starts OFF with no prior transition,
// so the first qualifying input may switch it immediately.
func NewHysteresis(minOn, minOff time.Duration) *Hysteresis {
	return &Hysteresis{MinOn: minOn, MinOff: minOff}
}

// On reports the controller's current value.
func (h *Hysteresis) On() bool {
	return h.on
}

// ChangedAt returns the time of the last transition (zero if none).
func (h *Hysteresis) ChangedAt() time.Time {
	return h.changedAt
}

// Cooling evaluates compressor semantics: switch ON when value rises above
// startOn, OFF when it falls below stopOff.
func (h *Hysteresis) Cooling(value, startOn, stopOff float64, now time.Time) Decision {
	elapsed := now.Sub(h.changedAt)
	if h.on {
		if value < stopOff && elapsed >= h.MinOn {
			h.set(false, now)
			return TurnOff
		}
		return NoDecision
	}
	if value > startOn && elapsed >= h.MinOff {
		h.set(true, now)
		return TurnOn
	}
	return NoDecision
}

// Defrost evaluates defrost semantics: start (ON) when value falls below
// startOn, stop (OFF) when it rises above stopOff.
func (h *Hysteresis) Defrost(value, startOn, stopOff float64, now time.Time) Decision {
	elapsed := now.Sub(h.changedAt)
	if h.on {
		if value > stopOff && elapsed >= h.MinOn {
			h.set(false, now)
			return TurnOff
		}
		return NoDecision
	}
	if value < startOn && elapsed >= h.MinOff {
		h.set(true, now)
		return TurnOn
	}
	return NoDecision
}

// Force records a transition made outside the controller (emergency stop,
// manual override) so dwell times count from it. No-op if unchanged.
func (h *Hysteresis) Force(on bool, now time.Time) {
	if h.on != on {
		h.set(on, now)
	}
}

func (h *Hysteresis) set(on bool, now time.Time) {
	h.on = on
	h.changedAt = now
}
