// Package logic contains pure control logic for the refrigeration unit.
// This package has NO external dependencies (no GPIO, MQTT, HTTP, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import (
	"errors"
	"strings"
	"time"
)

// Mode decides who owns actuator states.
type Mode string

const (
	ModeAuto   Mode = "AUTO"   // hysteresis controllers decide
	ModeManual Mode = "MANUAL" // remote overrides decide
)

// DefrostType decides what a defrost cycle drives.
type DefrostType string

const (
	DefrostAuto   DefrostType = "AUTO"          // everything off, evaporator warms passively
	DefrostHeater DefrostType = "MANUAL_HEATER" // heater on, compressor and fan off
)

// ErrUnknownDefrostType is returned by ParseDefrostType for values outside the enum.
var ErrUnknownDefrostType = errors.New("unknown defrost type")

// ParseDefrostType accepts the wire names of DefrostType (case-insensitive).
func ParseDefrostType(s string) (DefrostType, error) {
	switch DefrostType(strings.ToUpper(strings.TrimSpace(s))) {
	case DefrostAuto:
		return DefrostAuto, nil
	case DefrostHeater:
		return DefrostHeater, nil
	}
	return "", ErrUnknownDefrostType
}

// Status is the derived display state reported upstream.
type Status string

const (
	StatusOff     Status = "OFF"
	StatusOn      Status = "ON"
	StatusDefrost Status = "DEFROST"
)

// ParseStatus returns the Status for s and whether it is known.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusOff, StatusOn, StatusDefrost:
		return Status(s), true
	}
	return "", false
}

// Actuator names one relay output.
type Actuator string

const (
	Compressor  Actuator = "compressor"
	Ventilation Actuator = "ventilation"
	Heater      Actuator = "heater"
)

// Actuators lists every actuator in the order outputs are driven.
var Actuators = []Actuator{Compressor, Ventilation, Heater}

// RelayStates maps actuators to ON (true) / OFF (false).
// A partial map means "leave the missing actuators alone".
type RelayStates map[Actuator]bool

// AllOff returns a full map with every actuator OFF.
func AllOff() RelayStates {
	return RelayStates{Compressor: false, Ventilation: false, Heater: false}
}

// Clone returns a copy safe to hand to another goroutine.
func (r RelayStates) Clone() RelayStates {
	out := make(RelayStates, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Reading is one acquisition cycle's worth of sensor data.
// Nil temperatures mean the probe was unavailable this cycle.
type Reading struct {
	Temperature *float64
	Evaporator  *float64
	Humidity    float64
	Privileged  bool
	Time        time.Time
}

// SensorsOK reports whether both temperature probes produced a value.
func (r Reading) SensorsOK() bool {
	return r.Temperature != nil && r.Evaporator != nil
}

// OperatingState is the single mutable state of the control loop.
type OperatingState struct {
	Mode              Mode
	Privileged        bool
	TargetTemperature float64
	DefrostThreshold  float64
	DefrostType       DefrostType
	Status            Status
	Relays            RelayStates
	Hints             RelayStates // MANUAL hints awaiting the relay driver; nil in AUTO
	Fault             bool
	LastSavedAt       time.Time
}

// NewOperatingState returns runtime-clean state with the given setpoints.
func NewOperatingState(target, defrostThreshold float64, defrostType DefrostType) OperatingState {
	return OperatingState{
		Mode:              ModeAuto,
		TargetTemperature: target,
		DefrostThreshold:  defrostThreshold,
		DefrostType:       defrostType,
		Status:            StatusOff,
		Relays:            AllOff(),
	}
}

// Clone returns a deep copy.
func (s OperatingState) Clone() OperatingState {
	s.Relays = s.Relays.Clone()
	if s.Hints != nil {
		s.Hints = s.Hints.Clone()
	}
	return s
}

// EventType names a notable control transition.
type EventType string

const (
	EventCompressorOn   EventType = "COMPRESSOR_ON"
	EventCompressorOff  EventType = "COMPRESSOR_OFF"
	EventDefrostStart   EventType = "DEFROST_START"
	EventDefrostEnd     EventType = "DEFROST_END"
	EventFault          EventType = "FAULT"
	EventRecovered      EventType = "RECOVERED"
	EventEmergencyStop  EventType = "EMERGENCY_STOP"
	EventModeAuto       EventType = "MODE_AUTO"
	EventModeManual     EventType = "MODE_MANUAL"
	EventUplinkLost     EventType = "UPLINK_LOST"
	EventUplinkRestored EventType = "UPLINK_RESTORED"
)

// Event is a transition to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Status    Status
	Mode      Mode
	Fault     bool
	Relays    RelayStates
	Reason    string // set for EMERGENCY_STOP and aborted DEFROST_END
}

// EventCounts tracks the number of notable transitions since startup.
type EventCounts struct {
	CompressorStarts int
	Defrosts         int
	Faults           int
	EmergencyStops   int
	UplinkLosses     int
}

// Count bumps the counter matching e.
func (c *EventCounts) Count(e EventType) {
	switch e {
	case EventCompressorOn:
		c.CompressorStarts++
	case EventDefrostStart:
		c.Defrosts++
	case EventFault:
		c.Faults++
	case EventEmergencyStop:
		c.EmergencyStops++
	case EventUplinkLost:
		c.UplinkLosses++
	}
}
