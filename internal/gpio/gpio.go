// Package gpio drives the relay outputs with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import "github.com/sweeney/fridge-controller/internal/logic"

// Writer drives relay outputs.
type Writer interface {
	// Write sets the logical state of one actuator (true = energised).
	// Polarity inversion for active-low boards is handled by the implementation.
	Write(a logic.Actuator, on bool) error

	// Close drives every output off and releases GPIO resources.
	Close() error
}

// Default pin assignments (BCM numbering).
const (
	PinCompressor  = 26
	PinVentilation = 20
	PinHeater      = 21
)

// Pins maps actuators to BCM line offsets.
type Pins map[logic.Actuator]int

// DefaultPins returns the stock wiring.
func DefaultPins() Pins {
	return Pins{
		logic.Compressor:  PinCompressor,
		logic.Ventilation: PinVentilation,
		logic.Heater:      PinHeater,
	}
}

// level converts a logical state to the raw line value.
func level(on, activeLow bool) int {
	if on != activeLow {
		return 1
	}
	return 0
}

// releasePullUp reports whether released lines should be pulled up so the
// relay board reads them as off: up for active-low boards, down otherwise.
func releasePullUp(activeLow bool) bool {
	return level(false, activeLow) == 1
}
