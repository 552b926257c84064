//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/fridge-controller/internal/logic"
)

// RealWriter drives relays through the Linux GPIO character device.
type RealWriter struct {
	chip      *gpiocdev.Chip
	lines     map[logic.Actuator]*gpiocdev.Line
	activeLow bool
}

// NewRealWriter requests every pin as an output, initially off.
func NewRealWriter(chipName string, pins Pins, activeLow bool) (*RealWriter, error) {
	chip, err := gpiocdev.NewChip(chipName, gpiocdev.WithConsumer("fridge-controller"))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	w := &RealWriter{
		chip:      chip,
		lines:     make(map[logic.Actuator]*gpiocdev.Line, len(pins)),
		activeLow: activeLow,
	}
	for _, a := range logic.Actuators {
		pin, ok := pins[a]
		if !ok {
			continue
		}
		line, err := chip.RequestLine(pin, gpiocdev.AsOutput(level(false, activeLow)))
		if err != nil {
			w.Close()
			return nil, fmt.Errorf("request %s pin %d: %w", a, pin, err)
		}
		w.lines[a] = line
	}
	return w, nil
}

// Write sets the logical state of one actuator.
func (w *RealWriter) Write(a logic.Actuator, on bool) error {
	line, ok := w.lines[a]
	if !ok {
		return fmt.Errorf("no line for %s", a)
	}
	if err := line.SetValue(level(on, w.activeLow)); err != nil {
		return fmt.Errorf("write %s pin: %w", a, err)
	}
	return nil
}

// Close drives outputs off, then reconfigures the pins as inputs biased to
// the off level so the relay board stays de-energised while the process is gone.
func (w *RealWriter) Close() error {
	var errs []error

	for _, a := range logic.Actuators {
		line, ok := w.lines[a]
		if !ok {
			continue
		}
		if err := line.SetValue(level(false, w.activeLow)); err != nil {
			errs = append(errs, fmt.Errorf("drive %s off: %w", a, err))
		}
		if err := line.Reconfigure(gpiocdev.AsInput, releaseBias(w.activeLow)); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure %s pin: %w", a, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s pin: %w", a, err))
		}
		delete(w.lines, a)
	}
	if w.chip != nil {
		if err := w.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		w.chip = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

func releaseBias(activeLow bool) gpiocdev.LineConfigOption {
	if releasePullUp(activeLow) {
		return gpiocdev.WithPullUp
	}
	return gpiocdev.WithPullDown
}
