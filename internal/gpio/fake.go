package gpio

import (
	"sync"

	"github.com/sweeney/fridge-controller/internal/logic"
)

// FakeWriter is a test double that records relay writes.
type FakeWriter struct {
	mu sync.Mutex

	// Writes records every successful write in order.
	Writes []Write

	// Closed tracks if Close was called
	Closed bool

	// Fail, if set, makes writes to the listed actuators return WriteError.
	Fail       map[logic.Actuator]bool
	WriteError error

	levels map[logic.Actuator]bool
}

// Write is one recorded output write.
type Write struct {
	Actuator logic.Actuator
	On       bool
}

// NewFakeWriter creates a FakeWriter with all outputs off.
func NewFakeWriter() *FakeWriter {
	return &FakeWriter{levels: make(map[logic.Actuator]bool)}
}

// Write records the value unless the actuator is set to fail.
func (f *FakeWriter) Write(a logic.Actuator, on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Fail[a] {
		return f.WriteError
	}
	if f.levels == nil {
		f.levels = make(map[logic.Actuator]bool)
	}
	f.levels[a] = on
	f.Writes = append(f.Writes, Write{Actuator: a, On: on})
	return nil
}

// Close drives every output off and marks the writer as closed.
func (f *FakeWriter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, a := range logic.Actuators {
		f.levels[a] = false
	}
	f.Closed = true
	return nil
}

// Level returns the last value written to a.
func (f *FakeWriter) Level(a logic.Actuator) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.levels[a]
}

// Reset clears recorded writes.
func (f *FakeWriter) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Writes = nil
}
