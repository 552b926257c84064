package sensor

import (
	"errors"
	"time"
)

// ErrNoTag is returned by FakeTagReader when no UID is scripted.
var ErrNoTag = errors.New("no tag present")

// FakeTagReader is a test double returning a fixed UID.
type FakeTagReader struct {
	UID    []byte
	Err    error
	Calls  int
	Closed bool
}

// ReadUID returns the scripted UID or error.
func (f *FakeTagReader) ReadUID(timeout time.Duration) ([]byte, error) {
	f.Calls++
	if f.Err != nil {
		return nil, f.Err
	}
	if f.UID == nil {
		return nil, ErrNoTag
	}
	return f.UID, nil
}

// Close marks the reader as closed.
func (f *FakeTagReader) Close() error {
	f.Closed = true
	return nil
}

// FakeProbe is a scripted TemperatureProbe.
type FakeProbe struct {
	Values []float64
	Errs   []error
	index  int
}

// Read returns the next scripted value or error, repeating the last one.
func (f *FakeProbe) Read() (float64, error) {
	i := f.index
	if n := max(len(f.Values), len(f.Errs)); i < n-1 {
		f.index++
	}
	if i < len(f.Errs) && f.Errs[i] != nil {
		return 0, f.Errs[i]
	}
	if i < len(f.Values) {
		return f.Values[i], nil
	}
	return 0, ErrNoReading
}

// FakeHumidity is a scripted HumiditySource.
type FakeHumidity struct {
	Values []float64
	Errs   []error
	index  int
}

// ReadHumidity returns the next scripted value or error, repeating the last one.
func (f *FakeHumidity) ReadHumidity() (float64, error) {
	i := f.index
	if n := max(len(f.Values), len(f.Errs)); i < n-1 {
		f.index++
	}
	if i < len(f.Errs) && f.Errs[i] != nil {
		return 0, f.Errs[i]
	}
	if i < len(f.Values) {
		return f.Values[i], nil
	}
	return 0, errors.New("no humidity scripted")
}
