package sensor

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DefaultHumidityPath is the IIO attribute exposed by the dht11 overlay for a DHT22.
const DefaultHumidityPath = "/sys/bus/iio/devices/iio:device0/in_humidityrelative_input"

// HumiditySource produces one raw relative-humidity reading.
type HumiditySource interface {
	ReadHumidity() (float64, error)
}

// IIOHumidity reads relative humidity from an IIO sysfs attribute.
type IIOHumidity struct {
	Path string
}

// ReadHumidity returns %RH. The driver reports milli-percent.
func (h IIOHumidity) ReadHumidity() (float64, error) {
	data, err := os.ReadFile(h.Path)
	if err != nil {
		return 0, fmt.Errorf("read humidity: %w", err)
	}
	milli, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse humidity %q: %w", strings.TrimSpace(string(data)), err)
	}
	return milli / 1000, nil
}

// DefaultMaxHumidityFailures is the failure count at which the cache is dropped.
const DefaultMaxHumidityFailures = 3

// HumidityFilter hides transient read errors: the last good value is
// repeated for up to maxFailures-1 consecutive failures, after which the
// cache is reset to 0.
type HumidityFilter struct {
	src         HumiditySource
	maxFailures int
	last        float64
	failures    int
}

// NewHumidityFilter wraps src with the default failure policy.
func NewHumidityFilter(src HumiditySource) *HumidityFilter {
	return &HumidityFilter{src: src, maxFailures: DefaultMaxHumidityFailures}
}

// Read returns the humidity to report this cycle and the read error, if any.
func (f *HumidityFilter) Read() (float64, error) {
	v, err := f.src.ReadHumidity()
	if err == nil {
		f.last = v
		f.failures = 0
		return v, nil
	}
	f.failures++
	if f.failures >= f.maxFailures {
		f.last = 0
	}
	return f.last, err
}

// Failures returns the current consecutive failure count.
func (f *HumidityFilter) Failures() int {
	return f.failures
}
