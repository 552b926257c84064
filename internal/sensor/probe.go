// Package sensor acquires temperature, humidity and identity readings.
package sensor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Sentinel errors for a DS18B20 probe read.
var (
	ErrNotReady  = errors.New("probe not ready")
	ErrNoReading = errors.New("no reading in probe output")
)

// DefaultW1Base is where the w1_therm driver exposes 1-wire devices.
const DefaultW1Base = "/sys/bus/w1/devices"

// ds18b20Prefix is the 1-wire family code of DS18B20 probes.
const ds18b20Prefix = "28-"

// Probe reads one DS18B20 through its w1_slave file.
type Probe struct {
	path    string
	retries int
	delay   time.Duration
	sleep   func(time.Duration)
}

// NewProbe creates a Probe with 5 retries spaced 200ms apart.
func NewProbe(path string) *Probe {
	return &Probe{
		path:    path,
		retries: 5,
		delay:   200 * time.Millisecond,
		sleep:   time.Sleep,
	}
}

// Path returns the w1_slave file being read.
func (p *Probe) Path() string {
	return p.path
}

// Read returns the temperature in degrees Celsius. A reading is trusted only
// once the driver reports a good CRC; until then it is re-read a bounded
// number of times.
func (p *Probe) Read() (float64, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", p.path, err)
	}
	for tries := 0; !crcOK(string(data)) && tries < p.retries; tries++ {
		p.sleep(p.delay)
		data, err = os.ReadFile(p.path)
		if err != nil {
			return 0, fmt.Errorf("read %s: %w", p.path, err)
		}
	}
	return parseW1(string(data))
}

func crcOK(data string) bool {
	first, _, _ := strings.Cut(data, "\n")
	return strings.HasSuffix(strings.TrimSpace(first), "YES")
}

// parseW1 extracts the temperature from w1_slave output, e.g.
//
//	72 01 4b 46 7f ff 0e 10 57 : crc=57 YES
//	72 01 4b 46 7f ff 0e 10 57 t=23125
func parseW1(data string) (float64, error) {
	if !crcOK(data) {
		return 0, ErrNotReady
	}
	lines := strings.Split(data, "\n")
	if len(lines) < 2 {
		return 0, ErrNoReading
	}
	i := strings.Index(lines[1], "t=")
	if i < 0 {
		return 0, ErrNoReading
	}
	milli, err := strconv.ParseFloat(strings.TrimSpace(lines[1][i+2:]), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNoReading, err)
	}
	return milli / 1000, nil
}

// Discover returns the sorted ids of DS18B20 probes under base.
func Discover(base string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(base, ds18b20Prefix+"*"))
	if err != nil {
		return nil, fmt.Errorf("discover probes: %w", err)
	}
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, filepath.Base(m))
	}
	sort.Strings(ids)
	return ids, nil
}

// ProbePath returns the w1_slave path for a probe id.
func ProbePath(base, id string) string {
	return filepath.Join(base, id, "w1_slave")
}

// SelectProbes resolves the primary and evaporator probe ids. Configured ids
// win; otherwise discovered ids are used in sorted order. An empty result
// means that probe is not present and will read as absent.
func SelectProbes(base, primaryID, evaporatorID string) (primary, evaporator string, err error) {
	if primaryID != "" && evaporatorID != "" {
		return primaryID, evaporatorID, nil
	}
	ids, err := Discover(base)
	if err != nil {
		return primaryID, evaporatorID, err
	}

	var free []string
	for _, id := range ids {
		if id != primaryID && id != evaporatorID {
			free = append(free, id)
		}
	}
	if primaryID == "" && len(free) > 0 {
		primaryID, free = free[0], free[1:]
	}
	if evaporatorID == "" && len(free) > 0 {
		evaporatorID = free[0]
	}
	return primaryID, evaporatorID, nil
}
