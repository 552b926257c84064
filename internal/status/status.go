// Package status provides a thread-safe status tracker for the fridge-controller daemon.
// It is written by the control loop and read by HTTP handlers and telemetry.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/fridge-controller/internal/logic"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	TickMs      int64
	SensorMs    int64
	UploadMs    int64
	SaveMs      int64
	HeartbeatMs int64
	Broker      string
	HTTPPort    string
	UplinkURL   string
	DeviceID    string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	State         logic.OperatingState
	Temperature   *float64
	Evaporator    *float64
	Humidity      float64
	ReadAt        time.Time
	Stable        int
	Reachable     bool
	LastUpload    time.Time
	Counts        logic.EventCounts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			State:     logic.OperatingState{Relays: logic.AllOff()},
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update records the loop state, last reading and event counts.
// Called from the control loop on every tick.
func (t *Tracker) Update(st logic.OperatingState, rd logic.Reading, stable int, counts logic.EventCounts) {
	st = st.Clone()
	t.mu.Lock()
	t.snap.State = st
	t.snap.Temperature = copyFloat(rd.Temperature)
	t.snap.Evaporator = copyFloat(rd.Evaporator)
	t.snap.Humidity = rd.Humidity
	t.snap.ReadAt = rd.Time
	t.snap.Stable = stable
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetUplink records the outcome of the latest sync.
func (t *Tracker) SetUplink(reachable bool, at time.Time) {
	t.mu.Lock()
	t.snap.Reachable = reachable
	if reachable {
		t.snap.LastUpload = at
	}
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.State = s.State.Clone()
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
