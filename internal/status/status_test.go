package status

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/fridge-controller/internal/logic"
)

func fp(v float64) *float64 { return &v }

func TestNewTracker(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := Config{TickMs: 250, SensorMs: 4000, Broker: "tcp://localhost:1883", HTTPPort: ":80"}
	tr := NewTracker(start, cfg)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if snap.Config.TickMs != 250 {
		t.Errorf("Config.TickMs: got %d, want 250", snap.Config.TickMs)
	}
	if snap.Config.HTTPPort != ":80" {
		t.Errorf("Config.HTTPPort: got %q, want %q", snap.Config.HTTPPort, ":80")
	}
	if snap.MQTTConnected {
		t.Error("expected MQTTConnected=false initially")
	}
	if snap.Temperature != nil {
		t.Error("expected no temperature initially")
	}
}

func TestUpdateAndSnapshot(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	st := logic.NewOperatingState(4, -10, logic.DefrostHeater)
	st.Status = logic.StatusDefrost
	st.Relays[logic.Heater] = true
	rd := logic.Reading{Temperature: fp(5.5), Evaporator: fp(-11), Humidity: 62}
	tr.Update(st, rd, 0, logic.EventCounts{CompressorStarts: 3, Defrosts: 1})

	snap := tr.Snapshot()
	if snap.State.Status != logic.StatusDefrost {
		t.Errorf("Status: got %q, want DEFROST", snap.State.Status)
	}
	if !snap.State.Relays[logic.Heater] {
		t.Error("expected heater on")
	}
	if snap.Temperature == nil || *snap.Temperature != 5.5 {
		t.Errorf("Temperature: got %v", snap.Temperature)
	}
	if snap.Humidity != 62 {
		t.Errorf("Humidity: got %v, want 62", snap.Humidity)
	}
	if snap.Counts.CompressorStarts != 3 {
		t.Errorf("Counts.CompressorStarts: got %d, want 3", snap.Counts.CompressorStarts)
	}
}

func TestSetUplink(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	at := time.Date(2026, 1, 1, 0, 0, 5, 0, time.UTC)

	tr.SetUplink(true, at)
	snap := tr.Snapshot()
	if !snap.Reachable || !snap.LastUpload.Equal(at) {
		t.Errorf("got reachable=%v last=%v", snap.Reachable, snap.LastUpload)
	}

	tr.SetUplink(false, at.Add(5*time.Second))
	snap = tr.Snapshot()
	if snap.Reachable {
		t.Error("expected unreachable")
	}
	if !snap.LastUpload.Equal(at) {
		t.Error("failed sync must keep last success time")
	}
}

func TestSetMQTTConnected(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.SetMQTTConnected(true)
	if !tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=true")
	}

	tr.SetMQTTConnected(false)
	if tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=false")
	}
}

func TestSetNetwork(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	if tr.Snapshot().Network != nil {
		t.Error("expected nil Network initially")
	}

	tr.SetNetwork(&NetworkInfo{Type: "wifi", IP: "192.168.1.42", Status: "connected"})

	snap := tr.Snapshot()
	if snap.Network == nil {
		t.Fatal("expected non-nil Network")
	}
	if snap.Network.IP != "192.168.1.42" {
		t.Errorf("Network.IP: got %q, want %q", snap.Network.IP, "192.168.1.42")
	}
}

func TestSnapshotUptime(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{StartTime: start, Now: start.Add(15 * time.Minute)}

	if snap.Uptime() != 15*time.Minute {
		t.Errorf("Uptime: got %v, want 15m", snap.Uptime())
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	st := logic.NewOperatingState(4, -10, logic.DefrostAuto)
	st.Relays[logic.Compressor] = true
	temp := 6.0
	tr.Update(st, logic.Reading{Temperature: &temp}, 0, logic.EventCounts{})

	snap1 := tr.Snapshot()

	st.Relays[logic.Compressor] = false
	temp = 1
	tr.Update(st, logic.Reading{Temperature: &temp}, 0, logic.EventCounts{})

	if !snap1.State.Relays[logic.Compressor] {
		t.Error("snapshot should be a copy; relays were modified")
	}
	if *snap1.Temperature != 6 {
		t.Error("snapshot should be a copy; temperature was modified")
	}
}

func TestFormatJSON(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	st := logic.NewOperatingState(4, -10, logic.DefrostAuto)
	st.Status = logic.StatusOn
	st.Relays[logic.Compressor] = true
	snap := Snapshot{
		State:         st,
		Temperature:   fp(6.5),
		Humidity:      55,
		Counts:        logic.EventCounts{CompressorStarts: 5, Faults: 1},
		StartTime:     start,
		Now:           start.Add(15 * time.Minute),
		MQTTConnected: true,
		Reachable:     true,
		LastUpload:    start.Add(14 * time.Minute),
		Config:        Config{TickMs: 250, Broker: "tcp://broker:1883", HTTPPort: ":80", UplinkURL: "http://coord/api/sensors"},
	}

	var parsed StatusJSON
	if err := json.Unmarshal(FormatJSON(snap), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	s := parsed.Status
	if s.Mode != "AUTO" || s.State != "ON" {
		t.Errorf("mode/state: got %q/%q", s.Mode, s.State)
	}
	if s.Temperature == nil || *s.Temperature != 6.5 {
		t.Errorf("temperature: got %v", s.Temperature)
	}
	if s.Evaporator != nil {
		t.Errorf("evaporator should be null, got %v", *s.Evaporator)
	}
	if !s.Relays["compressor"] || s.Relays["heater"] {
		t.Errorf("unexpected relays: %v", s.Relays)
	}
	if s.UptimeSeconds != 900 {
		t.Errorf("uptime: got %d, want 900", s.UptimeSeconds)
	}
	if s.Timestamp != "2026-01-01T00:15:00Z" {
		t.Errorf("timestamp: got %s", s.Timestamp)
	}
	if !s.Uplink.Reachable || s.Uplink.LastSuccess != "2026-01-01T00:14:00Z" {
		t.Errorf("uplink: got %+v", s.Uplink)
	}
	if s.Counts.CompressorStarts != 5 || s.Counts.Faults != 1 {
		t.Errorf("counts: got %+v", s.Counts)
	}
	if s.Event != "" || s.Reason != "" {
		t.Error("web JSON should not carry event or reason")
	}
	if s.RecoveryProgress != 0 {
		t.Error("recovery progress only reported in fault")
	}
}

func TestFormatJSONUnknownState(t *testing.T) {
	var parsed StatusJSON
	if err := json.Unmarshal(FormatJSON(Snapshot{}), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Status.Mode != "UNKNOWN" || parsed.Status.State != "UNKNOWN" {
		t.Errorf("expected UNKNOWN, got %q/%q", parsed.Status.Mode, parsed.Status.State)
	}
	if len(parsed.Status.Relays) != 3 {
		t.Errorf("expected all relays listed, got %v", parsed.Status.Relays)
	}
}

func TestFormatJSONFaultProgress(t *testing.T) {
	st := logic.NewOperatingState(4, -10, logic.DefrostAuto)
	st.Fault = true
	var parsed StatusJSON
	if err := json.Unmarshal(FormatJSON(Snapshot{State: st, Stable: 7}), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if !parsed.Status.Fault || parsed.Status.RecoveryProgress != 7 {
		t.Errorf("got fault=%v progress=%d", parsed.Status.Fault, parsed.Status.RecoveryProgress)
	}
}

func TestFormatStatusEvent(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{State: logic.NewOperatingState(4, -10, logic.DefrostAuto), StartTime: start, Now: start}

	var parsed StatusJSON
	if err := json.Unmarshal(FormatStatusEvent(snap, "SHUTDOWN", "SIGTERM"), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Status.Event != "SHUTDOWN" || parsed.Status.Reason != "SIGTERM" {
		t.Errorf("got event=%q reason=%q", parsed.Status.Event, parsed.Status.Reason)
	}
}

func TestFormatStatusEventOmitsReasonWhenEmpty(t *testing.T) {
	payload := FormatStatusEvent(Snapshot{}, "STARTUP", "")

	var raw map[string]map[string]interface{}
	if err := json.Unmarshal(payload, &raw); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if _, ok := raw["status"]["reason"]; ok {
		t.Error("reason should be omitted when empty")
	}
	if _, ok := raw["status"]["network"]; ok {
		t.Error("network should be omitted when nil")
	}
}

func TestFormatJSONWithNetwork(t *testing.T) {
	snap := Snapshot{Network: &NetworkInfo{Type: "wifi", IP: "10.0.0.5", SSID: "MyNet"}}

	var parsed StatusJSON
	if err := json.Unmarshal(FormatJSON(snap), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Status.Network == nil {
		t.Fatal("expected network")
	}
	if parsed.Status.Network.SSID != "MyNet" {
		t.Errorf("Network.SSID: got %q, want MyNet", parsed.Status.Network.SSID)
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		st := logic.NewOperatingState(4, -10, logic.DefrostAuto)
		for i := 0; i < 1000; i++ {
			st.Relays[logic.Compressor] = i%2 == 0
			tr.Update(st, logic.Reading{}, i%10, logic.EventCounts{CompressorStarts: i})
			tr.SetMQTTConnected(i%2 == 0)
			tr.SetUplink(i%3 == 0, time.Now())
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			snap := tr.Snapshot()
			_ = FormatJSON(snap)
		}
	}()

	wg.Wait()
}
