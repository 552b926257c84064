package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/fridge-controller/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event            string          `json:"event,omitempty"`
	Reason           string          `json:"reason,omitempty"`
	Mode             string          `json:"mode"`
	State            string          `json:"state"`
	Fault            bool            `json:"fault"`
	RecoveryProgress int             `json:"recovery_progress,omitempty"`
	Privileged       bool            `json:"privileged"`
	Temperature      *float64        `json:"temperature"`
	Evaporator       *float64        `json:"evaporator_temperature"`
	Humidity         float64         `json:"humidity"`
	Target           float64         `json:"target_temperature"`
	DefrostThreshold float64         `json:"defrost_threshold_temperature"`
	DefrostType      string          `json:"defrost_type"`
	Relays           map[string]bool `json:"relays"`
	UptimeSeconds    int64           `json:"uptime_seconds"`
	StartTime        string          `json:"start_time"`
	Timestamp        string          `json:"timestamp"`
	Uplink           UplinkStatus    `json:"uplink"`
	MQTT             MQTTStatus      `json:"mqtt"`
	Counts           CountsJSON      `json:"event_counts"`
	Network          *NetworkJSON    `json:"network,omitempty"`
	Config           ConfigJSON      `json:"config"`
}

// UplinkStatus reports coordinator reachability.
type UplinkStatus struct {
	Reachable   bool   `json:"reachable"`
	URL         string `json:"url"`
	LastSuccess string `json:"last_success,omitempty"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	CompressorStarts int `json:"compressor_starts"`
	Defrosts         int `json:"defrosts"`
	Faults           int `json:"faults"`
	EmergencyStops   int `json:"emergency_stops"`
	UplinkLosses     int `json:"uplink_losses"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	TickMs      int64  `json:"tick_ms"`
	SensorMs    int64  `json:"sensor_ms"`
	UploadMs    int64  `json:"upload_ms"`
	SaveMs      int64  `json:"save_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPPort    string `json:"http_port"`
	DeviceID    string `json:"device_id,omitempty"`
}

func buildInner(snap Snapshot) StatusInner {
	st := snap.State
	mode := string(st.Mode)
	if mode == "" {
		mode = "UNKNOWN"
	}
	state := string(st.Status)
	if state == "" {
		state = "UNKNOWN"
	}

	relays := make(map[string]bool, len(logic.Actuators))
	for _, a := range logic.Actuators {
		relays[string(a)] = st.Relays[a]
	}

	inner := StatusInner{
		Mode:             mode,
		State:            state,
		Fault:            st.Fault,
		Privileged:       st.Privileged,
		Temperature:      snap.Temperature,
		Evaporator:       snap.Evaporator,
		Humidity:         snap.Humidity,
		Target:           st.TargetTemperature,
		DefrostThreshold: st.DefrostThreshold,
		DefrostType:      string(st.DefrostType),
		Relays:           relays,
		UptimeSeconds:    int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:        snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:        snap.Now.UTC().Format(time.RFC3339),
		Uplink:           UplinkStatus{Reachable: snap.Reachable, URL: snap.Config.UplinkURL},
		MQTT:             MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			CompressorStarts: snap.Counts.CompressorStarts,
			Defrosts:         snap.Counts.Defrosts,
			Faults:           snap.Counts.Faults,
			EmergencyStops:   snap.Counts.EmergencyStops,
			UplinkLosses:     snap.Counts.UplinkLosses,
		},
		Config: ConfigJSON{
			TickMs:      snap.Config.TickMs,
			SensorMs:    snap.Config.SensorMs,
			UploadMs:    snap.Config.UploadMs,
			SaveMs:      snap.Config.SaveMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPPort:    snap.Config.HTTPPort,
			DeviceID:    snap.Config.DeviceID,
		},
	}
	if st.Fault {
		inner.RecoveryProgress = snap.Stable
	}
	if !snap.LastUpload.IsZero() {
		inner.Uplink.LastSuccess = snap.LastUpload.UTC().Format(time.RFC3339)
	}
	return inner
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// Build returns the structured status (no event/reason).
func Build(snap Snapshot) StatusJSON {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)
	return StatusJSON{Status: inner}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(Build(snap), "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
