// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/sweeney/fridge-controller/internal/logic"
)

// Topic is the MQTT topic for control events.
const Topic = "refrigeration/unit/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "refrigeration/unit/system"

// Lifecycle event names published on TopicSystem.
const (
	EventStartup     = "STARTUP"
	EventShutdown    = "SHUTDOWN"
	EventHeartbeat   = "HEARTBEAT"
	EventReconnected = "RECONNECTED"
	EventOffline     = "OFFLINE"
)

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a control event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "PANIC" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Refrigeration EventPayload `json:"refrigeration"`
}

// EventPayload contains the control event details.
type EventPayload struct {
	ID        string          `json:"id"`
	Timestamp string          `json:"timestamp"`
	Event     string          `json:"event"`
	Status    string          `json:"status"`
	Mode      string          `json:"mode"`
	Fault     bool            `json:"fault"`
	Relays    map[string]bool `json:"relays"`
	Reason    string          `json:"reason,omitempty"`
}

// FormatPayload creates the JSON payload for a control event.
// Each payload carries a fresh id so consumers can de-duplicate replays.
func FormatPayload(event logic.Event) ([]byte, error) {
	relays := make(map[string]bool, len(logic.Actuators))
	for _, a := range logic.Actuators {
		relays[string(a)] = event.Relays[a]
	}
	payload := Payload{
		Refrigeration: EventPayload{
			ID:        uuid.NewString(),
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     string(event.Type),
			Status:    string(event.Status),
			Mode:      string(event.Mode),
			Fault:     event.Fault,
			Relays:    relays,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

// NopPublisher discards everything; used when no broker is configured.
type NopPublisher struct{}

// Publish discards the event.
func (NopPublisher) Publish(logic.Event) error { return nil }

// PublishSystem discards the event.
func (NopPublisher) PublishSystem(SystemEvent) error { return nil }

// Close does nothing.
func (NopPublisher) Close() error { return nil }

// IsConnected always reports false.
func (NopPublisher) IsConnected() bool { return false }
