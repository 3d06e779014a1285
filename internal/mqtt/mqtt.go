// Package mqtt connects the controller to the coordinator: it receives
// light commands and pushes the attribute model and lifecycle events.
package mqtt

import (
	"encoding/json"
	"time"
)

// Topics. Commands arrive on TopicSet and TopicIdentify; the retained
// attribute model is published on TopicState.
const (
	TopicPrefix   = "pelarboj/light"
	TopicSet      = TopicPrefix + "/set"
	TopicIdentify = TopicPrefix + "/identify"
	TopicState    = TopicPrefix + "/state"
	TopicSystem   = TopicPrefix + "/system"
)

// System event names.
const (
	EventStartup      = "STARTUP"
	EventShutdown     = "SHUTDOWN"
	EventHeartbeat    = "HEARTBEAT"
	EventReconnected  = "RECONNECTED"
	EventFactoryReset = "FACTORY_RESET"
	EventOffline      = "OFFLINE"
)

// Publisher pushes state to the coordinator.
type Publisher interface {
	// PublishState pushes the attribute model. Implementations must not
	// block for long; failures are returned, never fatal.
	PublishState(attrs Attributes) error

	// PublishSystem sends a lifecycle event.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active and how
// many messages wait for it.
type ConnectionStatus interface {
	IsConnected() bool
	Buffered() int
}

// Resetter performs the coordinator side of a factory reset.
type Resetter interface {
	FactoryReset() error
}

// Handler receives decoded commands. Calls come from the MQTT client's
// goroutine.
type Handler interface {
	HandleCommand(cmd Command)
	HandleIdentify(id Identify)
}

// SystemEvent is a lifecycle event (startup, shutdown, heartbeat, ...).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string
	Reason     string // shutdown only
	RawPayload []byte // pre-formatted status snapshot; used verbatim if set
	Retained   bool
}

// SystemPayload is the minimal system payload used for the LWT and
// RECONNECTED, which carry no status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp,omitempty"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	inner := SystemPayloadInner{
		Event:  event.Event,
		Reason: event.Reason,
	}
	if !event.Timestamp.IsZero() {
		inner.Timestamp = event.Timestamp.UTC().Format(time.RFC3339)
	}
	return json.Marshal(SystemPayload{System: inner})
}

// willPayload is registered with the broker at connect time, so it
// cannot carry a timestamp.
func willPayload() []byte {
	data, _ := FormatSystemPayload(SystemEvent{Event: EventOffline})
	return data
}
