package status

import (
	"encoding/json"
	"math"
	"time"

	"github.com/nkey/pelarboj/internal/effect"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Light         *LightJSON   `json:"light,omitempty"`
	Button        string       `json:"button"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counters      CountersJSON `json:"counters"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// LightJSON describes the commanded and rendered light.
type LightJSON struct {
	State      string    `json:"state"`
	Brightness int       `json:"brightness"`
	Target     ColorJSON `json:"target"`
	Final      ColorJSON `json:"final"`
	Effect     string    `json:"effect"`
	AutoSub    string    `json:"auto_sub,omitempty"`
	EffectAgeS int64     `json:"effect_age_seconds"`
	Mode       string    `json:"mode"`
}

// ColorJSON is an RGB triplet rounded to integers.
type ColorJSON struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
	Buffered  int    `json:"buffered"`
}

// CountersJSON is the JSON representation of the counters.
type CountersJSON struct {
	SkippedFrames  uint64 `json:"skipped_frames"`
	DroppedActions uint64 `json:"dropped_actions"`
	Commands       uint64 `json:"commands"`
	Toggles        uint64 `json:"toggles"`
	EffectCycles   uint64 `json:"effect_cycles"`
	ResetAttempts  uint64 `json:"reset_attempts"`
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

// ConfigJSON is the JSON representation of controller config.
type ConfigJSON struct {
	LEDPeriodMs     int64  `json:"led_period_ms"`
	ButtonPeriodMs  int64  `json:"button_period_ms"`
	FrameTimeoutMs  int64  `json:"frame_timeout_ms"`
	ActionTimeoutMs int64  `json:"action_timeout_ms"`
	HeartbeatMs     int64  `json:"heartbeat_ms"`
	PWMBits         int    `json:"pwm_bits"`
	Broker          string `json:"broker"`
	HTTPAddr        string `json:"http_addr"`
}

func buildInner(snap Snapshot) StatusInner {
	c := snap.Counters
	inner := StatusInner{
		Button:        snap.Button,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker, Buffered: snap.MQTTBuffered},
		Counters: CountersJSON{
			SkippedFrames:  c.SkippedFrames,
			DroppedActions: c.DroppedActions,
			Commands:       c.Commands,
			Toggles:        c.Toggles,
			EffectCycles:   c.EffectCycles,
			ResetAttempts:  c.ResetAttempts,
		},
		Config: ConfigJSON{
			LEDPeriodMs:     snap.Config.LEDPeriodMs,
			ButtonPeriodMs:  snap.Config.ButtonPeriodMs,
			FrameTimeoutMs:  snap.Config.FrameTimeoutMs,
			ActionTimeoutMs: snap.Config.ActionTimeoutMs,
			HeartbeatMs:     snap.Config.HeartbeatMs,
			PWMBits:         snap.Config.PWMBits,
			Broker:          snap.Config.Broker,
			HTTPAddr:        snap.Config.HTTPAddr,
		},
	}
	if inner.Button == "" {
		inner.Button = "UNKNOWN"
	}
	if snap.HaveLight {
		inner.Light = buildLight(snap)
	}
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
	return inner
}

func buildLight(snap Snapshot) *LightJSON {
	ls := snap.Light.Light
	state := "OFF"
	if ls.Target.On {
		state = "ON"
	}
	l := &LightJSON{
		State:      state,
		Brightness: int(ls.Target.Level),
		Target:     ColorJSON{R: int(ls.Target.R), G: int(ls.Target.G), B: int(ls.Target.B)},
		Final:      ColorJSON{R: round(ls.Final.R), G: round(ls.Final.G), B: round(ls.Final.B)},
		Effect:     snap.Light.Effect.String(),
		EffectAgeS: int64(snap.Light.EffectAge.Truncate(time.Second).Seconds()),
		Mode:       ls.Special.Mode.String(),
	}
	if snap.Light.AutoSub.Valid() && snap.Light.AutoSub != effect.None {
		l.AutoSub = snap.Light.AutoSub.String()
	}
	return l
}

func round(v float64) int {
	return int(math.Round(v))
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
