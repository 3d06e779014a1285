// Package status provides a thread-safe view of the controller for the
// HTTP page, the websocket stream and MQTT system events.
package status

import (
	"sync"
	"time"

	"github.com/nkey/pelarboj/internal/light"
)

// NetworkInfo contains network state as reported by the host helper.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains controller configuration for display.
type Config struct {
	LEDPeriodMs     int64
	ButtonPeriodMs  int64
	FrameTimeoutMs  int64
	ActionTimeoutMs int64
	HeartbeatMs     int64
	PWMBits         int
	Broker          string
	HTTPAddr        string
}

// Counters are monotonically increasing event counts.
type Counters struct {
	SkippedFrames  uint64
	DroppedActions uint64
	Commands       uint64
	Toggles        uint64
	EffectCycles   uint64
	ResetAttempts  uint64
}

// Snapshot is a point-in-time view of controller state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Light         light.Snapshot
	HaveLight     bool
	Button        string
	Counters      Counters
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	MQTTBuffered  int
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the controller started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable controller state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
			Button:    "IDLE",
		},
	}
}

// UpdateLight stores the latest copy of the light record.
func (t *Tracker) UpdateLight(ls light.Snapshot) {
	t.mu.Lock()
	t.snap.Light = ls
	t.snap.HaveLight = true
	t.mu.Unlock()
}

// SetButton records the button state machine's current state name.
func (t *Tracker) SetButton(state string) {
	t.mu.Lock()
	t.snap.Button = state
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetMQTTBuffered records how many publishes wait for the broker.
func (t *Tracker) SetMQTTBuffered(n int) {
	t.mu.Lock()
	t.snap.MQTTBuffered = n
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

func (t *Tracker) count(fn func(*Counters)) {
	t.mu.Lock()
	fn(&t.snap.Counters)
	t.mu.Unlock()
}

// FrameSkipped counts an LED frame lost to lock contention.
func (t *Tracker) FrameSkipped() { t.count(func(c *Counters) { c.SkippedFrames++ }) }

// ActionDropped counts a mutation lost to lock contention.
func (t *Tracker) ActionDropped() { t.count(func(c *Counters) { c.DroppedActions++ }) }

// CommandApplied counts a coordinator command written to the record.
func (t *Tracker) CommandApplied() { t.count(func(c *Counters) { c.Commands++ }) }

// Toggled counts a single-tap toggle.
func (t *Tracker) Toggled() { t.count(func(c *Counters) { c.Toggles++ }) }

// EffectCycled counts a double-tap effect change.
func (t *Tracker) EffectCycled() { t.count(func(c *Counters) { c.EffectCycles++ }) }

// ResetAttempted counts a long press entering confirmation.
func (t *Tracker) ResetAttempted() { t.count(func(c *Counters) { c.ResetAttempts++ }) }

// Snapshot returns a point-in-time copy of the controller state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
