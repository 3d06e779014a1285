package mqtt

import "sync"

// FakePublisher records published messages for test assertions. It is safe
// for concurrent use because the controller publishes from several tasks.
type FakePublisher struct {
	mu sync.Mutex

	// States contains every attribute model that was published.
	States []Attributes

	// SystemEvents contains all system events that were published.
	SystemEvents []SystemEvent

	// SystemPayloads contains the JSON payloads for system events.
	SystemPayloads [][]byte

	// PublishError, if set, will be returned by PublishState.
	PublishError error

	// PublishSystemError, if set, will be returned by PublishSystem.
	PublishSystemError error

	// ResetError, if set, will be returned by FactoryReset.
	ResetError error

	// Resets counts FactoryReset calls.
	Resets int

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool

	// Pending controls the return value of Buffered.
	Pending int
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// PublishState records the attribute model.
func (f *FakePublisher) PublishState(attrs Attributes) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	f.States = append(f.States, attrs)
	return nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemEvents = append(f.SystemEvents, event)
	f.SystemPayloads = append(f.SystemPayloads, payload)
	return nil
}

// FactoryReset records the reset.
func (f *FakePublisher) FactoryReset() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Resets++
	return f.ResetError
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Connected
}

// Buffered returns Pending.
func (f *FakePublisher) Buffered() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Pending
}

// SetConnected changes the reported connection state.
func (f *FakePublisher) SetConnected(v bool) {
	f.mu.Lock()
	f.Connected = v
	f.mu.Unlock()
}

// StateCount returns the number of recorded attribute pushes.
func (f *FakePublisher) StateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.States)
}

// LastState returns the most recent attribute push.
func (f *FakePublisher) LastState() (Attributes, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.States) == 0 {
		return Attributes{}, false
	}
	return f.States[len(f.States)-1], true
}

// EventNames returns the recorded system event names in order.
func (f *FakePublisher) EventNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, len(f.SystemEvents))
	for i, e := range f.SystemEvents {
		names[i] = e.Event
	}
	return names
}

// Reset clears recorded messages.
func (f *FakePublisher) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.States = nil
	f.SystemEvents = nil
	f.SystemPayloads = nil
	f.PublishError = nil
	f.PublishSystemError = nil
	f.ResetError = nil
	f.Resets = 0
	f.Closed = false
	f.Connected = false
	f.Pending = 0
}
