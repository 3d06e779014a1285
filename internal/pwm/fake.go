package pwm

import "sync"

// FakeSink records every write for tests.
type FakeSink struct {
	mu sync.Mutex

	// Writes is the history of outputs, oldest first.
	Writes []Output

	// WriteError, if set, is returned by Write and nothing is recorded.
	WriteError error

	Closed bool
}

// NewFakeSink creates an empty FakeSink.
func NewFakeSink() *FakeSink {
	return &FakeSink{}
}

// Write records the output.
func (f *FakeSink) Write(o Output) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Writes = append(f.Writes, o)
	return nil
}

// Close marks the sink closed.
func (f *FakeSink) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// Last returns the most recent output and whether there was one.
func (f *FakeSink) Last() (Output, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Writes) == 0 {
		return Output{}, false
	}
	return f.Writes[len(f.Writes)-1], true
}

// Count returns the number of recorded writes.
func (f *FakeSink) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Writes)
}
