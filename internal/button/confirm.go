package button

import "time"

// DefaultConfirmInterval is used when Interval is not positive.
const DefaultConfirmInterval = 10 * time.Millisecond

// RawReader reads the button pin without debouncing.
type RawReader interface {
	Read() (bool, error)
}

// Confirmer waits to see whether a long press is held through the
// confirmation window. It blocks the calling goroutine.
type Confirmer struct {
	Reader   RawReader
	Window   time.Duration
	Interval time.Duration
	Now      func() time.Time
	Sleep    func(time.Duration)
}

// Held polls the raw pin until the window elapses or the button is
// released. It returns true only if the button stayed pressed throughout.
// A read error counts as a release.
func (c *Confirmer) Held() (bool, error) {
	interval := c.Interval
	if interval <= 0 {
		interval = DefaultConfirmInterval
	}
	deadline := c.Now().Add(c.Window)
	for {
		pressed, err := c.Reader.Read()
		if err != nil {
			return false, err
		}
		if !pressed {
			return false, nil
		}
		if !c.Now().Before(deadline) {
			return true, nil
		}
		c.Sleep(interval)
	}
}
