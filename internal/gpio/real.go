//go:build linux

package gpio

import (
	"errors"
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealReader reads the button from actual hardware using the Linux GPIO
// character device.
type RealReader struct {
	chip  *gpiocdev.Chip
	lines []*gpiocdev.Line
}

// NewRealReader requests one or two button pins as pulled-up inputs.
func NewRealReader(chipName string, pins ...int) (*RealReader, error) {
	if len(pins) == 0 || len(pins) > 2 {
		return nil, fmt.Errorf("need one or two button pins, got %d", len(pins))
	}

	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	r := &RealReader{chip: chip}
	for _, pin := range pins {
		// Buttons short to ground; the pull-up holds the line high at rest.
		line, err := chip.RequestLine(pin, gpiocdev.AsInput, gpiocdev.WithPullUp)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("request button pin %d: %w", pin, err)
		}
		r.lines = append(r.lines, line)
	}
	return r, nil
}

// Read returns true if any button pin is pulled low.
func (r *RealReader) Read() (bool, error) {
	for _, line := range r.lines {
		v, err := line.Value()
		if err != nil {
			return false, fmt.Errorf("read button pin %d: %w", line.Offset(), err)
		}
		if v == 0 {
			return true, nil
		}
	}
	return false, nil
}

// Close releases the lines and the chip.
func (r *RealReader) Close() error {
	var errs []error
	for _, line := range r.lines {
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin %d: %w", line.Offset(), err))
		}
	}
	r.lines = nil
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		r.chip = nil
	}
	return errors.Join(errs...)
}
