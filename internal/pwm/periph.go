package pwm

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// DefaultFrequency is the carrier frequency for the LED channels.
const DefaultFrequency = 12 * physic.KiloHertz

// PinSink drives three hardware PWM pins through periph.io.
type PinSink struct {
	pins [3]gpio.PinIO
	bits int
	freq physic.Frequency
}

// NewPinSink initialises the host drivers and looks up the red, green and
// blue pins by name (e.g. "GPIO12").
func NewPinSink(red, green, blue string, bits int, freq physic.Frequency) (*PinSink, error) {
	if err := ValidateBits(bits); err != nil {
		return nil, err
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}
	if freq <= 0 {
		freq = DefaultFrequency
	}

	s := &PinSink{bits: bits, freq: freq}
	for i, name := range []string{red, green, blue} {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("pwm pin %q not found", name)
		}
		s.pins[i] = p
	}
	if err := s.Write(Output{}); err != nil {
		return nil, err
	}
	return s, nil
}

// Write sets the duty of all three channels.
func (s *PinSink) Write(o Output) error {
	full := MaxDuty(s.bits)
	for i, v := range [3]uint32{o.R, o.G, o.B} {
		if v > full {
			v = full
		}
		duty := gpio.Duty(uint64(v) * uint64(gpio.DutyMax) / uint64(full))
		if err := s.pins[i].PWM(duty, s.freq); err != nil {
			return fmt.Errorf("set pwm on %s: %w", s.pins[i].Name(), err)
		}
	}
	return nil
}

// Close drives the channels low and halts them.
func (s *PinSink) Close() error {
	var errs []error
	for _, p := range s.pins {
		if p == nil {
			continue
		}
		if err := p.Out(gpio.Low); err != nil {
			errs = append(errs, fmt.Errorf("drive %s low: %w", p.Name(), err))
		}
		if err := p.Halt(); err != nil {
			errs = append(errs, fmt.Errorf("halt %s: %w", p.Name(), err))
		}
	}
	return errors.Join(errs...)
}
