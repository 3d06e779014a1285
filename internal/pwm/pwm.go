// Package pwm turns rendered light frames into three PWM duty values and
// hands them to an output sink.
package pwm

import (
	"fmt"
	"math"

	"github.com/nkey/pelarboj/internal/effect"
)

// Supported duty resolutions.
const (
	Bits8  = 8
	Bits12 = 12
)

// Output is one set of channel duties in the sink's resolution.
type Output struct {
	R uint32
	G uint32
	B uint32
}

// Sink receives channel duties.
type Sink interface {
	Write(Output) error
	Close() error
}

// MaxDuty returns the full-scale duty for a resolution.
func MaxDuty(bits int) uint32 {
	return 1<<uint(bits) - 1
}

// ValidateBits rejects resolutions the output stage does not support.
func ValidateBits(bits int) error {
	if bits != Bits8 && bits != Bits12 {
		return fmt.Errorf("unsupported pwm resolution %d bits (want 8 or 12)", bits)
	}
	return nil
}

// Scale applies the on/off gate and the brightness level to a colour and
// converts it to duty values. Each channel is channel*level/255, clamped to
// [0,255], then mapped onto the resolution.
func Scale(c effect.Color, visible bool, bits int) Output {
	if !visible {
		return Output{}
	}
	level := clamp255(c.Level)
	return Output{
		R: toDuty(clamp255(c.R)*level/255, bits),
		G: toDuty(clamp255(c.G)*level/255, bits),
		B: toDuty(clamp255(c.B)*level/255, bits),
	}
}

// FromRGB8 maps already-scaled 8-bit channels onto the resolution.
func FromRGB8(r, g, b uint8, bits int) Output {
	return Output{
		R: toDuty(float64(r), bits),
		G: toDuty(float64(g), bits),
		B: toDuty(float64(b), bits),
	}
}

func toDuty(v float64, bits int) uint32 {
	full := MaxDuty(bits)
	d := math.Round(clamp255(v) * float64(full) / 255)
	if d > float64(full) {
		return full
	}
	return uint32(d)
}

func clamp255(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
