// Package gpio reads the push button with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Reader reads the button input.
type Reader interface {
	// Read returns whether the button is pressed. The pins are active-low
	// with pull-ups: raw 0 = pressed. With two pins either one counts.
	Read() (bool, error)

	// Close releases GPIO resources.
	Close() error
}

// Default line settings (BCM numbering).
const (
	DefaultChip = "gpiochip0"
	DefaultPin  = 17
)
