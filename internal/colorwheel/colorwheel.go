// Package colorwheel converts positions on a hue wheel to RGB.
package colorwheel

import colorful "github.com/lucasb-eyer/go-colorful"

// HueToRGB maps a wheel position (0-255, wrapping back to red) at the given
// brightness to an RGB triplet at full saturation.
func HueToRGB(hue, brightness uint8) (r, g, b uint8) {
	c := colorful.Hsv(float64(hue)*360/256, 1, float64(brightness)/255)
	return c.Clamped().RGB255()
}
