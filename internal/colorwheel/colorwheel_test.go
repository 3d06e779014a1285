package colorwheel

import "testing"

func TestHueToRGBPrimaries(t *testing.T) {
	tests := []struct {
		name    string
		hue     uint8
		r, g, b uint8
	}{
		{"red", 0, 255, 0, 0},
		{"green", 0x55 + 1, 0, 255, 0}, // 86/256*360 ≈ 120.9°
		{"blue", 0xAB, 0, 0, 255},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, g, b := HueToRGB(tt.hue, 255)
			dominant := map[string]uint8{"red": r, "green": g, "blue": b}[tt.name]
			if dominant < 250 {
				t.Errorf("hue %d: dominant channel %d, want ~255 (got %d,%d,%d)", tt.hue, dominant, r, g, b)
			}
		})
	}
}

func TestHueToRGBBrightness(t *testing.T) {
	r, g, b := HueToRGB(0, 0)
	if r != 0 || g != 0 || b != 0 {
		t.Errorf("zero brightness: got (%d,%d,%d), want black", r, g, b)
	}

	r, _, _ = HueToRGB(0, 128)
	if r < 126 || r > 130 {
		t.Errorf("half brightness red: got %d, want ~128", r)
	}
}

func TestHueToRGBFullWheel(t *testing.T) {
	for h := 0; h < 256; h++ {
		r, g, b := HueToRGB(uint8(h), 255)
		hi := max(r, g, b)
		if hi < 254 {
			t.Errorf("hue %d: max channel %d, want full brightness", h, hi)
		}
	}
}
