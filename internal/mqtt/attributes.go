package mqtt

import (
	"encoding/json"
	"time"

	"github.com/nkey/pelarboj/internal/effect"
	"github.com/nkey/pelarboj/internal/light"
)

// RGB is a colour on the wire.
type RGB struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// Attributes is the coordinator-facing attribute model.
type Attributes struct {
	State      string `json:"state"`
	Brightness int    `json:"brightness"`
	Color      RGB    `json:"color"`
	Effect     string `json:"effect"`
	Timestamp  string `json:"timestamp,omitempty"`
}

// AttributesFrom builds the attribute model from the commanded target and
// the active effect.
func AttributesFrom(t light.Target, fx effect.Type, now time.Time) Attributes {
	a := Attributes{
		State:      onOff(t.On),
		Brightness: int(t.Level),
		Color:      RGB{R: int(t.R), G: int(t.G), B: int(t.B)},
		Effect:     fx.String(),
	}
	if !now.IsZero() {
		a.Timestamp = now.UTC().Format(time.RFC3339)
	}
	return a
}

// FormatState encodes the attribute model.
func FormatState(a Attributes) ([]byte, error) {
	return json.Marshal(a)
}

func onOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}
