package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nkey/pelarboj/internal/effect"
	"github.com/nkey/pelarboj/internal/light"
)

// Command is a decoded set request. Nil fields leave the target unchanged.
type Command struct {
	On         *bool
	Brightness *uint8
	Color      *[3]uint8
	Effect     *effect.Type
}

type commandJSON struct {
	State      *string `json:"state"`
	Brightness *int    `json:"brightness"`
	Color      *RGB    `json:"color"`
	Effect     *string `json:"effect"`
}

// ParseCommand decodes and validates a set payload.
func ParseCommand(payload []byte) (Command, error) {
	var raw commandJSON
	if err := json.Unmarshal(payload, &raw); err != nil {
		return Command{}, fmt.Errorf("decode command: %w", err)
	}

	var cmd Command
	if raw.State != nil {
		var on bool
		switch strings.ToUpper(strings.TrimSpace(*raw.State)) {
		case "ON":
			on = true
		case "OFF":
		default:
			return Command{}, fmt.Errorf("invalid state %q", *raw.State)
		}
		cmd.On = &on
	}
	if raw.Brightness != nil {
		b, err := channel("brightness", *raw.Brightness)
		if err != nil {
			return Command{}, err
		}
		cmd.Brightness = &b
	}
	if raw.Color != nil {
		var c [3]uint8
		var err error
		if c[0], err = channel("color.r", raw.Color.R); err != nil {
			return Command{}, err
		}
		if c[1], err = channel("color.g", raw.Color.G); err != nil {
			return Command{}, err
		}
		if c[2], err = channel("color.b", raw.Color.B); err != nil {
			return Command{}, err
		}
		cmd.Color = &c
	}
	if raw.Effect != nil {
		fx, ok := effect.ParseType(*raw.Effect)
		if !ok {
			return Command{}, fmt.Errorf("unknown effect %q", *raw.Effect)
		}
		cmd.Effect = &fx
	}
	if cmd.Empty() {
		return Command{}, errors.New("command has no fields")
	}
	return cmd, nil
}

// Empty reports whether the command changes nothing.
func (c Command) Empty() bool {
	return c.On == nil && c.Brightness == nil && c.Color == nil && c.Effect == nil
}

// Apply returns t with the command's fields written over it.
func (c Command) Apply(t light.Target) light.Target {
	if c.On != nil {
		t.On = *c.On
	}
	if c.Brightness != nil {
		t.Level = *c.Brightness
	}
	if c.Color != nil {
		t.R, t.G, t.B = c.Color[0], c.Color[1], c.Color[2]
	}
	return t
}

func channel(name string, v int) (uint8, error) {
	if v < 0 || v > 255 {
		return 0, fmt.Errorf("%s out of range: %d", name, v)
	}
	return uint8(v), nil
}

// Identify is an identify request.
type Identify struct {
	Duration time.Duration
}

// ParseIdentify decodes an identify payload ({"duration": seconds}). An
// empty payload is accepted with a zero duration.
func ParseIdentify(payload []byte) (Identify, error) {
	if len(strings.TrimSpace(string(payload))) == 0 {
		return Identify{}, nil
	}
	var raw struct {
		Duration float64 `json:"duration"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return Identify{}, fmt.Errorf("decode identify: %w", err)
	}
	if raw.Duration < 0 {
		return Identify{}, fmt.Errorf("negative identify duration: %v", raw.Duration)
	}
	return Identify{Duration: time.Duration(raw.Duration * float64(time.Second))}, nil
}
