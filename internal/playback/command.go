package playback

import (
	"fmt"
	"strings"
)

// Op names a navigation command.
type Op string

const (
	OpPlay        Op = "play"
	OpPause       Op = "pause"
	OpToggle      Op = "toggle"
	OpStepForward Op = "step_forward"
	OpStepBack    Op = "step_back"
	OpStart       Op = "start"
	OpEnd         Op = "end"
	OpJump        Op = "jump"
	OpSeek        Op = "seek"
	OpSpeed       Op = "speed"
	OpLoad        Op = "load"
)

var ops = map[Op]struct{}{
	OpPlay: {}, OpPause: {}, OpToggle: {}, OpStepForward: {}, OpStepBack: {},
	OpStart: {}, OpEnd: {}, OpJump: {}, OpSeek: {}, OpSpeed: {}, OpLoad: {},
}

// Command is one input event. Index is used by jump and seek, Speed (ms) by
// speed, Text by load.
type Command struct {
	Op    Op     `json:"op"`
	Index int    `json:"index,omitempty"`
	Speed int    `json:"speed,omitempty"`
	Text  string `json:"text,omitempty"`
}

// ParseOp normalises raw ("Step-Forward", " end ") to a known Op.
func ParseOp(raw string) (Op, error) {
	op := Op(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "-", "_"))
	if _, ok := ops[op]; !ok {
		return "", fmt.Errorf("unknown playback op %q", raw)
	}

	return op, nil
}

// Apply executes cmd. Unknown ops and invalid speeds are ignored; Apply
// reports whether the command was understood.
func (c *Controller) Apply(cmd Command) bool {
	switch cmd.Op {
	case OpPlay:
		c.Play()
	case OpPause:
		c.Pause()
	case OpToggle:
		c.Toggle()
	case OpStepForward:
		c.StepForward()
	case OpStepBack:
		c.StepBack()
	case OpStart:
		c.JumpToStart()
	case OpEnd:
		c.JumpToEnd()
	case OpJump:
		c.JumpTo(cmd.Index)
	case OpSeek:
		c.SeekToken(cmd.Index)
	case OpSpeed:
		s, ok := SpeedFromMillis(cmd.Speed)
		if !ok {
			return false
		}

		c.SetSpeed(s)
	case OpLoad:
		c.Load(cmd.Text)
	default:
		return false
	}

	return true
}
