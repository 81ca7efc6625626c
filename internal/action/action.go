package action

import (
	"strings"

	"minegym.ai/internal/protocol"
	"minegym.ai/internal/task"
)

// Backend-accepted input ranges. Movement axes are normalized; camera
// deltas are degrees per tick.
const (
	MaxMoveAxis    = 1.0
	MaxCameraDelta = 45.0
)

// Action is the fixed compound action record. The same shape is accepted
// for every task; masking happens at compile time, never by reshaping.
type Action struct {
	// Move is forward, strafe, jump. Forward/strafe in [-1,1], jump in [0,1].
	Move [3]float64
	// Camera is yaw delta, pitch delta in degrees.
	Camera [2]float64
	// Functional is one of the task.Act* names; empty means NOOP.
	Functional string
	// Arg is the item or recipe identifier for CRAFT/EQUIP/PLACE/DROP.
	Arg string
}

// Noop is the do-nothing action.
func Noop() Action { return Action{} }

// Report records every degradation applied during compilation. It is
// merged into the step's info mapping so masking is never silent.
type Report struct {
	MaskedAction bool `json:"masked_action,omitempty"`
	InvalidItem  bool `json:"invalid_item,omitempty"`
	Clamped      bool `json:"clamped,omitempty"`
}

// Compile turns an Action into backend commands for one tick. Out-of-mask
// functionals and invalid item arguments degrade to no-ops with a report
// flag; an agent can never fail a step through an ordinary action choice.
func Compile(a Action, spec *task.Spec) ([]protocol.Command, Report) {
	var rep Report
	cmds := make([]protocol.Command, 0, 3)

	move, clamped := clampMove(a.Move)
	rep.Clamped = clamped
	if move != ([3]float64{}) {
		cmds = append(cmds, protocol.Command{Kind: protocol.CmdMove, Move: move})
	}

	cam, clamped := clampCamera(a.Camera)
	rep.Clamped = rep.Clamped || clamped
	if cam != ([2]float64{}) {
		cmds = append(cmds, protocol.Command{Kind: protocol.CmdCamera, Camera: cam})
	}

	fn := strings.ToUpper(strings.TrimSpace(a.Functional))
	if fn == "" {
		fn = task.ActNoop
	}
	if fn != task.ActNoop {
		switch {
		case !task.IsKnownAction(fn), !spec.ActionAllowed(fn):
			rep.MaskedAction = true
		case needsItem(fn) && a.Arg != "" && !spec.ItemAllowed(a.Arg):
			rep.InvalidItem = true
		default:
			cmds = append(cmds, functionalCommand(fn, a.Arg))
		}
	}

	return cmds, rep
}

func needsItem(fn string) bool {
	switch fn {
	case task.ActCraft, task.ActEquip, task.ActPlace, task.ActDrop:
		return true
	}
	return false
}

func functionalCommand(fn, arg string) protocol.Command {
	kind := map[string]string{
		task.ActUse:     protocol.CmdUse,
		task.ActAttack:  protocol.CmdAttack,
		task.ActPlace:   protocol.CmdPlace,
		task.ActDestroy: protocol.CmdDestroy,
		task.ActCraft:   protocol.CmdCraft,
		task.ActEquip:   protocol.CmdEquip,
		task.ActDrop:    protocol.CmdDrop,
	}[fn]
	cmd := protocol.Command{Kind: kind}
	if needsItem(fn) {
		cmd.Item = strings.ToUpper(strings.TrimSpace(arg))
	}
	return cmd
}

func clampMove(m [3]float64) ([3]float64, bool) {
	clamped := false
	for i := 0; i < 2; i++ {
		m[i], clamped = clampAxis(m[i], -MaxMoveAxis, MaxMoveAxis, clamped)
	}
	m[2], clamped = clampAxis(m[2], 0, MaxMoveAxis, clamped)
	return m, clamped
}

func clampCamera(c [2]float64) ([2]float64, bool) {
	clamped := false
	for i := range c {
		c[i], clamped = clampAxis(c[i], -MaxCameraDelta, MaxCameraDelta, clamped)
	}
	return c, clamped
}

func clampAxis(v, lo, hi float64, already bool) (float64, bool) {
	if v < lo {
		return lo, true
	}
	if v > hi {
		return hi, true
	}
	return v, already
}
