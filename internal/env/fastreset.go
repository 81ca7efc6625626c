package env

import (
	"fmt"
	"math"
	"math/rand"

	"minegym.ai/internal/protocol"
	"minegym.ai/internal/task"
)

// fastResetCommands builds the control-command replay that restores a task
// start state without regenerating the world: clear dropped items and the
// inventory, restore the start time/weather, re-issue the start inventory,
// then teleport to a fresh spot so consecutive episodes do not overlap.
//
// Side effects of a fast reset mirror its nature: changes the agent made
// to the terrain persist, and stats carried by the backend are not reset.
func fastResetCommands(spec *task.Spec, rng *rand.Rand, teleportRange float64) []protocol.Command {
	cmds := []protocol.Command{
		{Kind: protocol.CmdControl, Raw: "/kill @e[type=item]"},
		{Kind: protocol.CmdControl, Raw: "/clear"},
		{Kind: protocol.CmdControl, Raw: fmt.Sprintf("/time set %d", spec.WorldGen.StartTime)},
		{Kind: protocol.CmdControl, Raw: fmt.Sprintf("/weather %s", spec.WorldGen.Weather)},
	}
	for _, st := range spec.AgentStart.Inventory {
		cmds = append(cmds, protocol.Command{
			Kind: protocol.CmdControl,
			Raw:  fmt.Sprintf("/replaceitem slot %d %s %d", st.Slot, st.Item, st.Count),
		})
	}
	if spec.AgentStart.MainHand != "" {
		cmds = append(cmds, protocol.Command{Kind: protocol.CmdEquip, Item: spec.AgentStart.MainHand})
	}

	x, z := spec.AgentStart.Pos[0], spec.AgentStart.Pos[2]
	if teleportRange > 0 {
		angle := rng.Float64() * 2 * math.Pi
		x += teleportRange * math.Cos(angle)
		z += teleportRange * math.Sin(angle)
	}
	cmds = append(cmds, protocol.Command{
		Kind: protocol.CmdControl,
		Raw:  fmt.Sprintf("/tp %.1f %.1f %.1f %.1f %.1f", x, spec.AgentStart.Pos[1], z, spec.AgentStart.Yaw, spec.AgentStart.Pitch),
	})
	return cmds
}
