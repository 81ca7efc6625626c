package task

import (
	"math"
	"strings"

	"minegym.ai/internal/protocol"
)

// Functional action names making up the fixed action space. Every task
// masks a subset of these; the mask never changes the action shape.
const (
	ActNoop    = "NOOP"
	ActUse     = "USE"
	ActAttack  = "ATTACK"
	ActPlace   = "PLACE"
	ActDestroy = "DESTROY"
	ActCraft   = "CRAFT"
	ActEquip   = "EQUIP"
	ActDrop    = "DROP"
)

var knownActions = map[string]struct{}{
	ActNoop: {}, ActUse: {}, ActAttack: {}, ActPlace: {},
	ActDestroy: {}, ActCraft: {}, ActEquip: {}, ActDrop: {},
}

func IsKnownAction(name string) bool {
	_, ok := knownActions[name]
	return ok
}

// Spec is one declarative task: world generation, agent start state,
// allowed actions/items, termination predicates and reward shaping.
// Immutable once registered; episodes hold a reference, never a copy.
type Spec struct {
	ID string `yaml:"id"`

	WorldGen   WorldGen   `yaml:"world_gen"`
	AgentStart AgentStart `yaml:"agent_start"`

	AllowedActions []string `yaml:"allowed_actions"`
	AllowedItems   []string `yaml:"allowed_items,omitempty"`

	Success *Predicate `yaml:"success,omitempty"`
	Failure *Predicate `yaml:"failure,omitempty"`
	Reward  Reward     `yaml:"reward"`

	// MaxSteps truncates the episode. A task must be able to terminate:
	// at least one of Success / MaxSteps is required.
	MaxSteps int `yaml:"max_steps"`

	FastResetSafe bool `yaml:"fast_reset_safe"`

	actionSet map[string]struct{}
	itemSet   map[string]struct{}
}

type WorldGen struct {
	Seed       int64    `yaml:"seed"`
	Biome      string   `yaml:"biome,omitempty"`
	Structures []string `yaml:"structures,omitempty"`
	StartTime  int      `yaml:"start_time"`
	Weather    string   `yaml:"weather,omitempty"`
}

type AgentStart struct {
	Pos       [3]float64 `yaml:"pos"`
	Yaw       float64    `yaml:"yaw"`
	Pitch     float64    `yaml:"pitch"`
	GameMode  string     `yaml:"game_mode"`
	Inventory []Stack    `yaml:"inventory,omitempty"`
	MainHand  string     `yaml:"main_hand,omitempty"`
}

type Stack struct {
	Slot  int    `yaml:"slot"`
	Item  string `yaml:"item"`
	Count int    `yaml:"count"`
}

// ActionAllowed reports whether a functional action is inside the mask.
// NOOP is always allowed.
func (s *Spec) ActionAllowed(name string) bool {
	if name == ActNoop {
		return true
	}
	_, ok := s.actionSet[name]
	return ok
}

// ItemAllowed reports whether an item argument is usable for this task.
// An empty allowed-item list permits everything.
func (s *Spec) ItemAllowed(item string) bool {
	if len(s.itemSet) == 0 {
		return true
	}
	_, ok := s.itemSet[strings.ToUpper(item)]
	return ok
}

// WireWorldGen converts the spec's generation parameters to the wire shape.
func (s *Spec) WireWorldGen() *protocol.WorldGen {
	return &protocol.WorldGen{
		Seed:       s.WorldGen.Seed,
		Biome:      s.WorldGen.Biome,
		Structures: append([]string(nil), s.WorldGen.Structures...),
		StartTime:  s.WorldGen.StartTime,
		Weather:    s.WorldGen.Weather,
	}
}

// WireAgentStart converts the spec's start state to the wire shape.
func (s *Spec) WireAgentStart() *protocol.AgentStart {
	inv := make([]protocol.ItemStack, 0, len(s.AgentStart.Inventory))
	for _, st := range s.AgentStart.Inventory {
		inv = append(inv, protocol.ItemStack{Slot: st.Slot, Item: st.Item, Count: st.Count})
	}
	return &protocol.AgentStart{
		Pos:       s.AgentStart.Pos,
		Yaw:       s.AgentStart.Yaw,
		Pitch:     s.AgentStart.Pitch,
		GameMode:  s.AgentStart.GameMode,
		Inventory: inv,
		MainHand:  s.AgentStart.MainHand,
	}
}

// InventoryCount sums an item across a snapshot's inventory.
func InventoryCount(st *protocol.StateMsg, item string) int {
	n := 0
	for _, s := range st.Inventory {
		if s.Item == item {
			n += s.Count
		}
	}
	return n
}

func distance(a, b [3]float64) float64 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	dz := a[2] - b[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
