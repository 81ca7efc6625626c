package task

import (
	"fmt"

	"minegym.ai/internal/protocol"
)

// Reward kinds.
const (
	RewardSparse         = "SPARSE"
	RewardInventoryDelta = "INVENTORY_DELTA"
	RewardDistanceDelta  = "DISTANCE_DELTA"
)

// Reward is the task's shaping function, a pure function of two
// consecutive raw snapshots plus the success signal for the step.
type Reward struct {
	Kind string `yaml:"kind"`

	// Value is paid once, on the step where the success predicate fires.
	Value float64 `yaml:"value"`

	// INVENTORY_DELTA
	Item    string  `yaml:"item,omitempty"`
	PerItem float64 `yaml:"per_item,omitempty"`

	// DISTANCE_DELTA
	Target   [3]float64 `yaml:"target,omitempty"`
	PerBlock float64    `yaml:"per_block,omitempty"`
}

// Eval computes the reward for one step. prev is nil on the first step
// after reset, in which case only the success bonus can apply.
func (r Reward) Eval(prev, cur *protocol.StateMsg, succeeded bool) float64 {
	total := 0.0
	if succeeded {
		total += r.Value
	}
	if prev == nil || cur == nil {
		return total
	}
	switch r.Kind {
	case RewardSparse:
	case RewardInventoryDelta:
		gained := InventoryCount(cur, r.Item) - InventoryCount(prev, r.Item)
		if gained > 0 {
			total += float64(gained) * r.PerItem
		}
	case RewardDistanceDelta:
		closed := distance(prev.Player.Pos, r.Target) - distance(cur.Player.Pos, r.Target)
		total += closed * r.PerBlock
	}
	return total
}

func (r Reward) validate() error {
	switch r.Kind {
	case RewardSparse:
	case RewardInventoryDelta:
		if r.Item == "" || r.PerItem == 0 {
			return fmt.Errorf("%s needs item and per_item", r.Kind)
		}
	case RewardDistanceDelta:
		if r.PerBlock == 0 {
			return fmt.Errorf("%s needs per_block", r.Kind)
		}
	default:
		return fmt.Errorf("unknown reward kind %q", r.Kind)
	}
	if r.Value < 0 {
		return fmt.Errorf("success value must be >= 0")
	}
	return nil
}
