package task

import (
	"fmt"

	"minegym.ai/internal/protocol"
)

// Predicate kinds. Tasks describe success/failure as data, not as task
// subclasses; the episode loop dispatches over Kind.
const (
	PredInventoryThreshold = "INVENTORY_THRESHOLD"
	PredGoalReached        = "GOAL_REACHED"
	PredSurvivalTimer      = "SURVIVAL_TIMER"
	PredAgentDead          = "AGENT_DEAD"
	PredAllOf              = "ALL_OF"
	PredAnyOf              = "ANY_OF"
)

type Predicate struct {
	Kind string `yaml:"kind"`

	// INVENTORY_THRESHOLD
	Item  string `yaml:"item,omitempty"`
	Count int    `yaml:"count,omitempty"`

	// GOAL_REACHED
	Target    [3]float64 `yaml:"target,omitempty"`
	Tolerance float64    `yaml:"tolerance,omitempty"`

	// SURVIVAL_TIMER
	Ticks uint64 `yaml:"ticks,omitempty"`

	// ALL_OF / ANY_OF
	Of []Predicate `yaml:"of,omitempty"`
}

// Eval decides the predicate against the newest raw snapshot. Predicates
// see backend-native state, not the normalized observation, so they may
// use information the agent never sees.
func (p *Predicate) Eval(st *protocol.StateMsg) bool {
	if p == nil || st == nil {
		return false
	}
	switch p.Kind {
	case PredInventoryThreshold:
		return InventoryCount(st, p.Item) >= p.Count
	case PredGoalReached:
		tol := p.Tolerance
		if tol <= 0 {
			tol = 1.0
		}
		return distance(st.Player.Pos, p.Target) <= tol
	case PredSurvivalTimer:
		return st.Tick >= p.Ticks && st.Player.Health > 0
	case PredAgentDead:
		if st.Player.Health <= 0 {
			return true
		}
		for _, ev := range st.Events {
			if ev.Kind == protocol.EventAgentDeath {
				return true
			}
		}
		return false
	case PredAllOf:
		for i := range p.Of {
			if !p.Of[i].Eval(st) {
				return false
			}
		}
		return len(p.Of) > 0
	case PredAnyOf:
		for i := range p.Of {
			if p.Of[i].Eval(st) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func (p *Predicate) validate() error {
	if p == nil {
		return nil
	}
	switch p.Kind {
	case PredInventoryThreshold:
		if p.Item == "" || p.Count <= 0 {
			return fmt.Errorf("%s needs item and count > 0", p.Kind)
		}
	case PredGoalReached:
		if p.Tolerance < 0 {
			return fmt.Errorf("%s tolerance must be >= 0", p.Kind)
		}
	case PredSurvivalTimer:
		if p.Ticks == 0 {
			return fmt.Errorf("%s needs ticks > 0", p.Kind)
		}
	case PredAgentDead:
	case PredAllOf, PredAnyOf:
		if len(p.Of) == 0 {
			return fmt.Errorf("%s needs at least one sub-predicate", p.Kind)
		}
		for i := range p.Of {
			if err := p.Of[i].validate(); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unknown predicate kind %q", p.Kind)
	}
	return nil
}
