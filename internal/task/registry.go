package task

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// UnknownTaskError reports a task identifier nobody registered.
// Caller-fixable; never retried.
type UnknownTaskError struct {
	ID string
}

func (e *UnknownTaskError) Error() string {
	return fmt.Sprintf("unknown task: %q", e.ID)
}

// Registry holds immutable task specs keyed by ID. Registration
// normalizes and validates; lookups hand out shared references.
type Registry struct {
	mu    sync.RWMutex
	specs map[string]*Spec
}

func NewRegistry() *Registry {
	return &Registry{specs: map[string]*Spec{}}
}

// Register inserts or overwrites a spec by ID after validation.
func (r *Registry) Register(s Spec) error {
	s.normalize()
	if err := s.validate(); err != nil {
		return fmt.Errorf("task %q: %w", s.ID, err)
	}
	r.mu.Lock()
	r.specs[s.ID] = &s
	r.mu.Unlock()
	return nil
}

// Load resolves a task ID to its spec.
func (r *Registry) Load(id string) (*Spec, error) {
	r.mu.RLock()
	s, ok := r.specs[id]
	r.mu.RUnlock()
	if !ok {
		return nil, &UnknownTaskError{ID: id}
	}
	return s, nil
}

// IDs lists registered task identifiers, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.specs))
	for id := range r.specs {
		out = append(out, id)
	}
	r.mu.RUnlock()
	sort.Strings(out)
	return out
}

func (s *Spec) normalize() {
	s.ID = strings.TrimSpace(s.ID)

	s.actionSet = map[string]struct{}{}
	seen := s.AllowedActions
	s.AllowedActions = s.AllowedActions[:0]
	for _, a := range seen {
		a = strings.ToUpper(strings.TrimSpace(a))
		if a == "" {
			continue
		}
		if _, dup := s.actionSet[a]; dup {
			continue
		}
		s.actionSet[a] = struct{}{}
		s.AllowedActions = append(s.AllowedActions, a)
	}

	s.itemSet = map[string]struct{}{}
	for i, it := range s.AllowedItems {
		up := strings.ToUpper(strings.TrimSpace(it))
		s.AllowedItems[i] = up
		s.itemSet[up] = struct{}{}
	}

	if s.AgentStart.GameMode == "" {
		s.AgentStart.GameMode = "SURVIVAL"
	}
	s.AgentStart.GameMode = strings.ToUpper(s.AgentStart.GameMode)
	if s.WorldGen.Weather == "" {
		s.WorldGen.Weather = "CLEAR"
	}
	if s.Reward.Kind == "" {
		s.Reward.Kind = RewardSparse
		if s.Reward.Value == 0 {
			s.Reward.Value = 1
		}
	}
}

func (s *Spec) validate() error {
	if s.ID == "" {
		return fmt.Errorf("id must not be empty")
	}
	if len(s.AllowedActions) == 0 {
		return fmt.Errorf("allowed_actions must not be empty")
	}
	for _, a := range s.AllowedActions {
		if !IsKnownAction(a) {
			return fmt.Errorf("unknown action %q in allowed_actions", a)
		}
	}
	switch s.AgentStart.GameMode {
	case "SURVIVAL", "CREATIVE", "HARDCORE":
	default:
		return fmt.Errorf("unknown game_mode %q", s.AgentStart.GameMode)
	}
	// The task must be able to terminate.
	if s.Success == nil && s.MaxSteps <= 0 {
		return fmt.Errorf("one of success predicate or max_steps is required")
	}
	if s.MaxSteps < 0 {
		return fmt.Errorf("max_steps must be >= 0")
	}
	if err := s.Success.validate(); err != nil {
		return fmt.Errorf("success: %w", err)
	}
	if err := s.Failure.validate(); err != nil {
		return fmt.Errorf("failure: %w", err)
	}
	if err := s.Reward.validate(); err != nil {
		return fmt.Errorf("reward: %w", err)
	}
	for _, st := range s.AgentStart.Inventory {
		if st.Item == "" || st.Count <= 0 || st.Slot < 0 {
			return fmt.Errorf("bad inventory stack %+v", st)
		}
	}
	return nil
}
