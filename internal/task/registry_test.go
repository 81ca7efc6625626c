package task

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestRegistry_LoadUnknown(t *testing.T) {
	r := NewRegistry()
	_, err := r.Load("nope")
	var ute *UnknownTaskError
	if !errors.As(err, &ute) || ute.ID != "nope" {
		t.Fatalf("expected UnknownTaskError, got %v", err)
	}
}

func TestRegistry_RegisterValidates(t *testing.T) {
	r := NewRegistry()

	// No mask.
	err := r.Register(Spec{ID: "t", MaxSteps: 10})
	if err == nil {
		t.Fatalf("expected empty mask rejected")
	}

	// No way to terminate.
	err = r.Register(Spec{ID: "t", AllowedActions: []string{ActUse}})
	if err == nil {
		t.Fatalf("expected non-terminating task rejected")
	}

	// Unknown action name.
	err = r.Register(Spec{ID: "t", AllowedActions: []string{"FLY"}, MaxSteps: 10})
	if err == nil {
		t.Fatalf("expected unknown action rejected")
	}

	// Valid; overwrite by ID.
	ok := Spec{ID: "t", AllowedActions: []string{"use"}, MaxSteps: 10}
	if err := r.Register(ok); err != nil {
		t.Fatalf("Register: %v", err)
	}
	ok.MaxSteps = 20
	if err := r.Register(ok); err != nil {
		t.Fatalf("re-Register: %v", err)
	}
	got, err := r.Load("t")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.MaxSteps != 20 {
		t.Fatalf("overwrite lost: %+v", got)
	}
	if !got.ActionAllowed(ActUse) {
		t.Fatalf("mask not normalized to upper case")
	}
	if !got.ActionAllowed(ActNoop) {
		t.Fatalf("NOOP must always be allowed")
	}
	if got.ActionAllowed(ActCraft) {
		t.Fatalf("CRAFT must be outside the mask")
	}
}

func TestBuiltin_AllValid(t *testing.T) {
	r := Builtin()
	ids := r.IDs()
	if len(ids) == 0 {
		t.Fatalf("no builtin tasks")
	}
	for _, id := range ids {
		s, err := r.Load(id)
		if err != nil {
			t.Fatalf("Load %s: %v", id, err)
		}
		if s.Success == nil && s.MaxSteps <= 0 {
			t.Fatalf("task %s cannot terminate", id)
		}
	}
	if _, err := r.Load("harvest_wool_with_shears_and_sheep"); err != nil {
		t.Fatalf("expected wool task registered: %v", err)
	}
}

func TestLoadPack_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pack.yaml")
	body := `
tasks:
  - id: pack_task
    world_gen:
      seed: 7
      biome: DESERT
      start_time: 0
    agent_start:
      pos: [0, 64, 0]
      game_mode: survival
      inventory:
        - { slot: 0, item: shears, count: 1 }
    allowed_actions: [use, attack]
    allowed_items: [shears, wool]
    success:
      kind: INVENTORY_THRESHOLD
      item: WOOL
      count: 2
    reward:
      kind: INVENTORY_DELTA
      item: WOOL
      per_item: 0.5
      value: 1
    max_steps: 100
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	r := NewRegistry()
	if err := LoadPack(r, path); err != nil {
		t.Fatalf("LoadPack: %v", err)
	}
	s, err := r.Load("pack_task")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.WorldGen.Biome != "DESERT" || s.Success.Item != "WOOL" || s.Success.Count != 2 {
		t.Fatalf("bad spec: %+v", s)
	}
	if !s.ItemAllowed("wool") {
		t.Fatalf("item set not case-normalized")
	}
	if s.ItemAllowed("DIAMOND") {
		t.Fatalf("item outside allow-list accepted")
	}
}

func TestLoadPack_BadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("tasks: ["), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := LoadPack(NewRegistry(), path); err == nil {
		t.Fatalf("expected parse error")
	}
}
