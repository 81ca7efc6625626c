package task

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Pack is a YAML file of task specs.
type Pack struct {
	Tasks []Spec `yaml:"tasks"`
}

// LoadPack reads a YAML task pack and registers every task in it.
// Later packs overwrite earlier registrations with the same ID.
func LoadPack(r *Registry, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var p Pack
	if err := yaml.Unmarshal(b, &p); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if len(p.Tasks) == 0 {
		return fmt.Errorf("%s: no tasks", path)
	}
	for _, s := range p.Tasks {
		if err := r.Register(s); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}
