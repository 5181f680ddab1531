package data

import (
	"fmt"
	"os"
	"sort"

	"github.com/l1jgo/hecs/internal/component"
	"github.com/l1jgo/hecs/internal/core/ecs"
	"gopkg.in/yaml.v3"
)

// EntityEntry describes one entity of a seed file and its subtree.
// Components map a type tag to numeric field values.
type EntityEntry struct {
	Name       string                        `yaml:"name"`
	Active     *bool                         `yaml:"active"` // nil = true
	Components map[string]map[string]float64 `yaml:"components"`
	Children   []EntityEntry                 `yaml:"children"`
}

// WorldSeed is the entity tree a daemon starts with.
type WorldSeed struct {
	Entities []EntityEntry `yaml:"entities"`
}

// LoadWorldSeed loads a world seed YAML file.
func LoadWorldSeed(path string) (*WorldSeed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read world seed: %w", err)
	}
	var seed WorldSeed
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("parse world seed: %w", err)
	}
	return &seed, nil
}

// Count returns the number of entities in the seed, descendants included.
func (s *WorldSeed) Count() int {
	return countEntries(s.Entities)
}

func countEntries(entries []EntityEntry) int {
	n := len(entries)
	for _, e := range entries {
		n += countEntries(e.Children)
	}
	return n
}

// Spawn creates every seed entity under the root entity. Components are
// staged and land on the engine's next tick.
func (s *WorldSeed) Spawn(engine *ecs.Engine) error {
	for i := range s.Entities {
		if err := spawnEntry(engine, ecs.Nil, &s.Entities[i]); err != nil {
			return err
		}
	}
	return nil
}

func spawnEntry(engine *ecs.Engine, parent ecs.EntityID, e *EntityEntry) error {
	id, err := engine.CreateEntity(parent, e.Name)
	if err != nil {
		return fmt.Errorf("spawn %q: %w", e.Name, err)
	}

	// sorted so staging order does not depend on map iteration
	tags := make([]string, 0, len(e.Components))
	for tag := range e.Components {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	for _, tag := range tags {
		c := component.New(tag)
		for field, v := range e.Components[tag] {
			if !c.Set(field, v) {
				return fmt.Errorf("spawn %q: component %q has no writable field %q", e.Name, tag, field)
			}
		}
		if err := engine.AddComponentToEntity(c, id); err != nil {
			return fmt.Errorf("spawn %q: %w", e.Name, err)
		}
	}

	for i := range e.Children {
		if err := spawnEntry(engine, id, &e.Children[i]); err != nil {
			return err
		}
	}
	if e.Active != nil && !*e.Active {
		if err := engine.InactivateEntity(id); err != nil {
			return fmt.Errorf("spawn %q: %w", e.Name, err)
		}
	}
	return nil
}
