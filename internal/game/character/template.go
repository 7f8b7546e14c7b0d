// Package character loads character templates and assembles the sheet,
// fighter and equipment that make up a combatant.
package character

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/ricochet/internal/game/sheet"
	"github.com/cory-johannsen/ricochet/internal/game/stat"
)

// Controller names what drives a character's input.
type Controller string

const (
	// ControllerAI attaches a peer controller.
	ControllerAI Controller = "ai"
	// ControllerIdle leaves the character without input.
	ControllerIdle Controller = "idle"
)

// ArmamentEntry is an owned armament and how many copies are carried.
type ArmamentEntry struct {
	ID    string `yaml:"id"`
	Count int    `yaml:"count"`
}

// Template describes a character before it is built.
type Template struct {
	ID         string     `yaml:"id"`
	Name       string     `yaml:"name"`
	Team       string     `yaml:"team"`
	Controller Controller `yaml:"controller"`
	// Script names the Lua hook set consulted by the AI controller.
	Script          string                        `yaml:"script"`
	BaseMoveSpeed   float64                       `yaml:"base_move_speed"`
	BaseRotateSpeed float64                       `yaml:"base_rotate_speed"`
	Attributes      stat.AttributeGroup           `yaml:"attributes"`
	Resources       map[string]sheet.ResourceSpec `yaml:"resources"`
	Armaments       []ArmamentEntry               `yaml:"armaments"`
	// Defaults holds the ability ids used by empty slots, in L1, L2, R1, R2 order.
	Defaults [4]string `yaml:"defaults"`
}

// Validate checks the template for missing or unknown fields.
//
// Postcondition: Returns nil if valid, or an error listing all violations.
func (t *Template) Validate() error {
	var errs []string
	if t.ID == "" {
		errs = append(errs, "id must not be empty")
	}
	if t.Name == "" {
		errs = append(errs, "name must not be empty")
	}
	switch t.Controller {
	case "", ControllerAI, ControllerIdle:
	default:
		errs = append(errs, fmt.Sprintf("unknown controller %q", t.Controller))
	}
	for name, spec := range t.Resources {
		if _, err := stat.ParseResource(name); err != nil {
			errs = append(errs, err.Error())
		}
		if spec.Max < 0 {
			errs = append(errs, fmt.Sprintf("resources.%s.max must be >= 0", name))
		}
	}
	for i, a := range t.Armaments {
		if a.ID == "" {
			errs = append(errs, fmt.Sprintf("armaments[%d].id must not be empty", i))
		}
		if a.Count < 1 {
			errs = append(errs, fmt.Sprintf("armaments[%d].count must be >= 1", i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("character %q validation failed: %s", t.ID, strings.Join(errs, "; "))
	}
	return nil
}

// ResourceSpecs converts the named resources into the sheet's indexed form.
//
// Precondition: t passed Validate.
func (t *Template) ResourceSpecs() [stat.ResourceCount]sheet.ResourceSpec {
	var out [stat.ResourceCount]sheet.ResourceSpec
	for name, spec := range t.Resources {
		if r, err := stat.ParseResource(name); err == nil {
			out[r] = spec
		}
	}
	return out
}

// Registry holds character templates indexed by ID.
type Registry struct {
	templates map[string]*Template
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{templates: make(map[string]*Template)}
}

// Register adds t to the registry.
//
// Postcondition: Get(t.ID) returns t; returns error if t.ID already registered.
func (r *Registry) Register(t *Template) error {
	if _, exists := r.templates[t.ID]; exists {
		return fmt.Errorf("character: Registry.Register: template ID %q already registered", t.ID)
	}
	r.templates[t.ID] = t
	return nil
}

// Get returns the template for id and whether it was found.
func (r *Registry) Get(id string) (*Template, bool) {
	t, ok := r.templates[id]
	return t, ok
}

// All returns every template sorted by ID.
func (r *Registry) All() []*Template {
	out := make([]*Template, 0, len(r.templates))
	for _, t := range r.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LoadDirectory reads every .yaml template in dir.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a registry of valid templates or a non-nil error on the first failure.
func LoadDirectory(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("character.LoadDirectory: cannot read directory %q: %w", dir, err)
	}
	reg := NewRegistry()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("character.LoadDirectory: cannot read %q: %w", path, err)
		}
		var t Template
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&t); err != nil {
			return nil, fmt.Errorf("character.LoadDirectory: cannot parse %q: %w", path, err)
		}
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("character.LoadDirectory: %q: %w", path, err)
		}
		if err := reg.Register(&t); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
