package effect

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/ricochet/internal/game/stat"
)

// Infinite is the duration sentinel for effects that never expire.
const Infinite time.Duration = -1

// Duration types accepted in Def.DurationType.
const (
	DurationTimed     = "timed"
	DurationPermanent = "permanent"
)

// Def is the static definition of a status effect, loaded from YAML.
// It is the template from which Applied instances are created.
type Def struct {
	ID             string              `yaml:"id"`
	Name           string              `yaml:"name"`
	Description    string              `yaml:"description"`
	DurationType   string              `yaml:"duration_type"` // "timed" | "permanent"
	Duration       time.Duration       `yaml:"duration"`
	Attributes     stat.AttributeGroup `yaml:"attributes"`
	MaxResources   stat.ResourceGroup  `yaml:"max_resources"`
	RegenResources stat.ResourceGroup  `yaml:"regen_resources"`
	// Children names effects whose deltas are applied and removed together
	// with this one. Their own durations are ignored.
	Children []string `yaml:"children"`

	children []*Def
}

// DefaultDuration returns the duration a new Applied starts with when no
// override is supplied.
//
// Postcondition: Returns Infinite for permanent effects.
func (d *Def) DefaultDuration() time.Duration {
	if d.DurationType == DurationPermanent {
		return Infinite
	}
	return d.Duration
}

// Validate reports every structural problem with the definition.
//
// Postcondition: Returns nil when the definition is usable.
func (d *Def) Validate() error {
	var errs []string
	if d.ID == "" {
		errs = append(errs, "id must not be empty")
	}
	switch d.DurationType {
	case DurationTimed:
		if d.Duration <= 0 {
			errs = append(errs, fmt.Sprintf("timed effect duration must be > 0, got %s", d.Duration))
		}
	case DurationPermanent:
	default:
		errs = append(errs, fmt.Sprintf("duration_type must be %q or %q, got %q", DurationTimed, DurationPermanent, d.DurationType))
	}
	for _, c := range d.Children {
		if c == d.ID {
			errs = append(errs, "effect must not list itself as a child")
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("effect %q: %s", d.ID, strings.Join(errs, "; "))
	}
	return nil
}

// Totals returns the deltas of d summed with those of every resolved child.
func (d *Def) Totals() (attributes stat.AttributeGroup, maxes, regens stat.ResourceGroup) {
	attributes, maxes, regens = d.Attributes, d.MaxResources, d.RegenResources
	for _, c := range d.children {
		a, m, r := c.Totals()
		attributes = attributes.Add(a)
		maxes = maxes.Add(m)
		regens = regens.Add(r)
	}
	return attributes, maxes, regens
}

// IsResourcesDrained reports whether any resource this effect drains has
// been depleted on r.
func (d *Def) IsResourcesDrained(r ResourceReader) bool {
	_, _, regens := d.Totals()
	for i, v := range regens {
		if v < 0 && r.GetResource(stat.Resource(i)) <= 0 {
			return true
		}
	}
	return false
}

// Registry holds all known effect Defs keyed by ID.
type Registry struct {
	defs map[string]*Def
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Def)}
}

// Register adds def, overwriting any existing entry with the same ID.
//
// Precondition: def must not be nil and def.ID must not be empty.
func (r *Registry) Register(def *Def) {
	r.defs[def.ID] = def
}

// Get returns the Def for id, or (nil, false) if not found.
func (r *Registry) Get(id string) (*Def, bool) {
	d, ok := r.defs[id]
	return d, ok
}

// All returns the registered Defs sorted by ID.
func (r *Registry) All() []*Def {
	out := make([]*Def, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Resolve binds every def's Children to registered defs.
//
// Postcondition: Returns an error naming the first unknown child or cycle;
// defs are then left partially bound and must not be used.
func (r *Registry) Resolve() error {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(r.defs))
	var visit func(d *Def) error
	visit = func(d *Def) error {
		switch state[d.ID] {
		case visiting:
			return fmt.Errorf("effect %q: children form a cycle", d.ID)
		case done:
			return nil
		}
		state[d.ID] = visiting
		d.children = d.children[:0]
		for _, id := range d.Children {
			c, ok := r.defs[id]
			if !ok {
				return fmt.Errorf("effect %q: unknown child %q", d.ID, id)
			}
			if err := visit(c); err != nil {
				return err
			}
			d.children = append(d.children, c)
		}
		state[d.ID] = done
		return nil
	}
	for _, d := range r.All() {
		if err := visit(d); err != nil {
			return err
		}
	}
	return nil
}

// LoadDirectory reads every *.yaml file in dir, parses each as a Def and
// returns a populated Registry.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a non-nil Registry with children resolved, or an
// error if any file fails to parse or validate, two files declare the same
// ID, or a child cannot be resolved.
func LoadDirectory(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading effect dir %q: %w", dir, err)
	}
	reg := NewRegistry()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		var def Def
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&def); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
		if err := def.Validate(); err != nil {
			return nil, fmt.Errorf("validating %q: %w", path, err)
		}
		if _, dup := reg.Get(def.ID); dup {
			return nil, fmt.Errorf("duplicate effect id %q in %q", def.ID, path)
		}
		reg.Register(&def)
	}
	if err := reg.Resolve(); err != nil {
		return nil, err
	}
	return reg, nil
}
