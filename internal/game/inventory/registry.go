package inventory

import (
	"fmt"
	"sort"
)

// Registry holds all loaded armament definitions indexed by ID.
type Registry struct {
	armaments map[string]*ArmamentDef
}

// NewRegistry returns an empty Registry.
//
// Postcondition: all internal maps are initialised.
func NewRegistry() *Registry {
	return &Registry{armaments: make(map[string]*ArmamentDef)}
}

// RegisterArmament adds d to the registry.
//
// Precondition:  d must not be nil.
// Postcondition: Armament(d.ID) returns (d, true); returns error if d.ID already registered.
func (r *Registry) RegisterArmament(d *ArmamentDef) error {
	if _, exists := r.armaments[d.ID]; exists {
		return fmt.Errorf("inventory: Registry.RegisterArmament: armament ID %q already registered", d.ID)
	}
	r.armaments[d.ID] = d
	return nil
}

// Armament returns the ArmamentDef for the given id and whether it was found.
func (r *Registry) Armament(id string) (*ArmamentDef, bool) {
	d, ok := r.armaments[id]
	return d, ok
}

// AllArmaments returns all registered definitions sorted by ID.
//
// Postcondition: len(result) == number of registered armaments.
func (r *Registry) AllArmaments() []*ArmamentDef {
	out := make([]*ArmamentDef, 0, len(r.armaments))
	for _, d := range r.armaments {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LoadRegistry loads every armament in dir into a new Registry.
func LoadRegistry(dir string) (*Registry, error) {
	defs, err := LoadArmaments(dir)
	if err != nil {
		return nil, err
	}
	r := NewRegistry()
	for _, d := range defs {
		if err := r.RegisterArmament(d); err != nil {
			return nil, err
		}
	}
	return r, nil
}
