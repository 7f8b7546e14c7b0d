package ability

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/ricochet/internal/game/combat"
	"github.com/cory-johannsen/ricochet/internal/game/effect"
	"github.com/cory-johannsen/ricochet/internal/game/stat"
)

// Kind selects the behaviour of an ability.
type Kind string

const (
	KindMelee  Kind = "melee"
	KindBlock  Kind = "block"
	KindParry  Kind = "parry"
	KindRanged Kind = "ranged"
	KindCharge Kind = "charge"
)

// Valid reports whether k names a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindMelee, KindBlock, KindParry, KindRanged, KindCharge:
		return true
	}
	return false
}

// Timestamps are the stage boundaries of a timed ability, measured from the
// moment of use: damage start, damage end, and ability end.
type Timestamps [3]time.Duration

// Manual tells an AI controller how and when to use an ability.
type Manual struct {
	ChoiceWeighting float64       `yaml:"choice_weighting"`
	EngageRange     float64       `yaml:"engage_range"`
	HoldDuration    time.Duration `yaml:"hold_duration"`
	Repeatable      bool          `yaml:"repeatable"`
}

// Def is the static definition of an ability, loaded from YAML.
type Def struct {
	ID          string                `yaml:"id"`
	Name        string                `yaml:"name"`
	Kind        Kind                  `yaml:"kind"`
	Cost        stat.ResourceGroup    `yaml:"cost"`
	Damage      stat.Scaler           `yaml:"damage"`
	Heft        int                   `yaml:"heft"`
	Cooldown    time.Duration         `yaml:"cooldown"`
	Timestamps  Timestamps            `yaml:"timestamps"`
	UseEffect   string                `yaml:"use_effect"`
	Block       combat.BlockConfig    `yaml:"block"`
	Projectile  combat.ProjectileSpec `yaml:"projectile"`
	HoldToChain string                `yaml:"hold_to_chain"`
	// ImpactVelocity is the speed a charge knocks its target away at.
	ImpactVelocity float64 `yaml:"impact_velocity"`
	// EventDriven abilities advance on animation events instead of timestamps.
	EventDriven    bool   `yaml:"event_driven"`
	Trigger        string `yaml:"trigger"`
	EnableTrigger  string `yaml:"enable_trigger"`
	DisableTrigger string `yaml:"disable_trigger"`
	Manual         Manual `yaml:"manual"`

	useEffect *effect.Def
	chain     *Def
}

// Effect returns the resolved use effect, or nil.
func (d *Def) Effect() *effect.Def { return d.useEffect }

// Chain returns the resolved hold-to-chain ability, or nil.
func (d *Def) Chain() *Def { return d.chain }

// Bind sets the resolved references directly; used when building defs in code.
func (d *Def) Bind(useEffect *effect.Def, chain *Def) {
	d.useEffect = useEffect
	d.chain = chain
}

// Validate reports every structural problem with the definition.
func (d *Def) Validate() error {
	var errs []string
	if d.ID == "" {
		errs = append(errs, "id must not be empty")
	}
	if !d.Kind.Valid() {
		errs = append(errs, fmt.Sprintf("unknown kind %q", d.Kind))
	}
	if d.Cooldown < 0 {
		errs = append(errs, "cooldown must be >= 0")
	}
	if d.Kind != KindBlock && !d.EventDriven {
		prev := time.Duration(0)
		for i, ts := range d.Timestamps {
			if ts < prev {
				errs = append(errs, fmt.Sprintf("timestamps[%d] must be >= %s, got %s", i, prev, ts))
			}
			prev = ts
		}
	}
	if d.Kind == KindBlock || d.Kind == KindParry || d.Kind == KindCharge {
		if d.Block.BlockAngle < 0 || d.Block.BlockAngle > 180 {
			errs = append(errs, fmt.Sprintf("block.block_angle must be in [0, 180], got %g", d.Block.BlockAngle))
		}
		if d.Block.DamageReduction < 0 {
			errs = append(errs, "block.damage_reduction must be >= 0")
		}
	}
	if d.Kind == KindCharge && d.ImpactVelocity < 0 {
		errs = append(errs, "impact_velocity must be >= 0")
	}
	if d.Kind == KindRanged && d.Projectile.Range <= 0 {
		errs = append(errs, "projectile.range must be > 0")
	}
	if d.HoldToChain != "" && d.Kind != KindMelee {
		errs = append(errs, "hold_to_chain is only supported on melee abilities")
	}
	if len(errs) > 0 {
		return fmt.Errorf("ability %q: %s", d.ID, strings.Join(errs, "; "))
	}
	return nil
}

// Registry holds all known ability Defs keyed by ID.
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

// Resolve binds every use_effect and hold_to_chain reference.
//
// Precondition: effects must not be nil.
// Postcondition: Returns an error naming every unresolved reference and every
// chain that loops back on itself.
func (r *Registry) Resolve(effects *effect.Registry) error {
	var errs []string
	for _, d := range r.All() {
		d.useEffect, d.chain = nil, nil
		if d.UseEffect != "" {
			e, ok := effects.Get(d.UseEffect)
			if !ok {
				errs = append(errs, fmt.Sprintf("ability %q: unknown use_effect %q", d.ID, d.UseEffect))
			}
			d.useEffect = e
		}
		if d.HoldToChain != "" {
			c, ok := r.Get(d.HoldToChain)
			if !ok {
				errs = append(errs, fmt.Sprintf("ability %q: unknown hold_to_chain %q", d.ID, d.HoldToChain))
			}
			d.chain = c
		}
	}
	for _, d := range r.All() {
		seen := map[*Def]bool{d: true}
		for c := d.chain; c != nil; c = c.chain {
			if seen[c] {
				errs = append(errs, fmt.Sprintf("ability %q: hold_to_chain cycle", d.ID))
				break
			}
			seen[c] = true
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("resolving abilities: %s", strings.Join(errs, "; "))
	}
	return nil
}

// LoadDirectory reads every *.yaml file in dir, parses each as a Def and
// returns a populated, unresolved Registry.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a non-nil Registry, or an error if any file fails to
// parse or validate, or two files declare the same ID.
func LoadDirectory(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading ability dir %q: %w", dir, err)
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
			return nil, fmt.Errorf("duplicate ability id %q in %q", def.ID, path)
		}
		reg.Register(&def)
	}
	return reg, nil
}
