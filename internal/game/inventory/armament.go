package inventory

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Slot identifies a place on the body an armament can occupy.
type Slot string

const (
	SlotHead      Slot = "head"
	SlotBody      Slot = "body"
	SlotArms      Slot = "arms"
	SlotLegs      Slot = "legs"
	SlotFeet      Slot = "feet"
	SlotLeftHand  Slot = "left_hand"
	SlotRightHand Slot = "right_hand"
	// SlotAny lets EquipRequirements pick the first free configuration.
	SlotAny Slot = "any"
)

// Slots lists every concrete slot in display order.
var Slots = []Slot{SlotHead, SlotBody, SlotArms, SlotLegs, SlotFeet, SlotLeftHand, SlotRightHand}

var slotDisplayNames = map[Slot]string{
	SlotHead:      "Head",
	SlotBody:      "Body",
	SlotArms:      "Arms",
	SlotLegs:      "Legs",
	SlotFeet:      "Feet",
	SlotLeftHand:  "Left Hand",
	SlotRightHand: "Right Hand",
	SlotAny:       "Any",
}

// Valid reports whether s names a concrete slot.
func (s Slot) Valid() bool {
	_, ok := slotDisplayNames[s]
	return ok && s != SlotAny
}

// DisplayName returns the human-readable label for s.
func (s Slot) DisplayName() string {
	if name, ok := slotDisplayNames[s]; ok {
		return name
	}
	return string(s)
}

// HoldMethod describes which hands an equipped armament occupies.
type HoldMethod int

const (
	HoldNone HoldMethod = iota
	HoldLeftHand
	HoldRightHand
	HoldBothHands
)

// String returns the method's name.
func (h HoldMethod) String() string {
	switch h {
	case HoldLeftHand:
		return "left_hand"
	case HoldRightHand:
		return "right_hand"
	case HoldBothHands:
		return "both_hands"
	default:
		return "none"
	}
}

// HoldMethodFor derives the hold method from the slots an armament occupies.
// A single hand slot holds in that hand; both hand slots together hold in
// both; anything else is not held.
func HoldMethodFor(slots []Slot) HoldMethod {
	var left, right bool
	for _, s := range slots {
		switch s {
		case SlotLeftHand:
			left = true
		case SlotRightHand:
			right = true
		}
	}
	switch {
	case left && right && len(slots) == 2:
		return HoldBothHands
	case left && len(slots) == 1:
		return HoldLeftHand
	case right && len(slots) == 1:
		return HoldRightHand
	default:
		return HoldNone
	}
}

// ArmamentDef is an equippable item loaded from YAML.
type ArmamentDef struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	// UsableConfigs lists the alternative slot sets the armament can occupy,
	// in order of preference.
	UsableConfigs [][]Slot `yaml:"usable_configs"`
	// Abilities holds the ability ids bound to L1, L2, R1 and R2. Empty
	// entries leave the slot to the fighter's default.
	Abilities      [4]string `yaml:"abilities"`
	FlipOnLeftHand bool      `yaml:"flip_on_left_hand"`
}

// Validate checks that the armament definition is internally consistent.
//
// Postcondition: Returns nil if valid, or an error listing all violations.
func (d *ArmamentDef) Validate() error {
	var errs []string
	if d.ID == "" {
		errs = append(errs, "id must not be empty")
	}
	if len(d.UsableConfigs) == 0 {
		errs = append(errs, "usable_configs must not be empty")
	}
	for i, cfg := range d.UsableConfigs {
		if len(cfg) == 0 {
			errs = append(errs, fmt.Sprintf("usable_configs[%d] must not be empty", i))
		}
		seen := make(map[Slot]bool, len(cfg))
		for _, s := range cfg {
			if !s.Valid() {
				errs = append(errs, fmt.Sprintf("usable_configs[%d]: unknown slot %q", i, s))
			}
			if seen[s] {
				errs = append(errs, fmt.Sprintf("usable_configs[%d]: slot %q repeated", i, s))
			}
			seen[s] = true
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("armament %q validation failed: %s", d.ID, strings.Join(errs, "; "))
	}
	return nil
}

// EquipRequirements selects the slots the armament would occupy when equipped
// into attempted. isFree reports whether a slot is currently empty.
//
// The first fully free configuration containing attempted wins; otherwise the
// first fully free configuration; otherwise the first configuration, whose
// occupants must then be displaced.
//
// Precondition: d has at least one usable configuration.
func (d *ArmamentDef) EquipRequirements(attempted Slot, isFree func(Slot) bool) []Slot {
	allFree := func(cfg []Slot) bool {
		for _, s := range cfg {
			if !isFree(s) {
				return false
			}
		}
		return true
	}
	contains := func(cfg []Slot, want Slot) bool {
		for _, s := range cfg {
			if s == want {
				return true
			}
		}
		return false
	}
	for _, cfg := range d.UsableConfigs {
		if allFree(cfg) && contains(cfg, attempted) {
			return cfg
		}
	}
	for _, cfg := range d.UsableConfigs {
		if allFree(cfg) {
			return cfg
		}
	}
	return d.UsableConfigs[0]
}

// LoadArmaments reads all .yaml files in dir and returns the parsed definitions.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all valid definitions or a non-nil error on the first failure.
func LoadArmaments(dir string) ([]*ArmamentDef, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("LoadArmaments: cannot read directory %q: %w", dir, err)
	}
	var defs []*ArmamentDef
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("LoadArmaments: cannot read %q: %w", path, err)
		}
		var d ArmamentDef
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&d); err != nil {
			return nil, fmt.Errorf("LoadArmaments: cannot parse %q: %w", path, err)
		}
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("LoadArmaments: %q: %w", path, err)
		}
		defs = append(defs, &d)
	}
	return defs, nil
}
