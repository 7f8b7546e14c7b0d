package inventory

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/ricochet/internal/game/ability"
	"github.com/cory-johannsen/ricochet/internal/game/combat"
	"github.com/cory-johannsen/ricochet/internal/game/fighter"
)

var (
	// ErrNotOwned is returned when every owned copy of an armament is already equipped.
	ErrNotOwned = errors.New("inventory: no unequipped copy owned")
	// ErrSlotBusy is returned when an armament occupying a needed slot is mid-action.
	ErrSlotBusy = errors.New("inventory: slot occupant cannot be stopped")
)

// AbilitySource resolves ability ids to definitions.
type AbilitySource interface {
	Get(id string) (*ability.Def, bool)
}

// Armament is a spawned, equipped copy of an ArmamentDef.
type Armament struct {
	ID        string
	Def       *ArmamentDef
	UsedSlots []Slot
	Hold      HoldMethod
	// Box is armed by the armament's melee abilities.
	Box *combat.DamageBox

	instances [fighter.SlotCount]ability.Instance
}

// Mirrored reports whether the armament is flipped for the left hand.
func (a *Armament) Mirrored() bool {
	return a.Def.FlipOnLeftHand && a.Hold == HoldLeftHand
}

// Instance returns the ability instance created for slot i, mapped or not.
func (a *Armament) Instance(i fighter.Slot) ability.Instance { return a.instances[i] }

// MappedAbilities returns the instances the armament binds given its hold
// method: the left hand feeds L1 and L2, the right hand R1 and R2, and both
// hands all four.
func (a *Armament) MappedAbilities() [fighter.SlotCount]ability.Instance {
	var out [fighter.SlotCount]ability.Instance
	switch a.Hold {
	case HoldLeftHand:
		out[fighter.L1], out[fighter.L2] = a.instances[fighter.L1], a.instances[fighter.L2]
	case HoldRightHand:
		out[fighter.R1], out[fighter.R2] = a.instances[fighter.R1], a.instances[fighter.R2]
	case HoldBothHands:
		out = a.instances
	}
	return out
}

// Equipment tracks owned armaments and which slots they occupy, keeping the
// fighter's ability slots in step.
//
// It is not safe for concurrent use; the caller must serialise access.
type Equipment struct {
	fighter   *fighter.Fighter
	abilities AbilitySource
	logger    *zap.Logger

	order    []string
	defs     map[string]*ArmamentDef
	owned    map[string]int
	equipped map[string]int
	slots    map[Slot]*Armament
}

// NewEquipment returns an empty Equipment feeding f.
//
// Precondition: f and abilities must not be nil.
func NewEquipment(f *fighter.Fighter, abilities AbilitySource, logger *zap.Logger) *Equipment {
	if f == nil || abilities == nil {
		panic("inventory.NewEquipment: fighter and abilities must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Equipment{
		fighter:   f,
		abilities: abilities,
		logger:    logger,
		defs:      make(map[string]*ArmamentDef),
		owned:     make(map[string]int),
		equipped:  make(map[string]int),
		slots:     make(map[Slot]*Armament),
	}
}

// AddItem records count more copies of def as owned.
//
// Precondition: count > 0.
func (e *Equipment) AddItem(def *ArmamentDef, count int) {
	if _, ok := e.defs[def.ID]; !ok {
		e.order = append(e.order, def.ID)
		e.defs[def.ID] = def
	}
	e.owned[def.ID] += count
}

// Owned returns how many copies of the armament id are owned.
func (e *Equipment) Owned(id string) int { return e.owned[id] }

// EquippedCount returns how many copies of the armament id are equipped.
func (e *Equipment) EquippedCount(id string) int { return e.equipped[id] }

// RemoveItem drops count owned copies of the armament id, unequipping any
// copies that would no longer be owned.
//
// Postcondition: On error nothing changes. Returns ErrNotOwned when fewer
// than count copies are owned and ErrSlotBusy when an excess copy is mid-action.
func (e *Equipment) RemoveItem(id string, count int) error {
	left := e.owned[id] - count
	if left < 0 {
		return fmt.Errorf("%w: %q owned %d, removing %d", ErrNotOwned, id, e.owned[id], count)
	}
	var excess []*Armament
	for _, a := range e.distinct() {
		if a.Def.ID == id {
			excess = append(excess, a)
		}
	}
	if len(excess) > left {
		excess = excess[left:]
	} else {
		excess = nil
	}
	for _, a := range excess {
		if err := e.fighter.TryStopArms(a); err != nil {
			return fmt.Errorf("%w: %w", ErrSlotBusy, err)
		}
	}
	for _, a := range excess {
		e.remove(a)
	}
	e.owned[id] = left
	return nil
}

// IsSlotFree reports whether nothing occupies slot.
func (e *Equipment) IsSlotFree(slot Slot) bool { return e.slots[slot] == nil }

// Arms returns the armament occupying slot, or nil.
func (e *Equipment) Arms(slot Slot) *Armament { return e.slots[slot] }

// Equip spawns a copy of def into the slots EquipRequirements selects for
// slot, displacing their occupants, and binds its abilities on the fighter.
//
// Postcondition: On error no slot changes, and an unknown ability leaves
// occupants mid-action untouched. Returns ErrNotOwned when no spare copy is
// owned and ErrSlotBusy when a displaced occupant is mid-action.
func (e *Equipment) Equip(def *ArmamentDef, slot Slot) error {
	if e.owned[def.ID] <= e.equipped[def.ID] {
		return fmt.Errorf("%w: %q", ErrNotOwned, def.ID)
	}
	used := def.EquipRequirements(slot, e.IsSlotFree)
	arm, err := e.spawn(def, used)
	if err != nil {
		return err
	}
	for _, s := range used {
		if cur := e.slots[s]; cur != nil {
			if err := e.fighter.TryStopArms(cur); err != nil {
				return fmt.Errorf("%w: %s: %w", ErrSlotBusy, s, err)
			}
		}
	}
	for _, s := range used {
		if cur := e.slots[s]; cur != nil {
			e.remove(cur)
		}
		e.slots[s] = arm
	}
	e.equipped[def.ID]++
	e.fighter.EquipArmament(arm)
	e.logger.Debug("equipped",
		zap.String("armament", def.ID),
		zap.String("hold", arm.Hold.String()),
		zap.Any("slots", used),
	)
	return nil
}

// Unequip removes the armament occupying slot from every slot it uses.
// Unequipping a free slot is a no-op.
//
// Postcondition: Returns ErrSlotBusy when the occupant is mid-action.
func (e *Equipment) Unequip(slot Slot) error {
	a := e.slots[slot]
	if a == nil {
		return nil
	}
	if err := e.fighter.TryStopArms(a); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSlotBusy, slot, err)
	}
	e.remove(a)
	return nil
}

// AutoEquip equips every owned copy that fits into free slots, in the order
// items were added. Nothing already equipped is displaced.
func (e *Equipment) AutoEquip() {
	for _, id := range e.order {
		def := e.defs[id]
		for e.fits(def) {
			if err := e.Equip(def, SlotAny); err != nil {
				if !errors.Is(err, ErrNotOwned) {
					e.logger.Warn("auto-equip failed", zap.String("armament", id), zap.Error(err))
				}
				break
			}
		}
	}
}

func (e *Equipment) fits(def *ArmamentDef) bool {
	for _, s := range def.EquipRequirements(SlotAny, e.IsSlotFree) {
		if !e.IsSlotFree(s) {
			return false
		}
	}
	return true
}

// DamageBoxes returns the damage box of every equipped armament.
func (e *Equipment) DamageBoxes() []*combat.DamageBox {
	arms := e.distinct()
	out := make([]*combat.DamageBox, 0, len(arms))
	for _, a := range arms {
		out = append(out, a.Box)
	}
	return out
}

// Equipped returns every equipped armament once, in slot order.
func (e *Equipment) Equipped() []*Armament { return e.distinct() }

func (e *Equipment) distinct() []*Armament {
	var out []*Armament
	seen := make(map[*Armament]bool)
	for _, s := range Slots {
		if a := e.slots[s]; a != nil && !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}
	return out
}

func (e *Equipment) spawn(def *ArmamentDef, used []Slot) (*Armament, error) {
	arm := &Armament{
		ID:        uuid.New().String(),
		Def:       def,
		UsedSlots: used,
		Hold:      HoldMethodFor(used),
		Box:       combat.NewDamageBox(),
	}
	owner := e.fighter.AbilityOwner([]*combat.DamageBox{arm.Box})
	for i, id := range def.Abilities {
		if id == "" {
			continue
		}
		adef, ok := e.abilities.Get(id)
		if !ok {
			return nil, fmt.Errorf("inventory: armament %q: unknown ability %q", def.ID, id)
		}
		inst, err := ability.New(adef, owner)
		if err != nil {
			return nil, fmt.Errorf("inventory: armament %q: %w", def.ID, err)
		}
		inst.SetMirror(arm.Mirrored())
		arm.instances[i] = inst
	}
	return arm, nil
}

func (e *Equipment) remove(a *Armament) {
	e.fighter.UnequipArmament(a)
	if a.Box.Armed() {
		a.Box.StopAttack()
	}
	if e.equipped[a.Def.ID]--; e.equipped[a.Def.ID] <= 0 {
		delete(e.equipped, a.Def.ID)
	}
	for _, s := range a.UsedSlots {
		if e.slots[s] == a {
			delete(e.slots, s)
		}
	}
	e.logger.Debug("unequipped", zap.String("armament", a.Def.ID))
}
