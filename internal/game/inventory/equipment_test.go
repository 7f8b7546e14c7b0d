package inventory_test

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/ricochet/internal/game/ability"
	"github.com/cory-johannsen/ricochet/internal/game/fighter"
	"github.com/cory-johannsen/ricochet/internal/game/inventory"
	"github.com/cory-johannsen/ricochet/internal/game/sheet"
	"github.com/cory-johannsen/ricochet/internal/game/stat"
	"github.com/cory-johannsen/ricochet/internal/testutil"
)

const ms = time.Millisecond

func abilityRegistry() *ability.Registry {
	reg := ability.NewRegistry()
	reg.Register(&ability.Def{
		ID:         "slash",
		Kind:       ability.KindMelee,
		Damage:     stat.Scaler{Base: 20},
		Heft:       1,
		Timestamps: ability.Timestamps{100 * ms, 200 * ms, 300 * ms},
	})
	reg.Register(&ability.Def{
		ID:         "punch",
		Kind:       ability.KindMelee,
		Damage:     stat.Scaler{Base: 5},
		Timestamps: ability.Timestamps{50 * ms, 100 * ms, 150 * ms},
	})
	return reg
}

func swordDef() *inventory.ArmamentDef {
	return &inventory.ArmamentDef{
		ID:            "sword",
		UsableConfigs: [][]inventory.Slot{{inventory.SlotRightHand}, {inventory.SlotLeftHand}},
		Abilities:     [4]string{"slash", "slash", "slash", "slash"},
	}
}

func greatswordDef() *inventory.ArmamentDef {
	return &inventory.ArmamentDef{
		ID:            "greatsword",
		UsableConfigs: [][]inventory.Slot{{inventory.SlotLeftHand, inventory.SlotRightHand}},
		Abilities:     [4]string{"slash", "", "slash", "slash"},
	}
}

func bucklerDef() *inventory.ArmamentDef {
	return &inventory.ArmamentDef{
		ID:             "buckler",
		UsableConfigs:  [][]inventory.Slot{{inventory.SlotLeftHand}},
		Abilities:      [4]string{"punch", "punch", "", ""},
		FlipOnLeftHand: true,
	}
}

type rig struct {
	clock *testutil.ManualClock
	f     *fighter.Fighter
	eq    *inventory.Equipment
	punch [fighter.SlotCount]ability.Instance
}

func newRig(t *testing.T) *rig {
	t.Helper()
	r := &rig{clock: &testutil.ManualClock{}}
	r.f = fighter.New(fighter.Options{
		Sheet: sheet.New(sheet.Options{
			Name: "knight",
			Resources: [stat.ResourceCount]sheet.ResourceSpec{
				stat.Health:  {Max: 100},
				stat.Stamina: {Max: 100},
			},
		}),
		Clock: r.clock,
		Body:  testutil.NewBody(mgl64.Vec3{}),
	})
	reg := abilityRegistry()
	punch, _ := reg.Get("punch")
	for i := range r.punch {
		inst, err := ability.New(punch, r.f.AbilityOwner(nil))
		require.NoError(t, err)
		r.punch[i] = inst
		r.f.SetDefault(fighter.Slot(i), inst)
	}
	r.eq = inventory.NewEquipment(r.f, reg, nil)
	return r
}

func TestEquip_SingleHandedFillsPreferredThenFreeHand(t *testing.T) {
	r := newRig(t)
	sword := swordDef()
	r.eq.AddItem(sword, 2)

	require.NoError(t, r.eq.Equip(sword, inventory.SlotRightHand))
	right := r.eq.Arms(inventory.SlotRightHand)
	require.NotNil(t, right)
	assert.Equal(t, inventory.HoldRightHand, right.Hold)
	assert.Same(t, right.Instance(fighter.R1), r.f.Ability(fighter.R1))
	assert.Same(t, right.Instance(fighter.R2), r.f.Ability(fighter.R2))
	assert.Same(t, r.punch[fighter.L1], r.f.Ability(fighter.L1))

	require.NoError(t, r.eq.Equip(sword, inventory.SlotAny))
	left := r.eq.Arms(inventory.SlotLeftHand)
	require.NotNil(t, left)
	assert.Equal(t, inventory.HoldLeftHand, left.Hold)
	assert.Same(t, left.Instance(fighter.L1), r.f.Ability(fighter.L1))
	assert.Same(t, right, r.eq.Arms(inventory.SlotRightHand))
	assert.Equal(t, 2, r.eq.EquippedCount("sword"))

	assert.ErrorIs(t, r.eq.Equip(sword, inventory.SlotAny), inventory.ErrNotOwned)
	assert.Equal(t, 2, r.eq.EquippedCount("sword"), "failed equip must not leak a count")
}

func TestEquip_TwoHandedDisplacesBothHands(t *testing.T) {
	r := newRig(t)
	sword, great := swordDef(), greatswordDef()
	r.eq.AddItem(sword, 2)
	r.eq.AddItem(great, 1)
	require.NoError(t, r.eq.Equip(sword, inventory.SlotRightHand))
	require.NoError(t, r.eq.Equip(sword, inventory.SlotLeftHand))

	require.NoError(t, r.eq.Equip(great, inventory.SlotRightHand))
	arm := r.eq.Arms(inventory.SlotLeftHand)
	require.NotNil(t, arm)
	assert.Same(t, arm, r.eq.Arms(inventory.SlotRightHand))
	assert.Equal(t, inventory.HoldBothHands, arm.Hold)
	assert.Equal(t, 0, r.eq.EquippedCount("sword"))
	assert.Len(t, r.eq.Equipped(), 1)
	assert.Len(t, r.eq.DamageBoxes(), 1)

	assert.Same(t, arm.Instance(fighter.L1), r.f.Ability(fighter.L1))
	assert.Same(t, r.punch[fighter.L2], r.f.Ability(fighter.L2), "unbound ability keeps the default")
	assert.Same(t, arm.Instance(fighter.R2), r.f.Ability(fighter.R2))
}

func TestEquip_BusyOccupantBlocksDisplacement(t *testing.T) {
	r := newRig(t)
	sword, great := swordDef(), greatswordDef()
	r.eq.AddItem(sword, 1)
	r.eq.AddItem(great, 1)
	require.NoError(t, r.eq.Equip(sword, inventory.SlotRightHand))
	before := r.eq.Arms(inventory.SlotRightHand)

	require.NoError(t, r.f.UseAbilityNoHold(fighter.R1, true))
	err := r.eq.Equip(great, inventory.SlotAny)
	assert.ErrorIs(t, err, inventory.ErrSlotBusy)
	assert.ErrorIs(t, r.eq.Unequip(inventory.SlotRightHand), inventory.ErrSlotBusy)
	assert.Same(t, before, r.eq.Arms(inventory.SlotRightHand))
	assert.Equal(t, 0, r.eq.EquippedCount("greatsword"))

	r.clock.Advance(200 * ms)
	r.f.FixedTick(r.clock.Now())
	require.NoError(t, r.eq.Equip(great, inventory.SlotAny), "recovery can be cut short")
	assert.Equal(t, ability.Idle, before.Instance(fighter.R1).Phase())
}

func TestUnequip_RestoresDefaults(t *testing.T) {
	r := newRig(t)
	sword := swordDef()
	r.eq.AddItem(sword, 1)
	require.NoError(t, r.eq.Equip(sword, inventory.SlotRightHand))

	require.NoError(t, r.eq.Unequip(inventory.SlotRightHand))
	assert.True(t, r.eq.IsSlotFree(inventory.SlotRightHand))
	assert.Same(t, r.punch[fighter.R1], r.f.Ability(fighter.R1))
	assert.Equal(t, 0, r.eq.EquippedCount("sword"))
	assert.NoError(t, r.eq.Unequip(inventory.SlotRightHand), "free slot is a no-op")
}

func TestEquip_MirrorsOnlyInLeftHand(t *testing.T) {
	r := newRig(t)
	buckler := bucklerDef()
	r.eq.AddItem(buckler, 1)
	require.NoError(t, r.eq.Equip(buckler, inventory.SlotAny))

	arm := r.eq.Arms(inventory.SlotLeftHand)
	require.NotNil(t, arm)
	assert.True(t, arm.Mirrored())
	assert.True(t, arm.Instance(fighter.L1).Mirror())
}

func TestEquip_UnknownAbilityLeavesSlotsUntouched(t *testing.T) {
	r := newRig(t)
	bad := &inventory.ArmamentDef{
		ID:            "wand",
		UsableConfigs: [][]inventory.Slot{{inventory.SlotRightHand}},
		Abilities:     [4]string{"", "", "zap", ""},
	}
	r.eq.AddItem(bad, 1)
	assert.ErrorContains(t, r.eq.Equip(bad, inventory.SlotAny), `unknown ability "zap"`)
	assert.True(t, r.eq.IsSlotFree(inventory.SlotRightHand))
	assert.Equal(t, 0, r.eq.EquippedCount("wand"))
}

func TestEquip_UnknownAbilityKeepsOccupantSwinging(t *testing.T) {
	r := newRig(t)
	sword := swordDef()
	bad := &inventory.ArmamentDef{
		ID:            "wand",
		UsableConfigs: [][]inventory.Slot{{inventory.SlotRightHand}},
		Abilities:     [4]string{"", "", "zap", ""},
	}
	r.eq.AddItem(sword, 1)
	r.eq.AddItem(bad, 1)
	require.NoError(t, r.eq.Equip(sword, inventory.SlotRightHand))
	occupant := r.eq.Arms(inventory.SlotRightHand)
	require.NoError(t, r.f.UseAbilityNoHold(fighter.R1, true))
	r.clock.Advance(200 * ms)
	r.f.FixedTick(r.clock.Now())
	require.Equal(t, ability.Recovery, occupant.Instance(fighter.R1).Phase())

	assert.ErrorContains(t, r.eq.Equip(bad, inventory.SlotRightHand), `unknown ability "zap"`)
	assert.Same(t, occupant, r.eq.Arms(inventory.SlotRightHand))
	assert.Equal(t, ability.Recovery, occupant.Instance(fighter.R1).Phase(), "failed equip must not cut the swing short")
}

func TestAutoEquip_FillsFreeSlotsAndStops(t *testing.T) {
	r := newRig(t)
	r.eq.AddItem(bucklerDef(), 1)
	r.eq.AddItem(swordDef(), 3)

	r.eq.AutoEquip()
	assert.Equal(t, "buckler", r.eq.Arms(inventory.SlotLeftHand).Def.ID)
	assert.Equal(t, "sword", r.eq.Arms(inventory.SlotRightHand).Def.ID)
	assert.Equal(t, 1, r.eq.EquippedCount("sword"))
}

func TestRemoveItem_UnequipsExcessCopies(t *testing.T) {
	r := newRig(t)
	sword := swordDef()
	r.eq.AddItem(sword, 2)
	r.eq.AutoEquip()
	require.Equal(t, 2, r.eq.EquippedCount("sword"))

	require.NoError(t, r.eq.RemoveItem("sword", 1))
	assert.Equal(t, 1, r.eq.Owned("sword"))
	assert.Equal(t, 1, r.eq.EquippedCount("sword"))
	assert.Len(t, r.eq.Equipped(), 1)

	assert.ErrorIs(t, r.eq.RemoveItem("sword", 5), inventory.ErrNotOwned)
	assert.Equal(t, 1, r.eq.Owned("sword"))
}

func TestPropertyEquipCountsMatchSlots(t *testing.T) {
	slots := []inventory.Slot{inventory.SlotAny, inventory.SlotLeftHand, inventory.SlotRightHand}
	rapid.Check(t, func(rt *rapid.T) {
		r := newRig(t)
		defs := []*inventory.ArmamentDef{swordDef(), greatswordDef(), bucklerDef()}
		for _, d := range defs {
			r.eq.AddItem(d, rapid.IntRange(0, 2).Draw(rt, "owned_"+d.ID))
		}
		steps := rapid.IntRange(1, 20).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			slot := rapid.SampledFrom(slots).Draw(rt, "slot")
			if rapid.Bool().Draw(rt, "equip") {
				_ = r.eq.Equip(rapid.SampledFrom(defs).Draw(rt, "def"), slot)
			} else if slot != inventory.SlotAny {
				_ = r.eq.Unequip(slot)
			}
		}
		counts := make(map[string]int)
		for _, a := range r.eq.Equipped() {
			counts[a.Def.ID]++
			for _, s := range a.UsedSlots {
				if r.eq.Arms(s) != a {
					rt.Fatalf("armament %s does not occupy its slot %s", a.ID, s)
				}
			}
		}
		for _, d := range defs {
			if counts[d.ID] != r.eq.EquippedCount(d.ID) {
				rt.Fatalf("%s: %d equipped, count says %d", d.ID, counts[d.ID], r.eq.EquippedCount(d.ID))
			}
			if counts[d.ID] > r.eq.Owned(d.ID) {
				rt.Fatalf("%s: %d equipped but only %d owned", d.ID, counts[d.ID], r.eq.Owned(d.ID))
			}
		}
	})
}
