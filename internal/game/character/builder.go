package character

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/ricochet/internal/game/ability"
	"github.com/cory-johannsen/ricochet/internal/game/combat"
	"github.com/cory-johannsen/ricochet/internal/game/fighter"
	"github.com/cory-johannsen/ricochet/internal/game/inventory"
	"github.com/cory-johannsen/ricochet/internal/game/presentation"
	"github.com/cory-johannsen/ricochet/internal/game/sheet"
)

// Content is the loaded definition registries a character is built from.
type Content struct {
	Abilities *ability.Registry
	Armaments *inventory.Registry
}

// BuildOptions supplies the per-character collaborators.
type BuildOptions struct {
	Clock     ability.Clock
	Body      combat.Body
	Animator  presentation.Animator
	Indicator presentation.Indicator
	Flicker   presentation.Flicker
	Spawner   combat.Spawner
	Logger    *zap.Logger
	Fighter   fighter.Config
	// BaseMoveSpeed and BaseRotateSpeed apply when the template leaves its
	// own base speeds at zero.
	BaseMoveSpeed   float64
	BaseRotateSpeed float64
}

// Character is a built combatant.
type Character struct {
	Template  *Template
	Sheet     *sheet.Sheet
	Fighter   *fighter.Fighter
	Equipment *inventory.Equipment
	// Fists is armed by the default abilities.
	Fists *combat.DamageBox
}

// DamageBoxes returns the fists followed by every equipped armament's box.
func (c *Character) DamageBoxes() []*combat.DamageBox {
	return append([]*combat.DamageBox{c.Fists}, c.Equipment.DamageBoxes()...)
}

// Build assembles a character from tmpl: a full sheet, a fighter with the
// template's default abilities, and equipment holding its armaments with
// everything that fits auto-equipped.
//
// Precondition: tmpl passed Validate; content registries are resolved.
// Postcondition: Returns a ready character or a non-nil error naming the
// missing definition.
func Build(tmpl *Template, content Content, opts BuildOptions) (*Character, error) {
	if tmpl == nil {
		return nil, errors.New("character.Build: template must not be nil")
	}
	if content.Abilities == nil || content.Armaments == nil {
		return nil, errors.New("character.Build: content registries must not be nil")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	moveSpeed, rotateSpeed := tmpl.BaseMoveSpeed, tmpl.BaseRotateSpeed
	if moveSpeed == 0 {
		moveSpeed = opts.BaseMoveSpeed
	}
	if rotateSpeed == 0 {
		rotateSpeed = opts.BaseRotateSpeed
	}
	sh := sheet.New(sheet.Options{
		Name:            tmpl.Name,
		Team:            tmpl.Team,
		BaseMoveSpeed:   moveSpeed,
		BaseRotateSpeed: rotateSpeed,
		Attributes:      tmpl.Attributes,
		Resources:       tmpl.ResourceSpecs(),
		Logger:          logger,
	})
	f := fighter.New(fighter.Options{
		Sheet:     sh,
		Clock:     opts.Clock,
		Body:      opts.Body,
		Animator:  opts.Animator,
		Indicator: opts.Indicator,
		Flicker:   opts.Flicker,
		Spawner:   opts.Spawner,
		Logger:    sh.Logger(),
		Config:    opts.Fighter,
	})
	c := &Character{
		Template:  tmpl,
		Sheet:     sh,
		Fighter:   f,
		Equipment: inventory.NewEquipment(f, content.Abilities, sh.Logger()),
		Fists:     combat.NewDamageBox(),
	}

	owner := f.AbilityOwner([]*combat.DamageBox{c.Fists})
	for i, id := range tmpl.Defaults {
		if id == "" {
			continue
		}
		def, ok := content.Abilities.Get(id)
		if !ok {
			return nil, fmt.Errorf("character.Build: %q: unknown default ability %q", tmpl.ID, id)
		}
		inst, err := ability.New(def, owner)
		if err != nil {
			return nil, fmt.Errorf("character.Build: %q: %w", tmpl.ID, err)
		}
		f.SetDefault(fighter.Slot(i), inst)
	}

	for _, entry := range tmpl.Armaments {
		def, ok := content.Armaments.Armament(entry.ID)
		if !ok {
			return nil, fmt.Errorf("character.Build: %q: unknown armament %q", tmpl.ID, entry.ID)
		}
		c.Equipment.AddItem(def, entry.Count)
	}
	c.Equipment.AutoEquip()

	sh.Logger().Info("character built",
		zap.String("template", tmpl.ID),
		zap.String("team", tmpl.Team),
		zap.Int("armaments", len(c.Equipment.Equipped())),
	)
	return c, nil
}
