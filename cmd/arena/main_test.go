package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/ricochet/internal/config"
	"github.com/cory-johannsen/ricochet/internal/game/ability"
	"github.com/cory-johannsen/ricochet/internal/game/character"
	"github.com/cory-johannsen/ricochet/internal/game/dice"
	"github.com/cory-johannsen/ricochet/internal/game/stat"
)

func repoContent() config.ContentConfig {
	return config.ContentConfig{
		EffectsDir:    "../../content/effects",
		AbilitiesDir:  "../../content/abilities",
		ArmamentsDir:  "../../content/armaments",
		CharactersDir: "../../content/characters",
	}
}

func TestLoadContent_BundledContentResolves(t *testing.T) {
	lib, err := loadContent(context.Background(), repoContent())
	require.NoError(t, err)

	_, ok := lib.effects.Get("staggered")
	assert.True(t, ok)
	braced, ok := lib.effects.Get("braced")
	require.True(t, ok)
	attrs, _, _ := braced.Totals()
	assert.Equal(t, -90, attrs[stat.RotateSpeed], "braced carries committed")
	slash, ok := lib.abilities.Get("slash")
	require.True(t, ok)
	require.NotNil(t, slash.Chain())
	assert.Equal(t, "backslash", slash.Chain().ID)
	rush, ok := lib.abilities.Get("shoulder_charge")
	require.True(t, ok)
	assert.Equal(t, ability.KindCharge, rush.Kind)
	require.NotNil(t, rush.Effect())
	assert.Equal(t, "charging", rush.Effect().ID)

	for _, tmpl := range lib.characters.All() {
		for _, entry := range tmpl.Armaments {
			def, ok := lib.armaments.Armament(entry.ID)
			require.True(t, ok, "%s: armament %s", tmpl.ID, entry.ID)
			for _, id := range def.Abilities {
				if id != "" {
					_, ok := lib.abilities.Get(id)
					assert.True(t, ok, "%s: ability %s", def.ID, id)
				}
			}
		}
	}
}

func TestLoadContent_MissingDirectoryFails(t *testing.T) {
	cfg := repoContent()
	cfg.ArmamentsDir = t.TempDir() + "/missing"
	_, err := loadContent(context.Background(), cfg)
	assert.Error(t, err)
}

func TestLoadScripts_LoadsTemplateKeys(t *testing.T) {
	roller := dice.NewLoggedRoller(dice.NewSeededSource(1), nil)
	mgr, err := loadScripts(config.ScriptingConfig{ScriptDir: "../../content/scripts", InstructionLimit: 100000}, roller, zap.NewNop(),
		&character.Template{ID: "duelist", Script: "duelist"},
		&character.Template{ID: "knight"},
	)
	require.NoError(t, err)
	defer mgr.Close()
	assert.True(t, mgr.Has("duelist"))
	assert.False(t, mgr.Has("knight"))
}
