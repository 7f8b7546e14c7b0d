package stat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/ricochet/internal/game/stat"
)

type fixedAttributes map[stat.Attribute]int

func (f fixedAttributes) GetAttribute(a stat.Attribute) int { return f[a] }

func TestParseAttribute_RoundTrip(t *testing.T) {
	for a := stat.Attribute(0); a < stat.AttributeCount; a++ {
		got, err := stat.ParseAttribute(a.String())
		require.NoError(t, err)
		assert.Equal(t, a, got)
	}
	_, err := stat.ParseAttribute("jumpHeight")
	assert.Error(t, err)
}

func TestParseResource_RoundTrip(t *testing.T) {
	for r := stat.Resource(0); r < stat.ResourceCount; r++ {
		got, err := stat.ParseResource(r.String())
		require.NoError(t, err)
		assert.Equal(t, r, got)
	}
	_, err := stat.ParseResource("mana")
	assert.Error(t, err)
}

func TestResourceGroup_YAML(t *testing.T) {
	var g stat.ResourceGroup
	require.NoError(t, yaml.Unmarshal([]byte("stamina: 20\nfocus: 5\n"), &g))
	assert.Equal(t, stat.ResourceGroup{0, 20, 5}, g)
	assert.Equal(t, "{stamina:20 focus:5}", g.String())
}

func TestResourceGroup_YAML_UnknownName(t *testing.T) {
	var g stat.ResourceGroup
	assert.Error(t, yaml.Unmarshal([]byte("mana: 20\n"), &g))
}

func TestAttributeGroup_YAML(t *testing.T) {
	var g stat.AttributeGroup
	require.NoError(t, yaml.Unmarshal([]byte("moveSpeed: -50\n"), &g))
	assert.Equal(t, -50, g[stat.MoveSpeed])
	assert.Equal(t, 0, g[stat.RotateSpeed])
}

func TestScaler_Value_Floors(t *testing.T) {
	s := stat.Scaler{
		Base:     10,
		Scalings: []stat.Scaling{{Attribute: stat.MoveSpeed, Multiplier: 0.25}},
	}
	assert.Equal(t, 12, s.Value(fixedAttributes{stat.MoveSpeed: 11})) // 12.75
	assert.Equal(t, 7, s.Value(fixedAttributes{stat.MoveSpeed: -11})) // 7.25
	assert.Equal(t, 4, s.Value(fixedAttributes{stat.MoveSpeed: -21})) // 4.75
}

func TestPropertyResourceGroup_NegNegIsIdentity(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		var g stat.ResourceGroup
		for i := range g {
			g[i] = rapid.IntRange(-1000, 1000).Draw(rt, "v")
		}
		assert.Equal(rt, g, g.Neg().Neg())
		assert.True(rt, g.Add(g.Neg()).IsZero())
	})
}
