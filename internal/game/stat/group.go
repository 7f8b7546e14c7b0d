package stat

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// AttributeGroup holds one value per Attribute.
// In YAML it is written as a name-to-value map; omitted attributes are zero.
type AttributeGroup [AttributeCount]int

// Neg returns the group with every value negated.
func (g AttributeGroup) Neg() AttributeGroup {
	var out AttributeGroup
	for i, v := range g {
		out[i] = -v
	}
	return out
}

// Add returns the element-wise sum of g and o.
func (g AttributeGroup) Add(o AttributeGroup) AttributeGroup {
	var out AttributeGroup
	for i := range g {
		out[i] = g[i] + o[i]
	}
	return out
}

// IsZero reports whether every value is zero.
func (g AttributeGroup) IsZero() bool {
	return g == AttributeGroup{}
}

// UnmarshalYAML decodes the group from a name-to-value map.
func (g *AttributeGroup) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]int
	if err := node.Decode(&raw); err != nil {
		return err
	}
	var out AttributeGroup
	for name, v := range raw {
		a, err := ParseAttribute(name)
		if err != nil {
			return err
		}
		out[a] = v
	}
	*g = out
	return nil
}

// ResourceGroup holds one value per Resource. It doubles as an ability cost
// bundle and as a multi-resource delta.
// In YAML it is written as a name-to-value map; omitted resources are zero.
type ResourceGroup [ResourceCount]int

// Neg returns the group with every value negated.
func (g ResourceGroup) Neg() ResourceGroup {
	var out ResourceGroup
	for i, v := range g {
		out[i] = -v
	}
	return out
}

// Add returns the element-wise sum of g and o.
func (g ResourceGroup) Add(o ResourceGroup) ResourceGroup {
	var out ResourceGroup
	for i := range g {
		out[i] = g[i] + o[i]
	}
	return out
}

// IsZero reports whether every value is zero.
func (g ResourceGroup) IsZero() bool {
	return g == ResourceGroup{}
}

// String renders the non-zero entries, e.g. "{stamina:20}".
func (g ResourceGroup) String() string {
	s := "{"
	first := true
	for i, v := range g {
		if v == 0 {
			continue
		}
		if !first {
			s += " "
		}
		s += fmt.Sprintf("%s:%d", Resource(i), v)
		first = false
	}
	return s + "}"
}

// UnmarshalYAML decodes the group from a name-to-value map.
func (g *ResourceGroup) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]int
	if err := node.Decode(&raw); err != nil {
		return err
	}
	var out ResourceGroup
	for name, v := range raw {
		r, err := ParseResource(name)
		if err != nil {
			return err
		}
		out[r] = v
	}
	*g = out
	return nil
}
