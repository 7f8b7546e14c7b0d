// Package stat defines the attribute and resource enumerations shared by the
// character sheet, the effect engine, and ability costs.
package stat

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Attribute identifies a derived character attribute by index.
type Attribute int

const (
	MoveSpeed Attribute = iota
	RotateSpeed
	// AttributeCount is the number of attributes; it is not a valid Attribute.
	AttributeCount
)

var attributeNames = [AttributeCount]string{"moveSpeed", "rotateSpeed"}

// String returns the lowerCamel name of the attribute.
func (a Attribute) String() string {
	if a < 0 || a >= AttributeCount {
		return fmt.Sprintf("attribute(%d)", int(a))
	}
	return attributeNames[a]
}

// ParseAttribute resolves a lowerCamel attribute name.
//
// Postcondition: Returns a valid Attribute or a non-nil error.
func ParseAttribute(name string) (Attribute, error) {
	for i, n := range attributeNames {
		if n == name {
			return Attribute(i), nil
		}
	}
	return 0, fmt.Errorf("unknown attribute %q", name)
}

// UnmarshalYAML decodes an attribute from its name.
func (a *Attribute) UnmarshalYAML(node *yaml.Node) error {
	var name string
	if err := node.Decode(&name); err != nil {
		return err
	}
	parsed, err := ParseAttribute(name)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Resource identifies a depletable character resource by index.
type Resource int

const (
	Health Resource = iota
	Stamina
	Focus
	// ResourceCount is the number of resources; it is not a valid Resource.
	ResourceCount
)

var resourceNames = [ResourceCount]string{"health", "stamina", "focus"}

// String returns the lowerCamel name of the resource.
func (r Resource) String() string {
	if r < 0 || r >= ResourceCount {
		return fmt.Sprintf("resource(%d)", int(r))
	}
	return resourceNames[r]
}

// ParseResource resolves a lowerCamel resource name.
//
// Postcondition: Returns a valid Resource or a non-nil error.
func ParseResource(name string) (Resource, error) {
	for i, n := range resourceNames {
		if n == name {
			return Resource(i), nil
		}
	}
	return 0, fmt.Errorf("unknown resource %q", name)
}

// UnmarshalYAML decodes a resource from its name.
func (r *Resource) UnmarshalYAML(node *yaml.Node) error {
	var name string
	if err := node.Decode(&name); err != nil {
		return err
	}
	parsed, err := ParseResource(name)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
