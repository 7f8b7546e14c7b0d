package stat

import "math"

// AttributeReader exposes the live attribute sum of a character.
type AttributeReader interface {
	GetAttribute(a Attribute) int
}

// Scaling multiplies one attribute into a Scaler total.
type Scaling struct {
	Attribute  Attribute `yaml:"attribute"`
	Multiplier float64   `yaml:"multiplier"`
}

// Scaler computes a value from a flat base plus attribute-weighted terms.
type Scaler struct {
	Base     int       `yaml:"base"`
	Scalings []Scaling `yaml:"scalings"`
}

// Value returns floor(Base + sum(attribute * multiplier)) using the live
// attribute values of r.
//
// Precondition: r must not be nil when Scalings is non-empty.
func (s Scaler) Value(r AttributeReader) int {
	total := float64(s.Base)
	for _, sc := range s.Scalings {
		total += float64(r.GetAttribute(sc.Attribute)) * sc.Multiplier
	}
	return int(math.Floor(total))
}
