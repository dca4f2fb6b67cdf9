package model

import (
	"fmt"
	"math"
	"regexp"
	"unicode/utf8"
)

// --------------------------------------------------------------------------
// Dataset
// --------------------------------------------------------------------------

var datasetPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*(/[a-zA-Z_][a-zA-Z0-9_]*)*$`)

// Dataset is the name of an isolated triple-store namespace, e.g. "test/test".
type Dataset string

// NewDataset validates the name and returns it as a Dataset.
func NewDataset(name string) (Dataset, error) {
	if !datasetPattern.MatchString(name) {
		return "", NewError(ErrCInvalidArgument, "invalid dataset name %q", name)
	}
	return Dataset(name), nil
}

// --------------------------------------------------------------------------
// Attribute
// --------------------------------------------------------------------------

var attributePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9\-._~:/?#\[\]@!$&'()*+,;%=]*$`)

// Attribute is a named predicate.
type Attribute string

// NewAttribute validates the name and returns it as an Attribute.
func NewAttribute(name string) (Attribute, error) {
	a := Attribute(name)
	if err := a.Validate(); err != nil {
		return "", err
	}
	return a, nil
}

// Validate checks that the attribute name is a well-formed identifier.
func (a Attribute) Validate() error {
	if !attributePattern.MatchString(string(a)) {
		return NewError(ErrCInvalidArgument, "invalid attribute name %q", string(a))
	}
	return nil
}

// --------------------------------------------------------------------------
// Values
// --------------------------------------------------------------------------

// ValueKind is the one-byte discriminant stored in front of every encoded value.
type ValueKind byte

const (
	KindEntity  ValueKind = 0
	KindString  ValueKind = 1
	KindInteger ValueKind = 2
	KindFloat   ValueKind = 3
)

func (k ValueKind) String() string {
	switch k {
	case KindEntity:
		return "Entity"
	case KindString:
		return "String"
	case KindInteger:
		return "Integer"
	case KindFloat:
		return "Float"
	default:
		return "Unknown"
	}
}

// Value is the object position of a statement. The set of implementations is closed:
// Entity, StringLiteral, IntegerLiteral and FloatLiteral.
type Value interface {
	Kind() ValueKind
	fmt.Stringer
	isValue()
}

// Entity is an opaque resource identifier. It is also a Value (an entity reference).
type Entity uint64

func (Entity) Kind() ValueKind  { return KindEntity }
func (e Entity) String() string { return fmt.Sprintf("<%d>", uint64(e)) }
func (Entity) isValue()         {}

// StringLiteral is a text value. Strings are interned per dataset.
type StringLiteral string

func (StringLiteral) Kind() ValueKind  { return KindString }
func (s StringLiteral) String() string { return fmt.Sprintf("%q", string(s)) }
func (StringLiteral) isValue()         {}

// IntegerLiteral is a signed 64-bit value encoded inline.
type IntegerLiteral int64

func (IntegerLiteral) Kind() ValueKind  { return KindInteger }
func (i IntegerLiteral) String() string { return fmt.Sprintf("%d", int64(i)) }
func (IntegerLiteral) isValue()         {}

// FloatLiteral is a 64-bit IEEE-754 value encoded inline.
type FloatLiteral float64

func (FloatLiteral) Kind() ValueKind  { return KindFloat }
func (f FloatLiteral) String() string { return fmt.Sprintf("%g", float64(f)) }
func (FloatLiteral) isValue()         {}

// ValidateValue rejects values that cannot be stored.
func ValidateValue(v Value) error {
	switch val := v.(type) {
	case nil:
		return NewError(ErrCInvalidArgument, "value must not be nil")
	case StringLiteral:
		if !utf8.ValidString(string(val)) {
			return NewError(ErrCInvalidArgument, "string literal is not valid utf-8")
		}
	case FloatLiteral:
		if math.IsNaN(float64(val)) {
			return NewError(ErrCInvalidArgument, "float literal must not be NaN")
		}
	}
	return nil
}

// --------------------------------------------------------------------------
// Statements
// --------------------------------------------------------------------------

// Statement is a logical (entity, attribute, value) triple.
type Statement struct {
	Entity    Entity
	Attribute Attribute
	Value     Value
}

func (s Statement) String() string {
	return fmt.Sprintf("%s %s %s", s.Entity, s.Attribute, s.Value)
}

// PersistedStatement is a Statement together with the context entity that uniquely
// tags this assertion instance.
type PersistedStatement struct {
	Statement Statement
	Context   Entity
}

func (p PersistedStatement) String() string {
	return fmt.Sprintf("%s %s", p.Statement, p.Context)
}

// --------------------------------------------------------------------------
// Ranges
// --------------------------------------------------------------------------

// Range is a half-open range [Start, End) over literal values of one kind.
type Range struct {
	Start Value
	End   Value
}

// Kind returns the kind shared by both bounds.
func (r Range) Kind() ValueKind {
	return r.Start.Kind()
}

// Validate checks that both bounds are literals of the same kind.
// Entity ranges are rejected since entity ids carry no literal order.
func (r Range) Validate() error {
	if r.Start == nil || r.End == nil {
		return NewError(ErrCInvalidArgument, "range bounds must not be nil")
	}
	if r.Start.Kind() != r.End.Kind() {
		return NewError(ErrCInvalidArgument, "range bounds have different kinds (%s, %s)", r.Start.Kind(), r.End.Kind())
	}
	if r.Start.Kind() == KindEntity {
		return NewError(ErrCInvalidArgument, "entity ranges are not supported")
	}
	if err := ValidateValue(r.Start); err != nil {
		return err
	}
	return ValidateValue(r.End)
}
