package schema

import (
	"fmt"
	"strings"
)

// Kind tags a node of the descriptor tree.
type Kind int

const (
	KindPrimitive Kind = iota
	KindLiteral
	KindOptional
	KindNotRequired
	KindSequence
	KindMapping
	KindStruct
	KindUnion
	KindNull
	KindParam
	KindGeneric
	KindInstance
)

var kindNames = [...]string{
	KindPrimitive:   "primitive",
	KindLiteral:     "literal",
	KindOptional:    "optional",
	KindNotRequired: "not_required",
	KindSequence:    "sequence",
	KindMapping:     "mapping",
	KindStruct:      "struct",
	KindUnion:       "union",
	KindNull:        "null",
	KindParam:       "param",
	KindGeneric:     "generic",
	KindInstance:    "instance",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Descriptor is a node in the schema tree describing the shape of one field or record.
// Implementations are always pointers; resolution memoizes on their identity.
type Descriptor interface {
	Kind() Kind
	String() string
}

// PrimitiveKind enumerates the scalar types a Primitive can produce.
type PrimitiveKind int

const (
	PrimitiveString PrimitiveKind = iota
	PrimitiveInt
	PrimitiveFloat
	PrimitiveBool
)

// Primitive produces the zero value of its kind.
type Primitive struct {
	kind PrimitiveKind
}

// Shared primitive descriptors. Use these instead of constructing new ones so that
// resolution keys built from them stay stable.
var (
	String = &Primitive{kind: PrimitiveString}
	Int    = &Primitive{kind: PrimitiveInt}
	Float  = &Primitive{kind: PrimitiveFloat}
	Bool   = &Primitive{kind: PrimitiveBool}
)

func (p *Primitive) Kind() Kind { return KindPrimitive }

// Primitive returns the scalar kind.
func (p *Primitive) Primitive() PrimitiveKind { return p.kind }

// Zero returns the canonical zero value for the primitive.
func (p *Primitive) Zero() any {
	switch p.kind {
	case PrimitiveInt:
		return int64(0)
	case PrimitiveFloat:
		return float64(0)
	case PrimitiveBool:
		return false
	default:
		return ""
	}
}

func (p *Primitive) String() string {
	switch p.kind {
	case PrimitiveInt:
		return "int"
	case PrimitiveFloat:
		return "float"
	case PrimitiveBool:
		return "bool"
	default:
		return "string"
	}
}

// Null is the absent/null marker used as a union variant.
type Null struct{}

// None is the shared null marker.
var None = &Null{}

func (*Null) Kind() Kind     { return KindNull }
func (*Null) String() string { return "null" }

// Literal produces one of a fixed set of values.
type Literal struct {
	values []any
}

// NewLiteral builds a literal choice. It panics on an empty value set since a literal
// with nothing to choose from cannot be generated.
func NewLiteral(values ...any) *Literal {
	if len(values) == 0 {
		panic("schema: literal requires at least one value")
	}
	return &Literal{values: append([]any(nil), values...)}
}

func (l *Literal) Kind() Kind { return KindLiteral }

// Values returns a copy of the literal's value set.
func (l *Literal) Values() []any { return append([]any(nil), l.values...) }

// Len returns the number of alternatives.
func (l *Literal) Len() int { return len(l.values) }

// At returns the i-th alternative.
func (l *Literal) At(i int) any { return l.values[i] }

func (l *Literal) String() string {
	parts := make([]string, len(l.values))
	for i, v := range l.values {
		parts[i] = fmt.Sprintf("%#v", v)
	}
	return "literal[" + strings.Join(parts, ",") + "]"
}

// Optional marks a value that may be null.
type Optional struct {
	inner Descriptor
}

// NewOptional wraps d as nullable. Optional(NotRequired(x)) is normalised to
// NotRequired(Optional(x)) so omission is always decided at the field site first.
func NewOptional(d Descriptor) Descriptor {
	switch v := d.(type) {
	case *NotRequired:
		return NewNotRequired(NewOptional(v.inner))
	case *Optional, *Null:
		return d
	}
	return &Optional{inner: d}
}

func (o *Optional) Kind() Kind             { return KindOptional }
func (o *Optional) Inner() Descriptor      { return o.inner }
func (o *Optional) String() string         { return "optional[" + o.inner.String() + "]" }
func (o *Optional) Variants() []Descriptor { return []Descriptor{o.inner, None} }

// NotRequired marks a field that may be omitted from its containing struct.
type NotRequired struct {
	inner Descriptor
}

// NewNotRequired wraps d as omittable. Double wrapping collapses.
func NewNotRequired(d Descriptor) *NotRequired {
	if nr, ok := d.(*NotRequired); ok {
		return nr
	}
	return &NotRequired{inner: d}
}

func (n *NotRequired) Kind() Kind        { return KindNotRequired }
func (n *NotRequired) Inner() Descriptor { return n.inner }
func (n *NotRequired) String() string    { return "not_required[" + n.inner.String() + "]" }

// Sequence produces an ordered list of elements.
type Sequence struct {
	elem Descriptor
}

func NewSequence(elem Descriptor) *Sequence { return &Sequence{elem: elem} }

func (s *Sequence) Kind() Kind       { return KindSequence }
func (s *Sequence) Elem() Descriptor { return s.elem }
func (s *Sequence) String() string   { return "sequence[" + s.elem.String() + "]" }

// Mapping produces an empty associative container.
type Mapping struct{}

// Map is the shared mapping descriptor.
var Map = &Mapping{}

func (*Mapping) Kind() Kind     { return KindMapping }
func (*Mapping) String() string { return "mapping" }

// Union produces a value matching exactly one of its variants.
type Union struct {
	variants []Descriptor
}

// NewUnion builds a union. Nested unions are flattened, repeated variants dropped and a
// union left with a single variant is returned as that variant.
func NewUnion(variants ...Descriptor) Descriptor {
	flat := make([]Descriptor, 0, len(variants))
	seen := make(map[Descriptor]struct{}, len(variants))
	var add func(d Descriptor)
	add = func(d Descriptor) {
		switch v := d.(type) {
		case *Union:
			for _, inner := range v.variants {
				add(inner)
			}
			return
		case *Optional:
			add(v.inner)
			add(None)
			return
		}
		if _, ok := seen[d]; ok {
			return
		}
		seen[d] = struct{}{}
		flat = append(flat, d)
	}
	for _, v := range variants {
		add(v)
	}
	switch len(flat) {
	case 0:
		panic("schema: union requires at least one variant")
	case 1:
		return flat[0]
	}
	return &Union{variants: flat}
}

func (u *Union) Kind() Kind { return KindUnion }

// Variants returns a copy of the ordered variant list.
func (u *Union) Variants() []Descriptor { return append([]Descriptor(nil), u.variants...) }

// Nullable reports whether the null marker is one of the variants.
func (u *Union) Nullable() bool {
	for _, v := range u.variants {
		if v == Descriptor(None) {
			return true
		}
	}
	return false
}

func (u *Union) String() string {
	parts := make([]string, len(u.variants))
	for i, v := range u.variants {
		parts[i] = v.String()
	}
	return "union[" + strings.Join(parts, "|") + "]"
}
