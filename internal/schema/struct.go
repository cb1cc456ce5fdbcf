package schema

import "strings"

// Field is one named member of a Struct.
type Field struct {
	Name string
	Type Descriptor
}

// F is shorthand for building a Field.
func F(name string, d Descriptor) Field {
	return Field{Name: name, Type: d}
}

// Required reports whether the field must be present in every generated record.
func (f Field) Required() bool {
	_, omittable := f.Type.(*NotRequired)
	return !omittable
}

// Struct describes a record with an ordered, immutable set of fields.
type Struct struct {
	name   string
	fields []Field
	index  map[string]int
}

// NewStruct builds a struct descriptor. Field order is preserved; a repeated name
// replaces the earlier field's type in place.
func NewStruct(name string, fields ...Field) *Struct {
	s := &Struct{
		name:   name,
		fields: make([]Field, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		if i, ok := s.index[f.Name]; ok {
			s.fields[i] = f
			continue
		}
		s.index[f.Name] = len(s.fields)
		s.fields = append(s.fields, f)
	}
	return s
}

func (s *Struct) Kind() Kind     { return KindStruct }
func (s *Struct) Name() string   { return s.name }
func (s *Struct) String() string { return s.name }

// Fields returns a copy of the declared fields in order.
func (s *Struct) Fields() []Field { return append([]Field(nil), s.fields...) }

// Len returns the number of fields.
func (s *Struct) Len() int { return len(s.fields) }

// Field looks up a field by name.
func (s *Struct) Field(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// Extend returns a new struct with the receiver's fields followed by extra. Fields in
// extra override same-named fields of the receiver.
func (s *Struct) Extend(name string, extra ...Field) *Struct {
	return NewStruct(name, append(s.Fields(), extra...)...)
}

// Param is a type-parameter placeholder inside a generic body.
type Param struct {
	name string
}

func NewParam(name string) *Param { return &Param{name: name} }

func (p *Param) Kind() Kind     { return KindParam }
func (p *Param) Name() string   { return p.name }
func (p *Param) String() string { return p.name }

// Generic is a parameterised struct. It must be resolved before generation.
type Generic struct {
	params []*Param
	body   *Struct
}

// NewGeneric declares body as generic over params. Parameter order is significant:
// arguments are matched positionally.
func NewGeneric(body *Struct, params ...*Param) *Generic {
	return &Generic{params: append([]*Param(nil), params...), body: body}
}

func (g *Generic) Kind() Kind       { return KindGeneric }
func (g *Generic) Name() string     { return g.body.name }
func (g *Generic) Body() *Struct    { return g.body }
func (g *Generic) Params() []*Param { return append([]*Param(nil), g.params...) }

func (g *Generic) String() string {
	names := make([]string, len(g.params))
	for i, p := range g.params {
		names[i] = p.name
	}
	return g.body.name + "[" + strings.Join(names, ",") + "]"
}

// Instance is a generic applied to arguments inside another descriptor tree. The
// resolver replaces it with the concrete struct.
type Instance struct {
	generic *Generic
	args    []Descriptor
}

// Apply builds an instance of g. Arity is checked at resolution time.
func Apply(g *Generic, args ...Descriptor) *Instance {
	return &Instance{generic: g, args: append([]Descriptor(nil), args...)}
}

func (i *Instance) Kind() Kind         { return KindInstance }
func (i *Instance) Generic() *Generic  { return i.generic }
func (i *Instance) Args() []Descriptor { return append([]Descriptor(nil), i.args...) }
func (i *Instance) String() string     { return instanceName(i.generic, i.args) }

func instanceName(g *Generic, args []Descriptor) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return g.body.name + "[" + strings.Join(parts, ",") + "]"
}
