package schema

import (
	"fmt"
	"strings"
	"sync"
)

type resolveKey struct {
	generic *Generic
	args    string
}

// Resolver binds generic structs to concrete arguments. Results are memoized for the
// resolver's lifetime: the same generic and argument descriptors always yield the same
// *Struct pointer.
type Resolver struct {
	mu   sync.Mutex
	memo map[resolveKey]*Struct
}

// NewResolver creates an empty resolver.
func NewResolver() *Resolver {
	return &Resolver{memo: make(map[resolveKey]*Struct)}
}

// Resolve substitutes args for g's parameters throughout its field tree, including
// nested generic instances, and returns the concrete struct.
func (r *Resolver) Resolve(g *Generic, args ...Descriptor) (*Struct, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolveLocked(g, args)
}

// Len returns the number of memoized instantiations.
func (r *Resolver) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.memo)
}

// Reset drops every memoized instantiation.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.memo = make(map[resolveKey]*Struct)
}

// resolveLocked must be called with r.mu held.
func (r *Resolver) resolveLocked(g *Generic, args []Descriptor) (*Struct, error) {
	if len(g.params) != len(args) {
		return nil, newResolutionError(g, "expected %d type arguments, got %d", len(g.params), len(args))
	}
	concrete := make([]Descriptor, len(args))
	for i, a := range args {
		if a == nil {
			return nil, newResolutionError(g, "argument %d is nil", i)
		}
		if p := firstParam(a); p != nil {
			return nil, newResolutionError(g, "argument %d is not concrete: contains parameter %s", i, p.name)
		}
		if bare, ok := a.(*Generic); ok {
			return nil, newResolutionError(g, "argument %d is generic %s without arguments", i, bare)
		}
		// Nested instances become structs before keying the memo.
		c, err := r.substitute(g, a, nil)
		if err != nil {
			return nil, err
		}
		concrete[i] = c
	}
	args = concrete

	key := resolveKey{generic: g, args: identityKey(args)}
	if s, ok := r.memo[key]; ok {
		return s, nil
	}

	bindings := make(map[string]Descriptor, len(args))
	for i, p := range g.params {
		bindings[p.name] = args[i]
	}

	fields := make([]Field, 0, len(g.body.fields))
	for _, f := range g.body.fields {
		d, err := r.substitute(g, f.Type, bindings)
		if err != nil {
			return nil, err
		}
		fields = append(fields, Field{Name: f.Name, Type: d})
	}

	s := NewStruct(instanceName(g, args), fields...)
	r.memo[key] = s
	return s, nil
}

func (r *Resolver) substitute(g *Generic, d Descriptor, bindings map[string]Descriptor) (Descriptor, error) {
	switch v := d.(type) {
	case *Param:
		bound, ok := bindings[v.name]
		if !ok {
			return nil, newResolutionError(g, "placeholder %s is not a declared parameter", v.name)
		}
		return bound, nil
	case *Optional:
		inner, err := r.substitute(g, v.inner, bindings)
		if err != nil {
			return nil, err
		}
		if inner == v.inner {
			return v, nil
		}
		return NewOptional(inner), nil
	case *NotRequired:
		inner, err := r.substitute(g, v.inner, bindings)
		if err != nil {
			return nil, err
		}
		if inner == v.inner {
			return v, nil
		}
		return NewNotRequired(inner), nil
	case *Sequence:
		elem, err := r.substitute(g, v.elem, bindings)
		if err != nil {
			return nil, err
		}
		if elem == v.elem {
			return v, nil
		}
		return NewSequence(elem), nil
	case *Union:
		changed := false
		variants := make([]Descriptor, len(v.variants))
		for i, variant := range v.variants {
			sub, err := r.substitute(g, variant, bindings)
			if err != nil {
				return nil, err
			}
			variants[i] = sub
			changed = changed || sub != variant
		}
		if !changed {
			return v, nil
		}
		return NewUnion(variants...), nil
	case *Struct:
		changed := false
		fields := make([]Field, len(v.fields))
		for i, f := range v.fields {
			sub, err := r.substitute(g, f.Type, bindings)
			if err != nil {
				return nil, err
			}
			fields[i] = Field{Name: f.Name, Type: sub}
			changed = changed || sub != f.Type
		}
		if !changed {
			return v, nil
		}
		return NewStruct(v.name, fields...), nil
	case *Instance:
		args := make([]Descriptor, len(v.args))
		for i, a := range v.args {
			sub, err := r.substitute(g, a, bindings)
			if err != nil {
				return nil, err
			}
			args[i] = sub
		}
		return r.resolveLocked(v.generic, args)
	case *Generic:
		return nil, newResolutionError(g, "generic %s used without arguments", v)
	default:
		return d, nil
	}
}

// identityKey encodes the identity of each argument descriptor.
func identityKey(args []Descriptor) string {
	var b strings.Builder
	for i, a := range args {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%T@%p", a, a)
	}
	return b.String()
}

// firstParam returns the first placeholder reachable from d, if any.
func firstParam(d Descriptor) *Param {
	switch v := d.(type) {
	case *Param:
		return v
	case *Optional:
		return firstParam(v.inner)
	case *NotRequired:
		return firstParam(v.inner)
	case *Sequence:
		return firstParam(v.elem)
	case *Union:
		for _, variant := range v.variants {
			if p := firstParam(variant); p != nil {
				return p
			}
		}
	case *Struct:
		for _, f := range v.fields {
			if p := firstParam(f.Type); p != nil {
				return p
			}
		}
	case *Instance:
		for _, a := range v.args {
			if p := firstParam(a); p != nil {
				return p
			}
		}
	}
	return nil
}
