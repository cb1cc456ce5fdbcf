package generator

import (
	"fmt"
	"strings"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/weiawesome/disfake/internal/schema"
)

// Policy selects how much of a schema's optional surface is generated.
type Policy int

const (
	// Sparse omits not-required fields, nulls nullable ones and empties every list.
	Sparse Policy = iota
	// Dense randomly fills optional surface and generates 1 to 5 list elements.
	// Dense output is not guaranteed to be self-consistent.
	Dense
)

const (
	minDenseElems = 1
	maxDenseElems = 5
)

func (p Policy) String() string {
	if p == Dense {
		return "dense"
	}
	return "sparse"
}

// ParsePolicy parses "sparse" or "dense". The empty string yields Sparse.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sparse":
		return Sparse, nil
	case "dense":
		return Dense, nil
	default:
		return Sparse, fmt.Errorf("unknown generation policy %q", s)
	}
}

// Rand is the random source used for literal and union choices, omission coin flips and
// dense list lengths. *gofakeit.Faker satisfies it.
type Rand interface {
	// Number returns a uniformly distributed integer in [min, max].
	Number(min, max int) int
	Bool() bool
}

// Engine produces values for descriptor trees. It holds no state besides its random
// source and never touches identifiers or caches.
type Engine struct {
	rng Rand
}

// New creates an engine drawing from rng.
func New(rng Rand) *Engine {
	return &Engine{rng: rng}
}

// NewSeeded creates an engine with a reproducible gofakeit source. A zero seed picks a
// random one.
func NewSeeded(seed int64) *Engine {
	return New(gofakeit.New(seed))
}

// Generate produces a value for d. A top-level not-required descriptor that is omitted
// yields nil.
func (e *Engine) Generate(d schema.Descriptor, p Policy) (Value, error) {
	path := "<nil>"
	if d != nil {
		path = d.String()
	}
	v, _, err := e.field(path, d, p)
	return v, err
}

// GenerateRecord produces a record for s.
func (e *Engine) GenerateRecord(s *schema.Struct, p Policy) (*Record, error) {
	return e.record(s.Name(), s, p)
}

// field generates d at a struct field site. The boolean is false when the field is
// omitted.
func (e *Engine) field(path string, d schema.Descriptor, p Policy) (Value, bool, error) {
	nr, ok := d.(*schema.NotRequired)
	if !ok {
		v, err := e.value(path, d, p)
		return v, err == nil, err
	}
	if p == Sparse || e.rng.Bool() {
		return nil, false, nil
	}
	return e.field(path, nr.Inner(), p)
}

func (e *Engine) value(path string, d schema.Descriptor, p Policy) (Value, error) {
	switch v := d.(type) {
	case *schema.Literal:
		return v.At(e.rng.Number(0, v.Len()-1)), nil
	case *schema.Optional:
		return e.union(path, v.Variants(), true, p)
	case *schema.Union:
		return e.union(path, v.Variants(), v.Nullable(), p)
	case *schema.NotRequired:
		// Only struct fields can be omitted.
		return e.value(path, v.Inner(), p)
	case *schema.Sequence:
		return e.sequence(path, v, p)
	case *schema.Mapping:
		return map[string]any{}, nil
	case *schema.Struct:
		return e.record(path, v, p)
	case *schema.Primitive:
		return v.Zero(), nil
	case *schema.Null:
		return nil, nil
	case *schema.Param:
		return nil, &DescriptorError{Path: path, Descriptor: d, Reason: "unbound type parameter"}
	case *schema.Generic, *schema.Instance:
		return nil, &DescriptorError{Path: path, Descriptor: d, Reason: "generic must be resolved before generation"}
	case nil:
		return nil, &DescriptorError{Path: path, Descriptor: schema.None, Reason: "nil descriptor"}
	default:
		return nil, &DescriptorError{Path: path, Descriptor: d, Reason: "unsupported descriptor kind " + d.Kind().String()}
	}
}

func (e *Engine) union(path string, variants []schema.Descriptor, nullable bool, p Policy) (Value, error) {
	if nullable && p == Sparse {
		return nil, nil
	}
	if len(variants) == 1 {
		return e.value(path, variants[0], p)
	}
	return e.value(path, variants[e.rng.Number(0, len(variants)-1)], p)
}

func (e *Engine) sequence(path string, s *schema.Sequence, p Policy) (Value, error) {
	if p == Sparse {
		return []any{}, nil
	}
	n := e.rng.Number(minDenseElems, maxDenseElems)
	out := make([]any, 0, n)
	for i := 0; i < n; i++ {
		v, err := e.value(fmt.Sprintf("%s[%d]", path, i), s.Elem(), p)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (e *Engine) record(path string, s *schema.Struct, p Policy) (*Record, error) {
	rec := NewRecord(s.Len())
	for _, f := range s.Fields() {
		v, present, err := e.field(path+"."+f.Name, f.Type, p)
		if err != nil {
			return nil, err
		}
		if present {
			rec.Set(f.Name, v)
		}
	}
	if err := checkRecord(s, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// checkRecord verifies every required field of s is present in rec.
func checkRecord(s *schema.Struct, rec *Record) error {
	var missing []string
	for _, f := range s.Fields() {
		if f.Required() && !rec.Has(f.Name) {
			missing = append(missing, f.Name)
		}
	}
	if len(missing) > 0 {
		return &IncompleteRecordError{Struct: s.Name(), Missing: missing}
	}
	return nil
}
