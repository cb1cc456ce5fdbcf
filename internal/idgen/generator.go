package idgen

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownKind is returned for ID scheme names that are not registered.
var ErrUnknownKind = errors.New("unknown ID kind")

// Generator defines the interface for string ID generation, validation, and parsing.
type Generator interface {
	Generate() (string, error)
	GenerateBatch(count int) ([]string, error)
	Validate(id string) (bool, string) // (valid, reason)
	Parse(id string) (*ParseResult, error)
}

// ParseResult holds the parsed fields from an ID.
type ParseResult struct {
	Kind          Kind   `json:"kind"`
	TimestampMs   int64  `json:"timestamp_ms,omitempty"`   // Snowflake/ULID/KSUID: absolute unix ms
	Worker        int64  `json:"worker,omitempty"`         // Snowflake only
	Process       int64  `json:"process,omitempty"`        // Snowflake only
	Sequence      int64  `json:"sequence,omitempty"`       // Snowflake only
	UUIDVersion   int32  `json:"uuid_version,omitempty"`   // UUID only (4)
	UUIDVariant   string `json:"uuid_variant,omitempty"`   // UUID only ("RFC4122")
	RandomPayload string `json:"random_payload,omitempty"` // ULID/KSUID: hex-encoded random bytes
	IDLength      int32  `json:"id_length,omitempty"`      // NanoID/CUID2: ID string length
	Alphabet      string `json:"alphabet,omitempty"`       // NanoID: character set used
}

// Kind names an ID scheme.
type Kind string

const (
	KindSnowflake Kind = "snowflake"
	KindUUID      Kind = "uuid"
	KindULID      Kind = "ulid"
	KindKSUID     Kind = "ksuid"
	KindNanoID    Kind = "nanoid"
	KindCUID2     Kind = "cuid2"
)

// ParseKind parses a case-insensitive kind name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case KindSnowflake, KindUUID, KindULID, KindKSUID, KindNanoID, KindCUID2:
		return k, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownKind, s)
}

// Registry maps ID kinds to generators.
type Registry map[Kind]Generator

// Get returns the generator for k.
func (r Registry) Get(k Kind) (Generator, error) {
	gen, ok := r[k]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownKind, k)
	}
	return gen, nil
}

// Kinds lists registered kinds in sorted order.
func (r Registry) Kinds() []Kind {
	kinds := make([]Kind, 0, len(r))
	for k := range r {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// TokenConfig configures the opaque token generators.
type TokenConfig struct {
	NanoIDSize     int
	NanoIDAlphabet string
	CUID2Length    int
}

// NewRegistry builds a registry holding sf and every token generator.
func NewRegistry(sf *Snowflake, cfg TokenConfig) (Registry, error) {
	nanoid, err := NewNanoIDGenerator(cfg.NanoIDSize, cfg.NanoIDAlphabet)
	if err != nil {
		return nil, err
	}
	cuid, err := NewCUID2Generator(cfg.CUID2Length)
	if err != nil {
		return nil, err
	}
	return Registry{
		KindSnowflake: sf,
		KindUUID:      NewUUIDGenerator(),
		KindULID:      NewULIDGenerator(),
		KindKSUID:     NewKSUIDGenerator(),
		KindNanoID:    nanoid,
		KindCUID2:     cuid,
	}, nil
}

// generateBatch calls gen count times.
func generateBatch(gen func() (string, error), count int) ([]string, error) {
	if count < 0 {
		return nil, fmt.Errorf("batch count must not be negative, got %d", count)
	}
	ids := make([]string, 0, count)
	for i := 0; i < count; i++ {
		id, err := gen()
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
