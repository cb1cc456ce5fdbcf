package idgen

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/nrednav/cuid2"
	"github.com/oklog/ulid/v2"
	"github.com/segmentio/ksuid"
)

// Token generators fill opaque string fields such as gateway session IDs and nonces.

const (
	DefaultNanoIDSize     = 21
	DefaultNanoIDAlphabet = "_-0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	DefaultCUID2Length    = 24
)

// UUIDGenerator generates UUID v4 tokens.
type UUIDGenerator struct{}

func NewUUIDGenerator() *UUIDGenerator { return &UUIDGenerator{} }

func (g *UUIDGenerator) Generate() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate UUID: %w", err)
	}
	return id.String(), nil
}

func (g *UUIDGenerator) GenerateBatch(count int) ([]string, error) {
	return generateBatch(g.Generate, count)
}

func (g *UUIDGenerator) Validate(id string) (bool, string) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return false, fmt.Sprintf("invalid UUID format: %v", err)
	}
	if parsed.Version() != 4 {
		return false, fmt.Sprintf("expected UUID v4, got v%d", parsed.Version())
	}
	return true, ""
}

func (g *UUIDGenerator) Parse(id string) (*ParseResult, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid UUID format: %w", err)
	}
	return &ParseResult{
		Kind:        KindUUID,
		UUIDVersion: int32(parsed.Version()),
		UUIDVariant: parsed.Variant().String(),
	}, nil
}

// ULIDGenerator generates lexicographically sortable ULID tokens.
type ULIDGenerator struct {
	now func() time.Time
}

func NewULIDGenerator() *ULIDGenerator { return &ULIDGenerator{now: time.Now} }

func (g *ULIDGenerator) Generate() (string, error) {
	id, err := ulid.New(ulid.Timestamp(g.now()), rand.Reader)
	if err != nil {
		return "", fmt.Errorf("failed to generate ULID: %w", err)
	}
	return id.String(), nil
}

func (g *ULIDGenerator) GenerateBatch(count int) ([]string, error) {
	return generateBatch(g.Generate, count)
}

func (g *ULIDGenerator) Validate(id string) (bool, string) {
	if len(id) != ulid.EncodedSize {
		return false, fmt.Sprintf("expected length %d, got %d", ulid.EncodedSize, len(id))
	}
	if _, err := ulid.ParseStrict(id); err != nil {
		return false, fmt.Sprintf("invalid ULID format: %v", err)
	}
	return true, ""
}

func (g *ULIDGenerator) Parse(id string) (*ParseResult, error) {
	parsed, err := ulid.ParseStrict(id)
	if err != nil {
		return nil, fmt.Errorf("invalid ULID format: %w", err)
	}
	return &ParseResult{
		Kind:          KindULID,
		TimestampMs:   int64(parsed.Time()),
		RandomPayload: hex.EncodeToString(parsed.Entropy()),
	}, nil
}

// KSUIDGenerator generates K-sortable KSUID tokens.
type KSUIDGenerator struct{}

func NewKSUIDGenerator() *KSUIDGenerator { return &KSUIDGenerator{} }

func (g *KSUIDGenerator) Generate() (string, error) {
	id, err := ksuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate KSUID: %w", err)
	}
	return id.String(), nil
}

func (g *KSUIDGenerator) GenerateBatch(count int) ([]string, error) {
	return generateBatch(g.Generate, count)
}

func (g *KSUIDGenerator) Validate(id string) (bool, string) {
	if len(id) != 27 {
		return false, fmt.Sprintf("expected length 27, got %d", len(id))
	}
	if _, err := ksuid.Parse(id); err != nil {
		return false, fmt.Sprintf("invalid KSUID format: %v", err)
	}
	return true, ""
}

func (g *KSUIDGenerator) Parse(id string) (*ParseResult, error) {
	parsed, err := ksuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid KSUID format: %w", err)
	}
	return &ParseResult{
		Kind:          KindKSUID,
		TimestampMs:   parsed.Time().UnixMilli(),
		RandomPayload: hex.EncodeToString(parsed.Payload()),
	}, nil
}

// NanoIDGenerator generates NanoID tokens with a configurable size and alphabet.
type NanoIDGenerator struct {
	size     int
	alphabet string
}

// NewNanoIDGenerator creates a NanoIDGenerator. Zero values select the defaults.
// size must be between 1 and 256 and alphabet must have at least 2 characters.
func NewNanoIDGenerator(size int, alphabet string) (*NanoIDGenerator, error) {
	if size == 0 {
		size = DefaultNanoIDSize
	}
	if alphabet == "" {
		alphabet = DefaultNanoIDAlphabet
	}
	if size < 1 || size > 256 {
		return nil, fmt.Errorf("nanoid size must be between 1 and 256, got %d", size)
	}
	if len(alphabet) < 2 {
		return nil, fmt.Errorf("nanoid alphabet must have at least 2 characters, got %d", len(alphabet))
	}
	return &NanoIDGenerator{size: size, alphabet: alphabet}, nil
}

func (g *NanoIDGenerator) Generate() (string, error) {
	id, err := gonanoid.Generate(g.alphabet, g.size)
	if err != nil {
		return "", fmt.Errorf("failed to generate NanoID: %w", err)
	}
	return id, nil
}

func (g *NanoIDGenerator) GenerateBatch(count int) ([]string, error) {
	return generateBatch(g.Generate, count)
}

func (g *NanoIDGenerator) Validate(id string) (bool, string) {
	if len(id) != g.size {
		return false, fmt.Sprintf("expected length %d, got %d", g.size, len(id))
	}
	for _, c := range id {
		if !strings.ContainsRune(g.alphabet, c) {
			return false, fmt.Sprintf("character '%c' not in alphabet", c)
		}
	}
	return true, ""
}

func (g *NanoIDGenerator) Parse(id string) (*ParseResult, error) {
	if valid, reason := g.Validate(id); !valid {
		return nil, fmt.Errorf("invalid NanoID: %s", reason)
	}
	return &ParseResult{
		Kind:     KindNanoID,
		IDLength: int32(len(id)),
		Alphabet: g.alphabet,
	}, nil
}

// CUID2Generator generates collision-resistant CUID2 tokens.
type CUID2Generator struct {
	length   int
	generate func() string
}

// NewCUID2Generator creates a CUID2Generator. A zero length selects the default;
// otherwise length must be between 2 and 32.
func NewCUID2Generator(length int) (*CUID2Generator, error) {
	if length == 0 {
		length = DefaultCUID2Length
	}
	if length < 2 || length > 32 {
		return nil, fmt.Errorf("cuid2 length must be between 2 and 32, got %d", length)
	}
	gen, err := cuid2.Init(cuid2.WithLength(length))
	if err != nil {
		return nil, fmt.Errorf("failed to init CUID2 generator: %w", err)
	}
	return &CUID2Generator{length: length, generate: gen}, nil
}

func (g *CUID2Generator) Generate() (string, error) {
	return g.generate(), nil
}

func (g *CUID2Generator) GenerateBatch(count int) ([]string, error) {
	return generateBatch(g.Generate, count)
}

func (g *CUID2Generator) Validate(id string) (bool, string) {
	if len(id) != g.length {
		return false, fmt.Sprintf("expected length %d, got %d", g.length, len(id))
	}
	if !cuid2.IsCuid(id) {
		return false, "invalid CUID2 format"
	}
	return true, ""
}

func (g *CUID2Generator) Parse(id string) (*ParseResult, error) {
	if valid, reason := g.Validate(id); !valid {
		return nil, fmt.Errorf("invalid CUID2: %s", reason)
	}
	return &ParseResult{
		Kind:     KindCUID2,
		IDLength: int32(len(id)),
	}, nil
}
