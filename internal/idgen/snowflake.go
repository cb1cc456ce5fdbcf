package idgen

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v6"
)

// DiscordEpoch is the snowflake epoch, 2015-01-01T00:00:00Z in unix milliseconds.
const DiscordEpoch int64 = 1420070400000

const (
	timestampBits = 42
	workerBits    = 5
	processBits   = 5
	sequenceBits  = 12

	MaxWorker    = (1 << workerBits) - 1  // 31
	MaxProcess   = (1 << processBits) - 1 // 31
	maxSequence  = (1 << sequenceBits) - 1
	maxTimestamp = (1 << timestampBits) - 1

	processShift   = sequenceBits
	workerShift    = sequenceBits + processBits
	timestampShift = sequenceBits + processBits + workerBits
)

// ID is a 64-bit snowflake. It encodes to JSON as a decimal string.
type ID uint64

// ParseID parses a decimal snowflake.
func ParseID(s string) (ID, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid snowflake %q: %w", s, err)
	}
	return ID(n), nil
}

func (id ID) String() string { return strconv.FormatUint(uint64(id), 10) }

// Time returns the creation time encoded in id.
func (id ID) Time() time.Time { return Decode(id) }

func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

func (id *ID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var n uint64
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("snowflake must be a string or number: %w", err)
		}
		*id = ID(n)
		return nil
	}
	parsed, err := ParseID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Decode returns the millisecond timestamp embedded in id.
func Decode(id ID) time.Time {
	return time.UnixMilli(int64(uint64(id)>>timestampShift) + DiscordEpoch).UTC()
}

// Coin is a source of unbiased booleans.
type Coin interface {
	Bool() bool
}

// Option configures a Snowflake.
type Option func(*Snowflake)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(g *Snowflake) { g.now = now }
}

// WithCoin replaces the random source behind Bool.
func WithCoin(c Coin) Option {
	return func(g *Snowflake) { g.coin = c }
}

// Snowflake issues strictly increasing 64-bit IDs.
//
// The low 12 bits carry the number of IDs issued so far and are not reset when the
// millisecond changes. Should a composed ID not exceed the previous one, because the
// clock stepped back or the count wrapped inside one millisecond, the previous ID's
// sequence is bumped instead; once that sequence is exhausted the timestamp moves one
// millisecond past the previous ID. Worker and process bits never change, but the
// timestamp of such an ID may differ from the wall clock.
type Snowflake struct {
	mu      sync.Mutex
	worker  uint64
	process uint64
	issued  uint64
	last    ID
	now     func() time.Time
	coin    Coin
}

// NewSnowflake creates a Snowflake. worker and process must be in range [0, 31].
func NewSnowflake(worker, process int64, opts ...Option) (*Snowflake, error) {
	if worker < 0 || worker > MaxWorker {
		return nil, fmt.Errorf("worker must be between 0 and %d, got %d", MaxWorker, worker)
	}
	if process < 0 || process > MaxProcess {
		return nil, fmt.Errorf("process must be between 0 and %d, got %d", MaxProcess, process)
	}
	g := &Snowflake{
		worker:  uint64(worker),
		process: uint64(process),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.coin == nil {
		g.coin = gofakeit.New(0)
	}
	return g, nil
}

// Next issues an ID stamped with the current time.
func (g *Snowflake) Next() ID {
	return g.NextOffset(0)
}

// NextOffset issues an ID stamped with the current time shifted by offset.
func (g *Snowflake) NextOffset(offset time.Duration) ID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.nextLocked(offset)
}

// NextBatch issues n consecutive IDs.
func (g *Snowflake) NextBatch(n int) []ID {
	g.mu.Lock()
	defer g.mu.Unlock()

	ids := make([]ID, 0, n)
	for i := 0; i < n; i++ {
		ids = append(ids, g.nextLocked(0))
	}
	return ids
}

// nextLocked must be called with g.mu held.
func (g *Snowflake) nextLocked(offset time.Duration) ID {
	ts := g.now().UnixMilli() + offset.Milliseconds() - DiscordEpoch
	if ts < 0 {
		ts = 0
	}
	if ts > maxTimestamp {
		ts = maxTimestamp
	}

	id := g.compose(uint64(ts), g.issued&maxSequence)
	if id <= g.last {
		lastTs := uint64(g.last) >> timestampShift
		lastSeq := uint64(g.last) & maxSequence
		if lastSeq < maxSequence {
			id = g.compose(lastTs, lastSeq+1)
		} else {
			id = g.compose(lastTs+1, 0)
		}
	}

	g.last = id
	g.issued++
	return id
}

func (g *Snowflake) compose(ts, seq uint64) ID {
	return ID(ts<<timestampShift |
		g.worker<<workerShift |
		g.process<<processShift |
		seq)
}

// Issued returns how many IDs this generator has produced.
func (g *Snowflake) Issued() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.issued
}

// Bool flips a fair coin.
func (g *Snowflake) Bool() bool {
	return g.coin.Bool()
}

// Hash derives a CDN-style asset hash from id.
func (g *Snowflake) Hash(id ID) string {
	sum := sha1.Sum([]byte(id.String()))
	return hex.EncodeToString(sum[:])
}

func (g *Snowflake) Generate() (string, error) {
	return g.Next().String(), nil
}

func (g *Snowflake) GenerateBatch(count int) ([]string, error) {
	if count < 0 {
		return nil, fmt.Errorf("batch count must not be negative, got %d", count)
	}
	ids := g.NextBatch(count)
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out, nil
}

func (g *Snowflake) Validate(id string) (bool, string) {
	n, err := ParseID(id)
	if err != nil {
		return false, "invalid integer format"
	}
	if uint64(n)>>timestampShift == 0 {
		return false, "timestamp is at or before epoch"
	}
	return true, ""
}

func (g *Snowflake) Parse(id string) (*ParseResult, error) {
	n, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	return &ParseResult{
		Kind:        KindSnowflake,
		TimestampMs: Decode(n).UnixMilli(),
		Worker:      int64(uint64(n)>>workerShift) & MaxWorker,
		Process:     int64(uint64(n)>>processShift) & MaxProcess,
		Sequence:    int64(uint64(n) & maxSequence),
	}, nil
}
