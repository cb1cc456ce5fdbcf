// Package fixture assembles coherent Discord fixtures: it fills schema skeletons from the
// generator engine, stamps snowflakes on them and wires records together through the
// entity caches.
package fixture

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/weiawesome/disfake/internal/cache"
	"github.com/weiawesome/disfake/internal/generator"
	"github.com/weiawesome/disfake/internal/idgen"
	"github.com/weiawesome/disfake/internal/schema"
)

var (
	// ErrIncoherent means assemblers ran out of order, e.g. a guild owner missing from
	// the user cache. It always indicates a bug.
	ErrIncoherent = errors.New("fixture: incoherent entity cache")

	// ErrNotFound is returned when a referenced fixture was never generated.
	ErrNotFound = errors.New("fixture: not found")

	// ErrUnknownEvent is returned for gateway event names the factory cannot build.
	ErrUnknownEvent = errors.New("fixture: unknown gateway event")

	// ErrInvalidOverride is returned when an override would break a record's identity.
	ErrInvalidOverride = errors.New("fixture: invalid override")
)

// Record is the value type every assembler produces.
type Record = generator.Record

// Store groups the entity caches shared by the assemblers.
type Store struct {
	Users    *cache.Memory[*Record] // EntityKey(userID)
	Guilds   *cache.Memory[*Record] // EntityKey(guildID)
	Owners   *cache.Memory[*Record] // ParentKey(guildID), the owning user
	Members  *cache.Memory[*Record] // ParentKey(guildID), join order
	Channels *cache.Memory[*Record] // ParentKey(guildID), creation order
}

// NewStore creates empty caches.
func NewStore() *Store {
	return &Store{
		Users:    cache.NewMemory[*Record](),
		Guilds:   cache.NewMemory[*Record](),
		Owners:   cache.NewMemory[*Record](),
		Members:  cache.NewMemory[*Record](),
		Channels: cache.NewMemory[*Record](),
	}
}

// Reset empties every cache.
func (s *Store) Reset() {
	s.Users.Reset()
	s.Guilds.Reset()
	s.Owners.Reset()
	s.Members.Reset()
	s.Channels.Reset()
}

// Config tunes assembled values.
type Config struct {
	HeartbeatInterval int
	ResumeGatewayURL  string
	// ChannelOffset shifts channel snowflakes ahead so channels are newer than their guild.
	ChannelOffset time.Duration
	// JoinDelay is added to a user's creation time to produce joined_at.
	JoinDelay time.Duration
}

// DefaultConfig returns the values used when a Config field is zero.
func DefaultConfig() Config {
	return Config{
		HeartbeatInterval: 1000,
		ResumeGatewayURL:  "wss://gateway.discord.gg",
		ChannelOffset:     10 * time.Second,
		JoinDelay:         24 * time.Hour,
	}
}

// Options carries the factory's collaborators. Nil fields get fresh defaults.
type Options struct {
	Engine    *generator.Engine
	Resolver  *schema.Resolver
	Snowflake *idgen.Snowflake
	Tokens    idgen.Generator
	Store     *Store
	Config    Config
	Logger    zerolog.Logger
}

// Factory builds fixtures. It is safe for concurrent use; coherence across concurrent
// guild builds only holds per guild.
type Factory struct {
	engine   *generator.Engine
	resolver *schema.Resolver
	ids      *idgen.Snowflake
	tokens   idgen.Generator
	store    *Store
	cfg      Config
	logger   zerolog.Logger
	seq      atomic.Int64
}

// NewFactory creates a factory.
func NewFactory(opts Options) (*Factory, error) {
	f := &Factory{
		engine:   opts.Engine,
		resolver: opts.Resolver,
		ids:      opts.Snowflake,
		tokens:   opts.Tokens,
		store:    opts.Store,
		cfg:      withDefaults(opts.Config),
		logger:   opts.Logger,
	}
	if f.engine == nil {
		f.engine = generator.NewSeeded(0)
	}
	if f.resolver == nil {
		f.resolver = schema.NewResolver()
	}
	if f.ids == nil {
		sf, err := idgen.NewSnowflake(0, 0)
		if err != nil {
			return nil, err
		}
		f.ids = sf
	}
	if f.tokens == nil {
		f.tokens = idgen.NewUUIDGenerator()
	}
	if f.store == nil {
		f.store = NewStore()
	}
	return f, nil
}

func withDefaults(cfg Config) Config {
	def := DefaultConfig()
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = def.HeartbeatInterval
	}
	if cfg.ResumeGatewayURL == "" {
		cfg.ResumeGatewayURL = def.ResumeGatewayURL
	}
	if cfg.ChannelOffset == 0 {
		cfg.ChannelOffset = def.ChannelOffset
	}
	if cfg.JoinDelay == 0 {
		cfg.JoinDelay = def.JoinDelay
	}
	return cfg
}

// Store returns the factory's caches.
func (f *Factory) Store() *Store { return f.store }

// Snowflake returns the factory's identifier generator.
func (f *Factory) Snowflake() *idgen.Snowflake { return f.ids }

// Reset empties the caches and the resolver memo.
func (f *Factory) Reset() {
	f.store.Reset()
	f.resolver.Reset()
	f.seq.Store(0)
}

// recordID reads the snowflake stored under "id".
func recordID(rec *Record) (idgen.ID, error) {
	id, err := idgen.ParseID(rec.Str("id"))
	if err != nil {
		return 0, fmt.Errorf("record id: %w", err)
	}
	return id, nil
}

// timestamp formats t the way the Discord API does.
func timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000Z07:00")
}
