package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/weiawesome/disfake/internal/domain"
	"github.com/weiawesome/disfake/internal/fixture"
	"github.com/weiawesome/disfake/internal/generator"
	"github.com/weiawesome/disfake/internal/idgen"
	"github.com/weiawesome/disfake/pkg/log"
	"github.com/weiawesome/disfake/pkg/pubsub"
	"github.com/weiawesome/disfake/pkg/storage"
)

const maxIDBatch = 1000

// exportFiles are the objects ExportGuild writes under guilds/<id>/.
var exportFiles = []string{"guild.json", "members.json", "channels.json"}

func exportPrefix(id idgen.ID) string {
	return fmt.Sprintf("guilds/%s/", id)
}

// Config tunes the fixture service.
type Config struct {
	DefaultPolicy generator.Policy
	MaxMembers    int
	URLExpiry     time.Duration
}

type fixtureService struct {
	factory   *fixture.Factory
	ids       idgen.Registry
	store     storage.Storage
	publisher pubsub.Publisher
	cfg       Config
}

// NewFixtureService creates a FixtureService. store and publisher may be nil, which
// disables export and dispatch respectively.
func NewFixtureService(factory *fixture.Factory, ids idgen.Registry, store storage.Storage, publisher pubsub.Publisher, cfg Config) FixtureService {
	if cfg.MaxMembers <= 0 {
		cfg.MaxMembers = 1000
	}
	if cfg.URLExpiry <= 0 {
		cfg.URLExpiry = time.Hour
	}
	return &fixtureService{
		factory:   factory,
		ids:       ids,
		store:     store,
		publisher: publisher,
		cfg:       cfg,
	}
}

func (s *fixtureService) policy(name string) (generator.Policy, error) {
	if name == "" {
		return s.cfg.DefaultPolicy, nil
	}
	p, err := generator.ParsePolicy(name)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPolicy, err)
	}
	return p, nil
}

func parseGuildID(raw string) (idgen.ID, error) {
	id, err := idgen.ParseID(raw)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, raw)
	}
	return id, nil
}

func (s *fixtureService) CreateUser(ctx context.Context, req *domain.CreateUserRequest) (*fixture.Record, error) {
	p, err := s.policy(req.Policy)
	if err != nil {
		return nil, err
	}
	user, err := s.factory.User(fixture.UserOptions{Policy: p, Overrides: req.Overrides})
	if err != nil {
		return nil, err
	}

	l := log.Ctx(ctx)
	l.Info().Str(log.FieldUserID, user.Str("id")).Str(log.FieldPolicy, p.String()).Msg("user created")
	return user, nil
}

func (s *fixtureService) CreateGuild(ctx context.Context, req *domain.CreateGuildRequest) (*fixture.Record, error) {
	p, err := s.policy(req.Policy)
	if err != nil {
		return nil, err
	}
	if req.Members < 0 || req.Members > s.cfg.MaxMembers {
		return nil, fmt.Errorf("%w: members must be between 0 and %d", ErrInvalidCount, s.cfg.MaxMembers)
	}
	if req.Emojis < 0 || req.Emojis > s.cfg.MaxMembers {
		return nil, fmt.Errorf("%w: emojis must be between 0 and %d", ErrInvalidCount, s.cfg.MaxMembers)
	}

	guild, err := s.factory.Guild(fixture.GuildOptions{
		Members:   req.Members,
		Emojis:    req.Emojis,
		Policy:    p,
		Overrides: req.Overrides,
	})
	if err != nil {
		return nil, err
	}

	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldGuildID, guild.Str("id")).
		Int("members", req.Members).
		Int("emojis", req.Emojis).
		Str(log.FieldPolicy, p.String()).
		Msg("guild created")
	return guild, nil
}

func (s *fixtureService) GetGuild(ctx context.Context, guildID string) (*fixture.Record, error) {
	id, err := parseGuildID(guildID)
	if err != nil {
		return nil, err
	}
	return s.factory.GuildByID(id)
}

func (s *fixtureService) ListMembers(ctx context.Context, guildID string) ([]*fixture.Record, error) {
	id, err := parseGuildID(guildID)
	if err != nil {
		return nil, err
	}
	return s.factory.Members(id)
}

func (s *fixtureService) ListChannels(ctx context.Context, guildID string) ([]*fixture.Record, error) {
	id, err := parseGuildID(guildID)
	if err != nil {
		return nil, err
	}
	return s.factory.Channels(id)
}

func (s *fixtureService) GatewayEvent(ctx context.Context, name, policy string) (*fixture.Record, error) {
	p, err := s.policy(policy)
	if err != nil {
		return nil, err
	}
	ev, err := s.factory.Event(name, p)
	if err != nil {
		return nil, err
	}

	l := log.Ctx(ctx)
	l.Debug().Str(log.FieldEvent, name).Str(log.FieldPolicy, p.String()).Msg("gateway event built")
	return ev, nil
}

func (s *fixtureService) ExportGuild(ctx context.Context, guildID string) (*domain.ExportResponse, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}
	id, err := parseGuildID(guildID)
	if err != nil {
		return nil, err
	}
	guild, err := s.factory.GuildByID(id)
	if err != nil {
		return nil, err
	}
	members, err := s.factory.Members(id)
	if err != nil {
		return nil, err
	}
	channels, err := s.factory.Channels(id)
	if err != nil {
		return nil, err
	}

	l := log.Ctx(ctx).With().Str(log.FieldGuildID, id.String()).Logger()

	prefix := exportPrefix(id)
	if err := s.store.DeletePrefix(ctx, prefix); err != nil {
		return nil, fmt.Errorf("clear previous export: %w", err)
	}

	files := []struct {
		name  string
		value any
	}{
		{exportFiles[0], guild},
		{exportFiles[1], members},
		{exportFiles[2], channels},
	}
	objects := make([]domain.ExportedObject, len(files))

	g, gctx := errgroup.WithContext(ctx)
	for i, file := range files {
		g.Go(func() error {
			data, err := json.Marshal(file.value)
			if err != nil {
				return fmt.Errorf("marshal %s: %w", file.name, err)
			}
			key := prefix + file.name
			if err := s.store.Write(gctx, key, bytes.NewReader(data), int64(len(data)), "application/json"); err != nil {
				return fmt.Errorf("write %s: %w", key, err)
			}
			url, err := s.store.GetURL(gctx, key, s.cfg.URLExpiry)
			if err != nil {
				l.Warn().Err(err).Str(log.FieldStorageKey, key).Msg("failed to resolve export url")
			}
			objects[i] = domain.ExportedObject{Key: key, Size: int64(len(data)), URL: url}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		l.Error().Err(err).Msg("guild export failed")
		return nil, err
	}

	l.Info().Int("objects", len(objects)).Msg("guild exported")
	return &domain.ExportResponse{
		GuildID:    id.String(),
		Objects:    objects,
		ExportedAt: time.Now().UTC(),
	}, nil
}

func (s *fixtureService) ListExport(ctx context.Context, guildID string) (*domain.ExportResponse, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}
	id, err := parseGuildID(guildID)
	if err != nil {
		return nil, err
	}
	files, err := s.store.List(ctx, exportPrefix(id))
	if err != nil {
		return nil, fmt.Errorf("list export: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: guild %s has not been exported", storage.ErrNotFound, id)
	}

	resp := &domain.ExportResponse{GuildID: id.String(), Objects: make([]domain.ExportedObject, 0, len(files))}
	for _, f := range files {
		url, err := s.store.GetURL(ctx, f.Key, s.cfg.URLExpiry)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", f.Key, err)
		}
		resp.Objects = append(resp.Objects, domain.ExportedObject{Key: f.Key, Size: f.Size, URL: url})
		if f.LastModified.After(resp.ExportedAt) {
			resp.ExportedAt = f.LastModified
		}
	}
	return resp, nil
}

func (s *fixtureService) ReadExport(ctx context.Context, guildID, name string) (io.ReadCloser, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}
	id, err := parseGuildID(guildID)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(exportFiles, name) {
		return nil, fmt.Errorf("%w: %q is not an export file", storage.ErrNotFound, name)
	}

	key := exportPrefix(id) + name
	ok, err := s.store.Exists(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", key, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, key)
	}
	return s.store.Read(ctx, key)
}

func (s *fixtureService) GuildCreate(ctx context.Context, guildID string, includeMembers bool) (*fixture.Record, error) {
	id, err := parseGuildID(guildID)
	if err != nil {
		return nil, err
	}
	return s.factory.GuildCreateEvent(id, includeMembers)
}

func (s *fixtureService) DispatchGuildCreate(ctx context.Context, guildID string, includeMembers bool) (*domain.DispatchResponse, error) {
	if s.publisher == nil {
		return nil, ErrPublisherDisabled
	}
	id, err := parseGuildID(guildID)
	if err != nil {
		return nil, err
	}
	payload, err := s.factory.GuildCreateEvent(id, includeMembers)
	if err != nil {
		return nil, err
	}

	event, err := pubsub.NewEvent(pubsub.EventGuildCreate, id.String(), payload)
	if err != nil {
		return nil, fmt.Errorf("encode dispatch: %w", err)
	}
	channel := pubsub.GuildDispatchChannel(id.String())
	if err := s.publisher.Publish(ctx, channel, event); err != nil {
		return nil, fmt.Errorf("publish dispatch: %w", err)
	}

	seq, _ := payload.Get("s")
	sequence, _ := seq.(int64)

	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldGuildID, id.String()).
		Str(log.FieldChannel, channel).
		Int64("sequence", sequence).
		Msg("GUILD_CREATE dispatched")
	return &domain.DispatchResponse{
		GuildID:  id.String(),
		Channel:  channel,
		Event:    pubsub.EventGuildCreate,
		Sequence: sequence,
	}, nil
}

func (s *fixtureService) GenerateIDs(ctx context.Context, kind string, count int) (*domain.IDsResponse, error) {
	if count < 1 || count > maxIDBatch {
		return nil, fmt.Errorf("%w: count must be between 1 and %d", ErrInvalidCount, maxIDBatch)
	}
	k, err := idgen.ParseKind(kind)
	if err != nil {
		return nil, err
	}
	gen, err := s.ids.Get(k)
	if err != nil {
		return nil, err
	}
	ids, err := gen.GenerateBatch(count)
	if err != nil {
		return nil, err
	}
	return &domain.IDsResponse{Kind: string(k), IDs: ids}, nil
}

func (s *fixtureService) ParseID(ctx context.Context, kind, id string) (*domain.IDParseResponse, error) {
	k, err := idgen.ParseKind(kind)
	if err != nil {
		return nil, err
	}
	gen, err := s.ids.Get(k)
	if err != nil {
		return nil, err
	}

	resp := &domain.IDParseResponse{Kind: string(k), ID: id}
	resp.Valid, resp.Reason = gen.Validate(id)
	if !resp.Valid {
		return resp, nil
	}
	details, err := gen.Parse(id)
	if err != nil {
		return nil, err
	}
	resp.Details = details
	return resp, nil
}

func (s *fixtureService) Reset(ctx context.Context) {
	s.factory.Reset()

	l := log.Ctx(ctx)
	l.Info().Msg("fixtures reset")
}
