package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/disfake/internal/domain"
	"github.com/weiawesome/disfake/internal/fixture"
	"github.com/weiawesome/disfake/internal/generator"
	"github.com/weiawesome/disfake/internal/idgen"
	"github.com/weiawesome/disfake/pkg/pubsub"
	"github.com/weiawesome/disfake/pkg/storage"
)

type harness struct {
	svc   FixtureService
	store *storage.LocalStorage
	bus   *pubsub.MemoryBus
}

func newHarness(t *testing.T, withBackends bool) *harness {
	t.Helper()
	sf, err := idgen.NewSnowflake(1, 2, idgen.WithClock(func() time.Time { return time.UnixMilli(1667252938342) }))
	require.NoError(t, err)
	factory, err := fixture.NewFactory(fixture.Options{
		Engine:    generator.NewSeeded(7),
		Snowflake: sf,
		Logger:    zerolog.Nop(),
	})
	require.NoError(t, err)
	registry, err := idgen.NewRegistry(sf, idgen.TokenConfig{})
	require.NoError(t, err)

	h := &harness{}
	var st storage.Storage
	var pub pubsub.Publisher
	if withBackends {
		h.store, err = storage.NewLocalStorage(storage.LocalConfig{BasePath: t.TempDir()})
		require.NoError(t, err)
		h.bus = pubsub.NewMemoryBus()
		st, pub = h.store, h.bus
	}
	h.svc = NewFixtureService(factory, registry, st, pub, Config{DefaultPolicy: generator.Sparse, MaxMembers: 50})
	return h
}

func TestCreateGuildAndLookups(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()

	guild, err := h.svc.CreateGuild(ctx, &domain.CreateGuildRequest{Members: 2, Emojis: 1})
	require.NoError(t, err)
	id := guild.Str("id")

	got, err := h.svc.GetGuild(ctx, id)
	require.NoError(t, err)
	assert.Same(t, guild, got)

	members, err := h.svc.ListMembers(ctx, id)
	require.NoError(t, err)
	assert.Len(t, members, 3)

	channels, err := h.svc.ListChannels(ctx, id)
	require.NoError(t, err)
	assert.NotNil(t, channels)

	_, err = h.svc.GetGuild(ctx, "nope")
	assert.ErrorIs(t, err, ErrInvalidID)
	_, err = h.svc.GetGuild(ctx, "1036758709298003968")
	assert.ErrorIs(t, err, fixture.ErrNotFound)
}

func TestCreateGuildValidation(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()

	_, err := h.svc.CreateGuild(ctx, &domain.CreateGuildRequest{Members: 51})
	assert.ErrorIs(t, err, ErrInvalidCount)
	_, err = h.svc.CreateGuild(ctx, &domain.CreateGuildRequest{Policy: "chaotic"})
	assert.ErrorIs(t, err, ErrInvalidPolicy)
}

func TestCreateUser(t *testing.T) {
	h := newHarness(t, false)

	user, err := h.svc.CreateUser(context.Background(), &domain.CreateUserRequest{
		Policy:    "dense",
		Overrides: map[string]any{"bot": true},
	})
	require.NoError(t, err)
	bot, _ := user.Get("bot")
	assert.Equal(t, true, bot)
	assert.Equal(t, "User "+user.Str("id"), user.Str("username"))
}

func TestGatewayEvent(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()

	ev, err := h.svc.GatewayEvent(ctx, fixture.EventReady, "")
	require.NoError(t, err)
	assert.Equal(t, "READY", ev.Str("t"))

	_, err = h.svc.GatewayEvent(ctx, "presence_update", "")
	assert.ErrorIs(t, err, fixture.ErrUnknownEvent)
}

func TestExportGuild(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()

	guild, err := h.svc.CreateGuild(ctx, &domain.CreateGuildRequest{Members: 3})
	require.NoError(t, err)
	id := guild.Str("id")

	resp, err := h.svc.ExportGuild(ctx, id)
	require.NoError(t, err)
	require.Len(t, resp.Objects, 3)
	assert.Equal(t, "guilds/"+id+"/guild.json", resp.Objects[0].Key)
	assert.Equal(t, "/guilds/"+id+"/members.json", resp.Objects[1].URL)

	rc, err := h.store.Read(ctx, "guilds/"+id+"/members.json")
	require.NoError(t, err)
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	require.NoError(t, err)

	var members []map[string]any
	require.NoError(t, json.Unmarshal(raw, &members))
	require.Len(t, members, 4)
	owner := members[0]["user"].(map[string]any)
	assert.Equal(t, guild.Str("owner_id"), owner["id"])

	files, err := h.store.List(ctx, "guilds/"+id)
	require.NoError(t, err)
	assert.Len(t, files, 3)
}

func TestReadBackExport(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()

	guild, err := h.svc.CreateGuild(ctx, &domain.CreateGuildRequest{Members: 1})
	require.NoError(t, err)
	id := guild.Str("id")

	_, err = h.svc.ListExport(ctx, id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = h.svc.ReadExport(ctx, id, "guild.json")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	exported, err := h.svc.ExportGuild(ctx, id)
	require.NoError(t, err)

	listing, err := h.svc.ListExport(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, listing.GuildID)
	require.Len(t, listing.Objects, len(exported.Objects))
	for _, obj := range listing.Objects {
		assert.Equal(t, "/"+obj.Key, obj.URL)
	}
	assert.False(t, listing.ExportedAt.IsZero())

	rc, err := h.svc.ReadExport(ctx, id, "guild.json")
	require.NoError(t, err)
	defer rc.Close()
	var stored map[string]any
	require.NoError(t, json.NewDecoder(rc).Decode(&stored))
	assert.Equal(t, id, stored["id"])
	assert.Equal(t, guild.Str("owner_id"), stored["owner_id"])

	_, err = h.svc.ReadExport(ctx, id, "../config.yaml")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = h.svc.ListExport(ctx, "x")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestGuildCreate(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()

	guild, err := h.svc.CreateGuild(ctx, &domain.CreateGuildRequest{Members: 2})
	require.NoError(t, err)

	ev, err := h.svc.GuildCreate(ctx, guild.Str("id"), true)
	require.NoError(t, err)
	assert.Equal(t, "GUILD_CREATE", ev.Str("t"))
	assert.Equal(t, guild.Str("id"), ev.Record("d").Str("id"))

	_, err = h.svc.GuildCreate(ctx, "1036758709298003968", true)
	assert.ErrorIs(t, err, fixture.ErrNotFound)
}

func TestDispatchGuildCreate(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()

	guild, err := h.svc.CreateGuild(ctx, &domain.CreateGuildRequest{Members: 1})
	require.NoError(t, err)
	id := guild.Str("id")

	resp, err := h.svc.DispatchGuildCreate(ctx, id, true)
	require.NoError(t, err)
	assert.Equal(t, "gateway:guild:"+id+":dispatch", resp.Channel)
	assert.Equal(t, int64(1), resp.Sequence)

	published := h.bus.Events()
	require.Len(t, published, 1)
	assert.Equal(t, resp.Channel, published[0].Channel)
	assert.Equal(t, pubsub.EventGuildCreate, published[0].Event.Type)

	var payload struct {
		Op int    `json:"op"`
		T  string `json:"t"`
		D  struct {
			ID          string `json:"id"`
			MemberCount int    `json:"member_count"`
		} `json:"d"`
	}
	require.NoError(t, published[0].Event.UnmarshalPayload(&payload))
	assert.Equal(t, 0, payload.Op)
	assert.Equal(t, "GUILD_CREATE", payload.T)
	assert.Equal(t, id, payload.D.ID)
	assert.Equal(t, 2, payload.D.MemberCount)
}

func TestBackendsDisabled(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()

	guild, err := h.svc.CreateGuild(ctx, &domain.CreateGuildRequest{})
	require.NoError(t, err)

	_, err = h.svc.ExportGuild(ctx, guild.Str("id"))
	assert.ErrorIs(t, err, ErrStorageDisabled)
	_, err = h.svc.DispatchGuildCreate(ctx, guild.Str("id"), false)
	assert.ErrorIs(t, err, ErrPublisherDisabled)
	_, err = h.svc.ListExport(ctx, guild.Str("id"))
	assert.ErrorIs(t, err, ErrStorageDisabled)
	_, err = h.svc.ReadExport(ctx, guild.Str("id"), "guild.json")
	assert.ErrorIs(t, err, ErrStorageDisabled)
}

func TestGenerateAndParseIDs(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()

	resp, err := h.svc.GenerateIDs(ctx, "snowflake", 3)
	require.NoError(t, err)
	require.Len(t, resp.IDs, 3)

	parsed, err := h.svc.ParseID(ctx, "snowflake", resp.IDs[0])
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
	details := parsed.Details.(*idgen.ParseResult)
	assert.Equal(t, int64(1), details.Worker)
	assert.Equal(t, int64(2), details.Process)
	assert.Equal(t, int64(1667252938342), details.TimestampMs)

	parsed, err = h.svc.ParseID(ctx, "uuid", "not-a-uuid")
	require.NoError(t, err)
	assert.False(t, parsed.Valid)
	assert.NotEmpty(t, parsed.Reason)

	_, err = h.svc.GenerateIDs(ctx, "snowflake", 0)
	assert.ErrorIs(t, err, ErrInvalidCount)
	_, err = h.svc.GenerateIDs(ctx, "objectid", 1)
	assert.True(t, errors.Is(err, idgen.ErrUnknownKind))
}

func TestReset(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()

	guild, err := h.svc.CreateGuild(ctx, &domain.CreateGuildRequest{})
	require.NoError(t, err)

	h.svc.Reset(ctx)
	_, err = h.svc.GetGuild(ctx, guild.Str("id"))
	assert.ErrorIs(t, err, fixture.ErrNotFound)
}
