package fixture

import (
	"errors"
	"fmt"
	"strings"

	"github.com/weiawesome/disfake/internal/cache"
	"github.com/weiawesome/disfake/internal/discord"
	"github.com/weiawesome/disfake/internal/generator"
	"github.com/weiawesome/disfake/internal/idgen"
	"github.com/weiawesome/disfake/internal/schema"
)

// GuildOptions controls guild generation. Members counts members besides the owner.
type GuildOptions struct {
	Members   int
	Emojis    int
	Policy    generator.Policy
	Overrides map[string]any
}

// Guild generates a coherent guild. Identifiers are allocated in order: guild, owner,
// members, channels, emojis. The owner and members are cached under the guild so later
// lookups and GUILD_CREATE promotion see the same records.
func (f *Factory) Guild(opts GuildOptions) (*Record, error) {
	if opts.Members < 0 || opts.Emojis < 0 {
		return nil, fmt.Errorf("guild: negative counts (members=%d, emojis=%d)", opts.Members, opts.Emojis)
	}
	if _, ok := opts.Overrides["id"]; ok {
		return nil, fmt.Errorf("%w: guild id is allocated by the factory", ErrInvalidOverride)
	}

	guild, err := f.engine.GenerateRecord(discord.Guild, opts.Policy)
	if err != nil {
		return nil, fmt.Errorf("generate guild: %w", err)
	}
	id := f.ids.Next()
	guild.Set("id", id.String())
	guild.Set("name", "Guild "+id.String())

	if err := f.addEveryoneRole(guild, opts.Policy); err != nil {
		return nil, err
	}
	if err := f.addMembers(guild, id, opts.Members, opts.Policy); err != nil {
		return nil, err
	}
	if err := f.linkChannels(guild, id, opts.Policy); err != nil {
		return nil, err
	}
	if err := f.addEmojis(guild, opts.Emojis, opts.Policy); err != nil {
		return nil, err
	}

	guild.Update(opts.Overrides)
	f.store.Guilds.Put(cache.EntityKey(id), guild)

	f.logger.Info().
		Str("guild_id", id.String()).
		Int("members", opts.Members+1).
		Int("emojis", opts.Emojis).
		Str("policy", opts.Policy.String()).
		Msg("guild generated")
	return guild, nil
}

// Owner returns the cached owner of a guild.
func (f *Factory) Owner(id idgen.ID) (*Record, error) {
	owner, ok := f.store.Owners.Get(cache.ParentKey(id))
	if !ok {
		return nil, fmt.Errorf("%w: owner of guild %s", ErrNotFound, id)
	}
	return owner, nil
}

// GuildByID returns a previously generated guild.
func (f *Factory) GuildByID(id idgen.ID) (*Record, error) {
	guild, ok := f.store.Guilds.Get(cache.EntityKey(id))
	if !ok {
		return nil, fmt.Errorf("%w: guild %s", ErrNotFound, id)
	}
	return guild, nil
}

// Members returns the cached members of a guild in join order.
func (f *Factory) Members(id idgen.ID) ([]*Record, error) {
	if _, err := f.GuildByID(id); err != nil {
		return nil, err
	}
	return f.store.Members.ListFor(cache.ParentKey(id)), nil
}

// Channels returns the cached channels of a guild in creation order.
func (f *Factory) Channels(id idgen.ID) ([]*Record, error) {
	if _, err := f.GuildByID(id); err != nil {
		return nil, err
	}
	return f.store.Channels.ListFor(cache.ParentKey(id)), nil
}

// addEveryoneRole appends the @everyone role, which shares the guild's id.
func (f *Factory) addEveryoneRole(guild *Record, p generator.Policy) error {
	role, err := f.engine.GenerateRecord(discord.Role, p)
	if err != nil {
		return fmt.Errorf("generate role: %w", err)
	}
	role.Set("id", guild.Str("id"))
	role.Set("name", "@everyone")
	role.Set("permissions", "0")
	role.Set("managed", false)
	guild.Set("roles", append(guild.List("roles"), role))
	return nil
}

func (f *Factory) addMembers(guild *Record, id idgen.ID, n int, p generator.Policy) error {
	owner, err := f.User(UserOptions{Policy: p})
	if err != nil {
		return err
	}
	guild.Set("owner_id", owner.Str("id"))
	f.store.Owners.Put(cache.ParentKey(id), owner)
	if err := f.join(owner, id, p); err != nil {
		return err
	}

	for range n {
		user, err := f.User(UserOptions{Policy: p})
		if err != nil {
			return err
		}
		if err := f.join(user, id, p); err != nil {
			return err
		}
	}
	return nil
}

func (f *Factory) join(user *Record, guildID idgen.ID, p generator.Policy) error {
	member, err := f.promote(user, guildID.String(), p)
	if err != nil {
		return err
	}
	f.store.Members.Append(cache.ParentKey(guildID), member)
	return nil
}

// linkChannels flips a coin for every *_channel_id field. Heads creates a text channel
// the field points at. Tails drops a not-required field and nulls a nullable one; a
// field that is neither always gets a channel.
func (f *Factory) linkChannels(guild *Record, id idgen.ID, p generator.Policy) error {
	for _, field := range discord.Guild.Fields() {
		if !strings.HasSuffix(field.Name, "_channel_id") {
			continue
		}
		if !f.ids.Bool() {
			if !field.Required() {
				guild.Delete(field.Name)
				continue
			}
			if nullable(field.Type) {
				guild.Set(field.Name, nil)
				continue
			}
		}
		channel, err := f.channel(id, p)
		if err != nil {
			return err
		}
		guild.Set(field.Name, channel.Str("id"))
	}
	return nil
}

func (f *Factory) channel(guildID idgen.ID, p generator.Policy) (*Record, error) {
	channel, err := f.engine.GenerateRecord(discord.TextChannel, p)
	if err != nil {
		return nil, fmt.Errorf("generate channel: %w", err)
	}
	id := f.ids.NextOffset(f.cfg.ChannelOffset)
	channel.Set("id", id.String())
	channel.Set("name", "Channel "+id.String())
	channel.Set("guild_id", guildID.String())
	f.store.Channels.Append(cache.ParentKey(guildID), channel)
	return channel, nil
}

func nullable(d schema.Descriptor) bool {
	switch v := d.(type) {
	case *schema.Optional, *schema.Null:
		return true
	case *schema.Union:
		return v.Nullable()
	}
	return false
}

// addEmojis appends n emojis uploaded by the guild owner.
func (f *Factory) addEmojis(guild *Record, n int, p generator.Policy) error {
	if n == 0 {
		return nil
	}
	guildID, err := recordID(guild)
	if err != nil {
		return fmt.Errorf("%w: guild %v", ErrIncoherent, err)
	}
	owner, ok := f.store.Owners.Get(cache.ParentKey(guildID))
	if !ok {
		return fmt.Errorf("%w: guild %s has no cached owner", ErrIncoherent, guildID)
	}
	if owner.Str("id") != guild.Str("owner_id") {
		return fmt.Errorf("%w: guild %s owner_id %q does not match cached owner %s",
			ErrIncoherent, guildID, guild.Str("owner_id"), owner.Str("id"))
	}

	emojis := guild.List("emojis")
	for range n {
		emoji, err := f.engine.GenerateRecord(discord.Emoji, p)
		if err != nil {
			return fmt.Errorf("generate emoji: %w", err)
		}
		id := f.ids.Next().String()
		emoji.Set("id", id)
		emoji.Set("name", "emoji"+id)
		emoji.Set("roles", []any{})
		emoji.Set("user", owner)
		emoji.Set("require_colons", true)
		emoji.Set("managed", false)
		emoji.Set("animated", false)
		emojis = append(emojis, emoji)
	}
	guild.Set("emojis", emojis)
	return nil
}

// GuildCreate promotes a generated guild to its GUILD_CREATE payload. Members are only
// listed when includeMembers is set; member_count always matches the list.
func (f *Factory) GuildCreate(id idgen.ID, includeMembers bool) (*Record, error) {
	guild, err := f.GuildByID(id)
	if err != nil {
		return nil, err
	}

	members := []any{}
	if includeMembers {
		for _, m := range f.store.Members.ListFor(cache.ParentKey(id)) {
			members = append(members, m)
		}
	}
	channels := []any{}
	for _, c := range f.store.Channels.ListFor(cache.ParentKey(id)) {
		channels = append(channels, c)
	}

	data := guild.Clone()
	data.Set("joined_at", "2021-01-01T00:00:00.000000+00:00")
	data.Set("large", false)
	data.Set("unavailable", false)
	data.Set("member_count", int64(len(members)))
	data.Set("voice_states", []any{})
	data.Set("members", members)
	data.Set("channels", channels)
	data.Set("threads", []any{})
	data.Set("presences", []any{})
	data.Set("stage_instances", []any{})
	data.Set("guild_scheduled_events", []any{})
	return data, nil
}

// IsIncoherent reports whether err came from a broken cache invariant.
func IsIncoherent(err error) bool { return errors.Is(err, ErrIncoherent) }
