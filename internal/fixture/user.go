package fixture

import (
	"fmt"

	"github.com/weiawesome/disfake/internal/cache"
	"github.com/weiawesome/disfake/internal/discord"
	"github.com/weiawesome/disfake/internal/generator"
)

// UserOptions controls user generation.
type UserOptions struct {
	Policy    generator.Policy
	Overrides map[string]any
}

// User generates a user, caches it by id and returns it.
func (f *Factory) User(opts UserOptions) (*Record, error) {
	user, err := f.engine.GenerateRecord(discord.User, opts.Policy)
	if err != nil {
		return nil, fmt.Errorf("generate user: %w", err)
	}

	id := f.ids.Next().String()
	user.Set("id", id)
	user.Set("username", "User "+id)
	user.Set("discriminator", id[len(id)-4:])
	user.Set("avatar", nil)
	user.Update(opts.Overrides)

	key, err := recordID(user)
	if err != nil {
		return nil, fmt.Errorf("%w: user %v", ErrInvalidOverride, err)
	}
	f.store.Users.Put(cache.EntityKey(key), user)

	f.logger.Debug().Str("user_id", key.String()).Str("policy", opts.Policy.String()).Msg("user generated")
	return user, nil
}

// promote turns a cached user into a guild member whose join time follows the user's
// creation time.
func (f *Factory) promote(user *Record, guildID string, p generator.Policy) (*Record, error) {
	member, err := f.engine.GenerateRecord(discord.GuildMember, p)
	if err != nil {
		return nil, fmt.Errorf("generate member: %w", err)
	}
	id, err := recordID(user)
	if err != nil {
		return nil, err
	}

	member.Set("user", user)
	member.Set("nick", nil)
	member.Set("avatar", nil)
	member.Set("roles", []any{guildID})
	member.Set("joined_at", timestamp(id.Time().Add(f.cfg.JoinDelay)))
	member.Set("deaf", false)
	member.Set("mute", false)
	member.Set("pending", false)
	return member, nil
}
