// Package discord declares the descriptor trees for the Discord API resources the
// fixture factory produces. Snowflake fields are plain strings here; assemblers fill them.
package discord

import (
	s "github.com/weiawesome/disfake/internal/schema"
)

var (
	opt = s.NewOptional
	nr  = s.NewNotRequired
	seq = s.NewSequence
	lit = s.NewLiteral
	f   = s.F
)

// User is a user object.
var User = s.NewStruct("User",
	f("id", s.String),
	f("username", s.String),
	f("discriminator", s.String),
	f("global_name", nr(opt(s.String))),
	f("avatar", opt(s.String)),
	f("bot", nr(s.Bool)),
	f("system", nr(s.Bool)),
	f("mfa_enabled", nr(s.Bool)),
	f("banner", nr(opt(s.String))),
	f("accent_color", nr(opt(s.Int))),
	f("locale", nr(s.String)),
	f("verified", nr(s.Bool)),
	f("email", nr(opt(s.String))),
	f("flags", nr(s.Int)),
	f("premium_type", nr(lit(0, 1, 2, 3))),
	f("public_flags", nr(s.Int)),
)

// RoleTags describes what a managed role belongs to.
var RoleTags = s.NewStruct("RoleTags",
	f("bot_id", nr(s.String)),
	f("integration_id", nr(s.String)),
	f("premium_subscriber", nr(s.None)),
)

// Role is a guild role.
var Role = s.NewStruct("Role",
	f("id", s.String),
	f("name", s.String),
	f("color", s.Int),
	f("hoist", s.Bool),
	f("icon", nr(opt(s.String))),
	f("unicode_emoji", nr(opt(s.String))),
	f("position", s.Int),
	f("permissions", s.String),
	f("managed", s.Bool),
	f("mentionable", s.Bool),
	f("tags", nr(RoleTags)),
)

// Emoji is a custom guild emoji.
var Emoji = s.NewStruct("Emoji",
	f("id", opt(s.String)),
	f("name", opt(s.String)),
	f("roles", nr(seq(s.String))),
	f("user", nr(User)),
	f("require_colons", nr(s.Bool)),
	f("managed", nr(s.Bool)),
	f("animated", nr(s.Bool)),
	f("available", nr(s.Bool)),
)

// GuildMember is a user's membership in a guild.
var GuildMember = s.NewStruct("GuildMember",
	f("user", nr(User)),
	f("nick", nr(opt(s.String))),
	f("avatar", nr(opt(s.String))),
	f("roles", seq(s.String)),
	f("joined_at", s.String),
	f("premium_since", nr(opt(s.String))),
	f("deaf", s.Bool),
	f("mute", s.Bool),
	f("pending", nr(s.Bool)),
	f("permissions", nr(s.String)),
	f("communication_disabled_until", nr(opt(s.String))),
)

// Overwrite is a channel permission overwrite.
var Overwrite = s.NewStruct("Overwrite",
	f("id", s.String),
	f("type", lit(0, 1)),
	f("allow", s.String),
	f("deny", s.String),
)

// TextChannel is a guild text channel.
var TextChannel = s.NewStruct("TextChannel",
	f("id", s.String),
	f("type", lit(0)),
	f("guild_id", nr(s.String)),
	f("position", nr(s.Int)),
	f("permission_overwrites", nr(seq(Overwrite))),
	f("name", nr(opt(s.String))),
	f("topic", nr(opt(s.String))),
	f("nsfw", nr(s.Bool)),
	f("last_message_id", nr(opt(s.String))),
	f("rate_limit_per_user", nr(s.Int)),
	f("parent_id", nr(opt(s.String))),
	f("last_pin_timestamp", nr(opt(s.String))),
	f("default_auto_archive_duration", nr(lit(60, 1440, 4320, 10080))),
)

// WelcomeChannel is one entry of a guild welcome screen.
var WelcomeChannel = s.NewStruct("WelcomeChannel",
	f("channel_id", s.String),
	f("description", s.String),
	f("emoji_id", opt(s.String)),
	f("emoji_name", opt(s.String)),
)

// WelcomeScreen is a guild's welcome screen.
var WelcomeScreen = s.NewStruct("WelcomeScreen",
	f("description", opt(s.String)),
	f("welcome_channels", seq(WelcomeChannel)),
)

// Guild is a guild object as returned by the REST API.
var Guild = s.NewStruct("Guild",
	f("id", s.String),
	f("name", s.String),
	f("icon", opt(s.String)),
	f("icon_hash", nr(opt(s.String))),
	f("splash", opt(s.String)),
	f("discovery_splash", opt(s.String)),
	f("owner", nr(s.Bool)),
	f("owner_id", s.String),
	f("permissions", nr(s.String)),
	f("region", nr(opt(s.String))),
	f("afk_channel_id", opt(s.String)),
	f("afk_timeout", lit(60, 300, 900, 1800, 3600)),
	f("widget_enabled", nr(s.Bool)),
	f("widget_channel_id", nr(opt(s.String))),
	f("verification_level", lit(0, 1, 2, 3, 4)),
	f("default_message_notifications", lit(0, 1)),
	f("explicit_content_filter", lit(0, 1, 2)),
	f("roles", seq(Role)),
	f("emojis", seq(Emoji)),
	f("features", seq(s.String)),
	f("mfa_level", lit(0, 1)),
	f("application_id", opt(s.String)),
	f("system_channel_id", opt(s.String)),
	f("system_channel_flags", s.Int),
	f("rules_channel_id", opt(s.String)),
	f("max_presences", nr(opt(s.Int))),
	f("max_members", nr(s.Int)),
	f("vanity_url_code", opt(s.String)),
	f("description", opt(s.String)),
	f("banner", opt(s.String)),
	f("premium_tier", lit(0, 1, 2, 3)),
	f("premium_subscription_count", nr(s.Int)),
	f("preferred_locale", s.String),
	f("public_updates_channel_id", opt(s.String)),
	f("max_video_channel_users", nr(s.Int)),
	f("approximate_member_count", nr(s.Int)),
	f("approximate_presence_count", nr(s.Int)),
	f("welcome_screen", nr(WelcomeScreen)),
	f("nsfw_level", lit(0, 1, 2, 3)),
	f("premium_progress_bar_enabled", s.Bool),
)

// GuildCreate is the GUILD_CREATE payload: a guild plus gateway-only fields.
var GuildCreate = Guild.Extend("GuildCreate",
	f("joined_at", s.String),
	f("large", s.Bool),
	f("unavailable", nr(s.Bool)),
	f("member_count", s.Int),
	f("voice_states", seq(s.Map)),
	f("members", seq(GuildMember)),
	f("channels", seq(TextChannel)),
	f("threads", seq(s.Map)),
	f("presences", seq(s.Map)),
	f("stage_instances", seq(s.Map)),
	f("guild_scheduled_events", seq(s.Map)),
)

// UnavailableGuild is a guild the gateway has not sent yet.
var UnavailableGuild = s.NewStruct("UnavailableGuild",
	f("id", s.String),
	f("unavailable", s.Bool),
)

// Application is the partial application object sent in READY.
var Application = s.NewStruct("Application",
	f("id", s.String),
	f("flags", s.Int),
)
