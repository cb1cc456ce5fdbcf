package service

import (
	"context"
	"io"

	"github.com/weiawesome/disfake/internal/domain"
	"github.com/weiawesome/disfake/internal/fixture"
)

// FixtureService defines the fixture operations exposed over HTTP.
type FixtureService interface {
	CreateUser(ctx context.Context, req *domain.CreateUserRequest) (*fixture.Record, error)
	CreateGuild(ctx context.Context, req *domain.CreateGuildRequest) (*fixture.Record, error)
	GetGuild(ctx context.Context, guildID string) (*fixture.Record, error)
	ListMembers(ctx context.Context, guildID string) ([]*fixture.Record, error)
	ListChannels(ctx context.Context, guildID string) ([]*fixture.Record, error)
	// GatewayEvent builds a named gateway payload; policy may be empty for the default.
	GatewayEvent(ctx context.Context, name, policy string) (*fixture.Record, error)
	// ExportGuild writes the guild, its members and its channels to storage.
	ExportGuild(ctx context.Context, guildID string) (*domain.ExportResponse, error)
	// ListExport lists the objects of a previous export.
	ListExport(ctx context.Context, guildID string) (*domain.ExportResponse, error)
	// ReadExport opens one exported object; the caller closes it.
	ReadExport(ctx context.Context, guildID, name string) (io.ReadCloser, error)
	// GuildCreate builds the GUILD_CREATE dispatch for a generated guild.
	GuildCreate(ctx context.Context, guildID string, includeMembers bool) (*fixture.Record, error)
	// DispatchGuildCreate publishes the guild's GUILD_CREATE dispatch on its gateway channel.
	DispatchGuildCreate(ctx context.Context, guildID string, includeMembers bool) (*domain.DispatchResponse, error)
	GenerateIDs(ctx context.Context, kind string, count int) (*domain.IDsResponse, error)
	ParseID(ctx context.Context, kind, id string) (*domain.IDParseResponse, error)
	// Reset forgets every generated fixture.
	Reset(ctx context.Context)
}
