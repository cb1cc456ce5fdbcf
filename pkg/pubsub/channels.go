package pubsub

import (
	"fmt"
	"strings"
)

// Channel naming for gateway fixtures.
const (
	// ChannelGuildDispatch carries dispatch payloads for one guild.
	ChannelGuildDispatch = "gateway:guild:%s:dispatch"
)

// Event types published on gateway channels.
const (
	EventGuildCreate = "GUILD_CREATE"
)

// GuildDispatchChannel returns the dispatch channel of a guild.
func GuildDispatchChannel(guildID string) string {
	return fmt.Sprintf(ChannelGuildDispatch, guildID)
}

// channelToTopicAndKey converts a Redis-style channel to a Kafka topic and message key.
//
//	"gateway:guild:123:dispatch" → topic: "gateway-dispatch", key: "123"
func channelToTopicAndKey(channel string) (topic, key string, err error) {
	parts := strings.Split(channel, ":")
	if len(parts) != 4 || parts[1] != "guild" || parts[2] == "" {
		return "", "", fmt.Errorf("invalid channel format: %s", channel)
	}
	return parts[0] + "-" + strings.ReplaceAll(parts[3], "_", "-"), parts[2], nil
}
