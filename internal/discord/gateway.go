package discord

import (
	s "github.com/weiawesome/disfake/internal/schema"
)

// Gateway opcodes.
const (
	OpDispatch       = 0
	OpHeartbeat      = 1
	OpReconnect      = 7
	OpInvalidSession = 9
	OpHello          = 10
	OpHeartbeatACK   = 11
)

// Gateway API version announced in READY.
const GatewayVersion = 10

var (
	opParam   = s.NewParam("Op")
	nameParam = s.NewParam("Name")
	dataParam = s.NewParam("D")
)

// Event is a non-dispatch gateway payload: Event[Op, D].
var Event = s.NewGeneric(s.NewStruct("Event",
	f("op", opParam),
	f("d", dataParam),
	f("s", s.None),
	f("t", s.None),
), opParam, dataParam)

// Dispatch is an op 0 gateway payload: Dispatch[Name, D].
var Dispatch = s.NewGeneric(s.NewStruct("Dispatch",
	f("op", lit(OpDispatch)),
	f("d", dataParam),
	f("s", s.Int),
	f("t", nameParam),
), nameParam, dataParam)

// Opcode and event-name literals. They are shared so repeated resolution hits the memo.
var (
	OpHelloLit          = lit(OpHello)
	OpHeartbeatLit      = lit(OpHeartbeat)
	OpHeartbeatACKLit   = lit(OpHeartbeatACK)
	OpInvalidSessionLit = lit(OpInvalidSession)
	OpReconnectLit      = lit(OpReconnect)

	ReadyName       = lit("READY")
	ResumedName     = lit("RESUMED")
	GuildCreateName = lit("GUILD_CREATE")
)

// HelloData is the payload of op 10.
var HelloData = s.NewStruct("HelloData",
	f("heartbeat_interval", s.Int),
)

// ReadyData is the READY dispatch payload.
var ReadyData = s.NewStruct("ReadyData",
	f("v", lit(GatewayVersion)),
	f("user", User),
	f("guilds", seq(UnavailableGuild)),
	f("session_id", s.String),
	f("resume_gateway_url", s.String),
	f("shard", nr(seq(s.Int))),
	f("application", Application),
)

// HeartbeatData is the last sequence number a client has seen, or null.
var HeartbeatData = opt(s.Int)
