package fixture

import (
	"fmt"
	"slices"

	"github.com/weiawesome/disfake/internal/discord"
	"github.com/weiawesome/disfake/internal/generator"
	"github.com/weiawesome/disfake/internal/idgen"
	"github.com/weiawesome/disfake/internal/schema"
)

// Gateway event names accepted by Event.
const (
	EventHello          = "hello"
	EventHeartbeat      = "heartbeat"
	EventHeartbeatACK   = "heartbeat_ack"
	EventReady          = "ready"
	EventInvalidSession = "invalid_session"
	EventReconnect      = "reconnect"
	EventResumed        = "resumed"
)

// EventNames lists the names Event understands, sorted.
func EventNames() []string {
	names := []string{
		EventHello, EventHeartbeat, EventHeartbeatACK, EventReady,
		EventInvalidSession, EventReconnect, EventResumed,
	}
	slices.Sort(names)
	return names
}

// Event builds a gateway payload by name. READY is built for a freshly generated user.
func (f *Factory) Event(name string, p generator.Policy) (*Record, error) {
	switch name {
	case EventHello:
		return f.Hello(p)
	case EventHeartbeat:
		return f.Heartbeat(p)
	case EventHeartbeatACK:
		return f.HeartbeatACK(p)
	case EventReady:
		user, err := f.User(UserOptions{Policy: p})
		if err != nil {
			return nil, err
		}
		return f.Ready(user, p)
	case EventInvalidSession:
		return f.InvalidSession(p)
	case EventReconnect:
		return f.Reconnect(p)
	case EventResumed:
		return f.Resumed(p)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, name)
	}
}

// Hello builds op 10 with the configured heartbeat interval.
func (f *Factory) Hello(p generator.Policy) (*Record, error) {
	ev, err := f.event(discord.OpHelloLit, discord.HelloData, p)
	if err != nil {
		return nil, err
	}
	ev.Record("d").Set("heartbeat_interval", int64(f.cfg.HeartbeatInterval))
	return ev, nil
}

// Heartbeat builds op 1 carrying the last dispatched sequence number.
func (f *Factory) Heartbeat(p generator.Policy) (*Record, error) {
	ev, err := f.event(discord.OpHeartbeatLit, discord.HeartbeatData, p)
	if err != nil {
		return nil, err
	}
	if seq := f.seq.Load(); seq > 0 {
		ev.Set("d", seq)
	}
	return ev, nil
}

// HeartbeatACK builds op 11.
func (f *Factory) HeartbeatACK(p generator.Policy) (*Record, error) {
	return f.event(discord.OpHeartbeatACKLit, schema.None, p)
}

// InvalidSession builds op 9 for a session that cannot be resumed.
func (f *Factory) InvalidSession(p generator.Policy) (*Record, error) {
	ev, err := f.event(discord.OpInvalidSessionLit, schema.Bool, p)
	if err != nil {
		return nil, err
	}
	ev.Set("d", false)
	return ev, nil
}

// Reconnect builds op 7.
func (f *Factory) Reconnect(p generator.Policy) (*Record, error) {
	return f.event(discord.OpReconnectLit, schema.None, p)
}

// Ready builds the READY dispatch for user. The application shares the user's id.
func (f *Factory) Ready(user *Record, p generator.Policy) (*Record, error) {
	ev, err := f.dispatch(discord.ReadyName, discord.ReadyData, p)
	if err != nil {
		return nil, err
	}
	session, err := f.tokens.Generate()
	if err != nil {
		return nil, fmt.Errorf("session id: %w", err)
	}

	d := ev.Record("d")
	d.Set("user", user)
	d.Set("session_id", session)
	d.Set("resume_gateway_url", f.cfg.ResumeGatewayURL)
	d.Record("application").Set("id", user.Str("id"))
	return ev, nil
}

// Resumed builds the RESUMED dispatch.
func (f *Factory) Resumed(p generator.Policy) (*Record, error) {
	return f.dispatch(discord.ResumedName, schema.None, p)
}

// GuildCreateEvent wraps the GUILD_CREATE payload of a generated guild in a dispatch.
func (f *Factory) GuildCreateEvent(id idgen.ID, includeMembers bool) (*Record, error) {
	data, err := f.GuildCreate(id, includeMembers)
	if err != nil {
		return nil, err
	}
	ev, err := f.dispatch(discord.GuildCreateName, schema.Map, generator.Sparse)
	if err != nil {
		return nil, err
	}
	ev.Set("d", data)
	return ev, nil
}

func (f *Factory) event(op *schema.Literal, data schema.Descriptor, p generator.Policy) (*Record, error) {
	st, err := f.resolver.Resolve(discord.Event, op, data)
	if err != nil {
		return nil, err
	}
	return f.engine.GenerateRecord(st, p)
}

// dispatch stamps the next sequence number on an op 0 payload.
func (f *Factory) dispatch(name *schema.Literal, data schema.Descriptor, p generator.Policy) (*Record, error) {
	st, err := f.resolver.Resolve(discord.Dispatch, name, data)
	if err != nil {
		return nil, err
	}
	ev, err := f.engine.GenerateRecord(st, p)
	if err != nil {
		return nil, err
	}
	ev.Set("s", f.seq.Add(1))
	return ev, nil
}
