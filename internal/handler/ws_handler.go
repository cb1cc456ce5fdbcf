package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/weiawesome/disfake/internal/fixture"
	"github.com/weiawesome/disfake/internal/generator"
	"github.com/weiawesome/disfake/internal/service"
	"github.com/weiawesome/disfake/pkg/log"
	"github.com/weiawesome/disfake/pkg/response"
)

// Close codes the fake gateway sends before dropping a connection.
const (
	CloseUnknownOpcode = 4001
	CloseDecodeError   = 4002
)

// Client opcodes the fake gateway answers.
const (
	opHeartbeat = 1
	opIdentify  = 2
	opResume    = 6
)

const closeWriteWait = time.Second

type gatewayFrame struct {
	Op int             `json:"op"`
	D  json.RawMessage `json:"d"`
}

// WSHandler serves a scripted gateway session over WebSocket.
type WSHandler struct {
	fixtureService service.FixtureService
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WebSocket handler.
func NewWSHandler(fixtureService service.FixtureService) *WSHandler {
	return &WSHandler{
		fixtureService: fixtureService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// RegisterRoutes registers the gateway endpoint.
func (h *WSHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/gateway", h.HandleGateway)
}

// HandleGateway upgrades the connection and sends HELLO. IDENTIFY is answered with
// READY followed by one GUILD_CREATE per id in ?guilds; ?members=false leaves the
// member lists out.
func (h *WSHandler) HandleGateway(c *gin.Context) {
	includeMembers, err := strconv.ParseBool(c.DefaultQuery("members", "true"))
	if err != nil {
		response.BadRequest(c, "members must be a boolean")
		return
	}
	policy := c.Query("policy")
	if policy != "" {
		if _, err := generator.ParsePolicy(policy); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
	}

	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	s := &gatewaySession{
		conn:           conn,
		svc:            h.fixtureService,
		policy:         policy,
		guilds:         splitIDs(c.Query("guilds")),
		includeMembers: includeMembers,
	}
	s.run(ctx)
}

// gatewaySession owns conn; every write happens on the goroutine running run.
type gatewaySession struct {
	conn           *websocket.Conn
	svc            service.FixtureService
	policy         string
	guilds         []string
	includeMembers bool
}

func (s *gatewaySession) run(ctx context.Context) {
	l := log.Ctx(ctx)
	if !s.sendEvent(ctx, fixture.EventHello) {
		return
	}

	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				l.Debug().Err(err).Msg("gateway client went away")
			}
			return
		}

		var frame gatewayFrame
		if err := json.Unmarshal(msg, &frame); err != nil {
			l.Warn().Err(err).Msg("invalid gateway frame")
			s.close(CloseDecodeError, "decode error")
			return
		}

		switch frame.Op {
		case opHeartbeat:
			if !s.sendEvent(ctx, fixture.EventHeartbeatACK) {
				return
			}
		case opIdentify:
			if !s.sendEvent(ctx, fixture.EventReady) {
				return
			}
			for _, id := range s.guilds {
				ev, err := s.svc.GuildCreate(ctx, id, s.includeMembers)
				if err != nil {
					l.Warn().Err(err).Str(log.FieldGuildID, id).Msg("skipping guild in session")
					continue
				}
				if !s.write(ctx, ev) {
					return
				}
			}
		case opResume:
			if !s.sendEvent(ctx, fixture.EventResumed) {
				return
			}
		default:
			l.Warn().Int("op", frame.Op).Msg("unknown gateway opcode")
			s.close(CloseUnknownOpcode, "unknown opcode")
			return
		}
	}
}

func (s *gatewaySession) sendEvent(ctx context.Context, name string) bool {
	ev, err := s.svc.GatewayEvent(ctx, name, s.policy)
	if err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldEvent, name).Msg("failed to build gateway event")
		s.close(websocket.CloseInternalServerErr, "event generation failed")
		return false
	}
	return s.write(ctx, ev)
}

func (s *gatewaySession) write(ctx context.Context, ev *fixture.Record) bool {
	if err := s.conn.WriteJSON(ev); err != nil {
		l := log.Ctx(ctx)
		l.Debug().Err(err).Msg("gateway write failed")
		return false
	}
	return true
}

func (s *gatewaySession) close(code int, text string) {
	msg := websocket.FormatCloseMessage(code, text)
	_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWriteWait))
}

func splitIDs(raw string) []string {
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
