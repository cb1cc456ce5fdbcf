package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/weiawesome/disfake/internal/domain"
	"github.com/weiawesome/disfake/internal/fixture"
	"github.com/weiawesome/disfake/internal/generator"
	"github.com/weiawesome/disfake/internal/idgen"
	"github.com/weiawesome/disfake/internal/schema"
	"github.com/weiawesome/disfake/internal/service"
	"github.com/weiawesome/disfake/pkg/log"
	"github.com/weiawesome/disfake/pkg/response"
	"github.com/weiawesome/disfake/pkg/storage"
)

// Handler handles HTTP requests for the fixture service.
type Handler struct {
	fixtureService service.FixtureService
}

// NewHandler creates a new HTTP handler.
func NewHandler(fixtureService service.FixtureService) *Handler {
	return &Handler{fixtureService: fixtureService}
}

// RegisterRoutes registers all routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)

	api := r.Group("/api/v1")
	{
		api.POST("/users", h.CreateUser)

		guilds := api.Group("/guilds")
		{
			guilds.POST("", h.CreateGuild)
			guilds.GET("/:id", h.GetGuild)
			guilds.GET("/:id/members", h.ListMembers)
			guilds.GET("/:id/channels", h.ListChannels)
			guilds.POST("/:id/export", h.ExportGuild)
			guilds.GET("/:id/export", h.ListExport)
			guilds.GET("/:id/export/:file", h.ReadExport)
			guilds.POST("/:id/dispatch", h.DispatchGuildCreate)
		}

		api.GET("/gateway/:event", h.GatewayEvent)

		api.GET("/ids/:kind", h.GenerateIDs)
		api.GET("/ids/:kind/:id", h.ParseID)

		api.POST("/reset", h.Reset)
	}
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// CreateUser handles user generation.
func (h *Handler) CreateUser(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	var req domain.CreateUserRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		l.Warn().Err(err).Msg("invalid create user request")
		response.BadRequest(c, err.Error())
		return
	}
	if req.Policy == "" {
		req.Policy = c.Query("policy")
	}

	user, err := h.fixtureService.CreateUser(ctx, &req)
	if err != nil {
		h.fail(c, err, "failed to create user")
		return
	}

	c.Set(log.FieldUserID, user.Str("id"))
	response.Created(c, user)
}

// CreateGuild handles guild generation.
func (h *Handler) CreateGuild(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	var req domain.CreateGuildRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		l.Warn().Err(err).Msg("invalid create guild request")
		response.BadRequest(c, err.Error())
		return
	}
	if req.Policy == "" {
		req.Policy = c.Query("policy")
	}

	guild, err := h.fixtureService.CreateGuild(ctx, &req)
	if err != nil {
		h.fail(c, err, "failed to create guild")
		return
	}

	c.Set(log.FieldGuildID, guild.Str("id"))
	response.Created(c, guild)
}

// GetGuild returns a generated guild.
func (h *Handler) GetGuild(c *gin.Context) {
	c.Set(log.FieldGuildID, c.Param("id"))
	guild, err := h.fixtureService.GetGuild(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "failed to get guild")
		return
	}
	response.Success(c, guild)
}

// ListMembers returns a guild's members in join order.
func (h *Handler) ListMembers(c *gin.Context) {
	c.Set(log.FieldGuildID, c.Param("id"))
	members, err := h.fixtureService.ListMembers(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "failed to list members")
		return
	}
	response.Success(c, members)
}

// ListChannels returns a guild's channels in creation order.
func (h *Handler) ListChannels(c *gin.Context) {
	c.Set(log.FieldGuildID, c.Param("id"))
	channels, err := h.fixtureService.ListChannels(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "failed to list channels")
		return
	}
	response.Success(c, channels)
}

// ExportGuild writes a guild snapshot to storage.
func (h *Handler) ExportGuild(c *gin.Context) {
	c.Set(log.FieldGuildID, c.Param("id"))
	result, err := h.fixtureService.ExportGuild(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "failed to export guild")
		return
	}
	response.Created(c, result)
}

// ListExport lists the objects of a guild's last export.
func (h *Handler) ListExport(c *gin.Context) {
	c.Set(log.FieldGuildID, c.Param("id"))
	result, err := h.fixtureService.ListExport(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "failed to list export")
		return
	}
	response.Success(c, result)
}

// ReadExport streams one exported object as stored.
func (h *Handler) ReadExport(c *gin.Context) {
	c.Set(log.FieldGuildID, c.Param("id"))
	rc, err := h.fixtureService.ReadExport(c.Request.Context(), c.Param("id"), c.Param("file"))
	if err != nil {
		h.fail(c, err, "failed to read export")
		return
	}
	defer rc.Close()
	c.DataFromReader(http.StatusOK, -1, "application/json", rc, nil)
}

// DispatchGuildCreate publishes a guild's GUILD_CREATE dispatch.
// ?members=false leaves the member list out.
func (h *Handler) DispatchGuildCreate(c *gin.Context) {
	c.Set(log.FieldGuildID, c.Param("id"))
	includeMembers, err := strconv.ParseBool(c.DefaultQuery("members", "true"))
	if err != nil {
		response.BadRequest(c, "members must be a boolean")
		return
	}

	result, err := h.fixtureService.DispatchGuildCreate(c.Request.Context(), c.Param("id"), includeMembers)
	if err != nil {
		h.fail(c, err, "failed to dispatch guild")
		return
	}
	response.Success(c, result)
}

// GatewayEvent returns a gateway payload by name. The payload is the body itself, not
// wrapped in the response envelope, so it can be fed straight to a client under test.
func (h *Handler) GatewayEvent(c *gin.Context) {
	ev, err := h.fixtureService.GatewayEvent(c.Request.Context(), c.Param("event"), c.Query("policy"))
	if err != nil {
		h.fail(c, err, "failed to build gateway event")
		return
	}
	c.JSON(http.StatusOK, ev)
}

// GenerateIDs returns ?count identifiers of the given kind.
func (h *Handler) GenerateIDs(c *gin.Context) {
	count, err := strconv.Atoi(c.DefaultQuery("count", "1"))
	if err != nil {
		response.BadRequest(c, "count must be an integer")
		return
	}
	result, err := h.fixtureService.GenerateIDs(c.Request.Context(), c.Param("kind"), count)
	if err != nil {
		h.fail(c, err, "failed to generate ids")
		return
	}
	response.Success(c, result)
}

// ParseID validates and decodes an identifier.
func (h *Handler) ParseID(c *gin.Context) {
	result, err := h.fixtureService.ParseID(c.Request.Context(), c.Param("kind"), c.Param("id"))
	if err != nil {
		h.fail(c, err, "failed to parse id")
		return
	}
	response.Success(c, result)
}

// Reset forgets every generated fixture.
func (h *Handler) Reset(c *gin.Context) {
	h.fixtureService.Reset(c.Request.Context())
	c.Status(http.StatusNoContent)
}

// fail maps service errors onto response codes.
func (h *Handler) fail(c *gin.Context, err error, msg string) {
	l := log.Ctx(c.Request.Context())
	_ = c.Error(err)

	switch {
	case errors.Is(err, service.ErrInvalidID),
		errors.Is(err, service.ErrInvalidPolicy),
		errors.Is(err, service.ErrInvalidCount),
		errors.Is(err, fixture.ErrInvalidOverride):
		response.BadRequest(c, err.Error())
	case errors.Is(err, fixture.ErrNotFound),
		errors.Is(err, fixture.ErrUnknownEvent),
		errors.Is(err, idgen.ErrUnknownKind),
		errors.Is(err, storage.ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrStorageDisabled),
		errors.Is(err, service.ErrPublisherDisabled):
		response.Unavailable(c, err.Error())
	case errors.Is(err, generator.ErrIncompleteRecord),
		errors.Is(err, generator.ErrMalformedDescriptor),
		errors.Is(err, schema.ErrResolution):
		l.Error().Err(err).Msg(msg)
		response.Unprocessable(c, err.Error())
	default:
		l.Error().Err(err).Msg(msg)
		response.InternalError(c, msg)
	}
}

// bindOptionalJSON binds a JSON body when one is present.
func bindOptionalJSON(c *gin.Context, v any) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
