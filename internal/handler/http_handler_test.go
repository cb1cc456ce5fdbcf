package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/disfake/internal/fixture"
	"github.com/weiawesome/disfake/internal/generator"
	"github.com/weiawesome/disfake/internal/idgen"
	"github.com/weiawesome/disfake/internal/service"
	"github.com/weiawesome/disfake/pkg/pubsub"
	"github.com/weiawesome/disfake/pkg/storage"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newRouter(t *testing.T, withBackends bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sf, err := idgen.NewSnowflake(0, 0, idgen.WithClock(func() time.Time { return time.UnixMilli(1667252938342) }))
	require.NoError(t, err)
	factory, err := fixture.NewFactory(fixture.Options{
		Engine:    generator.NewSeeded(1),
		Snowflake: sf,
		Logger:    zerolog.Nop(),
	})
	require.NoError(t, err)
	registry, err := idgen.NewRegistry(sf, idgen.TokenConfig{})
	require.NoError(t, err)

	var st storage.Storage
	var pub pubsub.Publisher
	if withBackends {
		local, err := storage.NewLocalStorage(storage.LocalConfig{BasePath: t.TempDir()})
		require.NoError(t, err)
		st, pub = local, pubsub.NewMemoryBus()
	}

	svc := service.NewFixtureService(factory, registry, st, pub, service.Config{MaxMembers: 20})
	r := gin.New()
	NewHandler(svc).RegisterRoutes(r)
	NewWSHandler(svc).RegisterRoutes(r)
	return r
}

func do(t *testing.T, r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

func createGuild(t *testing.T, r *gin.Engine, body string) map[string]any {
	t.Helper()
	w, env := do(t, r, http.MethodPost, "/api/v1/guilds", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var guild map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &guild))
	return guild
}

func TestHealth(t *testing.T) {
	r := newRouter(t, false)
	w, _ := do(t, r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGuildRoutes(t *testing.T) {
	r := newRouter(t, false)

	guild := createGuild(t, r, `{"members":2,"emojis":1}`)
	id := guild["id"].(string)
	assert.Equal(t, "Guild "+id, guild["name"])

	w, env := do(t, r, http.MethodGet, "/api/v1/guilds/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)

	w, env = do(t, r, http.MethodGet, "/api/v1/guilds/"+id+"/members", "")
	require.Equal(t, http.StatusOK, w.Code)
	var members []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &members))
	assert.Len(t, members, 3)

	w, _ = do(t, r, http.MethodGet, "/api/v1/guilds/"+id+"/channels", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateGuildWithoutBody(t *testing.T) {
	r := newRouter(t, false)
	guild := createGuild(t, r, "")
	assert.NotEmpty(t, guild["owner_id"])
}

func TestCreateUserDensePolicy(t *testing.T) {
	r := newRouter(t, false)

	w, env := do(t, r, http.MethodPost, "/api/v1/users?policy=dense", "")
	require.Equal(t, http.StatusCreated, w.Code)
	var user map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &user))
	assert.Equal(t, "User "+user["id"].(string), user["username"])
}

func TestErrorMapping(t *testing.T) {
	r := newRouter(t, false)
	guild := createGuild(t, r, "")
	id := guild["id"].(string)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"malformed id", http.MethodGet, "/api/v1/guilds/abc", "", http.StatusBadRequest, "BAD_REQUEST"},
		{"overflowing id", http.MethodGet, "/api/v1/guilds/1036758709298003968999", "", http.StatusBadRequest, "BAD_REQUEST"},
		{"missing guild", http.MethodGet, "/api/v1/guilds/42", "", http.StatusNotFound, "NOT_FOUND"},
		{"bad policy", http.MethodPost, "/api/v1/guilds?policy=wild", "", http.StatusBadRequest, "BAD_REQUEST"},
		{"too many members", http.MethodPost, "/api/v1/guilds", `{"members":21}`, http.StatusBadRequest, "BAD_REQUEST"},
		{"negative members", http.MethodPost, "/api/v1/guilds", `{"members":-1}`, http.StatusBadRequest, "BAD_REQUEST"},
		{"bad json", http.MethodPost, "/api/v1/guilds", `{"members":`, http.StatusBadRequest, "BAD_REQUEST"},
		{"unknown event", http.MethodGet, "/api/v1/gateway/typing_start", "", http.StatusNotFound, "NOT_FOUND"},
		{"unknown id kind", http.MethodGet, "/api/v1/ids/objectid", "", http.StatusNotFound, "NOT_FOUND"},
		{"unknown id kind on parse", http.MethodGet, "/api/v1/ids/objectid/123", "", http.StatusNotFound, "NOT_FOUND"},
		{"guild id override", http.MethodPost, "/api/v1/guilds", `{"overrides":{"id":"1"}}`, http.StatusBadRequest, "BAD_REQUEST"},
		{"bad count", http.MethodGet, "/api/v1/ids/uuid?count=x", "", http.StatusBadRequest, "BAD_REQUEST"},
		{"export disabled", http.MethodPost, "/api/v1/guilds/" + id + "/export", "", http.StatusServiceUnavailable, "UNAVAILABLE"},
		{"dispatch disabled", http.MethodPost, "/api/v1/guilds/" + id + "/dispatch", "", http.StatusServiceUnavailable, "UNAVAILABLE"},
		{"export listing disabled", http.MethodGet, "/api/v1/guilds/" + id + "/export", "", http.StatusServiceUnavailable, "UNAVAILABLE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := do(t, r, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			require.NotNil(t, env.Error)
			assert.False(t, env.Success)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}
}

func TestGatewayRoute(t *testing.T) {
	r := newRouter(t, false)

	w, _ := do(t, r, http.MethodGet, "/api/v1/gateway/hello", "")
	require.Equal(t, http.StatusOK, w.Code)

	var hello struct {
		Op int `json:"op"`
		D  struct {
			HeartbeatInterval int `json:"heartbeat_interval"`
		} `json:"d"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &hello))
	assert.Equal(t, 10, hello.Op)
	assert.Equal(t, 1000, hello.D.HeartbeatInterval)
}

func TestExportAndDispatchRoutes(t *testing.T) {
	r := newRouter(t, true)
	guild := createGuild(t, r, `{"members":1}`)
	id := guild["id"].(string)

	w, env := do(t, r, http.MethodPost, "/api/v1/guilds/"+id+"/export", "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var export struct {
		Objects []struct {
			Key string `json:"key"`
		} `json:"objects"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &export))
	assert.Len(t, export.Objects, 3)

	w, env = do(t, r, http.MethodPost, "/api/v1/guilds/"+id+"/dispatch?members=false", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var dispatch struct {
		Channel string `json:"channel"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &dispatch))
	assert.Equal(t, "gateway:guild:"+id+":dispatch", dispatch.Channel)

	w, _ = do(t, r, http.MethodPost, "/api/v1/guilds/"+id+"/dispatch?members=maybe", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReadExportRoutes(t *testing.T) {
	r := newRouter(t, true)
	guild := createGuild(t, r, `{"members":2}`)
	id := guild["id"].(string)

	w, env := do(t, r, http.MethodGet, "/api/v1/guilds/"+id+"/export", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	w, _ = do(t, r, http.MethodPost, "/api/v1/guilds/"+id+"/export", "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, env = do(t, r, http.MethodGet, "/api/v1/guilds/"+id+"/export", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var listing struct {
		GuildID string `json:"guild_id"`
		Objects []struct {
			Key string `json:"key"`
		} `json:"objects"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &listing))
	assert.Equal(t, id, listing.GuildID)
	assert.Len(t, listing.Objects, 3)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/guilds/"+id+"/export/members.json", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var members []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &members))
	assert.Len(t, members, 3)

	w, _ = do(t, r, http.MethodGet, "/api/v1/guilds/"+id+"/export/secrets.json", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestIDRoutes(t *testing.T) {
	r := newRouter(t, false)

	w, env := do(t, r, http.MethodGet, "/api/v1/ids/snowflake?count=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	var ids struct {
		Kind string   `json:"kind"`
		IDs  []string `json:"ids"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &ids))
	assert.Equal(t, "snowflake", ids.Kind)
	require.Len(t, ids.IDs, 2)

	w, env = do(t, r, http.MethodGet, "/api/v1/ids/snowflake/1036758709298003968", "")
	require.Equal(t, http.StatusOK, w.Code)
	var parsed struct {
		Valid   bool `json:"valid"`
		Details struct {
			TimestampMs int64 `json:"timestamp_ms"`
		} `json:"details"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &parsed))
	assert.True(t, parsed.Valid)
	assert.Equal(t, int64(1667252938342), parsed.Details.TimestampMs)
}

func TestResetRoute(t *testing.T) {
	r := newRouter(t, false)
	guild := createGuild(t, r, "")

	w, _ := do(t, r, http.MethodPost, "/api/v1/reset", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w, _ = do(t, r, http.MethodGet, "/api/v1/guilds/"+guild["id"].(string), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
