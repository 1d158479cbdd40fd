package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/anonto42/reaction-ledger/internal/middleware"
	"github.com/anonto42/reaction-ledger/internal/models"
	"github.com/anonto42/reaction-ledger/internal/repositories/memory"
	"github.com/anonto42/reaction-ledger/internal/services"
	"github.com/anonto42/reaction-ledger/validators"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type testEnv struct {
	e      *echo.Echo
	repo   *memory.ReactionRepository
	stores map[models.EntityKind]*memory.EntityStore
}

type envelope struct {
	Success    bool                 `json:"success"`
	Data       json.RawMessage      `json:"data"`
	Pagination *models.Pagination   `json:"pagination"`
	Warnings   []models.Degradation `json:"warnings"`
	Message    string               `json:"message"`
}

// fakeAuth trusts the X-Test-User and X-Test-Role headers
func fakeAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if raw := c.Request().Header.Get("X-Test-User"); raw != "" {
			id, _ := strconv.Atoi(raw)
			c.Set(middleware.UserContextKey, &models.JwtCustomClaims{UserID: uint(id), Role: c.Request().Header.Get("X-Test-Role")})
		}
		return next(c)
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{repo: memory.NewReactionRepository(), stores: map[models.EntityKind]*memory.EntityStore{}}

	var stores []services.EntityStore
	for _, k := range models.AllKinds {
		s := memory.NewEntityStore(k, primitive.IsValidObjectID)
		env.stores[k] = s
		stores = append(stores, s)
	}
	registry, err := services.NewRegistry(stores...)
	require.NoError(t, err)

	logger := zap.NewNop()
	users := memory.NewUserDirectory(models.UserCompact{ID: 1, Name: "Xavier"})
	counts := services.NewCountAggregator(env.repo, registry, logger)
	ledger := services.NewReactionLedger(env.repo, registry, counts, logger)
	resolver := services.NewEntityResolver(registry, users, time.Second, logger)
	planner := services.NewSearchPlanner(registry, users, time.Second, logger)
	moderation := services.NewModerationService(env.repo, registry, resolver, planner, services.ModerationConfig{}, logger)

	e := echo.New()
	e.Validator = validators.NewValidator()
	api := e.Group("/api/v1", fakeAuth)
	NewAdminReactionHandler(moderation, registry, logger).
		RegisterAdminReactionRoutes(api.Group("/admin", middleware.RequireRole("admin")))
	NewReactionHandler(ledger, counts, registry, logger).RegisterReactionRoutes(api)
	e.GET("/health", HealthCheck)
	env.e = e
	return env
}

func (env *testEnv) do(t *testing.T, method, path, body string, user uint, role string) (int, envelope) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if user != 0 {
		req.Header.Set("X-Test-User", strconv.Itoa(int(user)))
		req.Header.Set("X-Test-Role", role)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)

	var out envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

func (env *testEnv) video(t *testing.T, title string) string {
	t.Helper()
	id := primitive.NewObjectID().Hex()
	env.stores[models.KindVideo].Put(id, echo.Map{"title": title}, title)
	return id
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t)
	code, _ := env.do(t, http.MethodGet, "/health", "", 0, "")
	assert.Equal(t, http.StatusOK, code)
}

func TestToggleEndpoints(t *testing.T) {
	env := newTestEnv(t)
	v1 := env.video(t, "Blue in Green")

	code, out := env.do(t, http.MethodPost, "/api/v1/videos/"+v1+"/like", "", 1, "user")
	require.Equal(t, http.StatusOK, code)
	assert.True(t, out.Success)
	var res models.ToggleResult
	require.NoError(t, json.Unmarshal(out.Data, &res))
	assert.Equal(t, models.StateLiked, res.State)
	assert.EqualValues(t, 1, res.Likes)
	assert.Equal(t, memory.Counters{Likes: 1}, env.stores[models.KindVideo].Counters(v1))

	code, out = env.do(t, http.MethodPost, "/api/v1/Video/"+v1+"/dislike", "", 1, "user")
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(out.Data, &res))
	assert.Equal(t, models.StateDisliked, res.State)
	assert.Equal(t, memory.Counters{Dislikes: 1}, env.stores[models.KindVideo].Counters(v1))

	code, out = env.do(t, http.MethodGet, "/api/v1/videos/"+v1+"/reactions", "", 1, "user")
	require.Equal(t, http.StatusOK, code)
	var summary struct {
		Likes    int64 `json:"likes"`
		Dislikes int64 `json:"dislikes"`
		Liked    bool  `json:"liked"`
		Disliked bool  `json:"disliked"`
	}
	require.NoError(t, json.Unmarshal(out.Data, &summary))
	assert.EqualValues(t, 1, summary.Dislikes)
	assert.True(t, summary.Disliked)
	assert.False(t, summary.Liked)
}

func TestToggleErrors(t *testing.T) {
	env := newTestEnv(t)
	v1 := env.video(t, "Solar")
	missing := primitive.NewObjectID().Hex()

	tests := []struct {
		name string
		path string
		user uint
		want int
	}{
		{"unauthenticated", "/api/v1/videos/" + v1 + "/like", 0, http.StatusUnauthorized},
		{"unknown kind", "/api/v1/stories/" + v1 + "/like", 1, http.StatusNotFound},
		{"malformed id", "/api/v1/videos/xyz/like", 1, http.StatusBadRequest},
		{"missing entity", "/api/v1/videos/" + missing + "/like", 1, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := env.do(t, http.MethodPost, tt.path, "", tt.user, "user")
			assert.Equal(t, tt.want, code)
		})
	}

	t.Run("entity store down", func(t *testing.T) {
		env.stores[models.KindVideo].Fail(memory.OpExists, errors.New("mongo down"))
		defer env.stores[models.KindVideo].Fail(memory.OpExists, nil)
		code, _ := env.do(t, http.MethodPost, "/api/v1/videos/"+v1+"/like", "", 1, "user")
		assert.Equal(t, http.StatusServiceUnavailable, code)
	})

	_, total, err := env.repo.ListReactions(t.Context(), models.ReactionQuery{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestAdminRequiresRole(t *testing.T) {
	env := newTestEnv(t)
	code, _ := env.do(t, http.MethodGet, "/api/v1/admin/reactions", "", 1, "user")
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = env.do(t, http.MethodGet, "/api/v1/admin/reactions", "", 0, "")
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestListReactionsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	jazz, rock := env.video(t, "Jazz at Noon"), env.video(t, "Rock Block")
	for _, id := range []string{jazz, rock} {
		code, _ := env.do(t, http.MethodPost, "/api/v1/videos/"+id+"/like", "", 1, "user")
		require.Equal(t, http.StatusOK, code)
	}

	code, out := env.do(t, http.MethodGet, "/api/v1/admin/reactions?search=jazz&type=videos&limit=5", "", 9, "admin")
	require.Equal(t, http.StatusOK, code, out.Message)
	var rows []struct {
		EntityID string              `json:"entity_id"`
		User     *models.UserCompact `json:"user"`
		Target   map[string]string   `json:"target"`
	}
	require.NoError(t, json.Unmarshal(out.Data, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, jazz, rows[0].EntityID)
	assert.Equal(t, "Jazz at Noon", rows[0].Target["title"])
	require.NotNil(t, rows[0].User)
	assert.Equal(t, "Xavier", rows[0].User.Name)
	require.NotNil(t, out.Pagination)
	assert.Equal(t, 5, out.Pagination.Limit)
	assert.EqualValues(t, 1, out.Pagination.Total)

	for _, q := range []string{"type=stories", "sortBy=most_liked", "dateFrom=soon", "limit=-1", "action=love"} {
		code, _ := env.do(t, http.MethodGet, "/api/v1/admin/reactions?"+q, "", 9, "admin")
		assert.Equal(t, http.StatusBadRequest, code, q)
	}
}

func TestReactionDetailAndDelete(t *testing.T) {
	env := newTestEnv(t)
	v1 := env.video(t, "So What")
	code, _ := env.do(t, http.MethodPost, "/api/v1/videos/"+v1+"/like", "", 1, "user")
	require.Equal(t, http.StatusOK, code)

	code, out := env.do(t, http.MethodGet, "/api/v1/admin/reactions/1", "", 9, "admin")
	require.Equal(t, http.StatusOK, code)
	var row models.Reaction
	require.NoError(t, json.Unmarshal(out.Data, &row))
	assert.Equal(t, v1, row.EntityID)

	code, _ = env.do(t, http.MethodGet, "/api/v1/admin/reactions/abc", "", 9, "admin")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = env.do(t, http.MethodDelete, "/api/v1/admin/reactions/1", "", 9, "admin")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, memory.Counters{}, env.stores[models.KindVideo].Counters(v1))

	code, _ = env.do(t, http.MethodDelete, "/api/v1/admin/reactions/1", "", 9, "admin")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestBulkDeleteEndpoint(t *testing.T) {
	env := newTestEnv(t)
	v1, v2 := env.video(t, "A"), env.video(t, "B")
	for _, id := range []string{v1, v2} {
		code, _ := env.do(t, http.MethodPost, "/api/v1/videos/"+id+"/like", "", 1, "user")
		require.Equal(t, http.StatusOK, code)
	}
	code, _ := env.do(t, http.MethodPost, "/api/v1/videos/"+v1+"/like", "", 2, "user")
	require.Equal(t, http.StatusOK, code)

	code, out := env.do(t, http.MethodDelete, "/api/v1/admin/reactions/bulk", `{"user_id":1,"type":"videos"}`, 9, "admin")
	require.Equal(t, http.StatusOK, code, out.Message)
	var res models.BulkDeleteResult
	require.NoError(t, json.Unmarshal(out.Data, &res))
	assert.EqualValues(t, 2, res.DeletedCount)
	assert.Equal(t, memory.Counters{Likes: 1}, env.stores[models.KindVideo].Counters(v1))
	assert.Equal(t, memory.Counters{}, env.stores[models.KindVideo].Counters(v2))

	code, _ = env.do(t, http.MethodDelete, "/api/v1/admin/reactions/bulk", `{}`, 9, "admin")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = env.do(t, http.MethodDelete, "/api/v1/admin/reactions/bulk", `{"type":"stories"}`, 9, "admin")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestStatsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	v1 := env.video(t, "Freddie")
	code, _ := env.do(t, http.MethodPost, "/api/v1/videos/"+v1+"/like", "", 1, "user")
	require.Equal(t, http.StatusOK, code)

	code, out := env.do(t, http.MethodGet, "/api/v1/admin/reactions/stats?days=3", "", 9, "admin")
	require.Equal(t, http.StatusOK, code)
	var stats models.ReactionStats
	require.NoError(t, json.Unmarshal(out.Data, &stats))
	assert.EqualValues(t, 1, stats.Total)
	require.Len(t, stats.Daily, 3)
	assert.EqualValues(t, 1, stats.Daily[2].Count)

	code, _ = env.do(t, http.MethodGet, "/api/v1/admin/reactions/stats?days=zero", "", 9, "admin")
	assert.Equal(t, http.StatusBadRequest, code)
}
