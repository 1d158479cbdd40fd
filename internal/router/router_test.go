package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anonto42/reaction-ledger/internal/middleware"
	"github.com/anonto42/reaction-ledger/internal/models"
	"github.com/anonto42/reaction-ledger/internal/repositories/memory"
	"github.com/anonto42/reaction-ledger/pkg/config"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func testConfig() *config.Config {
	return &config.Config{
		StoreDriver:  config.DriverMemory,
		AuthProvider: config.AuthJWT,
		JWTSecret:    "router-secret",
		Reactions: config.ReactionConfig{
			AdapterTimeout:   time.Second,
			SearchMatchLimit: 100,
			DefaultPageSize:  20,
			MaxPageSize:      100,
			StatsWindowDays:  7,
		},
	}
}

func bearer(t *testing.T, cfg *config.Config, userID uint, role string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &models.JwtCustomClaims{UserID: userID, Role: role}).
		SignedString([]byte(cfg.JWTSecret))
	require.NoError(t, err)
	return "Bearer " + token
}

func TestSetupRoutes_MemoryStores(t *testing.T) {
	cfg := testConfig()
	stores := MemoryStores()
	require.Len(t, stores.Entities, len(models.AllKinds))
	assert.Nil(t, stores.UserLookup)

	e := echo.New()
	logger := zap.NewNop()
	SetupMiddleware(e, logger)
	require.NoError(t, SetupRoutes(e, cfg, stores, middleware.JWTAuthMiddleware(cfg.JWTSecret), logger))

	podcastID := primitive.NewObjectID().Hex()
	for _, s := range stores.Entities {
		if s.Kind() == models.KindPodcast {
			s.(*memory.EntityStore).Put(podcastID, echo.Map{"title": "Reaction Time"}, "Reaction Time")
		}
	}

	call := func(method, path, auth string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		if auth != "" {
			req.Header.Set(echo.HeaderAuthorization, auth)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, call(http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusUnauthorized, call(http.MethodPost, "/api/v1/podcasts/"+podcastID+"/like", "").Code)

	rec := call(http.MethodPost, "/api/v1/podcasts/"+podcastID+"/like", bearer(t, cfg, 4, "user"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, http.StatusForbidden, call(http.MethodGet, "/api/v1/admin/reactions", bearer(t, cfg, 4, "user")).Code)

	rec = call(http.MethodGet, "/api/v1/admin/reactions?type=podcast", bearer(t, cfg, 1, "superadmin"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out struct {
		Data       []models.Reaction `json:"data"`
		Pagination models.Pagination `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Data, 1)
	assert.Equal(t, podcastID, out.Data[0].EntityID)
	assert.EqualValues(t, 4, out.Data[0].UserID)
	assert.EqualValues(t, 1, out.Pagination.Total)
}

func TestIDValidator(t *testing.T) {
	assert.True(t, idValidator(models.KindComment)("12"))
	assert.False(t, idValidator(models.KindComment)(primitive.NewObjectID().Hex()))
	assert.True(t, idValidator(models.KindVideo)(primitive.NewObjectID().Hex()))
	assert.False(t, idValidator(models.KindVideo)("12"))
}
