package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"torch-indexer/internal/config"
	"torch-indexer/internal/handlers"
	"torch-indexer/internal/middleware"
	"torch-indexer/internal/projection"
	"torch-indexer/internal/services"
	"torch-indexer/internal/store"
)

func newAdminRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	s := store.NewMemoryStore()
	jwtService := services.NewJWTService(&config.Config{JWTSecret: "test-secret"})
	projector := projection.NewProjector(s, nil, nil, zap.NewNop())
	h := handlers.NewAdminHandler(s, projector, jwtService, "letmein")

	router := gin.New()
	router.POST("/auth/token", h.Authenticate)
	admin := router.Group("/admin")
	admin.Use(middleware.AuthMiddleware(jwtService))
	admin.GET("/status", h.Status)
	return router
}

func TestAuthenticateWrongKey(t *testing.T) {
	router := newAdminRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(`{"key":"wrong"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticateAndStatus(t *testing.T) {
	router := newAdminRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(`{"key":"letmein","subject":"ops"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var tokenResp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tokenResp))
	require.NotEmpty(t, tokenResp.Token)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/admin/status", nil)
	req.Header.Set("Authorization", "Bearer "+tokenResp.Token)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var statusResp struct {
		Subject    string           `json:"subject"`
		Checkpoint uint64           `json:"checkpoint"`
		Counters   projection.Stats `json:"counters"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &statusResp))
	assert.Equal(t, "ops", statusResp.Subject)
}

func TestStatusWithoutToken(t *testing.T) {
	router := newAdminRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/status", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
