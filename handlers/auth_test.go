package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/johnallens/content-platform/internal/auth"
	"github.com/johnallens/content-platform/internal/config"
	"github.com/johnallens/content-platform/internal/tokens"
)

func authTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.JWT.Secret = "handler-test-secret-32-bytes-xxxxx"
	cfg.JWT.AccessTokenTTL = time.Hour
	cfg.Editor.Username = "editor"
	cfg.Editor.Password = "s3cret"
	return cfg
}

func TestTokenEndpoint_IssuesValidToken(t *testing.T) {
	cfg := authTestConfig()
	g := gin.New()
	NewAuthHandler(cfg, nil).Register(g.Group("/"))

	body := `{"username":"editor","password":"s3cret"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		AccessToken string `json:"accessToken"`
		ExpiresIn   int    `json:"expiresIn"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 3600, resp.ExpiresIn)

	sub, err := tokens.ParseAccessToken(cfg.JWT.Secret, resp.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "editor", sub)
}

func TestTokenEndpoint_RejectsBadCredentials(t *testing.T) {
	g := gin.New()
	NewAuthHandler(authTestConfig(), nil).Register(g.Group("/"))

	body := `{"username":"editor","password":"wrong"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTokenEndpoint_UnconfiguredReturns503(t *testing.T) {
	cfg := authTestConfig()
	cfg.Editor.Password = ""
	g := gin.New()
	NewAuthHandler(cfg, nil).Register(g.Group("/"))

	body := `{"username":"editor","password":"s3cret"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestLogout_RevokesToken(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	store := auth.NewRevocationStore(client)

	cfg := authTestConfig()
	g := gin.New()
	NewAuthHandler(cfg, store).Register(g.Group("/"))

	token, err := tokens.GenerateAccessToken(cfg.JWT.Secret, "editor", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)

	revoked, err := store.IsRevoked(req.Context(), token)
	require.NoError(t, err)
	require.True(t, revoked)
}

func TestLogout_MissingBearer(t *testing.T) {
	g := gin.New()
	NewAuthHandler(authTestConfig(), nil).Register(g.Group("/"))

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
