package handlers

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/johnallens/content-platform/internal/auth"
	"github.com/johnallens/content-platform/internal/config"
	"github.com/johnallens/content-platform/internal/tokens"
)

// TokenRequest carries editor credentials for local token issuance.
type TokenRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthHandler issues and revokes editor access tokens. Deployments
// fronted by an OIDC provider skip the token endpoint and only use
// logout for revocation.
type AuthHandler struct {
	cfg        *config.Config
	revocation *auth.RevocationStore
}

func NewAuthHandler(cfg *config.Config, revocation *auth.RevocationStore) *AuthHandler {
	return &AuthHandler{cfg: cfg, revocation: revocation}
}

// Register routes under /auth
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	a := rg.Group("/auth")
	a.POST("/token", h.Token)
	a.POST("/logout", h.Logout)
}

// Token validates editor credentials and returns a signed access token
func (h *AuthHandler) Token(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if h.cfg.Editor.Username == "" || h.cfg.Editor.Password == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "local token issuance not configured"})
		return
	}
	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.cfg.Editor.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.cfg.Editor.Password)) == 1
	if !userOK || !passOK {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	ttl := h.cfg.JWT.AccessTokenTTL
	access, err := tokens.GenerateAccessToken(h.cfg.JWT.Secret, req.Username, ttl)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create access token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"accessToken": access, "expiresIn": int(ttl.Seconds())})
}

// Logout revokes the presented bearer token for the remainder of its
// lifetime
func (h *AuthHandler) Logout(c *gin.Context) {
	raw := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if raw == "" || raw == c.GetHeader("Authorization") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing bearer token"})
		return
	}
	if h.revocation != nil {
		if err := h.revocation.Revoke(c.Request.Context(), raw, h.cfg.JWT.AccessTokenTTL); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "revocation failed"})
			return
		}
	}
	c.Status(http.StatusNoContent)
}
