package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeagerd/briefly-bff/internal/config"
	"github.com/yeagerd/briefly-bff/internal/gateway"
	"github.com/yeagerd/briefly-bff/internal/identity"
	"github.com/yeagerd/briefly-bff/internal/oauth"
	"github.com/yeagerd/briefly-bff/internal/oidc"
	"github.com/yeagerd/briefly-bff/internal/sessions"
	"github.com/yeagerd/briefly-bff/internal/tokens"
	"github.com/yeagerd/briefly-bff/pkg/logger"
	"github.com/yeagerd/briefly-bff/pkg/metrics"
	"github.com/yeagerd/briefly-bff/pkg/middleware"
)

// LoginRequest carries the authorization-code exchange from the browser.
type LoginRequest struct {
	Provider    string `json:"provider" binding:"required"` // "google" | "azure-ad"
	Code        string `json:"code" binding:"required"`
	RedirectURI string `json:"redirect_uri" binding:"required"`
}

// AuthHandler holds dependencies for the sign-in, session-read and logout
// routes.
type AuthHandler struct {
	cfg       *config.Config
	providers map[string]oauth.Provider
	verifiers map[string]oidc.TokenVerifier
	bridger   *identity.Bridger
	sessions  *sessions.Service
	minter    *tokens.Minter
}

func NewAuthHandler(cfg *config.Config, providers map[string]oauth.Provider, verifiers map[string]oidc.TokenVerifier, b *identity.Bridger, s *sessions.Service, m *tokens.Minter) *AuthHandler {
	return &AuthHandler{cfg: cfg, providers: providers, verifiers: verifiers, bridger: b, sessions: s, minter: m}
}

// Register routes under /auth
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	a := rg.Group("/auth")
	a.GET("/authorize", h.Authorize)
	a.POST("/login", h.Login)
	a.GET("/session", h.Session)
	a.POST("/logout", h.Logout)
}

// Authorize starts the code flow: the browser is redirected to the
// provider's authorization endpoint. State round-trips through the provider
// unchanged; the frontend validates it on return.
func (h *AuthHandler) Authorize(c *gin.Context) {
	provider, ok := h.providers[c.Query("provider")]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported provider"})
		return
	}
	redirectURI := c.Query("redirect_uri")
	if redirectURI == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "redirect_uri is required"})
		return
	}
	c.Redirect(http.StatusFound, provider.AuthCodeURL(c.Query("state"), redirectURI))
}

// Login exchanges an authorization code, bridges the external identity to
// the canonical backend user, and issues a browser session. No partial
// session is ever created: every failure path ends without a cookie.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	provider, ok := h.providers[req.Provider]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported provider"})
		return
	}

	toks, err := provider.Exchange(c.Request.Context(), req.Code, req.RedirectURI)
	if err != nil {
		logger.Errorf("token exchange error (provider=%s): %v", req.Provider, err)
		metrics.SignIns.WithLabelValues(req.Provider, "exchange_failed").Inc()
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication failed", "details": err.Error()})
		return
	}

	profile, err := h.externalProfile(c.Request.Context(), provider, toks)
	if err != nil {
		logger.Errorf("profile retrieval error (provider=%s): %v", req.Provider, err)
		metrics.SignIns.WithLabelValues(req.Provider, "profile_failed").Inc()
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication failed", "details": err.Error()})
		return
	}

	bound, err := h.bridger.Bridge(c.Request.Context(), *profile)
	if err != nil {
		metrics.SignIns.WithLabelValues(req.Provider, "bridge_failed").Inc()
		status := http.StatusUnauthorized
		var apiErr *gateway.APIError
		var terr *gateway.TransportError
		if errors.As(err, &apiErr) || errors.As(err, &terr) {
			status = http.StatusBadGateway
		}
		logger.Errorf("identity bridge error (provider=%s): %v", req.Provider, err)
		c.JSON(status, gin.H{"error": "sign-in failed", "details": err.Error()})
		return
	}

	token, err := h.sessions.Create(c.Request.Context(), bound, h.cfg.Auth.SessionTTL)
	if err != nil {
		logger.Errorf("failed to create session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}

	access, err := h.minter.Mint(bound.UserID, bound.Email, time.Now())
	if err != nil {
		_ = h.sessions.Delete(c.Request.Context(), token)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create access token"})
		return
	}

	metrics.SignIns.WithLabelValues(req.Provider, "success").Inc()
	h.setSessionCookie(c, token, int(h.cfg.Auth.SessionTTL.Seconds()))
	c.JSON(http.StatusOK, sessionPayload(bound.UserID, bound.Email, bound.Name, bound.Provider, bound.ProviderUserID, access))
}

// Session resolves the browser session and re-mints a fresh backend token.
// The re-mint happens on every read, so the credential seen by the gateway
// is at most an hour old regardless of session age.
func (h *AuthHandler) Session(c *gin.Context) {
	token := sessionToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no session"})
		return
	}
	sess, err := h.sessions.Resolve(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session lookup failed"})
		return
	}
	if sess == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid session"})
		return
	}
	access, err := h.minter.Mint(sess.UserID, sess.Email, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create access token"})
		return
	}
	c.JSON(http.StatusOK, sessionPayload(sess.UserID, sess.Email, sess.Name, sess.Provider, sess.ProviderUserID, access))
}

// Logout deletes the session and blacklists the presented access token for
// its remaining lifetime.
func (h *AuthHandler) Logout(c *gin.Context) {
	// If the client supplied an Authorization Bearer token, attempt to blacklist it
	auth := c.GetHeader("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		at := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		if exp, err := parseExpFromJWT(at); err == nil {
			if ttl := time.Until(exp); ttl > 0 {
				if err := sessions.BlacklistAccessToken(c.Request.Context(), at, ttl); err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to blacklist access token"})
					return
				}
			}
		}
	}

	token := sessionToken(c)
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no session token"})
		return
	}
	if err := h.sessions.Delete(c.Request.Context(), token); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove session"})
		return
	}
	h.setSessionCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// externalProfile extracts the external identity from the exchange result:
// verified id_token claims when a verifier is configured for the provider,
// the provider's userinfo endpoint otherwise.
func (h *AuthHandler) externalProfile(ctx context.Context, provider oauth.Provider, toks *oauth.Tokens) (*identity.ExternalProfile, error) {
	if ver, ok := h.verifiers[provider.Name()]; ok && toks.IDToken != "" {
		idt, err := ver.Verify(ctx, toks.IDToken)
		if err != nil {
			return nil, fmt.Errorf("invalid id token: %w", err)
		}
		var claims struct {
			Sub     string `json:"sub"`
			Email   string `json:"email"`
			Name    string `json:"name"`
			Picture string `json:"picture"`
		}
		if err := idt.Claims(&claims); err != nil {
			return nil, fmt.Errorf("invalid id token claims: %w", err)
		}
		return &identity.ExternalProfile{
			Provider:   provider.Name(),
			ExternalID: claims.Sub,
			Email:      claims.Email,
			Name:       claims.Name,
			Picture:    claims.Picture,
		}, nil
	}

	ui, err := provider.UserInfo(ctx, toks.AccessToken)
	if err != nil {
		return nil, err
	}
	return &identity.ExternalProfile{
		Provider:   provider.Name(),
		ExternalID: ui.ID,
		Email:      ui.Email,
		Name:       ui.Name,
		Picture:    ui.Picture,
	}, nil
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string, maxAge int) {
	secure := h.cfg.Server.Environment == "production"
	c.SetCookie(middleware.SessionCookie, token, maxAge, "/", "", secure, true)
}

// sessionPayload is the camelCase response shape the frontend expects.
func sessionPayload(userID, email, name, provider, providerUserID, access string) gin.H {
	return gin.H{
		"user":           gin.H{"id": userID, "email": email, "name": name},
		"provider":       provider,
		"providerUserId": providerUserID,
		"accessToken":    access,
		"expiresIn":      int(tokens.TTL.Seconds()),
	}
}

func sessionToken(c *gin.Context) string {
	if cookie, err := c.Cookie(middleware.SessionCookie); err == nil && cookie != "" {
		return cookie
	}
	auth := c.GetHeader("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}

// parseExpFromJWT decodes the JWT payload and returns the `exp` claim as
// time.Time. Payload-only parsing (no signature verification) is enough for
// computing the remaining blacklist TTL.
func parseExpFromJWT(tok string) (time.Time, error) {
	parts := strings.Split(tok, ".")
	if len(parts) < 2 {
		return time.Time{}, fmt.Errorf("invalid token")
	}
	b, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		// try standard base64 (pad) as a fallback
		b, err = base64.StdEncoding.DecodeString(parts[1])
		if err != nil {
			return time.Time{}, err
		}
	}
	var claims map[string]interface{}
	if err := json.Unmarshal(b, &claims); err != nil {
		return time.Time{}, err
	}
	v, ok := claims["exp"]
	if !ok {
		return time.Time{}, fmt.Errorf("exp claim not present")
	}
	switch vv := v.(type) {
	case float64:
		return time.Unix(int64(vv), 0), nil
	case json.Number:
		i64, err := vv.Int64()
		if err != nil {
			return time.Time{}, err
		}
		return time.Unix(i64, 0), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported exp type %T", v)
	}
}
