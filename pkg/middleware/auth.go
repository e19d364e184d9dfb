package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeagerd/briefly-bff/internal/sessions"
	"github.com/yeagerd/briefly-bff/internal/tokens"
)

// SessionKey is the gin context key holding the resolved *sessions.Session.
const SessionKey = "session"

// SessionCookie is the browser cookie carrying the opaque session token.
const SessionCookie = "briefly_session"

// SessionResolver resolves an opaque browser session token.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*sessions.Session, error)
}

// TokenVerifier checks backend bearer tokens presented directly (API
// clients that skipped the cookie flow).
type TokenVerifier interface {
	Verify(raw string) (*tokens.Claims, error)
}

// SessionAuth authenticates requests via the session cookie or an
// Authorization bearer credential. The bearer value may be either an opaque
// session token or a backend JWT; blacklisted JWTs are rejected.
func SessionAuth(resolver SessionResolver, verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		cred := credentialFrom(c)
		if cred == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing credentials"})
			return
		}

		sess, err := resolver.Resolve(c.Request.Context(), cred)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "session lookup failed"})
			return
		}
		if sess != nil {
			attach(c, sess)
			return
		}

		if verifier != nil {
			if listed, _ := sessions.IsAccessTokenBlacklisted(c.Request.Context(), cred); listed {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token revoked"})
				return
			}
			if claims, err := verifier.Verify(cred); err == nil {
				attach(c, &sessions.Session{UserID: claims.Subject, Email: claims.Email, ExpiresAt: claims.ExpiresAt})
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	}
}

func credentialFrom(c *gin.Context) string {
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		return cookie
	}
	auth := c.GetHeader("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}

func attach(c *gin.Context, sess *sessions.Session) {
	c.Set(SessionKey, sess)
	c.Request = c.Request.WithContext(sessions.NewContext(c.Request.Context(), sess))
	c.Next()
}
