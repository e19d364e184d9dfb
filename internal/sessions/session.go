package sessions

import (
	"context"
	"time"
)

// Session is the browser-facing authentication context. It carries the
// normalized provider name, the external account id, and the canonical
// backend user id resolved by the bridging flow. The backend access token is
// never stored here; it is minted fresh on every session read.
type Session struct {
	ID             string    `bson:"_id,omitempty" json:"id"`
	Token          string    `bson:"token" json:"token"`
	UserID         string    `bson:"userId" json:"userId"`
	Provider       string    `bson:"provider" json:"provider"`
	ProviderUserID string    `bson:"providerUserId" json:"providerUserId"`
	Email          string    `bson:"email" json:"email"`
	Name           string    `bson:"name" json:"name"`
	ExpiresAt      time.Time `bson:"expiresAt" json:"expiresAt"`
	CreatedAt      time.Time `bson:"createdAt" json:"createdAt"`
}

type ctxKey struct{}

// NewContext attaches a resolved session to the request context so the
// gateway's token source can see it without ambient globals.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session attached by the auth middleware, if any.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok
}
