package sessions

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"github.com/yeagerd/briefly-bff/internal/identity"
)

// Service wraps repository operations with session lifecycle logic.
type Service struct {
	repo Repository
}

func NewService(r Repository) *Service { return &Service{repo: r} }

// Create stores a new browser session for a bound identity and returns the
// opaque session token handed to the browser as a cookie.
func (s *Service) Create(ctx context.Context, id *identity.BoundIdentity, ttl time.Duration) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	token := hex.EncodeToString(b)
	now := time.Now().UTC()
	sess := &Session{
		ID:             uuid.NewString(),
		Token:          token,
		UserID:         id.UserID,
		Provider:       id.Provider,
		ProviderUserID: id.ProviderUserID,
		Email:          id.Email,
		Name:           id.Name,
		CreatedAt:      now,
		ExpiresAt:      now.Add(ttl),
	}
	if err := s.repo.Create(ctx, sess); err != nil {
		return "", err
	}
	return token, nil
}

// Resolve returns the session for a token when it exists and has not
// expired; expired sessions are lazily deleted.
func (s *Service) Resolve(ctx context.Context, token string) (*Session, error) {
	sess, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, nil
	}
	if time.Now().UTC().After(sess.ExpiresAt) {
		_ = s.repo.DeleteByToken(ctx, token)
		return nil, nil
	}
	return sess, nil
}

func (s *Service) Delete(ctx context.Context, token string) error {
	return s.repo.DeleteByToken(ctx, token)
}
