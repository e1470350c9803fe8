package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

const defaultTokenTTL = 15 * time.Minute

// ErrTokenInvalid is returned for unknown, expired or already consumed
// tokens.
var ErrTokenInvalid = eris.New("cache: session token invalid or expired")

// SessionToken binds a one-time token to a user.
type SessionToken struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenStore issues one-time session tokens.
type TokenStore struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

// NewTokenStore creates a TokenStore over store.
func NewTokenStore(store Store, ttl time.Duration) *TokenStore {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &TokenStore{store: store, ttl: ttl, now: time.Now}
}

func tokenKey(token string) string { return "token:" + token }

// Issue creates a token for userID.
func (s *TokenStore) Issue(ctx context.Context, userID string) (*SessionToken, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, eris.New("cache: user id is required")
	}
	t := &SessionToken{
		Token:     strings.ReplaceAll(uuid.NewString(), "-", ""),
		UserID:    userID,
		ExpiresAt: s.now().Add(s.ttl).UTC(),
	}
	raw, err := json.Marshal(t)
	if err != nil {
		return nil, eris.Wrap(err, "cache: marshal token")
	}
	if err := s.store.Set(ctx, tokenKey(t.Token), raw, s.ttl); err != nil {
		return nil, eris.Wrap(err, "cache: store token")
	}
	return t, nil
}

// Validate returns the token's binding without consuming it.
func (s *TokenStore) Validate(ctx context.Context, token string) (*SessionToken, error) {
	raw, err := s.store.Get(ctx, tokenKey(token))
	return s.decode(raw, err)
}

// Consume returns the token's binding and invalidates it.
func (s *TokenStore) Consume(ctx context.Context, token string) (*SessionToken, error) {
	raw, err := s.store.Take(ctx, tokenKey(token))
	return s.decode(raw, err)
}

func (s *TokenStore) decode(raw []byte, err error) (*SessionToken, error) {
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, eris.Wrap(err, "cache: load token")
	}
	var t SessionToken
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, eris.Wrap(err, "cache: decode token")
	}
	if !s.now().Before(t.ExpiresAt) {
		return nil, ErrTokenInvalid
	}
	return &t, nil
}
