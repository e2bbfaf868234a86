package session

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
	"github.com/rohanjoseph/freshbasket-backend/pkg/config"
	redisclient "github.com/rohanjoseph/freshbasket-backend/pkg/redis"
)

const refreshTokenBytes = 32

var ErrInvalidRefreshToken = errors.New("invalid refresh token")

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	Keys(ctx context.Context, pattern string) ([]string, error)
}

// Manager handles refresh token creation, storage, and rotation.
type Manager struct {
	store sessionStore
	ttl   time.Duration
}

// Checker exposes the read-only surface needed by middleware.
type Checker interface {
	HasSession(ctx context.Context, userID, jti string) (bool, error)
}

// NewManager constructs a session manager backed by Redis.
func NewManager(client *redisclient.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	ttl := cfg.RefreshTokenTTL()
	if ttl <= 0 {
		return nil, fmt.Errorf("refresh token ttl must be positive")
	}
	accessTTL := time.Duration(cfg.ExpirationMinutes) * time.Minute
	if ttl <= accessTTL {
		return nil, fmt.Errorf("refresh token ttl (%s) must exceed access token ttl (%s)", ttl, accessTTL)
	}

	return &Manager{
		store: client,
		ttl:   ttl,
	}, nil
}

// Generate creates a refresh token tied to the given user/jti pair and stores it in Redis.
func (m *Manager) Generate(ctx context.Context, userID, jti string) (string, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(jti) == "" {
		return "", fmt.Errorf("user id and jti are required")
	}
	token, err := generateRefreshToken()
	if err != nil {
		return "", err
	}
	if err := m.store.Set(ctx, redisclient.SessionKey(userID, jti), token, m.ttl); err != nil {
		return "", err
	}
	return token, nil
}

// Rotate validates the provided refresh token, invalidates the prior session, and issues a new jti/refresh pair.
func (m *Manager) Rotate(ctx context.Context, userID, oldJTI, provided string) (string, string, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(oldJTI) == "" || strings.TrimSpace(provided) == "" {
		return "", "", ErrInvalidRefreshToken
	}

	key := redisclient.SessionKey(userID, oldJTI)
	stored, err := m.store.Get(ctx, key)
	if err != nil {
		return "", "", wrapNotFound(err)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(provided)) != 1 {
		return "", "", ErrInvalidRefreshToken
	}

	newJTI := NewJTI()
	newToken, err := generateRefreshToken()
	if err != nil {
		return "", "", err
	}
	if err := m.store.Set(ctx, redisclient.SessionKey(userID, newJTI), newToken, m.ttl); err != nil {
		return "", "", err
	}

	if err := m.store.Del(ctx, key); err != nil {
		return "", "", err
	}

	return newJTI, newToken, nil
}

// Revoke deletes the refresh mapping tied to the user/jti pair.
func (m *Manager) Revoke(ctx context.Context, userID, jti string) error {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(jti) == "" {
		return fmt.Errorf("user id and jti are required")
	}
	return m.store.Del(ctx, redisclient.SessionKey(userID, jti))
}

// RevokeAll deletes every active session for the user.
func (m *Manager) RevokeAll(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("user id is required")
	}
	keys, err := m.store.Keys(ctx, redisclient.SessionPattern(userID))
	if err != nil {
		return err
	}
	return m.store.Del(ctx, keys...)
}

// HasSession reports whether the user/jti pair still has an active refresh session.
func (m *Manager) HasSession(ctx context.Context, userID, jti string) (bool, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(jti) == "" {
		return false, fmt.Errorf("user id and jti are required")
	}
	if _, err := m.store.Get(ctx, redisclient.SessionKey(userID, jti)); err != nil {
		if errors.Is(err, redislib.Nil) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// NewJTI produces a stable identifier used as the JWT jti and session key component.
func NewJTI() string {
	return uuid.NewString()
}

func generateRefreshToken() (string, error) {
	bytes := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generating refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

func wrapNotFound(err error) error {
	if errors.Is(err, redislib.Nil) {
		return ErrInvalidRefreshToken
	}
	return err
}
