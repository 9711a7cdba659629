package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// SessionKeyPrefix is the Redis key prefix for sessions (session:<jti> -> user id)
	SessionKeyPrefix = "session:"
	// UserSessionKeyPrefix is the Redis key prefix for the set of a user's session ids
	UserSessionKeyPrefix = "user_session:"
)

var ErrInvalidSession = errors.New("invalid or expired session")

// Claims is the JWT payload of a session token.
type Claims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// SessionManager issues HS256 session tokens. With a Redis client every token
// is also registered under its jti, so it can be revoked before it expires.
// Without Redis tokens are validated statelessly.
type SessionManager struct {
	secret []byte
	ttl    time.Duration
	rdb    *redis.Client
}

func NewSessionManager(secret string, ttl time.Duration, rdb *redis.Client) *SessionManager {
	return &SessionManager{secret: []byte(secret), ttl: ttl, rdb: rdb}
}

func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}

// Issue creates a session for userID and returns the signed token.
func (m *SessionManager) Issue(ctx context.Context, userID primitive.ObjectID) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID.Hex(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}

	if m.rdb != nil {
		userKey := UserSessionKeyPrefix + claims.UserID
		pipe := m.rdb.TxPipeline()
		pipe.Set(ctx, SessionKeyPrefix+claims.ID, claims.UserID, m.ttl)
		pipe.SAdd(ctx, userKey, claims.ID)
		pipe.Expire(ctx, userKey, m.ttl)
		if _, err := pipe.Exec(ctx); err != nil {
			return "", fmt.Errorf("store session: %w", err)
		}
	}
	return token, nil
}

// Validate checks the signature and expiry of token and, when Redis is
// configured, that the session has not been revoked.
func (m *SessionManager) Validate(ctx context.Context, token string) (*Claims, error) {
	claims, err := m.parse(token)
	if err != nil {
		return nil, err
	}
	if m.rdb == nil {
		return claims, nil
	}

	owner, err := m.rdb.Get(ctx, SessionKeyPrefix+claims.ID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrInvalidSession
	}
	if err != nil {
		return nil, fmt.Errorf("lookup session: %w", err)
	}
	if owner != claims.UserID {
		return nil, ErrInvalidSession
	}
	return claims, nil
}

// Revoke removes the session behind token. Invalid tokens are ignored.
func (m *SessionManager) Revoke(ctx context.Context, token string) error {
	if m.rdb == nil || token == "" {
		return nil
	}
	claims, err := m.parse(token)
	if err != nil {
		return nil
	}

	pipe := m.rdb.TxPipeline()
	pipe.Del(ctx, SessionKeyPrefix+claims.ID)
	pipe.SRem(ctx, UserSessionKeyPrefix+claims.UserID, claims.ID)
	_, err = pipe.Exec(ctx)
	return err
}

// RevokeAll removes every session of userID, used after password changes.
func (m *SessionManager) RevokeAll(ctx context.Context, userID primitive.ObjectID) error {
	if m.rdb == nil {
		return nil
	}
	userKey := UserSessionKeyPrefix + userID.Hex()

	ids, err := m.rdb.SMembers(ctx, userKey).Result()
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, SessionKeyPrefix+id)
	}
	keys = append(keys, userKey)
	return m.rdb.Del(ctx, keys...).Err()
}

func (m *SessionManager) parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidSession
	}
	if _, err := primitive.ObjectIDFromHex(claims.UserID); err != nil {
		return nil, ErrInvalidSession
	}
	return claims, nil
}

// ObjectID returns the user id carried by the claims.
func (c *Claims) ObjectID() primitive.ObjectID {
	id, _ := primitive.ObjectIDFromHex(c.UserID)
	return id
}
