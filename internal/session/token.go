package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"warbler/internal/middleware"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	issuer   = "warbler-api"
	audience = "warbler-client"
)

// ErrInvalidToken is returned by Parse for any token that must not be trusted.
var ErrInvalidToken = errors.New("invalid or expired token")

// ErrRevoked is returned by Parse for a token whose jti was revoked.
var ErrRevoked = errors.New("token has been revoked")

// Manager issues, parses and revokes signed session tokens.
type Manager struct {
	secret []byte
	ttl    time.Duration
	redis  func() *redis.Client
	now    func() time.Time
}

// NewManager returns a Manager signing with secret. redisClient may return
// nil, in which case revocation is skipped.
func NewManager(secret string, ttl time.Duration, redisClient func() *redis.Client) *Manager {
	if redisClient == nil {
		redisClient = func() *redis.Client { return nil }
	}
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
		redis:  redisClient,
		now:    time.Now,
	}
}

// TTL is the lifetime of issued tokens.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a token for userID.
func (m *Manager) Issue(userID uint, username string) (string, error) {
	if len(m.secret) == 0 {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := m.now()
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(userID), 10),
		"username": username,
		"iss":      issuer,
		"aud":      audience,
		"exp":      now.Add(m.ttl).Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Parse validates tokenString and returns the session it carries.
func (m *Manager) Parse(ctx context.Context, tokenString string) (Session, error) {
	claims, err := m.claims(tokenString)
	if err != nil {
		return Anonymous(), err
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return Anonymous(), ErrInvalidToken
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return Anonymous(), ErrInvalidToken
	}

	if jti, _ := claims["jti"].(string); jti != "" {
		if rdb := m.redis(); rdb != nil {
			n, err := rdb.Exists(ctx, blacklistKey(jti)).Result()
			if err != nil {
				middleware.Logger.WarnContext(ctx, "revocation check failed, accepting token", "error", err)
			} else if n > 0 {
				return Anonymous(), ErrRevoked
			}
		}
	}

	return Authenticated(uint(userID)), nil
}

// Revoke blacklists the token's jti until it would have expired anyway.
// Invalid or already expired tokens need no revocation.
func (m *Manager) Revoke(ctx context.Context, tokenString string) error {
	claims, err := m.claims(tokenString)
	if err != nil {
		return nil
	}
	jti, _ := claims["jti"].(string)
	if jti == "" {
		return nil
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	remaining := exp.Sub(m.now())
	if remaining <= 0 {
		return nil
	}

	rdb := m.redis()
	if rdb == nil {
		middleware.Logger.WarnContext(ctx, "redis unavailable, token not revoked", "jti", jti)
		return nil
	}
	if err := rdb.Set(ctx, blacklistKey(jti), "1", remaining).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (m *Manager) claims(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func blacklistKey(jti string) string {
	return "blacklist:" + jti
}
