// Package session issues and resolves the opaque session token carried in the
// session_token cookie.
//
// A token has the form "<userId>::<nonce>". The nonce is a compact HS256 JWT
// whose subject must equal the id prefix, so the id cannot be swapped without
// the server secret.
package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/viniuy/e-barangay/internal/models"
	"github.com/viniuy/e-barangay/pkg/logger"
)

const (
	CookieName = "session_token"
	DefaultTTL = 7 * 24 * time.Hour

	delimiter    = "::"
	revokePrefix = "session:revoked:"
)

// UserLookup loads a user by id. It returns nil, nil when no such user exists.
type UserLookup interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type Codec struct {
	secret []byte
	ttl    time.Duration
	users  UserLookup
	rdb    *redis.Client // optional deny-list
	now    func() time.Time
}

func NewCodec(secret string, ttl time.Duration, users UserLookup, rdb *redis.Client) *Codec {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Codec{
		secret: []byte(secret),
		ttl:    ttl,
		users:  users,
		rdb:    rdb,
		now:    time.Now,
	}
}

// TTL is the lifetime of issued tokens, also used as the cookie MaxAge.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Issue creates a new token for userID.
func (c *Codec) Issue(userID uuid.UUID) (string, error) {
	if userID == uuid.Nil {
		return "", errors.New("session: empty user id")
	}

	now := c.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		ID:        uuid.NewString(),
	}

	nonce, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", err
	}
	return userID.String() + delimiter + nonce, nil
}

// Resolve returns the user behind token, or nil when there is no valid session.
// Malformed tokens never produce an error.
func (c *Codec) Resolve(ctx context.Context, token string) *models.User {
	userID, claims, ok := c.parse(token)
	if !ok {
		return nil
	}

	if c.revoked(ctx, claims.ID) {
		return nil
	}

	user, err := c.users.GetUserByID(ctx, userID)
	if err != nil {
		logger.Log.Error("Session user lookup failed",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
		return nil
	}
	return user
}

// Revoke invalidates token until it would have expired anyway. Revoking a
// malformed, expired or already revoked token is a no-op.
func (c *Codec) Revoke(ctx context.Context, token string) error {
	if c.rdb == nil {
		return nil
	}

	_, claims, ok := c.parse(token)
	if !ok {
		return nil
	}

	ttl := claims.ExpiresAt.Sub(c.now())
	if ttl <= 0 {
		return nil
	}
	return c.rdb.Set(ctx, revokePrefix+claims.ID, 1, ttl).Err()
}

func (c *Codec) parse(token string) (uuid.UUID, *jwt.RegisteredClaims, bool) {
	rawID, nonce, found := strings.Cut(token, delimiter)
	if !found || nonce == "" {
		return uuid.Nil, nil, false
	}

	userID, err := uuid.Parse(rawID)
	if err != nil || userID == uuid.Nil {
		return uuid.Nil, nil, false
	}

	claims := &jwt.RegisteredClaims{}
	_, err = jwt.ParseWithClaims(nonce, claims,
		func(t *jwt.Token) (interface{}, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		logger.Log.Debug("Rejected session nonce", zap.Error(err))
		return uuid.Nil, nil, false
	}

	if claims.Subject != userID.String() || claims.ID == "" {
		return uuid.Nil, nil, false
	}
	return userID, claims, true
}

// revoked fails closed: a deny-list lookup error counts as revoked.
func (c *Codec) revoked(ctx context.Context, jti string) bool {
	if c.rdb == nil {
		return false
	}

	n, err := c.rdb.Exists(ctx, revokePrefix+jti).Result()
	if err != nil {
		logger.Log.Warn("Session deny-list lookup failed", zap.Error(err))
		return true
	}
	return n > 0
}
