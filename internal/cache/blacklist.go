package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	blacklistPrefix   = "blacklist:"
	revokedUserPrefix = "revoked_user:"
)

// BlacklistKey is the Redis key marking a revoked token id.
func BlacklistKey(jti string) string {
	return blacklistPrefix + jti
}

// RevokedUserKey is the Redis key holding the unix time before which every
// token of the user is revoked.
func RevokedUserKey(userID uint) string {
	return revokedUserPrefix + strconv.FormatUint(uint64(userID), 10)
}

// TokenBlacklist records revoked token ids until they would have expired anyway.
// A nil blacklist or one without a client accepts every token.
type TokenBlacklist struct {
	rdb *redis.Client
}

// NewTokenBlacklist returns a blacklist backed by rdb, which may be nil.
func NewTokenBlacklist(rdb *redis.Client) *TokenBlacklist {
	return &TokenBlacklist{rdb: rdb}
}

// Enabled reports whether revocations are persisted.
func (b *TokenBlacklist) Enabled() bool {
	return b != nil && b.rdb != nil
}

// Revoke marks jti as revoked until expiresAt.
func (b *TokenBlacklist) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	if !b.Enabled() || jti == "" {
		return nil
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return b.rdb.Set(ctx, BlacklistKey(jti), "1", ttl).Err()
}

// RevokeUser revokes every token of userID issued at or before at. The
// marker is kept until until, the latest expiry of such a token.
func (b *TokenBlacklist) RevokeUser(ctx context.Context, userID uint, at, until time.Time) error {
	if !b.Enabled() {
		return nil
	}
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return b.rdb.Set(ctx, RevokedUserKey(userID), at.Unix(), ttl).Err()
}

// IsRevoked reports whether the token jti, issued to userID at issuedAt, was
// revoked on its own or together with all tokens of the user.
func (b *TokenBlacklist) IsRevoked(ctx context.Context, jti string, userID uint, issuedAt time.Time) (bool, error) {
	if !b.Enabled() {
		return false, nil
	}
	vals, err := b.rdb.MGet(ctx, BlacklistKey(jti), RevokedUserKey(userID)).Result()
	if err != nil {
		return false, err
	}
	if jti != "" && vals[0] != nil {
		return true, nil
	}
	raw, ok := vals[1].(string)
	if !ok {
		return false, nil
	}
	before, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, errors.New("malformed user revocation marker")
	}
	return issuedAt.Unix() <= before, nil
}
