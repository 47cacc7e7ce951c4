package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBlacklist(t *testing.T) (*TokenBlacklist, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb, err := NewClient(mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })
	return NewTokenBlacklist(rdb), mr
}

func TestTokenBlacklist_RevokeAndCheck(t *testing.T) {
	bl, mr := newBlacklist(t)
	ctx := context.Background()

	revoked, err := bl.IsRevoked(ctx, "abc", 1, time.Now())
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, bl.Revoke(ctx, "abc", time.Now().Add(time.Hour)))

	revoked, err = bl.IsRevoked(ctx, "abc", 1, time.Now())
	require.NoError(t, err)
	assert.True(t, revoked)

	ttl := mr.TTL(BlacklistKey("abc"))
	assert.Greater(t, ttl, 59*time.Minute)

	mr.FastForward(2 * time.Hour)
	revoked, err = bl.IsRevoked(ctx, "abc", 1, time.Now())
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestTokenBlacklist_RevokeUser(t *testing.T) {
	bl, mr := newBlacklist(t)
	ctx := context.Background()
	deletedAt := time.Now()

	require.NoError(t, bl.RevokeUser(ctx, 7, deletedAt, deletedAt.Add(time.Hour)))

	revoked, err := bl.IsRevoked(ctx, "older", 7, deletedAt.Add(-time.Minute))
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = bl.IsRevoked(ctx, "same-second", 7, deletedAt)
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = bl.IsRevoked(ctx, "newer", 7, deletedAt.Add(2*time.Second))
	require.NoError(t, err)
	assert.False(t, revoked)

	revoked, err = bl.IsRevoked(ctx, "other-user", 8, deletedAt.Add(-time.Minute))
	require.NoError(t, err)
	assert.False(t, revoked)

	assert.Greater(t, mr.TTL(RevokedUserKey(7)), 59*time.Minute)
}

func TestTokenBlacklist_ExpiredTokenNotStored(t *testing.T) {
	bl, mr := newBlacklist(t)

	require.NoError(t, bl.Revoke(context.Background(), "old", time.Now().Add(-time.Minute)))
	assert.False(t, mr.Exists(BlacklistKey("old")))
}

func TestTokenBlacklist_Disabled(t *testing.T) {
	var nilList *TokenBlacklist
	assert.False(t, nilList.Enabled())
	revoked, err := nilList.IsRevoked(context.Background(), "x", 1, time.Now())
	assert.NoError(t, err)
	assert.False(t, revoked)

	bl := NewTokenBlacklist(nil)
	assert.NoError(t, bl.Revoke(context.Background(), "x", time.Now().Add(time.Hour)))
}

func TestNewClient_ParsesURL(t *testing.T) {
	c, err := NewClient("redis://localhost:6390/2")
	require.NoError(t, err)
	assert.Equal(t, "localhost:6390", c.Options().Addr)
	assert.Equal(t, 2, c.Options().DB)

	_, err = NewClient("redis://%zz")
	assert.Error(t, err)
}

func TestInitRedis_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	InitRedis(addr)
	assert.Nil(t, GetClient())
}
