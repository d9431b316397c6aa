package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/online-booking/booking-service/internal/domain"
)

// setupRedis starts a miniredis instance and returns a client bound to it.
func setupRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestSessionStore_IssueAndValidate(t *testing.T) {
	client, mr := setupRedis(t)
	clock := newClock()
	store := NewSessionStore(client, 24*time.Hour, WithSessionClock(clock.Now))

	cred, err := store.Issue(context.Background(), "A123", domain.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, domain.CredentialKindSession, cred.Kind)
	assert.Equal(t, cred.ID, cred.Value)
	assert.True(t, mr.Exists(sessionKeyPrefix+cred.ID))

	members, err := mr.Members(accountSessionKeyPrefix + "A123")
	require.NoError(t, err)
	assert.Equal(t, []string{cred.ID}, members)

	got, err := store.Validate(context.Background(), cred.Value)
	require.NoError(t, err)
	assert.Equal(t, "A123", got.Identifier)
	assert.Equal(t, domain.RoleUser, got.Role)
}

func TestSessionStore_ExpiryBoundary(t *testing.T) {
	client, _ := setupRedis(t)
	clock := newClock()
	store := NewSessionStore(client, 24*time.Hour, WithSessionClock(clock.Now))

	cred, err := store.Issue(context.Background(), "A123", domain.RoleUser)
	require.NoError(t, err)

	clock.Advance(24*time.Hour - time.Nanosecond)
	_, err = store.Validate(context.Background(), cred.Value)
	require.NoError(t, err)

	clock.Advance(time.Nanosecond)
	_, err = store.Validate(context.Background(), cred.Value)
	assert.ErrorIs(t, err, domain.ErrExpiredCredential)
}

func TestSessionStore_EvictedSessionIsInvalid(t *testing.T) {
	client, mr := setupRedis(t)
	store := NewSessionStore(client, time.Hour)

	cred, err := store.Issue(context.Background(), "A123", domain.RoleUser)
	require.NoError(t, err)

	mr.FastForward(time.Hour + sessionGrace + time.Second)

	_, err = store.Validate(context.Background(), cred.Value)
	assert.ErrorIs(t, err, domain.ErrInvalidCredential)
}

func TestSessionStore_ValidateFailures(t *testing.T) {
	client, mr := setupRedis(t)
	store := NewSessionStore(client, time.Hour)

	_, err := store.Validate(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrMissingCredential)

	_, err = store.Validate(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, domain.ErrInvalidCredential)

	_, err = store.Validate(context.Background(), "6f1c1f44-8f53-4a4e-9a53-0d1f0b1a4c11")
	assert.ErrorIs(t, err, domain.ErrInvalidCredential)

	require.NoError(t, mr.Set(sessionKeyPrefix+"6f1c1f44-8f53-4a4e-9a53-0d1f0b1a4c11", "{broken"))
	_, err = store.Validate(context.Background(), "6f1c1f44-8f53-4a4e-9a53-0d1f0b1a4c11")
	assert.ErrorIs(t, err, domain.ErrInvalidCredential)
}

func TestSessionStore_RedisDown(t *testing.T) {
	client, mr := setupRedis(t)
	store := NewSessionStore(client, time.Hour)

	cred, err := store.Issue(context.Background(), "A123", domain.RoleUser)
	require.NoError(t, err)

	mr.Close()

	_, err = store.Validate(context.Background(), cred.Value)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrInvalidCredential)
}

func TestSessionStore_Revoke(t *testing.T) {
	client, mr := setupRedis(t)
	store := NewSessionStore(client, time.Hour)

	cred, err := store.Issue(context.Background(), "A123", domain.RoleUser)
	require.NoError(t, err)

	require.NoError(t, store.Revoke(context.Background(), cred.Value))
	assert.False(t, mr.Exists(sessionKeyPrefix+cred.ID))

	_, err = store.Validate(context.Background(), cred.Value)
	assert.ErrorIs(t, err, domain.ErrInvalidCredential)

	assert.NoError(t, store.Revoke(context.Background(), cred.Value))
	assert.NoError(t, store.Revoke(context.Background(), "not-a-uuid"))
}

func TestSessionStore_RevokeAll(t *testing.T) {
	client, _ := setupRedis(t)
	store := NewSessionStore(client, time.Hour)

	first, err := store.Issue(context.Background(), "A123", domain.RoleUser)
	require.NoError(t, err)
	second, err := store.Issue(context.Background(), "A123", domain.RoleUser)
	require.NoError(t, err)
	other, err := store.Issue(context.Background(), "B456", domain.RoleUser)
	require.NoError(t, err)

	n, err := store.RevokeAll(context.Background(), "A123")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, cred := range []*domain.Credential{first, second} {
		_, err = store.Validate(context.Background(), cred.Value)
		assert.ErrorIs(t, err, domain.ErrInvalidCredential)
	}
	_, err = store.Validate(context.Background(), other.Value)
	assert.NoError(t, err)
}

func TestSessionStore_PruneIndex(t *testing.T) {
	client, mr := setupRedis(t)
	store := NewSessionStore(client, time.Hour)

	stale, err := store.Issue(context.Background(), "A123", domain.RoleUser)
	require.NoError(t, err)
	live, err := store.Issue(context.Background(), "A123", domain.RoleUser)
	require.NoError(t, err)
	_, err = store.Issue(context.Background(), "B456", domain.RoleUser)
	require.NoError(t, err)
	mr.Del(sessionKeyPrefix + stale.ID)

	n, err := store.PruneIndex(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	members, err := mr.Members(accountSessionKeyPrefix + "A123")
	require.NoError(t, err)
	assert.Equal(t, []string{live.ID}, members)

	n, err = store.PruneIndex(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRedisRevocationList(t *testing.T) {
	client, mr := setupRedis(t)
	list := NewRedisRevocationList(client)
	clock := newClock()
	list.now = clock.Now

	require.NoError(t, list.Revoke(context.Background(), "jti-1", clock.t.Add(time.Minute)))
	revoked, err := list.IsRevoked(context.Background(), "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.Equal(t, time.Minute, mr.TTL(revokedKeyPrefix+"jti-1"))

	// already expired tokens are not stored
	require.NoError(t, list.Revoke(context.Background(), "jti-2", clock.t.Add(-time.Minute)))
	revoked, err = list.IsRevoked(context.Background(), "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestTokenManager_RevokeWithRedis(t *testing.T) {
	client, _ := setupRedis(t)
	tm := NewTokenManager("k", time.Hour, WithRevocationList(NewRedisRevocationList(client)))

	cred, err := tm.Issue(context.Background(), "A123", domain.RoleUser)
	require.NoError(t, err)
	require.NoError(t, tm.Revoke(context.Background(), cred.Value))

	_, err = tm.Validate(context.Background(), cred.Value)
	assert.ErrorIs(t, err, domain.ErrInvalidCredential)
}
