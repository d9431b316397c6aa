package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/online-booking/booking-service/internal/domain"
)

const (
	sessionKeyPrefix        = "session:"
	accountSessionKeyPrefix = "account_sessions:"
	revokedKeyPrefix        = "revoked:"

	// sessionGrace keeps expired session records around long enough to
	// report them as expired rather than unknown.
	sessionGrace = time.Hour
)

// RevocationList records revoked token ids until they would have expired anyway.
type RevocationList interface {
	Revoke(ctx context.Context, id string, until time.Time) error
	IsRevoked(ctx context.Context, id string) (bool, error)
}

// RedisRevocationList stores revoked token ids as expiring Redis keys.
type RedisRevocationList struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisRevocationList wraps a go-redis client.
func NewRedisRevocationList(client *redis.Client) *RedisRevocationList {
	return &RedisRevocationList{client: client, now: time.Now}
}

// Revoke marks id as revoked until the given instant.
func (l *RedisRevocationList) Revoke(ctx context.Context, id string, until time.Time) error {
	ttl := until.Sub(l.now())
	if ttl <= 0 {
		return nil
	}
	return l.client.Set(ctx, revokedKeyPrefix+id, 1, ttl).Err()
}

// IsRevoked reports whether id has been revoked.
func (l *RedisRevocationList) IsRevoked(ctx context.Context, id string) (bool, error) {
	n, err := l.client.Exists(ctx, revokedKeyPrefix+id).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

type sessionRecord struct {
	Identifier string    `json:"identifier"`
	Role       string    `json:"role"`
	IssuedAt   time.Time `json:"issued_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// SessionStore issues opaque session ids backed by Redis records.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// SessionOption customizes a SessionStore.
type SessionOption func(*SessionStore)

// WithSessionClock overrides the time source.
func WithSessionClock(now func() time.Time) SessionOption {
	return func(s *SessionStore) {
		s.now = now
	}
}

// NewSessionStore builds a Redis-backed session store.
func NewSessionStore(client *redis.Client, ttl time.Duration, opts ...SessionOption) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultCredentialTTL
	}
	s := &SessionStore{client: client, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue implements Issuer.
func (s *SessionStore) Issue(ctx context.Context, identifier string, role domain.Role) (*domain.Credential, error) {
	if identifier == "" {
		return nil, fmt.Errorf("%w: empty identifier", domain.ErrValidation)
	}
	if !role.IsValid() {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrValidation, role)
	}

	issuedAt := s.now().UTC()
	rec := sessionRecord{
		Identifier: identifier,
		Role:       string(role),
		IssuedAt:   issuedAt,
		ExpiresAt:  issuedAt.Add(s.ttl),
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	keep := s.ttl + sessionGrace
	indexKey := accountSessionKeyPrefix + identifier
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sessionKeyPrefix+id, payload, keep)
		pipe.SAdd(ctx, indexKey, id)
		pipe.Expire(ctx, indexKey, keep)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	return rec.credential(id), nil
}

// Validate implements Validator.
func (s *SessionStore) Validate(ctx context.Context, raw string) (*domain.Credential, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, domain.ErrMissingCredential
	}
	if _, err := uuid.Parse(raw); err != nil {
		return nil, fmt.Errorf("%w: malformed session id", domain.ErrInvalidCredential)
	}

	rec, err := s.load(ctx, raw)
	if err != nil {
		return nil, err
	}
	if !domain.Role(rec.Role).IsValid() || rec.Identifier == "" {
		return nil, fmt.Errorf("%w: corrupt session record", domain.ErrInvalidCredential)
	}

	cred := rec.credential(raw)
	if cred.ExpiredAt(s.now()) {
		return nil, domain.ErrExpiredCredential
	}
	return cred, nil
}

// Revoke implements Revoker by deleting the session record.
func (s *SessionStore) Revoke(ctx context.Context, raw string) error {
	raw = strings.TrimSpace(raw)
	if _, err := uuid.Parse(raw); err != nil {
		return nil
	}

	rec, err := s.load(ctx, raw)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredential) {
			return nil
		}
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, sessionKeyPrefix+raw)
		pipe.SRem(ctx, accountSessionKeyPrefix+rec.Identifier, raw)
		return nil
	})
	return err
}

// RevokeAll drops every session belonging to the account.
func (s *SessionStore) RevokeAll(ctx context.Context, identifier string) (int, error) {
	indexKey := accountSessionKeyPrefix + identifier
	ids, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return 0, err
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, sessionKeyPrefix+id)
	}
	keys = append(keys, indexKey)
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return 0, err
	}
	return len(ids), nil
}

// PruneIndex removes ids of expired sessions from every per-account index and
// returns how many were dropped. Session records expire on their own; the
// index sets only shrink on logout, so they are swept periodically.
func (s *SessionStore) PruneIndex(ctx context.Context) (int, error) {
	pruned := 0
	iter := s.client.Scan(ctx, 0, accountSessionKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		indexKey := iter.Val()
		ids, err := s.client.SMembers(ctx, indexKey).Result()
		if err != nil {
			return pruned, err
		}
		for _, id := range ids {
			n, err := s.client.Exists(ctx, sessionKeyPrefix+id).Result()
			if err != nil {
				return pruned, err
			}
			if n > 0 {
				continue
			}
			if err := s.client.SRem(ctx, indexKey, id).Err(); err != nil {
				return pruned, err
			}
			pruned++
		}
	}
	if err := iter.Err(); err != nil {
		return pruned, err
	}
	return pruned, nil
}

func (s *SessionStore) load(ctx context.Context, id string) (*sessionRecord, error) {
	payload, err := s.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: unknown session", domain.ErrInvalidCredential)
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	var rec sessionRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("%w: corrupt session record", domain.ErrInvalidCredential)
	}
	return &rec, nil
}

func (r sessionRecord) credential(id string) *domain.Credential {
	return &domain.Credential{
		Kind:       domain.CredentialKindSession,
		Value:      id,
		ID:         id,
		Identifier: r.Identifier,
		Role:       domain.Role(r.Role),
		IssuedAt:   r.IssuedAt,
		ExpiresAt:  r.ExpiresAt,
	}
}
