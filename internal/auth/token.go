package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/online-booking/booking-service/internal/domain"
)

// DefaultCredentialTTL is the validity window used when none is configured.
const DefaultCredentialTTL = 24 * time.Hour

// Issuer mints bearer credentials after a successful login.
type Issuer interface {
	Issue(ctx context.Context, identifier string, role domain.Role) (*domain.Credential, error)
}

// Validator recovers identity and role from a presented bearer credential.
type Validator interface {
	Validate(ctx context.Context, raw string) (*domain.Credential, error)
}

// Revoker invalidates a credential before its natural expiry. Revoking an
// unknown or malformed credential is not an error.
type Revoker interface {
	Revoke(ctx context.Context, raw string) error
}

// CredentialProvider bundles the three credential capabilities.
type CredentialProvider interface {
	Issuer
	Validator
	Revoker
}

// TokenManager handles issuing and validating JWT tokens. The signing secret
// is fixed for the lifetime of the manager; key rotation would need a key id
// header and a keyed lookup in ParseToken.
type TokenManager struct {
	secret  []byte
	ttl     time.Duration
	now     func() time.Time
	revoked RevocationList
}

// TokenOption customizes a TokenManager.
type TokenOption func(*TokenManager)

// WithTokenClock overrides the time source.
func WithTokenClock(now func() time.Time) TokenOption {
	return func(tm *TokenManager) {
		tm.now = now
	}
}

// WithRevocationList enables logout of individual tokens.
func WithRevocationList(list RevocationList) TokenOption {
	return func(tm *TokenManager) {
		tm.revoked = list
	}
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, ttl time.Duration, opts ...TokenOption) *TokenManager {
	if ttl <= 0 {
		ttl = DefaultCredentialTTL
	}
	tm := &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(tm)
	}
	return tm
}

// Claims describes JWT payload.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateToken builds and signs a JWT for the account.
func (tm *TokenManager) GenerateToken(identifier string, role domain.Role) (string, *Claims, error) {
	if identifier == "" {
		return "", nil, fmt.Errorf("%w: empty identifier", domain.ErrValidation)
	}
	if !role.IsValid() {
		return "", nil, fmt.Errorf("%w: unknown role %q", domain.ErrValidation, role)
	}

	issuedAt := tm.now().Truncate(jwt.TimePrecision)
	claims := &Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   identifier,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(tm.ttl)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", nil, err
	}
	return tokenString, claims, nil
}

// Issue implements Issuer.
func (tm *TokenManager) Issue(_ context.Context, identifier string, role domain.Role) (*domain.Credential, error) {
	tokenString, claims, err := tm.GenerateToken(identifier, role)
	if err != nil {
		return nil, err
	}
	return claimsToCredential(tokenString, claims), nil
}

// ParseToken verifies signature and expiry and returns the claims. It does not
// consult the revocation list.
func (tm *TokenManager) ParseToken(tokenStr string) (*Claims, error) {
	if strings.TrimSpace(tokenStr) == "" {
		return nil, domain.ErrMissingCredential
	}

	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrExpiredCredential
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidCredential, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, domain.ErrInvalidCredential
	}
	if claims.Subject == "" || claims.ID == "" || claims.IssuedAt == nil {
		return nil, fmt.Errorf("%w: incomplete claims", domain.ErrInvalidCredential)
	}
	if !domain.Role(claims.Role).IsValid() {
		return nil, fmt.Errorf("%w: unknown role claim", domain.ErrInvalidCredential)
	}
	if !tm.now().Before(claims.ExpiresAt.Time) {
		return nil, domain.ErrExpiredCredential
	}
	return claims, nil
}

// Validate implements Validator.
func (tm *TokenManager) Validate(ctx context.Context, raw string) (*domain.Credential, error) {
	claims, err := tm.ParseToken(raw)
	if err != nil {
		return nil, err
	}
	if tm.revoked != nil {
		revoked, err := tm.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return nil, fmt.Errorf("%w: token revoked", domain.ErrInvalidCredential)
		}
	}
	return claimsToCredential(raw, claims), nil
}

// Revoke implements Revoker. Tokens that no longer verify are already unusable
// and are ignored.
func (tm *TokenManager) Revoke(ctx context.Context, raw string) error {
	if tm.revoked == nil {
		return nil
	}
	claims, err := tm.ParseToken(raw)
	if err != nil {
		return nil
	}
	return tm.revoked.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

// TTL returns the validity window of issued tokens.
func (tm *TokenManager) TTL() time.Duration {
	return tm.ttl
}

func claimsToCredential(raw string, claims *Claims) *domain.Credential {
	return &domain.Credential{
		Kind:       domain.CredentialKindToken,
		Value:      raw,
		ID:         claims.ID,
		Identifier: claims.Subject,
		Role:       domain.Role(claims.Role),
		IssuedAt:   claims.IssuedAt.Time,
		ExpiresAt:  claims.ExpiresAt.Time,
	}
}
