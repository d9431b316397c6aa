package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/online-booking/booking-service/internal/domain"
	apperrors "github.com/online-booking/booking-service/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	Account    *domain.Account
	Credential *domain.Credential
}

// Role returns the caller's current role.
func (p *Principal) Role() domain.Role {
	if p == nil || p.Account == nil {
		return ""
	}
	return p.Account.Role
}

// AccountReader loads accounts by primary identifier.
type AccountReader interface {
	GetByIdentifier(ctx context.Context, id string) (*domain.Account, error)
}

// EventRecorder receives authentication outcomes, typically for metrics.
type EventRecorder interface {
	RecordAuthEvent(event, outcome string)
}

// AuthMiddleware validates bearer credentials and loads principals.
type AuthMiddleware struct {
	validator Validator
	accounts  AccountReader
	recorder  EventRecorder
}

// NewAuthMiddleware constructs middleware. recorder may be nil.
func NewAuthMiddleware(validator Validator, accounts AccountReader, recorder EventRecorder) *AuthMiddleware {
	return &AuthMiddleware{validator: validator, accounts: accounts, recorder: recorder}
}

// Handle enforces authentication for protected routes. The account is re-read
// on every request; a credential whose role snapshot no longer matches the
// stored role is rejected so that role changes take effect immediately.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	principal, err := m.authenticate(c)
	if err != nil {
		m.record(outcomeOf(err))
		return err
	}
	m.record("ok")
	c.Locals(principalKey, principal)
	return c.Next()
}

func (m *AuthMiddleware) authenticate(c *fiber.Ctx) (*Principal, error) {
	raw, err := BearerToken(c)
	if err != nil {
		return nil, err
	}

	cred, err := m.validator.Validate(c.UserContext(), raw)
	if err != nil {
		return nil, err
	}

	account, err := m.accounts.GetByIdentifier(c.UserContext(), cred.Identifier)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperrors.NewNotFound("account", nil)
		}
		return nil, apperrors.MapError(err)
	}
	if account.Role != cred.Role {
		return nil, fmt.Errorf("%w: credential role is stale", domain.ErrInvalidCredential)
	}

	return &Principal{Account: account, Credential: cred}, nil
}

func (m *AuthMiddleware) record(outcome string) {
	if m.recorder != nil {
		m.recorder.RecordAuthEvent("validate", outcome)
	}
}

// BearerToken extracts the credential from the Authorization header.
func BearerToken(c *fiber.Ctx) (string, error) {
	authHeader := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if authHeader == "" {
		return "", domain.ErrMissingCredential
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", fmt.Errorf("%w: invalid authorization header", domain.ErrInvalidCredential)
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", domain.ErrMissingCredential
	}
	return token, nil
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, domain.ErrMissingCredential):
		return "missing"
	case errors.Is(err, domain.ErrExpiredCredential):
		return "expired"
	case errors.Is(err, domain.ErrInvalidCredential):
		return "invalid"
	default:
		return "error"
	}
}
