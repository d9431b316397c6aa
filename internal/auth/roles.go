package auth

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/online-booking/booking-service/internal/domain"
)

// Authorize permits the operation only when the validated role equals the
// required role. Roles are a flat set; Admin does not inherit anything.
func Authorize(validated, required domain.Role) error {
	if !validated.IsValid() || validated != required {
		return fmt.Errorf("%w: %s role required", domain.ErrForbidden, required)
	}
	return nil
}

// RequireRole ensures the authenticated principal holds the given role.
// Requests that reach it without a principal fail with a missing credential.
func RequireRole(required domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return domain.ErrMissingCredential
		}
		if err := Authorize(principal.Role(), required); err != nil {
			return err
		}
		return c.Next()
	}
}

// RequireAuthenticated ensures any validated identity is present.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return domain.ErrMissingCredential
		}
		return c.Next()
	}
}
