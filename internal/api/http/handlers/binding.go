package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/online-booking/booking-service/internal/auth"
	"github.com/online-booking/booking-service/internal/domain"
	"github.com/online-booking/booking-service/internal/service"
	apperrors "github.com/online-booking/booking-service/pkg/util"
)

// bindJSON decodes the request body into out. The JSON content type itself is
// enforced by the global middleware.
func bindJSON(c *fiber.Ctx, out any) error {
	body := c.Body()
	if len(body) == 0 {
		return apperrors.NewValidationError("request body required", nil)
	}
	if err := c.App().Config().JSONDecoder(body, out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}

// queryInt parses an optional integer query parameter. Absent means zero.
func queryInt(c *fiber.Ctx, key string, problems domain.FieldErrors) int {
	raw := c.Query(key)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		problems[key] = "must be an integer"
		return 0
	}
	return n
}

// callerFrom builds the admin caller from the authenticated principal. A
// missing principal yields an empty caller, which the service rejects.
func callerFrom(c *fiber.Ctx) service.Caller {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Account == nil {
		return service.Caller{}
	}
	return service.Caller{ID: principal.Account.ID, Role: principal.Role()}
}
