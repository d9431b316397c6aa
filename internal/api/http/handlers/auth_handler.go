package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/online-booking/booking-service/internal/api/dto"
	"github.com/online-booking/booking-service/internal/auth"
	"github.com/online-booking/booking-service/internal/domain"
	"github.com/online-booking/booking-service/internal/service"
)

// AuthHandler exposes registration, login and credential lifecycle endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	account, err := h.auth.Register(c.UserContext(), req.ToInput())
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{"account": dto.NewAccountResponse(account)},
	})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	res, err := h.auth.Login(c.UserContext(), req.ToInput())
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": dto.NewAuthResponse(res)})
}

// Profile handles GET /auth/profile.
func (h *AuthHandler) Profile(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return domain.ErrMissingCredential
	}
	account, err := h.auth.Profile(c.UserContext(), principal.Account.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"account": dto.NewAccountResponse(account)}})
}

// Logout handles POST /auth/logout. It is acknowledged even when no usable
// credential is presented.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	raw, err := auth.BearerToken(c)
	if err != nil {
		raw = ""
	}
	if err := h.auth.Logout(c.UserContext(), raw); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "logged_out"}})
}

// ChangePassword handles POST /auth/password/change.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return domain.ErrMissingCredential
	}

	var req dto.PasswordChangeRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	err := h.auth.ChangePassword(c.UserContext(), principal.Account.ID, service.ChangePasswordInput{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "password_changed"}})
}

// RequestPasswordReset handles POST /auth/password/reset/request. The token is
// delivered out of band and the body is the same whether or not the email is
// registered.
func (h *AuthHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	if _, err := h.auth.RequestPasswordReset(c.UserContext(), service.ResetRequestInput{Email: req.Email}); err != nil {
		return err
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{"data": fiber.Map{"status": "reset_requested"}})
}

// ConfirmPasswordReset handles POST /auth/password/reset/confirm.
func (h *AuthHandler) ConfirmPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetConfirmRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	err := h.auth.ConfirmPasswordReset(c.UserContext(), service.ResetConfirmInput{
		Token:       req.Token,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "password_reset"}})
}
