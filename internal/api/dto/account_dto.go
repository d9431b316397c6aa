package dto

import (
	"time"

	"github.com/online-booking/booking-service/internal/domain"
	"github.com/online-booking/booking-service/internal/service"
)

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	IDNumber    string `json:"id_number"`
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Parish      string `json:"parish"`
	PhoneNumber string `json:"phone_number"`
}

// ToInput converts the payload for the auth service.
func (r RegisterRequest) ToInput() service.RegisterInput {
	return service.RegisterInput{
		IDNumber:    r.IDNumber,
		FullName:    r.FullName,
		Email:       r.Email,
		Password:    r.Password,
		Parish:      r.Parish,
		PhoneNumber: r.PhoneNumber,
	}
}

// LoginRequest payload for login.
type LoginRequest struct {
	IDNumber string `json:"id_number"`
	Password string `json:"password"`
}

// ToInput converts the payload for the auth service.
func (r LoginRequest) ToInput() service.LoginInput {
	return service.LoginInput{IDNumber: r.IDNumber, Password: r.Password}
}

// PasswordResetRequest payload for initiating reset.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirmRequest payload for confirming reset.
type PasswordResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// PasswordChangeRequest payload for authenticated password changes.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// RoleUpdateRequest payload for PUT /admin/accounts/:id/role.
type RoleUpdateRequest struct {
	Role string `json:"role"`
}

// CreateAccountRequest payload for admin-created accounts.
type CreateAccountRequest struct {
	RegisterRequest
	Role string `json:"role"`
}

// ToInput converts the payload for the admin service.
func (r CreateAccountRequest) ToInput() service.CreateAccountInput {
	return service.CreateAccountInput{RegisterInput: r.RegisterRequest.ToInput(), Role: r.Role}
}

// AccountResponse is the public view of an account. It never carries the
// password hash.
type AccountResponse struct {
	IDNumber         string    `json:"id_number"`
	FullName         string    `json:"full_name"`
	Email            string    `json:"email"`
	Parish           string    `json:"parish"`
	PhoneNumber      string    `json:"phone_number"`
	Role             string    `json:"role"`
	RegistrationDate time.Time `json:"registration_date"`
}

// NewAccountResponse maps a domain account.
func NewAccountResponse(a *domain.Account) AccountResponse {
	return AccountResponse{
		IDNumber:         a.ID,
		FullName:         a.FullName,
		Email:            a.Email,
		Parish:           a.Profile.Parish,
		PhoneNumber:      a.Profile.PhoneNumber,
		Role:             a.Role.String(),
		RegistrationDate: a.CreatedAt,
	}
}

// AuthResponse standard response for login.
type AuthResponse struct {
	Credential string          `json:"credential"`
	TokenType  string          `json:"token_type"`
	Kind       string          `json:"kind"`
	ExpiresAt  time.Time       `json:"expires_at"`
	Role       string          `json:"role"`
	Account    AccountResponse `json:"account"`
}

// NewAuthResponse maps a login result.
func NewAuthResponse(res *service.LoginResult) AuthResponse {
	return AuthResponse{
		Credential: res.Credential.Value,
		TokenType:  "Bearer",
		Kind:       string(res.Credential.Kind),
		ExpiresAt:  res.Credential.ExpiresAt,
		Role:       res.Credential.Role.String(),
		Account:    NewAccountResponse(res.Account),
	}
}
