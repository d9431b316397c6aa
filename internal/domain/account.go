package domain

import (
	"fmt"
	"strings"
	"time"
)

// Role is the access level bound to an account.
type Role string

const (
	RoleUser  Role = "User"
	RoleAdmin Role = "Admin"
)

// Roles lists every valid role.
var Roles = []Role{RoleUser, RoleAdmin}

// IsValid reports whether r is one of the enumerated roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}

// ParseRole converts untrusted input into a Role. Matching is case-insensitive
// so "admin" and "ADMIN" both resolve to RoleAdmin.
func ParseRole(value string) (Role, error) {
	v := strings.TrimSpace(value)
	for _, role := range Roles {
		if strings.EqualFold(v, string(role)) {
			return role, nil
		}
	}
	return "", fmt.Errorf("%w: unknown role %q", ErrValidation, value)
}

// Profile holds optional free-text fields attached to an account.
type Profile struct {
	Parish      string
	PhoneNumber string
}

// Account is the canonical identity record stored in the users table.
type Account struct {
	ID           string
	FullName     string
	Email        string
	Profile      Profile
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// AccountPatch lists the fields an administrator may edit through the
// generic table editor. Nil fields are left untouched.
type AccountPatch struct {
	FullName    *string
	Email       *string
	Parish      *string
	PhoneNumber *string
}

// IsEmpty reports whether the patch changes nothing.
func (p AccountPatch) IsEmpty() bool {
	return p.FullName == nil && p.Email == nil && p.Parish == nil && p.PhoneNumber == nil
}

// Apply copies the non-nil patch fields onto the account.
func (p AccountPatch) Apply(a *Account) {
	if p.FullName != nil {
		a.FullName = *p.FullName
	}
	if p.Email != nil {
		a.Email = *p.Email
	}
	if p.Parish != nil {
		a.Profile.Parish = *p.Parish
	}
	if p.PhoneNumber != nil {
		a.Profile.PhoneNumber = *p.PhoneNumber
	}
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
