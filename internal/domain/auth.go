package domain

import "time"

// CredentialKind differentiates signed tokens from server-side sessions.
type CredentialKind string

const (
	CredentialKindToken   CredentialKind = "jwt"
	CredentialKindSession CredentialKind = "session"
)

// Credential is a bearer credential minted at login.
type Credential struct {
	Kind       CredentialKind
	Value      string
	ID         string
	Identifier string
	Role       Role
	IssuedAt   time.Time
	ExpiresAt  time.Time
}

// ExpiredAt reports whether the credential is no longer valid at now.
func (c *Credential) ExpiredAt(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}
