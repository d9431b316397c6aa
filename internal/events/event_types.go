package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/online-booking/booking-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventAccountRegistered  EventType = "account_registered"
	EventAccountLoggedIn    EventType = "account_logged_in"
	EventAccountRoleChanged EventType = "account_role_changed"
	EventAccountUpdated     EventType = "account_updated"
	EventAccountDeleted     EventType = "account_deleted"
	EventPasswordChanged    EventType = "password_changed"

	// EventPasswordResetRequested carries the reset token to the out-of-band
	// delivery channel. Its payload must never be logged or returned.
	EventPasswordResetRequested EventType = "password_reset_requested"
)

// Actor identifies who triggered an event. ID is empty for anonymous flows
// such as registration or password reset.
type Actor struct {
	ID   string      `json:"id,omitempty"`
	Role domain.Role `json:"role,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	AccountID string      `json:"account_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(eventType EventType, accountID string, actor Actor, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		AccountID: accountID,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// AccountRoleChangedPayload payload.
type AccountRoleChangedPayload struct {
	OldRole domain.Role `json:"old_role"`
	NewRole domain.Role `json:"new_role"`
}

// AccountUpdatedPayload lists the columns an admin changed.
type AccountUpdatedPayload struct {
	Fields []string `json:"fields"`
}

// PasswordChangedPayload payload.
type PasswordChangedPayload struct {
	Reset bool `json:"reset"`
}

// PasswordResetRequestedPayload holds the secret reset token.
type PasswordResetRequestedPayload struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
