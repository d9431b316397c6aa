package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/online-booking/booking-service/internal/config"
	"github.com/online-booking/booking-service/internal/events"
)

// SessionRevoker drops every live session of an account.
type SessionRevoker interface {
	RevokeAll(ctx context.Context, identifier string) (int, error)
}

// NotificationService reacts to account lifecycle events: it logs them,
// emits notification stubs and, when sessions are server-side, revokes the
// sessions of accounts whose role, password or existence changed.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
	sessions   SessionRevoker
}

// NewNotificationService creates the service. sessions may be nil in JWT mode.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig, sessions SessionRevoker) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
		sessions:   sessions,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventAccountRegistered, n.handleAccountRegistered)
	n.dispatcher.Subscribe(events.EventAccountLoggedIn, n.handleAccountLoggedIn)
	n.dispatcher.Subscribe(events.EventAccountUpdated, n.handleAccountUpdated)
	n.dispatcher.Subscribe(events.EventAccountRoleChanged, n.handleAccountRoleChanged)
	n.dispatcher.Subscribe(events.EventAccountDeleted, n.handleAccountDeleted)
	n.dispatcher.Subscribe(events.EventPasswordChanged, n.handlePasswordChanged)
	n.dispatcher.Subscribe(events.EventPasswordResetRequested, n.handlePasswordResetRequested)
}

func (n *NotificationService) handleAccountRegistered(ctx context.Context, event events.Event) error {
	n.logger.Info("AccountRegistered", zap.String("account_id", event.AccountID), zap.String("actor", event.Actor.ID))
	n.sendEmailNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleAccountLoggedIn(_ context.Context, event events.Event) error {
	n.logger.Debug("AccountLoggedIn", zap.String("account_id", event.AccountID))
	return nil
}

func (n *NotificationService) handleAccountUpdated(ctx context.Context, event events.Event) error {
	n.logger.Info("AccountUpdated", zap.String("account_id", event.AccountID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleAccountRoleChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("AccountRoleChanged", zap.String("account_id", event.AccountID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return n.revokeSessions(ctx, event)
}

func (n *NotificationService) handleAccountDeleted(ctx context.Context, event events.Event) error {
	n.logger.Info("AccountDeleted", zap.String("account_id", event.AccountID), zap.String("actor", event.Actor.ID))
	n.sendWebhookNotificationStub(ctx, event)
	return n.revokeSessions(ctx, event)
}

func (n *NotificationService) handlePasswordChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("PasswordChanged", zap.String("account_id", event.AccountID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	return n.revokeSessions(ctx, event)
}

// handlePasswordResetRequested hands the token to the mail channel. The token
// stays out of every log line.
func (n *NotificationService) handlePasswordResetRequested(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.PasswordResetRequestedPayload)
	if !ok || payload.Token == "" {
		return fmt.Errorf("password reset event for %s has no token", event.AccountID)
	}
	n.logger.Info("PasswordResetRequested",
		zap.String("account_id", event.AccountID),
		zap.Time("expires_at", payload.ExpiresAt))
	n.sendEmailNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) revokeSessions(ctx context.Context, event events.Event) error {
	if n.sessions == nil {
		return nil
	}
	count, err := n.sessions.RevokeAll(ctx, event.AccountID)
	if err != nil {
		return err
	}
	n.logger.Info("sessions revoked",
		zap.String("account_id", event.AccountID),
		zap.String("event_type", string(event.Type)),
		zap.Int("count", count))
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("account_id", event.AccountID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("account_id", event.AccountID),
		zap.String("event_type", string(event.Type)))
}
