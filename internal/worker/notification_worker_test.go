package worker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/online-booking/booking-service/internal/config"
	"github.com/online-booking/booking-service/internal/domain"
	"github.com/online-booking/booking-service/internal/events"
	"github.com/online-booking/booking-service/internal/service"
)

func TestStartNotificationWorker(t *testing.T) {
	assert.NotPanics(t, func() { StartNotificationWorker(nil) })

	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)
	dispatcher := events.NewInMemoryDispatcher(logger)
	StartNotificationWorker(service.NewNotificationService(dispatcher, logger, config.NotificationConfig{EmailFrom: "noreply@example.com"}, nil))

	err := dispatcher.Publish(context.Background(), events.NewEvent(events.EventAccountRegistered, "A123",
		events.Actor{ID: "A123", Role: domain.RoleUser}, nil))
	require.NoError(t, err)
	assert.NotZero(t, logs.Len())
}
