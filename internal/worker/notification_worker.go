package worker

import (
	"github.com/online-booking/booking-service/internal/service"
)

// StartNotificationWorker subscribes the account event handlers. Delivery is
// synchronous, so session revocation on role or password changes completes
// before the triggering request returns.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}
