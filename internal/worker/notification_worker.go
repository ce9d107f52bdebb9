package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/metallic-erp/support-hub/internal/service"
)

// StartNotificationWorker drains the notification service's webhook queue in
// the background until the context is cancelled. Delivery failures are logged
// and the event is dropped; the webhook is best-effort.
func StartNotificationWorker(ctx context.Context, notifications *service.NotificationService, logger *zap.Logger) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				logger.Info("notification worker stopped")
				return
			case event := <-notifications.Queue():
				if err := notifications.DeliverWebhook(ctx, event); err != nil {
					logger.Warn("webhook delivery failed",
						zap.String("event_type", string(event.Type)),
						zap.Int64("ticket_id", event.TicketID),
						zap.Error(err))
				}
			}
		}
	}()
}
