package worker

import (
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/service"
)

// StartNotificationWorker registers notification handlers and, when
// configured, the Kafka forwarder.
func StartNotificationWorker(notificationService *service.NotificationService, dispatcher events.Dispatcher, kafka *events.KafkaPublisher) {
	if notificationService != nil {
		notificationService.RegisterHandlers()
	}
	if kafka != nil && dispatcher != nil {
		kafka.Register(dispatcher)
	}
}
