package worker

import (
	"github.com/spec-kit/credit-market/internal/events"
	"github.com/spec-kit/credit-market/internal/service"
)

// StartEventWorkers registers the event subscribers.
func StartEventWorkers(dispatcher events.Dispatcher, notifications *service.NotificationService, trust *service.TrustService) {
	if notifications != nil {
		notifications.RegisterHandlers()
	}
	if trust != nil {
		trust.RegisterHandlers(dispatcher)
	}
}
