package worker

import (
	"go.uber.org/zap"

	"github.com/campusdesk/service-desk/internal/events"
	"github.com/campusdesk/service-desk/internal/service"
)

// NotificationWorker drains the notification queue in the background.
type NotificationWorker struct {
	dispatcher *events.AsyncDispatcher
	service    *service.NotificationService
	workers    int
	logger     *zap.Logger
}

// NewNotificationWorker wires the notification handlers onto dispatcher.
func NewNotificationWorker(dispatcher *events.AsyncDispatcher, notificationService *service.NotificationService, workers int, logger *zap.Logger) *NotificationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationWorker{
		dispatcher: dispatcher,
		service:    notificationService,
		workers:    workers,
		logger:     logger,
	}
}

// Start registers handlers and launches the worker pool.
func (w *NotificationWorker) Start() {
	if w == nil || w.dispatcher == nil || w.service == nil {
		return
	}
	w.service.RegisterHandlers()
	w.dispatcher.Start(w.workers)
	w.logger.Info("notification worker started", zap.Int("workers", w.workers))
}

// Stop waits for queued notifications to be handled.
func (w *NotificationWorker) Stop() {
	if w == nil || w.dispatcher == nil {
		return
	}
	w.dispatcher.Close()
	w.logger.Info("notification worker stopped")
}
