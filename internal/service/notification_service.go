package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campusdesk/service-desk/internal/config"
	"github.com/campusdesk/service-desk/internal/domain"
	"github.com/campusdesk/service-desk/internal/events"
	"github.com/campusdesk/service-desk/internal/observability"
	"github.com/campusdesk/service-desk/internal/repository"
	apperrors "github.com/campusdesk/service-desk/pkg/util/errorutil"
)

const (
	maxNotificationTitle   = 100
	maxNotificationMessage = 200
)

// Notifier delivers a notification request. Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, req domain.NotificationRequest) error
}

// NotificationService queues notification requests, persists them into the
// recipient's inbox and fans them out to the configured channels.
type NotificationService struct {
	dispatcher    events.Dispatcher
	notifications repository.NotificationRepository
	webhook       *resty.Client
	logger        *zap.Logger
	metrics       *observability.Metrics
	cfg           config.NotificationConfig
	clock         Clock
}

// NotificationDependencies bundles collaborators for the notification service.
type NotificationDependencies struct {
	Dispatcher       events.Dispatcher
	NotificationRepo repository.NotificationRepository
	Logger           *zap.Logger
	Metrics          *observability.Metrics
	Config           config.NotificationConfig
	// WebhookClient overrides the client built from Config.
	WebhookClient *resty.Client
	Clock         Clock
}

// NotificationListFilter narrows an inbox listing.
type NotificationListFilter struct {
	IsRead *bool
	Limit  int
	Offset int
}

// NotificationPage is an inbox listing with the recipient's unread count.
type NotificationPage struct {
	Items       []domain.Notification
	UnreadCount int
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	client := deps.WebhookClient
	if client == nil && strings.TrimSpace(deps.Config.WebhookURL) != "" {
		client = resty.New().
			SetTimeout(deps.Config.WebhookTimeout()).
			SetHeader("Content-Type", "application/json")
	}
	return &NotificationService{
		dispatcher:    deps.Dispatcher,
		notifications: deps.NotificationRepo,
		webhook:       client,
		logger:        loggerOrNop(deps.Logger),
		metrics:       deps.Metrics,
		cfg:           deps.Config,
		clock:         deps.Clock,
	}
}

// RegisterHandlers subscribes inbox delivery to the notification queue.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventNotificationRequested, n.handleNotificationRequested)
}

// RegisterLifecycleHandlers subscribes the email channel and the event log to
// the ticket lifecycle bus.
func (n *NotificationService) RegisterLifecycleHandlers(bus events.Dispatcher) {
	if bus == nil {
		return
	}
	bus.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	bus.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
	bus.Subscribe(events.EventTicketDeleted, n.logLifecycleEvent)
	bus.Subscribe(events.EventFeedbackSubmitted, n.logLifecycleEvent)
}

// Notify queues req for delivery. It never blocks; a full queue drops the request.
func (n *NotificationService) Notify(ctx context.Context, req domain.NotificationRequest) error {
	if strings.TrimSpace(req.RecipientID) == "" {
		return apperrors.NewValidationError("notification recipient is required", nil)
	}
	req.Title = truncate(req.Title, maxNotificationTitle)
	req.Message = truncate(req.Message, maxNotificationMessage)

	return publishEvent(ctx, n.dispatcher, n.logger, n.clock, events.Event{
		Type:     events.EventNotificationRequested,
		TicketID: req.TicketID,
		Payload:  events.NotificationRequestedPayload{Request: req},
	})
}

func (n *NotificationService) handleNotificationRequested(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.NotificationRequestedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	req := payload.Request

	notification := &domain.Notification{
		ID:          uuid.NewString(),
		RecipientID: req.RecipientID,
		TicketID:    req.TicketID,
		Kind:        req.Kind,
		Title:       req.Title,
		Message:     req.Message,
		CreatedAt:   n.clock.now(),
	}
	err := n.notifications.Create(ctx, notification)
	n.metrics.RecordNotification(string(req.Kind), err)
	if err != nil {
		return fmt.Errorf("persist notification: %w", err)
	}

	n.logger.Info("NotificationDelivered",
		zap.String("notification_id", notification.ID),
		zap.String("recipient_id", notification.RecipientID),
		zap.String("ticket_id", notification.TicketID),
		zap.String("kind", string(notification.Kind)))

	if err := n.sendWebhook(ctx, notification); err != nil {
		n.logger.Warn("webhook delivery failed", zap.String("notification_id", notification.ID), zap.Error(err))
	}
	return nil
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	n.logger.Info("TicketCreated", zap.String("ticket_id", event.TicketID), zap.String("human_id", payload.HumanID))
	n.sendEmailNotificationStub(ctx, payload.OwnerID, event)
	return nil
}

func (n *NotificationService) handleTicketStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	n.logger.Info("TicketStatusChanged",
		zap.String("ticket_id", event.TicketID),
		zap.String("actor_id", event.Actor.ID),
		zap.String("old_status", string(payload.OldStatus)),
		zap.String("new_status", string(payload.NewStatus)))
	n.sendEmailNotificationStub(ctx, payload.OwnerID, event)
	return nil
}

func (n *NotificationService) logLifecycleEvent(_ context.Context, event events.Event) error {
	n.logger.Info("TicketEvent",
		zap.String("event_type", string(event.Type)),
		zap.String("ticket_id", event.TicketID),
		zap.String("actor_id", event.Actor.ID))
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, recipientID string, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("recipient_id", recipientID),
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhook(ctx context.Context, notification *domain.Notification) error {
	if n.webhook == nil || strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return nil
	}
	resp, err := n.webhook.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"id":           notification.ID,
			"recipient_id": notification.RecipientID,
			"ticket_id":    notification.TicketID,
			"kind":         notification.Kind,
			"title":        notification.Title,
			"message":      notification.Message,
			"created_at":   notification.CreatedAt,
		}).
		Post(n.cfg.WebhookURL)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("webhook responded %d", resp.StatusCode())
	}
	return nil
}

// List returns the actor's notifications, newest first.
func (n *NotificationService) List(ctx context.Context, actor domain.Actor, filter NotificationListFilter) (*NotificationPage, error) {
	items, err := n.notifications.ListByRecipient(ctx, actor.ID, repository.NotificationFilter{
		IsRead: filter.IsRead,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
	if err != nil {
		return nil, mapRepoError(err, "notification")
	}
	unread, err := n.notifications.CountUnread(ctx, actor.ID)
	if err != nil {
		return nil, mapRepoError(err, "notification")
	}
	return &NotificationPage{Items: items, UnreadCount: unread}, nil
}

// MarkRead flags one of the actor's notifications as read.
func (n *NotificationService) MarkRead(ctx context.Context, actor domain.Actor, id string) error {
	if _, err := n.ownedNotification(ctx, actor, id); err != nil {
		return err
	}
	return mapRepoError(n.notifications.MarkRead(ctx, id), "notification")
}

// MarkAllRead flags every unread notification of the actor and returns how many changed.
func (n *NotificationService) MarkAllRead(ctx context.Context, actor domain.Actor) (int64, error) {
	updated, err := n.notifications.MarkAllRead(ctx, actor.ID)
	if err != nil {
		return 0, mapRepoError(err, "notification")
	}
	return updated, nil
}

// Delete removes one of the actor's notifications.
func (n *NotificationService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	if _, err := n.ownedNotification(ctx, actor, id); err != nil {
		return err
	}
	return mapRepoError(n.notifications.Delete(ctx, id), "notification")
}

func (n *NotificationService) ownedNotification(ctx context.Context, actor domain.Actor, id string) (*domain.Notification, error) {
	notification, err := n.notifications.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "notification")
	}
	if notification.RecipientID != actor.ID {
		return nil, apperrors.NewForbidden("notification belongs to another user")
	}
	return notification, nil
}

// IsQueueFull reports whether err means the request was dropped by a saturated queue.
func IsQueueFull(err error) bool {
	return errors.Is(err, events.ErrQueueFull)
}
