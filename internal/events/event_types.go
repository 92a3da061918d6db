package events

import (
	"time"

	"github.com/campusdesk/service-desk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated         EventType = "ticket_created"
	EventTicketStatusChanged   EventType = "ticket_status_changed"
	EventTicketDeleted         EventType = "ticket_deleted"
	EventNotificationRequested EventType = "notification_requested"
	EventFeedbackSubmitted     EventType = "feedback_submitted"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string       `json:"id"`
	Type      EventType    `json:"type"`
	TicketID  string       `json:"ticket_id"`
	Actor     domain.Actor `json:"actor"`
	Timestamp time.Time    `json:"timestamp"`
	Payload   interface{}  `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	HumanID  string                `json:"human_id"`
	OwnerID  string                `json:"owner_id"`
	Title    string                `json:"title"`
	Category domain.TicketCategory `json:"category"`
	Priority domain.TicketPriority `json:"priority"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OwnerID   string              `json:"owner_id"`
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Comment   string              `json:"comment,omitempty"`
}

// NotificationRequestedPayload carries a request for the notification pipeline.
type NotificationRequestedPayload struct {
	Request domain.NotificationRequest `json:"request"`
}

// FeedbackSubmittedPayload payload.
type FeedbackSubmittedPayload struct {
	FeedbackID string `json:"feedback_id"`
	Rating     int    `json:"rating"`
}
