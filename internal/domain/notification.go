package domain

import "time"

// NotificationKind categorizes in-app notifications.
type NotificationKind string

const (
	NotificationStatusUpdate       NotificationKind = "status_update"
	NotificationAssignment         NotificationKind = "assignment"
	NotificationResolutionPending  NotificationKind = "resolution_pending"
	NotificationResolutionAccepted NotificationKind = "resolution_accepted"
	NotificationResolutionRejected NotificationKind = "resolution_rejected"
	NotificationFeedbackRequest    NotificationKind = "feedback_request"
)

// NotificationRequest is what the workflow asks the dispatcher to deliver.
type NotificationRequest struct {
	RecipientID string
	TicketID    string
	Kind        NotificationKind
	Title       string
	Message     string
}

// Notification is a persisted in-app message for a single recipient.
type Notification struct {
	ID          string
	RecipientID string
	TicketID    string
	Kind        NotificationKind
	Title       string
	Message     string
	IsRead      bool
	CreatedAt   time.Time
}
