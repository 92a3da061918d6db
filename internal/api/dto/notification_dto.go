package dto

import (
	"time"

	"github.com/campusdesk/service-desk/internal/domain"
)

// NotificationResponse is an inbox entry.
type NotificationResponse struct {
	ID        string                  `json:"id"`
	TicketID  string                  `json:"ticket_id,omitempty"`
	Kind      domain.NotificationKind `json:"kind"`
	Title     string                  `json:"title"`
	Message   string                  `json:"message"`
	IsRead    bool                    `json:"is_read"`
	CreatedAt time.Time               `json:"created_at"`
}

// NotificationListResponse is the inbox page plus the unread badge count.
type NotificationListResponse struct {
	Items       []NotificationResponse `json:"items"`
	UnreadCount int                    `json:"unread_count"`
}
