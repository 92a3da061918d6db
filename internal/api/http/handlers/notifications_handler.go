package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/campusdesk/service-desk/internal/api/dto"
	"github.com/campusdesk/service-desk/internal/service"
)

// NotificationsHandler serves the caller's inbox.
type NotificationsHandler struct {
	service *service.NotificationService
}

func NewNotificationsHandler(notificationService *service.NotificationService) *NotificationsHandler {
	return &NotificationsHandler{service: notificationService}
}

// List GET /notifications.
func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	filter := service.NotificationListFilter{}
	if raw := c.Query("is_read"); raw != "" {
		if isRead, err := strconv.ParseBool(raw); err == nil {
			filter.IsRead = &isRead
		}
	}
	filter.Limit, filter.Offset = pagination(c)

	result, err := h.service.List(c.UserContext(), actor, filter)
	if err != nil {
		return err
	}
	items := make([]dto.NotificationResponse, 0, len(result.Items))
	for _, n := range result.Items {
		items = append(items, dto.NotificationResponse{
			ID:        n.ID,
			TicketID:  n.TicketID,
			Kind:      n.Kind,
			Title:     n.Title,
			Message:   n.Message,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": dto.NotificationListResponse{Items: items, UnreadCount: result.UnreadCount}})
}

// MarkRead PUT /notifications/:id/read.
func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	if err := h.service.MarkRead(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// MarkAllRead PUT /notifications/read-all.
func (h *NotificationsHandler) MarkAllRead(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	updated, err := h.service.MarkAllRead(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"updated": updated}})
}

// Delete DELETE /notifications/:id.
func (h *NotificationsHandler) Delete(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
