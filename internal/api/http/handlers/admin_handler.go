package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/campusdesk/service-desk/internal/api/dto"
	"github.com/campusdesk/service-desk/internal/service"
	apperrors "github.com/campusdesk/service-desk/pkg/util/errorutil"
)

// AdminHandler exposes bulk administration, dashboards and feedback review.
type AdminHandler struct {
	tickets  *service.TicketService
	stats    *service.StatsService
	feedback *service.FeedbackService
}

func NewAdminHandler(tickets *service.TicketService, stats *service.StatsService, feedback *service.FeedbackService) *AdminHandler {
	return &AdminHandler{tickets: tickets, stats: stats, feedback: feedback}
}

// BulkUpdate PUT /admin/tickets/bulk.
func (h *AdminHandler) BulkUpdate(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.BulkUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	result, err := h.tickets.BulkTransition(c.UserContext(), actor, service.BulkInput{
		TicketIDs: req.TicketIDs,
		Fields:    req.Updates,
	})
	if err != nil {
		if result != nil {
			return apperrors.WithDetails(err, map[string]any{"matched": result.Matched, "modified": result.Modified})
		}
		return err
	}
	return c.JSON(fiber.Map{"data": dto.BulkUpdateResponse{Matched: result.Matched, Modified: result.Modified}})
}

// Dashboard GET /admin/stats.
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	stats, err := h.stats.Dashboard(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}

// ListFeedback GET /admin/feedback.
func (h *AdminHandler) ListFeedback(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	filter := service.FeedbackListFilter{}
	if raw := c.Query("rating"); raw != "" {
		rating, err := strconv.Atoi(raw)
		if err != nil {
			return apperrors.NewValidationError("rating must be a number", nil)
		}
		filter.Rating = &rating
	}
	filter.Limit, filter.Offset = pagination(c)

	items, err := h.feedback.List(c.UserContext(), actor, filter)
	if err != nil {
		return err
	}
	resp := make([]dto.FeedbackResponse, 0, len(items))
	for i := range items {
		resp = append(resp, feedbackResponse(&items[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// FeedbackStats GET /admin/feedback/stats.
func (h *AdminHandler) FeedbackStats(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	stats, err := h.feedback.Stats(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}

// FeedbackByTicket GET /admin/feedback/:ticketId.
func (h *AdminHandler) FeedbackByTicket(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	feedback, err := h.feedback.GetByTicket(c.UserContext(), actor, c.Params("ticketId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": feedbackResponse(feedback)})
}
