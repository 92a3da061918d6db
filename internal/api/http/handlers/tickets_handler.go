package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/campusdesk/service-desk/internal/api/dto"
	"github.com/campusdesk/service-desk/internal/auth"
	"github.com/campusdesk/service-desk/internal/domain"
	"github.com/campusdesk/service-desk/internal/repository"
	"github.com/campusdesk/service-desk/internal/service"
	apperrors "github.com/campusdesk/service-desk/pkg/util/errorutil"
)

// TicketsHandler manages ticket lifecycle endpoints.
type TicketsHandler struct {
	tickets  *service.TicketService
	feedback *service.FeedbackService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, feedbackService *service.FeedbackService) *TicketsHandler {
	return &TicketsHandler{tickets: ticketService, feedback: feedbackService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.tickets.CreateTicket(c.UserContext(), actor, service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Category:    req.Category,
		Priority:    req.Priority,
		Attachments: attachmentsFromRequest(req.Attachments),
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	page, err := h.tickets.ListTickets(c.UserContext(), actor, parseTicketQuery(c))
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, ticketResponse(&page.Items[i]))
	}
	return c.JSON(fiber.Map{"data": dto.TicketListResponse{
		Items:  items,
		Total:  page.Total,
		Limit:  page.Limit,
		Offset: page.Offset,
	}})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	ticket, err := h.tickets.GetTicket(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// DeleteTicket DELETE /tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	if err := h.tickets.DeleteTicket(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// UpdateStatus PUT /tickets/:id/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.tickets.Transition(c.UserContext(), actor, c.Params("id"), service.TransitionInput{
		Status:          req.Status,
		AdminRemarks:    req.AdminRemarks,
		ResolutionNotes: req.ResolutionNotes,
		AssigneeID:      req.AssigneeID,
		WorkNote:        req.WorkNote,
		ProofFiles:      attachmentsFromRequest(req.ProofFiles),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// ConfirmResolution POST /tickets/:id/confirm.
func (h *TicketsHandler) ConfirmResolution(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.ConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.tickets.ConfirmResolution(c.UserContext(), actor, c.Params("id"), service.ConfirmAction(strings.ToLower(strings.TrimSpace(req.Action))))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// SubmitFeedback POST /tickets/:id/feedback.
func (h *TicketsHandler) SubmitFeedback(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.FeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	feedback, err := h.feedback.SubmitFeedback(c.UserContext(), actor, c.Params("id"), service.FeedbackInput{
		Rating:              req.Rating,
		ServiceQuality:      req.ServiceQuality,
		ResponseTime:        req.ResponseTime,
		OverallSatisfaction: req.OverallSatisfaction,
		Comments:            req.Comments,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": feedbackResponse(feedback)})
}

func requireActor(c *fiber.Ctx) (domain.Actor, error) {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return domain.Actor{}, apperrors.NewUnauthorized("authentication required")
	}
	return actor, nil
}

func parseTicketQuery(c *fiber.Ctx) service.TicketListFilter {
	filter := service.TicketListFilter{}
	for _, part := range splitList(c.Query("status")) {
		filter.Statuses = append(filter.Statuses, domain.TicketStatus(part))
	}
	for _, part := range splitList(c.Query("category")) {
		filter.Categories = append(filter.Categories, domain.TicketCategory(part))
	}
	for _, part := range splitList(c.Query("priority")) {
		filter.Priorities = append(filter.Priorities, domain.TicketPriority(part))
	}
	if assignee := strings.TrimSpace(c.Query("assignee_id")); assignee != "" {
		filter.AssigneeID = &assignee
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		filter.SearchTerm = &search
	}
	filter.CreatedFrom = parseTime(c.Query("created_from"))
	filter.CreatedTo = parseTime(c.Query("created_to"))
	filter.Limit, filter.Offset = pagination(c)
	return filter
}

func splitList(val string) []string {
	if val == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

// maxPage bounds the page query so the derived offset cannot overflow.
const maxPage = 100000

func pagination(c *fiber.Ctx) (limit, offset int) {
	return paginate(c.Query("page"), c.Query("limit"))
}

// paginate turns 1-based page and limit query values into limit and offset.
func paginate(pageVal, limitVal string) (limit, offset int) {
	page := parseInt(pageVal, 1)
	if page > maxPage {
		page = maxPage
	}
	limit, _ = repository.Page(parseInt(limitVal, 0), 0)
	return limit, (page - 1) * limit
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func attachmentsFromRequest(reqs []dto.AttachmentRequest) []domain.Attachment {
	if len(reqs) == 0 {
		return nil
	}
	out := make([]domain.Attachment, 0, len(reqs))
	for _, a := range reqs {
		out = append(out, domain.Attachment{
			Filename:     a.Filename,
			OriginalName: a.OriginalName,
			MimeType:     a.MimeType,
			Size:         a.Size,
			Path:         a.Path,
		})
	}
	return out
}

func attachmentResponse(a domain.Attachment) dto.AttachmentResponse {
	return dto.AttachmentResponse{
		Filename:     a.Filename,
		OriginalName: a.OriginalName,
		MimeType:     a.MimeType,
		Size:         a.Size,
		Path:         a.Path,
		UploadedAt:   a.UploadedAt,
	}
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	resp := dto.TicketResponse{
		ID:                    ticket.ID,
		HumanID:               ticket.HumanID,
		OwnerID:               ticket.OwnerID,
		AssigneeID:            ticket.AssigneeID,
		Title:                 ticket.Title,
		Description:           ticket.Description,
		Location:              ticket.Location,
		Category:              ticket.Category,
		Priority:              ticket.Priority,
		Status:                ticket.Status,
		AISuggestion:          ticket.Suggestion,
		Attachments:           make([]dto.AttachmentResponse, 0, len(ticket.Attachments)),
		AdminRemarks:          ticket.AdminRemarks,
		ResolutionNotes:       ticket.ResolutionNotes,
		IsLocked:              ticket.IsLocked,
		ResolvedAt:            ticket.ResolvedAt,
		ClosedAt:              ticket.ClosedAt,
		ResolutionTimeMinutes: ticket.ResolutionTimeMinutes,
		ReopenedCount:         ticket.ReopenedCount,
		WorkNotes:             make([]dto.WorkNoteResponse, 0, len(ticket.WorkNotes)),
		ProofOfWork:           make([]dto.ProofOfWorkResponse, 0, len(ticket.ProofOfWork)),
		ActivityLog:           make([]dto.ActivityResponse, 0, len(ticket.ActivityLog)),
		CreatedAt:             ticket.CreatedAt,
		UpdatedAt:             ticket.UpdatedAt,
	}
	for _, a := range ticket.Attachments {
		resp.Attachments = append(resp.Attachments, attachmentResponse(a))
	}
	for _, n := range ticket.WorkNotes {
		resp.WorkNotes = append(resp.WorkNotes, dto.WorkNoteResponse{Note: n.Note, AuthorID: n.AuthorID, AddedAt: n.AddedAt})
	}
	for _, p := range ticket.ProofOfWork {
		resp.ProofOfWork = append(resp.ProofOfWork, dto.ProofOfWorkResponse{
			AttachmentResponse: attachmentResponse(p.Attachment),
			UploadedBy:         p.AuthorID,
		})
	}
	for _, e := range ticket.ActivityLog {
		resp.ActivityLog = append(resp.ActivityLog, dto.ActivityResponse{
			Action:      e.Action,
			PerformedBy: e.PerformedBy,
			Timestamp:   e.Timestamp,
			Details:     e.Details,
		})
	}
	return resp
}

func feedbackResponse(f *domain.Feedback) dto.FeedbackResponse {
	return dto.FeedbackResponse{
		ID:                  f.ID,
		TicketID:            f.TicketID,
		AuthorID:            f.AuthorID,
		Rating:              f.Rating,
		ServiceQuality:      f.ServiceQuality,
		ResponseTime:        f.ResponseTime,
		OverallSatisfaction: f.OverallSatisfaction,
		Comments:            f.Comments,
		CreatedAt:           f.CreatedAt,
	}
}
