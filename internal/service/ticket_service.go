package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campusdesk/service-desk/internal/auth"
	"github.com/campusdesk/service-desk/internal/classifier"
	"github.com/campusdesk/service-desk/internal/domain"
	"github.com/campusdesk/service-desk/internal/events"
	"github.com/campusdesk/service-desk/internal/observability"
	"github.com/campusdesk/service-desk/internal/repository"
	apperrors "github.com/campusdesk/service-desk/pkg/util/errorutil"
)

const (
	minTitleLength       = 5
	maxTitleLength       = 100
	minDescriptionLength = 10
	maxDescriptionLength = 500
	minLocationLength    = 3
	maxLocationLength    = 100
	maxAdminRemarks      = 300
	maxResolutionNotes   = 500
	maxWorkNote          = 500
	humanIDAttempts      = 3
)

// ConfirmAction is the requester's verdict on a resolution.
type ConfirmAction string

const (
	ConfirmAccept ConfirmAction = "accept"
	ConfirmReject ConfirmAction = "reject"
)

// Bulk update field names.
const (
	BulkFieldStatus       = "status"
	BulkFieldPriority     = "priority"
	BulkFieldAssigneeID   = "assigneeId"
	BulkFieldAdminRemarks = "adminRemarks"
)

var bulkAllowedFields = map[string]bool{
	BulkFieldStatus:       true,
	BulkFieldPriority:     true,
	BulkFieldAssigneeID:   true,
	BulkFieldAdminRemarks: true,
}

// StatsInvalidator drops cached aggregates after a ticket write.
type StatsInvalidator interface {
	Invalidate(ctx context.Context)
}

// TicketService runs the ticket lifecycle: creation, queries, transitions,
// resolution confirmation and bulk administration.
type TicketService struct {
	tickets    repository.TicketRepository
	policy     *auth.Policy
	notifier   Notifier
	lifecycle  events.Dispatcher
	classifier classifier.Classifier
	stats      StatsInvalidator
	logger     *zap.Logger
	metrics    *observability.Metrics
	clock      Clock
	humanID    func(time.Time) string
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	Policy     *auth.Policy
	Notifier   Notifier
	// Lifecycle receives ticket events synchronously. Keep it apart from the
	// notification queue so lifecycle events never take delivery slots.
	Lifecycle  events.Dispatcher
	Classifier classifier.Classifier
	Stats      StatsInvalidator
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	Clock      Clock
}

// TicketCreateInput describes ticket creation payload. Category and priority
// fall back to the classifier suggestion when empty.
type TicketCreateInput struct {
	Title       string
	Description string
	Location    string
	Category    domain.TicketCategory
	Priority    domain.TicketPriority
	Attachments []domain.Attachment
}

// TicketListFilter describes listing filters. Visibility is narrowed by role.
type TicketListFilter struct {
	Statuses    []domain.TicketStatus
	Categories  []domain.TicketCategory
	Priorities  []domain.TicketPriority
	AssigneeID  *string
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// TicketPage is one page of a ticket listing.
type TicketPage struct {
	Items  []domain.Ticket
	Total  int
	Limit  int
	Offset int
}

// TransitionInput is the payload of a status change.
type TransitionInput struct {
	Status          domain.TicketStatus
	AdminRemarks    *string
	ResolutionNotes *string
	AssigneeID      *string
	WorkNote        string
	ProofFiles      []domain.Attachment
}

// BulkInput applies Fields to every ticket in TicketIDs.
type BulkInput struct {
	TicketIDs []string
	Fields    map[string]any
}

// BulkResult reports how many tickets were found and how many changed.
type BulkResult struct {
	Matched  int `json:"matched"`
	Modified int `json:"modified"`
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	policy := deps.Policy
	if policy == nil {
		policy = auth.DefaultPolicy()
	}
	cls := deps.Classifier
	if cls == nil {
		cls = classifier.Keyword{}
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		policy:     policy,
		notifier:   deps.Notifier,
		lifecycle:  deps.Lifecycle,
		classifier: cls,
		stats:      deps.Stats,
		logger:     loggerOrNop(deps.Logger),
		metrics:    deps.Metrics,
		clock:      deps.Clock,
		humanID:    generateHumanID,
	}
}

// CreateTicket files a new pending ticket for the actor.
func (s *TicketService) CreateTicket(ctx context.Context, actor domain.Actor, input TicketCreateInput) (*domain.Ticket, error) {
	if err := s.policy.Require(actor, auth.ActionCreateTicket); err != nil {
		return nil, err
	}
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.Location = strings.TrimSpace(input.Location)
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}

	suggestion := s.classifier.Suggest(input.Title, input.Description)
	if input.Category == "" {
		input.Category = suggestion.Category
	}
	if input.Priority == "" {
		input.Priority = suggestion.Priority
	}

	now := s.clock.now()
	ticket := &domain.Ticket{
		ID:          uuid.NewString(),
		HumanID:     s.humanID(now),
		OwnerID:     actor.ID,
		Title:       input.Title,
		Description: input.Description,
		Location:    input.Location,
		Category:    input.Category,
		Priority:    input.Priority,
		Status:      domain.TicketStatusPending,
		Suggestion:  &suggestion,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, a := range input.Attachments {
		if a.UploadedAt.IsZero() {
			a.UploadedAt = now
		}
		ticket.Attachments = append(ticket.Attachments, a)
	}

	if err := s.insert(ctx, ticket); err != nil {
		return nil, mapRepoError(err, "ticket")
	}
	s.invalidateStats(ctx)
	_ = publishEvent(ctx, s.lifecycle, s.logger, s.clock, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload: events.TicketCreatedPayload{
			HumanID:  ticket.HumanID,
			OwnerID:  ticket.OwnerID,
			Title:    ticket.Title,
			Category: ticket.Category,
			Priority: ticket.Priority,
		},
	})
	s.logger.Info("ticket created",
		zap.String("ticket_id", ticket.ID),
		zap.String("human_id", ticket.HumanID),
		zap.String("owner_id", ticket.OwnerID))
	return ticket, nil
}

func validateCreateInput(input TicketCreateInput) error {
	details := map[string]any{}
	checkLength(details, "title", input.Title, minTitleLength, maxTitleLength)
	checkLength(details, "description", input.Description, minDescriptionLength, maxDescriptionLength)
	checkLength(details, "location", input.Location, minLocationLength, maxLocationLength)
	if input.Category != "" && !input.Category.Valid() {
		details["category"] = "unknown category"
	}
	if input.Priority != "" && !input.Priority.Valid() {
		details["priority"] = "unknown priority"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid ticket", details)
	}
	return nil
}

func checkLength(details map[string]any, field, value string, min, max int) {
	n := len([]rune(value))
	if n < min || n > max {
		details[field] = fmt.Sprintf("must be between %d and %d characters", min, max)
	}
}

// GetTicket returns a ticket the actor may see.
func (s *TicketService) GetTicket(ctx context.Context, actor domain.Actor, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(actor, auth.ActionReadTicket, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

// ListTickets lists the tickets visible to the actor: requesters see their
// own, technicians their assignments, admins everything.
func (s *TicketService) ListTickets(ctx context.Context, actor domain.Actor, filter TicketListFilter) (*TicketPage, error) {
	limit, offset := repository.Page(filter.Limit, filter.Offset)
	repoFilter := repository.TicketFilter{
		Statuses:    filter.Statuses,
		Categories:  filter.Categories,
		Priorities:  filter.Priorities,
		SearchTerm:  filter.SearchTerm,
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
		Limit:       limit,
		Offset:      offset,
	}
	switch s.policy.ScopeFor(actor.Role, auth.ActionReadTicket) {
	case auth.ScopeOwn:
		repoFilter.OwnerID = &actor.ID
	case auth.ScopeAssigned:
		repoFilter.AssigneeID = &actor.ID
	case auth.ScopeAll:
		repoFilter.AssigneeID = filter.AssigneeID
	default:
		return nil, apperrors.NewForbidden("role " + string(actor.Role) + " may not list tickets")
	}

	items, err := s.tickets.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, mapRepoError(err, "ticket")
	}
	total, err := s.tickets.Count(ctx, repoFilter)
	if err != nil {
		return nil, mapRepoError(err, "ticket")
	}
	return &TicketPage{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}

// DeleteTicket removes a pending ticket. Only the owner or an admin may do so.
func (s *TicketService) DeleteTicket(ctx context.Context, actor domain.Actor, ticketID string) error {
	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return err
	}
	if ticket.Status != domain.TicketStatusPending {
		return apperrors.NewValidationError("only pending requests can be deleted", map[string]any{"status": ticket.Status})
	}
	if err := s.policy.Authorize(actor, auth.ActionDeleteTicket, ticket); err != nil {
		return err
	}
	if err := s.tickets.Delete(ctx, ticket.ID); err != nil {
		return mapRepoError(err, "ticket")
	}
	s.invalidateStats(ctx)
	_ = publishEvent(ctx, s.lifecycle, s.logger, s.clock, events.Event{
		Type:     events.EventTicketDeleted,
		TicketID: ticket.ID,
		Actor:    actor,
	})
	return nil
}

// Transition moves a ticket along one edge of the state machine and applies
// the payload, audit entry and derived fields in a single write.
func (s *TicketService) Transition(ctx context.Context, actor domain.Actor, ticketID string, input TransitionInput) (*domain.Ticket, error) {
	if err := validateTransitionInput(&input); err != nil {
		return nil, err
	}
	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	oldStatus := ticket.Status
	if ticket.IsLocked {
		err := apperrors.NewLocked("ticket is locked and cannot be modified")
		s.metrics.RecordTransition(string(oldStatus), string(input.Status), err)
		return nil, err
	}
	edge := domain.Edge{From: oldStatus, To: input.Status}
	if !domain.IsValidTransition(edge.From, edge.To) {
		err := apperrors.NewInvalidTransition(string(edge.From), string(edge.To))
		s.metrics.RecordTransition(string(edge.From), string(edge.To), err)
		return nil, err
	}
	assigning := input.AssigneeID != nil
	if err := s.policy.AuthorizeTransition(actor, ticket, edge, assigning); err != nil {
		s.metrics.RecordTransition(string(edge.From), string(edge.To), err)
		return nil, err
	}

	now := s.clock.now()
	previousAssignee := ticket.AssigneeID
	if input.AdminRemarks != nil {
		ticket.AdminRemarks = *input.AdminRemarks
	}
	if input.ResolutionNotes != nil {
		ticket.ResolutionNotes = *input.ResolutionNotes
	}
	if assigning {
		assignee := *input.AssigneeID
		ticket.AssigneeID = &assignee
	}
	if input.WorkNote != "" {
		ticket.AddWorkNote(input.WorkNote, actor.ID, now)
	}
	ticket.AddProofOfWork(input.ProofFiles, actor.ID, now)

	ticket.Status = input.Status
	switch input.Status {
	case domain.TicketStatusResolved:
		ticket.MarkResolved(now)
	case domain.TicketStatusClosed:
		ticket.MarkClosed(now)
	case domain.TicketStatusReopened:
		ticket.MarkReopened()
	}

	details := input.WorkNote
	if details == "" && input.ResolutionNotes != nil {
		details = *input.ResolutionNotes
	}
	if details == "" {
		details = "Status updated by " + string(actor.Role)
	}
	ticket.LogActivity(fmt.Sprintf("Status changed from %s to %s", oldStatus, input.Status), actor.ID, details, now)
	ticket.UpdatedAt = now

	if err := s.tickets.Update(ctx, ticket); err != nil {
		err = mapRepoError(err, "ticket")
		s.metrics.RecordTransition(string(edge.From), string(edge.To), err)
		return nil, err
	}
	s.metrics.RecordTransition(string(edge.From), string(edge.To), nil)
	s.invalidateStats(ctx)
	s.publishStatusChanged(ctx, actor, ticket, oldStatus, details)

	switch input.Status {
	case domain.TicketStatusResolved:
		s.notify(ctx, domain.NotificationRequest{
			RecipientID: ticket.OwnerID,
			TicketID:    ticket.ID,
			Kind:        domain.NotificationResolutionPending,
			Title:       "Request Resolved - Please Confirm",
			Message:     fmt.Sprintf("Your request %q has been resolved. Please review and confirm.", ticket.Title),
		})
	case domain.TicketStatusReopened:
		if ticket.AssigneeID != nil {
			s.notify(ctx, domain.NotificationRequest{
				RecipientID: *ticket.AssigneeID,
				TicketID:    ticket.ID,
				Kind:        domain.NotificationStatusUpdate,
				Title:       "Request Reopened",
				Message:     fmt.Sprintf("Request %q was reopened and needs attention.", ticket.Title),
			})
		}
	}
	if oldStatus != ticket.Status {
		s.notifyOwnerStatus(ctx, ticket)
	}
	if assigning && !sameAssignee(previousAssignee, ticket.AssigneeID) {
		s.notify(ctx, domain.NotificationRequest{
			RecipientID: *ticket.AssigneeID,
			TicketID:    ticket.ID,
			Kind:        domain.NotificationAssignment,
			Title:       "New Request Assigned",
			Message:     fmt.Sprintf("Request %q (%s) has been assigned to you.", ticket.Title, ticket.HumanID),
		})
	}
	return ticket, nil
}

func validateTransitionInput(input *TransitionInput) error {
	details := map[string]any{}
	if !input.Status.Valid() {
		details["status"] = "unknown status"
	}
	if input.AdminRemarks != nil && tooLong(*input.AdminRemarks, maxAdminRemarks) {
		details["adminRemarks"] = fmt.Sprintf("must be at most %d characters", maxAdminRemarks)
	}
	if input.ResolutionNotes != nil && tooLong(*input.ResolutionNotes, maxResolutionNotes) {
		details["resolutionNotes"] = fmt.Sprintf("must be at most %d characters", maxResolutionNotes)
	}
	input.WorkNote = strings.TrimSpace(input.WorkNote)
	if tooLong(input.WorkNote, maxWorkNote) {
		details["workNote"] = fmt.Sprintf("must be at most %d characters", maxWorkNote)
	}
	if input.AssigneeID != nil && strings.TrimSpace(*input.AssigneeID) == "" {
		details["assigneeId"] = "must not be empty"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid transition request", details)
	}
	return nil
}

// ConfirmResolution lets the owner accept or reject a resolved ticket.
// Accepting closes and locks the ticket; rejecting reopens it.
func (s *TicketService) ConfirmResolution(ctx context.Context, actor domain.Actor, ticketID string, action ConfirmAction) (*domain.Ticket, error) {
	var target domain.TicketStatus
	switch action {
	case ConfirmAccept:
		target = domain.TicketStatusClosed
	case ConfirmReject:
		target = domain.TicketStatusReopened
	default:
		return nil, apperrors.NewValidationError(`invalid action, use "accept" or "reject"`, map[string]any{"action": action})
	}

	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.IsLocked {
		return nil, apperrors.NewLocked("ticket is locked and cannot be modified")
	}
	if ticket.OwnerID != actor.ID {
		return nil, apperrors.NewForbidden("only the request creator can confirm resolution")
	}
	if err := s.policy.Authorize(actor, auth.ActionConfirm, ticket); err != nil {
		return nil, err
	}
	oldStatus := ticket.Status
	if oldStatus != domain.TicketStatusResolved {
		err := apperrors.NewInvalidTransition(string(oldStatus), string(target))
		s.metrics.RecordTransition(string(oldStatus), string(target), err)
		return nil, err
	}

	now := s.clock.now()
	var note domain.NotificationRequest
	ticket.Status = target
	if action == ConfirmAccept {
		ticket.MarkClosed(now)
		ticket.Lock()
		ticket.LogActivity("Resolution Accepted", actor.ID, "User confirmed resolution and closed ticket", now)
		note = domain.NotificationRequest{
			Kind:    domain.NotificationResolutionAccepted,
			Title:   "Resolution Accepted",
			Message: fmt.Sprintf("User accepted your resolution for %q", ticket.Title),
		}
	} else {
		ticket.MarkReopened()
		ticket.LogActivity("Resolution Rejected", actor.ID, "User rejected resolution and reopened ticket", now)
		note = domain.NotificationRequest{
			Kind:    domain.NotificationResolutionRejected,
			Title:   "Resolution Rejected - Ticket Reopened",
			Message: fmt.Sprintf("User rejected your resolution for %q. Please review.", ticket.Title),
		}
	}
	ticket.UpdatedAt = now

	if err := s.tickets.Update(ctx, ticket); err != nil {
		err = mapRepoError(err, "ticket")
		s.metrics.RecordTransition(string(oldStatus), string(target), err)
		return nil, err
	}
	s.metrics.RecordTransition(string(oldStatus), string(target), nil)
	s.invalidateStats(ctx)
	s.publishStatusChanged(ctx, actor, ticket, oldStatus, string(action))

	if ticket.AssigneeID != nil {
		note.RecipientID = *ticket.AssigneeID
		note.TicketID = ticket.ID
		s.notify(ctx, note)
	}
	s.notifyOwnerStatus(ctx, ticket)
	return ticket, nil
}

type bulkUpdate struct {
	status       *domain.TicketStatus
	priority     *domain.TicketPriority
	assigneeSet  bool
	assigneeID   *string
	adminRemarks *string
}

// BulkTransition applies the same field changes to many tickets. The state
// machine is not consulted, locked tickets are skipped, and the batch is not
// atomic: a failed write stops the batch and reports what was done so far.
func (s *TicketService) BulkTransition(ctx context.Context, actor domain.Actor, input BulkInput) (*BulkResult, error) {
	if err := s.policy.Require(actor, auth.ActionBulkUpdate); err != nil {
		return nil, err
	}
	update, err := parseBulkInput(input)
	if err != nil {
		return nil, err
	}

	tickets, err := s.tickets.GetByIDs(ctx, dedupe(input.TicketIDs))
	if err != nil {
		return nil, mapRepoError(err, "ticket")
	}

	result := &BulkResult{Matched: len(tickets)}
	now := s.clock.now()
	var changed []*domain.Ticket
	var previous []domain.TicketStatus
	for i := range tickets {
		ticket := &tickets[i]
		if ticket.IsLocked {
			continue
		}
		oldStatus := ticket.Status
		if !applyBulkUpdate(ticket, update, actor, now) {
			continue
		}
		ticket.UpdatedAt = now
		if err := s.tickets.Update(ctx, ticket); err != nil {
			s.logger.Error("bulk update failed",
				zap.String("ticket_id", ticket.ID),
				zap.Int("modified", result.Modified),
				zap.Error(err))
			s.afterBulk(ctx, actor, changed, previous)
			return result, mapRepoError(err, "ticket")
		}
		result.Modified++
		changed = append(changed, ticket)
		previous = append(previous, oldStatus)
	}
	s.afterBulk(ctx, actor, changed, previous)

	s.logger.Info("bulk update applied",
		zap.String("actor_id", actor.ID),
		zap.Int("matched", result.Matched),
		zap.Int("modified", result.Modified))
	return result, nil
}

func (s *TicketService) afterBulk(ctx context.Context, actor domain.Actor, changed []*domain.Ticket, previous []domain.TicketStatus) {
	if len(changed) == 0 {
		return
	}
	s.invalidateStats(ctx)
	for i, ticket := range changed {
		if previous[i] == ticket.Status {
			continue
		}
		s.metrics.RecordTransition(string(previous[i]), string(ticket.Status), nil)
		s.publishStatusChanged(ctx, actor, ticket, previous[i], "bulk update")
		s.notifyOwnerStatus(ctx, ticket)
	}
}

func parseBulkInput(input BulkInput) (bulkUpdate, error) {
	var update bulkUpdate
	if len(input.TicketIDs) == 0 {
		return update, apperrors.NewValidationError("ticket ids are required", nil)
	}
	if len(input.Fields) == 0 {
		return update, apperrors.NewValidationError("updates are required", nil)
	}

	var invalid []string
	for field := range input.Fields {
		if !bulkAllowedFields[field] {
			invalid = append(invalid, field)
		}
	}
	if len(invalid) > 0 {
		sort.Strings(invalid)
		return update, apperrors.NewValidationError("invalid update fields: "+strings.Join(invalid, ", "),
			map[string]any{"fields": invalid})
	}

	details := map[string]any{}
	if raw, ok := input.Fields[BulkFieldStatus]; ok {
		v, isString := raw.(string)
		status := domain.TicketStatus(v)
		if !isString || !status.Valid() {
			details[BulkFieldStatus] = "unknown status"
		} else {
			update.status = &status
		}
	}
	if raw, ok := input.Fields[BulkFieldPriority]; ok {
		v, isString := raw.(string)
		priority := domain.TicketPriority(v)
		if !isString || !priority.Valid() {
			details[BulkFieldPriority] = "unknown priority"
		} else {
			update.priority = &priority
		}
	}
	if raw, ok := input.Fields[BulkFieldAssigneeID]; ok {
		update.assigneeSet = true
		switch v := raw.(type) {
		case nil:
		case string:
			if strings.TrimSpace(v) == "" {
				details[BulkFieldAssigneeID] = "must not be empty"
			} else {
				update.assigneeID = &v
			}
		default:
			details[BulkFieldAssigneeID] = "must be a string or null"
		}
	}
	if raw, ok := input.Fields[BulkFieldAdminRemarks]; ok {
		v, isString := raw.(string)
		switch {
		case !isString:
			details[BulkFieldAdminRemarks] = "must be a string"
		case tooLong(v, maxAdminRemarks):
			details[BulkFieldAdminRemarks] = fmt.Sprintf("must be at most %d characters", maxAdminRemarks)
		default:
			update.adminRemarks = &v
		}
	}
	if len(details) > 0 {
		return update, apperrors.NewValidationError("invalid bulk update", details)
	}
	return update, nil
}

// applyBulkUpdate mutates ticket and reports whether anything changed.
func applyBulkUpdate(ticket *domain.Ticket, update bulkUpdate, actor domain.Actor, now time.Time) bool {
	changed := false
	if update.priority != nil && ticket.Priority != *update.priority {
		ticket.Priority = *update.priority
		changed = true
	}
	if update.assigneeSet && !sameAssignee(ticket.AssigneeID, update.assigneeID) {
		if update.assigneeID == nil {
			ticket.AssigneeID = nil
		} else {
			assignee := *update.assigneeID
			ticket.AssigneeID = &assignee
		}
		changed = true
	}
	if update.adminRemarks != nil && ticket.AdminRemarks != *update.adminRemarks {
		ticket.AdminRemarks = *update.adminRemarks
		changed = true
	}
	if update.status != nil && ticket.Status != *update.status {
		oldStatus := ticket.Status
		ticket.Status = *update.status
		switch ticket.Status {
		case domain.TicketStatusResolved:
			ticket.MarkResolved(now)
		case domain.TicketStatusClosed:
			ticket.MarkClosed(now)
		case domain.TicketStatusReopened:
			ticket.MarkReopened()
		}
		ticket.LogActivity(fmt.Sprintf("Bulk update: status changed from %s to %s", oldStatus, ticket.Status),
			actor.ID, "Bulk update by "+string(actor.Role), now)
		changed = true
	}
	return changed
}

func (s *TicketService) load(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	if strings.TrimSpace(ticketID) == "" {
		return nil, apperrors.NewNotFound("ticket", nil)
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapRepoError(err, "ticket")
	}
	return ticket, nil
}

func (s *TicketService) notifyOwnerStatus(ctx context.Context, ticket *domain.Ticket) {
	s.notify(ctx, domain.NotificationRequest{
		RecipientID: ticket.OwnerID,
		TicketID:    ticket.ID,
		Kind:        domain.NotificationStatusUpdate,
		Title:       "Request Status Updated",
		Message:     fmt.Sprintf("Your request %q status changed to %s.", ticket.Title, strings.ReplaceAll(string(ticket.Status), "_", " ")),
	})
}

// notify never fails the calling operation.
func (s *TicketService) notify(ctx context.Context, req domain.NotificationRequest) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, req); err != nil {
		s.logger.Warn("notification not queued",
			zap.String("ticket_id", req.TicketID),
			zap.String("recipient_id", req.RecipientID),
			zap.String("kind", string(req.Kind)),
			zap.Bool("queue_full", IsQueueFull(err)),
			zap.Error(err))
	}
}

func (s *TicketService) publishStatusChanged(ctx context.Context, actor domain.Actor, ticket *domain.Ticket, oldStatus domain.TicketStatus, comment string) {
	_ = publishEvent(ctx, s.lifecycle, s.logger, s.clock, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload: events.TicketStatusChangedPayload{
			OwnerID:   ticket.OwnerID,
			OldStatus: oldStatus,
			NewStatus: ticket.Status,
			Comment:   comment,
		},
	})
}

func (s *TicketService) invalidateStats(ctx context.Context) {
	if s.stats != nil {
		s.stats.Invalidate(ctx)
	}
}

func sameAssignee(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// insert stores a new ticket, drawing a fresh human id when the random
// suffix collides with an existing one.
func (s *TicketService) insert(ctx context.Context, ticket *domain.Ticket) error {
	var err error
	for attempt := 1; attempt <= humanIDAttempts; attempt++ {
		err = s.tickets.Create(ctx, ticket)
		if !errors.Is(err, repository.ErrDuplicate) {
			return err
		}
		s.logger.Warn("human id collision",
			zap.String("human_id", ticket.HumanID),
			zap.Int("attempt", attempt))
		ticket.HumanID = s.humanID(ticket.CreatedAt)
	}
	return err
}

// generateHumanID builds REQ<unix-millis><4 random digits>.
func generateHumanID(now time.Time) string {
	return fmt.Sprintf("REQ%d%04d", now.UnixMilli(), rand.IntN(10000))
}
