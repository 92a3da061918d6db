package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campusdesk/service-desk/internal/auth"
	"github.com/campusdesk/service-desk/internal/cache"
	"github.com/campusdesk/service-desk/internal/domain"
	"github.com/campusdesk/service-desk/internal/events"
	"github.com/campusdesk/service-desk/internal/observability"
	"github.com/campusdesk/service-desk/internal/repository"
	apperrors "github.com/campusdesk/service-desk/pkg/util/errorutil"
)

const maxFeedbackComments = 300

// FeedbackInput carries the requester's ratings, each 1..5.
type FeedbackInput struct {
	Rating              int
	ServiceQuality      int
	ResponseTime        int
	OverallSatisfaction int
	Comments            string
}

// FeedbackListFilter narrows the admin listing.
type FeedbackListFilter struct {
	Rating *int
	Limit  int
	Offset int
}

// FeedbackService gates feedback submission and serves the admin views.
type FeedbackService struct {
	feedback    repository.FeedbackRepository
	tickets     repository.TicketRepository
	policy      *auth.Policy
	lifecycle   events.Dispatcher
	cache       cache.Cache
	logger      *zap.Logger
	metrics     *observability.Metrics
	clock       Clock
	allowClosed bool
}

// FeedbackDependencies bundles collaborators for the feedback service.
type FeedbackDependencies struct {
	FeedbackRepo repository.FeedbackRepository
	TicketRepo   repository.TicketRepository
	Policy       *auth.Policy
	// Lifecycle receives feedback events synchronously.
	Lifecycle    events.Dispatcher
	Cache        cache.Cache
	Logger       *zap.Logger
	Metrics      *observability.Metrics
	Clock        Clock
	// AllowClosed also accepts feedback on closed tickets.
	AllowClosed  bool
}

func NewFeedbackService(deps FeedbackDependencies) *FeedbackService {
	policy := deps.Policy
	if policy == nil {
		policy = auth.DefaultPolicy()
	}
	return &FeedbackService{
		feedback:    deps.FeedbackRepo,
		tickets:     deps.TicketRepo,
		policy:      policy,
		lifecycle:   deps.Lifecycle,
		cache:       deps.Cache,
		logger:      loggerOrNop(deps.Logger),
		metrics:     deps.Metrics,
		clock:       deps.Clock,
		allowClosed: deps.AllowClosed,
	}
}

// SubmitFeedback records the owner's rating of a resolved ticket. A ticket
// accepts at most one feedback record; the ticket itself is not modified.
func (s *FeedbackService) SubmitFeedback(ctx context.Context, actor domain.Actor, ticketID string, input FeedbackInput) (*domain.Feedback, error) {
	input.Comments = strings.TrimSpace(input.Comments)
	if err := validateFeedback(input); err != nil {
		return nil, err
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapRepoError(err, "ticket")
	}
	if !s.acceptsFeedback(ticket.Status) {
		return nil, apperrors.NewValidationError("feedback can only be submitted for resolved requests",
			map[string]any{"status": ticket.Status})
	}
	if ticket.OwnerID != actor.ID {
		return nil, apperrors.NewForbidden("only the request creator can submit feedback")
	}
	if err := s.policy.Authorize(actor, auth.ActionSubmitFeedback, ticket); err != nil {
		return nil, err
	}

	if _, err := s.feedback.GetByTicket(ctx, ticket.ID); err == nil {
		return nil, apperrors.NewConflict("feedback already submitted for this request", map[string]any{"ticket_id": ticket.ID})
	} else if !isNotFound(err) {
		return nil, mapRepoError(err, "feedback")
	}

	feedback := &domain.Feedback{
		ID:                  uuid.NewString(),
		TicketID:            ticket.ID,
		AuthorID:            actor.ID,
		Rating:              input.Rating,
		ServiceQuality:      input.ServiceQuality,
		ResponseTime:        input.ResponseTime,
		OverallSatisfaction: input.OverallSatisfaction,
		Comments:            input.Comments,
		CreatedAt:           s.clock.now(),
	}
	if err := s.feedback.Create(ctx, feedback); err != nil {
		if isDuplicate(err) {
			return nil, apperrors.NewConflict("feedback already submitted for this request", map[string]any{"ticket_id": ticket.ID})
		}
		return nil, mapRepoError(err, "feedback")
	}
	invalidate(ctx, s.cache, s.logger, feedbackStatsCacheKey)

	_ = publishEvent(ctx, s.lifecycle, s.logger, s.clock, events.Event{
		Type:     events.EventFeedbackSubmitted,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload:  events.FeedbackSubmittedPayload{FeedbackID: feedback.ID, Rating: feedback.Rating},
	})
	s.logger.Info("feedback submitted",
		zap.String("ticket_id", ticket.ID),
		zap.String("feedback_id", feedback.ID),
		zap.Int("rating", feedback.Rating))
	return feedback, nil
}

func (s *FeedbackService) acceptsFeedback(status domain.TicketStatus) bool {
	return status == domain.TicketStatusResolved || (s.allowClosed && status == domain.TicketStatusClosed)
}

func validateFeedback(input FeedbackInput) error {
	details := map[string]any{}
	ratings := []struct {
		field string
		value int
	}{
		{"rating", input.Rating},
		{"serviceQuality", input.ServiceQuality},
		{"responseTime", input.ResponseTime},
		{"overallSatisfaction", input.OverallSatisfaction},
	}
	for _, r := range ratings {
		if r.value < 1 || r.value > 5 {
			details[r.field] = "must be between 1 and 5"
		}
	}
	if tooLong(input.Comments, maxFeedbackComments) {
		details["comments"] = fmt.Sprintf("must be at most %d characters", maxFeedbackComments)
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid feedback", details)
	}
	return nil
}

// GetByTicket returns the feedback recorded for a ticket.
func (s *FeedbackService) GetByTicket(ctx context.Context, actor domain.Actor, ticketID string) (*domain.Feedback, error) {
	if err := s.policy.Require(actor, auth.ActionReadFeedback); err != nil {
		return nil, err
	}
	feedback, err := s.feedback.GetByTicket(ctx, ticketID)
	if err != nil {
		return nil, mapRepoError(err, "feedback")
	}
	return feedback, nil
}

// List returns feedback, newest first, optionally filtered by rating.
func (s *FeedbackService) List(ctx context.Context, actor domain.Actor, filter FeedbackListFilter) ([]domain.Feedback, error) {
	if err := s.policy.Require(actor, auth.ActionReadFeedback); err != nil {
		return nil, err
	}
	if filter.Rating != nil && (*filter.Rating < 1 || *filter.Rating > 5) {
		return nil, apperrors.NewValidationError("rating filter must be between 1 and 5", nil)
	}
	items, err := s.feedback.List(ctx, repository.FeedbackFilter{
		Rating: filter.Rating,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
	if err != nil {
		return nil, mapRepoError(err, "feedback")
	}
	return items, nil
}

// Stats aggregates ratings across all feedback.
func (s *FeedbackService) Stats(ctx context.Context, actor domain.Actor) (*domain.FeedbackStats, error) {
	if err := s.policy.Require(actor, auth.ActionReadFeedback); err != nil {
		return nil, err
	}
	return cachedLoad(ctx, s.cache, feedbackStatsCacheKey, s.logger, s.metrics, func() (*domain.FeedbackStats, error) {
		stats, err := s.feedback.Stats(ctx)
		if err != nil {
			return nil, mapRepoError(err, "feedback")
		}
		return stats, nil
	})
}
