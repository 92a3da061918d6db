package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusdesk/service-desk/internal/cache"
	"github.com/campusdesk/service-desk/internal/domain"
	"github.com/campusdesk/service-desk/internal/events"
	"github.com/campusdesk/service-desk/internal/repository/memory"
	apperrors "github.com/campusdesk/service-desk/pkg/util/errorutil"
)

type feedbackFixture struct {
	*ticketFixture
	feedback *FeedbackService
	store    *memory.FeedbackStore
	cache    *cache.MemoryCache
	events   []events.Event
}

func newFeedbackFixture(t *testing.T, allowClosed bool) *feedbackFixture {
	t.Helper()
	f := &feedbackFixture{
		ticketFixture: newTicketFixture(t),
		store:         memory.NewFeedbackStore(),
		cache:         cache.NewMemoryCache(time.Minute),
	}
	dispatcher := events.NewInMemoryDispatcher()
	dispatcher.Subscribe(events.EventFeedbackSubmitted, func(_ context.Context, e events.Event) error {
		f.events = append(f.events, e)
		return nil
	})
	f.feedback = NewFeedbackService(FeedbackDependencies{
		FeedbackRepo: f.store,
		TicketRepo:   f.tickets,
		Lifecycle:    dispatcher,
		Cache:        f.cache,
		Clock:        func() time.Time { return f.now },
		AllowClosed:  allowClosed,
	})
	return f
}

func (f *feedbackFixture) resolved(t *testing.T) *domain.Ticket {
	t.Helper()
	ticket := f.assigned(t)
	f.move(t, technician, ticket.ID, domain.TicketStatusInProgress)
	f.move(t, technician, ticket.ID, domain.TicketStatusResolved)
	return ticket
}

func goodFeedback() FeedbackInput {
	return FeedbackInput{Rating: 5, ServiceQuality: 4, ResponseTime: 4, OverallSatisfaction: 5, Comments: "Fixed within the hour"}
}

func TestFeedbackOnlyAfterResolution(t *testing.T) {
	f := newFeedbackFixture(t, false)
	ctx := context.Background()
	ticket := f.assigned(t)

	_, err := f.feedback.SubmitFeedback(ctx, student, ticket.ID, goodFeedback())
	requireCode(t, err, apperrors.CodeValidation)

	f.move(t, technician, ticket.ID, domain.TicketStatusInProgress)
	f.move(t, technician, ticket.ID, domain.TicketStatusResolved)

	feedback, err := f.feedback.SubmitFeedback(ctx, student, ticket.ID, goodFeedback())
	require.NoError(t, err)
	assert.Equal(t, ticket.ID, feedback.TicketID)
	assert.Equal(t, student.ID, feedback.AuthorID)
	assert.Equal(t, 5, feedback.Rating)
	require.Len(t, f.events, 1)
	assert.Equal(t, ticket.ID, f.events[0].TicketID)

	stored, err := f.tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusResolved, stored.Status)
}

func TestFeedbackGuards(t *testing.T) {
	f := newFeedbackFixture(t, false)
	ctx := context.Background()
	ticket := f.resolved(t)

	bad := goodFeedback()
	bad.ServiceQuality = 6
	_, err := f.feedback.SubmitFeedback(ctx, student, ticket.ID, bad)
	requireCode(t, err, apperrors.CodeValidation)

	bad = goodFeedback()
	bad.Comments = string(make([]rune, maxFeedbackComments+1))
	_, err = f.feedback.SubmitFeedback(ctx, student, ticket.ID, bad)
	requireCode(t, err, apperrors.CodeValidation)

	_, err = f.feedback.SubmitFeedback(ctx, student, "missing", goodFeedback())
	requireCode(t, err, apperrors.CodeNotFound)

	_, err = f.feedback.SubmitFeedback(ctx, otherUser, ticket.ID, goodFeedback())
	requireCode(t, err, apperrors.CodeForbidden)

	_, err = f.feedback.SubmitFeedback(ctx, technician, ticket.ID, goodFeedback())
	requireCode(t, err, apperrors.CodeForbidden)

	_, err = f.feedback.SubmitFeedback(ctx, student, ticket.ID, goodFeedback())
	require.NoError(t, err)

	_, err = f.feedback.SubmitFeedback(ctx, student, ticket.ID, goodFeedback())
	requireCode(t, err, apperrors.CodeConflict)
}

func TestFeedbackOnClosedTicket(t *testing.T) {
	for _, allow := range []bool{false, true} {
		f := newFeedbackFixture(t, allow)
		ctx := context.Background()
		ticket := f.resolved(t)
		_, err := f.accept(t, ticket.ID)
		require.NoError(t, err)

		_, err = f.feedback.SubmitFeedback(ctx, student, ticket.ID, goodFeedback())
		if allow {
			assert.NoError(t, err)
		} else {
			requireCode(t, err, apperrors.CodeValidation)
		}
	}
}

func (f *feedbackFixture) accept(t *testing.T, id string) (*domain.Ticket, error) {
	t.Helper()
	return f.svc.ConfirmResolution(context.Background(), student, id, ConfirmAccept)
}

func TestFeedbackAdminViewsAndCachedStats(t *testing.T) {
	f := newFeedbackFixture(t, false)
	ctx := context.Background()

	first := f.resolved(t)
	_, err := f.feedback.SubmitFeedback(ctx, student, first.ID, goodFeedback())
	require.NoError(t, err)

	_, err = f.feedback.Stats(ctx, student)
	requireCode(t, err, apperrors.CodeForbidden)

	stats, err := f.feedback.Stats(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalFeedback)
	assert.InDelta(t, 5.0, stats.AvgRating, 0.001)

	var cached domain.FeedbackStats
	hit, err := f.cache.Get(ctx, feedbackStatsCacheKey, &cached)
	require.NoError(t, err)
	assert.True(t, hit)

	second := f.resolved(t)
	low := goodFeedback()
	low.Rating = 1
	_, err = f.feedback.SubmitFeedback(ctx, student, second.ID, low)
	require.NoError(t, err)

	hit, err = f.cache.Get(ctx, feedbackStatsCacheKey, &cached)
	require.NoError(t, err)
	assert.False(t, hit)

	stats, err = f.feedback.Stats(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalFeedback)
	assert.InDelta(t, 3.0, stats.AvgRating, 0.001)

	one := 1
	items, err := f.feedback.List(ctx, admin, FeedbackListFilter{Rating: &one})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, second.ID, items[0].TicketID)

	nine := 9
	_, err = f.feedback.List(ctx, admin, FeedbackListFilter{Rating: &nine})
	requireCode(t, err, apperrors.CodeValidation)

	got, err := f.feedback.GetByTicket(ctx, admin, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Rating)

	_, err = f.feedback.GetByTicket(ctx, admin, "missing")
	requireCode(t, err, apperrors.CodeNotFound)
}
