package service

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusdesk/service-desk/internal/domain"
	"github.com/campusdesk/service-desk/internal/repository"
	"github.com/campusdesk/service-desk/internal/repository/memory"
	apperrors "github.com/campusdesk/service-desk/pkg/util/errorutil"
)

var (
	student    = domain.Actor{ID: "stu-1", Role: domain.RoleStudent}
	otherUser  = domain.Actor{ID: "fac-9", Role: domain.RoleFaculty}
	technician = domain.Actor{ID: "tech-1", Role: domain.RoleTechnician}
	otherTech  = domain.Actor{ID: "tech-2", Role: domain.RoleTechnician}
	admin      = domain.Actor{ID: "adm-1", Role: domain.RoleAdmin}
)

type recordingNotifier struct {
	mu       sync.Mutex
	requests []domain.NotificationRequest
	err      error
}

func (r *recordingNotifier) Notify(_ context.Context, req domain.NotificationRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.requests = append(r.requests, req)
	return nil
}

func (r *recordingNotifier) kindsFor(recipient string) []domain.NotificationKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kinds []domain.NotificationKind
	for _, req := range r.requests {
		if req.RecipientID == recipient {
			kinds = append(kinds, req.Kind)
		}
	}
	return kinds
}

type countingInvalidator struct {
	calls int
}

func (c *countingInvalidator) Invalidate(context.Context) { c.calls++ }

type ticketFixture struct {
	svc      *TicketService
	tickets  *memory.TicketStore
	notifier *recordingNotifier
	stats    *countingInvalidator
	now      time.Time
}

func newTicketFixture(t *testing.T) *ticketFixture {
	t.Helper()
	f := &ticketFixture{
		tickets:  memory.NewTicketStore(),
		notifier: &recordingNotifier{},
		stats:    &countingInvalidator{},
		now:      time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	f.svc = NewTicketService(TicketDependencies{
		TicketRepo: f.tickets,
		Notifier:   f.notifier,
		Stats:      f.stats,
		Clock:      func() time.Time { return f.now },
	})
	return f
}

func (f *ticketFixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func (f *ticketFixture) create(t *testing.T, owner domain.Actor) *domain.Ticket {
	t.Helper()
	ticket, err := f.svc.CreateTicket(context.Background(), owner, TicketCreateInput{
		Title:       "Projector not working",
		Description: "The projector in lab 3 shows no signal at all.",
		Location:    "Lab 3",
	})
	require.NoError(t, err)
	return ticket
}

// assigned creates a pending ticket assigned to technician.
func (f *ticketFixture) assigned(t *testing.T) *domain.Ticket {
	t.Helper()
	ticket := f.create(t, student)
	res, err := f.svc.BulkTransition(context.Background(), admin, BulkInput{
		TicketIDs: []string{ticket.ID},
		Fields:    map[string]any{BulkFieldAssigneeID: technician.ID},
	})
	require.NoError(t, err)
	require.Equal(t, 1, res.Modified)
	return ticket
}

func (f *ticketFixture) move(t *testing.T, actor domain.Actor, id string, status domain.TicketStatus) *domain.Ticket {
	t.Helper()
	ticket, err := f.svc.Transition(context.Background(), actor, id, TransitionInput{Status: status})
	require.NoError(t, err)
	return ticket
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, code), "expected %s, got %v", code, err)
}

func strPtr(s string) *string { return &s }

func TestCreateTicketDefaultsFromClassifier(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.create(t, student)

	assert.Equal(t, domain.TicketStatusPending, ticket.Status)
	assert.Equal(t, student.ID, ticket.OwnerID)
	assert.Equal(t, domain.CategoryITSupport, ticket.Category)
	assert.Equal(t, domain.TicketPriorityUrgent, ticket.Priority)
	require.NotNil(t, ticket.Suggestion)
	assert.Equal(t, domain.CategoryITSupport, ticket.Suggestion.Category)
	assert.Regexp(t, regexp.MustCompile(`^REQ\d{13}\d{4}$`), ticket.HumanID)
	assert.Nil(t, ticket.AssigneeID)
	assert.Equal(t, 1, f.stats.calls)
}

func TestCreateTicketValidation(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateTicket(ctx, student, TicketCreateInput{Title: "Hi", Description: "short", Location: "X"})
	requireCode(t, err, apperrors.CodeValidation)

	_, err = f.svc.CreateTicket(ctx, student, TicketCreateInput{
		Title:       "Door hinge",
		Description: "The door hinge is loose",
		Location:    "Room 12",
		Category:    domain.TicketCategory("plumbing"),
	})
	requireCode(t, err, apperrors.CodeValidation)

	_, err = f.svc.CreateTicket(ctx, technician, TicketCreateInput{
		Title:       "Door hinge",
		Description: "The door hinge is loose",
		Location:    "Room 12",
	})
	requireCode(t, err, apperrors.CodeForbidden)

	ticket, err := f.svc.CreateTicket(ctx, student, TicketCreateInput{
		Title:       "Door hinge",
		Description: "The door hinge is loose",
		Location:    "Room 12",
		Category:    domain.CategoryFacilities,
		Priority:    domain.TicketPriorityLow,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryFacilities, ticket.Category)
	assert.Equal(t, domain.TicketPriorityLow, ticket.Priority)
}

func TestCreateTicketRetriesHumanIDCollision(t *testing.T) {
	f := newTicketFixture(t)
	ids := []string{"REQ17093000000001234", "REQ17093000000001234", "REQ17093000000005678"}
	var calls int
	f.svc.humanID = func(time.Time) string {
		id := ids[calls%len(ids)]
		calls++
		return id
	}

	first := f.create(t, student)
	second := f.create(t, student)
	assert.Equal(t, "REQ17093000000001234", first.HumanID)
	assert.Equal(t, "REQ17093000000005678", second.HumanID)
	assert.Equal(t, 3, calls)

	f.svc.humanID = func(time.Time) string { return first.HumanID }
	_, err := f.svc.CreateTicket(context.Background(), student, TicketCreateInput{
		Title:       "Projector not working",
		Description: "The projector in lab 3 shows no signal at all.",
		Location:    "Lab 3",
	})
	requireCode(t, err, apperrors.CodeConflict)
}

func TestScenarioRejectResolutionReopens(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()
	ticket := f.assigned(t)

	f.advance(10 * time.Minute)
	f.move(t, technician, ticket.ID, domain.TicketStatusInProgress)
	f.advance(30 * time.Minute)
	resolved, err := f.svc.Transition(ctx, technician, ticket.ID, TransitionInput{
		Status:          domain.TicketStatusResolved,
		ResolutionNotes: strPtr("Replaced the HDMI cable"),
	})
	require.NoError(t, err)
	require.NotNil(t, resolved.ResolvedAt)
	assert.Contains(t, f.notifier.kindsFor(student.ID), domain.NotificationResolutionPending)

	reopened, err := f.svc.ConfirmResolution(ctx, student, ticket.ID, ConfirmReject)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusReopened, reopened.Status)
	assert.Equal(t, 1, reopened.ReopenedCount)
	assert.Nil(t, reopened.ResolvedAt)
	assert.False(t, reopened.IsLocked)
	assert.Equal(t, "Resolution Rejected", reopened.ActivityLog[len(reopened.ActivityLog)-1].Action)
	assert.Contains(t, f.notifier.kindsFor(technician.ID), domain.NotificationResolutionRejected)

	stored, err := f.svc.GetTicket(ctx, student, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusReopened, stored.Status)
	assert.Equal(t, 1, stored.ReopenedCount)
}

func TestScenarioReopenedOnlyMovesToInProgress(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()
	ticket := f.assigned(t)
	f.move(t, technician, ticket.ID, domain.TicketStatusInProgress)
	f.move(t, technician, ticket.ID, domain.TicketStatusResolved)
	f.move(t, admin, ticket.ID, domain.TicketStatusReopened)

	assert.Equal(t, []domain.TicketStatus{domain.TicketStatusInProgress}, domain.NextStatuses(domain.TicketStatusReopened))
	for _, target := range []domain.TicketStatus{domain.TicketStatusClosed, domain.TicketStatusResolved, domain.TicketStatusPending} {
		_, err := f.svc.Transition(ctx, admin, ticket.ID, TransitionInput{Status: target})
		requireCode(t, err, apperrors.CodeInvalidTransition)
	}
	resumed := f.move(t, technician, ticket.ID, domain.TicketStatusInProgress)
	assert.Equal(t, domain.TicketStatusInProgress, resumed.Status)
}

func TestScenarioUnassignedTechnicianForbidden(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()
	ticket := f.assigned(t)

	for _, target := range domain.NextStatuses(domain.TicketStatusPending) {
		_, err := f.svc.Transition(ctx, otherTech, ticket.ID, TransitionInput{Status: target})
		requireCode(t, err, apperrors.CodeForbidden)
	}
	_, err := f.svc.GetTicket(ctx, otherTech, ticket.ID)
	requireCode(t, err, apperrors.CodeForbidden)

	stored, err := f.tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusPending, stored.Status)
}

func TestScenarioDeleteOnlyPending(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()
	ticket := f.assigned(t)
	f.move(t, technician, ticket.ID, domain.TicketStatusInProgress)

	err := f.svc.DeleteTicket(ctx, student, ticket.ID)
	requireCode(t, err, apperrors.CodeValidation)
	assert.Contains(t, err.Error(), "only pending requests can be deleted")

	f.move(t, technician, ticket.ID, domain.TicketStatusPending)
	requireCode(t, f.svc.DeleteTicket(ctx, otherUser, ticket.ID), apperrors.CodeForbidden)
	requireCode(t, f.svc.DeleteTicket(ctx, technician, ticket.ID), apperrors.CodeForbidden)
	require.NoError(t, f.svc.DeleteTicket(ctx, student, ticket.ID))

	_, err = f.svc.GetTicket(ctx, student, ticket.ID)
	requireCode(t, err, apperrors.CodeNotFound)
	requireCode(t, f.svc.DeleteTicket(ctx, student, ticket.ID), apperrors.CodeNotFound)
}

func TestAcceptLocksTicketAndComputesResolutionTime(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()
	ticket := f.assigned(t)

	f.move(t, technician, ticket.ID, domain.TicketStatusInProgress)
	f.advance(90*time.Minute + 24*time.Second)
	f.move(t, technician, ticket.ID, domain.TicketStatusResolved)
	f.advance(3 * time.Hour)

	closed, err := f.svc.ConfirmResolution(ctx, student, ticket.ID, ConfirmAccept)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusClosed, closed.Status)
	assert.True(t, closed.IsLocked)
	require.NotNil(t, closed.ClosedAt)
	require.NotNil(t, closed.ResolutionTimeMinutes)
	assert.Equal(t, 90, *closed.ResolutionTimeMinutes)
	assert.Equal(t, "Resolution Accepted", closed.ActivityLog[len(closed.ActivityLog)-1].Action)
	assert.Contains(t, f.notifier.kindsFor(technician.ID), domain.NotificationResolutionAccepted)
	assert.Contains(t, f.notifier.kindsFor(student.ID), domain.NotificationStatusUpdate)

	_, err = f.svc.Transition(ctx, admin, ticket.ID, TransitionInput{Status: domain.TicketStatusReopened})
	requireCode(t, err, apperrors.CodeLocked)
	_, err = f.svc.ConfirmResolution(ctx, student, ticket.ID, ConfirmReject)
	requireCode(t, err, apperrors.CodeLocked)

	res, err := f.svc.BulkTransition(ctx, admin, BulkInput{
		TicketIDs: []string{ticket.ID},
		Fields:    map[string]any{BulkFieldStatus: "reopened", BulkFieldPriority: "low"},
	})
	require.NoError(t, err)
	assert.Equal(t, BulkResult{Matched: 1, Modified: 0}, *res)

	stored, err := f.tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, closed.ActivityLog, stored.ActivityLog)
	assert.Equal(t, 90, *stored.ResolutionTimeMinutes)
}

func TestReopenCountAfterCycles(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()
	ticket := f.assigned(t)
	f.move(t, technician, ticket.ID, domain.TicketStatusInProgress)

	const cycles = 3
	for i := 0; i < cycles; i++ {
		resolved := f.move(t, technician, ticket.ID, domain.TicketStatusResolved)
		require.NotNil(t, resolved.ResolvedAt)
		var reopened *domain.Ticket
		if i%2 == 0 {
			reopened = f.move(t, admin, ticket.ID, domain.TicketStatusReopened)
		} else {
			var err error
			reopened, err = f.svc.ConfirmResolution(ctx, student, ticket.ID, ConfirmReject)
			require.NoError(t, err)
		}
		assert.Nil(t, reopened.ResolvedAt)
		assert.Equal(t, i+1, reopened.ReopenedCount)
		f.move(t, technician, ticket.ID, domain.TicketStatusInProgress)
	}

	stored, err := f.tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, cycles, stored.ReopenedCount)
}

func TestTransitionGuardOrder(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()
	ticket := f.assigned(t)

	_, err := f.svc.Transition(ctx, student, "missing", TransitionInput{Status: domain.TicketStatus("done")})
	requireCode(t, err, apperrors.CodeValidation)

	_, err = f.svc.Transition(ctx, admin, "missing", TransitionInput{Status: domain.TicketStatusInProgress})
	requireCode(t, err, apperrors.CodeNotFound)

	_, err = f.svc.Transition(ctx, student, ticket.ID, TransitionInput{Status: domain.TicketStatusResolved})
	requireCode(t, err, apperrors.CodeInvalidTransition)

	_, err = f.svc.Transition(ctx, student, ticket.ID, TransitionInput{Status: domain.TicketStatusInProgress})
	requireCode(t, err, apperrors.CodeForbidden)

	long := make([]rune, maxWorkNote+1)
	for i := range long {
		long[i] = 'x'
	}
	_, err = f.svc.Transition(ctx, technician, ticket.ID, TransitionInput{Status: domain.TicketStatusInProgress, WorkNote: string(long)})
	requireCode(t, err, apperrors.CodeValidation)
}

func TestTechnicianCannotAssignOrCloseResolved(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()
	ticket := f.assigned(t)

	_, err := f.svc.Transition(ctx, technician, ticket.ID, TransitionInput{
		Status:     domain.TicketStatusInProgress,
		AssigneeID: strPtr(otherTech.ID),
	})
	requireCode(t, err, apperrors.CodeForbidden)

	f.move(t, technician, ticket.ID, domain.TicketStatusInProgress)
	f.move(t, technician, ticket.ID, domain.TicketStatusResolved)
	_, err = f.svc.Transition(ctx, technician, ticket.ID, TransitionInput{Status: domain.TicketStatusClosed})
	requireCode(t, err, apperrors.CodeForbidden)
}

func TestTransitionAuditTrail(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()
	ticket := f.create(t, student)

	started, err := f.svc.Transition(ctx, admin, ticket.ID, TransitionInput{
		Status:       domain.TicketStatusInProgress,
		AssigneeID:   strPtr(technician.ID),
		AdminRemarks: strPtr("Handle before the lecture"),
	})
	require.NoError(t, err)
	require.True(t, started.IsAssignedTo(technician.ID))
	assert.Equal(t, "Handle before the lecture", started.AdminRemarks)
	require.Len(t, started.ActivityLog, 1)
	assert.Equal(t, "Status changed from pending to in_progress", started.ActivityLog[0].Action)
	assert.Equal(t, "Status updated by admin", started.ActivityLog[0].Details)
	assert.Equal(t, admin.ID, started.ActivityLog[0].PerformedBy)
	assert.Contains(t, f.notifier.kindsFor(technician.ID), domain.NotificationAssignment)

	resolved, err := f.svc.Transition(ctx, technician, ticket.ID, TransitionInput{
		Status:          domain.TicketStatusResolved,
		ResolutionNotes: strPtr("Lamp replaced"),
		WorkNote:        "  Swapped the lamp module  ",
		ProofFiles: []domain.Attachment{{
			Filename:     "proof-1.jpg",
			OriginalName: "lamp.jpg",
			MimeType:     "image/jpeg",
			Size:         2048,
			Path:         "uploads/proof-1.jpg",
		}},
	})
	require.NoError(t, err)
	require.Len(t, resolved.WorkNotes, 1)
	assert.Equal(t, "Swapped the lamp module", resolved.WorkNotes[0].Note)
	assert.Equal(t, technician.ID, resolved.WorkNotes[0].AuthorID)
	require.Len(t, resolved.ProofOfWork, 1)
	assert.Equal(t, technician.ID, resolved.ProofOfWork[0].AuthorID)
	assert.Equal(t, f.now, resolved.ProofOfWork[0].UploadedAt)
	require.Len(t, resolved.ActivityLog, 2)
	assert.Equal(t, "Swapped the lamp module", resolved.ActivityLog[1].Details)
	assert.Equal(t, started.ActivityLog[0], resolved.ActivityLog[0])

	ownerKinds := f.notifier.kindsFor(student.ID)
	assert.Contains(t, ownerKinds, domain.NotificationResolutionPending)
	assert.Contains(t, ownerKinds, domain.NotificationStatusUpdate)
}

func TestNotificationFailureDoesNotFailTransition(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.assigned(t)
	f.notifier.err = errors.New("queue unavailable")

	updated, err := f.svc.Transition(context.Background(), technician, ticket.ID, TransitionInput{Status: domain.TicketStatusInProgress})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, updated.Status)
}

func TestConfirmResolutionGuards(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()
	ticket := f.assigned(t)

	_, err := f.svc.ConfirmResolution(ctx, student, ticket.ID, ConfirmAction("maybe"))
	requireCode(t, err, apperrors.CodeValidation)

	_, err = f.svc.ConfirmResolution(ctx, student, "missing", ConfirmAccept)
	requireCode(t, err, apperrors.CodeNotFound)

	_, err = f.svc.ConfirmResolution(ctx, otherUser, ticket.ID, ConfirmAccept)
	requireCode(t, err, apperrors.CodeForbidden)

	_, err = f.svc.ConfirmResolution(ctx, student, ticket.ID, ConfirmAccept)
	requireCode(t, err, apperrors.CodeInvalidTransition)
}

func TestBulkTransition(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()
	first := f.create(t, student)
	second := f.create(t, student)

	_, err := f.svc.BulkTransition(ctx, technician, BulkInput{TicketIDs: []string{first.ID}, Fields: map[string]any{"priority": "low"}})
	requireCode(t, err, apperrors.CodeForbidden)

	_, err = f.svc.BulkTransition(ctx, admin, BulkInput{Fields: map[string]any{"priority": "low"}})
	requireCode(t, err, apperrors.CodeValidation)

	_, err = f.svc.BulkTransition(ctx, admin, BulkInput{TicketIDs: []string{first.ID}})
	requireCode(t, err, apperrors.CodeValidation)

	_, err = f.svc.BulkTransition(ctx, admin, BulkInput{
		TicketIDs: []string{first.ID},
		Fields:    map[string]any{"priority": "low", "title": "renamed"},
	})
	requireCode(t, err, apperrors.CodeValidation)

	_, err = f.svc.BulkTransition(ctx, admin, BulkInput{
		TicketIDs: []string{first.ID},
		Fields:    map[string]any{"status": "archived"},
	})
	requireCode(t, err, apperrors.CodeValidation)

	unchanged, err := f.tickets.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Priority, unchanged.Priority)

	res, err := f.svc.BulkTransition(ctx, admin, BulkInput{
		TicketIDs: []string{first.ID, second.ID, second.ID, "missing"},
		Fields:    map[string]any{"status": "resolved", "adminRemarks": "Batch fixed"},
	})
	require.NoError(t, err)
	assert.Equal(t, BulkResult{Matched: 2, Modified: 2}, *res)

	stored, err := f.tickets.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusResolved, stored.Status)
	require.NotNil(t, stored.ResolvedAt)
	assert.Equal(t, "Batch fixed", stored.AdminRemarks)
	require.Len(t, stored.ActivityLog, 1)
	assert.Equal(t, "Bulk update: status changed from pending to resolved", stored.ActivityLog[0].Action)

	res, err = f.svc.BulkTransition(ctx, admin, BulkInput{
		TicketIDs: []string{first.ID},
		Fields:    map[string]any{"status": "reopened"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Modified)
	stored, err = f.tickets.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.ReopenedCount)
	assert.Nil(t, stored.ResolvedAt)

	res, err = f.svc.BulkTransition(ctx, admin, BulkInput{
		TicketIDs: []string{first.ID},
		Fields:    map[string]any{"status": "reopened"},
	})
	require.NoError(t, err)
	assert.Equal(t, BulkResult{Matched: 1, Modified: 0}, *res)
}

// failingUpdates fails every Update of failID and delegates the rest.
type failingUpdates struct {
	repository.TicketRepository
	failID string
}

func (r failingUpdates) Update(ctx context.Context, ticket *domain.Ticket) error {
	if ticket.ID == r.failID {
		return errors.New("connection reset by peer")
	}
	return r.TicketRepository.Update(ctx, ticket)
}

func TestBulkTransitionStopsAtFirstFailedWrite(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()
	first := f.create(t, student)
	second := f.create(t, otherUser)
	third := f.create(t, student)

	f.svc = NewTicketService(TicketDependencies{
		TicketRepo: failingUpdates{TicketRepository: f.tickets, failID: second.ID},
		Notifier:   f.notifier,
		Stats:      f.stats,
		Clock:      func() time.Time { return f.now },
	})
	invalidations := f.stats.calls

	res, err := f.svc.BulkTransition(ctx, admin, BulkInput{
		TicketIDs: []string{first.ID, second.ID, third.ID},
		Fields:    map[string]any{BulkFieldStatus: string(domain.TicketStatusInProgress)},
	})
	requireCode(t, err, apperrors.CodeInternal)
	require.NotNil(t, res)
	assert.Equal(t, BulkResult{Matched: 3, Modified: 1}, *res)

	stored, err := f.tickets.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, stored.Status)
	require.Len(t, stored.ActivityLog, 1)

	for _, id := range []string{second.ID, third.ID} {
		untouched, err := f.tickets.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.TicketStatusPending, untouched.Status)
		assert.Empty(t, untouched.ActivityLog)
	}

	assert.Equal(t, []domain.NotificationKind{domain.NotificationStatusUpdate}, f.notifier.kindsFor(student.ID))
	assert.Empty(t, f.notifier.kindsFor(otherUser.ID))
	assert.Equal(t, invalidations+1, f.stats.calls)
}

func TestListTicketsScopedByRole(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()
	mine := f.assigned(t)
	f.create(t, otherUser)

	page, err := f.svc.ListTickets(ctx, student, TicketListFilter{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, mine.ID, page.Items[0].ID)
	assert.Equal(t, 1, page.Total)

	page, err = f.svc.ListTickets(ctx, technician, TicketListFilter{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, mine.ID, page.Items[0].ID)

	page, err = f.svc.ListTickets(ctx, otherTech, TicketListFilter{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	page, err = f.svc.ListTickets(ctx, admin, TicketListFilter{Limit: 500})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 50, page.Limit)

	page, err = f.svc.ListTickets(ctx, admin, TicketListFilter{AssigneeID: strPtr(technician.ID)})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)

	_, err = f.svc.ListTickets(ctx, domain.Actor{ID: "x", Role: domain.Role("visitor")}, TicketListFilter{})
	requireCode(t, err, apperrors.CodeForbidden)
}
