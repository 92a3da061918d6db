package auth

import (
	"github.com/campusdesk/service-desk/internal/domain"
	apperrors "github.com/campusdesk/service-desk/pkg/util/errorutil"
)

// Action is an operation guarded by the access policy.
type Action string

const (
	ActionCreateTicket   Action = "ticket:create"
	ActionReadTicket     Action = "ticket:read"
	ActionDeleteTicket   Action = "ticket:delete"
	ActionTransition     Action = "ticket:transition"
	ActionConfirm        Action = "ticket:confirm"
	ActionAssign         Action = "ticket:assign"
	ActionBulkUpdate     Action = "ticket:bulk_update"
	ActionSubmitFeedback Action = "feedback:submit"
	ActionReadFeedback   Action = "feedback:read"
	ActionReadStats      Action = "stats:read"
)

// Scope narrows which tickets an allowed action applies to.
type Scope int

const (
	ScopeNone Scope = iota
	ScopeOwn
	ScopeAssigned
	ScopeAll
)

type roleRules struct {
	actions map[Action]Scope
	edges   map[domain.Edge]bool
}

// Policy is the role permission table consulted once per operation.
type Policy struct {
	rules map[domain.Role]roleRules
}

var (
	edgeStart   = domain.Edge{From: domain.TicketStatusPending, To: domain.TicketStatusInProgress}
	edgeDiscard = domain.Edge{From: domain.TicketStatusPending, To: domain.TicketStatusClosed}
	edgeResolve = domain.Edge{From: domain.TicketStatusInProgress, To: domain.TicketStatusResolved}
	edgeRequeue = domain.Edge{From: domain.TicketStatusInProgress, To: domain.TicketStatusPending}
	edgeClose   = domain.Edge{From: domain.TicketStatusResolved, To: domain.TicketStatusClosed}
	edgeReopen  = domain.Edge{From: domain.TicketStatusResolved, To: domain.TicketStatusReopened}
	edgeResume  = domain.Edge{From: domain.TicketStatusReopened, To: domain.TicketStatusInProgress}
)

// requesterSet covers students and faculty. They never move tickets directly.
var requesterSet = roleRules{
	actions: map[Action]Scope{
		ActionCreateTicket:   ScopeAll,
		ActionReadTicket:     ScopeOwn,
		ActionDeleteTicket:   ScopeOwn,
		ActionConfirm:        ScopeOwn,
		ActionSubmitFeedback: ScopeOwn,
	},
	edges: map[domain.Edge]bool{},
}

// DefaultPolicy returns the organization's permission table.
func DefaultPolicy() *Policy {
	return &Policy{rules: map[domain.Role]roleRules{
		domain.RoleStudent: requesterSet,
		domain.RoleFaculty: requesterSet,
		domain.RoleTechnician: {
			actions: map[Action]Scope{
				ActionReadTicket: ScopeAssigned,
				ActionTransition: ScopeAssigned,
			},
			edges: map[domain.Edge]bool{
				edgeStart:   true,
				edgeDiscard: true,
				edgeResolve: true,
				edgeRequeue: true,
				edgeResume:  true,
			},
		},
		domain.RoleAdmin: {
			actions: map[Action]Scope{
				ActionCreateTicket:   ScopeAll,
				ActionReadTicket:     ScopeAll,
				ActionDeleteTicket:   ScopeAll,
				ActionTransition:     ScopeAll,
				ActionConfirm:        ScopeOwn,
				ActionAssign:         ScopeAll,
				ActionBulkUpdate:     ScopeAll,
				ActionSubmitFeedback: ScopeOwn,
				ActionReadFeedback:   ScopeAll,
				ActionReadStats:      ScopeAll,
			},
			edges: map[domain.Edge]bool{
				edgeStart:   true,
				edgeDiscard: true,
				edgeResolve: true,
				edgeRequeue: true,
				edgeClose:   true,
				edgeReopen:  true,
				edgeResume:  true,
			},
		},
	}}
}

// ScopeFor returns the scope granted to role for action.
func (p *Policy) ScopeFor(role domain.Role, action Action) Scope {
	rules, ok := p.rules[role]
	if !ok {
		return ScopeNone
	}
	return rules.actions[action]
}

// Require checks a ticket-independent permission.
func (p *Policy) Require(actor domain.Actor, action Action) error {
	if p.ScopeFor(actor.Role, action) == ScopeNone {
		return apperrors.NewForbidden("role " + string(actor.Role) + " may not perform " + string(action))
	}
	return nil
}

// Authorize checks action against a specific ticket.
func (p *Policy) Authorize(actor domain.Actor, action Action, ticket *domain.Ticket) error {
	switch p.ScopeFor(actor.Role, action) {
	case ScopeAll:
		return nil
	case ScopeOwn:
		if ticket.OwnerID == actor.ID {
			return nil
		}
		return apperrors.NewForbidden("access denied")
	case ScopeAssigned:
		if ticket.IsAssignedTo(actor.ID) {
			return nil
		}
		return apperrors.NewForbidden("you can only work on tickets assigned to you")
	default:
		return apperrors.NewForbidden("role " + string(actor.Role) + " may not perform " + string(action))
	}
}

// AuthorizeTransition checks ticket access, the edge, and assignment rights in one pass.
func (p *Policy) AuthorizeTransition(actor domain.Actor, ticket *domain.Ticket, edge domain.Edge, assigning bool) error {
	if err := p.Authorize(actor, ActionTransition, ticket); err != nil {
		return err
	}
	if !p.rules[actor.Role].edges[edge] {
		return apperrors.NewForbidden("role " + string(actor.Role) + " may not move a ticket " + edge.String())
	}
	if assigning && p.ScopeFor(actor.Role, ActionAssign) == ScopeNone {
		return apperrors.NewForbidden("only administrators can assign tickets")
	}
	return nil
}
