package domain

// Edge is a single status change.
type Edge struct {
	From TicketStatus
	To   TicketStatus
}

func (e Edge) String() string {
	return string(e.From) + "->" + string(e.To)
}

// allowedTransitions is the ticket state machine. Closed is terminal.
var allowedTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusPending:    {TicketStatusInProgress, TicketStatusClosed},
	TicketStatusInProgress: {TicketStatusResolved, TicketStatusPending},
	TicketStatusResolved:   {TicketStatusClosed, TicketStatusReopened},
	TicketStatusReopened:   {TicketStatusInProgress},
	TicketStatusClosed:     {},
}

// IsValidTransition reports whether current -> next is an edge of the state machine.
func IsValidTransition(current, next TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// NextStatuses lists the legal targets from current.
func NextStatuses(current TicketStatus) []TicketStatus {
	return append([]TicketStatus(nil), allowedTransitions[current]...)
}

// Edges enumerates every edge of the state machine.
func Edges() []Edge {
	order := []TicketStatus{TicketStatusPending, TicketStatusInProgress, TicketStatusResolved, TicketStatusReopened, TicketStatusClosed}
	var edges []Edge
	for _, from := range order {
		for _, to := range allowedTransitions[from] {
			edges = append(edges, Edge{From: from, To: to})
		}
	}
	return edges
}
