package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidTransition(t *testing.T) {
	statuses := []TicketStatus{TicketStatusPending, TicketStatusInProgress, TicketStatusResolved, TicketStatusReopened, TicketStatusClosed}
	legal := map[Edge]bool{}
	for _, e := range Edges() {
		legal[e] = true
	}
	assert.Len(t, legal, 7)

	for _, from := range statuses {
		for _, to := range statuses {
			edge := Edge{From: from, To: to}
			assert.Equal(t, legal[edge], IsValidTransition(from, to), edge.String())
		}
	}
}

func TestReopenedOnlyLeadsToInProgress(t *testing.T) {
	assert.Equal(t, []TicketStatus{TicketStatusInProgress}, NextStatuses(TicketStatusReopened))
	assert.False(t, IsValidTransition(TicketStatusReopened, TicketStatusClosed))
	assert.Empty(t, NextStatuses(TicketStatusClosed))
}
