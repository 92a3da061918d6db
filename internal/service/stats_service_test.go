package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusdesk/service-desk/internal/cache"
	"github.com/campusdesk/service-desk/internal/domain"
	apperrors "github.com/campusdesk/service-desk/pkg/util/errorutil"
)

func TestDashboardCachedUntilTicketWrite(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()
	statsCache := cache.NewMemoryCache(time.Minute)
	stats := NewStatsService(StatsDependencies{TicketRepo: f.tickets, Cache: statsCache})
	f.svc = NewTicketService(TicketDependencies{
		TicketRepo: f.tickets,
		Notifier:   f.notifier,
		Stats:      stats,
		Clock:      func() time.Time { return f.now },
	})

	_, err := stats.Dashboard(ctx, technician)
	requireCode(t, err, apperrors.CodeForbidden)

	ticket := f.create(t, student)
	dashboard, err := stats.Dashboard(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, 1, dashboard.TotalTickets)
	assert.Equal(t, 1, dashboard.StatusDistribution[domain.TicketStatusPending])

	var cached domain.DashboardStats
	hit, err := statsCache.Get(ctx, dashboardCacheKey, &cached)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, 1, cached.TotalTickets)

	f.move(t, admin, ticket.ID, domain.TicketStatusInProgress)
	hit, err = statsCache.Get(ctx, dashboardCacheKey, &cached)
	require.NoError(t, err)
	assert.False(t, hit)

	f.advance(2 * time.Hour)
	f.move(t, admin, ticket.ID, domain.TicketStatusResolved)
	f.move(t, admin, ticket.ID, domain.TicketStatusReopened)
	f.move(t, admin, ticket.ID, domain.TicketStatusInProgress)
	f.move(t, admin, ticket.ID, domain.TicketStatusResolved)
	_, err = f.svc.ConfirmResolution(ctx, student, ticket.ID, ConfirmAccept)
	require.NoError(t, err)

	dashboard, err = stats.Dashboard(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, 1, dashboard.StatusDistribution[domain.TicketStatusClosed])
	assert.Zero(t, dashboard.StatusDistribution[domain.TicketStatusPending])
	assert.Equal(t, 1, dashboard.TotalReopens)
	assert.InDelta(t, 120.0, dashboard.AvgResolutionMinutes, 0.001)
}

func TestDashboardWithoutCache(t *testing.T) {
	f := newTicketFixture(t)
	stats := NewStatsService(StatsDependencies{TicketRepo: f.tickets})
	f.create(t, student)
	f.create(t, otherUser)

	dashboard, err := stats.Dashboard(context.Background(), admin)
	require.NoError(t, err)
	assert.Equal(t, 2, dashboard.TotalTickets)
	assert.Equal(t, 2, dashboard.CategoryDistribution[domain.CategoryITSupport])
}
