package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/campusdesk/service-desk/internal/auth"
	"github.com/campusdesk/service-desk/internal/cache"
	"github.com/campusdesk/service-desk/internal/domain"
	"github.com/campusdesk/service-desk/internal/observability"
	"github.com/campusdesk/service-desk/internal/repository"
)

const (
	dashboardCacheKey     = "stats:dashboard"
	feedbackStatsCacheKey = "stats:feedback"
)

// StatsService serves the admin dashboard from a cache that every ticket
// write invalidates.
type StatsService struct {
	tickets repository.TicketRepository
	cache   cache.Cache
	policy  *auth.Policy
	logger  *zap.Logger
	metrics *observability.Metrics
}

// StatsDependencies bundles collaborators for the stats service.
type StatsDependencies struct {
	TicketRepo repository.TicketRepository
	Cache      cache.Cache
	Policy     *auth.Policy
	Logger     *zap.Logger
	Metrics    *observability.Metrics
}

func NewStatsService(deps StatsDependencies) *StatsService {
	policy := deps.Policy
	if policy == nil {
		policy = auth.DefaultPolicy()
	}
	return &StatsService{
		tickets: deps.TicketRepo,
		cache:   deps.Cache,
		policy:  policy,
		logger:  loggerOrNop(deps.Logger),
		metrics: deps.Metrics,
	}
}

// Dashboard returns ticket totals and distributions.
func (s *StatsService) Dashboard(ctx context.Context, actor domain.Actor) (*domain.DashboardStats, error) {
	if err := s.policy.Require(actor, auth.ActionReadStats); err != nil {
		return nil, err
	}
	return cachedLoad(ctx, s.cache, dashboardCacheKey, s.logger, s.metrics, func() (*domain.DashboardStats, error) {
		stats, err := s.tickets.Aggregate(ctx)
		if err != nil {
			return nil, mapRepoError(err, "stats")
		}
		return stats, nil
	})
}

// Invalidate drops the cached dashboard.
func (s *StatsService) Invalidate(ctx context.Context) {
	invalidate(ctx, s.cache, s.logger, dashboardCacheKey)
}

// cachedLoad returns the cached value for key or loads and caches it. Cache
// failures degrade to a direct load.
func cachedLoad[T any](ctx context.Context, c cache.Cache, key string, logger *zap.Logger, metrics *observability.Metrics, load func() (*T, error)) (*T, error) {
	if c == nil {
		return load()
	}
	var cached T
	hit, err := c.Get(ctx, key, &cached)
	if err != nil {
		logger.Warn("stats cache read failed", zap.String("key", key), zap.Error(err))
	}
	metrics.RecordCacheLookup(hit)
	if hit {
		return &cached, nil
	}

	value, err := load()
	if err != nil {
		return nil, err
	}
	if err := c.Set(ctx, key, value); err != nil {
		logger.Warn("stats cache write failed", zap.String("key", key), zap.Error(err))
	}
	return value, nil
}

func invalidate(ctx context.Context, c cache.Cache, logger *zap.Logger, keys ...string) {
	if c == nil {
		return
	}
	if err := c.Delete(ctx, keys...); err != nil {
		logger.Warn("stats cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
