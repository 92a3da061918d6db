package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/campusdesk/service-desk/internal/domain"
	"github.com/campusdesk/service-desk/internal/repository"
)

// FeedbackStore indexes feedback by ticket. A second record for the same
// ticket is rejected with ErrDuplicate, mirroring the unique constraint.
type FeedbackStore struct {
	mu       sync.RWMutex
	byTicket map[string]domain.Feedback
}

var _ repository.FeedbackRepository = (*FeedbackStore)(nil)

func NewFeedbackStore() *FeedbackStore {
	return &FeedbackStore{byTicket: make(map[string]domain.Feedback)}
}

func (s *FeedbackStore) Create(_ context.Context, f *domain.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byTicket[f.TicketID]; exists {
		return repository.ErrDuplicate
	}
	s.byTicket[f.TicketID] = *f
	return nil
}

func (s *FeedbackStore) GetByTicket(_ context.Context, ticketID string) (*domain.Feedback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.byTicket[ticketID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &f, nil
}

func (s *FeedbackStore) List(_ context.Context, filter repository.FeedbackFilter) ([]domain.Feedback, error) {
	s.mu.RLock()
	var matched []domain.Feedback
	for _, f := range s.byTicket {
		if filter.Rating != nil && f.Rating != *filter.Rating {
			continue
		}
		matched = append(matched, f)
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	limit, offset := repository.Page(filter.Limit, filter.Offset)
	if offset >= len(matched) {
		return nil, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (s *FeedbackStore) Stats(_ context.Context) (*domain.FeedbackStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &domain.FeedbackStats{RatingDistribution: map[int]int{}}
	var rating, quality, response, satisfaction int
	for _, f := range s.byTicket {
		stats.TotalFeedback++
		stats.RatingDistribution[f.Rating]++
		rating += f.Rating
		quality += f.ServiceQuality
		response += f.ResponseTime
		satisfaction += f.OverallSatisfaction
	}
	if n := float64(stats.TotalFeedback); n > 0 {
		stats.AvgRating = float64(rating) / n
		stats.AvgServiceQuality = float64(quality) / n
		stats.AvgResponseTime = float64(response) / n
		stats.AvgSatisfaction = float64(satisfaction) / n
	}
	return stats, nil
}
