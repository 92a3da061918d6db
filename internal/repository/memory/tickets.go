// Package memory provides process-local repositories used when no database
// is configured and by service tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/campusdesk/service-desk/internal/domain"
	"github.com/campusdesk/service-desk/internal/repository"
)

// TicketStore is a mutex-guarded ticket repository. Tickets are cloned on
// the way in and out so callers never share slices with the store.
type TicketStore struct {
	mu      sync.RWMutex
	tickets map[string]*domain.Ticket
}

var _ repository.TicketRepository = (*TicketStore)(nil)

func NewTicketStore() *TicketStore {
	return &TicketStore{tickets: make(map[string]*domain.Ticket)}
}

func (s *TicketStore) Create(_ context.Context, ticket *domain.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tickets[ticket.ID]; exists {
		return repository.ErrDuplicate
	}
	for _, t := range s.tickets {
		if t.HumanID == ticket.HumanID {
			return repository.ErrDuplicate
		}
	}
	s.tickets[ticket.ID] = ticket.Clone()
	return nil
}

func (s *TicketStore) Update(_ context.Context, ticket *domain.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tickets[ticket.ID]; !exists {
		return repository.ErrNotFound
	}
	s.tickets[ticket.ID] = ticket.Clone()
	return nil
}

func (s *TicketStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tickets[id]; !exists {
		return repository.ErrNotFound
	}
	delete(s.tickets, id)
	return nil
}

func (s *TicketStore) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return t.Clone(), nil
}

func (s *TicketStore) GetByHumanID(_ context.Context, humanID string) (*domain.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tickets {
		if t.HumanID == humanID {
			return t.Clone(), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *TicketStore) GetByIDs(_ context.Context, ids []string) ([]domain.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Ticket
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		t, ok := s.tickets[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		result = append(result, *t.Clone())
	}
	return result, nil
}

func (s *TicketStore) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	matched := s.match(filter)
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
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
	result := make([]domain.Ticket, 0, end-offset)
	for _, t := range matched[offset:end] {
		result = append(result, *t)
	}
	return result, nil
}

func (s *TicketStore) Count(_ context.Context, filter repository.TicketFilter) (int, error) {
	return len(s.match(filter)), nil
}

func (s *TicketStore) Aggregate(_ context.Context) (*domain.DashboardStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &domain.DashboardStats{
		StatusDistribution:   map[domain.TicketStatus]int{},
		CategoryDistribution: map[domain.TicketCategory]int{},
		PriorityDistribution: map[domain.TicketPriority]int{},
	}
	var resolvedCount, resolvedMinutes int
	for _, t := range s.tickets {
		stats.TotalTickets++
		stats.TotalReopens += t.ReopenedCount
		stats.StatusDistribution[t.Status]++
		stats.CategoryDistribution[t.Category]++
		stats.PriorityDistribution[t.Priority]++
		if t.ResolutionTimeMinutes != nil {
			resolvedCount++
			resolvedMinutes += *t.ResolutionTimeMinutes
		}
	}
	if resolvedCount > 0 {
		stats.AvgResolutionMinutes = float64(resolvedMinutes) / float64(resolvedCount)
	}
	return stats, nil
}

func (s *TicketStore) match(filter repository.TicketFilter) []*domain.Ticket {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var search string
	if filter.SearchTerm != nil {
		search = strings.ToLower(strings.TrimSpace(*filter.SearchTerm))
	}

	var result []*domain.Ticket
	for _, t := range s.tickets {
		if filter.OwnerID != nil && t.OwnerID != *filter.OwnerID {
			continue
		}
		if filter.AssigneeID != nil && !t.IsAssignedTo(*filter.AssigneeID) {
			continue
		}
		if len(filter.Statuses) > 0 && !contains(filter.Statuses, t.Status) {
			continue
		}
		if len(filter.Categories) > 0 && !contains(filter.Categories, t.Category) {
			continue
		}
		if len(filter.Priorities) > 0 && !contains(filter.Priorities, t.Priority) {
			continue
		}
		if filter.CreatedFrom != nil && t.CreatedAt.Before(*filter.CreatedFrom) {
			continue
		}
		if filter.CreatedTo != nil && t.CreatedAt.After(*filter.CreatedTo) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(t.Title), search) &&
			!strings.Contains(strings.ToLower(t.HumanID), search) &&
			!strings.Contains(strings.ToLower(t.Location), search) {
			continue
		}
		result = append(result, t.Clone())
	}
	return result
}

func contains[T comparable](items []T, v T) bool {
	for _, item := range items {
		if item == v {
			return true
		}
	}
	return false
}
