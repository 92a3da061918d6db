package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/campusdesk/service-desk/internal/domain"
	"github.com/campusdesk/service-desk/internal/repository"
)

// NotificationStore keeps notifications in insertion order per recipient.
type NotificationStore struct {
	mu    sync.RWMutex
	items map[string]domain.Notification
}

var _ repository.NotificationRepository = (*NotificationStore)(nil)

func NewNotificationStore() *NotificationStore {
	return &NotificationStore{items: make(map[string]domain.Notification)}
}

func (s *NotificationStore) Create(_ context.Context, n *domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[n.ID]; exists {
		return repository.ErrDuplicate
	}
	s.items[n.ID] = *n
	return nil
}

func (s *NotificationStore) GetByID(_ context.Context, id string) (*domain.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &n, nil
}

func (s *NotificationStore) MarkRead(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.items[id]
	if !ok {
		return repository.ErrNotFound
	}
	n.IsRead = true
	s.items[id] = n
	return nil
}

func (s *NotificationStore) MarkAllRead(_ context.Context, recipientID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var updated int64
	for id, n := range s.items {
		if n.RecipientID != recipientID || n.IsRead {
			continue
		}
		n.IsRead = true
		s.items[id] = n
		updated++
	}
	return updated, nil
}

func (s *NotificationStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *NotificationStore) ListByRecipient(_ context.Context, recipientID string, filter repository.NotificationFilter) ([]domain.Notification, error) {
	s.mu.RLock()
	var matched []domain.Notification
	for _, n := range s.items {
		if n.RecipientID != recipientID {
			continue
		}
		if filter.IsRead != nil && n.IsRead != *filter.IsRead {
			continue
		}
		matched = append(matched, n)
	}
	s.mu.RUnlock()

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
	return matched[offset:end], nil
}

func (s *NotificationStore) CountUnread(_ context.Context, recipientID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total int
	for _, n := range s.items {
		if n.RecipientID == recipientID && !n.IsRead {
			total++
		}
	}
	return total, nil
}
