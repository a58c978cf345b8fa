package repository

import (
	"context"
	"sync"

	"CoinCast/internal/domain/models"
	"CoinCast/internal/domain/repository"
)

// MemorySubscriptionStore keeps subscriptions in process memory.
type MemorySubscriptionStore struct {
	mu   sync.RWMutex
	subs map[string]models.Subscription
}

func NewMemorySubscriptionStore() *MemorySubscriptionStore {
	return &MemorySubscriptionStore{subs: make(map[string]models.Subscription)}
}

func (s *MemorySubscriptionStore) Get(_ context.Context, userID string) (*models.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.subs[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &sub, nil
}

func (s *MemorySubscriptionStore) Upsert(_ context.Context, sub *models.Subscription) error {
	if sub == nil || sub.UserID == "" || sub.ChatID == "" {
		return repository.ErrInvalidInput
	}
	s.mu.Lock()
	s.subs[sub.UserID] = *sub
	s.mu.Unlock()
	return nil
}

var _ repository.SubscriptionStore = (*MemorySubscriptionStore)(nil)
