package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"CoinCast/internal/domain/models"
	"CoinCast/internal/domain/repository"

	"github.com/redis/go-redis/v9"
)

// RedisSubscriptionStore keeps all subscriptions in one redis hash keyed by userId.
type RedisSubscriptionStore struct {
	cli *redis.Client
	key string
}

func NewRedisSubscriptionStore(cli *redis.Client, key string) *RedisSubscriptionStore {
	if key == "" {
		key = "coincast:subscriptions"
	}
	return &RedisSubscriptionStore{cli: cli, key: key}
}

func (s *RedisSubscriptionStore) Get(ctx context.Context, userID string) (*models.Subscription, error) {
	b, err := s.cli.HGet(ctx, s.key, userID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("hget subscription: %w", err)
	}
	var sub models.Subscription
	if err := json.Unmarshal(b, &sub); err != nil {
		return nil, fmt.Errorf("decode subscription %s: %w", userID, err)
	}
	return &sub, nil
}

func (s *RedisSubscriptionStore) Upsert(ctx context.Context, sub *models.Subscription) error {
	if sub == nil || sub.UserID == "" || sub.ChatID == "" {
		return repository.ErrInvalidInput
	}
	b, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("encode subscription: %w", err)
	}
	if err := s.cli.HSet(ctx, s.key, sub.UserID, b).Err(); err != nil {
		return fmt.Errorf("hset subscription: %w", err)
	}
	return nil
}

var _ repository.SubscriptionStore = (*RedisSubscriptionStore)(nil)
