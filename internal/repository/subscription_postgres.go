package repository

import (
	"context"
	_ "embed"
	"fmt"

	"CoinCast/internal/domain/models"
	"CoinCast/internal/domain/repository"
	"CoinCast/pkg/postgres"
)

//go:embed migrations/001_subscriptions.sql
var subscriptionsSchema string

// PostgresSubscriptionStore persists subscriptions in the subscriptions table.
type PostgresSubscriptionStore struct {
	pool *postgres.Pool
}

// NewPostgresSubscriptionStore applies the schema and returns the store.
func NewPostgresSubscriptionStore(ctx context.Context, pool *postgres.Pool) (*PostgresSubscriptionStore, error) {
	if err := pool.Migrate(ctx, subscriptionsSchema); err != nil {
		return nil, err
	}
	return &PostgresSubscriptionStore{pool: pool}, nil
}

func (s *PostgresSubscriptionStore) Get(ctx context.Context, userID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.pool.QueryRow(ctx,
		`SELECT user_id, chat_id, updated_at FROM subscriptions WHERE user_id = $1`, userID,
	).Scan(&sub.UserID, &sub.ChatID, &sub.UpdatedAt)
	if err != nil {
		if postgres.IsNotFound(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("select subscription: %w", err)
	}
	return &sub, nil
}

func (s *PostgresSubscriptionStore) Upsert(ctx context.Context, sub *models.Subscription) error {
	if sub == nil || sub.UserID == "" || sub.ChatID == "" {
		return repository.ErrInvalidInput
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO subscriptions (user_id, chat_id, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET chat_id = EXCLUDED.chat_id, updated_at = EXCLUDED.updated_at`,
		sub.UserID, sub.ChatID, sub.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	return nil
}

var _ repository.SubscriptionStore = (*PostgresSubscriptionStore)(nil)
