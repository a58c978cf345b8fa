package service

import (
	"context"

	"CoinCast/internal/domain/models"
)

// Notifier hands a user-facing message to the relay.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}

// MessageSender delivers text to a chat.
type MessageSender interface {
	SendMessage(ctx context.Context, chatID, text string) error
}

// DeliveryDispatcher delivers now or defers to a queue.
type DeliveryDispatcher interface {
	Dispatch(ctx context.Context, d models.Delivery) (queued bool, err error)
}
