package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"CoinCast/internal/domain/models"
	drepo "CoinCast/internal/domain/repository"
	domsvc "CoinCast/internal/domain/service"
	applogger "CoinCast/pkg/logger"
)

// ErrDeliveryFailed marks a resolved user whose message could not be sent.
var ErrDeliveryFailed = errors.New("delivery failed")

// Relay owns the userId to chat mapping and message delivery.
type Relay struct {
	store      drepo.SubscriptionStore
	dispatcher domsvc.DeliveryDispatcher
	metrics    drepo.Metrics
	logger     *applogger.Logger
}

func NewRelay(store drepo.SubscriptionStore, dispatcher domsvc.DeliveryDispatcher, metrics drepo.Metrics, logger *applogger.Logger) *Relay {
	return &Relay{store: store, dispatcher: dispatcher, metrics: metrics, logger: logger}
}

// Subscribe upserts the chat for a user; the last write wins.
func (r *Relay) Subscribe(ctx context.Context, req models.SubscriptionRequest) (*models.Subscription, error) {
	sub := &models.Subscription{
		UserID:    strings.TrimSpace(req.UserID),
		ChatID:    strings.TrimSpace(req.ChatID),
		UpdatedAt: time.Now().UTC(),
	}
	if sub.UserID == "" || sub.ChatID == "" {
		return nil, drepo.ErrInvalidInput
	}
	if err := r.store.Upsert(ctx, sub); err != nil {
		return nil, fmt.Errorf("upsert subscription: %w", err)
	}
	r.logger.Info("subscription saved", applogger.String("user_id", sub.UserID))
	return sub, nil
}

// Subscription returns the mapping or repository.ErrNotFound.
func (r *Relay) Subscription(ctx context.Context, userID string) (*models.Subscription, error) {
	return r.store.Get(ctx, strings.TrimSpace(userID))
}

// Send resolves the user's chat and dispatches the message. queued reports
// whether delivery was deferred.
func (r *Relay) Send(ctx context.Context, req models.SendMessageRequest) (queued bool, err error) {
	sub, err := r.store.Get(ctx, strings.TrimSpace(req.UserID))
	if err != nil {
		if errors.Is(err, drepo.ErrNotFound) {
			r.metrics.RecordDelivery("unknown_user")
		}
		return false, err
	}

	delivered, err := r.dispatcher.Dispatch(ctx, models.Delivery{
		ChatID: sub.ChatID,
		Text:   req.Message,
		Lang:   req.Lang,
		UserID: sub.UserID,
	})
	if err != nil {
		r.metrics.RecordDelivery("failed")
		r.logger.Warn("delivery failed", applogger.String("user_id", sub.UserID), applogger.Error(err))
		return false, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	if !delivered {
		r.metrics.RecordDelivery("queued")
		return true, nil
	}
	r.metrics.RecordDelivery("sent")
	return false, nil
}
