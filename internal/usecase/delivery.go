package usecase

import (
	"context"
	"fmt"
	"time"

	"CoinCast/internal/domain/models"
	drepo "CoinCast/internal/domain/repository"
	domsvc "CoinCast/internal/domain/service"
	applogger "CoinCast/pkg/logger"
	"CoinCast/pkg/queue"
)

const DeliveryMessageType = "relay.delivery"

// DirectDispatcher sends immediately and reports the sender's error.
type DirectDispatcher struct {
	sender  domsvc.MessageSender
	timeout time.Duration
}

func NewDirectDispatcher(sender domsvc.MessageSender, timeout time.Duration) *DirectDispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &DirectDispatcher{sender: sender, timeout: timeout}
}

func (d *DirectDispatcher) Dispatch(ctx context.Context, del models.Delivery) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	if err := d.sender.SendMessage(ctx, del.ChatID, del.Text); err != nil {
		return false, err
	}
	return true, nil
}

// QueueDispatcher defers delivery to the work queue.
type QueueDispatcher struct {
	publisher queue.Publisher
}

func NewQueueDispatcher(p queue.Publisher) *QueueDispatcher {
	return &QueueDispatcher{publisher: p}
}

func (d *QueueDispatcher) Dispatch(ctx context.Context, del models.Delivery) (bool, error) {
	if err := d.publisher.PublishMessage(ctx, DeliveryMessageType, del); err != nil {
		return false, fmt.Errorf("enqueue delivery: %w", err)
	}
	return false, nil
}

// DeliveryJob drains queued deliveries through a MessageSender. Errors are
// retried by the queue.
type DeliveryJob struct {
	sender  domsvc.MessageSender
	metrics drepo.Metrics
	logger  *applogger.Logger
}

func NewDeliveryJob(sender domsvc.MessageSender, metrics drepo.Metrics, logger *applogger.Logger) *DeliveryJob {
	return &DeliveryJob{sender: sender, metrics: metrics, logger: logger}
}

func (j *DeliveryJob) Name() string { return "telegram-delivery" }
func (j *DeliveryJob) Type() string { return DeliveryMessageType }

func (j *DeliveryJob) Handle(ctx context.Context, payload interface{}) error {
	del, err := queue.ParsePayload[models.Delivery](payload)
	if err != nil {
		return err
	}
	if err := j.sender.SendMessage(ctx, del.ChatID, del.Text); err != nil {
		j.metrics.RecordDelivery("retry")
		return fmt.Errorf("deliver to %s: %w", del.UserID, err)
	}
	j.metrics.RecordDelivery("sent")
	j.logger.Debug("queued message delivered", applogger.String("user_id", del.UserID))
	return nil
}

var (
	_ domsvc.DeliveryDispatcher = (*DirectDispatcher)(nil)
	_ domsvc.DeliveryDispatcher = (*QueueDispatcher)(nil)
	_ queue.Job                 = (*DeliveryJob)(nil)
)
