package repository

import (
	"context"

	"CoinCast/internal/domain/models"
	"CoinCast/internal/domain/repository"
	pkgkafka "CoinCast/pkg/kafka"
)

// KafkaEventPublisher publishes prediction events keyed by symbol, so events
// for one symbol stay ordered within a partition.
type KafkaEventPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaEventPublisher(producer *pkgkafka.Producer, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

func (p *KafkaEventPublisher) PublishPrediction(ctx context.Context, e models.PredictionEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(e.Symbol), e)
}

func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NopEventPublisher drops events.
type NopEventPublisher struct{}

func (NopEventPublisher) PublishPrediction(context.Context, models.PredictionEvent) error { return nil }
func (NopEventPublisher) Close() error                                                    { return nil }

var (
	_ repository.EventPublisher = (*KafkaEventPublisher)(nil)
	_ repository.EventPublisher = NopEventPublisher{}
)
