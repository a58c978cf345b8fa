//go:build wireinject
// +build wireinject

package di

import (
	"CoinCast/internal/usecase"
	"CoinCast/pkg/config"
	"CoinCast/pkg/server"

	"github.com/google/wire"
)

var commonSet = wire.NewSet(
	ProvideLogger,
	ProvideMetrics,
	ProvideRedisClient,
)

var predictSet = wire.NewSet(
	ProvideHistoryFetcher,
	ProvideModelRegistry,
	ProvideEngines,
	ProvideAdjuster,
	ProvideNotificationPolicy,
	ProvideClickHouseClient,
	ProvidePredictionRecorder,
	ProvideEventPublisher,
	ProvidePredictor,
	ProvidePredictHandler,
	ProvideRateLimiter,
	ProvidePredictServer,
	ProvidePredictApp,
)

var relaySet = wire.NewSet(
	ProvidePostgresPool,
	ProvideSubscriptionStore,
	ProvideMessageSender,
	ProvideDeliveryQueue,
	ProvideDispatcher,
	ProvideRelay,
	ProvideRelayHandler,
	ProvideRelayServer,
	ProvideRelayApp,
)

var trainSet = wire.NewSet(
	ProvideHistoryFetcher,
	ProvideTrainer,
)

// InitializeApp wires the prediction service.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(commonSet, predictSet)
	return &server.App{}, nil
}

// InitializeRelay wires the notification relay.
func InitializeRelay(cfg *config.Config) (*server.App, error) {
	wire.Build(commonSet, relaySet)
	return &server.App{}, nil
}

// InitializeTrainer wires the offline training pipeline.
func InitializeTrainer(cfg *config.Config) (*usecase.Trainer, error) {
	wire.Build(commonSet, trainSet)
	return &usecase.Trainer{}, nil
}
