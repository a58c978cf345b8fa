package di

import (
	"context"
	"fmt"
	"time"

	"CoinCast/internal/domain/models"
	"CoinCast/internal/domain/repository"
	domsvc "CoinCast/internal/domain/service"
	"CoinCast/internal/handler/api"
	internalrepo "CoinCast/internal/repository"
	"CoinCast/internal/service/cache"
	"CoinCast/internal/service/cryptocompare"
	trainmetrics "CoinCast/internal/service/metrics"
	"CoinCast/internal/service/ratelimit"
	"CoinCast/internal/service/relay"
	"CoinCast/internal/service/telegram"
	"CoinCast/internal/services/forecast"
	"CoinCast/internal/usecase"
	pkgch "CoinCast/pkg/clickhouse"
	"CoinCast/pkg/config"
	xhttp "CoinCast/pkg/http"
	pkgkafka "CoinCast/pkg/kafka"
	applogger "CoinCast/pkg/logger"
	"CoinCast/pkg/metrics"
	"CoinCast/pkg/postgres"
	"CoinCast/pkg/queue"
	"CoinCast/pkg/server"

	"github.com/redis/go-redis/v9"
)

const connectTimeout = 10 * time.Second

// ProvideLogger builds the process logger from the log section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideMetrics creates a Prometheus recorder on the default registry.
func ProvideMetrics() repository.Metrics {
	return metrics.New(nil)
}

// ProvideRedisClient returns nil when no configured component needs redis.
// go-redis dials lazily, so construction never blocks.
func ProvideRedisClient(cfg *config.Config) *redis.Client {
	needed := cfg.CryptoCompare.Cache.Backend == "redis" ||
		cfg.Relay.Store == "redis" ||
		cfg.Relay.Queue.Enabled
	if !needed {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// ProvideHistoryFetcher builds the CryptoCompare client and wraps it in the
// configured response cache.
func ProvideHistoryFetcher(cfg *config.Config, rdb *redis.Client, logger *applogger.Logger) repository.HistoryFetcher {
	client := cryptocompare.New(
		cryptocompare.WithBaseURL(cfg.CryptoCompare.BaseURL),
		cryptocompare.WithAPIKey(cfg.CryptoCompare.APIKey),
		cryptocompare.WithQuoteCurrency(cfg.CryptoCompare.QuoteCurrency),
		cryptocompare.WithHTTPClient(xhttp.NewClient(xhttp.WithTimeout(cfg.CryptoCompare.Timeout))),
		cryptocompare.WithLogger(logger),
	)

	var c cache.BytesCache
	switch cfg.CryptoCompare.Cache.Backend {
	case "memory":
		c = cache.NewTTLCache()
	case "redis":
		c = cache.NewRedisCache(rdb, "coincast:cc")
	default:
		return client
	}
	return cryptocompare.NewCachedFetcher(client, c, cfg.CryptoCompare.Cache.TTL, logger)
}

// ProvideModelRegistry loads an artifact pair for every symbol served by an
// lstm profile. A missing or mismatched artifact aborts startup.
func ProvideModelRegistry(cfg *config.Config, logger *applogger.Logger) (*forecast.Registry, error) {
	usesLSTM := false
	for _, p := range cfg.Forecast.Periods {
		if p.Engine == "lstm" {
			usesLSTM = true
			break
		}
	}
	if !usesLSTM {
		return forecast.NewRegistry(cfg.Forecast.WindowSize, nil)
	}
	return forecast.LoadRegistry(cfg.Model.Dir, cfg.Forecast.Symbols, cfg.Forecast.WindowSize, logger)
}

func ProvideEngines(cfg *config.Config, registry *forecast.Registry) usecase.Engines {
	return usecase.Engines{
		"lstm":  forecast.NewLSTMForecaster(registry),
		"trend": forecast.NewTrendForecaster(cfg.Forecast.Symbols),
	}
}

func ProvideAdjuster(cfg *config.Config) (domsvc.PredictionAdjuster, error) {
	return forecast.NewAdjuster(cfg.Forecast.Adjuster, cfg.Forecast.MomentumFactor)
}

// ProvideNotificationPolicy returns nil when no relay is configured, which
// disables alerts.
func ProvideNotificationPolicy(cfg *config.Config, m repository.Metrics, logger *applogger.Logger) *usecase.NotificationPolicy {
	if cfg.Relay.URL == "" {
		return nil
	}
	return usecase.NewNotificationPolicy(
		relay.New(cfg.Relay.URL, cfg.Relay.Timeout),
		cfg.Forecast.DeviationAlertPct,
		cfg.Relay.Timeout,
		m,
		logger,
	)
}

// ProvideClickHouseClient connects only for the clickhouse recorder backend.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.Recorder.Backend != "clickhouse" {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	client, err := pkgch.NewClient(ctx,
		pkgch.WithHost(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	if err := client.Migrate(ctx, internalrepo.ClickHouseSchema(cfg.ClickHouse.Database)); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// ProvidePredictionRecorder selects the audit trail backend.
func ProvidePredictionRecorder(cfg *config.Config, ch *pkgch.Client) (repository.PredictionRecorder, error) {
	switch cfg.Recorder.Backend {
	case "sqlite":
		r, err := internalrepo.NewSQLitePredictionRecorder(cfg.Recorder.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("sqlite recorder: %w", err)
		}
		return r, nil
	case "clickhouse":
		return internalrepo.NewClickHousePredictionRecorder(ch.DB(), cfg.ClickHouse.Database), nil
	default:
		return internalrepo.NopPredictionRecorder{}, nil
	}
}

// ProvideEventPublisher publishes prediction events to Kafka when enabled.
func ProvideEventPublisher(cfg *config.Config) (repository.EventPublisher, error) {
	if !cfg.Kafka.Enabled {
		return internalrepo.NopEventPublisher{}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.Topic), nil
}

// PeriodTable converts the configured period profiles.
func PeriodTable(cfg *config.Config) models.PeriodTable {
	t := models.PeriodTable{
		Default:  cfg.Forecast.DefaultPeriod,
		Profiles: make(map[string]models.PeriodProfile, len(cfg.Forecast.Periods)),
	}
	for name, p := range cfg.Forecast.Periods {
		t.Profiles[name] = models.PeriodProfile{
			Name:        name,
			Granularity: models.Granularity(p.Granularity),
			Limit:       p.Limit,
			Engine:      p.Engine,
		}
	}
	return t
}

func ProvidePredictor(
	cfg *config.Config,
	fetcher repository.HistoryFetcher,
	engines usecase.Engines,
	adjuster domsvc.PredictionAdjuster,
	policy *usecase.NotificationPolicy,
	recorder repository.PredictionRecorder,
	publisher repository.EventPublisher,
	m repository.Metrics,
	logger *applogger.Logger,
) (*usecase.Predictor, error) {
	return usecase.NewPredictor(
		usecase.PredictorConfig{
			WindowSize: cfg.Forecast.WindowSize,
			Symbols:    cfg.Forecast.Symbols,
			Periods:    PeriodTable(cfg),
		},
		fetcher, engines, adjuster, policy, recorder, publisher, m, logger,
	)
}

func ProvidePredictHandler(logger *applogger.Logger, predictor *usecase.Predictor) *api.PredictEchoHandler {
	return api.NewPredictEchoHandler(logger, predictor)
}

// ProvideRateLimiter returns nil when rate limiting is disabled.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	if !cfg.Server.RateLimit.Enabled {
		return nil
	}
	return ratelimit.New(cfg.Server.RateLimit.Capacity, cfg.Server.RateLimit.Refill)
}

func ProvidePredictServer(cfg *config.Config, h *api.PredictEchoHandler, limiter *ratelimit.Limiter, logger *applogger.Logger) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORSOrigins(cfg.Server.CORSOrigins),
		xhttp.WithLogger(logger),
	}
	if limiter != nil {
		opts = append(opts, xhttp.WithMiddleware(ratelimit.Middleware(limiter)))
	}
	return xhttp.NewServer(h, opts...)
}

// ProvidePredictApp assembles the prediction service and registers every
// resource that must be released on shutdown.
func ProvidePredictApp(
	srv *xhttp.Server,
	logger *applogger.Logger,
	limiter *ratelimit.Limiter,
	recorder repository.PredictionRecorder,
	publisher repository.EventPublisher,
	ch *pkgch.Client,
	rdb *redis.Client,
) *server.App {
	app := server.New("coincast-predict", srv, logger)
	if limiter != nil {
		app.AddRunner("ratelimit-pruner", ratelimit.NewPruner(limiter, time.Minute, 10*time.Minute))
	}
	if rdb != nil {
		app.AddCloser("redis", rdb.Close)
	}
	if ch != nil {
		app.AddCloser("clickhouse", ch.Close)
	}
	app.AddCloser("recorder", recorder.Close)
	app.AddCloser("publisher", publisher.Close)
	return app
}

// ProvidePostgresPool connects only for the postgres subscription store.
func ProvidePostgresPool(cfg *config.Config) (*postgres.Pool, error) {
	if cfg.Relay.Store != "postgres" {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return postgres.NewPool(ctx, cfg.Postgres.DSN)
}

func ProvideSubscriptionStore(cfg *config.Config, rdb *redis.Client, pool *postgres.Pool) (repository.SubscriptionStore, error) {
	switch cfg.Relay.Store {
	case "redis":
		return internalrepo.NewRedisSubscriptionStore(rdb, "coincast:subscriptions"), nil
	case "postgres":
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		store, err := internalrepo.NewPostgresSubscriptionStore(ctx, pool)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return internalrepo.NewMemorySubscriptionStore(), nil
	}
}

func ProvideMessageSender(cfg *config.Config) domsvc.MessageSender {
	return telegram.New(cfg.Telegram.BotToken,
		telegram.WithBaseURL(cfg.Telegram.BaseURL),
		telegram.WithTimeout(cfg.Telegram.Timeout),
	)
}

// ProvideDeliveryQueue returns nil unless queued delivery is enabled.
func ProvideDeliveryQueue(
	cfg *config.Config,
	rdb *redis.Client,
	sender domsvc.MessageSender,
	m repository.Metrics,
	logger *applogger.Logger,
) *queue.RedisQueue {
	if !cfg.Relay.Queue.Enabled {
		return nil
	}
	q := queue.NewRedisQueue(logger, queue.QueueConfig{
		Workers:    cfg.Relay.Queue.Workers,
		RetryLimit: cfg.Relay.Queue.RetryLimit,
		RetryDelay: cfg.Relay.Queue.RetryDelay,
	}, rdb)
	q.RegisterJob(usecase.NewDeliveryJob(sender, m, logger))
	return q
}

func ProvideDispatcher(cfg *config.Config, q *queue.RedisQueue, sender domsvc.MessageSender) domsvc.DeliveryDispatcher {
	if q != nil {
		return usecase.NewQueueDispatcher(q)
	}
	return usecase.NewDirectDispatcher(sender, cfg.Telegram.Timeout)
}

func ProvideRelay(store repository.SubscriptionStore, d domsvc.DeliveryDispatcher, m repository.Metrics, logger *applogger.Logger) *usecase.Relay {
	return usecase.NewRelay(store, d, m, logger)
}

func ProvideRelayHandler(logger *applogger.Logger, r *usecase.Relay) *api.RelayEchoHandler {
	return api.NewRelayEchoHandler(logger, r)
}

func ProvideRelayServer(cfg *config.Config, h *api.RelayEchoHandler, logger *applogger.Logger) *xhttp.Server {
	return xhttp.NewServer(h,
		xhttp.WithPort(cfg.Relay.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(logger),
	)
}

func ProvideRelayApp(
	srv *xhttp.Server,
	logger *applogger.Logger,
	q *queue.RedisQueue,
	rdb *redis.Client,
	pool *postgres.Pool,
) *server.App {
	app := server.New("coincast-relay", srv, logger)
	if q != nil {
		app.AddRunner("delivery-queue", q)
	}
	if rdb != nil {
		app.AddCloser("redis", rdb.Close)
	}
	if pool != nil {
		app.AddCloser("postgres", func() error {
			pool.Close()
			return nil
		})
	}
	return app
}

// ProvideTrainer builds the offline trainer and exports per-symbol results
// as training metrics.
func ProvideTrainer(cfg *config.Config, fetcher repository.HistoryFetcher, logger *applogger.Logger) *usecase.Trainer {
	trainmetrics.Register()
	return usecase.NewTrainer(usecase.TrainerConfig{
		Days:           cfg.Training.Days,
		WindowSize:     cfg.Forecast.WindowSize,
		Units:          cfg.Training.Units,
		Layers:         cfg.Training.Layers,
		Epochs:         cfg.Training.Epochs,
		BatchSize:      cfg.Training.BatchSize,
		LearningRate:   cfg.Training.LearningRate,
		ValidationPart: cfg.Training.ValidationPart,
		Seed:           cfg.Training.Seed,
		ModelDir:       cfg.Model.Dir,
	}, fetcher, logger, usecase.WithResultHook(trainmetrics.ObserveTraining))
}
