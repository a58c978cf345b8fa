package di

import (
	"testing"

	"CoinCast/internal/domain/models"
	internalrepo "CoinCast/internal/repository"
	"CoinCast/internal/service/cryptocompare"
	"CoinCast/internal/usecase"
	"CoinCast/pkg/config"
	applogger "CoinCast/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriodTable(t *testing.T) {
	cfg := config.Default()
	table := PeriodTable(cfg)

	p, err := table.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "24h", p.Name)
	assert.Equal(t, models.GranularityHour, p.Granularity)
	assert.Equal(t, 240, p.Limit)
	assert.Equal(t, "lstm", p.Engine)

	p, err = table.Resolve("1m")
	require.NoError(t, err)
	assert.Equal(t, models.GranularityMinute, p.Granularity)
	assert.Equal(t, "trend", p.Engine)
}

func TestProvideRedisClientOnlyWhenNeeded(t *testing.T) {
	cfg := config.Default()
	assert.Nil(t, ProvideRedisClient(cfg))

	cfg.CryptoCompare.Cache.Backend = "redis"
	rdb := ProvideRedisClient(cfg)
	require.NotNil(t, rdb)
	assert.Equal(t, "localhost:6379", rdb.Options().Addr)
	_ = rdb.Close()
}

func TestProvideHistoryFetcherCaching(t *testing.T) {
	cfg := config.Default()
	l := applogger.NewNop()

	assert.IsType(t, &cryptocompare.Client{}, ProvideHistoryFetcher(cfg, nil, l))

	cfg.CryptoCompare.Cache.Backend = "memory"
	assert.IsType(t, &cryptocompare.CachedFetcher{}, ProvideHistoryFetcher(cfg, nil, l))
}

func TestProvideBackendsDefaultToNop(t *testing.T) {
	cfg := config.Default()

	ch, err := ProvideClickHouseClient(cfg)
	require.NoError(t, err)
	assert.Nil(t, ch)

	rec, err := ProvidePredictionRecorder(cfg, ch)
	require.NoError(t, err)
	assert.IsType(t, internalrepo.NopPredictionRecorder{}, rec)

	pub, err := ProvideEventPublisher(cfg)
	require.NoError(t, err)
	assert.IsType(t, internalrepo.NopEventPublisher{}, pub)

	assert.Nil(t, ProvideNotificationPolicy(cfg, nil, applogger.NewNop()))
	assert.Nil(t, ProvideRateLimiter(cfg))
}

func TestProvideDispatcherWithoutQueue(t *testing.T) {
	cfg := config.Default()
	d := ProvideDispatcher(cfg, nil, ProvideMessageSender(cfg))
	assert.IsType(t, &usecase.DirectDispatcher{}, d)

	store, err := ProvideSubscriptionStore(cfg, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &internalrepo.MemorySubscriptionStore{}, store)
}

func TestProvideModelRegistryWithoutLSTMProfiles(t *testing.T) {
	cfg := config.Default()
	cfg.Forecast.Periods = map[string]config.PeriodProfile{
		"1m": {Granularity: "minute", Limit: 10, Engine: "trend"},
	}
	cfg.Model.Dir = t.TempDir()

	r, err := ProvideModelRegistry(cfg, applogger.NewNop())
	require.NoError(t, err)
	_, ok := r.Lookup("BTC")
	assert.False(t, ok)
}
