package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"CoinCast/internal/domain/models"
	domsvc "CoinCast/internal/domain/service"
	"CoinCast/internal/services/forecast"
	applogger "CoinCast/pkg/logger"
	"CoinCast/pkg/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type predictorFixture struct {
	fetcher   *fakeFetcher
	lstm      *fakeForecaster
	trend     *fakeForecaster
	notifier  *fakeNotifier
	recorder  *fakeRecorder
	publisher *fakePublisher
	predictor *Predictor
}

func newFixture(t *testing.T, adjuster domsvc.PredictionAdjuster) *predictorFixture {
	t.Helper()
	f := &predictorFixture{
		fetcher:   &fakeFetcher{series: ramp(100, 10)},
		lstm:      &fakeForecaster{name: "lstm", supported: map[string]bool{"BTC": true}, value: 105},
		trend:     &fakeForecaster{name: "trend", supported: map[string]bool{"BTC": true, "ETH": true}, value: 100},
		notifier:  &fakeNotifier{},
		recorder:  &fakeRecorder{},
		publisher: &fakePublisher{},
	}
	l := applogger.NewNop()
	policy := NewNotificationPolicy(f.notifier, 5, time.Second, metrics.Nop{}, l)
	p, err := NewPredictor(
		PredictorConfig{
			WindowSize: 10,
			Symbols:    []string{"BTC", "ETH"},
			Periods: models.PeriodTable{
				Default: "24h",
				Profiles: map[string]models.PeriodProfile{
					"24h": {Granularity: models.GranularityHour, Limit: 240, Engine: "lstm"},
					"1m":  {Granularity: models.GranularityMinute, Limit: 10, Engine: "trend"},
				},
			},
		},
		f.fetcher,
		Engines{"lstm": f.lstm, "trend": f.trend},
		adjuster,
		policy,
		f.recorder,
		f.publisher,
		metrics.Nop{},
		l,
	)
	require.NoError(t, err)
	f.predictor = p
	return f
}

func input(symbol string, price float64) models.PredictionInput {
	return models.PredictionInput{Symbol: symbol, LivePrice: price, Lang: "en"}
}

func requireKind(t *testing.T, err error, kind models.ErrorKind, msg string) {
	t.Helper()
	require.Error(t, err)
	var pe *models.PredictionError
	require.True(t, errors.As(err, &pe), "want *PredictionError, got %T", err)
	assert.Equal(t, kind, pe.Kind)
	assert.Equal(t, msg, pe.Message)
}

func TestPredictMomentumOverride(t *testing.T) {
	f := newFixture(t, forecast.MomentumAdjuster{Factor: 0.1})

	pred, err := f.predictor.Predict(context.Background(), input("BTC", 110))
	require.NoError(t, err)

	// window after substitution: 100..108, 110 -> average 104.6
	assert.InDelta(t, 104.6, pred.WindowAverage, 1e-9)
	assert.InDelta(t, 110.54, pred.Value, 1e-9)
	assert.Equal(t, 105.0, pred.RawPrediction)
	assert.True(t, pred.Adjusted)
	assert.Equal(t, "lstm", pred.Engine)
	assert.Equal(t, "24h", pred.Period)

	require.Len(t, f.lstm.got, 10)
	assert.Equal(t, 109.0, f.lstm.got[9].Close, "engine receives history as fetched")
	assert.Equal(t, 110.0, f.lstm.gotLive)
	assert.Equal(t, 109.0, f.fetcher.series[9].Close, "fetched series is not mutated")
	assert.Equal(t, models.GranularityHour, f.fetcher.last.g)
	assert.Equal(t, 240, f.fetcher.last.limit)
}

func TestPredictKeepsForecastWhenLiveBelowAverage(t *testing.T) {
	f := newFixture(t, forecast.MomentumAdjuster{Factor: 0.1})

	pred, err := f.predictor.Predict(context.Background(), input("BTC", 90))
	require.NoError(t, err)
	assert.Equal(t, 105.0, pred.Value)
	assert.False(t, pred.Adjusted)
}

func TestPredictMinutePeriodUsesTrendEngine(t *testing.T) {
	f := newFixture(t, nil)
	in := input("ETH", 100)
	in.Period = "1m"

	pred, err := f.predictor.Predict(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "trend", pred.Engine)
	assert.Equal(t, models.GranularityMinute, f.fetcher.last.g)
	assert.Equal(t, 10, f.fetcher.last.limit)
	assert.Zero(t, f.lstm.calls)
	assert.Equal(t, 109.0, f.trend.got[len(f.trend.got)-1].Close, "trend sees unsubstituted closes")
	assert.Equal(t, 100.0, f.trend.gotLive)
}

func TestPredictValidationNeverFetches(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.predictor.Predict(context.Background(), input("LTC", 100))
	requireKind(t, err, models.KindValidation, "Unsupported cryptocurrency")
	assert.ErrorIs(t, err, models.ErrUnsupportedSymbol)

	_, err = f.predictor.Predict(context.Background(), input("ETH", 100))
	requireKind(t, err, models.KindValidation, "Unsupported cryptocurrency")

	in := input("BTC", 100)
	in.Period = "7d"
	_, err = f.predictor.Predict(context.Background(), in)
	requireKind(t, err, models.KindValidation, "Invalid period")

	assert.Zero(t, f.fetcher.calls)
}

func TestPredictUpstreamFailures(t *testing.T) {
	f := newFixture(t, nil)
	f.fetcher.err = errors.New("connection refused")

	_, err := f.predictor.Predict(context.Background(), input("BTC", 100))
	requireKind(t, err, models.KindUpstream, "Failed to fetch historical data")

	f.fetcher.err = nil
	f.fetcher.series = ramp(100, 5)
	_, err = f.predictor.Predict(context.Background(), input("BTC", 100))
	requireKind(t, err, models.KindUpstream, "Not enough historical data")
	assert.ErrorIs(t, err, models.ErrInsufficientData)

	f.fetcher.series = nil
	_, err = f.predictor.Predict(context.Background(), input("BTC", 100))
	requireKind(t, err, models.KindUpstream, "Failed to fetch historical data")

	assert.Zero(t, f.lstm.calls)
	assert.Empty(t, f.recorder.got)
}

func TestPredictEngineFailureIsUnexpected(t *testing.T) {
	f := newFixture(t, nil)
	f.lstm.err = errors.New("nan in layer 2")

	_, err := f.predictor.Predict(context.Background(), input("BTC", 100))
	requireKind(t, err, models.KindUnexpected, "Unexpected error")
}

func TestPredictNotifiesOnLargeDeviation(t *testing.T) {
	f := newFixture(t, nil)
	f.lstm.value = 110
	in := input("BTC", 100)
	in.UserID = "user-1"

	pred, err := f.predictor.Predict(context.Background(), in)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, pred.DeviationPct, 1e-9)
	assert.True(t, pred.Notified)

	require.Len(t, f.notifier.sent, 1)
	n := f.notifier.sent[0]
	assert.Equal(t, "user-1", n.UserID)
	assert.Equal(t, "en", n.Lang)
	assert.Contains(t, n.Message, "BTC")
	assert.Contains(t, n.Message, "10.00%")
	assert.Contains(t, n.Message, "100.00")
	assert.Contains(t, n.Message, "110.00")
}

func TestPredictNotificationRules(t *testing.T) {
	t.Run("no user", func(t *testing.T) {
		f := newFixture(t, nil)
		f.lstm.value = 150
		_, err := f.predictor.Predict(context.Background(), input("BTC", 100))
		require.NoError(t, err)
		assert.Empty(t, f.notifier.sent)
	})

	t.Run("below threshold", func(t *testing.T) {
		f := newFixture(t, nil)
		f.lstm.value = 104
		in := input("BTC", 100)
		in.UserID = "u"
		_, err := f.predictor.Predict(context.Background(), in)
		require.NoError(t, err)
		assert.Empty(t, f.notifier.sent)
	})

	t.Run("exactly at threshold", func(t *testing.T) {
		f := newFixture(t, nil)
		f.lstm.value = 105
		in := input("BTC", 100)
		in.UserID = "u"
		pred, err := f.predictor.Predict(context.Background(), in)
		require.NoError(t, err)
		assert.InDelta(t, 5.0, pred.DeviationPct, 1e-12)
		assert.Empty(t, f.notifier.sent, "five percent is not above the threshold")
	})

	t.Run("just above threshold", func(t *testing.T) {
		f := newFixture(t, nil)
		f.lstm.value = 105.5
		in := input("BTC", 100)
		in.UserID = "u"
		pred, err := f.predictor.Predict(context.Background(), in)
		require.NoError(t, err)
		assert.True(t, pred.Notified)
		assert.Len(t, f.notifier.sent, 1)
	})

	t.Run("dispatch failure keeps prediction", func(t *testing.T) {
		f := newFixture(t, nil)
		f.lstm.value = 80
		f.notifier.err = errors.New("relay down")
		in := input("BTC", 100)
		in.UserID = "u"
		pred, err := f.predictor.Predict(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, 80.0, pred.Value)
		assert.False(t, pred.Notified)
		assert.Len(t, f.notifier.sent, 1)
	})
}

func TestPredictSideEffectsAreBestEffort(t *testing.T) {
	f := newFixture(t, nil)
	f.recorder.err = errors.New("disk full")
	f.publisher.err = errors.New("broker down")

	pred, err := f.predictor.Predict(context.Background(), input("BTC", 100))
	require.NoError(t, err)
	require.Len(t, f.recorder.got, 1)
	require.Len(t, f.publisher.got, 1)
	assert.Equal(t, pred.ID, f.publisher.got[0].ID)
	assert.NotEmpty(t, pred.ID)
}

func TestParseInput(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.predictor.ParseInput(models.PredictRequest{Price: "1"})
	requireKind(t, err, models.KindValidation, "Missing crypto or price parameter")
	_, err = f.predictor.ParseInput(models.PredictRequest{Crypto: "BTC"})
	requireKind(t, err, models.KindValidation, "Missing crypto or price parameter")

	for _, bad := range []string{"abc", "-5", "0", "1e400x"} {
		_, err = f.predictor.ParseInput(models.PredictRequest{Crypto: "BTC", Price: bad})
		requireKind(t, err, models.KindValidation, "Price must be a valid number")
	}

	in, err := f.predictor.ParseInput(models.PredictRequest{Crypto: " btc ", Price: "64000.5", UserID: "u"})
	require.NoError(t, err)
	assert.Equal(t, "BTC", in.Symbol)
	assert.Equal(t, 64000.5, in.LivePrice)
	assert.Equal(t, "en", in.Lang)
}

func TestNewPredictorRejectsBadProfiles(t *testing.T) {
	_, err := NewPredictor(
		PredictorConfig{WindowSize: 10, Periods: models.PeriodTable{Profiles: map[string]models.PeriodProfile{
			"24h": {Granularity: models.GranularityHour, Limit: 5, Engine: "lstm"},
		}}},
		nil, Engines{"lstm": &fakeForecaster{}}, nil, nil, nil, nil, metrics.Nop{}, applogger.NewNop(),
	)
	assert.Error(t, err)

	_, err = NewPredictor(
		PredictorConfig{WindowSize: 10, Periods: models.PeriodTable{Profiles: map[string]models.PeriodProfile{
			"24h": {Granularity: models.GranularityHour, Limit: 240, Engine: "prophet"},
		}}},
		nil, Engines{}, nil, nil, nil, nil, metrics.Nop{}, applogger.NewNop(),
	)
	assert.Error(t, err)
}

func TestFormatAlert(t *testing.T) {
	msg := FormatAlert("ru", "ETH", 7.456, 2000, 2149.125)
	assert.Contains(t, msg, "ETH")
	assert.Contains(t, msg, "7.46%")
	assert.Contains(t, msg, "2000.00")
	assert.Contains(t, msg, "2149.13")
	assert.Contains(t, msg, "прогноз")

	assert.Equal(t, FormatAlert("en", "BTC", 1, 2, 3), FormatAlert("de", "BTC", 1, 2, 3))
}

func TestNotificationPolicyThresholdIsStrict(t *testing.T) {
	policy := NewNotificationPolicy(&fakeNotifier{}, 5, time.Second, metrics.Nop{}, applogger.NewNop())

	assert.False(t, policy.ShouldNotify(5, "u"))
	assert.False(t, policy.ShouldNotify(DeviationPct(105, 100), "u"))
	assert.True(t, policy.ShouldNotify(5.01, "u"))
	assert.False(t, policy.ShouldNotify(50, ""))
}
