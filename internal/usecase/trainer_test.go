package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"CoinCast/internal/domain/models"
	"CoinCast/internal/services/forecast"
	applogger "CoinCast/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type symbolFetcher map[string]models.PriceSeries

func (f symbolFetcher) FetchHistory(_ context.Context, symbol string, g models.Granularity, _ int) (models.PriceSeries, error) {
	if g != models.GranularityDay {
		return nil, errors.New("training must use daily closes")
	}
	s, ok := f[symbol]
	if !ok {
		return nil, errors.New("provider error")
	}
	return s, nil
}

func smallTrainerConfig(dir string) TrainerConfig {
	return TrainerConfig{
		Days:           40,
		WindowSize:     5,
		Units:          4,
		Layers:         2,
		Epochs:         2,
		BatchSize:      8,
		LearningRate:   0.01,
		ValidationPart: 0.2,
		Seed:           42,
		ModelDir:       dir,
	}
}

func TestBuildDataset(t *testing.T) {
	d := BuildDataset([]float64{0, 1, 2, 3, 4, 5, 6}, 5)
	require.Equal(t, 2, d.Len())
	assert.Equal(t, [][]float64{{0}, {1}, {2}, {3}, {4}}, d.X[0])
	assert.Equal(t, 5.0, d.Y[0])
	assert.Equal(t, 6.0, d.Y[1])

	assert.Zero(t, BuildDataset([]float64{1, 2, 3}, 5).Len())
}

func TestSplitDatasetKeepsOrder(t *testing.T) {
	var vals []float64
	for i := 0; i < 15; i++ {
		vals = append(vals, float64(i))
	}
	d := BuildDataset(vals, 5)
	train, val := SplitDataset(d, 0.2)
	assert.Equal(t, 8, train.Len())
	assert.Equal(t, 2, val.Len())
	assert.Equal(t, 12.0, train.Y[7])
	assert.Equal(t, 13.0, val.Y[0])

	train, val = SplitDataset(BuildDataset([]float64{1, 2, 3, 4, 5, 6}, 5), 0.2)
	assert.Equal(t, 1, train.Len())
	assert.Zero(t, val.Len())
}

func TestTrainerWritesLoadableArtifacts(t *testing.T) {
	dir := t.TempDir()
	var hooked []string
	tr := NewTrainer(smallTrainerConfig(dir), symbolFetcher{"BTC": ramp(100, 40)}, applogger.NewNop(),
		WithResultHook(func(r models.TrainingResult) { hooked = append(hooked, r.Symbol) }))

	results := tr.Run(context.Background(), []string{"BTC"})
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.Equal(t, 35, results[0].Samples)
	assert.False(t, results[0].TrainLoss < 0)
	assert.Equal(t, []string{"BTC"}, hooked)

	_, err := os.Stat(forecast.ModelPath(dir, "BTC"))
	require.NoError(t, err)

	r, err := forecast.LoadRegistry(dir, []string{"BTC"}, 5, nil)
	require.NoError(t, err)
	p, err := forecast.NewLSTMForecaster(r).Forecast(context.Background(), "BTC", ramp(100, 40), 140)
	require.NoError(t, err)
	assert.Greater(t, p, 0.0)
}

func TestTrainerIsolatesSymbolFailures(t *testing.T) {
	dir := t.TempDir()
	tr := NewTrainer(smallTrainerConfig(dir), symbolFetcher{
		"BTC": ramp(100, 40),
		"SOL": ramp(10, 3),
	}, applogger.NewNop())

	results := tr.Run(context.Background(), []string{"ETH", "SOL", "BTC"})
	require.Len(t, results, 3)
	assert.Error(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, models.ErrInsufficientData)
	assert.NoError(t, results[2].Err)

	ok, failed := Summary(results)
	assert.Equal(t, 1, ok)
	assert.Equal(t, 2, failed)

	_, err := os.Stat(forecast.ModelPath(dir, "ETH"))
	assert.True(t, os.IsNotExist(err))
}

func TestTrainerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tr := NewTrainer(smallTrainerConfig(t.TempDir()), symbolFetcher{"BTC": ramp(100, 40)}, applogger.NewNop())

	results := tr.Run(ctx, []string{"BTC", "ETH"})
	require.Len(t, results, 2)
	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
}

func TestTrainerKeepsScalerWhenModelWriteFails(t *testing.T) {
	dir := t.TempDir()
	scalerPath := forecast.ScalerPath(dir, "BTC")
	require.NoError(t, os.WriteFile(scalerPath, []byte(`{"old":true}`), 0o644))
	// a directory at the model path makes the model rename fail
	require.NoError(t, os.MkdirAll(filepath.Join(forecast.ModelPath(dir, "BTC"), "x"), 0o755))

	tr := NewTrainer(smallTrainerConfig(dir), symbolFetcher{"BTC": ramp(100, 40)}, applogger.NewNop())
	results := tr.Run(context.Background(), []string{"BTC"})
	require.Len(t, results, 1)
	require.Error(t, results[0].Err)

	b, err := os.ReadFile(scalerPath)
	require.NoError(t, err)
	assert.Equal(t, `{"old":true}`, string(b), "scaler is not replaced without its model")
}
