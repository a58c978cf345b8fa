package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"

	"CoinCast/internal/domain/models"
	drepo "CoinCast/internal/domain/repository"
	"CoinCast/internal/services/forecast"
	"CoinCast/internal/services/lstm"
	applogger "CoinCast/pkg/logger"
	"CoinCast/pkg/util"
)

// TrainerConfig holds the hyperparameters of one training run.
type TrainerConfig struct {
	Days           int
	WindowSize     int
	Units          int
	Layers         int
	Epochs         int
	BatchSize      int
	LearningRate   float64
	ValidationPart float64
	Seed           int64
	ModelDir       string
}

// Trainer fits one network and one scaler per symbol and writes both to ModelDir.
type Trainer struct {
	cfg      TrainerConfig
	fetcher  drepo.HistoryFetcher
	logger   *applogger.Logger
	onResult func(models.TrainingResult)
}

type TrainerOption func(*Trainer)

// WithResultHook is called once per symbol after it finishes.
func WithResultHook(fn func(models.TrainingResult)) TrainerOption {
	return func(t *Trainer) { t.onResult = fn }
}

func NewTrainer(cfg TrainerConfig, fetcher drepo.HistoryFetcher, logger *applogger.Logger, opts ...TrainerOption) *Trainer {
	t := &Trainer{cfg: cfg, fetcher: fetcher, logger: logger}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Run trains every symbol in turn. A failing symbol is reported in its result
// and does not stop the others.
func (t *Trainer) Run(ctx context.Context, symbols []string) []models.TrainingResult {
	results := make([]models.TrainingResult, 0, len(symbols))
	for _, sym := range symbols {
		if ctx.Err() != nil {
			results = append(results, models.TrainingResult{Symbol: sym, Err: ctx.Err()})
			continue
		}
		r := t.TrainSymbol(ctx, sym)
		if r.OK() {
			t.logger.Info("symbol trained",
				applogger.String("symbol", sym),
				applogger.Int("samples", r.Samples),
				applogger.Float64("train_loss", r.TrainLoss),
				applogger.Float64("val_loss", r.ValLoss),
				applogger.Duration("duration_ms", r.Duration),
			)
		} else {
			t.logger.Error("symbol training failed", applogger.String("symbol", sym), applogger.Error(r.Err))
		}
		if t.onResult != nil {
			t.onResult(r)
		}
		results = append(results, r)
	}
	return results
}

// TrainSymbol fetches daily closes, fits a fresh scaler over the full series,
// trains on the chronological head and validates on the tail.
func (t *Trainer) TrainSymbol(ctx context.Context, symbol string) models.TrainingResult {
	start := time.Now()
	res := models.TrainingResult{Symbol: symbol, TrainLoss: math.NaN(), ValLoss: math.NaN()}
	fail := func(err error) models.TrainingResult {
		res.Err = err
		res.Duration = time.Since(start)
		return res
	}

	series, err := t.fetcher.FetchHistory(ctx, symbol, models.GranularityDay, t.cfg.Days)
	if err != nil {
		return fail(fmt.Errorf("fetch history: %w", err))
	}
	closes := series.Closes()

	scaler, err := forecast.FitMinMax(closes)
	if err != nil {
		return fail(err)
	}
	data := BuildDataset(scaler.TransformAll(closes), t.cfg.WindowSize)
	if data.Len() < 2 {
		return fail(fmt.Errorf("%w: %d closes give %d samples", models.ErrInsufficientData, len(closes), data.Len()))
	}
	train, val := SplitDataset(data, t.cfg.ValidationPart)
	res.Samples = data.Len()

	net, err := lstm.New(lstm.Config{
		WindowSize: t.cfg.WindowSize,
		Features:   1,
		Units:      t.cfg.Units,
		Layers:     t.cfg.Layers,
	}, rand.New(rand.NewSource(t.cfg.Seed)))
	if err != nil {
		return fail(err)
	}

	hist, err := net.Fit(ctx, train, val, lstm.TrainConfig{
		Epochs:       t.cfg.Epochs,
		BatchSize:    t.cfg.BatchSize,
		LearningRate: t.cfg.LearningRate,
		OnEpoch: func(epoch int, trainLoss, valLoss float64) {
			t.logger.Debug("epoch finished",
				applogger.String("symbol", symbol),
				applogger.Int("epoch", epoch),
				applogger.Float64("train_loss", trainLoss),
				applogger.Float64("val_loss", valLoss),
			)
		},
	})
	if err != nil {
		return fail(fmt.Errorf("fit: %w", err))
	}
	res.TrainLoss, res.ValLoss = hist.Final()

	if err := os.MkdirAll(t.cfg.ModelDir, 0o755); err != nil {
		return fail(fmt.Errorf("create model dir: %w", err))
	}
	if err := t.saveArtifacts(symbol, net, scaler, res); err != nil {
		return fail(err)
	}
	res.Duration = time.Since(start)
	return res
}

// saveArtifacts stages the model and the scaler before either is renamed into
// place, so a failed write never pairs a new scaler with an old model.
func (t *Trainer) saveArtifacts(symbol string, net *lstm.Network, scaler *forecast.MinMaxScaler, res models.TrainingResult) error {
	model, err := json.Marshal(lstm.NewArtifact(symbol, net, res.TrainLoss, res.ValLoss))
	if err != nil {
		return fmt.Errorf("marshal model: %w", err)
	}
	sc, err := json.Marshal(scaler)
	if err != nil {
		return fmt.Errorf("marshal scaler: %w", err)
	}
	return util.WriteFilesAtomic([]util.PendingFile{
		{Path: forecast.ModelPath(t.cfg.ModelDir, symbol), Data: model},
		{Path: forecast.ScalerPath(t.cfg.ModelDir, symbol), Data: sc},
	}, 0o644)
}

// BuildDataset turns a scaled series into windows of size w labelled with
// the value that follows each window.
func BuildDataset(scaled []float64, w int) lstm.Dataset {
	var d lstm.Dataset
	for i := 0; i+w < len(scaled); i++ {
		x := make([][]float64, w)
		for k := 0; k < w; k++ {
			x[k] = []float64{scaled[i+k]}
		}
		d.X = append(d.X, x)
		d.Y = append(d.Y, scaled[i+w])
	}
	return d
}

// SplitDataset keeps order: the first (1-valPart) share trains, the rest validates.
// The training part always keeps at least one sample.
func SplitDataset(d lstm.Dataset, valPart float64) (lstm.Dataset, lstm.Dataset) {
	n := d.Len()
	cut := int(float64(n) * (1 - valPart))
	if cut < 1 {
		cut = 1
	}
	if cut > n {
		cut = n
	}
	return lstm.Dataset{X: d.X[:cut], Y: d.Y[:cut]}, lstm.Dataset{X: d.X[cut:], Y: d.Y[cut:]}
}

// Summary counts successful and failed symbols.
func Summary(results []models.TrainingResult) (ok, failed int) {
	for _, r := range results {
		if r.OK() {
			ok++
		} else {
			failed++
		}
	}
	return ok, failed
}
