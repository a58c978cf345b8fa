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
	"CoinCast/internal/services/forecast"
	applogger "CoinCast/pkg/logger"
	"CoinCast/pkg/util"

	"github.com/google/uuid"
)

// Engines maps an engine name from a period profile to its forecaster.
type Engines map[string]domsvc.Forecaster

// PredictorConfig is the validated serving tuple.
type PredictorConfig struct {
	WindowSize int
	Symbols    []string
	Periods    models.PeriodTable
}

// Predictor serves one prediction per call. It holds no mutable state, so a
// single instance is shared by all requests.
type Predictor struct {
	cfg       PredictorConfig
	symbols   map[string]struct{}
	fetcher   drepo.HistoryFetcher
	engines   Engines
	adjuster  domsvc.PredictionAdjuster
	policy    *NotificationPolicy
	recorder  drepo.PredictionRecorder
	publisher drepo.EventPublisher
	metrics   drepo.Metrics
	logger    *applogger.Logger
	now       func() time.Time
}

func NewPredictor(
	cfg PredictorConfig,
	fetcher drepo.HistoryFetcher,
	engines Engines,
	adjuster domsvc.PredictionAdjuster,
	policy *NotificationPolicy,
	recorder drepo.PredictionRecorder,
	publisher drepo.EventPublisher,
	metrics drepo.Metrics,
	logger *applogger.Logger,
) (*Predictor, error) {
	if cfg.WindowSize < 1 {
		return nil, fmt.Errorf("window size must be positive, got %d", cfg.WindowSize)
	}
	for name, p := range cfg.Periods.Profiles {
		if _, ok := engines[p.Engine]; !ok {
			return nil, fmt.Errorf("period %q uses unknown engine %q", name, p.Engine)
		}
		if !p.Granularity.Valid() {
			return nil, fmt.Errorf("period %q has invalid granularity %q", name, p.Granularity)
		}
		if p.Engine == "lstm" && p.Limit < cfg.WindowSize {
			return nil, fmt.Errorf("period %q fetches %d samples, window needs %d", name, p.Limit, cfg.WindowSize)
		}
	}
	symbols := make(map[string]struct{}, len(cfg.Symbols))
	for _, s := range cfg.Symbols {
		symbols[util.NormalizeSymbol(s)] = struct{}{}
	}
	if adjuster == nil {
		adjuster = forecast.NoopAdjuster{}
	}
	return &Predictor{
		cfg:       cfg,
		symbols:   symbols,
		fetcher:   fetcher,
		engines:   engines,
		adjuster:  adjuster,
		policy:    policy,
		recorder:  recorder,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// ParseInput validates the raw request in the order the API reports errors.
func (p *Predictor) ParseInput(req models.PredictRequest) (models.PredictionInput, error) {
	if strings.TrimSpace(req.Crypto) == "" || strings.TrimSpace(req.Price) == "" {
		return models.PredictionInput{}, models.ValidationError("Missing crypto or price parameter", models.ErrMissingParams)
	}
	price, err := util.ParsePositiveFloat(req.Price)
	if err != nil {
		return models.PredictionInput{}, models.ValidationError("Price must be a valid number", fmt.Errorf("%w: %v", models.ErrInvalidPrice, err))
	}
	lang := req.Lang
	if lang == "" {
		lang = "en"
	}
	return models.PredictionInput{
		Symbol:    util.NormalizeSymbol(req.Crypto),
		LivePrice: price,
		Period:    req.Period,
		UserID:    strings.TrimSpace(req.UserID),
		Lang:      lang,
	}, nil
}

// Predict runs fetch, substitution, forecast, adjustment and the notification
// decision. Side effects after the forecast never change the result.
func (p *Predictor) Predict(ctx context.Context, in models.PredictionInput) (*models.Prediction, error) {
	start := p.now()

	profile, err := p.cfg.Periods.Resolve(in.Period)
	if err != nil {
		return nil, p.fail(in, "invalid", models.ValidationError("Invalid period", err))
	}
	engine := p.engines[profile.Engine]
	if _, ok := p.symbols[in.Symbol]; !ok || !engine.Supports(in.Symbol) {
		return nil, p.fail(in, "invalid", models.ValidationError("Unsupported cryptocurrency", fmt.Errorf("%w: %s", models.ErrUnsupportedSymbol, in.Symbol)))
	}

	series, err := p.fetcher.FetchHistory(ctx, in.Symbol, profile.Granularity, profile.Limit)
	if err != nil {
		return nil, p.fail(in, "upstream", models.UpstreamError("Failed to fetch historical data", err))
	}
	if len(series) == 0 {
		return nil, p.fail(in, "upstream", models.UpstreamError("Failed to fetch historical data", models.ErrNoData))
	}
	if profile.Engine == "lstm" && len(series) < p.cfg.WindowSize {
		return nil, p.fail(in, "upstream", models.UpstreamError("Not enough historical data",
			fmt.Errorf("%w: have %d, need %d", models.ErrInsufficientData, len(series), p.cfg.WindowSize)))
	}

	raw, err := engine.Forecast(ctx, in.Symbol, series, in.LivePrice)
	if err != nil {
		if errors.Is(err, models.ErrInsufficientData) {
			return nil, p.fail(in, "upstream", models.UpstreamError("Not enough historical data", err))
		}
		return nil, p.fail(in, "error", models.UnexpectedError(err))
	}

	window := series.WithLive(in.LivePrice).Tail(p.cfg.WindowSize)
	value := p.adjuster.Adjust(raw, in.LivePrice, window)

	pred := &models.Prediction{
		ID:            uuid.NewString(),
		Symbol:        in.Symbol,
		Period:        profile.Name,
		Engine:        engine.Name(),
		LivePrice:     in.LivePrice,
		RawPrediction: raw,
		Value:         value,
		Adjusted:      value != raw,
		WindowAverage: forecast.Mean(window),
		DeviationPct:  DeviationPct(value, in.LivePrice),
		CreatedAt:     start.UTC(),
	}
	if pred.Adjusted {
		p.metrics.RecordAdjustment(in.Symbol, p.adjuster.Name())
	}

	if p.policy != nil && p.policy.ShouldNotify(pred.DeviationPct, in.UserID) {
		pred.Notified = p.policy.Dispatch(ctx, pred, in.UserID, in.Lang)
	}

	p.afterPrediction(ctx, pred)
	p.metrics.RecordPrediction(in.Symbol, profile.Name, "ok")
	p.metrics.RecordDeviation(in.Symbol, pred.DeviationPct)
	p.metrics.RecordLatency("predict", time.Since(start).Seconds())
	return pred, nil
}

// afterPrediction records and publishes; failures are logged only.
func (p *Predictor) afterPrediction(ctx context.Context, pred *models.Prediction) {
	if p.recorder != nil {
		if err := p.recorder.Record(ctx, pred); err != nil {
			p.logger.Warn("prediction record failed", applogger.String("id", pred.ID), applogger.Error(err))
		}
	}
	if p.publisher != nil {
		if err := p.publisher.PublishPrediction(ctx, pred.Event()); err != nil {
			p.logger.Warn("prediction publish failed", applogger.String("id", pred.ID), applogger.Error(err))
		}
	}
}

func (p *Predictor) fail(in models.PredictionInput, result string, err *models.PredictionError) error {
	period := in.Period
	if period == "" {
		period = p.cfg.Periods.Default
	}
	symbol := in.Symbol
	if _, ok := p.symbols[symbol]; !ok {
		symbol = "other"
	}
	p.metrics.RecordPrediction(symbol, period, result)
	if err.Kind == models.KindValidation {
		p.logger.Debug("prediction rejected", applogger.String("symbol", in.Symbol), applogger.Error(err))
	} else {
		p.logger.Error("prediction failed",
			applogger.String("symbol", in.Symbol),
			applogger.String("kind", err.Kind.String()),
			applogger.Error(err),
		)
	}
	return err
}
