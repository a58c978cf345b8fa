package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"CoinCast/internal/domain/models"
	drepo "CoinCast/internal/domain/repository"
	domsvc "CoinCast/internal/domain/service"
	applogger "CoinCast/pkg/logger"
	"CoinCast/pkg/util"
)

var messageTemplates = map[string]string{
	"en": "%s: the forecast deviates from the current price by %s%%. Current price: %s USD, predicted price: %s USD.",
	"ru": "%s: прогноз отклоняется от текущей цены на %s%%. Текущая цена: %s USD, прогноз: %s USD.",
}

// DeviationPct returns |predicted-live|/live*100.
func DeviationPct(predicted, live float64) float64 {
	if live == 0 {
		return math.Inf(1)
	}
	return math.Abs(predicted-live) / live * 100
}

// FormatAlert renders the localized deviation message. Unknown languages
// fall back to English.
func FormatAlert(lang, symbol string, deviationPct, live, predicted float64) string {
	tpl, ok := messageTemplates[lang]
	if !ok {
		tpl = messageTemplates["en"]
	}
	return fmt.Sprintf(tpl, symbol, util.Fixed2(deviationPct), util.Fixed2(live), util.Fixed2(predicted))
}

// NotificationPolicy decides whether a prediction warrants an alert and
// dispatches it. Dispatch failures never reach the caller.
type NotificationPolicy struct {
	notifier     domsvc.Notifier
	thresholdPct float64
	timeout      time.Duration
	metrics      drepo.Metrics
	logger       *applogger.Logger
}

func NewNotificationPolicy(
	notifier domsvc.Notifier,
	thresholdPct float64,
	timeout time.Duration,
	metrics drepo.Metrics,
	logger *applogger.Logger,
) *NotificationPolicy {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &NotificationPolicy{
		notifier:     notifier,
		thresholdPct: thresholdPct,
		timeout:      timeout,
		metrics:      metrics,
		logger:       logger,
	}
}

// ShouldNotify is true when the deviation strictly exceeds the threshold and
// there is a user to notify.
func (p *NotificationPolicy) ShouldNotify(deviationPct float64, userID string) bool {
	return userID != "" && p.notifier != nil && deviationPct > p.thresholdPct
}

// Dispatch sends one notification under its own timeout and reports success.
// ctx cancellation is ignored so that a finished HTTP request does not abort
// a dispatch already under way.
func (p *NotificationPolicy) Dispatch(ctx context.Context, pred *models.Prediction, userID, lang string) bool {
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	n := models.Notification{
		UserID:  userID,
		Lang:    lang,
		Message: FormatAlert(lang, pred.Symbol, pred.DeviationPct, pred.LivePrice, pred.Value),
	}
	start := time.Now()
	err := p.notifier.Notify(dctx, n)
	p.metrics.RecordLatency("notify", time.Since(start).Seconds())
	if err != nil {
		p.metrics.RecordNotification("failed")
		p.logger.Warn("notification dispatch failed",
			applogger.String("symbol", pred.Symbol),
			applogger.String("user_id", userID),
			applogger.Error(err),
		)
		return false
	}
	p.metrics.RecordNotification("sent")
	p.logger.Info("notification dispatched",
		applogger.String("symbol", pred.Symbol),
		applogger.String("user_id", userID),
		applogger.Float64("deviation_pct", pred.DeviationPct),
	)
	return true
}
