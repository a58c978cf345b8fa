package cryptocompare

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"CoinCast/internal/domain/models"
	drepo "CoinCast/internal/domain/repository"
	"CoinCast/internal/service/cache"
	applogger "CoinCast/pkg/logger"
	"CoinCast/pkg/util"
)

// CachedFetcher serves repeated history requests from a short-lived cache.
// Keys include the current granularity bucket, so a new candle is a miss.
type CachedFetcher struct {
	next   drepo.HistoryFetcher
	cache  cache.BytesCache
	ttl    time.Duration
	now    func() time.Time
	logger *applogger.Logger
}

func NewCachedFetcher(next drepo.HistoryFetcher, c cache.BytesCache, ttl time.Duration, l *applogger.Logger) *CachedFetcher {
	if l == nil {
		l = applogger.NewNop()
	}
	return &CachedFetcher{next: next, cache: c, ttl: ttl, now: time.Now, logger: l}
}

func (f *CachedFetcher) key(symbol string, g models.Granularity, limit int) string {
	bucket := util.BucketStart(f.now(), string(g)).Unix()
	return fmt.Sprintf("history:%s:%s:%d:%d", symbol, g, limit, bucket)
}

func (f *CachedFetcher) FetchHistory(ctx context.Context, symbol string, g models.Granularity, limit int) (models.PriceSeries, error) {
	key := f.key(symbol, g, limit)
	if b, ok, err := f.cache.GetBytes(ctx, key); err != nil {
		f.logger.Warn("history cache read failed", applogger.String("key", key), applogger.Error(err))
	} else if ok {
		var s models.PriceSeries
		if err := json.Unmarshal(b, &s); err == nil {
			return s, nil
		}
	}

	s, err := f.next.FetchHistory(ctx, symbol, g, limit)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(s); err == nil {
		if err := f.cache.SetBytes(ctx, key, b, f.ttl); err != nil {
			f.logger.Warn("history cache write failed", applogger.String("key", key), applogger.Error(err))
		}
	}
	return s, nil
}

var _ drepo.HistoryFetcher = (*CachedFetcher)(nil)
