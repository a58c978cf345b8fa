package usecase

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"CoinCast/internal/domain/models"
	"CoinCast/internal/domain/repository"
)

type fakeFetcher struct {
	series models.PriceSeries
	err    error
	calls  int
	last   struct {
		symbol string
		g      models.Granularity
		limit  int
	}
}

func (f *fakeFetcher) FetchHistory(_ context.Context, symbol string, g models.Granularity, limit int) (models.PriceSeries, error) {
	f.calls++
	f.last.symbol, f.last.g, f.last.limit = symbol, g, limit
	if f.err != nil {
		return nil, f.err
	}
	return f.series, nil
}

type fakeForecaster struct {
	name      string
	supported map[string]bool
	value     float64
	err       error
	calls     int
	got       models.PriceSeries
	gotLive   float64
}

func (f *fakeForecaster) Name() string                { return f.name }
func (f *fakeForecaster) Supports(symbol string) bool { return f.supported[symbol] }

func (f *fakeForecaster) Forecast(_ context.Context, _ string, s models.PriceSeries, live float64) (float64, error) {
	f.calls++
	f.got = s
	f.gotLive = live
	return f.value, f.err
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []models.Notification
	err  error
}

func (f *fakeNotifier) Notify(_ context.Context, n models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, n)
	return f.err
}

type fakeRecorder struct {
	got []*models.Prediction
	err error
}

func (f *fakeRecorder) Record(_ context.Context, p *models.Prediction) error {
	f.got = append(f.got, p)
	return f.err
}

func (f *fakeRecorder) Close() error { return nil }

type fakePublisher struct {
	got []models.PredictionEvent
	err error
}

func (f *fakePublisher) PublishPrediction(_ context.Context, e models.PredictionEvent) error {
	f.got = append(f.got, e)
	return f.err
}

func (f *fakePublisher) Close() error { return nil }

type fakeSender struct {
	mu    sync.Mutex
	sent  map[string][]string
	err   error
	fails int
}

func (f *fakeSender) SendMessage(_ context.Context, chatID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fails > 0 {
		f.fails--
		return f.err
	}
	if f.sent == nil {
		f.sent = map[string][]string{}
	}
	f.sent[chatID] = append(f.sent[chatID], text)
	return nil
}

type memStore struct {
	mu   sync.Mutex
	subs map[string]models.Subscription
}

func newMemStore() *memStore { return &memStore{subs: map[string]models.Subscription{}} }

func (m *memStore) Get(_ context.Context, userID string) (*models.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (m *memStore) Upsert(_ context.Context, s *models.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	cp.UpdatedAt = time.Now()
	m.subs[s.UserID] = cp
	return nil
}

func ramp(from float64, n int) models.PriceSeries {
	start := time.Unix(1_700_000_000, 0).UTC()
	out := make(models.PriceSeries, n)
	for i := range out {
		out[i] = models.PricePoint{Time: start.Add(time.Duration(i) * time.Hour), Close: from + float64(i)}
	}
	return out
}

func jsonRaw(b []byte) json.RawMessage { return json.RawMessage(b) }
