package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"CoinCast/internal/domain/models"
	"CoinCast/internal/repository"
	"CoinCast/internal/services/forecast"
	"CoinCast/internal/usecase"
	xhttp "CoinCast/pkg/http"
	applogger "CoinCast/pkg/logger"
	"CoinCast/pkg/metrics"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	series models.PriceSeries
	err    error
	calls  int
}

func (s *stubFetcher) FetchHistory(context.Context, string, models.Granularity, int) (models.PriceSeries, error) {
	s.calls++
	return s.series, s.err
}

type stubEngine struct {
	value float64
	err   error
}

func (stubEngine) Name() string                { return "lstm" }
func (stubEngine) Supports(symbol string) bool { return symbol == "BTC" }
func (e stubEngine) Forecast(context.Context, string, models.PriceSeries, float64) (float64, error) {
	return e.value, e.err
}

type stubSender struct {
	err  error
	sent []string
}

func (s *stubSender) SendMessage(_ context.Context, chatID, text string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, chatID+":"+text)
	return nil
}

func closes(n int) models.PriceSeries {
	start := time.Unix(1_700_000_000, 0).UTC()
	out := make(models.PriceSeries, n)
	for i := range out {
		out[i] = models.PricePoint{Time: start.Add(time.Duration(i) * time.Hour), Close: 100 + float64(i)}
	}
	return out
}

func newPredictServer(t *testing.T, fetcher *stubFetcher, engine stubEngine) *echo.Echo {
	t.Helper()
	l := applogger.NewNop()
	p, err := usecase.NewPredictor(
		usecase.PredictorConfig{
			WindowSize: 10,
			Symbols:    []string{"BTC", "ETH", "SOL", "DOGE"},
			Periods: models.PeriodTable{Default: "24h", Profiles: map[string]models.PeriodProfile{
				"24h": {Granularity: models.GranularityHour, Limit: 240, Engine: "lstm"},
			}},
		},
		fetcher,
		usecase.Engines{"lstm": engine},
		forecast.MomentumAdjuster{Factor: 0.1},
		nil,
		nil,
		nil,
		metrics.Nop{},
		l,
	)
	require.NoError(t, err)
	srv := xhttp.NewServer(NewPredictEchoHandler(l, p),
		xhttp.WithCORSOrigins([]string{"chrome-extension://pnfhoobelgilgafgacdnmebgohgknkdg"}))
	return srv.Echo()
}

func get(e *echo.Echo, target string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestPredictEndpoint(t *testing.T) {
	fetcher := &stubFetcher{series: closes(10)}
	e := newPredictServer(t, fetcher, stubEngine{value: 105})

	rec := get(e, "/predict?crypto=BTC&price=110")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body models.PredictResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.InDelta(t, 110.54, body.Prediction, 1e-9)
}

func TestPredictEndpointErrors(t *testing.T) {
	tests := []struct {
		name   string
		target string
		fetch  *stubFetcher
		engine stubEngine
		status int
		body   string
	}{
		{"missing price", "/predict?crypto=BTC", &stubFetcher{series: closes(10)}, stubEngine{}, 400, `{"error":"Missing crypto or price parameter"}`},
		{"missing crypto", "/predict?price=1", &stubFetcher{series: closes(10)}, stubEngine{}, 400, `{"error":"Missing crypto or price parameter"}`},
		{"bad price", "/predict?crypto=BTC&price=abc", &stubFetcher{series: closes(10)}, stubEngine{}, 400, `{"error":"Price must be a valid number"}`},
		{"unsupported", "/predict?crypto=LTC&price=1", &stubFetcher{series: closes(10)}, stubEngine{}, 400, `{"error":"Unsupported cryptocurrency"}`},
		{"loaded but not served", "/predict?crypto=ETH&price=1", &stubFetcher{series: closes(10)}, stubEngine{}, 400, `{"error":"Unsupported cryptocurrency"}`},
		{"invalid period", "/predict?crypto=BTC&price=1&period=7d", &stubFetcher{series: closes(10)}, stubEngine{}, 400, `{"error":"Invalid period"}`},
		{"fetch failure", "/predict?crypto=BTC&price=1", &stubFetcher{err: errors.New("dial tcp: refused")}, stubEngine{}, 500, `{"error":"Failed to fetch historical data"}`},
		{"empty history", "/predict?crypto=BTC&price=1", &stubFetcher{}, stubEngine{}, 500, `{"error":"Failed to fetch historical data"}`},
		{"short history", "/predict?crypto=BTC&price=1", &stubFetcher{series: closes(4)}, stubEngine{}, 500, `{"error":"Not enough historical data"}`},
		{"engine failure", "/predict?crypto=BTC&price=1", &stubFetcher{series: closes(10)}, stubEngine{err: errors.New("secret detail")}, 500, `{"error":"Unexpected error"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newPredictServer(t, tt.fetch, tt.engine)
			rec := get(e, tt.target)
			assert.Equal(t, tt.status, rec.Code)
			assert.JSONEq(t, tt.body, rec.Body.String())
			assert.NotContains(t, rec.Body.String(), "secret")
		})
	}
}

func TestPredictValidationSkipsFetch(t *testing.T) {
	fetcher := &stubFetcher{series: closes(10)}
	e := newPredictServer(t, fetcher, stubEngine{})

	get(e, "/predict?crypto=LTC&price=1")
	get(e, "/predict?crypto=BTC&price=-1")
	assert.Zero(t, fetcher.calls)
}

func TestPredictAuxiliaryRoutes(t *testing.T) {
	e := newPredictServer(t, &stubFetcher{}, stubEngine{})

	assert.Equal(t, http.StatusNoContent, get(e, "/favicon.ico").Code)
	assert.Equal(t, http.StatusOK, get(e, "/healthz").Code)

	rec := get(e, "/predict?crypto=LTC&price=1", "Origin", "chrome-extension://pnfhoobelgilgafgacdnmebgohgknkdg")
	assert.Equal(t, "chrome-extension://pnfhoobelgilgafgacdnmebgohgknkdg", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))

	rec = get(e, "/predict?crypto=LTC&price=1", "Origin", "https://evil.example")
	assert.Empty(t, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}

func newRelayServer(t *testing.T, sender *stubSender) *echo.Echo {
	t.Helper()
	l := applogger.NewNop()
	relay := usecase.NewRelay(
		repository.NewMemorySubscriptionStore(),
		usecase.NewDirectDispatcher(sender, time.Second),
		metrics.Nop{},
		l,
	)
	return xhttp.NewServer(NewRelayEchoHandler(l, relay)).Echo()
}

func postForm(e *echo.Echo, target string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRelayEndpoints(t *testing.T) {
	sender := &stubSender{}
	e := newRelayServer(t, sender)

	rec := get(e, "/api/subscriptions/u1")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"User not found"}`, rec.Body.String())

	rec = postForm(e, "/api/subscriptions", url.Values{"userId": {"u1"}, "chatId": {"42"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	req := httptest.NewRequest(http.MethodPost, "/api/subscriptions", strings.NewReader(`{"userId":"u1","chatId":"43"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = get(e, "/api/subscriptions/u1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"chatId":"43"`)

	rec = postForm(e, "/send_message", url.Values{"userId": {"u1"}, "message": {"BTC moved"}, "lang": {"en"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"sent"}`, rec.Body.String())
	assert.Equal(t, []string{"43:BTC moved"}, sender.sent)

	rec = postForm(e, "/send_message", url.Values{"userId": {"ghost"}, "message": {"x"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = postForm(e, "/send_message", url.Values{"userId": {"u1"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postForm(e, "/api/subscriptions", url.Values{"userId": {"u2"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRelaySendMessageDeliveryFailure(t *testing.T) {
	sender := &stubSender{err: errors.New("telegram 403")}
	e := newRelayServer(t, sender)

	require.Equal(t, http.StatusOK, postForm(e, "/api/subscriptions", url.Values{"userId": {"u1"}, "chatId": {"1"}}).Code)

	rec := postForm(e, "/send_message", url.Values{"userId": {"u1"}, "message": {"hi"}})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to deliver message"}`, rec.Body.String())
}
