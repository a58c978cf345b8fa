package cryptocompare

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"CoinCast/internal/domain/models"
	"CoinCast/internal/service/cache"
	xhttp "CoinCast/pkg/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(WithBaseURL(srv.URL), WithAPIKey("k"), WithHTTPClient(xhttp.NewClient(xhttp.WithTimeout(2*time.Second))))
}

func TestFetchHistory(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/v2/histohour", r.URL.Path)
		assert.Equal(t, "BTC", r.URL.Query().Get("fsym"))
		assert.Equal(t, "USD", r.URL.Query().Get("tsym"))
		assert.Equal(t, "3", r.URL.Query().Get("limit"))
		assert.Equal(t, "k", r.URL.Query().Get("api_key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"Response":"Success","Data":{"Data":[
			{"time":1700000000,"close":100.5},
			{"time":1700003600,"close":101},
			{"time":1700007200,"close":99.25}]}}`))
	})

	s, err := c.FetchHistory(context.Background(), "BTC", models.GranularityHour, 3)
	require.NoError(t, err)
	require.Len(t, s, 3)
	assert.Equal(t, []float64{100.5, 101, 99.25}, s.Closes())
	assert.Equal(t, int64(1700007200), s[2].Time.Unix())
	assert.Equal(t, time.UTC, s[2].Time.Location())
}

func TestFetchHistoryErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "provider error", status: 200, body: `{"Response":"Error","Message":"rate limit"}`},
		{name: "empty data", status: 200, body: `{"Response":"Success","Data":{"Data":[]}}`, wantErr: models.ErrNoData},
		{name: "missing data", status: 200, body: `{"Response":"Success"}`, wantErr: models.ErrNoData},
		{name: "zero close", status: 200, body: `{"Data":{"Data":[{"time":1,"close":1},{"time":2,"close":0}]}}`, wantErr: models.ErrMalformedSeries},
		{name: "time goes backwards", status: 200, body: `{"Data":{"Data":[{"time":2,"close":1},{"time":1,"close":1}]}}`, wantErr: models.ErrMalformedSeries},
		{name: "server error", status: 503, body: `unavailable`},
		{name: "bad json", status: 200, body: `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			s, err := c.FetchHistory(context.Background(), "ETH", models.GranularityMinute, 10)
			require.Error(t, err)
			assert.Nil(t, s)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestFetchHistoryRejectsUnknownGranularity(t *testing.T) {
	c := New()
	_, err := c.FetchHistory(context.Background(), "BTC", models.Granularity("week"), 10)
	assert.Error(t, err)
}

func TestCachedFetcher(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"Data":{"Data":[{"time":1700000000,"close":10},{"time":1700000060,"close":11}]}}`))
	})
	f := NewCachedFetcher(c, cache.NewTTLCache(), time.Minute, nil)
	f.now = func() time.Time { return time.Unix(1700000030, 0) }

	for i := 0; i < 3; i++ {
		s, err := f.FetchHistory(context.Background(), "BTC", models.GranularityMinute, 1)
		require.NoError(t, err)
		assert.Equal(t, []float64{10, 11}, s.Closes())
	}
	assert.Equal(t, int32(1), calls.Load())

	f.now = func() time.Time { return time.Unix(1700000090, 0) }
	_, err := f.FetchHistory(context.Background(), "BTC", models.GranularityMinute, 1)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load(), "a new minute bucket misses the cache")
}
