package cryptocompare

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"CoinCast/internal/domain/models"
	drepo "CoinCast/internal/domain/repository"
	xhttp "CoinCast/pkg/http"
	applogger "CoinCast/pkg/logger"
	"CoinCast/pkg/util"
)

const defaultBaseURL = "https://min-api.cryptocompare.com"

// Client fetches closing prices from the CryptoCompare histo endpoints.
type Client struct {
	baseURL string
	apiKey  string
	quote   string
	http    *xhttp.Client
	logger  *applogger.Logger
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

func WithQuoteCurrency(q string) Option {
	return func(c *Client) {
		if q != "" {
			c.quote = strings.ToUpper(q)
		}
	}
}

func WithHTTPClient(h *xhttp.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithLogger(l *applogger.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New builds a client with a 10s timeout unless WithHTTPClient overrides it.
func New(opts ...Option) *Client {
	c := &Client{baseURL: defaultBaseURL, quote: "USD"}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = xhttp.NewClient(xhttp.WithTimeout(10 * time.Second))
	}
	if c.logger == nil {
		c.logger = applogger.NewNop()
	}
	return c
}

type histoPoint struct {
	Time  int64   `json:"time"`
	Close float64 `json:"close"`
}

type histoResponse struct {
	Response string `json:"Response"`
	Message  string `json:"Message"`
	Data     struct {
		Data []histoPoint `json:"Data"`
	} `json:"Data"`
}

func endpoint(g models.Granularity) (string, error) {
	switch g {
	case models.GranularityMinute:
		return "histominute", nil
	case models.GranularityHour:
		return "histohour", nil
	case models.GranularityDay:
		return "histoday", nil
	default:
		return "", fmt.Errorf("unsupported granularity %q", g)
	}
}

// FetchHistory returns the closes oldest first. An error response, an empty
// data array or a malformed series are errors; nothing partial is returned.
func (c *Client) FetchHistory(ctx context.Context, symbol string, g models.Granularity, limit int) (models.PriceSeries, error) {
	ep, err := endpoint(g)
	if err != nil {
		return nil, err
	}
	if limit < 1 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	query := map[string][]string{
		"fsym":  {symbol},
		"tsym":  {c.quote},
		"limit": {strconv.Itoa(limit)},
	}
	if c.apiKey != "" {
		query["api_key"] = []string{c.apiKey}
	}

	start := time.Now()
	var resp histoResponse
	err = c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.baseURL + "/data/v2/" + ep,
		QueryParams: query,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("fetch %s %s history: %w", symbol, g, err)
	}
	if strings.EqualFold(resp.Response, "Error") {
		return nil, fmt.Errorf("fetch %s %s history: provider error: %s", symbol, g, resp.Message)
	}
	if len(resp.Data.Data) == 0 {
		return nil, fmt.Errorf("%w for %s", models.ErrNoData, symbol)
	}

	series := make(models.PriceSeries, len(resp.Data.Data))
	for i, p := range resp.Data.Data {
		series[i] = models.PricePoint{Time: util.FromUnix(p.Time), Close: p.Close}
	}
	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", symbol, err)
	}

	c.logger.Debug("history fetched",
		applogger.String("symbol", symbol),
		applogger.String("granularity", string(g)),
		applogger.Int("points", len(series)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return series, nil
}

var _ drepo.HistoryFetcher = (*Client)(nil)
