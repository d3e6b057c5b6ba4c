package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/nyasuto/mond/internal/domain"
	"github.com/nyasuto/mond/internal/usecase/collector"
)

// DefaultBaseURL is the public Yahoo Finance query host
const DefaultBaseURL = "https://query1.finance.yahoo.com"

const userAgent = "Mozilla/5.0 (compatible; mond/1.0)"

// Config tunes the client
type Config struct {
	BaseURL        string
	Timeout        time.Duration // per request
	MaxAttempts    int
	InitialBackoff time.Duration
}

// Client fetches daily closes from the Yahoo Finance chart API.
// It implements collector.Feed.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	maxAttempts    int
	initialBackoff time.Duration
	log            zerolog.Logger
}

var _ collector.Feed = (*Client)(nil)

// NewClient creates a new Yahoo Finance client
func NewClient(cfg Config, log zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 4
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 2 * time.Second
	}
	return &Client{
		baseURL:        cfg.BaseURL,
		httpClient:     &http.Client{Timeout: cfg.Timeout},
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		log:            log.With().Str("client", "yahoo").Logger(),
	}
}

// chartResponse is the subset of /v8/finance/chart we read
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol    string `json:"symbol"`
				GMTOffset int64  `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// statusError is a non-200 answer from the API
type statusError struct {
	Status int
	Body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("yahoo returned status %d: %s", e.Status, e.Body)
}

// DailyCloses fetches the daily closes of symbol within [start, end].
// Rate limiting, gateway errors, and timeouts are retried with exponential backoff;
// other failures are returned immediately.
func (c *Client) DailyCloses(ctx context.Context, symbol string, start, end time.Time) ([]collector.Close, error) {
	reqURL := c.chartURL(symbol, start, end)

	var body []byte
	attempt := 0
	operation := func() error {
		attempt++
		b, err := c.get(ctx, reqURL)
		if err == nil {
			body = b
			return nil
		}
		if !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		c.log.Warn().Err(err).
			Str("symbol", symbol).
			Int("attempt", attempt).
			Dur("wait", wait).
			Msg("Failed to fetch closes, retrying")
	}

	if err := backoff.RetryNotify(operation, c.policy(ctx), notify); err != nil {
		return nil, fmt.Errorf("failed to fetch %s after %d attempt(s): %w", symbol, attempt, err)
	}

	closes, err := parseChart(body, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", symbol, err)
	}
	if len(closes) == 0 {
		return nil, fmt.Errorf("no closes for %s between %s and %s", symbol, domain.FormatDate(start), domain.FormatDate(end))
	}
	return closes, nil
}

func (c *Client) policy(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.initialBackoff
	exp.Multiplier = 2
	exp.RandomizationFactor = 0
	exp.MaxElapsedTime = 0
	exp.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(c.maxAttempts-1)), ctx)
}

func (c *Client) chartURL(symbol string, start, end time.Time) string {
	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("period1", strconv.FormatInt(domain.DateOf(start).Unix(), 10))
	// period2 is exclusive
	params.Set("period2", strconv.FormatInt(domain.DateOf(end).AddDate(0, 0, 1).Unix(), 10))
	return c.baseURL + "/v8/finance/chart/" + url.PathEscape(symbol) + "?" + params.Encode()
}

func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		snippet := string(body)
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return nil, &statusError{Status: resp.StatusCode, Body: snippet}
	}
	return body, nil
}

func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		switch se.Status {
		case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// parseChart extracts the non-null closes within [start, end], keyed by exchange-local date
func parseChart(body []byte, start, end time.Time) ([]collector.Close, error) {
	var resp chartResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode chart: %w", err)
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("chart error %s: %s", resp.Chart.Error.Code, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, nil
	}

	result := resp.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, nil
	}
	closes := result.Indicators.Quote[0].Close
	first, last := domain.DateOf(start), domain.DateOf(end)

	out := make([]collector.Close, 0, len(result.Timestamp))
	seen := make(map[time.Time]int)
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		day := domain.DateOf(time.Unix(ts+result.Meta.GMTOffset, 0).UTC())
		if day.Before(first) || day.After(last) {
			continue
		}
		value := decimal.NewFromFloat(*closes[i])
		// A later bar of the same day replaces an earlier one
		if idx, ok := seen[day]; ok {
			out[idx].Value = value
			continue
		}
		seen[day] = len(out)
		out = append(out, collector.Close{Date: day, Value: value})
	}
	return out, nil
}
