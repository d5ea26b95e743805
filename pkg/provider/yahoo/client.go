package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"divwatch-api/pkg/dividend"
	"divwatch-api/pkg/provider"
)

const (
	defaultBaseURL     = "https://query1.finance.yahoo.com"
	defaultHTTPTimeout = 10 * time.Second
	defaultUserAgent   = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	maxErrorBody       = 512
)

// Client wraps access to the Yahoo Finance chart endpoint.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient provider.Doer
	limiter    *rate.Limiter
}

// Option configures a new Client.
type Option func(*Client)

// WithHTTPClient injects a custom HTTP client.
func WithHTTPClient(hc provider.Doer) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBaseURL overrides the default API host.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithUserAgent overrides the User-Agent header; Yahoo rejects empty agents.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithRateLimiter throttles outgoing requests.
func WithRateLimiter(l *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

// NewClient constructs a Yahoo Finance client.
func NewClient(opts ...Option) *Client {
	client := &Client{
		baseURL:    defaultBaseURL,
		userAgent:  defaultUserAgent,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	client.httpClient = provider.NewRLClient(client.httpClient, client.limiter)
	return client
}

func (c *Client) chartURL(symbol string) string {
	return c.baseURL +
		"/v8/finance/chart/" + url.PathEscape(symbol) +
		"?range=max&interval=1mo&events=div"
}

// GetDividends returns the full dividend history of symbol, oldest first.
func (c *Client) GetDividends(ctx context.Context, symbol string) ([]dividend.Payment, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("yahoo: empty symbol")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.chartURL(symbol), nil)
	if err != nil {
		return nil, fmt.Errorf("yahoo: build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo: %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo: read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", provider.ErrSymbolNotFound, symbol)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("yahoo: http status %d: %s", resp.StatusCode, truncate(body))
	}

	var parsed chartResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("yahoo: decode response: %w", err)
	}
	if e := parsed.Chart.Error; e != nil {
		if strings.EqualFold(e.Code, "Not Found") {
			return nil, fmt.Errorf("%w: %s", provider.ErrSymbolNotFound, symbol)
		}
		return nil, fmt.Errorf("yahoo: %s: %s", e.Code, e.Description)
	}
	if len(parsed.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", provider.ErrSymbolNotFound, symbol)
	}

	return parsed.Chart.Result[0].payments(), nil
}

func (r *chartResult) payments() []dividend.Payment {
	loc := time.UTC
	if tz := r.Meta.ExchangeTimezoneName; tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		}
	}

	out := make([]dividend.Payment, 0, len(r.Events.Dividends))
	for _, ev := range r.Events.Dividends {
		out = append(out, dividend.Payment{
			Date:   time.Unix(ev.Date, 0).In(loc),
			Amount: ev.Amount,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

func truncate(b []byte) string {
	if len(b) > maxErrorBody {
		b = b[:maxErrorBody]
	}
	return string(b)
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Symbol               string `json:"symbol"`
		Currency             string `json:"currency"`
		ExchangeTimezoneName string `json:"exchangeTimezoneName"`
	} `json:"meta"`
	Events struct {
		// Keyed by the event's unix timestamp as a string.
		Dividends map[string]dividendEvent `json:"dividends"`
	} `json:"events"`
}

type dividendEvent struct {
	Amount float64 `json:"amount"`
	Date   int64   `json:"date"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}
