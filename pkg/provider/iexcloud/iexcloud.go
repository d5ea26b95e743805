package iexcloud

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

	"github.com/zeromicro/go-zero/core/logx"
	"golang.org/x/time/rate"

	"divwatch-api/pkg/dividend"
	"divwatch-api/pkg/provider"
)

const (
	defaultBaseURL = "https://cloud.iexapis.com/stable"
	defaultTimeout = 30 * time.Second
)

var defaultSince = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)

type options struct {
	baseURL     string
	token       string
	since       time.Time
	timeout     time.Duration
	rateLimiter *rate.Limiter
	httpClient  provider.Doer
	now         func() time.Time
}

type Option func(o options) options

func BaseURL(v string) Option {
	return func(o options) options {
		if v != "" {
			o.baseURL = strings.TrimRight(v, "/")
		}
		return o
	}
}

func Token(v string) Option {
	return func(o options) options {
		o.token = v
		return o
	}
}

func Since(t time.Time) Option {
	return func(o options) options {
		if !t.IsZero() {
			o.since = t
		}
		return o
	}
}

func Timeout(d time.Duration) Option {
	return func(o options) options {
		if d > 0 {
			o.timeout = d
		}
		return o
	}
}

func RateLimiter(l *rate.Limiter) Option {
	return func(o options) options {
		o.rateLimiter = l
		return o
	}
}

func HTTPClient(c provider.Doer) Option {
	return func(o options) options {
		o.httpClient = c
		return o
	}
}

func Now(fn func() time.Time) Option {
	return func(o options) options {
		if fn != nil {
			o.now = fn
		}
		return o
	}
}

const defaultRateLimit = 250 * time.Millisecond

func defaultOptions() options {
	return options{
		baseURL:     defaultBaseURL,
		since:       defaultSince,
		timeout:     defaultTimeout,
		rateLimiter: rate.NewLimiter(rate.Every(defaultRateLimit), 1),
		now:         time.Now,
	}
}

// IEXCloud reads dividend history from the IEX Cloud time-series API.
type IEXCloud struct {
	opts       options
	httpClient *provider.RLClient
}

func NewIEXCloud(os ...Option) *IEXCloud {
	opts := defaultOptions()
	for _, o := range os {
		opts = o(opts)
	}

	client := opts.httpClient
	if client == nil {
		client = &http.Client{Timeout: opts.timeout}
	}

	return &IEXCloud{
		opts:       opts,
		httpClient: provider.NewRLClient(client, opts.rateLimiter),
	}
}

func init() {
	provider.RegisterProvider("iexcloud", func(name string, cfg *provider.ProviderConfig) (provider.Provider, error) {
		if cfg.Token == "" {
			return nil, fmt.Errorf("iexcloud: token is required")
		}
		opts := []Option{
			BaseURL(cfg.BaseURL),
			Token(cfg.Token),
			Timeout(cfg.Timeout),
		}
		if l := cfg.Limiter(); l != nil {
			opts = append(opts, RateLimiter(l))
		}
		if cfg.Since != "" {
			since, err := time.Parse(dividend.DateFormat, cfg.Since)
			if err != nil {
				return nil, fmt.Errorf("iexcloud: since: %w", err)
			}
			opts = append(opts, Since(since))
		}
		return NewIEXCloud(opts...), nil
	})
}

func (c *IEXCloud) dividendsURL(symbol string) string {
	symbol = strings.ToLower(symbol)
	return c.opts.baseURL +
		"/time-series" +
		"/DIVIDENDS/" + url.PathEscape(symbol) +
		"?from=" + c.opts.since.Format(dividend.DateFormat) +
		"&token=" + url.QueryEscape(c.opts.token)
}

// Dividends implements provider.Provider.
func (c *IEXCloud) Dividends(
	ctx context.Context,
	symbol string,
) ([]dividend.Payment, error) {
	if strings.TrimSpace(symbol) == "" {
		return nil, fmt.Errorf("iexcloud: empty symbol")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.dividendsURL(symbol), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("iexcloud: %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	logx.WithContext(ctx).Debugf("iexcloud: %s: %d", symbol, resp.StatusCode)

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", provider.ErrSymbolNotFound, symbol)
	}
	if resp.StatusCode < 200 || 299 < resp.StatusCode {
		return nil, fmt.Errorf("iexcloud: http error: %d", resp.StatusCode)
	}

	dividends, err := c.parseDividends(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("iexcloud: parse dividends: %w", err)
	}

	out := make([]dividend.Payment, 0, len(dividends))
	for _, v := range dividends {
		out = append(out, dividend.Payment{
			Date:   time.Time(v.ExDate),
			Amount: v.Amount,
		})
	}
	sortPaymentsAsc(out)
	return out, nil
}

func (c *IEXCloud) parseDividends(r io.Reader) ([]*dividendRow, error) {
	dividends := make([]*dividendRow, 0)
	now := c.opts.now().UTC()

	dec := json.NewDecoder(r)
	// read open bracket
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("open bracket: %w", err)
	}

	processed := make(map[int64]struct{})

	// while the array contains values
	for dec.More() {
		var v dividendRow
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}

		// skip undated and future dividends
		if time.Time(v.ExDate).IsZero() || v.ExDate.After(now) {
			continue
		}

		if v.Refid != 0 {
			if _, ok := processed[v.Refid]; ok {
				continue
			}
			processed[v.Refid] = struct{}{}
		}
		dividends = append(dividends, &v)
	}

	// read closing bracket
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("closing bracket: %w", err)
	}

	return dividends, nil
}

func sortPaymentsAsc(a []dividend.Payment) {
	sort.SliceStable(a, func(i, j int) bool {
		return a[i].Date.Before(a[j].Date)
	})
}

type dividendRow struct {
	ExDate   date    `json:"exDate"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Flag     string  `json:"flag"`
	Refid    int64   `json:"refid"`
	Symbol   string  `json:"symbol"`
}

type date time.Time

func (t date) After(o time.Time) bool {
	return time.Time(t).After(o)
}

func (t *date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" || s == "0000-00-00" {
		*t = date(time.Time{})
		return nil
	}

	st, err := time.Parse(dividend.DateFormat, s)
	if err != nil {
		return err
	}
	*t = date(st)
	return nil
}
