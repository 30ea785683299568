// Package rates reads currency quotes from the public dolarsi.com feed.
package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var ErrLabelNotFound = errors.New("quote label not found")

// Quote is one record of the feed. Prices use a decimal comma ("350,50").
type Quote struct {
	House struct {
		Name     string `json:"nombre"`
		Buy      string `json:"compra"`
		Sale     string `json:"venta"`
		Variance string `json:"variacion,omitempty"`
	} `json:"casa"`
}

// Cache is an optional store for the last good sale price per label.
type Cache interface {
	GetQuote(ctx context.Context, label string) (string, bool, error)
	SetQuote(ctx context.Context, label, value string, ttl time.Duration) error
}

type Client struct {
	URL      string
	Label    string
	HTTP     *http.Client
	Timeout  time.Duration // applied per fetch on top of the caller's context
	Cache    Cache         // optional
	CacheTTL time.Duration
	Log      *zap.Logger
}

func New(url, label string, timeout time.Duration, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		URL:     url,
		Label:   label,
		HTTP:    &http.Client{Timeout: timeout},
		Timeout: timeout,
		Log:     log,
	}
}

// BlueRate returns the sale price of the configured label.
func (c *Client) BlueRate(ctx context.Context) (decimal.Decimal, error) {
	if c.Cache != nil && c.CacheTTL > 0 {
		if v, ok, err := c.Cache.GetQuote(ctx, c.Label); err != nil {
			c.Log.Warn("quote cache read failed", zap.Error(err))
		} else if ok {
			if d, err := decimal.NewFromString(v); err == nil {
				return d, nil
			}
		}
	}

	quotes, err := c.fetch(ctx)
	if err != nil {
		return decimal.Decimal{}, err
	}
	rate, err := Select(quotes, c.Label)
	if err != nil {
		return decimal.Decimal{}, err
	}

	if c.Cache != nil && c.CacheTTL > 0 {
		if err := c.Cache.SetQuote(ctx, c.Label, rate.String(), c.CacheTTL); err != nil {
			c.Log.Warn("quote cache write failed", zap.Error(err))
		}
	}
	return rate, nil
}

func (c *Client) fetch(ctx context.Context) ([]Quote, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch quotes: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("fetch quotes: unexpected status %d", resp.StatusCode)
	}

	var quotes []Quote
	if err := json.NewDecoder(resp.Body).Decode(&quotes); err != nil {
		return nil, fmt.Errorf("decode quotes: %w", err)
	}
	return quotes, nil
}

// Select picks the record named label and parses its sale price.
func Select(quotes []Quote, label string) (decimal.Decimal, error) {
	for _, q := range quotes {
		if q.House.Name == label {
			return ParsePrice(q.House.Sale)
		}
	}
	return decimal.Decimal{}, fmt.Errorf("%w: %s", ErrLabelNotFound, label)
}

// ParsePrice reads "1.234,50" or "350,50" style numbers.
func ParsePrice(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse price %q: %w", s, err)
	}
	return d, nil
}
