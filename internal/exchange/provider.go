// Package exchange fetches and caches currency exchange rates.
package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrUnsupportedCurrency is returned when the upstream API has no rate for the pair.
var ErrUnsupportedCurrency = errors.New("unsupported currency")

// Cache stores rates by key until they expire.
type Cache interface {
	Get(ctx context.Context, key string) (float64, bool, error)
	Set(ctx context.Context, key string, rate float64, ttl time.Duration) error
}

// Quote is a resolved exchange rate.
type Quote struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Rate   float64 `json:"rate"`
	Cached bool    `json:"cached"`
}

// Provider resolves exchange rates from a Frankfurter-compatible API.
type Provider struct {
	baseURL string
	client  *http.Client
	cache   Cache
	ttl     time.Duration
}

// NewProvider creates a Provider. A nil client uses a client with a 10s timeout.
func NewProvider(baseURL string, client *http.Client, cache Cache, ttl time.Duration) *Provider {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Provider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		cache:   cache,
		ttl:     ttl,
	}
}

type latestResponse struct {
	Base  string             `json:"base"`
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

// Rate returns how many units of purchaseCurrency buy one unit of sellingCurrency,
// which is the value Parameters.ExchangeRate expects.
func (p *Provider) Rate(ctx context.Context, purchaseCurrency, sellingCurrency string) (Quote, error) {
	from := strings.ToUpper(strings.TrimSpace(purchaseCurrency))
	to := strings.ToUpper(strings.TrimSpace(sellingCurrency))
	quote := Quote{From: from, To: to}

	if from == to {
		quote.Rate = 1
		return quote, nil
	}

	key := "fx:" + from + ":" + to
	if rate, ok, err := p.cache.Get(ctx, key); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("exchange rate cache read failed")
	} else if ok {
		quote.Rate = rate
		quote.Cached = true
		return quote, nil
	}

	rate, err := p.fetch(ctx, from, to)
	if err != nil {
		return Quote{}, err
	}

	if err := p.cache.Set(ctx, key, rate, p.ttl); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("exchange rate cache write failed")
	}

	quote.Rate = rate
	return quote, nil
}

// fetch asks for the price of one selling unit expressed in the purchase currency.
func (p *Provider) fetch(ctx context.Context, purchaseCurrency, sellingCurrency string) (float64, error) {
	q := url.Values{}
	q.Set("from", sellingCurrency)
	q.Set("to", purchaseCurrency)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/latest?"+q.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("build exchange rate request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request exchange rate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusUnprocessableEntity {
		return 0, fmt.Errorf("%w: %s/%s", ErrUnsupportedCurrency, purchaseCurrency, sellingCurrency)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("exchange rate api returned status %d", resp.StatusCode)
	}

	var body latestResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decode exchange rate response: %w", err)
	}

	rate, ok := body.Rates[purchaseCurrency]
	if !ok || rate <= 0 {
		return 0, fmt.Errorf("%w: %s/%s", ErrUnsupportedCurrency, purchaseCurrency, sellingCurrency)
	}
	return rate, nil
}
