// Package exchange fetches currency exchange rates for price display
package exchange

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/teebalk/marketplace/internal/domain/shared"
	"github.com/teebalk/marketplace/internal/infrastructure/cache"
	"github.com/teebalk/marketplace/internal/infrastructure/config"
	"github.com/teebalk/marketplace/internal/infrastructure/external"
)

const serviceName = "exchange rate API"

// Rates are the conversion factors from Base into each listed currency
type Rates struct {
	Base      shared.Currency            `json:"base"`
	Rates     map[string]decimal.Decimal `json:"rates"`
	FetchedAt time.Time                  `json:"fetched_at"`
}

// Client reads the latest rates and caches them per base currency
type Client struct {
	api    *external.Client
	apiKey string
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewClient creates an exchange-rate client
func NewClient(cfg config.ExchangeRateConfig, c cache.Cache, logger *zap.Logger) *Client {
	return &Client{
		api:    external.NewClient(serviceName, cfg.BaseURL, cfg.Timeout, nil),
		apiKey: cfg.APIKey,
		cache:  c,
		ttl:    cfg.CacheTTL,
		logger: logger,
	}
}

type latestResponse struct {
	Base  string                     `json:"base"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

// Latest returns the current rates for base, from cache when fresh
func (c *Client) Latest(ctx context.Context, base shared.Currency) (*Rates, error) {
	if base == "" {
		base = shared.DefaultCurrency
	}
	if base == shared.SEC {
		return nil, shared.NewFieldValidationError("base", "coins have no exchange rate")
	}

	var rates Rates
	if found, err := c.cache.Get(ctx, base.String(), &rates); err != nil {
		c.logger.Warn("Exchange rate cache read failed", zap.Error(err))
	} else if found {
		return &rates, nil
	}

	q := url.Values{"base": {base.String()}}
	if c.apiKey != "" {
		q.Set("access_key", c.apiKey)
	}
	var resp latestResponse
	if err := c.api.Do(ctx, http.MethodGet, "/latest?"+q.Encode(), nil, nil, &resp); err != nil {
		return nil, external.Unavailable(serviceName, err)
	}
	if len(resp.Rates) == 0 {
		return nil, external.Unavailable(serviceName, fmt.Errorf("no rates for %s", base))
	}

	rates = Rates{Base: shared.ParseCurrency(resp.Base), Rates: resp.Rates, FetchedAt: shared.Now()}
	if rates.Base == "" {
		rates.Base = base
	}
	if err := c.cache.Set(ctx, base.String(), rates, c.ttl); err != nil {
		c.logger.Warn("Exchange rate cache write failed", zap.Error(err))
	}
	return &rates, nil
}

// Convert converts amount between currencies, rounded down to the smallest
// unit of the target currency
func (c *Client) Convert(ctx context.Context, amount decimal.Decimal, from, to shared.Currency) (decimal.Decimal, error) {
	if from == to {
		return amount, nil
	}
	rates, err := c.Latest(ctx, from)
	if err != nil {
		return decimal.Zero, err
	}
	rate, ok := rates.Rates[to.String()]
	if !ok {
		return decimal.Zero, shared.NewFieldValidationError("to", fmt.Sprintf("no exchange rate from %s to %s", from, to))
	}
	return shared.RoundAmount(amount.Mul(rate), to), nil
}
