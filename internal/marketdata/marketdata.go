// Package marketdata mediates every read of externally sourced, rate-limited
// data through the TTL cache. Nothing else in the process talks to the quote,
// weather or account upstreams directly.
package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/mydash-app/mydash/internal/common/domain"
	"github.com/mydash-app/mydash/pkg/ttlcache"
)

type Service struct {
	cache *ttlcache.Cache

	quotes   domain.QuoteSource
	weather  domain.WeatherSource
	accounts domain.AccountSource

	quoteTTL   time.Duration
	weatherTTL time.Duration
	accountTTL time.Duration
}

func New(cache *ttlcache.Cache, quotes domain.QuoteSource, weather domain.WeatherSource, accounts domain.AccountSource) *Service {
	return &Service{
		cache:      cache,
		quotes:     quotes,
		weather:    weather,
		accounts:   accounts,
		quoteTTL:   domain.QuoteTTL,
		weatherTTL: domain.WeatherTTL,
		accountTTL: domain.AccountTTL,
	}
}

// Quote returns the cached quote for symbol, fetching when the entry is
// missing or expired. stale is true when the value outlived its TTL and the
// refresh failed.
func (s *Service) Quote(ctx context.Context, symbol string) (*domain.Quote, bool, error) {
	value, stale, err := s.cache.GetOrFetch(ctx, Key(domain.CacheKindQuote, symbol), s.quoteTTL, func(ctx context.Context) (any, error) {
		return s.quotes.FetchQuote(ctx, symbol)
	})
	if err != nil {
		return nil, false, err
	}

	return value.(*domain.Quote), stale, nil
}

func (s *Service) Weather(ctx context.Context, city string) (*domain.WeatherSnapshot, bool, error) {
	value, stale, err := s.cache.GetOrFetch(ctx, Key(domain.CacheKindWeather, city), s.weatherTTL, func(ctx context.Context) (any, error) {
		return s.weather.FetchWeather(ctx, city)
	})
	if err != nil {
		return nil, false, err
	}

	return value.(*domain.WeatherSnapshot), stale, nil
}

func (s *Service) AccountSummary(ctx context.Context, kind string) (*domain.AccountSummary, bool, error) {
	value, stale, err := s.cache.GetOrFetch(ctx, Key(domain.CacheKindAccount, kind), s.accountTTL, func(ctx context.Context) (any, error) {
		return s.accounts.FetchAccountSummary(ctx, kind)
	})
	if err != nil {
		return nil, false, err
	}

	return value.(*domain.AccountSummary), stale, nil
}

// Key builds a cache key such as "quote:AAPL" or "weather:Seoul". Prices are
// keyed by symbol, not by holding, so ledger mutations never invalidate
// cache entries.
func Key(kind, lookup string) string {
	return fmt.Sprintf("%s:%s", kind, lookup)
}
