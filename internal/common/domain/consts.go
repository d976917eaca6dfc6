package domain

import "time"

const (
	TransactionKindBuy  = "BUY"
	TransactionKindSell = "SELL"

	// Cache key prefixes for externally sourced data.
	CacheKindQuote   = "quote"
	CacheKindWeather = "weather"
	CacheKindAccount = "account"

	// Default freshness windows for cached upstream data.
	QuoteTTL   = 5 * time.Minute
	AccountTTL = 5 * time.Minute
	WeatherTTL = 10 * time.Minute

	// Default refresh cadences for the background loops.
	TelemetryRefreshInterval = time.Second
	QuoteRefreshInterval     = 5 * time.Minute
	AccountRefreshInterval   = 5 * time.Minute
	WeatherRefreshInterval   = 10 * time.Minute
)
