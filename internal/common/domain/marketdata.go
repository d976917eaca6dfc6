package domain

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Data sources are slow, fallible network calls and must not be assumed
// safe to retry. All reads go through the TTL cache, never directly.

type QuoteSource interface {
	FetchQuote(ctx context.Context, symbol string) (*Quote, error)
}

type WeatherSource interface {
	FetchWeather(ctx context.Context, city string) (*WeatherSnapshot, error)
}

type AccountSource interface {
	FetchAccountSummary(ctx context.Context, kind string) (*AccountSummary, error)
}

type Quote struct {
	Symbol        string          `json:"symbol"`
	Price         decimal.Decimal `json:"price"`
	PreviousClose decimal.Decimal `json:"previous_close"`
	Currency      string          `json:"currency"`

	FetchedAt time.Time `json:"fetched_at"`
}

type WeatherSnapshot struct {
	City    string `json:"city"`
	Country string `json:"country"`

	Temperature float64 `json:"temperature"`
	FeelsLike   float64 `json:"feels_like"`
	TempMin     float64 `json:"temp_min"`
	TempMax     float64 `json:"temp_max"`
	Humidity    int     `json:"humidity"`
	Pressure    int     `json:"pressure"`

	Condition   string  `json:"condition"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
	WindSpeed   float64 `json:"wind_speed"`

	Sunrise time.Time `json:"sunrise"`
	Sunset  time.Time `json:"sunset"`
	TakenAt time.Time `json:"taken_at"`
	Units   string    `json:"units"`
}

// AccountSummary carries an opaque payload from a third-party account feed
// (mail, calendar, tasks). The core never interprets it; the presentation
// layer does.
type AccountSummary struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`

	FetchedAt time.Time `json:"fetched_at"`
}
