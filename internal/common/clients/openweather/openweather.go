// Package openweather fetches current conditions from the OpenWeatherMap API.
package openweather

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/mydash-app/mydash/internal/common/domain"
)

const baseURL = "https://api.openweathermap.org/data/2.5/weather"

type Client struct {
	http *resty.Client

	apiKey string
	units  string
}

func NewClient(apiKey, units string) *Client {
	if units == "" {
		units = "metric"
	}

	return &Client{
		http:   resty.New().SetTimeout(5 * time.Second),
		apiKey: apiKey,
		units:  units,
	}
}

type weatherResponse struct {
	Name string `json:"name"`
	Dt   int64  `json:"dt"`

	Sys struct {
		Country string `json:"country"`
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
	} `json:"sys"`

	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		TempMin   float64 `json:"temp_min"`
		TempMax   float64 `json:"temp_max"`
		Humidity  int     `json:"humidity"`
		Pressure  int     `json:"pressure"`
	} `json:"main"`

	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`

	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

func (c *Client) FetchWeather(ctx context.Context, city string) (*domain.WeatherSnapshot, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("openweather api key is not configured")
	}

	var payload weatherResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":     city,
			"appid": c.apiKey,
			"units": c.units,
		}).
		SetResult(&payload).
		Get(baseURL)
	if err != nil {
		return nil, fmt.Errorf("openweather request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("openweather status %s", resp.Status())
	}

	snapshot := &domain.WeatherSnapshot{
		City:        payload.Name,
		Country:     payload.Sys.Country,
		Temperature: payload.Main.Temp,
		FeelsLike:   payload.Main.FeelsLike,
		TempMin:     payload.Main.TempMin,
		TempMax:     payload.Main.TempMax,
		Humidity:    payload.Main.Humidity,
		Pressure:    payload.Main.Pressure,
		WindSpeed:   payload.Wind.Speed,
		Sunrise:     time.Unix(payload.Sys.Sunrise, 0),
		Sunset:      time.Unix(payload.Sys.Sunset, 0),
		TakenAt:     time.Unix(payload.Dt, 0),
		Units:       c.units,
	}
	if len(payload.Weather) > 0 {
		snapshot.Condition = payload.Weather[0].Main
		snapshot.Description = payload.Weather[0].Description
		snapshot.Icon = payload.Weather[0].Icon
	}

	return snapshot, nil
}

// IconEmoji maps an OpenWeatherMap icon code to a terminal-friendly emoji.
func IconEmoji(icon string) string {
	icons := map[string]string{
		"01d": "☀️", "01n": "🌙",
		"02d": "⛅", "02n": "☁️",
		"03d": "☁️", "03n": "☁️",
		"04d": "☁️", "04n": "☁️",
		"09d": "🌧️", "09n": "🌧️",
		"10d": "🌦️", "10n": "🌧️",
		"11d": "⛈️", "11n": "⛈️",
		"13d": "❄️", "13n": "❄️",
		"50d": "🌫️", "50n": "🌫️",
	}

	if emoji, ok := icons[icon]; ok {
		return emoji
	}

	return "🌤️"
}
