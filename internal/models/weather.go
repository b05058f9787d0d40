package models

import (
	"time"

	"github.com/bobby-s-dev/weather-forecast/internal/forecast"
)

const iconURLFormat = "https://openweathermap.org/img/wn/%s.png"

type CurrentWeather struct {
	City        string         `json:"city"`
	Country     string         `json:"country,omitempty"`
	Temperature float64        `json:"temperature"`
	FeelsLike   float64        `json:"feels_like"`
	Humidity    float64        `json:"humidity"`
	Pressure    float64        `json:"pressure"`
	WindSpeed   float64        `json:"wind_speed"`
	Description string         `json:"description"`
	Icon        string         `json:"icon"`
	Timestamp   time.Time      `json:"timestamp"`
	Timezone    int            `json:"timezone_offset"`
	Units       forecast.Units `json:"units"`
	Source      string         `json:"source"`
}

// Feed is a provider's raw forecast: samples in feed order plus the
// location's UTC offset in seconds.
type Feed struct {
	City           string            `json:"city"`
	Country        string            `json:"country,omitempty"`
	TimezoneOffset int               `json:"timezone_offset"`
	Units          forecast.Units    `json:"units"`
	Samples        []forecast.Sample `json:"samples"`
	Source         string            `json:"source"`
	FetchedAt      time.Time         `json:"fetched_at"`
}

// DailyForecast is a summarized feed.
type DailyForecast struct {
	City    string          `json:"city"`
	Country string          `json:"country,omitempty"`
	Source  string          `json:"source"`
	Result  forecast.Result `json:"result"`
}

// ForecastCard is the presentation form of a forecast.DaySummary.
type ForecastCard struct {
	Date        string `json:"date"`
	DateLabel   string `json:"date_label"`
	Weekday     string `json:"weekday"`
	IconURL     string `json:"icon_url,omitempty"`
	Min         int    `json:"min"`
	Max         int    `json:"max"`
	Unit        string `json:"unit"`
	Description string `json:"description"`
}

type CurrentWeatherView struct {
	*CurrentWeather
	TemperatureUnit string `json:"temperature_unit"`
	WindUnit        string `json:"wind_unit"`
	IconURL         string `json:"icon_url,omitempty"`
}

type ForecastView struct {
	City      string         `json:"city"`
	Country   string         `json:"country,omitempty"`
	Source    string         `json:"source"`
	Units     forecast.Units `json:"units"`
	UnitLabel string         `json:"unit_label"`
	Days      []ForecastCard `json:"days"`
}
