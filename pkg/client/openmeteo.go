package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bobby-s-dev/weather-forecast/internal/forecast"
	"github.com/bobby-s-dev/weather-forecast/internal/models"
	"go.uber.org/zap"
)

const (
	OpenMeteoSource           = "open-meteo"
	DefaultOpenMeteoURL       = "https://api.open-meteo.com/v1"
	DefaultOpenMeteoGeocoding = "https://geocoding-api.open-meteo.com/v1"

	// Today plus the five days the summarizer can return.
	openMeteoForecastDays = 6
)

type OpenMeteoClient struct {
	*BaseClient
	baseURL      string
	geocodingURL string
}

type OpenMeteoGeocodingResponse struct {
	Results []struct {
		Name        string  `json:"name"`
		Latitude    float64 `json:"latitude"`
		Longitude   float64 `json:"longitude"`
		CountryCode string  `json:"country_code"`
		Timezone    string  `json:"timezone"`
	} `json:"results"`
}

type OpenMeteoCurrentResponse struct {
	UTCOffsetSeconds int `json:"utc_offset_seconds"`
	Current          struct {
		Time               int64   `json:"time"`
		Temperature2M      float64 `json:"temperature_2m"`
		ApparentTemp       float64 `json:"apparent_temperature"`
		RelativeHumidity2M float64 `json:"relative_humidity_2m"`
		PressureMSL        float64 `json:"pressure_msl"`
		WindSpeed10M       float64 `json:"wind_speed_10m"`
		WeatherCode        int     `json:"weather_code"`
		IsDay              int     `json:"is_day"`
	} `json:"current"`
}

type OpenMeteoForecastResponse struct {
	UTCOffsetSeconds int `json:"utc_offset_seconds"`
	Hourly           struct {
		Time          []int64    `json:"time"`
		Temperature2M []*float64 `json:"temperature_2m"`
		WeatherCode   []*int     `json:"weather_code"`
		IsDay         []int      `json:"is_day"`
	} `json:"hourly"`
}

type location struct {
	name      string
	country   string
	latitude  float64
	longitude float64
}

func NewOpenMeteoClient(baseURL, geocodingURL string, config ClientConfig, logger *zap.Logger) *OpenMeteoClient {
	if baseURL == "" {
		baseURL = DefaultOpenMeteoURL
	}
	if geocodingURL == "" {
		geocodingURL = DefaultOpenMeteoGeocoding
	}
	return &OpenMeteoClient{
		BaseClient:   NewBaseClient("openmeteo", config, logger),
		baseURL:      strings.TrimRight(baseURL, "/"),
		geocodingURL: strings.TrimRight(geocodingURL, "/"),
	}
}

func (c *OpenMeteoClient) Name() string {
	return OpenMeteoSource
}

// Open-Meteo needs coordinates, so every lookup starts with a geocoding call.
func (c *OpenMeteoClient) geocode(ctx context.Context, city string) (*location, error) {
	q := url.Values{}
	q.Set("name", city)
	q.Set("count", "1")
	q.Set("format", "json")

	data, err := c.GetWithRetry(ctx, c.geocodingURL+"/search?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("failed to geocode %s: %w", city, err)
	}

	var response OpenMeteoGeocodingResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, fmt.Errorf("failed to parse geocoding response: %w", err)
	}
	if len(response.Results) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrCityNotFound, city)
	}

	r := response.Results[0]
	return &location{
		name:      r.Name,
		country:   r.CountryCode,
		latitude:  r.Latitude,
		longitude: r.Longitude,
	}, nil
}

func (c *OpenMeteoClient) forecastQuery(loc *location, units forecast.Units) url.Values {
	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%.4f", loc.latitude))
	q.Set("longitude", fmt.Sprintf("%.4f", loc.longitude))
	q.Set("timezone", "auto")
	q.Set("timeformat", "unixtime")
	if units == forecast.Imperial {
		q.Set("temperature_unit", "fahrenheit")
		q.Set("wind_speed_unit", "mph")
	} else {
		q.Set("wind_speed_unit", "ms")
	}
	return q
}

func (c *OpenMeteoClient) GetCurrentWeather(ctx context.Context, city string, units forecast.Units) (*models.CurrentWeather, error) {
	loc, err := c.geocode(ctx, city)
	if err != nil {
		return nil, err
	}

	q := c.forecastQuery(loc, units)
	q.Set("current", "temperature_2m,apparent_temperature,relative_humidity_2m,pressure_msl,wind_speed_10m,weather_code,is_day")

	data, err := c.GetWithRetry(ctx, c.baseURL+"/forecast?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch current weather: %w", err)
	}

	var response OpenMeteoCurrentResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	cur := response.Current
	return &models.CurrentWeather{
		City:        loc.name,
		Country:     loc.country,
		Temperature: cur.Temperature2M,
		FeelsLike:   cur.ApparentTemp,
		Humidity:    cur.RelativeHumidity2M,
		Pressure:    cur.PressureMSL,
		WindSpeed:   cur.WindSpeed10M,
		Description: weatherCodeToDescription(cur.WeatherCode),
		Icon:        weatherCodeToIcon(cur.WeatherCode, cur.IsDay == 1),
		Timestamp:   time.Unix(cur.Time, 0).UTC(),
		Timezone:    response.UTCOffsetSeconds,
		Units:       units,
		Source:      OpenMeteoSource,
	}, nil
}

// GetForecast returns the hourly feed as samples. Hours with a null
// temperature keep a nil Temperature.
func (c *OpenMeteoClient) GetForecast(ctx context.Context, city string, units forecast.Units) (*models.Feed, error) {
	loc, err := c.geocode(ctx, city)
	if err != nil {
		return nil, err
	}

	q := c.forecastQuery(loc, units)
	q.Set("hourly", "temperature_2m,weather_code,is_day")
	q.Set("forecast_days", fmt.Sprint(openMeteoForecastDays))

	data, err := c.GetWithRetry(ctx, c.baseURL+"/forecast?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch forecast: %w", err)
	}

	var response OpenMeteoForecastResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, fmt.Errorf("failed to parse forecast response: %w", err)
	}

	hourly := response.Hourly
	feed := &models.Feed{
		City:           loc.name,
		Country:        loc.country,
		TimezoneOffset: response.UTCOffsetSeconds,
		Units:          units,
		Samples:        make([]forecast.Sample, 0, len(hourly.Time)),
		Source:         OpenMeteoSource,
		FetchedAt:      time.Now().UTC(),
	}

	for i, ts := range hourly.Time {
		sample := forecast.Sample{Epoch: ts}
		if i < len(hourly.Temperature2M) {
			sample.Temperature = hourly.Temperature2M[i]
		}
		if i < len(hourly.WeatherCode) && hourly.WeatherCode[i] != nil {
			code := *hourly.WeatherCode[i]
			isDay := i < len(hourly.IsDay) && hourly.IsDay[i] == 1
			sample.IconCode = weatherCodeToIcon(code, isDay)
			sample.Description = weatherCodeToDescription(code)
		}
		feed.Samples = append(feed.Samples, sample)
	}

	c.logger.Debug("Open-Meteo forecast parsed",
		zap.String("city", feed.City),
		zap.Int("samples", len(feed.Samples)),
		zap.Int("timezone", feed.TimezoneOffset))

	return feed, nil
}

// WMO Weather interpretation codes
var weatherCodes = map[int]string{
	0:  "clear sky",
	1:  "mainly clear",
	2:  "partly cloudy",
	3:  "overcast",
	45: "fog",
	48: "depositing rime fog",
	51: "light drizzle",
	53: "moderate drizzle",
	55: "dense drizzle",
	56: "light freezing drizzle",
	57: "dense freezing drizzle",
	61: "slight rain",
	63: "moderate rain",
	65: "heavy rain",
	66: "light freezing rain",
	67: "heavy freezing rain",
	71: "slight snow fall",
	73: "moderate snow fall",
	75: "heavy snow fall",
	77: "snow grains",
	80: "slight rain showers",
	81: "moderate rain showers",
	82: "violent rain showers",
	85: "slight snow showers",
	86: "heavy snow showers",
	95: "thunderstorm",
	96: "thunderstorm with slight hail",
	99: "thunderstorm with heavy hail",
}

func weatherCodeToDescription(code int) string {
	if desc, ok := weatherCodes[code]; ok {
		return desc
	}
	return "unknown"
}

// weatherCodeToIcon maps a WMO code onto the OpenWeatherMap icon set so both
// providers render with the same images.
func weatherCodeToIcon(code int, isDay bool) string {
	var icon string
	switch {
	case code == 0:
		icon = "01"
	case code <= 2:
		icon = "02"
	case code == 3:
		icon = "04"
	case code <= 48:
		icon = "50"
	case code <= 57:
		icon = "09"
	case code <= 67:
		icon = "10"
	case code <= 77:
		icon = "13"
	case code <= 82:
		icon = "09"
	case code <= 86:
		icon = "13"
	default:
		icon = "11"
	}
	if isDay {
		return icon + "d"
	}
	return icon + "n"
}
