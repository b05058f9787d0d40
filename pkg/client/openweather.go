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
	OpenWeatherSource  = "openweathermap"
	DefaultOpenWeather = "https://api.openweathermap.org/data/2.5"
)

type OpenWeatherClient struct {
	*BaseClient
	apiKey  string
	baseURL string
}

type openWeatherCondition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type OpenWeatherCurrentResponse struct {
	Weather []openWeatherCondition `json:"weather"`
	Main    struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Pressure  float64 `json:"pressure"`
		Humidity  float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
		Deg   float64 `json:"deg"`
	} `json:"wind"`
	Dt  int64 `json:"dt"`
	Sys struct {
		Country string `json:"country"`
	} `json:"sys"`
	Timezone int    `json:"timezone"`
	Name     string `json:"name"`
}

type OpenWeatherForecastResponse struct {
	Cnt  int `json:"cnt"`
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			// Pointer so a missing temperature stays distinguishable from 0.
			Temp *float64 `json:"temp"`
		} `json:"main"`
		Weather []openWeatherCondition `json:"weather"`
		DtTxt   string                 `json:"dt_txt"`
	} `json:"list"`
	City struct {
		Name     string `json:"name"`
		Country  string `json:"country"`
		Timezone int    `json:"timezone"`
	} `json:"city"`
}

func NewOpenWeatherClient(apiKey, baseURL string, config ClientConfig, logger *zap.Logger) *OpenWeatherClient {
	if baseURL == "" {
		baseURL = DefaultOpenWeather
	}
	return &OpenWeatherClient{
		BaseClient: NewBaseClient("openweather", config, logger),
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

func (c *OpenWeatherClient) Name() string {
	return OpenWeatherSource
}

func (c *OpenWeatherClient) endpoint(path, city string, units forecast.Units) string {
	q := url.Values{}
	q.Set("q", city)
	q.Set("appid", c.apiKey)
	q.Set("units", string(units))
	return fmt.Sprintf("%s/%s?%s", c.baseURL, path, q.Encode())
}

func (c *OpenWeatherClient) GetCurrentWeather(ctx context.Context, city string, units forecast.Units) (*models.CurrentWeather, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("openweather: %w", ErrMissingAPIKey)
	}

	data, err := c.GetWithRetry(ctx, c.endpoint("weather", city, units))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch current weather: %w", err)
	}

	var response OpenWeatherCurrentResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	weather := &models.CurrentWeather{
		City:        response.Name,
		Country:     response.Sys.Country,
		Temperature: response.Main.Temp,
		FeelsLike:   response.Main.FeelsLike,
		Humidity:    response.Main.Humidity,
		Pressure:    response.Main.Pressure,
		WindSpeed:   response.Wind.Speed,
		Timestamp:   time.Unix(response.Dt, 0).UTC(),
		Timezone:    response.Timezone,
		Units:       units,
		Source:      OpenWeatherSource,
	}
	if len(response.Weather) > 0 {
		weather.Description = response.Weather[0].Description
		weather.Icon = response.Weather[0].Icon
	}

	return weather, nil
}

// GetForecast returns the 5 day / 3 hour feed as samples in feed order.
func (c *OpenWeatherClient) GetForecast(ctx context.Context, city string, units forecast.Units) (*models.Feed, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("openweather: %w", ErrMissingAPIKey)
	}

	data, err := c.GetWithRetry(ctx, c.endpoint("forecast", city, units))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch forecast: %w", err)
	}

	var response OpenWeatherForecastResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, fmt.Errorf("failed to parse forecast response: %w", err)
	}

	feed := &models.Feed{
		City:           response.City.Name,
		Country:        response.City.Country,
		TimezoneOffset: response.City.Timezone,
		Units:          units,
		Samples:        make([]forecast.Sample, 0, len(response.List)),
		Source:         OpenWeatherSource,
		FetchedAt:      time.Now().UTC(),
	}

	for _, item := range response.List {
		sample := forecast.Sample{
			Epoch:       item.Dt,
			Temperature: item.Main.Temp,
		}
		if len(item.Weather) > 0 {
			sample.IconCode = item.Weather[0].Icon
			sample.Description = item.Weather[0].Description
		}
		feed.Samples = append(feed.Samples, sample)
	}

	c.logger.Debug("OpenWeather forecast parsed",
		zap.String("city", feed.City),
		zap.Int("samples", len(feed.Samples)),
		zap.Int("timezone", feed.TimezoneOffset))

	return feed, nil
}
