package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bobby-s-dev/weather-forecast/internal/config"
	"github.com/bobby-s-dev/weather-forecast/internal/forecast"
	"github.com/bobby-s-dev/weather-forecast/internal/models"
	"github.com/bobby-s-dev/weather-forecast/pkg/client"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

var (
	ErrNoClients          = errors.New("no weather clients initialized")
	ErrAllProvidersFailed = errors.New("all weather providers failed")
)

type WeatherClient interface {
	Name() string
	GetCurrentWeather(ctx context.Context, city string, units forecast.Units) (*models.CurrentWeather, error)
	GetForecast(ctx context.Context, city string, units forecast.Units) (*models.Feed, error)
}

// WeatherService fetches from providers in priority order, caches what
// they return and summarizes forecast feeds on read.
type WeatherService struct {
	clients    []WeatherClient
	cache      *WeatherCache
	summarizer *forecast.Summarizer
	metrics    *Metrics
	logger     *zap.Logger

	mu            sync.RWMutex
	lastFetchTime time.Time
	successCount  int
	failureCount  int
}

func NewWeatherService(clients []WeatherClient, cache *WeatherCache, summarizer *forecast.Summarizer, metrics *Metrics, logger *zap.Logger) (*WeatherService, error) {
	if len(clients) == 0 {
		return nil, ErrNoClients
	}
	if summarizer == nil {
		summarizer = forecast.NewSummarizer(nil)
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}

	return &WeatherService{
		clients:    clients,
		cache:      cache,
		summarizer: summarizer,
		metrics:    metrics,
		logger:     logger,
	}, nil
}

// NewWeatherServiceFromConfig wires the provider clients described by cfg.
// OpenWeatherMap is preferred when an API key is set; Open-Meteo is always
// available as a fallback.
func NewWeatherServiceFromConfig(cfg *config.Config, reg prometheus.Registerer, logger *zap.Logger) (*WeatherService, error) {
	clientConfig := client.ClientConfig{
		Timeout:        cfg.WeatherAPI.HTTPTimeout,
		MaxRetries:     cfg.Retry.MaxRetries,
		RetryDelay:     cfg.Retry.Delay,
		Multiplier:     cfg.Retry.Multiplier,
		Threshold:      cfg.CircuitBreaker.Threshold,
		BreakerTimeout: cfg.CircuitBreaker.Timeout,
	}

	var clients []WeatherClient

	if cfg.WeatherAPI.OpenWeatherAPIKey != "" {
		clients = append(clients, client.NewOpenWeatherClient(
			cfg.WeatherAPI.OpenWeatherAPIKey,
			cfg.WeatherAPI.OpenWeatherURL,
			clientConfig,
			logger,
		))
		logger.Info("OpenWeatherMap client initialized")
	}

	clients = append(clients, client.NewOpenMeteoClient(
		cfg.WeatherAPI.OpenMeteoURL,
		cfg.WeatherAPI.OpenMeteoGeocodingURL,
		clientConfig,
		logger,
	))
	logger.Info("Open-Meteo client initialized")

	cache := NewWeatherCache(cfg.Cache.Duration, cfg.Cache.MaxSize, logger)

	return NewWeatherService(clients, cache, forecast.NewSummarizer(nil), NewMetrics(reg), logger)
}

func (s *WeatherService) GetCurrentWeather(ctx context.Context, city string, units forecast.Units) (*models.CurrentWeather, error) {
	if cached, ok := s.cache.GetCurrentWeather(city, units); ok {
		s.metrics.cache("current", true)
		s.logger.Debug("Cache hit for current weather", zap.String("city", city))
		return cached, nil
	}
	s.metrics.cache("current", false)

	return s.fetchCurrentWeather(ctx, city, units)
}

// GetForecast returns up to forecast.MaxDays day summaries for city,
// excluding the city's current local day.
func (s *WeatherService) GetForecast(ctx context.Context, city string, units forecast.Units) (*models.DailyForecast, error) {
	feed, ok := s.cache.GetForecast(city, units)
	s.metrics.cache("forecast", ok)
	if ok {
		s.logger.Debug("Cache hit for forecast", zap.String("city", city))
	} else {
		var err error
		if feed, err = s.fetchForecast(ctx, city, units); err != nil {
			return nil, err
		}
	}

	result, err := s.summarizer.Summarize(feed.Samples, feed.TimezoneOffset, units)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize forecast for %s from %s: %w", city, feed.Source, err)
	}
	s.metrics.ForecastDays.Observe(float64(len(result.Days)))

	return &models.DailyForecast{
		City:    feed.City,
		Country: feed.Country,
		Source:  feed.Source,
		Result:  result,
	}, nil
}

func (s *WeatherService) fetchCurrentWeather(ctx context.Context, city string, units forecast.Units) (*models.CurrentWeather, error) {
	var errs []error
	for _, c := range s.clients {
		current, err := c.GetCurrentWeather(ctx, city, units)
		s.metrics.provider(c.Name(), "current", err)
		if err != nil {
			s.logger.Warn("Failed to fetch current weather from source",
				zap.String("source", c.Name()),
				zap.String("city", city),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", c.Name(), err))
			continue
		}

		s.cache.SetCurrentWeather(city, units, current)
		return current, nil
	}

	return nil, fmt.Errorf("%w for %s: %w", ErrAllProvidersFailed, city, errors.Join(errs...))
}

func (s *WeatherService) fetchForecast(ctx context.Context, city string, units forecast.Units) (*models.Feed, error) {
	var errs []error
	for _, c := range s.clients {
		feed, err := c.GetForecast(ctx, city, units)
		s.metrics.provider(c.Name(), "forecast", err)
		if err != nil {
			s.logger.Warn("Failed to fetch forecast from source",
				zap.String("source", c.Name()),
				zap.String("city", city),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", c.Name(), err))
			continue
		}

		s.cache.SetForecast(city, units, feed)
		return feed, nil
	}

	return nil, fmt.Errorf("%w for %s: %w", ErrAllProvidersFailed, city, errors.Join(errs...))
}

// Refresh re-fetches current weather and forecast feeds for every city,
// bypassing the cache. It returns an error if any city failed.
func (s *WeatherService) Refresh(ctx context.Context, cities []string, units forecast.Units) error {
	s.mu.Lock()
	s.lastFetchTime = time.Now()
	s.mu.Unlock()

	var wg sync.WaitGroup
	errCh := make(chan error, len(cities))

	startTime := time.Now()

	for _, city := range cities {
		wg.Add(1)
		go func(city string) {
			defer wg.Done()

			_, currentErr := s.fetchCurrentWeather(ctx, city, units)
			_, forecastErr := s.fetchForecast(ctx, city, units)
			err := errors.Join(currentErr, forecastErr)

			s.mu.Lock()
			if err != nil {
				s.failureCount++
			} else {
				s.successCount++
			}
			s.mu.Unlock()

			if err != nil {
				s.logger.Error("Failed to refresh weather for city",
					zap.String("city", city),
					zap.Error(err))
				errCh <- err
			}
		}(city)
	}

	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}

	s.mu.RLock()
	s.logger.Info("Weather refresh completed",
		zap.Int("cities", len(cities)),
		zap.Duration("duration", time.Since(startTime)),
		zap.Int("success", s.successCount),
		zap.Int("failure", s.failureCount))
	s.mu.RUnlock()

	if len(errs) > 0 {
		return fmt.Errorf("%d of %d cities failed to refresh: %w", len(errs), len(cities), errors.Join(errs...))
	}
	return nil
}

func (s *WeatherService) GetLastFetchTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastFetchTime
}

func (s *WeatherService) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sources := make([]string, 0, len(s.clients))
	for _, c := range s.clients {
		sources = append(sources, c.Name())
	}

	return map[string]interface{}{
		"last_fetch_time": s.lastFetchTime,
		"success_count":   s.successCount,
		"failure_count":   s.failureCount,
		"active_clients":  sources,
		"cache_stats":     s.cache.GetStats(),
	}
}

// Close stops background work owned by the service.
func (s *WeatherService) Close() {
	s.cache.Stop()
}
