package services

import (
	"strings"
	"sync"
	"time"

	"github.com/bobby-s-dev/weather-forecast/internal/forecast"
	"github.com/bobby-s-dev/weather-forecast/internal/models"
	"go.uber.org/zap"
)

type CacheItem struct {
	Data      interface{}
	ExpiresAt time.Time
}

// WeatherCache holds provider responses per city and unit system. Forecasts
// are stored as raw feeds so summaries always reflect the current day.
type WeatherCache struct {
	mu              sync.RWMutex
	currentWeather  map[string]CacheItem
	forecast        map[string]CacheItem
	logger          *zap.Logger
	defaultDuration time.Duration
	maxSize         int
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once
	now             func() time.Time
}

func NewWeatherCache(defaultDuration time.Duration, maxSize int, logger *zap.Logger) *WeatherCache {
	cache := &WeatherCache{
		currentWeather:  make(map[string]CacheItem),
		forecast:        make(map[string]CacheItem),
		logger:          logger,
		defaultDuration: defaultDuration,
		maxSize:         maxSize,
		cleanupInterval: time.Minute,
		stopCleanup:     make(chan struct{}),
		now:             time.Now,
	}

	go cache.startCleanup()

	return cache
}

func cacheKey(city string, units forecast.Units) string {
	return strings.ToLower(strings.TrimSpace(city)) + "|" + string(units)
}

func (c *WeatherCache) SetCurrentWeather(city string, units forecast.Units, weather *models.CurrentWeather) {
	c.set(c.currentWeather, cacheKey(city, units), weather)
}

func (c *WeatherCache) GetCurrentWeather(city string, units forecast.Units) (*models.CurrentWeather, bool) {
	data, ok := c.get(c.currentWeather, cacheKey(city, units))
	if !ok {
		return nil, false
	}
	weather, ok := data.(*models.CurrentWeather)
	return weather, ok
}

func (c *WeatherCache) SetForecast(city string, units forecast.Units, feed *models.Feed) {
	c.set(c.forecast, cacheKey(city, units), feed)
}

func (c *WeatherCache) GetForecast(city string, units forecast.Units) (*models.Feed, bool) {
	data, ok := c.get(c.forecast, cacheKey(city, units))
	if !ok {
		return nil, false
	}
	feed, ok := data.(*models.Feed)
	return feed, ok
}

func (c *WeatherCache) set(items map[string]CacheItem, key string, data interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Evict if cache is too large
	if _, exists := items[key]; !exists && c.size() >= c.maxSize {
		c.evictOldest()
	}

	expiresAt := c.now().Add(c.defaultDuration)
	items[key] = CacheItem{
		Data:      data,
		ExpiresAt: expiresAt,
	}

	c.logger.Debug("Weather data cached",
		zap.String("key", key),
		zap.Time("expires_at", expiresAt))
}

func (c *WeatherCache) get(items map[string]CacheItem, key string) (interface{}, bool) {
	c.mu.RLock()
	item, exists := items[key]
	c.mu.RUnlock()

	if !exists {
		return nil, false
	}

	if c.now().After(item.ExpiresAt) {
		c.mu.Lock()
		delete(items, key)
		c.mu.Unlock()
		return nil, false
	}

	return item.Data, true
}

func (c *WeatherCache) size() int {
	return len(c.currentWeather) + len(c.forecast)
}

// evictOldest drops the entry closest to expiry across both maps.
func (c *WeatherCache) evictOldest() {
	var oldestMap map[string]CacheItem
	var oldestKey string
	var oldestTime time.Time

	for _, items := range []map[string]CacheItem{c.currentWeather, c.forecast} {
		for key, item := range items {
			if oldestMap == nil || item.ExpiresAt.Before(oldestTime) {
				oldestMap = items
				oldestKey = key
				oldestTime = item.ExpiresAt
			}
		}
	}

	if oldestMap != nil {
		delete(oldestMap, oldestKey)
		c.logger.Debug("Evicted oldest entry from cache",
			zap.String("key", oldestKey))
	}
}

func (c *WeatherCache) startCleanup() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stopCleanup:
			return
		}
	}
}

func (c *WeatherCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	expiredCount := 0

	for _, items := range []map[string]CacheItem{c.currentWeather, c.forecast} {
		for key, item := range items {
			if now.After(item.ExpiresAt) {
				delete(items, key)
				expiredCount++
			}
		}
	}

	if expiredCount > 0 {
		c.logger.Debug("Cleaned expired cache items",
			zap.Int("count", expiredCount))
	}
}

func (c *WeatherCache) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCleanup)
	})
}

func (c *WeatherCache) GetStats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return map[string]interface{}{
		"current_weather_items": len(c.currentWeather),
		"forecast_items":        len(c.forecast),
		"max_size":              c.maxSize,
		"default_duration":      c.defaultDuration.String(),
	}
}
