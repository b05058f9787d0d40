package api

import (
	"context"
	"errors"
	"time"

	"github.com/bobby-s-dev/weather-forecast/internal/forecast"
	"github.com/bobby-s-dev/weather-forecast/internal/models"
	"github.com/bobby-s-dev/weather-forecast/internal/storage"
	"github.com/bobby-s-dev/weather-forecast/pkg/client"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var validate = validator.New()

type WeatherService interface {
	GetCurrentWeather(ctx context.Context, city string, units forecast.Units) (*models.CurrentWeather, error)
	GetForecast(ctx context.Context, city string, units forecast.Units) (*models.DailyForecast, error)
	GetLastFetchTime() time.Time
	GetStats() map[string]interface{}
}

type PreferenceStore interface {
	Create(ctx context.Context, pref storage.Preference) (*storage.Preference, error)
	Get(ctx context.Context, clientID string) (*storage.Preference, error)
	Save(ctx context.Context, pref *storage.Preference) error
}

// Scheduler exposes the refresh loop's city list and status.
type Scheduler interface {
	Cities() []string
	GetStatus() map[string]interface{}
}

type Handler struct {
	weather      WeatherService
	preferences  PreferenceStore
	scheduler    Scheduler
	defaultUnits forecast.Units
	logger       *zap.Logger
	startTime    time.Time
}

func NewHandler(weather WeatherService, preferences PreferenceStore, scheduler Scheduler, defaultUnits forecast.Units, logger *zap.Logger) *Handler {
	return &Handler{
		weather:      weather,
		preferences:  preferences,
		scheduler:    scheduler,
		defaultUnits: defaultUnits,
		logger:       logger,
		startTime:    time.Now(),
	}
}

type weatherQuery struct {
	City  string `validate:"required"`
	Units string `validate:"omitempty,oneof=metric imperial"`
}

type preferenceRequest struct {
	Theme string `json:"theme" validate:"required,oneof=light dark"`
	Units string `json:"units" validate:"required,oneof=metric imperial"`
}

func (h *Handler) parseWeatherQuery(c *fiber.Ctx) (string, forecast.Units, error) {
	q := weatherQuery{City: c.Query("city"), Units: c.Query("units")}
	if err := validate.Struct(q); err != nil {
		return "", "", fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	units := h.defaultUnits
	if q.Units != "" {
		units = forecast.Units(q.Units)
	}
	return q.City, units, nil
}

// GetCurrentWeather handles GET /api/v1/weather/current
func (h *Handler) GetCurrentWeather(c *fiber.Ctx) error {
	city, units, err := h.parseWeatherQuery(c)
	if err != nil {
		return err
	}

	h.logger.Info("Fetching current weather",
		zap.String("city", city),
		zap.String("units", string(units)))

	weather, err := h.weather.GetCurrentWeather(c.UserContext(), city, units)
	if err != nil {
		h.logger.Error("Failed to get current weather",
			zap.String("city", city),
			zap.Error(err))
		return upstreamError(err, "failed to fetch weather data")
	}

	return c.JSON(models.NewCurrentWeatherView(weather))
}

// GetForecast handles GET /api/v1/weather/forecast
func (h *Handler) GetForecast(c *fiber.Ctx) error {
	city, units, err := h.parseWeatherQuery(c)
	if err != nil {
		return err
	}

	h.logger.Info("Fetching forecast",
		zap.String("city", city),
		zap.String("units", string(units)))

	daily, err := h.weather.GetForecast(c.UserContext(), city, units)
	if err != nil {
		h.logger.Error("Failed to get forecast",
			zap.String("city", city),
			zap.Error(err))
		return upstreamError(err, "failed to fetch forecast data")
	}

	return c.JSON(models.NewForecastView(daily))
}

// upstreamError maps a service error onto an HTTP error. Provider outages
// and feeds the summarizer rejects are both the upstream's fault.
func upstreamError(err error, msg string) error {
	switch {
	case errors.Is(err, client.ErrCityNotFound):
		return fiber.NewError(fiber.StatusNotFound, "city not found")
	case errors.Is(err, forecast.ErrInvalidSample):
		return fiber.NewError(fiber.StatusBadGateway, "provider returned malformed forecast data")
	default:
		return fiber.NewError(fiber.StatusBadGateway, msg)
	}
}

// GetHealth handles GET /api/v1/health
func (h *Handler) GetHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":     "healthy",
		"timestamp":  time.Now(),
		"last_fetch": h.weather.GetLastFetchTime(),
		"uptime":     time.Since(h.startTime).String(),
		"stats":      h.weather.GetStats(),
		"scheduler":  h.scheduler.GetStatus(),
	})
}

// GetCities handles GET /api/v1/cities
func (h *Handler) GetCities(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"cities": h.scheduler.Cities(),
	})
}

// CreatePreference handles POST /api/v1/preferences
func (h *Handler) CreatePreference(c *fiber.Ctx) error {
	req, err := bindPreference(c)
	if err != nil {
		return err
	}

	pref, err := h.preferences.Create(c.UserContext(), storage.Preference{
		Theme: storage.Theme(req.Theme),
		Units: forecast.Units(req.Units),
	})
	if err != nil {
		h.logger.Error("Failed to create preference", zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "failed to store preference")
	}

	return c.Status(fiber.StatusCreated).JSON(pref)
}

// GetPreference handles GET /api/v1/preferences/:id
func (h *Handler) GetPreference(c *fiber.Ctx) error {
	id, err := clientID(c)
	if err != nil {
		return err
	}

	pref, err := h.preferences.Get(c.UserContext(), id)
	if errors.Is(err, storage.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "preference not found")
	}
	if err != nil {
		h.logger.Error("Failed to load preference", zap.String("client_id", id), zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load preference")
	}

	return c.JSON(pref)
}

// UpdatePreference handles PUT /api/v1/preferences/:id
func (h *Handler) UpdatePreference(c *fiber.Ctx) error {
	id, err := clientID(c)
	if err != nil {
		return err
	}
	req, err := bindPreference(c)
	if err != nil {
		return err
	}

	ctx := c.UserContext()
	if _, err := h.preferences.Get(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "preference not found")
		}
		h.logger.Error("Failed to load preference", zap.String("client_id", id), zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load preference")
	}

	pref := &storage.Preference{
		ClientID: id,
		Theme:    storage.Theme(req.Theme),
		Units:    forecast.Units(req.Units),
	}
	if err := h.preferences.Save(ctx, pref); err != nil {
		h.logger.Error("Failed to save preference", zap.String("client_id", id), zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "failed to store preference")
	}

	return c.JSON(pref)
}

func bindPreference(c *fiber.Ctx) (preferenceRequest, error) {
	var req preferenceRequest
	if err := c.BodyParser(&req); err != nil {
		return req, fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return req, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return req, nil
}

func clientID(c *fiber.Ctx) (string, error) {
	id := c.Params("id")
	if err := validate.Var(id, "required,uuid"); err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, "client id must be a uuid")
	}
	return id, nil
}
