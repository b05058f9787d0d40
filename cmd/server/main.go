package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bobby-s-dev/weather-forecast/internal/api"
	"github.com/bobby-s-dev/weather-forecast/internal/config"
	"github.com/bobby-s-dev/weather-forecast/internal/scheduler"
	"github.com/bobby-s-dev/weather-forecast/internal/services"
	"github.com/bobby-s-dev/weather-forecast/internal/storage"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	logCfg := zap.NewProductionConfig()
	logger, _ := logCfg.Build()
	defer logger.Sync()

	zap.ReplaceGlobals(logger)
	logger.Info("Starting Weather Forecast Service")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}
	logCfg.Level.SetLevel(cfg.ParseLogLevel().Level())

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	weatherService, err := services.NewWeatherServiceFromConfig(cfg, registry, logger)
	if err != nil {
		logger.Fatal("Failed to initialize weather service", zap.Error(err))
	}
	defer weatherService.Close()

	preferences, err := storage.Open(cfg.Storage.PreferencesDB, logger)
	if err != nil {
		logger.Fatal("Failed to open preference store", zap.Error(err))
	}
	defer preferences.Close()

	weatherScheduler := scheduler.NewScheduler(
		weatherService,
		cfg.Scheduler.DefaultCities,
		cfg.Scheduler.Schedule,
		cfg.WeatherAPI.DefaultUnits,
		logger,
	)

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		JSONEncoder:  json.Marshal,
		ErrorHandler: api.ErrorHandler,
	})

	handler := api.NewHandler(weatherService, preferences, weatherScheduler, cfg.WeatherAPI.DefaultUnits, logger)
	api.SetupRoutes(app, handler, registry)

	if err := weatherScheduler.Start(); err != nil {
		logger.Fatal("Failed to start scheduler", zap.Error(err))
	}

	// Start server in goroutine
	go func() {
		addr := ":" + cfg.Server.Port
		logger.Info("Starting server", zap.String("address", addr))

		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	weatherScheduler.Stop()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}

	logger.Info("Server stopped")
}
