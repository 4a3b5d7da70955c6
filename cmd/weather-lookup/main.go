package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	httpapi "github.com/i474232898/weather-lookup/internal/api/http"
	"github.com/i474232898/weather-lookup/internal/config"
	"github.com/i474232898/weather-lookup/internal/scheduler"
	"github.com/i474232898/weather-lookup/internal/store"
	"github.com/i474232898/weather-lookup/internal/weather"
	"github.com/i474232898/weather-lookup/internal/weather/providers"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found or error loading it", slog.Any("error", err))
	}

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Shared HTTP client for outbound API calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	client := providers.NewOpenWeatherClient(httpClient, cfg.OpenWeatherAPIKey, cfg.WeatherBaseURL)

	var geocoder weather.Geocoder
	switch cfg.Geocoder {
	case config.GeocoderGoogle:
		geocoder = providers.NewGoogleGeocoder(cfg.GoogleAPIKey)
	default:
		geocoder = providers.NewOpenWeatherGeocoder(httpClient, cfg.OpenWeatherAPIKey, cfg.GeocodingBaseURL)
	}
	geocoder = providers.NewCachedGeocoder(geocoder, cfg.GeocodeCacheTTL)

	// Saved cities.
	var cities weather.CityStore
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pgStore, pool, err := store.OpenPostgres(ctx, cfg.DatabaseURL, log.With(slog.String("component", "store")))
		if err != nil {
			log.Error("Failed to open postgres store", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()
		cities = pgStore
	default:
		cities = store.NewMemoryStore()
	}

	// Preferences.
	var prefs weather.PreferenceStore
	switch cfg.PrefsDriver {
	case config.DriverRedis:
		rdb, err := store.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.Error("Failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer rdb.Close()
		prefs = store.NewRedisPrefs(rdb, "")
	default:
		prefs = store.NewMemoryPrefs()
	}

	service := weather.NewService(geocoder, client, cities, prefs, cfg.ServiceSettings(),
		log.With(slog.String("component", "weather")))
	go service.Run(ctx)

	if _, err := service.Restore(ctx); err != nil {
		log.Warn("Failed to restore last city", slog.Any("error", err))
	}

	// Scheduler that refreshes the displayed city once it goes stale.
	sched := scheduler.New(service, cfg.RefreshInterval, log)
	if err := sched.Start(); err != nil {
		log.Error("Failed to start scheduler", slog.Any("error", err))
		os.Exit(1)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "weather-lookup",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          2*cfg.HTTPTimeout + cfg.SearchDebounce,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-lookup",
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, service)

	go func() {
		log.Info("Listening", slog.String("port", cfg.Port))
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("Fiber server stopped", slog.Any("error", err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("Error during shutdown", slog.Any("error", err))
	}
}
