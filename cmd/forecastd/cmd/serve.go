package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/majako/sales-forecaster/internal/api/handlers"
	"github.com/majako/sales-forecaster/internal/api/middleware"
	"github.com/majako/sales-forecaster/internal/config"
	"github.com/majako/sales-forecaster/internal/export"
	"github.com/majako/sales-forecaster/internal/forecast"
	"github.com/majako/sales-forecaster/internal/i18n"
	"github.com/majako/sales-forecaster/internal/majako"
	"github.com/majako/sales-forecaster/internal/notify"
	"github.com/majako/sales-forecaster/internal/store"
	"github.com/majako/sales-forecaster/pkg/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the admin API server and background scheduler",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	st, err := store.NewPostgresStore(startCtx, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer st.Close()

	messages, err := i18n.NewBundle(cfg.Locale)
	if err != nil {
		return fmt.Errorf("loading locale %q: %w", cfg.Locale, err)
	}

	var notifier notify.Notifier
	if cfg.Notifications.Webhook.Enabled {
		notifier = notify.NewWebhookNotifier(
			cfg.Notifications.Webhook.URL,
			notify.WithHeaders(cfg.Notifications.Webhook.Headers),
		)
	} else {
		notifier = notify.NewNoOpNotifier(log)
	}

	limiter := majako.NewRateLimiter(
		cfg.Forecasting.RateLimit.PerSecond,
		cfg.Forecasting.RateLimit.Burst,
		cfg.Forecasting.RateLimit.DailyLimit,
	)

	// The subscription key lives in the settings table so admins can
	// rotate it without a restart.
	keys := majako.KeyFunc(func(ctx context.Context) (string, error) {
		settings, err := st.GetSettings(ctx)
		if err != nil {
			return "", err
		}
		return settings.APIKey, nil
	})

	forecastClient := majako.NewForecastClient(keys,
		majako.WithBaseURL(cfg.Forecasting.BaseURL),
		majako.WithSubmitHTTPClient(&http.Client{Timeout: cfg.Forecasting.SubmitTimeout}),
		majako.WithRateLimiter(limiter),
	)

	supervisor := forecast.NewSupervisor(forecastClient, st, notifier, messages,
		forecast.WithSupervisorLogger(log),
		forecast.WithPollInterval(cfg.Forecasting.PollInterval),
	)

	service := forecast.NewService(st, forecastClient, supervisor, notifier, messages,
		forecast.WithServiceLogger(log),
	)

	scheduler, err := forecast.NewScheduler(
		service,
		st,
		cfg.Schedule.ResumeInterval,
		cfg.Schedule.PruneInterval,
		cfg.Schedule.PruneAge,
		log,
	)
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	e.Use(middleware.RequestLog(log))
	e.Use(middleware.Recovery(log))
	e.Use(middleware.Metrics())

	health := handlers.NewHealthHandler(st)
	e.GET("/healthz", health.Healthz)
	e.GET("/readyz", health.Readyz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := humaecho.New(e, huma.DefaultConfig("Sales Forecaster API", Version))
	handlers.RegisterForecastRoutes(api, handlers.NewForecastHandler(service))
	handlers.RegisterSettingsRoutes(api, handlers.NewSettingsHandler(st))
	handlers.RegisterJobRoutes(api, handlers.NewJobsHandler(st))
	handlers.RegisterExportRoutes(e, handlers.NewExportHandler(service, export.NewExporter(messages)))

	// Pick up a job that was mid-flight when the previous process died.
	if err := service.Resume(startCtx); err != nil {
		log.Warn("resuming pending job failed", "error", err)
	}

	scheduler.Start()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("starting server", "addr", addr)

	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()

	select {
	case <-scheduler.Stop().Done():
	case <-stopCtx.Done():
		log.Warn("scheduler jobs did not finish before shutdown deadline")
	}
	supervisor.CancelCurrent()

	if err := e.Shutdown(stopCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}

	log.Info("server stopped")
	return nil
}
