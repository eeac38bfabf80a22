package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/passengerflow-console/internal/api"
	"github.com/passengerflow-console/internal/common/config"
	"github.com/passengerflow-console/internal/common/db"
	"github.com/passengerflow-console/internal/common/logger"
	"github.com/passengerflow-console/internal/common/notify"
	"github.com/passengerflow-console/internal/geo"
	"github.com/passengerflow-console/internal/heatmap"
	"github.com/passengerflow-console/internal/records"
	"github.com/passengerflow-console/internal/stops"
	"github.com/passengerflow-console/internal/web"
)

func main() {
	// .env is optional; the environment wins
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := logger.DefaultConfig()
	logCfg.Level = logger.ParseLogLevel(cfg.Logging.Level)
	logCfg.FilePath = cfg.Logging.FilePath
	log := logger.New(logCfg)

	log.Info("Passenger flow console starting",
		"version", "1.0.0",
		"log_level", cfg.Logging.Level,
		"backend_url", cfg.Backend.BaseURL,
		"stops_source", cfg.Stops.Source,
		"port", cfg.Server.Port,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := api.NewClient(api.Options{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: cfg.Backend.Timeout,
		Token:   cfg.Backend.AuthToken,
	}, log)
	if err != nil {
		log.Fatal("Invalid backend configuration", "error", err)
	}

	checks := []web.HealthCheck{{Name: "backend", Check: func(ctx context.Context) error {
		_, err := client.GetStops(ctx)
		return err
	}}}

	var source stops.Source = stops.NewAPISource(client)
	if cfg.Stops.Source == "postgres" {
		database, err := db.New(ctx, cfg.Database.ConnectionString(), log)
		if err != nil {
			log.Fatal("Failed to connect to database", "error", err)
		}
		defer database.Close()
		source = stops.NewPostgresSource(database)
		checks = append(checks, web.HealthCheck{Name: "database", Check: database.Ping})
	}
	cached := stops.NewCachedSource(source, cfg.Stops.CacheTTL, log)

	var sinks []notify.Sink
	if sink := notify.NewWebhookSink(cfg.Notify.WebhookURL, "passengerflow-console"); sink != nil {
		sinks = append(sinks, sink)
		log.Info("Forwarding error toasts to webhook")
	}
	toasts := notify.NewCenter(cfg.Notify.ToastDuration, log, sinks...)
	defer toasts.Close()

	render := cfg.Render
	ctrlCfg := heatmap.DefaultControllerConfig()
	ctrlCfg.Map.Canvas = geo.Canvas{
		Width:  render.Width,
		Height: render.Height,
		Margin: geo.Margin{
			Top:    render.Margin.Top,
			Right:  render.Margin.Right,
			Bottom: render.Margin.Bottom,
			Left:   render.Margin.Left,
		},
	}
	ctrlCfg.Map.NodeRadius = render.NodeRadius
	ctrlCfg.Map.Cyclic = render.Cyclic
	ctrlCfg.TableFrom, ctrlCfg.TableTo = render.TableFrom, render.TableTo
	ctrlCfg.UseWeather = cfg.Backend.UseWeather
	ctrl := heatmap.NewController(cached, client, client, toasts, ctrlCfg, log)

	svc := records.NewService(client, toasts, records.NewValidator(time.Local), log)

	srv := &http.Server{
		Addr: ":" + strconv.Itoa(cfg.Server.Port),
		Handler: web.NewRouter(web.Deps{
			Heatmap:        ctrl,
			Records:        svc,
			Toasts:         toasts,
			HealthChecks:   checks,
			Location:       time.Local,
			PNGScale:       render.PNGScale,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			StaticDir:      cfg.Server.StaticDir,
			Logger:         log,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
			sigChan <- syscall.SIGTERM
		}
	}()

	if cfg.Stops.RefreshInterval > 0 {
		refresher := stops.NewRefresher(cached, cfg.Stops.RefreshInterval, log)
		if err := refresher.Start(ctx); err != nil {
			log.Fatal("Failed to start stop refresher", "error", err)
		}
		defer refresher.Stop()
	}

	// Warm the stop cache so the first route list is fast
	go func() {
		if _, err := cached.Stops(ctx); err != nil {
			log.Warn("Initial stop load failed", "error", err)
		}
	}()

	<-sigChan
	log.Info("Shutdown signal received")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}

	wg.Wait()
	log.Info("Passenger flow console stopped")
}
