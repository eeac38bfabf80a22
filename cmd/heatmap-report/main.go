// heatmap-report downloads a route's heatmap report from the backend.
//
//	heatmap-report -route 12 -format excel -out ./reports
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/passengerflow-console/internal/api"
	"github.com/passengerflow-console/internal/common/config"
	"github.com/passengerflow-console/internal/common/logger"
)

func main() {
	_ = godotenv.Load()

	route := flag.String("route", "", "route name (required)")
	format := flag.String("format", "pdf", "report format: pdf or excel")
	outDir := flag.String("out", ".", "destination directory")
	noWeather := flag.Bool("no-weather", false, "request predictions without weather adjustment")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall download timeout")
	flag.Parse()

	if *route == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load configuration:", err)
		os.Exit(1)
	}

	log := logger.NewWithWriters(logger.ParseLogLevel(cfg.Logging.Level), logger.ConsoleWriter(time.Kitchen))

	reportFormat, err := api.ParseReportFormat(*format)
	if err != nil {
		log.Fatal("Invalid format", "error", err)
	}

	client, err := api.NewClient(api.Options{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: *timeout,
		Token:   cfg.Backend.AuthToken,
	}, log)
	if err != nil {
		log.Fatal("Invalid backend configuration", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	path, err := client.DownloadReportToFile(ctx, api.ReportRequest{
		Route:      *route,
		UseWeather: cfg.Backend.UseWeather && !*noWeather,
		Format:     reportFormat,
	}, *outDir)
	if err != nil {
		log.Fatal("Report download failed", "route", *route, "error", api.Message(err))
	}

	log.Info("Report saved", "path", path)
}
