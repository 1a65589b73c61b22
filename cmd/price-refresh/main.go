package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/maltedev/wayfair-price-tracker/internal/config"
	"github.com/maltedev/wayfair-price-tracker/internal/metrics"
	"github.com/maltedev/wayfair-price-tracker/internal/pricing"
	"github.com/maltedev/wayfair-price-tracker/internal/proxy"
	"github.com/maltedev/wayfair-price-tracker/internal/ratelimit"
	"github.com/maltedev/wayfair-price-tracker/internal/storage"
	"github.com/maltedev/wayfair-price-tracker/pkg/logger"
)

func main() {
	var (
		inputFile = flag.String("input", "", "Input CSV with a url column (defaults to PRICING_INPUT_FILE)")
		limit     = flag.Int("limit", 0, "Number of URLs to refresh (defaults to PRICING_URL_LIMIT)")
		retries   = flag.Int("retries", 0, "Attempts per URL (defaults to PRICING_MAX_RETRIES)")
	)
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *inputFile != "" {
		cfg.Output.InputFile = *inputFile
	}
	if *limit > 0 {
		cfg.Pricing.URLLimit = *limit
	}
	if *retries > 0 {
		cfg.Pricing.MaxRetries = *retries
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	if err := cfg.Pricing.ValidateCredentials(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Starting Wayfair price refresh", "input", cfg.Output.InputFile, "limit", cfg.Pricing.URLLimit)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received")
		cancel()
	}()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Price refresh failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	urls, err := storage.ReadURLs(cfg.Output.InputFile, cfg.Pricing.URLLimit)
	if err != nil {
		return err
	}
	logger.Info("Loaded URLs", "count", len(urls))

	m := metrics.New()
	defer func() {
		if err := m.WriteTextfile(cfg.Metrics.TextfilePath); err != nil {
			logger.Warn("Failed to write metrics", "error", err)
		}
	}()

	client := proxy.NewClient(proxy.Options{
		Endpoint:          cfg.Pricing.Endpoint,
		Username:          cfg.Pricing.Username,
		Password:          cfg.Pricing.Password,
		Source:            cfg.Pricing.Source,
		UserAgentType:     cfg.Pricing.UserAgentType,
		GeoLocation:       cfg.Pricing.GeoLocation,
		Render:            cfg.Pricing.Render,
		Timeout:           cfg.Pricing.RequestTimeout,
		RequestsPerSecond: cfg.Pricing.RequestsPerSecond,
	})

	refresher := pricing.NewRefresher(client, pricing.Options{
		MaxRetries: cfg.Pricing.MaxRetries,
		Backoff:    ratelimit.NewJitter(cfg.Pricing.BackoffMin, cfg.Pricing.BackoffMax),
	}, logger, m)

	result, err := refresher.Run(ctx, urls)
	if err != nil {
		return err
	}

	outputPath := filepath.Join(cfg.Output.Dir, storage.PriceTrackingFilename(time.Now()))
	if err := storage.WritePriceSamples(outputPath, result.Samples); err != nil {
		return fmt.Errorf("failed to save price samples: %w", err)
	}
	m.AddRecords("price_samples", len(result.Samples))

	logPath := cfg.Output.RunLogFile
	if !filepath.IsAbs(logPath) {
		logPath = filepath.Join(cfg.Output.Dir, logPath)
	}
	if err := storage.AppendRunSummary(logPath, result.Summary); err != nil {
		return fmt.Errorf("failed to save run log: %w", err)
	}

	s := result.Summary
	logger.Info("Run finished", "run_id", s.RunID, "success", s.SuccessCount, "failed", s.FailureCount)
	fmt.Printf("Success rate: %.2f%% (%d/%d)\n", s.SuccessRate, s.SuccessCount, s.TotalURLs)
	fmt.Printf("Done! Saved %d records to %s\n", len(result.Samples), outputPath)
	fmt.Printf("Log saved to %s\n", logPath)
	return nil
}
