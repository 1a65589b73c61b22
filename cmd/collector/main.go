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

	"github.com/maltedev/wayfair-price-tracker/internal/browser"
	"github.com/maltedev/wayfair-price-tracker/internal/collector"
	"github.com/maltedev/wayfair-price-tracker/internal/config"
	"github.com/maltedev/wayfair-price-tracker/internal/metrics"
	"github.com/maltedev/wayfair-price-tracker/internal/storage"
	"github.com/maltedev/wayfair-price-tracker/pkg/logger"
)

func main() {
	var (
		targetURL  = flag.String("url", "", "Category page URL (defaults to COLLECTOR_URL)")
		maxSteps   = flag.Int("steps", 0, "Maximum scroll steps (defaults to COLLECTOR_MAX_STEPS)")
		outputFile = flag.String("output", "", "Output CSV file (defaults to a timestamped file in OUTPUT_DIR)")
		headless   = flag.Bool("headless", true, "Run browser in headless mode")
	)
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *targetURL != "" {
		cfg.Collector.URL = *targetURL
	}
	if *maxSteps > 0 {
		cfg.Collector.MaxSteps = *maxSteps
	}
	cfg.Browser.Headless = *headless && cfg.Browser.Headless

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Starting Wayfair listing collector", "url", cfg.Collector.URL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received")
		cancel()
	}()

	if err := run(ctx, cfg, *outputFile, logger); err != nil {
		logger.Error("Collector failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, outputFile string, logger *slog.Logger) error {
	m := metrics.New()
	defer func() {
		if err := m.WriteTextfile(cfg.Metrics.TextfilePath); err != nil {
			logger.Warn("Failed to write metrics", "error", err)
		}
	}()

	opts := collector.Options{
		ContainerSelector: cfg.Collector.ContainerSelector,
		CardSelector:      cfg.Collector.CardSelector,
		ContainerTimeout:  cfg.Collector.ContainerTimeout,
		MaxSteps:          cfg.Collector.MaxSteps,
		WheelDelta:        cfg.Collector.WheelDelta,
		ScrollDelta:       cfg.Collector.ScrollDelta,
		SettleDelay:       cfg.Collector.SettleDelay,
	}

	var titles []string
	err := browser.WithSession(cfg.Browser.Options(), func(page browser.Page) error {
		result, err := collector.New(page, opts, logger, m).Collect(ctx, cfg.Collector.URL)
		if err != nil {
			return err
		}

		fmt.Printf("Found %d listings after %d scroll steps\n", result.Count, result.Steps)
		titles = collector.Titles(result.Cards, cfg.Collector.TitleSelector)
		for i, title := range titles {
			fmt.Printf("%d. %s\n", i+1, title)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if outputFile == "" {
		outputFile = filepath.Join(cfg.Output.Dir, storage.ListingsFilename(time.Now()))
	}
	if err := storage.WriteListings(outputFile, titles); err != nil {
		return fmt.Errorf("failed to save listings: %w", err)
	}
	m.AddRecords("listings", len(titles))

	fmt.Printf("Saved %d listings to %s\n", len(titles), outputFile)
	return nil
}
